package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config captures environment driven configuration values for the assignment
// engine.
type Config struct {
	SQLiteDSN               string
	LookbackDays            int
	AbsenceSuspendThreshold int
	PolicyFile              string
}

// Load parses configuration values from the current process environment.
//
// Every field has a sensible default; set values are validated and reported
// together so a misconfigured deployment fails with one complete message.
func Load() (Config, error) {
	cfg := Config{
		SQLiteDSN:               "file:assignments.db?_foreign_keys=on",
		LookbackDays:            30,
		AbsenceSuspendThreshold: 2,
	}

	invalid := make([]string, 0, 2)

	if dsn := strings.TrimSpace(os.Getenv("ASSIGNER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if value := strings.TrimSpace(os.Getenv("ASSIGNER_LOOKBACK_DAYS")); value != "" {
		days, err := strconv.Atoi(value)
		if err != nil || days <= 0 {
			invalid = append(invalid, "ASSIGNER_LOOKBACK_DAYS")
		} else {
			cfg.LookbackDays = days
		}
	}

	if value := strings.TrimSpace(os.Getenv("ASSIGNER_ABSENCE_THRESHOLD")); value != "" {
		threshold, err := strconv.Atoi(value)
		if err != nil || threshold <= 0 {
			invalid = append(invalid, "ASSIGNER_ABSENCE_THRESHOLD")
		} else {
			cfg.AbsenceSuspendThreshold = threshold
		}
	}

	if path := strings.TrimSpace(os.Getenv("ASSIGNER_POLICY_FILE")); path != "" {
		cfg.PolicyFile = path
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
