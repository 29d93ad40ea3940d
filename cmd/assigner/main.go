package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/exam-assignment/internal/application"
	"github.com/example/exam-assignment/internal/config"
	"github.com/example/exam-assignment/internal/logging"
	"github.com/example/exam-assignment/internal/persistence/sqlite"
	"github.com/example/exam-assignment/internal/planner"
	"github.com/example/exam-assignment/internal/sessions"
)

func main() {
	logger := logging.New(os.Stdout, slog.LevelInfo)
	os.Exit(run(logger))
}

func run(logger *slog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		roomsFlag    = flag.String("rooms", "", "comma separated room IDs to staff (required)")
		fromFlag     = flag.String("from", "", "first exam day, YYYY-MM-DD (required)")
		toFlag       = flag.String("to", "", "last exam day, YYYY-MM-DD (defaults to -from)")
		periodsFlag  = flag.String("periods", "morning,evening", "comma separated periods to staff")
		weekdaysFlag = flag.String("weekdays", "", "comma separated weekday filter, e.g. mon,wed,fri (empty selects every day)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return 1
	}

	engineCfg := application.EngineConfig{
		LookbackDays:            cfg.LookbackDays,
		AbsenceSuspendThreshold: cfg.AbsenceSuspendThreshold,
	}
	if cfg.PolicyFile != "" {
		policy, err := config.LoadPolicy(cfg.PolicyFile)
		if err != nil {
			logger.Error("failed to load policy file", "path", cfg.PolicyFile, "error", err)
			return 1
		}
		cfg = policy.Apply(cfg)
		engineCfg.LookbackDays = cfg.LookbackDays
		engineCfg.AbsenceSuspendThreshold = cfg.AbsenceSuspendThreshold
		engineCfg.Rules = planner.NewRuleSet(policy.Weights())
	}

	window, roomIDs, err := parseRequest(*roomsFlag, *fromFlag, *toFlag, *periodsFlag, *weekdaysFlag)
	if err != nil {
		logger.Error("invalid arguments", "error", err)
		flag.Usage()
		return 2
	}

	store, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "dsn", cfg.SQLiteDSN, "error", err)
		return 1
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		return 1
	}

	engine := application.NewEngine(store, application.NewLogNotifier(logger), engineCfg, uuid.NewString, time.Now, logger)

	expanded, err := sessions.Expand(window)
	if err != nil {
		logger.Error("failed to expand session window", "error", err)
		return 2
	}
	if len(expanded) == 0 {
		logger.Warn("window selects no sessions", "from", *fromFlag, "to", *toFlag)
		return 0
	}

	exitCode := 0
	for _, session := range expanded {
		if ctx.Err() != nil {
			logger.Warn("interrupted before all sessions were planned")
			exitCode = 1
			break
		}

		plan, err := engine.Planning.Plan(ctx, application.PlanParams{
			Date:    session.Date,
			Period:  session.Period,
			RoomIDs: roomIDs,
		})
		if err != nil {
			logger.Error("failed to plan session",
				"date", planner.DateKey(session.Date),
				"period", string(session.Period),
				"error", err,
			)
			exitCode = 1
			continue
		}

		logger.Info("session planned",
			"date", planner.DateKey(plan.Date),
			"period", string(plan.Period),
			"status", string(plan.Status),
			"rooms", len(plan.Assignments),
		)

		for _, shortfall := range engine.Planning.OutstandingDeficiencies(session.Date, session.Period) {
			logger.Warn("session left understaffed",
				"date", planner.DateKey(shortfall.Date),
				"period", string(shortfall.Period),
				"room_id", shortfall.RoomID,
				"missing_role", string(shortfall.Role),
				"missing_count", shortfall.Count,
			)
		}
	}

	return exitCode
}

// parseRequest validates the command line and folds it into a session window
// plus the rooms to staff.
func parseRequest(rooms, from, to, periods, weekdays string) (sessions.Window, []string, error) {
	roomIDs := splitList(rooms)
	if len(roomIDs) == 0 {
		return sessions.Window{}, nil, fmt.Errorf("at least one room ID is required")
	}

	if strings.TrimSpace(from) == "" {
		return sessions.Window{}, nil, fmt.Errorf("-from is required")
	}
	start, err := time.ParseInLocation("2006-01-02", from, time.UTC)
	if err != nil {
		return sessions.Window{}, nil, fmt.Errorf("invalid -from date %q", from)
	}
	end := start
	if strings.TrimSpace(to) != "" {
		end, err = time.ParseInLocation("2006-01-02", to, time.UTC)
		if err != nil {
			return sessions.Window{}, nil, fmt.Errorf("invalid -to date %q", to)
		}
	}

	parsedPeriods, err := parsePeriods(periods)
	if err != nil {
		return sessions.Window{}, nil, err
	}

	parsedWeekdays, err := parseWeekdays(weekdays)
	if err != nil {
		return sessions.Window{}, nil, err
	}

	return sessions.Window{
		StartsOn: start,
		EndsOn:   end,
		Weekdays: parsedWeekdays,
		Periods:  parsedPeriods,
	}, roomIDs, nil
}

func parsePeriods(value string) ([]planner.Period, error) {
	parts := splitList(value)
	if len(parts) == 0 {
		return nil, fmt.Errorf("at least one period is required")
	}
	periods := make([]planner.Period, 0, len(parts))
	for _, part := range parts {
		switch strings.ToLower(part) {
		case "morning":
			periods = append(periods, planner.PeriodMorning)
		case "evening":
			periods = append(periods, planner.PeriodEvening)
		default:
			return nil, fmt.Errorf("unknown period %q", part)
		}
	}
	return periods, nil
}

func parseWeekdays(value string) ([]time.Weekday, error) {
	parts := splitList(value)
	if len(parts) == 0 {
		return nil, nil
	}
	days := make([]time.Weekday, 0, len(parts))
	for _, part := range parts {
		switch strings.ToLower(part) {
		case "sun", "sunday":
			days = append(days, time.Sunday)
		case "mon", "monday":
			days = append(days, time.Monday)
		case "tue", "tuesday":
			days = append(days, time.Tuesday)
		case "wed", "wednesday":
			days = append(days, time.Wednesday)
		case "thu", "thursday":
			days = append(days, time.Thursday)
		case "fri", "friday":
			days = append(days, time.Friday)
		case "sat", "saturday":
			days = append(days, time.Saturday)
		default:
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
	}
	return days, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
