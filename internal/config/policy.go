package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/example/exam-assignment/internal/planner"
)

// Policy is the optional YAML distribution policy. Fields left unset keep the
// built-in defaults; rule entries may retune or disable individual rules.
type Policy struct {
	LookbackDays            int          `yaml:"lookback_days"`
	AbsenceSuspendThreshold int          `yaml:"absence_suspend_threshold"`
	Rules                   []RulePolicy `yaml:"rules"`
}

// RulePolicy overrides one distribution rule by name.
type RulePolicy struct {
	Name    string   `yaml:"name"`
	Weight  *float64 `yaml:"weight"`
	Enabled *bool    `yaml:"enabled"`
}

// LoadPolicy reads and validates a policy file.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}

	var policy Policy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("parse policy file: %w", err)
	}

	if policy.LookbackDays < 0 {
		return Policy{}, fmt.Errorf("policy: lookback_days must not be negative")
	}
	if policy.AbsenceSuspendThreshold < 0 {
		return Policy{}, fmt.Errorf("policy: absence_suspend_threshold must not be negative")
	}
	for _, rule := range policy.Rules {
		switch rule.Name {
		case "no_room_repeat", "no_pair_repeat", "rank_priority", "fair_load":
		default:
			return Policy{}, fmt.Errorf("policy: unknown rule %q", rule.Name)
		}
		if rule.Weight != nil && *rule.Weight < 0 {
			return Policy{}, fmt.Errorf("policy: rule %q weight must not be negative", rule.Name)
		}
	}

	return policy, nil
}

// Weights applies the policy's rule overrides on top of the stock parameters.
func (p Policy) Weights() planner.Weights {
	weights := planner.DefaultWeights()
	for _, rule := range p.Rules {
		disabled := rule.Enabled != nil && !*rule.Enabled
		switch rule.Name {
		case "no_room_repeat":
			if rule.Weight != nil {
				weights.RoomRepeatPenalty = *rule.Weight
			}
			weights.DisableRoomRepeat = disabled
		case "no_pair_repeat":
			if rule.Weight != nil {
				weights.PairRepeatPenalty = *rule.Weight
			}
			weights.DisablePairRepeat = disabled
		case "rank_priority":
			if rule.Weight != nil {
				weights.CollegeRankBonus = *rule.Weight
			}
			weights.DisableRankBonus = disabled
		case "fair_load":
			if rule.Weight != nil {
				weights.WeeklyLoadPenalty = *rule.Weight
			}
			weights.DisableFairLoad = disabled
		}
	}
	return weights
}

// Apply folds the policy into the loaded configuration, preferring explicit
// policy values over environment defaults.
func (p Policy) Apply(cfg Config) Config {
	if p.LookbackDays > 0 {
		cfg.LookbackDays = p.LookbackDays
	}
	if p.AbsenceSuspendThreshold > 0 {
		cfg.AbsenceSuspendThreshold = p.AbsenceSuspendThreshold
	}
	return cfg
}
