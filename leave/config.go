package leave

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CONFIG - Policy knobs for the validation pipeline
// =============================================================================

// Config carries the organization's casual-leave policy parameters.
// DefaultConfig matches the policy as written; deployments override via
// JSON (see ParseConfig).
type Config struct {
	// RestrictedType is the leave type the pipeline applies to; all
	// other types pass trivially.
	RestrictedType Type

	// MaxPerMonth is the monthly casual-leave quota in days.
	MaxPerMonth decimal.Decimal

	// BlockedMonths cannot contain casual leave unless the employee's
	// category is in ExemptCategories.
	BlockedMonths    []time.Month
	ExemptCategories []StaffCategory

	// BypassActor skips the whole pipeline (administrative identity).
	BypassActor string
}

func DefaultConfig() Config {
	return Config{
		RestrictedType:   TypeCasual,
		MaxPerMonth:      decimal.NewFromInt(2),
		BlockedMonths:    []time.Month{time.February, time.May},
		ExemptCategories: []StaffCategory{CategoryPrimary},
		BypassActor:      "Administrator",
	}
}

func (c Config) isBlockedMonth(m time.Month) bool {
	for _, b := range c.BlockedMonths {
		if b == m {
			return true
		}
	}
	return false
}

func (c Config) isExempt(cat StaffCategory) bool {
	for _, e := range c.ExemptCategories {
		if e == cat {
			return true
		}
	}
	return false
}

// =============================================================================
// JSON CONFIG
// =============================================================================

type configJSON struct {
	RestrictedType   string   `json:"restricted_type"`
	MaxPerMonth      string   `json:"max_per_month"`
	BlockedMonths    []int    `json:"blocked_months"`
	ExemptCategories []string `json:"exempt_categories"`
	BypassActor      string   `json:"bypass_actor"`
}

// ParseConfig overlays JSON onto DefaultConfig. Absent fields keep
// their defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	var raw configJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse leave config: %w", err)
	}
	if raw.RestrictedType != "" {
		cfg.RestrictedType = Type(raw.RestrictedType)
	}
	if raw.MaxPerMonth != "" {
		max, err := decimal.NewFromString(raw.MaxPerMonth)
		if err != nil {
			return Config{}, fmt.Errorf("parse max_per_month: %w", err)
		}
		cfg.MaxPerMonth = max
	}
	if raw.BlockedMonths != nil {
		cfg.BlockedMonths = nil
		for _, m := range raw.BlockedMonths {
			if m < 1 || m > 12 {
				return Config{}, fmt.Errorf("blocked month out of range: %d", m)
			}
			cfg.BlockedMonths = append(cfg.BlockedMonths, time.Month(m))
		}
	}
	if raw.ExemptCategories != nil {
		cfg.ExemptCategories = nil
		for _, c := range raw.ExemptCategories {
			cfg.ExemptCategories = append(cfg.ExemptCategories, StaffCategory(c))
		}
	}
	if raw.BypassActor != "" {
		cfg.BypassActor = raw.BypassActor
	}
	return cfg, nil
}
