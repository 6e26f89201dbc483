package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
)

const (
	keyWaitCeiling       = "scoring.wait.ceiling.minutes"
	keyQuickCookBonus    = "scoring.bonus.quickcook"
	keyEmptyTableBonus   = "scoring.bonus.emptytable"
	keyInProgressBonus   = "scoring.bonus.inprogress"
	keyHighThreshold     = "scoring.threshold.high"
	keyCriticalThreshold = "scoring.threshold.critical"
	keyReadyVisibility   = "dashboard.ready.visibility"
)

// ScoringConfig holds the tunables restaurants adjust to their own service.
type ScoringConfig struct {
	WaitCeilingMinutes float64
	QuickCookBonus     float64
	EmptyTableBonus    float64
	InProgressBonus    float64
	HighThreshold      float64
	CriticalThreshold  float64

	// ReadyVisibility keeps ready items on the board for this long; zero hides
	// them as soon as they leave the active set.
	ReadyVisibility time.Duration
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		WaitCeilingMinutes: 60,
		QuickCookBonus:     10,
		EmptyTableBonus:    15,
		InProgressBonus:    2,
		HighThreshold:      30,
		CriticalThreshold:  45,
	}
}

func (c ScoringConfig) Validate() error {
	if c.WaitCeilingMinutes <= 0 {
		return invalidInput("wait ceiling must be positive, got %v", c.WaitCeilingMinutes)
	}
	if c.QuickCookBonus < 0 || c.EmptyTableBonus < 0 || c.InProgressBonus < 0 {
		return invalidInput("bonuses cannot be negative")
	}
	if c.CriticalThreshold <= c.HighThreshold {
		return invalidInput("critical threshold %v must exceed high threshold %v", c.CriticalThreshold, c.HighThreshold)
	}
	if c.ReadyVisibility < 0 {
		return invalidInput("ready visibility cannot be negative")
	}
	return nil
}

// LoadScoringConfig reads the scoring keys from config, keeping defaults for
// keys that are not set.
func LoadScoringConfig(config *apt.Config) (ScoringConfig, error) {
	if config == nil {
		return DefaultScoringConfig(), nil
	}
	return scoringConfigFrom(func(key string) string {
		v, _ := config.GetString(key)
		return v
	})
}

func scoringConfigFrom(get func(key string) string) (ScoringConfig, error) {
	cfg := DefaultScoringConfig()

	floats := []struct {
		key string
		dst *float64
	}{
		{keyWaitCeiling, &cfg.WaitCeilingMinutes},
		{keyQuickCookBonus, &cfg.QuickCookBonus},
		{keyEmptyTableBonus, &cfg.EmptyTableBonus},
		{keyInProgressBonus, &cfg.InProgressBonus},
		{keyHighThreshold, &cfg.HighThreshold},
		{keyCriticalThreshold, &cfg.CriticalThreshold},
	}
	for _, f := range floats {
		raw := strings.TrimSpace(get(f.key))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return cfg, fmt.Errorf("cannot parse %s: %w", f.key, err)
		}
		*f.dst = v
	}

	if raw := strings.TrimSpace(get(keyReadyVisibility)); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, fmt.Errorf("cannot parse %s: %w", keyReadyVisibility, err)
		}
		cfg.ReadyVisibility = d
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid scoring config: %w", err)
	}
	return cfg, nil
}
