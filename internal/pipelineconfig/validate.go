package pipelineconfig

import "fmt"

// ValidationError 검증 실패
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	if cfg.Lookback <= 0 {
		return ValidationError{"lookback", "must be > 0"}
	}

	windows := []struct {
		field string
		value int
	}{
		{"windows.return_1m", cfg.Windows.Return1M},
		{"windows.return_3m", cfg.Windows.Return3M},
		{"windows.return_6m", cfg.Windows.Return6M},
		{"windows.return_1y", cfg.Windows.Return1Y},
		{"windows.volatility", cfg.Windows.Volatility},
		{"windows.sharpe", cfg.Windows.Sharpe},
	}
	for _, w := range windows {
		if w.value <= 0 {
			return ValidationError{w.field, "must be > 0"}
		}
		// a window longer than the kept history would always yield 0
		if w.value > cfg.Lookback {
			return ValidationError{w.field, fmt.Sprintf("must be <= lookback (%d)", cfg.Lookback)}
		}
	}

	if cfg.RiskFree < 0 || cfg.RiskFree >= 1 {
		return ValidationError{"risk_free_rate", "must be in [0, 1)"}
	}

	return nil
}
