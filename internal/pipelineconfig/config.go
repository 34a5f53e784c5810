package pipelineconfig

import "github.com/wonny/mfrank/internal/analysis"

// Config describes how a refresh run derives metrics.
// Field names mirror the YAML file; unknown keys are rejected at load time.
type Config struct {
	Version  string        `yaml:"version" json:"version"`
	Lookback int           `yaml:"lookback" json:"lookback"` // observations kept per series
	Windows  WindowsConfig `yaml:"windows" json:"windows"`
	RiskFree float64       `yaml:"risk_free_rate" json:"risk_free_rate"`
}

// WindowsConfig assigns a trailing window (observations) to each metric
type WindowsConfig struct {
	Return1M   int `yaml:"return_1m" json:"return_1m"`
	Return3M   int `yaml:"return_3m" json:"return_3m"`
	Return6M   int `yaml:"return_6m" json:"return_6m"`
	Return1Y   int `yaml:"return_1y" json:"return_1y"`
	Volatility int `yaml:"volatility" json:"volatility"`
	Sharpe     int `yaml:"sharpe" json:"sharpe"`
}

// Default returns the standard pipeline settings
func Default() *Config {
	w := analysis.DefaultWindows()
	return &Config{
		Version:  "v1",
		Lookback: 365,
		Windows: WindowsConfig{
			Return1M:   w.Return1M,
			Return3M:   w.Return3M,
			Return6M:   w.Return6M,
			Return1Y:   w.Return1Y,
			Volatility: w.Volatility,
			Sharpe:     w.Sharpe,
		},
		RiskFree: w.RiskFree,
	}
}

// AnalysisWindows converts the config for the metric calculator
func (c *Config) AnalysisWindows() analysis.Windows {
	return analysis.Windows{
		Return1M:   c.Windows.Return1M,
		Return3M:   c.Windows.Return3M,
		Return6M:   c.Windows.Return6M,
		Return1Y:   c.Windows.Return1Y,
		Volatility: c.Windows.Volatility,
		Sharpe:     c.Windows.Sharpe,
		RiskFree:   c.RiskFree,
	}
}
