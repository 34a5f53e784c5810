package analysis

import "github.com/wonny/mfrank/internal/contracts"

// Windows assigns a trailing window (in observations) to each metric
type Windows struct {
	Return1M   int
	Return3M   int
	Return6M   int
	Return1Y   int
	Volatility int
	Sharpe     int
	RiskFree   float64
}

// DefaultWindows returns the standard window assignment
func DefaultWindows() Windows {
	return Windows{
		Return1M:   30,
		Return3M:   90,
		Return6M:   180,
		Return1Y:   365,
		Volatility: 90,
		Sharpe:     365,
		RiskFree:   DefaultRiskFreeRate,
	}
}

// Compute derives the full metric set for one series
func Compute(series contracts.PriceSeries, w Windows) contracts.Metrics {
	return contracts.Metrics{
		Return1M:   TrailingReturn(series, w.Return1M),
		Return3M:   TrailingReturn(series, w.Return3M),
		Return6M:   TrailingReturn(series, w.Return6M),
		Return1Y:   TrailingReturn(series, w.Return1Y),
		Volatility: Volatility(series, w.Volatility),
		Sharpe:     Sharpe(series, w.Sharpe, w.RiskFree),
	}
}
