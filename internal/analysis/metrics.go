package analysis

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/wonny/mfrank/internal/contracts"
)

// TradingDaysPerYear annualizes daily statistics
const TradingDaysPerYear = 252

// DefaultRiskFreeRate is the annual risk-free rate used by Sharpe
const DefaultRiskFreeRate = 0.05

// TrailingReturn returns (p[-1] - p[-days]) / p[-days] * 100, rounded to 2 decimals.
// The window is positional over all observations; a missing price at the
// anchor rolls forward to the next valid one. 0 when fewer than days
// observations exist.
func TrailingReturn(series contracts.PriceSeries, days int) float64 {
	if days <= 0 || series.Len() < days {
		return 0
	}

	valid := series.Tail(days).Prices()
	if len(valid) < 2 {
		return 0
	}
	start, end := valid[0], valid[len(valid)-1]
	if start == 0 {
		return 0
	}
	return round2((end - start) / start * 100)
}

// Volatility returns the annualized sample standard deviation of daily
// percentage changes over the trailing window, as a percentage
func Volatility(series contracts.PriceSeries, days int) float64 {
	changes, ok := trailingChanges(series, days)
	if !ok {
		return 0
	}
	return round2(stddev(changes) * math.Sqrt(TradingDaysPerYear) * 100)
}

// Sharpe returns (annualized mean daily change - riskFree) / annualized volatility.
// 0 when history is short or volatility is exactly zero.
func Sharpe(series contracts.PriceSeries, days int, riskFree float64) float64 {
	changes, ok := trailingChanges(series, days)
	if !ok {
		return 0
	}

	vol := stddev(changes) * math.Sqrt(TradingDaysPerYear)
	if vol == 0 || math.IsNaN(vol) {
		return 0
	}
	return round2((mean(changes)*TradingDaysPerYear - riskFree) / vol)
}

// trailingChanges returns the day-over-day changes of the trailing window
// ending at the last observation. The window spans days changes positionally;
// the first observation has no predecessor, so a series of exactly days
// observations yields days-1 positions. Missing prices are skipped and the
// change is taken between consecutive valid prices.
func trailingChanges(series contracts.PriceSeries, days int) ([]float64, bool) {
	if days <= 0 || series.Len() < days {
		return nil, false
	}

	// one extra observation gives the first change its predecessor
	prices := series.Tail(days + 1).Prices()
	// sample std needs two changes
	if len(prices) < 3 {
		return nil, false
	}

	changes := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev == 0 {
			return nil, false
		}
		changes = append(changes, (prices[i]-prev)/prev)
	}
	return changes, true
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample (n-1) standard deviation
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sumSq := 0.0
	for _, v := range values {
		sumSq += (v - m) * (v - m)
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// round2 rounds half away from zero to 2 places; NaN and Inf collapse to 0
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
