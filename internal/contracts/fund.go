package contracts

import (
	"sort"
	"time"
)

// Scheme is one catalog entry (universe member); it is never persisted
type Scheme struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// PricePoint is one NAV observation. Valid=false marks a price that failed coercion.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
	Valid bool      `json:"valid"`
}

// PriceSeries is the NAV history for one instrument
// ⭐ SSOT: 날짜 오름차순, 날짜 중복 없음
type PriceSeries struct {
	Code   string       `json:"code"`
	Name   string       `json:"name"`
	Points []PricePoint `json:"points"`
}

// Len returns the number of observations, missing prices included
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Tail returns the last n observations, missing prices included
func (s PriceSeries) Tail(n int) PriceSeries {
	if n < 0 {
		n = 0
	}
	if n < len(s.Points) {
		s.Points = s.Points[len(s.Points)-n:]
	}
	return s
}

// Prices returns the valid prices in date order
func (s PriceSeries) Prices() []float64 {
	prices := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Valid {
			prices = append(prices, p.Price)
		}
	}
	return prices
}

// Normalize sorts points by date, keeps the last valid occurrence of each date
// (a missing price never replaces a valid one) and truncates to the most recent limit points (limit <= 0 keeps everything)
func (s *PriceSeries) Normalize(limit int) {
	sort.SliceStable(s.Points, func(i, j int) bool {
		return s.Points[i].Date.Before(s.Points[j].Date)
	})

	deduped := s.Points[:0]
	for _, p := range s.Points {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(p.Date) {
			if p.Valid || !deduped[n-1].Valid {
				deduped[n-1] = p
			}
			continue
		}
		deduped = append(deduped, p)
	}
	s.Points = deduped

	if limit > 0 && len(s.Points) > limit {
		s.Points = s.Points[len(s.Points)-limit:]
	}
}

// Metrics is the fixed set of derived per-instrument metrics
type Metrics struct {
	Return1M   float64 `json:"return_1m"`
	Return3M   float64 `json:"return_3m"`
	Return6M   float64 `json:"return_6m"`
	Return1Y   float64 `json:"return_1y"`
	Volatility float64 `json:"volatility"`
	Sharpe     float64 `json:"sharpe"`
}

// InstrumentRecord is the durable row for one instrument
// ⭐ SSOT: Refresh Orchestrator만 쓰기, Recommendation Query는 읽기 전용
type InstrumentRecord struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Category *string `json:"category"`

	Return1M   float64 `json:"return_1m"`
	Return3M   float64 `json:"return_3m"`
	Return6M   float64 `json:"return_6m"`
	Return1Y   float64 `json:"return_1y"`
	Volatility float64 `json:"volatility"`
	Sharpe     float64 `json:"sharpe"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Apply overwrites the full field set from one computation
func (r *InstrumentRecord) Apply(name, category string, m Metrics, at time.Time) {
	r.Name = name
	r.Category = &category
	r.Return1M = m.Return1M
	r.Return3M = m.Return3M
	r.Return6M = m.Return6M
	r.Return1Y = m.Return1Y
	r.Volatility = m.Volatility
	r.Sharpe = m.Sharpe
	r.UpdatedAt = at
}

// Metrics returns the metric fields of the record
func (r InstrumentRecord) Metrics() Metrics {
	return Metrics{
		Return1M:   r.Return1M,
		Return3M:   r.Return3M,
		Return6M:   r.Return6M,
		Return1Y:   r.Return1Y,
		Volatility: r.Volatility,
		Sharpe:     r.Sharpe,
	}
}

// CategoryName returns the category or "" when not yet classified
func (r InstrumentRecord) CategoryName() string {
	if r.Category == nil {
		return ""
	}
	return *r.Category
}

// Value returns the metric stored under field (0 for an unknown field)
func (r InstrumentRecord) Value(field MetricField) float64 {
	switch field {
	case FieldReturn1M:
		return r.Return1M
	case FieldReturn3M:
		return r.Return3M
	case FieldReturn6M:
		return r.Return6M
	case FieldReturn1Y:
		return r.Return1Y
	case FieldVolatility:
		return r.Volatility
	case FieldSharpe:
		return r.Sharpe
	default:
		return 0
	}
}

// Recommendation is the read-only projection returned to callers
type Recommendation struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Category   *string `json:"category"`
	Return1M   float64 `json:"return_1m"`
	Return3M   float64 `json:"return_3m"`
	Return6M   float64 `json:"return_6m"`
	Return1Y   float64 `json:"return_1y"`
	Volatility float64 `json:"volatility"`
	Sharpe     float64 `json:"sharpe"`
}

// ToRecommendation projects a record for output
func (r InstrumentRecord) ToRecommendation() Recommendation {
	return Recommendation{
		Code:       r.Code,
		Name:       r.Name,
		Category:   r.Category,
		Return1M:   r.Return1M,
		Return3M:   r.Return3M,
		Return6M:   r.Return6M,
		Return1Y:   r.Return1Y,
		Volatility: r.Volatility,
		Sharpe:     r.Sharpe,
	}
}
