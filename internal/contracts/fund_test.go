package contracts

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestPriceSeries_Normalize(t *testing.T) {
	tests := []struct {
		name      string
		points    []PricePoint
		limit     int
		wantDates []int
		wantLast  float64
	}{
		{
			name: "sorts ascending",
			points: []PricePoint{
				{Date: day(2), Price: 12, Valid: true},
				{Date: day(0), Price: 10, Valid: true},
				{Date: day(1), Price: 11, Valid: true},
			},
			limit:     10,
			wantDates: []int{0, 1, 2},
			wantLast:  12,
		},
		{
			name: "duplicate date keeps last occurrence",
			points: []PricePoint{
				{Date: day(0), Price: 10, Valid: true},
				{Date: day(1), Price: 11, Valid: true},
				{Date: day(1), Price: 99, Valid: true},
			},
			limit:     10,
			wantDates: []int{0, 1},
			wantLast:  99,
		},
		{
			name: "missing price does not replace valid duplicate",
			points: []PricePoint{
				{Date: day(0), Price: 10, Valid: true},
				{Date: day(1), Price: 11, Valid: true},
				{Date: day(1), Price: 0, Valid: false},
			},
			limit:     10,
			wantDates: []int{0, 1},
			wantLast:  11,
		},
		{
			name: "valid price replaces missing duplicate",
			points: []PricePoint{
				{Date: day(0), Price: 10, Valid: true},
				{Date: day(1), Price: 0, Valid: false},
				{Date: day(1), Price: 12, Valid: true},
			},
			limit:     10,
			wantDates: []int{0, 1},
			wantLast:  12,
		},
		{
			name: "truncates to most recent",
			points: []PricePoint{
				{Date: day(3), Price: 13, Valid: true},
				{Date: day(0), Price: 10, Valid: true},
				{Date: day(1), Price: 11, Valid: true},
				{Date: day(2), Price: 12, Valid: true},
			},
			limit:     2,
			wantDates: []int{2, 3},
			wantLast:  13,
		},
		{
			name: "zero limit keeps everything",
			points: []PricePoint{
				{Date: day(1), Price: 11, Valid: true},
				{Date: day(0), Price: 10, Valid: true},
			},
			limit:     0,
			wantDates: []int{0, 1},
			wantLast:  11,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := PriceSeries{Code: "1", Points: tt.points}
			s.Normalize(tt.limit)

			if s.Len() != len(tt.wantDates) {
				t.Fatalf("Len() = %d, want %d", s.Len(), len(tt.wantDates))
			}
			for i, d := range tt.wantDates {
				if !s.Points[i].Date.Equal(day(d)) {
					t.Errorf("Points[%d].Date = %v, want %v", i, s.Points[i].Date, day(d))
				}
			}
			if got := s.Points[s.Len()-1].Price; got != tt.wantLast {
				t.Errorf("last price = %v, want %v", got, tt.wantLast)
			}
		})
	}
}

func TestPriceSeries_Tail(t *testing.T) {
	s := PriceSeries{Code: "1", Points: []PricePoint{
		{Date: day(0), Price: 10, Valid: true},
		{Date: day(1), Valid: false},
		{Date: day(2), Price: 12, Valid: true},
	}}

	if got := s.Tail(2); got.Len() != 2 || !got.Points[0].Date.Equal(day(1)) {
		t.Errorf("Tail(2) = %+v, want the last two observations", got.Points)
	}
	if got := s.Tail(2).Prices(); len(got) != 1 || got[0] != 12 {
		t.Errorf("Tail(2).Prices() = %v, want [12]", got)
	}
	if got := s.Tail(10); got.Len() != 3 {
		t.Errorf("Tail(10).Len() = %d, want 3", got.Len())
	}
	if got := s.Tail(-1); got.Len() != 0 {
		t.Errorf("Tail(-1).Len() = %d, want 0", got.Len())
	}
	if s.Len() != 3 {
		t.Errorf("Tail mutated the receiver")
	}
}

func TestPriceSeries_PricesSkipsMissing(t *testing.T) {
	s := PriceSeries{Points: []PricePoint{
		{Date: day(0), Price: 10, Valid: true},
		{Date: day(1), Valid: false},
		{Date: day(2), Price: 12, Valid: true},
	}}

	prices := s.Prices()
	if len(prices) != 2 || prices[0] != 10 || prices[1] != 12 {
		t.Errorf("Prices() = %v, want [10 12]", prices)
	}
	if s.Len() != 3 {
		t.Errorf("missing values must stay in the series, Len() = %d", s.Len())
	}
}

func TestInstrumentRecord_Apply(t *testing.T) {
	rec := InstrumentRecord{Code: "100", Name: "old", Return1Y: 1}
	m := Metrics{Return1M: 1.5, Return3M: 2, Return6M: 3, Return1Y: 4, Volatility: 5, Sharpe: 0.6}

	rec.Apply("Equity Growth Fund", "Equity", m, day(5))

	if rec.Name != "Equity Growth Fund" {
		t.Errorf("Name = %q", rec.Name)
	}
	if rec.CategoryName() != "Equity" {
		t.Errorf("CategoryName() = %q", rec.CategoryName())
	}
	if rec.Metrics() != m {
		t.Errorf("Metrics() = %+v, want %+v", rec.Metrics(), m)
	}
	if !rec.UpdatedAt.Equal(day(5)) {
		t.Errorf("UpdatedAt = %v", rec.UpdatedAt)
	}
}

func TestInstrumentRecord_Value(t *testing.T) {
	rec := InstrumentRecord{Return1M: 1, Return3M: 2, Return6M: 3, Return1Y: 4, Volatility: 5, Sharpe: 6}

	for i, f := range MetricFields {
		if got := rec.Value(f); got != float64(i+1) {
			t.Errorf("Value(%s) = %v, want %v", f, got, i+1)
		}
	}
	if got := rec.Value("nope"); got != 0 {
		t.Errorf("Value(unknown) = %v, want 0", got)
	}
}

func TestCategoryName_Unclassified(t *testing.T) {
	if got := (InstrumentRecord{}).CategoryName(); got != "" {
		t.Errorf("CategoryName() = %q, want empty", got)
	}
}
