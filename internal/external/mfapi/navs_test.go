package mfapi

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const seriesBody = `{
	"meta": {"scheme_code": 100027, "scheme_name": "Equity Growth Fund"},
	"data": [
		{"date": "05-01-2024", "nav": "12.50"},
		{"date": "04-01-2024", "nav": "n/a"},
		{"date": "03-01-2024", "nav": 11.0},
		{"date": "2024-01-02", "nav": "10.75"},
		{"date": "02-01-2024", "nav": "1,010.50"},
		{"date": "01-01-2024", "nav": "10.00"}
	],
	"status": "SUCCESS"
}`

func date(day int) time.Time {
	return time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC)
}

func TestFetchNAVHistory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mf/100027", r.URL.Path)
		w.Write([]byte(seriesBody))
	})

	series, err := c.FetchNAVHistory(context.Background(), "100027", "Equity Growth Fund", 365)
	require.NoError(t, err)

	assert.Equal(t, "100027", series.Code)
	assert.Equal(t, "Equity Growth Fund", series.Name)

	// the ISO-formatted row is dropped, the rest sorted ascending
	require.Equal(t, 5, series.Len())
	for i, p := range series.Points {
		assert.True(t, p.Date.Equal(date(i+1)), "point %d date %v", i, p.Date)
	}

	assert.Equal(t, 10.0, series.Points[0].Price)
	assert.Equal(t, 1010.5, series.Points[1].Price)
	assert.Equal(t, 11.0, series.Points[2].Price)
	assert.False(t, series.Points[3].Valid, "unparseable NAV stays as a missing value")
	assert.Equal(t, 12.5, series.Points[4].Price)

	assert.Equal(t, []float64{10, 1010.5, 11, 12.5}, series.Prices())
}

func TestFetchNAVHistory_Truncates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(seriesBody))
	})

	series, err := c.FetchNAVHistory(context.Background(), "100027", "Equity Growth Fund", 2)
	require.NoError(t, err)
	require.Equal(t, 2, series.Len())
	assert.True(t, series.Points[0].Date.Equal(date(4)))
	assert.True(t, series.Points[1].Date.Equal(date(5)))
}

func TestFetchNAVHistory_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, ""},
		{"server error after retry", http.StatusServiceUnavailable, ""},
		{"empty body", http.StatusOK, ""},
		{"empty data", http.StatusOK, `{"meta":{},"data":[],"status":"SUCCESS"}`},
		{"missing data", http.StatusOK, `{"status":"ERROR"}`},
		{"malformed", http.StatusOK, `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.FetchNAVHistory(context.Background(), "1", "x", 365)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSeriesUnavailable), "got %v", err)
		})
	}
}

func TestFetchNAVHistory_TransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	c.baseURL = "http://127.0.0.1:1"

	_, err := c.FetchNAVHistory(context.Background(), "1", "x", 365)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSeriesUnavailable))
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{`{"nav":"45.1234"}`, 45.1234, true},
		{`{"nav":45.5}`, 45.5, true},
		{`{"nav":"1,234.5"}`, 1234.5, true},
		{`{"nav":""}`, 0, false},
		{`{"nav":"N.A."}`, 0, false},
		{`{"nav":"NaN"}`, 0, false},
		{`{"nav":null}`, 0, false},
		{`{}`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parsePrice(gjson.Get(tt.raw, "nav"))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
