package mfapi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wonny/mfrank/internal/contracts"
)

// DateLayout is the day-first date format used by the series source
const DateLayout = "02-01-2006"

// DefaultLookback is the number of most recent observations kept per series
const DefaultLookback = 365

// FetchNAVHistory fetches the NAV series for one scheme, normalized and
// truncated to the last limit observations.
// Returns ErrSeriesUnavailable on a non-200 status or an empty body / data array.
// ⭐ SSOT: NAV 이력 파싱은 이 함수에서만
func (c *Client) FetchNAVHistory(ctx context.Context, code, name string, limit int) (contracts.PriceSeries, error) {
	if limit <= 0 {
		limit = DefaultLookback
	}

	body, err := c.fetchJSON(ctx, "/mf/"+url.PathEscape(code))
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return contracts.PriceSeries{}, fmt.Errorf("%w: %s", ErrSeriesUnavailable, statusErr.Error())
		}
		return contracts.PriceSeries{}, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return contracts.PriceSeries{}, fmt.Errorf("%w: empty body", ErrSeriesUnavailable)
	}

	series, err := parseSeries(code, name, body)
	if err != nil {
		return contracts.PriceSeries{}, err
	}
	series.Normalize(limit)

	c.logger.WithFields(map[string]interface{}{
		"code":  code,
		"name":  name,
		"count": series.Len(),
	}).Debug("Fetched NAV history")
	return series, nil
}

// parseSeries keeps rows with a parseable day-first date; a price that fails
// coercion is kept as a missing value
func parseSeries(code, name string, body []byte) (contracts.PriceSeries, error) {
	if !gjson.ValidBytes(body) {
		return contracts.PriceSeries{}, fmt.Errorf("%w: malformed body", ErrSeriesUnavailable)
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsArray() || len(data.Array()) == 0 {
		return contracts.PriceSeries{}, fmt.Errorf("%w: no data", ErrSeriesUnavailable)
	}

	series := contracts.PriceSeries{Code: code, Name: name}
	data.ForEach(func(_, row gjson.Result) bool {
		date, err := time.Parse(DateLayout, strings.TrimSpace(row.Get("date").String()))
		if err != nil {
			return true
		}
		price, ok := parsePrice(row.Get("nav"))
		series.Points = append(series.Points, contracts.PricePoint{
			Date:  date,
			Price: price,
			Valid: ok,
		})
		return true
	})
	return series, nil
}

func parsePrice(v gjson.Result) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch v.Type {
	case gjson.Number:
		f = v.Float()
	case gjson.String:
		f, err = strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v.Str), ",", ""), 64)
		if err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
