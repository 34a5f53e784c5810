package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/mfrank/internal/contracts"
	"github.com/wonny/mfrank/pkg/logger"
	"github.com/wonny/mfrank/pkg/redis"
)

// ErrInvalidMetric is returned for a metric name outside the six known ones
var ErrInvalidMetric = errors.New("invalid metric")

const (
	DefaultMetric = "6M"
	DefaultLimit  = 10
	MaxLimit      = 100
)

// metricFields maps accepted (upper-case) metric names to stored fields
var metricFields = map[string]contracts.MetricField{
	"1M":         contracts.FieldReturn1M,
	"3M":         contracts.FieldReturn3M,
	"6M":         contracts.FieldReturn6M,
	"1Y":         contracts.FieldReturn1Y,
	"VOLATILITY": contracts.FieldVolatility,
	"SHARPE":     contracts.FieldSharpe,
}

// MetricNames lists the accepted metric names
func MetricNames() []string {
	return []string{"1M", "3M", "6M", "1Y", "VOLATILITY", "SHARPE"}
}

// ParseMetric resolves a case-insensitive metric name
func ParseMetric(name string) (contracts.MetricField, error) {
	field, ok := metricFields[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q (want one of %s)", ErrInvalidMetric, name, strings.Join(MetricNames(), ", "))
	}
	return field, nil
}

// ResultCache stores serialized query results. Keys carry the store
// generation read before the query, so a result computed from a store that
// a refresh has since replaced lands under a key nobody reads.
type ResultCache interface {
	Generation(ctx context.Context, name string) (int64, error)
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Service answers recommendation queries; it never writes to the store
type Service struct {
	store  contracts.InstrumentStore
	cache  ResultCache
	ttl    time.Duration
	logger *logger.Logger
}

// NewService creates a new recommendation Service
func NewService(store contracts.InstrumentStore, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		logger: log.Module("recommend"),
	}
}

// WithCache enables result caching
func (s *Service) WithCache(cache ResultCache, ttl time.Duration) *Service {
	s.cache = cache
	s.ttl = ttl
	return s
}

// Recommend returns the top instruments by metric, descending, ties by code.
// An empty category means all categories; an unknown one matches nothing.
func (s *Service) Recommend(ctx context.Context, metric string, limit int, category string) ([]contracts.Recommendation, error) {
	field, err := ParseMetric(metric)
	if err != nil {
		return nil, err
	}
	limit = NormalizeLimit(limit)
	category = strings.TrimSpace(category)

	key, useCache := s.cacheKey(ctx, metric, category, limit)
	if useCache {
		var cached []contracts.Recommendation
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.WithError(err).Warn("Cache read failed")
		} else if hit {
			return cached, nil
		}
	}

	records, err := s.store.Query(ctx, contracts.Query{
		Category: category,
		OrderBy:  field,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}

	out := make([]contracts.Recommendation, 0, len(records))
	for _, r := range records {
		out = append(out, r.ToRecommendation())
	}

	if useCache {
		if err := s.cache.Set(ctx, key, out, s.ttl); err != nil {
			s.logger.WithError(err).Warn("Cache write failed")
		}
	}
	return out, nil
}

// cacheKey reads the store generation; false skips the cache for this call
func (s *Service) cacheKey(ctx context.Context, metric, category string, limit int) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	gen, err := s.cache.Generation(ctx, redis.RecommendationGeneration)
	if err != nil {
		s.logger.WithError(err).Warn("Cache generation read failed")
		return "", false
	}
	return redis.RecommendationKey(gen, strings.TrimSpace(metric), category, limit), true
}

// NormalizeLimit applies the default and the cap
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
