package universe

import (
	"context"

	"github.com/wonny/mfrank/internal/contracts"
	"github.com/wonny/mfrank/pkg/logger"
)

// CatalogSource returns the upstream scheme catalog in its native order
type CatalogSource interface {
	FetchSchemes(ctx context.Context) ([]contracts.Scheme, error)
}

// Lister builds the per-run universe from the catalog
type Lister struct {
	source CatalogSource
	logger *logger.Logger
}

// NewLister creates a new universe Lister
func NewLister(source CatalogSource, log *logger.Logger) *Lister {
	return &Lister{
		source: source,
		logger: log.Module("universe"),
	}
}

// List returns at most limit entries from the front of the catalog (limit <= 0 = all).
// A catalog failure yields an empty universe, never an error.
// ⭐ SSOT: 유니버스 조회 실패는 빈 목록으로 강등
func (l *Lister) List(ctx context.Context, limit int) []contracts.Scheme {
	schemes, err := l.source.FetchSchemes(ctx)
	if err != nil {
		l.logger.WithError(err).Warn("Catalog unavailable, universe is empty")
		return []contracts.Scheme{}
	}

	universe := make([]contracts.Scheme, 0, len(schemes))
	seen := make(map[string]struct{}, len(schemes))
	skipped := 0

	for _, s := range schemes {
		if limit > 0 && len(universe) >= limit {
			break
		}
		if s.Code == "" || s.Name == "" {
			skipped++
			continue
		}
		if _, dup := seen[s.Code]; dup {
			skipped++
			continue
		}
		seen[s.Code] = struct{}{}
		universe = append(universe, s)
	}

	l.logger.WithFields(map[string]interface{}{
		"catalog": len(schemes),
		"limit":   limit,
		"listed":  len(universe),
		"skipped": skipped,
	}).Info("Universe listed")

	return universe
}
