//go:generate go run go.uber.org/mock/mockgen -source=geo_query.go -destination=../mocks/mock_geo_query.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sharecircle/domain"
	"sharecircle/domain/geo"
	"sharecircle/errors"
	"sharecircle/observability"
	"sharecircle/repositories"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	queryKindRadius = "radius"
	queryKindText   = "text"
)

type IGeoQueryEngine interface {
	FindWithinRadius(ctx context.Context, center geo.Point, radiusKm float64) ([]domain.Item, error)
	SearchByText(ctx context.Context, q string) ([]domain.Item, error)
}

// GeoQueryEngine answers read-only item queries. It holds no state of its
// own so concurrent calls are safe as long as the store is.
type GeoQueryEngine struct {
	items   repositories.IItemRepository
	metrics *observability.Metrics
	log     *slog.Logger
}

func NewGeoQueryEngine(items repositories.IItemRepository, metrics *observability.Metrics, log *slog.Logger) *GeoQueryEngine {
	return &GeoQueryEngine{items: items, metrics: metrics, log: log}
}

// FindWithinRadius returns every item whose great-circle distance to center
// is at most radiusKm, newest first.
func (g *GeoQueryEngine) FindWithinRadius(ctx context.Context, center geo.Point, radiusKm float64) (items []domain.Item, err error) {
	start := time.Now()
	defer func() { g.metrics.RecordQuery(queryKindRadius, err, time.Since(start)) }()

	query := geo.Query{Center: center, RadiusKm: radiusKm}
	if err = query.Validate(); err != nil {
		return nil, err
	}

	candidates, err := g.items.QueryByRadius(ctx, center, radiusKm)
	if err != nil {
		g.log.Error("Radius query failed", "longitude", center.Longitude, "latitude", center.Latitude, "radius_km", radiusKm, "error", err)
		return nil, wrapStoreError(err)
	}

	// The store may return a superset, the cap is the source of truth
	items = lo.Filter(candidates, func(item domain.Item, _ int) bool {
		return query.Contains(item.Location)
	})
	newestFirst(items)
	return items, nil
}

// SearchByText returns items whose name, description or category contains q
// regardless of case.
func (g *GeoQueryEngine) SearchByText(ctx context.Context, q string) (items []domain.Item, err error) {
	start := time.Now()
	defer func() { g.metrics.RecordQuery(queryKindText, err, time.Since(start)) }()

	if strings.TrimSpace(q) == "" {
		return nil, fmt.Errorf("%w: search query is required", errors.ErrInvalidQuery)
	}

	items, err = g.items.QueryByText(ctx, q)
	if err != nil {
		g.log.Error("Text query failed", "query", q, "error", err)
		return nil, wrapStoreError(err)
	}
	return items, nil
}

func newestFirst(items []domain.Item) {
	slices.SortStableFunc(items, func(a, b domain.Item) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// wrapStoreError keeps cancellations as they are and tags everything else
// as a store failure.
func wrapStoreError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, errors.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", errors.ErrStoreUnavailable, err)
}
