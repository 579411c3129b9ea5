package services

import (
	"context"
	"log/slog"
	"sharecircle/domain"
	"sharecircle/domain/geo"
	"sharecircle/errors"
	"sharecircle/mocks"
	"sharecircle/observability"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func item(name string, location geo.Point, createdAt time.Time) domain.Item {
	return domain.Item{ID: name, Name: name, Location: location, CreatedAt: createdAt}
}

func TestGeoQueryEngine_FindWithinRadius(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)
	ctx := context.Background()
	mockRepo := mocks.NewMockIItemRepository(ctrl)
	engine := NewGeoQueryEngine(mockRepo, nil, logs.GetLoggerFromLevel(slog.LevelDebug))

	center := geo.NewPoint(2.3522, 48.8566)
	now := time.Now()
	onBoundary := item("boundary", geo.Destination(center, 90, 10), now.Add(-time.Hour))
	near := item("near", geo.NewPoint(2.36, 48.86), now.Add(-2*time.Hour))
	newest := item("newest", center, now)
	far := item("far", geo.NewPoint(4.8357, 45.764), now)

	// Given a store returning a superset of the cap
	mockRepo.EXPECT().
		QueryByRadius(ctx, center, 10.0).
		Return([]domain.Item{near, far, onBoundary, newest}, nil)

	// When querying 10 km around Paris
	items, err := engine.FindWithinRadius(ctx, center, 10)

	// Then only items inside the cap remain, boundary included, newest first
	req.NoError(err)
	req.Equal([]string{"newest", "boundary", "near"}, lo.Map(items, func(i domain.Item, _ int) string { return i.Name }))
}

func TestGeoQueryEngine_FindWithinRadius_InvalidQuery(t *testing.T) {
	tests := []struct {
		name   string
		center geo.Point
		radius float64
	}{
		{"Zero radius", geo.NewPoint(0, 0), 0},
		{"Negative radius", geo.NewPoint(0, 0), -5},
		{"Longitude out of range", geo.NewPoint(181, 0), 10},
		{"Latitude out of range", geo.NewPoint(0, -91), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockRepo := mocks.NewMockIItemRepository(ctrl)
			engine := NewGeoQueryEngine(mockRepo, nil, logs.GetLoggerFromLevel(slog.LevelDebug))

			// The store must not be reached
			mockRepo.EXPECT().QueryByRadius(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

			_, err := engine.FindWithinRadius(context.Background(), tt.center, tt.radius)
			require.ErrorIs(t, err, errors.ErrInvalidQuery)
		})
	}
}

func TestGeoQueryEngine_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)
	ctx := context.Background()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	mockRepo := mocks.NewMockIItemRepository(ctrl)
	engine := NewGeoQueryEngine(mockRepo, metrics, logs.GetLoggerFromLevel(slog.LevelDebug))

	mockRepo.EXPECT().QueryByRadius(ctx, gomock.Any(), gomock.Any()).Return(nil, context.DeadlineExceeded)
	mockRepo.EXPECT().QueryByText(ctx, "desk").Return(nil, errors.ErrStoreUnavailable)

	_, err := engine.FindWithinRadius(ctx, geo.NewPoint(0, 0), 5)
	req.ErrorIs(err, context.DeadlineExceeded)

	_, err = engine.SearchByText(ctx, "desk")
	req.ErrorIs(err, errors.ErrStoreUnavailable)

	req.Equal(1.0, testutil.ToFloat64(metrics.GeoQueries.WithLabelValues(queryKindRadius, "error")))
	req.Equal(1.0, testutil.ToFloat64(metrics.GeoQueries.WithLabelValues(queryKindText, "error")))
}

func TestGeoQueryEngine_SearchByText(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)
	ctx := context.Background()
	mockRepo := mocks.NewMockIItemRepository(ctrl)
	engine := NewGeoQueryEngine(mockRepo, nil, logs.GetLoggerFromLevel(slog.LevelDebug))

	mockRepo.EXPECT().QueryByText(ctx, "Desk").Return([]domain.Item{{ID: "1", Name: "IKEA Desk"}}, nil)

	items, err := engine.SearchByText(ctx, "Desk")
	req.NoError(err)
	req.Len(items, 1)

	// Empty and blank queries are rejected without touching the store
	_, err = engine.SearchByText(ctx, "")
	req.ErrorIs(err, errors.ErrInvalidQuery)
	_, err = engine.SearchByText(ctx, "   ")
	req.ErrorIs(err, errors.ErrInvalidQuery)
}
