package services

import (
	"context"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"sharecircle/domain"
	"sharecircle/domain/geo"
	"sharecircle/errors"
	"sharecircle/mocks"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestItemService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	uploads := newUploadStore(t)
	mockRepo := mocks.NewMockIItemRepository(ctrl)
	svc := NewItemService(mockRepo, uploads, log)

	t.Run("should store images then the item", func(t *testing.T) {
		req := require.New(t)
		input := domain.NewItem{
			Name:     "Desk",
			Category: "Offer",
			Location: lo.ToPtr(geo.NewPoint(2.35, 48.85)),
			Owner:    "user-1",
		}
		mockRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

		item, err := svc.Create(ctx, input, []*multipart.FileHeader{multipartFile(t, "images", "desk.png", pngContent)})

		req.NoError(err)
		req.NotEmpty(item.ID)
		req.Equal("user-1", item.Owner)
		req.Equal(geo.NewPoint(2.35, 48.85), item.Location)
		req.Len(item.Images, 1)
		req.False(item.CreatedAt.IsZero())
	})

	t.Run("should require name and location", func(t *testing.T) {
		tests := []struct {
			name  string
			input domain.NewItem
		}{
			{"Missing name", domain.NewItem{Location: lo.ToPtr(geo.NewPoint(0, 0))}},
			{"Missing location", domain.NewItem{Name: "Desk"}},
			{"Location out of range", domain.NewItem{Name: "Desk", Location: lo.ToPtr(geo.NewPoint(200, 0))}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
				_, err := svc.Create(ctx, tt.input, nil)
				require.ErrorIs(t, err, errors.ErrInvalidItem)
			})
		}
	})

	t.Run("should reject too many images", func(t *testing.T) {
		images := make([]*multipart.FileHeader, 6)
		for i := range images {
			images[i] = multipartFile(t, "images", "img.png", pngContent)
		}
		_, err := svc.Create(ctx, domain.NewItem{Name: "Desk", Location: lo.ToPtr(geo.NewPoint(0, 0))}, images)
		require.ErrorIs(t, err, errors.ErrTooManyFiles)
	})

	t.Run("should remove stored images when the store fails", func(t *testing.T) {
		req := require.New(t)
		before, err := os.ReadDir(filepath.Join(uploads.Root(), "items"))
		req.NoError(err)
		mockRepo.EXPECT().Create(ctx, gomock.Any()).Return(errors.ErrStoreUnavailable)

		// When the repository rejects the item
		_, err = svc.Create(ctx,
			domain.NewItem{Name: "Lamp", Location: lo.ToPtr(geo.NewPoint(0, 0))},
			[]*multipart.FileHeader{multipartFile(t, "images", "lamp.png", pngContent)})

		// Then no new file is left behind
		req.ErrorIs(err, errors.ErrStoreUnavailable)
		after, err := os.ReadDir(filepath.Join(uploads.Root(), "items"))
		req.NoError(err)
		req.Len(after, len(before))
	})
}

func TestItemService_Recent_Defaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mockRepo := mocks.NewMockIItemRepository(ctrl)
	svc := NewItemService(mockRepo, newUploadStore(t), logs.GetLoggerFromLevel(slog.LevelDebug))

	mockRepo.EXPECT().Recent(ctx, DefaultRecentLimit, 0).Return(nil, nil)
	mockRepo.EXPECT().Recent(ctx, 3, 6).Return([]domain.Item{{ID: "a"}}, nil)

	_, err := svc.Recent(ctx, 0, -1)
	require.NoError(t, err)

	items, err := svc.Recent(ctx, 3, 6)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestItemService_Seed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)
	ctx := context.Background()
	mockRepo := mocks.NewMockIItemRepository(ctrl)
	svc := NewItemService(mockRepo, newUploadStore(t), logs.GetLoggerFromLevel(slog.LevelDebug))

	var inserted []domain.Item
	mockRepo.EXPECT().InsertMany(ctx, gomock.Len(2)).DoAndReturn(func(_ context.Context, items []domain.Item) error {
		inserted = items
		return nil
	})

	items, err := svc.Seed(ctx)

	req.NoError(err)
	req.Equal(inserted, items)
	req.Equal("8 ft roll-up Bamboo Shade", items[0].Name)
	req.Equal("IKEA Desk", items[1].Name)
	for _, item := range items {
		req.Equal(SeedOwner, item.Owner)
		req.Equal(geo.NewPoint(-122.256, 37.777), item.Location)
	}
}
