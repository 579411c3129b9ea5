//go:generate go run go.uber.org/mock/mockgen -source=item_service.go -destination=../mocks/mock_item_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"sharecircle/domain"
	"sharecircle/domain/geo"
	"sharecircle/errors"
	"sharecircle/repositories"
	"sharecircle/storage"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	DefaultRecentLimit = 10

	// SeedOwner owns the sample listings inserted by Seed.
	SeedOwner = "6752c4ee6ddb41a598dbe51e"
)

var validate = validator.New()

type IItemService interface {
	Create(ctx context.Context, input domain.NewItem, images []*multipart.FileHeader) (domain.Item, error)
	Recent(ctx context.Context, limit, skip int) ([]domain.Item, error)
	ByOwner(ctx context.Context, owner string) ([]domain.Item, error)
	Seed(ctx context.Context) ([]domain.Item, error)
}

type ItemService struct {
	items    repositories.IItemRepository
	uploader Uploader
	log      *slog.Logger
	now      func() time.Time
}

func NewItemService(items repositories.IItemRepository, uploader Uploader, log *slog.Logger) *ItemService {
	return &ItemService{items: items, uploader: uploader, log: log, now: time.Now}
}

// Create stores the images then the item. Images already written are
// removed again if anything fails afterwards.
func (s *ItemService) Create(ctx context.Context, input domain.NewItem, images []*multipart.FileHeader) (domain.Item, error) {
	if err := validate.Struct(input); err != nil {
		return domain.Item{}, fmt.Errorf("%w: name and location are required", errors.ErrInvalidItem)
	}
	if err := input.Location.Validate(); err != nil {
		return domain.Item{}, fmt.Errorf("%w: %w", errors.ErrInvalidItem, errors.ErrInvalidLocation)
	}
	if len(images) > storage.MaxItemImages {
		return domain.Item{}, fmt.Errorf("%w: at most %d images", errors.ErrTooManyFiles, storage.MaxItemImages)
	}

	paths := make([]string, 0, len(images))
	cleanup := func() {
		lo.ForEach(paths, func(p string, _ int) { s.uploader.Remove(p) })
	}
	for _, image := range images {
		p, err := s.uploader.Save(storage.ItemImageRule, image)
		if err != nil {
			cleanup()
			return domain.Item{}, err
		}
		paths = append(paths, p)
	}

	now := s.now().UTC()
	item := domain.Item{
		ID:             uuid.New().String(),
		Name:           input.Name,
		Description:    input.Description,
		Category:       input.Category,
		Location:       *input.Location,
		Owner:          input.Owner,
		Images:         append(paths, input.Images...),
		CreatedAt:      now,
		UpdatedAt:      now,
		AvailableUntil: input.AvailableUntil,
	}
	if err := s.items.Create(ctx, item); err != nil {
		cleanup()
		return domain.Item{}, err
	}

	s.log.Info("Item created", "item_id", item.ID, "owner", item.Owner, "images", len(item.Images))
	return item, nil
}

// Recent pages newest first. A non positive limit means the default page size.
func (s *ItemService) Recent(ctx context.Context, limit, skip int) ([]domain.Item, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if skip < 0 {
		skip = 0
	}
	return s.items.Recent(ctx, limit, skip)
}

func (s *ItemService) ByOwner(ctx context.Context, owner string) ([]domain.Item, error) {
	return s.items.ByOwner(ctx, owner)
}

// Seed inserts the two sample listings used by the demo front end.
func (s *ItemService) Seed(ctx context.Context) ([]domain.Item, error) {
	location := geo.NewPoint(-122.256, 37.777)
	now := s.now().UTC()
	items := []domain.Item{
		{
			Name:        "8 ft roll-up Bamboo Shade",
			Description: "It's a bit worn, but still works fine.",
			Category:    "Offer",
			Images:      []string{"/uploads/items/sample1.avif", "/uploads/items/sample2.webp"},
		},
		{
			Name:        "IKEA Desk",
			Description: "Sturdy black IKEA desk.",
			Category:    "Offer",
			Images:      []string{"/uploads/items/sample3.jpeg"},
		},
	}
	for i := range items {
		items[i].ID = uuid.New().String()
		items[i].Location = location
		items[i].Owner = SeedOwner
		// Distinct timestamps keep the listing order stable
		items[i].CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
		items[i].UpdatedAt = items[i].CreatedAt
	}

	if err := s.items.InsertMany(ctx, items); err != nil {
		return nil, err
	}
	s.log.Info("Seed items created", "count", len(items))
	return items, nil
}
