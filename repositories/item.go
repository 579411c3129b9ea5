//go:generate go run go.uber.org/mock/mockgen -source=item.go -destination=../mocks/mock_item_repository.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"sharecircle/domain"
	"sharecircle/domain/geo"
	"sharecircle/errors"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/samber/lo"
)

const (
	itemPrefix         = "item:"
	createdIndexPrefix = "idx:created:"
	ownerIndexPrefix   = "idx:owner:"
	geoIndexPrefix     = "idx:geo:"

	// Above this number of one degree cells a full scan is cheaper.
	maxIndexCells = 720
)

// IItemRepository is the item store used by the item and query services.
// Every listing is returned newest first.
type IItemRepository interface {
	Create(ctx context.Context, item domain.Item) error
	InsertMany(ctx context.Context, items []domain.Item) error
	Get(ctx context.Context, id string) (domain.Item, error)
	Recent(ctx context.Context, limit, skip int) ([]domain.Item, error)
	ByOwner(ctx context.Context, owner string) ([]domain.Item, error)
	QueryByRadius(ctx context.Context, center geo.Point, radiusKm float64) ([]domain.Item, error)
	QueryByText(ctx context.Context, q string) ([]domain.Item, error)
}

// ItemRepository stores items in Badger with three secondary indexes:
//
//	idx:created:{unix_nano}:{id}          chronological listing
//	idx:owner:{owner}:{unix_nano}:{id}    listing per owner
//	idx:geo:{cell_x}:{cell_y}:{id}        one degree grid for proximity queries
//
// Text search goes through the bluge index when one is provided and falls
// back to a scan otherwise.
type ItemRepository struct {
	db    *badger.DB
	index *ItemIndex
	log   *slog.Logger
}

func NewItemRepository(db *badger.DB, index *ItemIndex, log *slog.Logger) *ItemRepository {
	return &ItemRepository{db: db, index: index, log: log}
}

type itemRecord struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	Longitude      float64  `json:"longitude"`
	Latitude       float64  `json:"latitude"`
	Owner          string   `json:"owner"`
	Images         []string `json:"images"`
	CreatedAt      int64    `json:"created_at"`
	UpdatedAt      int64    `json:"updated_at"`
	AvailableUntil *int64   `json:"available_until,omitempty"`
}

func (r *ItemRepository) Create(ctx context.Context, item domain.Item) error {
	return r.InsertMany(ctx, []domain.Item{item})
}

// InsertMany writes the items and their index entries in a single transaction.
func (r *ItemRepository) InsertMany(ctx context.Context, items []domain.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		for _, item := range items {
			data, err := json.Marshal(fromItem(item))
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(itemPrefix+item.ID), data); err != nil {
				return err
			}
			for _, key := range indexKeys(item) {
				if err := txn.Set(key, nil); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrStoreUnavailable, err)
	}

	if r.index != nil {
		if err := r.index.Index(items...); err != nil {
			// The item is stored, search falls back to a scan until the next reindex.
			r.log.Error("Failed to index items", "count", len(items), "error", err)
		}
	}
	return nil
}

func (r *ItemRepository) Get(ctx context.Context, id string) (domain.Item, error) {
	var item domain.Item
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		item, err = getItem(txn, id)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return domain.Item{}, fmt.Errorf("%w: %s", errors.ErrItemNotFound, id)
	case err != nil:
		return domain.Item{}, fmt.Errorf("%w: %w", errors.ErrStoreUnavailable, err)
	}
	return item, nil
}

// Recent pages through items from the newest one.
func (r *ItemRepository) Recent(ctx context.Context, limit, skip int) ([]domain.Item, error) {
	return r.listByPrefix(ctx, createdIndexPrefix, limit, skip)
}

func (r *ItemRepository) ByOwner(ctx context.Context, owner string) ([]domain.Item, error) {
	return r.listByPrefix(ctx, ownerIndexPrefix+owner+":", 0, 0)
}

// QueryByRadius returns the items inside the spherical cap. Candidates come
// from the grid cells covering the cap, then each one is checked exactly.
func (r *ItemRepository) QueryByRadius(ctx context.Context, center geo.Point, radiusKm float64) ([]domain.Item, error) {
	query := geo.Query{Center: center, RadiusKm: radiusKm}
	cells, indexed := query.Bounds().Cells(maxIndexCells)

	var items []domain.Item
	err := r.db.View(func(txn *badger.Txn) error {
		var candidates []domain.Item
		var err error
		if indexed {
			candidates, err = r.candidatesInCells(ctx, txn, cells)
		} else {
			r.log.Debug("Radius too large for the grid, scanning", "radius_km", radiusKm)
			candidates, err = scanItems(ctx, txn)
		}
		if err != nil {
			return err
		}
		items = lo.Filter(candidates, func(item domain.Item, _ int) bool {
			return query.Contains(item.Location)
		})
		return nil
	})
	if err != nil {
		return nil, storeFailure(err)
	}
	sortNewestFirst(items)
	return items, nil
}

// QueryByText returns the items whose name, description or category
// contains q, ignoring case.
func (r *ItemRepository) QueryByText(ctx context.Context, q string) ([]domain.Item, error) {
	if r.index != nil {
		ids, err := r.index.Search(ctx, q)
		if err != nil {
			return nil, storeFailure(err)
		}
		var items []domain.Item
		err = r.db.View(func(txn *badger.Txn) error {
			for _, id := range ids {
				item, err := getItem(txn, id)
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				items = append(items, item)
			}
			return nil
		})
		if err != nil {
			return nil, storeFailure(err)
		}
		sortNewestFirst(items)
		return items, nil
	}

	needle := normalizeTerm(q)
	var items []domain.Item
	err := r.db.View(func(txn *badger.Txn) error {
		all, err := scanItems(ctx, txn)
		if err != nil {
			return err
		}
		items = lo.Filter(all, func(item domain.Item, _ int) bool {
			return strings.Contains(normalizeTerm(item.Name), needle) ||
				strings.Contains(normalizeTerm(item.Description), needle) ||
				strings.Contains(normalizeTerm(item.Category), needle)
		})
		return nil
	})
	if err != nil {
		return nil, storeFailure(err)
	}
	sortNewestFirst(items)
	return items, nil
}

// Reindex rebuilds the text index from the stored items.
func (r *ItemRepository) Reindex(ctx context.Context) (int, error) {
	if r.index == nil {
		return 0, nil
	}
	var items []domain.Item
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		items, err = scanItems(ctx, txn)
		return err
	})
	if err != nil {
		return 0, storeFailure(err)
	}
	if len(items) == 0 {
		return 0, nil
	}
	if err := r.index.Index(items...); err != nil {
		return 0, storeFailure(err)
	}
	return len(items), nil
}

// listByPrefix walks an index prefix backwards, newest key first.
// A limit of 0 means no limit.
func (r *ItemRepository) listByPrefix(ctx context.Context, prefix string, limit, skip int) ([]domain.Item, error) {
	var items []domain.Item
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		p := []byte(prefix)
		seekKey := append([]byte(prefix), 0xFF)
		skipped := 0
		for it.Seek(seekKey); it.ValidForPrefix(p); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if skipped < skip {
				skipped++
				continue
			}
			if limit > 0 && len(items) == limit {
				break
			}
			item, err := getItem(txn, idFromIndexKey(it.Item().Key()))
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, storeFailure(err)
	}
	return items, nil
}

func (r *ItemRepository) candidatesInCells(ctx context.Context, txn *badger.Txn, cells []geo.Cell) ([]domain.Item, error) {
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	it := txn.NewIterator(options)
	defer it.Close()

	seen := make(map[string]struct{})
	var items []domain.Item
	for _, cell := range cells {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prefix := []byte(cellPrefix(cell))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id := idFromIndexKey(it.Item().Key())
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			item, err := getItem(txn, id)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}
	return items, nil
}

func scanItems(ctx context.Context, txn *badger.Txn) ([]domain.Item, error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefix := []byte(itemPrefix)
	var items []domain.Item
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var record itemRecord
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return nil, err
		}
		items = append(items, toItem(record))
	}
	return items, nil
}

func getItem(txn *badger.Txn, id string) (domain.Item, error) {
	entry, err := txn.Get([]byte(itemPrefix + id))
	if err != nil {
		return domain.Item{}, err
	}
	var record itemRecord
	if err := entry.Value(func(val []byte) error {
		return json.Unmarshal(val, &record)
	}); err != nil {
		return domain.Item{}, err
	}
	return toItem(record), nil
}

func indexKeys(item domain.Item) [][]byte {
	created := item.CreatedAt.UnixNano()
	return [][]byte{
		[]byte(fmt.Sprintf("%s%019d:%s", createdIndexPrefix, created, item.ID)),
		[]byte(fmt.Sprintf("%s%s:%019d:%s", ownerIndexPrefix, item.Owner, created, item.ID)),
		[]byte(cellPrefix(geo.CellOf(item.Location)) + item.ID),
	}
}

func cellPrefix(cell geo.Cell) string {
	return fmt.Sprintf("%s%03d:%03d:", geoIndexPrefix, cell.X, cell.Y)
}

// idFromIndexKey returns the last segment of an index key.
func idFromIndexKey(key []byte) string {
	k := string(key)
	return k[strings.LastIndexByte(k, ':')+1:]
}

func sortNewestFirst(items []domain.Item) {
	slices.SortStableFunc(items, func(a, b domain.Item) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func storeFailure(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", errors.ErrStoreUnavailable, err)
}

func fromItem(item domain.Item) itemRecord {
	record := itemRecord{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Category:    item.Category,
		Longitude:   item.Location.Longitude,
		Latitude:    item.Location.Latitude,
		Owner:       item.Owner,
		Images:      item.Images,
		CreatedAt:   item.CreatedAt.UnixNano(),
		UpdatedAt:   item.UpdatedAt.UnixNano(),
	}
	if item.AvailableUntil != nil {
		record.AvailableUntil = lo.ToPtr(item.AvailableUntil.UnixNano())
	}
	return record
}

func toItem(record itemRecord) domain.Item {
	item := domain.Item{
		ID:          record.ID,
		Name:        record.Name,
		Description: record.Description,
		Category:    record.Category,
		Location:    geo.NewPoint(record.Longitude, record.Latitude),
		Owner:       record.Owner,
		Images:      record.Images,
		CreatedAt:   time.Unix(0, record.CreatedAt).UTC(),
		UpdatedAt:   time.Unix(0, record.UpdatedAt).UTC(),
	}
	if record.AvailableUntil != nil {
		item.AvailableUntil = lo.ToPtr(time.Unix(0, *record.AvailableUntil).UTC())
	}
	return item
}
