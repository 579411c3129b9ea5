package repositories

import (
	"context"
	"regexp"
	"sharecircle/domain"
	"strings"

	"github.com/blugelabs/bluge"
	"github.com/blugelabs/bluge/search"
)

// Searchable item fields. Values are stored as single lowercased keyword
// terms so a regexp over the term behaves as a substring match.
var searchableFields = []string{"name", "description", "category"}

// ItemIndex is the bluge full text index of items.
type ItemIndex struct {
	writer *bluge.Writer
}

func NewItemIndex(writer *bluge.Writer) *ItemIndex {
	return &ItemIndex{writer: writer}
}

// Index adds or replaces the given items in one batch.
func (i *ItemIndex) Index(items ...domain.Item) error {
	batch := bluge.NewBatch()
	for _, item := range items {
		doc := bluge.NewDocument(item.ID).
			AddField(bluge.NewKeywordField("name", normalizeTerm(item.Name))).
			AddField(bluge.NewKeywordField("description", normalizeTerm(item.Description))).
			AddField(bluge.NewKeywordField("category", normalizeTerm(item.Category)))
		batch.Update(doc.ID(), doc)
	}
	return i.writer.Batch(batch)
}

// Search returns the ids of items whose name, description or category
// contains q, ignoring case.
func (i *ItemIndex) Search(ctx context.Context, q string) ([]string, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	pattern := ".*" + regexp.QuoteMeta(normalizeTerm(q)) + ".*"
	query := bluge.NewBooleanQuery().SetMinShould(1)
	for _, field := range searchableFields {
		query.AddShould(bluge.NewRegexpQuery(pattern).SetField(field))
	}

	matches, err := reader.Search(ctx, bluge.NewAllMatches(query))
	if err != nil {
		return nil, err
	}

	var ids []string
	match, err := matches.Next()
	for err == nil && match != nil {
		if id := storedID(match); id != "" {
			ids = append(ids, id)
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func storedID(match *search.DocumentMatch) string {
	var id string
	_ = match.VisitStoredFields(func(field string, value []byte) bool {
		if field == "_id" {
			id = string(value)
			return false
		}
		return true
	})
	return id
}

func normalizeTerm(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.ToLower(s))
}
