// Package corpus holds the built-in catalog sample used when the remote
// provider yields nothing. It is built once at start-up and never mutated.
package corpus

import (
	"catalogstream/catalogsearch/internal/domain"
	"catalogstream/catalogsearch/internal/fuzzy"
)

const (
	// MatchThreshold is looser than fuzzy.DefaultThreshold so partial and
	// misspelled queries still land on a sample title.
	MatchThreshold = 0.6
	DefaultLimit   = 30
)

// Corpus is a read-only set of items partitioned by media kind.
type Corpus struct {
	byFilter map[domain.KindFilter][]domain.SearchableItem
	indexes  map[domain.KindFilter]*fuzzy.Index[domain.SearchableItem]
}

var builtin = New(builtinMovies(), builtinTV())

// Default returns the process-wide built-in corpus.
func Default() *Corpus {
	return builtin
}

// New builds a corpus from movie and tv items. Items whose kind does not
// match their partition are moved to the right one; duplicated keys keep the
// first occurrence.
func New(movies, tv []domain.SearchableItem) *Corpus {
	seen := make(map[domain.ItemKey]struct{}, len(movies)+len(tv))
	partitions := map[domain.MediaKind][]domain.SearchableItem{}
	all := make([]domain.SearchableItem, 0, len(movies)+len(tv))
	for _, item := range append(append([]domain.SearchableItem(nil), movies...), tv...) {
		if item.Kind != domain.MediaKindMovie && item.Kind != domain.MediaKindTV {
			continue
		}
		if _, ok := seen[item.Key()]; ok {
			continue
		}
		seen[item.Key()] = struct{}{}
		partitions[item.Kind] = append(partitions[item.Kind], item)
		all = append(all, item)
	}

	c := &Corpus{
		byFilter: map[domain.KindFilter][]domain.SearchableItem{
			domain.KindFilterMovie: partitions[domain.MediaKindMovie],
			domain.KindFilterTV:    partitions[domain.MediaKindTV],
			domain.KindFilterAll:   all,
		},
		indexes: make(map[domain.KindFilter]*fuzzy.Index[domain.SearchableItem], 3),
	}
	for filter, items := range c.byFilter {
		c.indexes[filter] = fuzzy.New(items, SearchKeys(), fuzzy.Options{Threshold: MatchThreshold})
	}
	return c
}

// SearchKeys are the item fields scored by fuzzy matching.
func SearchKeys() []fuzzy.Key[domain.SearchableItem] {
	return []fuzzy.Key[domain.SearchableItem]{
		{Name: "title", Weight: 1, Values: func(item domain.SearchableItem) []string {
			return []string{item.DisplayTitle}
		}},
		{Name: "originalTitle", Weight: 1, Values: func(item domain.SearchableItem) []string {
			return []string{item.OriginalTitle}
		}},
		{Name: "alternateTitles", Weight: 1, Values: func(item domain.SearchableItem) []string {
			return item.AlternateTitles
		}},
		{Name: "overview", Weight: 0.7, Values: func(item domain.SearchableItem) []string {
			return []string{item.Overview}
		}},
	}
}

// Items returns a copy of every item for the filter.
func (c *Corpus) Items(filter domain.KindFilter) []domain.SearchableItem {
	return append([]domain.SearchableItem(nil), c.byFilter[normalizeFilter(filter)]...)
}

// Search fuzzy-matches query against the filter's partition, returning at most
// limit items. When nothing scores within the threshold the whole partition is
// returned so callers never get an empty answer.
func (c *Corpus) Search(query string, filter domain.KindFilter, limit int) []domain.SearchableItem {
	filter = normalizeFilter(filter)
	if limit <= 0 {
		limit = DefaultLimit
	}
	matches := c.indexes[filter].SearchLimit(query, limit)
	if len(matches) == 0 {
		return c.Items(filter)
	}
	items := make([]domain.SearchableItem, 0, len(matches))
	for _, match := range matches {
		items = append(items, match.Item)
	}
	return items
}

func normalizeFilter(filter domain.KindFilter) domain.KindFilter {
	switch filter {
	case domain.KindFilterMovie, domain.KindFilterTV:
		return filter
	default:
		return domain.KindFilterAll
	}
}
