package search

import (
	"strings"

	"catalogstream/catalogsearch/internal/corpus"
	"catalogstream/catalogsearch/internal/domain"
	"catalogstream/catalogsearch/internal/fuzzy"
)

// Rank reorders items by fuzzy closeness to query. Matched items come first
// in score order, then every unmatched item in its original order. The
// result is always a permutation of items.
func Rank(query string, items []domain.SearchableItem) []domain.SearchableItem {
	if strings.TrimSpace(query) == "" || len(items) <= 1 {
		return items
	}

	index := fuzzy.New(items, corpus.SearchKeys(), fuzzy.Options{Threshold: fuzzy.DefaultThreshold})
	matches := index.Search(query)
	if len(matches) == 0 {
		return items
	}

	placed := make([]bool, len(items))
	ranked := make([]domain.SearchableItem, 0, len(items))
	for _, match := range matches {
		if placed[match.Index] {
			continue
		}
		placed[match.Index] = true
		ranked = append(ranked, items[match.Index])
	}
	for i, item := range items {
		if !placed[i] {
			ranked = append(ranked, item)
		}
	}
	return ranked
}
