package search

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"catalogstream/catalogsearch/internal/domain"
)

const (
	// ResultsTarget is the item count below which a result set counts as thin.
	ResultsTarget = 18
	KeywordLimit  = 12

	extraPages = 2
)

type expansion struct {
	textPage
	keywordNames []string
	grew         bool
}

type discovery struct {
	items        []domain.SearchableItem
	keywordNames []string
}

// expand grows a thin primary result set with the next pages from the
// per-kind endpoints and then with keyword discovery. It never drops items.
func (s *Service) expand(ctx context.Context, query string, filter domain.KindFilter, page int, language string, base textPage) expansion {
	result := expansion{textPage: base}

	for next := page + 1; next <= page+extraPages; next++ {
		if len(result.items) >= ResultsTarget || ctx.Err() != nil {
			break
		}
		if next > MaxPage || (result.totalPages > 0 && next > result.totalPages) {
			break
		}
		extra := s.fanOut(ctx, query, filter, next, language, false)
		result.textPage = mergePages(result.textPage, extra)
	}

	if len(result.items) < ResultsTarget && ctx.Err() == nil {
		found := s.discover(ctx, query, filter, language)
		if len(found.items) > 0 {
			result.items = Dedupe(result.items, found.items)
			result.keywordNames = found.keywordNames
		}
	}

	result.grew = len(result.items) > len(base.items)
	return result
}

// discover resolves query to at most KeywordLimit keywords and lists the
// titles tagged with them for every kind the filter allows.
func (s *Service) discover(ctx context.Context, query string, filter domain.KindFilter, language string) discovery {
	keywords := s.searchKeywords(ctx, query)
	if len(keywords) > KeywordLimit {
		keywords = keywords[:KeywordLimit]
	}
	if len(keywords) == 0 {
		return discovery{}
	}

	ids := make([]int, 0, len(keywords))
	names := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		ids = append(ids, keyword.ID)
		if name := strings.TrimSpace(keyword.Name); name != "" {
			names = append(names, name)
		}
	}

	kinds := filter.Kinds()
	lists := make([][]domain.SearchableItem, len(kinds))
	var g errgroup.Group
	for i, kind := range kinds {
		g.Go(func() error {
			lists[i] = s.discoverKind(ctx, query, ids, kind, language)
			return nil
		})
	}
	_ = g.Wait()

	return discovery{items: Dedupe(lists...), keywordNames: names}
}
