package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"catalogstream/catalogsearch/internal/domain"
	"catalogstream/catalogsearch/internal/metrics"
)

// textPage is one normalized text-search contribution. A failed call
// contributes the zero value.
type textPage struct {
	items        []domain.SearchableItem
	totalResults int
	totalPages   int
}

// invoke runs fn against one endpoint under the per-call timeout and the
// endpoint breaker. The error is returned for logging only; callers treat any
// error as an empty contribution.
func (s *Service) invoke(ctx context.Context, endpoint, query string, fn func(context.Context) error) error {
	if !s.providerEnabled() {
		return ErrProviderDisabled
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if blocked, until, lastErr := s.isEndpointBlocked(endpoint, s.now()); blocked {
		s.logger.Debug("catalog endpoint blocked",
			slog.String("call", endpoint),
			slog.Time("until", until),
			slog.String("lastError", lastErr),
		)
		return fmt.Errorf("%w: %s", ErrProviderBlocked, endpoint)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	startedAt := time.Now()
	err := fn(callCtx)
	if err != nil && ctx.Err() != nil {
		// The caller gave up or ran out of budget; the endpoint is not at fault.
		metrics.ProviderRequestsTotal.WithLabelValues(endpoint, "canceled").Inc()
		return err
	}
	s.recordEndpointResult(endpoint, query, err, time.Since(startedAt), s.now())
	if err != nil {
		s.logger.Warn("catalog call failed",
			slog.String("call", endpoint),
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
	}
	return err
}

func (s *Service) searchText(ctx context.Context, query string, target domain.SearchTarget, page int, language string) textPage {
	endpoint, hint := endpointSearchMulti, domain.KindFilterAll
	switch target {
	case domain.SearchTargetMovie:
		endpoint, hint = endpointSearchMovie, domain.KindFilterMovie
	case domain.SearchTargetTV:
		endpoint, hint = endpointSearchTV, domain.KindFilterTV
	}

	var result textPage
	_ = s.invoke(ctx, endpoint, query, func(callCtx context.Context) error {
		payload, err := s.provider.SearchText(callCtx, query, target, page, language)
		if err != nil {
			return err
		}
		result = textPage{
			items:        Normalize(payload.Records, hint),
			totalResults: payload.TotalResults,
			totalPages:   payload.TotalPages,
		}
		return nil
	})
	return result
}

// fanOut searches every endpoint serving filter in parallel and merges the
// contributions in endpoint order. For the all filter the combined endpoint
// runs alongside the movie and tv ones unless combined is false.
func (s *Service) fanOut(ctx context.Context, query string, filter domain.KindFilter, page int, language string, combined bool) textPage {
	var targets []domain.SearchTarget
	if kind, ok := filter.Pinned(); ok {
		targets = []domain.SearchTarget{domain.TargetForKind(kind)}
	} else {
		if combined {
			targets = append(targets, domain.SearchTargetMulti)
		}
		targets = append(targets, domain.SearchTargetMovie, domain.SearchTargetTV)
	}

	pages := make([]textPage, len(targets))
	var g errgroup.Group
	for i, target := range targets {
		g.Go(func() error {
			pages[i] = s.searchText(ctx, query, target, page, language)
			return nil
		})
	}
	_ = g.Wait()

	return mergePages(pages...)
}

func mergePages(pages ...textPage) textPage {
	lists := make([][]domain.SearchableItem, 0, len(pages))
	var merged textPage
	for _, page := range pages {
		lists = append(lists, page.items)
		merged.totalResults = max(merged.totalResults, page.totalResults)
		merged.totalPages = max(merged.totalPages, page.totalPages)
	}
	merged.items = Dedupe(lists...)
	return merged
}

func (s *Service) searchKeywords(ctx context.Context, query string) []domain.Keyword {
	var keywords []domain.Keyword
	_ = s.invoke(ctx, endpointSearchKeyword, query, func(callCtx context.Context) error {
		found, err := s.provider.SearchKeywords(callCtx, query)
		if err != nil {
			return err
		}
		keywords = found
		return nil
	})
	return keywords
}

func (s *Service) discoverKind(ctx context.Context, query string, keywordIDs []int, kind domain.MediaKind, language string) []domain.SearchableItem {
	endpoint, hint := endpointDiscoverMovie, domain.KindFilterMovie
	if kind == domain.MediaKindTV {
		endpoint, hint = endpointDiscoverTV, domain.KindFilterTV
	}

	var items []domain.SearchableItem
	_ = s.invoke(ctx, endpoint, query, func(callCtx context.Context) error {
		payload, err := s.provider.DiscoverByKeywords(callCtx, keywordIDs, kind, language)
		if err != nil {
			return err
		}
		items = Normalize(payload.Records, hint)
		return nil
	})
	return items
}
