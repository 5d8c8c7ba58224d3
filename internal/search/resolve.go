package search

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"catalogstream/catalogsearch/internal/corpus"
	"catalogstream/catalogsearch/internal/domain"
	"catalogstream/catalogsearch/internal/metrics"
)

// MinQueryLength is the shortest normalized query that reaches any tier.
const MinQueryLength = 2

// MaxPage is the last page TMDB serves; later pages are rejected.
const MaxPage = 500

type resolution struct {
	query    string
	filter   domain.KindFilter
	page     int
	language string
}

// tier produces a terminal answer or reports that it found nothing.
type tier struct {
	provenance domain.Provenance
	run        func(context.Context, resolution) (domain.SearchAnswer, bool)
}

// Resolve turns a free-text query into a ranked, deduplicated answer. It
// walks the tiers primary, alternate queries, keyword discovery and the local
// corpus, stopping at the first one that yields items. Provider failures only
// move resolution to the next tier, so every query of at least
// MinQueryLength characters gets a non-empty answer.
func (s *Service) Resolve(ctx context.Context, query string, filter domain.KindFilter, page string, language string) domain.SearchAnswer {
	normalized := NormalizeQuery(query)
	if utf8.RuneCountInString(normalized) < MinQueryLength {
		metrics.ResolutionsTotal.WithLabelValues(string(domain.ProvenanceTooShort)).Inc()
		return tooShortAnswer(normalized)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.resolveTimeout)
		defer cancel()
	}

	req := resolution{
		query:    normalized,
		filter:   domain.ParseKindFilter(string(filter)),
		page:     parsePage(page),
		language: strings.TrimSpace(language),
	}

	startedAt := time.Now()
	ctx, span := s.tracer.Start(ctx, "search.Resolve", trace.WithAttributes(
		attribute.String("search.query", req.query),
		attribute.String("search.filter", string(req.filter)),
		attribute.Int("search.page", req.page),
	))
	defer span.End()

	var (
		answer domain.SearchAnswer
		ok     bool
	)
	if s.providerEnabled() {
		for _, t := range s.remoteTiers() {
			if ctx.Err() != nil {
				break
			}
			if answer, ok = s.runTier(ctx, t, req); ok {
				break
			}
		}
	}
	if !ok {
		answer, _ = s.runTier(ctx, tier{provenance: domain.ProvenanceLocalFuzzy, run: s.resolveLocal}, req)
	}

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(
		attribute.String("search.provenance", string(answer.Provenance)),
		attribute.Int("search.items", len(answer.Items)),
	)
	metrics.ResolutionsTotal.WithLabelValues(string(answer.Provenance)).Inc()
	metrics.ResolutionDuration.Observe(time.Since(startedAt).Seconds())
	return answer
}

func (s *Service) remoteTiers() []tier {
	return []tier{
		{provenance: domain.ProvenancePrimary, run: s.resolvePrimary},
		{provenance: domain.ProvenanceFallbackQuery, run: s.resolveAlternates},
		{provenance: domain.ProvenanceKeywordDiscovery, run: s.resolveKeywords},
	}
}

func (s *Service) runTier(ctx context.Context, t tier, req resolution) (domain.SearchAnswer, bool) {
	ctx, span := s.tracer.Start(ctx, "search.tier."+string(t.provenance))
	defer span.End()

	answer, ok := t.run(ctx, req)
	span.SetAttributes(
		attribute.Bool("search.produced", ok),
		attribute.Int("search.items", len(answer.Items)),
	)
	s.logger.Debug("search tier finished",
		slog.String("tier", string(t.provenance)),
		slog.String("query", req.query),
		slog.Bool("produced", ok),
		slog.Int("items", len(answer.Items)),
	)
	return answer, ok
}

// resolvePrimary searches the requested page and, when it yields anything,
// expands it toward ResultsTarget.
func (s *Service) resolvePrimary(ctx context.Context, req resolution) (domain.SearchAnswer, bool) {
	base := s.fanOut(ctx, req.query, req.filter, req.page, req.language, true)
	if len(base.items) == 0 {
		return domain.SearchAnswer{}, false
	}

	grown := s.expand(ctx, req.query, req.filter, req.page, req.language, base)
	provenance := domain.ProvenancePrimary
	if grown.grew {
		provenance = domain.ProvenanceExpanded
	}
	return s.answer(req, req.query, grown.items, grown.totalResults, grown.totalPages, provenance, grown.keywordNames), true
}

// resolveAlternates tries reduced queries one at a time and stops at the
// first that yields items.
func (s *Service) resolveAlternates(ctx context.Context, req resolution) (domain.SearchAnswer, bool) {
	for _, alternate := range AlternateQueries(req.query) {
		if ctx.Err() != nil {
			break
		}
		found := s.fanOut(ctx, alternate, req.filter, 1, req.language, true)
		if len(found.items) == 0 {
			continue
		}
		return s.answer(req, alternate, found.items, found.totalResults, found.totalPages, domain.ProvenanceFallbackQuery, []string{alternate}), true
	}
	return domain.SearchAnswer{}, false
}

func (s *Service) resolveKeywords(ctx context.Context, req resolution) (domain.SearchAnswer, bool) {
	found := s.discover(ctx, req.query, req.filter, req.language)
	if len(found.items) == 0 {
		return domain.SearchAnswer{}, false
	}
	return s.answer(req, req.query, found.items, len(found.items), 1, domain.ProvenanceKeywordDiscovery, found.keywordNames), true
}

func (s *Service) resolveLocal(_ context.Context, req resolution) (domain.SearchAnswer, bool) {
	items := s.corpus.Search(req.query, req.filter, corpus.DefaultLimit)
	return s.answer(req, req.query, items, len(items), 1, domain.ProvenanceLocalFuzzy, nil), true
}

func (s *Service) answer(req resolution, applied string, items []domain.SearchableItem, totalResults, totalPages int, provenance domain.Provenance, extras []string) domain.SearchAnswer {
	ranked := Rank(req.query, items)
	return domain.SearchAnswer{
		Items:           ranked,
		TotalAvailable:  max(totalResults, len(ranked)),
		TotalPages:      max(totalPages, 1),
		Suggestions:     Suggest(req.query, ranked, extras),
		UsedFallback:    provenance != domain.ProvenancePrimary && provenance != domain.ProvenanceExpanded,
		Provenance:      provenance,
		NormalizedQuery: req.query,
		AppliedQuery:    applied,
	}
}

func tooShortAnswer(normalized string) domain.SearchAnswer {
	return domain.SearchAnswer{
		Items:           []domain.SearchableItem{},
		Suggestions:     []string{},
		UsedFallback:    true,
		Provenance:      domain.ProvenanceTooShort,
		NormalizedQuery: normalized,
		AppliedQuery:    normalized,
	}
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return min(page, MaxPage)
}
