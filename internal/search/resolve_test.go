package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"catalogstream/catalogsearch/internal/corpus"
	"catalogstream/catalogsearch/internal/domain"
	"catalogstream/catalogsearch/internal/providers/tmdb"
)

type fakeCatalog struct {
	disabled bool
	delay    time.Duration
	err      error

	mu       sync.Mutex
	text     map[string]domain.RecordPage
	keywords map[string][]domain.Keyword
	discover map[domain.MediaKind][]domain.RawRecord
	calls    []string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		text:     make(map[string]domain.RecordPage),
		keywords: make(map[string][]domain.Keyword),
		discover: make(map[domain.MediaKind][]domain.RawRecord),
	}
}

func textKey(query string, target domain.SearchTarget, page int) string {
	return fmt.Sprintf("%s|%s|%d", query, target, page)
}

func (f *fakeCatalog) onText(query string, target domain.SearchTarget, page, totalPages int, records []domain.RawRecord) {
	f.text[textKey(query, target, page)] = domain.RecordPage{
		Records:      records,
		Page:         page,
		TotalResults: len(records) * max(totalPages, 1),
		TotalPages:   totalPages,
	}
}

func (f *fakeCatalog) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeCatalog) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeCatalog) count(prefix string) int {
	n := 0
	for _, call := range f.callLog() {
		if strings.HasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeCatalog) wait(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeCatalog) Enabled() bool { return !f.disabled }

func (f *fakeCatalog) SearchText(ctx context.Context, query string, target domain.SearchTarget, page int, language string) (domain.RecordPage, error) {
	f.record("text:" + textKey(query, target, page))
	if err := f.wait(ctx); err != nil {
		return domain.RecordPage{}, err
	}
	if f.err != nil {
		return domain.RecordPage{}, f.err
	}
	return f.text[textKey(query, target, page)], nil
}

func (f *fakeCatalog) SearchKeywords(ctx context.Context, query string) ([]domain.Keyword, error) {
	f.record("keywords:" + query)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.keywords[query], nil
}

func (f *fakeCatalog) DiscoverByKeywords(ctx context.Context, keywordIDs []int, kind domain.MediaKind, language string) (domain.RecordPage, error) {
	f.record("discover:" + string(kind))
	if err := f.wait(ctx); err != nil {
		return domain.RecordPage{}, err
	}
	if f.err != nil {
		return domain.RecordPage{}, f.err
	}
	records := f.discover[kind]
	return domain.RecordPage{Records: records, Page: 1, TotalResults: len(records), TotalPages: 1}, nil
}

func movieRecords(title string, ids ...int) []domain.RawRecord {
	records := make([]domain.RawRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, domain.RawRecord{ID: id, Title: fmt.Sprintf("%s %d", title, id), ReleaseDate: "2021-09-15"})
	}
	return records
}

func tvRecords(name string, ids ...int) []domain.RawRecord {
	records := make([]domain.RawRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, domain.RawRecord{ID: id, Name: fmt.Sprintf("%s %d", name, id), FirstAirDate: "2019-01-01"})
	}
	return records
}

func idRange(from, to int) []int {
	ids := make([]int, 0, to-from+1)
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return ids
}

func newTestService(provider Provider) *Service {
	return NewService(provider,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithCallTimeout(time.Second),
	)
}

func assertUniqueKeys(t *testing.T, items []domain.SearchableItem) {
	t.Helper()
	seen := make(map[domain.ItemKey]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.Key()]; ok {
			t.Fatalf("duplicate key %s", item.Key())
		}
		seen[item.Key()] = struct{}{}
	}
}

func TestResolveTooShortMakesNoCalls(t *testing.T) {
	for _, query := range []string{"a", "  a  ", "", "   "} {
		catalog := newFakeCatalog()
		answer := newTestService(catalog).Resolve(context.Background(), query, domain.KindFilterAll, "1", "")

		if answer.Provenance != domain.ProvenanceTooShort {
			t.Fatalf("%q: expected tooShort, got %s", query, answer.Provenance)
		}
		if answer.Items == nil || len(answer.Items) != 0 {
			t.Fatalf("%q: expected empty non-nil items, got %+v", query, answer.Items)
		}
		if answer.Suggestions == nil || len(answer.Suggestions) != 0 {
			t.Fatalf("%q: expected empty suggestions, got %+v", query, answer.Suggestions)
		}
		if !answer.UsedFallback {
			t.Fatalf("%q: expected usedFallback", query)
		}
		if calls := catalog.callLog(); len(calls) != 0 {
			t.Fatalf("%q: expected no provider calls, got %v", query, calls)
		}
	}
}

func TestResolveMergesPrimaryFanOutWithoutDuplicates(t *testing.T) {
	catalog := newFakeCatalog()
	combined := []domain.RawRecord{
		{ID: 1, MediaType: "movie", Title: "Dune 1", ReleaseDate: "2021-09-15"},
		{ID: 2, MediaType: "movie", Title: "Dune 2", ReleaseDate: "2021-09-15"},
		{ID: 3, MediaType: "movie", Title: "Dune 3", ReleaseDate: "2021-09-15"},
		{ID: 900, MediaType: "person", Name: "Denis Villeneuve"},
	}
	catalog.onText("dune", domain.SearchTargetMulti, 1, 1, combined)
	catalog.onText("dune", domain.SearchTargetMovie, 1, 1, movieRecords("Dune", idRange(1, 22)...))
	catalog.onText("dune", domain.SearchTargetTV, 1, 1, tvRecords("Dune", idRange(1, 10)...))

	answer := newTestService(catalog).Resolve(context.Background(), "dune", domain.KindFilterAll, "1", "")

	if got, want := len(answer.Items), 25+10-3; got != want {
		t.Fatalf("expected %d items, got %d", want, got)
	}
	assertUniqueKeys(t, answer.Items)
	if answer.Provenance != domain.ProvenancePrimary || answer.UsedFallback {
		t.Fatalf("expected plain primary answer, got %s usedFallback=%v", answer.Provenance, answer.UsedFallback)
	}
	if answer.TotalAvailable < len(answer.Items) {
		t.Fatalf("totalAvailable %d below item count %d", answer.TotalAvailable, len(answer.Items))
	}
	if answer.AppliedQuery != "dune" || answer.NormalizedQuery != "dune" {
		t.Fatalf("unexpected queries %q/%q", answer.NormalizedQuery, answer.AppliedQuery)
	}
	for _, item := range answer.Items {
		if item.ID == 900 {
			t.Fatal("person record leaked into the answer")
		}
	}
	if got := catalog.count("text:"); got != 3 {
		t.Fatalf("expected exactly the 3 primary calls, got %v", catalog.callLog())
	}
}

func TestResolveExpandsThinResultsWithExtraPages(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.onText("arrival", domain.SearchTargetMovie, 1, 3, movieRecords("Arrival", idRange(1, 6)...))
	catalog.onText("arrival", domain.SearchTargetMovie, 2, 3, movieRecords("Arrival", idRange(5, 12)...))
	catalog.onText("arrival", domain.SearchTargetMovie, 3, 3, movieRecords("Arrival", idRange(13, 20)...))

	answer := newTestService(catalog).Resolve(context.Background(), "arrival", domain.KindFilterMovie, "1", "")

	if answer.Provenance != domain.ProvenanceExpanded {
		t.Fatalf("expected expanded, got %s", answer.Provenance)
	}
	if answer.UsedFallback {
		t.Fatal("expansion must not mark the answer as fallback")
	}
	if len(answer.Items) != 20 {
		t.Fatalf("expected 20 merged items, got %d", len(answer.Items))
	}
	assertUniqueKeys(t, answer.Items)
	if catalog.count("keywords:") != 0 {
		t.Fatalf("target met by paging, keyword discovery must not run: %v", catalog.callLog())
	}
	for _, call := range catalog.callLog() {
		if strings.Contains(call, "|tv|") || strings.Contains(call, "|multi|") {
			t.Fatalf("movie filter must only hit the movie endpoint, got %s", call)
		}
	}
	if answer.TotalPages != 3 {
		t.Fatalf("expected totalPages 3, got %d", answer.TotalPages)
	}
}

func TestResolveSkipsExpansionWhenTargetMet(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.onText("loki", domain.SearchTargetTV, 1, 4, tvRecords("Loki", idRange(1, ResultsTarget)...))

	answer := newTestService(catalog).Resolve(context.Background(), "loki", domain.KindFilterTV, "1", "")

	if answer.Provenance != domain.ProvenancePrimary {
		t.Fatalf("expected primary, got %s", answer.Provenance)
	}
	if calls := catalog.callLog(); len(calls) != 1 {
		t.Fatalf("expected a single call, got %v", calls)
	}
}

func TestResolveStopsPagingPastLastPage(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.onText("mandalorian", domain.SearchTargetTV, 1, 1, tvRecords("Mandalorian", 1, 2))

	answer := newTestService(catalog).Resolve(context.Background(), "mandalorian", domain.KindFilterTV, "1", "")

	if answer.Provenance != domain.ProvenancePrimary {
		t.Fatalf("expected primary, got %s", answer.Provenance)
	}
	if got := catalog.count("text:"); got != 1 {
		t.Fatalf("expected no extra page requests, got %v", catalog.callLog())
	}
	if got := catalog.count("keywords:"); got != 1 {
		t.Fatalf("expected keyword expansion attempt, got %v", catalog.callLog())
	}
}

func TestResolveExpansionKeywordDiscoveryAddsSuggestions(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.onText("heist", domain.SearchTargetMovie, 1, 1, movieRecords("Heist", 1, 2))
	catalog.keywords["heist"] = []domain.Keyword{{ID: 10051, Name: "heist"}, {ID: 9748, Name: "bank robbery"}}
	catalog.discover[domain.MediaKindMovie] = movieRecords("Inside Man", 2, 50, 51)

	answer := newTestService(catalog).Resolve(context.Background(), "heist", domain.KindFilterMovie, "1", "")

	if answer.Provenance != domain.ProvenanceExpanded {
		t.Fatalf("expected expanded, got %s", answer.Provenance)
	}
	if len(answer.Items) != 4 {
		t.Fatalf("expected 4 items after discovery merge, got %d", len(answer.Items))
	}
	assertUniqueKeys(t, answer.Items)
	if len(answer.Suggestions) < 2 || answer.Suggestions[0] != "heist" || answer.Suggestions[1] != "bank robbery" {
		t.Fatalf("expected keyword names first in suggestions, got %v", answer.Suggestions)
	}
	if got := catalog.count("discover:tv"); got != 0 {
		t.Fatalf("movie filter must not discover tv, got %v", catalog.callLog())
	}
}

func TestResolveFallsBackToAlternateQuery(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.onText("begins", domain.SearchTargetMovie, 1, 1, []domain.RawRecord{
		{ID: 272, Title: "Batman Begins", ReleaseDate: "2005-06-10"},
	})

	answer := newTestService(catalog).Resolve(context.Background(), "batmen  begins", domain.KindFilterAll, "1", "")

	if answer.Provenance != domain.ProvenanceFallbackQuery {
		t.Fatalf("expected fallbackQuery, got %s", answer.Provenance)
	}
	if !answer.UsedFallback {
		t.Fatal("expected usedFallback")
	}
	if answer.NormalizedQuery != "batmen begins" || answer.AppliedQuery != "begins" {
		t.Fatalf("unexpected queries normalized=%q applied=%q", answer.NormalizedQuery, answer.AppliedQuery)
	}
	if len(answer.Items) != 1 || answer.Items[0].DisplayTitle != "Batman Begins" {
		t.Fatalf("unexpected items %+v", answer.Items)
	}
	if len(answer.Suggestions) == 0 || answer.Suggestions[0] != "begins" {
		t.Fatalf("expected the applied alternate as first suggestion, got %v", answer.Suggestions)
	}
	if got := catalog.count("text:batmen|"); got != 0 {
		t.Fatalf("alternates must stop at first success, got %v", catalog.callLog())
	}
	if got := catalog.count("keywords:"); got != 0 {
		t.Fatalf("keyword tier must not run after an alternate succeeded, got %v", catalog.callLog())
	}
}

func TestResolveFallsBackToKeywordDiscovery(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.keywords["heist thriller"] = []domain.Keyword{{ID: 10051, Name: "heist"}}
	catalog.discover[domain.MediaKindMovie] = movieRecords("Heat", 949)
	catalog.discover[domain.MediaKindTV] = tvRecords("Money Heist", 71446)

	answer := newTestService(catalog).Resolve(context.Background(), "heist thriller", domain.KindFilterAll, "1", "")

	if answer.Provenance != domain.ProvenanceKeywordDiscovery {
		t.Fatalf("expected keywordDiscovery, got %s", answer.Provenance)
	}
	if !answer.UsedFallback || answer.AppliedQuery != "heist thriller" {
		t.Fatalf("unexpected answer %+v", answer)
	}
	if len(answer.Items) != 2 {
		t.Fatalf("expected items from both kinds, got %+v", answer.Items)
	}
	if len(answer.Suggestions) == 0 || answer.Suggestions[0] != "heist" {
		t.Fatalf("expected keyword name suggestion, got %v", answer.Suggestions)
	}
	if got := catalog.count("keywords:heist thriller"); got != 1 {
		t.Fatalf("expected discovery against the original query, got %v", catalog.callLog())
	}
}

func TestResolveFallsBackToLocalCorpus(t *testing.T) {
	catalog := newFakeCatalog()

	answer := newTestService(catalog).Resolve(context.Background(), "xyzzy1987nonsense", domain.KindFilterAll, "1", "")

	if answer.Provenance != domain.ProvenanceLocalFuzzy || !answer.UsedFallback {
		t.Fatalf("expected localFuzzy fallback, got %s usedFallback=%v", answer.Provenance, answer.UsedFallback)
	}
	if len(answer.Items) == 0 {
		t.Fatal("local fallback must never be empty")
	}
	if got := catalog.count("keywords:"); got != 1 {
		t.Fatalf("expected the keyword tier to run before local fallback, got %v", catalog.callLog())
	}
	if answer.TotalPages != 1 || answer.TotalAvailable != len(answer.Items) {
		t.Fatalf("unexpected totals %d/%d", answer.TotalAvailable, answer.TotalPages)
	}
}

func TestResolveDisabledProviderUsesLocalCorpus(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.disabled = true

	answer := newTestService(catalog).Resolve(context.Background(), "brakng bad", domain.KindFilterTV, "1", "")

	if answer.Provenance != domain.ProvenanceLocalFuzzy {
		t.Fatalf("expected localFuzzy, got %s", answer.Provenance)
	}
	if len(answer.Items) == 0 || answer.Items[0].DisplayTitle != "Breaking Bad" {
		t.Fatalf("expected Breaking Bad first, got %+v", answer.Items)
	}
	for _, item := range answer.Items {
		if item.Kind != domain.MediaKindTV {
			t.Fatalf("tv filter returned %s item", item.Kind)
		}
	}
	if calls := catalog.callLog(); len(calls) != 0 {
		t.Fatalf("disabled provider must not be called, got %v", calls)
	}
}

func TestResolveNilProviderUsesLocalCorpus(t *testing.T) {
	answer := NewService(nil, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))).
		Resolve(context.Background(), "the boys", domain.KindFilterAll, "", "")
	if answer.Provenance != domain.ProvenanceLocalFuzzy || len(answer.Items) == 0 {
		t.Fatalf("unexpected answer %+v", answer)
	}
}

func TestResolveAbsorbsProviderErrors(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.err = errors.New("tmdb HTTP 503: upstream unavailable")

	svc := newTestService(catalog)
	answer := svc.Resolve(context.Background(), "dune part two", domain.KindFilterAll, "1", "")

	if answer.Provenance != domain.ProvenanceLocalFuzzy || len(answer.Items) == 0 {
		t.Fatalf("expected non-empty local answer, got %+v", answer)
	}
	if answer.Items[0].DisplayTitle != "Dune: Part Two" {
		t.Fatalf("expected Dune: Part Two first, got %q", answer.Items[0].DisplayTitle)
	}

	var multi domain.EndpointDiagnostics
	for _, diag := range svc.EndpointDiagnostics() {
		if diag.Name == endpointSearchMulti {
			multi = diag
		}
	}
	if multi.TotalFailures == 0 || multi.LastError == "" {
		t.Fatalf("expected multi endpoint failures to be recorded, got %+v", multi)
	}
}

func TestResolveBlockedEndpointIsSkipped(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.err = errors.New("tmdb HTTP 500: boom")
	svc := newTestService(catalog)

	for i := 0; i < endpointFailureThreshold; i++ {
		svc.Resolve(context.Background(), "zzzz", domain.KindFilterAll, "1", "")
	}
	before := catalog.count("text:zzzz|multi|")
	if before != endpointFailureThreshold {
		t.Fatalf("expected %d multi calls, got %d", endpointFailureThreshold, before)
	}

	answer := svc.Resolve(context.Background(), "zzzz", domain.KindFilterAll, "1", "")
	if answer.Provenance != domain.ProvenanceLocalFuzzy {
		t.Fatalf("expected localFuzzy, got %s", answer.Provenance)
	}
	if after := catalog.count("text:zzzz|multi|"); after != before {
		t.Fatalf("blocked endpoint was called again: %d -> %d", before, after)
	}
}

func TestResolveCancelledContextSkipsRemoteTiers(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.onText("dune", domain.SearchTargetMulti, 1, 1, movieRecords("Dune", 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	answer := newTestService(catalog).Resolve(ctx, "dune", domain.KindFilterAll, "1", "")

	if answer.Provenance != domain.ProvenanceLocalFuzzy || len(answer.Items) == 0 {
		t.Fatalf("expected local answer, got %+v", answer)
	}
	if calls := catalog.callLog(); len(calls) != 0 {
		t.Fatalf("cancelled resolution must not call the provider, got %v", calls)
	}
}

func TestResolveAbortsPromptlyOnCancel(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.delay = 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	startedAt := time.Now()
	answer := NewService(catalog,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithCallTimeout(10*time.Second),
	).Resolve(ctx, "slow query", domain.KindFilterAll, "1", "")

	if elapsed := time.Since(startedAt); elapsed > 2*time.Second {
		t.Fatalf("resolution did not abort promptly, took %s", elapsed)
	}
	if answer.Provenance != domain.ProvenanceLocalFuzzy || len(answer.Items) == 0 {
		t.Fatalf("expected local answer after cancel, got %+v", answer)
	}
}

func TestResolveCallTimeoutDegradesToNextTier(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.delay = time.Second

	answer := NewService(catalog,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithCallTimeout(20*time.Millisecond),
	).Resolve(context.Background(), "loki", domain.KindFilterTV, "1", "")

	if answer.Provenance != domain.ProvenanceLocalFuzzy {
		t.Fatalf("expected localFuzzy after timeouts, got %s", answer.Provenance)
	}
}

func TestResolveUsesCustomCorpus(t *testing.T) {
	custom := corpus.New([]domain.SearchableItem{
		{ID: 1, Kind: domain.MediaKindMovie, DisplayTitle: "Solaris"},
	}, nil)
	catalog := newFakeCatalog()
	catalog.disabled = true

	answer := NewService(catalog,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithCorpus(custom),
	).Resolve(context.Background(), "solaris", domain.KindFilterAll, "1", "")
	if len(answer.Items) != 1 || answer.Items[0].DisplayTitle != "Solaris" {
		t.Fatalf("unexpected items %+v", answer.Items)
	}
}

func TestResolveProvenanceFollowsTierOrder(t *testing.T) {
	primary := newFakeCatalog()
	primary.onText("dune", domain.SearchTargetMovie, 1, 1, movieRecords("Dune", idRange(1, ResultsTarget)...))

	alternate := newFakeCatalog()
	alternate.onText("dune", domain.SearchTargetMovie, 1, 1, movieRecords("Dune", 1))

	keyword := newFakeCatalog()
	keyword.keywords["dune sequel"] = []domain.Keyword{{ID: 1, Name: "desert"}}
	keyword.discover[domain.MediaKindMovie] = movieRecords("Lawrence", 7)

	local := newFakeCatalog()

	cases := []struct {
		catalog *fakeCatalog
		want    domain.Provenance
	}{
		{primary, domain.ProvenancePrimary},
		{alternate, domain.ProvenanceFallbackQuery},
		{keyword, domain.ProvenanceKeywordDiscovery},
		{local, domain.ProvenanceLocalFuzzy},
	}
	previous := 0
	for _, tc := range cases {
		query := "dune sequel"
		if tc.want == domain.ProvenancePrimary {
			query = "dune"
		}
		answer := newTestService(tc.catalog).Resolve(context.Background(), query, domain.KindFilterMovie, "1", "")
		if answer.Provenance != tc.want {
			t.Fatalf("expected %s, got %s", tc.want, answer.Provenance)
		}
		if answer.Provenance.Rank() <= previous {
			t.Fatalf("provenance %s does not advance past rank %d", answer.Provenance, previous)
		}
		previous = answer.Provenance.Rank()
		if len(answer.Items) == 0 {
			t.Fatalf("%s answer is empty", answer.Provenance)
		}
		if len(answer.Suggestions) > MaxSuggestions {
			t.Fatalf("too many suggestions: %v", answer.Suggestions)
		}
	}
}

func TestParsePage(t *testing.T) {
	tests := map[string]int{"": 1, "1": 1, "3": 3, " 7 ": 7, "0": 1, "-2": 1, "abc": 1, "500": 500, "9999": MaxPage}
	for raw, want := range tests {
		if got := parsePage(raw); got != want {
			t.Fatalf("parsePage(%q) = %d, want %d", raw, got, want)
		}
	}
}

// pageCappedCatalog rejects pages from rejectFrom on, like TMDB past its
// last page.
type pageCappedCatalog struct {
	*fakeCatalog
	rejectFrom int
}

func (c pageCappedCatalog) SearchText(ctx context.Context, query string, target domain.SearchTarget, page int, language string) (domain.RecordPage, error) {
	if page >= c.rejectFrom {
		c.record("text:" + textKey(query, target, page))
		return domain.RecordPage{}, &tmdb.StatusError{StatusCode: 422, Body: `{"status_message":"Invalid page"}`}
	}
	return c.fakeCatalog.SearchText(ctx, query, target, page, language)
}

func TestRejectedPagesDoNotBlockOtherQueries(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.onText("dune", domain.SearchTargetMulti, 1, 1, movieRecords("Dune", idRange(1, 20)...))
	svc := newTestService(pageCappedCatalog{fakeCatalog: catalog, rejectFrom: 7})

	for i := 0; i < endpointFailureThreshold+1; i++ {
		svc.Resolve(context.Background(), "dune", domain.KindFilterAll, "9", "")
	}

	answer := svc.Resolve(context.Background(), "dune", domain.KindFilterAll, "1", "")
	if answer.Provenance != domain.ProvenancePrimary || len(answer.Items) != 20 {
		t.Fatalf("expected primary answer with 20 items, got %s with %d", answer.Provenance, len(answer.Items))
	}
	for _, diag := range svc.EndpointDiagnostics() {
		if diag.ConsecutiveFailures != 0 || diag.BlockedUntil != nil {
			t.Fatalf("rejected requests must not count as failures: %+v", diag)
		}
	}
}

func TestResolveClampsPageToProviderLimit(t *testing.T) {
	catalog := newFakeCatalog()
	svc := newTestService(pageCappedCatalog{fakeCatalog: catalog, rejectFrom: MaxPage + 1})

	svc.Resolve(context.Background(), "dune", domain.KindFilterAll, "9999", "")
	if catalog.count("text:dune|multi|500") != 1 {
		t.Fatalf("expected page clamped to %d, got calls %v", MaxPage, catalog.callLog())
	}
	if catalog.count("text:dune|multi|501") != 0 || catalog.count("text:dune|movie|501") != 0 {
		t.Fatalf("expansion must not page past %d, got %v", MaxPage, catalog.callLog())
	}
}

func TestCallerDeadlineDoesNotCountAsFailure(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.delay = 200 * time.Millisecond
	svc := newTestService(catalog)

	for i := 0; i < endpointFailureThreshold+1; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		answer := svc.Resolve(ctx, "dune", domain.KindFilterAll, "1", "")
		cancel()
		if answer.Provenance != domain.ProvenanceLocalFuzzy {
			t.Fatalf("expected localFuzzy after caller deadline, got %s", answer.Provenance)
		}
	}
	for _, diag := range svc.EndpointDiagnostics() {
		if diag.ConsecutiveFailures != 0 || diag.BlockedUntil != nil {
			t.Fatalf("caller deadline must not count against %s: %+v", diag.Name, diag)
		}
	}
}
