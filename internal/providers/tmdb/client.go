package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"catalogstream/catalogsearch/internal/domain"
	"catalogstream/catalogsearch/internal/metrics"
)

const (
	defaultBaseURL   = "https://api.themoviedb.org/3"
	defaultCacheTTL  = 5 * time.Minute
	defaultRateLimit = 40
	defaultRateBurst = 20
	maxBodyBytes     = 2 << 20
)

var ErrMissingCredentials = errors.New("tmdb credentials missing: set TMDB_READ_TOKEN or TMDB_API_KEY")

// StatusError is a non-2xx TMDB response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}

// Client issues TMDB search, keyword and discover calls. Responses are cached
// by endpoint and parameters when a Cache is configured.
type Client struct {
	apiKey    string
	readToken string
	baseURL   string
	language  string
	http      *http.Client
	cache     Cache
	cacheTTL  time.Duration
	limiter   *rate.Limiter
}

type Config struct {
	APIKey    string
	ReadToken string
	BaseURL   string
	Language  string
	Client    *http.Client
	Cache     Cache
	CacheTTL  time.Duration
	RateLimit float64
	RateBurst int
}

type keywordResponse struct {
	Results []domain.Keyword `json:"results"`
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = defaultRateLimit
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = defaultRateBurst
	}
	return &Client{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		readToken: strings.TrimSpace(cfg.ReadToken),
		baseURL:   strings.TrimRight(baseURL, "/"),
		language:  strings.TrimSpace(cfg.Language),
		http:      httpClient,
		cache:     cfg.Cache,
		cacheTTL:  cacheTTL,
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (c *Client) Enabled() bool {
	return c.readToken != "" || c.apiKey != ""
}

// SearchText runs a free-text search against /search/{multi,movie,tv}.
func (c *Client) SearchText(ctx context.Context, query string, target domain.SearchTarget, page int, language string) (domain.RecordPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.RecordPage{}, errors.New("query must not be empty")
	}
	if page < 1 {
		page = 1
	}
	path := "/search/multi"
	switch target {
	case domain.SearchTargetMovie:
		path = "/search/movie"
	case domain.SearchTargetTV:
		path = "/search/tv"
	}

	params := url.Values{
		"query":         {query},
		"page":          {strconv.Itoa(page)},
		"include_adult": {"false"},
	}
	c.setLanguage(params, language)

	var payload domain.RecordPage
	if err := c.get(ctx, path, params, &payload); err != nil {
		return domain.RecordPage{}, err
	}
	return payload, nil
}

// SearchKeywords resolves free text to TMDB keyword ids.
func (c *Client) SearchKeywords(ctx context.Context, query string) ([]domain.Keyword, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	var payload keywordResponse
	if err := c.get(ctx, "/search/keyword", url.Values{"query": {query}}, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// DiscoverByKeywords lists the most popular titles of kind tagged with the
// keyword ids.
func (c *Client) DiscoverByKeywords(ctx context.Context, keywordIDs []int, kind domain.MediaKind, language string) (domain.RecordPage, error) {
	if len(keywordIDs) == 0 {
		return domain.RecordPage{}, errors.New("keyword ids must not be empty")
	}
	ids := make([]string, 0, len(keywordIDs))
	for _, id := range keywordIDs {
		ids = append(ids, strconv.Itoa(id))
	}
	path := "/discover/movie"
	if kind == domain.MediaKindTV {
		path = "/discover/tv"
	}

	params := url.Values{
		"with_keywords": {strings.Join(ids, ",")},
		"sort_by":       {"popularity.desc"},
		"page":          {"1"},
		"include_adult": {"false"},
	}
	c.setLanguage(params, language)

	var payload domain.RecordPage
	if err := c.get(ctx, path, params, &payload); err != nil {
		return domain.RecordPage{}, err
	}
	return payload, nil
}

func (c *Client) setLanguage(params url.Values, language string) {
	language = strings.TrimSpace(language)
	if language == "" {
		language = c.language
	}
	if language != "" {
		params.Set("language", language)
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest any) error {
	if !c.Enabled() {
		return ErrMissingCredentials
	}

	cacheKey := path + "?" + params.Encode()
	if c.cache != nil {
		if data, ok := c.cache.Get(ctx, cacheKey); ok {
			if json.Unmarshal(data, dest) == nil {
				metrics.CacheHitsTotal.Inc()
				return nil
			}
		}
		metrics.CacheMissesTotal.Inc()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("tmdb rate limit wait: %w", err)
	}

	query := url.Values{}
	for key, values := range params {
		query[key] = values
	}
	if c.readToken == "" {
		query.Set("api_key", c.apiKey)
	}
	reqURL := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.readToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.readToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read tmdb response: %w", err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}

	if c.cache != nil {
		c.cache.Set(ctx, cacheKey, body, c.cacheTTL)
	}
	return nil
}
