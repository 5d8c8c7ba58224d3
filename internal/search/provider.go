package search

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"catalogstream/catalogsearch/internal/corpus"
	"catalogstream/catalogsearch/internal/domain"
)

var (
	ErrProviderDisabled = errors.New("catalog provider disabled")
	ErrProviderBlocked  = errors.New("catalog provider endpoint blocked")
)

const (
	defaultCallTimeout    = 8 * time.Second
	defaultResolveTimeout = 20 * time.Second
)

// Provider is the remote catalog. Every call is independently fallible.
type Provider interface {
	Enabled() bool
	SearchText(ctx context.Context, query string, target domain.SearchTarget, page int, language string) (domain.RecordPage, error)
	SearchKeywords(ctx context.Context, query string) ([]domain.Keyword, error)
	DiscoverByKeywords(ctx context.Context, keywordIDs []int, kind domain.MediaKind, language string) (domain.RecordPage, error)
}

// Service resolves free-text queries into ranked catalog answers. A nil
// provider behaves like a disabled one.
type Service struct {
	provider       Provider
	corpus         *corpus.Corpus
	callTimeout    time.Duration
	resolveTimeout time.Duration
	logger         *slog.Logger
	tracer         trace.Tracer
	now            func() time.Time

	healthMu sync.Mutex
	health   map[string]*endpointHealth
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCallTimeout bounds each individual provider call.
func WithCallTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.callTimeout = timeout
		}
	}
}

// WithResolveTimeout bounds a whole resolution when the caller context has
// no deadline of its own.
func WithResolveTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.resolveTimeout = timeout
		}
	}
}

func WithCorpus(c *corpus.Corpus) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.corpus = c
		}
	}
}

func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

func NewService(provider Provider, opts ...ServiceOption) *Service {
	svc := &Service{
		provider:       provider,
		corpus:         corpus.Default(),
		callTimeout:    defaultCallTimeout,
		resolveTimeout: defaultResolveTimeout,
		logger:         slog.Default(),
		tracer:         otel.Tracer("catalogsearch/search"),
		now:            time.Now,
		health:         make(map[string]*endpointHealth),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) providerEnabled() bool {
	return s.provider != nil && s.provider.Enabled()
}
