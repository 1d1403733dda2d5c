package search

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/storage"
)

const (
	// DefaultEmbedTimeout bounds query embedding, translation included.
	DefaultEmbedTimeout = 30 * time.Second

	// DefaultFetchTimeout bounds candidate retrieval.
	DefaultFetchTimeout = 10 * time.Second
)

// Searcher runs similarity searches over stored items.
// It holds no per-request state and is safe for concurrent use.
type Searcher struct {
	embedder       *QueryEmbedder
	retriever      *CandidateRetriever
	topK           int
	candidateLimit int
	embedTimeout   time.Duration
	fetchTimeout   time.Duration
	monitor        SearchMonitor
	logger         *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithTopK sets the number of results returned when a query does not say.
func WithTopK(k int) Option {
	return func(s *Searcher) error {
		if k <= 0 {
			return errors.New("top k must be positive")
		}
		s.topK = k
		return nil
	}
}

// WithCandidateLimit sets how many recent items are scored per search.
func WithCandidateLimit(n int) Option {
	return func(s *Searcher) error {
		if n <= 0 {
			return errors.New("candidate limit must be positive")
		}
		s.candidateLimit = n
		return nil
	}
}

// WithEmbedTimeout bounds the query embedding step.
func WithEmbedTimeout(d time.Duration) Option {
	return func(s *Searcher) error {
		if d <= 0 {
			return errors.New("embed timeout must be positive")
		}
		s.embedTimeout = d
		return nil
	}
}

// WithFetchTimeout bounds the candidate retrieval step.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Searcher) error {
		if d <= 0 {
			return errors.New("fetch timeout must be positive")
		}
		s.fetchTimeout = d
		return nil
	}
}

// WithMonitor sets the monitor used by Search.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		s.monitor = monitor
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	items storage.ItemRepository,
	users storage.UserRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if items == nil || users == nil {
		return nil, ErrNilRepository
	}
	if provider == nil {
		return nil, ErrNilProvider
	}

	s := &Searcher{
		topK:           DefaultTopK,
		candidateLimit: DefaultCandidateLimit,
		embedTimeout:   DefaultEmbedTimeout,
		fetchTimeout:   DefaultFetchTimeout,
		logger:         slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	base := s.logger
	s.logger = base.With("component", "searcher")

	var err error
	s.embedder, err = NewQueryEmbedder(provider.Embedder(), provider.ImageEmbedder(), provider.Translator(), base)
	if err != nil {
		return nil, err
	}
	s.retriever, err = NewCandidateRetriever(items, users, s.candidateLimit, base)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Search runs q with the configured monitor.
func (s *Searcher) Search(ctx context.Context, q Query) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, q, s.monitor)
}

// SearchText is shorthand for a text query.
func (s *Searcher) SearchText(ctx context.Context, text string, topK int) ([]*core.SearchResult, error) {
	return s.Search(ctx, Query{Text: text, TopK: topK})
}

// SearchImage is shorthand for an image query.
func (s *Searcher) SearchImage(ctx context.Context, src ai.ImageSource, topK int) ([]*core.SearchResult, error) {
	return s.Search(ctx, Query{Image: src, TopK: topK})
}

// SearchWithMonitor runs q, reporting each stage to monitor.
//
// Errors wrap ErrInvalidQuery, ErrEmbeddingUnavailable or
// ErrRetrievalUnavailable. On error no results are returned.
func (s *Searcher) SearchWithMonitor(ctx context.Context, q Query, monitor SearchMonitor) ([]*core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(q)

	topK := q.TopK
	if topK <= 0 {
		topK = s.topK
	}

	// 1. Embed the query
	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	modality, variants, err := s.embedder.Embed(embedCtx, q)
	cancel()
	if err != nil {
		return nil, err
	}
	monitor.OnQueryEmbedded(variants)

	// 2. Load candidates
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	candidates, err := s.retriever.Fetch(fetchCtx)
	cancel()
	if err != nil {
		return nil, err
	}
	monitor.OnCandidatesFetched(candidates)
	if missing := countMissing(modality, candidates); missing > 0 {
		s.logger.Debug("candidates without embedding score 0", "modality", modality, "count", missing)
	}

	// 3. Score and rank
	results := Rank(modality, variants, candidates, topK)
	monitor.OnRanked(results)

	s.logger.Debug("search complete",
		"modality", modality,
		"variants", len(variants),
		"candidates", len(candidates),
		"results", len(results))
	return results, nil
}

func countMissing(modality Modality, candidates []Candidate) int {
	n := 0
	for _, c := range candidates {
		embedding := c.Item.TextEmbedding
		if modality == ModalityImage {
			embedding = c.Item.ImageEmbedding
		}
		if len(embedding) == 0 {
			n++
		}
	}
	return n
}
