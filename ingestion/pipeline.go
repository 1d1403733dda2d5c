package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/storage"
)

// DefaultEmbedTimeout bounds the embedding step of a single upload.
const DefaultEmbedTimeout = 60 * time.Second

// Pipeline stores uploaded items together with their embeddings.
// It is safe for concurrent use.
type Pipeline struct {
	itemRepository storage.ItemRepository
	userRepository storage.UserRepository
	pool           *ants.Pool
	processors     []processor
	categorizer    ai.Categorizer
	detector       ai.Detector
	embedTimeout   time.Duration
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU(), with a minimum of 2 so both embeddings of
// one upload can run at once.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 2 {
			size = 2
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithEmbedTimeout bounds the embedding step of each upload.
func WithEmbedTimeout(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d <= 0 {
			return errors.New("embed timeout must be positive")
		}
		p.embedTimeout = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new upload pipeline.
func NewPipeline(
	itemRepository storage.ItemRepository,
	userRepository storage.UserRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if itemRepository == nil {
		return nil, ErrItemRepositoryRequired
	}
	if userRepository == nil {
		return nil, ErrUserRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU()
	if poolSize < 2 {
		poolSize = 2
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		itemRepository: itemRepository,
		userRepository: userRepository,
		pool:           pool,
		categorizer:    provider.Categorizer(),
		detector:       provider.Detector(),
		embedTimeout:   DefaultEmbedTimeout,
		logger:         slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	base := p.logger
	p.logger = base.With("component", "ingestion")

	// Create processors after options are applied (so they get final config)
	textProc, err := newTextEmbeddingProcessor(provider.Embedder(), base)
	if err != nil {
		p.Release()
		return nil, err
	}
	imageProc, err := newImageEmbeddingProcessor(provider.ImageEmbedder(), base)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.processors = []processor{textProc, imageProc}

	return p, nil
}

// UploadRequest describes a new lost or found post.
type UploadRequest struct {
	Title    string
	Type     core.ItemType
	Category string // Optional; suggested from the title when empty
	OwnerID  core.ID
	Image    ai.ImageSource
	// ContentType overrides the MIME type derived from Image when set.
	ContentType string
}

// Upload validates req, prepares the images, computes both embeddings and
// stores the item in one transaction. Nothing is stored on failure.
func (p *Pipeline) Upload(ctx context.Context, req UploadRequest) (*core.Item, error) {
	item, err := p.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	detectObject(ctx, p.detector, item, p.logger)
	suggestCategory(ctx, p.categorizer, item, p.logger)

	if err := p.embed(ctx, item); err != nil {
		return nil, err
	}

	var added []*core.Item
	err = p.itemRepository.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		added, err = p.itemRepository.AddItems(ctx, item)
		return err
	})
	if err != nil {
		p.logger.Error("error storing item", "title", item.Title, "err", err)
		return nil, err
	}

	p.logger.Info("item uploaded",
		"id", added[0].Id,
		"type", added[0].Type,
		"category", added[0].Category,
		"owner", added[0].OwnerID)
	return added[0], nil
}

// prepare validates the request and builds the item with its original image.
func (p *Pipeline) prepare(ctx context.Context, req UploadRequest) (*core.Item, error) {
	if req.Image == nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidItem, ErrMissingImage)
	}
	img, err := req.Image.Resolve()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidItem, err)
	}
	if ct := strings.TrimSpace(req.ContentType); ct != "" {
		img.ContentType = strings.ToLower(ct)
	}

	item := &core.Item{
		Title:    strings.TrimSpace(req.Title),
		Type:     core.ItemType(strings.ToLower(string(req.Type))),
		Category: strings.TrimSpace(req.Category),
		OwnerID:  req.OwnerID,
		Original: img,
	}
	if err := core.ValidateItem(item); err != nil {
		return nil, err
	}

	if _, err := p.userRepository.GetUser(ctx, req.OwnerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrUnknownOwner, req.OwnerID)
		}
		return nil, err
	}
	return item, nil
}

// embed runs every processor on the pool and waits for all of them.
// A failure cancels the remaining processors; all failures are joined.
func (p *Pipeline) embed(ctx context.Context, item *core.Item) error {
	ctx, cancel := context.WithTimeout(ctx, p.embedTimeout)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, len(p.processors))
	for i, proc := range p.processors {
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			if err := proc.process(ctx, item); err != nil {
				errs[i] = fmt.Errorf("%w: %s: %w", ErrEmbeddingFailed, proc.name(), err)
				cancel()
			}
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
			cancel()
		}
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
