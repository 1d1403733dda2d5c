package reembed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/search"
	"github.com/poiesic/lostfound/storage"
)

// BatchResult counts what a batch changed.
type BatchResult struct {
	TextEmbedded  int
	ImageEmbedded int
	Skipped       int
}

// add accumulates r into the receiver.
func (b *BatchResult) add(r BatchResult) {
	b.TextEmbedded += r.TextEmbedded
	b.ImageEmbedded += r.ImageEmbedded
	b.Skipped += r.Skipped
}

// BatchProcessor computes embeddings for a batch of items and writes the
// changed items back.
type BatchProcessor struct {
	repo          storage.ItemRepository
	embedder      ai.Embedder
	imageEmbedder ai.ImageEmbedder
	pool          *ants.Pool
	backoff       Backoff
	config        *Config
	logger        *slog.Logger
}

// newBatchProcessor creates a batch processor. The pool is owned by the caller.
func newBatchProcessor(repo storage.ItemRepository, provider ai.AIProvider, pool *ants.Pool, config *Config, logger *slog.Logger) *BatchProcessor {
	return &BatchProcessor{
		repo:          repo,
		embedder:      provider.Embedder(),
		imageEmbedder: provider.ImageEmbedder(),
		pool:          pool,
		backoff: Backoff{
			MaxAttempts: config.MaxRetries,
			BaseDelay:   config.RetryDelay,
			MaxDelay:    config.MaxRetryDelay,
		},
		config: config,
		logger: logger,
	}
}

func (bp *BatchProcessor) needsText(item *core.Item) bool {
	return bp.config.Text && (bp.config.Force || len(item.TextEmbedding) == 0)
}

func (bp *BatchProcessor) needsImage(item *core.Item) bool {
	if !bp.config.Image || item.DisplayImage().Empty() {
		return false
	}
	return bp.config.Force || len(item.ImageEmbedding) == 0
}

// Process embeds whatever the batch is missing and updates the changed
// items in one transaction. Nothing is written if any embedding fails.
func (bp *BatchProcessor) Process(ctx context.Context, items []*core.Item) (BatchResult, error) {
	var textIdx, imageIdx []int
	for i, item := range items {
		if bp.needsText(item) {
			textIdx = append(textIdx, i)
		}
		if bp.needsImage(item) {
			imageIdx = append(imageIdx, i)
		}
	}

	changed := make(map[int]struct{}, len(textIdx)+len(imageIdx))
	for _, i := range textIdx {
		changed[i] = struct{}{}
	}
	for _, i := range imageIdx {
		changed[i] = struct{}{}
	}
	result := BatchResult{Skipped: len(items) - len(changed)}
	if len(changed) == 0 {
		return result, nil
	}

	var (
		wg        sync.WaitGroup
		imageVecs [][]float32
		imageErr  error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		imageVecs, imageErr = bp.embedImages(ctx, items, imageIdx)
	}()
	textVecs, textErr := bp.embedTexts(ctx, items, textIdx)
	wg.Wait()

	if err := errors.Join(textErr, imageErr); err != nil {
		return BatchResult{}, err
	}

	for n, i := range textIdx {
		items[i].TextEmbedding = bp.finish(textVecs[n])
	}
	for n, i := range imageIdx {
		items[i].ImageEmbedding = bp.finish(imageVecs[n])
	}

	toUpdate := make([]*core.Item, 0, len(changed))
	for i, item := range items {
		if _, ok := changed[i]; ok {
			toUpdate = append(toUpdate, item)
		}
	}
	gone, err := bp.write(ctx, toUpdate)
	if err != nil {
		return BatchResult{}, fmt.Errorf("failed to update items: %w", err)
	}

	for _, i := range textIdx {
		if _, deleted := gone[items[i].Id]; !deleted {
			result.TextEmbedded++
		}
	}
	for _, i := range imageIdx {
		if _, deleted := gone[items[i].Id]; !deleted {
			result.ImageEmbedded++
		}
	}
	result.Skipped += len(gone)
	return result, nil
}

// write updates items in one transaction, retried with backoff. Items
// deleted since the page was read are skipped and returned.
func (bp *BatchProcessor) write(ctx context.Context, items []*core.Item) (map[core.ID]struct{}, error) {
	var gone map[core.ID]struct{}
	err := bp.backoff.Do(ctx, bp.logger, func(ctx context.Context) error {
		gone = make(map[core.ID]struct{})
		return bp.repo.WithTransaction(ctx, func(ctx context.Context) error {
			for _, item := range items {
				_, err := bp.repo.UpdateItems(ctx, item)
				if errors.Is(err, storage.ErrNotFound) {
					bp.logger.Debug("item deleted during reembed", "id", uint64(item.Id))
					gone[item.Id] = struct{}{}
					continue
				}
				if err != nil {
					return err
				}
			}
			return nil
		})
	})
	return gone, err
}

func (bp *BatchProcessor) finish(v []float32) []float32 {
	if bp.config.Normalize {
		return NormalizeVector(v)
	}
	return v
}

// embedTexts embeds the normalized titles of the selected items in one call.
func (bp *BatchProcessor) embedTexts(ctx context.Context, items []*core.Item, idx []int) ([][]float32, error) {
	if len(idx) == 0 {
		return nil, nil
	}

	texts := make([]string, len(idx))
	for n, i := range idx {
		texts[n] = search.EmbeddingText(items[i].Title)
	}

	var vecs [][]float32
	err := bp.backoff.Do(ctx, bp.logger, func(ctx context.Context) error {
		var err error
		vecs, err = bp.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(vecs) != len(texts) {
			return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(vecs))
		}
		for _, v := range vecs {
			if len(v) == 0 {
				return ai.ErrEmptyEmbedding
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate text embeddings: %w", err)
	}
	return vecs, nil
}

// embedImages embeds the display images of the selected items on the pool.
func (bp *BatchProcessor) embedImages(ctx context.Context, items []*core.Item, idx []int) ([][]float32, error) {
	if len(idx) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	vecs := make([][]float32, len(idx))
	errs := make([]error, len(idx))
	for n, i := range idx {
		item := items[i]
		wg.Add(1)
		submitErr := bp.pool.Submit(func() {
			defer wg.Done()
			err := bp.backoff.Do(ctx, bp.logger, func(ctx context.Context) error {
				v, err := bp.imageEmbedder.EmbedImage(ctx, item.DisplayImage())
				if err != nil {
					return err
				}
				if len(v) == 0 {
					return ai.ErrEmptyEmbedding
				}
				vecs[n] = v
				return nil
			})
			if err != nil {
				errs[n] = fmt.Errorf("failed to generate image embedding for item %d: %w", item.Id, err)
				cancel()
			}
		})
		if submitErr != nil {
			wg.Done()
			errs[n] = submitErr
			cancel()
		}
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return vecs, nil
}
