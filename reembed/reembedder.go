// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/storage"
)

// CheckpointName identifies reembed progress in the checkpoint repository.
const CheckpointName = "reembed"

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of items to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of items)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// MaxRetryDelay caps a single backoff wait; zero means no cap
	MaxRetryDelay time.Duration

	// Workers is the number of concurrent image embedding calls
	Workers int

	// Text and Image select which embeddings are computed
	Text  bool
	Image bool

	// Force recomputes embeddings that are already present
	Force bool

	// Normalize scales new vectors to unit length before storing them
	Normalize bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: DefaultBatchSize,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		MaxRetryDelay:  30 * time.Second,
		Workers:        4,
		Text:           true,
		Image:          true,
	}
}

// Stats summarizes a completed run.
type Stats struct {
	Total   int
	Scanned int
	BatchResult
	Elapsed time.Duration
}

// Reembedder orchestrates the reembedding of all items in a database.
type Reembedder struct {
	repo        storage.ItemRepository
	checkpoints storage.CheckpointRepository
	config      *Config
	progress    io.Writer
	pool        *ants.Pool
	processor   *BatchProcessor
	iterator    *ItemIterator
	logger      *slog.Logger
}

// Option configures a Reembedder.
type Option func(*Reembedder)

// WithCheckpoints enables resumable runs backed by repo.
func WithCheckpoints(repo storage.CheckpointRepository) Option {
	return func(r *Reembedder) {
		r.checkpoints = repo
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reembedder) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.ItemRepository, provider ai.AIProvider, config *Config, progress io.Writer, opts ...Option) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrItemRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if !config.Text && !config.Image {
		return nil, ErrNothingToEmbed
	}
	if config.Image && provider.ImageEmbedder() == nil {
		return nil, ErrImageEmbedderRequired
	}
	if progress == nil {
		progress = io.Discard
	}

	workers := config.Workers
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}

	r := &Reembedder{
		repo:     repo,
		config:   config,
		progress: progress,
		pool:     pool,
		iterator: NewItemIterator(repo, config.BatchSize),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "reembed")
	r.processor = newBatchProcessor(repo, provider, pool, config, r.logger)

	return r, nil
}

// Release releases the worker pool.
func (r *Reembedder) Release() {
	r.pool.Release()
}

// Run reembeds the catalog and reports progress to the configured writer.
// With checkpoints enabled, a previous interrupted run is resumed and the
// checkpoint is removed once the catalog is exhausted.
func (r *Reembedder) Run(ctx context.Context) (*Stats, error) {
	total, err := r.repo.CountItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	stats := &Stats{Total: total}
	if total == 0 {
		fmt.Fprintf(r.progress, "No items found in database (0 items)\n")
		return stats, nil
	}

	checkpoint, err := r.loadCheckpoint(ctx)
	if err != nil {
		return nil, err
	}
	if checkpoint.LastID != 0 {
		fmt.Fprintf(r.progress, "Resuming after item %d (%d already processed)\n",
			checkpoint.LastID, checkpoint.Processed)
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d items (batch size: %d)\n",
		total, r.iterator.batchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start(int(checkpoint.Processed))

	err = r.iterator.ForEach(ctx, checkpoint.LastID, func(items []*core.Item) error {
		result, err := r.processor.Process(ctx, items)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		stats.Scanned += len(items)
		stats.add(result)
		tracker.Increment(len(items))

		checkpoint.LastID = items[len(items)-1].Id
		checkpoint.Processed += int64(len(items))
		return r.saveCheckpoint(ctx, checkpoint)
	})
	if err != nil {
		fmt.Fprintln(r.progress)
		r.logger.Error("reembedding stopped", "scanned", stats.Scanned, "err", err)
		return stats, err
	}

	tracker.Finish()
	if err := r.clearCheckpoint(ctx); err != nil {
		return stats, err
	}

	stats.Elapsed = tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Scanned %d items in %v (text: %d, image: %d, skipped: %d)\n",
		stats.Scanned, stats.Elapsed.Round(time.Millisecond),
		stats.TextEmbedded, stats.ImageEmbedded, stats.Skipped)
	r.logger.Info("reembedding complete",
		"scanned", stats.Scanned,
		"text", stats.TextEmbedded,
		"image", stats.ImageEmbedded,
		"skipped", stats.Skipped)

	return stats, nil
}

func (r *Reembedder) loadCheckpoint(ctx context.Context) (*core.Checkpoint, error) {
	if r.checkpoints == nil {
		return &core.Checkpoint{ProcessorType: CheckpointName}, nil
	}
	cp, err := r.checkpoints.LoadCheckpoint(ctx, CheckpointName)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if cp == nil {
		cp = &core.Checkpoint{ProcessorType: CheckpointName}
	}
	return cp, nil
}

func (r *Reembedder) saveCheckpoint(ctx context.Context, cp *core.Checkpoint) error {
	if r.checkpoints == nil {
		return nil
	}
	cp.UpdatedAt = time.Now().UTC()
	if err := r.checkpoints.SaveCheckpoint(ctx, cp); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func (r *Reembedder) clearCheckpoint(ctx context.Context) error {
	if r.checkpoints == nil {
		return nil
	}
	if err := r.checkpoints.DeleteCheckpoint(ctx, CheckpointName); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}
