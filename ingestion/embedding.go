package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/search"
)

// textEmbeddingProcessor embeds the item's normalized title.
type textEmbeddingProcessor struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ processor = (*textEmbeddingProcessor)(nil)

// newTextEmbeddingProcessor creates a new text embedding processor.
func newTextEmbeddingProcessor(embedder ai.Embedder, logger *slog.Logger) (processor, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &textEmbeddingProcessor{
		embedder: embedder,
		logger:   logger.With("processor", "text-embedding"),
	}, nil
}

func (tp *textEmbeddingProcessor) name() string { return "text-embedding" }

// process embeds the title the same way search normalizes queries, so
// queries and items share one text form.
func (tp *textEmbeddingProcessor) process(ctx context.Context, item *core.Item) error {
	text := search.EmbeddingText(item.Title)

	tp.logger.Debug("generating text embedding", "length", len(text))
	vector, err := tp.embedder.EmbedText(ctx, text)
	if err != nil {
		tp.logger.Error("error generating text embedding", "err", err)
		return err
	}
	if len(vector) == 0 {
		return ai.ErrEmptyEmbedding
	}

	item.TextEmbedding = vector
	return nil
}

// imageEmbeddingProcessor embeds the item's display image.
type imageEmbeddingProcessor struct {
	embedder ai.ImageEmbedder
	logger   *slog.Logger
}

var _ processor = (*imageEmbeddingProcessor)(nil)

// newImageEmbeddingProcessor creates a new image embedding processor.
func newImageEmbeddingProcessor(embedder ai.ImageEmbedder, logger *slog.Logger) (processor, error) {
	if embedder == nil {
		return nil, fmt.Errorf("image embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &imageEmbeddingProcessor{
		embedder: embedder,
		logger:   logger.With("processor", "image-embedding"),
	}, nil
}

func (ip *imageEmbeddingProcessor) name() string { return "image-embedding" }

// process embeds the cropped image, falling back to the original.
func (ip *imageEmbeddingProcessor) process(ctx context.Context, item *core.Item) error {
	img := item.DisplayImage()

	ip.logger.Debug("generating image embedding", "bytes", len(img.Data))
	vector, err := ip.embedder.EmbedImage(ctx, img)
	if err != nil {
		ip.logger.Error("error generating image embedding", "err", err)
		return err
	}
	if len(vector) == 0 {
		return ai.ErrEmptyEmbedding
	}

	item.ImageEmbedding = vector
	return nil
}
