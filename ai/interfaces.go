package ai

import (
	"context"

	"github.com/poiesic/lostfound/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ImageEmbedder generates vector embeddings from images, in the same vector
// space as the text embeddings of the same model family.
// Implementations must be thread-safe for concurrent use.
type ImageEmbedder interface {
	// EmbedImage generates a vector embedding for an encoded image.
	EmbedImage(ctx context.Context, img core.Image) ([]float32, error)
}

// Translator machine-translates text into the embedding model's primary language.
// Implementations must be thread-safe for concurrent use.
type Translator interface {
	// Translate returns the English rendering of text with trailing
	// punctuation removed.
	Translate(ctx context.Context, text string) (string, error)
}

// Categorizer suggests an item category from its title.
// Implementations must be thread-safe for concurrent use.
type Categorizer interface {
	// Categorize returns one of ItemCategories.
	// Returns CategoryOther when the model's answer is not a known category.
	Categorize(ctx context.Context, title string) (string, error)
}

// Detector locates the main object in an uploaded photo.
// Implementations must be thread-safe for concurrent use.
type Detector interface {
	// Detect returns the image cropped to the detected object and the
	// original annotated with detection boxes. When nothing is detected
	// both results are the input image.
	Detect(ctx context.Context, img core.Image) (cropped core.Image, boxed core.Image, err error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages every model-backed service, ensuring they
// share configuration and resources appropriately. It is constructed once at
// startup and injected into the searcher and the upload pipeline.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// ImageEmbedder returns the image embedding service.
	ImageEmbedder() ImageEmbedder

	// Translator returns the translation service, or nil when translation is disabled.
	Translator() Translator

	// Categorizer returns the category suggestion service, or nil when disabled.
	Categorizer() Categorizer

	// Detector returns the object detector, or nil when detection is disabled.
	Detector() Detector

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
