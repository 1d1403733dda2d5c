package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrItemRepositoryRequired is returned when no item repository is supplied.
	ErrItemRepositoryRequired = errors.New("item repository is required")

	// ErrAIProviderRequired is returned when no AI provider is supplied.
	ErrAIProviderRequired = errors.New("AI provider is required")

	// ErrNothingToEmbed is returned when both modalities are disabled.
	ErrNothingToEmbed = errors.New("at least one of text or image must be enabled")

	// ErrImageEmbedderRequired is returned when image reembedding is enabled
	// but the provider has no image embedder.
	ErrImageEmbedderRequired = errors.New("image embedder is required for image reembedding")
)
