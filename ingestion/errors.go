package ingestion

import "errors"

var (
	// ErrItemRepositoryRequired is returned when an item repository is not provided.
	ErrItemRepositoryRequired = errors.New("item repository required")

	// ErrUserRepositoryRequired is returned when a user repository is not provided.
	ErrUserRepositoryRequired = errors.New("user repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrUnknownOwner is returned when the uploading user does not exist.
	ErrUnknownOwner = errors.New("unknown owner")

	// ErrMissingImage is returned when an upload has no image.
	ErrMissingImage = errors.New("image required")

	// ErrEmbeddingFailed is returned when either embedding could not be generated.
	ErrEmbeddingFailed = errors.New("embedding failed")
)
