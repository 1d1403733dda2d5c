package ai

import "errors"

var (
	// ErrEmptyImage indicates an image source with no bytes.
	ErrEmptyImage = errors.New("image is empty")

	// ErrEmptyEmbedding indicates a model returned no vector.
	ErrEmptyEmbedding = errors.New("model returned an empty embedding")

	// ErrMalformedResponse indicates a model answer that could not be parsed.
	ErrMalformedResponse = errors.New("malformed model response")
)
