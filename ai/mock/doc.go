// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.ImageEmbedder,
// ai.Translator, ai.Categorizer, ai.Detector and ai.AIProvider for use in
// unit tests. The mocks allow tests to run without a model server and give
// controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embeddings, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockEmbedder := mock.NewMockEmbedder()
//	mockEmbedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on a text hash
//   - MockImageEmbedder: Returns deterministic unit vectors based on the image bytes
//   - MockTranslator: Returns the input unchanged
//   - MockCategorizer: Picks the first known category named in the title
//   - MockDetector: Returns the input image as both crop and boxed image
//   - MockProvider: Aggregates all of the above
package mock
