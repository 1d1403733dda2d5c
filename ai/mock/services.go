package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/core"
)

// MockTranslator is a test double for ai.Translator.
type MockTranslator struct {
	// TranslateFunc is called by Translate if set.
	// If nil, the input is returned unchanged.
	TranslateFunc func(ctx context.Context, text string) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockTranslator creates a mock translator that echoes its input.
func NewMockTranslator() *MockTranslator {
	return &MockTranslator{}
}

// Translate returns the translation of text.
func (m *MockTranslator) Translate(ctx context.Context, text string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, text)
	}
	return text, nil
}

// CallCount returns the number of times Translate was called.
func (m *MockTranslator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom function.
func (m *MockTranslator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.TranslateFunc = nil
}

// MockCategorizer is a test double for ai.Categorizer.
type MockCategorizer struct {
	// CategorizeFunc is called by Categorize if set.
	CategorizeFunc func(ctx context.Context, title string) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockCategorizer creates a mock categorizer with default keyword matching.
func NewMockCategorizer() *MockCategorizer {
	return &MockCategorizer{}
}

// Categorize returns the first known category mentioned in the title,
// or ai.CategoryOther.
func (m *MockCategorizer) Categorize(ctx context.Context, title string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.CategorizeFunc != nil {
		return m.CategorizeFunc(ctx, title)
	}

	lower := strings.ToLower(title)
	for _, c := range ai.ItemCategories {
		if c != ai.CategoryOther && strings.Contains(lower, c) {
			return c, nil
		}
	}
	return ai.CategoryOther, nil
}

// CallCount returns the number of times Categorize was called.
func (m *MockCategorizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom function.
func (m *MockCategorizer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.CategorizeFunc = nil
}

// MockDetector is a test double for ai.Detector.
type MockDetector struct {
	// DetectFunc is called by Detect if set.
	// If nil, the input is returned as both crop and boxed image.
	DetectFunc func(ctx context.Context, img core.Image) (core.Image, core.Image, error)

	mu        sync.Mutex
	callCount int
}

// NewMockDetector creates a mock detector that detects nothing.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// Detect returns the cropped and boxed renditions of img.
func (m *MockDetector) Detect(ctx context.Context, img core.Image) (core.Image, core.Image, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, img)
	}
	return img, img, nil
}

// CallCount returns the number of times Detect was called.
func (m *MockDetector) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom function.
func (m *MockDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.DetectFunc = nil
}
