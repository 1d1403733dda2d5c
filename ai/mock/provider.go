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


package mock

import "github.com/poiesic/lostfound/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates one mock per service. A service set to nil is reported as
// disabled, matching the production provider.
type MockProvider struct {
	embedder      *MockEmbedder
	imageEmbedder *MockImageEmbedder
	translator    *MockTranslator
	categorizer   *MockCategorizer
	detector      *MockDetector
	closed        bool
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use the GetMock* methods to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:      NewMockEmbedder(),
		imageEmbedder: NewMockImageEmbedder(),
		translator:    NewMockTranslator(),
		categorizer:   NewMockCategorizer(),
		detector:      NewMockDetector(),
	}
}

// Services groups the mocks handed to NewMockProviderWithServices.
type Services struct {
	Embedder      *MockEmbedder
	ImageEmbedder *MockImageEmbedder
	Translator    *MockTranslator
	Categorizer   *MockCategorizer
	Detector      *MockDetector
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// Embedder and ImageEmbedder default to fresh mocks when nil; the optional
// services stay disabled when nil.
func NewMockProviderWithServices(s Services) ai.AIProvider {
	if s.Embedder == nil {
		s.Embedder = NewMockEmbedder()
	}
	if s.ImageEmbedder == nil {
		s.ImageEmbedder = NewMockImageEmbedder()
	}
	return &MockProvider{
		embedder:      s.Embedder,
		imageEmbedder: s.ImageEmbedder,
		translator:    s.Translator,
		categorizer:   s.Categorizer,
		detector:      s.Detector,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// ImageEmbedder returns the mock image embedder.
func (p *MockProvider) ImageEmbedder() ai.ImageEmbedder {
	return p.imageEmbedder
}

// Translator returns the mock translator, or nil when disabled.
func (p *MockProvider) Translator() ai.Translator {
	if p.translator == nil {
		return nil
	}
	return p.translator
}

// Categorizer returns the mock categorizer, or nil when disabled.
func (p *MockProvider) Categorizer() ai.Categorizer {
	if p.categorizer == nil {
		return nil
	}
	return p.categorizer
}

// Detector returns the mock detector, or nil when disabled.
func (p *MockProvider) Detector() ai.Detector {
	if p.detector == nil {
		return nil
	}
	return p.detector
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockImageEmbedder returns the underlying mock image embedder.
func (p *MockProvider) GetMockImageEmbedder() *MockImageEmbedder {
	return p.imageEmbedder
}

// GetMockTranslator returns the underlying mock translator.
func (p *MockProvider) GetMockTranslator() *MockTranslator {
	return p.translator
}

// GetMockCategorizer returns the underlying mock categorizer.
func (p *MockProvider) GetMockCategorizer() *MockCategorizer {
	return p.categorizer
}

// GetMockDetector returns the underlying mock detector.
func (p *MockProvider) GetMockDetector() *MockDetector {
	return p.detector
}
