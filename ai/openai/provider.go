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


package openai

import (
	"log/slog"

	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/ai/clip"
)

// Provider implements ai.AIProvider using OpenAI-compatible services for
// text and the image inference server for images.
// Services disabled in the configuration are reported as nil.
type Provider struct {
	config      *ai.Config
	embedder    *Embedder
	vision      *clip.Client
	translator  *Translator
	categorizer *Categorizer
	logger      *slog.Logger
}

// NewProvider creates a new provider with all services configured.
//
// Returns ai.AIProvider interface to enforce abstraction.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create embedder (using internal constructor for concrete type)
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	vision, err := clip.NewClientFromConfig(config)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		config:   config,
		embedder: embedder,
		vision:   vision,
		logger:   slog.Default().With("component", "openai-provider"),
	}

	if config.Translate {
		if p.translator, err = newTranslator(config); err != nil {
			return nil, err
		}
	}
	if config.Categorize {
		if p.categorizer, err = newCategorizer(config); err != nil {
			return nil, err
		}
	}

	p.logger.Debug("provider ready",
		"embedding_model", config.EmbeddingModel,
		"translate", config.Translate,
		"categorize", config.Categorize,
		"detect", config.Detect)
	return p, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// ImageEmbedder returns the image embedding service.
func (p *Provider) ImageEmbedder() ai.ImageEmbedder {
	return p.vision
}

// Translator returns the translation service, or nil when disabled.
func (p *Provider) Translator() ai.Translator {
	if p.translator == nil {
		return nil
	}
	return p.translator
}

// Categorizer returns the category suggestion service, or nil when disabled.
func (p *Provider) Categorizer() ai.Categorizer {
	if p.categorizer == nil {
		return nil
	}
	return p.categorizer
}

// Detector returns the object detector, or nil when disabled.
func (p *Provider) Detector() ai.Detector {
	if !p.config.Detect {
		return nil
	}
	return p.vision
}

// Close releases resources held by the provider.
// The HTTP-based clients hold no resources that need explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing provider")
	return nil
}
