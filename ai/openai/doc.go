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


// Package openai provides AI service implementations using OpenAI-compatible APIs.
//
// Text embeddings, query translation and category suggestions are served by
// OpenAI or an OpenAI-compatible server (Ollama, LocalAI, vLLM) through the
// langchaingo library. Image embeddings and object detection come from the
// image inference server in package ai/clip; the Provider wires both
// together so callers get a single ai.AIProvider.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"),  // /v1 added automatically
//	    ai.WithEmbeddingModel("clip-vit-b-32"),
//	    ai.WithVisionHost("http://localhost:8001"),
//	)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "black wallet")
//	english, err := provider.Translator().Translate(ctx, "กระเป๋าสตางค์สีดำ")
package openai
