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


// Package ai provides abstractions for the model-backed services used by lostfound.
//
// This package defines interfaces for text and image embeddings, query
// translation, category suggestion and object detection. The searcher and
// the upload pipeline depend on these abstractions rather than on a concrete
// model server.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - ImageEmbedder: Generates vector embeddings from images in the same space
//   - Translator: Renders non-English queries in English
//   - Categorizer: Suggests an item category from its title
//   - Detector: Crops an uploaded photo to the main object
//   - AIProvider: Aggregates the services for convenient initialization
//
// Images enter the system through ImageSource, which is either an ImagePath
// or ImageBytes and is resolved once into a core.Image.
//
// # Implementation Packages
//
//   - ai/openai: Embeddings, translation and categorization over OpenAI-compatible APIs
//   - ai/clip: Client for the image inference server (image embeddings, detection)
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types. Test utility constructors (mock.NewMockEmbedder and
// friends) return CONCRETE types so tests can inject behavior and check call
// counts.
//
//	mockEmbed := mock.NewMockEmbedder()  // returns *mock.MockEmbedder
//	mockEmbed.EmbedTextFunc = ...        // needs concrete type
//	count := mockEmbed.CallCount()       // test assertion
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "black leather wallet")
//	img, err := ai.ImagePath("wallet.jpg").Resolve()
//	vec, err = provider.ImageEmbedder().EmbedImage(ctx, img)
package ai
