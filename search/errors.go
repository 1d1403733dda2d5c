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


package search

import "errors"

var (
	// ErrInvalidQuery is returned when a query has neither text nor an image,
	// or the image cannot be read.
	ErrInvalidQuery = errors.New("invalid query: provide text or an image")

	// ErrEmbeddingUnavailable is returned when the query cannot be embedded:
	// the model server is down, timed out, answered with a malformed vector,
	// or translation failed.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrRetrievalUnavailable is returned when candidates cannot be loaded from storage.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrNilRepository is returned when an item or user repository is not provided.
	ErrNilRepository = errors.New("repository required")

	// ErrNilProvider is returned when an AI provider is not provided.
	ErrNilProvider = errors.New("AI provider required")

	// ErrNilEmbedder is returned when the provider has no text or image embedder.
	ErrNilEmbedder = errors.New("embedder required")
)
