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


// Package search implements text and image similarity search over lost and
// found items.
//
// A search runs in three stages:
//   - QueryEmbedder turns the query into one or more embedding variants. A
//     text query containing Thai script gets a second, machine-translated
//     English variant.
//   - CandidateRetriever fetches a bounded set of recent items together with
//     their stored embeddings and owner names.
//   - Rank scores every candidate by cosine similarity against each variant,
//     rescales text scores by lexical overlap with the item's title, type and
//     category, keeps the best variant, and returns the top K.
//
// Searcher ties the stages together and maps collaborator failures onto
// ErrEmbeddingUnavailable and ErrRetrievalUnavailable. A hard failure never
// produces a partial ranking.
package search
