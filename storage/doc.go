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


// Package storage provides the storage abstraction layer for lostfound.
//
// This package defines repository interfaces that decouple storage from the
// search and upload logic. Two backends implement them:
//
//   - storage/badger: embedded BadgerDB, the default
//   - storage/postgres: PostgreSQL with the pgvector extension
//
// # Architecture
//
//   - Repository: transaction support and lifecycle shared by all repositories
//   - ItemRepository: lost and found items with their embeddings
//   - UserRepository: item owners
//   - CheckpointRepository: progress of batch processors such as reembed
//
// Items are always written together with their text and image embeddings in
// one transaction, so readers never observe an item whose embeddings are
// half written.
//
// # Serialization
//
// The badger backend stores records in a compact binary form produced by
// MarshalItem, MarshalUser and MarshalCheckpoint (mus-go primitives). Each
// record starts with a codec version.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	items, users, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer backend.Close()
package storage
