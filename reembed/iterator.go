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


package reembed

import (
	"context"

	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/storage"
)

// DefaultBatchSize is the default number of items fetched per batch.
const DefaultBatchSize = 50

// ItemIterator pages through the catalog in ascending ID order.
type ItemIterator struct {
	repo      storage.ItemRepository
	batchSize int
}

// NewItemIterator creates a new item iterator.
// A non-positive batchSize falls back to DefaultBatchSize.
func NewItemIterator(repo storage.ItemRepository, batchSize int) *ItemIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ItemIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of items with an ID greater than after.
// Iteration stops on the first error from fn, when ctx ends, or when the
// catalog is exhausted. Only one batch is held in memory at a time.
func (it *ItemIterator) ForEach(ctx context.Context, after core.ID, fn func([]*core.Item) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		items, err := it.repo.ListItemsAfter(ctx, after, it.batchSize)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		if err := fn(items); err != nil {
			return err
		}

		if len(items) < it.batchSize {
			return nil
		}
		after = items[len(items)-1].Id
	}
}
