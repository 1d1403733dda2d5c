package badger

import (
	"context"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/storage"
)

// ItemRepository implements storage.ItemRepository for BadgerDB.
type ItemRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(backend *Backend) (*ItemRepository, error) {
	idSeq, err := backend.GetSequence(itemIDSeq)
	if err != nil {
		return nil, err
	}

	return &ItemRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ItemRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *ItemRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddItems adds one or more items to storage.
func (r *ItemRepository) AddItems(ctx context.Context, items ...*core.Item) ([]*core.Item, error) {
	err := r.backend.withContextTx(ctx, func(tx *badger.Txn) error {
		for _, item := range items {
			if item.Id == 0 {
				id, err := r.nextID()
				if err != nil {
					return err
				}
				item.Id = id
			} else {
				existing, err := readItem(tx, item.Id)
				if err != nil {
					return err
				}
				if existing != nil {
					return storage.ErrAlreadyExists
				}
			}

			if item.InsertedAt.IsZero() {
				item.InsertedAt = time.Now().UTC()
			}
			item.UpdatedAt = item.InsertedAt

			// Primary record carries both embeddings
			if err := tx.Set(makeItemKey(item.Id), storage.MarshalItem(item)); err != nil {
				return err
			}
			if err := r.setIndices(tx, item); err != nil {
				return err
			}
		}
		return nil
	}, true)

	return items, err
}

// UpdateItems updates existing items.
func (r *ItemRepository) UpdateItems(ctx context.Context, items ...*core.Item) ([]*core.Item, error) {
	err := r.backend.withContextTx(ctx, func(tx *badger.Txn) error {
		for _, item := range items {
			old, err := readItem(tx, item.Id)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			if item.InsertedAt.IsZero() {
				item.InsertedAt = old.InsertedAt
			}
			item.UpdatedAt = time.Now().UTC()

			if err := tx.Set(makeItemKey(item.Id), storage.MarshalItem(item)); err != nil {
				return err
			}

			// Move index entries if type or insertion time changed
			if old.Type != item.Type || !old.InsertedAt.Equal(item.InsertedAt) {
				if err := r.deleteIndices(tx, old); err != nil {
					return err
				}
				if err := r.setIndices(tx, item); err != nil {
					return err
				}
			}
		}
		return nil
	}, true)

	return items, err
}

// DeleteItems removes items by their IDs.
func (r *ItemRepository) DeleteItems(ctx context.Context, ids ...core.ID) error {
	return r.backend.withContextTx(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			item, err := readItem(tx, id)
			if err != nil {
				return err
			}
			if item == nil {
				return storage.ErrNotFound
			}

			if err := r.deleteIndices(tx, item); err != nil {
				return err
			}
			if err := tx.Delete(makeItemKey(id)); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// GetItem retrieves a single item by ID.
func (r *ItemRepository) GetItem(ctx context.Context, id core.ID) (*core.Item, error) {
	var result *core.Item
	err := r.backend.withContextTx(ctx, func(tx *badger.Txn) error {
		var err error
		result, err = readItem(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetItems retrieves multiple items by their IDs.
func (r *ItemRepository) GetItems(ctx context.Context, ids ...core.ID) ([]*core.Item, error) {
	var result []*core.Item
	err := r.backend.withContextTx(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			item, err := readItem(tx, id)
			if err != nil {
				return err
			}
			if item != nil {
				result = append(result, item)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListItems returns up to limit items, most recently inserted first.
func (r *ItemRepository) ListItems(ctx context.Context, limit int) ([]*core.Item, error) {
	return r.listNewest(ctx, []byte(itemDatePrefix), limit)
}

// ListItemsByType returns up to limit items of the given type, newest first.
func (r *ItemRepository) ListItemsByType(ctx context.Context, itemType core.ItemType, limit int) ([]*core.Item, error) {
	if err := core.ValidateItemType(itemType); err != nil {
		return nil, err
	}
	return r.listNewest(ctx, makeItemTypePrefix(itemType), limit)
}

// ListItemsAfter returns up to limit items with ID greater than after, in ID order.
func (r *ItemRepository) ListItemsAfter(ctx context.Context, after core.ID, limit int) ([]*core.Item, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidLimit
	}
	if after == math.MaxUint64 {
		return nil, nil
	}

	var results []*core.Item
	err := r.backend.withContextTx(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(itemPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makeItemKey(after + 1)); iter.Valid() && len(results) < limit; iter.Next() {
			var item *core.Item
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				item, err = storage.UnmarshalItem(val)
				return err
			}); err != nil {
				return err
			}
			results = append(results, item)
		}
		return nil
	}, false)

	return results, err
}

// CountItems returns the number of stored items.
func (r *ItemRepository) CountItems(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.withContextTx(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(itemPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Helper methods

// listNewest walks a date index in reverse and resolves each entry to its item.
func (r *ItemRepository) listNewest(ctx context.Context, prefix []byte, limit int) ([]*core.Item, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidLimit
	}

	var results []*core.Item
	err := r.backend.withContextTx(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(seekLast(prefix)); iter.Valid() && len(results) < limit; iter.Next() {
			// Read the ID from the index
			var itemID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				itemID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			item, err := readItem(tx, itemID)
			if err != nil {
				return err
			}
			if item != nil {
				results = append(results, item)
			}
		}
		return nil
	}, false)

	return results, err
}

func (r *ItemRepository) nextID() (core.ID, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

// setIndices adds the date and type index entries for an item.
func (r *ItemRepository) setIndices(tx *badger.Txn, item *core.Item) error {
	value := storage.MarshalID(item.Id)
	if err := tx.Set(makeItemDateKey(item.InsertedAt, item.Id), value); err != nil {
		return err
	}
	return tx.Set(makeItemTypeKey(item.Type, item.InsertedAt, item.Id), value)
}

// deleteIndices removes the date and type index entries for an item.
func (r *ItemRepository) deleteIndices(tx *badger.Txn, item *core.Item) error {
	if err := tx.Delete(makeItemDateKey(item.InsertedAt, item.Id)); err != nil {
		return err
	}
	return tx.Delete(makeItemTypeKey(item.Type, item.InsertedAt, item.Id))
}

// readItem reads an item from the transaction.
func readItem(tx *badger.Txn, id core.ID) (*core.Item, error) {
	return getValue(tx, makeItemKey(id), storage.UnmarshalItem)
}
