package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/storage"
)

const itemColumns = `id, title, item_type, category, owner_id,
	cropped, cropped_type, boxed, boxed_type, original, original_type,
	text_embedding, image_embedding, inserted_at, updated_at`

// ItemRepository implements storage.ItemRepository on PostgreSQL.
type ItemRepository struct {
	store *Store
}

var _ storage.ItemRepository = (*ItemRepository)(nil)

// Close is a no-op; the Store owns the pool.
func (r *ItemRepository) Close() error {
	return nil
}

// WithTransaction delegates to the store.
func (r *ItemRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.store.WithTransaction(ctx, fn)
}

// AddItems inserts items, assigning IDs from the table sequence when Id is 0.
func (r *ItemRepository) AddItems(ctx context.Context, items ...*core.Item) ([]*core.Item, error) {
	err := r.store.WithTransaction(ctx, func(ctx context.Context) error {
		db := r.store.db(ctx)
		for _, item := range items {
			if item.InsertedAt.IsZero() {
				item.InsertedAt = time.Now().UTC()
			}
			item.UpdatedAt = item.InsertedAt

			args := []any{
				item.Title, string(item.Type), item.Category, int64(item.OwnerID),
				item.Cropped.Data, item.Cropped.ContentType,
				item.Boxed.Data, item.Boxed.ContentType,
				item.Original.Data, item.Original.ContentType,
				toVector(item.TextEmbedding), toVector(item.ImageEmbedding),
				item.InsertedAt, item.UpdatedAt,
			}

			var id int64
			var err error
			if item.Id == 0 {
				err = db.QueryRow(ctx, `INSERT INTO items (title, item_type, category, owner_id,
					cropped, cropped_type, boxed, boxed_type, original, original_type,
					text_embedding, image_embedding, inserted_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
					RETURNING id`, args...).Scan(&id)
			} else {
				err = db.QueryRow(ctx, `INSERT INTO items (title, item_type, category, owner_id,
					cropped, cropped_type, boxed, boxed_type, original, original_type,
					text_embedding, image_embedding, inserted_at, updated_at, id)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
					RETURNING id`, append(args, int64(item.Id))...).Scan(&id)
			}
			if err != nil {
				return translateError(err)
			}
			item.Id = core.ID(id)
		}
		return nil
	})
	return items, err
}

// UpdateItems rewrites existing items.
func (r *ItemRepository) UpdateItems(ctx context.Context, items ...*core.Item) ([]*core.Item, error) {
	err := r.store.WithTransaction(ctx, func(ctx context.Context) error {
		db := r.store.db(ctx)
		for _, item := range items {
			item.UpdatedAt = time.Now().UTC()
			tag, err := db.Exec(ctx, `UPDATE items SET title = $2, item_type = $3, category = $4, owner_id = $5,
				cropped = $6, cropped_type = $7, boxed = $8, boxed_type = $9, original = $10, original_type = $11,
				text_embedding = $12, image_embedding = $13, updated_at = $14,
				inserted_at = COALESCE($15, inserted_at)
				WHERE id = $1`,
				int64(item.Id), item.Title, string(item.Type), item.Category, int64(item.OwnerID),
				item.Cropped.Data, item.Cropped.ContentType,
				item.Boxed.Data, item.Boxed.ContentType,
				item.Original.Data, item.Original.ContentType,
				toVector(item.TextEmbedding), toVector(item.ImageEmbedding),
				item.UpdatedAt, nullTime(item.InsertedAt),
			)
			if err != nil {
				return translateError(err)
			}
			if tag.RowsAffected() == 0 {
				return storage.ErrNotFound
			}
		}
		return nil
	})
	return items, err
}

// DeleteItems removes items by ID.
func (r *ItemRepository) DeleteItems(ctx context.Context, ids ...core.ID) error {
	return r.store.WithTransaction(ctx, func(ctx context.Context) error {
		db := r.store.db(ctx)
		for _, id := range ids {
			tag, err := db.Exec(ctx, `DELETE FROM items WHERE id = $1`, int64(id))
			if err != nil {
				return translateError(err)
			}
			if tag.RowsAffected() == 0 {
				return storage.ErrNotFound
			}
		}
		return nil
	})
}

// GetItem retrieves a single item by ID.
func (r *ItemRepository) GetItem(ctx context.Context, id core.ID) (*core.Item, error) {
	row := r.store.db(ctx).QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, int64(id))
	item, err := scanItem(row)
	if err != nil {
		return nil, translateError(err)
	}
	return item, nil
}

// GetItems retrieves the items that exist among ids, in the order given.
func (r *ItemRepository) GetItems(ctx context.Context, ids ...core.ID) ([]*core.Item, error) {
	keys := make([]int64, len(ids))
	for i, id := range ids {
		keys[i] = int64(id)
	}
	rows, err := r.store.db(ctx).Query(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ANY($1)`, keys)
	if err != nil {
		return nil, translateError(err)
	}
	found, err := collectItems(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[core.ID]*core.Item, len(found))
	for _, item := range found {
		byID[item.Id] = item
	}
	var result []*core.Item
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			result = append(result, item)
		}
	}
	return result, nil
}

// ListItems returns up to limit items, newest first.
func (r *ItemRepository) ListItems(ctx context.Context, limit int) ([]*core.Item, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidLimit
	}
	rows, err := r.store.db(ctx).Query(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY inserted_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, translateError(err)
	}
	return collectItems(rows)
}

// ListItemsByType returns up to limit items of one type, newest first.
func (r *ItemRepository) ListItemsByType(ctx context.Context, itemType core.ItemType, limit int) ([]*core.Item, error) {
	if err := core.ValidateItemType(itemType); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, storage.ErrInvalidLimit
	}
	rows, err := r.store.db(ctx).Query(ctx,
		`SELECT `+itemColumns+` FROM items WHERE item_type = $1 ORDER BY inserted_at DESC, id DESC LIMIT $2`,
		string(itemType), limit)
	if err != nil {
		return nil, translateError(err)
	}
	return collectItems(rows)
}

// ListItemsAfter returns up to limit items with ID greater than after, in ID order.
func (r *ItemRepository) ListItemsAfter(ctx context.Context, after core.ID, limit int) ([]*core.Item, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidLimit
	}
	rows, err := r.store.db(ctx).Query(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id > $1 ORDER BY id LIMIT $2`, int64(after), limit)
	if err != nil {
		return nil, translateError(err)
	}
	return collectItems(rows)
}

// CountItems returns the number of stored items.
func (r *ItemRepository) CountItems(ctx context.Context) (int, error) {
	var count int
	err := r.store.db(ctx).QueryRow(ctx, `SELECT count(*) FROM items`).Scan(&count)
	return count, translateError(err)
}

func collectItems(rows pgx.Rows) ([]*core.Item, error) {
	defer rows.Close()
	var items []*core.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(row pgx.Row) (*core.Item, error) {
	var (
		item              core.Item
		id, owner         int64
		itemType          string
		textVec, imageVec *pgvector.Vector
	)
	err := row.Scan(
		&id, &item.Title, &itemType, &item.Category, &owner,
		&item.Cropped.Data, &item.Cropped.ContentType,
		&item.Boxed.Data, &item.Boxed.ContentType,
		&item.Original.Data, &item.Original.ContentType,
		&textVec, &imageVec, &item.InsertedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Id = core.ID(id)
	item.OwnerID = core.ID(owner)
	item.Type = core.ItemType(itemType)
	item.TextEmbedding = fromVector(textVec)
	item.ImageEmbedding = fromVector(imageVec)
	return &item, nil
}

// toVector returns nil for an absent embedding so the column stays NULL.
func toVector(v []float32) *pgvector.Vector {
	if len(v) == 0 {
		return nil
	}
	vec := pgvector.NewVector(v)
	return &vec
}

func fromVector(v *pgvector.Vector) []float32 {
	if v == nil {
		return nil
	}
	return v.Slice()
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
