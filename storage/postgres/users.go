package postgres

import (
	"context"
	"time"

	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/storage"
)

// UserRepository implements storage.UserRepository on PostgreSQL.
type UserRepository struct {
	store *Store
}

var _ storage.UserRepository = (*UserRepository)(nil)

// Close is a no-op; the Store owns the pool.
func (r *UserRepository) Close() error {
	return nil
}

// WithTransaction delegates to the store.
func (r *UserRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.store.WithTransaction(ctx, fn)
}

// AddUser inserts a user. User IDs are stored bit-for-bit in a BIGINT.
func (r *UserRepository) AddUser(ctx context.Context, user *core.User) (*core.User, error) {
	if user.InsertedAt.IsZero() {
		user.InsertedAt = time.Now().UTC()
	}
	_, err := r.store.db(ctx).Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, admin, inserted_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		int64(user.Id), user.Username, user.Email, user.PasswordHash, user.Admin, user.InsertedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id core.ID) (*core.User, error) {
	var (
		user  core.User
		rawID int64
	)
	err := r.store.db(ctx).QueryRow(ctx,
		`SELECT id, username, email, password_hash, admin, inserted_at FROM users WHERE id = $1`, int64(id)).
		Scan(&rawID, &user.Username, &user.Email, &user.PasswordHash, &user.Admin, &user.InsertedAt)
	if err != nil {
		return nil, translateError(err)
	}
	user.Id = core.ID(rawID)
	return &user, nil
}

// GetUsers retrieves multiple users keyed by ID.
func (r *UserRepository) GetUsers(ctx context.Context, ids ...core.ID) (map[core.ID]*core.User, error) {
	keys := make([]int64, len(ids))
	for i, id := range ids {
		keys[i] = int64(id)
	}
	rows, err := r.store.db(ctx).Query(ctx,
		`SELECT id, username, email, password_hash, admin, inserted_at FROM users WHERE id = ANY($1)`, keys)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	result := make(map[core.ID]*core.User, len(ids))
	for rows.Next() {
		var (
			user  core.User
			rawID int64
		)
		if err := rows.Scan(&rawID, &user.Username, &user.Email, &user.PasswordHash, &user.Admin, &user.InsertedAt); err != nil {
			return nil, err
		}
		user.Id = core.ID(rawID)
		result[user.Id] = &user
	}
	return result, rows.Err()
}
