package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/storage"
)

// UserRepository implements storage.UserRepository for BadgerDB.
type UserRepository struct {
	backend *Backend
}

var _ storage.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository.
func NewUserRepository(backend *Backend) *UserRepository {
	return &UserRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend owns the database handle.
func (r *UserRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *UserRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddUser stores a new user. A concurrent insert of the same ID loses the
// commit race with badger.ErrConflict, reported as storage.ErrAlreadyExists.
func (r *UserRepository) AddUser(ctx context.Context, user *core.User) (*core.User, error) {
	err := r.backend.withContextTx(ctx, func(tx *badger.Txn) error {
		key := makeUserKey(user.Id)
		existing, err := getValue(tx, key, storage.UnmarshalUser)
		if err != nil {
			return err
		}
		if existing != nil {
			return storage.ErrAlreadyExists
		}
		if user.InsertedAt.IsZero() {
			user.InsertedAt = time.Now().UTC()
		}
		return tx.Set(key, storage.MarshalUser(user))
	}, true)
	if errors.Is(err, badger.ErrConflict) {
		return nil, storage.ErrAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id core.ID) (*core.User, error) {
	var result *core.User
	err := r.backend.withContextTx(ctx, func(tx *badger.Txn) error {
		var err error
		result, err = getValue(tx, makeUserKey(id), storage.UnmarshalUser)
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

// GetUsers retrieves multiple users keyed by ID.
func (r *UserRepository) GetUsers(ctx context.Context, ids ...core.ID) (map[core.ID]*core.User, error) {
	result := make(map[core.ID]*core.User, len(ids))
	err := r.backend.withContextTx(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			if _, seen := result[id]; seen {
				continue
			}
			user, err := getValue(tx, makeUserKey(id), storage.UnmarshalUser)
			if err != nil {
				return err
			}
			if user != nil {
				result[id] = user
			}
		}
		return nil
	}, false)
	return result, err
}
