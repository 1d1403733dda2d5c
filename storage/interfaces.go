package storage

import (
	"context"

	"github.com/poiesic/lostfound/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// Repository calls made with the context passed to fn join the transaction.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// ItemRepository provides operations for managing lost and found items.
type ItemRepository interface {
	Repository
	// AddItems adds one or more items to storage.
	// For items with ID=0, generates new IDs from sequence.
	// Sets InsertedAt timestamp if not already set.
	// The item and both of its embeddings are written in the same transaction.
	// Returns the items with generated IDs and timestamps populated.
	AddItems(ctx context.Context, items ...*core.Item) ([]*core.Item, error)

	// UpdateItems updates existing items.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any item doesn't exist.
	UpdateItems(ctx context.Context, items ...*core.Item) ([]*core.Item, error)

	// DeleteItems removes items by their IDs, along with their indices.
	// Returns ErrNotFound if any item doesn't exist.
	DeleteItems(ctx context.Context, ids ...core.ID) error

	// GetItem retrieves a single item by ID.
	// Returns ErrNotFound if the item doesn't exist.
	GetItem(ctx context.Context, id core.ID) (*core.Item, error)

	// GetItems retrieves multiple items by their IDs.
	// Returns only the items that exist (no error for missing items).
	GetItems(ctx context.Context, ids ...core.ID) ([]*core.Item, error)

	// ListItems returns up to limit items, most recently inserted first.
	// This is the candidate fetch used by search.
	ListItems(ctx context.Context, limit int) ([]*core.Item, error)

	// ListItemsByType returns up to limit items of the given type, newest first.
	ListItemsByType(ctx context.Context, itemType core.ItemType, limit int) ([]*core.Item, error)

	// ListItemsAfter returns up to limit items with ID greater than after,
	// in ascending ID order. Used to walk the whole catalog in batches.
	ListItemsAfter(ctx context.Context, after core.ID, limit int) ([]*core.Item, error)

	// CountItems returns the number of stored items.
	CountItems(ctx context.Context) (int, error)
}

// UserRepository provides operations for managing users.
type UserRepository interface {
	Repository
	// AddUser stores a new user.
	// Returns ErrAlreadyExists if a user with the same ID exists.
	AddUser(ctx context.Context, user *core.User) (*core.User, error)

	// GetUser retrieves a user by ID.
	// Returns ErrNotFound if the user doesn't exist.
	GetUser(ctx context.Context, id core.ID) (*core.User, error)

	// GetUsers retrieves multiple users keyed by ID.
	// Missing users are absent from the map.
	GetUsers(ctx context.Context, ids ...core.ID) (map[core.ID]*core.User, error)
}

// ReportRepository stores item reports.
type ReportRepository interface {
	Repository
	// AddReport stores a new report.
	// Returns ErrAlreadyExists if a report with the same ID exists.
	AddReport(ctx context.Context, report *core.Report) (*core.Report, error)

	// GetReport retrieves a report by ID.
	// Returns ErrNotFound if the report doesn't exist.
	GetReport(ctx context.Context, id core.ID) (*core.Report, error)

	// ListReports returns up to limit reports, newest first.
	ListReports(ctx context.Context, limit int) ([]*core.Report, error)
}

// CheckpointRepository persists batch processor progress.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint for a processor type.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes the checkpoint for a processor type.
	DeleteCheckpoint(ctx context.Context, processorType string) error
}
