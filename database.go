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


package lostfound

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/ai/openai"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/ingestion"
	"github.com/poiesic/lostfound/reembed"
	"github.com/poiesic/lostfound/search"
	"github.com/poiesic/lostfound/storage"
	"github.com/poiesic/lostfound/storage/badger"
	"github.com/poiesic/lostfound/storage/postgres"
)

// DefaultListLimit is the page size for listings when none is given.
const DefaultListLimit = 50

var (
	// ErrInvalidCredentials indicates an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Database ties the storage backend and the AI provider together and
// exposes the catalog operations.
type Database struct {
	items       storage.ItemRepository
	users       storage.UserRepository
	reports     storage.ReportRepository
	checkpoints storage.CheckpointRepository
	provider    ai.AIProvider
	closers     []func() error
	logger      *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
	logger   *slog.Logger
}

// WithAIConfig sets the configuration for the OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider uses provider instead of building one from the AI config.
// The database closes it on Close.
func WithAIProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps the Badger store in memory. The path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

func applyOptions(opts []DatabaseOption) *databaseOptions {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	return options
}

func (o *databaseOptions) newProvider() (ai.AIProvider, error) {
	if o.provider != nil {
		return o.provider, nil
	}
	return openai.NewProvider(o.aiConfig)
}

// NewDatabase opens (or creates) a Badger database at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := applyOptions(opts)

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	itemRepo, err := badger.NewItemRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	userRepo := badger.NewUserRepository(backend)

	provider, err := options.newProvider()
	if err != nil {
		userRepo.Close()
		itemRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		items:       itemRepo,
		users:       userRepo,
		reports:     badger.NewReportRepository(backend),
		checkpoints: badger.NewCheckpointRepository(backend),
		provider:    provider,
		closers:     []func() error{userRepo.Close, itemRepo.Close, backend.Close},
		logger:      options.logger.With("component", "database"),
	}, nil
}

// NewPostgresDatabase connects to PostgreSQL (with pgvector) at dsn.
func NewPostgresDatabase(ctx context.Context, dsn string, opts ...DatabaseOption) (*Database, error) {
	options := applyOptions(opts)

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}

	provider, err := options.newProvider()
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Database{
		items:       store.Items(),
		users:       store.Users(),
		reports:     store.Reports(),
		checkpoints: store.Checkpoints(),
		provider:    provider,
		closers:     []func() error{store.Close},
		logger:      options.logger.With("component", "database"),
	}, nil
}

// Close closes the AI provider and the storage backend.
func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	for _, closeFn := range db.closers {
		if err := closeFn(); err != nil {
			db.logger.Error("error closing storage", "err", err)
			return err
		}
	}
	return nil
}

func (db *Database) ItemRepository() storage.ItemRepository {
	return db.items
}

func (db *Database) UserRepository() storage.UserRepository {
	return db.users
}

func (db *Database) ReportRepository() storage.ReportRepository {
	return db.reports
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.checkpoints
}

func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

func (db *Database) NewUploadPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.items, db.users, db.provider, opts...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.items, db.users, db.provider, opts...)
}

// NewReembedder creates a resumable reembedder backed by the checkpoint store.
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer, opts ...reembed.Option) (*reembed.Reembedder, error) {
	opts = append([]reembed.Option{reembed.WithCheckpoints(db.checkpoints)}, opts...)
	return reembed.NewReembedder(db.items, db.provider, config, progress, opts...)
}

// ListItemsByType returns up to limit items of the given type, newest first.
// A non-positive limit uses DefaultListLimit.
func (db *Database) ListItemsByType(ctx context.Context, itemType core.ItemType, limit int) ([]*core.Item, error) {
	if err := core.ValidateItemType(itemType); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return db.items.ListItemsByType(ctx, itemType, limit)
}

// GetItem returns the item with the given ID or storage.ErrNotFound.
func (db *Database) GetItem(ctx context.Context, id core.ID) (*core.Item, error) {
	return db.items.GetItem(ctx, id)
}

// DeleteItem removes an item on behalf of requester, who must own it or be
// an admin. Unknown requesters get core.ErrForbidden.
func (db *Database) DeleteItem(ctx context.Context, id core.ID, requester core.ID) error {
	user, err := db.users.GetUser(ctx, requester)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: unknown user %d", core.ErrForbidden, requester)
		}
		return err
	}

	return db.items.WithTransaction(ctx, func(ctx context.Context) error {
		item, err := db.items.GetItem(ctx, id)
		if err != nil {
			return err
		}
		if !user.CanDelete(item) {
			return fmt.Errorf("%w: %s may not delete item %d", core.ErrForbidden, user.Username, id)
		}
		if err := db.items.DeleteItems(ctx, id); err != nil {
			return err
		}
		db.logger.Info("item deleted", "id", id, "by", user.Username)
		return nil
	})
}

// CreateUser registers a new user. Duplicate usernames (case-insensitive)
// return storage.ErrAlreadyExists.
func (db *Database) CreateUser(ctx context.Context, username, email, password string, admin bool) (*core.User, error) {
	user, err := core.NewUser(strings.TrimSpace(username), strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	user.Admin = admin
	if err := core.ValidateUser(user); err != nil {
		return nil, err
	}

	added, err := db.users.AddUser(ctx, user)
	if err != nil {
		return nil, err
	}
	db.logger.Info("user created", "username", added.Username, "admin", added.Admin)
	return added, nil
}

// Authenticate returns the user when password matches.
func (db *Database) Authenticate(ctx context.Context, username, password string) (*core.User, error) {
	user, err := db.users.GetUser(ctx, core.UserIDFor(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := user.CheckPassword(password); err != nil {
		if errors.Is(err, core.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

// ReportItem files a report of itemID by reporter. Owners cannot report
// their own items and each reporter files a given type against an item once;
// repeats return storage.ErrAlreadyExists.
func (db *Database) ReportItem(ctx context.Context, itemID, reporter core.ID, reportType core.ReportType, comment string) (*core.Report, error) {
	user, err := db.users.GetUser(ctx, reporter)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user %d", core.ErrForbidden, reporter)
		}
		return nil, err
	}

	item, err := db.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID == user.Id {
		return nil, fmt.Errorf("%w: %s cannot report their own item %d", core.ErrForbidden, user.Username, itemID)
	}

	report := core.NewReport(item, user.Id, core.ReportType(strings.ToLower(strings.TrimSpace(string(reportType)))), strings.TrimSpace(comment))
	if err := core.ValidateReport(report); err != nil {
		return nil, err
	}
	if item.OwnerID != 0 {
		owners, err := db.users.GetUsers(ctx, item.OwnerID)
		if err != nil {
			return nil, err
		}
		if owner, ok := owners[item.OwnerID]; ok {
			report.ReportedUsername = owner.Username
		}
	}

	added, err := db.reports.AddReport(ctx, report)
	if err != nil {
		return nil, err
	}
	db.logger.Info("item reported", "item", itemID, "type", added.Type, "by", user.Username)
	return added, nil
}

// ListReports returns up to limit reports, newest first. Only admins may
// read reports. A non-positive limit uses DefaultListLimit.
func (db *Database) ListReports(ctx context.Context, requester core.ID, limit int) ([]*core.Report, error) {
	user, err := db.users.GetUser(ctx, requester)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user %d", core.ErrForbidden, requester)
		}
		return nil, err
	}
	if !user.Admin {
		return nil, fmt.Errorf("%w: %s may not read reports", core.ErrForbidden, user.Username)
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return db.reports.ListReports(ctx, limit)
}
