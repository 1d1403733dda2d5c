// Package postgres implements the storage repositories on PostgreSQL with
// the pgvector extension. Embeddings live in nullable vector columns next to
// the item row, so an item and its embeddings are always written by the same
// statement.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/poiesic/lostfound/storage"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS users (
	id            BIGINT PRIMARY KEY,
	username      TEXT NOT NULL,
	email         TEXT NOT NULL,
	password_hash BYTEA NOT NULL,
	admin         BOOLEAN NOT NULL DEFAULT false,
	inserted_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
	id              BIGSERIAL PRIMARY KEY,
	title           TEXT NOT NULL,
	item_type       TEXT NOT NULL,
	category        TEXT NOT NULL DEFAULT '',
	owner_id        BIGINT NOT NULL DEFAULT 0,
	cropped         BYTEA,
	cropped_type    TEXT NOT NULL DEFAULT '',
	boxed           BYTEA,
	boxed_type      TEXT NOT NULL DEFAULT '',
	original        BYTEA,
	original_type   TEXT NOT NULL DEFAULT '',
	text_embedding  vector,
	image_embedding vector,
	inserted_at     TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS items_inserted_idx ON items (inserted_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS items_type_inserted_idx ON items (item_type, inserted_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS reports (
	id                BIGINT PRIMARY KEY,
	item_id           BIGINT NOT NULL,
	reporter_id       BIGINT NOT NULL,
	reported_user_id  BIGINT NOT NULL DEFAULT 0,
	report_type       TEXT NOT NULL,
	comment           TEXT NOT NULL DEFAULT '',
	reported_username TEXT NOT NULL DEFAULT '',
	item_title        TEXT NOT NULL DEFAULT '',
	inserted_at       TIMESTAMPTZ NOT NULL,
	UNIQUE (reporter_id, item_id, report_type)
);

CREATE INDEX IF NOT EXISTS reports_inserted_idx ON reports (inserted_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS checkpoints (
	processor_type TEXT PRIMARY KEY,
	last_id        BIGINT NOT NULL,
	processed      BIGINT NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);
`

// uniqueViolation is the SQLSTATE for duplicate keys.
const uniqueViolation = "23505"

// querier is the subset of pgx shared by the pool and transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store owns the connection pool shared by the repositories.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects to PostgreSQL, registers the pgvector types on every pooled
// connection and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	// The vector type must exist before AfterConnect can register it.
	if err := createExtension(ctx, dsn); err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	s := &Store{
		pool:   pool,
		logger: slog.Default().With("component", "postgres"),
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	s.logger.Debug("connected", "host", config.ConnConfig.Host, "database", config.ConnConfig.Database)
	return s, nil
}

func createExtension(ctx context.Context, dsn string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	_, err = conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	return err
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

type txKey struct{}

// WithTransaction runs fn in a transaction. Repository calls made with the
// context handed to fn use that transaction. A nested call joins the outer one.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// db returns the transaction carried by ctx, or the pool.
func (s *Store) db(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

// Items returns an ItemRepository backed by this store.
func (s *Store) Items() *ItemRepository {
	return &ItemRepository{store: s}
}

// Users returns a UserRepository backed by this store.
func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

// Reports returns a ReportRepository backed by this store.
func (s *Store) Reports() *ReportRepository {
	return &ReportRepository{store: s}
}

// Checkpoints returns a CheckpointRepository backed by this store.
func (s *Store) Checkpoints() *CheckpointRepository {
	return &CheckpointRepository{store: s}
}

// translateError maps pgx errors onto storage sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", storage.ErrAlreadyExists, pgErr.Detail)
	}
	return err
}
