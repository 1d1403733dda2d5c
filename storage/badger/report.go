package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/storage"
)

// ReportRepository implements storage.ReportRepository for BadgerDB.
type ReportRepository struct {
	backend *Backend
}

var _ storage.ReportRepository = (*ReportRepository)(nil)

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(backend *Backend) *ReportRepository {
	return &ReportRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *ReportRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ReportRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddReport stores a report and its date index entry. Report IDs are derived
// from reporter, item and type, so a repeated report finds the existing key
// or loses the commit race with badger.ErrConflict.
func (r *ReportRepository) AddReport(ctx context.Context, report *core.Report) (*core.Report, error) {
	err := r.backend.withContextTx(ctx, func(tx *badger.Txn) error {
		key := makeReportKey(report.Id)
		existing, err := getValue(tx, key, storage.UnmarshalReport)
		if err != nil {
			return err
		}
		if existing != nil {
			return storage.ErrAlreadyExists
		}
		if report.InsertedAt.IsZero() {
			report.InsertedAt = time.Now().UTC()
		}
		if err := tx.Set(key, storage.MarshalReport(report)); err != nil {
			return err
		}
		return tx.Set(makeReportDateKey(report.InsertedAt, report.Id), storage.MarshalID(report.Id))
	}, true)
	if errors.Is(err, badger.ErrConflict) {
		return nil, storage.ErrAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// GetReport retrieves a report by ID.
func (r *ReportRepository) GetReport(ctx context.Context, id core.ID) (*core.Report, error) {
	var result *core.Report
	err := r.backend.withContextTx(ctx, func(tx *badger.Txn) error {
		var err error
		result, err = getValue(tx, makeReportKey(id), storage.UnmarshalReport)
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

// ListReports walks the date index backwards.
func (r *ReportRepository) ListReports(ctx context.Context, limit int) ([]*core.Report, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidLimit
	}

	var results []*core.Report
	err := r.backend.withContextTx(ctx, func(tx *badger.Txn) error {
		prefix := []byte(reportDatePrefix)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(seekLast(prefix)); iter.Valid() && len(results) < limit; iter.Next() {
			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			report, err := getValue(tx, makeReportKey(id), storage.UnmarshalReport)
			if err != nil {
				return err
			}
			if report != nil {
				results = append(results, report)
			}
		}
		return nil
	}, false)

	return results, err
}
