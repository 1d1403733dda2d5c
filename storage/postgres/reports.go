package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/storage"
)

// ReportRepository implements storage.ReportRepository on PostgreSQL.
type ReportRepository struct {
	store *Store
}

var _ storage.ReportRepository = (*ReportRepository)(nil)

const reportColumns = `id, item_id, reporter_id, reported_user_id, report_type, comment, reported_username, item_title, inserted_at`

// Close is a no-op; the Store owns the pool.
func (r *ReportRepository) Close() error {
	return nil
}

// WithTransaction delegates to the store.
func (r *ReportRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.store.WithTransaction(ctx, fn)
}

// AddReport inserts a report. The unique constraint on reporter, item and
// type rejects repeats with storage.ErrAlreadyExists.
func (r *ReportRepository) AddReport(ctx context.Context, report *core.Report) (*core.Report, error) {
	if report.InsertedAt.IsZero() {
		report.InsertedAt = time.Now().UTC()
	}
	_, err := r.store.db(ctx).Exec(ctx,
		`INSERT INTO reports (`+reportColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		int64(report.Id), int64(report.ItemID), int64(report.ReporterID), int64(report.ReportedUserID),
		string(report.Type), report.Comment, report.ReportedUsername, report.ItemTitle, report.InsertedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return report, nil
}

// GetReport retrieves a report by ID.
func (r *ReportRepository) GetReport(ctx context.Context, id core.ID) (*core.Report, error) {
	report, err := scanReport(r.store.db(ctx).QueryRow(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1`, int64(id)))
	if err != nil {
		return nil, translateError(err)
	}
	return report, nil
}

// ListReports returns up to limit reports, newest first.
func (r *ReportRepository) ListReports(ctx context.Context, limit int) ([]*core.Report, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidLimit
	}
	rows, err := r.store.db(ctx).Query(ctx,
		`SELECT `+reportColumns+` FROM reports ORDER BY inserted_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var results []*core.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, report)
	}
	return results, rows.Err()
}

func scanReport(row pgx.Row) (*core.Report, error) {
	var (
		report                                core.Report
		rawID, rawItem, rawReporter, rawOwner int64
		reportType                            string
	)
	if err := row.Scan(&rawID, &rawItem, &rawReporter, &rawOwner, &reportType,
		&report.Comment, &report.ReportedUsername, &report.ItemTitle, &report.InsertedAt); err != nil {
		return nil, err
	}
	report.Id = core.ID(rawID)
	report.ItemID = core.ID(rawItem)
	report.ReporterID = core.ID(rawReporter)
	report.ReportedUserID = core.ID(rawOwner)
	report.Type = core.ReportType(reportType)
	return &report, nil
}
