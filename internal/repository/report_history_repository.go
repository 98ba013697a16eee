package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-reports/internal/domain"
)

// ReportHistoryRepository stores audit entries.
type ReportHistoryRepository interface {
	Create(ctx context.Context, history *domain.ReportHistory) error
	ListByReport(ctx context.Context, reportID string) ([]domain.ReportHistory, error)
	DeleteByReport(ctx context.Context, reportID string) error
}

type reportHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewReportHistoryRepository builds repository.
func NewReportHistoryRepository(pool *pgxpool.Pool) ReportHistoryRepository {
	return &reportHistoryRepository{pool: pool}
}

func (r *reportHistoryRepository) Create(ctx context.Context, history *domain.ReportHistory) error {
	const query = `
        INSERT INTO report_history (id, report_id, changed_by, old_status, new_status, note, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.pool.Exec(ctx, query,
		history.ID,
		history.ReportID,
		history.ChangedBy,
		history.OldStatus,
		history.NewStatus,
		history.Note,
		history.CreatedAt,
	)
	return translatePgError(err)
}

func (r *reportHistoryRepository) ListByReport(ctx context.Context, reportID string) ([]domain.ReportHistory, error) {
	const query = `
        SELECT id, report_id, changed_by, old_status, new_status, note, created_at
        FROM report_history WHERE report_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, reportID)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	result := []domain.ReportHistory{}
	for rows.Next() {
		var history domain.ReportHistory
		if err := rows.Scan(
			&history.ID,
			&history.ReportID,
			&history.ChangedBy,
			&history.OldStatus,
			&history.NewStatus,
			&history.Note,
			&history.CreatedAt,
		); err != nil {
			return nil, translatePgError(err)
		}
		result = append(result, history)
	}
	return result, translatePgError(rows.Err())
}

// DeleteByReport is normally a no-op here: the foreign key cascades on report deletion.
func (r *reportHistoryRepository) DeleteByReport(ctx context.Context, reportID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM report_history WHERE report_id=$1`, reportID)
	return translatePgError(err)
}
