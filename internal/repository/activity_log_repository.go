package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm-service/internal/domain"
)

// ActivityLogRepository stores the append-only lead audit trail.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) error
	ListByLead(ctx context.Context, leadID string) ([]domain.ActivityLog, error)
	// LatestAssignmentAt returns the timestamp of the most recent
	// ASSIGNMENT entry credited to the user, or nil if there is none.
	LatestAssignmentAt(ctx context.Context, userID string) (*time.Time, error)
}

type activityLogRepository struct {
	pool *pgxpool.Pool
}

// NewActivityLogRepository builds repository.
func NewActivityLogRepository(pool *pgxpool.Pool) ActivityLogRepository {
	return &activityLogRepository{pool: pool}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *domain.ActivityLog) error {
	const query = `
        INSERT INTO activity_logs (lead_id, user_id, type, description)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.LeadID,
		entry.UserID,
		entry.Type,
		entry.Description,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *activityLogRepository) ListByLead(ctx context.Context, leadID string) ([]domain.ActivityLog, error) {
	const query = `
        SELECT id, lead_id, user_id, type, description, created_at
        FROM activity_logs WHERE lead_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ActivityLog
	for rows.Next() {
		var entry domain.ActivityLog
		if err := rows.Scan(
			&entry.ID,
			&entry.LeadID,
			&entry.UserID,
			&entry.Type,
			&entry.Description,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *activityLogRepository) LatestAssignmentAt(ctx context.Context, userID string) (*time.Time, error) {
	const query = `
        SELECT created_at FROM activity_logs
        WHERE user_id=$1 AND type=$2
        ORDER BY created_at DESC LIMIT 1`
	var ts time.Time
	err := r.pool.QueryRow(ctx, query, userID, domain.ActivityAssignment).Scan(&ts)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &ts, nil
}
