package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm-service/internal/domain"
)

// LeadFilter captures lead search parameters.
type LeadFilter struct {
	Country      *string
	Stage        *domain.LeadStage
	Status       *domain.LeadStatus
	AssignedToID *string
	Unassigned   bool
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// LeadRepository encapsulates lead persistence.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	Update(ctx context.Context, lead *domain.Lead) error
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	ListWithFilter(ctx context.Context, filter LeadFilter) ([]domain.Lead, error)
	// ListUnassignedActive returns leads eligible for routing in
	// insertion order.
	ListUnassignedActive(ctx context.Context) ([]domain.Lead, error)
	// CountActiveAssigned returns the number of active leads currently
	// held by the given counselor.
	CountActiveAssigned(ctx context.Context, userID string) (int, error)
	// Assign sets the lead assignee and appends the ASSIGNMENT activity
	// entry in a single transaction, so either both land or neither.
	Assign(ctx context.Context, leadID, userID, description string) error
}

type leadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository instantiates the repository.
func NewLeadRepository(pool *pgxpool.Pool) LeadRepository {
	return &leadRepository{pool: pool}
}

const leadColumns = `id, name, email, phone, country, source, stage, score, status, assigned_to_id, created_at, updated_at`

func (r *leadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	const query = `
        INSERT INTO leads (name, email, phone, country, source, stage, score, status, assigned_to_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Country,
		lead.Source,
		lead.Stage,
		lead.Score,
		lead.Status,
		lead.AssignedToID,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
}

func (r *leadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	const query = `
        UPDATE leads SET name=$1, email=$2, phone=$3, country=$4, source=$5,
            stage=$6, score=$7, status=$8, assigned_to_id=$9, updated_at=NOW()
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Country,
		lead.Source,
		lead.Stage,
		lead.Score,
		lead.Status,
		lead.AssignedToID,
		lead.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *leadRepository) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE id=$1`, leadColumns)
	var lead domain.Lead
	if err := r.pool.QueryRow(ctx, query, id).Scan(leadFields(&lead)...); err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepository) ListUnassignedActive(ctx context.Context) ([]domain.Lead, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM leads
        WHERE assigned_to_id IS NULL AND status=$1
        ORDER BY created_at ASC, id ASC`, leadColumns)
	rows, err := r.pool.Query(ctx, query, domain.LeadStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

func (r *leadRepository) CountActiveAssigned(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM leads WHERE assigned_to_id=$1 AND status=$2`
	var count int
	if err := r.pool.QueryRow(ctx, query, userID, domain.LeadStatusActive).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *leadRepository) Assign(ctx context.Context, leadID, userID, description string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx,
		`UPDATE leads SET assigned_to_id=$1, updated_at=NOW() WHERE id=$2`,
		userID, leadID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO activity_logs (lead_id, user_id, type, description) VALUES ($1,$2,$3,$4)`,
		leadID, userID, domain.ActivityAssignment, description,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *leadRepository) ListWithFilter(ctx context.Context, filter LeadFilter) ([]domain.Lead, error) {
	base := fmt.Sprintf(`SELECT %s FROM leads`, leadColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Country != nil {
		args = append(args, strings.ToLower(*filter.Country))
		clauses = append(clauses, fmt.Sprintf("LOWER(country)=$%d", len(args)))
	}
	if filter.Stage != nil {
		args = append(args, *filter.Stage)
		clauses = append(clauses, fmt.Sprintf("stage=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.AssignedToID != nil {
		args = append(args, *filter.AssignedToID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_id=$%d", len(args)))
	}
	if filter.Unassigned {
		clauses = append(clauses, "assigned_to_id IS NULL")
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(email) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

func leadFields(lead *domain.Lead) []any {
	return []any{
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Country,
		&lead.Source,
		&lead.Stage,
		&lead.Score,
		&lead.Status,
		&lead.AssignedToID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	}
}

func scanLeads(rows pgx.Rows) ([]domain.Lead, error) {
	var result []domain.Lead
	for rows.Next() {
		var lead domain.Lead
		if err := rows.Scan(leadFields(&lead)...); err != nil {
			return nil, err
		}
		result = append(result, lead)
	}
	return result, rows.Err()
}
