package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm-service/internal/domain"
)

// RoutingRuleRepository manages persistence for routing rules.
type RoutingRuleRepository interface {
	Create(ctx context.Context, rule *domain.RoutingRule) error
	Update(ctx context.Context, rule *domain.RoutingRule) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.RoutingRule, error)
	// List returns all rules regardless of the active flag, in
	// insertion order. Matching is first-match-wins over this order.
	List(ctx context.Context) ([]domain.RoutingRule, error)
	// FindActiveByCountry returns the active rule for the country
	// (case-insensitive), or pgx.ErrNoRows.
	FindActiveByCountry(ctx context.Context, country string) (*domain.RoutingRule, error)
}

type routingRuleRepository struct {
	pool *pgxpool.Pool
}

// NewRoutingRuleRepository constructs repository.
func NewRoutingRuleRepository(pool *pgxpool.Pool) RoutingRuleRepository {
	return &routingRuleRepository{pool: pool}
}

const ruleColumns = `id, country, team_id, strategy, is_active, created_at, updated_at`

func (r *routingRuleRepository) Create(ctx context.Context, rule *domain.RoutingRule) error {
	const query = `
        INSERT INTO routing_rules (country, team_id, strategy, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		rule.Country,
		rule.TeamID,
		rule.Strategy,
		rule.IsActive,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
}

func (r *routingRuleRepository) Update(ctx context.Context, rule *domain.RoutingRule) error {
	const query = `
        UPDATE routing_rules SET country=$1, team_id=$2, strategy=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		rule.Country,
		rule.TeamID,
		rule.Strategy,
		rule.IsActive,
		rule.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *routingRuleRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM routing_rules WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *routingRuleRepository) GetByID(ctx context.Context, id string) (*domain.RoutingRule, error) {
	const query = `
        SELECT id, country, team_id, strategy, is_active, created_at, updated_at
        FROM routing_rules WHERE id=$1`
	var rule domain.RoutingRule
	if err := r.pool.QueryRow(ctx, query, id).Scan(ruleFields(&rule)...); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *routingRuleRepository) List(ctx context.Context) ([]domain.RoutingRule, error) {
	const query = `
        SELECT id, country, team_id, strategy, is_active, created_at, updated_at
        FROM routing_rules ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RoutingRule
	for rows.Next() {
		var rule domain.RoutingRule
		if err := rows.Scan(ruleFields(&rule)...); err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	return result, rows.Err()
}

func (r *routingRuleRepository) FindActiveByCountry(ctx context.Context, country string) (*domain.RoutingRule, error) {
	const query = `
        SELECT id, country, team_id, strategy, is_active, created_at, updated_at
        FROM routing_rules WHERE LOWER(country)=LOWER($1) AND is_active=TRUE
        LIMIT 1`
	var rule domain.RoutingRule
	if err := r.pool.QueryRow(ctx, query, country).Scan(ruleFields(&rule)...); err != nil {
		return nil, err
	}
	return &rule, nil
}

func ruleFields(rule *domain.RoutingRule) []any {
	return []any{
		&rule.ID,
		&rule.Country,
		&rule.TeamID,
		&rule.Strategy,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	}
}
