package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/glowlocal/lead-payments/internal/entity"
)

// PolicyRepository reads the lead policy as a most-recent-row singleton and
// appends on update.
type PolicyRepository struct {
	DB *sql.DB
}

func NewPolicyRepository(db *sql.DB) *PolicyRepository {
	return &PolicyRepository{DB: db}
}

func (r *PolicyRepository) Latest(ctx context.Context) (entity.Policy, error) {
	query := `
		SELECT price_cents, currency, ttl_hours,
		       quiet_start_hour, quiet_start_minute, quiet_end_hour, quiet_end_minute,
		       created_at
		FROM lead_policies
		ORDER BY created_at DESC
		LIMIT 1
	`

	var p entity.Policy
	err := r.DB.QueryRowContext(ctx, query).Scan(
		&p.PriceCents, &p.Currency, &p.TTLHours,
		&p.QuietStartHour, &p.QuietStartMinute, &p.QuietEndHour, &p.QuietEndMinute,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.DefaultPolicy(), nil
	}
	if err != nil {
		return entity.Policy{}, fmt.Errorf("read policy: %w", err)
	}
	return p, nil
}

func (r *PolicyRepository) Save(ctx context.Context, p entity.Policy) error {
	query := `
		INSERT INTO lead_policies (
			price_cents, currency, ttl_hours,
			quiet_start_hour, quiet_start_minute, quiet_end_hour, quiet_end_minute,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.DB.ExecContext(ctx, query,
		p.PriceCents, p.Currency, p.TTLHours,
		p.QuietStartHour, p.QuietStartMinute, p.QuietEndHour, p.QuietEndMinute,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert policy: %w", err)
	}
	return nil
}
