package database

import (
	"context"
	"database/sql"
	"fmt"
)

// OptOutRepository stores permanent provider suppression records. Opt-out is
// checked before every teaser dispatch and never removed by the service.
type OptOutRepository struct {
	DB *sql.DB
}

func NewOptOutRepository(db *sql.DB) *OptOutRepository {
	return &OptOutRepository{DB: db}
}

// Add is idempotent: a duplicate STOP conflicts on the primary key and does
// nothing.
func (r *OptOutRepository) Add(ctx context.Context, providerID string) error {
	query := `
		INSERT INTO provider_optouts (provider_id, created_at)
		VALUES ($1, NOW())
		ON CONFLICT (provider_id) DO NOTHING
	`
	if _, err := r.DB.ExecContext(ctx, query, providerID); err != nil {
		return fmt.Errorf("insert opt-out: %w", err)
	}
	return nil
}

func (r *OptOutRepository) Exists(ctx context.Context, providerID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM provider_optouts WHERE provider_id = $1)`,
		providerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check opt-out: %w", err)
	}
	return exists, nil
}
