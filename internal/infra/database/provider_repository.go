package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/glowlocal/lead-payments/internal/entity"
	"github.com/glowlocal/lead-payments/internal/usecase"
)

type ProviderRepository struct {
	DB *sql.DB
}

func NewProviderRepository(db *sql.DB) *ProviderRepository {
	return &ProviderRepository{DB: db}
}

func (r *ProviderRepository) Create(ctx context.Context, p *entity.Provider) error {
	query := `
		INSERT INTO providers (id, name, phone, timezone, services, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(ctx, query, p.ID, p.Name, p.Phone, p.Timezone, p.Services, p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return &usecase.ConflictError{Resource: "provider", ID: p.Phone}
		}
		return fmt.Errorf("insert provider: %w", err)
	}
	return nil
}

func (r *ProviderRepository) FindByID(ctx context.Context, id string) (*entity.Provider, error) {
	return r.findBy(ctx, "id", id)
}

func (r *ProviderRepository) FindByPhone(ctx context.Context, phone string) (*entity.Provider, error) {
	return r.findBy(ctx, "phone", phone)
}

func (r *ProviderRepository) findBy(ctx context.Context, column, value string) (*entity.Provider, error) {
	query := fmt.Sprintf(`
		SELECT id, name, phone, timezone, services, created_at
		FROM providers
		WHERE %s = $1
	`, column)

	var p entity.Provider
	err := r.DB.QueryRowContext(ctx, query, value).Scan(
		&p.ID, &p.Name, &p.Phone, &p.Timezone, &p.Services, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &usecase.NotFoundError{Resource: "provider", ID: value}
	}
	if err != nil {
		return nil, fmt.Errorf("find provider: %w", err)
	}
	return &p, nil
}
