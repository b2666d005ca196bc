package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/glowlocal/lead-payments/internal/entity"
	"github.com/glowlocal/lead-payments/internal/usecase"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (
			id, city, service, time_window, budget, snippet,
			client_name, client_phone, client_email, address, notes,
			is_active, expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.DB.ExecContext(ctx, query,
		lead.ID, lead.City, lead.Service, lead.TimeWindow, lead.Budget, lead.Snippet,
		lead.ClientName, lead.ClientPhone, lead.ClientEmail, lead.Address, lead.Notes,
		lead.IsActive, lead.ExpiresAt, lead.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return &usecase.ConflictError{Resource: "lead", ID: lead.ID}
		}
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `
		SELECT id, city, service, time_window, budget, snippet,
		       client_name, client_phone, client_email, address, notes,
		       is_active, expires_at, created_at
		FROM leads
		WHERE id = $1
	`

	var lead entity.Lead
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&lead.ID, &lead.City, &lead.Service, &lead.TimeWindow, &lead.Budget, &lead.Snippet,
		&lead.ClientName, &lead.ClientPhone, &lead.ClientEmail, &lead.Address, &lead.Notes,
		&lead.IsActive, &lead.ExpiresAt, &lead.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &usecase.NotFoundError{Resource: "lead", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("find lead: %w", err)
	}
	return &lead, nil
}

// ListActive returns public summaries of live leads with per-lead interaction
// counts. The counts are a read-side join, never a stored aggregate.
func (r *LeadRepository) ListActive(ctx context.Context, limit, offset int) ([]entity.LeadSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `
		SELECT l.id, l.city, l.service, l.snippet, l.created_at,
		       COUNT(i.lead_id) FILTER (WHERE i.status <> 'NEW_LEAD') AS notified,
		       COUNT(i.lead_id) FILTER (WHERE i.status IN ('PAID', 'REVEAL_DETAILS_SENT', 'DONE')) AS paid
		FROM leads l
		LEFT JOIN interactions i ON i.lead_id = l.id
		WHERE l.is_active = TRUE AND l.expires_at > NOW()
		GROUP BY l.id, l.city, l.service, l.snippet, l.created_at
		ORDER BY l.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []entity.LeadSummary
	for rows.Next() {
		var s entity.LeadSummary
		if err := rows.Scan(&s.ID, &s.City, &s.Service, &s.Snippet, &s.CreatedAt, &s.NotifiedCount, &s.PaidCount); err != nil {
			return nil, fmt.Errorf("scan lead summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *LeadRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leads WHERE created_at >= $1`, since).Scan(&count)
	return count, err
}
