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

// InteractionRepository owns every status write. The UNIQUE (lead_id,
// provider_id) constraint is the system's single serialization point: all
// transitions are conditional updates whose WHERE clause names the expected
// prior statuses, so concurrent writers on the same pair cannot both win.
type InteractionRepository struct {
	DB *sql.DB
}

func NewInteractionRepository(db *sql.DB) *InteractionRepository {
	return &InteractionRepository{DB: db}
}

const interactionColumns = `
	lead_id, provider_id, status,
	last_sent_at, ttl_expires_at, unlocked_at,
	payment_link_url, payment_session_id, payment_intent_id, idempotency_key,
	price_cents, currency, created_at, updated_at`

func (r *InteractionRepository) CreatePending(ctx context.Context, it *entity.Interaction) (bool, error) {
	query := `
		INSERT INTO interactions (lead_id, provider_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (lead_id, provider_id) DO NOTHING
	`

	res, err := r.DB.ExecContext(ctx, query,
		it.LeadID, it.ProviderID, string(it.Status), it.CreatedAt, it.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return false, &usecase.NotFoundError{Resource: "lead or provider", ID: it.LeadID + "/" + it.ProviderID}
		}
		return false, fmt.Errorf("insert interaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *InteractionRepository) FindByPair(ctx context.Context, leadID, providerID string) (*entity.Interaction, error) {
	query := `SELECT ` + interactionColumns + ` FROM interactions WHERE lead_id = $1 AND provider_id = $2`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, leadID, providerID), leadID+"/"+providerID)
}

func (r *InteractionRepository) FindLatestOpenByPhone(ctx context.Context, providerPhone string) (*entity.Interaction, error) {
	query := `
		SELECT i.lead_id, i.provider_id, i.status,
		       i.last_sent_at, i.ttl_expires_at, i.unlocked_at,
		       i.payment_link_url, i.payment_session_id, i.payment_intent_id, i.idempotency_key,
		       i.price_cents, i.currency, i.created_at, i.updated_at
		FROM interactions i
		JOIN providers p ON p.id = i.provider_id
		WHERE p.phone = $1
		  AND i.status IN ('TEASER_SENT', 'AWAIT_CONFIRM', 'PAYMENT_LINK_SENT', 'AWAITING_PAYMENT')
		  AND (i.ttl_expires_at IS NULL OR i.ttl_expires_at > NOW())
		ORDER BY i.last_sent_at DESC NULLS LAST
		LIMIT 1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, providerPhone), providerPhone)
}

func (r *InteractionRepository) MarkTeaserSent(ctx context.Context, leadID, providerID string, sentAt, ttlExpiresAt time.Time) (bool, error) {
	query := `
		UPDATE interactions
		SET status = 'TEASER_SENT', last_sent_at = $3, ttl_expires_at = $4, updated_at = NOW()
		WHERE lead_id = $1 AND provider_id = $2 AND status = 'NEW_LEAD'
	`
	return r.execCond(ctx, query, leadID, providerID, sentAt, ttlExpiresAt)
}

// ClaimPaymentLink is the compare-and-swap that closes the two-concurrent-Y
// race: only a row still in a consent status with no link and no claim can be
// claimed, and postgres serializes the row write.
func (r *InteractionRepository) ClaimPaymentLink(ctx context.Context, leadID, providerID, idempotencyKey string, priceCents int, currency string) (bool, error) {
	query := `
		UPDATE interactions
		SET status = 'PAYMENT_LINK_SENT', idempotency_key = $3, price_cents = $4, currency = $5, updated_at = NOW()
		WHERE lead_id = $1 AND provider_id = $2
		  AND status IN ('TEASER_SENT', 'AWAIT_CONFIRM')
		  AND payment_link_url IS NULL
		  AND idempotency_key IS NULL
	`
	return r.execCond(ctx, query, leadID, providerID, idempotencyKey, priceCents, currency)
}

func (r *InteractionRepository) SavePaymentLink(ctx context.Context, leadID, providerID, url, sessionID string) error {
	query := `
		UPDATE interactions
		SET payment_link_url = $3, payment_session_id = $4, last_sent_at = NOW(), updated_at = NOW()
		WHERE lead_id = $1 AND provider_id = $2 AND status = 'PAYMENT_LINK_SENT'
	`
	ok, err := r.execCond(ctx, query, leadID, providerID, url, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return &usecase.NotFoundError{Resource: "claimed interaction", ID: leadID + "/" + providerID}
	}
	return nil
}

// ReleaseClaim undoes a claim whose mint failed. Guarded on a null link so a
// saved link can never be released.
func (r *InteractionRepository) ReleaseClaim(ctx context.Context, leadID, providerID string) error {
	query := `
		UPDATE interactions
		SET status = 'AWAIT_CONFIRM', idempotency_key = NULL, price_cents = 0, currency = NULL, updated_at = NOW()
		WHERE lead_id = $1 AND provider_id = $2
		  AND status = 'PAYMENT_LINK_SENT'
		  AND payment_link_url IS NULL
	`
	_, err := r.execCond(ctx, query, leadID, providerID)
	return err
}

func (r *InteractionRepository) Transition(ctx context.Context, leadID, providerID string, from []entity.InteractionStatus, to entity.InteractionStatus) (bool, error) {
	for _, f := range from {
		if !f.CanTransitionTo(to) {
			return false, &entity.IllegalTransitionError{From: f, To: to}
		}
	}

	query := `
		UPDATE interactions
		SET status = $3, updated_at = NOW()
		WHERE lead_id = $1 AND provider_id = $2 AND status = ANY($4)
	`
	return r.execCond(ctx, query, leadID, providerID, string(to), pq.Array(statusStrings(from)))
}

func (r *InteractionRepository) MarkPaid(ctx context.Context, leadID, providerID, paymentIntentID string, unlockedAt time.Time) (bool, error) {
	query := `
		UPDATE interactions
		SET status = 'PAID', payment_intent_id = $3, unlocked_at = $4, updated_at = NOW()
		WHERE lead_id = $1 AND provider_id = $2
		  AND status IN ('PAYMENT_LINK_SENT', 'AWAITING_PAYMENT')
	`
	return r.execCond(ctx, query, leadID, providerID, paymentIntentID, unlockedAt)
}

func (r *InteractionRepository) SuppressForProvider(ctx context.Context, providerID string) (int64, error) {
	query := `
		UPDATE interactions
		SET status = 'OPTED_OUT', updated_at = NOW()
		WHERE provider_id = $1
		  AND status NOT IN ('DONE', 'EXPIRED', 'OPTED_OUT', 'PAID', 'REVEAL_DETAILS_SENT')
	`
	res, err := r.DB.ExecContext(ctx, query, providerID)
	if err != nil {
		return 0, fmt.Errorf("suppress interactions: %w", err)
	}
	return res.RowsAffected()
}

func (r *InteractionRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE interactions
		SET status = 'EXPIRED', updated_at = NOW()
		WHERE status IN ('NEW_LEAD', 'TEASER_SENT', 'AWAIT_CONFIRM', 'PAYMENT_LINK_SENT', 'AWAITING_PAYMENT')
		  AND ttl_expires_at IS NOT NULL
		  AND ttl_expires_at < $1
	`
	res, err := r.DB.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire interactions: %w", err)
	}
	return res.RowsAffected()
}

func (r *InteractionRepository) PurchaseStats(ctx context.Context, since time.Time) (int, int, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(price_cents), 0)
		FROM interactions
		WHERE status IN ('PAID', 'REVEAL_DETAILS_SENT', 'DONE')
		  AND unlocked_at >= $1
	`
	var purchased, revenue int
	err := r.DB.QueryRowContext(ctx, query, since).Scan(&purchased, &revenue)
	if err != nil {
		return 0, 0, fmt.Errorf("purchase stats: %w", err)
	}
	return purchased, revenue, nil
}

func (r *InteractionRepository) execCond(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("conditional interaction update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *InteractionRepository) scanOne(row *sql.Row, id string) (*entity.Interaction, error) {
	var it entity.Interaction
	var status string
	var url, sessionID, intentID, idemKey, currency sql.NullString
	var priceCents sql.NullInt64

	err := row.Scan(
		&it.LeadID, &it.ProviderID, &status,
		&it.LastSentAt, &it.TTLExpiresAt, &it.UnlockedAt,
		&url, &sessionID, &intentID, &idemKey,
		&priceCents, &currency, &it.CreatedAt, &it.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &usecase.NotFoundError{Resource: "interaction", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("scan interaction: %w", err)
	}

	it.Status = entity.InteractionStatus(status)
	it.PaymentLinkURL = url.String
	it.PaymentSessionID = sessionID.String
	it.PaymentIntentID = intentID.String
	it.IdempotencyKey = idemKey.String
	it.PriceCents = int(priceCents.Int64)
	it.Currency = currency.String
	return &it, nil
}

func statusStrings(statuses []entity.InteractionStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
