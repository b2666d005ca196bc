package usecase

import (
	"context"
	"time"

	"github.com/glowlocal/lead-payments/internal/entity"
	"github.com/glowlocal/lead-payments/internal/infra/queue"
)

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *entity.Lead) error
	FindByID(ctx context.Context, id string) (*entity.Lead, error)
	ListActive(ctx context.Context, limit, offset int) ([]entity.LeadSummary, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
}

// InteractionRepositoryInterface is the sole serialization point of the
// system: every status write is a conditional update against the unique
// (lead_id, provider_id) row, so concurrent operations on the same pair
// serialize at the store.
type InteractionRepositoryInterface interface {
	// CreatePending inserts a NEW_LEAD row, reporting false when the pair
	// already exists (ON CONFLICT DO NOTHING).
	CreatePending(ctx context.Context, it *entity.Interaction) (bool, error)

	FindByPair(ctx context.Context, leadID, providerID string) (*entity.Interaction, error)

	// FindLatestOpenByPhone resolves an inbound reply with no lead token to
	// the most recently contacted open interaction for the sender's phone.
	FindLatestOpenByPhone(ctx context.Context, providerPhone string) (*entity.Interaction, error)

	// MarkTeaserSent moves NEW_LEAD -> TEASER_SENT, recording the send time
	// and TTL deadline. Reports false if the row was not in NEW_LEAD.
	MarkTeaserSent(ctx context.Context, leadID, providerID string, sentAt, ttlExpiresAt time.Time) (bool, error)

	// ClaimPaymentLink atomically claims the right to mint a checkout
	// session: a single conditional write from a consent status with no link
	// yet. Exactly one of any number of concurrent claims wins. Price and
	// currency are snapshotted on the row at claim time.
	ClaimPaymentLink(ctx context.Context, leadID, providerID, idempotencyKey string, priceCents int, currency string) (bool, error)

	// SavePaymentLink records the minted link on a claimed row.
	SavePaymentLink(ctx context.Context, leadID, providerID, url, sessionID string) error

	// ReleaseClaim is the compensation for a failed mint: back to
	// AWAIT_CONFIRM with the claim cleared.
	ReleaseClaim(ctx context.Context, leadID, providerID string) error

	// Transition performs a generic conditional status move, reporting false
	// when the row was not in any of the from statuses.
	Transition(ctx context.Context, leadID, providerID string, from []entity.InteractionStatus, to entity.InteractionStatus) (bool, error)

	// MarkPaid moves an open-link row to PAID, recording the unlock time and
	// payment intent. Idempotent on payment_intent_id: reports false when the
	// row already left the open-link statuses.
	MarkPaid(ctx context.Context, leadID, providerID, paymentIntentID string, unlockedAt time.Time) (bool, error)

	// SuppressForProvider moves every non-terminal interaction of the
	// provider to OPTED_OUT, returning the number of rows touched.
	SuppressForProvider(ctx context.Context, providerID string) (int64, error)

	// ExpireStale forces open interactions past their TTL to EXPIRED.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)

	// PurchaseStats returns paid-interaction count and summed snapshot
	// revenue since the given time.
	PurchaseStats(ctx context.Context, since time.Time) (purchased int, revenueCents int, err error)
}

type ProviderRepositoryInterface interface {
	Create(ctx context.Context, p *entity.Provider) error
	FindByID(ctx context.Context, id string) (*entity.Provider, error)
	FindByPhone(ctx context.Context, phone string) (*entity.Provider, error)
}

type OptOutRepositoryInterface interface {
	// Add is idempotent: recording an existing opt-out is a no-op.
	Add(ctx context.Context, providerID string) error
	Exists(ctx context.Context, providerID string) (bool, error)
}

type PolicyRepositoryInterface interface {
	// Latest returns the most recent policy row, or entity.DefaultPolicy()
	// when the table is empty.
	Latest(ctx context.Context) (entity.Policy, error)
	Save(ctx context.Context, p entity.Policy) error
}

// LeadCheckoutInput describes a single-use lead-access checkout session.
type LeadCheckoutInput struct {
	LeadID         string
	ProviderID     string
	PriceCents     int
	Currency       string
	IdempotencyKey string
}

type LeadCheckoutOutput struct {
	URL       string
	SessionID string
}

// PaymentLinkGateway mints exactly one metadata-tagged checkout session per
// call. Implemented by the Stripe bridge.
type PaymentLinkGateway interface {
	IssueLeadAccessLink(ctx context.Context, input LeadCheckoutInput) (*LeadCheckoutOutput, error)
}

type QueueProducerInterface interface {
	PublishTeaserDispatch(ctx context.Context, payload queue.TeaserDispatchPayload) error
}

// AlertMailer notifies operators of paid-but-undeliverable interactions:
// money has moved and no automatic remediation is attempted.
type AlertMailer interface {
	SendRevealFailure(leadID, providerID, reason string) error
}
