package entity

import (
	"fmt"
	"time"
)

// InteractionStatus is the state of a (lead, provider) interaction.
type InteractionStatus string

const (
	StatusNewLead           InteractionStatus = "NEW_LEAD"
	StatusTeaserSent        InteractionStatus = "TEASER_SENT"
	StatusAwaitConfirm      InteractionStatus = "AWAIT_CONFIRM"
	StatusPaymentLinkSent   InteractionStatus = "PAYMENT_LINK_SENT"
	StatusAwaitingPayment   InteractionStatus = "AWAITING_PAYMENT"
	StatusPaid              InteractionStatus = "PAID"
	StatusRevealDetailsSent InteractionStatus = "REVEAL_DETAILS_SENT"
	StatusDone              InteractionStatus = "DONE"
	StatusExpired           InteractionStatus = "EXPIRED"
	StatusOptedOut          InteractionStatus = "OPTED_OUT"
)

// transitions is the legal forward graph. Resending an existing payment link
// is not a transition: status stays put on that path.
var transitions = map[InteractionStatus][]InteractionStatus{
	StatusNewLead:           {StatusTeaserSent, StatusExpired, StatusOptedOut},
	StatusTeaserSent:        {StatusAwaitConfirm, StatusPaymentLinkSent, StatusExpired, StatusOptedOut},
	StatusAwaitConfirm:      {StatusPaymentLinkSent, StatusExpired, StatusOptedOut},
	StatusPaymentLinkSent:   {StatusAwaitingPayment, StatusPaid, StatusExpired, StatusOptedOut},
	StatusAwaitingPayment:   {StatusPaid, StatusExpired, StatusOptedOut},
	StatusPaid:              {StatusRevealDetailsSent},
	StatusRevealDetailsSent: {StatusDone},
	StatusDone:              {},
	StatusExpired:           {},
	StatusOptedOut:          {},
}

// CanTransitionTo reports whether s -> next is a legal move.
func (s InteractionStatus) CanTransitionTo(next InteractionStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s InteractionStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// Valid reports whether s is a known status.
func (s InteractionStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IllegalTransitionError is returned when a write would move an interaction
// against the graph.
type IllegalTransitionError struct {
	From InteractionStatus
	To   InteractionStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal interaction transition %s -> %s", e.From, e.To)
}

// OpenLinkStatuses are the states in which a previously issued payment link
// may be resent verbatim instead of minting a new checkout session.
func OpenLinkStatuses() []InteractionStatus {
	return []InteractionStatus{StatusPaymentLinkSent, StatusAwaitingPayment}
}

// ConsentStatuses are the states from which a "Y" reply may claim a link.
func ConsentStatuses() []InteractionStatus {
	return []InteractionStatus{StatusTeaserSent, StatusAwaitConfirm}
}

// Interaction is the per-(lead, provider) state machine instance. The pair is
// unique at the store level; rows are never deleted.
type Interaction struct {
	LeadID     string            `json:"lead_id"`
	ProviderID string            `json:"provider_id"`
	Status     InteractionStatus `json:"status"`

	LastSentAt   *time.Time `json:"last_sent_at,omitempty"`
	TTLExpiresAt *time.Time `json:"ttl_expires_at,omitempty"`
	UnlockedAt   *time.Time `json:"unlocked_at,omitempty"`

	PaymentLinkURL   string `json:"payment_link_url,omitempty"`
	PaymentSessionID string `json:"payment_session_id,omitempty"`
	PaymentIntentID  string `json:"payment_intent_id,omitempty"`
	IdempotencyKey   string `json:"idempotency_key,omitempty"`

	// PriceCents and Currency are snapshotted from policy when the link is
	// issued so that resends and revenue reporting survive later policy
	// changes.
	PriceCents int    `json:"price_cents,omitempty"`
	Currency   string `json:"currency,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LinkStale reports whether an issued payment link should no longer be reused.
func (i *Interaction) LinkStale(now time.Time) bool {
	return i.TTLExpiresAt != nil && now.After(*i.TTLExpiresAt)
}
