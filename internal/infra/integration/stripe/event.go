package stripe

import (
	"encoding/json"
	"fmt"

	stripelib "github.com/stripe/stripe-go/v76"
)

type EventKind string

const (
	EventCheckoutCompleted EventKind = "checkout_completed"
	EventAccountUpdated    EventKind = "account_updated"
	EventOther             EventKind = "other"
)

// Event is a closed union over the webhook payloads this service acts on.
// Exactly one variant field is non-nil for its kind; unknown Stripe event
// types decode to EventOther and are discarded safely by the caller.
type Event struct {
	Kind     EventKind
	Checkout *CheckoutCompleted
	Account  *AccountUpdated
}

// CheckoutCompleted carries the (lead, provider) pair from the session
// metadata plus the completed payment identifiers.
type CheckoutCompleted struct {
	LeadID          string
	ProviderID      string
	SessionID       string
	PaymentIntentID string
}

// Matched reports whether the session carried the lead-access metadata. A
// completion without it belongs to some other product and is ignored.
func (c *CheckoutCompleted) Matched() bool {
	return c.LeadID != "" && c.ProviderID != ""
}

type AccountUpdated struct {
	AccountID string
}

func decodeEvent(ev *stripelib.Event) (*Event, error) {
	switch ev.Type {
	case "checkout.session.completed":
		var s stripelib.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out := &CheckoutCompleted{
			LeadID:     s.Metadata["lead_id"],
			ProviderID: s.Metadata["provider_id"],
			SessionID:  s.ID,
		}
		if s.Metadata["purpose"] != "lead_access" {
			// Valid event, different product: treat as unmatched.
			out.LeadID, out.ProviderID = "", ""
		}
		if s.PaymentIntent != nil {
			out.PaymentIntentID = s.PaymentIntent.ID
		}
		return &Event{Kind: EventCheckoutCompleted, Checkout: out}, nil

	case "account.updated":
		var a stripelib.Account
		if err := json.Unmarshal(ev.Data.Raw, &a); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
		return &Event{Kind: EventAccountUpdated, Account: &AccountUpdated{AccountID: a.ID}}, nil

	default:
		// e.g. payment_intent.created: acknowledged and ignored.
		return &Event{Kind: EventOther}, nil
	}
}
