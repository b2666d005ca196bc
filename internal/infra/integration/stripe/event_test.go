package stripe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	stripelib "github.com/stripe/stripe-go/v76"
)

func rawEvent(t *testing.T, eventType string, object any) *stripelib.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	assert.NoError(t, err)
	return &stripelib.Event{
		Type: stripelib.EventType(eventType),
		Data: &stripelib.EventData{Raw: raw},
	}
}

func TestDecodeCheckoutCompleted(t *testing.T) {
	ev := rawEvent(t, "checkout.session.completed", map[string]any{
		"id": "cs_test_abc",
		"metadata": map[string]string{
			"lead_id":     "lead-1",
			"provider_id": "prov-1",
			"purpose":     "lead_access",
		},
		"payment_intent": map[string]any{"id": "pi_123"},
	})

	out, err := decodeEvent(ev)

	assert.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, out.Kind)
	assert.True(t, out.Checkout.Matched())
	assert.Equal(t, "lead-1", out.Checkout.LeadID)
	assert.Equal(t, "prov-1", out.Checkout.ProviderID)
	assert.Equal(t, "cs_test_abc", out.Checkout.SessionID)
	assert.Equal(t, "pi_123", out.Checkout.PaymentIntentID)
}

func TestDecodeCheckoutFromAnotherProductIsUnmatched(t *testing.T) {
	ev := rawEvent(t, "checkout.session.completed", map[string]any{
		"id": "cs_test_other",
		"metadata": map[string]string{
			"order_id": "ord-9",
		},
	})

	out, err := decodeEvent(ev)

	assert.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, out.Kind)
	assert.False(t, out.Checkout.Matched())
}

func TestDecodeUnknownEventType(t *testing.T) {
	ev := rawEvent(t, "payment_intent.created", map[string]any{"id": "pi_123"})

	out, err := decodeEvent(ev)

	assert.NoError(t, err)
	assert.Equal(t, EventOther, out.Kind)
	assert.Nil(t, out.Checkout)
}

func TestDecodeAccountUpdated(t *testing.T) {
	ev := rawEvent(t, "account.updated", map[string]any{"id": "acct_123"})

	out, err := decodeEvent(ev)

	assert.NoError(t, err)
	assert.Equal(t, EventAccountUpdated, out.Kind)
	assert.Equal(t, "acct_123", out.Account.AccountID)
}
