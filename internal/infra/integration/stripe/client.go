package stripe

import (
	"context"
	"fmt"
	"time"

	stripelib "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/glowlocal/lead-payments/internal/usecase"
)

// LinkExpiry is the checkout session's own lifetime, independent of the
// interaction TTL.
const LinkExpiry = 24 * time.Hour

// Client is the payment-link bridge: one metadata-tagged, single-use checkout
// session per call, and verification/decoding of the completion webhook.
type Client struct {
	webhookSecret string
}

func NewClient(apiKey, webhookSecret string) *Client {
	stripelib.Key = apiKey
	return &Client{webhookSecret: webhookSecret}
}

func (c *Client) IssueLeadAccessLink(ctx context.Context, input usecase.LeadCheckoutInput) (*usecase.LeadCheckoutOutput, error) {
	params := &stripelib.CheckoutSessionParams{
		Mode:      stripelib.String(string(stripelib.CheckoutSessionModePayment)),
		ExpiresAt: stripelib.Int64(time.Now().Add(LinkExpiry).Unix()),
		LineItems: []*stripelib.CheckoutSessionLineItemParams{
			{
				Quantity: stripelib.Int64(1),
				PriceData: &stripelib.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripelib.String(input.Currency),
					UnitAmount: stripelib.Int64(int64(input.PriceCents)),
					ProductData: &stripelib.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripelib.String(fmt.Sprintf("Lead access #%s", input.LeadID)),
					},
				},
			},
		},
		Metadata: map[string]string{
			"lead_id":     input.LeadID,
			"provider_id": input.ProviderID,
			"purpose":     "lead_access",
		},
	}
	params.Context = ctx
	// Same key, same session: a retried mint never duplicates the charge.
	params.IdempotencyKey = stripelib.String(input.IdempotencyKey)

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &usecase.LeadCheckoutOutput{URL: s.URL, SessionID: s.ID}, nil
}

// ParseCompletionEvent verifies the webhook signature and decodes the payload
// into the closed Event union. A bad signature is a SecurityError and the
// payload is never processed; a valid signature with an event type we do not
// act on comes back as EventOther (ordinary no-op).
func (c *Client) ParseCompletionEvent(rawPayload []byte, signatureHeader string) (*Event, error) {
	stripeEvent, err := webhook.ConstructEventWithOptions(rawPayload, signatureHeader, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, &usecase.SecurityError{Reason: fmt.Sprintf("webhook signature verification failed: %v", err)}
	}

	return decodeEvent(&stripeEvent)
}
