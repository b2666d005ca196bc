package handlers

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/glowlocal/lead-payments/internal/infra/http/middleware"
	stripebridge "github.com/glowlocal/lead-payments/internal/infra/integration/stripe"
	"github.com/glowlocal/lead-payments/internal/usecase"
)

// CompletionParser is the verify-and-decode half of the payment-link bridge.
type CompletionParser interface {
	ParseCompletionEvent(rawPayload []byte, signatureHeader string) (*stripebridge.Event, error)
}

type WebhookHandler struct {
	Parser    CompletionParser
	ConfirmUC *usecase.ConfirmPaymentUseCase
	Logger    *zap.Logger
}

func NewWebhookHandler(parser CompletionParser, confirmUC *usecase.ConfirmPaymentUseCase, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{Parser: parser, ConfirmUC: confirmUC, Logger: logger}
}

// Handle processes payment-processor webhooks. Signature failures are
// rejected outright: this webhook gates PII release, so there is no
// process-anyway fallback. Events the system cannot act on are acknowledged
// with 200 so the processor does not retry them.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	const maxBody = 1 << 16
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	event, err := h.Parser.ParseCompletionEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if usecase.IsSecurityError(err) {
			h.Logger.Error("webhook signature rejected", zap.Error(err))
			middleware.RecordIntegrationError("stripe_webhook")
			writeError(w, http.StatusUnauthorized, "invalid_signature")
			return
		}
		writeError(w, http.StatusBadRequest, "undecodable event")
		return
	}

	middleware.RecordWebhookEvent(string(event.Kind))

	switch event.Kind {
	case stripebridge.EventCheckoutCompleted:
		h.handleCheckoutCompleted(w, r, event.Checkout)
	case stripebridge.EventAccountUpdated:
		h.Logger.Info("account updated", zap.String("account_id", event.Account.AccountID))
		w.WriteHeader(http.StatusOK)
	default:
		// Valid signature, event type we don't act on.
		w.WriteHeader(http.StatusOK)
	}
}

func (h *WebhookHandler) handleCheckoutCompleted(w http.ResponseWriter, r *http.Request, c *stripebridge.CheckoutCompleted) {
	if !c.Matched() {
		// No lead-access metadata: not ours, never an error back to the
		// processor.
		h.Logger.Warn("checkout completion without lead metadata ignored",
			zap.String("session_id", c.SessionID))
		w.WriteHeader(http.StatusOK)
		return
	}

	output, err := h.ConfirmUC.Execute(r.Context(), usecase.ConfirmPaymentInput{
		LeadID:          c.LeadID,
		ProviderID:      c.ProviderID,
		PaymentIntentID: c.PaymentIntentID,
		SessionID:       c.SessionID,
	})
	if err != nil {
		// Money moved but the reveal failed; ops are already alerted. A 500
		// here lets the processor redeliver, which stays safe because
		// MarkPaid is conditional.
		writeUseCaseError(w, err)
		return
	}

	if output.Revealed {
		middleware.RecordReveal()
	}
	writeJSON(w, http.StatusOK, output)
}
