package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/glowlocal/lead-payments/internal/entity"
	"github.com/glowlocal/lead-payments/internal/notify"
)

type ConfirmPaymentInput struct {
	LeadID          string
	ProviderID      string
	PaymentIntentID string
	SessionID       string
}

type ConfirmPaymentOutput struct {
	Status   entity.InteractionStatus `json:"status"`
	Revealed bool                     `json:"revealed"`
	// Duplicate is true when the same completion was already processed; the
	// delivery is acknowledged and nothing is resent.
	Duplicate bool `json:"duplicate"`
}

type ConfirmPaymentUseCase struct {
	Leads        LeadRepositoryInterface
	Interactions InteractionRepositoryInterface
	Providers    ProviderRepositoryInterface
	SMS          notify.SMSSender
	Alerts       AlertMailer
	Logger       *zap.Logger

	now func() time.Time
}

func NewConfirmPaymentUseCase(
	leads LeadRepositoryInterface,
	interactions InteractionRepositoryInterface,
	providers ProviderRepositoryInterface,
	sms notify.SMSSender,
	alerts AlertMailer,
	logger *zap.Logger,
) *ConfirmPaymentUseCase {
	return &ConfirmPaymentUseCase{
		Leads:        leads,
		Interactions: interactions,
		Providers:    providers,
		SMS:          sms,
		Alerts:       alerts,
		Logger:       logger,
		now:          time.Now,
	}
}

// Execute processes a verified checkout-completion event: PAID, then reveal,
// then DONE. A completion for an unknown pair is a logged no-op, never an
// error back to the processor. A redelivery of an already-processed
// payment_intent_id is a no-op with no second SMS.
func (uc *ConfirmPaymentUseCase) Execute(ctx context.Context, input ConfirmPaymentInput) (*ConfirmPaymentOutput, error) {
	it, err := uc.Interactions.FindByPair(ctx, input.LeadID, input.ProviderID)
	if err != nil {
		if IsNotFoundError(err) {
			uc.Logger.Warn("payment completion for unknown interaction",
				zap.String("lead_id", input.LeadID),
				zap.String("provider_id", input.ProviderID),
				zap.String("payment_intent_id", input.PaymentIntentID))
			return &ConfirmPaymentOutput{Duplicate: false, Revealed: false}, nil
		}
		return nil, err
	}

	paid, err := uc.Interactions.MarkPaid(ctx, input.LeadID, input.ProviderID, input.PaymentIntentID, uc.now())
	if err != nil {
		return nil, err
	}
	if !paid {
		// The row already left the open-link statuses. Same intent id:
		// duplicate delivery, safe no-op. Different: log for review.
		if it.PaymentIntentID == input.PaymentIntentID || input.PaymentIntentID == "" {
			uc.Logger.Info("duplicate payment completion ignored",
				zap.String("lead_id", input.LeadID),
				zap.String("provider_id", input.ProviderID),
				zap.String("payment_intent_id", input.PaymentIntentID))
			return &ConfirmPaymentOutput{Status: it.Status, Duplicate: true}, nil
		}
		uc.Logger.Warn("payment completion for interaction in unexpected status",
			zap.String("lead_id", input.LeadID),
			zap.String("provider_id", input.ProviderID),
			zap.String("status", string(it.Status)),
			zap.String("payment_intent_id", input.PaymentIntentID))
		return &ConfirmPaymentOutput{Status: it.Status, Duplicate: true}, nil
	}

	// From here on money has moved. A missing lead or provider is a fatal,
	// manual-intervention condition: log at high severity, alert ops, and do
	// not retry automatically.
	lead, err := uc.Leads.FindByID(ctx, input.LeadID)
	if err != nil {
		return nil, uc.fatalRevealFailure(input, "lead record missing after payment", err)
	}
	provider, err := uc.Providers.FindByID(ctx, input.ProviderID)
	if err != nil {
		return nil, uc.fatalRevealFailure(input, "provider record missing after payment", err)
	}

	// Reveal goes to the phone on the provider record, never to whatever
	// number sent the consent reply.
	text := notify.RenderReveal(lead)
	if err := uc.SMS.Send(ctx, provider.Phone, text); err != nil {
		return nil, uc.fatalRevealFailure(input, "reveal SMS delivery failed", err)
	}

	if _, err := uc.Interactions.Transition(ctx, input.LeadID, input.ProviderID,
		[]entity.InteractionStatus{entity.StatusPaid}, entity.StatusRevealDetailsSent); err != nil {
		return nil, err
	}
	if _, err := uc.Interactions.Transition(ctx, input.LeadID, input.ProviderID,
		[]entity.InteractionStatus{entity.StatusRevealDetailsSent}, entity.StatusDone); err != nil {
		return nil, err
	}

	uc.Logger.Info("lead revealed",
		zap.String("lead_id", input.LeadID),
		zap.String("provider_id", input.ProviderID),
		zap.String("payment_intent_id", input.PaymentIntentID))

	return &ConfirmPaymentOutput{Status: entity.StatusDone, Revealed: true}, nil
}

func (uc *ConfirmPaymentUseCase) fatalRevealFailure(input ConfirmPaymentInput, reason string, err error) error {
	uc.Logger.Error("PAID interaction could not be revealed, manual follow-up required",
		zap.String("lead_id", input.LeadID),
		zap.String("provider_id", input.ProviderID),
		zap.String("payment_intent_id", input.PaymentIntentID),
		zap.String("reason", reason),
		zap.Error(err))

	if uc.Alerts != nil {
		if mailErr := uc.Alerts.SendRevealFailure(input.LeadID, input.ProviderID, reason); mailErr != nil {
			uc.Logger.Error("reveal-failure alert mail failed", zap.Error(mailErr))
		}
	}
	return &UpstreamError{Service: "reveal", Err: err}
}
