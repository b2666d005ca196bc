package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/glowlocal/lead-payments/internal/entity"
	"github.com/glowlocal/lead-payments/internal/notify"
)

type DispatchOutcome string

const (
	OutcomeSent            DispatchOutcome = "sent"
	OutcomeQueuedQuietHrs  DispatchOutcome = "queued(quiet_hours)"
	OutcomeSkippedOptedOut DispatchOutcome = "skipped(opted_out)"
	OutcomeSkippedExisting DispatchOutcome = "skipped(already_contacted)"
	OutcomeError           DispatchOutcome = "error"
)

type DispatchResult struct {
	LeadID     string          `json:"lead_id"`
	ProviderID string          `json:"provider_id"`
	Outcome    DispatchOutcome `json:"outcome"`
	Err        error           `json:"-"`
}

type DispatchTeaserUseCase struct {
	Leads        LeadRepositoryInterface
	Interactions InteractionRepositoryInterface
	Providers    ProviderRepositoryInterface
	OptOuts      OptOutRepositoryInterface
	Policy       PolicyRepositoryInterface
	SMS          notify.SMSSender
	Logger       *zap.Logger

	// now is swapped in tests to pin quiet-hours checks.
	now func() time.Time
}

func NewDispatchTeaserUseCase(
	leads LeadRepositoryInterface,
	interactions InteractionRepositoryInterface,
	providers ProviderRepositoryInterface,
	optOuts OptOutRepositoryInterface,
	policy PolicyRepositoryInterface,
	sms notify.SMSSender,
	logger *zap.Logger,
) *DispatchTeaserUseCase {
	return &DispatchTeaserUseCase{
		Leads:        leads,
		Interactions: interactions,
		Providers:    providers,
		OptOuts:      optOuts,
		Policy:       policy,
		SMS:          sms,
		Logger:       logger,
		now:          time.Now,
	}
}

// Execute sends the teaser for one (lead, provider) pair.
//
// Opt-out and quiet hours are checked before any interaction write: an
// opted-out provider yields skipped(opted_out) with no row mutation, and a
// dispatch inside the provider-local quiet window yields queued(quiet_hours)
// with no row mutation - redelivery outside the window is the caller's job.
func (uc *DispatchTeaserUseCase) Execute(ctx context.Context, leadID, providerID string) DispatchResult {
	result := DispatchResult{LeadID: leadID, ProviderID: providerID}

	optedOut, err := uc.OptOuts.Exists(ctx, providerID)
	if err != nil {
		return uc.fail(result, err)
	}
	if optedOut {
		result.Outcome = OutcomeSkippedOptedOut
		return result
	}

	provider, err := uc.Providers.FindByID(ctx, providerID)
	if err != nil {
		return uc.fail(result, err)
	}
	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return uc.fail(result, err)
	}

	now := uc.now()
	if lead.Expired(now) {
		return uc.fail(result, &NotFoundError{Resource: "active lead", ID: leadID})
	}

	// One policy snapshot for the whole operation.
	policy, err := uc.Policy.Latest(ctx)
	if err != nil {
		return uc.fail(result, err)
	}

	loc, err := time.LoadLocation(provider.Timezone)
	if err != nil {
		loc = time.UTC
	}
	if policy.InQuietHours(now.In(loc)) {
		result.Outcome = OutcomeQueuedQuietHrs
		return result
	}

	created, err := uc.Interactions.CreatePending(ctx, &entity.Interaction{
		LeadID:     leadID,
		ProviderID: providerID,
		Status:     entity.StatusNewLead,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return uc.fail(result, err)
	}
	if !created {
		// Pair already exists; the teaser went out (or the pair is
		// terminal). Uniqueness makes repeated dispatch calls idempotent.
		existing, err := uc.Interactions.FindByPair(ctx, leadID, providerID)
		if err != nil || existing.Status != entity.StatusNewLead {
			result.Outcome = OutcomeSkippedExisting
			return result
		}
		// NEW_LEAD row from an earlier failed send: fall through and retry.
	}

	text := notify.RenderTeaser(lead, provider, policy.PriceCents, policy.Currency)
	if err := uc.SMS.Send(ctx, provider.Phone, text); err != nil {
		// Row stays NEW_LEAD so a transport retry is safe.
		return uc.fail(result, &UpstreamError{Service: "sms", Err: err})
	}

	ttl := now.Add(policy.TTL())
	if _, err := uc.Interactions.MarkTeaserSent(ctx, leadID, providerID, now, ttl); err != nil {
		return uc.fail(result, err)
	}

	uc.Logger.Info("teaser sent",
		zap.String("lead_id", leadID),
		zap.String("provider_id", providerID),
		zap.Time("ttl_expires_at", ttl))

	result.Outcome = OutcomeSent
	return result
}

// ExecuteBatch fans out one dispatch per provider and aggregates the results
// explicitly: the caller gets counts, not side effects on a shared slice.
func (uc *DispatchTeaserUseCase) ExecuteBatch(ctx context.Context, leadID string, providerIDs []string) BatchDispatchOutput {
	results := make([]DispatchResult, len(providerIDs))

	var wg sync.WaitGroup
	for i, providerID := range providerIDs {
		wg.Add(1)
		go func(i int, providerID string) {
			defer wg.Done()
			results[i] = uc.Execute(ctx, leadID, providerID)
		}(i, providerID)
	}
	wg.Wait()

	out := BatchDispatchOutput{LeadID: leadID, Results: results}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeSent:
			out.Sent++
		case OutcomeQueuedQuietHrs:
			out.Queued++
		case OutcomeSkippedOptedOut, OutcomeSkippedExisting:
			out.Skipped++
		default:
			out.Failed++
		}
	}
	return out
}

type BatchDispatchOutput struct {
	LeadID  string           `json:"lead_id"`
	Sent    int              `json:"sent"`
	Queued  int              `json:"queued"`
	Skipped int              `json:"skipped"`
	Failed  int              `json:"failed"`
	Results []DispatchResult `json:"results"`
}

func (uc *DispatchTeaserUseCase) fail(r DispatchResult, err error) DispatchResult {
	uc.Logger.Warn("teaser dispatch failed",
		zap.String("lead_id", r.LeadID),
		zap.String("provider_id", r.ProviderID),
		zap.Error(err))
	r.Outcome = OutcomeError
	r.Err = err
	return r
}
