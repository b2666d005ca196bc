package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/glowlocal/lead-payments/internal/entity"
	"github.com/glowlocal/lead-payments/internal/infra/queue"
	"github.com/glowlocal/lead-payments/internal/redact"
)

type CreateLeadInput struct {
	ID         string `json:"id"`
	City       string `json:"city"`
	Service    string `json:"service"`
	TimeWindow string `json:"time_window"`
	Budget     string `json:"budget"`

	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
	ClientEmail string `json:"client_email"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`

	// Matched providers to notify. Matching itself happens upstream.
	ProviderIDs []string `json:"provider_ids"`
}

type CreateLeadOutput struct {
	ID       string `json:"id"`
	Snippet  string `json:"snippet"`
	Queued   int    `json:"queued_dispatches"`
	IsActive bool   `json:"is_active"`
}

type CreateLeadUseCase struct {
	Leads  LeadRepositoryInterface
	Queue  QueueProducerInterface
	Logger *zap.Logger
}

func NewCreateLeadUseCase(leads LeadRepositoryInterface, producer QueueProducerInterface, logger *zap.Logger) *CreateLeadUseCase {
	return &CreateLeadUseCase{Leads: leads, Queue: producer, Logger: logger}
}

func ValidateCreateLeadInput(input CreateLeadInput) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(input.ID) == "" {
		errs = append(errs, FieldError{"id", "is required"})
	}
	if strings.TrimSpace(input.City) == "" {
		errs = append(errs, FieldError{"city", "is required"})
	}
	if strings.TrimSpace(input.Service) == "" {
		errs = append(errs, FieldError{"service", "is required"})
	}
	if strings.TrimSpace(input.ClientName) == "" {
		errs = append(errs, FieldError{"client_name", "is required"})
	}
	if strings.TrimSpace(input.ClientPhone) == "" {
		errs = append(errs, FieldError{"client_phone", "is required"})
	}
	return errs
}

// Execute validates intake, redacts the notes exactly once, stores the lead,
// and queues one teaser dispatch per matched provider. Duplicate lead ids are
// a ConflictError, not a merge.
func (uc *CreateLeadUseCase) Execute(ctx context.Context, input CreateLeadInput) (*CreateLeadOutput, error) {
	if errs := ValidateCreateLeadInput(input); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	snippet := redact.Snippet(input.Notes)

	lead, err := entity.NewLead(
		input.ID, input.City, input.Service, input.TimeWindow, input.Budget,
		input.ClientName, input.ClientPhone, input.ClientEmail, input.Address,
		input.Notes, snippet,
	)
	if err != nil {
		return nil, &ValidationError{Fields: []FieldError{{"lead", err.Error()}}}
	}

	if err := uc.Leads.Create(ctx, lead); err != nil {
		return nil, err
	}

	queued := 0
	for _, providerID := range input.ProviderIDs {
		payload := queue.TeaserDispatchPayload{
			LeadID:     lead.ID,
			ProviderID: providerID,
		}
		if err := uc.Queue.PublishTeaserDispatch(ctx, payload); err != nil {
			// Lead is stored; a dispatch that failed to enqueue is
			// recoverable by a manual notify, so log and keep going.
			uc.Logger.Error("teaser dispatch enqueue failed",
				zap.String("lead_id", lead.ID),
				zap.String("provider_id", providerID),
				zap.Error(err))
			continue
		}
		queued++
	}

	uc.Logger.Info("lead created",
		zap.String("lead_id", lead.ID),
		zap.String("city", lead.City),
		zap.Int("queued_dispatches", queued))

	return &CreateLeadOutput{
		ID:       lead.ID,
		Snippet:  lead.Snippet,
		Queued:   queued,
		IsActive: lead.IsActive,
	}, nil
}
