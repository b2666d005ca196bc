package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/glowlocal/lead-payments/internal/entity"
)

type LeadStatsOutput struct {
	WindowDays     int     `json:"window_days"`
	TotalLeads     int     `json:"total_leads"`
	PurchasedLeads int     `json:"purchased_leads"`
	RevenueCents   int     `json:"revenue_cents"`
	ConversionRate float64 `json:"conversion_rate"`
}

type LeadStatsUseCase struct {
	Leads        LeadRepositoryInterface
	Interactions InteractionRepositoryInterface
	Logger       *zap.Logger
}

func NewLeadStatsUseCase(leads LeadRepositoryInterface, interactions InteractionRepositoryInterface, logger *zap.Logger) *LeadStatsUseCase {
	return &LeadStatsUseCase{Leads: leads, Interactions: interactions, Logger: logger}
}

// Execute aggregates lead volume, purchases, and snapshot revenue over a
// trailing window of whole days.
func (uc *LeadStatsUseCase) Execute(ctx context.Context, windowDays int) (*LeadStatsOutput, error) {
	if windowDays <= 0 {
		return nil, &ValidationError{Fields: []FieldError{{"days", "must be a positive number of days"}}}
	}

	since := time.Now().AddDate(0, 0, -windowDays)

	total, err := uc.Leads.CountCreatedSince(ctx, since)
	if err != nil {
		return nil, err
	}
	purchased, revenue, err := uc.Interactions.PurchaseStats(ctx, since)
	if err != nil {
		return nil, err
	}

	out := &LeadStatsOutput{
		WindowDays:     windowDays,
		TotalLeads:     total,
		PurchasedLeads: purchased,
		RevenueCents:   revenue,
	}
	if total > 0 {
		out.ConversionRate = float64(purchased) / float64(total)
	}
	return out, nil
}

type UpdatePolicyInput struct {
	PriceCents       int    `json:"price_cents"`
	Currency         string `json:"currency"`
	TTLHours         int    `json:"ttl_hours"`
	QuietStartHour   int    `json:"quiet_start_hour"`
	QuietStartMinute int    `json:"quiet_start_minute"`
	QuietEndHour     int    `json:"quiet_end_hour"`
	QuietEndMinute   int    `json:"quiet_end_minute"`
}

type UpdatePolicyUseCase struct {
	Policy PolicyRepositoryInterface
	Logger *zap.Logger
}

func NewUpdatePolicyUseCase(policy PolicyRepositoryInterface, logger *zap.Logger) *UpdatePolicyUseCase {
	return &UpdatePolicyUseCase{Policy: policy, Logger: logger}
}

// Execute appends a new policy row; readers always take the most recent one.
// The state machine itself never writes policy.
func (uc *UpdatePolicyUseCase) Execute(ctx context.Context, input UpdatePolicyInput) (*entity.Policy, error) {
	var errs []FieldError
	if input.PriceCents <= 0 {
		errs = append(errs, FieldError{"price_cents", "must be positive"})
	}
	if input.Currency == "" {
		errs = append(errs, FieldError{"currency", "is required"})
	}
	if input.TTLHours <= 0 {
		errs = append(errs, FieldError{"ttl_hours", "must be positive"})
	}
	if input.QuietStartHour < 0 || input.QuietStartHour > 23 || input.QuietEndHour < 0 || input.QuietEndHour > 23 {
		errs = append(errs, FieldError{"quiet_hours", "hours must be 0-23"})
	}
	if input.QuietStartMinute < 0 || input.QuietStartMinute > 59 || input.QuietEndMinute < 0 || input.QuietEndMinute > 59 {
		errs = append(errs, FieldError{"quiet_hours", "minutes must be 0-59"})
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	p := entity.Policy{
		PriceCents:       input.PriceCents,
		Currency:         input.Currency,
		TTLHours:         input.TTLHours,
		QuietStartHour:   input.QuietStartHour,
		QuietStartMinute: input.QuietStartMinute,
		QuietEndHour:     input.QuietEndHour,
		QuietEndMinute:   input.QuietEndMinute,
		CreatedAt:        time.Now(),
	}
	if err := uc.Policy.Save(ctx, p); err != nil {
		return nil, err
	}

	uc.Logger.Info("lead policy updated",
		zap.Int("price_cents", p.PriceCents),
		zap.Int("ttl_hours", p.TTLHours))
	return &p, nil
}
