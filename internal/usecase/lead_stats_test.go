package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestLeadStatsComputesConversion(t *testing.T) {
	ctx := context.Background()
	mockLeads := new(MockLeadRepository)
	mockInteractions := new(MockInteractionRepository)

	mockLeads.On("CountCreatedSince", ctx, mock.Anything).Return(40, nil)
	mockInteractions.On("PurchaseStats", ctx, mock.Anything).Return(10, 20000, nil)

	uc := NewLeadStatsUseCase(mockLeads, mockInteractions, zap.NewNop())

	output, err := uc.Execute(ctx, 30)

	assert.NoError(t, err)
	assert.Equal(t, 40, output.TotalLeads)
	assert.Equal(t, 10, output.PurchasedLeads)
	assert.Equal(t, 20000, output.RevenueCents)
	assert.InDelta(t, 0.25, output.ConversionRate, 0.0001)
}

func TestLeadStatsRejectsNonPositiveWindow(t *testing.T) {
	ctx := context.Background()
	uc := NewLeadStatsUseCase(new(MockLeadRepository), new(MockInteractionRepository), zap.NewNop())

	output, err := uc.Execute(ctx, 0)

	assert.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, IsValidationError(err))
}

func TestLeadStatsZeroLeadsZeroConversion(t *testing.T) {
	ctx := context.Background()
	mockLeads := new(MockLeadRepository)
	mockInteractions := new(MockInteractionRepository)

	mockLeads.On("CountCreatedSince", ctx, mock.Anything).Return(0, nil)
	mockInteractions.On("PurchaseStats", ctx, mock.Anything).Return(0, 0, nil)

	uc := NewLeadStatsUseCase(mockLeads, mockInteractions, zap.NewNop())

	output, err := uc.Execute(ctx, 7)

	assert.NoError(t, err)
	assert.Zero(t, output.ConversionRate)
}

func TestUpdatePolicyValidation(t *testing.T) {
	ctx := context.Background()
	mockPolicy := new(MockPolicyRepository)
	uc := NewUpdatePolicyUseCase(mockPolicy, zap.NewNop())

	output, err := uc.Execute(ctx, UpdatePolicyInput{
		PriceCents:     -1,
		Currency:       "",
		TTLHours:       0,
		QuietStartHour: 25,
	})

	assert.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, IsValidationError(err))
	mockPolicy.AssertNotCalled(t, "Save")
}

func TestUpdatePolicyAppendsRow(t *testing.T) {
	ctx := context.Background()
	mockPolicy := new(MockPolicyRepository)
	mockPolicy.On("Save", ctx, mock.Anything).Return(nil)

	uc := NewUpdatePolicyUseCase(mockPolicy, zap.NewNop())

	output, err := uc.Execute(ctx, UpdatePolicyInput{
		PriceCents:     2500,
		Currency:       "usd",
		TTLHours:       48,
		QuietStartHour: 22,
		QuietEndHour:   7,
	})

	assert.NoError(t, err)
	assert.Equal(t, 2500, output.PriceCents)
	assert.Equal(t, 48, output.TTLHours)
	mockPolicy.AssertNumberOfCalls(t, "Save", 1)
}
