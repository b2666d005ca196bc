package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/glowlocal/lead-payments/internal/infra/queue"
)

func validLeadInput() CreateLeadInput {
	return CreateLeadInput{
		ID:          "lead-100",
		City:        "Austin",
		Service:     "deep tissue massage",
		TimeWindow:  "weekday evenings",
		Budget:      "$80-120",
		ClientName:  "Jane Doe",
		ClientPhone: "+15125550100",
		ClientEmail: "jane@example.com",
		Address:     "123 Oak Street",
		Notes:       "Call me at 555-0100 or email jane@example.com, sore back",
		ProviderIDs: []string{"prov-1", "prov-2"},
	}
}

func TestCreateLeadRedactsAndQueues(t *testing.T) {
	ctx := context.Background()
	mockLeads := new(MockLeadRepository)
	mockQueue := new(MockQueueProducer)

	mockLeads.On("Create", ctx, mock.Anything).Return(nil)
	mockQueue.On("PublishTeaserDispatch", ctx, mock.Anything).Return(nil)

	uc := NewCreateLeadUseCase(mockLeads, mockQueue, zap.NewNop())

	output, err := uc.Execute(ctx, validLeadInput())

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.Equal(t, "lead-100", output.ID)
	assert.Equal(t, 2, output.Queued)
	assert.True(t, output.IsActive)

	// The stored snippet must never leak the raw contact details.
	assert.Contains(t, output.Snippet, "[PHONE]")
	assert.Contains(t, output.Snippet, "[EMAIL]")
	assert.NotContains(t, output.Snippet, "555-0100")
	assert.NotContains(t, output.Snippet, "jane@example.com")

	mockQueue.AssertCalled(t, "PublishTeaserDispatch", ctx, queue.TeaserDispatchPayload{LeadID: "lead-100", ProviderID: "prov-1"})
	mockQueue.AssertCalled(t, "PublishTeaserDispatch", ctx, queue.TeaserDispatchPayload{LeadID: "lead-100", ProviderID: "prov-2"})
	mockQueue.AssertNumberOfCalls(t, "PublishTeaserDispatch", 2)
}

func TestCreateLeadValidationFailure(t *testing.T) {
	ctx := context.Background()
	mockLeads := new(MockLeadRepository)
	mockQueue := new(MockQueueProducer)

	uc := NewCreateLeadUseCase(mockLeads, mockQueue, zap.NewNop())

	input := validLeadInput()
	input.City = ""
	input.ClientPhone = "  "

	output, err := uc.Execute(ctx, input)

	assert.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "city")
	assert.Contains(t, err.Error(), "client_phone")

	mockLeads.AssertNotCalled(t, "Create")
	mockQueue.AssertNotCalled(t, "PublishTeaserDispatch")
}

func TestCreateLeadDuplicateID(t *testing.T) {
	ctx := context.Background()
	mockLeads := new(MockLeadRepository)
	mockQueue := new(MockQueueProducer)

	mockLeads.On("Create", ctx, mock.Anything).Return(&ConflictError{Resource: "lead", ID: "lead-100"})

	uc := NewCreateLeadUseCase(mockLeads, mockQueue, zap.NewNop())

	output, err := uc.Execute(ctx, validLeadInput())

	assert.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, IsConflictError(err))
	mockQueue.AssertNotCalled(t, "PublishTeaserDispatch")
}

func TestCreateLeadSurvivesEnqueueFailure(t *testing.T) {
	ctx := context.Background()
	mockLeads := new(MockLeadRepository)
	mockQueue := new(MockQueueProducer)

	mockLeads.On("Create", ctx, mock.Anything).Return(nil)
	mockQueue.On("PublishTeaserDispatch", ctx, queue.TeaserDispatchPayload{LeadID: "lead-100", ProviderID: "prov-1"}).
		Return(errors.New("broker down"))
	mockQueue.On("PublishTeaserDispatch", ctx, queue.TeaserDispatchPayload{LeadID: "lead-100", ProviderID: "prov-2"}).
		Return(nil)

	uc := NewCreateLeadUseCase(mockLeads, mockQueue, zap.NewNop())

	output, err := uc.Execute(ctx, validLeadInput())

	// The lead is stored; a failed enqueue just lowers the queued count.
	assert.NoError(t, err)
	assert.Equal(t, 1, output.Queued)
}

func TestCreateLeadSnippetIsDeterministic(t *testing.T) {
	ctx := context.Background()

	run := func() string {
		mockLeads := new(MockLeadRepository)
		mockQueue := new(MockQueueProducer)
		mockLeads.On("Create", ctx, mock.Anything).Return(nil)
		mockQueue.On("PublishTeaserDispatch", ctx, mock.Anything).Return(nil)

		uc := NewCreateLeadUseCase(mockLeads, mockQueue, zap.NewNop())
		out, err := uc.Execute(ctx, validLeadInput())
		assert.NoError(t, err)
		return out.Snippet
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
	assert.False(t, strings.Contains(first, "@"))
}
