package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/glowlocal/lead-payments/internal/entity"
)

type replyMocks struct {
	leads        *MockLeadRepository
	interactions *MockInteractionRepository
	providers    *MockProviderRepository
	optOuts      *MockOptOutRepository
	policy       *MockPolicyRepository
	gateway      *MockPaymentLinkGateway
	sms          *MockSMSSender
}

func newReplyUC(at time.Time) (*HandleReplyUseCase, *replyMocks) {
	m := &replyMocks{
		leads:        new(MockLeadRepository),
		interactions: new(MockInteractionRepository),
		providers:    new(MockProviderRepository),
		optOuts:      new(MockOptOutRepository),
		policy:       new(MockPolicyRepository),
		gateway:      new(MockPaymentLinkGateway),
		sms:          new(MockSMSSender),
	}
	uc := NewHandleReplyUseCase(m.leads, m.interactions, m.providers, m.optOuts, m.policy, m.gateway, m.sms, zap.NewNop())
	uc.now = func() time.Time { return at }
	return uc, m
}

func teaserInteraction() *entity.Interaction {
	return &entity.Interaction{
		LeadID:     "lead-1",
		ProviderID: "prov-1",
		Status:     entity.StatusTeaserSent,
	}
}

func TestReplyYesMintsExactlyOneLink(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	uc, m := newReplyUC(now)

	m.providers.On("FindByPhone", ctx, "+15125550199").Return(utcProvider(), nil)
	m.interactions.On("FindLatestOpenByPhone", ctx, "+15125550199").Return(teaserInteraction(), nil)
	m.policy.On("Latest", ctx).Return(entity.DefaultPolicy(), nil)
	m.leads.On("FindByID", ctx, "lead-1").Return(activeLead(now), nil)
	m.interactions.On("ClaimPaymentLink", ctx, "lead-1", "prov-1", mock.Anything, 2000, "usd").Return(true, nil)
	m.gateway.On("IssueLeadAccessLink", mock.Anything, mock.Anything).Return(&LeadCheckoutOutput{
		URL:       "https://checkout.stripe.com/c/pay_abc",
		SessionID: "cs_test_abc",
	}, nil)
	m.interactions.On("SavePaymentLink", mock.Anything, "lead-1", "prov-1", "https://checkout.stripe.com/c/pay_abc", "cs_test_abc").Return(nil)
	m.sms.On("Send", ctx, "+15125550199", mock.Anything).Return(nil)

	output, err := uc.Execute(ctx, ReplyInput{FromPhone: "+15125550199", Body: "Y"})

	assert.NoError(t, err)
	assert.Equal(t, ReplyLinkSent, output.Action)
	assert.Equal(t, "https://checkout.stripe.com/c/pay_abc", output.PaymentLinkURL)

	// The idempotency key claimed on the row is the one handed to the gateway.
	claimedKey := m.interactions.Calls[1].Arguments.String(3)
	minted := m.gateway.Calls[0].Arguments.Get(1).(LeadCheckoutInput)
	assert.Equal(t, claimedKey, minted.IdempotencyKey)
	assert.Equal(t, 2000, minted.PriceCents)
	assert.Equal(t, "usd", minted.Currency)
	m.gateway.AssertNumberOfCalls(t, "IssueLeadAccessLink", 1)

	sent := m.sms.Calls[0].Arguments.String(2)
	assert.Contains(t, sent, "https://checkout.stripe.com/c/pay_abc")
	assert.Contains(t, sent, "$20.00")
}

func TestReplyYesResendsExistingLinkVerbatim(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	uc, m := newReplyUC(now)

	ttl := now.Add(6 * time.Hour)
	it := &entity.Interaction{
		LeadID:         "lead-1",
		ProviderID:     "prov-1",
		Status:         entity.StatusPaymentLinkSent,
		PaymentLinkURL: "https://checkout.stripe.com/c/pay_abc",
		IdempotencyKey: "key-1",
		PriceCents:     1500, // snapshot from before a price change
		TTLExpiresAt:   &ttl,
	}

	m.providers.On("FindByPhone", ctx, "+15125550199").Return(utcProvider(), nil)
	m.interactions.On("FindByPair", ctx, "lead-1", "prov-1").Return(it, nil)
	m.policy.On("Latest", ctx).Return(entity.DefaultPolicy(), nil)
	m.sms.On("Send", ctx, "+15125550199", mock.Anything).Return(nil)

	output, err := uc.Execute(ctx, ReplyInput{FromPhone: "+15125550199", Body: "YES Lead #lead-1"})

	assert.NoError(t, err)
	assert.Equal(t, ReplyLinkResent, output.Action)
	assert.Equal(t, "https://checkout.stripe.com/c/pay_abc", output.PaymentLinkURL)

	// The resend quotes the snapshotted price, not the current policy price.
	sent := m.sms.Calls[0].Arguments.String(2)
	assert.Contains(t, sent, "$15.00")

	// No second checkout session and no status movement.
	m.gateway.AssertNumberOfCalls(t, "IssueLeadAccessLink", 0)
	m.interactions.AssertNumberOfCalls(t, "ClaimPaymentLink", 0)
	m.interactions.AssertNumberOfCalls(t, "Transition", 0)
}

func TestReplyYesResendQuotesSnapshottedCurrency(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	uc, m := newReplyUC(now)

	ttl := now.Add(6 * time.Hour)
	it := &entity.Interaction{
		LeadID:         "lead-1",
		ProviderID:     "prov-1",
		Status:         entity.StatusPaymentLinkSent,
		PaymentLinkURL: "https://checkout.stripe.com/c/pay_abc",
		PriceCents:     1500,
		Currency:       "cad", // issued before the policy moved to USD
		TTLExpiresAt:   &ttl,
	}

	m.providers.On("FindByPhone", ctx, "+15125550199").Return(utcProvider(), nil)
	m.interactions.On("FindByPair", ctx, "lead-1", "prov-1").Return(it, nil)
	m.policy.On("Latest", ctx).Return(entity.DefaultPolicy(), nil)
	m.sms.On("Send", ctx, "+15125550199", mock.Anything).Return(nil)

	output, err := uc.Execute(ctx, ReplyInput{FromPhone: "+15125550199", Body: "Y Lead #lead-1"})

	assert.NoError(t, err)
	assert.Equal(t, ReplyLinkResent, output.Action)
	sent := m.sms.Calls[0].Arguments.String(2)
	assert.Contains(t, sent, "15.00 CAD")
	assert.NotContains(t, sent, "$15.00")
}

func TestReplyYesAgainstStaleLinkExpiresAndNotifies(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	uc, m := newReplyUC(now)

	ttl := now.Add(-time.Hour)
	it := &entity.Interaction{
		LeadID:         "lead-1",
		ProviderID:     "prov-1",
		Status:         entity.StatusPaymentLinkSent,
		PaymentLinkURL: "https://checkout.stripe.com/c/pay_abc",
		PriceCents:     2000,
		TTLExpiresAt:   &ttl,
	}

	m.providers.On("FindByPhone", ctx, "+15125550199").Return(utcProvider(), nil)
	m.interactions.On("FindByPair", ctx, "lead-1", "prov-1").Return(it, nil)
	m.policy.On("Latest", ctx).Return(entity.DefaultPolicy(), nil)
	m.interactions.On("Transition", ctx, "lead-1", "prov-1", entity.OpenLinkStatuses(), entity.StatusExpired).Return(true, nil)
	m.sms.On("Send", ctx, "+15125550199", mock.Anything).Return(nil)

	output, err := uc.Execute(ctx, ReplyInput{FromPhone: "+15125550199", Body: "YES Lead #lead-1"})

	assert.NoError(t, err)
	assert.Equal(t, ReplyLinkExpired, output.Action)
	assert.Equal(t, "lead-1", output.LeadID)

	// The dead URL is never resent and no new session is minted.
	sent := m.sms.Calls[0].Arguments.String(2)
	assert.Contains(t, sent, "expired")
	assert.NotContains(t, sent, "https://checkout.stripe.com/c/pay_abc")
	m.gateway.AssertNumberOfCalls(t, "IssueLeadAccessLink", 0)
	m.interactions.AssertNumberOfCalls(t, "ClaimPaymentLink", 0)
}

func TestReplyYesLosingConcurrentClaimResendsWinner(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	uc, m := newReplyUC(now)

	m.providers.On("FindByPhone", ctx, "+15125550199").Return(utcProvider(), nil)
	m.interactions.On("FindLatestOpenByPhone", ctx, "+15125550199").Return(teaserInteraction(), nil)
	m.policy.On("Latest", ctx).Return(entity.DefaultPolicy(), nil)
	m.leads.On("FindByID", ctx, "lead-1").Return(activeLead(now), nil)
	m.interactions.On("ClaimPaymentLink", ctx, "lead-1", "prov-1", mock.Anything, 2000, "usd").Return(false, nil)
	m.interactions.On("FindByPair", ctx, "lead-1", "prov-1").Return(&entity.Interaction{
		LeadID:         "lead-1",
		ProviderID:     "prov-1",
		Status:         entity.StatusPaymentLinkSent,
		PaymentLinkURL: "https://checkout.stripe.com/c/pay_winner",
	}, nil)
	m.sms.On("Send", ctx, "+15125550199", mock.Anything).Return(nil)

	output, err := uc.Execute(ctx, ReplyInput{FromPhone: "+15125550199", Body: "Y"})

	assert.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay_winner", output.PaymentLinkURL)
	m.gateway.AssertNumberOfCalls(t, "IssueLeadAccessLink", 0)
}

func TestReplyYesReleasesClaimWhenMintFails(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	uc, m := newReplyUC(now)

	m.providers.On("FindByPhone", ctx, "+15125550199").Return(utcProvider(), nil)
	m.interactions.On("FindLatestOpenByPhone", ctx, "+15125550199").Return(teaserInteraction(), nil)
	m.policy.On("Latest", ctx).Return(entity.DefaultPolicy(), nil)
	m.leads.On("FindByID", ctx, "lead-1").Return(activeLead(now), nil)
	m.interactions.On("ClaimPaymentLink", ctx, "lead-1", "prov-1", mock.Anything, 2000, "usd").Return(true, nil)
	m.gateway.On("IssueLeadAccessLink", mock.Anything, mock.Anything).Return(nil, errors.New("stripe unavailable"))
	m.interactions.On("ReleaseClaim", mock.Anything, "lead-1", "prov-1").Return(nil)

	output, err := uc.Execute(ctx, ReplyInput{FromPhone: "+15125550199", Body: "Y"})

	assert.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, IsUpstreamError(err))
	m.interactions.AssertCalled(t, "ReleaseClaim", mock.Anything, "lead-1", "prov-1")
	m.sms.AssertNumberOfCalls(t, "Send", 0)
}

func TestReplyNoExpiresThisPairOnly(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	uc, m := newReplyUC(now)

	m.providers.On("FindByPhone", ctx, "+15125550199").Return(utcProvider(), nil)
	m.interactions.On("FindLatestOpenByPhone", ctx, "+15125550199").Return(teaserInteraction(), nil)
	m.interactions.On("Transition", ctx, "lead-1", "prov-1", entity.ConsentStatuses(), entity.StatusExpired).Return(true, nil)
	m.sms.On("Send", ctx, "+15125550199", mock.Anything).Return(nil)

	output, err := uc.Execute(ctx, ReplyInput{FromPhone: "+15125550199", Body: "n"})

	assert.NoError(t, err)
	assert.Equal(t, ReplyDeclined, output.Action)
	assert.Equal(t, "lead-1", output.LeadID)
	m.interactions.AssertNumberOfCalls(t, "SuppressForProvider", 0)
}

func TestReplyStopSuppressesEverything(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	uc, m := newReplyUC(now)

	m.providers.On("FindByPhone", ctx, "+15125550199").Return(utcProvider(), nil)
	m.optOuts.On("Add", ctx, "prov-1").Return(nil)
	m.interactions.On("SuppressForProvider", ctx, "prov-1").Return(int64(3), nil)
	m.sms.On("Send", ctx, "+15125550199", mock.Anything).Return(nil)

	output, err := uc.Execute(ctx, ReplyInput{FromPhone: "+15125550199", Body: "STOP"})

	assert.NoError(t, err)
	assert.Equal(t, ReplyOptedOut, output.Action)

	// A repeated STOP is a harmless no-op.
	m.interactions.On("SuppressForProvider", ctx, "prov-1").Return(int64(0), nil)
	output, err = uc.Execute(ctx, ReplyInput{FromPhone: "+15125550199", Body: "stop"})
	assert.NoError(t, err)
	assert.Equal(t, ReplyOptedOut, output.Action)
}

func TestReplyUnknownSendsNothing(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	uc, m := newReplyUC(now)

	m.providers.On("FindByPhone", ctx, "+15125550199").Return(utcProvider(), nil)

	output, err := uc.Execute(ctx, ReplyInput{FromPhone: "+15125550199", Body: "MAYBE LATER"})

	assert.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, ErrUnknownReply))
	m.sms.AssertNumberOfCalls(t, "Send", 0)
}

func TestReplyYesWithNoOpenInteraction(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	uc, m := newReplyUC(now)

	m.providers.On("FindByPhone", ctx, "+15125550199").Return(utcProvider(), nil)
	m.interactions.On("FindLatestOpenByPhone", ctx, "+15125550199").Return(nil, &NotFoundError{Resource: "interaction", ID: "+15125550199"})
	m.sms.On("Send", ctx, "+15125550199", mock.Anything).Return(nil)

	output, err := uc.Execute(ctx, ReplyInput{FromPhone: "+15125550199", Body: "Y"})

	assert.NoError(t, err)
	assert.Equal(t, ReplyNoActiveLead, output.Action)
	m.gateway.AssertNumberOfCalls(t, "IssueLeadAccessLink", 0)
}

func TestReplyFromUnknownNumber(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	uc, m := newReplyUC(now)

	m.providers.On("FindByPhone", ctx, "+19999999999").Return(nil, &NotFoundError{Resource: "provider", ID: "+19999999999"})

	output, err := uc.Execute(ctx, ReplyInput{FromPhone: "+19999999999", Body: "Y"})

	assert.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, IsNotFoundError(err))
	m.sms.AssertNumberOfCalls(t, "Send", 0)
}

func TestReplyLookupInfraErrorSurfaces(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	uc, m := newReplyUC(now)

	m.providers.On("FindByPhone", ctx, "+15125550199").Return(nil, errors.New("pq: the database system is shutting down"))

	output, err := uc.Execute(ctx, ReplyInput{FromPhone: "+15125550199", Body: "STOP"})

	assert.Error(t, err)
	assert.Nil(t, output)
	assert.False(t, IsNotFoundError(err))
	m.optOuts.AssertNumberOfCalls(t, "Add", 0)
}
