package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/glowlocal/lead-payments/internal/entity"
	"github.com/glowlocal/lead-payments/internal/infra/queue"
)

// MockLeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) ListActive(ctx context.Context, limit, offset int) ([]entity.LeadSummary, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LeadSummary), args.Error(1)
}

func (m *MockLeadRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	args := m.Called(ctx, since)
	return args.Int(0), args.Error(1)
}

// MockInteractionRepository
type MockInteractionRepository struct {
	mock.Mock
}

func (m *MockInteractionRepository) CreatePending(ctx context.Context, it *entity.Interaction) (bool, error) {
	args := m.Called(ctx, it)
	return args.Bool(0), args.Error(1)
}

func (m *MockInteractionRepository) FindByPair(ctx context.Context, leadID, providerID string) (*entity.Interaction, error) {
	args := m.Called(ctx, leadID, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Interaction), args.Error(1)
}

func (m *MockInteractionRepository) FindLatestOpenByPhone(ctx context.Context, providerPhone string) (*entity.Interaction, error) {
	args := m.Called(ctx, providerPhone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Interaction), args.Error(1)
}

func (m *MockInteractionRepository) MarkTeaserSent(ctx context.Context, leadID, providerID string, sentAt, ttlExpiresAt time.Time) (bool, error) {
	args := m.Called(ctx, leadID, providerID, sentAt, ttlExpiresAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockInteractionRepository) ClaimPaymentLink(ctx context.Context, leadID, providerID, idempotencyKey string, priceCents int, currency string) (bool, error) {
	args := m.Called(ctx, leadID, providerID, idempotencyKey, priceCents, currency)
	return args.Bool(0), args.Error(1)
}

func (m *MockInteractionRepository) SavePaymentLink(ctx context.Context, leadID, providerID, url, sessionID string) error {
	args := m.Called(ctx, leadID, providerID, url, sessionID)
	return args.Error(0)
}

func (m *MockInteractionRepository) ReleaseClaim(ctx context.Context, leadID, providerID string) error {
	args := m.Called(ctx, leadID, providerID)
	return args.Error(0)
}

func (m *MockInteractionRepository) Transition(ctx context.Context, leadID, providerID string, from []entity.InteractionStatus, to entity.InteractionStatus) (bool, error) {
	args := m.Called(ctx, leadID, providerID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockInteractionRepository) MarkPaid(ctx context.Context, leadID, providerID, paymentIntentID string, unlockedAt time.Time) (bool, error) {
	args := m.Called(ctx, leadID, providerID, paymentIntentID, unlockedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockInteractionRepository) SuppressForProvider(ctx context.Context, providerID string) (int64, error) {
	args := m.Called(ctx, providerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInteractionRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInteractionRepository) PurchaseStats(ctx context.Context, since time.Time) (int, int, error) {
	args := m.Called(ctx, since)
	return args.Int(0), args.Int(1), args.Error(2)
}

// MockProviderRepository
type MockProviderRepository struct {
	mock.Mock
}

func (m *MockProviderRepository) Create(ctx context.Context, p *entity.Provider) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProviderRepository) FindByID(ctx context.Context, id string) (*entity.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Provider), args.Error(1)
}

func (m *MockProviderRepository) FindByPhone(ctx context.Context, phone string) (*entity.Provider, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Provider), args.Error(1)
}

// MockOptOutRepository
type MockOptOutRepository struct {
	mock.Mock
}

func (m *MockOptOutRepository) Add(ctx context.Context, providerID string) error {
	args := m.Called(ctx, providerID)
	return args.Error(0)
}

func (m *MockOptOutRepository) Exists(ctx context.Context, providerID string) (bool, error) {
	args := m.Called(ctx, providerID)
	return args.Bool(0), args.Error(1)
}

// MockPolicyRepository
type MockPolicyRepository struct {
	mock.Mock
}

func (m *MockPolicyRepository) Latest(ctx context.Context) (entity.Policy, error) {
	args := m.Called(ctx)
	return args.Get(0).(entity.Policy), args.Error(1)
}

func (m *MockPolicyRepository) Save(ctx context.Context, p entity.Policy) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockPaymentLinkGateway
type MockPaymentLinkGateway struct {
	mock.Mock
}

func (m *MockPaymentLinkGateway) IssueLeadAccessLink(ctx context.Context, input LeadCheckoutInput) (*LeadCheckoutOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LeadCheckoutOutput), args.Error(1)
}

// MockSMSSender
type MockSMSSender struct {
	mock.Mock
}

func (m *MockSMSSender) Send(ctx context.Context, phone, text string) error {
	args := m.Called(ctx, phone, text)
	return args.Error(0)
}

// MockQueueProducer
type MockQueueProducer struct {
	mock.Mock
}

func (m *MockQueueProducer) PublishTeaserDispatch(ctx context.Context, payload queue.TeaserDispatchPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// MockAlertMailer
type MockAlertMailer struct {
	mock.Mock
}

func (m *MockAlertMailer) SendRevealFailure(leadID, providerID, reason string) error {
	args := m.Called(leadID, providerID, reason)
	return args.Error(0)
}
