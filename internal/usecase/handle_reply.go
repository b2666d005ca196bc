package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/glowlocal/lead-payments/internal/entity"
	"github.com/glowlocal/lead-payments/internal/notify"
)

type ReplyInput struct {
	FromPhone string `json:"from_phone"`
	Body      string `json:"body"`
	LeadID    string `json:"lead_id,omitempty"` // optional; else taken from the Lead #<id> token
}

type ReplyAction string

const (
	ReplyLinkSent     ReplyAction = "payment_link_sent"
	ReplyLinkResent   ReplyAction = "payment_link_resent"
	ReplyLinkExpired  ReplyAction = "payment_link_expired"
	ReplyDeclined     ReplyAction = "declined"
	ReplyOptedOut     ReplyAction = "opted_out"
	ReplyNoActiveLead ReplyAction = "no_active_lead"
)

type ReplyOutput struct {
	Action         ReplyAction `json:"action"`
	LeadID         string      `json:"lead_id,omitempty"`
	ProviderID     string      `json:"provider_id,omitempty"`
	PaymentLinkURL string      `json:"payment_link_url,omitempty"`
}

// ErrUnknownReply marks a reply the state machine does not recognize. No SMS
// goes back to the provider (avoids loops); the caller logs it for review.
var ErrUnknownReply = errors.New("unknown reply")

// errClaimLost is returned inside the link saga when another concurrent reply
// won the claim for the same pair.
var errClaimLost = errors.New("payment link claim lost")

var leadTokenRe = regexp.MustCompile(`Lead #([A-Za-z0-9_-]+)`)

type HandleReplyUseCase struct {
	Leads        LeadRepositoryInterface
	Interactions InteractionRepositoryInterface
	Providers    ProviderRepositoryInterface
	OptOuts      OptOutRepositoryInterface
	Policy       PolicyRepositoryInterface
	Gateway      PaymentLinkGateway
	SMS          notify.SMSSender
	Logger       *zap.Logger

	now func() time.Time
}

func NewHandleReplyUseCase(
	leads LeadRepositoryInterface,
	interactions InteractionRepositoryInterface,
	providers ProviderRepositoryInterface,
	optOuts OptOutRepositoryInterface,
	policy PolicyRepositoryInterface,
	gateway PaymentLinkGateway,
	sms notify.SMSSender,
	logger *zap.Logger,
) *HandleReplyUseCase {
	return &HandleReplyUseCase{
		Leads:        leads,
		Interactions: interactions,
		Providers:    providers,
		OptOuts:      optOuts,
		Policy:       policy,
		Gateway:      gateway,
		SMS:          sms,
		Logger:       logger,
		now:          time.Now,
	}
}

func (uc *HandleReplyUseCase) Execute(ctx context.Context, input ReplyInput) (*ReplyOutput, error) {
	// Classify on the first word only: outbound messages embed a
	// "Lead #<id>" token, so real replies look like "Y Lead #abc".
	keyword := ""
	if fields := strings.Fields(strings.ToUpper(input.Body)); len(fields) > 0 {
		keyword = fields[0]
	}

	// The repository returns a typed NotFoundError for an unknown number;
	// anything else is an infrastructure failure and must surface so the
	// vendor redelivers instead of dropping the reply.
	provider, err := uc.Providers.FindByPhone(ctx, input.FromPhone)
	if err != nil {
		return nil, err
	}

	switch keyword {
	case "STOP":
		return uc.optOut(ctx, provider)
	case "Y", "YES":
		return uc.consent(ctx, provider, input)
	case "N", "NO":
		return uc.decline(ctx, provider, input)
	default:
		return nil, fmt.Errorf("%w: provider %s sent %q", ErrUnknownReply, provider.ID, input.Body)
	}
}

// optOut is global and permanent for the provider: every non-terminal
// interaction is suppressed and no future teaser will reach them. A repeated
// STOP is a no-op, not an error.
func (uc *HandleReplyUseCase) optOut(ctx context.Context, provider *entity.Provider) (*ReplyOutput, error) {
	if err := uc.OptOuts.Add(ctx, provider.ID); err != nil {
		return nil, err
	}
	suppressed, err := uc.Interactions.SuppressForProvider(ctx, provider.ID)
	if err != nil {
		return nil, err
	}

	uc.Logger.Info("provider opted out",
		zap.String("provider_id", provider.ID),
		zap.Int64("interactions_suppressed", suppressed))

	if err := uc.SMS.Send(ctx, provider.Phone, notify.RenderOptOutAck()); err != nil {
		// Opt-out is already durable; the ack is best effort.
		uc.Logger.Warn("opt-out ack send failed", zap.String("provider_id", provider.ID), zap.Error(err))
	}
	return &ReplyOutput{Action: ReplyOptedOut, ProviderID: provider.ID}, nil
}

func (uc *HandleReplyUseCase) consent(ctx context.Context, provider *entity.Provider, input ReplyInput) (*ReplyOutput, error) {
	it, err := uc.resolveInteraction(ctx, provider, input)
	if err != nil {
		return nil, err
	}
	if it == nil {
		if err := uc.SMS.Send(ctx, provider.Phone, notify.RenderNoActiveLead()); err != nil {
			uc.Logger.Warn("no-active-lead reply send failed", zap.Error(err))
		}
		return &ReplyOutput{Action: ReplyNoActiveLead, ProviderID: provider.ID}, nil
	}

	now := uc.now()

	// One policy snapshot for the whole operation.
	policy, err := uc.Policy.Latest(ctx)
	if err != nil {
		return nil, err
	}

	// Idempotent reuse: an open interaction with a live link resends the
	// exact same URL and leaves status untouched. Repeated Y replies never
	// mint a second checkout session. The snapshotted price and currency
	// are shown, not the current policy: that is what the link will charge.
	if it.PaymentLinkURL != "" && statusIn(it.Status, entity.OpenLinkStatuses()) && !it.LinkStale(now) {
		currency := it.Currency
		if currency == "" {
			currency = policy.Currency
		}
		text := notify.RenderPaymentLink(it.LeadID, it.PaymentLinkURL, it.PriceCents, currency)
		if err := uc.SMS.Send(ctx, provider.Phone, text); err != nil {
			return nil, &UpstreamError{Service: "sms", Err: err}
		}
		return &ReplyOutput{
			Action:         ReplyLinkResent,
			LeadID:         it.LeadID,
			ProviderID:     provider.ID,
			PaymentLinkURL: it.PaymentLinkURL,
		}, nil
	}

	// A link past its TTL is never reused. The pair is closed out and the
	// provider told, so a Y against a dead link still gets an answer.
	if statusIn(it.Status, entity.OpenLinkStatuses()) && it.LinkStale(now) {
		return uc.expireStaleLink(ctx, provider, it)
	}

	if !statusIn(it.Status, entity.ConsentStatuses()) && !uc.recoverableClaim(it) {
		return nil, &entity.IllegalTransitionError{From: it.Status, To: entity.StatusPaymentLinkSent}
	}

	lead, err := uc.Leads.FindByID(ctx, it.LeadID)
	if err != nil {
		return nil, err
	}
	if lead.Expired(now) {
		return nil, &NotFoundError{Resource: "active lead", ID: it.LeadID}
	}

	url, err := uc.issueLink(ctx, it, policy)
	if errors.Is(err, errClaimLost) {
		// A concurrent Y won the race; resend whatever it minted.
		fresh, ferr := uc.Interactions.FindByPair(ctx, it.LeadID, it.ProviderID)
		if ferr != nil || fresh.PaymentLinkURL == "" {
			return nil, &UpstreamError{Service: "store", Err: err}
		}
		url = fresh.PaymentLinkURL
	} else if err != nil {
		return nil, err
	}

	text := notify.RenderPaymentLink(it.LeadID, url, policy.PriceCents, policy.Currency)
	if err := uc.SMS.Send(ctx, provider.Phone, text); err != nil {
		// Link is saved; a retried Y resends it without minting again.
		return nil, &UpstreamError{Service: "sms", Err: err}
	}

	uc.Logger.Info("payment link sent",
		zap.String("lead_id", it.LeadID),
		zap.String("provider_id", provider.ID))

	return &ReplyOutput{
		Action:         ReplyLinkSent,
		LeadID:         it.LeadID,
		ProviderID:     provider.ID,
		PaymentLinkURL: url,
	}, nil
}

// issueLink claims the pair's single link slot, mints the checkout session,
// and saves it, with compensation releasing the slot when the mint fails.
// Exactly one of any number of concurrent claims reaches the gateway.
func (uc *HandleReplyUseCase) issueLink(ctx context.Context, it *entity.Interaction, policy entity.Policy) (string, error) {
	idemKey := it.IdempotencyKey
	alreadyClaimed := uc.recoverableClaim(it)
	if !alreadyClaimed {
		idemKey = uuid.New().String()
	}

	var minted *LeadCheckoutOutput

	tx := NewTransaction(uc.Logger)

	tx.AddOperation("claim link slot", func(ctx context.Context) error {
		if alreadyClaimed {
			// Crash recovery: slot claimed earlier but the link was never
			// saved. The stored idempotency key makes the re-mint safe.
			return nil
		}
		claimed, err := uc.Interactions.ClaimPaymentLink(ctx, it.LeadID, it.ProviderID, idemKey, policy.PriceCents, policy.Currency)
		if err != nil {
			return err
		}
		if !claimed {
			return errClaimLost
		}
		return nil
	})
	tx.AddCompensation("release link slot", func(ctx context.Context) error {
		return uc.Interactions.ReleaseClaim(ctx, it.LeadID, it.ProviderID)
	})

	tx.AddOperation("mint checkout session", func(ctx context.Context) error {
		out, err := uc.Gateway.IssueLeadAccessLink(ctx, LeadCheckoutInput{
			LeadID:         it.LeadID,
			ProviderID:     it.ProviderID,
			PriceCents:     policy.PriceCents,
			Currency:       policy.Currency,
			IdempotencyKey: idemKey,
		})
		if err != nil {
			return &UpstreamError{Service: "payment_gateway", Err: err}
		}
		minted = out
		return nil
	})
	tx.AddCompensation("abandon checkout session", func(ctx context.Context) error {
		// The session was never sent to anyone and expires on its own.
		uc.Logger.Warn("abandoning unsent checkout session",
			zap.String("session_id", minted.SessionID))
		return nil
	})

	tx.AddOperation("save payment link", func(ctx context.Context) error {
		return uc.Interactions.SavePaymentLink(ctx, it.LeadID, it.ProviderID, minted.URL, minted.SessionID)
	})

	if err := tx.Execute(ctx); err != nil {
		if errors.Is(err, errClaimLost) {
			return "", errClaimLost
		}
		return "", err
	}
	return minted.URL, nil
}

// expireStaleLink closes out an open pair whose link TTL has lapsed and tells
// the provider. A fresh teaser, not this pair, carries any re-offer.
func (uc *HandleReplyUseCase) expireStaleLink(ctx context.Context, provider *entity.Provider, it *entity.Interaction) (*ReplyOutput, error) {
	if _, err := uc.Interactions.Transition(ctx, it.LeadID, it.ProviderID, entity.OpenLinkStatuses(), entity.StatusExpired); err != nil {
		return nil, err
	}

	uc.Logger.Info("stale payment link expired on reply",
		zap.String("lead_id", it.LeadID),
		zap.String("provider_id", provider.ID))

	if err := uc.SMS.Send(ctx, provider.Phone, notify.RenderLinkExpired(it.LeadID)); err != nil {
		// The row is already expired; the notice is best effort.
		uc.Logger.Warn("expired-link notice send failed",
			zap.String("provider_id", provider.ID), zap.Error(err))
	}
	return &ReplyOutput{Action: ReplyLinkExpired, LeadID: it.LeadID, ProviderID: provider.ID}, nil
}

// recoverableClaim reports a row claimed by an earlier attempt that died
// before saving the link.
func (uc *HandleReplyUseCase) recoverableClaim(it *entity.Interaction) bool {
	return it.Status == entity.StatusPaymentLinkSent && it.PaymentLinkURL == "" && it.IdempotencyKey != ""
}

// decline expires this pair only; the same lead stays live for every other
// provider, and future leads still reach this provider.
func (uc *HandleReplyUseCase) decline(ctx context.Context, provider *entity.Provider, input ReplyInput) (*ReplyOutput, error) {
	it, err := uc.resolveInteraction(ctx, provider, input)
	if err != nil {
		return nil, err
	}
	if it == nil {
		if err := uc.SMS.Send(ctx, provider.Phone, notify.RenderNoActiveLead()); err != nil {
			uc.Logger.Warn("no-active-lead reply send failed", zap.Error(err))
		}
		return &ReplyOutput{Action: ReplyNoActiveLead, ProviderID: provider.ID}, nil
	}

	moved, err := uc.Interactions.Transition(ctx, it.LeadID, it.ProviderID, entity.ConsentStatuses(), entity.StatusExpired)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, &entity.IllegalTransitionError{From: it.Status, To: entity.StatusExpired}
	}

	if err := uc.SMS.Send(ctx, provider.Phone, notify.RenderDeclineAck(it.LeadID)); err != nil {
		uc.Logger.Warn("decline ack send failed", zap.Error(err))
	}
	return &ReplyOutput{Action: ReplyDeclined, LeadID: it.LeadID, ProviderID: provider.ID}, nil
}

// resolveInteraction finds the interaction a reply refers to: explicit lead
// id first, then a Lead #<id> token in the body, then the most recently
// contacted open interaction for the sender's phone. nil means no active lead.
func (uc *HandleReplyUseCase) resolveInteraction(ctx context.Context, provider *entity.Provider, input ReplyInput) (*entity.Interaction, error) {
	leadID := strings.TrimSpace(input.LeadID)
	if leadID == "" {
		if m := leadTokenRe.FindStringSubmatch(input.Body); m != nil {
			leadID = m[1]
		}
	}

	if leadID != "" {
		it, err := uc.Interactions.FindByPair(ctx, leadID, provider.ID)
		if err != nil {
			if IsNotFoundError(err) {
				return nil, nil
			}
			return nil, err
		}
		return it, nil
	}

	it, err := uc.Interactions.FindLatestOpenByPhone(ctx, provider.Phone)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return it, nil
}

func statusIn(s entity.InteractionStatus, set []entity.InteractionStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
