package entity

import (
	"errors"
	"strings"
	"time"
)

// Lead is a client service inquiry. Public fields may be shown to providers
// before payment; private fields are only ever sent in a post-payment reveal.
type Lead struct {
	ID string `json:"id"` // caller-supplied, globally unique

	// Public
	City       string `json:"city"`
	Service    string `json:"service"`
	TimeWindow string `json:"time_window,omitempty"`
	Budget     string `json:"budget,omitempty"`
	Snippet    string `json:"snippet"` // PII-redacted, set once at creation

	// Private (never serialized on public reads)
	ClientName  string `json:"-"`
	ClientPhone string `json:"-"`
	ClientEmail string `json:"-"`
	Address     string `json:"-"`
	Notes       string `json:"-"`

	IsActive  bool      `json:"is_active"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// LeadRetention is how long a lead stays active regardless of any
// interaction's own TTL.
const LeadRetention = 7 * 24 * time.Hour

func NewLead(id, city, service, timeWindow, budget, clientName, clientPhone, clientEmail, address, notes, snippet string) (*Lead, error) {
	lead := &Lead{
		ID:          strings.TrimSpace(id),
		City:        city,
		Service:     service,
		TimeWindow:  timeWindow,
		Budget:      budget,
		Snippet:     snippet,
		ClientName:  clientName,
		ClientPhone: clientPhone,
		ClientEmail: clientEmail,
		Address:     address,
		Notes:       notes,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	lead.ExpiresAt = lead.CreatedAt.Add(LeadRetention)

	if err := lead.Validate(); err != nil {
		return nil, err
	}
	return lead, nil
}

func (l *Lead) Validate() error {
	if l.ID == "" {
		return errors.New("lead id is required")
	}
	if l.City == "" {
		return errors.New("city is required")
	}
	if l.Service == "" {
		return errors.New("service is required")
	}
	if l.ClientName == "" {
		return errors.New("client name is required")
	}
	if l.ClientPhone == "" {
		return errors.New("client phone is required")
	}
	return nil
}

// Expired reports whether the lead is past its retention window.
func (l *Lead) Expired(now time.Time) bool {
	return !l.IsActive || now.After(l.ExpiresAt)
}

// LeadSummary is the read-side listing row: public fields plus aggregated
// interaction counts. The counts are computed by a join, not stored.
type LeadSummary struct {
	ID            string    `json:"id"`
	City          string    `json:"city"`
	Service       string    `json:"service"`
	Snippet       string    `json:"snippet"`
	NotifiedCount int       `json:"notified_count"`
	PaidCount     int       `json:"paid_count"`
	CreatedAt     time.Time `json:"created_at"`
}
