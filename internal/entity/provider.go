package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Provider is a service provider that can purchase lead access. Reveal
// messages always go to Phone, never to whatever number sent the reply.
type Provider struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Timezone  string    `json:"timezone"` // IANA name, used for quiet hours
	Services  string    `json:"services,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const DefaultProviderTimezone = "America/Chicago"

func NewProvider(name, phone, timezone, services string) (*Provider, error) {
	if timezone == "" {
		timezone = DefaultProviderTimezone
	}
	p := &Provider{
		ID:        uuid.New().String(),
		Name:      name,
		Phone:     phone,
		Timezone:  timezone,
		Services:  services,
		CreatedAt: time.Now(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.Phone == "" {
		return errors.New("phone is required")
	}
	return nil
}

// OptOut is a permanent suppression record. Once present, no interaction may
// be created or advanced for the provider.
type OptOut struct {
	ProviderID string    `json:"provider_id"`
	CreatedAt  time.Time `json:"created_at"`
}
