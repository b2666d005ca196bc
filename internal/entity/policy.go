package entity

import "time"

// Policy is the lead-access pricing and delivery policy. The store keeps it
// as an append-only table; reads take the most recent row and fall back to
// DefaultPolicy when none exists. Each operation reads one snapshot and uses
// it for its whole duration.
type Policy struct {
	PriceCents       int       `json:"price_cents"`
	Currency         string    `json:"currency"`
	TTLHours         int       `json:"ttl_hours"`
	QuietStartHour   int       `json:"quiet_start_hour"`
	QuietStartMinute int       `json:"quiet_start_minute"`
	QuietEndHour     int       `json:"quiet_end_hour"`
	QuietEndMinute   int       `json:"quiet_end_minute"`
	CreatedAt        time.Time `json:"created_at"`
}

// DefaultPolicy: $20.00, 24h link TTL, quiet 21:30-08:00 provider-local time.
func DefaultPolicy() Policy {
	return Policy{
		PriceCents:       2000,
		Currency:         "usd",
		TTLHours:         24,
		QuietStartHour:   21,
		QuietStartMinute: 30,
		QuietEndHour:     8,
		QuietEndMinute:   0,
	}
}

func (p Policy) TTL() time.Duration {
	return time.Duration(p.TTLHours) * time.Hour
}

// InQuietHours reports whether t (already in the provider's location) falls
// inside the quiet window. The window may cross midnight.
func (p Policy) InQuietHours(t time.Time) bool {
	minute := t.Hour()*60 + t.Minute()
	start := p.QuietStartHour*60 + p.QuietStartMinute
	end := p.QuietEndHour*60 + p.QuietEndMinute

	if start == end {
		return false
	}
	if start < end {
		return minute >= start && minute < end
	}
	// Crosses midnight, e.g. 21:30-08:00.
	return minute >= start || minute < end
}
