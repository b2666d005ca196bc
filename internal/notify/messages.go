package notify

import (
	"fmt"
	"strings"

	"github.com/glowlocal/lead-payments/internal/entity"
)

// Render functions are pure: record(s) in, SMS text out. Teaser text must
// never include lead PII; it only ever sees the redacted snippet (defense in
// depth alongside the redactor). Every outbound message embeds a "Lead #<id>"
// token so replies can be matched back to an interaction.

func LeadToken(leadID string) string {
	return fmt.Sprintf("Lead #%s", leadID)
}

// RenderTeaser builds the PII-free solicitation sent to a provider.
func RenderTeaser(lead *entity.Lead, provider *entity.Provider, priceCents int, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: new client in %s looking for %s.", LeadToken(lead.ID), lead.City, lead.Service)
	if lead.TimeWindow != "" {
		fmt.Fprintf(&b, " Preferred time: %s.", lead.TimeWindow)
	}
	if lead.Budget != "" {
		fmt.Fprintf(&b, " Budget: %s.", lead.Budget)
	}
	if lead.Snippet != "" {
		fmt.Fprintf(&b, " Notes: %s", lead.Snippet)
	}
	fmt.Fprintf(&b, "\nReply Y to get their contact details for %s, N to pass, STOP to opt out.",
		formatAmount(priceCents, currency))
	return b.String()
}

// RenderPaymentLink builds the checkout-link message for a consenting provider.
func RenderPaymentLink(leadID, url string, priceCents int, currency string) string {
	return fmt.Sprintf("%s: pay %s to unlock the client's contact details (link expires in 24h): %s",
		LeadToken(leadID), formatAmount(priceCents, currency), url)
}

// RenderReveal builds the full-PII message sent only after confirmed payment.
func RenderReveal(lead *entity.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s unlocked. Client: %s, phone %s", LeadToken(lead.ID), lead.ClientName, lead.ClientPhone)
	if lead.ClientEmail != "" {
		fmt.Fprintf(&b, ", email %s", lead.ClientEmail)
	}
	if lead.Address != "" {
		fmt.Fprintf(&b, ". Address: %s", lead.Address)
	}
	if lead.Notes != "" {
		fmt.Fprintf(&b, ". Notes: %s", lead.Notes)
	}
	b.WriteString(". Please reach out promptly.")
	return b.String()
}

// RenderLinkExpired tells a provider their earlier payment link has lapsed.
func RenderLinkExpired(leadID string) string {
	return fmt.Sprintf("%s: that payment link has expired. If the lead is still open you'll receive a fresh notification.", LeadToken(leadID))
}

// RenderDeclineAck confirms an N reply.
func RenderDeclineAck(leadID string) string {
	return fmt.Sprintf("%s: no problem, we won't send this one again.", LeadToken(leadID))
}

// RenderOptOutAck confirms a STOP reply.
func RenderOptOutAck() string {
	return "You've been opted out and won't receive any more lead notifications. Text our support line to re-enroll."
}

// RenderNoActiveLead is sent when a reply can't be matched to any interaction.
func RenderNoActiveLead() string {
	return "We couldn't match your reply to an active lead. Nothing to do."
}

func formatAmount(cents int, currency string) string {
	if strings.EqualFold(currency, "usd") || currency == "" {
		return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
	}
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, strings.ToUpper(currency))
}
