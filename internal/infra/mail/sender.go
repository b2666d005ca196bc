package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// AlertSender emails operators about paid-but-undeliverable interactions.
// This is the manual-intervention channel: money has moved, no deliverable
// went out, and nothing retries automatically.
type AlertSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	OpsAddr  string
}

func NewAlertSender(host string, port int, user, password, from, opsAddr string) *AlertSender {
	return &AlertSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		OpsAddr:  opsAddr,
	}
}

func (s *AlertSender) SendRevealFailure(leadID, providerID, reason string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.OpsAddr)
	m.SetHeader("Subject", fmt.Sprintf("[URGENT] Paid lead %s not revealed", leadID))
	m.SetBody("text/plain", fmt.Sprintf(
		"A paid lead purchase could not be revealed and needs manual follow-up.\n\n"+
			"Lead:     %s\nProvider: %s\nReason:   %s\n\n"+
			"The payment has completed; deliver the contact details manually or refund.\n",
		leadID, providerID, reason))

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send alert mail: %w", err)
	}
	return nil
}
