package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Severity levels for operational alerts.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// IAlertMailer is the alerting channel for operational thresholds. Channel
// mechanics live here; callers only know notify(subject, body, severity).
type IAlertMailer interface {
	Notify(subject, body, severity string) error
}

type alertMailer struct {
	dialer      *gomail.Dialer
	senderEmail string
	recipient   string
}

func NewAlertMailer(host string, port int, username, password, senderEmail, recipient string) IAlertMailer {
	d := gomail.NewDialer(host, port, username, password)

	return &alertMailer{
		dialer:      d,
		senderEmail: senderEmail,
		recipient:   recipient,
	}
}

func (s *alertMailer) Notify(subject, body, severity string) error {
	if s.recipient == "" {
		return fmt.Errorf("no alert recipient configured")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", s.recipient)
	m.SetHeader("Subject", fmt.Sprintf("[%s] %s", severity, subject))

	html := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>MarketAssist Alert</h2>
			<p><strong>Severity:</strong> %s</p>
			<p>%s</p>
		</div>
	`, severity, body)

	m.SetBody("text/html", html)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send alert %q: %v\n", subject, err)
		return err
	}

	fmt.Printf("[MAILER] Alert sent: %s\n", subject)
	return nil
}
