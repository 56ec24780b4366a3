package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"
	"uk.co.dudmesh.contacts/internal/boot"
)

// Sender delivers a single plain-text message. Delivery is best-effort:
// callers dispatch in the background and only ever log a failure.
type Sender interface {
	Send(to string, subject string, body string) error
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(config *boot.Config) Sender {
	return &smtpSender{
		dialer: gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.SMTPUser, config.SMTPPassword),
		from:   config.MailFrom,
	}
}

func (s *smtpSender) Send(to string, subject string, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

// PasswordResetMessage builds the reset email carrying the token as a query
// parameter on the reset endpoint.
func PasswordResetMessage(baseURL string, token string) (string, string) {
	link := fmt.Sprintf("%s/auth/reset-password?token=%s", baseURL, token)
	return "Password Reset Request", "Click the link to reset your password: " + link
}

// ConfirmationMessage builds the signup confirmation email.
func ConfirmationMessage(baseURL string, token string) (string, string) {
	link := fmt.Sprintf("%s/auth/confirm?token=%s", baseURL, token)
	return "Confirm your email", "Click the link to confirm your email address: " + link
}
