package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"blogd/pkg/domain"
)

const sendTimeout = 30 * time.Second

// Dispatcher composes account email and hands it to a Sender on a background
// goroutine, so request handlers never block on delivery. Failures are logged
// rather than surfaced to the caller.
type Dispatcher struct {
	sender      Sender
	logger      *slog.Logger
	siteURL     string
	contactAddr string
}

func NewDispatcher(sender Sender, logger *slog.Logger, siteURL, contactAddr string) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sender:      sender,
		logger:      logger,
		siteURL:     strings.TrimRight(siteURL, "/"),
		contactAddr: contactAddr,
	}
}

// SendConfirmEmail mails a confirmation link to the account's address.
func (d *Dispatcher) SendConfirmEmail(account *domain.Account, token string) {
	body := fmt.Sprintf(
		"Hi %s,\n\nConfirm your email address by visiting the link below:\n\n%s/accounts/confirm-email/%s\n\nIf you did not register this account, ignore this email.\n",
		account.Username, d.siteURL, token,
	)
	d.dispatch(Message{To: account.Email, Subject: "Confirm your email", Body: body})
}

// SendResetPassword mails a password reset link to the account's address.
func (d *Dispatcher) SendResetPassword(account *domain.Account, token string) {
	body := fmt.Sprintf(
		"Hi %s,\n\nReset your password by visiting the link below:\n\n%s/accounts/reset-password/%s\n\nIf you did not request a reset, ignore this email.\n",
		account.Username, d.siteURL, token,
	)
	d.dispatch(Message{To: account.Email, Subject: "Reset your password", Body: body})
}

// SendContact forwards an enquiry to the configured contact address.
func (d *Dispatcher) SendContact(fromEmail, enquiry, body string) {
	msg := Message{
		To:      d.contactAddr,
		Subject: "Enquiry: " + enquiry,
		Body:    fmt.Sprintf("From: %s\n\n%s\n", fromEmail, body),
	}
	d.dispatch(msg)
}

func (d *Dispatcher) dispatch(msg Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := d.sender.Send(ctx, msg); err != nil {
			d.logger.Error("mail_delivery_failed",
				slog.String("to", msg.To),
				slog.String("subject", msg.Subject),
				slog.String("error", err.Error()),
			)
		}
	}()
}
