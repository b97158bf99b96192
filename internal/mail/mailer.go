// Package mail delivers the rendered report over SMTP. Delivery is
// per-recipient: one bad address or one rejected RCPT never blocks the
// others, and the caller gets a full accounting either way. The report
// therefore goes out as one message per recipient over a single SMTP
// session, not as one multi-recipient message; that is the trade for
// knowing exactly who got the report.
package mail

import (
	"context"
	"fmt"
	"io"
	netmail "net/mail"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/suportedesk/backend/internal/models"
)

type Attachment struct {
	Filename string
	Content  []byte
}

type Mailer struct {
	From   string
	Logger zerolog.Logger

	// dial is swapped out in tests.
	dial func() (gomail.SendCloser, error)
}

func NewMailer(host string, port int, user, password, from string, logger zerolog.Logger) *Mailer {
	d := gomail.NewDialer(host, port, user, password)
	return &Mailer{
		From:   from,
		Logger: logger,
		dial:   d.Dial,
	}
}

// Send delivers the report to every recipient individually. It returns
// an error only when the recipient list is empty or nobody could be
// reached at all; partial failure is reported through the result.
func (m *Mailer) Send(ctx context.Context, report models.RenderedReport, recipients []string, attachments ...Attachment) (models.DeliveryResult, error) {
	var result models.DeliveryResult

	valid, invalid := Partition(recipients)
	for _, f := range invalid {
		m.Logger.Warn().Str("recipient", f.Address).Str("reason", f.Reason).Msg("recipient rejected before dispatch")
	}
	result.Failed = append(result.Failed, invalid...)

	if len(valid) == 0 {
		return result, fmt.Errorf("mail: no valid recipients in %d configured", len(recipients))
	}

	sender, err := m.dial()
	if err != nil {
		for _, r := range valid {
			result.Failed = append(result.Failed, models.RecipientFailure{Address: r, Reason: fmt.Sprintf("smtp dial: %v", err)})
		}
		return result, fmt.Errorf("mail: dial: %w", err)
	}
	defer sender.Close()

	for _, recipient := range valid {
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, models.RecipientFailure{Address: recipient, Reason: err.Error()})
			continue
		}
		msg := m.compose(report, recipient, attachments)
		if err := gomail.Send(sender, msg); err != nil {
			m.Logger.Error().Err(err).Str("recipient", recipient).Msg("dispatch failed")
			result.Failed = append(result.Failed, models.RecipientFailure{Address: recipient, Reason: err.Error()})
			continue
		}
		result.Accepted = append(result.Accepted, recipient)
	}

	if len(result.Accepted) == 0 {
		return result, fmt.Errorf("mail: all %d recipients failed", len(valid))
	}
	return result, nil
}

func (m *Mailer) compose(report models.RenderedReport, recipient string, attachments []Attachment) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", report.Subject)
	msg.SetBody("text/plain", report.TextBody)
	msg.AddAlternative("text/html", report.HTMLBody)
	for _, a := range attachments {
		content := a.Content
		msg.Attach(a.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}
	return msg
}

// Partition splits the configured recipients into deliverable addresses
// and pre-validated failures.
func Partition(recipients []string) ([]string, []models.RecipientFailure) {
	var valid []string
	var failed []models.RecipientFailure
	for _, r := range recipients {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, err := netmail.ParseAddress(r); err != nil {
			failed = append(failed, models.RecipientFailure{Address: r, Reason: "invalid address"})
			continue
		}
		valid = append(valid, r)
	}
	return valid, failed
}
