package mail

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/suportedesk/backend/internal/models"
)

type fakeSender struct {
	sent   []string
	reject map[string]error
	closed bool
}

func (f *fakeSender) Send(from string, to []string, msg io.WriterTo) error {
	for _, r := range to {
		if err, ok := f.reject[r]; ok {
			return err
		}
	}
	f.sent = append(f.sent, to...)
	return nil
}

func (f *fakeSender) Close() error {
	f.closed = true
	return nil
}

func testMailer(sender gomail.SendCloser, dialErr error) *Mailer {
	return &Mailer{
		From:   "relatorios@suportedesk.com.br",
		Logger: zerolog.Nop(),
		dial: func() (gomail.SendCloser, error) {
			if dialErr != nil {
				return nil, dialErr
			}
			return sender, nil
		},
	}
}

var testReport = models.RenderedReport{
	Subject:  "📊 Relatório Semanal de Autonomia — 40 atendimentos (+42.9%)",
	HTMLBody: "<p>corpo</p>",
	TextBody: "corpo",
}

func TestSendAllAccepted(t *testing.T) {
	sender := &fakeSender{}
	m := testMailer(sender, nil)

	result, err := m.Send(context.Background(), testReport, []string{"gestor@empresa.com.br", "diretoria@empresa.com.br"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !result.Delivered() {
		t.Fatal("expected delivery")
	}
	if len(result.Accepted) != 2 || len(result.Failed) != 0 {
		t.Fatalf("result = %+v", result)
	}
	if !sender.closed {
		t.Fatal("sender must be closed")
	}
}

func TestSendIsolatesRejectedRecipient(t *testing.T) {
	sender := &fakeSender{reject: map[string]error{
		"gestor@empresa.com.br": errors.New("550 mailbox unavailable"),
	}}
	m := testMailer(sender, nil)

	result, err := m.Send(context.Background(), testReport, []string{"gestor@empresa.com.br", "diretoria@empresa.com.br"})
	if err != nil {
		t.Fatalf("partial failure must not error: %v", err)
	}
	if len(result.Accepted) != 1 || result.Accepted[0] != "diretoria@empresa.com.br" {
		t.Fatalf("accepted = %v", result.Accepted)
	}
	if len(result.Failed) != 1 || result.Failed[0].Address != "gestor@empresa.com.br" {
		t.Fatalf("failed = %+v", result.Failed)
	}
}

func TestSendInvalidAddressPreValidated(t *testing.T) {
	sender := &fakeSender{}
	m := testMailer(sender, nil)

	result, err := m.Send(context.Background(), testReport, []string{"not-an-address", "diretoria@empresa.com.br"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(result.Failed) != 1 || result.Failed[0].Reason != "invalid address" {
		t.Fatalf("failed = %+v", result.Failed)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %v", sender.sent)
	}
}

func TestSendDialFailureFailsEveryone(t *testing.T) {
	m := testMailer(nil, errors.New("connection refused"))

	result, err := m.Send(context.Background(), testReport, []string{"a@empresa.com.br", "b@empresa.com.br"})
	if err == nil {
		t.Fatal("expected error when nothing was delivered")
	}
	if result.Delivered() {
		t.Fatal("nothing was delivered")
	}
	if len(result.Failed) != 2 {
		t.Fatalf("failed = %+v", result.Failed)
	}
}

func TestSendNoValidRecipients(t *testing.T) {
	m := testMailer(&fakeSender{}, nil)
	if _, err := m.Send(context.Background(), testReport, []string{"", "bogus"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestPartition(t *testing.T) {
	valid, failed := Partition([]string{" gestor@empresa.com.br ", "", "sem-arroba", "diretoria@empresa.com.br"})
	if len(valid) != 2 {
		t.Fatalf("valid = %v", valid)
	}
	if len(failed) != 1 || failed[0].Address != "sem-arroba" {
		t.Fatalf("failed = %+v", failed)
	}
}
