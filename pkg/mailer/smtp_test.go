package mailer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hshinosa/kompetensia-api/pkg/config"
)

func TestNewSMTPMailerRequiresHostAndSender(t *testing.T) {
	_, err := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.org"})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestBuildMessageHeaders(t *testing.T) {
	m, err := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.org", From: "Kompetensia <no-reply@example.org>"})
	require.NoError(t, err)
	require.Equal(t, 587, m.dialer.Port)

	buf := &bytes.Buffer{}
	_, err = m.build(Message{To: []string{"ayu@example.org"}, Subject: "Pendaftaran diterima", HTML: "<p>Halo</p>"}).WriteTo(buf)
	require.NoError(t, err)

	raw := buf.String()
	require.Contains(t, raw, "To: ayu@example.org")
	require.Contains(t, raw, "Subject: Pendaftaran diterima")
	require.Contains(t, raw, "<p>Halo</p>")
}

func TestSendWithoutRecipientsIsNoop(t *testing.T) {
	m, err := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.org", From: "no-reply@example.org"})
	require.NoError(t, err)
	require.NoError(t, m.Send(context.Background(), Message{Subject: "x"}))
}
