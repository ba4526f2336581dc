package mailer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gip-inclusion/dora-api/pkg/config"
)

func TestSMTPSenderBuild(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{FromAddress: "no-reply@dora.test", FromName: "DORA"})

	m, err := s.build(Message{
		To:      []string{"beneficiaire@example.org"},
		Cc:      []string{"prescripteur@example.org"},
		Subject: "[DORA] Nouveau message",
		Text:    "Bonjour",
		HTML:    "<p>Bonjour</p>",
		Tags:    []string{"orientation-message-beneficiary"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"prescripteur@example.org"}, m.GetHeader("Cc"))
	assert.Equal(t, []string{"orientation-message-beneficiary"}, m.GetHeader("X-Tags"))

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/html")
}

func TestSMTPSenderRejectsEmptyRecipients(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{})
	_, err := s.build(Message{Subject: "x"})
	assert.Error(t, err)
}

func TestNewDryRun(t *testing.T) {
	sender := New(config.MailConfig{DryRun: true}, nil)
	_, ok := sender.(*LogSender)
	require.True(t, ok)
	assert.NoError(t, sender.Send(context.Background(), Message{To: []string{"a@b.c"}}))
}
