package smtp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockprotocol/hub-api/internal/config"
)

func TestMessage_Headers(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "localhost", SMTPPort: 1025, SMTPFrom: "hub@blockprotocol.org"}).(*mailer)

	msg := m.message("alice@example.com", "Your code", "acid-bear-calm-dove")
	assert.Equal(t, []string{"hub@blockprotocol.org"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"alice@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Your code"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "acid-bear-calm-dove")
}
