package email

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medbee/internal/platform/config"
	"medbee/internal/platform/logger"
)

// fakeSMTP speaks just enough SMTP to accept one message.
func fakeSMTP(t *testing.T, conn net.Conn, received chan<- string) {
	t.Helper()
	defer conn.Close()
	r := bufio.NewReader(conn)
	write := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }
	write("220 fake ESMTP")
	var data strings.Builder
	inData := false
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		if inData {
			if line == ".\r\n" {
				inData = false
				received <- data.String()
				write("250 OK")
				continue
			}
			data.WriteString(line)
			continue
		}
		switch cmd := strings.ToUpper(strings.TrimSpace(line)); {
		case strings.HasPrefix(cmd, "EHLO"):
			write("250-fake")
			write("250 8BITMIME")
		case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
			write("250 OK")
		case cmd == "DATA":
			inData = true
			write("354 go ahead")
		case cmd == "QUIT":
			write("221 bye")
			return
		default:
			write("250 OK")
		}
	}
}

func TestSMTPSender_Send(t *testing.T) {
	client, server := net.Pipe()
	received := make(chan string, 1)
	go fakeSMTP(t, server, received)

	sender := NewSMTPSender(config.Email{
		Host:     "smtp.test",
		Port:     587,
		FromName: "MedBee",
		From:     "no-reply@medbee.com",
		Timeout:  2 * time.Second,
	})
	sender.dial = func(context.Context, string, string) (net.Conn, error) { return client, nil }

	err := sender.Send(context.Background(), PasswordResetRequested("user@example.com", "http://localhost:3000/reset-password/abc"))
	require.NoError(t, err)

	select {
	case body := <-received:
		assert.Contains(t, body, "Subject: Password Reset Request")
		assert.Contains(t, body, "To: user@example.com")
		assert.Contains(t, body, "http://localhost:3000/reset-password/abc")
	case <-time.After(2 * time.Second):
		t.Fatal("message not received")
	}
}

func TestNew_WithoutHostLogsOnly(t *testing.T) {
	sender := New(config.Email{}, logger.Discard())
	_, ok := sender.(*LogSender)
	assert.True(t, ok)
	assert.NoError(t, sender.Send(context.Background(), PasswordResetCompleted("a@b.co")))
}

func TestTemplates(t *testing.T) {
	msg := PasswordResetCompleted("a@b.co")
	assert.Equal(t, "Password Reset Successful", msg.Subject)
	assert.Equal(t, "a@b.co", msg.To)
}
