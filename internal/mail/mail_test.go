package mail

import (
	"MapHub-Backend/internal/config"
	"MapHub-Backend/internal/domain"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_FallsBackToLogSender(t *testing.T) {
	s := New(config.SMTP{}, zap.NewNop())
	_, ok := s.(*LogSender)
	require.True(t, ok)
	assert.NoError(t, s.Send(context.Background(), "a@b.com", "hi", "body"))
}

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("no-reply@maphub.local", "a@b.com", "Subject line", "<p>x</p>")

	assert.True(t, strings.HasPrefix(msg, "From: MapHub <no-reply@maphub.local>\r\n"))
	assert.Contains(t, msg, "To: a@b.com\r\n")
	assert.Contains(t, msg, "Subject: Subject line\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\n<p>x</p>"))
}

func TestSMTPSender_RejectsHeaderInjection(t *testing.T) {
	s := NewSMTPSender(config.SMTP{Host: "127.0.0.1", Port: 1}, zap.NewNop())
	err := s.Send(context.Background(), "a@b.com\r\nBcc: x@y.z", "s", "b")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestVerificationBody(t *testing.T) {
	body := VerificationBody("https://maphub.example/", "<anna>", "tok en")
	assert.Contains(t, body, "https://maphub.example/verify?token=tok+en")
	assert.Contains(t, body, "&lt;anna&gt;")
}

func TestResetPasswordBody(t *testing.T) {
	body := ResetPasswordBody("https://maphub.example", "anna", "abc")
	assert.Contains(t, body, `href="https://maphub.example/resetPassword?token=abc"`)
	assert.NotContains(t, body, "/verify")
}
