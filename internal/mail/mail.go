// Package mail sends account emails.
package mail

import (
	"MapHub-Backend/internal/config"
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/metrics"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Sender is the mail transport contract.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New returns an SMTP sender, or a logging sender when no host is configured.
func New(cfg config.SMTP, log *zap.Logger) Sender {
	if cfg.Host == "" {
		log.Warn("smtp host not configured, emails will only be logged")
		return &LogSender{log: log}
	}
	return NewSMTPSender(cfg, log)
}

// SMTPSender delivers HTML mail over SMTP with STARTTLS when offered.
type SMTPSender struct {
	cfg     config.SMTP
	log     *zap.Logger
	timeout time.Duration
}

func NewSMTPSender(cfg config.SMTP, log *zap.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, log: log, timeout: 30 * time.Second}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return domain.Validation("email", "header values must not contain line breaks")
	}

	err := s.send(ctx, to, buildMessage(s.cfg.From, to, subject, body))
	metrics.MailSentTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		s.log.Error("failed to send email", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return domain.Dependency("failed to send email", err)
	}

	s.log.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (s *SMTPSender) send(ctx context.Context, to, msg string) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	dialer := &net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(s.timeout))
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if s.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := c.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}
	return c.Quit()
}

func buildMessage(from, to, subject, body string) string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: MapHub <%s>\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return msg.String()
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.log.Info("email not delivered (no smtp host)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	metrics.MailSentTotal.WithLabelValues("logged").Inc()
	return nil
}
