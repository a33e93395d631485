package alerts

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const emailSubject = "Amazon Price Alert - Price Drop!"

// ErrSTARTTLSUnsupported means the server did not offer STARTTLS.
var ErrSTARTTLSUnsupported = errors.New("smtp server does not support STARTTLS")

// EmailConfig holds SMTP submission settings.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	// TLSConfig overrides the default-trust config used for STARTTLS.
	TLSConfig *tls.Config
}

// EmailNotifier sends alerts over an authenticated STARTTLS SMTP session.
type EmailNotifier struct {
	cfg         EmailConfig
	dialTimeout time.Duration
}

// NewEmailNotifier creates an SMTP email notifier.
func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, dialTimeout: 30 * time.Second}
}

func (e *EmailNotifier) Name() string { return "email" }

// Send runs one SMTP session and returns the Message-ID of the sent mail.
func (e *EmailNotifier) Send(ctx context.Context, alert Alert) (string, error) {
	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), e.cfg.Host)
	msg := e.compose(alert, messageID, time.Now())

	addr := net.JoinHostPort(e.cfg.Host, strconv.Itoa(e.cfg.Port))
	dialer := net.Dialer{Timeout: e.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// Unblock any pending read or write once ctx is done.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, e.cfg.Host)
	if err != nil {
		conn.Close()
		return "", fmt.Errorf("smtp greeting: %w", err)
	}
	defer c.Close()

	if err := c.Hello("localhost"); err != nil {
		return "", fmt.Errorf("ehlo: %w", err)
	}
	if ok, _ := c.Extension("STARTTLS"); !ok {
		return "", ErrSTARTTLSUnsupported
	}

	tlsConfig := e.cfg.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{ServerName: e.cfg.Host, MinVersion: tls.VersionTLS12}
	}
	// StartTLS repeats EHLO over the encrypted channel.
	if err := c.StartTLS(tlsConfig); err != nil {
		return "", fmt.Errorf("starttls: %w", err)
	}

	if err := c.Auth(smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)); err != nil {
		if isAuthRejection(err) {
			return "", fmt.Errorf("%w: %w", ErrAuthentication, err)
		}
		return "", fmt.Errorf("auth: %w", err)
	}

	if err := c.Mail(e.cfg.From); err != nil {
		return "", fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(e.cfg.To); err != nil {
		return "", fmt.Errorf("rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return "", fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return "", fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("submit message: %w", err)
	}
	if err := c.Quit(); err != nil {
		return "", fmt.Errorf("quit: %w", err)
	}

	return messageID, nil
}

// isAuthRejection reports whether err is a server reply refusing the
// credentials (530, 534 or 535), as opposed to a protocol or transport error.
func isAuthRejection(err error) bool {
	var protoErr *textproto.Error
	if !errors.As(err, &protoErr) {
		return false
	}
	switch protoErr.Code {
	case 530, 534, 535:
		return true
	}
	return false
}

// compose renders the RFC 5322 message.
func (e *EmailNotifier) compose(alert Alert, messageID string, now time.Time) []byte {
	headers := [][2]string{
		{"From", e.cfg.From},
		{"To", e.cfg.To},
		{"Subject", emailSubject},
		{"Date", now.Format(time.RFC1123Z)},
		{"Message-ID", messageID},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/plain; charset="UTF-8"`},
	}

	var b strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h[0], h[1])
	}
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(EmailBody(alert), "\n", "\r\n"))
	return []byte(b.String())
}

// EmailBody renders the plain-text body of an alert email.
func EmailBody(alert Alert) string {
	var b strings.Builder
	b.WriteString("Good news! The price has dropped on a product you're tracking.\n\n")
	fmt.Fprintf(&b, "Product: %s\n", alert.Title)
	fmt.Fprintf(&b, "Current Price: $%.2f\n", alert.Price)
	fmt.Fprintf(&b, "Your Target Price: $%.2f\n", alert.TargetPrice)
	if alert.URL != "" {
		fmt.Fprintf(&b, "Link: %s\n", alert.URL)
	}
	b.WriteString("\nThis is a great time to make your purchase!\n")
	return b.String()
}
