package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/project-digest/internal/core"
	"github.com/mikey/project-digest/internal/report"
)

const (
	dialTimeout    = 10 * time.Second
	sessionTimeout = 30 * time.Second
)

// EmailNotifier mails the run report to a fixed list of recipients
type EmailNotifier struct {
	address  string
	username string
	password string
	from     string
	to       []string
	logger   *zap.Logger
	now      func() time.Time
}

// NewEmailNotifier creates a notifier that submits through the SMTP server at address
func NewEmailNotifier(address, username, password, from string, to []string, logger *zap.Logger) (*EmailNotifier, error) {
	if _, _, err := net.SplitHostPort(address); err != nil {
		return nil, fmt.Errorf("invalid smtp address %q: %w", address, err)
	}
	if from == "" {
		return nil, errors.New("notification sender is required")
	}
	if len(to) == 0 {
		return nil, errors.New("at least one notification recipient is required")
	}
	return &EmailNotifier{
		address:  address,
		username: username,
		password: password,
		from:     from,
		to:       to,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Notify sends the report
func (n *EmailNotifier) Notify(ctx context.Context, r *core.RunReport) error {
	msg, err := n.message(r)
	if err != nil {
		return err
	}
	if err := n.send(ctx, msg); err != nil {
		return err
	}
	n.logger.Info("Sent run report",
		zap.String("run_id", r.RunID),
		zap.Strings("to", n.to))
	return nil
}

func (n *EmailNotifier) message(r *core.RunReport) ([]byte, error) {
	var body bytes.Buffer
	if err := report.Write(&body, r); err != nil {
		return nil, fmt.Errorf("failed to format run report: %w", err)
	}

	subject := fmt.Sprintf("Project digest: %d new project(s)", len(r.Processed))

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(n.to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", n.now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(body.String(), "\n", "\r\n"))
	return msg.Bytes(), nil
}

func (n *EmailNotifier) send(ctx context.Context, msg []byte) error {
	host, _, _ := net.SplitHostPort(n.address)

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", n.address)
	if err != nil {
		return fmt.Errorf("failed to connect to smtp server: %w", err)
	}

	deadline := time.Now().Add(sessionTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}

	if n.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", n.username, n.password)); err != nil {
			return fmt.Errorf("%w: smtp authentication: %v", core.ErrAuthFailure, err)
		}
	}

	if err := c.Mail(n.from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := 0
	for _, rcpt := range n.to {
		if err := c.Rcpt(rcpt, nil); err != nil {
			n.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", rcpt),
				zap.Error(err))
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return errors.New("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(msg); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// message already accepted
		n.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}
