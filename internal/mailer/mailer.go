// Package mailer delivers outgoing email over SMTP, or logs it when no
// server is configured.
package mailer

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Message struct {
	To      string
	Subject string
	HTML    string
	// Attachment is optional; Name is the file name the recipient sees.
	Attachment *Attachment
}

type Attachment struct {
	Name string
	Data []byte
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// New returns an SMTP sender, or a dry-run sender when cfg has no host.
func New(cfg Config, log *zap.Logger) Sender {
	if cfg.Host == "" {
		log.Info("SMTP not configured, outgoing mail will only be logged")
		return &DryRun{log: log, from: cfg.From}
	}
	return &SMTP{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

type SMTP struct {
	dialer *gomail.Dialer
	from   string
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(build(s.from, msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// DryRun records what would have been sent.
type DryRun struct {
	log  *zap.Logger
	from string

	mu   sync.Mutex
	sent []Message
}

func NewDryRun(log *zap.Logger) *DryRun {
	return &DryRun{log: log}
}

func (d *DryRun) Send(_ context.Context, msg Message) error {
	d.mu.Lock()
	d.sent = append(d.sent, msg)
	d.mu.Unlock()
	d.log.Info("mail (dry run)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Bool("attachment", msg.Attachment != nil),
	)
	return nil
}

// Sent lists the messages handed to this sender.
func (d *DryRun) Sent() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Message, len(d.sent))
	copy(out, d.sent)
	return out
}

func build(from string, msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	if a := msg.Attachment; a != nil {
		m.Attach(a.Name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(a.Data)
			return err
		}))
	}
	return m
}
