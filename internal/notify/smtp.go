package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"spendwise/internal/core"
)

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPNotifier sends reminders as plain-text email over STARTTLS.
type SMTPNotifier struct {
	cfg SMTPConfig
}

func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPNotifier{cfg: cfg}, nil
}

func (n *SMTPNotifier) Name() string { return "smtp" }

func (n *SMTPNotifier) newMessage(r core.BillReminder) (*mail.Msg, error) {
	subject, body := RenderEmail(r)

	m := mail.NewMsg()
	if err := m.From(n.cfg.From); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(r.Email); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)
	return m, nil
}

func (n *SMTPNotifier) newClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(n.cfg.Timeout),
	}
	if n.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
		)
	}
	return mail.NewClient(n.cfg.Host, opts...)
}

func (n *SMTPNotifier) Notify(ctx context.Context, r core.BillReminder) error {
	m, err := n.newMessage(r)
	if err != nil {
		return err
	}

	client, err := n.newClient()
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send email to %s: %w", r.Email, err)
	}
	return nil
}
