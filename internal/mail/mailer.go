// Package mail renders account notifications and hands them to an outbound
// transport.
package mail

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*.html
var templateFS embed.FS

const activationSubject = "Account Activation"

// Message is a rendered mail ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Recipient identifies who a notification is for.
type Recipient struct {
	Name  string
	Email string
}

// Mailer renders templates and dispatches them through a Sender.
type Mailer struct {
	activation *pongo2.Template
	sender     Sender
}

// NewMailer parses the embedded templates.
func NewMailer(sender Sender) (*Mailer, error) {
	src, err := templateFS.ReadFile("templates/activation-mail.html")
	if err != nil {
		return nil, fmt.Errorf("read activation template: %w", err)
	}
	tpl, err := pongo2.FromBytes(src)
	if err != nil {
		return nil, fmt.Errorf("parse activation template: %w", err)
	}
	return &Mailer{activation: tpl, sender: sender}, nil
}

// RenderActivation returns the activation mail body.
func (m *Mailer) RenderActivation(name, code string) (string, error) {
	return m.activation.Execute(pongo2.Context{
		"user":           map[string]string{"name": name},
		"activationCode": code,
	})
}

// SendActivation renders the activation mail for to and sends it.
func (m *Mailer) SendActivation(ctx context.Context, to Recipient, code string) error {
	body, err := m.RenderActivation(to.Name, code)
	if err != nil {
		return fmt.Errorf("render activation mail: %w", err)
	}
	if err := m.sender.Send(ctx, Message{To: to.Email, Subject: activationSubject, HTML: body}); err != nil {
		return fmt.Errorf("send activation mail to %s: %w", to.Email, err)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them. Used when
// no SMTP host is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	s.Logger.Info("mail not delivered, no smtp host configured",
		"to", msg.To, "subject", msg.Subject, "body", msg.HTML)
	return nil
}
