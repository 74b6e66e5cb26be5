package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/mirreg/registry/internal/domain"
)

// MailerConfig is the SMTP endpoint curator notifications go to.
type MailerConfig struct {
	Addr     string
	From     string
	To       []string
	Username string
	Password string
}

// Mailer renders lifecycle events as curator notification mails. Sending is
// fire and forget: a failed delivery is logged, never propagated into the
// lifecycle operation that raised the event.
type Mailer struct {
	config MailerConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(config MailerConfig) *Mailer {
	return &Mailer{
		config: config,
		send:   smtp.SendMail,
	}
}

func (m *Mailer) Publish(ctx context.Context, event domain.Event) {
	if m.config.Addr == "" || len(m.config.To) == 0 {
		return
	}
	subject, body := Render(event)
	go func() {
		var auth smtp.Auth
		if m.config.Username != "" {
			host := m.config.Addr
			if i := strings.IndexByte(host, ':'); i >= 0 {
				host = host[:i]
			}
			auth = smtp.PlainAuth("", m.config.Username, m.config.Password, host)
		}
		msg := m.compose(subject, body)
		if err := m.send(m.config.Addr, auth, m.config.From, m.config.To, msg); err != nil {
			slog.Error("notification mail failed",
				slog.String("module", "gateway"),
				slog.String("event", string(event.Type)),
				slog.String("error", err.Error()))
		}
	}()
}

func (m *Mailer) compose(subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.config.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.config.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// Render produces the notification subject and body for an event.
func Render(event domain.Event) (string, string) {
	name := event.Name
	if name == "" {
		name = event.CollectionID
	}

	var subject string
	switch event.Type {
	case domain.EventSubmissionAccepted:
		subject = fmt.Sprintf("[Registry] data collection pending: '%s'", name)
	case domain.EventSubmissionSpam:
		subject = "[Registry] suspected spam submission"
	case domain.EventSubmissionDuplicate:
		subject = fmt.Sprintf("[Registry] duplicate submission: '%s'", name)
	case domain.EventSubmissionSessionExpiry:
		subject = fmt.Sprintf("[Registry] submission after session timeout: '%s'", name)
	case domain.EventRecordPublished:
		subject = fmt.Sprintf("[Registry] data collection published: '%s'", name)
	case domain.EventPublishFailed:
		subject = fmt.Sprintf("[Registry] publication FAILED: '%s'", name)
	case domain.EventRecordUpdated:
		subject = fmt.Sprintf("[Registry] data collection updated: '%s'", name)
	case domain.EventEditPartial:
		subject = fmt.Sprintf("[Registry] resource update by owner: '%s'", name)
	case domain.EventEditSuggested:
		subject = fmt.Sprintf("[Registry] edit suggestion: '%s'", name)
	case domain.EventOwnershipRequested:
		subject = fmt.Sprintf("[Registry] resource ownership requested: '%s'", name)
	case domain.EventRecordDeprecated:
		subject = fmt.Sprintf("[Registry] data collection deprecated: '%s'", name)
	case domain.EventRestrictionAdded:
		subject = fmt.Sprintf("[Registry] restriction added: '%s'", name)
	default:
		subject = fmt.Sprintf("[Registry] %s: '%s'", event.Type, name)
	}

	var b strings.Builder
	if event.CollectionID != "" {
		fmt.Fprintf(&b, "Identifier: %s\n", event.CollectionID)
	}
	if event.Actor != "" {
		fmt.Fprintf(&b, "User: %s\n", event.Actor)
	}
	if event.UserInfo != "" {
		fmt.Fprintf(&b, "Submitted by: %s\n", event.UserInfo)
	}
	if event.Subject != "" {
		fmt.Fprintf(&b, "Comment: %s\n", event.Subject)
	}
	if !event.OccurredAt.IsZero() {
		fmt.Fprintf(&b, "Date: %s\n", event.OccurredAt.Format("2006-01-02 15:04:05"))
	}
	if event.Body != "" {
		b.WriteString("\n")
		b.WriteString(event.Body)
		b.WriteString("\n")
	}
	return subject, b.String()
}
