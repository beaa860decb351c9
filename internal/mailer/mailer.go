package mailer

import (
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Sender interface {
	Send(to, subject, body string) error
}

type SMTP struct {
	cfg Config
	log *zerolog.Logger
}

func NewSMTP(cfg Config, log *zerolog.Logger) *SMTP {
	return &SMTP{cfg: cfg, log: log}
}

// headerValue flattens line breaks and encodes non-ASCII text so a value
// cannot start a new header.
func headerValue(v string) string {
	v = strings.Join(strings.FieldsFunc(v, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
	return mime.QEncoding.Encode("utf-8", strings.TrimSpace(v))
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		headerValue(from), headerValue(to), headerValue(subject), body,
	))
}

func (m *SMTP) Send(to, subject, body string) error {
	if strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("invalid recipient %q", to)
	}
	msg := buildMessage(m.cfg.From, to, subject, body)

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		m.log.Warn().Err(err).Str("to", to).Msg("failed to send email")
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}

// LogSender writes mail to the log. Used when no SMTP host is configured.
type LogSender struct {
	Log *zerolog.Logger
}

func (l LogSender) Send(to, subject, body string) error {
	l.Log.Info().Str("to", to).Str("subject", subject).Msg("email (not sent, smtp disabled)")
	return nil
}

func RegistrationEmail(name, eventTitle string, start time.Time) (string, string) {
	subject := "Registration received: " + eventTitle
	body := fmt.Sprintf("Hello %s,\n\nYou are registered for \"%s\", starting %s.\nYou can cancel from your dashboard until the event starts.",
		name, eventTitle, start.UTC().Format(time.RFC1123))
	return subject, body
}

func ReminderEmail(name, eventTitle, venue string, start time.Time) (string, string) {
	subject := "Reminder: " + eventTitle
	body := fmt.Sprintf("Hello %s,\n\n\"%s\" starts %s at %s.",
		name, eventTitle, start.UTC().Format(time.RFC1123), venue)
	return subject, body
}

func CancellationEmail(name, eventTitle string) (string, string) {
	subject := "Event cancelled: " + eventTitle
	body := fmt.Sprintf("Hello %s,\n\nUnfortunately \"%s\" has been cancelled. Your registration is void.",
		name, eventTitle)
	return subject, body
}
