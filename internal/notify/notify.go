// Package notify delivers account emails carrying one-time codes.
package notify

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/wneessen/go-mail"
)

// Message is everything a notification needs about its recipient.
type Message struct {
	Email string
	Name  string
	Token string
}

// Notifier sends account emails. Implementations must be safe for
// concurrent use.
type Notifier interface {
	SendConfirmation(ctx context.Context, msg Message) error
	SendPasswordReset(ctx context.Context, msg Message) error
}

// Kinds label notifications in logs and metrics.
const (
	KindConfirmation = "confirmation"
	KindReset        = "reset"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPNotifier sends HTML mail over SMTP. A client is dialled per message.
type SMTPNotifier struct {
	cfg         SMTPConfig
	frontendURL string
	tokenTTL    time.Duration
}

var _ Notifier = (*SMTPNotifier)(nil)

func NewSMTPNotifier(cfg SMTPConfig, frontendURL string, tokenTTL time.Duration) *SMTPNotifier {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPNotifier{cfg: cfg, frontendURL: frontendURL, tokenTTL: tokenTTL}
}

func (n *SMTPNotifier) SendConfirmation(ctx context.Context, msg Message) error {
	return n.send(ctx, KindConfirmation, msg)
}

func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, msg Message) error {
	return n.send(ctx, KindReset, msg)
}

func (n *SMTPNotifier) send(ctx context.Context, kind string, msg Message) error {
	content, err := Render(kind, n.frontendURL, n.tokenTTL, msg)
	if err != nil {
		return err
	}

	m := mail.NewMsg()
	if err := m.From(n.cfg.From); err != nil {
		return oops.Code("MAIL_INVALID_FROM").With("from", n.cfg.From).Wrap(err)
	}
	if err := m.To(msg.Email); err != nil {
		return oops.Code("MAIL_INVALID_TO").With("kind", kind).Wrap(err)
	}
	m.Subject(content.Subject)
	m.SetBodyString(mail.TypeTextPlain, content.Subject)
	m.AddAlternativeString(mail.TypeTextHTML, content.HTML)

	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithTimeout(n.cfg.Timeout),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if n.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
		)
	}
	client, err := mail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return oops.Code("MAIL_CLIENT_FAILED").With("host", n.cfg.Host).Wrap(err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("kind", kind).With("host", n.cfg.Host).Wrap(err)
	}
	return nil
}

// LogNotifier writes notifications to the log instead of sending them.
// It is used when no SMTP host is configured. Codes are never logged.
type LogNotifier struct {
	logger *slog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendConfirmation(_ context.Context, msg Message) error {
	n.logger.Info("confirmation email", "email", msg.Email, "name", msg.Name)
	return nil
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, msg Message) error {
	n.logger.Info("password reset email", "email", msg.Email, "name", msg.Name)
	return nil
}

// Content is a rendered email.
type Content struct {
	Subject string
	HTML    string
}

var templates = template.Must(template.New(KindConfirmation).Parse(`<p>
  Hola: {{.Name}}, has creado tu cuenta en UpTask, ya casi esta todo listo, solo debes confirmar tu cuenta
</p>
<p>Visita el siguiente enlace:</p>
<a href="{{.Link}}">Confirmar cuenta</a>
<p>Ingresa el código: <b>{{.Token}}</b></p>
<p>Este token expira en {{.Minutes}} minutos</p>
`))

func init() {
	template.Must(templates.New(KindReset).Parse(`<p>
  Hola: {{.Name}}, has solicitado reestablecer tu password.
</p>
<p>Visita el siguiente enlace:</p>
<a href="{{.Link}}">Reestablecer Password</a>
<p>Ingresa el código: <b>{{.Token}}</b></p>
<p>Este token expira en {{.Minutes}} minutos</p>
`))
}

var subjects = map[string]string{
	KindConfirmation: "UpTask - Confirma tu cuenta",
	KindReset:        "UpTask - Reestablece tu password",
}

var paths = map[string]string{
	KindConfirmation: "/auth/confirm-account",
	KindReset:        "/auth/new-password",
}

// Render builds the subject and HTML body for a notification kind.
func Render(kind, frontendURL string, tokenTTL time.Duration, msg Message) (Content, error) {
	subject, ok := subjects[kind]
	if !ok {
		return Content{}, oops.Code("MAIL_UNKNOWN_KIND").With("kind", kind).Errorf("unknown notification kind")
	}

	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, kind, struct {
		Name    string
		Token   string
		Link    string
		Minutes int
	}{
		Name:    msg.Name,
		Token:   msg.Token,
		Link:    frontendURL + paths[kind],
		Minutes: int(tokenTTL.Minutes()),
	})
	if err != nil {
		return Content{}, oops.Code("MAIL_RENDER_FAILED").With("kind", kind).Wrap(err)
	}
	return Content{Subject: subject, HTML: buf.String()}, nil
}
