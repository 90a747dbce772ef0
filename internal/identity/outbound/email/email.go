package email

import (
	"bytes"
	"context"
	"html/template"

	"github.com/musicflowhq/musicflow/internal/pkg/instrument"
	"github.com/musicflowhq/musicflow/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

const (
	resetLinkSubject = "Reset your MusicFlow password"
	resetCodeSubject = "Your MusicFlow verification code"
)

var resetLinkTpl = template.Must(template.New("reset_link").Parse(`
<p>Someone asked to reset the password for your MusicFlow account.</p>
<p>Scan the QR code shown on your screen, or open this link on another device:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>The link works once and expires in {{.TTLMinutes}} minutes. If this wasn't you, ignore this email.</p>
`))

var resetCodeTpl = template.Must(template.New("reset_code").Parse(`
<p>Your MusicFlow verification code is:</p>
<p style="font-size:24px;letter-spacing:4px;"><strong>{{.Code}}</strong></p>
<p>Enter it in the browser where you started the reset. It works once and expires in {{.TTLMinutes}} minutes.</p>
`))

// Mail sends the password-reset emails synchronously. The reset flow needs to
// know delivery failed so it can roll back the artifact it just wrote, which
// is why these do not go through the notification module's queue.
type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, ins: ins}
}

// SendResetLink mails the QR-scannable reset link.
func (m *Mail) SendResetLink(ctx context.Context, to, link string, ttlMinutes int) error {
	ctx, span := m.ins.Tracer("identity.outbound.email").Start(ctx, "SendResetLink")
	defer span.End()

	var buf bytes.Buffer
	if err := resetLinkTpl.Execute(&buf, map[string]any{"Link": link, "TTLMinutes": ttlMinutes}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err := m.client.Send(ctx, mail.Message{
		To:       []string{to},
		Subject:  resetLinkSubject,
		TextBody: "Open this link on another device to continue your MusicFlow password reset: " + link,
		HTMLBody: buf.String(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// SendVerificationCode mails the six-digit code.
func (m *Mail) SendVerificationCode(ctx context.Context, to, code string, ttlMinutes int) error {
	ctx, span := m.ins.Tracer("identity.outbound.email").Start(ctx, "SendVerificationCode")
	defer span.End()

	var buf bytes.Buffer
	if err := resetCodeTpl.Execute(&buf, map[string]any{"Code": code, "TTLMinutes": ttlMinutes}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err := m.client.Send(ctx, mail.Message{
		To:       []string{to},
		Subject:  resetCodeSubject,
		TextBody: "Your MusicFlow verification code is " + code,
		HTMLBody: buf.String(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
