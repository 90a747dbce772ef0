package usecase

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/musicflowhq/musicflow/internal/pkg/idempotency"
	"github.com/musicflowhq/musicflow/internal/pkg/mail"
	"github.com/sethvargo/go-retry"
)

const welcomeSubject = "Welcome to MusicFlow"

//nolint:gochecknoglobals // parsed once, reused for every send
var welcomeTpl = template.Must(template.New("welcome").Option("missingkey=zero").Parse(`
<p>Hi {{.full_name}},</p>
<p>Welcome to {{.company_name}}! Your account is ready. Open your dashboard to
pick an instrument and start your first lesson.</p>
<p><a href="{{.web_url}}">Go to your dashboard</a></p>
<p>Questions? Write to {{.support_email}}.</p>
<p>&copy; {{.year}} {{.company_name}}</p>
`))

type ConsumeUserRegistrationInput struct {
	UserID   int64  `validate:"required,gt=0"`
	Email    string `validate:"required,email"`
	FullName string `validate:"required,max=60,alphaspace"`
}

// ConsumeUserRegistration sends the welcome email for a freshly registered
// account. Message delivery is at-least-once, so the send is guarded by an
// idempotency key; the SMTP call itself is retried with backoff before the
// message is handed back to the broker.
func (s *Usecase) ConsumeUserRegistration(ctx context.Context, in ConsumeUserRegistrationInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeUserRegistration")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	key := fmt.Sprintf("welcome_email:%d", in.UserID)
	err := s.idem.Exec(ctx, key, func(ctx context.Context) error {
		return s.sendWelcomeEmail(ctx, in)
	}, idempotency.WithStateTTL(24*time.Hour))

	if errors.Is(err, idempotency.ErrAlreadyCompleted) || errors.Is(err, idempotency.ErrAlreadyInProgress) {
		slog.InfoContext(ctx, "welcome email already handled, skipping redelivery", "user_id", in.UserID)
		return nil
	}
	if errors.Is(err, idempotency.ErrAlreadyFailed) {
		// a previous attempt burned through its retries; let the broker redeliver
		// after the failed state expires
		slog.WarnContext(ctx, "welcome email previously failed", "user_id", in.UserID)
		return nil
	}

	return err
}

func (s *Usecase) sendWelcomeEmail(ctx context.Context, in ConsumeUserRegistrationInput) error {
	data := s.baseEmailTemplateData()
	data["full_name"] = in.FullName
	data["web_url"] = s.cfg.GetString("app.web")

	body, err := s.renderTemplate(welcomeTpl, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render welcome email body", "user_id", in.UserID, "error", err)
		return err
	}

	b := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := s.repoMail.Send(ctx, mail.Message{
			To:       []string{in.Email},
			Subject:  welcomeSubject,
			HTMLBody: body,
		}); err != nil {
			slog.WarnContext(ctx, "welcome email send attempt failed", "user_id", in.UserID, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}
