package usecase

import (
	"bytes"
	"context"
	"html/template"

	"github.com/musicflowhq/musicflow/internal/pkg/clock"
	"github.com/musicflowhq/musicflow/internal/pkg/config"
	"github.com/musicflowhq/musicflow/internal/pkg/idempotency"
	"github.com/musicflowhq/musicflow/internal/pkg/instrument"
	"github.com/musicflowhq/musicflow/internal/pkg/mail"
	"github.com/musicflowhq/musicflow/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Usecase struct {
	cfg       config.Config
	clock     clock.Clocker
	validator validator.Validator
	repoMail  repoMail
	idem      idempotency.Idempotency
	ins       instrument.Instrumentation
}

type Dependency struct {
	Config      config.Config
	Clock       clock.Clocker
	Validator   validator.Validator
	RepoMail    repoMail
	Idempotency idempotency.Idempotency
	Instrument  instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		cfg:       dep.Config,
		clock:     dep.Clock,
		validator: dep.Validator,
		repoMail:  dep.RepoMail,
		idem:      dep.Idempotency,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) renderTemplate(tpl *template.Template, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Usecase) baseEmailTemplateData() map[string]any {
	return map[string]any{
		"support_email": "support@musicflow.app",
		"company_name":  "MusicFlow",
		"year":          s.clock.Now().Format("2006"),
	}
}
