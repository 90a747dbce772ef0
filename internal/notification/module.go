package notification

import (
	"context"

	"github.com/musicflowhq/musicflow/internal/notification/inbound"
	"github.com/musicflowhq/musicflow/internal/notification/outbound/email"
	"github.com/musicflowhq/musicflow/internal/notification/usecase"
	"github.com/musicflowhq/musicflow/internal/pkg/clock"
	"github.com/musicflowhq/musicflow/internal/pkg/config"
	"github.com/musicflowhq/musicflow/internal/pkg/goroutine"
	"github.com/musicflowhq/musicflow/internal/pkg/idempotency"
	"github.com/musicflowhq/musicflow/internal/pkg/instrument"
	"github.com/musicflowhq/musicflow/internal/pkg/mail"
	"github.com/musicflowhq/musicflow/internal/pkg/messaging"
	"github.com/musicflowhq/musicflow/internal/pkg/uid"
	"github.com/musicflowhq/musicflow/internal/pkg/validator"
)

type Dependency struct {
	Ctx         context.Context
	Messaging   messaging.Messaging
	Config      config.Config
	Instrument  instrument.Instrumentation
	UUID        uid.StringID
	Clock       clock.Clocker
	Goroutine   *goroutine.Manager
	Validator   validator.Validator
	Mail        mail.Mail
	Idempotency idempotency.Idempotency
}

func New(dep Dependency) error {
	repoMail := email.New(dep.Mail, dep.Instrument)

	uc := usecase.NewNotification(usecase.Dependency{
		Config:      dep.Config,
		Clock:       dep.Clock,
		Validator:   dep.Validator,
		RepoMail:    repoMail,
		Idempotency: dep.Idempotency,
		Instrument:  dep.Instrument,
	})

	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
