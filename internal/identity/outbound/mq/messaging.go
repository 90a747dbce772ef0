package mq

import (
	"context"
	"encoding/json"

	"github.com/musicflowhq/musicflow/internal/pkg/instrument"
	"github.com/musicflowhq/musicflow/internal/pkg/messaging"
	"github.com/musicflowhq/musicflow/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

// PublishUserRegistration announces a fresh account so the notification module
// can send its welcome email out of band.
func (m *Messaging) PublishUserRegistration(ctx context.Context, msg event.UserRegistrationMessage) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishUserRegistration")
	defer span.End()

	body, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.UserRegistrationDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
