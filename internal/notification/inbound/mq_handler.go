package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/musicflowhq/musicflow/internal/notification/usecase"
	"github.com/musicflowhq/musicflow/internal/pkg/instrument"
	"github.com/musicflowhq/musicflow/internal/pkg/messaging"
	"github.com/musicflowhq/musicflow/internal/pkg/uid"
	"github.com/musicflowhq/musicflow/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) UserRegistrationNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "UserRegistrationNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: user registration notification", "msg_body", string(body))

	var payload event.UserRegistrationMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of user registration notification", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeUserRegistration(ctx, usecase.ConsumeUserRegistrationInput{
		UserID:   payload.UserID,
		Email:    payload.Email,
		FullName: payload.FullName,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume user registration", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
