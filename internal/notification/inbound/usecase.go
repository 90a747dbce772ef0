package inbound

import (
	"context"

	"github.com/musicflowhq/musicflow/internal/notification/usecase"
)

type uc interface {
	ConsumeUserRegistration(ctx context.Context, in usecase.ConsumeUserRegistrationInput) error
}
