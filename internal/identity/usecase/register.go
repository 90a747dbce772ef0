package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/musicflowhq/musicflow/internal/identity/entity"
	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
	"github.com/musicflowhq/musicflow/internal/shared/event"
)

type RegisterInput struct {
	Email         string `validate:"required,email"`
	Password      string `validate:"required,password"`
	FullName      string `validate:"required,alphaspace,max=60"`
	AcceptTerms   bool   `validate:"required"`
	AcceptPrivacy bool   `validate:"required"`

	ClientIP string `validate:"-"`
}

func (s *Usecase) Register(ctx context.Context, in RegisterInput) error {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.admit(ctx, "register", in.ClientIP); err != nil {
		return err
	}

	pwHash, err := s.bcrypt.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return goerror.NewServer(err)
	}

	user := entity.NewUser{
		ID:       s.uid.Generate(),
		Email:    in.Email,
		FullName: in.FullName,
		Status:   entity.UserStatusActive,
	}

	// creates the user plus its profile and dashboard rows in one transaction
	if err := s.repoDB.NewRegistration(ctx, user, string(pwHash)); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			slog.WarnContext(ctx, "registration with taken email", "email", in.Email)
			return goerror.NewBusiness("email is already registered", goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to repo create registration", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishUserRegistration(ctx, event.UserRegistrationMessage{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
	}); err != nil {
		// the welcome email is best effort, registration already stands
		slog.ErrorContext(ctx, "failed to publish user registration", "user_id", user.ID, "error", err)
	}

	return nil
}
