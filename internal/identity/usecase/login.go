package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
)

type LoginInput struct {
	Email      string `validate:"required,email"`
	Password   string `validate:"required"`
	RememberMe bool   `validate:"-"`

	ClientIP string `validate:"-"`
}

type LoginOutput struct {
	AccessToken string
	TokenType   string
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.admit(ctx, "login", in.ClientIP); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(strings.ToLower(in.Email))
	user, err := s.repoDB.GetUserLoginInfo(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "login for unknown account", "email", email)
		return nil, goerror.NewBusiness("invalid email or password", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user login info", "email", email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	if !s.bcrypt.Verify(user.Password, in.Password) {
		slog.WarnContext(ctx, "login with wrong password", "user_id", user.ID)
		return nil, goerror.NewBusiness("invalid email or password", goerror.CodeUnauthorized)
	}

	signer := s.jwt
	if in.RememberMe {
		signer = s.jwtRemember
	}

	acToken, err := signer.Generate(user.ID, user.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LoginOutput{
		AccessToken: acToken,
		TokenType:   "Bearer",
	}, nil
}
