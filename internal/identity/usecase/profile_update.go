package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/musicflowhq/musicflow/internal/identity/entity"
	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
)

type ProfileUpdateInput struct {
	FirstName  string `validate:"required,max=30,alphaspace"`
	LastName   string `validate:"omitempty,max=30,alphaspace"`
	Phone      string `validate:"omitempty,e164"`
	Profession string `validate:"omitempty,max=50"`
	Genre      string `validate:"omitempty,max=50"`
	Instrument string `validate:"omitempty,max=50"`
	SkillLevel string `validate:"omitempty,skilllevel"`
	Bio        string `validate:"omitempty,max=500"`
}

func (s *Usecase) ProfileUpdate(ctx context.Context, in ProfileUpdateInput) error {
	ctx, span := s.startSpan(ctx, "ProfileUpdate")
	defer span.End()

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	user, err := s.authedUser(ctx)
	if err != nil {
		return err
	}

	if err := s.repoDB.UpdateProfile(ctx, entity.UpdateProfile{
		UserID:     user.ID,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Phone:      in.Phone,
		Profession: in.Profession,
		Genre:      in.Genre,
		Instrument: in.Instrument,
		SkillLevel: in.SkillLevel,
		Bio:        in.Bio,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo update profile", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
