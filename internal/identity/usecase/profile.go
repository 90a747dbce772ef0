package usecase

import (
	"context"
	"log/slog"

	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
)

type ProfileInput struct{}

type ProfileOutput struct {
	ID         int64
	Email      string
	FullName   string
	Status     string
	FirstName  string
	LastName   string
	Phone      string
	Profession string
	Genre      string
	Instrument string
	SkillLevel string
	Bio        string
	AvatarURL  string
}

func (s *Usecase) Profile(ctx context.Context, in ProfileInput) (*ProfileOutput, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	user, err := s.authedUser(ctx)
	if err != nil {
		return nil, err
	}

	prof, err := s.repoDB.GetProfile(ctx, user.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get profile", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ProfileOutput{
		ID:         user.ID,
		Email:      user.Email,
		FullName:   user.FullName,
		Status:     user.Status.String(),
		FirstName:  prof.FirstName,
		LastName:   prof.LastName,
		Phone:      prof.Phone,
		Profession: prof.Profession,
		Genre:      prof.Genre,
		Instrument: prof.Instrument,
		SkillLevel: prof.SkillLevel,
		Bio:        prof.Bio,
		AvatarURL:  prof.AvatarURL,
	}, nil
}
