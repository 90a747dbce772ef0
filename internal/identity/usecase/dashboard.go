package usecase

import (
	"context"
	"log/slog"

	"github.com/musicflowhq/musicflow/internal/identity/entity"
	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
	"github.com/samber/lo"
)

type DashboardInput struct{}

type DashboardOutput struct {
	LastOpenedPage   string
	CompletedLessons []string
	Notes            string
	GuitarType       string
	PageTheme        string
}

func (s *Usecase) Dashboard(ctx context.Context, in DashboardInput) (*DashboardOutput, error) {
	ctx, span := s.startSpan(ctx, "Dashboard")
	defer span.End()

	user, err := s.authedUser(ctx)
	if err != nil {
		return nil, err
	}

	dash, err := s.repoDB.GetDashboard(ctx, user.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get dashboard", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &DashboardOutput{
		LastOpenedPage:   dash.LastOpenedPage,
		CompletedLessons: dash.CompletedLessons,
		Notes:            dash.Notes,
		GuitarType:       dash.GuitarType,
		PageTheme:        dash.PageTheme,
	}, nil
}

type DashboardUpdateInput struct {
	LastOpenedPage   string   `validate:"omitempty,max=100"`
	CompletedLessons []string `validate:"omitempty,max=500,dive,max=100"`
	Notes            string   `validate:"omitempty,max=5000"`
	GuitarType       string   `validate:"omitempty,max=50"`
	PageTheme        string   `validate:"omitempty,oneof=light dark"`
}

func (s *Usecase) DashboardUpdate(ctx context.Context, in DashboardUpdateInput) error {
	ctx, span := s.startSpan(ctx, "DashboardUpdate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	user, err := s.authedUser(ctx)
	if err != nil {
		return err
	}

	if err := s.repoDB.UpdateDashboard(ctx, entity.UpdateDashboard{
		UserID:           user.ID,
		LastOpenedPage:   in.LastOpenedPage,
		CompletedLessons: lo.Uniq(in.CompletedLessons),
		Notes:            in.Notes,
		GuitarType:       in.GuitarType,
		PageTheme:        in.PageTheme,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo update dashboard", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
