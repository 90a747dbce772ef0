package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/musicflowhq/musicflow/internal/pkg/flowsession"
)

type PasswordRestartInput struct {
	FlowID string `validate:"-"`
}

// PasswordRestart abandons the flow from any state. It revokes whatever
// artifacts the session still points at and drops the session itself.
// Restarting without a session is fine, there is simply nothing to do.
func (s *Usecase) PasswordRestart(ctx context.Context, in PasswordRestartInput) error {
	ctx, span := s.startSpan(ctx, "PasswordRestart")
	defer span.End()

	if in.FlowID == "" {
		return nil
	}

	sess, err := s.sessions.Get(ctx, in.FlowID)
	if errors.Is(err, flowsession.ErrNotFound) {
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to load reset flow session", "error", err)
		return nil
	}

	if sess.TokenID != "" {
		if err := s.repoCache.RevokeDeliveryToken(ctx, sess.TokenID); err != nil {
			slog.ErrorContext(ctx, "failed to revoke delivery token on restart", "user_id", sess.SubjectID, "error", err)
		}
	}

	if err := s.repoCache.DropVerificationCode(ctx, sess.SubjectID); err != nil {
		slog.ErrorContext(ctx, "failed to drop verification code on restart", "user_id", sess.SubjectID, "error", err)
	}

	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		slog.ErrorContext(ctx, "failed to delete reset flow session", "user_id", sess.SubjectID, "error", err)
	}

	return nil
}
