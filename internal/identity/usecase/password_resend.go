package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/musicflowhq/musicflow/internal/pkg/flowsession"
	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
)

type PasswordResendInput struct {
	FlowID string `validate:"required"`

	ClientIP string `validate:"-"`
}

// PasswordResend mints a fresh delivery token for an open flow session and
// mails a new QR link. The previous token is revoked first, so at most one
// link per session is ever live, and the session drops back to waiting for a
// scan even if it had already reached the code step.
func (s *Usecase) PasswordResend(ctx context.Context, in PasswordResendInput) error {
	ctx, span := s.startSpan(ctx, "PasswordResend")
	defer span.End()

	if in.FlowID == "" {
		return goerror.NewBusiness("reset session has expired, start over", goerror.CodeUnauthorized)
	}

	if err := s.admit(ctx, "password_resend", in.ClientIP); err != nil {
		return err
	}

	sess, err := s.sessions.Get(ctx, in.FlowID)
	if errors.Is(err, flowsession.ErrNotFound) {
		slog.WarnContext(ctx, "resend without live reset flow session")
		return goerror.NewBusiness("reset session has expired, start over", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to load reset flow session", "error", err)
		return goerror.NewServer(err)
	}

	user, err := s.repoDB.GetUserByID(ctx, sess.SubjectID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", sess.SubjectID, "error", err)
		return goerror.NewServer(err)
	}

	// the account may have been banned since the flow was opened
	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return err
	}

	if sess.TokenID != "" {
		if err := s.repoCache.RevokeDeliveryToken(ctx, sess.TokenID); err != nil {
			slog.ErrorContext(ctx, "failed to revoke superseded delivery token", "user_id", user.ID, "error", err)
		}
	}

	tokenHash, link, err := s.issueResetToken(ctx, user, sess.ID)
	if err != nil {
		return err
	}

	if err := s.mailResetLink(ctx, user, tokenHash, link); err != nil {
		return err
	}

	sess.TokenID = tokenHash
	sess.State = flowsession.StateAwaitingToken
	if err := s.sessions.Put(ctx, *sess); err != nil {
		slog.ErrorContext(ctx, "failed to update reset flow session", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
