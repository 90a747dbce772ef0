package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/musicflowhq/musicflow/internal/pkg/flowsession"
	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
)

type PasswordVerifyInput struct {
	Code        string `validate:"required,len=6,numeric"`
	NewPassword string `validate:"required,password"`

	FlowID   string `validate:"-"`
	ClientIP string `validate:"-"`
}

// PasswordVerify is the final step: the code from the email plus the new
// password. The stored code is consumed atomically before the comparison, so
// it is spent on the first try whether that try matches or not, and two racing
// submissions cannot both pass.
func (s *Usecase) PasswordVerify(ctx context.Context, in PasswordVerifyInput) error {
	ctx, span := s.startSpan(ctx, "PasswordVerify")
	defer span.End()

	if in.FlowID == "" {
		return goerror.NewBusiness("reset session has expired, start over", goerror.CodeUnauthorized)
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.admit(ctx, "password_verify", in.ClientIP); err != nil {
		return err
	}

	sess, err := s.sessions.Get(ctx, in.FlowID)
	if errors.Is(err, flowsession.ErrNotFound) {
		slog.WarnContext(ctx, "verify without live reset flow session")
		return goerror.NewBusiness("reset session has expired, start over", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to load reset flow session", "error", err)
		return goerror.NewServer(err)
	}

	if sess.State != flowsession.StateAwaitingCode {
		slog.WarnContext(ctx, "verify before link was scanned", "user_id", sess.SubjectID)
		return goerror.NewBusiness("scan the emailed link before entering the code", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByID(ctx, sess.SubjectID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", sess.SubjectID, "error", err)
		return goerror.NewServer(err)
	}

	// checked before the code is consumed, a banned account must not burn it
	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return err
	}

	storedHash, err := s.repoCache.ConsumeVerificationCode(ctx, sess.SubjectID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "verify with no live code", "user_id", sess.SubjectID)
		return goerror.NewBusiness("code has expired or was already used, request a new one", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to consume verification code", "user_id", sess.SubjectID, "error", err)
		return goerror.NewServer(err)
	}

	if !s.hmac.Verify(storedHash, in.Code) {
		// the code is already spent, a retry needs a fresh one
		slog.WarnContext(ctx, "verification code mismatch", "user_id", sess.SubjectID)
		return goerror.NewBusiness("code did not match and is now void, request a new one", goerror.CodeUnauthorized)
	}

	pwHash, err := s.bcrypt.Hash(in.NewPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new password", "user_id", sess.SubjectID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.UpdateUserPassword(ctx, sess.SubjectID, string(pwHash)); err != nil {
		// the code is gone either way; the client can restart the flow
		slog.ErrorContext(ctx, "failed to repo update user password", "user_id", sess.SubjectID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		slog.ErrorContext(ctx, "failed to clear reset flow session", "user_id", sess.SubjectID, "error", err)
	}

	return nil
}
