package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/musicflowhq/musicflow/internal/pkg/flowsession"
	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
)

type PasswordRedeemInput struct {
	Token string `validate:"required"`
}

// PasswordRedeem handles the scan of the emailed QR link, usually from a
// second device. It spends the delivery token, mints and mails the six-digit
// verification code, and moves the linked flow session forward.
//
// The token is taken from the cache atomically, so of two concurrent scans
// exactly one reaches the code step.
func (s *Usecase) PasswordRedeem(ctx context.Context, in PasswordRedeemInput) error {
	ctx, span := s.startSpan(ctx, "PasswordRedeem")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	tokenHash, err := s.hmac.Hash(in.Token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash delivery token", "error", err)
		return goerror.NewServer(err)
	}

	rec, err := s.repoCache.RedeemDeliveryToken(ctx, string(tokenHash))
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "redeem of unknown or spent delivery token")
		return goerror.NewBusiness("this link is invalid or has expired", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to redeem delivery token", "error", err)
		return goerror.NewServer(err)
	}

	user, err := s.repoDB.GetUserByID(ctx, rec.SubjectID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", rec.SubjectID, "error", err)
		return goerror.NewServer(err)
	}

	// the account may have been banned after the link was mailed
	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return err
	}

	code, err := s.generateResetCode()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate verification code", "error", err)
		return goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash verification code", "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoCache.SaveVerificationCode(ctx, user.ID, string(codeHash), s.codeTTL()); err != nil {
		slog.ErrorContext(ctx, "failed to store verification code", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoMail.SendVerificationCode(ctx, user.Email, code, int(s.codeTTL().Minutes())); err != nil {
		slog.ErrorContext(ctx, "failed to send verification code email", "user_id", user.ID, "error", err)

		if rbErr := s.repoCache.DropVerificationCode(ctx, user.ID); rbErr != nil {
			slog.ErrorContext(ctx, "failed to drop verification code after send failure", "user_id", user.ID, "error", rbErr)
		}

		return goerror.NewBusiness("could not send the verification code, scan a fresh link", goerror.CodeUnavailable)
	}

	s.advanceFlowSession(ctx, rec.SessionID)

	return nil
}

// advanceFlowSession marks the linked browser session as waiting for the
// code. The session may already be gone (expired or restarted); the code was
// mailed regardless, so that is only worth a warning.
func (s *Usecase) advanceFlowSession(ctx context.Context, sessionID string) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, flowsession.ErrNotFound) {
		slog.WarnContext(ctx, "reset flow session gone at redeem time", "session_id", sessionID)
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to load reset flow session", "session_id", sessionID, "error", err)
		return
	}

	sess.State = flowsession.StateAwaitingCode
	if err := s.sessions.Put(ctx, *sess); err != nil {
		slog.ErrorContext(ctx, "failed to advance reset flow session", "session_id", sessionID, "error", err)
	}
}
