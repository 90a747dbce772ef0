package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/musicflowhq/musicflow/internal/identity/entity"
	"github.com/musicflowhq/musicflow/internal/pkg/flowsession"
	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
)

type PasswordForgotInput struct {
	Email string `validate:"required,email"`

	ClientIP string `validate:"-"`
}

type PasswordForgotOutput struct {
	// FlowID is the opaque session id the inbound layer hands back as a cookie.
	FlowID string
}

// PasswordForgot starts the reset flow: it mints a single-use delivery token,
// mails the QR-scannable link carrying it, and opens a flow session for the
// requesting browser.
func (s *Usecase) PasswordForgot(ctx context.Context, in PasswordForgotInput) (*PasswordForgotOutput, error) {
	ctx, span := s.startSpan(ctx, "PasswordForgot")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.admit(ctx, "password_forgot", in.ClientIP); err != nil {
		return nil, err
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "password reset for unknown email", "email", in.Email)
		return nil, goerror.NewBusiness("no account found for that email", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	sessionID := s.uuid.Generate()

	tokenHash, link, err := s.issueResetToken(ctx, user, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.mailResetLink(ctx, user, tokenHash, link); err != nil {
		return nil, err
	}

	if err := s.sessions.Put(ctx, flowsession.Session{
		ID:        sessionID,
		SubjectID: user.ID,
		TokenID:   tokenHash,
		State:     flowsession.StateAwaitingToken,
		CreatedAt: s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to open reset flow session", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &PasswordForgotOutput{FlowID: sessionID}, nil
}

// issueResetToken mints a fresh opaque token, stores its record under the
// token's keyed hash, and returns the hash together with the emailable link.
func (s *Usecase) issueResetToken(ctx context.Context, user *entity.User, sessionID string) (string, string, error) {
	token := s.oid.Generate()

	tokenHash, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash delivery token", "error", err)
		return "", "", goerror.NewServer(err)
	}

	rec := entity.DeliveryToken{
		SubjectID: user.ID,
		SessionID: sessionID,
		IssuedAt:  s.clock.Now(),
	}
	if err := s.repoCache.IssueDeliveryToken(ctx, string(tokenHash), rec, s.tokenTTL()); err != nil {
		slog.ErrorContext(ctx, "failed to store delivery token", "user_id", user.ID, "error", err)
		return "", "", goerror.NewServer(err)
	}

	base := strings.TrimRight(s.cfg.GetString("modules.identity.reset.link_base_url"), "/")
	return string(tokenHash), base + "/api/v1/identity/password/reset/" + token, nil
}

// mailResetLink sends the link synchronously. If delivery fails, the token
// just written is revoked so no orphaned secret stays live.
func (s *Usecase) mailResetLink(ctx context.Context, user *entity.User, tokenHash, link string) error {
	ttlMinutes := int(s.tokenTTL().Minutes())

	if err := s.repoMail.SendResetLink(ctx, user.Email, link, ttlMinutes); err != nil {
		slog.ErrorContext(ctx, "failed to send reset link email", "user_id", user.ID, "error", err)

		if rbErr := s.repoCache.RevokeDeliveryToken(ctx, tokenHash); rbErr != nil {
			slog.ErrorContext(ctx, "failed to revoke delivery token after send failure", "user_id", user.ID, "error", rbErr)
		}

		return goerror.NewBusiness("could not send the reset email, try again later", goerror.CodeUnavailable)
	}

	return nil
}
