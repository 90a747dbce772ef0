package usecase

import (
	"context"
	"log/slog"

	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
	"github.com/musicflowhq/musicflow/internal/pkg/jwt"
)

// Logout ends the client session. Access tokens are stateless, so there is
// nothing to revoke server-side; the handler's job is done once the client
// discards the token. The call still requires authentication so it can be
// audited.
func (s *Usecase) Logout(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	slog.InfoContext(ctx, "user logged out", "user_id", clm.UserID)

	return nil
}
