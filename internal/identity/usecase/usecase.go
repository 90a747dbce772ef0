package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/musicflowhq/musicflow/internal/identity/entity"
	"github.com/musicflowhq/musicflow/internal/pkg/clock"
	"github.com/musicflowhq/musicflow/internal/pkg/config"
	"github.com/musicflowhq/musicflow/internal/pkg/flowsession"
	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
	"github.com/musicflowhq/musicflow/internal/pkg/goroutine"
	"github.com/musicflowhq/musicflow/internal/pkg/hash"
	"github.com/musicflowhq/musicflow/internal/pkg/instrument"
	"github.com/musicflowhq/musicflow/internal/pkg/jwt"
	"github.com/musicflowhq/musicflow/internal/pkg/ratelimit"
	"github.com/musicflowhq/musicflow/internal/pkg/storage"
	"github.com/musicflowhq/musicflow/internal/pkg/uid"
	"github.com/musicflowhq/musicflow/internal/pkg/validator"
	"github.com/musicflowhq/musicflow/internal/shared/event"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetUserLoginInfo(ctx context.Context, email string) (*entity.UserLoginInfo, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetProfile(ctx context.Context, userID int64) (*entity.Profile, error)
	GetDashboard(ctx context.Context, userID int64) (*entity.Dashboard, error)

	NewRegistration(ctx context.Context, user entity.NewUser, hash string) error

	UpdateUserPassword(ctx context.Context, userID int64, hash string) error
	UpdateProfile(ctx context.Context, in entity.UpdateProfile) error
	UpdateProfileAvatar(ctx context.Context, userID int64, avatarURL string) error
	UpdateDashboard(ctx context.Context, in entity.UpdateDashboard) error
}

type repoCache interface {
	IssueDeliveryToken(ctx context.Context, tokenHash string, rec entity.DeliveryToken, ttl time.Duration) error
	RedeemDeliveryToken(ctx context.Context, tokenHash string) (*entity.DeliveryToken, error)
	RevokeDeliveryToken(ctx context.Context, tokenHash string) error

	SaveVerificationCode(ctx context.Context, subjectID int64, codeHash string, ttl time.Duration) error
	ConsumeVerificationCode(ctx context.Context, subjectID int64) (string, error)
	DropVerificationCode(ctx context.Context, subjectID int64) error
}

type repoMessaging interface {
	PublishUserRegistration(ctx context.Context, msg event.UserRegistrationMessage) error
}

type repoMail interface {
	SendResetLink(ctx context.Context, to, link string, ttlMinutes int) error
	SendVerificationCode(ctx context.Context, to, code string, ttlMinutes int) error
}

type flowSessions interface {
	Put(ctx context.Context, sess flowsession.Session) error
	Get(ctx context.Context, id string) (*flowsession.Session, error)
	Delete(ctx context.Context, id string) error
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoMessaging repoMessaging
	repoMail      repoMail
	sessions      flowSessions
	limiter       ratelimit.Limiter
	validator     validator.Validator
	cfg           config.Config
	storage       storage.Storage
	hmac          hash.Hash
	bcrypt        hash.Hash
	uid           uid.NumberID
	uuid          uid.StringID
	oid           uid.StringID
	clock         clock.Clocker
	jwt           jwt.JWT
	jwtRemember   jwt.JWT
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoMessaging repoMessaging
	RepoMail      repoMail
	Sessions      flowSessions
	Limiter       ratelimit.Limiter
	Validator     validator.Validator
	Config        config.Config
	Storage       storage.Storage
	HMAC          hash.Hash
	Bcrypt        hash.Hash
	UID           uid.NumberID
	UUID          uid.StringID
	OID           uid.StringID
	Clock         clock.Clocker
	JWT           jwt.JWT
	JWTRemember   jwt.JWT
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		repoMessaging: dep.RepoMessaging,
		repoMail:      dep.RepoMail,
		sessions:      dep.Sessions,
		limiter:       dep.Limiter,
		validator:     dep.Validator,
		cfg:           dep.Config,
		storage:       dep.Storage,
		hmac:          dep.HMAC,
		bcrypt:        dep.Bcrypt,
		uid:           dep.UID,
		uuid:          dep.UUID,
		oid:           dep.OID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		jwtRemember:   dep.JWTRemember,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) ensureUserStatusAllowed(ctx context.Context, userID int64, status entity.UserStatus) error {
	switch status.Ensure() {
	case entity.UserStatusUnknown:
		slog.WarnContext(ctx, "user account status is unrecognized", "user_id", userID)
		return goerror.NewBusiness("account status is unrecognized", goerror.CodeForbidden)

	case entity.UserStatusBanned:
		slog.WarnContext(ctx, "user account is banned", "user_id", userID)
		return goerror.NewBusiness("account is banned", goerror.CodeForbidden)

	case entity.UserStatusInactive:
		slog.WarnContext(ctx, "user account is deactivated", "user_id", userID)
		return goerror.NewBusiness("account is deactivated", goerror.CodeForbidden)

	default:
		return nil
	}
}

// authedUser resolves the JWT claims on the context to a live user row and
// checks the account status. Every authenticated operation starts here.
func (s *Usecase) authedUser(ctx context.Context) (*entity.User, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	return user, nil
}

// admit consults the shared rate limiter. Any limiter failure denies the
// request: the reset pipeline would rather lock a client out for a window
// than run without its brake.
func (s *Usecase) admit(ctx context.Context, action, clientIP string) error {
	if clientIP == "" {
		clientIP = "unknown"
	}

	if err := s.limiter.Admit(ctx, action+":"+clientIP); err != nil {
		if !errors.Is(err, ratelimit.ErrLimited) {
			slog.ErrorContext(ctx, "rate limiter store unavailable, denying request", "action", action, "error", err)
		}
		return goerror.NewBusiness("Too many attempts, try again later", goerror.CodeTooManyRequest)
	}

	return nil
}

// generateResetCode returns six uniformly random decimal digits. Leading
// zeros are valid, so the output is always padded to width six.
func (s *Usecase) generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *Usecase) tokenTTL() time.Duration {
	if d := s.cfg.GetSecond("modules.identity.reset.token_ttl_seconds"); d > 0 {
		return d
	}
	return 2 * time.Minute
}

func (s *Usecase) codeTTL() time.Duration {
	if d := s.cfg.GetSecond("modules.identity.reset.code_ttl_seconds"); d > 0 {
		return d
	}
	return 2 * time.Minute
}
