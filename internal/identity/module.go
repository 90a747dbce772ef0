package identity

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/musicflowhq/musicflow/internal/identity/inbound"
	"github.com/musicflowhq/musicflow/internal/identity/outbound/cache"
	"github.com/musicflowhq/musicflow/internal/identity/outbound/db"
	"github.com/musicflowhq/musicflow/internal/identity/outbound/email"
	"github.com/musicflowhq/musicflow/internal/identity/outbound/mq"
	"github.com/musicflowhq/musicflow/internal/identity/usecase"
	"github.com/musicflowhq/musicflow/internal/pkg/clock"
	"github.com/musicflowhq/musicflow/internal/pkg/config"
	"github.com/musicflowhq/musicflow/internal/pkg/flowsession"
	"github.com/musicflowhq/musicflow/internal/pkg/goroutine"
	"github.com/musicflowhq/musicflow/internal/pkg/hash"
	"github.com/musicflowhq/musicflow/internal/pkg/instrument"
	"github.com/musicflowhq/musicflow/internal/pkg/jwt"
	"github.com/musicflowhq/musicflow/internal/pkg/mail"
	"github.com/musicflowhq/musicflow/internal/pkg/messaging"
	"github.com/musicflowhq/musicflow/internal/pkg/ratelimit"
	"github.com/musicflowhq/musicflow/internal/pkg/router"
	"github.com/musicflowhq/musicflow/internal/pkg/storage"
	"github.com/musicflowhq/musicflow/internal/pkg/uid"
	"github.com/musicflowhq/musicflow/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
)

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	CacheConn   *redis.Client              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Mail        mail.Mail                  `validate:"required"`
	Storage     storage.Storage            `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	OID         uid.StringID               `validate:"required"`
	HMAC        hash.Hash                  `validate:"required"`
	Bcrypt      hash.Hash                  `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	JWT         jwt.JWT                    `validate:"required"`
	JWTRemember jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)
	repoCache := cache.NewCache(dep.CacheConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)
	repoMail := email.New(dep.Mail, dep.Instrument)

	limit, window := limiterSettings(dep.Config)
	limiter := ratelimit.NewFixedWindow(dep.CacheConn, "identity:rl:", limit, window)

	sessionTTL := dep.Config.GetSecond("modules.identity.reset.session_ttl_seconds")
	if sessionTTL <= 0 {
		sessionTTL = 10 * time.Minute
	}
	sessions := flowsession.NewStore(dep.CacheConn, sessionTTL)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoCache:     repoCache,
		RepoMessaging: repoMsg,
		RepoMail:      repoMail,
		Sessions:      sessions,
		Limiter:       limiter,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Storage:       dep.Storage,
		HMAC:          dep.HMAC,
		Bcrypt:        dep.Bcrypt,
		UID:           dep.UID,
		UUID:          dep.UUID,
		OID:           dep.OID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		JWTRemember:   dep.JWTRemember,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}

// limiterSettings reads the rate-limit budget, defaulting to 10 attempts per
// one-minute window.
func limiterSettings(cfg config.Config) (int64, time.Duration) {
	limit := cfg.GetInt64("modules.identity.rate_limit.max_attempts")
	if limit <= 0 {
		limit = 10
	}

	window := cfg.GetSecond("modules.identity.rate_limit.window_seconds")
	if window <= 0 {
		window = time.Minute
	}

	return limit, window
}
