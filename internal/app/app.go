package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/musicflowhq/musicflow/internal/pkg/clock"
	"github.com/musicflowhq/musicflow/internal/pkg/config"
	"github.com/musicflowhq/musicflow/internal/pkg/goroutine"
	"github.com/musicflowhq/musicflow/internal/pkg/hash"
	"github.com/musicflowhq/musicflow/internal/pkg/idempotency"
	"github.com/musicflowhq/musicflow/internal/pkg/instrument"
	"github.com/musicflowhq/musicflow/internal/pkg/jwt"
	"github.com/musicflowhq/musicflow/internal/pkg/mail"
	"github.com/musicflowhq/musicflow/internal/pkg/messaging"
	"github.com/musicflowhq/musicflow/internal/pkg/router"
	"github.com/musicflowhq/musicflow/internal/pkg/storage"
	"github.com/musicflowhq/musicflow/internal/pkg/uid"
	"github.com/musicflowhq/musicflow/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine   *goroutine.Manager
	validator   validator.Validator
	clock       clock.Clocker
	hmac        hash.Hash
	bcrypt      hash.Hash
	uid         uid.NumberID
	oid         uid.StringID
	uuid        uid.StringID
	jwt         jwt.JWT
	jwtRemember jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Messaging
	storage   storage.Storage

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
