package app

import (
	"log/slog"
	"os"

	"github.com/musicflowhq/musicflow/internal/identity"
	"github.com/musicflowhq/musicflow/internal/notification"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.identity.enabled") {
		if err := identity.New(identity.Dependency{
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			OID:         a.oid,
			Bcrypt:      a.bcrypt,
			HMAC:        a.hmac,
			Clock:       a.clock,
			Validator:   a.validator,
			Router:      a.router,
			DBConn:      a.dbConn,
			CacheConn:   a.cacheConn,
			Messaging:   a.messaging,
			Mail:        a.mail,
			Storage:     a.storage,
			Goroutine:   a.goroutine,
			JWT:         a.jwt,
			JWTRemember: a.jwtRemember,
		}); err != nil {
			slog.Error("failed to init module identity", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:         a.ctx,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			UUID:        a.uuid,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Mail:        a.mail,
			Idempotency: a.idemp,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
