package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/musicflowhq/musicflow/internal/identity/entity"
)

// NewRegistration creates the user, its credential, and the companion profile
// and dashboard rows in one transaction. The companions are created here
// deliberately, as part of registration itself, so a user can never exist
// without them.
func (s *DB) NewRegistration(ctx context.Context, user entity.NewUser, hash string) (err error) {
	ctx, span := s.startSpan(ctx, "NewRegistration")
	defer func() { s.endSpan(span, err) }()

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		const insertUser = `
			INSERT INTO users (id, email, full_name, status)
			VALUES ($1, $2, $3, $4)`
		if _, err := tx.Exec(ctx, insertUser, user.ID, user.Email, user.FullName, user.Status); err != nil {
			return s.mapError(err)
		}

		const insertCredential = `
			INSERT INTO user_credentials (user_id, password)
			VALUES ($1, $2)`
		if _, err := tx.Exec(ctx, insertCredential, user.ID, hash); err != nil {
			return s.mapError(err)
		}

		const insertProfile = `
			INSERT INTO profiles (user_id)
			VALUES ($1)`
		if _, err := tx.Exec(ctx, insertProfile, user.ID); err != nil {
			return s.mapError(err)
		}

		const insertDashboard = `
			INSERT INTO dashboards (user_id, completed_lessons)
			VALUES ($1, '[]'::jsonb)`
		if _, err := tx.Exec(ctx, insertDashboard, user.ID); err != nil {
			return s.mapError(err)
		}

		return nil
	})

	return err
}
