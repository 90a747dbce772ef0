package db

import (
	"context"
	"encoding/json"

	"github.com/musicflowhq/musicflow/internal/identity/entity"
	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
)

func (s *DB) UpdateUserPassword(ctx context.Context, userID int64, hash string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserPassword")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE user_credentials
		SET password = $1, updated_at = now()
		WHERE user_id = $2`

	tag, err := s.conn.Exec(ctx, query, hash, userID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) UpdateProfile(ctx context.Context, in entity.UpdateProfile) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateProfile")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE profiles
		SET first_name = $1, last_name = $2, phone = $3, profession = $4,
			genre = $5, instrument = $6, skill_level = $7, bio = $8,
			updated_at = now()
		WHERE user_id = $9`

	tag, err := s.conn.Exec(ctx, query,
		in.FirstName, in.LastName, in.Phone, in.Profession,
		in.Genre, in.Instrument, in.SkillLevel, in.Bio, in.UserID,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) UpdateProfileAvatar(ctx context.Context, userID int64, avatarURL string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateProfileAvatar")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE profiles
		SET avatar_url = $1, updated_at = now()
		WHERE user_id = $2`

	tag, err := s.conn.Exec(ctx, query, avatarURL, userID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) UpdateDashboard(ctx context.Context, in entity.UpdateDashboard) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateDashboard")
	defer func() { s.endSpan(span, err) }()

	lessons, err := json.Marshal(in.CompletedLessons)
	if err != nil {
		return err
	}

	const query = `
		UPDATE dashboards
		SET last_opened_page = $1, completed_lessons = $2, notes = $3,
			guitar_type = $4, page_theme = $5, updated_at = now()
		WHERE user_id = $6`

	tag, err := s.conn.Exec(ctx, query,
		in.LastOpenedPage, lessons, in.Notes,
		in.GuitarType, in.PageTheme, in.UserID,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
