package db

import (
	"context"
	"encoding/json"

	"github.com/musicflowhq/musicflow/internal/identity/entity"
)

func (s *DB) GetUserLoginInfo(ctx context.Context, email string) (_ *entity.UserLoginInfo, err error) {
	ctx, span := s.startSpan(ctx, "GetUserLoginInfo")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT u.id, u.email, u.full_name, u.status, c.password
		FROM users u
		JOIN user_credentials c ON c.user_id = u.id
		WHERE lower(u.email) = lower($1)`

	var info entity.UserLoginInfo
	err = s.conn.QueryRow(ctx, query, email).
		Scan(&info.ID, &info.Email, &info.FullName, &info.Status, &info.Password)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &info, nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT id, email, full_name, status, created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1)`

	var user entity.User
	err = s.conn.QueryRow(ctx, query, email).
		Scan(&user.ID, &user.Email, &user.FullName, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &user, nil
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT id, email, full_name, status, created_at, updated_at
		FROM users
		WHERE id = $1`

	var user entity.User
	err = s.conn.QueryRow(ctx, query, id).
		Scan(&user.ID, &user.Email, &user.FullName, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &user, nil
}

func (s *DB) GetProfile(ctx context.Context, userID int64) (_ *entity.Profile, err error) {
	ctx, span := s.startSpan(ctx, "GetProfile")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT user_id, first_name, last_name, phone, profession, genre,
			instrument, skill_level, bio, avatar_url, updated_at
		FROM profiles
		WHERE user_id = $1`

	var p entity.Profile
	err = s.conn.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.FirstName, &p.LastName, &p.Phone, &p.Profession, &p.Genre,
		&p.Instrument, &p.SkillLevel, &p.Bio, &p.AvatarURL, &p.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &p, nil
}

func (s *DB) GetDashboard(ctx context.Context, userID int64) (_ *entity.Dashboard, err error) {
	ctx, span := s.startSpan(ctx, "GetDashboard")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT user_id, last_opened_page, completed_lessons, notes,
			guitar_type, page_theme, updated_at
		FROM dashboards
		WHERE user_id = $1`

	var (
		d          entity.Dashboard
		rawLessons []byte
	)
	err = s.conn.QueryRow(ctx, query, userID).Scan(
		&d.UserID, &d.LastOpenedPage, &rawLessons, &d.Notes,
		&d.GuitarType, &d.PageTheme, &d.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	if len(rawLessons) > 0 {
		if err = json.Unmarshal(rawLessons, &d.CompletedLessons); err != nil {
			return nil, err
		}
	}

	return &d, nil
}
