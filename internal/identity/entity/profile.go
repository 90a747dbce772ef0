package entity

import "time"

// Profile holds the musician-facing attributes of a user.
type Profile struct {
	UserID     int64
	FirstName  string
	LastName   string
	Phone      string
	Profession string
	Genre      string
	Instrument string
	SkillLevel string
	Bio        string
	AvatarURL  string
	UpdatedAt  time.Time
}

// UpdateProfile is the mutable subset of Profile.
type UpdateProfile struct {
	UserID     int64
	FirstName  string
	LastName   string
	Phone      string
	Profession string
	Genre      string
	Instrument string
	SkillLevel string
	Bio        string
}
