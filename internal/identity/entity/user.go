package entity

import "time"

// User is the identity aggregate root.
type User struct {
	ID        int64
	Email     string
	FullName  string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserLoginInfo carries everything the login flow needs in one read.
type UserLoginInfo struct {
	ID       int64
	Email    string
	FullName string
	Status   UserStatus
	Password string
}

// NewUser is the payload for creating a user together with its companion
// profile and dashboard rows.
type NewUser struct {
	ID       int64
	Email    string
	FullName string
	Status   UserStatus
}
