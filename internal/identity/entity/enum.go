package entity

type UserStatus int16

const (
	// UserStatusUnknown is mean status is not known / not set.
	UserStatusUnknown UserStatus = 0

	// UserStatusActive mean user is allowed to use the app.
	UserStatusActive UserStatus = 1

	// UserStatusBanned mean user is blocked from using the app (policy/abuse/etc).
	UserStatusBanned UserStatus = 2

	// UserStatusInactive mean user is not currently active (e.g., deactivated, closed).
	UserStatusInactive UserStatus = 3
)

func (us UserStatus) String() string {
	switch us {
	case UserStatusActive:
		return "Active"
	case UserStatusBanned:
		return "Banned"
	case UserStatusInactive:
		return "Inactive"
	default:
		return "Unknown"
	}
}

func (us UserStatus) IsUnknown() bool {
	switch us {
	case UserStatusActive, UserStatusBanned, UserStatusInactive:
		return false
	default:
		return true
	}
}

func (us UserStatus) Ensure() UserStatus {
	switch us {
	case UserStatusActive:
		return UserStatusActive
	case UserStatusBanned:
		return UserStatusBanned
	case UserStatusInactive:
		return UserStatusInactive
	default:
		return UserStatusUnknown
	}
}
