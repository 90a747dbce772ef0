package entity

import "time"

// Dashboard is the per-user learning workspace state.
type Dashboard struct {
	UserID           int64
	LastOpenedPage   string
	CompletedLessons []string
	Notes            string
	GuitarType       string
	PageTheme        string
	UpdatedAt        time.Time
}

// UpdateDashboard is the mutable subset of Dashboard.
type UpdateDashboard struct {
	UserID           int64
	LastOpenedPage   string
	CompletedLessons []string
	Notes            string
	GuitarType       string
	PageTheme        string
}
