package entity

import "time"

// Session identifies the logged-in user driving the UI.
// It is handed explicitly to presenters and controllers.
type Session struct {
	Type  string `json:"type"`
	Email string `json:"email"`

	// CreatedAt is zero for sessions that never expire
	CreatedAt time.Time `json:"created_at"`
}

// IsEmployee returns true for employee sessions
func (s Session) IsEmployee() bool {
	return s.Type == UserTypeEmployee
}

// IsAdmin returns true for administrator sessions
func (s Session) IsAdmin() bool {
	return s.Type == UserTypeAdmin
}

// ExpiredBefore reports whether the session was opened before cutoff
func (s Session) ExpiredBefore(cutoff time.Time) bool {
	return !s.CreatedAt.IsZero() && s.CreatedAt.Before(cutoff)
}
