package models

import "time"

const (
	RoleClient     = "client"
	RoleConsultant = "consultant"
	RoleAdmin      = "admin"
)

// User is derived from the backend-issued JWT payload at login. The token
// is parsed without signature verification; the backend is trusted over
// the transport only.
type User struct {
	ID         string    `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Role       string    `json:"role"`
	LastActive time.Time `json:"last_active"`
}

// Session binds a Telegram chat to a backend identity.
type Session struct {
	TelegramID int64     `json:"telegram_id"`
	Token      string    `json:"token"`
	User       User      `json:"user"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the token lifetime has passed.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
