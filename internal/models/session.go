package models

import "time"

// Role is the access level a session was authenticated with.
// It is fixed for the session's lifetime; changing role requires a new login.
type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValidRole reports whether the role is one a client may log in as.
func IsValidRole(r Role) bool {
	return r == RoleGuest || r == RoleUser || r == RoleAdmin
}

// Session is the per-client ephemeral state: identity, role, and the
// set of event chats the client has joined. It is never persisted;
// join flags reset when the process restarts.
type Session struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Username  string         `json:"username"`
	Joined    map[int64]bool `json:"joined"`
	CreatedAt time.Time      `json:"created_at"`
}

// HasJoined reports whether the session has joined the event's chat.
func (s *Session) HasJoined(eventID int64) bool {
	return s.Joined[eventID]
}

// CanSendChat reports whether the session may send messages to the event's
// chat. Guests can never send; everyone else must have joined first.
func (s *Session) CanSendChat(eventID int64) bool {
	if s.Role == RoleGuest {
		return false
	}
	return s.HasJoined(eventID)
}
