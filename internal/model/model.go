// Package model defines the core domain types for the club signup system.
package model

import (
	"strings"
	"time"
)

// Skill levels a member can pick when registering. The values are the exact
// strings shown in the signup form and stored in the database.
const (
	LevelBeginner     = "Nybegynner"
	LevelIntermediate = "Viderekommen"
	LevelExperienced  = "Erfaren"
)

// Levels lists every valid skill level in display order.
var Levels = []string{LevelBeginner, LevelIntermediate, LevelExperienced}

// ValidLevel reports whether level is one of the fixed skill levels.
func ValidLevel(level string) bool {
	for _, l := range Levels {
		if level == l {
			return true
		}
	}
	return false
}

// ValidName reports whether name is acceptable after trimming.
func ValidName(name string) bool {
	return len(strings.TrimSpace(name)) >= 2
}

// MaxCapacity is the largest attendance cap a session may have.
const MaxCapacity = 200

// Session is a scheduled training session with a fixed attendance cap.
type Session struct {
	ID       int64     `json:"id"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Location string    `json:"location"`
	Capacity int       `json:"capacity"`

	// Registered is the current registration count, filled in by list
	// queries; it is not a stored column.
	Registered int `json:"registered"`
}

// Remaining returns the number of open spots.
func (s *Session) Remaining() int {
	return s.Capacity - s.Registered
}

// IsFull returns true when no spots remain.
func (s *Session) IsFull() bool {
	return s.Registered >= s.Capacity
}

// Registration is a member's spot in a session.
type Registration struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	Name      string    `json:"name"`
	Level     string    `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}

// UnregisterRequest is an audit record of a member asking to be taken off a
// session. It is write-only from the public API; admins read it out of band.
type UnregisterRequest struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterPayload is the body of POST /api/register.
type RegisterPayload struct {
	SessionID      int64  `json:"sessionId"`
	Name           string `json:"name"`
	Level          string `json:"level"`
	TurnstileToken string `json:"turnstileToken"`
	// Website is a honeypot field. Humans never see it; bots fill it in.
	Website string `json:"website"`
}

// UnregisterPayload is the body of POST /api/unregister-request.
type UnregisterPayload struct {
	SessionID      int64  `json:"sessionId"`
	Name           string `json:"name"`
	Message        string `json:"message"`
	TurnstileToken string `json:"turnstileToken"`
	Website        string `json:"website"`
}

// SessionPayload is the body of admin session create/update calls. Times are
// civil date-time strings ("2006-01-02T15:04") in the club's timezone, as
// produced by a datetime-local form input.
type SessionPayload struct {
	StartsAt string `json:"startsAt"`
	EndsAt   string `json:"endsAt"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

// RegistrationPayload is the body of admin registration updates.
type RegistrationPayload struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
