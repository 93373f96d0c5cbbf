// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/dragvollklubb/paamelding/internal/model"
)

// ErrRejected is returned when a submission trips the honeypot. Callers must
// not reveal to the submitter that bot detection occurred; depending on the
// flow they answer with a generic rejection or a fake success.
var ErrRejected = errors.New("submission rejected")

// ErrMissingCaptcha is returned when a submission carries no verification
// token at all.
var ErrMissingCaptcha = errors.New("captcha token missing")

// ValidationError carries a short, user-facing reason for rejecting input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// SessionStore is the persistence contract for sessions.
type SessionStore interface {
	Create(ctx context.Context, startsAt, endsAt time.Time, location string, capacity int) (*model.Session, error)
	Update(ctx context.Context, id int64, startsAt, endsAt time.Time, location string, capacity int) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	ListUpcoming(ctx context.Context, limit int) ([]model.Session, error)
	ListAll(ctx context.Context, limit int) ([]model.Session, error)
}

// RegistrationStore is the persistence contract for registrations. The
// capacity invariant lives behind RegisterIfAvailable: the count and the
// insert happen as one atomic unit against the store.
type RegistrationStore interface {
	RegisterIfAvailable(ctx context.Context, sessionID int64, name, level string) (*model.Registration, error)
	ListBySession(ctx context.Context, sessionID int64) ([]model.Registration, error)
	ListRecent(ctx context.Context, limit int) ([]model.Registration, error)
	Update(ctx context.Context, id int64, name, level string) error
	Delete(ctx context.Context, id int64) error
}

// UnregisterRequestStore is the persistence contract for the unregister
// audit trail.
type UnregisterRequestStore interface {
	Create(ctx context.Context, sessionID int64, name, message string) (*model.UnregisterRequest, error)
}
