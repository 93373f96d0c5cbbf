package service

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/dragvollklubb/paamelding/internal/captcha"
	"github.com/dragvollklubb/paamelding/internal/model"
)

const (
	defaultUpcomingLimit = 12
	maxUpcomingLimit     = 50
)

// SignupService handles everything a club member can do without credentials:
// browse upcoming sessions, register, and ask to be taken off a session.
type SignupService struct {
	sessions      SessionStore
	registrations RegistrationStore
	unregisters   UnregisterRequestStore
	verifier      captcha.Verifier
}

// NewSignupService constructs a SignupService with its dependencies.
func NewSignupService(
	sessions SessionStore,
	registrations RegistrationStore,
	unregisters UnregisterRequestStore,
	verifier captcha.Verifier,
) *SignupService {
	return &SignupService{
		sessions:      sessions,
		registrations: registrations,
		unregisters:   unregisters,
		verifier:      verifier,
	}
}

// UpcomingSessions returns future sessions, soonest first. A non-positive
// limit falls back to the default; the cap keeps one request from paging the
// whole table.
func (s *SignupService) UpcomingSessions(ctx context.Context, limit int) ([]model.Session, error) {
	if limit <= 0 {
		limit = defaultUpcomingLimit
	}
	if limit > maxUpcomingLimit {
		limit = maxUpcomingLimit
	}
	return s.sessions.ListUpcoming(ctx, limit)
}

// SessionRegistrations returns a session's registrations oldest first, for
// the attendance list.
func (s *SignupService) SessionRegistrations(ctx context.Context, sessionID int64) ([]model.Registration, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.registrations.ListBySession(ctx, sessionID)
}

// Register admits a member to a session.
//
// Checks run in a fixed order, short-circuiting on the first failure: input
// validation, honeypot, captcha token presence, captcha verification, and
// finally the atomic insert-if-under-capacity against the store. Exactly one
// registration row exists on success; none on any failure path.
func (s *SignupService) Register(ctx context.Context, p model.RegisterPayload) (*model.Registration, error) {
	if p.SessionID <= 0 {
		return nil, invalid("Ugyldig økt.")
	}
	name := strings.TrimSpace(p.Name)
	if !model.ValidName(name) {
		return nil, invalid("Ugyldig navn.")
	}
	if !model.ValidLevel(p.Level) {
		return nil, invalid("Ugyldig nivå.")
	}

	if strings.TrimSpace(p.Website) != "" {
		log.WithField("session_id", p.SessionID).Info("register: honeypot tripped")
		return nil, ErrRejected
	}

	if p.TurnstileToken == "" {
		return nil, ErrMissingCaptcha
	}
	if err := s.verifier.Verify(ctx, p.TurnstileToken); err != nil {
		return nil, err
	}

	reg, err := s.registrations.RegisterIfAvailable(ctx, p.SessionID, name, p.Level)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"session_id":      reg.SessionID,
		"registration_id": reg.ID,
		"level":           reg.Level,
	}).Info("registration created")
	return reg, nil
}

// RequestUnregister records that a member wants off a session. It never
// touches the registrations table; an admin handles the actual removal.
//
// A tripped honeypot returns ErrRejected with nothing persisted; the HTTP
// layer answers that flow as if it succeeded.
func (s *SignupService) RequestUnregister(ctx context.Context, p model.UnregisterPayload) error {
	if strings.TrimSpace(p.Website) != "" {
		log.WithField("session_id", p.SessionID).Info("unregister: honeypot tripped")
		return ErrRejected
	}

	if p.SessionID <= 0 {
		return invalid("Ugyldig økt.")
	}
	name := strings.TrimSpace(p.Name)
	if !model.ValidName(name) {
		return invalid("Navn må være minst 2 tegn.")
	}
	message := strings.TrimSpace(p.Message)
	if len(message) < 5 {
		return invalid("Melding må være minst 5 tegn.")
	}

	if p.TurnstileToken == "" {
		return ErrMissingCaptcha
	}
	if err := s.verifier.Verify(ctx, p.TurnstileToken); err != nil {
		return err
	}

	if _, err := s.sessions.GetByID(ctx, p.SessionID); err != nil {
		return err
	}

	if _, err := s.unregisters.Create(ctx, p.SessionID, name, message); err != nil {
		return fmt.Errorf("record unregister request: %w", err)
	}
	return nil
}
