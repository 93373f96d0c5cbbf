package service

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dragvollklubb/paamelding/internal/model"
	"github.com/dragvollklubb/paamelding/internal/timezone"
)

const (
	adminSessionLimit      = 30
	adminRegistrationLimit = 300
)

// AdminService implements the privileged operations behind the admin gate.
// Authorization happens in the HTTP layer; every method here assumes the
// caller has already been authenticated.
type AdminService struct {
	sessions      SessionStore
	registrations RegistrationStore
}

// NewAdminService constructs an AdminService with its dependencies.
func NewAdminService(sessions SessionStore, registrations RegistrationStore) *AdminService {
	return &AdminService{sessions: sessions, registrations: registrations}
}

// Sessions returns the admin session overview, earliest start first.
func (s *AdminService) Sessions(ctx context.Context) ([]model.Session, error) {
	return s.sessions.ListAll(ctx, adminSessionLimit)
}

// RecentRegistrations returns the newest registrations across all sessions.
func (s *AdminService) RecentRegistrations(ctx context.Context) ([]model.Registration, error) {
	return s.registrations.ListRecent(ctx, adminRegistrationLimit)
}

// CreateSession validates the payload, converts the civil times to absolute
// instants, and inserts a new session.
func (s *AdminService) CreateSession(ctx context.Context, p model.SessionPayload) (*model.Session, error) {
	startsAt, endsAt, location, err := validateSessionPayload(p)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Create(ctx, startsAt, endsAt, location, p.Capacity)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"session_id": sess.ID,
		"starts_at":  sess.StartsAt,
		"capacity":   sess.Capacity,
	}).Info("session created")
	return sess, nil
}

// UpdateSession rewrites an existing session's time window, location and
// capacity.
func (s *AdminService) UpdateSession(ctx context.Context, id int64, p model.SessionPayload) error {
	startsAt, endsAt, location, err := validateSessionPayload(p)
	if err != nil {
		return err
	}
	return s.sessions.Update(ctx, id, startsAt, endsAt, location, p.Capacity)
}

// DeleteSession removes a session and, through the store's cascade, every
// registration that belongs to it.
func (s *AdminService) DeleteSession(ctx context.Context, id int64) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	log.WithField("session_id", id).Info("session deleted")
	return nil
}

// UpdateRegistration rewrites a registration's name and level. An edit never
// changes session membership, so capacity is not re-checked.
func (s *AdminService) UpdateRegistration(ctx context.Context, id int64, p model.RegistrationPayload) error {
	name := strings.TrimSpace(p.Name)
	if !model.ValidName(name) {
		return invalid("Ugyldig navn.")
	}
	if !model.ValidLevel(p.Level) {
		return invalid("Ugyldig nivå.")
	}
	return s.registrations.Update(ctx, id, name, p.Level)
}

// DeleteRegistration removes a single registration.
func (s *AdminService) DeleteRegistration(ctx context.Context, id int64) error {
	return s.registrations.Delete(ctx, id)
}

func validateSessionPayload(p model.SessionPayload) (startsAt, endsAt time.Time, location string, err error) {
	startsAt, err = timezone.ParseFormInput(p.StartsAt)
	if err != nil {
		return time.Time{}, time.Time{}, "", invalid("Ugyldig starttid.")
	}
	endsAt, err = timezone.ParseFormInput(p.EndsAt)
	if err != nil {
		return time.Time{}, time.Time{}, "", invalid("Ugyldig sluttid.")
	}
	if !endsAt.After(startsAt) {
		return time.Time{}, time.Time{}, "", invalid("Sluttid må være etter starttid.")
	}
	location = strings.TrimSpace(p.Location)
	if location == "" {
		return time.Time{}, time.Time{}, "", invalid("Sted kan ikke være tomt.")
	}
	if p.Capacity < 1 || p.Capacity > model.MaxCapacity {
		return time.Time{}, time.Time{}, "", invalid("Kapasitet må være mellom 1 og 200.")
	}
	return startsAt, endsAt, location, nil
}
