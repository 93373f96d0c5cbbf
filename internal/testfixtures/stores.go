// Package testfixtures provides in-memory stand-ins for the persistence and
// verification dependencies, so service and handler behavior can be tested
// without a database or network.
package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dragvollklubb/paamelding/internal/model"
	"github.com/dragvollklubb/paamelding/internal/repository"
)

// MemStore is a mutex-guarded in-memory implementation of the session,
// registration and unregister-request stores. RegisterIfAvailable holds the
// lock across the count and the insert, mirroring the atomicity the real
// store provides with its row-locked transaction.
type MemStore struct {
	mu sync.Mutex

	nextSessionID int64
	nextRegID     int64
	nextUnregID   int64

	sessions      map[int64]model.Session
	registrations map[int64]model.Registration
	unregisters   map[int64]model.UnregisterRequest

	// Now supplies creation instants; overridable per test.
	Now func() time.Time
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		sessions:      make(map[int64]model.Session),
		registrations: make(map[int64]model.Registration),
		unregisters:   make(map[int64]model.UnregisterRequest),
		Now:           time.Now,
	}
}

// ─── SessionStore ─────────────────────────────────────────────────────────────

func (m *MemStore) Create(_ context.Context, startsAt, endsAt time.Time, location string, capacity int) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSessionID++
	s := model.Session{
		ID:       m.nextSessionID,
		StartsAt: startsAt,
		EndsAt:   endsAt,
		Location: location,
		Capacity: capacity,
	}
	m.sessions[s.ID] = s
	return &s, nil
}

func (m *MemStore) Update(_ context.Context, id int64, startsAt, endsAt time.Time, location string, capacity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.StartsAt, s.EndsAt, s.Location, s.Capacity = startsAt, endsAt, location, capacity
	m.sessions[id] = s
	return nil
}

func (m *MemStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.sessions, id)
	// Cascade, as the real schema's foreign key does.
	for regID, reg := range m.registrations {
		if reg.SessionID == id {
			delete(m.registrations, regID)
		}
	}
	return nil
}

func (m *MemStore) GetByID(_ context.Context, id int64) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s.Registered = m.countLocked(id)
	return &s, nil
}

func (m *MemStore) ListUpcoming(_ context.Context, limit int) ([]model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	var out []model.Session
	for _, s := range m.sessions {
		if s.StartsAt.After(now) {
			s.Registered = m.countLocked(s.ID)
			out = append(out, s)
		}
	}
	sortSessions(out)
	return clip(out, limit), nil
}

func (m *MemStore) ListAll(_ context.Context, limit int) ([]model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Session
	for _, s := range m.sessions {
		s.Registered = m.countLocked(s.ID)
		out = append(out, s)
	}
	sortSessions(out)
	return clip(out, limit), nil
}

// ─── RegistrationStore ────────────────────────────────────────────────────────

func (m *MemStore) RegisterIfAvailable(_ context.Context, sessionID int64, name, level string) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if m.countLocked(sessionID) >= s.Capacity {
		return nil, repository.ErrSessionFull
	}

	m.nextRegID++
	reg := model.Registration{
		ID:        m.nextRegID,
		SessionID: sessionID,
		Name:      name,
		Level:     level,
		CreatedAt: m.Now(),
	}
	m.registrations[reg.ID] = reg
	return &reg, nil
}

func (m *MemStore) ListBySession(_ context.Context, sessionID int64) ([]model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Registration
	for _, reg := range m.registrations {
		if reg.SessionID == sessionID {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemStore) ListRecent(_ context.Context, limit int) ([]model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Registration
	for _, reg := range m.registrations {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return clip(out, limit), nil
}

func (m *MemStore) UpdateRegistration(ctx context.Context, id int64, name, level string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, ok := m.registrations[id]
	if !ok {
		return repository.ErrNotFound
	}
	reg.Name, reg.Level = name, level
	m.registrations[id] = reg
	return nil
}

func (m *MemStore) DeleteRegistration(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.registrations[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.registrations, id)
	return nil
}

// ─── UnregisterRequestStore ───────────────────────────────────────────────────

// CreateUnregisterRequest records an unregister request.
func (m *MemStore) CreateUnregisterRequest(_ context.Context, sessionID int64, name, message string) (*model.UnregisterRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextUnregID++
	req := model.UnregisterRequest{
		ID:        m.nextUnregID,
		SessionID: sessionID,
		Name:      name,
		Message:   message,
		CreatedAt: m.Now(),
	}
	m.unregisters[req.ID] = req
	return &req, nil
}

// ─── Test helpers ─────────────────────────────────────────────────────────────

// SeedSession inserts a session directly and returns it.
func (m *MemStore) SeedSession(startsAt, endsAt time.Time, location string, capacity int) model.Session {
	s, _ := m.Create(context.Background(), startsAt, endsAt, location, capacity)
	return *s
}

// RegistrationCount returns the number of persisted registrations for a
// session.
func (m *MemStore) RegistrationCount(sessionID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countLocked(sessionID)
}

// UnregisterRequestCount returns the number of persisted unregister requests.
func (m *MemStore) UnregisterRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.unregisters)
}

func (m *MemStore) countLocked(sessionID int64) int {
	count := 0
	for _, reg := range m.registrations {
		if reg.SessionID == sessionID {
			count++
		}
	}
	return count
}

func sortSessions(sessions []model.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].StartsAt.Equal(sessions[j].StartsAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].StartsAt.Before(sessions[j].StartsAt)
	})
}

func clip[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
