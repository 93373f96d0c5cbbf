package testfixtures

import (
	"context"
	"time"

	"github.com/dragvollklubb/paamelding/internal/model"
)

// MemStore itself satisfies the session store contract. The registration and
// unregister contracts reuse the method names Update/Delete/Create with
// different signatures, so those two are exposed as thin views over the same
// backing store.

// Registrations returns the store viewed as a registration store.
func (m *MemStore) Registrations() *MemRegistrations {
	return &MemRegistrations{store: m}
}

// Unregisters returns the store viewed as an unregister-request store.
func (m *MemStore) Unregisters() *MemUnregisters {
	return &MemUnregisters{store: m}
}

// MemRegistrations adapts MemStore to the registration store contract.
type MemRegistrations struct {
	store *MemStore
}

func (r *MemRegistrations) RegisterIfAvailable(ctx context.Context, sessionID int64, name, level string) (*model.Registration, error) {
	return r.store.RegisterIfAvailable(ctx, sessionID, name, level)
}

func (r *MemRegistrations) ListBySession(ctx context.Context, sessionID int64) ([]model.Registration, error) {
	return r.store.ListBySession(ctx, sessionID)
}

func (r *MemRegistrations) ListRecent(ctx context.Context, limit int) ([]model.Registration, error) {
	return r.store.ListRecent(ctx, limit)
}

func (r *MemRegistrations) Update(ctx context.Context, id int64, name, level string) error {
	return r.store.UpdateRegistration(ctx, id, name, level)
}

func (r *MemRegistrations) Delete(ctx context.Context, id int64) error {
	return r.store.DeleteRegistration(ctx, id)
}

// MemUnregisters adapts MemStore to the unregister-request store contract.
type MemUnregisters struct {
	store *MemStore
}

func (u *MemUnregisters) Create(ctx context.Context, sessionID int64, name, message string) (*model.UnregisterRequest, error) {
	return u.store.CreateUnregisterRequest(ctx, sessionID, name, message)
}

// FutureWindow returns a start/end pair n hours from now, two hours long.
// Convenient for seeding upcoming sessions.
func FutureWindow(hoursAhead int) (time.Time, time.Time) {
	start := time.Now().Add(time.Duration(hoursAhead) * time.Hour).Truncate(time.Minute)
	return start, start.Add(2 * time.Hour)
}
