// Package repository implements all database queries for the club signup
// system. It uses pgx directly (no ORM).
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dragvollklubb/paamelding/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrSessionFull is returned when a session has no remaining capacity.
var ErrSessionFull = errors.New("session is full")

// SessionRepository handles persistence for sessions.
type SessionRepository struct {
	db *pgxpool.Pool
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// sessionColumns selects session fields plus the live registration count.
const sessionColumns = `s.id, s.starts_at, s.ends_at, s.location, s.capacity,
	(SELECT COUNT(*) FROM registrations r WHERE r.session_id = s.id) AS registered`

// Create inserts a new session and returns it with its assigned id.
func (r *SessionRepository) Create(ctx context.Context, startsAt, endsAt time.Time, location string, capacity int) (*model.Session, error) {
	s := &model.Session{
		StartsAt: startsAt,
		EndsAt:   endsAt,
		Location: location,
		Capacity: capacity,
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO sessions (starts_at, ends_at, location, capacity)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		startsAt, endsAt, location, capacity,
	).Scan(&s.ID)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

// Update rewrites a session's time window, location and capacity.
func (r *SessionRepository) Update(ctx context.Context, id int64, startsAt, endsAt time.Time, location string, capacity int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE sessions
		 SET starts_at = $2, ends_at = $3, location = $4, capacity = $5
		 WHERE id = $1`,
		id, startsAt, endsAt, location, capacity,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a session. Its registrations go with it via the
// ON DELETE CASCADE foreign key.
func (r *SessionRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a single session or ErrNotFound.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	var s model.Session
	err := r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions s WHERE s.id = $1`,
		id,
	).Scan(&s.ID, &s.StartsAt, &s.EndsAt, &s.Location, &s.Capacity, &s.Registered)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// ListUpcoming returns sessions starting in the future, soonest first.
func (r *SessionRepository) ListUpcoming(ctx context.Context, limit int) ([]model.Session, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions s
		 WHERE s.starts_at > NOW()
		 ORDER BY s.starts_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list upcoming sessions: %w", err)
	}
	return scanSessions(rows)
}

// ListAll returns sessions in start order regardless of whether they have
// passed, for the admin overview.
func (r *SessionRepository) ListAll(ctx context.Context, limit int) ([]model.Session, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions s
		 ORDER BY s.starts_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return scanSessions(rows)
}

func scanSessions(rows pgx.Rows) ([]model.Session, error) {
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.StartsAt, &s.EndsAt, &s.Location, &s.Capacity, &s.Registered); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
