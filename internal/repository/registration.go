package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dragvollklubb/paamelding/internal/model"
)

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// RegisterIfAvailable inserts a registration only if the session still has
// room, as one atomic unit against the database.
//
// A naive count-then-insert is a race: two concurrent signups can both read
// count == capacity-1 and both insert, overbooking the session. Instead the
// transaction takes a row-level lock on the session with SELECT ... FOR
// UPDATE; any concurrent attempt on the same session blocks until this
// transaction commits or rolls back, so the count it reads under the lock is
// authoritative.
func (r *RegistrationRepository) RegisterIfAvailable(ctx context.Context, sessionID int64, name, level string) (*model.Registration, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var capacity int
	err = tx.QueryRow(ctx,
		`SELECT capacity FROM sessions WHERE id = $1 FOR UPDATE`,
		sessionID,
	).Scan(&capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock session row: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE session_id = $1`,
		sessionID,
	).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	if count >= capacity {
		err = ErrSessionFull
		return nil, err
	}

	reg := &model.Registration{
		SessionID: sessionID,
		Name:      name,
		Level:     level,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO registrations (session_id, name, level)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		sessionID, name, level,
	).Scan(&reg.ID, &reg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return reg, nil
}

// ListBySession returns a session's registrations, oldest first.
func (r *RegistrationRepository) ListBySession(ctx context.Context, sessionID int64) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, session_id, name, level, created_at
		 FROM registrations
		 WHERE session_id = $1
		 ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return scanRegistrations(rows)
}

// ListRecent returns the newest registrations across all sessions, for the
// admin overview.
func (r *RegistrationRepository) ListRecent(ctx context.Context, limit int) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, session_id, name, level, created_at
		 FROM registrations
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent registrations: %w", err)
	}
	return scanRegistrations(rows)
}

// CountBySession returns the number of registrations for a session.
func (r *RegistrationRepository) CountBySession(ctx context.Context, sessionID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE session_id = $1`,
		sessionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

// Update rewrites a registration's name and level. Session membership never
// changes through this path, so capacity is not involved.
func (r *RegistrationRepository) Update(ctx context.Context, id int64, name, level string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE registrations SET name = $2, level = $3 WHERE id = $1`,
		id, name, level,
	)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a single registration.
func (r *RegistrationRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRegistrations(rows pgx.Rows) ([]model.Registration, error) {
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.SessionID, &reg.Name, &reg.Level, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
