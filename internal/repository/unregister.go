package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dragvollklubb/paamelding/internal/model"
)

// UnregisterRequestRepository persists the write-only audit trail of
// unregister requests.
type UnregisterRequestRepository struct {
	db *pgxpool.Pool
}

// NewUnregisterRequestRepository constructs an UnregisterRequestRepository.
func NewUnregisterRequestRepository(db *pgxpool.Pool) *UnregisterRequestRepository {
	return &UnregisterRequestRepository{db: db}
}

// Create records an unregister request.
func (r *UnregisterRequestRepository) Create(ctx context.Context, sessionID int64, name, message string) (*model.UnregisterRequest, error) {
	req := &model.UnregisterRequest{
		SessionID: sessionID,
		Name:      name,
		Message:   message,
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO unregister_requests (session_id, name, message)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		sessionID, name, message,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert unregister request: %w", err)
	}
	return req, nil
}
