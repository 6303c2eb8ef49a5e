package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mavericksstream/unlock/internal/model"
)

var ErrAttemptNotFound = errors.New("attempt not found")

type AttemptRepository interface {
	Append(ctx context.Context, event *model.AttemptEvent) error
	ByContentID(ctx context.Context, contentID string) ([]*model.AttemptEvent, error)
	Latest(ctx context.Context, contentID string) (*model.AttemptEvent, error)
	Recent(ctx context.Context, limit int) ([]*model.AttemptEvent, error)
}

type attemptRepository struct {
	db *sqlx.DB
}

func NewAttemptRepository(db *sqlx.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

// Append journals one transition. Events are never updated afterwards.
func (r *attemptRepository) Append(ctx context.Context, event *model.AttemptEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO unlock_attempts (id, attempt_id, content_id, intent_id, from_state, to_state, error_kind, message, amount, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.AttemptID,
		event.ContentID,
		event.IntentID,
		event.FromState,
		event.ToState,
		event.ErrorKind,
		event.Message,
		event.Amount,
		event.Currency,
		event.CreatedAt.UTC(),
	)
	return err
}

// ByContentID returns the transitions of every attempt on one video, oldest first.
func (r *attemptRepository) ByContentID(ctx context.Context, contentID string) ([]*model.AttemptEvent, error) {
	var events []*model.AttemptEvent
	query := `SELECT * FROM unlock_attempts WHERE content_id = $1 ORDER BY created_at ASC, id ASC`
	err := r.db.SelectContext(ctx, &events, query, contentID)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Latest returns the most recent transition for a video.
func (r *attemptRepository) Latest(ctx context.Context, contentID string) (*model.AttemptEvent, error) {
	var event model.AttemptEvent
	query := `SELECT * FROM unlock_attempts WHERE content_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	err := r.db.GetContext(ctx, &event, query, contentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// Recent returns the newest transitions across all videos, newest first.
func (r *attemptRepository) Recent(ctx context.Context, limit int) ([]*model.AttemptEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	var events []*model.AttemptEvent
	query := `SELECT * FROM unlock_attempts ORDER BY created_at DESC, id DESC LIMIT $1`
	err := r.db.SelectContext(ctx, &events, query, limit)
	if err != nil {
		return nil, err
	}
	return events, nil
}
