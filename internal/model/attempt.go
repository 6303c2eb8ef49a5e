package model

import "time"

// AttemptEvent is one journaled state transition of an unlock attempt.
type AttemptEvent struct {
	ID        string    `db:"id"`
	AttemptID string    `db:"attempt_id"`
	ContentID string    `db:"content_id"`
	IntentID  *string   `db:"intent_id"`
	FromState string    `db:"from_state"`
	ToState   string    `db:"to_state"`
	ErrorKind *string   `db:"error_kind"`
	Message   string    `db:"message"`
	Amount    *int64    `db:"amount"`
	Currency  string    `db:"currency"`
	CreatedAt time.Time `db:"created_at"`
}

func (e *AttemptEvent) IsFailure() bool {
	return e.ErrorKind != nil && *e.ErrorKind != ""
}
