package service

import (
	"context"
	"log/slog"

	"github.com/mavericksstream/unlock/internal/model"
	"github.com/mavericksstream/unlock/internal/repository"
	"github.com/mavericksstream/unlock/internal/unlock"
)

// AttemptJournal records every unlock transition so a user can see what happened to a
// purchase after the page was left.
type AttemptJournal struct {
	attempts repository.AttemptRepository
}

func NewAttemptJournal(attempts repository.AttemptRepository) *AttemptJournal {
	return &AttemptJournal{attempts: attempts}
}

// OnTransition journals t. A journal failure is logged and never affects the unlock itself.
func (j *AttemptJournal) OnTransition(ctx context.Context, t unlock.Transition) {
	event := &model.AttemptEvent{
		AttemptID: t.AttemptID,
		ContentID: t.ContentID,
		FromState: t.From.String(),
		ToState:   t.To.String(),
		Message:   t.Message,
		Currency:  t.Price.Currency,
		CreatedAt: t.At,
	}
	if t.IntentID != "" {
		event.IntentID = &t.IntentID
	}
	if t.Kind != unlock.KindNone {
		kind := t.Kind.String()
		event.ErrorKind = &kind
	}
	if !t.Price.IsZero() {
		amount := t.Price.Amount
		event.Amount = &amount
	}

	err := j.attempts.Append(context.WithoutCancel(ctx), event)
	if err != nil {
		slog.Error("failed to journal unlock transition", "error", err, "attempt_id", t.AttemptID, "to", event.ToState)
	}
}

// History returns the journal of one video, or the most recent entries across all videos
// when contentID is empty.
func (j *AttemptJournal) History(ctx context.Context, contentID string, limit int) ([]*model.AttemptEvent, error) {
	if contentID == "" {
		return j.attempts.Recent(ctx, limit)
	}
	return j.attempts.ByContentID(ctx, contentID)
}
