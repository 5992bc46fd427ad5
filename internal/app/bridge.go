package app

import (
	"context"
	"time"

	"persona-survey-bot/internal/domain"
)

// UserStore is the persistence boundary for user records. The in-memory
// session stays authoritative while a survey is active; the store is an
// eventually-consistent write-through target.
type UserStore interface {
	GetOrCreate(ctx context.Context, userID int64, username string) (domain.UserRecord, error)
	Update(ctx context.Context, userID int64, upd domain.UserUpdate) error
}

// Bridge reconciles sessions with the user record store. It carries the two
// write modes explicitly: immediate full-progress writes on transitions, and
// mark-dirty-then-Flush for the frequent per-pick mutations.
type Bridge struct {
	store UserStore
}

func NewBridge(store UserStore) *Bridge {
	return &Bridge{store: store}
}

// Reset writes the zeroed progress fields of a fresh session.
func (b *Bridge) Reset(ctx context.Context, s *Session) error {
	falseVal := false
	if err := b.store.Update(ctx, s.UserID, domain.UserUpdate{
		CurrentInstrument: intp(int(s.Instrument)),
		CurrentQuestion:   intp(s.Question),
		CurrentStep:       intp(s.Step),
		Answers:           &s.Answers,
		Completed:         &falseVal,
	}); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// SaveProgress writes the session's projectable progress fields and clears
// the dirty flag on success.
func (b *Bridge) SaveProgress(ctx context.Context, s *Session) error {
	if err := b.store.Update(ctx, s.UserID, domain.UserUpdate{
		CurrentInstrument: intp(int(s.Instrument)),
		CurrentQuestion:   intp(s.Question),
		CurrentStep:       intp(s.Step),
		Answers:           &s.Answers,
	}); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Flush persists only when the session is dirty, unless forced.
func (b *Bridge) Flush(ctx context.Context, s *Session, force bool) error {
	if !s.dirty && !force {
		return nil
	}
	return b.SaveProgress(ctx, s)
}

// SaveFinal writes the whole outcome in one batch: completion flag, answers,
// the three score blobs, the temperament and the optional follow-up due time.
func (b *Bridge) SaveFinal(ctx context.Context, s *Session, res domain.SurveyResult, styles, scales map[string]int, followUpAt *time.Time) error {
	trueVal := true
	upd := domain.UserUpdate{
		Completed:      &trueVal,
		Answers:        &s.Answers,
		PriorityScores: &res.Priorities,
		StyleScores:    &styles,
		ScaleScores:    &scales,
		Temperament:    &res.Temperament,
	}
	if followUpAt != nil {
		upd.FollowUpAt = followUpAt
	}
	if err := b.store.Update(ctx, s.UserID, upd); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func intp(v int) *int { return &v }
