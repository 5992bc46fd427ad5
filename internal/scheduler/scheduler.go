// Package scheduler delivers the personal follow-up links that Finalize
// schedules for users who did not arrive through the partner funnel.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"persona-survey-bot/internal/domain"
)

// FollowUpStore is the slice of the user store the scheduler needs.
type FollowUpStore interface {
	ListDueFollowUps(ctx context.Context, now time.Time) ([]domain.UserRecord, error)
	ClearFollowUp(ctx context.Context, userID int64) error
}

// Notifier delivers a message to a user; fire-and-forget from the
// scheduler's point of view.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string, buttons []domain.Button) error
}

// FollowUp polls the store and sends due links. One instance per process.
type FollowUp struct {
	store    FollowUpStore
	notifier Notifier
	interval time.Duration
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewFollowUp(store FollowUpStore, notifier Notifier, interval time.Duration) *FollowUp {
	if interval <= 0 {
		interval = time.Minute
	}
	return &FollowUp{
		store:    store,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
	}
}

// Start launches the poll loop. Calling Start twice is a no-op.
func (f *FollowUp) Start(ctx context.Context) {
	if f.cancel != nil {
		return
	}
	ctx, f.cancel = context.WithCancel(ctx)
	f.done = make(chan struct{})
	go f.loop(ctx)
	log.Printf("follow-up scheduler started, interval %s", f.interval)
}

// Stop halts the loop and waits for the in-flight pass to finish.
func (f *FollowUp) Stop() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	<-f.done
	f.cancel = nil
	log.Printf("follow-up scheduler stopped")
}

func (f *FollowUp) loop(ctx context.Context) {
	defer close(f.done)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.RunOnce(ctx); err != nil {
				log.Printf("follow-up pass failed: %v", err)
			}
		}
	}
}

// RunOnce performs a single delivery pass. A failed send leaves the record
// untouched so the next pass retries it.
func (f *FollowUp) RunOnce(ctx context.Context) error {
	due, err := f.store.ListDueFollowUps(ctx, f.now())
	if err != nil {
		return fmt.Errorf("list due follow-ups: %w", err)
	}

	sent := 0
	for _, user := range due {
		if err := f.notifier.Notify(ctx, user.UserID, followUpText(user.FollowUpLink), []domain.Button{
			{Text: "🚀 Ознакомиться", URL: user.FollowUpLink},
		}); err != nil {
			log.Printf("send follow-up to user %d: %v", user.UserID, err)
			continue
		}
		if err := f.store.ClearFollowUp(ctx, user.UserID); err != nil {
			log.Printf("clear follow-up for user %d: %v", user.UserID, err)
			continue
		}
		sent++
	}
	if sent > 0 {
		log.Printf("delivered %d scheduled follow-ups", sent)
	}
	return nil
}

func followUpText(link string) string {
	return "🎉 Поздравляю! Теперь у тебя есть собственный личный бот.\n\n" +
		"🔗 Ссылка: " + link + "\n\n" +
		"После перехода в чат он появится в твоей левой колонке. Когда захочешь разобраться в каком-то вопросе, просто открой его — бот всегда рядом и готов помочь.\n\n" +
		"Прежде чем начать, загляни в инструкцию ниже — это займёт всего 10 минут 👇"
}
