package memory

import (
	"context"
	"sync"
	"time"

	"persona-survey-bot/internal/domain"
)

// UserStore is an in-memory implementation of app.UserStore, used for local
// runs without Postgres and as the test double. It also serves the follow-up
// scheduler queries.
type UserStore struct {
	mu    sync.Mutex
	users map[int64]*domain.UserRecord
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[int64]*domain.UserRecord)}
}

func (s *UserStore) GetOrCreate(_ context.Context, userID int64, username string) (domain.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[userID]; ok {
		return *user, nil
	}
	now := time.Now()
	user := &domain.UserRecord{
		UserID:    userID,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[userID] = user
	return *user, nil
}

func (s *UserStore) Update(_ context.Context, userID int64, upd domain.UserUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		user = &domain.UserRecord{UserID: userID, CreatedAt: time.Now()}
		s.users[userID] = user
	}
	applyUpdate(user, upd)
	user.UpdatedAt = time.Now()
	return nil
}

// Get returns a copy of the record; test helper.
func (s *UserStore) Get(userID int64) (domain.UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[userID]; ok {
		return *user, true
	}
	return domain.UserRecord{}, false
}

// Seed places a record directly; test helper.
func (s *UserStore) Seed(user domain.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := user
	s.users[user.UserID] = &u
}

func (s *UserStore) ListDueFollowUps(_ context.Context, now time.Time) ([]domain.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []domain.UserRecord
	for _, user := range s.users {
		if user.FollowUpLink != "" && user.FollowUpAt != nil && !user.FollowUpAt.After(now) {
			due = append(due, *user)
		}
	}
	return due, nil
}

func (s *UserStore) ClearFollowUp(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[userID]; ok {
		user.FollowUpLink = ""
		user.FollowUpAt = nil
	}
	return nil
}

func applyUpdate(user *domain.UserRecord, upd domain.UserUpdate) {
	if upd.FirstName != nil {
		user.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		user.LastName = *upd.LastName
	}
	if upd.Age != nil {
		user.Age = *upd.Age
	}
	if upd.CurrentInstrument != nil {
		user.CurrentInstrument = *upd.CurrentInstrument
	}
	if upd.CurrentQuestion != nil {
		user.CurrentQuestion = *upd.CurrentQuestion
	}
	if upd.CurrentStep != nil {
		user.CurrentStep = *upd.CurrentStep
	}
	if upd.Answers != nil {
		user.Answers = *upd.Answers
	}
	if upd.Completed != nil {
		user.Completed = *upd.Completed
	}
	if upd.PriorityScores != nil {
		user.PriorityScores = *upd.PriorityScores
	}
	if upd.StyleScores != nil {
		user.StyleScores = *upd.StyleScores
	}
	if upd.ScaleScores != nil {
		user.ScaleScores = *upd.ScaleScores
	}
	if upd.Temperament != nil {
		user.Temperament = *upd.Temperament
	}
	if upd.FollowUpLink != nil {
		user.FollowUpLink = *upd.FollowUpLink
	}
	if upd.FollowUpAt != nil {
		user.FollowUpAt = upd.FollowUpAt
	}
}
