package app

import (
	"strconv"

	"persona-survey-bot/internal/bank"
	"persona-survey-bot/internal/domain"
)

// Session is the authoritative in-progress state of one user's survey run.
// All mutation goes through SurveyService; the surrounding dispatch is
// expected to process one action per user at a time.
type Session struct {
	UserID     int64
	Instrument domain.Instrument
	Question   int
	Step       int
	Answers    domain.Answers

	history []action
	dirty   bool
}

// action is one reversible history entry; popping it undoes exactly one pick.
// Personality answers are not recorded here: the flow never offers a back
// button past that instrument's questions.
type action struct {
	Instrument domain.Instrument
	Question   int
	Step       int
	Choice     string
	Value      int
}

func newSession(userID int64) *Session {
	return &Session{
		UserID:     userID,
		Instrument: domain.InstrumentPriorities,
	}
}

// Dirty reports whether the session carries changes not yet flushed to the
// user record store.
func (s *Session) Dirty() bool { return s.dirty }

func (s *Session) recordPriority(title, choice string, rank int) {
	if s.Answers.Priorities == nil {
		s.Answers.Priorities = make(map[string]int)
	}
	s.Answers.Priorities[title] = rank
	s.history = append(s.history, action{
		Instrument: domain.InstrumentPriorities,
		Step:       s.Step,
		Choice:     choice,
		Value:      rank,
	})
	s.Step++
	s.dirty = true
}

func (s *Session) recordThinking(option string, rank int) {
	if s.Answers.Thinking == nil {
		s.Answers.Thinking = make(map[string]map[string]int)
	}
	key := bank.QuestionKey(s.Question)
	if s.Answers.Thinking[key] == nil {
		s.Answers.Thinking[key] = make(map[string]int)
	}
	s.Answers.Thinking[key][option] = rank
	s.history = append(s.history, action{
		Instrument: domain.InstrumentThinking,
		Question:   s.Question,
		Step:       s.Step,
		Choice:     option,
		Value:      rank,
	})
	s.Step++
	s.dirty = true
}

func (s *Session) recordPersonality(answer string) {
	if s.Answers.Personality == nil {
		s.Answers.Personality = make(map[string]string)
	}
	s.Answers.Personality[strconv.Itoa(s.Question+1)] = answer
	s.Question++
	s.dirty = true
}

// revert reverses the effect of a popped history entry. The category title
// for a priorities entry has to be resolved through the question content,
// since answers are keyed by title while history keeps the numeric choice.
func (s *Session) revert(a action, priorityTitle string) {
	s.Instrument = a.Instrument
	switch a.Instrument {
	case domain.InstrumentPriorities:
		delete(s.Answers.Priorities, priorityTitle)
		s.Question = 0
		s.Step = len(s.Answers.Priorities)
	case domain.InstrumentThinking:
		key := bank.QuestionKey(a.Question)
		if ranked, ok := s.Answers.Thinking[key]; ok {
			delete(ranked, a.Choice)
			if len(ranked) == 0 {
				delete(s.Answers.Thinking, key)
			}
		}
		s.Step = len(s.Answers.Thinking[key])
		s.Question = a.Question
	}
	s.dirty = true
}
