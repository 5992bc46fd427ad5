package bank

import (
	"context"
	"log"
	"sync"

	"persona-survey-bot/internal/domain"
)

// Priorities is the single-question ranking exercise: the user hands out the
// ranks 4..1 across four life categories.
type Priorities struct {
	loader Loader

	mu        sync.RWMutex
	loaded    bool
	questions []domain.Question
}

func NewPriorities(loader Loader) *Priorities {
	return &Priorities{loader: loader}
}

func (p *Priorities) Kind() domain.Instrument { return domain.InstrumentPriorities }

func (p *Priorities) Load(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return
	}
	questions, err := p.loader.LoadDataset(ctx, domain.InstrumentPriorities)
	if err != nil || len(questions) == 0 {
		log.Printf("priorities dataset unavailable, using built-in set: %v", err)
		questions = defaultPriorityQuestions()
	}
	p.questions = questions
	p.loaded = true
}

func (p *Priorities) QuestionCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.questions)
}

func (p *Priorities) QuestionAt(i int) *domain.Question {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.loaded || i < 0 || i >= len(p.questions) {
		return nil
	}
	q := p.questions[i]
	return &q
}

// Score is the identity: the assigned ranks are the scores.
func (p *Priorities) Score(ans domain.Answers) domain.Result {
	values := make(map[string]int, len(ans.Priorities))
	for title, rank := range ans.Priorities {
		values[title] = rank
	}
	return domain.Result{Values: values}
}
