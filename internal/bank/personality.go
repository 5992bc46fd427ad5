package bank

import (
	"context"
	"log"
	"strings"
	"sync"

	"persona-survey-bot/internal/domain"
)

// Personality is the yes/no inventory: each question credits one point to its
// scale (E, N or L) when the answer matches the question's scoring answer.
// The E and N totals derive a temperament label.
type Personality struct {
	loader Loader

	mu        sync.RWMutex
	loaded    bool
	questions []domain.Question
}

func NewPersonality(loader Loader) *Personality {
	return &Personality{loader: loader}
}

func (p *Personality) Kind() domain.Instrument { return domain.InstrumentPersonality }

func (p *Personality) Load(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return
	}
	questions, err := p.loader.LoadDataset(ctx, domain.InstrumentPersonality)
	if err != nil || len(questions) == 0 {
		log.Printf("personality dataset unavailable, using built-in set: %v", err)
		questions = defaultPersonalityQuestions()
	}
	p.questions = questions
	p.loaded = true
}

func (p *Personality) QuestionCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.questions)
}

func (p *Personality) QuestionAt(i int) *domain.Question {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.loaded || i < 0 || i >= len(p.questions) {
		return nil
	}
	q := p.questions[i]
	return &q
}

func (p *Personality) Score(ans domain.Answers) domain.Result {
	p.mu.RLock()
	defer p.mu.RUnlock()

	values := map[string]int{"E": 0, "N": 0, "L": 0}
	for _, question := range p.questions {
		answer, ok := ans.Personality[question.Key]
		if !ok {
			continue
		}
		if !strings.EqualFold(answer, question.ScoringAns) {
			continue
		}
		if _, known := values[question.Scale]; known {
			values[question.Scale]++
		}
	}
	return domain.Result{Values: values, Label: temperament(values["E"], values["N"])}
}

// temperament applies the fixed 2x2 threshold table over E and N.
func temperament(e, n int) string {
	switch {
	case e >= 2 && n >= 2:
		return "Холерик"
	case e >= 2:
		return "Сангвиник"
	case n >= 2:
		return "Меланхолик"
	default:
		return "Флегматик"
	}
}
