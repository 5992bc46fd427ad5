package bank

import (
	"context"
	"fmt"
	"log"
	"sync"

	"persona-survey-bot/internal/domain"
)

// Thinking is the forced-ranking thinking-styles inventory: per question the
// user orders five statements, and each statement's rank feeds the style its
// question maps that option to.
type Thinking struct {
	loader Loader

	mu        sync.RWMutex
	loaded    bool
	questions []domain.Question
}

func NewThinking(loader Loader) *Thinking {
	return &Thinking{loader: loader}
}

func (t *Thinking) Kind() domain.Instrument { return domain.InstrumentThinking }

func (t *Thinking) Load(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loaded {
		return
	}
	questions, err := t.loader.LoadDataset(ctx, domain.InstrumentThinking)
	if err != nil || len(questions) == 0 {
		log.Printf("thinking dataset unavailable, using built-in set: %v", err)
		questions = defaultThinkingQuestions()
	}
	t.questions = questions
	t.loaded = true
}

func (t *Thinking) QuestionCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.questions)
}

func (t *Thinking) QuestionAt(i int) *domain.Question {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.loaded || i < 0 || i >= len(t.questions) {
		return nil
	}
	q := t.questions[i]
	return &q
}

// Score sums, per style, the ranks of every option mapped to it across all
// questions. Styles nothing maps to stay at 0.
func (t *Thinking) Score(ans domain.Answers) domain.Result {
	t.mu.RLock()
	defer t.mu.RUnlock()

	values := make(map[string]int, len(thinkingStyles))
	for _, style := range thinkingStyles {
		values[style] = 0
	}

	for i, question := range t.questions {
		ranked, ok := ans.Thinking[QuestionKey(i)]
		if !ok {
			continue
		}
		for option, rank := range ranked {
			style, ok := question.Mapping[option]
			if !ok {
				continue
			}
			if _, known := values[style]; known {
				values[style] += rank
			}
		}
	}
	return domain.Result{Values: values}
}

// QuestionKey is the stable answers-blob key for the i-th (0-based) question.
func QuestionKey(i int) string {
	return fmt.Sprintf("question_%d", i+1)
}

var thinkingStyles = []string{
	"Синтетический",
	"Идеалистический",
	"Прагматический",
	"Аналитический",
	"Реалистический",
}
