package bank

import (
	"context"

	"persona-survey-bot/internal/domain"
)

// Loader fetches an instrument dataset from a backing store (files, Postgres,
// a cache in front of either).
type Loader interface {
	LoadDataset(ctx context.Context, inst domain.Instrument) ([]domain.Question, error)
}

// Instrument serves the static content of one survey stage and scores a
// completed answer set for it. Implementations are read-only after Load and
// safe to share.
type Instrument interface {
	Kind() domain.Instrument
	// Load populates content from the loader. Any failure falls back to the
	// built-in dataset; after Load the instrument is always usable. Idempotent.
	Load(ctx context.Context)
	QuestionCount() int
	// QuestionAt returns nil when the index is out of range or content has
	// not been loaded yet.
	QuestionAt(i int) *domain.Question
	// Score is a pure function of the accumulated answers; it never mutates
	// its input.
	Score(ans domain.Answers) domain.Result
}

// Registry maps instrument tags to their live instances.
type Registry map[domain.Instrument]Instrument

// NewRegistry builds the three instruments over a shared loader.
func NewRegistry(loader Loader) Registry {
	return Registry{
		domain.InstrumentPriorities:  NewPriorities(loader),
		domain.InstrumentThinking:    NewThinking(loader),
		domain.InstrumentPersonality: NewPersonality(loader),
	}
}

// LoadAll loads every instrument; safe to call again on content refresh.
func (r Registry) LoadAll(ctx context.Context) {
	for _, inst := range r {
		inst.Load(ctx)
	}
}
