package bank

import (
	"context"
	"errors"
	"testing"

	"persona-survey-bot/internal/domain"
)

type stubLoader struct {
	datasets map[domain.Instrument][]domain.Question
	err      error
	calls    int
}

func (l *stubLoader) LoadDataset(_ context.Context, inst domain.Instrument) ([]domain.Question, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.datasets[inst], nil
}

func TestRegistryLoadsAllInstruments(t *testing.T) {
	loader := &stubLoader{err: errors.New("unavailable")}
	registry := NewRegistry(loader)
	registry.LoadAll(context.Background())

	for _, inst := range []domain.Instrument{
		domain.InstrumentPriorities,
		domain.InstrumentThinking,
		domain.InstrumentPersonality,
	} {
		if registry[inst].QuestionCount() == 0 {
			t.Fatalf("%s must fall back to the built-in dataset", inst)
		}
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	loader := &stubLoader{datasets: map[domain.Instrument][]domain.Question{
		domain.InstrumentThinking: {{Text: "q", Mapping: map[string]string{"1": "Синтетический"}}},
	}}
	thinking := NewThinking(loader)
	thinking.Load(context.Background())
	thinking.Load(context.Background())

	if loader.calls != 1 {
		t.Fatalf("expected a single loader call, got %d", loader.calls)
	}
	if thinking.QuestionCount() != 1 {
		t.Fatalf("expected loaded dataset to be served, got %d questions", thinking.QuestionCount())
	}
}

func TestQuestionAtBounds(t *testing.T) {
	loader := &stubLoader{err: errors.New("unavailable")}
	personality := NewPersonality(loader)

	if q := personality.QuestionAt(0); q != nil {
		t.Fatalf("unloaded instrument must return nil, got %+v", q)
	}
	personality.Load(context.Background())
	if q := personality.QuestionAt(-1); q != nil {
		t.Fatalf("negative index must return nil")
	}
	if q := personality.QuestionAt(personality.QuestionCount()); q != nil {
		t.Fatalf("out-of-range index must return nil")
	}
	if q := personality.QuestionAt(0); q == nil || q.Key != "1" {
		t.Fatalf("expected the first built-in question, got %+v", q)
	}
}

func TestPrioritiesScoreIsIdentity(t *testing.T) {
	p := NewPriorities(&stubLoader{err: errors.New("unavailable")})
	p.Load(context.Background())

	res := p.Score(domain.Answers{Priorities: map[string]int{"Здоровье": 4, "Карьера": 1}})
	if res.Values["Здоровье"] != 4 || res.Values["Карьера"] != 1 {
		t.Fatalf("unexpected values: %v", res.Values)
	}
	if res.Label != "" {
		t.Fatalf("priorities must not produce a label, got %q", res.Label)
	}
}

func TestThinkingScoreSumsRanksPerStyle(t *testing.T) {
	loader := &stubLoader{datasets: map[domain.Instrument][]domain.Question{
		domain.InstrumentThinking: {
			{Text: "q1", Mapping: map[string]string{"1": "Синтетический", "2": "Аналитический"}},
			{Text: "q2", Mapping: map[string]string{"1": "Аналитический", "2": "Синтетический"}},
		},
	}}
	thinking := NewThinking(loader)
	thinking.Load(context.Background())

	res := thinking.Score(domain.Answers{Thinking: map[string]map[string]int{
		"question_1": {"1": 5, "2": 4},
		"question_2": {"1": 3, "2": 2},
	}})
	if res.Values["Синтетический"] != 7 {
		t.Fatalf("want Синтетический 7, got %d", res.Values["Синтетический"])
	}
	if res.Values["Аналитический"] != 7 {
		t.Fatalf("want Аналитический 7, got %d", res.Values["Аналитический"])
	}
	if res.Values["Реалистический"] != 0 {
		t.Fatalf("unmapped style must stay at zero, got %d", res.Values["Реалистический"])
	}
}

func TestThinkingScoreIgnoresUnknownOptions(t *testing.T) {
	loader := &stubLoader{datasets: map[domain.Instrument][]domain.Question{
		domain.InstrumentThinking: {
			{Text: "q1", Mapping: map[string]string{"1": "Синтетический"}},
		},
	}}
	thinking := NewThinking(loader)
	thinking.Load(context.Background())

	res := thinking.Score(domain.Answers{Thinking: map[string]map[string]int{
		"question_1": {"1": 5, "9": 4},
	}})
	if res.Values["Синтетический"] != 5 {
		t.Fatalf("unknown option must not contribute, got %v", res.Values)
	}
}

func TestPersonalityScoreAndTemperament(t *testing.T) {
	loader := &stubLoader{datasets: map[domain.Instrument][]domain.Question{
		domain.InstrumentPersonality: {
			{Key: "1", Scale: "E", ScoringAns: "да"},
			{Key: "2", Scale: "E", ScoringAns: "да"},
			{Key: "3", Scale: "N", ScoringAns: "да"},
			{Key: "4", Scale: "N", ScoringAns: "нет"},
			{Key: "5", Scale: "L", ScoringAns: "да"},
		},
	}}
	personality := NewPersonality(loader)
	personality.Load(context.Background())

	res := personality.Score(domain.Answers{Personality: map[string]string{
		"1": "Да",
		"2": "да",
		"3": "Нет",
		"4": "Нет",
		"5": "Да",
	}})
	if res.Values["E"] != 2 || res.Values["N"] != 1 || res.Values["L"] != 1 {
		t.Fatalf("unexpected scale values: %v", res.Values)
	}
	if res.Label != "Сангвиник" {
		t.Fatalf("want Сангвиник, got %s", res.Label)
	}
}

func TestTemperamentTable(t *testing.T) {
	cases := []struct {
		e, n int
		want string
	}{
		{2, 2, "Холерик"},
		{3, 0, "Сангвиник"},
		{1, 2, "Меланхолик"},
		{0, 1, "Флегматик"},
		{0, 0, "Флегматик"},
	}
	for _, tc := range cases {
		if got := temperament(tc.e, tc.n); got != tc.want {
			t.Fatalf("temperament(%d, %d): want %s, got %s", tc.e, tc.n, tc.want, got)
		}
	}
}

func TestQuestionKeyIsOneBased(t *testing.T) {
	if got := QuestionKey(0); got != "question_1" {
		t.Fatalf("want question_1, got %s", got)
	}
	if got := QuestionKey(2); got != "question_3" {
		t.Fatalf("want question_3, got %s", got)
	}
}
