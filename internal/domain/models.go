package domain

import "time"

// Instrument identifies one of the three survey stages. The ordinal order is
// the order users pass them in; values above InstrumentPersonality mean the
// whole survey is finished.
type Instrument int

const (
	InstrumentPriorities Instrument = iota + 1
	InstrumentThinking
	InstrumentPersonality
)

// Next returns the instrument that follows i in the survey.
func (i Instrument) Next() Instrument {
	return i + 1
}

// Done reports whether i is past the last real instrument.
func (i Instrument) Done() bool {
	return i > InstrumentPersonality
}

func (i Instrument) String() string {
	switch i {
	case InstrumentPriorities:
		return "priorities"
	case InstrumentThinking:
		return "thinking"
	case InstrumentPersonality:
		return "personality"
	default:
		return "complete"
	}
}

// Rank sequences: each successive pick within a question receives the next
// value, and every value is handed out exactly once per question.
var (
	PriorityRanks = []int{4, 3, 2, 1}
	ThinkingRanks = []int{5, 4, 3, 2, 1}
)

// ThinkingOptions are the fixed option tokens of a thinking-styles question.
var ThinkingOptions = []string{"1", "2", "3", "4", "5"}

// Personality answers; matched case-insensitively.
const (
	AnswerYes = "Да"
	AnswerNo  = "Нет"
)

// Category is one rankable block of the priorities question.
type Category struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Question is the shared content shape across instruments. Only the fields
// relevant to its instrument are populated.
type Question struct {
	Key        string            `json:"key,omitempty"`
	Text       string            `json:"text"`
	Categories []Category        `json:"categories,omitempty"` // priorities
	Mapping    map[string]string `json:"mapping,omitempty"`    // thinking: option -> style
	Scale      string            `json:"scale,omitempty"`      // personality: E/N/L
	ScoringAns string            `json:"scoring_answer,omitempty"`
}

// Answers accumulates everything the user has submitted, keyed per section.
// It is the shape persisted as the answers blob.
type Answers struct {
	Priorities  map[string]int            `json:"priorities,omitempty"`
	Thinking    map[string]map[string]int `json:"thinking,omitempty"`
	Personality map[string]string         `json:"personality,omitempty"`
}

// Result is the per-instrument scoring output. Label is set only by the
// personality instrument (the temperament).
type Result struct {
	Values map[string]int `json:"values"`
	Label  string         `json:"label,omitempty"`
}

// SurveyResult is the final merged outcome handed to the reporting layer.
// Priorities are kept apart because their keys are category titles.
type SurveyResult struct {
	Priorities  map[string]int `json:"priorities"`
	Scores      map[string]int `json:"scores"`
	Temperament string         `json:"temperament"`
}

// Empty reports whether the result carries nothing, e.g. when Finalize was
// called without an active session.
func (r SurveyResult) Empty() bool {
	return len(r.Priorities) == 0 && len(r.Scores) == 0 && r.Temperament == ""
}

// Button is an inline link button rendered by the chat layer.
type Button struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// UserRecord is the persisted view of a user. During an active survey the
// in-memory session is authoritative; the record is a write-through target.
type UserRecord struct {
	UserID     int64
	Username   string
	FirstName  string
	LastName   string
	Age        int
	FromFunnel bool

	CurrentInstrument int
	CurrentQuestion   int
	CurrentStep       int
	Answers           Answers
	Completed         bool

	PriorityScores map[string]int
	StyleScores    map[string]int
	ScaleScores    map[string]int
	Temperament    string

	FollowUpLink string
	FollowUpAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserUpdate is a partial field set for UserStore.Update; nil fields are left
// untouched.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Age       *int

	CurrentInstrument *int
	CurrentQuestion   *int
	CurrentStep       *int
	Answers           *Answers
	Completed         *bool

	PriorityScores *map[string]int
	StyleScores    *map[string]int
	ScaleScores    *map[string]int
	Temperament    *string

	FollowUpLink *string
	FollowUpAt   *time.Time
}
