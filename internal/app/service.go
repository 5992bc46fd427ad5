package app

import (
	"context"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"persona-survey-bot/internal/bank"
	"persona-survey-bot/internal/domain"
)

// SessionRepository abstracts how survey sessions are stored (in-memory,
// Redis-backed, etc).
type SessionRepository interface {
	Get(userID int64) (*Session, bool)
	Put(userID int64, s *Session)
	Delete(userID int64)
}

// CategoryChoice pairs a remaining category with the token that selects it.
type CategoryChoice struct {
	Num      string
	Category domain.Category
}

// SurveyService walks users through the three instruments in order, validates
// every pick against the active session, keeps the undo history, and decides
// when progress is written through the bridge.
//
// Validation failures come back as the sentinel errors in internal/domain and
// never modify state. Failures of the store itself are logged and swallowed on
// the answer path; Start and Flush surface them so the caller can retry.
type SurveyService struct {
	sessions SessionRepository
	banks    bank.Registry
	bridge   *Bridge
	store    UserStore

	debug bool
	now   func() time.Time
	rnd   *rand.Rand

	mu    sync.Mutex
	users map[int64]domain.UserRecord
}

func NewSurveyService(sessions SessionRepository, banks bank.Registry, store UserStore, debug bool) *SurveyService {
	return &SurveyService{
		sessions: sessions,
		banks:    banks,
		bridge:   NewBridge(store),
		store:    store,
		debug:    debug,
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		users:    make(map[int64]domain.UserRecord),
	}
}

// Start wipes any previous run and opens a fresh session at the priorities
// instrument. The reset is written through immediately; if that write fails
// no session is created, so memory and store cannot diverge at the start.
func (svc *SurveyService) Start(ctx context.Context, userID int64) error {
	s := newSession(userID)
	if err := svc.bridge.Reset(ctx, s); err != nil {
		return err
	}
	svc.sessions.Put(userID, s)
	log.Printf("survey started for user %d", userID)
	return nil
}

// State returns the live session for rendering. Callers must not mutate it.
func (svc *SurveyService) State(userID int64) (*Session, bool) {
	return svc.sessions.Get(userID)
}

// CurrentInstrument defaults to the first instrument when no session exists.
func (svc *SurveyService) CurrentInstrument(userID int64) domain.Instrument {
	if s, ok := svc.sessions.Get(userID); ok {
		return s.Instrument
	}
	return domain.InstrumentPriorities
}

// Clear drops the session and auxiliary caches, e.g. when the survey is
// re-initiated from an external trigger.
func (svc *SurveyService) Clear(userID int64) {
	svc.sessions.Delete(userID)
	svc.mu.Lock()
	delete(svc.users, userID)
	svc.mu.Unlock()
}

// SubmitPriority assigns the next rank of the priority sequence to the
// category selected by its token ("1".."4"). Each category and each rank can
// be used once per run.
func (svc *SurveyService) SubmitPriority(ctx context.Context, userID int64, category string) error {
	s, ok := svc.sessions.Get(userID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if s.Instrument != domain.InstrumentPriorities {
		return domain.ErrWrongInstrument
	}
	if s.Step >= len(domain.PriorityRanks) {
		return domain.ErrStepLimit
	}

	q := svc.banks[domain.InstrumentPriorities].QuestionAt(0)
	if q == nil {
		return domain.ErrInvalidCategory
	}
	n, err := strconv.Atoi(category)
	if err != nil || n < 1 || n > len(q.Categories) {
		return domain.ErrInvalidCategory
	}
	title := q.Categories[n-1].Title
	if _, used := s.Answers.Priorities[title]; used {
		return domain.ErrCategoryRanked
	}

	s.recordPriority(title, category, domain.PriorityRanks[s.Step])
	return nil
}

// SubmitThinking assigns the next rank of the thinking sequence to an option
// of the current question. The question's write is flushed as soon as its
// sequence is exhausted; intermediate picks stay deferred.
func (svc *SurveyService) SubmitThinking(ctx context.Context, userID int64, option string) error {
	s, ok := svc.sessions.Get(userID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if s.Instrument != domain.InstrumentThinking {
		return domain.ErrWrongInstrument
	}
	if !containsToken(domain.ThinkingOptions, option) {
		return domain.ErrInvalidOption
	}
	if s.Step >= len(domain.ThinkingRanks) {
		return domain.ErrStepLimit
	}
	if _, used := s.Answers.Thinking[bank.QuestionKey(s.Question)][option]; used {
		return domain.ErrOptionUsed
	}

	s.recordThinking(option, domain.ThinkingRanks[s.Step])

	if s.Step == len(domain.ThinkingRanks) {
		// Question finished: write through now so a crash costs at most the
		// current question.
		if err := svc.bridge.Flush(ctx, s, true); err != nil {
			log.Printf("flush after thinking question for user %d: %v", userID, err)
		}
	}
	return nil
}

// SubmitPersonality records one of the two accepted answers for the current
// question and moves to the next one.
func (svc *SurveyService) SubmitPersonality(ctx context.Context, userID int64, answer string) error {
	s, ok := svc.sessions.Get(userID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if s.Instrument != domain.InstrumentPersonality {
		return domain.ErrWrongInstrument
	}
	if !strings.EqualFold(answer, domain.AnswerYes) && !strings.EqualFold(answer, domain.AnswerNo) {
		return domain.ErrInvalidAnswer
	}

	s.recordPersonality(answer)
	return nil
}

// PrioritiesComplete is true once every category carries a rank.
func (svc *SurveyService) PrioritiesComplete(userID int64) bool {
	s, ok := svc.sessions.Get(userID)
	if !ok {
		return false
	}
	return len(s.Answers.Priorities) == len(domain.PriorityRanks)
}

// ThinkingQuestionComplete is true once the question's rank sequence is used up.
func (svc *SurveyService) ThinkingQuestionComplete(userID int64, question int) bool {
	s, ok := svc.sessions.Get(userID)
	if !ok {
		return false
	}
	return len(s.Answers.Thinking[bank.QuestionKey(question)]) == len(domain.ThinkingRanks)
}

// PersonalityComplete is true once every question has an answer.
func (svc *SurveyService) PersonalityComplete(userID int64) bool {
	s, ok := svc.sessions.Get(userID)
	if !ok {
		return false
	}
	return s.Question >= svc.banks[domain.InstrumentPersonality].QuestionCount()
}

// AllComplete is true when the session has advanced past the last instrument.
func (svc *SurveyService) AllComplete(userID int64) bool {
	s, ok := svc.sessions.Get(userID)
	if !ok {
		return false
	}
	return s.Instrument.Done()
}

// AdvanceInstrument moves to the next instrument once the current one is
// complete, resets position, and writes the full progress immediately. A
// failed write is logged; memory remains the source of truth.
func (svc *SurveyService) AdvanceInstrument(ctx context.Context, userID int64) error {
	s, ok := svc.sessions.Get(userID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if !svc.instrumentComplete(s) {
		return domain.ErrInstrumentIncomplete
	}
	s.Instrument = s.Instrument.Next()
	s.Question = 0
	s.Step = 0
	if err := svc.bridge.SaveProgress(ctx, s); err != nil {
		log.Printf("save progress on instrument advance for user %d: %v", userID, err)
	}
	return nil
}

// AdvanceQuestion moves to the next question of the active instrument and
// writes the full progress immediately.
func (svc *SurveyService) AdvanceQuestion(ctx context.Context, userID int64) error {
	s, ok := svc.sessions.Get(userID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.Question++
	s.Step = 0
	if err := svc.bridge.SaveProgress(ctx, s); err != nil {
		log.Printf("save progress on question advance for user %d: %v", userID, err)
	}
	return nil
}

// Undo pops the most recent history entry and reverses exactly its effect,
// restoring the position the entry was made at. Thinking entries may pull the
// cursor back to an earlier question.
func (svc *SurveyService) Undo(ctx context.Context, userID int64) (*Session, error) {
	s, ok := svc.sessions.Get(userID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if len(s.history) == 0 {
		return nil, domain.ErrNothingToUndo
	}

	a := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]

	var title string
	if a.Instrument == domain.InstrumentPriorities {
		if q := svc.banks[domain.InstrumentPriorities].QuestionAt(0); q != nil {
			if n, err := strconv.Atoi(a.Choice); err == nil && n >= 1 && n <= len(q.Categories) {
				title = q.Categories[n-1].Title
			}
		}
	}
	s.revert(a, title)
	return s, nil
}

// Finalize scores all instruments, merges the thinking and personality
// results, writes the outcome in one batch, and evicts the session. With no
// active session it returns an empty result; callers must not retry a
// successful finalize.
func (svc *SurveyService) Finalize(ctx context.Context, userID int64) domain.SurveyResult {
	s, ok := svc.sessions.Get(userID)
	if !ok {
		return domain.SurveyResult{}
	}

	priorities := svc.banks[domain.InstrumentPriorities].Score(s.Answers)
	thinking := svc.banks[domain.InstrumentThinking].Score(s.Answers)
	personality := svc.banks[domain.InstrumentPersonality].Score(s.Answers)

	merged := make(map[string]int, len(thinking.Values)+len(personality.Values))
	for k, v := range thinking.Values {
		merged[k] = v
	}
	for k, v := range personality.Values {
		merged[k] = v
	}
	res := domain.SurveyResult{
		Priorities:  priorities.Values,
		Scores:      merged,
		Temperament: personality.Label,
	}

	var followUpAt *time.Time
	if user, err := svc.CachedUser(ctx, userID, ""); err == nil && !user.FromFunnel {
		at := svc.now().Add(svc.followUpDelay())
		followUpAt = &at
	}

	if err := svc.bridge.SaveFinal(ctx, s, res, thinking.Values, personality.Values, followUpAt); err != nil {
		log.Printf("save final results for user %d: %v", userID, err)
	}

	svc.Clear(userID)
	log.Printf("survey completed for user %d", userID)
	return res
}

// Flush writes deferred changes through; the recovery path after a failed
// collaborator write.
func (svc *SurveyService) Flush(ctx context.Context, userID int64, force bool) error {
	s, ok := svc.sessions.Get(userID)
	if !ok {
		return nil
	}
	return svc.bridge.Flush(ctx, s, force)
}

// AvailableCategories lists the priority categories not yet ranked, paired
// with their selection tokens.
func (svc *SurveyService) AvailableCategories(userID int64) []CategoryChoice {
	q := svc.banks[domain.InstrumentPriorities].QuestionAt(0)
	if q == nil {
		return nil
	}
	s, ok := svc.sessions.Get(userID)
	remaining := make([]CategoryChoice, 0, len(q.Categories))
	for i, cat := range q.Categories {
		if ok {
			if _, used := s.Answers.Priorities[cat.Title]; used {
				continue
			}
		}
		remaining = append(remaining, CategoryChoice{Num: strconv.Itoa(i + 1), Category: cat})
	}
	return remaining
}

// AvailableOptions lists the option tokens not yet ranked for the current
// thinking question.
func (svc *SurveyService) AvailableOptions(userID int64) []string {
	s, ok := svc.sessions.Get(userID)
	if !ok {
		return domain.ThinkingOptions
	}
	used := s.Answers.Thinking[bank.QuestionKey(s.Question)]
	remaining := make([]string, 0, len(domain.ThinkingOptions))
	for _, opt := range domain.ThinkingOptions {
		if _, taken := used[opt]; !taken {
			remaining = append(remaining, opt)
		}
	}
	return remaining
}

// CachedUser returns the user record, hitting the store only on first access
// per active run. Finalize and Clear evict the cache entry.
func (svc *SurveyService) CachedUser(ctx context.Context, userID int64, username string) (domain.UserRecord, error) {
	svc.mu.Lock()
	if user, ok := svc.users[userID]; ok {
		svc.mu.Unlock()
		return user, nil
	}
	svc.mu.Unlock()

	user, err := svc.store.GetOrCreate(ctx, userID, username)
	if err != nil {
		return domain.UserRecord{}, err
	}
	svc.mu.Lock()
	svc.users[userID] = user
	svc.mu.Unlock()
	return user, nil
}

// Bank exposes an instrument's content for rendering.
func (svc *SurveyService) Bank(inst domain.Instrument) bank.Instrument {
	return svc.banks[inst]
}

func (svc *SurveyService) instrumentComplete(s *Session) bool {
	switch s.Instrument {
	case domain.InstrumentPriorities:
		return len(s.Answers.Priorities) == len(domain.PriorityRanks)
	case domain.InstrumentThinking:
		for i := 0; i < svc.banks[domain.InstrumentThinking].QuestionCount(); i++ {
			if len(s.Answers.Thinking[bank.QuestionKey(i)]) != len(domain.ThinkingRanks) {
				return false
			}
		}
		return true
	case domain.InstrumentPersonality:
		return s.Question >= svc.banks[domain.InstrumentPersonality].QuestionCount()
	default:
		return false
	}
}

func (svc *SurveyService) followUpDelay() time.Duration {
	if svc.debug {
		return 5 * time.Second
	}
	// Random 15-24h so follow-ups do not land in a burst.
	return time.Duration(15+svc.rnd.Intn(10)) * time.Hour
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}
