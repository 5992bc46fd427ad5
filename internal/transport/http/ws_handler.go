package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"persona-survey-bot/internal/app"
	"persona-survey-bot/internal/domain"
	"persona-survey-bot/internal/report"
	"persona-survey-bot/internal/scheduler"

	"github.com/gorilla/websocket"
)

// WSHandler drives one survey conversation per websocket connection. Messages
// on a connection are processed strictly in order, which gives the state
// machine the per-user call serialization it assumes.
type WSHandler struct {
	service     *app.SurveyService
	notifier    scheduler.Notifier
	adminChatID int64
	upgrader    websocket.Upgrader
}

func NewWSHandler(service *app.SurveyService, notifier scheduler.Notifier, adminChatID int64) *WSHandler {
	return &WSHandler{
		service:     service,
		notifier:    notifier,
		adminChatID: adminChatID,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type optionView struct {
	Token       string `json:"token"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type questionPayload struct {
	Instrument string       `json:"instrument"`
	Question   int          `json:"question"`
	Total      int          `json:"total"`
	NextRank   int          `json:"nextRank,omitempty"`
	Text       string       `json:"text"`
	Options    []optionView `json:"options"`
}

type completedPayload struct {
	Priorities  map[string]int `json:"priorities"`
	Scores      map[string]int `json:"scores"`
	Temperament string         `json:"temperament"`
	Style       string         `json:"style"`
}

// ServeWS upgrades the request and runs the conversation loop.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID == 0 {
		http.Error(w, "missing or invalid userId", http.StatusBadRequest)
		return
	}
	username := r.URL.Query().Get("name")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			// Connection gone; deferred writes survive in the session and are
			// flushed on the next touch or on reconnect.
			if ferr := h.service.Flush(context.Background(), userID, false); ferr != nil {
				log.Printf("flush on disconnect for user %d: %v", userID, ferr)
			}
			return
		}

		switch inbound.Type {
		case "start":
			h.handleStart(ctx, conn, userID, username)
		case "priority":
			h.handlePriority(ctx, conn, userID, inbound.Payload)
		case "choice":
			h.handleChoice(ctx, conn, userID, inbound.Payload)
		case "answer":
			h.handleAnswer(ctx, conn, userID, username, inbound.Payload)
		case "undo":
			h.handleUndo(ctx, conn, userID)
		default:
			writeError(conn, "unsupported_type", "unsupported message type")
		}
	}
}

func (h *WSHandler) handleStart(ctx context.Context, conn *websocket.Conn, userID int64, username string) {
	if _, err := h.service.CachedUser(ctx, userID, username); err != nil {
		log.Printf("load user %d: %v", userID, err)
	}
	if err := h.service.Start(ctx, userID); err != nil {
		writeError(conn, "persist_failed", "could not start the survey, try again")
		return
	}
	h.sendCurrentQuestion(conn, userID)
}

func (h *WSHandler) handlePriority(ctx context.Context, conn *websocket.Conn, userID int64, raw json.RawMessage) {
	var payload struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		writeError(conn, "bad_payload", "invalid priority payload")
		return
	}
	if err := h.service.SubmitPriority(ctx, userID, payload.Category); err != nil {
		writeServiceError(conn, err)
		return
	}
	if h.service.PrioritiesComplete(userID) {
		if err := h.service.AdvanceInstrument(ctx, userID); err != nil {
			writeServiceError(conn, err)
			return
		}
	}
	h.sendCurrentQuestion(conn, userID)
}

func (h *WSHandler) handleChoice(ctx context.Context, conn *websocket.Conn, userID int64, raw json.RawMessage) {
	var payload struct {
		Option string `json:"option"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		writeError(conn, "bad_payload", "invalid choice payload")
		return
	}
	if err := h.service.SubmitThinking(ctx, userID, payload.Option); err != nil {
		writeServiceError(conn, err)
		return
	}

	s, ok := h.service.State(userID)
	if ok && h.service.ThinkingQuestionComplete(userID, s.Question) {
		last := s.Question+1 >= h.service.Bank(domain.InstrumentThinking).QuestionCount()
		var err error
		if last {
			err = h.service.AdvanceInstrument(ctx, userID)
		} else {
			err = h.service.AdvanceQuestion(ctx, userID)
		}
		if err != nil {
			writeServiceError(conn, err)
			return
		}
	}
	h.sendCurrentQuestion(conn, userID)
}

func (h *WSHandler) handleAnswer(ctx context.Context, conn *websocket.Conn, userID int64, username string, raw json.RawMessage) {
	var payload struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		writeError(conn, "bad_payload", "invalid answer payload")
		return
	}
	if err := h.service.SubmitPersonality(ctx, userID, payload.Answer); err != nil {
		writeServiceError(conn, err)
		return
	}

	if !h.service.PersonalityComplete(userID) {
		h.sendCurrentQuestion(conn, userID)
		return
	}

	if err := h.service.AdvanceInstrument(ctx, userID); err != nil {
		writeServiceError(conn, err)
		return
	}

	// Fetch the record before Finalize evicts the cache entry.
	user, _ := h.service.CachedUser(ctx, userID, username)
	res := h.service.Finalize(ctx, userID)

	if h.notifier != nil && h.adminChatID != 0 {
		if err := h.notifier.Notify(ctx, h.adminChatID, report.FormatAdmin(user, res), nil); err != nil {
			log.Printf("send admin report for user %d: %v", userID, err)
		}
	}

	writeJSON(conn, outboundMessage[completedPayload]{Type: "completed", Payload: completedPayload{
		Priorities:  res.Priorities,
		Scores:      res.Scores,
		Temperament: res.Temperament,
		Style:       report.DominantStyle(res.Scores),
	}})
}

func (h *WSHandler) handleUndo(ctx context.Context, conn *websocket.Conn, userID int64) {
	if _, err := h.service.Undo(ctx, userID); err != nil {
		writeServiceError(conn, err)
		return
	}
	h.sendCurrentQuestion(conn, userID)
}

func (h *WSHandler) sendCurrentQuestion(conn *websocket.Conn, userID int64) {
	s, ok := h.service.State(userID)
	if !ok {
		writeError(conn, "session_not_found", "no active survey")
		return
	}

	switch s.Instrument {
	case domain.InstrumentPriorities:
		q := h.service.Bank(domain.InstrumentPriorities).QuestionAt(0)
		if q == nil {
			writeError(conn, "internal_error", "priorities content unavailable")
			return
		}
		options := make([]optionView, 0, len(q.Categories))
		for _, choice := range h.service.AvailableCategories(userID) {
			options = append(options, optionView{
				Token:       choice.Num,
				Title:       choice.Category.Title,
				Description: choice.Category.Description,
			})
		}
		nextRank := 0
		if s.Step < len(domain.PriorityRanks) {
			nextRank = domain.PriorityRanks[s.Step]
		}
		writeJSON(conn, outboundMessage[questionPayload]{Type: "question", Payload: questionPayload{
			Instrument: s.Instrument.String(),
			Total:      1,
			NextRank:   nextRank,
			Text:       q.Text,
			Options:    options,
		}})

	case domain.InstrumentThinking:
		inst := h.service.Bank(domain.InstrumentThinking)
		q := inst.QuestionAt(s.Question)
		if q == nil {
			writeError(conn, "internal_error", "thinking content unavailable")
			return
		}
		options := make([]optionView, 0, len(domain.ThinkingOptions))
		for _, token := range h.service.AvailableOptions(userID) {
			options = append(options, optionView{Token: token})
		}
		nextRank := 0
		if s.Step < len(domain.ThinkingRanks) {
			nextRank = domain.ThinkingRanks[s.Step]
		}
		writeJSON(conn, outboundMessage[questionPayload]{Type: "question", Payload: questionPayload{
			Instrument: s.Instrument.String(),
			Question:   s.Question,
			Total:      inst.QuestionCount(),
			NextRank:   nextRank,
			Text:       q.Text,
			Options:    options,
		}})

	case domain.InstrumentPersonality:
		inst := h.service.Bank(domain.InstrumentPersonality)
		q := inst.QuestionAt(s.Question)
		if q == nil {
			writeError(conn, "internal_error", "personality content unavailable")
			return
		}
		writeJSON(conn, outboundMessage[questionPayload]{Type: "question", Payload: questionPayload{
			Instrument: s.Instrument.String(),
			Question:   s.Question,
			Total:      inst.QuestionCount(),
			Text:       q.Text,
			Options: []optionView{
				{Token: domain.AnswerYes},
				{Token: domain.AnswerNo},
			},
		}})
	}
}

func writeServiceError(conn *websocket.Conn, err error) {
	writeError(conn, reasonCode(err), err.Error())
}

func writeError(conn *websocket.Conn, reason, message string) {
	writeJSON(conn, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{
		Reason:  reason,
		Message: message,
	}})
}

func writeJSON(conn *websocket.Conn, msg interface{}) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("ws write error: %v", err)
	}
}

// reasonCode maps sentinel errors to the stable codes clients key their
// retry UX off.
func reasonCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, domain.ErrWrongInstrument):
		return "wrong_instrument"
	case errors.Is(err, domain.ErrInvalidCategory):
		return "invalid_category"
	case errors.Is(err, domain.ErrCategoryRanked):
		return "category_ranked"
	case errors.Is(err, domain.ErrInvalidOption):
		return "invalid_option"
	case errors.Is(err, domain.ErrOptionUsed):
		return "option_used"
	case errors.Is(err, domain.ErrStepLimit):
		return "step_limit"
	case errors.Is(err, domain.ErrInvalidAnswer):
		return "invalid_answer"
	case errors.Is(err, domain.ErrInstrumentIncomplete):
		return "instrument_incomplete"
	case errors.Is(err, domain.ErrNothingToUndo):
		return "nothing_to_undo"
	default:
		return "internal_error"
	}
}
