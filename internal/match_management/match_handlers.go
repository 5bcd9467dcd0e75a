package match_management

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quizduel/internal/auth"
	"quizduel/internal/match_store"
	"quizduel/internal/models"
	"quizduel/internal/quiz"
	"quizduel/internal/utils"
)

// Handler exposes the match engine over HTTP and WebSocket.
type Handler struct {
	manager   *MatchManager
	sync      *RoundSynchronizer
	store     match_store.MatchStore
	questions quiz.Source
	jwtSecret []byte
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

func NewHandler(manager *MatchManager, sync *RoundSynchronizer, store match_store.MatchStore, questions quiz.Source, jwtSecret []byte, logger *zap.Logger) *Handler {
	return &Handler{
		manager:   manager,
		sync:      sync,
		store:     store,
		questions: questions,
		jwtSecret: jwtSecret,
		logger:    logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// writeDomainError maps the error taxonomy onto HTTP statuses with messages
// that distinguish "room does not exist" from "room is full" from "that's
// your own room".
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "room does not exist")
	case errors.Is(err, models.ErrMatchFull):
		utils.WriteError(w, http.StatusConflict, "room is full")
	case errors.Is(err, models.ErrSelfJoin):
		utils.WriteError(w, http.StatusConflict, "you cannot join your own room")
	case errors.Is(err, models.ErrAllocationExhausted):
		utils.WriteError(w, http.StatusServiceUnavailable, "could not allocate a room code, try again")
	case errors.Is(err, models.ErrNoActiveMatch):
		utils.WriteError(w, http.StatusBadRequest, "no active match")
	case errors.Is(err, models.ErrNotParticipant):
		utils.WriteError(w, http.StatusForbidden, "not part of this match")
	case models.IsStoreUnavailable(err):
		utils.WriteError(w, http.StatusServiceUnavailable, "store unavailable")
	default:
		utils.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

// --- Create Handler ---
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	match, err := h.manager.CreateMatch(r.Context(), principal.ID, principal.Email)
	if err != nil {
		h.logger.Warn("create match failed", zap.Error(err))
		writeDomainError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, match)
}

// --- Join Handler ---
func (h *Handler) JoinHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.JoinReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.MatchID == "" {
		utils.WriteError(w, http.StatusBadRequest, "matchId required")
		return
	}

	match, err := h.manager.JoinMatch(r.Context(), req.MatchID, principal.ID, principal.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, match)
}

// --- Load Handler ---
func (h *Handler) LoadHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		utils.WriteError(w, http.StatusBadRequest, "room code required")
		return
	}

	match, err := h.manager.LoadMatch(r.Context(), code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, match)
}

// --- Answer Handler ---
// The request carries the chosen option index; grading against the current
// question happens here so the correct index never reaches clients. An index
// of -1 is the forced wrong answer submitted when the answer window elapses.
func (h *Handler) AnswerHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.AnswerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.MatchID == "" {
		writeDomainError(w, models.ErrNoActiveMatch)
		return
	}

	match, err := h.manager.LoadMatch(r.Context(), req.MatchID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	isCorrect := false
	if question, ok := h.questions.Question(match.CurrentQuestionIndex); ok {
		isCorrect = req.OptionIndex >= 0 && req.OptionIndex == question.CorrectOption
	}

	if err := h.sync.SubmitAnswer(r.Context(), req.MatchID, principal.ID, isCorrect); err != nil {
		writeDomainError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: "answer recorded"})
}

// --- Questions Handler ---
func (h *Handler) QuestionsHandler(w http.ResponseWriter, r *http.Request) {
	type questionView struct {
		Index   int      `json:"index"`
		Prompt  string   `json:"prompt"`
		Options []string `json:"options"`
	}

	all := h.questions.Questions()
	views := make([]questionView, len(all))
	for i, q := range all {
		views[i] = questionView{Index: i, Prompt: q.Prompt, Options: q.Options}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"total": len(views),
		"items": views,
	})
}

// --- WebSocket Handler ---
// Each connection gets its own watcher; snapshots stream to the client until
// it disconnects, at which point the subscription is torn down.
func (h *Handler) WsHandler(w http.ResponseWriter, r *http.Request) {
	matchID := r.URL.Query().Get("matchId")
	if matchID == "" {
		http.Error(w, "matchId required", http.StatusBadRequest)
		return
	}
	if _, err := auth.VerifyToken(r.URL.Query().Get("token"), h.jwtSecret); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	watcher := NewMatchWatcher(h.store, h.sync, h.logger)
	if err := watcher.StartWatching(r.Context(), matchID); err != nil {
		conn.WriteJSON(map[string]any{"type": "stream_error", "error": "subscribe failed"})
		return
	}
	defer watcher.StopWatching()

	// Reader loop only detects disconnects; clients talk to the engine over
	// HTTP, not over this socket.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-watcher.Events():
			if err := conn.WriteJSON(wsMessage(ev)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func wsMessage(ev WatchEvent) map[string]any {
	switch ev.Type {
	case WatchDeleted:
		return map[string]any{"type": "match_deleted"}
	case WatchError:
		return map[string]any{"type": "stream_error", "error": ev.Err.Error()}
	default:
		msgType := "match_update"
		if ev.Match != nil && ev.Match.Status == models.StatusFinished {
			msgType = "match_finished"
		}
		return map[string]any{"type": msgType, "match": ev.Match}
	}
}
