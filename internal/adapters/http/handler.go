package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/singleflight"

	"github.com/PabloGalante/noto-agent/internal/app/batch"
	"github.com/PabloGalante/noto-agent/internal/app/conversation"
	"github.com/PabloGalante/noto-agent/internal/app/memories"
	"github.com/PabloGalante/noto-agent/internal/app/persona"
	"github.com/PabloGalante/noto-agent/internal/app/scheduler"
	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/observability"
)

// Deps are the application services behind the HTTP surface.
type Deps struct {
	Conversations *conversation.Service
	Memories      *memories.Service
	Persona       *persona.Service
	Sweeper       *scheduler.Sweeper
	// Batcher, when set, debounces messages of the same conversation.
	Batcher *batch.Batcher[*conversation.SendMessageOutput]
	// CronSecret, when set, must be sent as a bearer token to /api/cron.
	CronSecret string
}

type Server struct {
	deps  Deps
	sweep singleflight.Group
}

func NewServer(deps Deps) http.Handler {
	s := &Server{deps: deps}
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/conversations", s.handleListConversations).Methods(http.MethodGet)
	r.HandleFunc("/conversations", s.handleStartConversation).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}", s.handleGetConversation).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/messages", s.handleSendMessage).Methods(http.MethodPost)

	r.HandleFunc("/memories", s.handleSearchMemories).Methods(http.MethodGet)
	r.HandleFunc("/reminders", s.handleListReminders).Methods(http.MethodGet)

	r.HandleFunc("/persona", s.handleGetPersona).Methods(http.MethodGet)
	r.HandleFunc("/persona", s.handleUpdatePersona).Methods(http.MethodPost)

	r.HandleFunc("/api/cron", s.handleCron).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return chainMiddlewares(r, withRecovery, withCORS, withLogging, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type startConversationRequest struct {
	Category string `json:"category"`
}

type conversationResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	Pinned        bool      `json:"pinned"`
	CreatedAt     time.Time `json:"created_at"`
	Pending       string    `json:"pending,omitempty"`
}

type messageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	UserMessages []messageResponse `json:"user_messages"`
	BotMessage   *messageResponse  `json:"bot_message,omitempty"`
	Action       string            `json:"action,omitempty"`
	Error        string            `json:"error,omitempty"`
}

type getConversationResponse struct {
	Conversation conversationResponse `json:"conversation"`
	Messages     []messageResponse    `json:"messages"`
}

type memoriesResponse struct {
	Memories []*domain.Memory `json:"memories"`
}

type remindersResponse struct {
	Reminders []*domain.Reminder `json:"reminders"`
}

type updatePersonaRequest struct {
	Examples []string `json:"examples"`
	Current  string   `json:"current,omitempty"`
}

type personaResponse struct {
	Persona string `json:"persona"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.deps.Conversations.ListConversations(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}

	out := make([]conversationResponse, 0, len(convs))
	for _, c := range convs {
		out = append(out, toConversationResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": out})
}

func (s *Server) handleStartConversation(w http.ResponseWriter, r *http.Request) {
	var req startConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	conv, err := s.deps.Conversations.StartConversation(r.Context(), req.Category)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"conversation": toConversationResponse(conv)})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := domain.ConversationID(mux.Vars(r)["id"])

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	conv, msgs, err := s.deps.Conversations.GetTimeline(r.Context(), id, limit)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, getConversationResponse{
		Conversation: toConversationResponse(conv),
		Messages:     toMessagesResponse(msgs),
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id := domain.ConversationID(mux.Vars(r)["id"])

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}

	out, err := s.send(r.Context(), id, req.Text)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		case errors.Is(err, conversation.ErrEmptyMessage):
			badRequest(w, "text is required")
			return
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "request cancelled")
			return
		case errors.Is(err, domain.ErrGenerationFailure):
			status = http.StatusBadGateway
		}
		observability.LoggerFromContext(r.Context()).Error("send message failed", "error", err)

		resp := sendMessageResponse{Error: "could not process message"}
		if out != nil {
			resp.UserMessages = toMessagesResponse(out.UserMessages)
			resp.BotMessage = toMessagePtr(out.BotMessage)
		}
		writeJSON(w, status, resp)
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{
		UserMessages: toMessagesResponse(out.UserMessages),
		BotMessage:   toMessagePtr(out.BotMessage),
		Action:       string(out.Decision.Action),
	})
}

func (s *Server) send(ctx context.Context, id domain.ConversationID, text string) (*conversation.SendMessageOutput, error) {
	if s.deps.Batcher != nil {
		return s.deps.Batcher.Submit(ctx, string(id), text)
	}
	return s.deps.Conversations.SendMessage(ctx, conversation.SendMessageInput{
		ConversationID: id,
		Texts:          []string{text},
	})
}

func (s *Server) handleSearchMemories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mems, err := s.deps.Memories.Search(r.Context(), q.Get("q"), q.Get("category"), 0)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memoriesResponse{Memories: mems})
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	rems, err := s.deps.Memories.UpcomingReminders(r.Context(), 0)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, remindersResponse{Reminders: rems})
}

func (s *Server) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, personaResponse{Persona: s.deps.Persona.Current(r.Context())})
}

func (s *Server) handleUpdatePersona(w http.ResponseWriter, r *http.Request) {
	var req updatePersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	updated, err := s.deps.Persona.Personalize(r.Context(), req.Examples, req.Current)
	switch {
	case errors.Is(err, persona.ErrNoExamples):
		badRequest(w, "examples are required")
		return
	case errors.Is(err, domain.ErrGenerationFailure):
		observability.LoggerFromContext(r.Context()).Error("update persona failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to update persona")
		return
	case err != nil:
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, personaResponse{Persona: updated})
}

// handleCron runs one scheduler sweep. Overlapping invocations share the
// result of the sweep already running.
func (s *Server) handleCron(w http.ResponseWriter, r *http.Request) {
	if secret := s.deps.CronSecret; secret != "" {
		if r.Header.Get("Authorization") != "Bearer "+secret {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
	}

	ctx := context.WithoutCancel(r.Context())
	v, err, shared := s.sweep.Do("sweep", func() (any, error) {
		return s.deps.Sweeper.Sweep(ctx)
	})
	if err != nil {
		internalError(w, err)
		return
	}

	observability.LoggerFromContext(r.Context()).Info("cron sweep served", "shared", shared)
	writeJSON(w, http.StatusOK, v.(scheduler.SweepResult))
}

// ─────────────────────────────────────────────
// Conversation Helpers
// ─────────────────────────────────────────────

func toConversationResponse(c *domain.Conversation) conversationResponse {
	return conversationResponse{
		ID:            string(c.ID),
		Title:         c.Title,
		LastMessage:   c.LastMessage,
		LastMessageAt: c.LastMessageAt,
		Pinned:        c.Pinned,
		CreatedAt:     c.CreatedAt,
		Pending:       string(c.Pending),
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:             string(m.ID),
		ConversationID: string(m.ConversationID),
		Sender:         string(m.Sender),
		Text:           m.Text,
		CreatedAt:      m.CreatedAt,
	}
}

func toMessagePtr(m *domain.Message) *messageResponse {
	if m == nil {
		return nil
	}
	resp := toMessageResponse(m)
	return &resp
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

func internalError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrStoreUnavailable) {
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, "internal server error")
}
