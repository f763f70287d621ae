package chatbot

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayush/research-content-generator/internal/httpx"
	"github.com/ayush/research-content-generator/internal/middleware"
	"github.com/ayush/research-content-generator/internal/models"
)

// Sessions resolves the per-UI-session state the chat handlers need.
type Sessions interface {
	Chats(uiSessionID string) Store
	Document(ctx context.Context, uiSessionID string) (*models.Document, error)
}

// Handler holds chatbot HTTP handlers.
type Handler struct {
	svc      *Service
	sessions Sessions
	log      *zap.Logger
}

func NewHandler(svc *Service, sessions Sessions, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, sessions: sessions, log: logger.Named("chatbot")}
}

// Routes mounts the chat endpoints under /api/chat.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/sessions", h.Create)
	r.Get("/sessions/{id}/messages", h.Messages)
	r.Post("/sessions/{id}/messages", h.Send)
	r.Put("/sessions/{id}/context", h.UpdateContext)
	r.Delete("/sessions/{id}", h.Delete)
}

type createResponse struct {
	SessionID string `json:"session_id"`
}

// Create starts a chat session. Without an explicit context the current
// document of the UI session is used.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())

	var req models.CreateChatRequest
	if r.ContentLength != 0 {
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	chatContext := req.Context
	if chatContext == "" {
		doc, err := h.sessions.Document(r.Context(), sid)
		if err != nil {
			h.log.Error("load document", zap.String("ui_session", sid), zap.Error(err))
			httpx.WriteError(w, http.StatusInternalServerError, "failed to load session state")
			return
		}
		if doc != nil {
			chatContext = doc.ChatContext()
		}
	}

	id := uuid.NewString()
	if err := h.svc.CreateSession(r.Context(), h.sessions.Chats(sid), id, chatContext); err != nil {
		h.log.Error("create chat session", zap.String("ui_session", sid), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "failed to create chat session")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, createResponse{SessionID: id})
}

// Messages returns the display list of a chat session.
func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())
	msgs, err := h.svc.Messages(r.Context(), h.sessions.Chats(sid), chi.URLParam(r, "id"))
	if err != nil {
		h.log.Error("list chat messages", zap.String("ui_session", sid), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}

// Send answers one user message. Failures are reported in the Reply body.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	sid := middleware.SessionID(r.Context())
	reply := h.svc.SendMessage(r.Context(), h.sessions.Chats(sid), chi.URLParam(r, "id"), req.Message)
	httpx.WriteJSON(w, http.StatusOK, reply)
}

// UpdateContext replaces the context of a chat session.
func (h *Handler) UpdateContext(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateContextRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	sid := middleware.SessionID(r.Context())
	updated, err := h.svc.UpdateContext(r.Context(), h.sessions.Chats(sid), chi.URLParam(r, "id"), req.Context)
	if err != nil {
		h.log.Error("update chat context", zap.String("ui_session", sid), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "failed to update context")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"updated": updated})
}

// Delete clears a chat session.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())
	if err := h.svc.ClearSession(r.Context(), h.sessions.Chats(sid), chi.URLParam(r, "id")); err != nil {
		h.log.Error("clear chat session", zap.String("ui_session", sid), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "cleared"})
}
