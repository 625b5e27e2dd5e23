package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kodbank/apiserver/internal/services"
	"github.com/kodbank/apiserver/types"
	"github.com/rs/zerolog"
)

// ChatHandler exposes the assistant conversation.
type ChatHandler struct {
	chat   *services.ChatService
	logger zerolog.Logger
}

func NewChatHandler(chat *services.ChatService, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

// ChatRouter registers chat routes. The caller applies the session
// middleware.
func ChatRouter(r chi.Router, handler *ChatHandler) {
	r.Get("/", handler.History)
	r.Post("/", handler.Send)
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

type ChatHistoryResponse struct {
	Messages []types.ChatMessage `json:"messages"`
}

// History returns the stored conversation, oldest first.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	messages, err := h.chat.History(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if messages == nil {
		messages = []types.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, ChatHistoryResponse{Messages: messages})
}

// Send stores the message, generates a reply and returns it.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var req ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	reply, err := h.chat.Send(r.Context(), claims.UserID, req.Message)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Response: reply})
}
