// Package frontdoor exposes the gateway over HTTP under /ai.
package frontdoor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hjkwon-github/docmost-codex/internal/codec"
	"github.com/hjkwon-github/docmost-codex/internal/domain"
	"github.com/hjkwon-github/docmost-codex/internal/server"
)

// ConversationHeader names the chat turn. A new request with the same value
// supersedes one still in flight.
const ConversationHeader = "X-Conversation-ID"

const maxBodyBytes = 1 << 20

// Service is what the handlers need from the gateway.
type Service interface {
	ListProviders() []domain.ProviderID
	ListModels(ctx context.Context) ([]domain.ModelDescriptor, error)
	Chat(ctx context.Context, turnKey string, req domain.ChatRequest) (*domain.ChatResult, error)
	CancelChat(turnKey string) bool
}

type providerChatRequest struct {
	Provider domain.ProviderID `json:"provider"`
	Messages []domain.Message  `json:"messages"`
}

type modelChatRequest struct {
	ModelID  string           `json:"modelId"`
	Messages []domain.Message `json:"messages"`
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/ai", func(r chi.Router) {
		r.Get("/providers", h.HandleListProviders)
		r.Get("/models", h.HandleListModels)
		r.Post("/chat", h.HandleChat)
		r.Post("/chat/model", h.HandleChatModel)
		r.Delete("/chat/{conversationID}", h.HandleCancelChat)
	})
}

func (h *Handler) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": h.svc.ListProviders()})
}

func (h *Handler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.svc.ListModels(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var body providerChatRequest
	if err := decode(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	server.AddLogField(r.Context(), "provider", string(body.Provider))

	h.chat(w, r, domain.ChatRequest{Provider: body.Provider, Messages: body.Messages})
}

func (h *Handler) HandleChatModel(w http.ResponseWriter, r *http.Request) {
	var body modelChatRequest
	if err := decode(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	server.AddLogField(r.Context(), "model", body.ModelID)

	h.chat(w, r, domain.ChatRequest{ModelID: body.ModelID, Messages: body.Messages})
}

func (h *Handler) HandleCancelChat(w http.ResponseWriter, r *http.Request) {
	if !h.svc.CancelChat(chi.URLParam(r, "conversationID")) {
		codec.WriteNotFound(w, "no chat in flight for this conversation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request, req domain.ChatRequest) {
	turnKey := r.Header.Get(ConversationHeader)
	server.AddLogField(r.Context(), "conversation_id", turnKey)

	result, err := h.svc.Chat(r.Context(), turnKey, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	server.AddError(r.Context(), err)
	codec.WriteError(w, err)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.ErrInvalidRequest("request body exceeds %d bytes", maxErr.Limit)
		}
		return domain.ErrInvalidRequest("invalid JSON body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
