package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coachbot.io/ai-router/internal/core"
	"coachbot.io/ai-router/internal/llm"
	"coachbot.io/ai-router/internal/store"
)

type APIHandler struct {
	chatService *core.ChatService
}

func NewAPIHandler(cs *core.ChatService) *APIHandler {
	return &APIHandler{chatService: cs}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Deleted *int   `json:"deleted,omitempty"`
}

// writeError maps the error classes of core and llm onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr  *core.ValidationError
		storeErr       *core.StoreError
		credentialErr  *llm.CredentialError
		unavailableErr *llm.UnavailableError
		providerErr    *llm.ProviderError
	)
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Error()})
	case errors.Is(err, core.ErrConfigNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Coaching context not found."})
	case errors.Is(err, llm.ErrUnknownProvider):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Unknown provider."})
	case errors.As(err, &credentialErr):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: credentialErr.Error()})
	case errors.As(err, &unavailableErr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: unavailableErr.Error()})
	case errors.As(err, &providerErr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: providerErr.Error()})
	case errors.Is(err, llm.ErrEmptyReply):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "The AI did not return a text reply."})
	case errors.As(err, &storeErr):
		log.Printf("Store error: %v", storeErr)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error."})
	default:
		log.Printf("Unexpected error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error: " + err.Error()})
	}
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.chatService.Ready(r.Context()); err != nil {
		log.Printf("Health check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) ListModelsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	models, err := h.chatService.ListModels(r.Context(), q.Get("apiKey"), q.Get("provider"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"models": models})
}

type UpdateSettingsRequest struct {
	CoachingID    string `json:"coachingId"`
	ContextPrompt string `json:"contextPrompt"`
	APIKey        string `json:"apiKey"`
	Model         string `json:"model"`
	APIProvider   string `json:"apiProvider,omitempty"`
}

func (h *APIHandler) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	err := h.chatService.UpdateConfig(r.Context(), store.CoachingConfig{
		CoachingID:   req.CoachingID,
		SystemPrompt: req.ContextPrompt,
		Credential:   req.APIKey,
		ModelID:      req.Model,
		ProviderID:   req.APIProvider,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Settings updated successfully."})
}

func (h *APIHandler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.chatService.GetConfig(r.Context(), chi.URLParam(r, "coachingID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type HistoryEntry struct {
	Role    store.Role `json:"role"`
	Message string     `json:"message"`
}

func (h *APIHandler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	turns, err := h.chatService.GetHistory(r.Context(), q.Get("userId"), q.Get("coachingId"))
	if err != nil {
		writeError(w, err)
		return
	}

	history := make([]HistoryEntry, 0, len(turns))
	for _, turn := range turns {
		history = append(history, HistoryEntry{Role: turn.Role, Message: turn.Content})
	}
	writeJSON(w, http.StatusOK, map[string][]HistoryEntry{"history": history})
}

type DeleteLastRequest struct {
	UserID     string `json:"userId"`
	CoachingID string `json:"coachingId"`
}

func (h *APIHandler) DeleteLastHandler(w http.ResponseWriter, r *http.Request) {
	var req DeleteLastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	deleted, err := h.chatService.UndoLastTurn(r.Context(), req.UserID, req.CoachingID)
	if errors.Is(err, core.ErrIncompleteUndo) {
		log.Printf("Incomplete undo for user %s, coaching %s: deleted %d", req.UserID, req.CoachingID, deleted)
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   "Not enough messages found to delete a pair.",
			Deleted: &deleted,
		})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Last user and AI message deleted.",
		"deleted": deleted,
	})
}

type PromptRequest struct {
	Prompt     string `json:"prompt"`
	UserID     string `json:"userId"`
	CoachingID string `json:"coachingId"`
	BaseURL    string `json:"baseUrl,omitempty"`
}

func (h *APIHandler) PromptHandler(w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	reply, err := h.chatService.SendPrompt(r.Context(), core.PromptInput{
		UserID:     req.UserID,
		CoachingID: req.CoachingID,
		Prompt:     req.Prompt,
		BaseURL:    req.BaseURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"aiResponse": reply})
}
