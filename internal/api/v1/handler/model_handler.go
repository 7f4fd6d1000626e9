package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
)

// ModelHandler handles AI model listing and user-provided provider API keys.
type ModelHandler struct {
	aiService service.AIService
	secrets   service.SecretManagerService // nil when Secret Manager is not configured
	validate  *validator.Validate
}

// NewModelHandler creates a new ModelHandler. secrets may be nil; key routes
// then respond 501.
func NewModelHandler(aiService service.AIService, secrets service.SecretManagerService, validate *validator.Validate) *ModelHandler {
	return &ModelHandler{aiService: aiService, secrets: secrets, validate: validate}
}

// RegisterRoutes mounts model and key routes
func (h *ModelHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/models", authMw(http.HandlerFunc(h.listModels)))
	mux.Handle("/keys", authMw(http.HandlerFunc(h.handleKeys)))
}

// listModels godoc
// @Summary List AI models
// @Description Lists the active models available for instruction interpretation.
// @Tags models
// @Produce json
// @Success 200 {array} dto.AIModelResponseDTO
// @Failure 500 {string} string "Failed to list models"
// @Router /models [get]
func (h *ModelHandler) listModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	models, err := h.aiService.ListModels(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to list models")
		return
	}
	resp := make([]dto.AIModelResponseDTO, 0, len(models))
	for _, m := range models {
		resp = append(resp, dto.AIModelResponseDTO{
			ID:          m.ID,
			Provider:    m.Provider,
			ModelName:   m.ModelName,
			DisplayName: m.DisplayName,
			Description: m.Description,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *ModelHandler) handleKeys(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	if h.secrets == nil {
		http.Error(w, "User API key storage is not configured", http.StatusNotImplemented)
		return
	}
	switch r.Method {
	case http.MethodPut:
		h.storeKey(w, r, userID)
	case http.MethodDelete:
		h.deleteKey(w, r, userID)
	default:
		http.NotFound(w, r)
	}
}

// storeKey godoc
// @Summary Store a provider API key
// @Description Stores the user's own API key for a provider; it is used when no shared key is configured.
// @Tags models
// @Accept json
// @Param key body dto.UserAPIKeyDTO true "Provider API key"
// @Success 204 {string} string "No Content"
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Router /keys [put]
func (h *ModelHandler) storeKey(w http.ResponseWriter, r *http.Request, userID string) {
	var req dto.UserAPIKeyDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.secrets.StoreUserAPIKey(r.Context(), userID, req.Provider, req.APIKey); err != nil {
		writeServiceError(w, err, "Failed to store API key")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteKey godoc
// @Summary Delete a provider API key
// @Description Removes the user's stored API key for the given provider.
// @Tags models
// @Param provider query string true "Provider name"
// @Success 204 {string} string "No Content"
// @Failure 400 {string} string "Missing provider"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Router /keys [delete]
func (h *ModelHandler) deleteKey(w http.ResponseWriter, r *http.Request, userID string) {
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		http.Error(w, "Missing provider query parameter", http.StatusBadRequest)
		return
	}
	if err := h.secrets.DeleteUserAPIKey(r.Context(), userID, provider); err != nil {
		writeServiceError(w, err, "Failed to delete API key")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
