package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
)

// PlanHandler handles plan and usage endpoints
type PlanHandler struct {
	quotaService service.QuotaService
	validate     *validator.Validate
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(quotaService service.QuotaService, validate *validator.Validate) *PlanHandler {
	return &PlanHandler{quotaService: quotaService, validate: validate}
}

// RegisterRoutes mounts plan and usage routes
func (h *PlanHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/plans", authMw(http.HandlerFunc(h.listPlans)))
	mux.Handle("/plans/change", authMw(http.HandlerFunc(h.changePlan)))
	mux.Handle("/usage", authMw(http.HandlerFunc(h.getUsage)))
}

// listPlans godoc
// @Summary List plans
// @Description Lists all subscription tiers, cheapest first.
// @Tags plans
// @Produce json
// @Success 200 {array} dto.PlanResponseDTO
// @Failure 500 {string} string "Failed to list plans"
// @Router /plans [get]
func (h *PlanHandler) listPlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	plans, err := h.quotaService.ListPlans(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to list plans")
		return
	}
	resp := make([]dto.PlanResponseDTO, 0, len(plans))
	for _, p := range plans {
		resp = append(resp, dto.PlanResponseDTO{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			Price:        p.Price,
			MaxStorageMB: p.MaxStorageMB,
			MaxAICalls:   p.MaxAICalls,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// changePlan godoc
// @Summary Change the active plan
// @Description Ends the current subscription and starts one on the requested plan.
// @Tags plans
// @Accept json
// @Produce json
// @Param plan body dto.PlanChangeDTO true "Plan change request"
// @Success 200 {object} dto.UserPlanResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "Plan not found"
// @Router /plans/change [post]
func (h *PlanHandler) changePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.PlanChangeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	userPlan, err := h.quotaService.ChangePlan(r.Context(), userID, req.PlanID)
	if err != nil {
		writeServiceError(w, err, "Failed to change plan")
		return
	}
	resp := dto.UserPlanResponseDTO{
		ID:        userPlan.ID,
		UserID:    userPlan.UserID,
		PlanID:    userPlan.PlanID,
		StartedAt: userPlan.StartedAt,
		EndedAt:   userPlan.EndedAt,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// getUsage godoc
// @Summary Get usage statistics
// @Description Returns the user's storage and AI-call consumption against the active plan. First-time users are subscribed to the default plan.
// @Tags plans
// @Produce json
// @Success 200 {object} dto.UsageResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 500 {string} string "Failed to fetch usage"
// @Router /usage [get]
func (h *PlanHandler) getUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	stats, err := h.quotaService.UsageStats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Failed to fetch usage")
		return
	}
	resp := dto.UsageResponseDTO{
		StorageUsedMB: stats.StorageUsedMB,
		AICallsUsed:   stats.AICallsUsed,
		MaxStorageMB:  stats.MaxStorageMB,
		MaxAICalls:    stats.MaxAICalls,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
