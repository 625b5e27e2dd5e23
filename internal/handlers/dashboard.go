package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kodbank/apiserver/internal/services"
	"github.com/kodbank/apiserver/types"
	"github.com/rs/zerolog"
)

// DashboardHandler serves the dashboard read model.
type DashboardHandler struct {
	dashboards *services.DashboardService
	logger     zerolog.Logger
}

func NewDashboardHandler(dashboards *services.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, logger: logger}
}

// DashboardRouter registers the dashboard route. The caller applies the
// session middleware.
func DashboardRouter(r chi.Router, handler *DashboardHandler) {
	r.Get("/", handler.Get)
}

// DashboardResponse is the body of GET /api/dashboard. Stats is an empty
// object when the user has no stats row.
type DashboardResponse struct {
	User         types.UserSummary   `json:"user"`
	Stats        any                 `json:"stats"`
	Transactions []types.Transaction `json:"transactions"`
}

func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	dashboard, err := h.dashboards.Get(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	resp := DashboardResponse{
		User:         dashboard.User,
		Stats:        struct{}{},
		Transactions: dashboard.Transactions,
	}
	if dashboard.Stats != nil {
		resp.Stats = dashboard.Stats
	}
	if resp.Transactions == nil {
		resp.Transactions = []types.Transaction{}
	}
	writeJSON(w, http.StatusOK, resp)
}
