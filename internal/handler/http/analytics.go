package http

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"impacto-backend/internal/auth"
	"impacto-backend/internal/repository"
	"impacto-backend/internal/service"

	"go.uber.org/zap"
)

// AnalyticsHandler serves the dashboard and per-link analytics endpoints.
type AnalyticsHandler struct {
	analytics *service.Analytics
	log       *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics *service.Analytics, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		log:       log,
	}
}

// Dashboard returns the aggregated dashboard payload
//
//	@Summary		Analytics dashboard
//	@Description	Aggregate click analytics for the authenticated user
//	@Tags			Analytics
//	@Produce		json
//	@Security		BearerAuth
//	@Param			start_date	query		string	false	"Window start (YYYY-MM-DD)"
//	@Param			end_date	query		string	false	"Window end (YYYY-MM-DD)"
//	@Param			client_id	query		string	false	"Restrict to one client (AGENCY plan only)"
//	@Param			campaign_id	query		string	false	"Restrict to one campaign"
//	@Param			link_id		query		string	false	"Restrict to one link"
//	@Success		200			{object}	service.DashboardPayload
//	@Failure		400			{object}	ErrorResponse	"Invalid filters"
//	@Failure		403			{object}	ErrorResponse	"Plan does not allow client filter"
//	@Router			/api/analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}
	plan, ok := auth.GetUserPlanFromContext(r.Context())
	if !ok {
		writeError(w, "User plan not found in context", http.StatusUnauthorized)
		return
	}

	filters, err := parseDashboardFilters(r.URL.Query())
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	payload, err := h.analytics.ComputeDashboard(r.Context(), userID, plan, filters)
	if err != nil {
		if err == service.ErrClientFilterForbidden {
			writeError(w, "Client filter requires the AGENCY plan", http.StatusForbidden)
			return
		}
		if err == repository.ErrLinkNotFound {
			writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to compute dashboard", zap.String("user_id", userID), zap.Error(err))
		writeError(w, "Failed to compute analytics", http.StatusInternalServerError)
		return
	}

	writeJSON(w, payload, http.StatusOK)
}

// LinkAnalytics returns the click breakdown of one link.
func (h *AnalyticsHandler) LinkAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	linkID := pathID(r.URL.Path, "/api/analytics/links/")
	if linkID == "" {
		writeError(w, "Link ID is required", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	startDate, err := optionalDate(q, "start_date")
	if err != nil {
		writeError(w, "Invalid start_date format", http.StatusBadRequest)
		return
	}
	endDate, err := optionalDate(q, "end_date")
	if err != nil {
		writeError(w, "Invalid end_date format", http.StatusBadRequest)
		return
	}

	payload, err := h.analytics.GetLinkAnalytics(r.Context(), userID, linkID, startDate, endDate)
	if err != nil {
		if err == repository.ErrLinkNotFound {
			writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to compute link analytics",
			zap.String("link_id", linkID),
			zap.String("user_id", userID),
			zap.Error(err))
		writeError(w, "Failed to compute analytics", http.StatusInternalServerError)
		return
	}

	writeJSON(w, payload, http.StatusOK)
}

func parseDashboardFilters(q url.Values) (service.DashboardFilters, error) {
	var filters service.DashboardFilters

	startDate, err := optionalDate(q, "start_date")
	if err != nil {
		return filters, err
	}
	endDate, err := optionalDate(q, "end_date")
	if err != nil {
		return filters, err
	}
	filters.StartDate = startDate
	filters.EndDate = endDate

	if v := q.Get("client_id"); v != "" {
		filters.ClientID = &v
	}
	if v := q.Get("campaign_id"); v != "" {
		filters.CampaignID = &v
	}
	if v := q.Get("link_id"); v != "" {
		filters.LinkID = &v
	}

	return filters, nil
}

// optionalDate parses an optional date query parameter. A present but
// malformed value is an error, never silently ignored.
func optionalDate(q url.Values, key string) (*time.Time, error) {
	value := q.Get(key)
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(value)
	if err != nil {
		return nil, fmt.Errorf("Invalid %s format", key)
	}
	return &t, nil
}
