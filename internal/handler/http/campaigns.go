package http

import (
	"encoding/json"
	"net/http"
	"time"

	"impacto-backend/internal/auth"
	"impacto-backend/internal/domain"
	"impacto-backend/internal/repository"

	"go.uber.org/zap"
)

// CampaignsHandler serves campaign CRUD endpoints.
type CampaignsHandler struct {
	storage repository.Storage
	log     *zap.Logger
}

// NewCampaignsHandler creates a new campaigns handler.
func NewCampaignsHandler(storage repository.Storage, log *zap.Logger) *CampaignsHandler {
	return &CampaignsHandler{
		storage: storage,
		log:     log,
	}
}

// CampaignRequest is the campaign create and update payload.
type CampaignRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
}

// CampaignResponse is a campaign as returned by the API.
type CampaignResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
	ClientName  string `json:"client_name,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// CampaignStatsResponse is a campaign with its aggregate numbers.
type CampaignStatsResponse struct {
	CampaignResponse
	LinkCount   int   `json:"link_count"`
	TotalClicks int64 `json:"total_clicks"`
}

// ListCampaignsResponse wraps a campaign listing.
type ListCampaignsResponse struct {
	Campaigns []CampaignResponse `json:"campaigns"`
}

// CreateCampaign registers a new campaign.
func (h *CampaignsHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req CampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid create campaign request", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		writeError(w, "Name is required", http.StatusBadRequest)
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, "Invalid start_date format", http.StatusBadRequest)
		return
	}

	campaign := &domain.Campaign{
		Name:      req.Name,
		StartDate: startDate,
		UserID:    userID,
	}
	if req.Description != "" {
		campaign.Description = &req.Description
	}

	if req.EndDate != "" {
		endDate, err := parseDate(req.EndDate)
		if err != nil {
			writeError(w, "Invalid end_date format", http.StatusBadRequest)
			return
		}
		if endDate.Before(startDate) {
			writeError(w, "End date must not precede the start date", http.StatusBadRequest)
			return
		}
		campaign.EndDate = &endDate
	}

	if req.ClientID != "" {
		if _, err := h.storage.GetClientByID(r.Context(), req.ClientID, userID); err != nil {
			writeError(w, "Client not found", http.StatusBadRequest)
			return
		}
		campaign.ClientID = &req.ClientID
	}

	if err := h.storage.CreateCampaign(r.Context(), campaign); err != nil {
		h.log.Error("failed to create campaign", zap.String("user_id", userID), zap.Error(err))
		writeError(w, "Failed to create campaign", http.StatusInternalServerError)
		return
	}

	h.log.Info("created campaign", zap.String("campaign_id", campaign.ID), zap.String("user_id", userID))
	writeJSON(w, toCampaignResponse(campaign), http.StatusCreated)
}

// ListCampaigns lists the user's campaigns.
func (h *CampaignsHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	campaigns, err := h.storage.ListCampaigns(r.Context(), userID)
	if err != nil {
		h.log.Error("failed to list campaigns", zap.String("user_id", userID), zap.Error(err))
		writeError(w, "Failed to retrieve campaigns", http.StatusInternalServerError)
		return
	}

	response := ListCampaignsResponse{Campaigns: make([]CampaignResponse, len(campaigns))}
	for i, campaign := range campaigns {
		response.Campaigns[i] = toCampaignResponse(campaign)
	}

	writeJSON(w, response, http.StatusOK)
}

// GetCampaign returns one campaign with its link and click totals.
func (h *CampaignsHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	id := pathID(r.URL.Path, "/api/campaigns/")
	if id == "" {
		writeError(w, "Campaign ID is required", http.StatusBadRequest)
		return
	}

	campaign, err := h.storage.GetCampaignByID(r.Context(), id, userID)
	if err != nil {
		if err == repository.ErrCampaignNotFound {
			writeError(w, "Campaign not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to get campaign", zap.String("campaign_id", id), zap.Error(err))
		writeError(w, "Failed to retrieve campaign", http.StatusInternalServerError)
		return
	}

	links, err := h.storage.ListLinks(r.Context(), userID, repository.LinkFilter{CampaignID: &id})
	if err != nil {
		h.log.Error("failed to list campaign links", zap.String("campaign_id", id), zap.Error(err))
		writeError(w, "Failed to retrieve campaign", http.StatusInternalServerError)
		return
	}

	totalClicks, err := h.storage.CountClicks(r.Context(), repository.ClickFilter{
		UserID:   userID,
		LinkIDs:  linkIDsOf(links),
		Restrict: true,
		To:       time.Now(),
	})
	if err != nil {
		h.log.Error("failed to count campaign clicks", zap.String("campaign_id", id), zap.Error(err))
		writeError(w, "Failed to retrieve campaign", http.StatusInternalServerError)
		return
	}

	response := CampaignStatsResponse{
		CampaignResponse: toCampaignResponse(campaign),
		LinkCount:        len(links),
		TotalClicks:      totalClicks,
	}

	writeJSON(w, response, http.StatusOK)
}

// UpdateCampaign applies a partial update to a campaign.
func (h *CampaignsHandler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	id := pathID(r.URL.Path, "/api/campaigns/")
	if id == "" {
		writeError(w, "Campaign ID is required", http.StatusBadRequest)
		return
	}

	var req CampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid update campaign request", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	campaign, err := h.storage.GetCampaignByID(r.Context(), id, userID)
	if err != nil {
		if err == repository.ErrCampaignNotFound {
			writeError(w, "Campaign not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to get campaign for update", zap.String("campaign_id", id), zap.Error(err))
		writeError(w, "Failed to retrieve campaign", http.StatusInternalServerError)
		return
	}

	if req.Name != "" {
		campaign.Name = req.Name
	}
	if req.Description != "" {
		campaign.Description = &req.Description
	}
	if req.StartDate != "" {
		startDate, err := parseDate(req.StartDate)
		if err != nil {
			writeError(w, "Invalid start_date format", http.StatusBadRequest)
			return
		}
		campaign.StartDate = startDate
	}
	if req.EndDate != "" {
		endDate, err := parseDate(req.EndDate)
		if err != nil {
			writeError(w, "Invalid end_date format", http.StatusBadRequest)
			return
		}
		if endDate.Before(campaign.StartDate) {
			writeError(w, "End date must not precede the start date", http.StatusBadRequest)
			return
		}
		campaign.EndDate = &endDate
	}
	if req.ClientID != "" {
		if _, err := h.storage.GetClientByID(r.Context(), req.ClientID, userID); err != nil {
			writeError(w, "Client not found", http.StatusBadRequest)
			return
		}
		campaign.ClientID = &req.ClientID
	}

	if err := h.storage.UpdateCampaign(r.Context(), campaign); err != nil {
		h.log.Error("failed to update campaign", zap.String("campaign_id", id), zap.Error(err))
		writeError(w, "Failed to update campaign", http.StatusInternalServerError)
		return
	}

	h.log.Info("updated campaign", zap.String("campaign_id", id), zap.String("user_id", userID))
	writeJSON(w, toCampaignResponse(campaign), http.StatusOK)
}

// DeleteCampaign removes a campaign. Links that referenced it are kept
// and detached.
func (h *CampaignsHandler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	id := pathID(r.URL.Path, "/api/campaigns/")
	if id == "" {
		writeError(w, "Campaign ID is required", http.StatusBadRequest)
		return
	}

	if err := h.storage.DeleteCampaign(r.Context(), id, userID); err != nil {
		if err == repository.ErrCampaignNotFound {
			writeError(w, "Campaign not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to delete campaign", zap.String("campaign_id", id), zap.Error(err))
		writeError(w, "Failed to delete campaign", http.StatusInternalServerError)
		return
	}

	h.log.Info("deleted campaign", zap.String("campaign_id", id), zap.String("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

func toCampaignResponse(campaign *domain.Campaign) CampaignResponse {
	resp := CampaignResponse{
		ID:        campaign.ID,
		Name:      campaign.Name,
		StartDate: campaign.StartDate.Format(time.RFC3339),
		CreatedAt: campaign.CreatedAt.Format(time.RFC3339),
	}
	if campaign.Description != nil {
		resp.Description = *campaign.Description
	}
	if campaign.EndDate != nil {
		resp.EndDate = campaign.EndDate.Format(time.RFC3339)
	}
	if campaign.ClientID != nil {
		resp.ClientID = *campaign.ClientID
	}
	if campaign.Client != nil {
		resp.ClientName = campaign.Client.Name
	}
	return resp
}

// parseDate accepts full RFC3339 timestamps and bare YYYY-MM-DD dates.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
