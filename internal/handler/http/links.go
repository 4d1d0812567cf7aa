package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"impacto-backend/internal/auth"
	"impacto-backend/internal/domain"
	"impacto-backend/internal/repository"
	"impacto-backend/internal/service"

	"go.uber.org/zap"
)

// LinksHandler serves link CRUD endpoints.
type LinksHandler struct {
	storage   repository.Storage
	shortener *service.Shortener
	log       *zap.Logger
	baseURL   string
}

// NewLinksHandler creates a new links handler.
func NewLinksHandler(storage repository.Storage, shortener *service.Shortener, log *zap.Logger, baseURL string) *LinksHandler {
	return &LinksHandler{
		storage:   storage,
		shortener: shortener,
		log:       log,
		baseURL:   baseURL,
	}
}

// CreateLinkRequest is the link creation payload.
type CreateLinkRequest struct {
	OriginalURL string   `json:"original_url"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	LinkType    string   `json:"link_type,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	CustomCode  string   `json:"custom_code,omitempty"`
	ExpiresAt   string   `json:"expires_at,omitempty"`
	ClientID    string   `json:"client_id,omitempty"`
	CampaignID  string   `json:"campaign_id,omitempty"`
}

// UpdateLinkRequest is the link update payload. Nil fields are left
// unchanged.
type UpdateLinkRequest struct {
	OriginalURL *string   `json:"original_url,omitempty"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	LinkType    *string   `json:"link_type,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	IsActive    *bool     `json:"is_active,omitempty"`
	ExpiresAt   *string   `json:"expires_at,omitempty"`
	ClientID    *string   `json:"client_id,omitempty"`
	CampaignID  *string   `json:"campaign_id,omitempty"`
}

// LinkResponse is a link as returned by the API.
type LinkResponse struct {
	ID          string   `json:"id"`
	ShortCode   string   `json:"short_code"`
	ShortURL    string   `json:"short_url"`
	OriginalURL string   `json:"original_url"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	LinkType    string   `json:"link_type"`
	Tags        []string `json:"tags"`
	IsActive    bool     `json:"is_active"`
	ExpiresAt   string   `json:"expires_at,omitempty"`
	ClientID    string   `json:"client_id,omitempty"`
	ClientName  string   `json:"client_name,omitempty"`
	CampaignID  string   `json:"campaign_id,omitempty"`
	Campaign    string   `json:"campaign_name,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

// ListLinksResponse wraps a link listing.
type ListLinksResponse struct {
	Links []LinkResponse `json:"links"`
}

// CreateLink creates a new short link
//
//	@Summary		Create a short link
//	@Description	Create a new trackable short link
//	@Tags			Links
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateLinkRequest	true	"Link creation request"
//	@Success		201		{object}	LinkResponse		"Link created"
//	@Failure		400		{object}	ErrorResponse		"Invalid request data"
//	@Failure		401		{object}	ErrorResponse		"Authentication required"
//	@Failure		409		{object}	ErrorResponse		"Short code already exists"
//	@Router			/api/links [post]
func (h *LinksHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid create link request", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if !isValidURL(req.OriginalURL) {
		writeError(w, "A valid original URL is required", http.StatusBadRequest)
		return
	}

	linkType := domain.LinkTypeOther
	if req.LinkType != "" {
		linkType = domain.LinkType(req.LinkType)
		if !linkType.IsValid() {
			writeError(w, "Invalid link type", http.StatusBadRequest)
			return
		}
	}

	link := &domain.Link{
		OriginalURL: req.OriginalURL,
		LinkType:    linkType,
		Tags:        req.Tags,
		IsActive:    true,
		UserID:      userID,
	}
	if req.Title != "" {
		link.Title = &req.Title
	}
	if req.Description != "" {
		link.Description = &req.Description
	}

	if req.ExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			writeError(w, "Invalid expires_at format. Use RFC3339 format", http.StatusBadRequest)
			return
		}
		link.ExpiresAt = &expiresAt
	}

	if req.ClientID != "" {
		if _, err := h.storage.GetClientByID(r.Context(), req.ClientID, userID); err != nil {
			writeError(w, "Client not found", http.StatusBadRequest)
			return
		}
		link.ClientID = &req.ClientID
	}
	if req.CampaignID != "" {
		if _, err := h.storage.GetCampaignByID(r.Context(), req.CampaignID, userID); err != nil {
			writeError(w, "Campaign not found", http.StatusBadRequest)
			return
		}
		link.CampaignID = &req.CampaignID
	}

	var customCode *string
	if req.CustomCode != "" {
		customCode = &req.CustomCode
	}

	shortCode, err := h.shortener.Shorten(r.Context(), link, customCode)
	if err != nil {
		if err == repository.ErrShortCodeExists {
			writeError(w, "Short code already exists", http.StatusConflict)
			return
		}
		h.log.Error("failed to create link", zap.String("user_id", userID), zap.Error(err))
		writeError(w, "Failed to create link", http.StatusInternalServerError)
		return
	}

	h.log.Info("created link", zap.String("short_code", shortCode), zap.String("user_id", userID))
	writeJSON(w, h.toLinkResponse(link), http.StatusCreated)
}

// ListLinks lists the user's links, optionally filtered by type, tag,
// client or campaign.
func (h *LinksHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	filter := repository.LinkFilter{}
	q := r.URL.Query()

	if v := q.Get("link_type"); v != "" {
		linkType := domain.LinkType(v)
		if !linkType.IsValid() {
			writeError(w, "Invalid link type", http.StatusBadRequest)
			return
		}
		filter.LinkType = &linkType
	}
	if v := q.Get("tag"); v != "" {
		filter.Tag = &v
	}
	if v := q.Get("client_id"); v != "" {
		filter.ClientID = &v
	}
	if v := q.Get("campaign_id"); v != "" {
		filter.CampaignID = &v
	}

	links, err := h.storage.ListLinks(r.Context(), userID, filter)
	if err != nil {
		h.log.Error("failed to list links", zap.String("user_id", userID), zap.Error(err))
		writeError(w, "Failed to retrieve links", http.StatusInternalServerError)
		return
	}

	response := ListLinksResponse{Links: make([]LinkResponse, len(links))}
	for i, link := range links {
		response.Links[i] = h.toLinkResponse(link)
	}

	writeJSON(w, response, http.StatusOK)
}

// GetLink returns one link by ID.
func (h *LinksHandler) GetLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	id := pathID(r.URL.Path, "/api/links/")
	if id == "" {
		writeError(w, "Link ID is required", http.StatusBadRequest)
		return
	}

	link, err := h.storage.GetLinkByID(r.Context(), id, userID)
	if err != nil {
		if err == repository.ErrLinkNotFound {
			writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to get link", zap.String("link_id", id), zap.Error(err))
		writeError(w, "Failed to retrieve link", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.toLinkResponse(link), http.StatusOK)
}

// UpdateLink applies a partial update to a link.
func (h *LinksHandler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	id := pathID(r.URL.Path, "/api/links/")
	if id == "" {
		writeError(w, "Link ID is required", http.StatusBadRequest)
		return
	}

	var req UpdateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid update link request", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	link, err := h.storage.GetLinkByID(r.Context(), id, userID)
	if err != nil {
		if err == repository.ErrLinkNotFound {
			writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to get link for update", zap.String("link_id", id), zap.Error(err))
		writeError(w, "Failed to retrieve link", http.StatusInternalServerError)
		return
	}

	if req.OriginalURL != nil {
		if !isValidURL(*req.OriginalURL) {
			writeError(w, "A valid original URL is required", http.StatusBadRequest)
			return
		}
		link.OriginalURL = *req.OriginalURL
	}
	if req.Title != nil {
		if *req.Title == "" {
			link.Title = nil
		} else {
			link.Title = req.Title
		}
	}
	if req.Description != nil {
		if *req.Description == "" {
			link.Description = nil
		} else {
			link.Description = req.Description
		}
	}
	if req.LinkType != nil {
		linkType := domain.LinkType(*req.LinkType)
		if !linkType.IsValid() {
			writeError(w, "Invalid link type", http.StatusBadRequest)
			return
		}
		link.LinkType = linkType
	}
	if req.Tags != nil {
		link.Tags = *req.Tags
	}
	if req.IsActive != nil {
		link.IsActive = *req.IsActive
	}
	if req.ExpiresAt != nil {
		if *req.ExpiresAt == "" {
			link.ExpiresAt = nil
		} else {
			expiresAt, err := time.Parse(time.RFC3339, *req.ExpiresAt)
			if err != nil {
				writeError(w, "Invalid expires_at format. Use RFC3339 format", http.StatusBadRequest)
				return
			}
			link.ExpiresAt = &expiresAt
		}
	}
	if req.ClientID != nil {
		if *req.ClientID == "" {
			link.ClientID = nil
		} else {
			if _, err := h.storage.GetClientByID(r.Context(), *req.ClientID, userID); err != nil {
				writeError(w, "Client not found", http.StatusBadRequest)
				return
			}
			link.ClientID = req.ClientID
		}
	}
	if req.CampaignID != nil {
		if *req.CampaignID == "" {
			link.CampaignID = nil
		} else {
			if _, err := h.storage.GetCampaignByID(r.Context(), *req.CampaignID, userID); err != nil {
				writeError(w, "Campaign not found", http.StatusBadRequest)
				return
			}
			link.CampaignID = req.CampaignID
		}
	}

	if err := h.storage.UpdateLink(r.Context(), link); err != nil {
		h.log.Error("failed to update link", zap.String("link_id", id), zap.Error(err))
		writeError(w, "Failed to update link", http.StatusInternalServerError)
		return
	}

	h.log.Info("updated link", zap.String("link_id", id), zap.String("user_id", userID))
	writeJSON(w, h.toLinkResponse(link), http.StatusOK)
}

// DeleteLink deletes a link
//
//	@Summary		Delete a link
//	@Description	Delete a link and its click history
//	@Tags			Links
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Link ID"
//	@Success		204	"Link deleted"
//	@Failure		401	{object}	ErrorResponse	"Authentication required"
//	@Failure		404	{object}	ErrorResponse	"Link not found"
//	@Router			/api/links/{id} [delete]
func (h *LinksHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	id := pathID(r.URL.Path, "/api/links/")
	if id == "" {
		writeError(w, "Link ID is required", http.StatusBadRequest)
		return
	}

	if err := h.storage.DeleteLink(r.Context(), id, userID); err != nil {
		if err == repository.ErrLinkNotFound {
			writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to delete link", zap.String("link_id", id), zap.Error(err))
		writeError(w, "Failed to delete link", http.StatusInternalServerError)
		return
	}

	h.log.Info("deleted link", zap.String("link_id", id), zap.String("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *LinksHandler) toLinkResponse(link *domain.Link) LinkResponse {
	resp := LinkResponse{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		ShortURL:    h.baseURL + "/" + link.ShortCode,
		OriginalURL: link.OriginalURL,
		LinkType:    string(link.LinkType),
		Tags:        link.Tags,
		IsActive:    link.IsActive,
		CreatedAt:   link.CreatedAt.Format(time.RFC3339),
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if link.Title != nil {
		resp.Title = *link.Title
	}
	if link.Description != nil {
		resp.Description = *link.Description
	}
	if link.ExpiresAt != nil {
		resp.ExpiresAt = link.ExpiresAt.Format(time.RFC3339)
	}
	if link.ClientID != nil {
		resp.ClientID = *link.ClientID
	}
	if link.Client != nil {
		resp.ClientName = link.Client.Name
	}
	if link.CampaignID != nil {
		resp.CampaignID = *link.CampaignID
	}
	if link.Campaign != nil {
		resp.Campaign = link.Campaign.Name
	}
	return resp
}

// isValidURL accepts absolute http and https URLs only.
func isValidURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
