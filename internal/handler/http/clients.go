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

// ClientsHandler serves client CRUD endpoints.
type ClientsHandler struct {
	storage repository.Storage
	log     *zap.Logger
}

// NewClientsHandler creates a new clients handler.
func NewClientsHandler(storage repository.Storage, log *zap.Logger) *ClientsHandler {
	return &ClientsHandler{
		storage: storage,
		log:     log,
	}
}

// ClientRequest is the client create and update payload.
type ClientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ClientResponse is a client as returned by the API.
type ClientResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ClientStatsResponse is a client with its aggregate numbers.
type ClientStatsResponse struct {
	ClientResponse
	LinkCount     int   `json:"link_count"`
	CampaignCount int   `json:"campaign_count"`
	TotalClicks   int64 `json:"total_clicks"`
}

// ListClientsResponse wraps a client listing.
type ListClientsResponse struct {
	Clients []ClientResponse `json:"clients"`
}

// CreateClient registers a new client for the user.
func (h *ClientsHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid create client request", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		writeError(w, "Name is required", http.StatusBadRequest)
		return
	}

	client := &domain.Client{
		Name:   req.Name,
		UserID: userID,
	}
	if req.Email != "" {
		client.Email = &req.Email
	}

	if err := h.storage.CreateClient(r.Context(), client); err != nil {
		h.log.Error("failed to create client", zap.String("user_id", userID), zap.Error(err))
		writeError(w, "Failed to create client", http.StatusInternalServerError)
		return
	}

	h.log.Info("created client", zap.String("client_id", client.ID), zap.String("user_id", userID))
	writeJSON(w, toClientResponse(client), http.StatusCreated)
}

// ListClients lists the user's clients.
func (h *ClientsHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	clients, err := h.storage.ListClients(r.Context(), userID)
	if err != nil {
		h.log.Error("failed to list clients", zap.String("user_id", userID), zap.Error(err))
		writeError(w, "Failed to retrieve clients", http.StatusInternalServerError)
		return
	}

	response := ListClientsResponse{Clients: make([]ClientResponse, len(clients))}
	for i, client := range clients {
		response.Clients[i] = toClientResponse(client)
	}

	writeJSON(w, response, http.StatusOK)
}

// GetClient returns one client with its link, campaign and click totals.
func (h *ClientsHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	id := pathID(r.URL.Path, "/api/clients/")
	if id == "" {
		writeError(w, "Client ID is required", http.StatusBadRequest)
		return
	}

	client, err := h.storage.GetClientByID(r.Context(), id, userID)
	if err != nil {
		if err == repository.ErrClientNotFound {
			writeError(w, "Client not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to get client", zap.String("client_id", id), zap.Error(err))
		writeError(w, "Failed to retrieve client", http.StatusInternalServerError)
		return
	}

	links, err := h.storage.ListLinks(r.Context(), userID, repository.LinkFilter{ClientID: &id})
	if err != nil {
		h.log.Error("failed to list client links", zap.String("client_id", id), zap.Error(err))
		writeError(w, "Failed to retrieve client", http.StatusInternalServerError)
		return
	}

	campaigns, err := h.storage.ListCampaigns(r.Context(), userID)
	if err != nil {
		h.log.Error("failed to list client campaigns", zap.String("client_id", id), zap.Error(err))
		writeError(w, "Failed to retrieve client", http.StatusInternalServerError)
		return
	}
	campaignCount := 0
	for _, campaign := range campaigns {
		if campaign.ClientID != nil && *campaign.ClientID == id {
			campaignCount++
		}
	}

	totalClicks, err := h.storage.CountClicks(r.Context(), repository.ClickFilter{
		UserID:   userID,
		LinkIDs:  linkIDsOf(links),
		Restrict: true,
		From:     time.Time{},
		To:       time.Now(),
	})
	if err != nil {
		h.log.Error("failed to count client clicks", zap.String("client_id", id), zap.Error(err))
		writeError(w, "Failed to retrieve client", http.StatusInternalServerError)
		return
	}

	response := ClientStatsResponse{
		ClientResponse: toClientResponse(client),
		LinkCount:      len(links),
		CampaignCount:  campaignCount,
		TotalClicks:    totalClicks,
	}

	writeJSON(w, response, http.StatusOK)
}

// UpdateClient renames a client or changes its contact email.
func (h *ClientsHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	id := pathID(r.URL.Path, "/api/clients/")
	if id == "" {
		writeError(w, "Client ID is required", http.StatusBadRequest)
		return
	}

	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid update client request", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	client, err := h.storage.GetClientByID(r.Context(), id, userID)
	if err != nil {
		if err == repository.ErrClientNotFound {
			writeError(w, "Client not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to get client for update", zap.String("client_id", id), zap.Error(err))
		writeError(w, "Failed to retrieve client", http.StatusInternalServerError)
		return
	}

	if req.Name != "" {
		client.Name = req.Name
	}
	if req.Email != "" {
		client.Email = &req.Email
	}

	if err := h.storage.UpdateClient(r.Context(), client); err != nil {
		h.log.Error("failed to update client", zap.String("client_id", id), zap.Error(err))
		writeError(w, "Failed to update client", http.StatusInternalServerError)
		return
	}

	h.log.Info("updated client", zap.String("client_id", id), zap.String("user_id", userID))
	writeJSON(w, toClientResponse(client), http.StatusOK)
}

// DeleteClient removes a client. Links that referenced it are kept and
// detached.
func (h *ClientsHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	id := pathID(r.URL.Path, "/api/clients/")
	if id == "" {
		writeError(w, "Client ID is required", http.StatusBadRequest)
		return
	}

	if err := h.storage.DeleteClient(r.Context(), id, userID); err != nil {
		if err == repository.ErrClientNotFound {
			writeError(w, "Client not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to delete client", zap.String("client_id", id), zap.Error(err))
		writeError(w, "Failed to delete client", http.StatusInternalServerError)
		return
	}

	h.log.Info("deleted client", zap.String("client_id", id), zap.String("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

func toClientResponse(client *domain.Client) ClientResponse {
	resp := ClientResponse{
		ID:        client.ID,
		Name:      client.Name,
		CreatedAt: client.CreatedAt.Format(time.RFC3339),
	}
	if client.Email != nil {
		resp.Email = *client.Email
	}
	return resp
}

func linkIDsOf(links []*domain.Link) []string {
	ids := make([]string, len(links))
	for i, link := range links {
		ids[i] = link.ID
	}
	return ids
}
