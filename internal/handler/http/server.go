package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"impacto-backend/internal/auth"
	"impacto-backend/internal/repository"
	"impacto-backend/internal/service"
	"impacto-backend/pkg/geoip"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server wires HTTP handlers onto routes.
type Server struct {
	authHandlers     *auth.AuthHandlers
	linksHandler     *LinksHandler
	clientsHandler   *ClientsHandler
	campaignsHandler *CampaignsHandler
	analyticsHandler *AnalyticsHandler
	reportsHandler   *ReportsHandler
	redirectHandler  *RedirectHandler
	healthHandler    *HealthHandler
	authMiddleware   *auth.Middleware
	log              *zap.Logger
}

// NewServer creates the HTTP server and all its handlers.
func NewServer(
	db *gorm.DB,
	storage repository.Storage,
	shortener *service.Shortener,
	analytics *service.Analytics,
	reports *service.Reports,
	geoResolver geoip.Resolver,
	jwtService *auth.JWTService,
	passwordService *auth.PasswordService,
	log *zap.Logger,
	baseURL string,
	corsOrigin string,
) *Server {
	return &Server{
		authHandlers:     auth.NewAuthHandlers(storage, jwtService, passwordService, log),
		linksHandler:     NewLinksHandler(storage, shortener, log, baseURL),
		clientsHandler:   NewClientsHandler(storage, log),
		campaignsHandler: NewCampaignsHandler(storage, log),
		analyticsHandler: NewAnalyticsHandler(analytics, log),
		reportsHandler:   NewReportsHandler(reports, log),
		redirectHandler:  NewRedirectHandler(storage, geoResolver, log),
		healthHandler:    NewHealthHandler(db, log),
		authMiddleware:   auth.NewMiddleware(jwtService, corsOrigin, log),
		log:              log,
	}
}

// SetupRoutes registers all routes.
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Health check (no auth)
	mux.HandleFunc("/health", s.healthHandler.Health)

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Auth endpoints (no auth)
	mux.HandleFunc("/api/auth/register", s.withCORS(s.authHandlers.Register))
	mux.HandleFunc("/api/auth/login", s.withCORS(s.authHandlers.Login))
	mux.HandleFunc("/api/auth/me", s.withCORS(s.authMiddleware.RequireAuth(s.authHandlers.Me)))

	// Link endpoints
	mux.HandleFunc("/api/links", s.withCORS(s.authMiddleware.RequireAuth(s.handleLinksCollection)))
	mux.HandleFunc("/api/links/", s.withCORS(s.authMiddleware.RequireAuth(s.handleLinksItem)))

	// Client endpoints
	mux.HandleFunc("/api/clients", s.withCORS(s.authMiddleware.RequireAuth(s.handleClientsCollection)))
	mux.HandleFunc("/api/clients/", s.withCORS(s.authMiddleware.RequireAuth(s.handleClientsItem)))

	// Campaign endpoints
	mux.HandleFunc("/api/campaigns", s.withCORS(s.authMiddleware.RequireAuth(s.handleCampaignsCollection)))
	mux.HandleFunc("/api/campaigns/", s.withCORS(s.authMiddleware.RequireAuth(s.handleCampaignsItem)))

	// Analytics endpoints
	mux.HandleFunc("/api/analytics/dashboard", s.withCORS(s.authMiddleware.RequireAuth(s.analyticsHandler.Dashboard)))
	mux.HandleFunc("/api/analytics/links/", s.withCORS(s.authMiddleware.RequireAuth(s.analyticsHandler.LinkAnalytics)))

	// Report downloads
	mux.HandleFunc("/api/reports/pdf", s.withCORS(s.authMiddleware.RequireAuth(s.reportsHandler.DownloadPDF)))
	mux.HandleFunc("/api/reports/csv", s.withCORS(s.authMiddleware.RequireAuth(s.reportsHandler.DownloadCSV)))

	// Redirect endpoint (no auth), must be registered last
	mux.HandleFunc("/", s.redirectHandler.HandleRedirect)

	return mux
}

func (s *Server) handleLinksCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.linksHandler.ListLinks(w, r)
	case http.MethodPost:
		s.linksHandler.CreateLink(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLinksItem(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.linksHandler.GetLink(w, r)
	case http.MethodPut:
		s.linksHandler.UpdateLink(w, r)
	case http.MethodDelete:
		s.linksHandler.DeleteLink(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleClientsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.clientsHandler.ListClients(w, r)
	case http.MethodPost:
		s.clientsHandler.CreateClient(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleClientsItem(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.clientsHandler.GetClient(w, r)
	case http.MethodPut:
		s.clientsHandler.UpdateClient(w, r)
	case http.MethodDelete:
		s.clientsHandler.DeleteClient(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCampaignsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.campaignsHandler.ListCampaigns(w, r)
	case http.MethodPost:
		s.campaignsHandler.CreateCampaign(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCampaignsItem(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.campaignsHandler.GetCampaign(w, r)
	case http.MethodPut:
		s.campaignsHandler.UpdateCampaign(w, r)
	case http.MethodDelete:
		s.campaignsHandler.DeleteCampaign(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// withCORS adds CORS headers to a handler.
func (s *Server) withCORS(handler http.HandlerFunc) http.HandlerFunc {
	return s.authMiddleware.CORS(handler)
}

// pathID extracts the resource ID from paths like /api/links/{id}.
func pathID(path, prefix string) string {
	id := strings.TrimPrefix(path, prefix)
	return strings.Trim(id, "/")
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, payload interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
