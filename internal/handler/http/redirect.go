package http

import (
	"net"
	"net/http"
	"strings"
	"time"

	"impacto-backend/internal/domain"
	"impacto-backend/internal/repository"
	"impacto-backend/pkg/geoip"
	"impacto-backend/pkg/useragent"

	"go.uber.org/zap"
)

// RedirectHandler resolves short codes and records one click per visit.
type RedirectHandler struct {
	storage     repository.Storage
	geoResolver geoip.Resolver
	log         *zap.Logger
}

// NewRedirectHandler creates a new redirect handler.
func NewRedirectHandler(storage repository.Storage, geoResolver geoip.Resolver, log *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		storage:     storage,
		geoResolver: geoResolver,
		log:         log,
	}
}

// HandleRedirect records a click and redirects to the destination URL.
// The click row is written before the redirect is sent; a failed write
// means no redirect.
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	shortCode := strings.TrimPrefix(r.URL.Path, "/")

	if shortCode == "" || strings.Contains(shortCode, "/") ||
		strings.HasPrefix(shortCode, "api") || shortCode == "health" ||
		strings.HasPrefix(shortCode, "swagger") {
		http.NotFound(w, r)
		return
	}

	link, err := h.storage.GetLinkByShortCode(r.Context(), shortCode)
	if err != nil {
		if err == repository.ErrLinkNotFound {
			h.log.Debug("short code not found", zap.String("short_code", shortCode))
			http.NotFound(w, r)
			return
		}
		h.log.Error("failed to resolve short code", zap.String("short_code", shortCode), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if !link.IsActive || link.IsExpired(time.Now()) {
		h.log.Debug("link inactive or expired",
			zap.String("short_code", shortCode),
			zap.Bool("is_active", link.IsActive))
		http.Error(w, "Link expired or inactive", http.StatusGone)
		return
	}

	userAgent := r.UserAgent()
	info := useragent.Classify(userAgent)

	click := &domain.Click{
		LinkID:    link.ID,
		UserID:    link.UserID,
		UserAgent: userAgent,
		Device:    &info.Device,
		Browser:   &info.Browser,
		OS:        &info.OS,
	}

	if referrer := extractReferrer(r); referrer != "" {
		click.Referrer = &referrer
	}

	if ip := extractIPAddress(r); ip != "" {
		click.IP = &ip
		if country := h.resolveCountry(r, ip); country != "" {
			click.Country = &country
		}
	}

	if err := h.storage.CreateClick(r.Context(), click); err != nil {
		h.log.Error("failed to record click",
			zap.String("short_code", shortCode),
			zap.String("link_id", link.ID),
			zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.log.Info("recorded click",
		zap.String("short_code", shortCode),
		zap.String("link_id", link.ID),
		zap.String("device", info.Device))

	http.Redirect(w, r, link.OriginalURL, http.StatusFound)
}

// resolveCountry looks up the visitor country, best effort. A slow or
// failing lookup never blocks the redirect path for long.
func (h *RedirectHandler) resolveCountry(r *http.Request, ip string) string {
	country, err := h.geoResolver.Country(r.Context(), ip)
	if err != nil {
		h.log.Debug("geoip lookup failed", zap.String("ip", ip), zap.Error(err))
		return ""
	}
	return geoip.Normalize(country)
}

// extractReferrer reads the referrer header, accepting both the standard
// misspelling and the correct one.
func extractReferrer(r *http.Request) string {
	if ref := r.Referer(); ref != "" {
		return ref
	}
	return r.Header.Get("Referrer")
}

// extractIPAddress extracts the client IP, honoring proxy headers.
func extractIPAddress(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		ips := strings.Split(ip, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
