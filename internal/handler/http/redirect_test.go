package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"impacto-backend/internal/domain"
	"impacto-backend/internal/repository"
	"impacto-backend/internal/repository/memory"
	"impacto-backend/pkg/geoip"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func clicksOf(t *testing.T, storage *memory.MemStorage, userID string) []*domain.Click {
	t.Helper()
	clicks, err := storage.ListClicks(context.Background(), repository.ClickFilter{
		UserID: userID,
		To:     time.Now().Add(time.Hour),
	}, 0)
	require.NoError(t, err)
	return clicks
}

func TestRedirectHandler_HandleRedirect(t *testing.T) {
	newHandler := func(storage *memory.MemStorage) *RedirectHandler {
		return NewRedirectHandler(storage, geoip.Disabled{}, zap.NewNop())
	}

	t.Run("records_click_and_redirects", func(t *testing.T) {
		storage := memory.New()
		require.NoError(t, storage.CreateLink(context.Background(), &domain.Link{
			ID:          "link-1",
			ShortCode:   "abc123",
			OriginalURL: "https://example.com/destino?utm=bio",
			IsActive:    true,
			UserID:      "user-1",
		}))

		req := httptest.NewRequest(http.MethodGet, "/abc123", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 13) Chrome/120.0 Mobile Safari/537.36")
		req.Header.Set("Referer", "https://instagram.com")
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		rec := httptest.NewRecorder()

		newHandler(storage).HandleRedirect(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://example.com/destino?utm=bio", rec.Header().Get("Location"))

		clicks := clicksOf(t, storage, "user-1")
		require.Len(t, clicks, 1)
		click := clicks[0]
		assert.Equal(t, "link-1", click.LinkID)
		assert.Equal(t, "mobile", *click.Device)
		assert.Equal(t, "Chrome", *click.Browser)
		assert.Equal(t, "Linux", *click.OS)
		assert.Equal(t, "https://instagram.com", *click.Referrer)
		assert.Equal(t, "203.0.113.7", *click.IP)
	})

	t.Run("unknown_code_is_404", func(t *testing.T) {
		storage := memory.New()
		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		rec := httptest.NewRecorder()

		newHandler(storage).HandleRedirect(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("inactive_link_is_410_and_no_click", func(t *testing.T) {
		storage := memory.New()
		require.NoError(t, storage.CreateLink(context.Background(), &domain.Link{
			ID:          "link-1",
			ShortCode:   "off123",
			OriginalURL: "https://example.com",
			IsActive:    false,
			UserID:      "user-1",
		}))

		req := httptest.NewRequest(http.MethodGet, "/off123", nil)
		rec := httptest.NewRecorder()

		newHandler(storage).HandleRedirect(rec, req)

		assert.Equal(t, http.StatusGone, rec.Code)
		assert.Empty(t, clicksOf(t, storage, "user-1"))
	})

	t.Run("expired_link_is_410_and_no_click", func(t *testing.T) {
		storage := memory.New()
		expired := time.Now().Add(-time.Hour)
		require.NoError(t, storage.CreateLink(context.Background(), &domain.Link{
			ID:          "link-1",
			ShortCode:   "old123",
			OriginalURL: "https://example.com",
			IsActive:    true,
			ExpiresAt:   &expired,
			UserID:      "user-1",
		}))

		req := httptest.NewRequest(http.MethodGet, "/old123", nil)
		rec := httptest.NewRecorder()

		newHandler(storage).HandleRedirect(rec, req)

		assert.Equal(t, http.StatusGone, rec.Code)
		assert.Empty(t, clicksOf(t, storage, "user-1"))
	})

	t.Run("failed_click_write_means_no_redirect", func(t *testing.T) {
		storage := &failingClickStorage{MemStorage: memory.New()}
		require.NoError(t, storage.CreateLink(context.Background(), &domain.Link{
			ID:          "link-1",
			ShortCode:   "abc123",
			OriginalURL: "https://example.com",
			IsActive:    true,
			UserID:      "user-1",
		}))

		req := httptest.NewRequest(http.MethodGet, "/abc123", nil)
		rec := httptest.NewRecorder()

		NewRedirectHandler(storage, geoip.Disabled{}, zap.NewNop()).HandleRedirect(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Empty(t, rec.Header().Get("Location"))
	})

	t.Run("system_paths_are_not_short_codes", func(t *testing.T) {
		storage := memory.New()
		for _, path := range []string{"/", "/health", "/api/links"} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()

			newHandler(storage).HandleRedirect(rec, req)

			assert.Equal(t, http.StatusNotFound, rec.Code, "path %s", path)
		}
	})
}

type failingClickStorage struct {
	*memory.MemStorage
}

func (s *failingClickStorage) CreateClick(_ context.Context, _ *domain.Click) error {
	return assert.AnError
}
