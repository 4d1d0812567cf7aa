package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"impacto-backend/internal/auth"
	"impacto-backend/internal/config"
	"impacto-backend/internal/domain"
	"impacto-backend/internal/repository/memory"
	"impacto-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func authedRequest(method, target, body, userID string, plan domain.Plan) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
	ctx = context.WithValue(ctx, auth.UserPlanKey, plan)
	return req.WithContext(ctx)
}

func newLinksHandler(storage *memory.MemStorage) *LinksHandler {
	shortener := service.NewShortener(storage, &config.ShortCode{
		Length:         6,
		MaxAttempts:    10,
		FallbackLength: 8,
	})
	return NewLinksHandler(storage, shortener, zap.NewNop(), "https://imp.to")
}

func TestLinksHandler_CreateLink(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		storage := memory.New()
		handler := newLinksHandler(storage)

		body := `{"original_url":"https://example.com/bio","title":"Minha bio","link_type":"BIO","tags":["verao","promo"]}`
		req := authedRequest(http.MethodPost, "/api/links", body, "user-1", domain.PlanSolo)
		rec := httptest.NewRecorder()

		handler.CreateLink(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp LinkResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.ShortCode, 6)
		assert.Equal(t, "https://imp.to/"+resp.ShortCode, resp.ShortURL)
		assert.Equal(t, "Minha bio", resp.Title)
		assert.Equal(t, "BIO", resp.LinkType)
		assert.Equal(t, []string{"verao", "promo"}, resp.Tags)
		assert.True(t, resp.IsActive)
	})

	t.Run("custom_code", func(t *testing.T) {
		storage := memory.New()
		handler := newLinksHandler(storage)

		body := `{"original_url":"https://example.com","custom_code":"promo2026"}`
		req := authedRequest(http.MethodPost, "/api/links", body, "user-1", domain.PlanSolo)
		rec := httptest.NewRecorder()

		handler.CreateLink(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp LinkResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "promo2026", resp.ShortCode)
	})

	t.Run("duplicate_custom_code_is_409", func(t *testing.T) {
		storage := memory.New()
		handler := newLinksHandler(storage)

		body := `{"original_url":"https://example.com","custom_code":"taken"}`
		rec := httptest.NewRecorder()
		handler.CreateLink(rec, authedRequest(http.MethodPost, "/api/links", body, "user-1", domain.PlanSolo))
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = httptest.NewRecorder()
		handler.CreateLink(rec, authedRequest(http.MethodPost, "/api/links", body, "user-1", domain.PlanSolo))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("rejects_invalid_url", func(t *testing.T) {
		storage := memory.New()
		handler := newLinksHandler(storage)

		for _, body := range []string{
			`{"original_url":""}`,
			`{"original_url":"notaurl"}`,
			`{"original_url":"ftp://example.com"}`,
		} {
			rec := httptest.NewRecorder()
			handler.CreateLink(rec, authedRequest(http.MethodPost, "/api/links", body, "user-1", domain.PlanSolo))
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
	})

	t.Run("rejects_unknown_link_type", func(t *testing.T) {
		storage := memory.New()
		handler := newLinksHandler(storage)

		body := `{"original_url":"https://example.com","link_type":"BANNER"}`
		rec := httptest.NewRecorder()
		handler.CreateLink(rec, authedRequest(http.MethodPost, "/api/links", body, "user-1", domain.PlanSolo))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLinksHandler_ListLinks_Filters(t *testing.T) {
	storage := memory.New()
	handler := newLinksHandler(storage)
	ctx := context.Background()

	bio := domain.LinkTypeBio
	require.NoError(t, storage.CreateLink(ctx, &domain.Link{
		ID: "l1", ShortCode: "a1", OriginalURL: "https://example.com/1",
		LinkType: bio, Tags: []string{"verao"}, IsActive: true, UserID: "user-1",
	}))
	require.NoError(t, storage.CreateLink(ctx, &domain.Link{
		ID: "l2", ShortCode: "a2", OriginalURL: "https://example.com/2",
		LinkType: domain.LinkTypeStory, IsActive: true, UserID: "user-1",
	}))
	require.NoError(t, storage.CreateLink(ctx, &domain.Link{
		ID: "l3", ShortCode: "a3", OriginalURL: "https://example.com/3",
		LinkType: bio, IsActive: true, UserID: "someone-else",
	}))

	t.Run("by_type", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ListLinks(rec, authedRequest(http.MethodGet, "/api/links?link_type=BIO", "", "user-1", domain.PlanSolo))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp ListLinksResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Links, 1)
		assert.Equal(t, "l1", resp.Links[0].ID)
	})

	t.Run("by_tag", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ListLinks(rec, authedRequest(http.MethodGet, "/api/links?tag=verao", "", "user-1", domain.PlanSolo))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp ListLinksResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Links, 1)
		assert.Equal(t, "l1", resp.Links[0].ID)
	})

	t.Run("invalid_type_is_400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ListLinks(rec, authedRequest(http.MethodGet, "/api/links?link_type=BANNER", "", "user-1", domain.PlanSolo))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLinksHandler_DeleteLink(t *testing.T) {
	storage := memory.New()
	handler := newLinksHandler(storage)
	ctx := context.Background()

	require.NoError(t, storage.CreateLink(ctx, &domain.Link{
		ID: "l1", ShortCode: "a1", OriginalURL: "https://example.com", IsActive: true, UserID: "user-1",
	}))

	t.Run("other_users_link_is_404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.DeleteLink(rec, authedRequest(http.MethodDelete, "/api/links/l1", "", "someone-else", domain.PlanSolo))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.DeleteLink(rec, authedRequest(http.MethodDelete, "/api/links/l1", "", "user-1", domain.PlanSolo))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = httptest.NewRecorder()
		handler.GetLink(rec, authedRequest(http.MethodGet, "/api/links/l1", "", "user-1", domain.PlanSolo))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
