package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"impacto-backend/internal/domain"
	"impacto-backend/internal/repository/memory"
	"impacto-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAnalyticsHandler(storage *memory.MemStorage) *AnalyticsHandler {
	return NewAnalyticsHandler(service.NewAnalytics(storage), zap.NewNop())
}

func TestAnalyticsHandler_Dashboard(t *testing.T) {
	t.Run("malformed_date_is_400", func(t *testing.T) {
		handler := newAnalyticsHandler(memory.New())

		rec := httptest.NewRecorder()
		req := authedRequest(http.MethodGet, "/api/analytics/dashboard?start_date=31-08-2026", "", "user-1", domain.PlanSolo)
		handler.Dashboard(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("client_filter_needs_agency_plan", func(t *testing.T) {
		handler := newAnalyticsHandler(memory.New())

		rec := httptest.NewRecorder()
		req := authedRequest(http.MethodGet, "/api/analytics/dashboard?client_id=c1", "", "user-1", domain.PlanSolo)
		handler.Dashboard(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("agency_plan_may_filter_by_client", func(t *testing.T) {
		handler := newAnalyticsHandler(memory.New())

		rec := httptest.NewRecorder()
		req := authedRequest(http.MethodGet, "/api/analytics/dashboard?client_id=c1", "", "user-1", domain.PlanAgency)
		handler.Dashboard(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var payload service.DashboardPayload
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, int64(0), payload.Overview.TotalClicks)
	})

	t.Run("unknown_link_filter_is_404", func(t *testing.T) {
		handler := newAnalyticsHandler(memory.New())

		rec := httptest.NewRecorder()
		req := authedRequest(http.MethodGet, "/api/analytics/dashboard?link_id=missing", "", "user-1", domain.PlanSolo)
		handler.Dashboard(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAnalyticsHandler_LinkAnalytics(t *testing.T) {
	t.Run("unknown_link_is_404", func(t *testing.T) {
		handler := newAnalyticsHandler(memory.New())

		rec := httptest.NewRecorder()
		req := authedRequest(http.MethodGet, "/api/analytics/links/missing", "", "user-1", domain.PlanSolo)
		handler.LinkAnalytics(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		storage := memory.New()
		require.NoError(t, storage.CreateLink(context.Background(), &domain.Link{
			ID: "l1", ShortCode: "a1", OriginalURL: "https://example.com", IsActive: true, UserID: "user-1",
		}))
		handler := newAnalyticsHandler(storage)

		rec := httptest.NewRecorder()
		req := authedRequest(http.MethodGet, "/api/analytics/links/l1", "", "user-1", domain.PlanSolo)
		handler.LinkAnalytics(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var payload service.LinkAnalyticsPayload
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "a1", payload.Link.ShortCode)
		assert.Equal(t, 0, payload.TotalClicks)
	})
}
