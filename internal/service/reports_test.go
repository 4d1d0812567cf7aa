package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"impacto-backend/internal/domain"
	"impacto-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReportData(t *testing.T, storage *memory.MemStorage) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, storage.CreateUser(ctx, &domain.User{
		ID:           "user-1",
		Email:        "maria@example.com",
		PasswordHash: "x",
		Name:         "Maria Silva",
		Plan:         domain.PlanSolo,
	}))

	client := &domain.Client{ID: "client-1", Name: "Acme Cosméticos", UserID: "user-1"}
	require.NoError(t, storage.CreateClient(ctx, client))

	clientID := "client-1"
	require.NoError(t, storage.CreateLink(ctx, &domain.Link{
		ID:          "link-1",
		ShortCode:   "bio123",
		OriginalURL: "https://example.com/bio",
		Title:       strPtr(`He said "hi", ok`),
		LinkType:    domain.LinkTypeBio,
		IsActive:    true,
		UserID:      "user-1",
		ClientID:    &clientID,
	}))
	require.NoError(t, storage.CreateLink(ctx, &domain.Link{
		ID:          "link-2",
		ShortCode:   "promo1",
		OriginalURL: "https://example.com/promo",
		LinkType:    domain.LinkTypeCampanha,
		IsActive:    false,
		UserID:      "user-1",
	}))

	seedClick(t, storage, "link-1", "user-1", time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC), "mobile", "", "BR")
	seedClick(t, storage, "link-1", "user-1", time.Date(2026, 8, 11, 9, 0, 0, 0, time.UTC), "desktop", "", "BR")
	seedClick(t, storage, "link-2", "user-1", time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC), "mobile", "", "")
}

func reportWindow() (time.Time, time.Time) {
	return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
}

func TestReports_GenerateCSV(t *testing.T) {
	storage := memory.New()
	seedReportData(t, storage)
	reports := NewReports(storage)

	start, end := reportWindow()
	data, err := reports.GenerateCSV(context.Background(), "user-1", domain.PlanSolo, ReportFilters{
		StartDate: &start,
		EndDate:   &end,
	})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"Link", "Título", "Tipo", "Cliente", "Campanha", "Cliques", "URL Original"}, records[0])

	rows := map[string][]string{}
	for _, rec := range records[1:] {
		rows[rec[0]] = rec
	}

	bio := rows["bio123"]
	require.NotNil(t, bio)
	// Embedded quotes and commas survive the round trip.
	assert.Equal(t, `He said "hi", ok`, bio[1])
	assert.Equal(t, "BIO", bio[2])
	assert.Equal(t, "Acme Cosméticos", bio[3])
	assert.Equal(t, "", bio[4])
	assert.Equal(t, "2", bio[5])
	assert.Equal(t, "https://example.com/bio", bio[6])

	promo := rows["promo1"]
	require.NotNil(t, promo)
	assert.Equal(t, "", promo[1])
	assert.Equal(t, "CAMPANHA", promo[2])
	assert.Equal(t, "1", promo[5])
}

func TestReports_GenerateCSV_ClientFilterRequiresAgencyPlan(t *testing.T) {
	storage := memory.New()
	seedReportData(t, storage)
	reports := NewReports(storage)

	clientID := "client-1"
	_, err := reports.GenerateCSV(context.Background(), "user-1", domain.PlanSolo, ReportFilters{
		ClientID: &clientID,
	})
	assert.ErrorIs(t, err, ErrClientFilterForbidden)
}

func TestReports_GeneratePDF(t *testing.T) {
	storage := memory.New()
	seedReportData(t, storage)
	reports := NewReports(storage)

	start, end := reportWindow()
	data, err := reports.GeneratePDF(context.Background(), "user-1", domain.PlanSolo, ReportFilters{
		StartDate: &start,
		EndDate:   &end,
	})
	require.NoError(t, err)

	require.NotEmpty(t, data)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "output does not look like a PDF")
}

func TestRankLinks(t *testing.T) {
	links := []*domain.Link{
		{ID: "a"}, {ID: "b"}, {ID: "c"},
	}
	byLink := map[string]int64{"a": 1, "b": 5, "c": 3}

	ranked := rankLinks(links, byLink)
	require.Len(t, ranked, 3)
	assert.Equal(t, "b", ranked[0].ID)
	assert.Equal(t, "c", ranked[1].ID)
	assert.Equal(t, "a", ranked[2].ID)
}

func TestReportTitle(t *testing.T) {
	titled := &domain.Link{Title: strPtr("Minha bio"), OriginalURL: "https://example.com"}
	assert.Equal(t, "Minha bio", reportTitle(titled))

	longURL := "https://example.com/" + string(bytes.Repeat([]byte("x"), 60))
	untitled := &domain.Link{OriginalURL: longURL}
	assert.Len(t, reportTitle(untitled), 50)
}
