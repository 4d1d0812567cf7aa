package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"impacto-backend/internal/domain"
	"impacto-backend/internal/repository"

	"github.com/jung-kurt/gofpdf"
)

// ReportFilters narrows a report to a date window and optional client or
// campaign, mirroring the dashboard filters.
type ReportFilters struct {
	StartDate  *time.Time
	EndDate    *time.Time
	ClientID   *string
	CampaignID *string
}

// Reports renders link performance data as downloadable documents. Each
// renderer re-queries independently; no snapshot is shared with the
// dashboard.
type Reports struct {
	storage repository.Storage
}

// NewReports creates a new report service.
func NewReports(storage repository.Storage) *Reports {
	return &Reports{
		storage: storage,
	}
}

// GeneratePDF renders the impact report as a single-column PDF: title,
// period, generator identity, summary block and the top 10 links.
func (r *Reports) GeneratePDF(ctx context.Context, userID string, plan domain.Plan, filters ReportFilters) ([]byte, error) {
	links, byLink, start, end, err := r.loadData(ctx, userID, plan, filters)
	if err != nil {
		return nil, err
	}

	user, err := r.storage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load report user: %w", err)
	}

	var totalClicks int64
	activeLinks := 0
	for _, link := range links {
		totalClicks += byLink[link.ID]
		if link.IsActive {
			activeLinks++
		}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, tr("Relatório de Impacto"), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 12)
	period := fmt.Sprintf("Período: %s - %s", start.Format("02/01/2006"), end.Format("02/01/2006"))
	pdf.CellFormat(0, 8, tr(period), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr("Gerado por: "+user.Name), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "U", 16)
	pdf.CellFormat(0, 10, "Resumo", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 7, fmt.Sprintf("Total de Links: %d", len(links)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Total de Cliques: %d", totalClicks), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Links Ativos: %d", activeLinks), "", 1, "L", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "U", 16)
	pdf.CellFormat(0, 10, "Top 10 Links", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	for i, link := range rankLinks(links, byLink) {
		line := fmt.Sprintf("%d. %s - %d cliques (%s)", i+1, reportTitle(link), byLink[link.ID], link.LinkType)
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
		pdf.Ln(1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	return buf.Bytes(), nil
}

// GenerateCSV renders one row per matching link with its in-window click
// count. Free-text fields are escaped by the csv writer.
func (r *Reports) GenerateCSV(ctx context.Context, userID string, plan domain.Plan, filters ReportFilters) ([]byte, error) {
	links, byLink, _, _, err := r.loadData(ctx, userID, plan, filters)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Link", "Título", "Tipo", "Cliente", "Campanha", "Cliques", "URL Original"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, link := range links {
		title := ""
		if link.Title != nil {
			title = *link.Title
		}
		clientName := ""
		if link.Client != nil {
			clientName = link.Client.Name
		}
		campaignName := ""
		if link.Campaign != nil {
			campaignName = link.Campaign.Name
		}

		row := []string{
			link.ShortCode,
			title,
			string(link.LinkType),
			clientName,
			campaignName,
			strconv.FormatInt(byLink[link.ID], 10),
			link.OriginalURL,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return buf.Bytes(), nil
}

// loadData resolves the window and link set shared by both renderers.
func (r *Reports) loadData(ctx context.Context, userID string, plan domain.Plan, filters ReportFilters) ([]*domain.Link, map[string]int64, time.Time, time.Time, error) {
	if filters.ClientID != nil && plan != domain.PlanAgency {
		return nil, nil, time.Time{}, time.Time{}, ErrClientFilterForbidden
	}

	start, end := resolveWindow(filters.StartDate, filters.EndDate)

	links, err := r.storage.ListLinks(ctx, userID, repository.LinkFilter{
		ClientID:   filters.ClientID,
		CampaignID: filters.CampaignID,
	})
	if err != nil {
		return nil, nil, time.Time{}, time.Time{}, fmt.Errorf("failed to list report links: %w", err)
	}

	clickFilter := repository.ClickFilter{
		UserID:   userID,
		From:     start,
		To:       end,
		Restrict: filters.ClientID != nil || filters.CampaignID != nil,
	}
	if clickFilter.Restrict {
		clickFilter.LinkIDs = linkIDs(links)
	}

	byLink, err := r.storage.CountClicksByLink(ctx, clickFilter)
	if err != nil {
		return nil, nil, time.Time{}, time.Time{}, fmt.Errorf("failed to count report clicks: %w", err)
	}

	return links, byLink, start, end, nil
}

// rankLinks orders links by in-window click count, top 10.
func rankLinks(links []*domain.Link, byLink map[string]int64) []*domain.Link {
	ranked := make([]*domain.Link, len(links))
	copy(ranked, links)

	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && byLink[ranked[j].ID] > byLink[ranked[j-1].ID]; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// reportTitle is the PDF display title: the link title, or the
// destination URL truncated to 50 characters.
func reportTitle(link *domain.Link) string {
	if link.Title != nil && *link.Title != "" {
		return *link.Title
	}
	url := link.OriginalURL
	if len(url) > 50 {
		url = url[:50]
	}
	return url
}
