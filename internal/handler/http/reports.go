package http

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"impacto-backend/internal/auth"
	"impacto-backend/internal/service"

	"go.uber.org/zap"
)

// ReportsHandler serves PDF and CSV report downloads.
type ReportsHandler struct {
	reports *service.Reports
	log     *zap.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(reports *service.Reports, log *zap.Logger) *ReportsHandler {
	return &ReportsHandler{
		reports: reports,
		log:     log,
	}
}

// DownloadPDF streams the impact report as a PDF attachment.
func (h *ReportsHandler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, "pdf")
}

// DownloadCSV streams the impact report as a CSV attachment.
func (h *ReportsHandler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, "csv")
}

func (h *ReportsHandler) download(w http.ResponseWriter, r *http.Request, format string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}
	plan, ok := auth.GetUserPlanFromContext(r.Context())
	if !ok {
		writeError(w, "User plan not found in context", http.StatusUnauthorized)
		return
	}

	filters, err := parseReportFilters(r.URL.Query())
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var data []byte
	var contentType string
	switch format {
	case "pdf":
		data, err = h.reports.GeneratePDF(r.Context(), userID, plan, filters)
		contentType = "application/pdf"
	case "csv":
		data, err = h.reports.GenerateCSV(r.Context(), userID, plan, filters)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		if err == service.ErrClientFilterForbidden {
			writeError(w, "Client filter requires the AGENCY plan", http.StatusForbidden)
			return
		}
		h.log.Error("failed to generate report",
			zap.String("format", format),
			zap.String("user_id", userID),
			zap.Error(err))
		writeError(w, "Failed to generate report", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("relatorio-impacto-%d.%s", time.Now().UnixMilli(), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)

	h.log.Info("generated report",
		zap.String("format", format),
		zap.String("user_id", userID),
		zap.Int("size_bytes", len(data)))
}

func parseReportFilters(q url.Values) (service.ReportFilters, error) {
	var filters service.ReportFilters

	startDate, err := optionalDate(q, "start_date")
	if err != nil {
		return filters, err
	}
	endDate, err := optionalDate(q, "end_date")
	if err != nil {
		return filters, err
	}
	filters.StartDate = startDate
	filters.EndDate = endDate

	if v := q.Get("client_id"); v != "" {
		filters.ClientID = &v
	}
	if v := q.Get("campaign_id"); v != "" {
		filters.CampaignID = &v
	}

	return filters, nil
}
