package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"impacto-backend/internal/domain"
	"impacto-backend/internal/repository"
)

// ErrClientFilterForbidden is returned when a non-AGENCY caller tries to
// filter analytics by client.
var ErrClientFilterForbidden = errors.New("client filter requires the AGENCY plan")

// defaultWindow is the trailing period used when no dates are given.
const defaultWindow = 30 * 24 * time.Hour

// topN caps ranked breakdowns on the dashboard.
const topN = 10

// DashboardFilters narrows the dashboard computation. Nil fields are
// ignored; ClientID is honored only for AGENCY callers.
type DashboardFilters struct {
	StartDate  *time.Time
	EndDate    *time.Time
	ClientID   *string
	CampaignID *string
	LinkID     *string
}

// Overview holds the dashboard headline counters.
type Overview struct {
	TotalClicks int64  `json:"totalClicks"`
	TotalLinks  int    `json:"totalLinks"`
	ActiveLinks int    `json:"activeLinks"`
	ClickGrowth string `json:"clickGrowth"`
}

// DeviceCount is one clicks-by-device entry.
type DeviceCount struct {
	Device string `json:"device"`
	Count  int64  `json:"count"`
}

// ReferrerCount is one top-referrer entry.
type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Count    int64  `json:"count"`
}

// TopLink is one ranked dashboard link.
type TopLink struct {
	ID        string          `json:"id"`
	ShortCode string          `json:"shortCode"`
	Title     string          `json:"title"`
	Clicks    int64           `json:"clicks"`
	LinkType  domain.LinkType `json:"linkType"`
	Client    *string         `json:"client,omitempty"`
	Campaign  *string         `json:"campaign,omitempty"`
}

// Insight is one advisory statement derived from the metrics.
type Insight struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// DashboardPayload is the aggregated analytics response.
type DashboardPayload struct {
	Overview        Overview                  `json:"overview"`
	ClicksByType    map[domain.LinkType]int64 `json:"clicksByType"`
	ClicksByDevice  []DeviceCount             `json:"clicksByDevice"`
	TopReferrers    []ReferrerCount           `json:"topReferrers"`
	ClicksByCountry map[string]int64          `json:"clicksByCountry"`
	TopLinks        []TopLink                 `json:"topLinks"`
	DailyClicks     map[string]int64          `json:"dailyClicks"`
	Insights        []Insight                 `json:"insights"`
}

// LinkRef identifies the link in a per-link analytics payload.
type LinkRef struct {
	ID          string  `json:"id"`
	ShortCode   string  `json:"shortCode"`
	Title       *string `json:"title,omitempty"`
	OriginalURL string  `json:"originalUrl"`
}

// LinkAnalyticsPayload is the per-link analytics response.
type LinkAnalyticsPayload struct {
	Link        LinkRef          `json:"link"`
	TotalClicks int              `json:"totalClicks"`
	DailyClicks map[string]int64 `json:"dailyClicks"`
	ByDevice    map[string]int64 `json:"byDevice"`
	ByReferrer  map[string]int64 `json:"byReferrer"`
	Clicks      []*domain.Click  `json:"clicks"`
}

// typeLabels are the display names used in insight messages.
var typeLabels = map[domain.LinkType]string{
	domain.LinkTypeBio:      "links de bio",
	domain.LinkTypeStory:    "stories",
	domain.LinkTypeDirect:   "mensagens diretas",
	domain.LinkTypeCampanha: "campanhas",
	domain.LinkTypeProduto:  "produtos",
	domain.LinkTypeOther:    "outros links",
}

// Analytics computes dashboard and per-link aggregations. Every
// computation is a fresh read; there is no caching layer.
type Analytics struct {
	storage repository.Storage
}

// NewAnalytics creates a new analytics service.
func NewAnalytics(storage repository.Storage) *Analytics {
	return &Analytics{
		storage: storage,
	}
}

// ComputeDashboard builds the aggregated dashboard payload for one
// tenant. The plan gates the client filter.
func (a *Analytics) ComputeDashboard(ctx context.Context, userID string, plan domain.Plan, filters DashboardFilters) (*DashboardPayload, error) {
	if filters.ClientID != nil && plan != domain.PlanAgency {
		return nil, ErrClientFilterForbidden
	}

	start, end := resolveWindow(filters.StartDate, filters.EndDate)

	// Resolve the link set. With a direct link filter the set is that
	// single link; with a client/campaign filter it is the matching
	// links, where an empty match means "match nothing", not "ignore
	// the filter".
	var links []*domain.Link
	if filters.LinkID != nil {
		link, err := a.storage.GetLinkByID(ctx, *filters.LinkID, userID)
		if err != nil {
			return nil, err
		}
		links = []*domain.Link{link}
	} else {
		var err error
		links, err = a.storage.ListLinks(ctx, userID, repository.LinkFilter{
			ClientID:   filters.ClientID,
			CampaignID: filters.CampaignID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to resolve link set: %w", err)
		}
	}

	restricted := filters.LinkID != nil || filters.ClientID != nil || filters.CampaignID != nil
	clickFilter := repository.ClickFilter{
		UserID:   userID,
		From:     start,
		To:       end,
		Restrict: restricted,
	}
	if restricted {
		clickFilter.LinkIDs = linkIDs(links)
	}

	totalClicks, err := a.storage.CountClicks(ctx, clickFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count clicks: %w", err)
	}

	byLink, err := a.storage.CountClicksByLink(ctx, clickFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count clicks by link: %w", err)
	}

	deviceRows, err := a.storage.CountClicksByDevice(ctx, clickFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count clicks by device: %w", err)
	}

	referrerRows, err := a.storage.CountClicksByReferrer(ctx, clickFilter, topN)
	if err != nil {
		return nil, fmt.Errorf("failed to count clicks by referrer: %w", err)
	}

	byCountry, err := a.storage.CountClicksByCountry(ctx, clickFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count clicks by country: %w", err)
	}

	daily, err := a.storage.CountClicksByDay(ctx, clickFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count clicks by day: %w", err)
	}

	// Previous period of equal length ending at the window start, same
	// link-set filter, end-exclusive.
	previousFilter := clickFilter
	previousFilter.From = start.Add(-end.Sub(start))
	previousFilter.To = start.Add(-time.Nanosecond)

	previousClicks, err := a.storage.CountClicks(ctx, previousFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count previous period clicks: %w", err)
	}

	growth := clickGrowth(totalClicks, previousClicks)

	clicksByType := make(map[domain.LinkType]int64)
	activeLinks := 0
	for _, link := range links {
		clicksByType[link.LinkType] += byLink[link.ID]
		if link.IsActive {
			activeLinks++
		}
	}

	payload := &DashboardPayload{
		Overview: Overview{
			TotalClicks: totalClicks,
			TotalLinks:  len(links),
			ActiveLinks: activeLinks,
			ClickGrowth: fmt.Sprintf("%.1f", growth),
		},
		ClicksByType:    clicksByType,
		ClicksByDevice:  deviceBreakdown(deviceRows),
		TopReferrers:    referrerBreakdown(referrerRows),
		ClicksByCountry: byCountry,
		TopLinks:        topLinks(links, byLink),
		DailyClicks:     daily,
		Insights:        insights(growth, clicksByType),
	}

	return payload, nil
}

// GetLinkAnalytics returns the detailed click breakdown for one link
// owned by the caller.
func (a *Analytics) GetLinkAnalytics(ctx context.Context, userID, linkID string, startDate, endDate *time.Time) (*LinkAnalyticsPayload, error) {
	link, err := a.storage.GetLinkByID(ctx, linkID, userID)
	if err != nil {
		return nil, err
	}

	start, end := resolveWindow(startDate, endDate)

	clicks, err := a.storage.ListClicks(ctx, repository.ClickFilter{
		UserID:   userID,
		LinkIDs:  []string{link.ID},
		Restrict: true,
		From:     start,
		To:       end,
	}, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}

	daily := make(map[string]int64)
	byDevice := make(map[string]int64)
	byReferrer := make(map[string]int64)
	for _, c := range clicks {
		daily[c.CreatedAt.Format("2006-01-02")]++
		byDevice[c.DeviceLabel()]++
		if c.Referrer != nil {
			byReferrer[*c.Referrer]++
		} else {
			byReferrer["Direct"]++
		}
	}

	latest := clicks
	if len(latest) > 100 {
		latest = latest[:100]
	}

	return &LinkAnalyticsPayload{
		Link: LinkRef{
			ID:          link.ID,
			ShortCode:   link.ShortCode,
			Title:       link.Title,
			OriginalURL: link.OriginalURL,
		},
		TotalClicks: len(clicks),
		DailyClicks: daily,
		ByDevice:    byDevice,
		ByReferrer:  byReferrer,
		Clicks:      latest,
	}, nil
}

// resolveWindow applies the trailing default window for missing bounds.
func resolveWindow(startDate, endDate *time.Time) (time.Time, time.Time) {
	end := time.Now()
	if endDate != nil {
		end = *endDate
	}
	start := time.Now().Add(-defaultWindow)
	if startDate != nil {
		start = *startDate
	}
	return start, end
}

// clickGrowth computes the period-over-period percentage change. A zero
// previous period yields 0, not an infinity; the saturation is
// deliberate.
func clickGrowth(current, previous int64) float64 {
	if previous == 0 {
		return 0
	}
	return (float64(current) - float64(previous)) / float64(previous) * 100
}

func deviceBreakdown(rows []repository.DeviceCount) []DeviceCount {
	result := make([]DeviceCount, len(rows))
	for i, r := range rows {
		device := "Unknown"
		if r.Device != nil && *r.Device != "" {
			device = *r.Device
		}
		result[i] = DeviceCount{Device: device, Count: r.Count}
	}
	return result
}

func referrerBreakdown(rows []repository.ReferrerCount) []ReferrerCount {
	result := make([]ReferrerCount, len(rows))
	for i, r := range rows {
		result[i] = ReferrerCount{Referrer: r.Referrer, Count: r.Count}
	}
	return result
}

func topLinks(links []*domain.Link, byLink map[string]int64) []TopLink {
	ranked := make([]TopLink, 0, len(links))
	for _, link := range links {
		top := TopLink{
			ID:        link.ID,
			ShortCode: link.ShortCode,
			Title:     link.DisplayTitle(),
			Clicks:    byLink[link.ID],
			LinkType:  link.LinkType,
		}
		if link.Client != nil {
			name := link.Client.Name
			top.Client = &name
		}
		if link.Campaign != nil {
			name := link.Campaign.Name
			top.Campaign = &name
		}
		ranked = append(ranked, top)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Clicks > ranked[j].Clicks
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// insights derives the advisory statements: a growth insight only when
// growth is positive, and the single best performing link type.
func insights(growth float64, clicksByType map[domain.LinkType]int64) []Insight {
	var result []Insight

	if growth > 0 {
		result = append(result, Insight{
			Type:    "growth",
			Message: fmt.Sprintf("Tráfego aumentou %.1f%% em relação ao período anterior", growth),
		})
	}

	var topType domain.LinkType
	var topCount int64
	found := false
	for linkType, count := range clicksByType {
		if !found || count > topCount || (count == topCount && linkType < topType) {
			topType = linkType
			topCount = count
			found = true
		}
	}
	if found {
		label, ok := typeLabels[topType]
		if !ok {
			label = string(topType)
		}
		result = append(result, Insight{
			Type:    "top_performer",
			Message: fmt.Sprintf("%s geraram %d cliques", label, topCount),
		})
	}

	return result
}

func linkIDs(links []*domain.Link) []string {
	ids := make([]string, len(links))
	for i, link := range links {
		ids[i] = link.ID
	}
	return ids
}
