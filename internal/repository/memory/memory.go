// Package memory provides an in-memory Storage implementation used by
// unit tests. Aggregation semantics mirror the PostgreSQL queries.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"impacto-backend/internal/domain"
	"impacto-backend/internal/repository"

	"github.com/google/uuid"
)

type MemStorage struct {
	mu        sync.RWMutex
	users     map[string]*domain.User
	links     map[string]*domain.Link
	clients   map[string]*domain.Client
	campaigns map[string]*domain.Campaign
	clicks    []*domain.Click
}

func New() *MemStorage {
	return &MemStorage{
		users:     make(map[string]*domain.User),
		links:     make(map[string]*domain.Link),
		clients:   make(map[string]*domain.Client),
		campaigns: make(map[string]*domain.Campaign),
	}
}

// --- User Methods ---

func (s *MemStorage) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.ID] = user
	return nil
}

func (s *MemStorage) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *MemStorage) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

// --- Link Methods ---

func (s *MemStorage) CreateLink(_ context.Context, link *domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.links {
		if l.ShortCode == link.ShortCode {
			return repository.ErrShortCodeExists
		}
	}

	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	s.links[link.ID] = link
	return nil
}

func (s *MemStorage) GetLinkByID(_ context.Context, id, userID string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.links[id]
	if !ok || link.UserID != userID {
		return nil, repository.ErrLinkNotFound
	}
	s.attachRelations(link)
	return link, nil
}

func (s *MemStorage) GetLinkByShortCode(_ context.Context, shortCode string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, link := range s.links {
		if link.ShortCode == shortCode {
			return link, nil
		}
	}
	return nil, repository.ErrLinkNotFound
}

func (s *MemStorage) ShortCodeExists(_ context.Context, shortCode string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, link := range s.links {
		if link.ShortCode == shortCode {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStorage) ListLinks(_ context.Context, userID string, filter repository.LinkFilter) ([]*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var links []*domain.Link
	for _, link := range s.links {
		if link.UserID != userID {
			continue
		}
		if filter.ClientID != nil && (link.ClientID == nil || *link.ClientID != *filter.ClientID) {
			continue
		}
		if filter.CampaignID != nil && (link.CampaignID == nil || *link.CampaignID != *filter.CampaignID) {
			continue
		}
		if filter.LinkType != nil && link.LinkType != *filter.LinkType {
			continue
		}
		if filter.Tag != nil && !containsTag(link.Tags, *filter.Tag) {
			continue
		}
		s.attachRelations(link)
		links = append(links, link)
	}

	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})
	return links, nil
}

func (s *MemStorage) UpdateLink(_ context.Context, link *domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[link.ID]; !ok {
		return repository.ErrLinkNotFound
	}
	s.links[link.ID] = link
	return nil
}

func (s *MemStorage) DeleteLink(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[id]
	if !ok || link.UserID != userID {
		return repository.ErrLinkNotFound
	}

	delete(s.links, id)
	kept := s.clicks[:0]
	for _, c := range s.clicks {
		if c.LinkID != id {
			kept = append(kept, c)
		}
	}
	s.clicks = kept
	return nil
}

// --- Client Methods ---

func (s *MemStorage) CreateClient(_ context.Context, client *domain.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now()
	}
	s.clients[client.ID] = client
	return nil
}

func (s *MemStorage) GetClientByID(_ context.Context, id, userID string) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[id]
	if !ok || client.UserID != userID {
		return nil, repository.ErrClientNotFound
	}
	s.attachClientRelations(client)
	return client, nil
}

func (s *MemStorage) ListClients(_ context.Context, userID string) ([]*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var clients []*domain.Client
	for _, client := range s.clients {
		if client.UserID == userID {
			s.attachClientRelations(client)
			clients = append(clients, client)
		}
	}

	sort.Slice(clients, func(i, j int) bool {
		return clients[i].CreatedAt.After(clients[j].CreatedAt)
	})
	return clients, nil
}

func (s *MemStorage) UpdateClient(_ context.Context, client *domain.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[client.ID]; !ok {
		return repository.ErrClientNotFound
	}
	s.clients[client.ID] = client
	return nil
}

func (s *MemStorage) DeleteClient(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[id]
	if !ok || client.UserID != userID {
		return repository.ErrClientNotFound
	}

	delete(s.clients, id)
	for _, link := range s.links {
		if link.ClientID != nil && *link.ClientID == id {
			link.ClientID = nil
		}
	}
	for _, campaign := range s.campaigns {
		if campaign.ClientID != nil && *campaign.ClientID == id {
			campaign.ClientID = nil
		}
	}
	return nil
}

// --- Campaign Methods ---

func (s *MemStorage) CreateCampaign(_ context.Context, campaign *domain.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = time.Now()
	}
	s.campaigns[campaign.ID] = campaign
	return nil
}

func (s *MemStorage) GetCampaignByID(_ context.Context, id, userID string) (*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	campaign, ok := s.campaigns[id]
	if !ok || campaign.UserID != userID {
		return nil, repository.ErrCampaignNotFound
	}
	s.attachCampaignRelations(campaign)
	return campaign, nil
}

func (s *MemStorage) ListCampaigns(_ context.Context, userID string) ([]*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var campaigns []*domain.Campaign
	for _, campaign := range s.campaigns {
		if campaign.UserID == userID {
			s.attachCampaignRelations(campaign)
			campaigns = append(campaigns, campaign)
		}
	}

	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].CreatedAt.After(campaigns[j].CreatedAt)
	})
	return campaigns, nil
}

func (s *MemStorage) UpdateCampaign(_ context.Context, campaign *domain.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.campaigns[campaign.ID]; !ok {
		return repository.ErrCampaignNotFound
	}
	s.campaigns[campaign.ID] = campaign
	return nil
}

func (s *MemStorage) DeleteCampaign(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaign, ok := s.campaigns[id]
	if !ok || campaign.UserID != userID {
		return repository.ErrCampaignNotFound
	}

	delete(s.campaigns, id)
	for _, link := range s.links {
		if link.CampaignID != nil && *link.CampaignID == id {
			link.CampaignID = nil
		}
	}
	return nil
}

// --- Click Methods ---

func (s *MemStorage) CreateClick(_ context.Context, click *domain.Click) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if click.ID == "" {
		click.ID = uuid.NewString()
	}
	if click.CreatedAt.IsZero() {
		click.CreatedAt = time.Now()
	}
	s.clicks = append(s.clicks, click)
	return nil
}

func (s *MemStorage) ListClicks(_ context.Context, filter repository.ClickFilter, limit int) ([]*domain.Click, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.matchClicks(filter)
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// --- Aggregation Methods ---

func (s *MemStorage) CountClicks(_ context.Context, filter repository.ClickFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.matchClicks(filter))), nil
}

func (s *MemStorage) CountClicksByLink(_ context.Context, filter repository.ClickFilter) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, c := range s.matchClicks(filter) {
		counts[c.LinkID]++
	}
	return counts, nil
}

func (s *MemStorage) CountClicksByDevice(_ context.Context, filter repository.ClickFilter) ([]repository.DeviceCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct {
		set    bool
		device string
	}
	counts := make(map[key]int64)
	for _, c := range s.matchClicks(filter) {
		k := key{}
		if c.Device != nil {
			k = key{set: true, device: *c.Device}
		}
		counts[k]++
	}

	var result []repository.DeviceCount
	for k, n := range counts {
		dc := repository.DeviceCount{Count: n}
		if k.set {
			device := k.device
			dc.Device = &device
		}
		result = append(result, dc)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	return result, nil
}

func (s *MemStorage) CountClicksByReferrer(_ context.Context, filter repository.ClickFilter, limit int) ([]repository.ReferrerCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, c := range s.matchClicks(filter) {
		if c.Referrer != nil {
			counts[*c.Referrer]++
		}
	}

	var result []repository.ReferrerCount
	for referrer, n := range counts {
		result = append(result, repository.ReferrerCount{Referrer: referrer, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemStorage) CountClicksByCountry(_ context.Context, filter repository.ClickFilter) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, c := range s.matchClicks(filter) {
		if c.Country != nil {
			counts[*c.Country]++
		}
	}
	return counts, nil
}

func (s *MemStorage) CountClicksByDay(_ context.Context, filter repository.ClickFilter) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, c := range s.matchClicks(filter) {
		counts[c.CreatedAt.Format("2006-01-02")]++
	}
	return counts, nil
}

// --- Helpers ---

func (s *MemStorage) matchClicks(filter repository.ClickFilter) []*domain.Click {
	var matched []*domain.Click
	for _, c := range s.clicks {
		if c.UserID != filter.UserID {
			continue
		}
		if c.CreatedAt.Before(filter.From) || c.CreatedAt.After(filter.To) {
			continue
		}
		if filter.Restrict && !containsID(filter.LinkIDs, c.LinkID) {
			continue
		}
		matched = append(matched, c)
	}
	return matched
}

func (s *MemStorage) attachRelations(link *domain.Link) {
	link.Client = nil
	link.Campaign = nil
	if link.ClientID != nil {
		link.Client = s.clients[*link.ClientID]
	}
	if link.CampaignID != nil {
		link.Campaign = s.campaigns[*link.CampaignID]
	}
}

func (s *MemStorage) attachClientRelations(client *domain.Client) {
	client.Links = nil
	client.Campaigns = nil
	for _, link := range s.links {
		if link.ClientID != nil && *link.ClientID == client.ID {
			client.Links = append(client.Links, *link)
		}
	}
	for _, campaign := range s.campaigns {
		if campaign.ClientID != nil && *campaign.ClientID == client.ID {
			client.Campaigns = append(client.Campaigns, *campaign)
		}
	}
}

func (s *MemStorage) attachCampaignRelations(campaign *domain.Campaign) {
	campaign.Client = nil
	campaign.Links = nil
	if campaign.ClientID != nil {
		campaign.Client = s.clients[*campaign.ClientID]
	}
	for _, link := range s.links {
		if link.CampaignID != nil && *link.CampaignID == campaign.ID {
			campaign.Links = append(campaign.Links, *link)
		}
	}
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func containsID(ids []string, id string) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}
