package postgres

import (
	"context"
	"errors"
	"fmt"

	"impacto-backend/internal/domain"
	"impacto-backend/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PostgresStorage implements the Storage interface for PostgreSQL.
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New creates a new PostgreSQL storage instance.
func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// --- User Methods ---

// CreateUser persists a new user account.
func (s *PostgresStorage) CreateUser(ctx context.Context, user *domain.User) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		s.log.Error("failed to check email existence", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return repository.ErrEmailExists
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrEmailExists
		}
		s.log.Error("failed to create user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("created user", zap.String("user_id", user.ID), zap.String("plan", string(user.Plan)))
	return nil
}

// GetUserByEmail looks up a user by email.
func (s *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User

	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		s.log.Error("failed to get user by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetUserByID looks up a user by ID.
func (s *PostgresStorage) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User

	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		s.log.Error("failed to get user by id", zap.String("user_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// --- Link Methods ---

// CreateLink persists a new link. The unique index on short_code is the
// final arbiter against allocator collisions.
func (s *PostgresStorage) CreateLink(ctx context.Context, link *domain.Link) error {
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrShortCodeExists
		}
		s.log.Error("failed to create link", zap.String("short_code", link.ShortCode), zap.Error(err))
		return fmt.Errorf("failed to create link: %w", err)
	}

	s.log.Info("created link",
		zap.String("link_id", link.ID),
		zap.String("short_code", link.ShortCode),
		zap.String("user_id", link.UserID))
	return nil
}

// GetLinkByID returns a link owned by the given user.
func (s *PostgresStorage) GetLinkByID(ctx context.Context, id, userID string) (*domain.Link, error) {
	var link domain.Link

	err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Campaign").
		Where("id = ? AND user_id = ?", id, userID).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		s.log.Error("failed to get link", zap.String("link_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return &link, nil
}

// GetLinkByShortCode returns a link by its short code regardless of
// state; the redirect handler decides between not-found and gone.
func (s *PostgresStorage) GetLinkByShortCode(ctx context.Context, shortCode string) (*domain.Link, error) {
	var link domain.Link

	err := s.db.WithContext(ctx).Where("short_code = ?", shortCode).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		s.log.Error("failed to get link by short code", zap.String("short_code", shortCode), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return &link, nil
}

// ShortCodeExists reports whether a short code is taken.
func (s *PostgresStorage) ShortCodeExists(ctx context.Context, shortCode string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Link{}).Where("short_code = ?", shortCode).Count(&count).Error
	if err != nil {
		s.log.Error("failed to check short code existence", zap.String("short_code", shortCode), zap.Error(err))
		return false, fmt.Errorf("failed to check short code: %w", err)
	}

	return count > 0, nil
}

// ListLinks returns the user's links matching the filter, newest first.
func (s *PostgresStorage) ListLinks(ctx context.Context, userID string, filter repository.LinkFilter) ([]*domain.Link, error) {
	var links []*domain.Link

	q := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Campaign").
		Where("user_id = ?", userID)

	if filter.ClientID != nil {
		q = q.Where("client_id = ?", *filter.ClientID)
	}
	if filter.CampaignID != nil {
		q = q.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.LinkType != nil {
		q = q.Where("link_type = ?", *filter.LinkType)
	}
	if filter.Tag != nil {
		q = q.Where("? = ANY(tags)", *filter.Tag)
	}

	if err := q.Order("created_at DESC").Find(&links).Error; err != nil {
		s.log.Error("failed to list links", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	return links, nil
}

// UpdateLink saves a mutated link.
func (s *PostgresStorage) UpdateLink(ctx context.Context, link *domain.Link) error {
	if err := s.db.WithContext(ctx).Save(link).Error; err != nil {
		s.log.Error("failed to update link", zap.String("link_id", link.ID), zap.Error(err))
		return fmt.Errorf("failed to update link: %w", err)
	}

	return nil
}

// DeleteLink removes a link and its click history.
func (s *PostgresStorage) DeleteLink(ctx context.Context, id, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link domain.Link
		err := tx.Where("id = ? AND user_id = ?", id, userID).First(&link).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrLinkNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get link for deletion: %w", err)
		}

		if err := tx.Where("link_id = ?", id).Delete(&domain.Click{}).Error; err != nil {
			return fmt.Errorf("failed to delete clicks: %w", err)
		}

		if err := tx.Delete(&link).Error; err != nil {
			return fmt.Errorf("failed to delete link: %w", err)
		}

		s.log.Info("deleted link", zap.String("link_id", id), zap.String("user_id", userID))
		return nil
	})
}

// --- Client Methods ---

// CreateClient persists a new client.
func (s *PostgresStorage) CreateClient(ctx context.Context, client *domain.Client) error {
	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		s.log.Error("failed to create client", zap.String("user_id", client.UserID), zap.Error(err))
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

// GetClientByID returns a client owned by the given user.
func (s *PostgresStorage) GetClientByID(ctx context.Context, id, userID string) (*domain.Client, error) {
	var client domain.Client

	err := s.db.WithContext(ctx).
		Preload("Links").
		Preload("Campaigns").
		Where("id = ? AND user_id = ?", id, userID).
		First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrClientNotFound
	}
	if err != nil {
		s.log.Error("failed to get client", zap.String("client_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return &client, nil
}

// ListClients returns the user's clients, newest first.
func (s *PostgresStorage) ListClients(ctx context.Context, userID string) ([]*domain.Client, error) {
	var clients []*domain.Client

	err := s.db.WithContext(ctx).
		Preload("Links").
		Preload("Campaigns").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&clients).Error
	if err != nil {
		s.log.Error("failed to list clients", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	return clients, nil
}

// UpdateClient saves a mutated client.
func (s *PostgresStorage) UpdateClient(ctx context.Context, client *domain.Client) error {
	if err := s.db.WithContext(ctx).Save(client).Error; err != nil {
		s.log.Error("failed to update client", zap.String("client_id", client.ID), zap.Error(err))
		return fmt.Errorf("failed to update client: %w", err)
	}

	return nil
}

// DeleteClient removes a client. Links keep their rows but lose the
// association.
func (s *PostgresStorage) DeleteClient(ctx context.Context, id, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client domain.Client
		err := tx.Where("id = ? AND user_id = ?", id, userID).First(&client).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrClientNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get client for deletion: %w", err)
		}

		if err := tx.Model(&domain.Link{}).Where("client_id = ?", id).Update("client_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach links: %w", err)
		}
		if err := tx.Model(&domain.Campaign{}).Where("client_id = ?", id).Update("client_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach campaigns: %w", err)
		}

		if err := tx.Delete(&client).Error; err != nil {
			return fmt.Errorf("failed to delete client: %w", err)
		}

		s.log.Info("deleted client", zap.String("client_id", id), zap.String("user_id", userID))
		return nil
	})
}

// --- Campaign Methods ---

// CreateCampaign persists a new campaign.
func (s *PostgresStorage) CreateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	if err := s.db.WithContext(ctx).Create(campaign).Error; err != nil {
		s.log.Error("failed to create campaign", zap.String("user_id", campaign.UserID), zap.Error(err))
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

// GetCampaignByID returns a campaign owned by the given user.
func (s *PostgresStorage) GetCampaignByID(ctx context.Context, id, userID string) (*domain.Campaign, error) {
	var campaign domain.Campaign

	err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Links").
		Where("id = ? AND user_id = ?", id, userID).
		First(&campaign).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrCampaignNotFound
	}
	if err != nil {
		s.log.Error("failed to get campaign", zap.String("campaign_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return &campaign, nil
}

// ListCampaigns returns the user's campaigns, newest first.
func (s *PostgresStorage) ListCampaigns(ctx context.Context, userID string) ([]*domain.Campaign, error) {
	var campaigns []*domain.Campaign

	err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Links").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&campaigns).Error
	if err != nil {
		s.log.Error("failed to list campaigns", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	return campaigns, nil
}

// UpdateCampaign saves a mutated campaign.
func (s *PostgresStorage) UpdateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	if err := s.db.WithContext(ctx).Save(campaign).Error; err != nil {
		s.log.Error("failed to update campaign", zap.String("campaign_id", campaign.ID), zap.Error(err))
		return fmt.Errorf("failed to update campaign: %w", err)
	}

	return nil
}

// DeleteCampaign removes a campaign, detaching its links.
func (s *PostgresStorage) DeleteCampaign(ctx context.Context, id, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var campaign domain.Campaign
		err := tx.Where("id = ? AND user_id = ?", id, userID).First(&campaign).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrCampaignNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get campaign for deletion: %w", err)
		}

		if err := tx.Model(&domain.Link{}).Where("campaign_id = ?", id).Update("campaign_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach links: %w", err)
		}

		if err := tx.Delete(&campaign).Error; err != nil {
			return fmt.Errorf("failed to delete campaign: %w", err)
		}

		s.log.Info("deleted campaign", zap.String("campaign_id", id), zap.String("user_id", userID))
		return nil
	})
}

// --- Click Methods ---

// CreateClick appends one click event.
func (s *PostgresStorage) CreateClick(ctx context.Context, click *domain.Click) error {
	if err := s.db.WithContext(ctx).Create(click).Error; err != nil {
		s.log.Error("failed to create click", zap.String("link_id", click.LinkID), zap.Error(err))
		return fmt.Errorf("failed to create click: %w", err)
	}

	return nil
}

// ListClicks returns matching clicks, newest first.
func (s *PostgresStorage) ListClicks(ctx context.Context, filter repository.ClickFilter, limit int) ([]*domain.Click, error) {
	var clicks []*domain.Click

	q := s.clickQuery(ctx, filter).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Find(&clicks).Error; err != nil {
		s.log.Error("failed to list clicks", zap.String("user_id", filter.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}

	return clicks, nil
}

// --- Aggregation Methods ---

// CountClicks counts clicks matching the filter.
func (s *PostgresStorage) CountClicks(ctx context.Context, filter repository.ClickFilter) (int64, error) {
	var count int64
	if err := s.clickQuery(ctx, filter).Count(&count).Error; err != nil {
		s.log.Error("failed to count clicks", zap.String("user_id", filter.UserID), zap.Error(err))
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}

	return count, nil
}

// CountClicksByLink groups matching clicks by owning link.
func (s *PostgresStorage) CountClicksByLink(ctx context.Context, filter repository.ClickFilter) (map[string]int64, error) {
	var results []struct {
		LinkID string `gorm:"column:link_id"`
		Count  int64  `gorm:"column:count"`
	}

	err := s.clickQuery(ctx, filter).
		Select("link_id, count(*) as count").
		Group("link_id").
		Find(&results).Error
	if err != nil {
		s.log.Error("failed to count clicks by link", zap.String("user_id", filter.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to count clicks by link: %w", err)
	}

	counts := make(map[string]int64, len(results))
	for _, r := range results {
		counts[r.LinkID] = r.Count
	}

	return counts, nil
}

// CountClicksByDevice groups matching clicks by device category.
// Unclassified clicks come back with a nil device.
func (s *PostgresStorage) CountClicksByDevice(ctx context.Context, filter repository.ClickFilter) ([]repository.DeviceCount, error) {
	var results []struct {
		Device *string `gorm:"column:device"`
		Count  int64   `gorm:"column:count"`
	}

	err := s.clickQuery(ctx, filter).
		Select("device, count(*) as count").
		Group("device").
		Order("count DESC").
		Find(&results).Error
	if err != nil {
		s.log.Error("failed to count clicks by device", zap.String("user_id", filter.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to count clicks by device: %w", err)
	}

	counts := make([]repository.DeviceCount, len(results))
	for i, r := range results {
		counts[i] = repository.DeviceCount{Device: r.Device, Count: r.Count}
	}

	return counts, nil
}

// CountClicksByReferrer groups matching clicks by referrer, excluding
// clicks without one, ordered by count descending.
func (s *PostgresStorage) CountClicksByReferrer(ctx context.Context, filter repository.ClickFilter, limit int) ([]repository.ReferrerCount, error) {
	var results []struct {
		Referrer string `gorm:"column:referrer"`
		Count    int64  `gorm:"column:count"`
	}

	q := s.clickQuery(ctx, filter).
		Select("referrer, count(*) as count").
		Where("referrer IS NOT NULL").
		Group("referrer").
		Order("count DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Find(&results).Error; err != nil {
		s.log.Error("failed to count clicks by referrer", zap.String("user_id", filter.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to count clicks by referrer: %w", err)
	}

	counts := make([]repository.ReferrerCount, len(results))
	for i, r := range results {
		counts[i] = repository.ReferrerCount{Referrer: r.Referrer, Count: r.Count}
	}

	return counts, nil
}

// CountClicksByCountry groups matching clicks by country code, excluding
// clicks without one.
func (s *PostgresStorage) CountClicksByCountry(ctx context.Context, filter repository.ClickFilter) (map[string]int64, error) {
	var results []struct {
		Country string `gorm:"column:country"`
		Count   int64  `gorm:"column:count"`
	}

	err := s.clickQuery(ctx, filter).
		Select("country, count(*) as count").
		Where("country IS NOT NULL").
		Group("country").
		Find(&results).Error
	if err != nil {
		s.log.Error("failed to count clicks by country", zap.String("user_id", filter.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to count clicks by country: %w", err)
	}

	counts := make(map[string]int64, len(results))
	for _, r := range results {
		counts[r.Country] = r.Count
	}

	return counts, nil
}

// CountClicksByDay groups matching clicks by calendar date of the stored
// timestamp. Days without clicks are absent from the result.
func (s *PostgresStorage) CountClicksByDay(ctx context.Context, filter repository.ClickFilter) (map[string]int64, error) {
	var results []struct {
		Day   string `gorm:"column:day"`
		Count int64  `gorm:"column:count"`
	}

	err := s.clickQuery(ctx, filter).
		Select("to_char(created_at, 'YYYY-MM-DD') as day, count(*) as count").
		Group("day").
		Find(&results).Error
	if err != nil {
		s.log.Error("failed to count clicks by day", zap.String("user_id", filter.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to count clicks by day: %w", err)
	}

	counts := make(map[string]int64, len(results))
	for _, r := range results {
		counts[r.Day] = r.Count
	}

	return counts, nil
}

// clickQuery applies the common tenant, link-set and window constraints.
func (s *PostgresStorage) clickQuery(ctx context.Context, filter repository.ClickFilter) *gorm.DB {
	q := s.db.WithContext(ctx).
		Model(&domain.Click{}).
		Where("user_id = ?", filter.UserID).
		Where("created_at >= ? AND created_at <= ?", filter.From, filter.To)

	if filter.Restrict {
		if len(filter.LinkIDs) == 0 {
			// An empty restricted set matches nothing, not everything.
			q = q.Where("1 = 0")
		} else {
			q = q.Where("link_id IN ?", filter.LinkIDs)
		}
	}

	return q
}
