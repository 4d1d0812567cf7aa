package repository

import (
	"context"
	"errors"
	"time"

	"impacto-backend/internal/domain"
)

var (
	ErrLinkNotFound     = errors.New("link not found")
	ErrShortCodeExists  = errors.New("short code already exists")
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailExists      = errors.New("email already registered")
	ErrClientNotFound   = errors.New("client not found")
	ErrCampaignNotFound = errors.New("campaign not found")
)

// LinkFilter narrows link listings. Nil fields are ignored.
type LinkFilter struct {
	ClientID   *string
	CampaignID *string
	LinkType   *domain.LinkType
	Tag        *string
}

// ClickFilter scopes click aggregation queries. When Restrict is set the
// query matches only clicks of the listed links; an empty LinkIDs slice
// with Restrict set matches nothing rather than everything.
type ClickFilter struct {
	UserID   string
	LinkIDs  []string
	Restrict bool
	From     time.Time
	To       time.Time
}

// DeviceCount is one row of a clicks-by-device grouping. Device is nil
// for clicks recorded without a classification.
type DeviceCount struct {
	Device *string
	Count  int64
}

// ReferrerCount is one row of a clicks-by-referrer grouping.
type ReferrerCount struct {
	Referrer string
	Count    int64
}

type Storage interface {
	// User methods
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)

	// Link methods
	CreateLink(ctx context.Context, link *domain.Link) error
	GetLinkByID(ctx context.Context, id, userID string) (*domain.Link, error)
	GetLinkByShortCode(ctx context.Context, shortCode string) (*domain.Link, error)
	ShortCodeExists(ctx context.Context, shortCode string) (bool, error)
	ListLinks(ctx context.Context, userID string, filter LinkFilter) ([]*domain.Link, error)
	UpdateLink(ctx context.Context, link *domain.Link) error
	DeleteLink(ctx context.Context, id, userID string) error

	// Client methods
	CreateClient(ctx context.Context, client *domain.Client) error
	GetClientByID(ctx context.Context, id, userID string) (*domain.Client, error)
	ListClients(ctx context.Context, userID string) ([]*domain.Client, error)
	UpdateClient(ctx context.Context, client *domain.Client) error
	DeleteClient(ctx context.Context, id, userID string) error

	// Campaign methods
	CreateCampaign(ctx context.Context, campaign *domain.Campaign) error
	GetCampaignByID(ctx context.Context, id, userID string) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context, userID string) ([]*domain.Campaign, error)
	UpdateCampaign(ctx context.Context, campaign *domain.Campaign) error
	DeleteCampaign(ctx context.Context, id, userID string) error

	// Click methods
	CreateClick(ctx context.Context, click *domain.Click) error
	ListClicks(ctx context.Context, filter ClickFilter, limit int) ([]*domain.Click, error)

	// Aggregation methods
	CountClicks(ctx context.Context, filter ClickFilter) (int64, error)
	CountClicksByLink(ctx context.Context, filter ClickFilter) (map[string]int64, error)
	CountClicksByDevice(ctx context.Context, filter ClickFilter) ([]DeviceCount, error)
	CountClicksByReferrer(ctx context.Context, filter ClickFilter, limit int) ([]ReferrerCount, error)
	CountClicksByCountry(ctx context.Context, filter ClickFilter) (map[string]int64, error)
	CountClicksByDay(ctx context.Context, filter ClickFilter) (map[string]int64, error)
}
