package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// LinkType is a fixed category tag on a link.
type LinkType string

const (
	LinkTypeBio      LinkType = "BIO"
	LinkTypeStory    LinkType = "STORY"
	LinkTypeDirect   LinkType = "DIRECT"
	LinkTypeCampanha LinkType = "CAMPANHA"
	LinkTypeProduto  LinkType = "PRODUTO"
	LinkTypeOther    LinkType = "OTHER"
)

// IsValid reports whether the link type is one of the known categories.
func (t LinkType) IsValid() bool {
	switch t {
	case LinkTypeBio, LinkTypeStory, LinkTypeDirect, LinkTypeCampanha, LinkTypeProduto, LinkTypeOther:
		return true
	}
	return false
}

// Link represents a trackable short link.
type Link struct {
	ID          string         `gorm:"primaryKey;column:id;size:36" json:"id"`
	ShortCode   string         `gorm:"column:short_code;uniqueIndex;size:20;not null" json:"short_code"`
	OriginalURL string         `gorm:"column:original_url;not null" json:"original_url"`
	Title       *string        `gorm:"column:title" json:"title,omitempty"`
	Description *string        `gorm:"column:description" json:"description,omitempty"`
	LinkType    LinkType       `gorm:"column:link_type;size:10;not null;default:OTHER" json:"link_type"`
	Tags        pq.StringArray `gorm:"column:tags;type:text[]" json:"tags"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	ExpiresAt   *time.Time     `gorm:"column:expires_at" json:"expires_at,omitempty"`
	UserID      string         `gorm:"column:user_id;size:36;not null;index" json:"user_id"`
	ClientID    *string        `gorm:"column:client_id;size:36;index" json:"client_id,omitempty"`
	CampaignID  *string        `gorm:"column:campaign_id;size:36;index" json:"campaign_id,omitempty"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relationships
	Client   *Client   `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Campaign *Campaign `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
	Clicks   []Click   `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE" json:"clicks,omitempty"`
}

// TableName returns the table name for GORM.
func (Link) TableName() string {
	return "links"
}

// BeforeCreate assigns a UUID primary key when none is set.
func (l *Link) BeforeCreate(_ *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// IsExpired reports whether the link is past its expiry at the given time.
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// DisplayTitle returns the title, falling back to the destination URL.
func (l *Link) DisplayTitle() string {
	if l.Title != nil && *l.Title != "" {
		return *l.Title
	}
	return l.OriginalURL
}
