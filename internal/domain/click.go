package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Click represents a single recorded redirect. Rows are append-only: they
// are never updated, only bulk-deleted when the owning link is deleted.
type Click struct {
	ID        string    `gorm:"primaryKey;column:id;size:36" json:"id"`
	LinkID    string    `gorm:"column:link_id;size:36;not null;index" json:"link_id"`
	UserID    string    `gorm:"column:user_id;size:36;not null;index:idx_clicks_user_created" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:idx_clicks_user_created" json:"created_at"`
	Referrer  *string   `gorm:"column:referrer;size:500" json:"referrer,omitempty"`
	UserAgent string    `gorm:"column:user_agent;type:text" json:"user_agent"`
	Device    *string   `gorm:"column:device;size:10" json:"device,omitempty"`
	Browser   *string   `gorm:"column:browser;size:50" json:"browser,omitempty"`
	OS        *string   `gorm:"column:os;size:50" json:"os,omitempty"`
	Country   *string   `gorm:"column:country;size:2" json:"country,omitempty"` // ISO 3166-1 alpha-2
	IP        *string   `gorm:"column:ip;size:45" json:"ip,omitempty"`

	// Relationships
	Link *Link `gorm:"foreignKey:LinkID" json:"link,omitempty"`
}

// TableName returns the table name for GORM.
func (Click) TableName() string {
	return "clicks"
}

// BeforeCreate assigns a UUID primary key when none is set.
func (c *Click) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// DeviceLabel returns the device category, "Unknown" when unclassified.
func (c *Click) DeviceLabel() string {
	if c.Device != nil && *c.Device != "" {
		return *c.Device
	}
	return "Unknown"
}
