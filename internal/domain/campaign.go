package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Campaign represents a named marketing push links can be attributed to.
type Campaign struct {
	ID          string     `gorm:"primaryKey;column:id;size:36" json:"id"`
	Name        string     `gorm:"column:name;not null" json:"name"`
	Description *string    `gorm:"column:description" json:"description,omitempty"`
	StartDate   time.Time  `gorm:"column:start_date;not null" json:"start_date"`
	EndDate     *time.Time `gorm:"column:end_date" json:"end_date,omitempty"`
	UserID      string     `gorm:"column:user_id;size:36;not null;index" json:"user_id"`
	ClientID    *string    `gorm:"column:client_id;size:36;index" json:"client_id,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relationships
	Client *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Links  []Link  `gorm:"foreignKey:CampaignID" json:"links,omitempty"`
}

// TableName returns the table name for GORM.
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate assigns a UUID primary key when none is set.
func (c *Campaign) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
