package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client represents a customer a user groups links and campaigns under.
type Client struct {
	ID        string    `gorm:"primaryKey;column:id;size:36" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Email     *string   `gorm:"column:email" json:"email,omitempty"`
	UserID    string    `gorm:"column:user_id;size:36;not null;index" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relationships
	Links     []Link     `gorm:"foreignKey:ClientID" json:"links,omitempty"`
	Campaigns []Campaign `gorm:"foreignKey:ClientID" json:"campaigns,omitempty"`
}

// TableName returns the table name for GORM.
func (Client) TableName() string {
	return "clients"
}

// BeforeCreate assigns a UUID primary key when none is set.
func (c *Client) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
