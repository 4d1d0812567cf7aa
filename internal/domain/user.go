package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan represents the account tier of a user.
type Plan string

const (
	PlanSolo   Plan = "SOLO"
	PlanAgency Plan = "AGENCY"
)

// IsValid reports whether the plan is a known tier.
func (p Plan) IsValid() bool {
	return p == PlanSolo || p == PlanAgency
}

// User represents an account that owns links, clients and campaigns.
type User struct {
	ID           string    `gorm:"primaryKey;column:id;size:36" json:"id"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	Plan         Plan      `gorm:"column:plan;size:10;not null;default:SOLO" json:"plan"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relationships
	Links     []Link     `gorm:"foreignKey:UserID" json:"links,omitempty"`
	Clients   []Client   `gorm:"foreignKey:UserID" json:"clients,omitempty"`
	Campaigns []Campaign `gorm:"foreignKey:UserID" json:"campaigns,omitempty"`
}

// TableName returns the table name for GORM.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID primary key when none is set.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsAgency reports whether the user is on the multi-client tier.
func (u *User) IsAgency() bool {
	return u.Plan == PlanAgency
}
