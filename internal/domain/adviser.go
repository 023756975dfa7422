package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Adviser is a department user. Advisers log in with email + password.
type Adviser struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	FirstName    string     `gorm:"column:first_name" json:"first_name"`
	LastName     string     `gorm:"column:last_name" json:"last_name"`
	Email        string     `gorm:"column:email;index" json:"email"`
	ContactEmail string     `gorm:"column:contact_email" json:"contact_email"`
	IsActive     bool       `gorm:"column:is_active;not null" json:"is_active"`
	DateJoined   time.Time  `gorm:"column:date_joined" json:"date_joined"`
	DITTeamID    *uuid.UUID `gorm:"column:dit_team_id;type:uuid" json:"dit_team_id"`
	Role         string     `gorm:"column:role;not null;default:'viewer'" json:"role"`
	PasswordHash string     `gorm:"column:password_hash" json:"-"`
	CreatedOn    time.Time  `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	ModifiedOn   time.Time  `gorm:"column:modified_on;autoUpdateTime" json:"modified_on"`
}

func (Adviser) TableName() string {
	return "company_advisor"
}

func (a *Adviser) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.DateJoined.IsZero() {
		a.DateJoined = time.Now().UTC()
	}
	return nil
}

// Name is the adviser's full name.
func (a Adviser) Name() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
