package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is a person at a company.
type Contact struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyID       *uuid.UUID `gorm:"column:company_id;type:uuid;index" json:"company_id"`
	FirstName       string     `gorm:"column:first_name" json:"first_name"`
	LastName        string     `gorm:"column:last_name" json:"last_name"`
	JobTitle        string     `gorm:"column:job_title" json:"job_title"`
	Email           string     `gorm:"column:email" json:"email"`
	Phone           string     `gorm:"column:full_telephone_number" json:"full_telephone_number"`
	Primary         bool       `gorm:"column:primary" json:"primary"`
	TransferredToID *uuid.UUID `gorm:"column:transferred_to_id;type:uuid" json:"transferred_to_id"`
	Archived        bool       `gorm:"column:archived" json:"archived"`
	ArchivedOn      *time.Time `gorm:"column:archived_on" json:"archived_on"`
	CreatedByID     *uuid.UUID `gorm:"column:created_by_id;type:uuid" json:"created_by_id"`
	ModifiedByID    *uuid.UUID `gorm:"column:modified_by_id;type:uuid" json:"modified_by_id"`
	CreatedOn       time.Time  `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	ModifiedOn      time.Time  `gorm:"column:modified_on;autoUpdateTime" json:"modified_on"`
}

func (Contact) TableName() string {
	return "company_contact"
}

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c Contact) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
