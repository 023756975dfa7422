package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InteractionKindInteraction     = "interaction"
	InteractionKindServiceDelivery = "service_delivery"

	InteractionStatusDraft    = "draft"
	InteractionStatusComplete = "complete"
)

// Interaction records a meeting, call or service delivered to a company.
type Interaction struct {
	ID                        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Kind                      string     `gorm:"column:kind;not null" json:"kind"`
	Theme                     string     `gorm:"column:theme" json:"theme"`
	Status                    string     `gorm:"column:status;not null;default:'complete'" json:"status"`
	Subject                   string     `gorm:"column:subject;not null" json:"subject"`
	Date                      time.Time  `gorm:"column:date;not null" json:"date"`
	Notes                     string     `gorm:"column:notes" json:"notes"`
	CompanyID                 uuid.UUID  `gorm:"column:company_id;type:uuid;index" json:"company_id"`
	CommunicationChannelID    *uuid.UUID `gorm:"column:communication_channel_id;type:uuid" json:"communication_channel_id"`
	InvestmentProjectID       *uuid.UUID `gorm:"column:investment_project_id;type:uuid;index" json:"investment_project_id"`
	WasPolicyFeedbackProvided bool       `gorm:"column:was_policy_feedback_provided" json:"was_policy_feedback_provided"`
	Archived                  bool       `gorm:"column:archived" json:"archived"`
	CreatedByID               *uuid.UUID `gorm:"column:created_by_id;type:uuid" json:"created_by_id"`
	ModifiedByID              *uuid.UUID `gorm:"column:modified_by_id;type:uuid" json:"modified_by_id"`
	CreatedOn                 time.Time  `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	ModifiedOn                time.Time  `gorm:"column:modified_on;autoUpdateTime" json:"modified_on"`
}

func (Interaction) TableName() string {
	return "interaction_interaction"
}

func (i *Interaction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// InteractionContact links an interaction to the contacts present.
type InteractionContact struct {
	InteractionID uuid.UUID `gorm:"column:interaction_id;type:uuid;primaryKey"`
	ContactID     uuid.UUID `gorm:"column:contact_id;type:uuid;primaryKey"`
}

func (InteractionContact) TableName() string {
	return "interaction_interaction_contacts"
}

// InteractionDITParticipant is an adviser (and their team at the time) taking part.
type InteractionDITParticipant struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InteractionID uuid.UUID  `gorm:"column:interaction_id;type:uuid;index" json:"interaction_id"`
	AdviserID     uuid.UUID  `gorm:"column:adviser_id;type:uuid" json:"adviser_id"`
	TeamID        *uuid.UUID `gorm:"column:team_id;type:uuid" json:"team_id"`
}

func (InteractionDITParticipant) TableName() string {
	return "interaction_interactionditparticipant"
}

func (p *InteractionDITParticipant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
