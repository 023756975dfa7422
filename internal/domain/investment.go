package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Investment project stages, in pipeline order.
const (
	StageProspect  = "prospect"
	StageAssignPM  = "assign_pm"
	StageActive    = "active"
	StageVerifyWin = "verify_win"
	StageWon       = "won"
)

// Investment project statuses.
const (
	ProjectStatusOngoing   = "ongoing"
	ProjectStatusDelayed   = "delayed"
	ProjectStatusDormant   = "dormant"
	ProjectStatusLost      = "lost"
	ProjectStatusAbandoned = "abandoned"
	ProjectStatusWon       = "won"
)

var stageOrder = map[string]int{
	StageProspect:  0,
	StageAssignPM:  1,
	StageActive:    2,
	StageVerifyWin: 3,
	StageWon:       4,
}

// IsValidStage reports whether s is a known stage.
func IsValidStage(s string) bool {
	_, ok := stageOrder[s]
	return ok
}

// IsValidProjectStatus reports whether s is a known status.
func IsValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusOngoing, ProjectStatusDelayed, ProjectStatusDormant,
		ProjectStatusLost, ProjectStatusAbandoned, ProjectStatusWon:
		return true
	}
	return false
}

// InvestmentProject tracks foreign direct investment into the UK.
type InvestmentProject struct {
	ID                          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProjectCode                 string     `gorm:"column:project_code;index" json:"project_code"`
	Name                        string     `gorm:"column:name;not null" json:"name"`
	Description                 string     `gorm:"column:description" json:"description"`
	InvestorCompanyID           *uuid.UUID `gorm:"column:investor_company_id;type:uuid;index" json:"investor_company_id"`
	Stage                       string     `gorm:"column:stage;not null" json:"stage"`
	Status                      string     `gorm:"column:status;not null" json:"status"`
	SectorID                    *uuid.UUID `gorm:"column:sector_id;type:uuid" json:"sector_id"`
	ForeignEquityInvestment     *int64     `gorm:"column:foreign_equity_investment" json:"foreign_equity_investment"`
	NumberNewJobs               *int       `gorm:"column:number_new_jobs" json:"number_new_jobs"`
	EstimatedLandDate           *time.Time `gorm:"column:estimated_land_date" json:"estimated_land_date"`
	ActualLandDate              *time.Time `gorm:"column:actual_land_date" json:"actual_land_date"`
	ClientRelationshipManagerID *uuid.UUID `gorm:"column:client_relationship_manager_id;type:uuid" json:"client_relationship_manager_id"`
	ProjectManagerID            *uuid.UUID `gorm:"column:project_manager_id;type:uuid" json:"project_manager_id"`
	ProjectAssuranceAdviserID   *uuid.UUID `gorm:"column:project_assurance_adviser_id;type:uuid" json:"project_assurance_adviser_id"`
	ProjectManagerFirstAssigned *time.Time `gorm:"column:project_manager_first_assigned_on" json:"project_manager_first_assigned_on"`
	ProposalDeadline            *time.Time `gorm:"column:proposal_deadline" json:"proposal_deadline"`
	GrossValueAdded             *float64   `gorm:"column:gross_value_added" json:"gross_value_added"`
	GVAMultiplierID             *uuid.UUID `gorm:"column:gva_multiplier_id;type:uuid" json:"gva_multiplier_id"`
	CreatedByID                 *uuid.UUID `gorm:"column:created_by_id;type:uuid" json:"created_by_id"`
	ModifiedByID                *uuid.UUID `gorm:"column:modified_by_id;type:uuid" json:"modified_by_id"`
	CreatedOn                   time.Time  `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	ModifiedOn                  time.Time  `gorm:"column:modified_on;autoUpdateTime" json:"modified_on"`
}

func (InvestmentProject) TableName() string {
	return "investment_investmentproject"
}

func (p *InvestmentProject) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.ProjectCode == "" {
		p.ProjectCode = "DHP-" + p.ID.String()[:8]
	}
	return nil
}

// InvestmentProjectStageLog records when a project entered a stage.
type InvestmentProjectStageLog struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InvestmentProjectID uuid.UUID `gorm:"column:investment_project_id;type:uuid;index" json:"investment_project_id"`
	Stage               string    `gorm:"column:stage;not null" json:"stage"`
	CreatedOn           time.Time `gorm:"column:created_on" json:"created_on"`
}

func (InvestmentProjectStageLog) TableName() string {
	return "investment_investmentprojectstagelog"
}

func (l *InvestmentProjectStageLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedOn.IsZero() {
		l.CreatedOn = time.Now().UTC()
	}
	return nil
}

// GVAMultiplier is the gross value added factor for a sector in a financial year.
type GVAMultiplier struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SectorID      uuid.UUID `gorm:"column:sector_id;type:uuid;index" json:"sector_id"`
	FinancialYear int       `gorm:"column:financial_year;not null" json:"financial_year"`
	Multiplier    float64   `gorm:"column:multiplier;not null" json:"multiplier"`
}

func (GVAMultiplier) TableName() string {
	return "investment_gvamultiplier"
}

func (m *GVAMultiplier) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// FinancialYear returns the UK financial year (starting 1 April) that t falls in.
func FinancialYear(t time.Time) int {
	if t.Month() >= time.April {
		return t.Year()
	}
	return t.Year() - 1
}

// StageIndex returns the pipeline position of a stage, -1 if unknown.
func StageIndex(stage string) int {
	if i, ok := stageOrder[stage]; ok {
		return i
	}
	return -1
}
