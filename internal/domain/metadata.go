package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Metadata is the shape shared by every reference table.
type Metadata struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name       string     `gorm:"column:name;not null" json:"name"`
	DisabledOn *time.Time `gorm:"column:disabled_on" json:"disabled_on"`
}

func (m *Metadata) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// ExportWinMetadata carries the integer id used by the legacy export wins service.
type ExportWinMetadata struct {
	Metadata
	ExportWinID *string `gorm:"column:export_win_id;index" json:"export_win_id,omitempty"`
}

type Country struct {
	Metadata
	ISOAlpha2Code string `gorm:"column:iso_alpha2_code" json:"iso_alpha2_code"`
}

func (Country) TableName() string { return "metadata_country" }

type Sector struct {
	ExportWinMetadata
}

func (Sector) TableName() string { return "metadata_sector" }

type UKRegion struct {
	Metadata
}

func (UKRegion) TableName() string { return "metadata_ukregion" }

type BusinessType struct {
	Metadata
}

func (BusinessType) TableName() string { return "company_businesstype" }

type HeadquarterType struct {
	Metadata
}

func (HeadquarterType) TableName() string { return "metadata_headquartertype" }

type EmployeeRange struct {
	Metadata
}

func (EmployeeRange) TableName() string { return "metadata_employeerange" }

type TurnoverRange struct {
	Metadata
}

func (TurnoverRange) TableName() string { return "metadata_turnoverrange" }

type Team struct {
	Metadata
	UKRegionID *uuid.UUID `gorm:"column:uk_region_id;type:uuid" json:"uk_region_id"`
	CountryID  *uuid.UUID `gorm:"column:country_id;type:uuid" json:"country_id"`
}

func (Team) TableName() string { return "metadata_team" }

type ExportExperience struct {
	Metadata
}

func (ExportExperience) TableName() string { return "company_exportexperience" }

// Export win reference tables.

type BreakdownType struct {
	ExportWinMetadata
}

func (BreakdownType) TableName() string { return "export_win_breakdowntype" }

type Rating struct {
	ExportWinMetadata
}

func (Rating) TableName() string { return "export_win_rating" }

type Experience struct {
	ExportWinMetadata
}

func (Experience) TableName() string { return "export_win_experience" }

type MarketingSource struct {
	ExportWinMetadata
}

func (MarketingSource) TableName() string { return "export_win_marketingsource" }

type WithoutOurSupport struct {
	ExportWinMetadata
}

func (WithoutOurSupport) TableName() string { return "export_win_withoutoursupport" }

type HVC struct {
	ExportWinMetadata
	CampaignID    string `gorm:"column:campaign_id" json:"campaign_id"`
	FinancialYear int    `gorm:"column:financial_year" json:"financial_year"`
}

func (HVC) TableName() string { return "export_win_hvc" }

type HVOProgrammes struct {
	ExportWinMetadata
}

func (HVOProgrammes) TableName() string { return "export_win_hvoprogrammes" }

type SupportType struct {
	ExportWinMetadata
}

func (SupportType) TableName() string { return "export_win_supporttype" }

type AssociatedProgramme struct {
	ExportWinMetadata
}

func (AssociatedProgramme) TableName() string { return "export_win_associatedprogramme" }

type TeamType struct {
	ExportWinMetadata
}

func (TeamType) TableName() string { return "export_win_teamtype" }

type HQTeamRegionOrPost struct {
	ExportWinMetadata
	TeamTypeID *uuid.UUID `gorm:"column:team_type_id;type:uuid" json:"team_type_id"`
}

func (HQTeamRegionOrPost) TableName() string { return "export_win_hqteamregionorpost" }

type WinUKRegion struct {
	ExportWinMetadata
}

func (WinUKRegion) TableName() string { return "export_win_winukregion" }

type ExpectedValueRelation struct {
	ExportWinMetadata
}

func (ExpectedValueRelation) TableName() string { return "export_win_expectedvaluerelation" }

type BusinessPotential struct {
	ExportWinMetadata
}

func (BusinessPotential) TableName() string { return "export_win_businesspotential" }

type WinType struct {
	ExportWinMetadata
}

func (WinType) TableName() string { return "export_win_wintype" }
