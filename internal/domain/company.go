package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Company is an organisation the department works with.
type Company struct {
	ID                      uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name                    string         `gorm:"column:name;not null;index" json:"name"`
	TradingNames            datatypes.JSON `gorm:"column:trading_names" json:"trading_names"`
	CompanyNumber           string         `gorm:"column:company_number;index" json:"company_number"`
	VATNumber               string         `gorm:"column:vat_number" json:"vat_number"`
	DunsNumber              *string        `gorm:"column:duns_number;uniqueIndex" json:"duns_number"`
	BusinessTypeID          *uuid.UUID     `gorm:"column:business_type_id;type:uuid" json:"business_type_id"`
	SectorID                *uuid.UUID     `gorm:"column:sector_id;type:uuid" json:"sector_id"`
	UKRegionID              *uuid.UUID     `gorm:"column:uk_region_id;type:uuid" json:"uk_region_id"`
	EmployeeRangeID         *uuid.UUID     `gorm:"column:employee_range_id;type:uuid" json:"employee_range_id"`
	TurnoverRangeID         *uuid.UUID     `gorm:"column:turnover_range_id;type:uuid" json:"turnover_range_id"`
	HeadquarterTypeID       *uuid.UUID     `gorm:"column:headquarter_type_id;type:uuid" json:"headquarter_type_id"`
	GlobalHeadquartersID    *uuid.UUID     `gorm:"column:global_headquarters_id;type:uuid;index" json:"global_headquarters_id"`
	OneListAccountOwnerID   *uuid.UUID     `gorm:"column:one_list_account_owner_id;type:uuid" json:"one_list_account_owner_id"`
	ExportExperienceID      *uuid.UUID     `gorm:"column:export_experience_id;type:uuid" json:"export_experience_id"`
	Address1                string         `gorm:"column:address_1" json:"address_1"`
	Address2                string         `gorm:"column:address_2" json:"address_2"`
	AddressTown             string         `gorm:"column:address_town" json:"address_town"`
	AddressCounty           string         `gorm:"column:address_county" json:"address_county"`
	AddressPostcode         string         `gorm:"column:address_postcode" json:"address_postcode"`
	AddressCountryID        *uuid.UUID     `gorm:"column:address_country_id;type:uuid" json:"address_country_id"`
	RegisteredAddress1      string         `gorm:"column:registered_address_1" json:"registered_address_1"`
	RegisteredAddressTown   string         `gorm:"column:registered_address_town" json:"registered_address_town"`
	RegisteredAddressPost   string         `gorm:"column:registered_address_postcode" json:"registered_address_postcode"`
	RegisteredAddressCtryID *uuid.UUID     `gorm:"column:registered_address_country_id;type:uuid" json:"registered_address_country_id"`
	Description             string         `gorm:"column:description" json:"description"`
	Website                 string         `gorm:"column:website" json:"website"`
	PendingDNBInvestigation bool           `gorm:"column:pending_dnb_investigation" json:"pending_dnb_investigation"`
	IsGlobalUltimate        bool           `gorm:"column:is_global_ultimate" json:"is_global_ultimate"`
	Archived                bool           `gorm:"column:archived;index" json:"archived"`
	ArchivedOn              *time.Time     `gorm:"column:archived_on" json:"archived_on"`
	ArchivedReason          string         `gorm:"column:archived_reason" json:"archived_reason"`
	ArchivedByID            *uuid.UUID     `gorm:"column:archived_by_id;type:uuid" json:"archived_by_id"`
	CreatedByID             *uuid.UUID     `gorm:"column:created_by_id;type:uuid" json:"created_by_id"`
	ModifiedByID            *uuid.UUID     `gorm:"column:modified_by_id;type:uuid" json:"modified_by_id"`
	CreatedOn               time.Time      `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	ModifiedOn              time.Time      `gorm:"column:modified_on;autoUpdateTime" json:"modified_on"`
}

func (Company) TableName() string {
	return "company_company"
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// BeforeSave derives is_global_ultimate: a D&B matched company that is nobody's subsidiary.
func (c *Company) BeforeSave(tx *gorm.DB) error {
	c.IsGlobalUltimate = c.DunsNumber != nil && *c.DunsNumber != "" && c.GlobalHeadquartersID == nil
	return nil
}

// Export country statuses.
const (
	ExportCountryCurrentlyExporting = "currently_exporting"
	ExportCountryFutureInterest     = "future_interest"
	ExportCountryNotInterested      = "not_interested"
)

// IsValidExportCountryStatus reports whether s is a known status.
func IsValidExportCountryStatus(s string) bool {
	switch s {
	case ExportCountryCurrentlyExporting, ExportCountryFutureInterest, ExportCountryNotInterested:
		return true
	}
	return false
}

// CompanyExportCountry is the canonical company/country export status.
type CompanyExportCountry struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyID    uuid.UUID  `gorm:"column:company_id;type:uuid;not null;uniqueIndex:uq_company_country" json:"company_id"`
	CountryID    uuid.UUID  `gorm:"column:country_id;type:uuid;not null;uniqueIndex:uq_company_country" json:"country_id"`
	Status       string     `gorm:"column:status;not null" json:"status"`
	CreatedByID  *uuid.UUID `gorm:"column:created_by_id;type:uuid" json:"created_by_id"`
	ModifiedByID *uuid.UUID `gorm:"column:modified_by_id;type:uuid" json:"modified_by_id"`
	CreatedOn    time.Time  `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	ModifiedOn   time.Time  `gorm:"column:modified_on;autoUpdateTime" json:"modified_on"`
}

func (CompanyExportCountry) TableName() string {
	return "company_companyexportcountry"
}

func (c *CompanyExportCountry) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// History types.
const (
	HistoryInsert = "insert"
	HistoryUpdate = "update"
	HistoryDelete = "delete"
)

// CompanyExportCountryHistory is an append-only log of export country changes.
type CompanyExportCountryHistory struct {
	HistoryID     uuid.UUID  `gorm:"column:history_id;type:uuid;primaryKey" json:"history_id"`
	ID            uuid.UUID  `gorm:"column:id;type:uuid;index" json:"id"`
	HistoryType   string     `gorm:"column:history_type;not null" json:"history_type"`
	HistoryDate   time.Time  `gorm:"column:history_date;not null" json:"history_date"`
	HistoryUserID *uuid.UUID `gorm:"column:history_user_id;type:uuid" json:"history_user_id"`
	CompanyID     uuid.UUID  `gorm:"column:company_id;type:uuid;index" json:"company_id"`
	CountryID     uuid.UUID  `gorm:"column:country_id;type:uuid" json:"country_id"`
	Status        string     `gorm:"column:status" json:"status"`
}

func (CompanyExportCountryHistory) TableName() string {
	return "company_companyexportcountryhistory"
}

func (h *CompanyExportCountryHistory) BeforeCreate(tx *gorm.DB) error {
	if h.HistoryID == uuid.Nil {
		h.HistoryID = uuid.New()
	}
	if h.HistoryDate.IsZero() {
		h.HistoryDate = time.Now().UTC()
	}
	return nil
}

// CompanyExportToCountry backs the legacy export_to_countries field.
type CompanyExportToCountry struct {
	CompanyID uuid.UUID `gorm:"column:company_id;type:uuid;primaryKey"`
	CountryID uuid.UUID `gorm:"column:country_id;type:uuid;primaryKey"`
}

func (CompanyExportToCountry) TableName() string {
	return "company_company_export_to_countries"
}

// CompanyFutureInterestCountry backs the legacy future_interest_countries field.
type CompanyFutureInterestCountry struct {
	CompanyID uuid.UUID `gorm:"column:company_id;type:uuid;primaryKey"`
	CountryID uuid.UUID `gorm:"column:country_id;type:uuid;primaryKey"`
}

func (CompanyFutureInterestCountry) TableName() string {
	return "company_company_future_interest_countries"
}
