package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Win is an export win: a company exporting with departmental support.
//
// The three total_expected_* columns are derived from breakdowns for every
// win created in Data Hub. Migrated wins keep the totals they came with.
type Win struct {
	ID                          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AdviserID                   *uuid.UUID `gorm:"column:adviser_id;type:uuid;index" json:"adviser_id"`
	AdviserName                 string     `gorm:"column:adviser_name" json:"adviser_name"`
	AdviserEmailAddress         string     `gorm:"column:adviser_email_address" json:"adviser_email_address"`
	CompanyID                   *uuid.UUID `gorm:"column:company_id;type:uuid;index" json:"company_id"`
	CompanyName                 string     `gorm:"column:company_name" json:"company_name"`
	CustomerName                string     `gorm:"column:customer_name" json:"customer_name"`
	CustomerJobTitle            string     `gorm:"column:customer_job_title" json:"customer_job_title"`
	CustomerEmailAddress        string     `gorm:"column:customer_email_address" json:"customer_email_address"`
	CustomerLocationID          *uuid.UUID `gorm:"column:customer_location_id;type:uuid" json:"customer_location_id"`
	BusinessType                string     `gorm:"column:business_type" json:"business_type"`
	Description                 string     `gorm:"column:description" json:"description"`
	NameOfCustomer              string     `gorm:"column:name_of_customer" json:"name_of_customer"`
	NameOfCustomerConfidential  bool       `gorm:"column:name_of_customer_confidential" json:"name_of_customer_confidential"`
	NameOfExport                string     `gorm:"column:name_of_export" json:"name_of_export"`
	Date                        time.Time  `gorm:"column:date" json:"date"`
	CountryID                   *uuid.UUID `gorm:"column:country_id;type:uuid" json:"country_id"`
	TypeID                      *uuid.UUID `gorm:"column:type_id;type:uuid" json:"type_id"`
	TotalExpectedExportValue    int64      `gorm:"column:total_expected_export_value;not null;default:0" json:"total_expected_export_value"`
	TotalExpectedNonExportValue int64      `gorm:"column:total_expected_non_export_value;not null;default:0" json:"total_expected_non_export_value"`
	TotalExpectedODIValue       int64      `gorm:"column:total_expected_odi_value;not null;default:0" json:"total_expected_odi_value"`
	GoodsVsServicesID           *uuid.UUID `gorm:"column:goods_vs_services_id;type:uuid" json:"goods_vs_services_id"`
	SectorID                    *uuid.UUID `gorm:"column:sector_id;type:uuid" json:"sector_id"`
	IsProsperityFundRelated     bool       `gorm:"column:is_prosperity_fund_related" json:"is_prosperity_fund_related"`
	HVCID                       *uuid.UUID `gorm:"column:hvc_id;type:uuid" json:"hvc_id"`
	HVOProgrammeID              *uuid.UUID `gorm:"column:hvo_programme_id;type:uuid" json:"hvo_programme_id"`
	HasHVOSpecialistInvolvement bool       `gorm:"column:has_hvo_specialist_involvement" json:"has_hvo_specialist_involvement"`
	IsEExported                 bool       `gorm:"column:is_e_exported" json:"is_e_exported"`
	IsPersonallyConfirmed       bool       `gorm:"column:is_personally_confirmed" json:"is_personally_confirmed"`
	IsLineManagerConfirmed      bool       `gorm:"column:is_line_manager_confirmed" json:"is_line_manager_confirmed"`
	LeadOfficerID               *uuid.UUID `gorm:"column:lead_officer_id;type:uuid;index" json:"lead_officer_id"`
	LeadOfficerName             string     `gorm:"column:lead_officer_name" json:"lead_officer_name"`
	LeadOfficerEmailAddress     string     `gorm:"column:lead_officer_email_address" json:"lead_officer_email_address"`
	LineManagerID               *uuid.UUID `gorm:"column:line_manager_id;type:uuid" json:"line_manager_id"`
	LineManagerName             string     `gorm:"column:line_manager_name" json:"line_manager_name"`
	OtherOfficialEmailAddress   string     `gorm:"column:other_official_email_address" json:"other_official_email_address"`
	TeamTypeID                  *uuid.UUID `gorm:"column:team_type_id;type:uuid" json:"team_type_id"`
	HQTeamID                    *uuid.UUID `gorm:"column:hq_team_id;type:uuid" json:"hq_team_id"`
	BusinessPotentialID         *uuid.UUID `gorm:"column:business_potential_id;type:uuid" json:"business_potential_id"`
	ExportExperienceID          *uuid.UUID `gorm:"column:export_experience_id;type:uuid" json:"export_experience_id"`
	Location                    string     `gorm:"column:location" json:"location"`
	CDMSReference               string     `gorm:"column:cdms_reference" json:"cdms_reference"`
	Complete                    bool       `gorm:"column:complete" json:"complete"`
	Audit                       string     `gorm:"column:audit" json:"audit"`
	IsAnonymousWin              bool       `gorm:"column:is_anonymous_win" json:"is_anonymous_win"`
	IsDeleted                   bool       `gorm:"column:is_deleted;index" json:"is_deleted"`
	FirstSent                   *time.Time `gorm:"column:first_sent" json:"first_sent"`
	LastSent                    *time.Time `gorm:"column:last_sent" json:"last_sent"`
	MigratedOn                  *time.Time `gorm:"column:migrated_on" json:"migrated_on"`
	CreatedByID                 *uuid.UUID `gorm:"column:created_by_id;type:uuid" json:"created_by_id"`
	ModifiedByID                *uuid.UUID `gorm:"column:modified_by_id;type:uuid" json:"modified_by_id"`
	CreatedOn                   time.Time  `gorm:"column:created_on" json:"created_on"`
	ModifiedOn                  time.Time  `gorm:"column:modified_on;autoUpdateTime" json:"modified_on"`
}

func (Win) TableName() string {
	return "export_win_win"
}

func (w *Win) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.CreatedOn.IsZero() {
		w.CreatedOn = time.Now().UTC()
	}
	return nil
}

// BeforeSave keeps the totals in line with the stored breakdowns.
func (w *Win) BeforeSave(tx *gorm.DB) error {
	if w.MigratedOn != nil || w.ID == uuid.Nil {
		return nil
	}
	totals, err := SumBreakdowns(newSession(tx), w.ID)
	if err != nil {
		return err
	}
	w.TotalExpectedExportValue = totals.Export
	w.TotalExpectedNonExportValue = totals.NonExport
	w.TotalExpectedODIValue = totals.ODI
	return nil
}

// ActiveWins excludes soft deleted wins.
func ActiveWins(db *gorm.DB) *gorm.DB {
	return db.Where("export_win_win.is_deleted = ?", false)
}

// Breakdown is an expected value for one year of a win.
type Breakdown struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	WinID     uuid.UUID `gorm:"column:win_id;type:uuid;not null;index" json:"win_id"`
	TypeID    uuid.UUID `gorm:"column:type_id;type:uuid;not null" json:"type_id"`
	Year      int       `gorm:"column:year;not null" json:"year"`
	Value     int64     `gorm:"column:value;not null" json:"value"`
	LegacyID  *int      `gorm:"column:legacy_id;index" json:"-"`
	CreatedOn time.Time `gorm:"column:created_on;autoCreateTime" json:"created_on"`
}

func (Breakdown) TableName() string {
	return "export_win_breakdown"
}

func (b *Breakdown) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// AfterSave recalculates the owning win's totals.
func (b *Breakdown) AfterSave(tx *gorm.DB) error {
	if b.WinID == uuid.Nil {
		return nil
	}
	return RecomputeWinTotals(newSession(tx), b.WinID)
}

// AfterDelete recalculates the owning win's totals when a single breakdown is removed.
func (b *Breakdown) AfterDelete(tx *gorm.DB) error {
	if b.WinID == uuid.Nil {
		return nil
	}
	return RecomputeWinTotals(newSession(tx), b.WinID)
}

// WinAdviser credits an adviser (or a named person) for contributing to a win.
type WinAdviser struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	WinID      uuid.UUID  `gorm:"column:win_id;type:uuid;not null;index" json:"win_id"`
	AdviserID  *uuid.UUID `gorm:"column:adviser_id;type:uuid" json:"adviser_id"`
	Name       string     `gorm:"column:name" json:"name"`
	TeamTypeID *uuid.UUID `gorm:"column:team_type_id;type:uuid" json:"team_type_id"`
	HQTeamID   *uuid.UUID `gorm:"column:hq_team_id;type:uuid" json:"hq_team_id"`
	Location   string     `gorm:"column:location" json:"location"`
	LegacyID   *int       `gorm:"column:legacy_id;index" json:"-"`
	CreatedOn  time.Time  `gorm:"column:created_on;autoCreateTime" json:"created_on"`
}

func (WinAdviser) TableName() string {
	return "export_win_winadviser"
}

func (a *WinAdviser) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// CustomerResponse is the customer's confirmation of a win. One per win.
type CustomerResponse struct {
	ID                                     uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	WinID                                  uuid.UUID  `gorm:"column:win_id;type:uuid;not null;uniqueIndex" json:"win_id"`
	OurSupportID                           *uuid.UUID `gorm:"column:our_support_id;type:uuid" json:"our_support_id"`
	AccessToContactsID                     *uuid.UUID `gorm:"column:access_to_contacts_id;type:uuid" json:"access_to_contacts_id"`
	AccessToInformationID                  *uuid.UUID `gorm:"column:access_to_information_id;type:uuid" json:"access_to_information_id"`
	ImprovedProfileID                      *uuid.UUID `gorm:"column:improved_profile_id;type:uuid" json:"improved_profile_id"`
	GainedConfidenceID                     *uuid.UUID `gorm:"column:gained_confidence_id;type:uuid" json:"gained_confidence_id"`
	DevelopedRelationshipsID               *uuid.UUID `gorm:"column:developed_relationships_id;type:uuid" json:"developed_relationships_id"`
	OvercameProblemID                      *uuid.UUID `gorm:"column:overcame_problem_id;type:uuid" json:"overcame_problem_id"`
	InvolvedStateEnterprise                bool       `gorm:"column:involved_state_enterprise" json:"involved_state_enterprise"`
	InterventionsWerePrerequisite          bool       `gorm:"column:interventions_were_prerequisite" json:"interventions_were_prerequisite"`
	SupportImprovedSpeed                   bool       `gorm:"column:support_improved_speed" json:"support_improved_speed"`
	ExpectedPortionWithoutHelpID           *uuid.UUID `gorm:"column:expected_portion_without_help_id;type:uuid" json:"expected_portion_without_help_id"`
	LastExportID                           *uuid.UUID `gorm:"column:last_export_id;type:uuid" json:"last_export_id"`
	CompanyWasAtRiskOfNotExporting         bool       `gorm:"column:company_was_at_risk_of_not_exporting" json:"company_was_at_risk_of_not_exporting"`
	HasExplicitExportPlans                 bool       `gorm:"column:has_explicit_export_plans" json:"has_explicit_export_plans"`
	HasEnabledExpansionIntoNewMarket       bool       `gorm:"column:has_enabled_expansion_into_new_market" json:"has_enabled_expansion_into_new_market"`
	HasIncreasedExportsAsPercentOfTurnover bool       `gorm:"column:has_increased_exports_as_percent_of_turnover" json:"has_increased_exports_as_percent_of_turnover"`
	HasEnabledExpansionIntoExistingMarket  bool       `gorm:"column:has_enabled_expansion_into_existing_market" json:"has_enabled_expansion_into_existing_market"`
	AgreeWithWin                           *bool      `gorm:"column:agree_with_win" json:"agree_with_win"`
	CaseStudyWilling                       bool       `gorm:"column:case_study_willing" json:"case_study_willing"`
	Comments                               string     `gorm:"column:comments" json:"comments"`
	Name                                   string     `gorm:"column:name" json:"name"`
	MarketingSourceID                      *uuid.UUID `gorm:"column:marketing_source_id;type:uuid" json:"marketing_source_id"`
	OtherMarketingSource                   string     `gorm:"column:other_marketing_source" json:"other_marketing_source"`
	RespondedOn                            *time.Time `gorm:"column:responded_on" json:"responded_on"`
	LeadOfficerEmailNotificationID         string     `gorm:"column:lead_officer_email_notification_id" json:"-"`
	CreatedOn                              time.Time  `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	ModifiedOn                             time.Time  `gorm:"column:modified_on;autoUpdateTime" json:"modified_on"`
}

func (CustomerResponse) TableName() string {
	return "export_win_customerresponse"
}

func (r *CustomerResponse) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// CustomerResponseToken grants a company contact access to a customer response until ExpiresOn.
type CustomerResponseToken struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ExpiresOn           time.Time `gorm:"column:expires_on;not null" json:"expires_on"`
	CompanyContactID    uuid.UUID `gorm:"column:company_contact_id;type:uuid;not null;index" json:"company_contact_id"`
	CustomerResponseID  uuid.UUID `gorm:"column:customer_response_id;type:uuid;not null;index" json:"customer_response_id"`
	TimesUsed           int       `gorm:"column:times_used;not null;default:0" json:"times_used"`
	EmailNotificationID string    `gorm:"column:email_notification_id" json:"-"`
	CreatedOn           time.Time `gorm:"column:created_on;autoCreateTime" json:"created_on"`
}

func (CustomerResponseToken) TableName() string {
	return "export_win_customerresponsetoken"
}

func (t *CustomerResponseToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the token can no longer be used at now.
func (t CustomerResponseToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresOn)
}

// LegacyExportWinsToDataHubCompany maps a legacy win id to a Data Hub company.
type LegacyExportWinsToDataHubCompany struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyID *uuid.UUID `gorm:"column:company_id;type:uuid" json:"company_id"`
}

func (LegacyExportWinsToDataHubCompany) TableName() string {
	return "export_win_legacyexportwinstodatahubcompany"
}

// Win link tables.

type WinCompanyContact struct {
	WinID     uuid.UUID `gorm:"column:win_id;type:uuid;primaryKey"`
	ContactID uuid.UUID `gorm:"column:contact_id;type:uuid;primaryKey"`
}

func (WinCompanyContact) TableName() string { return "export_win_win_company_contacts" }

type WinTypeOfSupport struct {
	WinID         uuid.UUID `gorm:"column:win_id;type:uuid;primaryKey"`
	SupportTypeID uuid.UUID `gorm:"column:supporttype_id;type:uuid;primaryKey"`
}

func (WinTypeOfSupport) TableName() string { return "export_win_win_type_of_support" }

type WinAssociatedProgramme struct {
	WinID                 uuid.UUID `gorm:"column:win_id;type:uuid;primaryKey"`
	AssociatedProgrammeID uuid.UUID `gorm:"column:associatedprogramme_id;type:uuid;primaryKey"`
}

func (WinAssociatedProgramme) TableName() string { return "export_win_win_associated_programme" }

type WinTeamMember struct {
	WinID     uuid.UUID `gorm:"column:win_id;type:uuid;primaryKey"`
	AdviserID uuid.UUID `gorm:"column:advisor_id;type:uuid;primaryKey"`
}

func (WinTeamMember) TableName() string { return "export_win_win_team_members" }
