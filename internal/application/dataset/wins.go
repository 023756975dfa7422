package dataset

import (
	"context"
	"time"

	"datahub-backend/internal/domain"
	"datahub-backend/internal/infrastructure/exportwinsapi"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WinRow is one win in the layout of the legacy wins dataset, plus Data Hub totals.
// Empty text is null.
type WinRow struct {
	ID                          uuid.UUID         `json:"id"`
	Created                     time.Time         `json:"created"`
	CreatedOn                   time.Time         `json:"created_on"`
	Audit                       *string           `json:"audit"`
	BusinessType                *string           `json:"business_type"`
	Date                        string            `json:"date"`
	Description                 *string           `json:"description"`
	HasHVOSpecialistInvolvement bool              `json:"has_hvo_specialist_involvement"`
	IsEExported                 bool              `json:"is_e_exported"`
	IsLineManagerConfirmed      bool              `json:"is_line_manager_confirmed"`
	IsPersonallyConfirmed       bool              `json:"is_personally_confirmed"`
	IsProsperityFundRelated     bool              `json:"is_prosperity_fund_related"`
	LineManagerName             *string           `json:"line_manager_name"`
	NameOfCustomer              *string           `json:"name_of_customer"`
	NameOfExport                *string           `json:"name_of_export"`
	OtherOfficialEmailAddress   *string           `json:"other_official_email_address"`
	TotalExpectedExportValue    int64             `json:"total_expected_export_value"`
	TotalExpectedNonExportValue int64             `json:"total_expected_non_export_value"`
	TotalExpectedODIValue       int64             `json:"total_expected_odi_value"`
	BusinessPotentialDisplay    *string           `json:"business_potential_display"`
	Country                     *string           `json:"country"`
	CountryName                 *string           `json:"country_name"`
	CustomerLocationDisplay     *string           `json:"customer_location_display"`
	ExportExperienceDisplay     *string           `json:"export_experience_display"`
	GoodsVsServicesDisplay      *string           `json:"goods_vs_services_display"`
	HQTeamDisplay               *string           `json:"hq_team_display"`
	HVC                         exportwinsapi.Ref `json:"hvc"`
	HVOProgrammeDisplay         *string           `json:"hvo_programme_display"`
	SectorDisplay               *string           `json:"sector_display"`
	TeamTypeDisplay             *string           `json:"team_type_display"`
	CompanyName                 *string           `json:"company_name"`
	CDMSReference               *string           `json:"cdms_reference"`
	Complete                    bool              `json:"complete"`
	NumNotifications            int               `json:"num_notifications"`
	CustomerEmailDate           *time.Time        `json:"customer_email_date"`
	UserName                    *string           `json:"user__name"`
	UserEmail                   *string           `json:"user__email"`
	LeadOfficerName             *string           `json:"lead_officer_name"`
	LeadOfficerEmailAddress     *string           `json:"lead_officer_email_address"`
	CustomerName                *string           `json:"customer_name"`
	CustomerEmailAddress        *string           `json:"customer_email_address"`
	CustomerJobTitle            *string           `json:"customer_job_title"`

	AssociatedProgramme1 *string `json:"associated_programme_1"`
	AssociatedProgramme2 *string `json:"associated_programme_2"`
	AssociatedProgramme3 *string `json:"associated_programme_3"`
	AssociatedProgramme4 *string `json:"associated_programme_4"`
	AssociatedProgramme5 *string `json:"associated_programme_5"`
	TypeOfSupport1       *string `json:"type_of_support_1"`
	TypeOfSupport2       *string `json:"type_of_support_2"`
	TypeOfSupport3       *string `json:"type_of_support_3"`

	Confirmation
}

// Confirmation is the customer response. Ratings are the legacy numeric ids
// and everything but the free text is null until the customer responds.
type Confirmation struct {
	Created                 *time.Time        `json:"confirmation__created"`
	AgreeWithWin            *bool             `json:"confirmation__agree_with_win"`
	Comments                *string           `json:"confirmation__comments"`
	Name                    *string           `json:"confirmation__name"`
	OtherMarketingSource    *string           `json:"confirmation__other_marketing_source"`
	LastExport              *string           `json:"confirmation_last_export"`
	MarketingSource         *string           `json:"confirmation_marketing_source"`
	PortionWithoutHelp      *string           `json:"confirmation_portion_without_help"`
	AccessToContacts        exportwinsapi.Ref `json:"confirmation__access_to_contacts"`
	AccessToInformation     exportwinsapi.Ref `json:"confirmation__access_to_information"`
	DevelopedRelationships  exportwinsapi.Ref `json:"confirmation__developed_relationships"`
	GainedConfidence        exportwinsapi.Ref `json:"confirmation__gained_confidence"`
	ImprovedProfile         exportwinsapi.Ref `json:"confirmation__improved_profile"`
	OurSupport              exportwinsapi.Ref `json:"confirmation__our_support"`
	OvercameProblem         exportwinsapi.Ref `json:"confirmation__overcame_problem"`
	CaseStudyWilling        *bool             `json:"confirmation__case_study_willing"`
	CompanyWasAtRisk        *bool             `json:"confirmation__company_was_at_risk_of_not_exporting"`
	ExpansionIntoExisting   *bool             `json:"confirmation__has_enabled_expansion_into_existing_market"`
	ExpansionIntoNew        *bool             `json:"confirmation__has_enabled_expansion_into_new_market"`
	ExplicitExportPlans     *bool             `json:"confirmation__has_explicit_export_plans"`
	IncreasedExports        *bool             `json:"confirmation__has_increased_exports_as_percent_of_turnover"`
	InterventionsPrereq     *bool             `json:"confirmation__interventions_were_prerequisite"`
	InvolvedStateEnterprise *bool             `json:"confirmation__involved_state_enterprise"`
	SupportImprovedSpeed    *bool             `json:"confirmation__support_improved_speed"`
}

type refRow struct {
	ID          uuid.UUID
	Name        string
	ExportWinID *string
}

// refTable loads a whole reference table keyed by id.
func refTable(db *gorm.DB, table string, withLegacyID bool) (map[uuid.UUID]refRow, error) {
	cols := "id, name"
	if withLegacyID {
		cols += ", export_win_id"
	}
	var rows []refRow
	if err := db.Table(table).Select(cols).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]refRow, len(rows))
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}

type lookups map[string]map[uuid.UUID]refRow

func (l lookups) name(table string, id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	if r, ok := l[table][*id]; ok {
		return nullable(r.Name)
	}
	return nil
}

func (l lookups) code(table string, id *uuid.UUID) exportwinsapi.Ref {
	if id == nil {
		return exportwinsapi.Ref{}
	}
	return ref(l[table][*id].ExportWinID)
}

var refTables = map[string]bool{
	"export_win_businesspotential":     false,
	"metadata_country":                 false,
	"export_win_winukregion":           false,
	"company_exportexperience":         false,
	"export_win_expectedvaluerelation": false,
	"export_win_hqteamregionorpost":    false,
	"export_win_hvc":                   true,
	"export_win_hvoprogrammes":         false,
	"metadata_sector":                  false,
	"export_win_teamtype":              false,
	"export_win_rating":                true,
	"export_win_experience":            false,
	"export_win_marketingsource":       false,
	"export_win_withoutoursupport":     false,
}

type tokenStats struct {
	Sent     int
	LastSent *time.Time
}

type winContact struct {
	WinID     uuid.UUID
	FirstName string
	LastName  string
	Email     string
	JobTitle  string
}

type winLink struct {
	WinID uuid.UUID
	Name  string
}

func (s *Service) Wins(ctx context.Context, page, size int) (Page[WinRow], error) {
	db := s.DB.WithContext(ctx)
	var wins []domain.Win
	q := s.winFilter(db.Model(&domain.Win{}), "migrated_on").Order("created_on, id")
	if err := pageQuery(q, page, size).Find(&wins).Error; err != nil {
		return Page[WinRow]{}, err
	}
	pg := trim(wins, size)
	if len(pg.Results) == 0 {
		return Page[WinRow]{Results: []WinRow{}}, nil
	}

	look := lookups{}
	for table, withLegacyID := range refTables {
		m, err := refTable(db, table, withLegacyID)
		if err != nil {
			return Page[WinRow]{}, err
		}
		look[table] = m
	}

	var countries []domain.Country
	if err := db.Select("id, iso_alpha2_code").Find(&countries).Error; err != nil {
		return Page[WinRow]{}, err
	}
	countryCodes := make(map[uuid.UUID]string, len(countries))
	for _, c := range countries {
		countryCodes[c.ID] = c.ISOAlpha2Code
	}

	ids := make([]uuid.UUID, 0, len(pg.Results))
	var adviserIDs, companyIDs []uuid.UUID
	for _, w := range pg.Results {
		ids = append(ids, w.ID)
		for _, id := range []*uuid.UUID{w.AdviserID, w.LeadOfficerID} {
			if id != nil {
				adviserIDs = append(adviserIDs, *id)
			}
		}
		if w.CompanyID != nil {
			companyIDs = append(companyIDs, *w.CompanyID)
		}
	}

	advisers := map[uuid.UUID]domain.Adviser{}
	if len(adviserIDs) > 0 {
		var rows []domain.Adviser
		if err := db.Where("id IN ?", adviserIDs).Find(&rows).Error; err != nil {
			return Page[WinRow]{}, err
		}
		for _, a := range rows {
			advisers[a.ID] = a
		}
	}
	companies := map[uuid.UUID]domain.Company{}
	if len(companyIDs) > 0 {
		var rows []domain.Company
		if err := db.Select("id, name, company_number").Where("id IN ?", companyIDs).Find(&rows).Error; err != nil {
			return Page[WinRow]{}, err
		}
		for _, c := range rows {
			companies[c.ID] = c
		}
	}

	var responses []domain.CustomerResponse
	if err := db.Where("win_id IN ?", ids).Find(&responses).Error; err != nil {
		return Page[WinRow]{}, err
	}
	byWin := make(map[uuid.UUID]domain.CustomerResponse, len(responses))
	crIDs := make([]uuid.UUID, 0, len(responses))
	for _, cr := range responses {
		byWin[cr.WinID] = cr
		crIDs = append(crIDs, cr.ID)
	}

	tokens := map[uuid.UUID]tokenStats{}
	if len(crIDs) > 0 {
		var rows []domain.CustomerResponseToken
		if err := db.Select("customer_response_id, created_on").
			Where("customer_response_id IN ?", crIDs).
			Find(&rows).Error; err != nil {
			return Page[WinRow]{}, err
		}
		for _, t := range rows {
			st := tokens[t.CustomerResponseID]
			st.Sent++
			if st.LastSent == nil || t.CreatedOn.After(*st.LastSent) {
				created := t.CreatedOn
				st.LastSent = &created
			}
			tokens[t.CustomerResponseID] = st
		}
	}

	var contacts []winContact
	if err := db.Table("export_win_win_company_contacts AS l").
		Select("l.win_id, c.first_name, c.last_name, c.email, c.job_title").
		Joins("JOIN company_contact AS c ON c.id = l.contact_id").
		Where("l.win_id IN ?", ids).
		Order("c.id").
		Scan(&contacts).Error; err != nil {
		return Page[WinRow]{}, err
	}
	firstContact := map[uuid.UUID]winContact{}
	for _, c := range contacts {
		if _, ok := firstContact[c.WinID]; !ok {
			firstContact[c.WinID] = c
		}
	}

	programmes, err := links(db, "export_win_win_associated_programme", "associatedprogramme_id", "export_win_associatedprogramme", ids)
	if err != nil {
		return Page[WinRow]{}, err
	}
	support, err := links(db, "export_win_win_type_of_support", "supporttype_id", "export_win_supporttype", ids)
	if err != nil {
		return Page[WinRow]{}, err
	}

	rows := make([]WinRow, 0, len(pg.Results))
	for _, w := range pg.Results {
		row := WinRow{
			ID:                          w.ID,
			Created:                     w.CreatedOn,
			CreatedOn:                   w.CreatedOn,
			Audit:                       nullable(w.Audit),
			BusinessType:                nullable(w.BusinessType),
			Date:                        w.Date.Format("2006-01-02"),
			Description:                 nullable(w.Description),
			HasHVOSpecialistInvolvement: w.HasHVOSpecialistInvolvement,
			IsEExported:                 w.IsEExported,
			IsLineManagerConfirmed:      w.IsLineManagerConfirmed,
			IsPersonallyConfirmed:       w.IsPersonallyConfirmed,
			IsProsperityFundRelated:     w.IsProsperityFundRelated,
			LineManagerName:             nullable(w.LineManagerName),
			NameOfCustomer:              nullable(w.NameOfCustomer),
			NameOfExport:                nullable(w.NameOfExport),
			OtherOfficialEmailAddress:   nullable(w.OtherOfficialEmailAddress),
			TotalExpectedExportValue:    w.TotalExpectedExportValue,
			TotalExpectedNonExportValue: w.TotalExpectedNonExportValue,
			TotalExpectedODIValue:       w.TotalExpectedODIValue,
			BusinessPotentialDisplay:    look.name("export_win_businesspotential", w.BusinessPotentialID),
			CountryName:                 look.name("metadata_country", w.CountryID),
			CustomerLocationDisplay:     look.name("export_win_winukregion", w.CustomerLocationID),
			ExportExperienceDisplay:     look.name("company_exportexperience", w.ExportExperienceID),
			GoodsVsServicesDisplay:      look.name("export_win_expectedvaluerelation", w.GoodsVsServicesID),
			HQTeamDisplay:               look.name("export_win_hqteamregionorpost", w.HQTeamID),
			HVC:                         look.code("export_win_hvc", w.HVCID),
			HVOProgrammeDisplay:         look.name("export_win_hvoprogrammes", w.HVOProgrammeID),
			SectorDisplay:               look.name("metadata_sector", w.SectorID),
			TeamTypeDisplay:             look.name("export_win_teamtype", w.TeamTypeID),
			CompanyName:                 nullable(w.CompanyName),
			CDMSReference:               nullable(w.CDMSReference),
			UserName:                    nullable(w.AdviserName),
			UserEmail:                   nullable(w.AdviserEmailAddress),
			LeadOfficerName:             nullable(w.LeadOfficerName),
			LeadOfficerEmailAddress:     nullable(w.LeadOfficerEmailAddress),
			CustomerName:                nullable(w.CustomerName),
			CustomerEmailAddress:        nullable(w.CustomerEmailAddress),
			CustomerJobTitle:            nullable(w.CustomerJobTitle),
		}
		if w.CountryID != nil {
			row.Country = nullable(countryCodes[*w.CountryID])
		}
		if w.AdviserID != nil {
			if a, ok := advisers[*w.AdviserID]; ok {
				row.UserName, row.UserEmail = nullable(a.Name()), nullable(a.ContactEmail)
			}
		}
		if w.LeadOfficerID != nil {
			if a, ok := advisers[*w.LeadOfficerID]; ok {
				row.LeadOfficerName, row.LeadOfficerEmailAddress = nullable(a.Name()), nullable(a.ContactEmail)
			}
		}
		if w.CompanyID != nil {
			if c, ok := companies[*w.CompanyID]; ok {
				row.CompanyName = nullable(c.Name)
				if w.CDMSReference == "" {
					row.CDMSReference = nullable(c.CompanyNumber)
				}
			}
		}
		if c, ok := firstContact[w.ID]; ok {
			row.CustomerName = nullable(fullName(c.FirstName, c.LastName))
			row.CustomerEmailAddress = nullable(c.Email)
			row.CustomerJobTitle = nullable(c.JobTitle)
		}
		setIndexed(programmes[w.ID], &row.AssociatedProgramme1, &row.AssociatedProgramme2,
			&row.AssociatedProgramme3, &row.AssociatedProgramme4, &row.AssociatedProgramme5)
		setIndexed(support[w.ID], &row.TypeOfSupport1, &row.TypeOfSupport2, &row.TypeOfSupport3)

		row.Complete = w.Complete
		if cr, ok := byWin[w.ID]; ok {
			t := tokens[cr.ID]
			row.NumNotifications = t.Sent
			row.CustomerEmailDate = t.LastSent
			if w.MigratedOn == nil {
				row.Complete = t.Sent > 0
			}
			row.Confirmation = confirmation(look, cr, row.CustomerName)
		}
		rows = append(rows, row)
	}
	return Page[WinRow]{Results: rows, HasNext: pg.HasNext}, nil
}

func confirmation(look lookups, cr domain.CustomerResponse, customerName *string) Confirmation {
	c := Confirmation{
		AgreeWithWin:         cr.AgreeWithWin,
		Comments:             nullable(cr.Comments),
		Name:                 customerName,
		OtherMarketingSource: nullable(cr.OtherMarketingSource),
		LastExport:           look.name("export_win_experience", cr.LastExportID),
		MarketingSource:      look.name("export_win_marketingsource", cr.MarketingSourceID),
		PortionWithoutHelp:   look.name("export_win_withoutoursupport", cr.ExpectedPortionWithoutHelpID),
	}
	if cr.RespondedOn == nil {
		return c
	}
	b := func(v bool) *bool { return &v }
	c.Created = cr.RespondedOn
	c.AccessToContacts = look.code("export_win_rating", cr.AccessToContactsID)
	c.AccessToInformation = look.code("export_win_rating", cr.AccessToInformationID)
	c.DevelopedRelationships = look.code("export_win_rating", cr.DevelopedRelationshipsID)
	c.GainedConfidence = look.code("export_win_rating", cr.GainedConfidenceID)
	c.ImprovedProfile = look.code("export_win_rating", cr.ImprovedProfileID)
	c.OurSupport = look.code("export_win_rating", cr.OurSupportID)
	c.OvercameProblem = look.code("export_win_rating", cr.OvercameProblemID)
	c.CaseStudyWilling = b(cr.CaseStudyWilling)
	c.CompanyWasAtRisk = b(cr.CompanyWasAtRiskOfNotExporting)
	c.ExpansionIntoExisting = b(cr.HasEnabledExpansionIntoExistingMarket)
	c.ExpansionIntoNew = b(cr.HasEnabledExpansionIntoNewMarket)
	c.ExplicitExportPlans = b(cr.HasExplicitExportPlans)
	c.IncreasedExports = b(cr.HasIncreasedExportsAsPercentOfTurnover)
	c.InterventionsPrereq = b(cr.InterventionsWerePrerequisite)
	c.InvolvedStateEnterprise = b(cr.InvolvedStateEnterprise)
	c.SupportImprovedSpeed = b(cr.SupportImprovedSpeed)
	return c
}

// links returns the names linked to each win through a many-to-many table, ordered by name.
func links(db *gorm.DB, table, column, target string, winIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	var rows []winLink
	err := db.Table(table+" AS l").
		Select("l.win_id, t.name").
		Joins("JOIN "+target+" AS t ON t.id = l."+column).
		Where("l.win_id IN ?", winIDs).
		Order("t.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[uuid.UUID][]string{}
	for _, r := range rows {
		out[r.WinID] = append(out[r.WinID], r.Name)
	}
	return out, nil
}

// setIndexed spreads names over numbered columns; extra names are dropped.
func setIndexed(names []string, cols ...**string) {
	for i := range cols {
		if i < len(names) {
			*cols[i] = nullable(names[i])
		}
	}
}
