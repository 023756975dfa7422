// Package search builds search documents and queries for the Data Hub entities.
package search

import (
	"context"
	"encoding/json"
	"time"

	"datahub-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Index names, before the cluster prefix is applied.
const (
	IndexCompany           = "company"
	IndexContact           = "contact"
	IndexInteraction       = "interaction"
	IndexInvestmentProject = "investment_project"
	IndexExportWin         = "export_win"
)

// Indexer stores one document.
type Indexer interface {
	Index(ctx context.Context, index, id string, doc interface{}) error
}

// Publish indexes doc and only logs failures, so writes never fail on search.
func Publish(ctx context.Context, idx Indexer, index string, id uuid.UUID, doc interface{}) {
	if idx == nil {
		return
	}
	if err := idx.Index(ctx, index, id.String(), doc); err != nil {
		log.Warn().Err(err).Str("index", index).Str("id", id.String()).Msg("search sync failed")
	}
}

type CompanyDocument struct {
	ID                   uuid.UUID       `json:"id"`
	Name                 string          `json:"name"`
	TradingNames         json.RawMessage `json:"trading_names,omitempty"`
	CompanyNumber        string          `json:"company_number"`
	DunsNumber           *string         `json:"duns_number"`
	SectorID             *uuid.UUID      `json:"sector_id"`
	UKRegionID           *uuid.UUID      `json:"uk_region_id"`
	HeadquarterTypeID    *uuid.UUID      `json:"headquarter_type_id"`
	GlobalHeadquartersID *uuid.UUID      `json:"global_headquarters_id"`
	AddressTown          string          `json:"address_town"`
	AddressPostcode      string          `json:"address_postcode"`
	AddressCountryID     *uuid.UUID      `json:"address_country_id"`
	IsGlobalUltimate     bool            `json:"is_global_ultimate"`
	Archived             bool            `json:"archived"`
	CreatedOn            time.Time       `json:"created_on"`
	ModifiedOn           time.Time       `json:"modified_on"`
}

func NewCompanyDocument(c domain.Company) CompanyDocument {
	var names json.RawMessage
	if len(c.TradingNames) > 0 {
		names = json.RawMessage(c.TradingNames)
	}
	return CompanyDocument{
		ID:                   c.ID,
		Name:                 c.Name,
		TradingNames:         names,
		CompanyNumber:        c.CompanyNumber,
		DunsNumber:           c.DunsNumber,
		SectorID:             c.SectorID,
		UKRegionID:           c.UKRegionID,
		HeadquarterTypeID:    c.HeadquarterTypeID,
		GlobalHeadquartersID: c.GlobalHeadquartersID,
		AddressTown:          c.AddressTown,
		AddressPostcode:      c.AddressPostcode,
		AddressCountryID:     c.AddressCountryID,
		IsGlobalUltimate:     c.IsGlobalUltimate,
		Archived:             c.Archived,
		CreatedOn:            c.CreatedOn,
		ModifiedOn:           c.ModifiedOn,
	}
}

type ContactDocument struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	JobTitle   string     `json:"job_title"`
	Email      string     `json:"email"`
	CompanyID  *uuid.UUID `json:"company_id"`
	Archived   bool       `json:"archived"`
	CreatedOn  time.Time  `json:"created_on"`
	ModifiedOn time.Time  `json:"modified_on"`
}

func NewContactDocument(c domain.Contact) ContactDocument {
	return ContactDocument{
		ID:         c.ID,
		Name:       c.Name(),
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		JobTitle:   c.JobTitle,
		Email:      c.Email,
		CompanyID:  c.CompanyID,
		Archived:   c.Archived,
		CreatedOn:  c.CreatedOn,
		ModifiedOn: c.ModifiedOn,
	}
}

type InteractionDocument struct {
	ID                  uuid.UUID  `json:"id"`
	Kind                string     `json:"kind"`
	Subject             string     `json:"subject"`
	Date                time.Time  `json:"date"`
	CompanyID           uuid.UUID  `json:"company_id"`
	InvestmentProjectID *uuid.UUID `json:"investment_project_id"`
	Status              string     `json:"status"`
	CreatedOn           time.Time  `json:"created_on"`
	ModifiedOn          time.Time  `json:"modified_on"`
}

func NewInteractionDocument(i domain.Interaction) InteractionDocument {
	return InteractionDocument{
		ID:                  i.ID,
		Kind:                i.Kind,
		Subject:             i.Subject,
		Date:                i.Date,
		CompanyID:           i.CompanyID,
		InvestmentProjectID: i.InvestmentProjectID,
		Status:              i.Status,
		CreatedOn:           i.CreatedOn,
		ModifiedOn:          i.ModifiedOn,
	}
}

type InvestmentProjectDocument struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	ProjectCode       string     `json:"project_code"`
	Stage             string     `json:"stage"`
	Status            string     `json:"status"`
	InvestorCompanyID *uuid.UUID `json:"investor_company_id"`
	SectorID          *uuid.UUID `json:"sector_id"`
	EstimatedLandDate *time.Time `json:"estimated_land_date"`
	GrossValueAdded   *float64   `json:"gross_value_added"`
	CreatedOn         time.Time  `json:"created_on"`
	ModifiedOn        time.Time  `json:"modified_on"`
}

func NewInvestmentProjectDocument(p domain.InvestmentProject) InvestmentProjectDocument {
	return InvestmentProjectDocument{
		ID:                p.ID,
		Name:              p.Name,
		ProjectCode:       p.ProjectCode,
		Stage:             p.Stage,
		Status:            p.Status,
		InvestorCompanyID: p.InvestorCompanyID,
		SectorID:          p.SectorID,
		EstimatedLandDate: p.EstimatedLandDate,
		GrossValueAdded:   p.GrossValueAdded,
		CreatedOn:         p.CreatedOn,
		ModifiedOn:        p.ModifiedOn,
	}
}

type WinDocument struct {
	ID                          uuid.UUID  `json:"id"`
	CompanyID                   *uuid.UUID `json:"company_id"`
	CompanyName                 string     `json:"company_name"`
	NameOfExport                string     `json:"name_of_export"`
	Description                 string     `json:"description"`
	CountryID                   *uuid.UUID `json:"country_id"`
	SectorID                    *uuid.UUID `json:"sector_id"`
	AdviserID                   *uuid.UUID `json:"adviser_id"`
	LeadOfficerID               *uuid.UUID `json:"lead_officer_id"`
	Date                        time.Time  `json:"date"`
	TotalExpectedExportValue    int64      `json:"total_expected_export_value"`
	TotalExpectedNonExportValue int64      `json:"total_expected_non_export_value"`
	TotalExpectedODIValue       int64      `json:"total_expected_odi_value"`
	IsDeleted                   bool       `json:"is_deleted"`
	CreatedOn                   time.Time  `json:"created_on"`
	ModifiedOn                  time.Time  `json:"modified_on"`
}

func NewWinDocument(w domain.Win) WinDocument {
	return WinDocument{
		ID:                          w.ID,
		CompanyID:                   w.CompanyID,
		CompanyName:                 w.CompanyName,
		NameOfExport:                w.NameOfExport,
		Description:                 w.Description,
		CountryID:                   w.CountryID,
		SectorID:                    w.SectorID,
		AdviserID:                   w.AdviserID,
		LeadOfficerID:               w.LeadOfficerID,
		Date:                        w.Date,
		TotalExpectedExportValue:    w.TotalExpectedExportValue,
		TotalExpectedNonExportValue: w.TotalExpectedNonExportValue,
		TotalExpectedODIValue:       w.TotalExpectedODIValue,
		IsDeleted:                   w.IsDeleted,
		CreatedOn:                   w.CreatedOn,
		ModifiedOn:                  w.ModifiedOn,
	}
}
