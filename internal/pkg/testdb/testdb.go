// Package testdb opens migrated in-memory databases and builds fixtures for tests.
package testdb

import (
	"testing"
	"time"

	"datahub-backend/internal/domain"
	"datahub-backend/internal/infrastructure/database"
	"datahub-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated in-memory SQLite database.
// A single connection keeps every query on the same in-memory database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func strPtr(s string) *string { return &s }

// ExportWinMetadata is the reference data export win tests rely on.
type ExportWinMetadata struct {
	Export, NonExport, ODI domain.BreakdownType
	Country                domain.Country
	GoodsVsServices        domain.ExpectedValueRelation
	TeamType               domain.TeamType
	HQTeam                 domain.HQTeamRegionOrPost
	Sector                 domain.Sector
	SupportType            domain.SupportType
	AssociatedProgramme    domain.AssociatedProgramme
	Rating                 domain.Rating
}

// SeedExportWinMetadata inserts one row per export win reference table.
func SeedExportWinMetadata(t testing.TB, db *gorm.DB) ExportWinMetadata {
	t.Helper()
	m := ExportWinMetadata{}
	m.Export.Name, m.Export.ExportWinID = "Export", strPtr(domain.BreakdownTypeExport)
	m.NonExport.Name, m.NonExport.ExportWinID = "Non-export", strPtr(domain.BreakdownTypeNonExport)
	m.ODI.Name, m.ODI.ExportWinID = "Outward Direct Investment", strPtr(domain.BreakdownTypeODI)
	m.Country.ID, m.Country.Name, m.Country.ISOAlpha2Code = constants.CountryCanada, "Canada", "CA"
	m.GoodsVsServices.Name, m.GoodsVsServices.ExportWinID = "Goods", strPtr("1")
	m.TeamType.Name, m.TeamType.ExportWinID = "International Trade Team", strPtr("itt")
	m.HQTeam.Name, m.HQTeam.ExportWinID = "DIT Team East Midlands - International Trade Team", strPtr("itt:DIT Team East Midlands - International Trade Team")
	m.Sector.Name, m.Sector.ExportWinID = "Aerospace", strPtr("1")
	m.SupportType.Name, m.SupportType.ExportWinID = "Market entry advice and support", strPtr("1")
	m.AssociatedProgramme.Name, m.AssociatedProgramme.ExportWinID = "Afterburner", strPtr("1")
	m.Rating.Name, m.Rating.ExportWinID = "5 - Strongly agree", strPtr("5")

	for _, row := range []interface{}{
		&m.Export, &m.NonExport, &m.ODI, &m.Country, &m.GoodsVsServices, &m.TeamType,
		&m.HQTeam, &m.Sector, &m.SupportType, &m.AssociatedProgramme, &m.Rating,
	} {
		require.NoError(t, db.Create(row).Error)
	}
	return m
}

// CompanyMetadata is the reference data company tests rely on.
type CompanyMetadata struct {
	UK, US          domain.Country
	GHQ, EHQ, UKHQ  domain.HeadquarterType
	UKEstablishment domain.BusinessType
	Limited         domain.BusinessType
	Sector          domain.Sector
	London          domain.UKRegion
}

// SeedCompanyMetadata inserts countries, headquarter types and business types.
func SeedCompanyMetadata(t testing.TB, db *gorm.DB) CompanyMetadata {
	t.Helper()
	m := CompanyMetadata{}
	m.UK.ID, m.UK.Name, m.UK.ISOAlpha2Code = constants.CountryUnitedKingdom, "United Kingdom", "GB"
	m.US.ID, m.US.Name, m.US.ISOAlpha2Code = constants.CountryUnitedStates, "United States", "US"
	m.GHQ.ID, m.GHQ.Name = constants.HeadquarterTypeGHQ, "ghq"
	m.EHQ.ID, m.EHQ.Name = constants.HeadquarterTypeEHQ, "ehq"
	m.UKHQ.ID, m.UKHQ.Name = constants.HeadquarterTypeUKHQ, "ukhq"
	m.UKEstablishment.ID, m.UKEstablishment.Name = constants.BusinessTypeUKEstablishment, "UK establishment"
	m.Limited.Name = "Company"
	m.Sector.Name = "Retail"
	m.London.Name = "London"
	for _, row := range []interface{}{
		&m.UK, &m.US, &m.GHQ, &m.EHQ, &m.UKHQ, &m.UKEstablishment, &m.Limited, &m.Sector, &m.London,
	} {
		require.NoError(t, db.Create(row).Error)
	}
	return m
}

// Adviser creates an active adviser.
func Adviser(t testing.TB, db *gorm.DB, first, last, email string) domain.Adviser {
	t.Helper()
	a := domain.Adviser{
		FirstName:    first,
		LastName:     last,
		Email:        email,
		ContactEmail: email,
		IsActive:     true,
		Role:         constants.Adviser,
	}
	require.NoError(t, db.Create(&a).Error)
	return a
}

// Company creates a company with a UK address.
func Company(t testing.TB, db *gorm.DB, name string) domain.Company {
	t.Helper()
	uk := constants.CountryUnitedKingdom
	c := domain.Company{
		Name:             name,
		Address1:         "1 Main Street",
		AddressTown:      "London",
		AddressCountryID: &uk,
	}
	require.NoError(t, db.Create(&c).Error)
	return c
}

// Contact creates a contact at company.
func Contact(t testing.TB, db *gorm.DB, companyID uuid.UUID, first, last, email string) domain.Contact {
	t.Helper()
	c := domain.Contact{
		CompanyID: &companyID,
		FirstName: first,
		LastName:  last,
		Email:     email,
	}
	require.NoError(t, db.Create(&c).Error)
	return c
}

// Win creates a bare win with the given lead officer and adviser.
func Win(t testing.TB, db *gorm.DB, m ExportWinMetadata, companyID uuid.UUID, adviserID, leadOfficerID uuid.UUID) domain.Win {
	t.Helper()
	w := domain.Win{
		AdviserID:         &adviserID,
		LeadOfficerID:     &leadOfficerID,
		CompanyID:         &companyID,
		CountryID:         &m.Country.ID,
		GoodsVsServicesID: &m.GoodsVsServices.ID,
		SectorID:          &m.Sector.ID,
		Date:              time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Description:       "Sold aircraft parts",
		NameOfExport:      "Aircraft parts",
	}
	require.NoError(t, db.Create(&w).Error)
	return w
}
