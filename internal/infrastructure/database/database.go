package database

import (
	"datahub-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens a GORM DB from DSN.
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind PgBouncer.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
}

// Models lists every table owned by the service, reference tables first.
func Models() []interface{} {
	return []interface{}{
		&domain.Country{},
		&domain.Sector{},
		&domain.UKRegion{},
		&domain.BusinessType{},
		&domain.HeadquarterType{},
		&domain.EmployeeRange{},
		&domain.TurnoverRange{},
		&domain.Team{},
		&domain.ExportExperience{},
		&domain.BreakdownType{},
		&domain.Rating{},
		&domain.Experience{},
		&domain.MarketingSource{},
		&domain.WithoutOurSupport{},
		&domain.HVC{},
		&domain.HVOProgrammes{},
		&domain.SupportType{},
		&domain.AssociatedProgramme{},
		&domain.TeamType{},
		&domain.HQTeamRegionOrPost{},
		&domain.WinUKRegion{},
		&domain.ExpectedValueRelation{},
		&domain.BusinessPotential{},
		&domain.WinType{},

		&domain.Adviser{},
		&domain.Company{},
		&domain.CompanyExportCountry{},
		&domain.CompanyExportCountryHistory{},
		&domain.CompanyExportToCountry{},
		&domain.CompanyFutureInterestCountry{},
		&domain.Contact{},
		&domain.Interaction{},
		&domain.InteractionContact{},
		&domain.InteractionDITParticipant{},
		&domain.InvestmentProject{},
		&domain.InvestmentProjectStageLog{},
		&domain.GVAMultiplier{},

		&domain.Win{},
		&domain.Breakdown{},
		&domain.WinAdviser{},
		&domain.CustomerResponse{},
		&domain.CustomerResponseToken{},
		&domain.LegacyExportWinsToDataHubCompany{},
		&domain.WinCompanyContact{},
		&domain.WinTypeOfSupport{},
		&domain.WinAssociatedProgramme{},
		&domain.WinTeamMember{},

		&domain.Revision{},
		&domain.Version{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
