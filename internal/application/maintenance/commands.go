package maintenance

import (
	"errors"
	"fmt"

	"datahub-backend/internal/domain"
	"datahub-backend/internal/infrastructure/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Commands by CLI name.
var Commands = map[string]Command{
	UpdateCompanyGlobalHQ.Name:      UpdateCompanyGlobalHQ,
	UpdateCompanyHQType.Name:        UpdateCompanyHQType,
	UpdateLegacyExportWinsData.Name: UpdateLegacyExportWinsData,
}

// UpdateCompanyGlobalHQ reads id,global_hq_id. Without Overwrite, companies that
// already have a global headquarters are left alone.
var UpdateCompanyGlobalHQ = Command{
	Name: "update-company-global-hq",
	Process: func(tx *gorm.DB, row storage.Row, opts Options) (bool, error) {
		c, err := loadCompany(tx, row["id"])
		if err != nil {
			return false, err
		}
		ghq, err := optionalID(row, "global_hq_id")
		if err != nil {
			return false, err
		}
		if c.GlobalHeadquartersID != nil && !opts.Overwrite {
			return false, nil
		}
		if sameID(c.GlobalHeadquartersID, ghq) {
			return false, nil
		}
		if ghq != nil {
			if _, err := loadCompany(tx, ghq.String()); err != nil {
				return false, fmt.Errorf("global headquarters: %w", err)
			}
		}
		c.GlobalHeadquartersID = ghq
		if err := tx.Save(&c).Error; err != nil {
			return false, err
		}
		return true, domain.SaveRevision(tx, "Global HQ data migration.", nil, c)
	},
}

// UpdateCompanyHQType reads id,headquarter_type_id.
var UpdateCompanyHQType = Command{
	Name: "update-company-hq-type",
	Process: func(tx *gorm.DB, row storage.Row, _ Options) (bool, error) {
		c, err := loadCompany(tx, row["id"])
		if err != nil {
			return false, err
		}
		hqType, err := optionalID(row, "headquarter_type_id")
		if err != nil {
			return false, err
		}
		if sameID(c.HeadquarterTypeID, hqType) {
			return false, nil
		}
		if hqType != nil {
			if err := tx.Where("id = ?", *hqType).First(&domain.HeadquarterType{}).Error; err != nil {
				return false, fmt.Errorf("headquarter type %s: %w", hqType, err)
			}
		}
		c.HeadquarterTypeID = hqType
		if err := tx.Save(&c).Error; err != nil {
			return false, err
		}
		return true, domain.SaveRevision(tx, "Headquarter type data migration correction.", nil, c)
	},
}

var legacyWinColumns = []string{
	"company_name", "lead_officer_name", "lead_officer_email_address",
	"adviser_name", "adviser_email_address", "line_manager_name",
	"customer_name", "customer_job_title", "customer_email_address",
}

// UpdateLegacyExportWinsData rewrites the free text fallbacks of a win. A
// revision is stored before and after the change.
var UpdateLegacyExportWinsData = Command{
	Name: "update-legacy-export-wins-data",
	Process: func(tx *gorm.DB, row storage.Row, _ Options) (bool, error) {
		id, err := uuid.Parse(row["id"])
		if err != nil {
			return false, fmt.Errorf("win id %q: %w", row["id"], err)
		}
		var w domain.Win
		if err := tx.Where("id = ?", id).First(&w).Error; err != nil {
			return false, fmt.Errorf("win %s: %w", id, err)
		}
		if err := domain.SaveRevision(tx, "Legacy export wins data migration - before.", nil, w); err != nil {
			return false, err
		}

		w.CompanyName = text(row, "company_name")
		w.LeadOfficerName = text(row, "lead_officer_name")
		w.LeadOfficerEmailAddress = text(row, "lead_officer_email_address")
		w.AdviserName = text(row, "user_name")
		w.AdviserEmailAddress = text(row, "user_email")
		w.LineManagerName = text(row, "line_manager_name")
		w.CustomerName = text(row, "customer_name")
		w.CustomerJobTitle = text(row, "customer_job_title")
		w.CustomerEmailAddress = text(row, "customer_email_address")
		if err := tx.Model(&w).Select(legacyWinColumns).Updates(&w).Error; err != nil {
			return false, err
		}
		return true, domain.SaveRevision(tx, "Legacy export wins data migration - after.", nil, w)
	},
}

func loadCompany(tx *gorm.DB, raw string) (domain.Company, error) {
	var c domain.Company
	id, err := uuid.Parse(raw)
	if err != nil {
		return c, fmt.Errorf("company id %q: %w", raw, err)
	}
	err = tx.Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c, fmt.Errorf("company %s does not exist", id)
	}
	return c, err
}

func optionalID(row storage.Row, col string) (*uuid.UUID, error) {
	v := row.Nullable(col)
	if v == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*v)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", col, *v, err)
	}
	return &id, nil
}

func text(row storage.Row, col string) string {
	if v := row.Nullable(col); v != nil {
		return *v
	}
	return ""
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
