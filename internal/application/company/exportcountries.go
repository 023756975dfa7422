package company

import (
	"context"
	"fmt"
	"time"

	searchapp "datahub-backend/internal/application/search"
	"datahub-backend/internal/domain"
	"datahub-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UpdateExportDetails replaces the company's export countries with items.
// Rows missing from items are deleted, every change is written to the history table,
// and the export_to_countries / future_interest_countries links are rebuilt.
// A nil items slice means the key was absent from the payload.
func (s *Service) UpdateExportDetails(ctx context.Context, companyID uuid.UUID, items []ExportCountry, adviserID *uuid.UUID) error {
	var c domain.Company
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := first(tx, companyID, &c); err != nil {
			return err
		}
		if errs := validateExportCountries(tx, items); !errs.Empty() {
			return errs
		}

		var existing []domain.CompanyExportCountry
		if err := tx.Where("company_id = ?", companyID).Find(&existing).Error; err != nil {
			return err
		}
		byCountry := make(map[uuid.UUID]*domain.CompanyExportCountry, len(existing))
		for i := range existing {
			byCountry[existing[i].CountryID] = &existing[i]
		}

		now := time.Now().UTC()
		keep := make(map[uuid.UUID]bool, len(items))
		for _, item := range items {
			countryID := *item.Country.ID
			keep[countryID] = true
			row, ok := byCountry[countryID]
			if !ok {
				row = &domain.CompanyExportCountry{
					CompanyID:    companyID,
					CountryID:    countryID,
					Status:       item.Status,
					CreatedByID:  adviserID,
					ModifiedByID: adviserID,
				}
				if err := tx.Create(row).Error; err != nil {
					return fmt.Errorf("add export country: %w", err)
				}
				if err := writeHistory(tx, row, domain.HistoryInsert, adviserID, now); err != nil {
					return err
				}
				continue
			}
			if row.Status == item.Status {
				continue
			}
			row.Status = item.Status
			row.ModifiedByID = adviserID
			if err := tx.Save(row).Error; err != nil {
				return fmt.Errorf("update export country: %w", err)
			}
			if err := writeHistory(tx, row, domain.HistoryUpdate, adviserID, now); err != nil {
				return err
			}
		}

		for _, row := range existing {
			if keep[row.CountryID] {
				continue
			}
			if err := writeHistory(tx, &row, domain.HistoryDelete, adviserID, now); err != nil {
				return err
			}
			if err := tx.Delete(&domain.CompanyExportCountry{}, "id = ?", row.ID).Error; err != nil {
				return fmt.Errorf("delete export country: %w", err)
			}
		}

		if err := syncExportCountryFields(tx, companyID); err != nil {
			return err
		}
		c.ModifiedByID = adviserID
		return tx.Save(&c).Error
	})
	if err != nil {
		return err
	}
	searchapp.Publish(ctx, s.Search, searchapp.IndexCompany, c.ID, searchapp.NewCompanyDocument(c))
	return nil
}

func validateExportCountries(tx *gorm.DB, items []ExportCountry) validation.Errors {
	var errs validation.Errors
	if items == nil {
		errs.Add("export_countries", validation.MsgRequired)
		return errs
	}
	seen := make(map[uuid.UUID]bool, len(items))
	duplicate := false
	for i, item := range items {
		prefix := fmt.Sprintf("export_countries[%d].", i)
		switch {
		case item.Country.Invalid:
			errs.Add(prefix+"country", validation.MsgInvalidPK)
		case !item.Country.Set():
			errs.Add(prefix+"country", validation.MsgRequired)
		default:
			var n int64
			if err := tx.Model(&domain.Country{}).Where("id = ?", *item.Country.ID).Count(&n).Error; err != nil || n == 0 {
				errs.Add(prefix+"country", validation.MsgDoesNotExist)
			}
			if seen[*item.Country.ID] {
				duplicate = true
			}
			seen[*item.Country.ID] = true
		}
		if !domain.IsValidExportCountryStatus(item.Status) {
			errs.Add(prefix+"status", validation.MsgInvalidChoice)
		}
	}
	if duplicate {
		errs.Add(validation.NonFieldErrors, MsgDuplicateExportCountry)
	}
	return errs
}

func writeHistory(tx *gorm.DB, row *domain.CompanyExportCountry, kind string, adviserID *uuid.UUID, at time.Time) error {
	h := &domain.CompanyExportCountryHistory{
		ID:            row.ID,
		HistoryType:   kind,
		HistoryDate:   at,
		HistoryUserID: adviserID,
		CompanyID:     row.CompanyID,
		CountryID:     row.CountryID,
		Status:        row.Status,
	}
	if err := tx.Create(h).Error; err != nil {
		return fmt.Errorf("export country history: %w", err)
	}
	return nil
}

// syncExportCountryFields rebuilds the legacy country link tables from the canonical rows.
func syncExportCountryFields(tx *gorm.DB, companyID uuid.UUID) error {
	var rows []domain.CompanyExportCountry
	if err := tx.Where("company_id = ?", companyID).Find(&rows).Error; err != nil {
		return err
	}
	if err := tx.Where("company_id = ?", companyID).Delete(&domain.CompanyExportToCountry{}).Error; err != nil {
		return err
	}
	if err := tx.Where("company_id = ?", companyID).Delete(&domain.CompanyFutureInterestCountry{}).Error; err != nil {
		return err
	}
	var exporting []domain.CompanyExportToCountry
	var future []domain.CompanyFutureInterestCountry
	for _, r := range rows {
		switch r.Status {
		case domain.ExportCountryCurrentlyExporting:
			exporting = append(exporting, domain.CompanyExportToCountry{CompanyID: companyID, CountryID: r.CountryID})
		case domain.ExportCountryFutureInterest:
			future = append(future, domain.CompanyFutureInterestCountry{CompanyID: companyID, CountryID: r.CountryID})
		}
	}
	if len(exporting) > 0 {
		if err := tx.Create(&exporting).Error; err != nil {
			return err
		}
	}
	if len(future) > 0 {
		if err := tx.Create(&future).Error; err != nil {
			return err
		}
	}
	return nil
}
