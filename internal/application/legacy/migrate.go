// Package legacy copies wins, breakdowns and win advisers out of the legacy
// export wins service.
package legacy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"datahub-backend/internal/domain"
	"datahub-backend/internal/infrastructure/exportwinsapi"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Source streams the three legacy datasets. *exportwinsapi.Client is a Source.
type Source interface {
	Wins(ctx context.Context, fn func(exportwinsapi.LegacyWin) error) error
	Breakdowns(ctx context.Context, fn func(exportwinsapi.LegacyBreakdown) error) error
	Advisers(ctx context.Context, fn func(exportwinsapi.LegacyAdviser) error) error
}

// Stats counts what a migration run did.
type Stats struct {
	Wins       int `json:"wins"`
	Skipped    int `json:"skipped"`
	Breakdowns int `json:"breakdowns"`
	Advisers   int `json:"advisers"`
	Totals     int `json:"totals"`
}

type Migrator struct {
	DB     *gorm.DB
	Source Source
	Now    func() time.Time
}

func (m *Migrator) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

// MigrateAll runs wins, then breakdowns, then advisers, then recalculates totals.
// Re-running replaces what an earlier run wrote.
func (m *Migrator) MigrateAll(ctx context.Context) (Stats, error) {
	var st Stats
	err := m.Source.Wins(ctx, func(item exportwinsapi.LegacyWin) error {
		w, err := m.MigrateWin(ctx, item)
		if err != nil {
			return err
		}
		if w == nil {
			st.Skipped++
		} else {
			st.Wins++
		}
		return nil
	})
	if err != nil {
		return st, fmt.Errorf("migrate wins: %w", err)
	}
	err = m.Source.Breakdowns(ctx, func(item exportwinsapi.LegacyBreakdown) error {
		b, err := m.MigrateBreakdown(ctx, item)
		if b != nil {
			st.Breakdowns++
		}
		return err
	})
	if err != nil {
		return st, fmt.Errorf("migrate breakdowns: %w", err)
	}
	err = m.Source.Advisers(ctx, func(item exportwinsapi.LegacyAdviser) error {
		a, err := m.MigrateAdviser(ctx, item)
		if a != nil {
			st.Advisers++
		}
		return err
	})
	if err != nil {
		return st, fmt.Errorf("migrate advisers: %w", err)
	}
	if st.Totals, err = m.UpdateLegacyWinTotals(ctx); err != nil {
		return st, err
	}
	log.Info().Int("wins", st.Wins).Int("skipped", st.Skipped).
		Int("breakdowns", st.Breakdowns).Int("advisers", st.Advisers).
		Msg("legacy export wins migrated")
	return st, nil
}

// MigrateWin upserts a win and its customer response. It returns nil when the
// win was skipped because its country is unknown.
func (m *Migrator) MigrateWin(ctx context.Context, item exportwinsapi.LegacyWin) (*domain.Win, error) {
	id, err := uuid.Parse(item.ID)
	if err != nil {
		return nil, fmt.Errorf("legacy win id %q: %w", item.ID, err)
	}
	created, err := exportwinsapi.ParseTimestamp(item.Created)
	if err != nil {
		return nil, fmt.Errorf("legacy win %s: %w", id, err)
	}
	date, err := exportwinsapi.ParseTimestamp(item.Date)
	if err != nil {
		return nil, fmt.Errorf("legacy win %s: %w", id, err)
	}

	var out *domain.Win
	err = m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		countryID := byName(tx, &domain.Country{}, item.CountryName)
		if countryID == nil {
			log.Warn().Str("win_id", id.String()).Msg("country not found for legacy win")
			return nil
		}

		var w domain.Win
		res := tx.Where("id = ?", id).Limit(1).Find(&w)
		if res.Error != nil {
			return res.Error
		}
		exists := res.RowsAffected > 0
		if exists {
			if err := tx.Where("win_id = ?", id).Delete(&domain.Breakdown{}).Error; err != nil {
				return err
			}
			if err := tx.Where("win_id = ?", id).Delete(&domain.WinAdviser{}).Error; err != nil {
				return err
			}
		}

		now := m.now()
		w = domain.Win{
			ID:                          id,
			CountryID:                   countryID,
			Date:                        date,
			CreatedOn:                   created,
			MigratedOn:                  &now,
			IsDeleted:                   item.IsActive != nil && !*item.IsActive,
			BusinessType:                item.BusinessType,
			CDMSReference:               item.CDMSReference,
			Complete:                    item.Complete,
			Description:                 item.Description,
			HasHVOSpecialistInvolvement: item.HasHVOSpecialistInvolvement,
			IsEExported:                 item.IsEExported,
			IsLineManagerConfirmed:      item.IsLineManagerConfirmed,
			IsPersonallyConfirmed:       item.IsPersonallyConfirmed,
			IsProsperityFundRelated:     item.IsProsperityFundRelated,
			NameOfCustomer:              item.NameOfCustomer,
			NameOfExport:                item.NameOfExport,
			OtherOfficialEmailAddress:   item.OtherOfficialEmailAddress,
			BusinessPotentialID:         byExportWinID(tx, &domain.BusinessPotential{}, item.BusinessPotential),
			CustomerLocationID:          byExportWinID(tx, &domain.WinUKRegion{}, item.CustomerLocation),
			ExportExperienceID:          byName(tx, &domain.ExportExperience{}, item.ExportExperienceDisplay),
			GoodsVsServicesID:           byExportWinID(tx, &domain.ExpectedValueRelation{}, item.GoodsVsServices),
			HQTeamID:                    byExportWinID(tx, &domain.HQTeamRegionOrPost{}, item.HQTeam),
			HVCID:                       byExportWinID(tx, &domain.HVC{}, item.HVC),
			HVOProgrammeID:              byExportWinID(tx, &domain.HVOProgrammes{}, item.HVOProgramme),
			TeamTypeID:                  byExportWinID(tx, &domain.TeamType{}, item.TeamType),
			SectorID:                    byName(tx, &domain.Sector{}, item.SectorDisplay),
		}
		if item.Audit != nil {
			w.Audit = *item.Audit
		}

		if w.AdviserID = adviserByEmail(tx, item.UserEmail); w.AdviserID == nil {
			w.AdviserName, w.AdviserEmailAddress = item.UserName, item.UserEmail
		}
		if w.LeadOfficerID = resolveAdviser(tx, item.LeadOfficerEmailAddress, item.LeadOfficerName); w.LeadOfficerID == nil {
			w.LeadOfficerName, w.LeadOfficerEmailAddress = item.LeadOfficerName, item.LeadOfficerEmailAddress
		}
		if w.LineManagerID = adviserByName(tx, item.LineManagerName, false); w.LineManagerID == nil {
			w.LineManagerName = item.LineManagerName
		}

		var contacts []uuid.UUID
		if w.CompanyID = resolveCompany(tx, id); w.CompanyID == nil {
			w.CompanyName = item.CompanyName
		} else if c := resolveCompanyContact(tx, *w.CompanyID, item.CustomerName); c != nil {
			contacts = []uuid.UUID{*c}
		}
		if len(contacts) == 0 {
			w.CustomerName = item.CustomerName
			w.CustomerJobTitle = item.CustomerJobTitle
			w.CustomerEmailAddress = item.CustomerEmailAddress
		}

		if exists {
			err = tx.Save(&w).Error
		} else {
			err = tx.Create(&w).Error
		}
		if err != nil {
			return err
		}
		if err := setLinks(tx, id, contacts,
			resolveMany(tx, &domain.SupportType{}, item.TypesOfSupport()),
			resolveMany(tx, &domain.AssociatedProgramme{}, item.AssociatedProgrammes()),
		); err != nil {
			return err
		}
		if err := m.upsertCustomerResponse(tx, w, item); err != nil {
			return err
		}
		out = &w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func setLinks(tx *gorm.DB, winID uuid.UUID, contacts, support, programmes []uuid.UUID) error {
	for _, model := range []interface{}{&domain.WinCompanyContact{}, &domain.WinTypeOfSupport{}, &domain.WinAssociatedProgramme{}} {
		if err := tx.Where("win_id = ?", winID).Delete(model).Error; err != nil {
			return err
		}
	}
	for _, id := range contacts {
		if err := tx.Create(&domain.WinCompanyContact{WinID: winID, ContactID: id}).Error; err != nil {
			return err
		}
	}
	for _, id := range support {
		if err := tx.Create(&domain.WinTypeOfSupport{WinID: winID, SupportTypeID: id}).Error; err != nil {
			return err
		}
	}
	for _, id := range programmes {
		if err := tx.Create(&domain.WinAssociatedProgramme{WinID: winID, AssociatedProgrammeID: id}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) upsertCustomerResponse(tx *gorm.DB, w domain.Win, item exportwinsapi.LegacyWin) error {
	var cr domain.CustomerResponse
	res := tx.Where("win_id = ?", w.ID).Limit(1).Find(&cr)
	if res.Error != nil {
		return res.Error
	}
	exists := res.RowsAffected > 0

	cr.WinID = w.ID
	cr.CreatedOn = w.CreatedOn
	cr.AccessToContactsID = byExportWinID(tx, &domain.Rating{}, item.ConfirmationAccessToContacts)
	cr.AccessToInformationID = byExportWinID(tx, &domain.Rating{}, item.ConfirmationAccessToInformation)
	cr.DevelopedRelationshipsID = byExportWinID(tx, &domain.Rating{}, item.ConfirmationDevelopedRelationships)
	cr.GainedConfidenceID = byExportWinID(tx, &domain.Rating{}, item.ConfirmationGainedConfidence)
	cr.ImprovedProfileID = byExportWinID(tx, &domain.Rating{}, item.ConfirmationImprovedProfile)
	cr.OurSupportID = byExportWinID(tx, &domain.Rating{}, item.ConfirmationOurSupport)
	cr.OvercameProblemID = byExportWinID(tx, &domain.Rating{}, item.ConfirmationOvercameProblem)
	cr.LastExportID = byName(tx, &domain.Experience{}, item.ConfirmationLastExport)
	cr.MarketingSourceID = byName(tx, &domain.MarketingSource{}, item.ConfirmationMarketingSource)
	cr.ExpectedPortionWithoutHelpID = byName(tx, &domain.WithoutOurSupport{}, item.ConfirmationPortionWithoutHelp)
	cr.Comments = deref(item.ConfirmationComments)
	cr.Name = deref(item.ConfirmationName)
	cr.OtherMarketingSource = deref(item.ConfirmationOtherMarketingSource)
	cr.AgreeWithWin = item.ConfirmationAgreeWithWin
	cr.CaseStudyWilling = isTrue(item.ConfirmationCaseStudyWilling)
	cr.CompanyWasAtRiskOfNotExporting = isTrue(item.ConfirmationCompanyWasAtRisk)
	cr.HasEnabledExpansionIntoExistingMarket = isTrue(item.ConfirmationExpansionIntoExisting)
	cr.HasEnabledExpansionIntoNewMarket = isTrue(item.ConfirmationExpansionIntoNew)
	cr.HasExplicitExportPlans = isTrue(item.ConfirmationExplicitExportPlans)
	cr.HasIncreasedExportsAsPercentOfTurnover = isTrue(item.ConfirmationIncreasedExportsOfTurnover)
	cr.InterventionsWerePrerequisite = isTrue(item.ConfirmationInterventionsPrerequisite)
	cr.InvolvedStateEnterprise = isTrue(item.ConfirmationInvolvedStateEnterprise)
	cr.SupportImprovedSpeed = isTrue(item.ConfirmationSupportImprovedSpeed)
	cr.RespondedOn = nil
	if item.ConfirmationCreated != nil && *item.ConfirmationCreated != "" {
		t, err := exportwinsapi.ParseTimestamp(*item.ConfirmationCreated)
		if err != nil {
			return fmt.Errorf("legacy win %s confirmation: %w", w.ID, err)
		}
		cr.RespondedOn = &t
	}

	if exists {
		return tx.Save(&cr).Error
	}
	return tx.Create(&cr).Error
}

// MigrateBreakdown upserts a breakdown keyed by its legacy id. The legacy
// calendar year becomes a year relative to the win's financial year.
func (m *Migrator) MigrateBreakdown(ctx context.Context, item exportwinsapi.LegacyBreakdown) (*domain.Breakdown, error) {
	value, err := item.IntValue()
	if err != nil {
		return nil, err
	}
	var out *domain.Breakdown
	err = m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, ok, err := findWin(tx, item.WinID)
		if err != nil || !ok {
			if err == nil {
				log.Error().Int("breakdown_id", item.ID).Str("win_id", item.WinID).Msg("win not found for legacy breakdown")
			}
			return err
		}
		typeID := byExportWinID(tx, &domain.BreakdownType{}, item.Type)
		if typeID == nil {
			log.Warn().Int("breakdown_id", item.ID).Str("type", item.Type.Value).Msg("breakdown type not found")
			return nil
		}

		var b domain.Breakdown
		res := tx.Where("legacy_id = ?", item.ID).Limit(1).Find(&b)
		if res.Error != nil {
			return res.Error
		}
		legacyID := item.ID
		b.WinID = w.ID
		b.TypeID = *typeID
		b.Year = item.Year - domain.FinancialYear(w.Date) + 1
		b.Value = value
		b.LegacyID = &legacyID
		if res.RowsAffected > 0 {
			err = tx.Save(&b).Error
		} else {
			err = tx.Create(&b).Error
		}
		if err != nil {
			return err
		}
		out = &b
		return nil
	})
	return out, err
}

// MigrateAdviser upserts a win adviser keyed by its legacy id. The name is
// matched against active advisers and kept as free text when nobody matches.
func (m *Migrator) MigrateAdviser(ctx context.Context, item exportwinsapi.LegacyAdviser) (*domain.WinAdviser, error) {
	var out *domain.WinAdviser
	err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, ok, err := findWin(tx, item.WinID)
		if err != nil || !ok {
			if err == nil {
				log.Error().Int("adviser_id", item.ID).Str("win_id", item.WinID).Msg("win not found for legacy adviser")
			}
			return err
		}

		var a domain.WinAdviser
		res := tx.Where("legacy_id = ?", item.ID).Limit(1).Find(&a)
		if res.Error != nil {
			return res.Error
		}
		legacyID := item.ID
		a.WinID = w.ID
		a.LegacyID = &legacyID
		a.Location = item.Location
		a.HQTeamID = byExportWinID(tx, &domain.HQTeamRegionOrPost{}, item.HQTeam)
		a.TeamTypeID = byExportWinID(tx, &domain.TeamType{}, item.TeamType)
		a.Name = ""
		if a.AdviserID = adviserByName(tx, item.Name, true); a.AdviserID == nil {
			a.Name = item.Name
		}
		if res.RowsAffected > 0 {
			err = tx.Save(&a).Error
		} else {
			err = tx.Create(&a).Error
		}
		if err != nil {
			return err
		}
		out = &a
		return nil
	})
	return out, err
}

func findWin(tx *gorm.DB, rawID string) (domain.Win, bool, error) {
	var w domain.Win
	id, err := uuid.Parse(rawID)
	if err != nil {
		return w, false, nil
	}
	err = tx.Where("id = ?", id).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return w, false, nil
	}
	return w, err == nil, err
}

// UpdateLegacyWinTotals recalculates totals for every migrated win, deleted or not.
func (m *Migrator) UpdateLegacyWinTotals(ctx context.Context) (int, error) {
	var ids []uuid.UUID
	db := m.DB.WithContext(ctx)
	if err := db.Model(&domain.Win{}).Where("migrated_on IS NOT NULL").Order("id").Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	for i, id := range ids {
		if err := domain.ApplyLegacyTotals(db, id); err != nil {
			return i, fmt.Errorf("win %s totals: %w", id, err)
		}
	}
	return len(ids), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isTrue(b *bool) bool { return b != nil && *b }
