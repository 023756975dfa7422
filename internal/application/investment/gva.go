package investment

import (
	"errors"
	"math"
	"time"

	"datahub-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// firstMultiplierYear is the earliest financial year with multiplier data.
const firstMultiplierYear = 2019

// multiplierYear is the financial year whose multiplier applies to p.
func multiplierYear(p *domain.InvestmentProject, now time.Time) int {
	if p.ActualLandDate == nil {
		return domain.FinancialYear(now)
	}
	fy := domain.FinancialYear(*p.ActualLandDate)
	if fy < firstMultiplierYear {
		return firstMultiplierYear
	}
	return fy
}

// findMultiplier returns the sector multiplier for the year, else the latest one on record.
func findMultiplier(tx *gorm.DB, p *domain.InvestmentProject, now time.Time) (*domain.GVAMultiplier, error) {
	if p.SectorID == nil {
		return nil, nil
	}
	year := multiplierYear(p, now)
	var m domain.GVAMultiplier
	err := tx.Where("sector_id = ? AND financial_year = ?", *p.SectorID, year).First(&m).Error
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	err = tx.Where("sector_id = ?", *p.SectorID).Order("financial_year DESC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if m.FinancialYear > year {
		log.Warn().Int("financial_year", year).Str("sector_id", p.SectorID.String()).
			Msg("no gva multiplier for financial year, using latest")
	}
	return &m, nil
}

// SetGrossValueAdded recomputes the multiplier and gross value added of p.
func SetGrossValueAdded(tx *gorm.DB, p *domain.InvestmentProject, now time.Time) error {
	m, err := findMultiplier(tx, p, now)
	if err != nil {
		return err
	}
	p.GVAMultiplierID = nil
	p.GrossValueAdded = nil
	if m == nil {
		return nil
	}
	p.GVAMultiplierID = &m.ID
	if p.ForeignEquityInvestment == nil || *p.ForeignEquityInvestment == 0 {
		return nil
	}
	gva := math.Ceil(m.Multiplier * float64(*p.ForeignEquityInvestment))
	p.GrossValueAdded = &gva
	return nil
}
