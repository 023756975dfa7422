package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Legacy ids of the breakdown types.
const (
	BreakdownTypeExport    = "1"
	BreakdownTypeNonExport = "2"
	BreakdownTypeODI       = "3"
)

// WinTotals are the per-type sums of a win's breakdown values.
type WinTotals struct {
	Export    int64
	NonExport int64
	ODI       int64
}

type breakdownSum struct {
	ExportWinID *string
	Total       int64
}

// SumBreakdowns adds up breakdown values for a win grouped by breakdown type.
// Types without breakdowns sum to 0.
func SumBreakdowns(db *gorm.DB, winID uuid.UUID) (WinTotals, error) {
	var rows []breakdownSum
	err := db.Table(Breakdown{}.TableName()+" AS b").
		Select("bt.export_win_id AS export_win_id, COALESCE(SUM(b.value), 0) AS total").
		Joins("JOIN "+BreakdownType{}.TableName()+" AS bt ON bt.id = b.type_id").
		Where("b.win_id = ?", winID).
		Group("bt.export_win_id").
		Scan(&rows).Error
	if err != nil {
		return WinTotals{}, err
	}
	var t WinTotals
	for _, r := range rows {
		if r.ExportWinID == nil {
			continue
		}
		switch *r.ExportWinID {
		case BreakdownTypeExport:
			t.Export = r.Total
		case BreakdownTypeNonExport:
			t.NonExport = r.Total
		case BreakdownTypeODI:
			t.ODI = r.Total
		}
	}
	return t, nil
}

// RecomputeWinTotals rewrites the totals of a win from its breakdowns.
// Migrated wins are left untouched.
func RecomputeWinTotals(db *gorm.DB, winID uuid.UUID) error {
	totals, err := SumBreakdowns(db, winID)
	if err != nil {
		return err
	}
	return db.Model(&Win{}).
		Where("id = ? AND migrated_on IS NULL", winID).
		UpdateColumns(map[string]interface{}{
			"total_expected_export_value":     totals.Export,
			"total_expected_non_export_value": totals.NonExport,
			"total_expected_odi_value":        totals.ODI,
		}).Error
}

// ApplyLegacyTotals recomputes totals for a migrated win, bypassing the migrated guard.
func ApplyLegacyTotals(db *gorm.DB, winID uuid.UUID) error {
	totals, err := SumBreakdowns(db, winID)
	if err != nil {
		return err
	}
	return db.Model(&Win{}).
		Where("id = ?", winID).
		UpdateColumns(map[string]interface{}{
			"total_expected_export_value":     totals.Export,
			"total_expected_non_export_value": totals.NonExport,
			"total_expected_odi_value":        totals.ODI,
		}).Error
}

func newSession(tx *gorm.DB) *gorm.DB {
	return tx.Session(&gorm.Session{NewDB: true})
}
