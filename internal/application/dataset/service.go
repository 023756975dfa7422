// Package dataset serves flat export win datasets for downstream analysis.
package dataset

import (
	"context"
	"time"

	"datahub-backend/internal/domain"
	"datahub-backend/internal/infrastructure/exportwinsapi"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultPageSize = 100

type Service struct {
	DB *gorm.DB
	// IncludeLegacy adds wins copied from the legacy service to every dataset.
	IncludeLegacy bool
}

// Page is one page of a dataset. HasNext reports whether page+1 has rows.
type Page[T any] struct {
	Results []T
	HasNext bool
}

// pageQuery fetches one extra row to learn whether another page follows.
func pageQuery(q *gorm.DB, page, size int) *gorm.DB {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	return q.Offset((page - 1) * size).Limit(size + 1)
}

func trim[T any](rows []T, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	if len(rows) > size {
		return Page[T]{Results: rows[:size], HasNext: true}
	}
	if rows == nil {
		rows = []T{}
	}
	return Page[T]{Results: rows}
}

func (s *Service) winFilter(db *gorm.DB, column string) *gorm.DB {
	if s.IncludeLegacy {
		return db
	}
	return db.Where(column + " IS NULL")
}

// BreakdownRow is one breakdown with its year as a financial year.
type BreakdownRow struct {
	ID            *int      `json:"id"`
	WinID         uuid.UUID `json:"win__id"`
	BreakdownType string    `json:"breakdown_type"`
	Year          int       `json:"year"`
	Value         int64     `json:"value"`
	CreatedOn     time.Time `json:"created_on"`
}

type breakdownScan struct {
	LegacyID  *int
	WinID     uuid.UUID
	TypeName  string
	Year      int
	Value     int64
	CreatedOn time.Time
	WinDate   time.Time
}

func (s *Service) Breakdowns(ctx context.Context, page, size int) (Page[BreakdownRow], error) {
	var scans []breakdownScan
	q := s.DB.WithContext(ctx).
		Table("export_win_breakdown AS b").
		Select("b.legacy_id, b.win_id, t.name AS type_name, b.year, b.value, b.created_on, w.date AS win_date").
		Joins("JOIN export_win_win AS w ON w.id = b.win_id").
		Joins("LEFT JOIN export_win_breakdowntype AS t ON t.id = b.type_id").
		Order("b.created_on, b.id")
	if err := pageQuery(s.winFilter(q, "w.migrated_on"), page, size).Scan(&scans).Error; err != nil {
		return Page[BreakdownRow]{}, err
	}
	rows := make([]BreakdownRow, 0, len(scans))
	for _, b := range scans {
		rows = append(rows, BreakdownRow{
			ID:            b.LegacyID,
			WinID:         b.WinID,
			BreakdownType: b.TypeName,
			Year:          domain.FinancialYear(b.WinDate) + b.Year - 1,
			Value:         b.Value,
			CreatedOn:     b.CreatedOn,
		})
	}
	return trim(rows, size), nil
}

// AdviserRow is one contributing adviser of a win.
type AdviserRow struct {
	ID              *int              `json:"id"`
	WinID           uuid.UUID         `json:"win__id"`
	Name            string            `json:"name"`
	Location        string            `json:"location"`
	HQTeam          exportwinsapi.Ref `json:"hq_team"`
	HQTeamDisplay   *string           `json:"hq_team_display"`
	TeamType        exportwinsapi.Ref `json:"team_type"`
	TeamTypeDisplay *string           `json:"team_type_display"`
	CreatedOn       time.Time         `json:"created_on"`
}

type adviserScan struct {
	LegacyID     *int
	WinID        uuid.UUID
	Name         string
	FirstName    *string
	LastName     *string
	Location     string
	HQTeamID     *string
	HQTeamName   *string
	TeamTypeID   *string
	TeamTypeName *string
	CreatedOn    time.Time
}

func (s *Service) Advisers(ctx context.Context, page, size int) (Page[AdviserRow], error) {
	var scans []adviserScan
	q := s.DB.WithContext(ctx).
		Table("export_win_winadviser AS a").
		Select("a.legacy_id, a.win_id, a.name, ad.first_name, ad.last_name, a.location, " +
			"hq.export_win_id AS hq_team_id, hq.name AS hq_team_name, " +
			"tt.export_win_id AS team_type_id, tt.name AS team_type_name, a.created_on").
		Joins("JOIN export_win_win AS w ON w.id = a.win_id").
		Joins("LEFT JOIN company_advisor AS ad ON ad.id = a.adviser_id").
		Joins("LEFT JOIN export_win_hqteamregionorpost AS hq ON hq.id = a.hq_team_id").
		Joins("LEFT JOIN export_win_teamtype AS tt ON tt.id = a.team_type_id").
		Order("a.created_on, a.id")
	if err := pageQuery(s.winFilter(q, "w.migrated_on"), page, size).Scan(&scans).Error; err != nil {
		return Page[AdviserRow]{}, err
	}
	rows := make([]AdviserRow, 0, len(scans))
	for _, a := range scans {
		name := a.Name
		if a.FirstName != nil || a.LastName != nil {
			name = fullName(deref(a.FirstName), deref(a.LastName))
		}
		rows = append(rows, AdviserRow{
			ID:              a.LegacyID,
			WinID:           a.WinID,
			Name:            name,
			Location:        a.Location,
			HQTeam:          ref(a.HQTeamID),
			HQTeamDisplay:   a.HQTeamName,
			TeamType:        ref(a.TeamTypeID),
			TeamTypeDisplay: a.TeamTypeName,
			CreatedOn:       a.CreatedOn,
		})
	}
	return trim(rows, size), nil
}

func ref(v *string) exportwinsapi.Ref {
	if v == nil || *v == "" {
		return exportwinsapi.Ref{}
	}
	return exportwinsapi.R(*v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func fullName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}

// nullable maps empty strings to null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
