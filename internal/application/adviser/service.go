package adviser

import (
	"context"
	"errors"
	"strings"

	"datahub-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("adviser not found")

type Service struct {
	DB *gorm.DB
}

// Team is the nested team shown with an adviser.
type Team struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// View is the public shape of an adviser.
type View struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"contact_email"`
	IsActive  bool      `json:"is_active"`
	DITTeam   *Team     `json:"dit_team"`
}

// ListFilter narrows List. Every autocomplete word must prefix a first name, last name or team name.
type ListFilter struct {
	Autocomplete string
	IsActive     *bool
}

const selectColumns = "company_advisor.*, metadata_team.name AS team_name"

type row struct {
	domain.Adviser
	TeamName *string `gorm:"column:team_name"`
}

func (r row) view() View {
	v := View{
		ID:        r.ID,
		Name:      r.Adviser.Name(),
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.ContactEmail,
		IsActive:  r.IsActive,
	}
	if r.DITTeamID != nil {
		v.DITTeam = &Team{ID: *r.DITTeamID}
		if r.TeamName != nil {
			v.DITTeam.Name = *r.TeamName
		}
	}
	return v
}

func (s *Service) base(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Table("company_advisor").
		Joins("LEFT JOIN metadata_team ON metadata_team.id = company_advisor.dit_team_id")
}

// List returns advisers ordered by name.
func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]View, int64, error) {
	q := s.base(ctx)
	for _, word := range strings.Fields(strings.ToLower(f.Autocomplete)) {
		prefix := word + "%"
		q = q.Where("LOWER(company_advisor.first_name) LIKE ? OR LOWER(company_advisor.last_name) LIKE ? OR LOWER(metadata_team.name) LIKE ?",
			prefix, prefix, prefix)
	}
	if f.IsActive != nil {
		q = q.Where("company_advisor.is_active = ?", *f.IsActive)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	var rows []row
	err := q.Select(selectColumns).
		Order("LOWER(company_advisor.first_name)").
		Order("LOWER(company_advisor.last_name)").
		Order("company_advisor.id").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	out := make([]View, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.view())
	}
	return out, count, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	var rows []row
	if err := s.base(ctx).Select(selectColumns).Where("company_advisor.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	v := rows[0].view()
	return &v, nil
}
