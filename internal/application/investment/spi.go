package investment

import (
	"context"
	"errors"
	"math"
	"time"

	"datahub-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SPIReport holds the service performance milestones of a project.
type SPIReport struct {
	ProjectID              uuid.UUID  `json:"data_hub_id"`
	ProjectCode            string     `json:"project_code"`
	Name                   string     `json:"project_name"`
	CreatedOn              time.Time  `json:"created_on"`
	EnquiryProcessed       *time.Time `json:"enquiry_processed"`
	ProjectManagerAssigned *time.Time `json:"project_manager_assigned"`
	MovedToActive          *time.Time `json:"moved_to_active"`
	MovedToWon             *time.Time `json:"moved_to_won"`
	DaysToAssign           *int       `json:"days_to_assign"`
	DaysToActive           *int       `json:"days_to_active"`
}

// SPI builds the report from the project, its stage log and its earliest interaction.
func (s *Service) SPI(ctx context.Context, id uuid.UUID) (*SPIReport, error) {
	db := s.DB.WithContext(ctx)
	var p domain.InvestmentProject
	if err := first(db, id, &p); err != nil {
		return nil, err
	}
	r := &SPIReport{
		ProjectID:              p.ID,
		ProjectCode:            p.ProjectCode,
		Name:                   p.Name,
		CreatedOn:              p.CreatedOn.UTC(),
		ProjectManagerAssigned: p.ProjectManagerFirstAssigned,
	}

	var logs []domain.InvestmentProjectStageLog
	if err := db.Where("investment_project_id = ?", id).Find(&logs).Error; err != nil {
		return nil, err
	}
	r.MovedToActive = earliestStage(logs, domain.StageActive)
	r.MovedToWon = earliestStage(logs, domain.StageWon)

	var i domain.Interaction
	err := db.Where("investment_project_id = ?", id).Order("created_on").First(&i).Error
	switch {
	case err == nil:
		t := i.CreatedOn.UTC()
		r.EnquiryProcessed = &t
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	if r.ProjectManagerAssigned != nil {
		r.DaysToAssign = daysBetween(r.CreatedOn, *r.ProjectManagerAssigned)
		if r.MovedToActive != nil {
			r.DaysToActive = daysBetween(*r.ProjectManagerAssigned, *r.MovedToActive)
		}
	}
	return r, nil
}

func earliestStage(logs []domain.InvestmentProjectStageLog, stage string) *time.Time {
	var out *time.Time
	for _, l := range logs {
		if l.Stage != stage {
			continue
		}
		t := l.CreatedOn.UTC()
		if out == nil || t.Before(*out) {
			out = &t
		}
	}
	return out
}

func daysBetween(from, to time.Time) *int {
	d := int(math.Floor(to.Sub(from).Hours() / 24))
	return &d
}
