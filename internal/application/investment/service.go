// Package investment manages foreign direct investment projects, their gross value added
// and stage history.
package investment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	searchapp "datahub-backend/internal/application/search"
	"datahub-backend/internal/domain"
	"datahub-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("investment project not found")

const MsgInvalidDate = "Date has wrong format. Use YYYY-MM-DD."

type Service struct {
	DB     *gorm.DB
	Search searchapp.Indexer
	// Now defaults to time.Now.
	Now func() time.Time
}

// Input is a create or partial update payload. Empty date strings clear the date.
type Input struct {
	Name                      *string        `json:"name"`
	Description               *string        `json:"description"`
	InvestorCompany           validation.Ref `json:"investor_company"`
	Stage                     *string        `json:"stage"`
	Status                    *string        `json:"status"`
	Sector                    validation.Ref `json:"sector"`
	ForeignEquityInvestment   *int64         `json:"foreign_equity_investment"`
	NumberNewJobs             *int           `json:"number_new_jobs"`
	EstimatedLandDate         *string        `json:"estimated_land_date"`
	ActualLandDate            *string        `json:"actual_land_date"`
	ProposalDeadline          *string        `json:"proposal_deadline"`
	ClientRelationshipManager validation.Ref `json:"client_relationship_manager"`
	ProjectManager            validation.Ref `json:"project_manager"`
	ProjectAssuranceAdviser   validation.Ref `json:"project_assurance_adviser"`
}

// ListFilter narrows List.
type ListFilter struct {
	InvestorCompanyID *uuid.UUID
	Stage             string
	Status            string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) Create(ctx context.Context, in Input, adviserID *uuid.UUID) (*domain.InvestmentProject, error) {
	p := domain.InvestmentProject{Stage: domain.StageProspect, Status: domain.ProjectStatusOngoing}
	now := s.now()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errs := s.applyInput(tx, &p, in, true, now); !errs.Empty() {
			return errs
		}
		p.CreatedByID = adviserID
		p.ModifiedByID = adviserID
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return tx.Create(&domain.InvestmentProjectStageLog{InvestmentProjectID: p.ID, Stage: p.Stage, CreatedOn: now}).Error
	})
	if err != nil {
		return nil, err
	}
	searchapp.Publish(ctx, s.Search, searchapp.IndexInvestmentProject, p.ID, searchapp.NewInvestmentProjectDocument(p))
	return &p, nil
}

// Update applies a partial update, logging stage changes and recomputing gross value added.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input, adviserID *uuid.UUID) (*domain.InvestmentProject, error) {
	var p domain.InvestmentProject
	now := s.now()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := first(tx, id, &p); err != nil {
			return err
		}
		previousStage := p.Stage
		if errs := s.applyInput(tx, &p, in, false, now); !errs.Empty() {
			return errs
		}
		p.ModifiedByID = adviserID
		if err := tx.Save(&p).Error; err != nil {
			return err
		}
		if p.Stage != previousStage {
			return tx.Create(&domain.InvestmentProjectStageLog{InvestmentProjectID: p.ID, Stage: p.Stage, CreatedOn: now}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	searchapp.Publish(ctx, s.Search, searchapp.IndexInvestmentProject, p.ID, searchapp.NewInvestmentProjectDocument(p))
	return &p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.InvestmentProject, error) {
	var p domain.InvestmentProject
	if err := first(s.DB.WithContext(ctx), id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns projects, most recently created first.
func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]domain.InvestmentProject, int64, error) {
	q := s.DB.WithContext(ctx).Model(&domain.InvestmentProject{})
	if f.InvestorCompanyID != nil {
		q = q.Where("investor_company_id = ?", *f.InvestorCompanyID)
	}
	if f.Stage != "" {
		q = q.Where("stage = ?", f.Stage)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	out := []domain.InvestmentProject{}
	if err := q.Order("created_on DESC").Order("id").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, count, nil
}

// StageLog returns the stage history of a project, oldest first.
func (s *Service) StageLog(ctx context.Context, id uuid.UUID) ([]domain.InvestmentProjectStageLog, error) {
	db := s.DB.WithContext(ctx)
	var p domain.InvestmentProject
	if err := first(db, id, &p); err != nil {
		return nil, err
	}
	out := []domain.InvestmentProjectStageLog{}
	if err := db.Where("investment_project_id = ?", id).Order("created_on").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func first(db *gorm.DB, id uuid.UUID, p *domain.InvestmentProject) error {
	err := db.Where("id = ?", id).First(p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load investment project %s: %w", id, err)
	}
	return nil
}

// applyInput validates in against p and copies it over. Stage requirements are checked on the
// resulting project so a single request can assign an adviser and move the stage.
func (s *Service) applyInput(tx *gorm.DB, p *domain.InvestmentProject, in Input, creating bool, now time.Time) validation.Errors {
	var errs validation.Errors

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			errs.Add("name", "This field may not be blank.")
		}
		p.Name = strings.TrimSpace(*in.Name)
	} else if creating {
		errs.Add("name", validation.MsgRequired)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Stage != nil {
		if !domain.IsValidStage(*in.Stage) {
			errs.Add("stage", validation.MsgInvalidChoice)
		}
		p.Stage = *in.Stage
	}
	if in.Status != nil {
		if !domain.IsValidProjectStatus(*in.Status) {
			errs.Add("status", validation.MsgInvalidChoice)
		}
		p.Status = *in.Status
	}
	if in.ForeignEquityInvestment != nil {
		if *in.ForeignEquityInvestment < 0 {
			errs.Add("foreign_equity_investment", "Ensure this value is greater than or equal to 0.")
		}
		p.ForeignEquityInvestment = in.ForeignEquityInvestment
	}
	if in.NumberNewJobs != nil {
		p.NumberNewJobs = in.NumberNewJobs
	}
	setDate(&errs, "estimated_land_date", in.EstimatedLandDate, &p.EstimatedLandDate)
	setDate(&errs, "actual_land_date", in.ActualLandDate, &p.ActualLandDate)
	setDate(&errs, "proposal_deadline", in.ProposalDeadline, &p.ProposalDeadline)

	switch {
	case in.InvestorCompany.Present:
		setRef(tx, &errs, "investor_company", in.InvestorCompany, &domain.Company{}, &p.InvestorCompanyID)
		if !in.InvestorCompany.Invalid && !in.InvestorCompany.Set() {
			errs.Add("investor_company", validation.MsgNullNotAllowed)
		}
	case creating:
		errs.Add("investor_company", validation.MsgRequired)
	}
	setRef(tx, &errs, "sector", in.Sector, &domain.Sector{}, &p.SectorID)
	setRef(tx, &errs, "client_relationship_manager", in.ClientRelationshipManager, &domain.Adviser{}, &p.ClientRelationshipManagerID)
	setRef(tx, &errs, "project_assurance_adviser", in.ProjectAssuranceAdviser, &domain.Adviser{}, &p.ProjectAssuranceAdviserID)
	setRef(tx, &errs, "project_manager", in.ProjectManager, &domain.Adviser{}, &p.ProjectManagerID)
	if p.ProjectManagerID != nil && p.ProjectManagerFirstAssigned == nil {
		t := now
		p.ProjectManagerFirstAssigned = &t
	}

	stage := domain.StageIndex(p.Stage)
	if stage >= domain.StageIndex(domain.StageAssignPM) && p.ClientRelationshipManagerID == nil {
		errs.Add("client_relationship_manager", validation.MsgRequired)
	}
	if stage >= domain.StageIndex(domain.StageActive) {
		if p.ProjectManagerID == nil {
			errs.Add("project_manager", validation.MsgRequired)
		}
		if p.ProjectAssuranceAdviserID == nil {
			errs.Add("project_assurance_adviser", validation.MsgRequired)
		}
	}
	if p.Stage == domain.StageWon && p.ActualLandDate == nil {
		errs.Add("actual_land_date", validation.MsgRequired)
	}

	if errs.Empty() {
		if err := SetGrossValueAdded(tx, p, now); err != nil {
			errs.Add("non_field_errors", err.Error())
		}
	}
	return errs
}

func setDate(errs *validation.Errors, field string, value *string, dst **time.Time) {
	if value == nil {
		return
	}
	if *value == "" {
		*dst = nil
		return
	}
	t, err := time.Parse("2006-01-02", *value)
	if err != nil {
		errs.Add(field, MsgInvalidDate)
		return
	}
	*dst = &t
}

func setRef(tx *gorm.DB, errs *validation.Errors, field string, r validation.Ref, model interface{}, dst **uuid.UUID) {
	if !r.Present {
		return
	}
	errs.Check(field, r)
	if r.Invalid {
		return
	}
	if r.Set() {
		var n int64
		if tx.Model(model).Where("id = ?", *r.ID).Count(&n).Error != nil || n == 0 {
			errs.Add(field, validation.MsgDoesNotExist)
			return
		}
	}
	*dst = r.ID
}
