package contact

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

var ErrNotFound = errors.New("contact not found")

type Service struct {
	DB     *gorm.DB
	Search searchapp.Indexer
}

// Input is a create or partial update payload.
type Input struct {
	FirstName *string        `json:"first_name"`
	LastName  *string        `json:"last_name"`
	JobTitle  *string        `json:"job_title"`
	Email     *string        `json:"email"`
	Phone     *string        `json:"full_telephone_number"`
	Primary   *bool          `json:"primary"`
	Company   validation.Ref `json:"company"`
}

// ListFilter narrows List.
type ListFilter struct {
	CompanyID *uuid.UUID
	Name      string
	Archived  *bool
}

func (s *Service) Create(ctx context.Context, in Input, adviserID *uuid.UUID) (*domain.Contact, error) {
	var c domain.Contact
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errs := validate(tx, in, true); !errs.Empty() {
			return errs
		}
		apply(&c, in)
		c.CreatedByID = adviserID
		c.ModifiedByID = adviserID
		return tx.Create(&c).Error
	})
	if err != nil {
		return nil, err
	}
	searchapp.Publish(ctx, s.Search, searchapp.IndexContact, c.ID, searchapp.NewContactDocument(c))
	return &c, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input, adviserID *uuid.UUID) (*domain.Contact, error) {
	var c domain.Contact
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := first(tx, id, &c); err != nil {
			return err
		}
		if errs := validate(tx, in, false); !errs.Empty() {
			return errs
		}
		apply(&c, in)
		c.ModifiedByID = adviserID
		return tx.Save(&c).Error
	})
	if err != nil {
		return nil, err
	}
	searchapp.Publish(ctx, s.Search, searchapp.IndexContact, c.ID, searchapp.NewContactDocument(c))
	return &c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	var c domain.Contact
	if err := first(s.DB.WithContext(ctx), id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns contacts ordered by last then first name.
func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]domain.Contact, int64, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Contact{})
	if f.CompanyID != nil {
		q = q.Where("company_id = ?", *f.CompanyID)
	}
	if f.Name != "" {
		like := "%" + strings.ToLower(f.Name) + "%"
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like)
	}
	if f.Archived != nil {
		q = q.Where("archived = ?", *f.Archived)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	contacts := []domain.Contact{}
	if err := q.Order("last_name, first_name, id").Limit(limit).Offset(offset).Find(&contacts).Error; err != nil {
		return nil, 0, err
	}
	return contacts, count, nil
}

// Archive flags the contact as archived.
func (s *Service) Archive(ctx context.Context, id uuid.UUID, adviserID *uuid.UUID) (*domain.Contact, error) {
	var c domain.Contact
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := first(tx, id, &c); err != nil {
			return err
		}
		now := time.Now().UTC()
		c.Archived = true
		c.ArchivedOn = &now
		c.ModifiedByID = adviserID
		return tx.Save(&c).Error
	})
	if err != nil {
		return nil, err
	}
	searchapp.Publish(ctx, s.Search, searchapp.IndexContact, c.ID, searchapp.NewContactDocument(c))
	return &c, nil
}

func first(db *gorm.DB, id uuid.UUID, c *domain.Contact) error {
	err := db.Where("id = ?", id).First(c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load contact %s: %w", id, err)
	}
	return nil
}

func validate(tx *gorm.DB, in Input, creating bool) validation.Errors {
	var errs validation.Errors
	required := func(field string, v *string) {
		if v == nil {
			if creating {
				errs.Add(field, validation.MsgRequired)
			}
			return
		}
		if strings.TrimSpace(*v) == "" {
			errs.Add(field, "This field may not be blank.")
		}
	}
	required("first_name", in.FirstName)
	required("last_name", in.LastName)

	if in.Email != nil && *in.Email != "" && !validation.IsValidEmail(*in.Email) {
		errs.Add("email", validation.MsgInvalidEmail)
	}

	errs.Check("company", in.Company)
	switch {
	case in.Company.Set():
		var n int64
		if err := tx.Model(&domain.Company{}).Where("id = ?", *in.Company.ID).Count(&n).Error; err != nil || n == 0 {
			errs.Add("company", validation.MsgDoesNotExist)
		}
	case in.Company.Present && !in.Company.Invalid:
		errs.Add("company", validation.MsgNullNotAllowed)
	case creating && !in.Company.Present:
		errs.Add("company", validation.MsgRequired)
	}
	return errs
}

func apply(c *domain.Contact, in Input) {
	if in.FirstName != nil {
		c.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		c.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.JobTitle != nil {
		c.JobTitle = *in.JobTitle
	}
	if in.Email != nil {
		c.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Primary != nil {
		c.Primary = *in.Primary
	}
	if in.Company.Set() {
		c.CompanyID = in.Company.ID
	}
}
