// Package company implements company create/update rules, archiving and export countries.
package company

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	searchapp "datahub-backend/internal/application/search"
	"datahub-backend/internal/domain"
	"datahub-backend/internal/pkg/constants"
	"datahub-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var companyNumberChars = regexp.MustCompile(`^[A-Z0-9]+$`)

type Service struct {
	DB     *gorm.DB
	Search searchapp.Indexer
}

// Address is the nested address of a company payload.
type Address struct {
	Line1    *string        `json:"line_1"`
	Line2    *string        `json:"line_2"`
	Town     *string        `json:"town"`
	County   *string        `json:"county"`
	Postcode *string        `json:"postcode"`
	Country  validation.Ref `json:"country"`
}

// Input is a create or partial update payload. Absent keys leave fields unchanged.
type Input struct {
	Name                     *string        `json:"name"`
	TradingNames             []string       `json:"trading_names"`
	CompanyNumber            *string        `json:"company_number"`
	VATNumber                *string        `json:"vat_number"`
	DunsNumber               *string        `json:"duns_number"`
	BusinessType             validation.Ref `json:"business_type"`
	Sector                   validation.Ref `json:"sector"`
	UKRegion                 validation.Ref `json:"uk_region"`
	EmployeeRange            validation.Ref `json:"employee_range"`
	TurnoverRange            validation.Ref `json:"turnover_range"`
	HeadquarterType          validation.Ref `json:"headquarter_type"`
	GlobalHeadquarters       validation.Ref `json:"global_headquarters"`
	ExportExperienceCategory validation.Ref `json:"export_experience_category"`
	Address                  *Address       `json:"address"`
	Description              *string        `json:"description"`
	Website                  *string        `json:"website"`
}

// ExportCountry is one entry of the export_countries list.
type ExportCountry struct {
	Country validation.Ref `json:"country"`
	Status  string         `json:"status"`
}

// Detail is a company with its export countries.
type Detail struct {
	domain.Company
	ExportCountries         []ExportCountry `json:"export_countries"`
	ExportToCountries       []uuid.UUID     `json:"export_to_countries"`
	FutureInterestCountries []uuid.UUID     `json:"future_interest_countries"`
}

// ListFilter narrows List.
type ListFilter struct {
	Name                 string
	Archived             *bool
	GlobalHeadquartersID *uuid.UUID
	SortBy               string
}

var listSorts = map[string]string{
	"name":         "name ASC",
	"-name":        "name DESC",
	"created_on":   "created_on ASC",
	"-created_on":  "created_on DESC",
	"modified_on":  "modified_on ASC",
	"-modified_on": "modified_on DESC",
}

// Create validates in and stores a new company.
// Companies created without a D&B number are flagged for investigation.
func (s *Service) Create(ctx context.Context, in Input, adviserID *uuid.UUID) (*domain.Company, error) {
	var c domain.Company
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errs := validate(tx, in, nil); !errs.Empty() {
			return errs
		}
		apply(&c, in)
		c.PendingDNBInvestigation = c.DunsNumber == nil
		c.CreatedByID = adviserID
		c.ModifiedByID = adviserID
		return tx.Create(&c).Error
	})
	if err != nil {
		return nil, err
	}
	searchapp.Publish(ctx, s.Search, searchapp.IndexCompany, c.ID, searchapp.NewCompanyDocument(c))
	return &c, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input, adviserID *uuid.UUID) (*domain.Company, error) {
	var c domain.Company
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := first(tx, id, &c); err != nil {
			return err
		}
		if errs := validate(tx, in, &c); !errs.Empty() {
			return errs
		}
		apply(&c, in)
		c.ModifiedByID = adviserID
		return tx.Save(&c).Error
	})
	if err != nil {
		return nil, err
	}
	searchapp.Publish(ctx, s.Search, searchapp.IndexCompany, c.ID, searchapp.NewCompanyDocument(c))
	return &c, nil
}

// Get returns a company with its export countries.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	db := s.DB.WithContext(ctx)
	var c domain.Company
	if err := first(db, id, &c); err != nil {
		return nil, err
	}
	d := &Detail{
		Company:                 c,
		ExportCountries:         []ExportCountry{},
		ExportToCountries:       []uuid.UUID{},
		FutureInterestCountries: []uuid.UUID{},
	}
	var rows []domain.CompanyExportCountry
	if err := db.Where("company_id = ?", id).Order("created_on").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		d.ExportCountries = append(d.ExportCountries, ExportCountry{Country: validation.NewRef(r.CountryID), Status: r.Status})
	}
	if err := db.Model(&domain.CompanyExportToCountry{}).Where("company_id = ?", id).Pluck("country_id", &d.ExportToCountries).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.CompanyFutureInterestCountry{}).Where("company_id = ?", id).Pluck("country_id", &d.FutureInterestCountries).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// List returns one page of companies and the total count.
func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]domain.Company, int64, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Company{})
	if f.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Name)+"%")
	}
	if f.Archived != nil {
		q = q.Where("archived = ?", *f.Archived)
	}
	if f.GlobalHeadquartersID != nil {
		q = q.Where("global_headquarters_id = ?", *f.GlobalHeadquartersID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	order, ok := listSorts[f.SortBy]
	if !ok {
		order = "name ASC"
	}
	companies := []domain.Company{}
	if err := q.Order(order).Order("id").Limit(limit).Offset(offset).Find(&companies).Error; err != nil {
		return nil, 0, err
	}
	return companies, count, nil
}

// Archive marks a company archived with a reason.
func (s *Service) Archive(ctx context.Context, id uuid.UUID, reason string, adviserID *uuid.UUID) (*domain.Company, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, validation.Errors{"reason": {validation.MsgRequired}}
	}
	now := time.Now().UTC()
	return s.setArchived(ctx, id, func(c *domain.Company) {
		c.Archived = true
		c.ArchivedOn = &now
		c.ArchivedReason = reason
		c.ArchivedByID = adviserID
		c.ModifiedByID = adviserID
	})
}

// Unarchive clears the archived state.
func (s *Service) Unarchive(ctx context.Context, id uuid.UUID, adviserID *uuid.UUID) (*domain.Company, error) {
	return s.setArchived(ctx, id, func(c *domain.Company) {
		c.Archived = false
		c.ArchivedOn = nil
		c.ArchivedReason = ""
		c.ArchivedByID = nil
		c.ModifiedByID = adviserID
	})
}

func (s *Service) setArchived(ctx context.Context, id uuid.UUID, change func(*domain.Company)) (*domain.Company, error) {
	var c domain.Company
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := first(tx, id, &c); err != nil {
			return err
		}
		change(&c)
		return tx.Save(&c).Error
	})
	if err != nil {
		return nil, err
	}
	searchapp.Publish(ctx, s.Search, searchapp.IndexCompany, c.ID, searchapp.NewCompanyDocument(c))
	return &c, nil
}

func first(db *gorm.DB, id uuid.UUID, c *domain.Company) error {
	err := db.Where("id = ?", id).First(c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load company %s: %w", id, err)
	}
	return nil
}

// validate checks in against the stored company (nil on create).
func validate(tx *gorm.DB, in Input, existing *domain.Company) validation.Errors {
	var errs validation.Errors
	creating := existing == nil

	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		errs.Add("name", MsgBlank)
	} else if in.Name == nil && creating {
		errs.Add("name", validation.MsgRequired)
	}

	if in.Address == nil {
		if creating {
			errs.Add("address", validation.MsgRequired)
		}
	} else {
		if in.Address.Line1 == nil || strings.TrimSpace(*in.Address.Line1) == "" {
			errs.Add("address_line_1", validation.MsgRequired)
		}
		if in.Address.Town == nil || strings.TrimSpace(*in.Address.Town) == "" {
			errs.Add("address_town", validation.MsgRequired)
		}
		if !in.Address.Country.Set() {
			errs.Add("address_country", validation.MsgRequired)
		}
		checkRef(tx, &errs, "address_country", in.Address.Country, &domain.Country{})
	}

	checkRef(tx, &errs, "business_type", in.BusinessType, &domain.BusinessType{})
	checkRef(tx, &errs, "sector", in.Sector, &domain.Sector{})
	checkRef(tx, &errs, "uk_region", in.UKRegion, &domain.UKRegion{})
	checkRef(tx, &errs, "employee_range", in.EmployeeRange, &domain.EmployeeRange{})
	checkRef(tx, &errs, "turnover_range", in.TurnoverRange, &domain.TurnoverRange{})
	checkRef(tx, &errs, "headquarter_type", in.HeadquarterType, &domain.HeadquarterType{})
	checkRef(tx, &errs, "export_experience_category", in.ExportExperienceCategory, &domain.ExportExperience{})

	// sector and business_type are required unless they were already blank.
	requiredUnlessBlank := func(field string, r validation.Ref, current *uuid.UUID) {
		if creating && !r.Set() && !r.Invalid {
			errs.Add(field, validation.MsgRequired)
		} else if !creating && r.Present && !r.Set() && !r.Invalid && current != nil {
			errs.Add(field, validation.MsgRequired)
		}
	}
	var curSector, curBusinessType *uuid.UUID
	if existing != nil {
		curSector, curBusinessType = existing.SectorID, existing.BusinessTypeID
	}
	requiredUnlessBlank("sector", in.Sector, curSector)
	requiredUnlessBlank("business_type", in.BusinessType, curBusinessType)

	// Effective values after the change.
	businessType := combine(in.BusinessType, existing, func(c *domain.Company) *uuid.UUID { return c.BusinessTypeID })
	hqType := combine(in.HeadquarterType, existing, func(c *domain.Company) *uuid.UUID { return c.HeadquarterTypeID })
	ghq := combine(in.GlobalHeadquarters, existing, func(c *domain.Company) *uuid.UUID { return c.GlobalHeadquartersID })
	ukRegion := combine(in.UKRegion, existing, func(c *domain.Company) *uuid.UUID { return c.UKRegionID })
	var addressCountry *uuid.UUID
	if in.Address != nil {
		addressCountry = in.Address.Country.ID
	} else if existing != nil {
		addressCountry = existing.AddressCountryID
	}
	companyNumber := ""
	if in.CompanyNumber != nil {
		companyNumber = *in.CompanyNumber
	} else if existing != nil {
		companyNumber = existing.CompanyNumber
	}

	if isID(businessType, constants.BusinessTypeUKEstablishment) {
		switch {
		case companyNumber == "":
			errs.Add("company_number", validation.MsgRequired)
		default:
			if !companyNumberChars.MatchString(companyNumber) {
				errs.Add("company_number", MsgUKEstablishmentCharacters)
			}
			if !strings.HasPrefix(companyNumber, "BR") {
				errs.Add("company_number", MsgUKEstablishmentPrefix)
			}
		}
		if addressCountry != nil && !isID(addressCountry, constants.CountryUnitedKingdom) {
			errs.Add("address_country", MsgUKEstablishmentNotInUK)
		}
	}
	addressChanged := creating || in.Address != nil || in.UKRegion.Present
	if addressChanged && isID(addressCountry, constants.CountryUnitedKingdom) && ukRegion == nil && !in.UKRegion.Invalid {
		errs.Add("uk_region", validation.MsgRequired)
	}

	if in.HeadquarterType.Present || in.GlobalHeadquarters.Present {
		if isID(hqType, constants.HeadquarterTypeGHQ) && ghq != nil {
			errs.Add("headquarter_type", MsgSubsidiaryCannotBeGHQ)
		}
	}

	if existing != nil && in.HeadquarterType.Present && !in.HeadquarterType.Invalid &&
		isID(existing.HeadquarterTypeID, constants.HeadquarterTypeGHQ) && !isID(in.HeadquarterType.ID, constants.HeadquarterTypeGHQ) {
		var n int64
		if err := tx.Model(&domain.Company{}).Where("global_headquarters_id = ?", existing.ID).Count(&n).Error; err == nil && n > 0 {
			errs.Add("headquarter_type", MsgGHQHasSubsidiaries)
		}
	}

	errs.Check("global_headquarters", in.GlobalHeadquarters)
	if in.GlobalHeadquarters.Set() {
		id := *in.GlobalHeadquarters.ID
		var parent domain.Company
		switch {
		case existing != nil && existing.ID == id:
			errs.Add("global_headquarters", MsgGHQSelf)
		case tx.Where("id = ?", id).First(&parent).Error != nil:
			errs.Add("global_headquarters", validation.MsgDoesNotExist)
		case !isID(parent.HeadquarterTypeID, constants.HeadquarterTypeGHQ):
			errs.Add("global_headquarters", MsgGHQNotGHQ)
		}
	}
	return errs
}

func checkRef(tx *gorm.DB, errs *validation.Errors, field string, r validation.Ref, model interface{}) {
	errs.Check(field, r)
	if !r.Set() {
		return
	}
	var n int64
	if err := tx.Model(model).Where("id = ?", *r.ID).Count(&n).Error; err != nil || n == 0 {
		errs.Add(field, validation.MsgDoesNotExist)
	}
}

func combine(r validation.Ref, existing *domain.Company, current func(*domain.Company) *uuid.UUID) *uuid.UUID {
	if r.Present {
		return r.ID
	}
	if existing != nil {
		return current(existing)
	}
	return nil
}

func isID(id *uuid.UUID, want uuid.UUID) bool {
	return id != nil && *id == want
}

func apply(c *domain.Company, in Input) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.TradingNames != nil {
		b, _ := json.Marshal(in.TradingNames)
		c.TradingNames = datatypes.JSON(b)
	}
	if in.CompanyNumber != nil {
		c.CompanyNumber = *in.CompanyNumber
	}
	if in.VATNumber != nil {
		c.VATNumber = *in.VATNumber
	}
	if in.DunsNumber != nil {
		if *in.DunsNumber == "" {
			c.DunsNumber = nil
		} else {
			duns := *in.DunsNumber
			c.DunsNumber = &duns
		}
	}
	setRef(&c.BusinessTypeID, in.BusinessType)
	setRef(&c.SectorID, in.Sector)
	setRef(&c.UKRegionID, in.UKRegion)
	setRef(&c.EmployeeRangeID, in.EmployeeRange)
	setRef(&c.TurnoverRangeID, in.TurnoverRange)
	setRef(&c.HeadquarterTypeID, in.HeadquarterType)
	setRef(&c.GlobalHeadquartersID, in.GlobalHeadquarters)
	setRef(&c.ExportExperienceID, in.ExportExperienceCategory)
	if a := in.Address; a != nil {
		c.Address1 = deref(a.Line1)
		c.Address2 = deref(a.Line2)
		c.AddressTown = deref(a.Town)
		c.AddressCounty = deref(a.County)
		c.AddressPostcode = deref(a.Postcode)
		c.AddressCountryID = a.Country.ID
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Website != nil {
		c.Website = *in.Website
	}
}

func setRef(dst **uuid.UUID, r validation.Ref) {
	if r.Present {
		*dst = r.ID
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
