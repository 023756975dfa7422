// Package exportwin records export wins, asks company contacts to confirm them and
// lets a contact answer through an emailed token.
package exportwin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"datahub-backend/internal/application/emails"
	searchapp "datahub-backend/internal/application/search"
	"datahub-backend/internal/domain"
	"datahub-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB     *gorm.DB
	Search searchapp.Indexer
	Mailer emails.Sender

	// ClientReviewURL gets "/<token id>" appended.
	ClientReviewURL      string
	// LeadOfficerReviewURL gets "/<win id>" appended.
	LeadOfficerReviewURL string
	Now                  func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// BreakdownInput is one expected value of a win.
type BreakdownInput struct {
	Type  validation.Ref `json:"type"`
	Year  int            `json:"year"`
	Value int64          `json:"value"`
}

// AdviserInput credits a contributing adviser.
type AdviserInput struct {
	Adviser  validation.Ref `json:"adviser"`
	TeamType validation.Ref `json:"team_type"`
	HQTeam   validation.Ref `json:"hq_team"`
	Location string         `json:"location"`
}

// Input is a create or partial update payload. Nested lists are replaced only when present.
type Input struct {
	Adviser                 validation.Ref   `json:"adviser"`
	LeadOfficer             validation.Ref   `json:"lead_officer"`
	LineManager             validation.Ref   `json:"line_manager"`
	Company                 validation.Ref   `json:"company"`
	CompanyContacts         validation.Refs  `json:"company_contacts"`
	CustomerLocation        validation.Ref   `json:"customer_location"`
	BusinessType            *string          `json:"business_type"`
	Description             *string          `json:"description"`
	NameOfCustomer          *string          `json:"name_of_customer"`
	NameOfCustomerSecret    *bool            `json:"name_of_customer_confidential"`
	NameOfExport            *string          `json:"name_of_export"`
	Date                    *string          `json:"date"`
	Country                 validation.Ref   `json:"country"`
	Type                    validation.Ref   `json:"type"`
	GoodsVsServices         validation.Ref   `json:"goods_vs_services"`
	Sector                  validation.Ref   `json:"sector"`
	IsProsperityFundRelated *bool            `json:"is_prosperity_fund_related"`
	HVC                     validation.Ref   `json:"hvc"`
	HVOProgramme            validation.Ref   `json:"hvo_programme"`
	HasHVOSpecialist        *bool            `json:"has_hvo_specialist_involvement"`
	IsEExported             *bool            `json:"is_e_exported"`
	TypeOfSupport           validation.Refs  `json:"type_of_support"`
	AssociatedProgramme     validation.Refs  `json:"associated_programme"`
	IsPersonallyConfirmed   *bool            `json:"is_personally_confirmed"`
	IsLineManagerConfirmed  *bool            `json:"is_line_manager_confirmed"`
	TeamType                validation.Ref   `json:"team_type"`
	HQTeam                  validation.Ref   `json:"hq_team"`
	BusinessPotential       validation.Ref   `json:"business_potential"`
	ExportExperience        validation.Ref   `json:"export_experience"`
	Location                *string          `json:"location"`
	IsAnonymousWin          *bool            `json:"is_anonymous_win"`
	TeamMembers             validation.Refs  `json:"team_members"`
	Advisers                []AdviserInput   `json:"advisers"`
	Breakdowns              []BreakdownInput `json:"breakdowns"`
}

// Detail is a win with its nested rows.
type Detail struct {
	domain.Win
	Breakdowns          []domain.Breakdown       `json:"breakdowns"`
	Advisers            []domain.WinAdviser      `json:"advisers"`
	CompanyContacts     []uuid.UUID              `json:"company_contacts"`
	TypeOfSupport       []uuid.UUID              `json:"type_of_support"`
	AssociatedProgramme []uuid.UUID              `json:"associated_programme"`
	TeamMembers         []uuid.UUID              `json:"team_members"`
	CustomerResponse    *domain.CustomerResponse `json:"customer_response"`
}

// ListFilter narrows List. Confirmed is "true", "false" or "null" (no answer yet).
type ListFilter struct {
	Confirmed string
}

// Create stores a win with its nested rows and an empty customer response, then emails
// each company contact a review link.
func (s *Service) Create(ctx context.Context, in Input, adviserID uuid.UUID) (*Detail, error) {
	var w domain.Win
	var tokens []domain.CustomerResponseToken
	now := s.now()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !in.Adviser.Present {
			in.Adviser = validation.NewRef(adviserID)
		}
		if errs := applyInput(tx, &w, in, true); !errs.Empty() {
			return errs
		}
		w.CreatedByID = &adviserID
		w.ModifiedByID = &adviserID
		if err := tx.Create(&w).Error; err != nil {
			return err
		}
		if err := replaceNested(tx, w.ID, in); err != nil {
			return err
		}
		cr := domain.CustomerResponse{WinID: w.ID}
		if err := tx.Create(&cr).Error; err != nil {
			return err
		}
		var err error
		tokens, err = createTokens(tx, cr.ID, in.CompanyContacts.IDs(), now)
		if err != nil {
			return err
		}
		if len(tokens) > 0 {
			w.FirstSent, w.LastSent = &now, &now
			return tx.Model(&w).UpdateColumns(map[string]interface{}{"first_sent": now, "last_sent": now}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.sendClientReceipts(ctx, w.ID, tokens)
	d, err := s.detail(s.DB.WithContext(ctx), w.ID)
	if err != nil {
		return nil, err
	}
	searchapp.Publish(ctx, s.Search, searchapp.IndexExportWin, w.ID, searchapp.NewWinDocument(d.Win))
	return d, nil
}

// Update applies a partial update for an adviser allowed to edit the win.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input, adviserID uuid.UUID) (*Detail, error) {
	var w domain.Win
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := domain.ActiveWins(tx).Where("id = ?", id).Where(editableBy(tx, adviserID)).First(&w).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if errs := applyInput(tx, &w, in, false); !errs.Empty() {
			return errs
		}
		w.ModifiedByID = &adviserID
		if err := tx.Save(&w).Error; err != nil {
			return err
		}
		if err := replaceNested(tx, w.ID, in); err != nil {
			return err
		}
		return domain.RecomputeWinTotals(tx, w.ID)
	})
	if err != nil {
		return nil, err
	}
	d, err := s.detail(s.DB.WithContext(ctx), w.ID)
	if err != nil {
		return nil, err
	}
	searchapp.Publish(ctx, s.Search, searchapp.IndexExportWin, w.ID, searchapp.NewWinDocument(d.Win))
	return d, nil
}

// Get returns a win the adviser is involved in, or a confirmed win that is not anonymous.
func (s *Service) Get(ctx context.Context, id, adviserID uuid.UUID) (*Detail, error) {
	db := s.DB.WithContext(ctx)
	visible := db.Where(directlyInvolved(db, adviserID)).
		Or(db.Where("export_win_win.is_anonymous_win = ?", false).Where(confirmed(db)))
	var n int64
	err := domain.ActiveWins(db.Model(&domain.Win{})).Where("id = ?", id).Where(visible).Count(&n).Error
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.detail(db, id)
}

// List returns the wins the adviser can see, newest first.
func (s *Service) List(ctx context.Context, adviserID uuid.UUID, f ListFilter, limit, offset int) ([]Detail, int64, error) {
	db := s.DB.WithContext(ctx)
	q := domain.ActiveWins(db.Model(&domain.Win{})).Where(editableBy(db, adviserID))
	responses := db.Model(&domain.CustomerResponse{}).Select("win_id")
	switch f.Confirmed {
	case "true":
		q = q.Where("export_win_win.id IN (?)", responses.Where("agree_with_win = ?", true))
	case "false":
		q = q.Where("export_win_win.id IN (?)", responses.Where("agree_with_win = ?", false))
	case "null":
		q = q.Where("export_win_win.id IN (?)", responses.Where("agree_with_win IS NULL"))
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	var ids []uuid.UUID
	if err := q.Order("export_win_win.created_on DESC").Order("export_win_win.id").
		Limit(limit).Offset(offset).Pluck("export_win_win.id", &ids).Error; err != nil {
		return nil, 0, err
	}
	out := make([]Detail, 0, len(ids))
	for _, id := range ids {
		d, err := s.detail(db, id)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, count, nil
}

// directlyInvolved matches wins where the adviser is the adviser, lead officer or a team member.
func directlyInvolved(db *gorm.DB, adviserID uuid.UUID) *gorm.DB {
	members := db.Session(&gorm.Session{NewDB: true}).Model(&domain.WinTeamMember{}).Select("win_id").Where("advisor_id = ?", adviserID)
	return db.Session(&gorm.Session{NewDB: true}).
		Where("export_win_win.adviser_id = ?", adviserID).
		Or("export_win_win.lead_officer_id = ?", adviserID).
		Or("export_win_win.id IN (?)", members)
}

func confirmed(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).Where("export_win_win.id IN (?)",
		db.Session(&gorm.Session{NewDB: true}).Model(&domain.CustomerResponse{}).Select("win_id").Where("agree_with_win = ?", true))
}

// editableBy matches wins the adviser is directly involved in, and confirmed wins
// that are not anonymous where they are credited as a contributing adviser.
func editableBy(db *gorm.DB, adviserID uuid.UUID) *gorm.DB {
	fresh := db.Session(&gorm.Session{NewDB: true})
	contributed := fresh.Model(&domain.WinAdviser{}).Select("win_id").Where("adviser_id = ?", adviserID)
	return fresh.Where(directlyInvolved(db, adviserID)).
		Or(fresh.Where("export_win_win.is_anonymous_win = ?", false).
			Where("export_win_win.id IN (?)", contributed).
			Where(confirmed(db)))
}

func (s *Service) detail(db *gorm.DB, id uuid.UUID) (*Detail, error) {
	d := &Detail{
		Breakdowns:          []domain.Breakdown{},
		Advisers:            []domain.WinAdviser{},
		CompanyContacts:     []uuid.UUID{},
		TypeOfSupport:       []uuid.UUID{},
		AssociatedProgramme: []uuid.UUID{},
		TeamMembers:         []uuid.UUID{},
	}
	err := db.Where("id = ?", id).First(&d.Win).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load win %s: %w", id, err)
	}
	steps := []func() error{
		func() error { return db.Where("win_id = ?", id).Order("year").Order("created_on").Find(&d.Breakdowns).Error },
		func() error { return db.Where("win_id = ?", id).Order("created_on").Find(&d.Advisers).Error },
		func() error {
			return db.Model(&domain.WinCompanyContact{}).Where("win_id = ?", id).Pluck("contact_id", &d.CompanyContacts).Error
		},
		func() error {
			return db.Model(&domain.WinTypeOfSupport{}).Where("win_id = ?", id).Pluck("supporttype_id", &d.TypeOfSupport).Error
		},
		func() error {
			return db.Model(&domain.WinAssociatedProgramme{}).Where("win_id = ?", id).Pluck("associatedprogramme_id", &d.AssociatedProgramme).Error
		},
		func() error {
			return db.Model(&domain.WinTeamMember{}).Where("win_id = ?", id).Pluck("advisor_id", &d.TeamMembers).Error
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	var cr domain.CustomerResponse
	err = db.Where("win_id = ?", id).First(&cr).Error
	switch {
	case err == nil:
		d.CustomerResponse = &cr
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	return d, nil
}

// applyInput validates in and copies it onto w.
func applyInput(tx *gorm.DB, w *domain.Win, in Input, creating bool) validation.Errors {
	var errs validation.Errors

	ref := func(field string, r validation.Ref, model interface{}, dst **uuid.UUID, required bool) {
		errs.Check(field, r)
		switch {
		case r.Invalid:
		case r.Set():
			if !exists(tx, model, *r.ID) {
				errs.Add(field, validation.MsgDoesNotExist)
				return
			}
			*dst = r.ID
		case r.Present && required:
			errs.Add(field, validation.MsgNullNotAllowed)
		case r.Present:
			*dst = nil
		case creating && required:
			errs.Add(field, validation.MsgRequired)
		}
	}
	ref("adviser", in.Adviser, &domain.Adviser{}, &w.AdviserID, true)
	ref("lead_officer", in.LeadOfficer, &domain.Adviser{}, &w.LeadOfficerID, true)
	ref("line_manager", in.LineManager, &domain.Adviser{}, &w.LineManagerID, false)
	ref("company", in.Company, &domain.Company{}, &w.CompanyID, true)
	ref("customer_location", in.CustomerLocation, &domain.WinUKRegion{}, &w.CustomerLocationID, false)
	ref("country", in.Country, &domain.Country{}, &w.CountryID, true)
	ref("type", in.Type, &domain.WinType{}, &w.TypeID, false)
	ref("goods_vs_services", in.GoodsVsServices, &domain.ExpectedValueRelation{}, &w.GoodsVsServicesID, true)
	ref("sector", in.Sector, &domain.Sector{}, &w.SectorID, true)
	ref("hvc", in.HVC, &domain.HVC{}, &w.HVCID, false)
	ref("hvo_programme", in.HVOProgramme, &domain.HVOProgrammes{}, &w.HVOProgrammeID, false)
	ref("team_type", in.TeamType, &domain.TeamType{}, &w.TeamTypeID, false)
	ref("hq_team", in.HQTeam, &domain.HQTeamRegionOrPost{}, &w.HQTeamID, false)
	ref("business_potential", in.BusinessPotential, &domain.BusinessPotential{}, &w.BusinessPotentialID, false)
	ref("export_experience", in.ExportExperience, &domain.ExportExperience{}, &w.ExportExperienceID, false)

	text := func(field string, v *string, dst *string, required bool) {
		switch {
		case v != nil && required && strings.TrimSpace(*v) == "":
			errs.Add(field, "This field may not be blank.")
		case v != nil:
			*dst = strings.TrimSpace(*v)
		case creating && required:
			errs.Add(field, validation.MsgRequired)
		}
	}
	text("description", in.Description, &w.Description, true)
	text("name_of_export", in.NameOfExport, &w.NameOfExport, true)
	text("name_of_customer", in.NameOfCustomer, &w.NameOfCustomer, false)
	text("business_type", in.BusinessType, &w.BusinessType, false)
	text("location", in.Location, &w.Location, false)

	flag := func(v *bool, dst *bool) {
		if v != nil {
			*dst = *v
		}
	}
	flag(in.NameOfCustomerSecret, &w.NameOfCustomerConfidential)
	flag(in.IsProsperityFundRelated, &w.IsProsperityFundRelated)
	flag(in.HasHVOSpecialist, &w.HasHVOSpecialistInvolvement)
	flag(in.IsEExported, &w.IsEExported)
	flag(in.IsPersonallyConfirmed, &w.IsPersonallyConfirmed)
	flag(in.IsLineManagerConfirmed, &w.IsLineManagerConfirmed)
	flag(in.IsAnonymousWin, &w.IsAnonymousWin)

	if in.Date != nil {
		d, err := time.Parse("2006-01-02", *in.Date)
		if err != nil {
			errs.Add("date", MsgInvalidDate)
		}
		w.Date = d
	} else if creating {
		errs.Add("date", validation.MsgRequired)
	}

	many := func(field string, rs validation.Refs, model interface{}, required bool) {
		switch {
		case rs == nil:
			if creating && required {
				errs.Add(field, validation.MsgRequired)
			}
		case rs.AnyInvalid():
			errs.Add(field, validation.MsgInvalidPK)
		case required && len(rs) == 0:
			errs.Add(field, "This list may not be empty.")
		default:
			ids := rs.IDs()
			var n int64
			tx.Model(model).Where("id IN ?", ids).Count(&n)
			if int(n) != len(unique(ids)) {
				errs.Add(field, validation.MsgDoesNotExist)
			}
		}
	}
	many("company_contacts", in.CompanyContacts, &domain.Contact{}, true)
	many("type_of_support", in.TypeOfSupport, &domain.SupportType{}, false)
	many("associated_programme", in.AssociatedProgramme, &domain.AssociatedProgramme{}, false)
	many("team_members", in.TeamMembers, &domain.Adviser{}, false)

	if in.Breakdowns == nil && creating {
		errs.Add("breakdowns", validation.MsgRequired)
	}
	for i, b := range in.Breakdowns {
		field := fmt.Sprintf("breakdowns[%d]", i)
		switch {
		case b.Type.Invalid:
			errs.Add(field+".type", validation.MsgInvalidPK)
		case !b.Type.Set():
			errs.Add(field+".type", validation.MsgRequired)
		case !exists(tx, &domain.BreakdownType{}, *b.Type.ID):
			errs.Add(field+".type", validation.MsgDoesNotExist)
		}
		if b.Year < 1 {
			errs.Add(field+".year", "Ensure this value is greater than or equal to 1.")
		}
	}
	for i, a := range in.Advisers {
		field := fmt.Sprintf("advisers[%d]", i)
		if a.Adviser.Invalid || !a.Adviser.Set() {
			errs.Add(field+".adviser", validation.MsgRequired)
		} else if !exists(tx, &domain.Adviser{}, *a.Adviser.ID) {
			errs.Add(field+".adviser", validation.MsgDoesNotExist)
		}
	}

	if errs.Empty() && w.CompanyID != nil && in.Company.Set() {
		var c domain.Company
		if tx.Select("name").Where("id = ?", *w.CompanyID).First(&c).Error == nil {
			w.CompanyName = c.Name
		}
	}
	return errs
}

func exists(tx *gorm.DB, model interface{}, id uuid.UUID) bool {
	var n int64
	return tx.Model(model).Where("id = ?", id).Count(&n).Error == nil && n > 0
}

func unique(ids []uuid.UUID) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

// replaceNested rewrites the link tables, breakdowns and advisers supplied in in.
func replaceNested(tx *gorm.DB, winID uuid.UUID, in Input) error {
	if in.Breakdowns != nil {
		if err := tx.Where("win_id = ?", winID).Delete(&domain.Breakdown{}).Error; err != nil {
			return err
		}
		for _, b := range in.Breakdowns {
			row := domain.Breakdown{WinID: winID, TypeID: *b.Type.ID, Year: b.Year, Value: b.Value}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
	}
	if in.Advisers != nil {
		if err := tx.Where("win_id = ?", winID).Delete(&domain.WinAdviser{}).Error; err != nil {
			return err
		}
		for _, a := range in.Advisers {
			row := domain.WinAdviser{
				WinID:      winID,
				AdviserID:  a.Adviser.ID,
				TeamTypeID: a.TeamType.ID,
				HQTeamID:   a.HQTeam.ID,
				Location:   a.Location,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
	}
	links := []struct {
		refs validation.Refs
		row  func(uuid.UUID) interface{}
		zero interface{}
	}{
		{in.CompanyContacts, func(id uuid.UUID) interface{} { return &domain.WinCompanyContact{WinID: winID, ContactID: id} }, &domain.WinCompanyContact{}},
		{in.TypeOfSupport, func(id uuid.UUID) interface{} { return &domain.WinTypeOfSupport{WinID: winID, SupportTypeID: id} }, &domain.WinTypeOfSupport{}},
		{in.AssociatedProgramme, func(id uuid.UUID) interface{} {
			return &domain.WinAssociatedProgramme{WinID: winID, AssociatedProgrammeID: id}
		}, &domain.WinAssociatedProgramme{}},
		{in.TeamMembers, func(id uuid.UUID) interface{} { return &domain.WinTeamMember{WinID: winID, AdviserID: id} }, &domain.WinTeamMember{}},
	}
	for _, l := range links {
		if l.refs == nil {
			continue
		}
		if err := tx.Where("win_id = ?", winID).Delete(l.zero).Error; err != nil {
			return err
		}
		for id := range unique(l.refs.IDs()) {
			if err := tx.Create(l.row(id)).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
