// Package interaction records meetings and service deliveries with company contacts.
package interaction

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

var ErrNotFound = errors.New("interaction not found")

const (
	MsgContactsNotInCompany     = "The interaction contacts must belong to the specified company."
	MsgEmptyList                = "This list may not be empty."
	MsgDuplicateAdviser         = "You cannot add the same adviser more than once."
	MsgInvalidForServiceDeliver = "This field is not valid for service deliveries."
	MsgCannotUnsetTheme         = "A theme can't be removed once set."
	MsgInvalidDate              = "Date has wrong format. Use YYYY-MM-DD."
)

type Service struct {
	DB     *gorm.DB
	Search searchapp.Indexer
}

// Participant is an adviser taking part, with the team they were in at the time.
type Participant struct {
	Adviser validation.Ref `json:"adviser"`
	Team    validation.Ref `json:"team"`
}

// Input is a create or partial update payload.
type Input struct {
	Kind                      *string         `json:"kind"`
	Theme                     *string         `json:"theme"`
	Status                    *string         `json:"status"`
	Subject                   *string         `json:"subject"`
	Date                      *string         `json:"date"`
	Notes                     *string         `json:"notes"`
	Company                   validation.Ref  `json:"company"`
	Contacts                  validation.Refs `json:"contacts"`
	DITParticipants           []Participant   `json:"dit_participants"`
	CommunicationChannel      validation.Ref  `json:"communication_channel"`
	InvestmentProject         validation.Ref  `json:"investment_project"`
	WasPolicyFeedbackProvided *bool           `json:"was_policy_feedback_provided"`
}

// Detail is an interaction with its contacts and participants.
type Detail struct {
	domain.Interaction
	Contacts        []uuid.UUID                        `json:"contacts"`
	DITParticipants []domain.InteractionDITParticipant `json:"dit_participants"`
}

// ListFilter narrows List.
type ListFilter struct {
	CompanyID           *uuid.UUID
	ContactID           *uuid.UUID
	InvestmentProjectID *uuid.UUID
	Kind                string
}

// Create stores an interaction. Without dit_participants the acting adviser is added.
func (s *Service) Create(ctx context.Context, in Input, adviserID *uuid.UUID) (*Detail, error) {
	var i domain.Interaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		date, errs := validate(tx, in, nil)
		if !errs.Empty() {
			return errs
		}
		i.Status = domain.InteractionStatusComplete
		apply(&i, in, date)
		i.CreatedByID = adviserID
		i.ModifiedByID = adviserID
		if err := tx.Create(&i).Error; err != nil {
			return err
		}
		if err := replaceContacts(tx, i.ID, in.Contacts.IDs()); err != nil {
			return err
		}
		participants := in.DITParticipants
		if len(participants) == 0 && adviserID != nil {
			var a domain.Adviser
			if err := tx.Where("id = ?", *adviserID).First(&a).Error; err == nil {
				p := Participant{Adviser: validation.NewRef(a.ID)}
				if a.DITTeamID != nil {
					p.Team = validation.NewRef(*a.DITTeamID)
				}
				participants = []Participant{p}
			}
		}
		return replaceParticipants(tx, i.ID, participants)
	})
	if err != nil {
		return nil, err
	}
	searchapp.Publish(ctx, s.Search, searchapp.IndexInteraction, i.ID, searchapp.NewInteractionDocument(i))
	return s.Get(ctx, i.ID)
}

// Update applies a partial update. Contacts and participants are replaced when supplied.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input, adviserID *uuid.UUID) (*Detail, error) {
	var i domain.Interaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := first(tx, id, &i); err != nil {
			return err
		}
		date, errs := validate(tx, in, &i)
		if !errs.Empty() {
			return errs
		}
		apply(&i, in, date)
		i.ModifiedByID = adviserID
		if err := tx.Save(&i).Error; err != nil {
			return err
		}
		if in.Contacts != nil {
			if err := replaceContacts(tx, i.ID, in.Contacts.IDs()); err != nil {
				return err
			}
		}
		if in.DITParticipants != nil {
			return replaceParticipants(tx, i.ID, in.DITParticipants)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	searchapp.Publish(ctx, s.Search, searchapp.IndexInteraction, i.ID, searchapp.NewInteractionDocument(i))
	return s.Get(ctx, i.ID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	db := s.DB.WithContext(ctx)
	d := &Detail{Contacts: []uuid.UUID{}, DITParticipants: []domain.InteractionDITParticipant{}}
	if err := first(db, id, &d.Interaction); err != nil {
		return nil, err
	}
	if err := db.Model(&domain.InteractionContact{}).Where("interaction_id = ?", id).Pluck("contact_id", &d.Contacts).Error; err != nil {
		return nil, err
	}
	if err := db.Where("interaction_id = ?", id).Find(&d.DITParticipants).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// List returns interactions, newest first.
func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]domain.Interaction, int64, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Interaction{})
	if f.CompanyID != nil {
		q = q.Where("company_id = ?", *f.CompanyID)
	}
	if f.InvestmentProjectID != nil {
		q = q.Where("investment_project_id = ?", *f.InvestmentProjectID)
	}
	if f.ContactID != nil {
		q = q.Where("id IN (?)", s.DB.Model(&domain.InteractionContact{}).Select("interaction_id").Where("contact_id = ?", *f.ContactID))
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	out := []domain.Interaction{}
	if err := q.Order("date DESC").Order("id").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, count, nil
}

func first(db *gorm.DB, id uuid.UUID, i *domain.Interaction) error {
	err := db.Where("id = ?", id).First(i).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load interaction %s: %w", id, err)
	}
	return nil
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func validate(tx *gorm.DB, in Input, existing *domain.Interaction) (time.Time, validation.Errors) {
	var errs validation.Errors
	creating := existing == nil

	kind := ""
	if existing != nil {
		kind = existing.Kind
	}
	if in.Kind != nil {
		kind = *in.Kind
		if kind != domain.InteractionKindInteraction && kind != domain.InteractionKindServiceDelivery {
			errs.Add("kind", validation.MsgInvalidChoice)
		}
	} else if creating {
		errs.Add("kind", validation.MsgRequired)
	}

	if in.Status != nil && *in.Status != domain.InteractionStatusDraft && *in.Status != domain.InteractionStatusComplete {
		errs.Add("status", validation.MsgInvalidChoice)
	}

	if in.Subject != nil && strings.TrimSpace(*in.Subject) == "" {
		errs.Add("subject", "This field may not be blank.")
	} else if in.Subject == nil && creating {
		errs.Add("subject", validation.MsgRequired)
	}

	var date time.Time
	if in.Date != nil {
		d, err := ParseDate(*in.Date)
		if err != nil {
			errs.Add("date", MsgInvalidDate)
		}
		date = d
	} else if creating {
		errs.Add("date", validation.MsgRequired)
	}

	if existing != nil && existing.Theme != "" && in.Theme != nil && *in.Theme == "" {
		errs.Add("theme", MsgCannotUnsetTheme)
	}

	companyID := uuid.Nil
	if existing != nil {
		companyID = existing.CompanyID
	}
	errs.Check("company", in.Company)
	switch {
	case in.Company.Set():
		companyID = *in.Company.ID
		if !exists(tx, &domain.Company{}, companyID) {
			errs.Add("company", validation.MsgDoesNotExist)
		}
	case in.Company.Present && !in.Company.Invalid:
		errs.Add("company", validation.MsgNullNotAllowed)
	case creating && !in.Company.Present:
		errs.Add("company", validation.MsgRequired)
	}

	// Contacts must belong to the company after the change.
	contactIDs := in.Contacts.IDs()
	contactsGiven := in.Contacts != nil
	if !contactsGiven && existing != nil && in.Company.Set() {
		tx.Model(&domain.InteractionContact{}).Where("interaction_id = ?", existing.ID).Pluck("contact_id", &contactIDs)
		contactsGiven = true
	}
	switch {
	case in.Contacts.AnyInvalid():
		errs.Add("contacts", validation.MsgInvalidPK)
	case contactsGiven && len(contactIDs) == 0:
		errs.Add("contacts", MsgEmptyList)
	case !contactsGiven && creating:
		errs.Add("contacts", validation.MsgRequired)
	case contactsGiven && companyID != uuid.Nil:
		var n int64
		tx.Model(&domain.Contact{}).Where("id IN ? AND company_id = ?", contactIDs, companyID).Count(&n)
		if int(n) != len(uniqueIDs(contactIDs)) {
			errs.Add("contacts", MsgContactsNotInCompany)
		}
	}

	seen := map[uuid.UUID]bool{}
	for _, p := range in.DITParticipants {
		if !p.Adviser.Set() {
			errs.Add("dit_participants", validation.MsgRequired)
			continue
		}
		if seen[*p.Adviser.ID] {
			errs.Add("dit_participants", MsgDuplicateAdviser)
		}
		seen[*p.Adviser.ID] = true
		if !exists(tx, &domain.Adviser{}, *p.Adviser.ID) {
			errs.Add("dit_participants", validation.MsgDoesNotExist)
		}
	}

	if kind == domain.InteractionKindServiceDelivery && in.CommunicationChannel.Set() {
		errs.Add("communication_channel", MsgInvalidForServiceDeliver)
	}
	errs.Check("investment_project", in.InvestmentProject)
	if in.InvestmentProject.Set() && !exists(tx, &domain.InvestmentProject{}, *in.InvestmentProject.ID) {
		errs.Add("investment_project", validation.MsgDoesNotExist)
	}
	return date, errs
}

func exists(tx *gorm.DB, model interface{}, id uuid.UUID) bool {
	var n int64
	return tx.Model(model).Where("id = ?", id).Count(&n).Error == nil && n > 0
}

func uniqueIDs(ids []uuid.UUID) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func apply(i *domain.Interaction, in Input, date time.Time) {
	if in.Kind != nil {
		i.Kind = *in.Kind
	}
	if in.Theme != nil {
		i.Theme = *in.Theme
	}
	if in.Status != nil {
		i.Status = *in.Status
	}
	if in.Subject != nil {
		i.Subject = strings.TrimSpace(*in.Subject)
	}
	if in.Date != nil {
		i.Date = date
	}
	if in.Notes != nil {
		i.Notes = *in.Notes
	}
	if in.Company.Set() {
		i.CompanyID = *in.Company.ID
	}
	if in.CommunicationChannel.Present {
		i.CommunicationChannelID = in.CommunicationChannel.ID
	}
	if in.InvestmentProject.Present {
		i.InvestmentProjectID = in.InvestmentProject.ID
	}
	if in.WasPolicyFeedbackProvided != nil {
		i.WasPolicyFeedbackProvided = *in.WasPolicyFeedbackProvided
	}
}

func replaceContacts(tx *gorm.DB, interactionID uuid.UUID, ids []uuid.UUID) error {
	if err := tx.Where("interaction_id = ?", interactionID).Delete(&domain.InteractionContact{}).Error; err != nil {
		return err
	}
	for id := range uniqueIDs(ids) {
		if err := tx.Create(&domain.InteractionContact{InteractionID: interactionID, ContactID: id}).Error; err != nil {
			return err
		}
	}
	return nil
}

func replaceParticipants(tx *gorm.DB, interactionID uuid.UUID, participants []Participant) error {
	if err := tx.Where("interaction_id = ?", interactionID).Delete(&domain.InteractionDITParticipant{}).Error; err != nil {
		return err
	}
	for _, p := range participants {
		row := &domain.InteractionDITParticipant{
			InteractionID: interactionID,
			AdviserID:     *p.Adviser.ID,
			TeamID:        p.Team.ID,
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}
	}
	return nil
}
