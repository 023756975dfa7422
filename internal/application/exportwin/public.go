package exportwin

import (
	"context"
	"errors"
	"time"

	"datahub-backend/internal/application/emails"
	"datahub-backend/internal/domain"
	"datahub-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// PublicContact is the contact the review link was sent to.
type PublicContact struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// PublicWin is the part of a win shown to the customer.
type PublicWin struct {
	Date             time.Time          `json:"date"`
	CountryID        *uuid.UUID         `json:"country"`
	GoodsVsServices  *uuid.UUID         `json:"goods_vs_services"`
	ExportExperience *uuid.UUID         `json:"export_experience"`
	LeadOfficer      *uuid.UUID         `json:"lead_officer"`
	Description      string             `json:"description"`
	Breakdowns       []domain.Breakdown `json:"breakdowns"`
}

// PublicResponse is the customer response reachable with a token.
type PublicResponse struct {
	domain.CustomerResponse
	Win            PublicWin     `json:"win"`
	CompanyContact PublicContact `json:"company_contact"`
}

// PublicInput is what the customer may change.
type PublicInput struct {
	AgreeWithWin                           *bool          `json:"agree_with_win"`
	Comments                               *string        `json:"comments"`
	OurSupport                             validation.Ref `json:"our_support"`
	AccessToContacts                       validation.Ref `json:"access_to_contacts"`
	AccessToInformation                    validation.Ref `json:"access_to_information"`
	ImprovedProfile                        validation.Ref `json:"improved_profile"`
	GainedConfidence                       validation.Ref `json:"gained_confidence"`
	DevelopedRelationships                 validation.Ref `json:"developed_relationships"`
	OvercameProblem                        validation.Ref `json:"overcame_problem"`
	InvolvedStateEnterprise                *bool          `json:"involved_state_enterprise"`
	InterventionsWerePrerequisite          *bool          `json:"interventions_were_prerequisite"`
	SupportImprovedSpeed                   *bool          `json:"support_improved_speed"`
	ExpectedPortionWithoutHelp             validation.Ref `json:"expected_portion_without_help"`
	LastExport                             validation.Ref `json:"last_export"`
	CompanyWasAtRiskOfNotExporting         *bool          `json:"company_was_at_risk_of_not_exporting"`
	HasExplicitExportPlans                 *bool          `json:"has_explicit_export_plans"`
	HasEnabledExpansionIntoNewMarket       *bool          `json:"has_enabled_expansion_into_new_market"`
	HasIncreasedExportsAsPercentOfTurnover *bool          `json:"has_increased_exports_as_percent_of_turnover"`
	HasEnabledExpansionIntoExistingMarket  *bool          `json:"has_enabled_expansion_into_existing_market"`
	CaseStudyWilling                       *bool          `json:"case_study_willing"`
	MarketingSource                        validation.Ref `json:"marketing_source"`
	OtherMarketingSource                   *string        `json:"other_marketing_source"`
}

// liveToken loads a token that has not expired at now.
func liveToken(db *gorm.DB, tokenID uuid.UUID, now time.Time) (*domain.CustomerResponseToken, error) {
	var t domain.CustomerResponseToken
	err := db.Where("id = ?", tokenID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if t.Expired(now) {
		return nil, ErrNotFound
	}
	return &t, nil
}

// GetCustomerResponse returns the response behind a live token and counts the use.
func (s *Service) GetCustomerResponse(ctx context.Context, tokenID uuid.UUID) (*PublicResponse, error) {
	var out *PublicResponse
	now := s.now()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := liveToken(tx, tokenID, now)
		if err != nil {
			return err
		}
		err = tx.Model(&domain.CustomerResponseToken{}).Where("id = ?", t.ID).
			UpdateColumn("times_used", gorm.Expr("times_used + ?", 1)).Error
		if err != nil {
			return err
		}
		out, err = publicResponse(tx, t)
		return err
	})
	return out, err
}

// UpdateCustomerResponse records the customer's answer, expires the token and tells the lead officer.
func (s *Service) UpdateCustomerResponse(ctx context.Context, tokenID uuid.UUID, in PublicInput) (*PublicResponse, error) {
	var out *PublicResponse
	var token *domain.CustomerResponseToken
	now := s.now()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := liveToken(tx, tokenID, now)
		if err != nil {
			return err
		}
		token = t
		var cr domain.CustomerResponse
		if err := tx.Where("id = ?", t.CustomerResponseID).First(&cr).Error; err != nil {
			return err
		}
		if errs := applyPublicInput(tx, &cr, in); !errs.Empty() {
			return errs
		}
		cr.RespondedOn = &now
		if err := tx.Save(&cr).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.CustomerResponseToken{}).Where("id = ?", t.ID).Update("expires_on", now).Error; err != nil {
			return err
		}
		out, err = publicResponse(tx, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifyLeadOfficer(ctx, &out.CustomerResponse, token)
	return out, nil
}

func publicResponse(db *gorm.DB, t *domain.CustomerResponseToken) (*PublicResponse, error) {
	out := &PublicResponse{}
	if err := db.Where("id = ?", t.CustomerResponseID).First(&out.CustomerResponse).Error; err != nil {
		return nil, err
	}
	var w domain.Win
	if err := db.Where("id = ?", out.WinID).First(&w).Error; err != nil {
		return nil, err
	}
	out.Win = PublicWin{
		Date:             w.Date,
		CountryID:        w.CountryID,
		GoodsVsServices:  w.GoodsVsServicesID,
		ExportExperience: w.ExportExperienceID,
		LeadOfficer:      w.LeadOfficerID,
		Description:      w.Description,
		Breakdowns:       []domain.Breakdown{},
	}
	if err := db.Where("win_id = ?", w.ID).Order("year").Find(&out.Win.Breakdowns).Error; err != nil {
		return nil, err
	}
	var c domain.Contact
	if err := db.Where("id = ?", t.CompanyContactID).First(&c).Error; err != nil {
		return nil, err
	}
	out.CompanyContact = PublicContact{ID: c.ID, Name: c.Name(), Email: c.Email}
	return out, nil
}

func applyPublicInput(tx *gorm.DB, cr *domain.CustomerResponse, in PublicInput) validation.Errors {
	var errs validation.Errors
	ref := func(field string, r validation.Ref, model interface{}, dst **uuid.UUID) {
		errs.Check(field, r)
		switch {
		case r.Invalid || !r.Present:
		case r.Set() && !exists(tx, model, *r.ID):
			errs.Add(field, validation.MsgDoesNotExist)
		default:
			*dst = r.ID
		}
	}
	ref("our_support", in.OurSupport, &domain.Rating{}, &cr.OurSupportID)
	ref("access_to_contacts", in.AccessToContacts, &domain.Rating{}, &cr.AccessToContactsID)
	ref("access_to_information", in.AccessToInformation, &domain.Rating{}, &cr.AccessToInformationID)
	ref("improved_profile", in.ImprovedProfile, &domain.Rating{}, &cr.ImprovedProfileID)
	ref("gained_confidence", in.GainedConfidence, &domain.Rating{}, &cr.GainedConfidenceID)
	ref("developed_relationships", in.DevelopedRelationships, &domain.Rating{}, &cr.DevelopedRelationshipsID)
	ref("overcame_problem", in.OvercameProblem, &domain.Rating{}, &cr.OvercameProblemID)
	ref("expected_portion_without_help", in.ExpectedPortionWithoutHelp, &domain.WithoutOurSupport{}, &cr.ExpectedPortionWithoutHelpID)
	ref("last_export", in.LastExport, &domain.Experience{}, &cr.LastExportID)
	ref("marketing_source", in.MarketingSource, &domain.MarketingSource{}, &cr.MarketingSourceID)

	if in.AgreeWithWin != nil {
		cr.AgreeWithWin = in.AgreeWithWin
	}
	if in.Comments != nil {
		cr.Comments = *in.Comments
	}
	if in.OtherMarketingSource != nil {
		cr.OtherMarketingSource = *in.OtherMarketingSource
	}
	for _, f := range []struct {
		v   *bool
		dst *bool
	}{
		{in.InvolvedStateEnterprise, &cr.InvolvedStateEnterprise},
		{in.InterventionsWerePrerequisite, &cr.InterventionsWerePrerequisite},
		{in.SupportImprovedSpeed, &cr.SupportImprovedSpeed},
		{in.CompanyWasAtRiskOfNotExporting, &cr.CompanyWasAtRiskOfNotExporting},
		{in.HasExplicitExportPlans, &cr.HasExplicitExportPlans},
		{in.HasEnabledExpansionIntoNewMarket, &cr.HasEnabledExpansionIntoNewMarket},
		{in.HasIncreasedExportsAsPercentOfTurnover, &cr.HasIncreasedExportsAsPercentOfTurnover},
		{in.HasEnabledExpansionIntoExistingMarket, &cr.HasEnabledExpansionIntoExistingMarket},
		{in.CaseStudyWilling, &cr.CaseStudyWilling},
	} {
		if f.v != nil {
			*f.dst = *f.v
		}
	}
	return errs
}

// notifyLeadOfficer sends the approved or rejected email. Failures are logged.
func (s *Service) notifyLeadOfficer(ctx context.Context, cr *domain.CustomerResponse, t *domain.CustomerResponseToken) {
	if s.Mailer == nil {
		return
	}
	db := s.DB.WithContext(ctx)
	wc, err := loadWinContext(db, cr.WinID)
	if err != nil {
		log.Error().Err(err).Str("win_id", cr.WinID.String()).Msg("load win for lead officer notice")
		return
	}
	var contact domain.Contact
	_ = db.Where("id = ?", t.CompanyContactID).First(&contact).Error
	companyName := wc.Win.CompanyName
	if contact.CompanyID != nil {
		var c domain.Company
		if db.Select("name").Where("id = ?", *contact.CompanyID).First(&c).Error == nil {
			companyName = c.Name
		}
	}
	email := wc.LeadOfficer.ContactEmail
	if email == "" {
		email = wc.LeadOfficer.Email
	}
	if email == "" {
		email = wc.Win.LeadOfficerEmailAddress
	}
	n := emails.LeadOfficerNotice{
		LeadOfficerEmail:     email,
		LeadOfficerFirstName: wc.LeadOfficer.FirstName,
		CountryDestination:   wc.CountryName,
		ClientFullName:       contact.Name(),
		ClientCompanyName:    companyName,
		GoodsServices:        wc.GoodsOrServices,
		URL:                  s.LeadOfficerReviewURL + "/" + cr.WinID.String(),
	}
	var id string
	if cr.AgreeWithWin != nil && *cr.AgreeWithWin {
		totals, terr := domain.SumBreakdowns(db, cr.WinID)
		if terr == nil {
			n.TotalExportWinValue = totals.Export + totals.NonExport + totals.ODI
		}
		id, err = s.Mailer.SendLeadOfficerApproved(ctx, n)
	} else {
		id, err = s.Mailer.SendLeadOfficerRejected(ctx, n)
	}
	if err != nil {
		log.Error().Err(err).Str("customer_response_id", cr.ID.String()).Msg("send lead officer notice")
		return
	}
	if id != "" {
		db.Model(&domain.CustomerResponse{}).Where("id = ?", cr.ID).UpdateColumn("lead_officer_email_notification_id", id)
	}
}
