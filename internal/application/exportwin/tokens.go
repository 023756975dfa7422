package exportwin

import (
	"context"
	"errors"
	"time"

	"datahub-backend/internal/application/emails"
	"datahub-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// TokenLifetime is how long a review link stays valid.
const TokenLifetime = 7 * 24 * time.Hour

// CreateTokenForContact expires the contact's live tokens for the response and issues a new one.
func CreateTokenForContact(tx *gorm.DB, contactID, customerResponseID uuid.UUID, now time.Time) (*domain.CustomerResponseToken, error) {
	err := tx.Model(&domain.CustomerResponseToken{}).
		Where("company_contact_id = ? AND customer_response_id = ? AND expires_on >= ?", contactID, customerResponseID, now).
		Update("expires_on", now).Error
	if err != nil {
		return nil, err
	}
	t := &domain.CustomerResponseToken{
		ExpiresOn:          now.Add(TokenLifetime),
		CompanyContactID:   contactID,
		CustomerResponseID: customerResponseID,
	}
	if err := tx.Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

func createTokens(tx *gorm.DB, customerResponseID uuid.UUID, contactIDs []uuid.UUID, now time.Time) ([]domain.CustomerResponseToken, error) {
	out := make([]domain.CustomerResponseToken, 0, len(contactIDs))
	for id := range unique(contactIDs) {
		t, err := CreateTokenForContact(tx, id, customerResponseID, now)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

// Resend issues fresh review links to the company contacts of an unanswered win.
// Only the adviser, lead officer and team members may resend.
func (s *Service) Resend(ctx context.Context, id, adviserID uuid.UUID) error {
	var tokens []domain.CustomerResponseToken
	now := s.now()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var w domain.Win
		err := domain.ActiveWins(tx).Where("id = ?", id).Where(directlyInvolved(tx, adviserID)).First(&w).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var cr domain.CustomerResponse
		err = tx.Where("win_id = ?", id).First(&cr).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if cr.AgreeWithWin != nil {
			return ErrNotFound
		}
		var contactIDs []uuid.UUID
		if err := tx.Model(&domain.WinCompanyContact{}).Where("win_id = ?", id).Pluck("contact_id", &contactIDs).Error; err != nil {
			return err
		}
		tokens, err = createTokens(tx, cr.ID, contactIDs, now)
		if err != nil {
			return err
		}
		return tx.Model(&w).UpdateColumn("last_sent", now).Error
	})
	if err != nil {
		return err
	}
	s.sendClientReceipts(ctx, id, tokens)
	return nil
}

// winContext is what the notification emails show about a win.
type winContext struct {
	Win             domain.Win
	CountryName     string
	GoodsOrServices string
	LeadOfficer     domain.Adviser
}

func loadWinContext(db *gorm.DB, winID uuid.UUID) (*winContext, error) {
	wc := &winContext{}
	if err := db.Where("id = ?", winID).First(&wc.Win).Error; err != nil {
		return nil, err
	}
	if wc.Win.CountryID != nil {
		var c domain.Country
		if db.Where("id = ?", *wc.Win.CountryID).First(&c).Error == nil {
			wc.CountryName = c.Name
		}
	}
	if wc.Win.GoodsVsServicesID != nil {
		var g domain.ExpectedValueRelation
		if db.Where("id = ?", *wc.Win.GoodsVsServicesID).First(&g).Error == nil {
			wc.GoodsOrServices = g.Name
		}
	}
	if wc.Win.LeadOfficerID != nil {
		_ = db.Where("id = ?", *wc.Win.LeadOfficerID).First(&wc.LeadOfficer).Error
	}
	return wc, nil
}

// sendClientReceipts emails each token's contact and records the message id. Failures are logged.
func (s *Service) sendClientReceipts(ctx context.Context, winID uuid.UUID, tokens []domain.CustomerResponseToken) {
	if s.Mailer == nil || len(tokens) == 0 {
		return
	}
	db := s.DB.WithContext(ctx)
	wc, err := loadWinContext(db, winID)
	if err != nil {
		log.Error().Err(err).Str("win_id", winID.String()).Msg("load win for client receipt")
		return
	}
	leadOfficerName := wc.LeadOfficer.Name()
	if leadOfficerName == "" {
		leadOfficerName = wc.Win.LeadOfficerName
	}
	for _, t := range tokens {
		var contact domain.Contact
		if err := db.Where("id = ?", t.CompanyContactID).First(&contact).Error; err != nil {
			log.Error().Err(err).Str("token_id", t.ID.String()).Msg("load contact for client receipt")
			continue
		}
		id, err := s.Mailer.SendClientReceipt(ctx, emails.ClientReceipt{
			CustomerEmail:      contact.Email,
			CountryDestination: wc.CountryName,
			ClientFirstName:    contact.FirstName,
			LeadOfficerName:    leadOfficerName,
			GoodsServices:      wc.GoodsOrServices,
			URL:                s.ClientReviewURL + "/" + t.ID.String(),
		})
		if err != nil {
			log.Error().Err(err).Str("token_id", t.ID.String()).Msg("send client receipt")
			continue
		}
		if id != "" {
			db.Model(&domain.CustomerResponseToken{}).Where("id = ?", t.ID).Update("email_notification_id", id)
		}
	}
}
