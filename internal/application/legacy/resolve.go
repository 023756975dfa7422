package legacy

import (
	"strings"

	"datahub-backend/internal/domain"
	"datahub-backend/internal/infrastructure/exportwinsapi"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// emailDomainAliases pairs the department's old and new mail domains.
var emailDomainAliases = [][2]string{
	{"trade.gov.uk", "businessandtrade.gov.uk"},
	{"digital.trade.gov.uk", "digital.businessandtrade.gov.uk"},
	{"mobile.trade.gov.uk", "mobile.businessandtrade.gov.uk"},
}

// emailAliases returns the lower cased address followed by its other-domain spellings.
func emailAliases(email string) []string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	out := []string{email}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return out
	}
	local, domainPart := email[:at], email[at+1:]
	for _, pair := range emailDomainAliases {
		switch domainPart {
		case pair[0]:
			out = append(out, local+"@"+pair[1])
		case pair[1]:
			out = append(out, local+"@"+pair[0])
		}
	}
	return out
}

// splitName takes the first and last words, so "Joe M. Doe" is Joe Doe.
func splitName(name string) (first, last string, ok bool) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", "", false
	}
	return parts[0], parts[len(parts)-1], true
}

// byExportWinID finds a reference row by its legacy id.
func byExportWinID(tx *gorm.DB, model interface{}, ref exportwinsapi.Ref) *uuid.UUID {
	if !ref.Valid {
		return nil
	}
	return firstID(tx.Model(model).Where("export_win_id = ?", ref.Value))
}

// byName finds a reference row by its exact name.
func byName(tx *gorm.DB, model interface{}, ref exportwinsapi.Ref) *uuid.UUID {
	if !ref.Valid {
		return nil
	}
	return firstID(tx.Model(model).Where("name = ?", ref.Value))
}

func firstID(q *gorm.DB) *uuid.UUID {
	var ids []uuid.UUID
	if err := q.Limit(1).Pluck("id", &ids).Error; err != nil || len(ids) == 0 {
		return nil
	}
	return &ids[0]
}

func adviserByEmail(tx *gorm.DB, email string) *uuid.UUID {
	aliases := emailAliases(email)
	if len(aliases) == 0 {
		return nil
	}
	return firstID(tx.Model(&domain.Adviser{}).
		Where("LOWER(contact_email) IN ? OR LOWER(email) IN ?", aliases, aliases).
		Order("date_joined DESC"))
}

func adviserByName(tx *gorm.DB, name string, activeOnly bool) *uuid.UUID {
	first, last, ok := splitName(name)
	if !ok {
		return nil
	}
	q := tx.Model(&domain.Adviser{}).
		Where("LOWER(first_name) = ? AND LOWER(last_name) = ?", strings.ToLower(first), strings.ToLower(last))
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	return firstID(q.Order("date_joined DESC"))
}

// resolveAdviser tries the email address, then the name.
func resolveAdviser(tx *gorm.DB, email, name string) *uuid.UUID {
	if id := adviserByEmail(tx, email); id != nil {
		return id
	}
	return adviserByName(tx, name, false)
}

func resolveCompany(tx *gorm.DB, legacyWinID uuid.UUID) *uuid.UUID {
	var m domain.LegacyExportWinsToDataHubCompany
	if err := tx.Where("id = ?", legacyWinID).First(&m).Error; err != nil {
		return nil
	}
	return m.CompanyID
}

func resolveCompanyContact(tx *gorm.DB, companyID uuid.UUID, customerName string) *uuid.UUID {
	first, last, ok := splitName(customerName)
	if !ok {
		return nil
	}
	return firstID(tx.Model(&domain.Contact{}).
		Where("LOWER(first_name) = ? AND LOWER(last_name) = ?", strings.ToLower(first), strings.ToLower(last)).
		Where("company_id = ? AND transferred_to_id IS NULL", companyID).
		Order("created_on DESC"))
}

// resolveMany keeps the references that resolve, in order.
func resolveMany(tx *gorm.DB, model interface{}, refs []exportwinsapi.Ref) []uuid.UUID {
	var out []uuid.UUID
	for _, r := range refs {
		if id := byExportWinID(tx, model, r); id != nil {
			out = append(out, *id)
		}
	}
	return out
}
