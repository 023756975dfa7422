package exportwinsapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Ref is a legacy reference value: a number, a string or null.
// Empty strings and null are both absent.
type Ref struct {
	Value string
	Valid bool
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*r = Ref{}
	switch {
	case bytes.Equal(b, []byte("null")):
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s != "" {
			*r = Ref{Value: s, Valid: true}
		}
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("legacy reference %s: %w", b, err)
		}
		*r = Ref{Value: n.String(), Valid: true}
		return nil
	}
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(r.Value, 10, 64); err == nil {
		return []byte(r.Value), nil
	}
	return json.Marshal(r.Value)
}

// R builds a valid Ref.
func R(v string) Ref { return Ref{Value: v, Valid: true} }

// LegacyWin is one row of the wins dataset. Fields prefixed Confirmation form the customer response.
type LegacyWin struct {
	ID                          string  `json:"id"`
	Audit                       *string `json:"audit"`
	BusinessPotential           Ref     `json:"business_potential"`
	BusinessType                string  `json:"business_type"`
	CDMSReference               string  `json:"cdms_reference"`
	CompanyName                 string  `json:"company_name"`
	Complete                    bool    `json:"complete"`
	Country                     string  `json:"country"`
	CountryName                 Ref     `json:"country_name"`
	Created                     string  `json:"created"`
	CustomerEmailAddress        string  `json:"customer_email_address"`
	CustomerJobTitle            string  `json:"customer_job_title"`
	CustomerLocation            Ref     `json:"customer_location"`
	CustomerName                string  `json:"customer_name"`
	Date                        string  `json:"date"`
	Description                 string  `json:"description"`
	ExportExperienceDisplay     Ref     `json:"export_experience_display"`
	GoodsVsServices             Ref     `json:"goods_vs_services"`
	HasHVOSpecialistInvolvement bool    `json:"has_hvo_specialist_involvement"`
	HQTeam                      Ref     `json:"hq_team"`
	HVC                         Ref     `json:"hvc"`
	HVOProgramme                Ref     `json:"hvo_programme"`
	IsEExported                 bool    `json:"is_e_exported"`
	IsLineManagerConfirmed      bool    `json:"is_line_manager_confirmed"`
	IsPersonallyConfirmed       bool    `json:"is_personally_confirmed"`
	IsProsperityFundRelated     bool    `json:"is_prosperity_fund_related"`
	LeadOfficerEmailAddress     string  `json:"lead_officer_email_address"`
	LeadOfficerName             string  `json:"lead_officer_name"`
	LineManagerName             string  `json:"line_manager_name"`
	NameOfCustomer              string  `json:"name_of_customer"`
	NameOfExport                string  `json:"name_of_export"`
	OtherOfficialEmailAddress   string  `json:"other_official_email_address"`
	SectorDisplay               Ref     `json:"sector_display"`
	TeamType                    Ref     `json:"team_type"`
	UserEmail                   string  `json:"user__email"`
	UserName                    string  `json:"user__name"`
	IsActive                    *bool   `json:"is_active"`

	AssociatedProgramme1 Ref `json:"associated_programme_1"`
	AssociatedProgramme2 Ref `json:"associated_programme_2"`
	AssociatedProgramme3 Ref `json:"associated_programme_3"`
	AssociatedProgramme4 Ref `json:"associated_programme_4"`
	AssociatedProgramme5 Ref `json:"associated_programme_5"`
	TypeOfSupport1       Ref `json:"type_of_support_1"`
	TypeOfSupport2       Ref `json:"type_of_support_2"`
	TypeOfSupport3       Ref `json:"type_of_support_3"`

	ConfirmationAccessToContacts           Ref     `json:"confirmation__access_to_contacts"`
	ConfirmationAccessToInformation        Ref     `json:"confirmation__access_to_information"`
	ConfirmationDevelopedRelationships     Ref     `json:"confirmation__developed_relationships"`
	ConfirmationGainedConfidence           Ref     `json:"confirmation__gained_confidence"`
	ConfirmationImprovedProfile            Ref     `json:"confirmation__improved_profile"`
	ConfirmationOurSupport                 Ref     `json:"confirmation__our_support"`
	ConfirmationOvercameProblem            Ref     `json:"confirmation__overcame_problem"`
	ConfirmationLastExport                 Ref     `json:"confirmation_last_export"`
	ConfirmationMarketingSource            Ref     `json:"confirmation_marketing_source"`
	ConfirmationPortionWithoutHelp         Ref     `json:"confirmation_portion_without_help"`
	ConfirmationCreated                    *string `json:"confirmation__created"`
	ConfirmationComments                   *string `json:"confirmation__comments"`
	ConfirmationName                       *string `json:"confirmation__name"`
	ConfirmationOtherMarketingSource       *string `json:"confirmation__other_marketing_source"`
	ConfirmationAgreeWithWin               *bool   `json:"confirmation__agree_with_win"`
	ConfirmationCaseStudyWilling           *bool   `json:"confirmation__case_study_willing"`
	ConfirmationCompanyWasAtRisk           *bool   `json:"confirmation__company_was_at_risk_of_not_exporting"`
	ConfirmationExpansionIntoExisting      *bool   `json:"confirmation__has_enabled_expansion_into_existing_market"`
	ConfirmationExpansionIntoNew           *bool   `json:"confirmation__has_enabled_expansion_into_new_market"`
	ConfirmationExplicitExportPlans        *bool   `json:"confirmation__has_explicit_export_plans"`
	ConfirmationIncreasedExportsOfTurnover *bool   `json:"confirmation__has_increased_exports_as_percent_of_turnover"`
	ConfirmationInterventionsPrerequisite  *bool   `json:"confirmation__interventions_were_prerequisite"`
	ConfirmationInvolvedStateEnterprise    *bool   `json:"confirmation__involved_state_enterprise"`
	ConfirmationSupportImprovedSpeed       *bool   `json:"confirmation__support_improved_speed"`
}

// AssociatedProgrammes returns the numbered associated programme references in order.
func (w LegacyWin) AssociatedProgrammes() []Ref {
	return []Ref{w.AssociatedProgramme1, w.AssociatedProgramme2, w.AssociatedProgramme3, w.AssociatedProgramme4, w.AssociatedProgramme5}
}

// TypesOfSupport returns the numbered type of support references in order.
func (w LegacyWin) TypesOfSupport() []Ref {
	return []Ref{w.TypeOfSupport1, w.TypeOfSupport2, w.TypeOfSupport3}
}

// LegacyBreakdown is one row of the breakdowns dataset. Year is a calendar financial year.
type LegacyBreakdown struct {
	ID    int         `json:"id"`
	WinID string      `json:"win__id"`
	Type  Ref         `json:"type"`
	Year  int         `json:"year"`
	Value json.Number `json:"value"`
}

// IntValue truncates the breakdown value to whole pounds.
func (b LegacyBreakdown) IntValue() (int64, error) {
	if i, err := b.Value.Int64(); err == nil {
		return i, nil
	}
	f, err := b.Value.Float64()
	if err != nil {
		return 0, fmt.Errorf("breakdown %d value %q: %w", b.ID, b.Value, err)
	}
	return int64(f), nil
}

// LegacyAdviser is one row of the win advisers dataset.
type LegacyAdviser struct {
	ID       int    `json:"id"`
	WinID    string `json:"win__id"`
	HQTeam   Ref    `json:"hq_team"`
	TeamType Ref    `json:"team_type"`
	Location string `json:"location"`
	Name     string `json:"name"`
}

// ParseTimestamp reads the ISO 8601 timestamps used by the legacy service.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999-07:00", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
