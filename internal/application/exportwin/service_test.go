package exportwin

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"datahub-backend/internal/application/emails"
	searchapp "datahub-backend/internal/application/search"
	"datahub-backend/internal/domain"
	"datahub-backend/internal/pkg/testdb"
	"datahub-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeMailer struct {
	mu       sync.Mutex
	receipts []emails.ClientReceipt
	approved []emails.LeadOfficerNotice
	rejected []emails.LeadOfficerNotice
}

func (m *fakeMailer) SendClientReceipt(_ context.Context, n emails.ClientReceipt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts = append(m.receipts, n)
	return "msg-receipt", nil
}

func (m *fakeMailer) SendLeadOfficerApproved(_ context.Context, n emails.LeadOfficerNotice) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.approved = append(m.approved, n)
	return "msg-approved", nil
}

func (m *fakeMailer) SendLeadOfficerRejected(_ context.Context, n emails.LeadOfficerNotice) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected = append(m.rejected, n)
	return "msg-rejected", nil
}

type fakeIndexer struct {
	docs map[string]interface{}
}

func (i *fakeIndexer) Index(_ context.Context, index, id string, doc interface{}) error {
	if i.docs == nil {
		i.docs = map[string]interface{}{}
	}
	i.docs[index+"/"+id] = doc
	return nil
}

var now = time.Date(2024, 10, 17, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db          *gorm.DB
	s           *Service
	mailer      *fakeMailer
	meta        testdb.ExportWinMetadata
	company     domain.Company
	contact     domain.Contact
	adviser     domain.Adviser
	leadOfficer domain.Adviser
	other       domain.Adviser
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	f := &fixture{db: db, mailer: &fakeMailer{}}
	f.meta = testdb.SeedExportWinMetadata(t, db)
	f.company = testdb.Company(t, db, "Acme")
	f.contact = testdb.Contact(t, db, f.company.ID, "Jo", "Bloggs", "jo@acme.example")
	f.adviser = testdb.Adviser(t, db, "Ada", "Lovelace", "ada@trade.gov.uk")
	f.leadOfficer = testdb.Adviser(t, db, "Lee", "Officer", "lee@trade.gov.uk")
	f.other = testdb.Adviser(t, db, "Otto", "Other", "otto@trade.gov.uk")
	f.s = &Service{
		DB:                   db,
		Mailer:               f.mailer,
		ClientReviewURL:      "https://review.example/win",
		LeadOfficerReviewURL: "https://datahub.example/exportwins",
		Now:                  func() time.Time { return now },
	}
	return f
}

func (f *fixture) createBody() string {
	return `{
		"lead_officer": "` + f.leadOfficer.ID.String() + `",
		"company": "` + f.company.ID.String() + `",
		"company_contacts": ["` + f.contact.ID.String() + `"],
		"description": "Sold aircraft parts",
		"name_of_export": "Aircraft parts",
		"date": "2024-05-01",
		"country": "` + f.meta.Country.ID.String() + `",
		"goods_vs_services": "` + f.meta.GoodsVsServices.ID.String() + `",
		"sector": "` + f.meta.Sector.ID.String() + `",
		"type_of_support": ["` + f.meta.SupportType.ID.String() + `"],
		"breakdowns": [
			{"type": "` + f.meta.Export.ID.String() + `", "year": 1, "value": 1000},
			{"type": "` + f.meta.Export.ID.String() + `", "year": 2, "value": 2500},
			{"type": "` + f.meta.ODI.ID.String() + `", "year": 1, "value": 300}
		]
	}`
}

func input(t *testing.T, body string) Input {
	t.Helper()
	var in Input
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func TestCreate_Validation(t *testing.T) {
	f := setup(t)
	_, err := f.s.Create(context.Background(), input(t, `{"date": "May", "company_contacts": []}`), f.adviser.ID)
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{validation.MsgRequired}, errs["lead_officer"])
	assert.Equal(t, []string{validation.MsgRequired}, errs["company"])
	assert.Equal(t, []string{MsgInvalidDate}, errs["date"])
	assert.Equal(t, []string{"This list may not be empty."}, errs["company_contacts"])
	assert.Equal(t, []string{validation.MsgRequired}, errs["breakdowns"])
	assert.NotContains(t, errs, "adviser")
}

func TestCreate_IndexesComputedTotals(t *testing.T) {
	f := setup(t)
	idx := &fakeIndexer{}
	f.s.Search = idx
	d, err := f.s.Create(context.Background(), input(t, f.createBody()), f.adviser.ID)
	require.NoError(t, err)

	doc, ok := idx.docs[searchapp.IndexExportWin+"/"+d.ID.String()].(searchapp.WinDocument)
	require.True(t, ok)
	assert.Equal(t, int64(3500), doc.TotalExpectedExportValue)
	assert.Equal(t, int64(0), doc.TotalExpectedNonExportValue)
	assert.Equal(t, int64(300), doc.TotalExpectedODIValue)
}

func TestCreate(t *testing.T) {
	f := setup(t)
	d, err := f.s.Create(context.Background(), input(t, f.createBody()), f.adviser.ID)
	require.NoError(t, err)

	assert.Equal(t, f.adviser.ID, *d.AdviserID)
	assert.Equal(t, "Acme", d.CompanyName)
	assert.Equal(t, int64(3500), d.TotalExpectedExportValue)
	assert.Equal(t, int64(0), d.TotalExpectedNonExportValue)
	assert.Equal(t, int64(300), d.TotalExpectedODIValue)
	assert.Len(t, d.Breakdowns, 3)
	assert.Equal(t, []uuid.UUID{f.contact.ID}, d.CompanyContacts)
	assert.Equal(t, []uuid.UUID{f.meta.SupportType.ID}, d.TypeOfSupport)
	require.NotNil(t, d.CustomerResponse)
	assert.Nil(t, d.CustomerResponse.AgreeWithWin)
	require.NotNil(t, d.FirstSent)

	var tokens []domain.CustomerResponseToken
	require.NoError(t, f.db.Find(&tokens).Error)
	require.Len(t, tokens, 1)
	assert.Equal(t, f.contact.ID, tokens[0].CompanyContactID)
	assert.True(t, tokens[0].ExpiresOn.Equal(now.Add(TokenLifetime)))
	assert.Equal(t, "msg-receipt", tokens[0].EmailNotificationID)

	require.Len(t, f.mailer.receipts, 1)
	r := f.mailer.receipts[0]
	assert.Equal(t, "jo@acme.example", r.CustomerEmail)
	assert.Equal(t, "Canada", r.CountryDestination)
	assert.Equal(t, "Lee Officer", r.LeadOfficerName)
	assert.Equal(t, "Goods", r.GoodsServices)
	assert.Equal(t, "https://review.example/win/"+tokens[0].ID.String(), r.URL)
}

func TestUpdate_ReplacesNestedOnlyWhenSupplied(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	d, err := f.s.Create(ctx, input(t, f.createBody()), f.adviser.ID)
	require.NoError(t, err)

	d, err = f.s.Update(ctx, d.ID, input(t, `{"description": "Updated"}`), f.leadOfficer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated", d.Description)
	assert.Len(t, d.Breakdowns, 3)
	assert.Equal(t, []uuid.UUID{f.meta.SupportType.ID}, d.TypeOfSupport)

	d, err = f.s.Update(ctx, d.ID, input(t, `{
		"breakdowns": [{"type": "`+f.meta.NonExport.ID.String()+`", "year": 1, "value": 50}],
		"type_of_support": [],
		"team_members": ["`+f.other.ID.String()+`"]
	}`), f.adviser.ID)
	require.NoError(t, err)
	assert.Len(t, d.Breakdowns, 1)
	assert.Equal(t, int64(0), d.TotalExpectedExportValue)
	assert.Equal(t, int64(50), d.TotalExpectedNonExportValue)
	assert.Equal(t, int64(0), d.TotalExpectedODIValue)
	assert.Empty(t, d.TypeOfSupport)
	assert.Equal(t, []uuid.UUID{f.other.ID}, d.TeamMembers)

	stranger := testdb.Adviser(t, f.db, "Sam", "Stranger", "sam@trade.gov.uk")
	_, err = f.s.Update(ctx, d.ID, input(t, `{"description": "Hijacked"}`), stranger.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func (f *fixture) respond(t *testing.T, w domain.Win, agree *bool) {
	t.Helper()
	require.NoError(t, f.db.Create(&domain.CustomerResponse{WinID: w.ID, AgreeWithWin: agree}).Error)
}

func boolPtr(b bool) *bool { return &b }

func TestVisibility(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		arrange func(f *fixture, w *domain.Win)
		get     bool
		listed  bool
	}{
		{"adviser", func(f *fixture, w *domain.Win) {}, true, true},
		{"team member", func(f *fixture, w *domain.Win) {
			require.NoError(t, f.db.Create(&domain.WinTeamMember{WinID: w.ID, AdviserID: f.other.ID}).Error)
		}, true, true},
		{"contributor on confirmed win", func(f *fixture, w *domain.Win) {
			require.NoError(t, f.db.Create(&domain.WinAdviser{WinID: w.ID, AdviserID: &f.other.ID}).Error)
			f.respond(t, *w, boolPtr(true))
		}, true, true},
		{"contributor on rejected win", func(f *fixture, w *domain.Win) {
			require.NoError(t, f.db.Create(&domain.WinAdviser{WinID: w.ID, AdviserID: &f.other.ID}).Error)
			f.respond(t, *w, boolPtr(false))
		}, false, false},
		{"someone else's confirmed win", func(f *fixture, w *domain.Win) {
			f.respond(t, *w, boolPtr(true))
		}, true, false},
		{"anonymous confirmed win", func(f *fixture, w *domain.Win) {
			require.NoError(t, f.db.Create(&domain.WinAdviser{WinID: w.ID, AdviserID: &f.other.ID}).Error)
			require.NoError(t, f.db.Model(w).Update("is_anonymous_win", true).Error)
			f.respond(t, *w, boolPtr(true))
		}, false, false},
		{"deleted", func(f *fixture, w *domain.Win) {
			require.NoError(t, f.db.Create(&domain.WinTeamMember{WinID: w.ID, AdviserID: f.other.ID}).Error)
			require.NoError(t, f.db.Model(w).Update("is_deleted", true).Error)
		}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			viewer := f.adviser
			if tt.name != "adviser" {
				viewer = f.other
			}
			w := testdb.Win(t, f.db, f.meta, f.company.ID, f.adviser.ID, f.leadOfficer.ID)
			tt.arrange(f, &w)

			_, err := f.s.Get(ctx, w.ID, viewer.ID)
			if tt.get {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrNotFound)
			}
			wins, count, err := f.s.List(ctx, viewer.ID, ListFilter{}, 10, 0)
			require.NoError(t, err)
			if tt.listed {
				assert.Equal(t, int64(1), count)
				require.Len(t, wins, 1)
				assert.Equal(t, w.ID, wins[0].ID)
			} else {
				assert.Zero(t, count)
			}
		})
	}
}

func TestList_ConfirmedFilterAndOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	var ids []uuid.UUID
	for i, agree := range []*bool{boolPtr(true), boolPtr(false), nil} {
		w := testdb.Win(t, f.db, f.meta, f.company.ID, f.adviser.ID, f.leadOfficer.ID)
		require.NoError(t, f.db.Model(&w).UpdateColumn("created_on", now.AddDate(0, 0, i)).Error)
		f.respond(t, w, agree)
		ids = append(ids, w.ID)
	}

	wins, count, err := f.s.List(ctx, f.adviser.ID, ListFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, []uuid.UUID{wins[0].ID, wins[1].ID, wins[2].ID})

	for filter, want := range map[string]uuid.UUID{"true": ids[0], "false": ids[1], "null": ids[2]} {
		wins, count, err := f.s.List(ctx, f.adviser.ID, ListFilter{Confirmed: filter}, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count, filter)
		assert.Equal(t, want, wins[0].ID, filter)
	}
}

func TestResend(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	d, err := f.s.Create(ctx, input(t, f.createBody()), f.adviser.ID)
	require.NoError(t, err)

	later := now.Add(time.Hour)
	f.s.Now = func() time.Time { return later }
	require.NoError(t, f.s.Resend(ctx, d.ID, f.leadOfficer.ID))

	var tokens []domain.CustomerResponseToken
	require.NoError(t, f.db.Order("created_on").Find(&tokens).Error)
	require.Len(t, tokens, 2)
	live := 0
	for _, tok := range tokens {
		if !tok.Expired(later) {
			live++
		}
	}
	assert.Equal(t, 1, live)
	assert.Len(t, f.mailer.receipts, 2)

	assert.ErrorIs(t, f.s.Resend(ctx, d.ID, f.other.ID), ErrNotFound)

	require.NoError(t, f.db.Model(&domain.CustomerResponse{}).Where("win_id = ?", d.ID).Update("agree_with_win", true).Error)
	assert.ErrorIs(t, f.s.Resend(ctx, d.ID, f.adviser.ID), ErrNotFound)
}

func TestCustomerResponseTokenFlow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	d, err := f.s.Create(ctx, input(t, f.createBody()), f.adviser.ID)
	require.NoError(t, err)
	var token domain.CustomerResponseToken
	require.NoError(t, f.db.First(&token).Error)

	for i := 1; i <= 3; i++ {
		r, err := f.s.GetCustomerResponse(ctx, token.ID)
		require.NoError(t, err)
		assert.Equal(t, d.ID, r.WinID)
		assert.Equal(t, "Jo Bloggs", r.CompanyContact.Name)
		assert.Len(t, r.Win.Breakdowns, 3)
		require.NoError(t, f.db.First(&token, "id = ?", token.ID).Error)
		assert.Equal(t, i, token.TimesUsed)
	}

	r, err := f.s.UpdateCustomerResponse(ctx, token.ID, PublicInput{
		AgreeWithWin: boolPtr(true),
		OurSupport:   validation.NewRef(f.meta.Rating.ID),
	})
	require.NoError(t, err)
	require.NotNil(t, r.RespondedOn)
	assert.Equal(t, f.meta.Rating.ID, *r.OurSupportID)

	require.Len(t, f.mailer.approved, 1)
	n := f.mailer.approved[0]
	assert.Equal(t, "lee@trade.gov.uk", n.LeadOfficerEmail)
	assert.Equal(t, "Acme", n.ClientCompanyName)
	assert.Equal(t, int64(3800), n.TotalExportWinValue)
	assert.Equal(t, "https://datahub.example/exportwins/"+d.ID.String(), n.URL)

	_, err = f.s.GetCustomerResponse(ctx, token.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.s.UpdateCustomerResponse(ctx, token.ID, PublicInput{AgreeWithWin: boolPtr(false)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCustomerResponseToken_ExpiresAtExactInstant(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.s.Create(ctx, input(t, f.createBody()), f.adviser.ID)
	require.NoError(t, err)
	var token domain.CustomerResponseToken
	require.NoError(t, f.db.First(&token).Error)

	f.s.Now = func() time.Time { return now.Add(TokenLifetime - time.Second) }
	_, err = f.s.GetCustomerResponse(ctx, token.ID)
	require.NoError(t, err)

	f.s.Now = func() time.Time { return now.Add(TokenLifetime) }
	_, err = f.s.GetCustomerResponse(ctx, token.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.s.GetCustomerResponse(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSoftDeleteAndUndelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	w := testdb.Win(t, f.db, f.meta, f.company.ID, f.adviser.ID, f.leadOfficer.ID)

	deleted, err := f.s.SoftDelete(ctx, w.ID, f.other.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	_, err = f.s.Get(ctx, w.ID, f.adviser.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.s.SoftDelete(ctx, w.ID, f.other.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	restored, err := f.s.Undelete(ctx, w.ID, f.other.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	_, err = f.s.Get(ctx, w.ID, f.adviser.ID)
	assert.NoError(t, err)

	var versions int64
	require.NoError(t, f.db.Model(&domain.Version{}).Where("object_id = ?", w.ID.String()).Count(&versions).Error)
	assert.Equal(t, int64(2), versions)
}
