package legacy

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"datahub-backend/internal/domain"
	"datahub-backend/internal/infrastructure/exportwinsapi"
	"datahub-backend/internal/pkg/testdb"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSource struct {
	wins       []exportwinsapi.LegacyWin
	breakdowns []exportwinsapi.LegacyBreakdown
	advisers   []exportwinsapi.LegacyAdviser
}

func (f *fakeSource) Wins(_ context.Context, fn func(exportwinsapi.LegacyWin) error) error {
	for _, w := range f.wins {
		if err := fn(w); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSource) Breakdowns(_ context.Context, fn func(exportwinsapi.LegacyBreakdown) error) error {
	for _, b := range f.breakdowns {
		if err := fn(b); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSource) Advisers(_ context.Context, fn func(exportwinsapi.LegacyAdviser) error) error {
	for _, a := range f.advisers {
		if err := fn(a); err != nil {
			return err
		}
	}
	return nil
}

var migratedAt = time.Date(2024, 10, 17, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db          *gorm.DB
	m           *Migrator
	src         *fakeSource
	meta        testdb.ExportWinMetadata
	company     domain.Company
	contact     domain.Contact
	adviser     domain.Adviser
	leadOfficer domain.Adviser
	other       domain.Adviser
	winID       uuid.UUID
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	f := &fixture{db: db, src: &fakeSource{}, winID: uuid.New()}
	f.meta = testdb.SeedExportWinMetadata(t, db)
	f.company = testdb.Company(t, db, "Acme")
	f.contact = testdb.Contact(t, db, f.company.ID, "Jo", "Bloggs", "jo@acme.example")
	f.adviser = testdb.Adviser(t, db, "Ada", "Lovelace", "ada@trade.gov.uk")
	f.leadOfficer = testdb.Adviser(t, db, "Lee", "Officer", "lee@trade.gov.uk")
	f.other = testdb.Adviser(t, db, "Otto", "Other", "otto@trade.gov.uk")
	require.NoError(t, db.Create(&domain.LegacyExportWinsToDataHubCompany{ID: f.winID, CompanyID: &f.company.ID}).Error)
	f.m = &Migrator{DB: db, Source: f.src, Now: func() time.Time { return migratedAt }}

	yes := true
	comments := "Very helpful"
	confirmed := "2024-06-01T08:30:00Z"
	f.src.wins = []exportwinsapi.LegacyWin{{
		ID:                       f.winID.String(),
		CompanyName:              "Acme Legacy Ltd",
		CountryName:              exportwinsapi.R("Canada"),
		Created:                  "2024-05-02T10:00:00Z",
		Date:                     "2024-05-01",
		CustomerName:             "Jo Q. Bloggs",
		CustomerJobTitle:         "Director",
		CustomerEmailAddress:     "jo@acme.example",
		Description:              "Sold aircraft parts",
		NameOfExport:             "Aircraft parts",
		GoodsVsServices:          exportwinsapi.R("1"),
		SectorDisplay:            exportwinsapi.R("Aerospace"),
		TeamType:                 exportwinsapi.R("itt"),
		HQTeam:                   exportwinsapi.R("itt:DIT Team East Midlands - International Trade Team"),
		UserEmail:                "Ada@BusinessAndTrade.gov.uk ",
		UserName:                 "Ada Lovelace",
		LeadOfficerName:          "Lee M. Officer",
		LineManagerName:          "Nobody Known",
		TypeOfSupport1:           exportwinsapi.R("1"),
		TypeOfSupport2:           exportwinsapi.R("99"),
		AssociatedProgramme1:     exportwinsapi.R("1"),
		ConfirmationOurSupport:   exportwinsapi.R("5"),
		ConfirmationAgreeWithWin: &yes,
		ConfirmationComments:     &comments,
		ConfirmationCreated:      &confirmed,
	}}
	f.src.breakdowns = []exportwinsapi.LegacyBreakdown{
		{ID: 11, WinID: f.winID.String(), Type: exportwinsapi.R(domain.BreakdownTypeExport), Year: 2024, Value: json.Number("1000.6")},
		{ID: 12, WinID: f.winID.String(), Type: exportwinsapi.R(domain.BreakdownTypeNonExport), Year: 2025, Value: json.Number("500")},
		{ID: 13, WinID: uuid.NewString(), Type: exportwinsapi.R(domain.BreakdownTypeExport), Year: 2024, Value: json.Number("1")},
	}
	f.src.advisers = []exportwinsapi.LegacyAdviser{
		{ID: 21, WinID: f.winID.String(), TeamType: exportwinsapi.R("itt"), Location: "Leeds", Name: "Otto Other"},
		{ID: 22, WinID: f.winID.String(), Location: "York", Name: "Someone Else"},
	}
	return f
}

func TestEmailAliases(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"A@Trade.gov.uk", []string{"a@trade.gov.uk", "a@businessandtrade.gov.uk"}},
		{"a@businessandtrade.gov.uk", []string{"a@businessandtrade.gov.uk", "a@trade.gov.uk"}},
		{"a@digital.trade.gov.uk", []string{"a@digital.trade.gov.uk", "a@digital.businessandtrade.gov.uk"}},
		{"a@example.com", []string{"a@example.com"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, emailAliases(tt.in), tt.in)
	}
}

func TestMigrateAll(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	st, err := f.m.MigrateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Wins: 1, Breakdowns: 2, Advisers: 2, Totals: 1}, st)

	var w domain.Win
	require.NoError(t, f.db.First(&w, "id = ?", f.winID).Error)
	require.NotNil(t, w.MigratedOn)
	assert.Equal(t, migratedAt, w.MigratedOn.UTC())
	assert.Equal(t, time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC), w.CreatedOn.UTC())
	assert.Equal(t, &f.meta.Country.ID, w.CountryID)
	assert.Equal(t, &f.meta.Sector.ID, w.SectorID)
	assert.Equal(t, &f.meta.GoodsVsServices.ID, w.GoodsVsServicesID)
	assert.Equal(t, &f.meta.HQTeam.ID, w.HQTeamID)
	assert.Equal(t, &f.adviser.ID, w.AdviserID)
	assert.Empty(t, w.AdviserName)
	assert.Equal(t, &f.leadOfficer.ID, w.LeadOfficerID)
	assert.Nil(t, w.LineManagerID)
	assert.Equal(t, "Nobody Known", w.LineManagerName)
	assert.Equal(t, &f.company.ID, w.CompanyID)
	assert.Empty(t, w.CustomerName)
	assert.False(t, w.IsDeleted)
	assert.Equal(t, int64(1000), w.TotalExpectedExportValue)
	assert.Equal(t, int64(500), w.TotalExpectedNonExportValue)

	var contacts []domain.WinCompanyContact
	require.NoError(t, f.db.Where("win_id = ?", f.winID).Find(&contacts).Error)
	require.Len(t, contacts, 1)
	assert.Equal(t, f.contact.ID, contacts[0].ContactID)

	var support []domain.WinTypeOfSupport
	require.NoError(t, f.db.Where("win_id = ?", f.winID).Find(&support).Error)
	require.Len(t, support, 1)
	assert.Equal(t, f.meta.SupportType.ID, support[0].SupportTypeID)

	var cr domain.CustomerResponse
	require.NoError(t, f.db.First(&cr, "win_id = ?", f.winID).Error)
	assert.Equal(t, &f.meta.Rating.ID, cr.OurSupportID)
	require.NotNil(t, cr.AgreeWithWin)
	assert.True(t, *cr.AgreeWithWin)
	assert.Equal(t, "Very helpful", cr.Comments)
	require.NotNil(t, cr.RespondedOn)

	var breakdowns []domain.Breakdown
	require.NoError(t, f.db.Where("win_id = ?", f.winID).Order("year").Find(&breakdowns).Error)
	require.Len(t, breakdowns, 2)
	assert.Equal(t, 1, breakdowns[0].Year)
	assert.Equal(t, int64(1000), breakdowns[0].Value)
	assert.Equal(t, 2, breakdowns[1].Year)

	var advisers []domain.WinAdviser
	require.NoError(t, f.db.Where("win_id = ?", f.winID).Order("location").Find(&advisers).Error)
	require.Len(t, advisers, 2)
	assert.Equal(t, &f.other.ID, advisers[0].AdviserID)
	assert.Equal(t, &f.meta.TeamType.ID, advisers[0].TeamTypeID)
	assert.Nil(t, advisers[1].AdviserID)
	assert.Equal(t, "Someone Else", advisers[1].Name)
}

func TestMigrateAllIsRepeatable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.m.MigrateAll(ctx)
	require.NoError(t, err)
	f.src.breakdowns[0].Value = json.Number("2000")
	_, err = f.m.MigrateAll(ctx)
	require.NoError(t, err)

	for model, want := range map[interface{}]int64{
		&domain.Win{}:               1,
		&domain.Breakdown{}:         2,
		&domain.WinAdviser{}:        2,
		&domain.CustomerResponse{}:  1,
		&domain.WinCompanyContact{}: 1,
	} {
		var n int64
		require.NoError(t, f.db.Model(model).Count(&n).Error)
		assert.Equal(t, want, n, "%T", model)
	}
	var w domain.Win
	require.NoError(t, f.db.First(&w, "id = ?", f.winID).Error)
	assert.Equal(t, int64(2000), w.TotalExpectedExportValue)
}

func TestMigrateWinSkipsUnknownCountry(t *testing.T) {
	f := setup(t)
	item := f.src.wins[0]
	item.CountryName = exportwinsapi.R("Atlantis")

	w, err := f.m.MigrateWin(context.Background(), item)
	require.NoError(t, err)
	assert.Nil(t, w)

	var n int64
	require.NoError(t, f.db.Model(&domain.Win{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestMigrateWinFallbacks(t *testing.T) {
	f := setup(t)
	inactive := false
	item := f.src.wins[0]
	item.ID = uuid.NewString()
	item.IsActive = &inactive
	item.UserEmail = "gone@example.com"
	item.UserName = "Gone Person"
	item.LeadOfficerEmailAddress = "lee@businessandtrade.gov.uk"
	item.LeadOfficerName = "Wrong Name"

	w, err := f.m.MigrateWin(context.Background(), item)
	require.NoError(t, err)
	require.NotNil(t, w)

	assert.True(t, w.IsDeleted)
	assert.Equal(t, "", w.Audit)
	assert.Nil(t, w.AdviserID)
	assert.Equal(t, "Gone Person", w.AdviserName)
	assert.Equal(t, &f.leadOfficer.ID, w.LeadOfficerID)
	assert.Nil(t, w.CompanyID)
	assert.Equal(t, "Acme Legacy Ltd", w.CompanyName)
	assert.Equal(t, "Jo Q. Bloggs", w.CustomerName)
	assert.Equal(t, "Director", w.CustomerJobTitle)
}

func TestUpdateLegacyWinTotalsIgnoresDataHubWins(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	native := testdb.Win(t, f.db, f.meta, f.company.ID, f.adviser.ID, f.leadOfficer.ID)

	_, err := f.m.MigrateWin(ctx, f.src.wins[0])
	require.NoError(t, err)
	_, err = f.m.MigrateBreakdown(ctx, f.src.breakdowns[0])
	require.NoError(t, err)

	var before domain.Win
	require.NoError(t, f.db.First(&before, "id = ?", f.winID).Error)
	assert.Zero(t, before.TotalExpectedExportValue)

	n, err := f.m.UpdateLegacyWinTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var after domain.Win
	require.NoError(t, f.db.First(&after, "id = ?", f.winID).Error)
	assert.Equal(t, int64(1000), after.TotalExpectedExportValue)

	var untouched domain.Win
	require.NoError(t, f.db.First(&untouched, "id = ?", native.ID).Error)
	assert.Nil(t, untouched.MigratedOn)
}

func TestUnknownWinIsLoggedAsError(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	missing := uuid.NewString()
	b, err := f.m.MigrateBreakdown(ctx, exportwinsapi.LegacyBreakdown{
		ID: 31, WinID: missing, Type: exportwinsapi.R(domain.BreakdownTypeExport), Year: 2024, Value: json.Number("5"),
	})
	require.NoError(t, err)
	assert.Nil(t, b)
	a, err := f.m.MigrateAdviser(ctx, exportwinsapi.LegacyAdviser{ID: 32, WinID: missing, Name: "Otto Other"})
	require.NoError(t, err)
	assert.Nil(t, a)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	for _, line := range lines {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &entry))
		assert.Equal(t, "error", entry["level"])
		assert.Equal(t, missing, entry["win_id"])
	}
}
