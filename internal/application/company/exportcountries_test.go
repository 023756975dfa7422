package company

import (
	"context"
	"sort"
	"testing"

	"datahub-backend/internal/domain"
	"datahub-backend/internal/pkg/testdb"
	"datahub-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedCountries(t testing.TB, db *gorm.DB, names ...string) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, 0, len(names))
	for _, n := range names {
		c := domain.Country{}
		c.Name = n
		require.NoError(t, db.Create(&c).Error)
		ids = append(ids, c.ID)
	}
	return ids
}

func item(id uuid.UUID, status string) ExportCountry {
	return ExportCountry{Country: validation.NewRef(id), Status: status}
}

func history(t *testing.T, db *gorm.DB, companyID uuid.UUID) []domain.CompanyExportCountryHistory {
	t.Helper()
	var rows []domain.CompanyExportCountryHistory
	require.NoError(t, db.Where("company_id = ?", companyID).Order("history_date, history_type").Find(&rows).Error)
	return rows
}

func TestUpdateExportDetails_DuplicateCountry(t *testing.T) {
	db := testdb.Open(t)
	countries := seedCountries(t, db, "France")
	c := testdb.Company(t, db, "Acme")

	err := (&Service{DB: db}).UpdateExportDetails(context.Background(), c.ID, []ExportCountry{
		item(countries[0], domain.ExportCountryCurrentlyExporting),
		item(countries[0], domain.ExportCountryFutureInterest),
	}, nil)
	errs := validationErrors(t, err)
	assert.Equal(t, []string{MsgDuplicateExportCountry}, errs[validation.NonFieldErrors])

	var n int64
	require.NoError(t, db.Model(&domain.CompanyExportCountry{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUpdateExportDetails_Validation(t *testing.T) {
	db := testdb.Open(t)
	c := testdb.Company(t, db, "Acme")
	s := &Service{DB: db}

	err := s.UpdateExportDetails(context.Background(), c.ID, nil, nil)
	assert.Equal(t, []string{validation.MsgRequired}, validationErrors(t, err)["export_countries"])

	err = s.UpdateExportDetails(context.Background(), c.ID, []ExportCountry{item(uuid.New(), "exporting")}, nil)
	errs := validationErrors(t, err)
	assert.Equal(t, []string{validation.MsgDoesNotExist}, errs["export_countries[0].country"])
	assert.Equal(t, []string{validation.MsgInvalidChoice}, errs["export_countries[0].status"])

	err = s.UpdateExportDetails(context.Background(), uuid.New(), []ExportCountry{}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateExportDetails_DiffAndHistory(t *testing.T) {
	db := testdb.Open(t)
	countries := seedCountries(t, db, "France", "Germany", "Japan")
	france, germany, japan := countries[0], countries[1], countries[2]
	c := testdb.Company(t, db, "Acme")
	adviser := testdb.Adviser(t, db, "Ada", "Lovelace", "ada@trade.gov.uk")
	s := &Service{DB: db}
	ctx := context.Background()

	require.NoError(t, s.UpdateExportDetails(ctx, c.ID, []ExportCountry{
		item(france, domain.ExportCountryCurrentlyExporting),
		item(germany, domain.ExportCountryFutureInterest),
	}, &adviser.ID))

	require.NoError(t, s.UpdateExportDetails(ctx, c.ID, []ExportCountry{
		item(france, domain.ExportCountryCurrentlyExporting),
		item(japan, domain.ExportCountryNotInterested),
		item(germany, domain.ExportCountryCurrentlyExporting),
	}, &adviser.ID))

	require.NoError(t, s.UpdateExportDetails(ctx, c.ID, []ExportCountry{
		item(japan, domain.ExportCountryNotInterested),
	}, &adviser.ID))

	var rows []domain.CompanyExportCountry
	require.NoError(t, db.Where("company_id = ?", c.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, japan, rows[0].CountryID)

	counts := map[string]int{}
	for _, h := range history(t, db, c.ID) {
		counts[h.HistoryType]++
		assert.Equal(t, adviser.ID, *h.HistoryUserID)
	}
	assert.Equal(t, map[string]int{
		domain.HistoryInsert: 3,
		domain.HistoryUpdate: 1,
		domain.HistoryDelete: 2,
	}, counts)

	var exporting, future int64
	require.NoError(t, db.Model(&domain.CompanyExportToCountry{}).Where("company_id = ?", c.ID).Count(&exporting).Error)
	require.NoError(t, db.Model(&domain.CompanyFutureInterestCountry{}).Where("company_id = ?", c.ID).Count(&future).Error)
	assert.Zero(t, exporting)
	assert.Zero(t, future)

	var stored domain.Company
	require.NoError(t, db.First(&stored, "id = ?", c.ID).Error)
	assert.Equal(t, adviser.ID, *stored.ModifiedByID)
}

func TestUpdateExportDetails_ResultEqualsSubmittedSet(t *testing.T) {
	statuses := []string{
		domain.ExportCountryCurrentlyExporting,
		domain.ExportCountryFutureInterest,
		domain.ExportCountryNotInterested,
	}
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	// Each request is a list of (country index, status index); -1 status drops the country.
	request := gen.SliceOfN(5, gen.IntRange(-1, 2))
	properties.Property("stored set equals last submitted set", prop.ForAll(
		func(first, second []int) bool {
			db := testdb.Open(t)
			countries := seedCountries(t, db, "A", "B", "C", "D", "E")
			c := testdb.Company(t, db, "Acme")
			s := &Service{DB: db}

			build := func(picks []int) (map[uuid.UUID]string, []ExportCountry) {
				want := map[uuid.UUID]string{}
				items := []ExportCountry{}
				for i, p := range picks {
					if p < 0 {
						continue
					}
					want[countries[i]] = statuses[p]
					items = append(items, item(countries[i], statuses[p]))
				}
				return want, items
			}
			_, items := build(first)
			if s.UpdateExportDetails(context.Background(), c.ID, items, nil) != nil {
				return false
			}
			want, items := build(second)
			if s.UpdateExportDetails(context.Background(), c.ID, items, nil) != nil {
				return false
			}

			var rows []domain.CompanyExportCountry
			if db.Where("company_id = ?", c.ID).Find(&rows).Error != nil {
				return false
			}
			got := map[uuid.UUID]string{}
			for _, r := range rows {
				got[r.CountryID] = r.Status
			}
			if len(got) != len(want) {
				return false
			}
			for k, v := range want {
				if got[k] != v {
					return false
				}
			}

			var exporting []uuid.UUID
			db.Model(&domain.CompanyExportToCountry{}).Where("company_id = ?", c.ID).Pluck("country_id", &exporting)
			var wantExporting []uuid.UUID
			for k, v := range want {
				if v == domain.ExportCountryCurrentlyExporting {
					wantExporting = append(wantExporting, k)
				}
			}
			return sameIDs(exporting, wantExporting)
		},
		request, request,
	))
	properties.TestingRun(t)
}

func sameIDs(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	sort.Slice(a, func(i, j int) bool { return a[i].String() < a[j].String() })
	sort.Slice(b, func(i, j int) bool { return b[i].String() < b[j].String() })
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
