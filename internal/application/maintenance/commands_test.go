package maintenance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"datahub-backend/internal/domain"
	"datahub-backend/internal/infrastructure/storage"
	"datahub-backend/internal/pkg/testdb"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const bucket = "corrections"

func newRunner(t *testing.T, db *gorm.DB, csv string) *Runner {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, bucket), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, bucket, "rows.csv"), []byte(csv), 0o644))
	return &Runner{DB: db, Reader: storage.DirReader{Root: root}}
}

func companyWithGHQ(t *testing.T, db *gorm.DB, name string, ghq *uuid.UUID) domain.Company {
	t.Helper()
	c := testdb.Company(t, db, name)
	if ghq != nil {
		c.GlobalHeadquartersID = ghq
		require.NoError(t, db.Save(&c).Error)
	}
	return c
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) domain.Company {
	t.Helper()
	var c domain.Company
	require.NoError(t, db.First(&c, "id = ?", id).Error)
	return c
}

func versions(t *testing.T, db *gorm.DB, id uuid.UUID) []domain.Revision {
	t.Helper()
	var revs []domain.Revision
	require.NoError(t, db.
		Joins("JOIN reversion_version ON reversion_version.revision_id = reversion_revision.id").
		Where("reversion_version.object_id = ?", id.String()).
		Order("reversion_revision.created_on, reversion_revision.comment DESC").
		Find(&revs).Error)
	return revs
}

func TestUpdateCompanyGlobalHQ(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantNeeds bool
		wantKeep  bool
		wantClear bool
	}{
		{name: "only fills empty", opts: Options{}, wantNeeds: true},
		{name: "overwrite", opts: Options{Overwrite: true}, wantNeeds: true, wantKeep: true, wantClear: true},
		{name: "simulate", opts: Options{Simulate: true, Overwrite: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testdb.Open(t)
			ghq := companyWithGHQ(t, db, "Global", nil)
			otherGHQ := companyWithGHQ(t, db, "Other global", nil)
			needs := companyWithGHQ(t, db, "Needs", nil)
			keep := companyWithGHQ(t, db, "Keep", &otherGHQ.ID)
			clear := companyWithGHQ(t, db, "Clear", &otherGHQ.ID)

			csv := fmt.Sprintf("id,global_hq_id\n%s,NULL\n%s,%s\n%s,%s\n%s,NULL\n",
				uuid.Nil, needs.ID, ghq.ID, keep.ID, ghq.ID, clear.ID)
			res, err := newRunner(t, db, csv).Run(context.Background(), UpdateCompanyGlobalHQ, bucket, "rows.csv", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, 4, res.Rows)
			assert.Equal(t, 1, res.Failed)

			if tt.wantNeeds {
				assert.Equal(t, &ghq.ID, reload(t, db, needs.ID).GlobalHeadquartersID)
				revs := versions(t, db, needs.ID)
				require.Len(t, revs, 1)
				assert.Equal(t, "Global HQ data migration.", revs[0].Comment)
			} else {
				assert.Nil(t, reload(t, db, needs.ID).GlobalHeadquartersID)
				assert.Empty(t, versions(t, db, needs.ID))
			}
			if tt.wantKeep {
				assert.Equal(t, &ghq.ID, reload(t, db, keep.ID).GlobalHeadquartersID)
			} else {
				assert.Equal(t, &otherGHQ.ID, reload(t, db, keep.ID).GlobalHeadquartersID)
			}
			if tt.wantClear {
				assert.Nil(t, reload(t, db, clear.ID).GlobalHeadquartersID)
			} else {
				assert.Equal(t, &otherGHQ.ID, reload(t, db, clear.ID).GlobalHeadquartersID)
				assert.Empty(t, versions(t, db, clear.ID))
			}
		})
	}
}

func TestUpdateCompanyHQType(t *testing.T) {
	db := testdb.Open(t)
	meta := testdb.SeedCompanyMetadata(t, db)
	a := testdb.Company(t, db, "A")
	b := testdb.Company(t, db, "B")
	b.HeadquarterTypeID = &meta.GHQ.ID
	require.NoError(t, db.Save(&b).Error)

	csv := fmt.Sprintf("id,headquarter_type_id\n%s,%s\n%s,NULL\n%s,%s\n", a.ID, meta.UKHQ.ID, b.ID, uuid.New(), meta.UKHQ.ID)
	res, err := newRunner(t, db, csv).Run(context.Background(), UpdateCompanyHQType, bucket, "rows.csv", Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{Rows: 3, Updated: 2, Failed: 1}, res)

	assert.Equal(t, &meta.UKHQ.ID, reload(t, db, a.ID).HeadquarterTypeID)
	assert.Nil(t, reload(t, db, b.ID).HeadquarterTypeID)
	require.Len(t, versions(t, db, a.ID), 1)
}

func TestUpdateLegacyExportWinsData(t *testing.T) {
	db := testdb.Open(t)
	meta := testdb.SeedExportWinMetadata(t, db)
	company := testdb.Company(t, db, "Acme")
	adviser := testdb.Adviser(t, db, "Ada", "Lovelace", "ada@trade.gov.uk")
	win := testdb.Win(t, db, meta, company.ID, adviser.ID, adviser.ID)

	header := "id,company_name,lead_officer_name,lead_officer_email_address,user_name,user_email,line_manager_name,customer_name,customer_job_title,customer_email_address\n"
	row := fmt.Sprintf(`%s,"Acme, Ltd",Lee Officer,lee@example.com,Ada L,ada@example.com,Max Manager,Jo Bloggs,"Director, Sales",jo@example.com`, win.ID)

	t.Run("simulate", func(t *testing.T) {
		res, err := newRunner(t, db, header+row+"\n").Run(context.Background(), UpdateLegacyExportWinsData, bucket, "rows.csv", Options{Simulate: true})
		require.NoError(t, err)
		assert.Equal(t, Result{Rows: 1, Updated: 1}, res)

		var w domain.Win
		require.NoError(t, db.First(&w, "id = ?", win.ID).Error)
		assert.Empty(t, w.CompanyName)
		assert.Empty(t, versions(t, db, win.ID))
	})

	t.Run("run", func(t *testing.T) {
		res, err := newRunner(t, db, header+row+"\n").Run(context.Background(), UpdateLegacyExportWinsData, bucket, "rows.csv", Options{})
		require.NoError(t, err)
		assert.Equal(t, Result{Rows: 1, Updated: 1}, res)

		var w domain.Win
		require.NoError(t, db.First(&w, "id = ?", win.ID).Error)
		assert.Equal(t, "Acme, Ltd", w.CompanyName)
		assert.Equal(t, "Lee Officer", w.LeadOfficerName)
		assert.Equal(t, "lee@example.com", w.LeadOfficerEmailAddress)
		assert.Equal(t, "Ada L", w.AdviserName)
		assert.Equal(t, "ada@example.com", w.AdviserEmailAddress)
		assert.Equal(t, "Max Manager", w.LineManagerName)
		assert.Equal(t, "Jo Bloggs", w.CustomerName)
		assert.Equal(t, "Director, Sales", w.CustomerJobTitle)
		assert.Equal(t, "jo@example.com", w.CustomerEmailAddress)

		var comments []string
		for _, r := range versions(t, db, win.ID) {
			comments = append(comments, r.Comment)
		}
		assert.ElementsMatch(t, []string{
			"Legacy export wins data migration - before.",
			"Legacy export wins data migration - after.",
		}, comments)
	})
}

func TestRunMissingObject(t *testing.T) {
	db := testdb.Open(t)
	r := newRunner(t, db, "id\n")
	_, err := r.Run(context.Background(), UpdateCompanyHQType, bucket, "missing.csv", Options{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), UpdateCompanyHQType.Name))
}
