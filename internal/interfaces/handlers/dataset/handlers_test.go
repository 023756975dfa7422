package dataset

import (
	"testing"

	datasetsvc "datahub-backend/internal/application/dataset"
	"datahub-backend/internal/domain"
	"datahub-backend/internal/pkg/apitest"
	"datahub-backend/internal/pkg/testdb"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasets(t *testing.T) {
	db := testdb.Open(t)
	meta := testdb.SeedExportWinMetadata(t, db)
	company := testdb.Company(t, db, "Acme")
	adviser := testdb.Adviser(t, db, "Ada", "Lovelace", "ada@trade.gov.uk")
	win := testdb.Win(t, db, meta, company.ID, adviser.ID, adviser.ID)
	for year := 1; year <= 3; year++ {
		require.NoError(t, db.Create(&domain.Breakdown{WinID: win.ID, TypeID: meta.Export.ID, Year: year, Value: 100}).Error)
	}
	require.NoError(t, db.Create(&domain.WinAdviser{WinID: win.ID, AdviserID: &adviser.ID, Location: "Leeds"}).Error)

	h := &Handlers{Service: &datasetsvc.Service{DB: db}}
	app := fiber.New()
	app.Get("/v4/dataset/export-wins-dataset", h.Wins)
	app.Get("/v4/dataset/export-wins-breakdowns-dataset", h.Breakdowns)
	app.Get("/v4/dataset/export-wins-advisers-dataset", h.Advisers)

	res := apitest.Do(t, app, "GET", "/v4/dataset/export-wins-breakdowns-dataset?page_size=2", nil)
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Body))
	body := res.Map(t)
	assert.Len(t, body["results"], 2)
	require.NotNil(t, body["next"])
	assert.Contains(t, body["next"], "page=2")

	res = apitest.Do(t, app, "GET", "/v4/dataset/export-wins-breakdowns-dataset?page_size=2&page=2", nil)
	require.Equal(t, fiber.StatusOK, res.Status)
	body = res.Map(t)
	assert.Len(t, body["results"], 1)
	assert.Nil(t, body["next"])

	res = apitest.Do(t, app, "GET", "/v4/dataset/export-wins-dataset", nil)
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Body))
	results := res.Map(t)["results"].([]interface{})
	require.Len(t, results, 1)
	assert.Equal(t, win.ID.String(), results[0].(map[string]interface{})["id"])

	res = apitest.Do(t, app, "GET", "/v4/dataset/export-wins-advisers-dataset", nil)
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Body))
	results = res.Map(t)["results"].([]interface{})
	require.Len(t, results, 1)
	assert.Equal(t, "Ada Lovelace", results[0].(map[string]interface{})["name"])
}
