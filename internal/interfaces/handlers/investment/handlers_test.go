package investment

import (
	"testing"
	"time"

	investmentsvc "datahub-backend/internal/application/investment"
	"datahub-backend/internal/domain"
	"datahub-backend/internal/pkg/apitest"
	"datahub-backend/internal/pkg/constants"
	"datahub-backend/internal/pkg/testdb"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvestmentEndpoints(t *testing.T) {
	db := testdb.Open(t)
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	now := created
	svc := &investmentsvc.Service{DB: db, Now: func() time.Time { return now }}
	company := testdb.Company(t, db, "Acme")
	crm := testdb.Adviser(t, db, "Ada", "Lovelace", "ada@trade.gov.uk")
	pm := testdb.Adviser(t, db, "Bob", "Babbage", "bob@trade.gov.uk")

	h := &Handlers{Service: svc}
	app := fiber.New()
	app.Use(apitest.AsAdviser(crm.ID, constants.Adviser))
	app.Get("/v3/investment", h.List)
	app.Post("/v3/investment", h.Create)
	app.Get("/v3/investment/:id", h.Get)
	app.Patch("/v3/investment/:id", h.Update)
	app.Get("/v3/investment/:id/stage-log", h.StageLog)
	app.Get("/v4/investment/:id/spi", h.SPI)

	res := apitest.Do(t, app, "POST", "/v3/investment", map[string]interface{}{"stage": "nope"})
	require.Equal(t, fiber.StatusBadRequest, res.Status)
	body := res.Map(t)
	assert.Contains(t, body, "name")
	assert.Contains(t, body, "investor_company")
	assert.Contains(t, body, "stage")

	res = apitest.Do(t, app, "POST", "/v3/investment", map[string]interface{}{
		"name":                        "Factory",
		"investor_company":            company.ID.String(),
		"client_relationship_manager": crm.ID.String(),
	})
	require.Equal(t, fiber.StatusCreated, res.Status, string(res.Body))
	id := res.Map(t)["id"].(string)
	require.NoError(t, db.Model(&domain.InvestmentProject{}).Where("id = ?", id).Update("created_on", created).Error)

	now = created.AddDate(0, 0, 2)
	res = apitest.Do(t, app, "PATCH", "/v3/investment/"+id, map[string]interface{}{
		"stage":                     domain.StageActive,
		"project_manager":           pm.ID.String(),
		"project_assurance_adviser": crm.ID.String(),
	})
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Body))
	assert.Equal(t, domain.StageActive, res.Map(t)["stage"])

	res = apitest.Do(t, app, "GET", "/v4/investment/"+id+"/spi", nil)
	require.Equal(t, fiber.StatusOK, res.Status)
	spi := res.Map(t)
	assert.EqualValues(t, 2, spi["days_to_assign"])
	assert.EqualValues(t, 0, spi["days_to_active"])

	res = apitest.Do(t, app, "GET", "/v3/investment/"+id+"/stage-log", nil)
	require.Equal(t, fiber.StatusOK, res.Status)
	assert.Contains(t, string(res.Body), `"stage":"prospect"`)
	assert.Contains(t, string(res.Body), `"stage":"active"`)

	res = apitest.Do(t, app, "GET", "/v3/investment?investor_company_id="+company.ID.String(), nil)
	require.Equal(t, fiber.StatusOK, res.Status)
	assert.EqualValues(t, 1, res.Map(t)["count"])

	for _, path := range []string{"/v3/investment/" + uuid.NewString(), "/v4/investment/" + uuid.NewString() + "/spi"} {
		res = apitest.Do(t, app, "GET", path, nil)
		assert.Equal(t, fiber.StatusNotFound, res.Status, path)
	}
}
