package adviser

import (
	"testing"

	advisersvc "datahub-backend/internal/application/adviser"
	"datahub-backend/internal/pkg/apitest"
	"datahub-backend/internal/pkg/constants"
	"datahub-backend/internal/pkg/testdb"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdviserEndpoints(t *testing.T) {
	db := testdb.Open(t)
	ada := testdb.Adviser(t, db, "Ada", "Lovelace", "ada@trade.gov.uk")
	testdb.Adviser(t, db, "Bob", "Babbage", "bob@trade.gov.uk")

	h := &Handlers{Service: &advisersvc.Service{DB: db}}
	app := fiber.New()
	app.Use(apitest.AsAdviser(ada.ID, constants.Viewer))
	app.Get("/adviser", h.List)
	app.Get("/adviser/:id", h.Get)

	res := apitest.Do(t, app, "GET", "/adviser?autocomplete=lov", nil)
	require.Equal(t, fiber.StatusOK, res.Status)
	body := res.Map(t)
	assert.EqualValues(t, 1, body["count"])
	results := body["results"].([]interface{})
	require.Len(t, results, 1)
	assert.Equal(t, "Ada Lovelace", results[0].(map[string]interface{})["name"])

	res = apitest.Do(t, app, "GET", "/adviser/"+ada.ID.String(), nil)
	require.Equal(t, fiber.StatusOK, res.Status)
	assert.Equal(t, "ada@trade.gov.uk", res.Map(t)["contact_email"])

	res = apitest.Do(t, app, "GET", "/adviser/"+uuid.NewString(), nil)
	assert.Equal(t, fiber.StatusNotFound, res.Status)
}
