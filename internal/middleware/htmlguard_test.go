package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sendRaw(t *testing.T, app *fiber.App, contentType string, body io.Reader) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/echo", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func guardedApp() *fiber.App {
	app := fiber.New()
	app.Use(HTMLGuard())
	app.All("/echo", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	return app
}

func send(t *testing.T, app *fiber.App, method, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, "/echo", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestContainsMarkup(t *testing.T) {
	cases := map[string]bool{
		"":                                   false,
		"Plain export description":           false,
		"AT&T and Procter & Gamble":          false,
		"100% growth; 3 markets":             false,
		"<script>alert(1)</script>":          true,
		"<div>":                              true,
		"hello <b>world</b>":                 true,
		"<!-- hidden -->":                    true,
		"x < y":                              true,
		"5 > 3":                              true,
		"&lt;script&gt;":                     true,
		"&#60;":                              true,
		"&#x3C;":                             true,
		"<iframe src=\"https://example.com\"": true,
	}
	for in, want := range cases {
		assert.Equal(t, want, ContainsMarkup(in), "input %q", in)
	}
}

func TestHTMLGuard_RejectsScriptInNestedField(t *testing.T) {
	app := guardedApp()
	status, out := send(t, app, fiber.MethodPost, `{"description":"<script>alert('XSS')</script>","name_of_export":"<div>"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, MsgDisallowedHTML, out["error"])

	status, _ = send(t, app, fiber.MethodPatch, `{"breakdowns":[{"type":{"id":"x"},"note":"&amp;"}]}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestHTMLGuard_AllowsCleanBodiesAndReads(t *testing.T) {
	app := guardedApp()
	status, _ := send(t, app, fiber.MethodPost, `{"description":"Sold widgets to Canada","value":12}`)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, _ = send(t, app, fiber.MethodGet, `{"description":"<script>"}`)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, _ = send(t, app, fiber.MethodPut, `not json`)
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestContainsMarkup_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("alphanumeric text is never flagged", prop.ForAll(
		func(s string) bool { return !ContainsMarkup(s) },
		gen.AlphaString(),
	))

	properties.Property("any tag wrapped in text is flagged", prop.ForAll(
		func(prefix, tag, suffix string) bool {
			return ContainsMarkup(prefix + " <" + tag + ">" + suffix)
		},
		gen.AlphaString(),
		gen.Identifier(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestHTMLGuard_RejectsMarkupInFormBodies(t *testing.T) {
	app := guardedApp()

	status := sendRaw(t, app, fiber.MIMEApplicationForm,
		strings.NewReader("name_of_export=Widgets&description=%3Cscript%3Ealert(1)%3C%2Fscript%3E"))
	assert.Equal(t, fiber.StatusBadRequest, status)

	status = sendRaw(t, app, fiber.MIMEApplicationForm, strings.NewReader("description=Sold+widgets+to+Canada"))
	assert.Equal(t, fiber.StatusNoContent, status)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name_of_export", "Widgets"))
	require.NoError(t, w.WriteField("description", "<iframe src=x>"))
	require.NoError(t, w.Close())
	status = sendRaw(t, app, w.FormDataContentType(), &buf)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestHTMLGuard_ScansUnknownBodiesAsText(t *testing.T) {
	app := guardedApp()
	status := sendRaw(t, app, fiber.MIMEApplicationXML, strings.NewReader("<win><description>x</description></win>"))
	assert.Equal(t, fiber.StatusBadRequest, status)
}
