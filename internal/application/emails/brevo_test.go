package emails

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrevoClient_SendClientReceipt(t *testing.T) {
	var got BrevoSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<202401011200.123@smtp-relay.mailin.fr>"}`))
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "test-key", MailFrom: "wins@example.gov.uk", Endpoint: srv.URL}
	id, err := c.SendClientReceipt(context.Background(), ClientReceipt{
		CustomerEmail:      "jo@acme.example",
		CountryDestination: "Canada",
		ClientFirstName:    "Jo",
		LeadOfficerName:    "Ada Lovelace",
		GoodsServices:      "Aircraft parts",
		URL:                "https://review.example/abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "<202401011200.123@smtp-relay.mailin.fr>", id)
	assert.Equal(t, "wins@example.gov.uk", got.Sender.Email)
	require.Len(t, got.To, 1)
	assert.Equal(t, "jo@acme.example", got.To[0].Email)
	assert.Contains(t, got.Subject, "Canada")
	assert.Contains(t, got.HTMLContent, "https://review.example/abc")
}

func TestBrevoClient_FailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "k", Endpoint: srv.URL}
	_, err := c.SendLeadOfficerRejected(context.Background(), LeadOfficerNotice{LeadOfficerEmail: "lo@trade.gov.uk"})
	assert.Error(t, err)
}

func TestBrevoClient_NoAPIKeyIsNoop(t *testing.T) {
	id, err := (&BrevoClient{}).SendLeadOfficerApproved(context.Background(), LeadOfficerNotice{})
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestLeadOfficerApprovedContent_EscapesAndFormats(t *testing.T) {
	html := leadOfficerApprovedContent(LeadOfficerNotice{
		LeadOfficerFirstName: "Ada",
		ClientFullName:       "Jo <Bloggs>",
		TotalExportWinValue:  1234567,
	})
	assert.Contains(t, html, "Jo &lt;Bloggs&gt;")
	assert.Contains(t, html, "&pound;1,234,567")
}

func TestFormatPounds(t *testing.T) {
	assert.Equal(t, "0", FormatPounds(0))
	assert.Equal(t, "999", FormatPounds(999))
	assert.Equal(t, "1,000", FormatPounds(1000))
	assert.Equal(t, "-21,000", FormatPounds(-21000))
}
