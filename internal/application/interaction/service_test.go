package interaction

import (
	"context"
	"encoding/json"
	"testing"

	"datahub-backend/internal/pkg/testdb"
	"datahub-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func input(t *testing.T, body string) Input {
	t.Helper()
	var in Input
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func TestCreate_Validation(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db}

	_, err := s.Create(context.Background(), input(t, `{"kind": "chat", "date": "17/10/2024"}`), nil)
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{validation.MsgInvalidChoice}, errs["kind"])
	assert.Equal(t, []string{MsgInvalidDate}, errs["date"])
	assert.Equal(t, []string{validation.MsgRequired}, errs["subject"])
	assert.Equal(t, []string{validation.MsgRequired}, errs["company"])
	assert.Equal(t, []string{validation.MsgRequired}, errs["contacts"])
}

func TestCreate_ContactsMustBelongToCompany(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db}
	acme := testdb.Company(t, db, "Acme")
	other := testdb.Company(t, db, "Other")
	outsider := testdb.Contact(t, db, other.ID, "Ann", "Smith", "ann@other.example")

	_, err := s.Create(context.Background(), input(t, `{
		"kind": "interaction",
		"subject": "Call",
		"date": "2024-10-17",
		"company": "`+acme.ID.String()+`",
		"contacts": ["`+outsider.ID.String()+`"]
	}`), nil)
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{MsgContactsNotInCompany}, errs["contacts"])

	_, err = s.Create(context.Background(), input(t, `{
		"kind": "interaction",
		"subject": "Call",
		"date": "2024-10-17",
		"company": "`+acme.ID.String()+`",
		"contacts": []
	}`), nil)
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{MsgEmptyList}, errs["contacts"])
}

func TestCreate_DefaultsParticipantToActingAdviser(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db}
	ctx := context.Background()
	acme := testdb.Company(t, db, "Acme")
	jo := testdb.Contact(t, db, acme.ID, "Jo", "Bloggs", "jo@acme.example")
	adviser := testdb.Adviser(t, db, "Ada", "Lovelace", "ada@trade.gov.uk")

	d, err := s.Create(ctx, input(t, `{
		"kind": "interaction",
		"subject": " Export call ",
		"date": "2024-10-17",
		"company": "`+acme.ID.String()+`",
		"contacts": [{"id": "`+jo.ID.String()+`"}]
	}`), &adviser.ID)
	require.NoError(t, err)
	assert.Equal(t, "Export call", d.Subject)
	assert.Equal(t, "complete", d.Status)
	assert.Equal(t, []uuid.UUID{jo.ID}, d.Contacts)
	require.Len(t, d.DITParticipants, 1)
	assert.Equal(t, adviser.ID, d.DITParticipants[0].AdviserID)
}

func TestCreate_DuplicateParticipant(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db}
	acme := testdb.Company(t, db, "Acme")
	jo := testdb.Contact(t, db, acme.ID, "Jo", "Bloggs", "jo@acme.example")
	adviser := testdb.Adviser(t, db, "Ada", "Lovelace", "ada@trade.gov.uk")
	p := `{"adviser": "` + adviser.ID.String() + `", "team": null}`

	_, err := s.Create(context.Background(), input(t, `{
		"kind": "interaction",
		"subject": "Call",
		"date": "2024-10-17",
		"company": "`+acme.ID.String()+`",
		"contacts": ["`+jo.ID.String()+`"],
		"dit_participants": [`+p+`, `+p+`]
	}`), nil)
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{MsgDuplicateAdviser}, errs["dit_participants"])
}

func TestUpdateAndList(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db}
	ctx := context.Background()
	acme := testdb.Company(t, db, "Acme")
	jo := testdb.Contact(t, db, acme.ID, "Jo", "Bloggs", "jo@acme.example")
	ann := testdb.Contact(t, db, acme.ID, "Ann", "Smith", "ann@acme.example")

	older, err := s.Create(ctx, input(t, `{"kind": "interaction", "theme": "export", "subject": "First", "date": "2024-01-01",
		"company": "`+acme.ID.String()+`", "contacts": ["`+jo.ID.String()+`"]}`), nil)
	require.NoError(t, err)
	newer, err := s.Create(ctx, input(t, `{"kind": "service_delivery", "subject": "Second", "date": "2024-06-01",
		"company": "`+acme.ID.String()+`", "contacts": ["`+ann.ID.String()+`"]}`), nil)
	require.NoError(t, err)

	updated, err := s.Update(ctx, older.ID, input(t, `{"notes": "Went well", "contacts": ["`+ann.ID.String()+`"]}`), nil)
	require.NoError(t, err)
	assert.Equal(t, "Went well", updated.Notes)
	assert.Equal(t, "First", updated.Subject)
	assert.Equal(t, []uuid.UUID{ann.ID}, updated.Contacts)

	_, err = s.Update(ctx, older.ID, input(t, `{"theme": ""}`), nil)
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{MsgCannotUnsetTheme}, errs["theme"])

	list, count, err := s.List(ctx, ListFilter{CompanyID: &acme.ID}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, newer.ID, list[0].ID)

	list, count, err = s.List(ctx, ListFilter{ContactID: &ann.ID, Kind: "interaction"}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, older.ID, list[0].ID)

	_, err = s.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
