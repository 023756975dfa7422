package contact

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

	_, err := s.Create(context.Background(), input(t, `{"first_name": "", "email": "nope"}`), nil)
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{"This field may not be blank."}, errs["first_name"])
	assert.Equal(t, []string{validation.MsgRequired}, errs["last_name"])
	assert.Equal(t, []string{validation.MsgInvalidEmail}, errs["email"])
	assert.Equal(t, []string{validation.MsgRequired}, errs["company"])

	_, err = s.Create(context.Background(), input(t, `{"first_name": "Jo", "last_name": "Bloggs", "company": "`+uuid.NewString()+`"}`), nil)
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{validation.MsgDoesNotExist}, errs["company"])
}

func TestCreateUpdateList(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db}
	ctx := context.Background()
	company := testdb.Company(t, db, "Acme")
	adviser := testdb.Adviser(t, db, "Ada", "Lovelace", "ada@trade.gov.uk")

	c, err := s.Create(ctx, input(t, `{
		"first_name": " Jo ",
		"last_name": "Bloggs",
		"email": "jo@acme.example",
		"company": {"id": "`+company.ID.String()+`"}
	}`), &adviser.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jo", c.FirstName)
	assert.Equal(t, company.ID, *c.CompanyID)

	updated, err := s.Update(ctx, c.ID, input(t, `{"job_title": "Buyer"}`), &adviser.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buyer", updated.JobTitle)
	assert.Equal(t, "Bloggs", updated.LastName)

	_, err = s.Update(ctx, c.ID, input(t, `{"company": null}`), nil)
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{validation.MsgNullNotAllowed}, errs["company"])

	testdb.Contact(t, db, company.ID, "Ann", "Smith", "ann@acme.example")
	contacts, count, err := s.List(ctx, ListFilter{CompanyID: &company.ID, Name: "blog"}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, c.ID, contacts[0].ID)

	archived, err := s.Archive(ctx, c.ID, &adviser.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	_, err = s.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
