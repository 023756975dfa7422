package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("someone@trade.gov.uk"))
	assert.False(t, IsValidEmail("someone"))
	assert.False(t, IsValidEmail("some one@trade.gov.uk"))
	assert.False(t, IsValidEmail("someone@localhost"))
}

func TestErrors_AddAndOrNil(t *testing.T) {
	var errs Errors
	assert.NoError(t, errs.OrNil())

	errs.Add("name", MsgRequired)
	errs.Add("name", "Too long.")
	errs.Add(NonFieldErrors, "Broken.")

	err := errs.OrNil()
	assert.Error(t, err)

	var got Errors
	assert.True(t, errors.As(err, &got))
	assert.Equal(t, []string{MsgRequired, "Too long."}, got["name"])
	assert.Equal(t, "validation failed: name: This field is required. Too long.; non_field_errors: Broken.", err.Error())
}
