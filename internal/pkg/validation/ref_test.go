package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRef_Unmarshal(t *testing.T) {
	var body struct {
		Plain   Ref  `json:"plain"`
		Nested  Ref  `json:"nested"`
		Null    Ref  `json:"null"`
		Bad     Ref  `json:"bad"`
		Missing Ref  `json:"missing"`
		List    Refs `json:"list"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{
		"plain": "80756b9a-5d95-e211-a939-e4115bead28a",
		"nested": {"id": "81756b9a-5d95-e211-a939-e4115bead28a", "name": "United States"},
		"null": null,
		"bad": "nope",
		"list": [{"id": "80756b9a-5d95-e211-a939-e4115bead28a"}, "x"]
	}`), &body))

	assert.True(t, body.Plain.Set())
	assert.Equal(t, "80756b9a-5d95-e211-a939-e4115bead28a", body.Plain.ID.String())
	assert.Equal(t, "81756b9a-5d95-e211-a939-e4115bead28a", body.Nested.ID.String())
	assert.True(t, body.Null.Present)
	assert.False(t, body.Null.Set())
	assert.True(t, body.Bad.Invalid)
	assert.False(t, body.Missing.Present)
	assert.Len(t, body.List.IDs(), 1)
	assert.True(t, body.List.AnyInvalid())

	var errs Errors
	errs.Check("bad", body.Bad)
	errs.Check("plain", body.Plain)
	assert.Equal(t, Errors{"bad": {MsgInvalidPK}}, errs)
}

func TestRef_Marshal(t *testing.T) {
	var r Ref
	require.NoError(t, json.Unmarshal([]byte(`"80756b9a-5d95-e211-a939-e4115bead28a"`), &r))
	b, err := json.Marshal(struct {
		Country Ref `json:"country"`
		Empty   Ref `json:"empty"`
	}{Country: r})
	require.NoError(t, err)
	assert.JSONEq(t, `{"country": {"id": "80756b9a-5d95-e211-a939-e4115bead28a"}, "empty": null}`, string(b))
}
