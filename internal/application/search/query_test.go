package search

import (
	"encoding/json"
	"testing"

	"datahub-backend/internal/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest_SplitsReservedKeys(t *testing.T) {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"original_query": "acme",
		"offset": 20,
		"limit": 5,
		"sortby": "name:desc",
		"archived": false
	}`), &body))

	req := ParseRequest(body)
	assert.Equal(t, "acme", req.OriginalQuery)
	assert.Equal(t, 20, req.Offset)
	assert.Equal(t, 5, req.Limit)
	assert.Equal(t, "name:desc", req.SortBy)
	assert.Equal(t, map[string]interface{}{"archived": false}, req.Filters)
}

func TestBuildQuery_Company(t *testing.T) {
	q, err := BuildQuery("company", Request{
		OriginalQuery: "acme",
		Limit:         5,
		SortBy:        "name:desc",
		Filters: map[string]interface{}{
			"archived": false,
			"sector":   []interface{}{"a", "b"},
		},
	})
	require.NoError(t, err)

	b, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"from": 0,
		"size": 5,
		"query": {"bool": {
			"must": [{"multi_match": {
				"query": "acme",
				"fields": ["name^3", "trading_names", "company_number", "address_postcode", "address_town"],
				"type": "cross_fields",
				"operator": "and"
			}}],
			"filter": [
				{"term": {"archived": false}},
				{"terms": {"sector_id": ["a", "b"]}}
			]
		}},
		"sort": [{"name.keyword": {"order": "desc"}}]
	}`, string(b))
}

func TestBuildQuery_EmptyQueryMatchesAll(t *testing.T) {
	q, err := BuildQuery("contact", Request{})
	require.NoError(t, err)
	must := q["query"].(map[string]interface{})["bool"].(map[string]interface{})["must"].([]interface{})
	assert.Equal(t, map[string]interface{}{"match_all": map[string]interface{}{}}, must[0])
	assert.Equal(t, defaultLimit, q["size"])
}

func TestBuildQuery_LimitCapped(t *testing.T) {
	q, err := BuildQuery("export_win", Request{Limit: 50000, Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, maxLimit, q["size"])
	assert.Equal(t, 0, q["from"])
}

func TestBuildQuery_RejectsUnknownFilterAndSort(t *testing.T) {
	_, err := BuildQuery("company", Request{
		SortBy:  "password:asc",
		Filters: map[string]interface{}{"owner": "x"},
	})
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{"Unknown filter."}, errs["owner"])
	assert.Equal(t, []string{validation.MsgInvalidChoice}, errs["sortby"])
}

func TestBuildQuery_UnknownEntity(t *testing.T) {
	_, err := BuildQuery("listing", Request{})
	assert.ErrorIs(t, err, ErrUnknownEntity)
}
