package search

import (
	"errors"
	"sort"
	"strings"

	"datahub-backend/internal/pkg/validation"
)

// ErrUnknownEntity is returned for entity names with no search index.
var ErrUnknownEntity = errors.New("unknown search entity")

const (
	defaultLimit = 10
	maxLimit     = 1000
)

type entity struct {
	index   string
	fields  []string
	filters map[string]string
	sorts   map[string]string
}

var entities = map[string]entity{
	"company": {
		index:  IndexCompany,
		fields: []string{"name^3", "trading_names", "company_number", "address_postcode", "address_town"},
		filters: map[string]string{
			"archived":            "archived",
			"sector":              "sector_id",
			"uk_region":           "uk_region_id",
			"headquarter_type":    "headquarter_type_id",
			"country":             "address_country_id",
			"global_headquarters": "global_headquarters_id",
			"is_global_ultimate":  "is_global_ultimate",
		},
		sorts: map[string]string{
			"name":        "name.keyword",
			"created_on":  "created_on",
			"modified_on": "modified_on",
		},
	},
	"contact": {
		index:  IndexContact,
		fields: []string{"name^3", "email", "job_title"},
		filters: map[string]string{
			"archived": "archived",
			"company":  "company_id",
		},
		sorts: map[string]string{
			"last_name":   "last_name.keyword",
			"created_on":  "created_on",
			"modified_on": "modified_on",
		},
	},
	"interaction": {
		index:  IndexInteraction,
		fields: []string{"subject^2"},
		filters: map[string]string{
			"kind":               "kind",
			"company":            "company_id",
			"investment_project": "investment_project_id",
			"status":             "status",
		},
		sorts: map[string]string{
			"date":        "date",
			"created_on":  "created_on",
			"modified_on": "modified_on",
		},
	},
	"investment_project": {
		index:  IndexInvestmentProject,
		fields: []string{"name^3", "project_code"},
		filters: map[string]string{
			"stage":            "stage",
			"status":           "status",
			"investor_company": "investor_company_id",
			"sector":           "sector_id",
		},
		sorts: map[string]string{
			"name":                "name.keyword",
			"estimated_land_date": "estimated_land_date",
			"created_on":          "created_on",
			"modified_on":         "modified_on",
		},
	},
	"export_win": {
		index:  IndexExportWin,
		fields: []string{"company_name^2", "name_of_export", "description"},
		filters: map[string]string{
			"company":      "company_id",
			"country":      "country_id",
			"sector":       "sector_id",
			"adviser":      "adviser_id",
			"lead_officer": "lead_officer_id",
			"is_deleted":   "is_deleted",
		},
		sorts: map[string]string{
			"date":       "date",
			"created_on": "created_on",
		},
	},
}

// Request is the body of a search call.
type Request struct {
	OriginalQuery string
	Offset        int
	Limit         int
	SortBy        string
	Filters       map[string]interface{}
}

// ParseRequest splits a decoded JSON body into the reserved keys and filters.
func ParseRequest(body map[string]interface{}) Request {
	req := Request{Filters: map[string]interface{}{}}
	for k, v := range body {
		switch k {
		case "original_query":
			req.OriginalQuery, _ = v.(string)
		case "offset":
			req.Offset = toInt(v)
		case "limit":
			req.Limit = toInt(v)
		case "sortby":
			req.SortBy, _ = v.(string)
		default:
			req.Filters[k] = v
		}
	}
	return req
}

func toInt(v interface{}) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}

// Index returns the index name searched for an entity.
func Index(name string) (string, error) {
	e, ok := entities[name]
	if !ok {
		return "", ErrUnknownEntity
	}
	return e.index, nil
}

// BuildQuery turns req into an Elasticsearch search body for the named entity.
// Unknown filters and sort fields are reported as validation errors.
func BuildQuery(name string, req Request) (map[string]interface{}, error) {
	e, ok := entities[name]
	if !ok {
		return nil, ErrUnknownEntity
	}

	var errs validation.Errors
	must := []interface{}{}
	if q := strings.TrimSpace(req.OriginalQuery); q != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":    q,
				"fields":   e.fields,
				"type":     "cross_fields",
				"operator": "and",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	keys := make([]string, 0, len(req.Filters))
	for k := range req.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	filter := []interface{}{}
	for _, k := range keys {
		field, ok := e.filters[k]
		if !ok {
			errs.Add(k, "Unknown filter.")
			continue
		}
		switch v := req.Filters[k].(type) {
		case nil:
		case []interface{}:
			if len(v) > 0 {
				filter = append(filter, map[string]interface{}{"terms": map[string]interface{}{field: v}})
			}
		default:
			filter = append(filter, map[string]interface{}{"term": map[string]interface{}{field: v}})
		}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	body := map[string]interface{}{
		"from": offset,
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
	}

	if req.SortBy != "" {
		field, dir := req.SortBy, "asc"
		if i := strings.Index(req.SortBy, ":"); i >= 0 {
			field, dir = req.SortBy[:i], req.SortBy[i+1:]
		}
		target, ok := e.sorts[field]
		if !ok || (dir != "asc" && dir != "desc") {
			errs.Add("sortby", validation.MsgInvalidChoice)
		} else {
			body["sort"] = []interface{}{map[string]interface{}{target: map[string]interface{}{"order": dir}}}
		}
	}

	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	return body, nil
}
