package client

import (
	"context"
	"encoding/json"
	"net/url"
)

// OrderField is one sort key of a FindQuery. On the wire it serializes as
// the two-element array the service expects: ["field", ascending].
type OrderField struct {
	Field     string
	Ascending bool
}

func (o OrderField) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{o.Field, o.Ascending})
}

func (o *OrderField) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &o.Field); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &o.Ascending)
}

// FindQuery parameterizes FindRecords. Zero-valued members are omitted
// from the request body.
type FindQuery struct {
	// SearchFields/Search request a LIKE search of Search across the named
	// fields; both must be set for the search clause to be sent.
	SearchFields []string
	Search       string
	// SearchBy adds per-field LIKE filters.
	SearchBy map[string]any
	// Conditions adds equality/IN filters.
	Conditions map[string]any
	// OrderBy lists sort keys in priority order; array order is preserved
	// on the wire.
	OrderBy []OrderField
	// UserScope restricts results to records visible to the given user id
	// (the service's uta parameter).
	UserScope string
}

// FuzzyQuery parameterizes FuzzyRecords.
type FuzzyQuery struct {
	// SearchFields are matched against Query.
	SearchFields []string
	// ReturnFields names the fields of each result row.
	ReturnFields []string
	Query        string
	// Threshold is the minimum match score; zero means the service default
	// of 0.5.
	Threshold float64
	// SearchBy adds per-field LIKE filters.
	SearchBy map[string]any
	// Conditions adds equality/IN filters.
	Conditions map[string]any
	// UserScope restricts results to records visible to the given user id.
	UserScope string
}

// FindRecords runs a filtered, ordered search over one table and returns
// the matching records.
func (c *Client) FindRecords(ctx context.Context, table string, query FindQuery, scope Scope) ([]Record, error) {
	token, db, err := c.begin(scope)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{}
	if len(query.SearchFields) > 0 && query.Search != "" {
		payload["search"] = map[string]any{
			"fields": query.SearchFields,
			"query":  query.Search,
		}
	}
	if len(query.SearchBy) > 0 {
		payload["search_by"] = query.SearchBy
	}
	if len(query.Conditions) > 0 {
		payload["conditions"] = query.Conditions
	}
	if len(query.OrderBy) > 0 {
		payload["order_info"] = query.OrderBy
	}
	if query.UserScope != "" {
		payload["uta"] = query.UserScope
	}

	q := url.Values{}
	q.Set("tablename", table)
	env, err := c.call(ctx, "model", actionURL(c.baseURL, "model", token, db, q), payload)
	if err != nil {
		return nil, err
	}
	records, err := extract[[]Record](env, "records")
	if err != nil {
		return nil, c.fail(err)
	}
	return records, nil
}

// FuzzyRecords runs a fuzzy-match search over one table and returns the
// scored results.
func (c *Client) FuzzyRecords(ctx context.Context, table string, query FuzzyQuery, scope Scope) ([]Record, error) {
	token, db, err := c.begin(scope)
	if err != nil {
		return nil, err
	}

	threshold := query.Threshold
	if threshold == 0 {
		threshold = 0.5
	}
	payload := map[string]any{
		"fields": query.ReturnFields,
		"fuzzy": map[string]any{
			"fields":    query.SearchFields,
			"query":     query.Query,
			"threshold": threshold,
		},
	}
	if len(query.SearchBy) > 0 {
		payload["search_by"] = query.SearchBy
	}
	if len(query.Conditions) > 0 {
		payload["conditions"] = query.Conditions
	}
	if query.UserScope != "" {
		payload["uta"] = query.UserScope
	}

	q := url.Values{}
	q.Set("tablename", table)
	env, err := c.call(ctx, "model_fuzzy", actionURL(c.baseURL, "model_fuzzy", token, db, q), payload)
	if err != nil {
		return nil, err
	}
	results, err := extract[[]Record](env, "results")
	if err != nil {
		return nil, c.fail(err)
	}
	return results, nil
}
