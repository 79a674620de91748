package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// QueryBuilder builds a single PostgREST request against one table.
type QueryBuilder struct {
	client  *Client
	table   string
	method  string
	columns string
	filters url.Values
	orders  []string
	limit   int
	payload any
	headers map[string]string
}

// From starts a query builder for a table.
func (c *Client) From(table string) *QueryBuilder {
	return &QueryBuilder{
		client:  c,
		table:   table,
		method:  http.MethodGet,
		filters: url.Values{},
		headers: map[string]string{},
	}
}

// Select specifies columns to select.
func (q *QueryBuilder) Select(columns string) *QueryBuilder {
	q.method = http.MethodGet
	q.columns = columns
	return q
}

// Update patches every row matching the filters and returns the updated rows.
func (q *QueryBuilder) Update(data any) *QueryBuilder {
	q.method = http.MethodPatch
	q.payload = data
	q.headers["Prefer"] = "return=representation"
	return q
}

// Insert inserts rows. With ignoreDuplicates, conflicting rows are skipped
// instead of failing the request.
func (q *QueryBuilder) Insert(data any, ignoreDuplicates bool) *QueryBuilder {
	q.method = http.MethodPost
	q.payload = data
	prefer := "return=representation"
	if ignoreDuplicates {
		prefer += ",resolution=ignore-duplicates"
	}
	q.headers["Prefer"] = prefer
	return q
}

// Eq adds an equality filter.
func (q *QueryBuilder) Eq(column string, value any) *QueryBuilder {
	q.filters.Add(column, fmt.Sprintf("eq.%v", value))
	return q
}

// Is adds an IS filter (null, true, false).
func (q *QueryBuilder) Is(column string, value any) *QueryBuilder {
	q.filters.Add(column, fmt.Sprintf("is.%v", value))
	return q
}

// Order adds an ORDER BY clause.
func (q *QueryBuilder) Order(column string, ascending bool) *QueryBuilder {
	dir := "asc"
	if !ascending {
		dir = "desc"
	}
	q.orders = append(q.orders, column+"."+dir)
	return q
}

// Limit sets the LIMIT.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limit = n
	return q
}

// Single asks PostgREST for exactly one row as an object. Zero or multiple
// rows produce a 406 with code PGRST116.
func (q *QueryBuilder) Single() *QueryBuilder {
	q.headers["Accept"] = "application/vnd.pgrst.object+json"
	return q
}

// Execute performs the request and returns the raw response body.
func (q *QueryBuilder) Execute(ctx context.Context) ([]byte, error) {
	return q.client.request(ctx, q.method, q.buildURL(), q.payload, q.headers)
}

// ExecuteInto performs the request and unmarshals the body into dest.
func (q *QueryBuilder) ExecuteInto(ctx context.Context, dest any) error {
	body, err := q.Execute(ctx)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (q *QueryBuilder) buildURL() string {
	params := url.Values{}
	for k, vs := range q.filters {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	if q.columns != "" && q.method == http.MethodGet {
		params.Set("select", q.columns)
	}
	if len(q.orders) > 0 {
		params.Set("order", strings.Join(q.orders, ","))
	}
	if q.limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", q.limit))
	}

	u := q.client.restURL + "/" + url.PathEscape(q.table)
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}
