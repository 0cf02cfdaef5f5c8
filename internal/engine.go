package internal

import (
	"context"
	"time"
)

// CountUnknown is returned as the total count when the count query was
// excluded or did not complete within its budget. Not an error.
const CountUnknown int64 = -1

// Row is one decoded result row keyed by column title.
type Row map[string]any

// QueryStats carries per-request execution timings.
type QueryStats struct {
	DBQueryTime time.Duration `json:"dbQueryTime"`
}

// ListResult is the result of a list read.
type ListResult struct {
	Rows       []Row      `json:"rows"`
	TotalCount int64      `json:"totalCount"`
	Stats      QueryStats `json:"stats"`
}

// NestedParams scope a relation column's own read: filter, sort, field
// selection and pagination applied inside the lateral subquery.
type NestedParams struct {
	Where  *Filter
	Sorts  []*Sort
	Fields []string
	Limit  int
	Offset int
}

// QueryParams enumerate the recognized request options. Fields and Nested
// keys are column titles. An empty Fields means the wildcard "all columns".
type QueryParams struct {
	Where   *Filter   // ad hoc filter group
	Filters []*Filter // structured filter list, combined with AND
	Sorts   []*Sort
	Fields  []string
	Nested  map[string]*NestedParams

	Limit  int
	Offset int

	// Shuffle orders randomly; such requests always bypass the query cache.
	Shuffle bool

	// ExcludeCount skips the count companion query.
	ExcludeCount bool

	// Strict rejects filters/sorts referencing unknown columns instead of
	// silently dropping them.
	Strict bool
}

// Dynamic reports whether the request carries ad-hoc options that make the
// compiled SQL request-specific and therefore uncacheable.
func (p *QueryParams) Dynamic() bool {
	return p.Where != nil || len(p.Filters) > 0 || len(p.Sorts) > 0 ||
		len(p.Fields) > 0 || len(p.Nested) > 0 || p.Shuffle
}

// Engine is the produced contract of the projection compiler.
type Engine interface {

	// ReadOne reads a single row by primary key value(s). A missing row
	// returns a nil Row and no error.
	ReadOne(ctx context.Context, table *Table, view *View, pk []any, params QueryParams) (Row, error)

	// ListRows reads a page of rows plus a best-effort total count.
	ListRows(ctx context.Context, table *Table, view *View, params QueryParams) (*ListResult, error)
}
