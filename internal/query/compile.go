package query

import (
	"github.com/gridbase/gridbase/internal"
)

// CompileRead returns the compiled read-one statement without executing it.
// The $n markers stand for the primary key value(s).
func (e *Engine) CompileRead(table *internal.Table, view *internal.View, params internal.QueryParams) (string, error) {
	return e.readSQL(table, view, &params)
}

// CompileList returns the compiled list statement and its count companion
// without executing them. The $1/$2 markers stand for limit and offset.
func (e *Engine) CompileList(table *internal.Table, view *internal.View, params internal.QueryParams) (string, string, error) {
	return e.listSQL(table, view, &params)
}
