package query

import (
	"fmt"
	"strings"

	"github.com/gridbase/gridbase/internal"
	"github.com/gridbase/gridbase/internal/util"
)

var rollupFuncs = map[string]string{
	"count": "count",
	"sum":   "sum",
	"min":   "min",
	"max":   "max",
	"avg":   "avg",
}

// buildAggregate builds the correlated aggregate select for a rollup or
// links-count column: an aggregate function computed over the relation's
// related rows, correlated to rootAlias.
func (c *compiler) buildAggregate(table *internal.Table, col *internal.Column, rootAlias string) (string, error) {
	ro := col.Rollup
	if ro == nil {
		return "", fmt.Errorf("column %q has no rollup options", col.Title)
	}
	relCol := table.ColumnByID(ro.RelationColumnID)
	if relCol == nil || relCol.Kind != internal.KindLink {
		return "", fmt.Errorf("column %q references an invalid relation column", col.Title)
	}
	rel, err := c.meta.GetRelation(relCol)
	if err != nil {
		return "", err
	}
	scope, err := c.openRelation(table, rel, rootAlias)
	if err != nil {
		return "", err
	}

	name := strings.ToLower(ro.Func)
	if name == "" && col.Kind == internal.KindLinksCount {
		name = "count"
	}
	fn, ok := rollupFuncs[name]
	if !ok {
		return "", fmt.Errorf("unsupported rollup function %q", ro.Func)
	}

	arg := "*"
	if ro.TargetColumnID != "" {
		target := scope.related.ColumnByID(ro.TargetColumnID)
		if target == nil || target.StorageName == "" {
			return "", fmt.Errorf("column %q references an invalid rollup target", col.Title)
		}
		arg = scope.alias + "." + util.QuoteIdentifier(target.StorageName)
	} else if fn != "count" {
		return "", fmt.Errorf("rollup function %q requires a target column", fn)
	}

	agg := fn + "(" + arg + ")"
	if fn == "sum" {
		agg = "coalesce(" + agg + ", 0)"
	}
	scope.stmt.addSelect(agg)
	return "(" + scope.stmt.SQL() + ")", nil
}
