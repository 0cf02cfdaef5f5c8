package query

import (
	"fmt"

	"github.com/gridbase/gridbase/internal"
	"github.com/gridbase/gridbase/internal/util"
)

// projectLookup projects a field of a related row through an existing link
// column. The lookup rides the same correlated join its relation would use,
// without pagination: lookups fetch through all related rows. The value is
// scalar through a singular relation and an array through a plural one; a
// lookup whose target is itself plural flattens to a single array of
// per-row values.
func (c *compiler) projectLookup(stmt *selectStmt, table *internal.Table, col *internal.Column, rootAlias string, np *internal.NestedParams, depth int) (string, bool, error) {
	if col.Lookup == nil {
		c.projectError(stmt, col.Title)
		return col.Title, false, nil
	}
	relCol := table.ColumnByID(col.Lookup.RelationColumnID)
	if relCol == nil || relCol.Kind != internal.KindLink {
		c.projectError(stmt, col.Title)
		return col.Title, false, nil
	}
	rel, err := c.meta.GetRelation(relCol)
	if err != nil {
		c.logger.Debug("cannot resolve lookup relation for column %q: %s", col.Title, err)
		c.projectError(stmt, col.Title)
		return col.Title, false, nil
	}
	scope, err := c.openRelation(table, rel, rootAlias)
	if err != nil {
		c.logger.Debug("cannot open lookup relation for column %q: %s", col.Title, err)
		c.projectError(stmt, col.Title)
		return col.Title, false, nil
	}
	// relation-scoped filters still apply, pagination does not
	if err := c.applyNested(scope, np, false); err != nil {
		return "", false, fmt.Errorf("invalid nested params for %q: %w", col.Title, err)
	}
	target := scope.related.ColumnByID(col.Lookup.TargetColumnID)
	if target == nil {
		c.projectError(stmt, col.Title)
		return col.Title, false, nil
	}
	out, targetPlural, err := c.projectColumn(scope.stmt, scope.related, target, scope.alias, wildcardMask, nil, depth+1)
	if err != nil {
		return "", false, err
	}
	if out == "" {
		// the target projected nothing (for example an invalid formula)
		return "", false, nil
	}

	rowAlias := c.gen.next()
	joinAlias := c.gen.next()
	valCol := util.QuoteIdentifier(c.gen.next())
	ref := rowAlias + "." + util.QuoteIdentifier(out)

	var expr, from string
	switch {
	case !scope.plural:
		// scalar through singular; a plural target passes through as-is
		expr = ref
		from = "(" + scope.stmt.SQL() + ") " + rowAlias
	case !targetPlural:
		expr = "coalesce(json_agg(" + ref + "), '[]'::json)"
		from = "(" + scope.stmt.SQL() + ") " + rowAlias
	default:
		// lookup-of-lookup through a plural relation: flatten the per-row
		// arrays instead of aggregating arrays of arrays
		elemAlias := c.gen.next()
		expr = "coalesce(json_agg(" + elemAlias + ".value), '[]'::json)"
		from = "(" + scope.stmt.SQL() + ") " + rowAlias +
			" CROSS JOIN LATERAL json_array_elements(" + ref + ") " + elemAlias
	}

	stmt.addJoin("LEFT JOIN LATERAL (SELECT " + expr + " AS " + valCol +
		" FROM " + from + ") " + joinAlias + " ON true")
	stmt.addSelect(joinAlias + "." + valCol + " AS " + util.QuoteIdentifier(col.Title))
	return col.Title, scope.plural || targetPlural, nil
}
