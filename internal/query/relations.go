package query

import (
	"fmt"
	"strings"

	"github.com/gridbase/gridbase/internal"
	"github.com/gridbase/gridbase/internal/util"
)

// relScope is the correlated subquery for one relation hop: the statement
// rooted at the other side of the relation plus the alias its columns are
// reachable under.
type relScope struct {
	stmt    *selectStmt
	alias   string
	plural  bool
	related *internal.Table
}

// openRelation builds the subquery rooted at the other side of the relation,
// correlated to rootAlias by the appropriate foreign-key equalities. For
// many-to-many it first correlates through the join table and then
// left-joins the related table.
func (c *compiler) openRelation(table *internal.Table, rel *internal.Relation, rootAlias string) (*relScope, error) {
	sub := &selectStmt{}
	relAlias := c.gen.next()

	eq := func(leftAlias string, left *internal.Column, rightAlias string, right *internal.Column) string {
		return leftAlias + "." + util.QuoteIdentifier(left.StorageName) + " = " + rightAlias + "." + util.QuoteIdentifier(right.StorageName)
	}

	var related *internal.Table
	switch rel.Kind {
	case internal.RelationBelongsTo:
		// the root table is the child and holds the foreign key
		related = rel.ParentTable
		sub.from = util.QuoteIdentifier(related.StorageName) + " " + relAlias
		sub.addWhere(eq(relAlias, rel.ParentColumn, rootAlias, rel.ChildColumn))

	case internal.RelationHasMany:
		// the root table is the parent referenced by the child's foreign key
		related = rel.ChildTable
		sub.from = util.QuoteIdentifier(related.StorageName) + " " + relAlias
		sub.addWhere(eq(relAlias, rel.ChildColumn, rootAlias, rel.ParentColumn))

	case internal.RelationOneToOne:
		if rel.OwnsForeignKey {
			related = rel.ParentTable
			sub.from = util.QuoteIdentifier(related.StorageName) + " " + relAlias
			sub.addWhere(eq(relAlias, rel.ParentColumn, rootAlias, rel.ChildColumn))
		} else {
			related = rel.ChildTable
			sub.from = util.QuoteIdentifier(related.StorageName) + " " + relAlias
			sub.addWhere(eq(relAlias, rel.ChildColumn, rootAlias, rel.ParentColumn))
		}

	case internal.RelationManyToMany:
		if rel.JoinTable == nil || rel.JoinParentColumn == nil || rel.JoinChildColumn == nil {
			return nil, fmt.Errorf("many-to-many relation is missing its join table")
		}
		jtAlias := c.gen.next()
		rootIsParent := rel.ParentTable != nil && rel.ParentTable.ID == table.ID
		sub.from = util.QuoteIdentifier(rel.JoinTable.StorageName) + " " + jtAlias
		if rootIsParent {
			related = rel.ChildTable
			sub.addJoin("LEFT JOIN " + util.QuoteIdentifier(related.StorageName) + " " + relAlias +
				" ON " + eq(relAlias, rel.ChildColumn, jtAlias, rel.JoinChildColumn))
			sub.addWhere(eq(jtAlias, rel.JoinParentColumn, rootAlias, rel.ParentColumn))
		} else {
			related = rel.ParentTable
			sub.addJoin("LEFT JOIN " + util.QuoteIdentifier(related.StorageName) + " " + relAlias +
				" ON " + eq(relAlias, rel.ParentColumn, jtAlias, rel.JoinParentColumn))
			sub.addWhere(eq(jtAlias, rel.JoinChildColumn, rootAlias, rel.ChildColumn))
		}

	default:
		return nil, fmt.Errorf("unknown relation kind %q", rel.Kind)
	}

	return &relScope{
		stmt:    sub,
		alias:   relAlias,
		plural:  rel.Plural(),
		related: related,
	}, nil
}

// applyNested pushes the relation-scoped filter tree, sort list and window
// down into the subquery. Sorts and pagination apply to plural relations
// only.
func (c *compiler) applyNested(scope *relScope, np *internal.NestedParams, paginate bool) error {
	var where *internal.Filter
	var sorts []*internal.Sort
	limit, offset := int64(defaultNestedLimit), int64(0)
	if np != nil {
		where = np.Where
		sorts = np.Sorts
		if np.Limit > 0 {
			limit = int64(np.Limit)
		}
		if np.Offset > 0 {
			offset = int64(np.Offset)
		}
	}
	ct := &conditionTranslator{table: scope.related, alias: scope.alias, strict: c.strict}
	cond, err := ct.filterSQL(where)
	if err != nil {
		return err
	}
	scope.stmt.addWhere(cond)
	if scope.plural {
		orders, err := ct.sortSQL(sorts)
		if err != nil {
			return err
		}
		for _, o := range orders {
			scope.stmt.addOrder(o)
		}
		if paginate {
			scope.stmt.setLimit(limit)
			scope.stmt.setOffset(offset)
		}
	} else {
		scope.stmt.setLimit(1)
	}
	return nil
}

// closeRelation wraps the populated subquery in the outer lateral
// aggregation and projects its output column onto stmt: one JSON object for
// singular relations (null when no related row exists), a JSON array for
// plural ones ('[]' when empty).
func (c *compiler) closeRelation(stmt *selectStmt, scope *relScope, outs []string, title string) {
	rowAlias := c.gen.next()
	joinAlias := c.gen.next()
	valCol := util.QuoteIdentifier(c.gen.next())

	pairs := make([]string, 0, len(outs))
	for _, o := range outs {
		pairs = append(pairs, util.QuoteValue(o)+", "+rowAlias+"."+util.QuoteIdentifier(o))
	}
	obj := "json_build_object(" + strings.Join(pairs, ", ") + ")"
	if scope.plural {
		obj = "coalesce(json_agg(" + obj + "), '[]'::json)"
	}

	stmt.addJoin("LEFT JOIN LATERAL (SELECT " + obj + " AS " + valCol +
		" FROM (" + scope.stmt.SQL() + ") " + rowAlias + ") " + joinAlias + " ON true")
	stmt.addSelect(joinAlias + "." + valCol + " AS " + util.QuoteIdentifier(title))
}

// projectRelation resolves a link column into a correlated lateral join and
// recurses into the projector to shape the requested nested fields.
func (c *compiler) projectRelation(stmt *selectStmt, table *internal.Table, col *internal.Column, rootAlias string, child *fieldMask, np *internal.NestedParams, depth int) (string, bool, error) {
	rel, err := c.meta.GetRelation(col)
	if err != nil {
		c.logger.Debug("cannot resolve relation for column %q: %s", col.Title, err)
		c.projectError(stmt, col.Title)
		return col.Title, false, nil
	}
	scope, err := c.openRelation(table, rel, rootAlias)
	if err != nil {
		c.logger.Debug("cannot open relation for column %q: %s", col.Title, err)
		c.projectError(stmt, col.Title)
		return col.Title, false, nil
	}
	if err := c.applyNested(scope, np, true); err != nil {
		return "", false, fmt.Errorf("invalid nested params for %q: %w", col.Title, err)
	}
	outs, err := c.projectColumns(scope.stmt, scope.related, scope.related.Columns, scope.alias, child, nil, false, depth+1)
	if err != nil {
		return "", false, err
	}
	if len(outs) == 0 {
		// always return enough to identify the related row
		outs, err = c.projectColumns(scope.stmt, scope.related, scope.related.Columns, scope.alias, wildcardMask, nil, false, depth+1)
		if err != nil {
			return "", false, err
		}
	}
	c.closeRelation(stmt, scope, outs, col.Title)
	return col.Title, scope.plural, nil
}
