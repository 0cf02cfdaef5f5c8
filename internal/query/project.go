package query

import (
	"fmt"

	"github.com/gridbase/gridbase/internal"
	"github.com/gridbase/gridbase/internal/util"
	"github.com/shopmonkeyus/go-common/logger"
)

const (
	// maxProjectDepth caps lookup/relation recursion so a pathological
	// metadata cycle cannot produce unbounded query nesting. Past the cap
	// the projector fails closed to the structural sentinel.
	maxProjectDepth = 10

	// defaultNestedLimit is the window applied to plural relations when the
	// request carries no nested limit.
	defaultNestedLimit = 25
)

// fieldMask is the subset of a table's columns actually requested. The
// wildcard mask projects everything at the root but only the primary key and
// display column inside relations, which keeps default reads cheap while
// always returning enough to identify a row.
type fieldMask struct {
	all    bool
	fields map[string]*fieldMask
}

var wildcardMask = &fieldMask{all: true}

func maskFor(fields []string, nested map[string]*internal.NestedParams) *fieldMask {
	if len(fields) == 0 && len(nested) == 0 {
		return wildcardMask
	}
	m := &fieldMask{fields: make(map[string]*fieldMask)}
	if len(fields) == 0 {
		m.all = true
	}
	for _, f := range fields {
		m.fields[f] = wildcardMask
	}
	for title, np := range nested {
		m.fields[title] = maskFor(np.Fields, nil)
	}
	return m
}

// wants reports whether the column should be projected at this level.
func (m *fieldMask) wants(col *internal.Column, root bool) bool {
	if m == nil {
		m = wildcardMask
	}
	if child, ok := m.fields[col.Title]; ok && child != nil {
		return true
	}
	if m.all {
		if root {
			return true
		}
		return col.PrimaryKey || col.Display
	}
	return false
}

// child returns the sub-mask for a relational column's fields.
func (m *fieldMask) child(title string) *fieldMask {
	if m == nil {
		return wildcardMask
	}
	if c, ok := m.fields[title]; ok && c != nil {
		return c
	}
	return wildcardMask
}

// compiler is one synchronous compilation pass: CPU-bound tree assembly over
// already-cached metadata.
type compiler struct {
	logger logger.Logger
	meta   internal.MetadataStore
	gen    *aliasGen
	strict bool
}

// projectError projects the structural sentinel in place of a column whose
// metadata cannot be resolved, so the rest of the row still returns.
func (c *compiler) projectError(stmt *selectStmt, title string) {
	c.logger.Debug("projecting error sentinel for column %q", title)
	stmt.addSelect(util.QuoteValue(internal.ErrValue) + "::text AS " + util.QuoteIdentifier(title))
}

// scalarExpr renders the value expression for a plain scalar column.
// Binary blobs are encoded at the SQL layer rather than emitting raw bytes,
// and naive timestamps are normalized from the session timezone to UTC.
func scalarExpr(alias, storage string, col *internal.Column) string {
	ref := alias + "." + util.QuoteIdentifier(storage)
	switch col.Kind {
	case internal.KindBinary:
		return "encode(" + ref + ", 'base64')"
	case internal.KindDateTime, internal.KindCreatedAt, internal.KindUpdatedAt:
		if !col.TimeZoneAware {
			return "(" + ref + " AT TIME ZONE current_setting('TIMEZONE'))"
		}
	}
	return ref
}

// projectColumn appends the expression(s) producing one column's value to
// stmt, positioned at a table aliased as alias. child is the mask of
// sub-fields for relational columns and np the request's nested options for
// this column. It returns the output name ("" when nothing was projected)
// and whether the produced value is plural (an array).
func (c *compiler) projectColumn(stmt *selectStmt, table *internal.Table, col *internal.Column, alias string, child *fieldMask, np *internal.NestedParams, depth int) (string, bool, error) {
	if depth > maxProjectDepth {
		c.projectError(stmt, col.Title)
		return col.Title, false, nil
	}
	out := util.QuoteIdentifier(col.Title)
	switch col.Kind {
	case internal.KindLink:
		return c.projectRelation(stmt, table, col, alias, child, np, depth)

	case internal.KindLookup:
		return c.projectLookup(stmt, table, col, alias, np, depth)

	case internal.KindFormula:
		if col.Formula == nil || col.Formula.Invalid || col.Formula.Tree == nil {
			// broken formulas are skipped, never fatal
			return "", false, nil
		}
		expr, err := c.compileFormula(table, col.Formula.Tree, alias, depth)
		if err != nil {
			c.logger.Debug("skipping formula column %q: %s", col.Title, err)
			return "", false, nil
		}
		stmt.addSelect(expr + " AS " + out)
		return col.Title, false, nil

	case internal.KindRollup, internal.KindLinksCount:
		expr, err := c.buildAggregate(table, col, alias)
		if err != nil {
			c.projectError(stmt, col.Title)
			return col.Title, false, nil
		}
		stmt.addSelect(expr + " AS " + out)
		return col.Title, false, nil

	case internal.KindBarcode, internal.KindQRCode:
		// barcode/qr columns are views over another value column on the
		// same table, re-projected under the barcode column's title
		if col.Barcode == nil {
			c.projectError(stmt, col.Title)
			return col.Title, false, nil
		}
		value := table.ColumnByID(col.Barcode.ValueColumnID)
		if value == nil {
			c.projectError(stmt, col.Title)
			return col.Title, false, nil
		}
		relabeled := *value
		relabeled.Title = col.Title
		return c.projectColumn(stmt, table, &relabeled, alias, child, np, depth+1)

	case internal.KindCreatedAt, internal.KindUpdatedAt, internal.KindCreatedBy, internal.KindUpdatedBy:
		storage := table.SystemStorageName(col)
		if storage == "" {
			c.projectError(stmt, col.Title)
			return col.Title, false, nil
		}
		stmt.addSelect(scalarExpr(alias, storage, col) + " AS " + out)
		return col.Title, false, nil

	case internal.KindText, internal.KindLongText, internal.KindNumber, internal.KindDecimal,
		internal.KindBoolean, internal.KindDate, internal.KindDateTime, internal.KindBinary,
		internal.KindAttachment, internal.KindGeneric:
		if col.StorageName == "" {
			c.projectError(stmt, col.Title)
			return col.Title, false, nil
		}
		stmt.addSelect(scalarExpr(alias, col.StorageName, col) + " AS " + out)
		return col.Title, false, nil
	}
	return "", false, fmt.Errorf("unhandled column kind %q for column %q", col.Kind, col.Title)
}

// projectColumns runs the projector over a list of columns, returning the
// output names that were actually projected.
func (c *compiler) projectColumns(stmt *selectStmt, table *internal.Table, cols []*internal.Column, alias string, m *fieldMask, nested map[string]*internal.NestedParams, root bool, depth int) ([]string, error) {
	var outs []string
	for _, col := range cols {
		if !m.wants(col, root) {
			continue
		}
		np := nested[col.Title]
		out, _, err := c.projectColumn(stmt, table, col, alias, m.child(col.Title), np, depth)
		if err != nil {
			return nil, err
		}
		if out != "" {
			outs = append(outs, out)
		}
	}
	return outs, nil
}
