package query

import (
	"fmt"
	"strings"

	"github.com/gridbase/gridbase/internal"
	"github.com/gridbase/gridbase/internal/util"
)

// conditionTranslator turns filter trees and sort lists into predicate and
// order fragments against one aliased table. In strict mode a reference to
// an unknown column rejects the request; otherwise the node is dropped and
// the rest of the predicate keeps best-effort behavior.
type conditionTranslator struct {
	table  *internal.Table
	alias  string
	strict bool
}

func (t *conditionTranslator) columnRef(columnID string) (string, error) {
	col := t.table.ColumnByID(columnID)
	if col == nil {
		if t.strict {
			return "", fmt.Errorf("unknown column %q on table %q", columnID, t.table.Name)
		}
		return "", nil
	}
	storage := col.StorageName
	if col.IsSystem() {
		storage = t.table.SystemStorageName(col)
	}
	if storage == "" {
		if t.strict {
			return "", fmt.Errorf("column %q on table %q is not filterable", col.Title, t.table.Name)
		}
		return "", nil
	}
	return t.alias + "." + util.QuoteIdentifier(storage), nil
}

// filterSQL translates one filter node, recursing through groups.
func (t *conditionTranslator) filterSQL(f *internal.Filter) (string, error) {
	if f == nil {
		return "", nil
	}
	if f.IsGroup() {
		op := " AND "
		if f.Op == internal.OpOr {
			op = " OR "
		}
		var parts []string
		for _, child := range f.Children {
			sql, err := t.filterSQL(child)
			if err != nil {
				return "", err
			}
			if sql != "" {
				parts = append(parts, sql)
			}
		}
		if len(parts) == 0 {
			return "", nil
		}
		return "(" + strings.Join(parts, op) + ")", nil
	}
	lhs, err := t.columnRef(f.ColumnID)
	if err != nil || lhs == "" {
		return "", err
	}
	switch f.Comparator {
	case "eq":
		if f.Value == nil {
			return lhs + " IS NULL", nil
		}
		return lhs + " = " + util.QuoteValue(f.Value), nil
	case "neq":
		return lhs + " IS DISTINCT FROM " + util.QuoteValue(f.Value), nil
	case "gt":
		return lhs + " > " + util.QuoteValue(f.Value), nil
	case "gte":
		return lhs + " >= " + util.QuoteValue(f.Value), nil
	case "lt":
		return lhs + " < " + util.QuoteValue(f.Value), nil
	case "lte":
		return lhs + " <= " + util.QuoteValue(f.Value), nil
	case "like":
		return lhs + "::text ILIKE " + util.QuoteValue(f.Value), nil
	case "nlike":
		return lhs + "::text NOT ILIKE " + util.QuoteValue(f.Value), nil
	case "in":
		return lhs + " IN " + util.QuoteValue(f.Value), nil
	case "null":
		return lhs + " IS NULL", nil
	case "notnull":
		return lhs + " IS NOT NULL", nil
	case "empty":
		return "(" + lhs + " IS NULL OR " + lhs + "::text = '')", nil
	case "notempty":
		return "(" + lhs + " IS NOT NULL AND " + lhs + "::text <> '')", nil
	}
	if t.strict {
		return "", fmt.Errorf("unknown comparator %q", f.Comparator)
	}
	return "", nil
}

// combine ANDs a list of filter trees into one predicate.
func (t *conditionTranslator) combine(filters []*internal.Filter) (string, error) {
	var parts []string
	for _, f := range filters {
		sql, err := t.filterSQL(f)
		if err != nil {
			return "", err
		}
		if sql != "" {
			parts = append(parts, sql)
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return strings.Join(parts, " AND "), nil
}

// sortSQL translates a sort list into order fragments.
func (t *conditionTranslator) sortSQL(sorts []*internal.Sort) ([]string, error) {
	var orders []string
	for _, s := range sorts {
		lhs, err := t.columnRef(s.ColumnID)
		if err != nil {
			return nil, err
		}
		if lhs == "" {
			continue
		}
		dir := " ASC"
		if s.Descending() {
			dir = " DESC"
		}
		orders = append(orders, lhs+dir)
	}
	return orders, nil
}
