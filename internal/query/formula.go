package query

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gridbase/gridbase/internal"
	"github.com/gridbase/gridbase/internal/util"
)

// compileFormula turns an already-parsed formula expression tree into a
// scalar SQL expression bound to alias. The tree arrives validated from the
// metadata layer; anything unsupported makes the whole formula invalid and
// the projector skips the column.
func (c *compiler) compileFormula(table *internal.Table, node *internal.FormulaNode, alias string, depth int) (string, error) {
	if depth > maxProjectDepth {
		return "", errors.New("formula nesting too deep")
	}
	switch node.Kind {
	case "literal":
		return util.QuoteValue(node.Value), nil

	case "column":
		col := table.ColumnByID(node.ColumnID)
		if col == nil {
			return "", errors.Newf("formula references unknown column %q", node.ColumnID)
		}
		switch col.Kind {
		case internal.KindFormula:
			if col.Formula == nil || col.Formula.Invalid || col.Formula.Tree == nil {
				return "", errors.Newf("formula references invalid formula column %q", col.Title)
			}
			return c.compileFormula(table, col.Formula.Tree, alias, depth+1)
		case internal.KindLink, internal.KindLookup, internal.KindRollup, internal.KindLinksCount:
			return "", errors.Newf("formula cannot reference relational column %q", col.Title)
		}
		storage := col.StorageName
		if col.IsSystem() {
			storage = table.SystemStorageName(col)
		}
		if storage == "" {
			return "", errors.Newf("formula references unstored column %q", col.Title)
		}
		return scalarExpr(alias, storage, col), nil

	case "call":
		return c.compileFormulaCall(table, node, alias, depth)
	}
	return "", errors.Newf("unknown formula node kind %q", node.Kind)
}

func (c *compiler) compileFormulaCall(table *internal.Table, node *internal.FormulaNode, alias string, depth int) (string, error) {
	args := make([]string, 0, len(node.Args))
	for _, a := range node.Args {
		expr, err := c.compileFormula(table, a, alias, depth+1)
		if err != nil {
			return "", err
		}
		args = append(args, expr)
	}
	arity := func(n int) error {
		if len(args) != n {
			return errors.Newf("%s expects %d arguments, got %d", node.Func, n, len(args))
		}
		return nil
	}
	binary := func(op string) (string, error) {
		if len(args) < 2 {
			return "", errors.Newf("%s expects at least 2 arguments", node.Func)
		}
		return "(" + strings.Join(args, " "+op+" ") + ")", nil
	}
	switch strings.ToUpper(node.Func) {
	case "CONCAT":
		return "concat(" + strings.Join(args, ", ") + ")", nil
	case "UPPER":
		if err := arity(1); err != nil {
			return "", err
		}
		return "upper(" + args[0] + ")", nil
	case "LOWER":
		if err := arity(1); err != nil {
			return "", err
		}
		return "lower(" + args[0] + ")", nil
	case "TRIM":
		if err := arity(1); err != nil {
			return "", err
		}
		return "trim(" + args[0] + ")", nil
	case "LEN":
		if err := arity(1); err != nil {
			return "", err
		}
		return "length(" + args[0] + ")", nil
	case "ABS":
		if err := arity(1); err != nil {
			return "", err
		}
		return "abs(" + args[0] + ")", nil
	case "ROUND":
		if err := arity(1); err != nil {
			return "", err
		}
		return "round(" + args[0] + ")", nil
	case "FLOOR":
		if err := arity(1); err != nil {
			return "", err
		}
		return "floor(" + args[0] + ")", nil
	case "CEILING":
		if err := arity(1); err != nil {
			return "", err
		}
		return "ceil(" + args[0] + ")", nil
	case "ADD":
		return binary("+")
	case "SUB":
		return binary("-")
	case "MUL":
		return binary("*")
	case "DIV":
		return binary("/")
	case "MOD":
		if err := arity(2); err != nil {
			return "", err
		}
		return fmt.Sprintf("mod(%s, %s)", args[0], args[1]), nil
	case "EQ":
		return binary("=")
	case "NEQ":
		return binary("<>")
	case "GT":
		return binary(">")
	case "GTE":
		return binary(">=")
	case "LT":
		return binary("<")
	case "LTE":
		return binary("<=")
	case "AND":
		return binary("AND")
	case "OR":
		return binary("OR")
	case "NOT":
		if err := arity(1); err != nil {
			return "", err
		}
		return "NOT (" + args[0] + ")", nil
	case "IF":
		if err := arity(3); err != nil {
			return "", err
		}
		return "CASE WHEN " + args[0] + " THEN " + args[1] + " ELSE " + args[2] + " END", nil
	case "NOW":
		if err := arity(0); err != nil {
			return "", err
		}
		return "now()", nil
	case "TODAY":
		if err := arity(0); err != nil {
			return "", err
		}
		return "current_date", nil
	}
	return "", errors.Newf("unsupported formula function %q", node.Func)
}
