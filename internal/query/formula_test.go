package query

import (
	"testing"

	"github.com/gridbase/gridbase/internal"
	"github.com/shopmonkeyus/go-common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCompiler(t *testing.T) *compiler {
	t.Helper()
	return &compiler{
		logger: logger.NewTestLogger(),
		meta:   testMeta(t),
		gen:    &aliasGen{},
	}
}

func col(id string) *internal.FormulaNode {
	return &internal.FormulaNode{Kind: "column", ColumnID: id}
}

func lit(v any) *internal.FormulaNode {
	return &internal.FormulaNode{Kind: "literal", Value: v}
}

func call(fn string, args ...*internal.FormulaNode) *internal.FormulaNode {
	return &internal.FormulaNode{Kind: "call", Func: fn, Args: args}
}

func TestFormulaLiterals(t *testing.T) {
	c := testCompiler(t)
	table := ordersTable(t)
	tests := []struct {
		node *internal.FormulaNode
		want string
	}{
		{lit("x"), `'x'`},
		{lit(42), "42"},
		{lit(1.5), "1.5"},
		{lit(true), "true"},
		{lit(nil), "null"},
	}
	for _, tc := range tests {
		got, err := c.compileFormula(table, tc.node, "o", 0)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestFormulaColumnRef(t *testing.T) {
	c := testCompiler(t)
	got, err := c.compileFormula(ordersTable(t), col("c_ord_title"), "o", 0)
	require.NoError(t, err)
	assert.Equal(t, `o."title"`, got)
}

func TestFormulaCalls(t *testing.T) {
	c := testCompiler(t)
	table := ordersTable(t)
	tests := []struct {
		name string
		node *internal.FormulaNode
		want string
	}{
		{"concat", call("CONCAT", col("c_ord_title"), lit("!")), `concat(o."title", '!')`},
		{"add", call("ADD", lit(1), lit(2)), "(1 + 2)"},
		{"nested arithmetic", call("MUL", call("ADD", lit(1), lit(2)), lit(3)), "((1 + 2) * 3)"},
		{"mod", call("MOD", lit(7), lit(3)), "mod(7, 3)"},
		{"if", call("IF", call("GT", col("c_ord_id"), lit(5)), lit("big"), lit("small")),
			`CASE WHEN (o."id" > 5) THEN 'big' ELSE 'small' END`},
		{"not", call("NOT", call("EQ", lit(1), lit(2))), "NOT ((1 = 2))"},
		{"now", call("NOW"), "now()"},
		{"today", call("TODAY"), "current_date"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.compileFormula(table, tc.node, "o", 0)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormulaReferencesAnotherFormula(t *testing.T) {
	c := testCompiler(t)
	got, err := c.compileFormula(ordersTable(t), col("c_ord_upper"), "o", 0)
	require.NoError(t, err)
	assert.Equal(t, `upper(o."title")`, got)
}

func TestFormulaErrors(t *testing.T) {
	c := testCompiler(t)
	table := ordersTable(t)
	tests := []struct {
		name string
		node *internal.FormulaNode
	}{
		{"unknown column", col("nope")},
		{"relational ref", col("c_ord_customer")},
		{"lookup ref", col("c_ord_cusname")},
		{"invalid formula ref", col("c_ord_badformula")},
		{"unsupported func", call("SPLIT", lit("a"))},
		{"wrong arity", call("UPPER", lit("a"), lit("b"))},
		{"if arity", call("IF", lit(true))},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.compileFormula(table, tc.node, "o", 0)
			require.Error(t, err)
		})
	}
}
