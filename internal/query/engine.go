package query

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/gridbase/gridbase/internal"
	"github.com/gridbase/gridbase/internal/cache"
	"github.com/shopmonkeyus/go-common/logger"
)

// Config is the configuration for the projection compiler engine.
type Config struct {

	// Context for the engine.
	Context context.Context

	// Logger to use for logging.
	Logger logger.Logger

	// DB is the backend connection the compiled statements run against.
	DB *sql.DB

	// Meta serves read-only table/column/view metadata.
	Meta internal.MetadataStore

	// Cache stores compiled SQL text across requests. Optional; when nil
	// every request compiles fresh.
	Cache *cache.Store
}

// Engine compiles declarative projections into single SQL statements and
// executes them. Compilation is synchronous CPU-bound tree assembly; the
// only suspension points are metadata reads and query execution.
type Engine struct {
	ctx    context.Context
	logger logger.Logger
	db     *sql.DB
	meta   internal.MetadataStore
	cache  *cache.Store
}

var _ internal.Engine = (*Engine)(nil)

// New creates a new projection compiler engine.
func New(config Config) *Engine {
	return &Engine{
		ctx:    config.Context,
		logger: config.Logger.WithPrefix("[query]"),
		db:     config.DB,
		meta:   config.Meta,
		cache:  config.Cache,
	}
}

func (e *Engine) newCompiler(params *internal.QueryParams) *compiler {
	return &compiler{
		logger: e.logger,
		meta:   e.meta,
		gen:    &aliasGen{},
		strict: params.Strict,
	}
}

// selectedColumns returns the columns to project for a read, in view order
// when the view restricts visibility and declaration order otherwise.
func (e *Engine) selectedColumns(table *internal.Table, view *internal.View) []*internal.Column {
	if view == nil || len(view.ColumnIDs) == 0 {
		return table.Columns
	}
	cols := make([]*internal.Column, 0, len(view.ColumnIDs))
	for _, id := range view.ColumnIDs {
		if col := table.ColumnByID(id); col != nil {
			cols = append(cols, col)
		}
	}
	return cols
}

// execute runs a compiled statement and decodes the result rows.
func (e *Engine) execute(ctx context.Context, sqlText string, args ...any) ([]internal.Row, error) {
	e.logger.Trace("executing: %s %v", sqlText, args)
	rows, err := e.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]internal.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := make([]internal.Row, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(internal.Row, len(cols))
		for i, name := range cols {
			row[name] = decodeValue(vals[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// decodeValue unwraps driver byte payloads: JSON aggregates produced by the
// relation resolver decode into native values, everything else is text.
func decodeValue(v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	if len(b) > 0 && (b[0] == '{' || b[0] == '[') {
		var decoded any
		if err := json.Unmarshal(b, &decoded); err == nil {
			return decoded
		}
	}
	return string(b)
}
