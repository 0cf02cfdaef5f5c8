package query

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gridbase/gridbase/internal"
	"github.com/gridbase/gridbase/internal/util"
)

// ReadOne reads a single row by primary key value(s). The statement is
// compiled with placeholder symbols in place of the key and only bound to
// the real parameter(s) at execution, so the compiled text is reusable
// across rows and cacheable per (table, view).
func (e *Engine) ReadOne(ctx context.Context, table *internal.Table, view *internal.View, pk []any, params internal.QueryParams) (internal.Row, error) {
	pks := table.PrimaryKeys()
	if len(pks) == 0 {
		return nil, fmt.Errorf("table %q has no primary key", table.Name)
	}
	if len(pk) != len(pks) {
		return nil, fmt.Errorf("table %q expects %d primary key value(s), got %d", table.Name, len(pks), len(pk))
	}

	rid := uuid.New().String()
	sqlText, err := e.readSQL(table, view, &params)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	rows, err := e.execute(ctx, sqlText, pk...)
	if err != nil {
		return nil, err
	}
	internal.QueriesTotal.Inc()
	internal.QueryDuration.Observe(time.Since(started).Seconds())
	e.logger.Trace("read %s on %s took %v", rid, table.Name, time.Since(started))

	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// readSQL compiles (or recalls) the read-one statement with $n markers for
// the primary key value(s).
func (e *Engine) readSQL(table *internal.Table, view *internal.View, params *internal.QueryParams) (string, error) {
	cacheable := !params.Dynamic()
	key := cacheKey(table, view, opRead)
	if cacheable {
		if found, text := e.cachedSQL(key); found {
			return text, nil
		}
	}

	c := e.newCompiler(params)
	stmt := &selectStmt{}
	rootAlias := c.gen.next()
	stmt.from = util.QuoteIdentifier(table.StorageName) + " " + rootAlias

	mask := maskFor(params.Fields, params.Nested)
	if _, err := c.projectColumns(stmt, table, e.selectedColumns(table, view), rootAlias, mask, params.Nested, true, 0); err != nil {
		return "", err
	}

	for i, pkCol := range table.PrimaryKeys() {
		stmt.addWhere(rootAlias + "." + util.QuoteIdentifier(pkCol.StorageName) + " = " + pkSentinel(i))
	}
	stmt.setLimit(1)

	sentinels := make([]string, len(table.PrimaryKeys()))
	for i := range sentinels {
		sentinels[i] = pkSentinel(i)
	}
	text := rebind(stmt.SQL(), sentinels...)

	if cacheable {
		e.storeSQL(key, text)
	}
	return text, nil
}
