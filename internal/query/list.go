package query

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/gridbase/gridbase/internal"
	"github.com/gridbase/gridbase/internal/util"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListLimit = 25
	maxListLimit     = 1000

	// countTimeout is the wall-clock budget for the count companion. Past
	// it the count is abandoned and reported unknown; the row page is never
	// blocked on it.
	countTimeout = 3 * time.Second
)

func normalizeLimit(n int) int64 {
	if n <= 0 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return int64(n)
}

// ListRows reads a page of rows and races a best-effort count companion
// against a fixed budget. Pagination values are compiled as placeholder
// symbols and bound at execution, like the read-one key.
func (e *Engine) ListRows(ctx context.Context, table *internal.Table, view *internal.View, params internal.QueryParams) (*internal.ListResult, error) {
	rid := uuid.New().String()
	rowSQL, countSQL, err := e.listSQL(table, view, &params)
	if err != nil {
		return nil, err
	}

	limit := normalizeLimit(params.Limit)
	offset := int64(0)
	if params.Offset > 0 {
		offset = int64(params.Offset)
	}

	var rows []internal.Row
	var queryTime time.Duration
	count := internal.CountUnknown

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		started := time.Now()
		r, err := e.execute(gctx, rowSQL, limit, offset)
		if err != nil {
			return err
		}
		queryTime = time.Since(started)
		rows = r
		return nil
	})
	if !params.ExcludeCount {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, countTimeout)
			defer cancel()
			var n int64
			if err := e.db.QueryRowContext(cctx, countSQL).Scan(&n); err != nil {
				if errors.Is(err, context.DeadlineExceeded) || cctx.Err() != nil {
					internal.CountTimeouts.Inc()
					e.logger.Debug("count for %s abandoned after %v", table.Name, countTimeout)
					return nil
				}
				return err
			}
			count = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	internal.QueriesTotal.Inc()
	internal.QueryDuration.Observe(queryTime.Seconds())
	e.logger.Trace("list %s on %s took %v (count=%d)", rid, table.Name, queryTime, count)

	return &internal.ListResult{
		Rows:       rows,
		TotalCount: count,
		Stats:      internal.QueryStats{DBQueryTime: queryTime},
	}, nil
}

// listSQL compiles (or recalls) the list statement and its count companion,
// with $1/$2 markers for limit/offset.
func (e *Engine) listSQL(table *internal.Table, view *internal.View, params *internal.QueryParams) (string, string, error) {
	cacheable := !params.Dynamic()
	rowKey := cacheKey(table, view, opList)
	countKey := cacheKey(table, view, opCount)
	if cacheable {
		if foundRow, rowText := e.cachedSQL(rowKey); foundRow {
			if foundCount, countText := e.cachedSQL(countKey); foundCount {
				return rowText, countText, nil
			}
		}
	}

	c := e.newCompiler(params)
	stmt := &selectStmt{}
	rootAlias := c.gen.next()
	stmt.from = util.QuoteIdentifier(table.StorageName) + " " + rootAlias

	mask := maskFor(params.Fields, params.Nested)
	if _, err := c.projectColumns(stmt, table, e.selectedColumns(table, view), rootAlias, mask, params.Nested, true, 0); err != nil {
		return "", "", err
	}

	if err := e.applyFilters(stmt, table, view, params, rootAlias); err != nil {
		return "", "", err
	}
	if err := e.applySorts(stmt, table, view, params, rootAlias); err != nil {
		return "", "", err
	}

	stmt.setLimit(limitSentinel)
	stmt.setOffset(offsetSentinel)

	rowText := rebindPage(stmt.SQL())
	countText := stmt.CountSQL()

	if cacheable {
		e.storeSQL(rowKey, rowText)
		e.storeSQL(countKey, countText)
	}
	return rowText, countText, nil
}

// applyFilters ANDs the view's persisted root filter group with the
// request's ad hoc filter group and structured filter list.
func (e *Engine) applyFilters(stmt *selectStmt, table *internal.Table, view *internal.View, params *internal.QueryParams, rootAlias string) error {
	ct := &conditionTranslator{table: table, alias: rootAlias, strict: params.Strict}
	if view != nil {
		viewFilters, err := e.meta.RootFilters(view.ID)
		if err != nil {
			return err
		}
		cond, err := ct.combine(viewFilters)
		if err != nil {
			return errors.Wrap(err, "invalid view filter")
		}
		stmt.addWhere(cond)
	}
	if params.Where != nil {
		cond, err := ct.filterSQL(params.Where)
		if err != nil {
			return errors.Wrap(err, "invalid where filter")
		}
		stmt.addWhere(cond)
	}
	if len(params.Filters) > 0 {
		cond, err := ct.combine(params.Filters)
		if err != nil {
			return errors.Wrap(err, "invalid filter list")
		}
		stmt.addWhere(cond)
	}
	return nil
}

// applySorts applies sort precedence: request sorts, then the view's
// persisted sorts, then the default ordering (auto-increment primary key,
// else the created-time system column, else unordered). Shuffle prepends a
// random ordering.
func (e *Engine) applySorts(stmt *selectStmt, table *internal.Table, view *internal.View, params *internal.QueryParams, rootAlias string) error {
	if params.Shuffle {
		stmt.addOrder("random()")
	}
	ct := &conditionTranslator{table: table, alias: rootAlias, strict: params.Strict}
	sorts := params.Sorts
	if len(sorts) == 0 && view != nil {
		viewSorts, err := e.meta.Sorts(view.ID)
		if err != nil {
			return err
		}
		sorts = viewSorts
	}
	if len(sorts) > 0 {
		orders, err := ct.sortSQL(sorts)
		if err != nil {
			return errors.Wrap(err, "invalid sort")
		}
		for _, o := range orders {
			stmt.addOrder(o)
		}
		return nil
	}
	if def := defaultSortColumn(table); def != nil {
		stmt.addOrder(rootAlias + "." + util.QuoteIdentifier(table.SystemStorageName(def)) + " ASC")
	}
	return nil
}

func defaultSortColumn(table *internal.Table) *internal.Column {
	for _, col := range table.PrimaryKeys() {
		if col.AutoIncrement {
			return col
		}
	}
	for _, col := range table.Columns {
		if col.Kind == internal.KindCreatedAt && table.SystemStorageName(col) != "" {
			return col
		}
	}
	return nil
}
