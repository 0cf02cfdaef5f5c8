package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gridbase/gridbase/internal"
	"github.com/gridbase/gridbase/internal/util"
)

// operation scopes a cache entry to one entry point.
type operation string

const (
	opRead  operation = "read"
	opList  operation = "list"
	opCount operation = "count"
)

// Sentinel values planted during compilation where the truly variable
// values go. The finished text replaces them with parameter markers so a
// cached statement can be rebound without re-planning. The pagination
// sentinels are valid (if absurd) literals so the builder output stays
// well-formed SQL throughout.
const (
	pkSentinelFmt  = "__gb_pk_%d__"
	limitSentinel  = int64(9007199254740991)
	offsetSentinel = int64(9007199254740990)
)

// cacheKey derives the structured cache key for a (table, view, operation)
// scope. Metadata versions participate so a structural change rolls the key
// instead of requiring eviction.
func cacheKey(table *internal.Table, view *internal.View, op operation) string {
	var viewID, viewVer string
	if view != nil {
		viewID = view.ID
		viewVer = view.MetaVersion
	}
	return "qc:" + util.Hash(table.ID, table.MetaVersion, viewID, viewVer, string(op))
}

// pkSentinel returns the quoted literal planted for the i-th primary key
// value.
func pkSentinel(i int) string {
	return "'" + fmt.Sprintf(pkSentinelFmt, i) + "'"
}

// rebind replaces each sentinel occurrence with its positional parameter
// marker, in order.
func rebind(sqlText string, sentinels ...string) string {
	for i, s := range sentinels {
		sqlText = strings.ReplaceAll(sqlText, s, "$"+strconv.Itoa(i+1))
	}
	return sqlText
}

// rebindPage replaces the pagination sentinels with $1 (limit) and $2
// (offset).
func rebindPage(sqlText string) string {
	return rebind(sqlText,
		strconv.FormatInt(limitSentinel, 10),
		strconv.FormatInt(offsetSentinel, 10))
}

// cachedSQL consults the cache for a compiled statement. A miss returns
// found=false; the caller compiles and stores.
func (e *Engine) cachedSQL(key string) (bool, string) {
	if e.cache == nil {
		return false, ""
	}
	found, text, err := e.cache.Get(key)
	if err != nil {
		e.logger.Error("query cache get failed: %s", err)
		return false, ""
	}
	if found {
		internal.CacheHits.Inc()
	} else {
		internal.CacheMisses.Inc()
	}
	return found, text
}

// storeSQL writes a compiled statement back to the cache. Concurrent
// compilations for the same key may race and overwrite each other, which is
// harmless: the value is deterministic text derived from immutable metadata.
func (e *Engine) storeSQL(key, text string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(key, text); err != nil {
		e.logger.Error("query cache set failed: %s", err)
	}
}
