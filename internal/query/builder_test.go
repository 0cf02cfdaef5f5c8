package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectStmtSQL(t *testing.T) {
	s := &selectStmt{from: `"orders" o`}
	s.addSelect(`o."id" AS "Id"`)
	s.addSelect(`o."title" AS "Title"`)
	s.addJoin(`LEFT JOIN "tags" t ON t."id" = o."tag_id"`)
	s.addWhere(`o."id" > 1`)
	s.addWhere(`o."title" IS NOT NULL`)
	s.addOrder(`o."id" ASC`)
	s.setLimit(10)
	s.setOffset(5)
	assert.Equal(t,
		`SELECT o."id" AS "Id", o."title" AS "Title" FROM "orders" o LEFT JOIN "tags" t ON t."id" = o."tag_id" WHERE (o."id" > 1) AND (o."title" IS NOT NULL) ORDER BY o."id" ASC LIMIT 10 OFFSET 5`,
		s.SQL())
}

func TestSelectStmtEmptyProjection(t *testing.T) {
	s := &selectStmt{from: `"orders" o`}
	assert.Equal(t, `SELECT 1 FROM "orders" o`, s.SQL())
}

func TestSelectStmtIgnoresEmptyWhere(t *testing.T) {
	s := &selectStmt{from: `"orders" o`}
	s.addWhere("")
	assert.Equal(t, `SELECT 1 FROM "orders" o`, s.SQL())
}

func TestCountSQLParallelShape(t *testing.T) {
	s := &selectStmt{from: `"orders" o`}
	s.addSelect(`o."id" AS "Id"`)
	s.addWhere(`o."id" > 1`)
	s.addOrder(`o."id" ASC`)
	s.setLimit(10)
	assert.Equal(t, `SELECT count(*) FROM "orders" o WHERE (o."id" > 1)`, s.CountSQL())
}
