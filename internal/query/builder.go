package query

import (
	"strconv"
	"strings"
)

// selectStmt assembles one SELECT statement as text. The projector and the
// relation resolver append to it; SQL() renders the final statement. The
// compiler only ever reads, so there is no insert/update counterpart.
type selectStmt struct {
	selects []string
	from    string
	joins   []string
	wheres  []string
	orders  []string
	limit   *int64
	offset  *int64
}

func (s *selectStmt) addSelect(expr string) {
	s.selects = append(s.selects, expr)
}

func (s *selectStmt) addJoin(join string) {
	s.joins = append(s.joins, join)
}

func (s *selectStmt) addWhere(cond string) {
	if cond == "" {
		return
	}
	s.wheres = append(s.wheres, cond)
}

func (s *selectStmt) addOrder(order string) {
	s.orders = append(s.orders, order)
}

func (s *selectStmt) setLimit(n int64) {
	s.limit = &n
}

func (s *selectStmt) setOffset(n int64) {
	s.offset = &n
}

// SQL renders the statement.
func (s *selectStmt) SQL() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(s.selects) == 0 {
		sb.WriteString("1")
	} else {
		sb.WriteString(strings.Join(s.selects, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(s.from)
	for _, j := range s.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}
	if len(s.wheres) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString("(" + strings.Join(s.wheres, ") AND (") + ")")
	}
	if len(s.orders) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(s.orders, ", "))
	}
	if s.limit != nil {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.FormatInt(*s.limit, 10))
	}
	if s.offset != nil {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.FormatInt(*s.offset, 10))
	}
	return sb.String()
}

// CountSQL renders the structurally parallel count companion: same source
// and predicates, no projection, ordering or pagination.
func (s *selectStmt) CountSQL() string {
	var sb strings.Builder
	sb.WriteString("SELECT count(*) FROM ")
	sb.WriteString(s.from)
	if len(s.wheres) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString("(" + strings.Join(s.wheres, ") AND (") + ")")
	}
	return sb.String()
}
