package util

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

var badCharacters = regexp.MustCompile(`\x00`)

// QuoteIdentifier quotes an identifier for use in generated SQL. Generated
// statements are cached as text, so quoting must be deterministic.
func QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

// QuoteIdentifiers quotes a slice of identifiers.
func QuoteIdentifiers(vals []string) []string {
	res := make([]string, len(vals))
	for i, val := range vals {
		res[i] = QuoteIdentifier(val)
	}
	return res
}

func quoteString(str string) string {
	if len(str) != 0 && badCharacters.MatchString(str) {
		str = badCharacters.ReplaceAllString(str, "")
	}
	return pq.QuoteLiteral(str)
}

// QuoteValue quotes an arbitrary operand value as a SQL literal.
func QuoteValue(arg any) (str string) {
	switch arg := arg.(type) {
	case nil:
		str = "null"
	case int:
		str = strconv.FormatInt(int64(arg), 10)
	case int8:
		str = strconv.FormatInt(int64(arg), 10)
	case int16:
		str = strconv.FormatInt(int64(arg), 10)
	case int32:
		str = strconv.FormatInt(int64(arg), 10)
	case int64:
		str = strconv.FormatInt(arg, 10)
	case float32:
		str = strconv.FormatFloat(float64(arg), 'f', -1, 32)
	case float64:
		str = strconv.FormatFloat(arg, 'f', -1, 64)
	case bool:
		str = strconv.FormatBool(arg)
	case string:
		str = quoteString(arg)
	case time.Time:
		str = arg.Truncate(time.Microsecond).Format("'2006-01-02 15:04:05.999999999Z07:00:00'")
	case []string:
		var ns []string
		for _, s := range arg {
			ns = append(ns, quoteString(s))
		}
		str = "(" + strings.Join(ns, ",") + ")"
	case []any:
		var ns []string
		for _, v := range arg {
			ns = append(ns, QuoteValue(v))
		}
		str = "(" + strings.Join(ns, ",") + ")"
	default:
		value := reflect.ValueOf(arg)
		if value.Kind() == reflect.Ptr {
			if value.IsNil() {
				str = "null"
			} else {
				str = QuoteValue(value.Elem().Interface())
			}
		} else {
			str = quoteString(JSONStringify(arg))
		}
	}
	return str
}
