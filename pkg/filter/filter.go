// Package filter builds the boolean filter expressions accepted by the
// Commodity Insights APIs. Most endpoints use the Platts dialect
// (`field: "value"`, `field in ("a","b")`); a handful of OData endpoints
// use `field eq 'value'` instead.
package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format for date values in filter expressions.
const DateLayout = "2006-01-02"

// Dialect controls quoting and the equality delimiter of an expression.
type Dialect struct {
	delim      string
	quote      string
	quoteDates bool
}

// Platts is the default dialect: `field: "value"`.
var Platts = Dialect{delim: ":", quote: `"`, quoteDates: true}

// OData is the dialect of the OData endpoints: `field eq 'value'`.
var OData = Dialect{delim: " eq", quote: "'", quoteDates: false}

// Value is implemented by enum types that carry their wire value.
type Value interface {
	FilterValue() string
}

// Expr renders a single filter clause in the Platts dialect.
//
// Scalars become `field: "value"` (strings, dates and enums quoted, numbers
// and booleans bare). Slices become `field in ("a","b")`. A nil value, an
// empty string or an empty slice renders as "" and is dropped by Join.
func Expr(field string, value any) string {
	return Platts.Expr(field, value)
}

// ODataExpr renders a single filter clause in the OData dialect.
func ODataExpr(field string, value any) string {
	return OData.Expr(field, value)
}

// Expr renders a single filter clause for the dialect. See Expr.
func (d Dialect) Expr(field string, value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		// false is a real filter value, not an empty one. The grammar
		// capitalizes booleans: `active: False`.
		return fmt.Sprintf("%s%s %s", field, d.delim, formatBool(v))
	case string:
		if v == "" {
			return ""
		}
		return fmt.Sprintf("%s%s %s%s%s", field, d.delim, d.quote, v, d.quote)
	case int:
		return fmt.Sprintf("%s%s %d", field, d.delim, v)
	case int64:
		return fmt.Sprintf("%s%s %d", field, d.delim, v)
	case float64:
		return fmt.Sprintf("%s%s %s", field, d.delim, formatFloat(v))
	case time.Time:
		if v.IsZero() {
			return ""
		}
		if d.quoteDates {
			return fmt.Sprintf("%s%s %s%s%s", field, d.delim, d.quote, v.Format(DateLayout), d.quote)
		}
		return fmt.Sprintf("%s%s %s", field, d.delim, v.Format(DateLayout))
	case Value:
		return d.Expr(field, v.FilterValue())
	case []string:
		return d.in(field, quoteAll(v, d.quote))
	case []int:
		items := make([]string, len(v))
		for i, n := range v {
			items[i] = strconv.Itoa(n)
		}
		return d.in(field, items)
	case []int64:
		items := make([]string, len(v))
		for i, n := range v {
			items[i] = strconv.FormatInt(n, 10)
		}
		return d.in(field, items)
	case []float64:
		items := make([]string, len(v))
		for i, n := range v {
			items[i] = formatFloat(n)
		}
		return d.in(field, items)
	case []bool:
		items := make([]string, len(v))
		for i, b := range v {
			items[i] = formatBool(b)
		}
		return d.in(field, items)
	case []time.Time:
		items := make([]string, len(v))
		for i, t := range v {
			items[i] = t.Format(DateLayout)
		}
		return d.in(field, quoteAll(items, d.quote))
	case []Value:
		items := make([]string, len(v))
		for i, e := range v {
			items[i] = e.FilterValue()
		}
		return d.in(field, quoteAll(items, d.quote))
	default:
		return fmt.Sprintf("%s%s %v", field, d.delim, v)
	}
}

// In renders `field in ("a","b")` from a string slice, or "" when empty.
func In(field string, values []string) string {
	return Platts.Expr(field, values)
}

func (d Dialect) in(field string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	return fmt.Sprintf("%s in (%s)", field, strings.Join(items, ","))
}

func quoteAll(items []string, quote string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = quote + s + quote
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// Range holds optional date bounds for a comparison expression.
// Nil bounds contribute no clause.
type Range struct {
	Gt  *time.Time
	Gte *time.Time
	Lt  *time.Time
	Lte *time.Time
}

// DateRange appends one comparison clause per set bound, quoted in the
// Platts dialect: `field > "2023-01-01"`.
func DateRange(field string, r Range, clauses []string) []string {
	if r.Gt != nil {
		clauses = append(clauses, fmt.Sprintf("%s > %q", field, r.Gt.Format(DateLayout)))
	}
	if r.Gte != nil {
		clauses = append(clauses, fmt.Sprintf("%s >= %q", field, r.Gte.Format(DateLayout)))
	}
	if r.Lt != nil {
		clauses = append(clauses, fmt.Sprintf("%s < %q", field, r.Lt.Format(DateLayout)))
	}
	if r.Lte != nil {
		clauses = append(clauses, fmt.Sprintf("%s <= %q", field, r.Lte.Format(DateLayout)))
	}
	return clauses
}

// Join combines clauses with AND, dropping empty ones.
func Join(clauses ...string) string {
	kept := clauses[:0:0]
	for _, c := range clauses {
		if c != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, " AND ")
}

// Combine merges built clauses with a caller-supplied raw expression.
// The raw expression is parenthesized so its operator precedence survives.
func Combine(built string, raw string) string {
	switch {
	case raw == "":
		return built
	case built == "":
		return raw
	default:
		return built + " AND (" + raw + ")"
	}
}

// Date is a convenience for building *time.Time range bounds in-line.
func Date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
