// Package frame turns the JSON `results` array of an API response into a
// tabular structure with stable column order and typed date columns.
package frame

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// DefaultDateColumns are the response fields coerced to time.Time unless a
// dataset overrides the set. The names are shared across most endpoints.
var DefaultDateColumns = []string{
	"assessDate",
	"modDate",
	"modifiedDate",
	"reportForDate",
	"date",
	"validFrom",
	"validTo",
	"startDate",
	"endDate",
	"createdDate",
	"createDate",
	"vintageDate",
	"historicalEdgeDate",
	"month",
}

// dateLayouts are tried in order when coercing a date column.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Frame is an ordered collection of rows decoded from API results.
// Columns keep first-appearance order across all rows.
type Frame struct {
	columns []string
	seen    map[string]int
	rows    []map[string]any
}

// Option configures result conversion.
type Option func(*options)

type options struct {
	dateColumns []string
	leadColumns []string
}

// WithDateColumns replaces the default set of date-coerced columns.
func WithDateColumns(cols ...string) Option {
	return func(o *options) { o.dateColumns = cols }
}

// WithLeadColumns moves the named columns to the front of the column order
// when present, keeping their given order.
func WithLeadColumns(cols ...string) Option {
	return func(o *options) { o.leadColumns = cols }
}

// New returns an empty frame.
func New() *Frame {
	return &Frame{seen: make(map[string]int)}
}

// FromResults builds a frame from decoded result rows. Values in configured
// date columns are parsed to time.Time; unparseable values are left as-is.
func FromResults(results []map[string]any, opts ...Option) *Frame {
	o := options{dateColumns: DefaultDateColumns}
	for _, opt := range opts {
		opt(&o)
	}

	f := New()
	dateCols := make(map[string]bool, len(o.dateColumns))
	for _, c := range o.dateColumns {
		dateCols[c] = true
	}

	for _, row := range results {
		out := make(map[string]any, len(row))
		for _, key := range sortedKeys(row) {
			v := row[key]
			if dateCols[key] {
				if t, ok := parseDate(v); ok {
					v = t
				}
			}
			out[key] = v
			f.addColumn(key)
		}
		f.rows = append(f.rows, out)
	}

	if len(o.leadColumns) > 0 {
		f.lead(o.leadColumns)
	}
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.rows)
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return f.columns
}

// Rows returns the underlying row maps.
func (f *Frame) Rows() []map[string]any {
	return f.rows
}

// Row returns the i-th row.
func (f *Frame) Row(i int) map[string]any {
	return f.rows[i]
}

// Concat appends the rows of other, merging any new columns at the end.
// Used by pagination to stitch page results into one table.
func (f *Frame) Concat(other *Frame) {
	if other == nil {
		return
	}
	for _, col := range other.columns {
		f.addColumn(col)
	}
	f.rows = append(f.rows, other.rows...)
}

func (f *Frame) addColumn(name string) {
	if _, ok := f.seen[name]; ok {
		return
	}
	f.seen[name] = len(f.columns)
	f.columns = append(f.columns, name)
}

// lead moves the named columns to the front, keeping relative order of the rest.
func (f *Frame) lead(cols []string) {
	front := make([]string, 0, len(cols))
	rest := make([]string, 0, len(f.columns))

	want := make(map[string]bool, len(cols))
	for _, c := range cols {
		if _, ok := f.seen[c]; ok {
			front = append(front, c)
			want[c] = true
		}
	}
	for _, c := range f.columns {
		if !want[c] {
			rest = append(rest, c)
		}
	}

	f.columns = append(front, rest...)
	for i, c := range f.columns {
		f.seen[c] = i
	}
}

// WriteCSV writes the frame as CSV with a header row.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(f.columns))
	for _, row := range f.rows {
		for i, col := range f.columns {
			record[i] = formatValue(row[col])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the rows as a JSON array.
func (f *Frame) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	if f.rows == nil {
		return enc.Encode([]map[string]any{})
	}
	return enc.Encode(f.rows)
}

// Flatten merges nested objects into the parent row with dotted keys, the
// way nested `change` objects arrive on assessment rows.
func Flatten(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	flattenInto(out, "", row)
	return out
}

func flattenInto(out map[string]any, prefix string, row map[string]any) {
	for k, v := range row {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(out, key, nested)
			continue
		}
		out[key] = v
	}
}

func parseDate(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format(time.RFC3339)
	case string:
		return t
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", t), "0"), ".")
	default:
		return fmt.Sprintf("%v", t)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
