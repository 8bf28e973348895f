package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type contractType string

func (c contractType) FilterValue() string { return string(c) }

func TestExpr_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
		want  string
	}{
		{"string", "curve_codes", "ABC", `curve_codes: "ABC"`},
		{"empty string", "curve_codes", "", ""},
		{"nil", "curve_codes", nil, ""},
		{"int", "curve_codes", 123, "curve_codes: 123"},
		{"float", "price", 12.5, "price: 12.5"},
		{"whole float", "price", 123.0, "price: 123"},
		{"bool true", "active", true, "active: True"},
		{"bool false", "active", false, "active: False"},
		{"date", "assessDate", time.Date(2022, 12, 1, 0, 0, 0, 0, time.UTC), `assessDate: "2022-12-01"`},
		{"zero date", "assessDate", time.Time{}, ""},
		{"enum", "contractType", contractType("future"), `contractType: "future"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expr(tt.field, tt.value))
		})
	}
}

func TestExpr_Lists(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
		want  string
	}{
		{"strings", "curve_codes", []string{"ABC", "XYZ"}, `curve_codes in ("ABC","XYZ")`},
		{"single string keeps list form", "curve_codes", []string{"ABC"}, `curve_codes in ("ABC")`},
		{"empty slice", "curve_codes", []string{}, ""},
		{"nil slice", "curve_codes", []string(nil), ""},
		{"ints", "curve_codes", []int{1, 2, 3}, "curve_codes in (1,2,3)"},
		{"floats", "prices", []float64{1.5, 2}, "prices in (1.5,2)"},
		{"bools", "flags", []bool{true, false}, "flags in (True,False)"},
		{
			"dates",
			"date",
			[]time.Time{
				time.Date(2022, 12, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC),
			},
			`date in ("2022-12-01","2021-12-01")`,
		},
		{
			"enums",
			"contractType",
			[]Value{contractType("future"), contractType("swap")},
			`contractType in ("future","swap")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expr(tt.field, tt.value))
		})
	}
}

func TestODataExpr(t *testing.T) {
	d := time.Date(2022, 12, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, `name eq 'ABC'`, ODataExpr("name", "ABC"))
	assert.Equal(t, "date eq 2022-12-01", ODataExpr("date", d))
	assert.Equal(t,
		"date in ('2022-12-01','2021-12-01')",
		ODataExpr("date", []time.Time{d, time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC)}),
	)
}

func TestDateRange(t *testing.T) {
	clauses := DateRange("assessDate", Range{
		Gte: Date(2022, 1, 1),
		Lt:  Date(2023, 1, 1),
	}, nil)

	assert.Equal(t, []string{
		`assessDate >= "2022-01-01"`,
		`assessDate < "2023-01-01"`,
	}, clauses)

	assert.Empty(t, DateRange("assessDate", Range{}, nil))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, `a: "1" AND b: "2"`, Join(`a: "1"`, "", `b: "2"`))
	assert.Equal(t, "", Join("", ""))
	assert.Equal(t, `a: "1"`, Join(`a: "1"`))
}

func TestCombine(t *testing.T) {
	assert.Equal(t, `a: "1" AND (b > 2 OR c < 3)`, Combine(`a: "1"`, "b > 2 OR c < 3"))
	assert.Equal(t, "b > 2", Combine("", "b > 2"))
	assert.Equal(t, `a: "1"`, Combine(`a: "1"`, ""))
}
