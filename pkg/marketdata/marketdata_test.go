package marketdata

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spgci/spgci-go/internal/testutil"
	"github.com/spgci/spgci-go/pkg/auth"
	"github.com/spgci/spgci-go/pkg/client"
	"github.com/spgci/spgci-go/pkg/filter"
)

func newTestService(t *testing.T, mock *testutil.MockAPI) *Service {
	t.Helper()

	tokens, err := auth.NewTokenSource(auth.Config{
		BaseURL:  mock.URL(),
		Username: "user@example.com",
		Password: "secret",
	})
	require.NoError(t, err)

	c, err := client.New(client.Config{
		BaseURL: mock.URL(),
		Tokens:  tokens,
	})
	require.NoError(t, err)

	return New(c)
}

// assessmentEnvelope serves the nested per-symbol result shape of the
// assessment endpoints.
func assessmentEnvelope(results []map[string]any) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		envelope := map[string]any{
			"results": results,
			"metadata": map[string]any{
				"count":      len(results),
				"page":       1,
				"pageSize":   10000,
				"totalPages": 1,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(envelope)
	}
}

func TestAssessmentsBySymbolCurrent(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetHandler("/market-data/v3/value/current/symbol", assessmentEnvelope([]map[string]any{
		{
			"symbol": "PCAAS00",
			"data": []any{
				map[string]any{
					"bate":       "c",
					"value":      85.25,
					"assessDate": "2024-01-15",
					"change": map[string]any{
						"deltaPrice":   0.5,
						"deltaPercent": 0.59,
					},
				},
				map[string]any{
					"bate":       "h",
					"value":      86.0,
					"assessDate": "2024-01-15",
				},
			},
		},
	}))

	svc := newTestService(t, mock)

	f, err := svc.AssessmentsBySymbolCurrent(context.Background(), AssessmentsBySymbolQuery{
		Symbol: []string{"PCAAS00"},
		Bate:   []string{"c", "h"},
	})
	require.NoError(t, err)

	require.Equal(t, 2, f.Len())

	row := f.Row(0)
	assert.Equal(t, "PCAAS00", row["symbol"])
	assert.Equal(t, "c", row["bate"])
	// change.* columns are merged into the row with the prefix stripped.
	assert.Equal(t, 0.5, row["deltaPrice"])
	assert.NotContains(t, row, "change.deltaPrice")
	// assessDate is a typed date.
	if assert.IsType(t, time.Time{}, row["assessDate"]) {
		assert.Equal(t, "2024-01-15", row["assessDate"].(time.Time).Format("2006-01-02"))
	}

	// The symbol column leads.
	assert.Equal(t, "symbol", f.Columns()[0])

	// The built filter and delta fields are sent.
	assert.Equal(t, `symbol in ("PCAAS00") AND bate in ("c","h")`, mock.LastQuery.Get("filter"))
	assert.Equal(t, "deltaPrice,deltaPercent,pValue,pDate", mock.LastQuery.Get("field"))
	assert.Equal(t, "1", mock.LastQuery.Get("page"))
	assert.Equal(t, "10000", mock.LastQuery.Get("pageSize"))
}

func TestAssessmentsBySymbolHistoricalDateBounds(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetHandler("/market-data/v3/value/history/symbol", assessmentEnvelope(nil))

	svc := newTestService(t, mock)

	_, err := svc.AssessmentsBySymbolHistorical(context.Background(), AssessmentsBySymbolQuery{
		Symbol: []string{"PCAAS00"},
		AssessDate: filter.Range{
			Gte: filter.Date(2023, time.January, 1),
			Lte: filter.Date(2023, time.February, 1),
		},
	})
	require.NoError(t, err)

	want := `symbol in ("PCAAS00") AND assessDate >= "2023-01-01" AND assessDate <= "2023-02-01"`
	assert.Equal(t, want, mock.LastQuery.Get("filter"))
}

func TestAssessmentsByMDCCurrent(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetHandler("/market-data/v3/value/current/mdc", assessmentEnvelope([]map[string]any{
		{
			"symbol": "PCAAT00",
			"data": []any{
				map[string]any{"bate": "c", "value": 71.1, "assessDate": "2024-01-15"},
			},
		},
	}))

	svc := newTestService(t, mock)

	f, err := svc.AssessmentsByMDCCurrent(context.Background(), AssessmentsByMDCQuery{
		MDC:  "ET",
		Bate: []string{"c", "u"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, f.Len())
	assert.Equal(t, `MDC: "ET" AND bate in ("c","u")`, mock.LastQuery.Get("filter"))
	assert.Equal(t, "deltaPrice,deltaPercent,pValue,pDate", mock.LastQuery.Get("field"))
}

func TestAssessmentsByMDCHistoricalCombinesRawFilter(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetHandler("/market-data/v3/value/history/mdc", assessmentEnvelope(nil))

	svc := newTestService(t, mock)

	_, err := svc.AssessmentsByMDCHistorical(context.Background(), AssessmentsByMDCQuery{
		MDC:       "ET",
		FilterExp: `value > 50 OR bate: "c"`,
	})
	require.NoError(t, err)

	assert.Equal(t, `MDC: "ET" AND (value > 50 OR bate: "c")`, mock.LastQuery.Get("filter"))
	// History endpoints do not request the delta fields.
	assert.Empty(t, mock.LastQuery.Get("field"))
}

func TestSymbols(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetHandler("/market-data/reference-data/v3/search", func(w http.ResponseWriter, r *http.Request) {
		envelope := map[string]any{
			"results": []map[string]any{
				{
					"active":      true,
					"symbol":      "PCAAS00",
					"description": "Dated Brent",
					"commodity":   "Crude oil",
				},
			},
			"metadata": map[string]any{
				"count":       1,
				"page":        1,
				"pageSize":    1000,
				"total_pages": 1,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(envelope)
	})

	svc := newTestService(t, mock)

	f, err := svc.Symbols(context.Background(), SymbolsQuery{
		Q:            "Brent",
		Currency:     []string{"USD", "EUR"},
		ContractType: []ContractType{ContractForward, ContractSpot},
	})
	require.NoError(t, err)

	require.Equal(t, 1, f.Len())
	// symbol and description lead the columns.
	require.GreaterOrEqual(t, len(f.Columns()), 2)
	assert.Equal(t, "symbol", f.Columns()[0])
	assert.Equal(t, "description", f.Columns()[1])

	assert.Equal(t, "Brent", mock.LastQuery.Get("q"))
	want := `contract_type in ("forward","spot") AND currency in ("USD","EUR")`
	assert.Equal(t, want, mock.LastQuery.Get("filter"))
}

func TestMDCs(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetHandler("/market-data/reference-data/v3/mdc", func(w http.ResponseWriter, r *http.Request) {
		envelope := map[string]any{
			"results": []map[string]any{
				{"mdc": "ET", "description": "European Crude"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(envelope)
	})

	svc := newTestService(t, mock)

	f, err := svc.MDCs(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, f.Len())
	// false still travels as an explicit parameter.
	assert.Equal(t, "false", mock.LastQuery.Get("subscribed_only"))
}

func TestEnumFilterValues(t *testing.T) {
	assert.Equal(t, "official selling price", ContractOfficialSellingPrice.FilterValue())
	assert.Equal(t, "Daily (7 day)", FrequencyDaily.FilterValue())
}
