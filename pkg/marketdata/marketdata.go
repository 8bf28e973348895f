// Package marketdata provides access to Platts symbols and assessments:
// current and historical assessments by symbol or MDC (Market Data
// Category), and symbol reference-data search.
package marketdata

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/spgci/spgci-go/pkg/client"
	"github.com/spgci/spgci-go/pkg/filter"
	"github.com/spgci/spgci-go/pkg/frame"
	"github.com/spgci/spgci-go/pkg/pagination"
)

const (
	basePath = "market-data/v3/value"
	refPath  = "market-data/reference-data/v3/search"
	mdcPath  = "market-data/reference-data/v3/mdc"

	// mddFields asks the current-assessment endpoints to include the
	// market-data-delta columns.
	mddFields = "deltaPrice,deltaPercent,pValue,pDate"
)

// defaultPageSize applies to the assessment endpoints.
const defaultPageSize = 10000

// refPageSize applies to the reference-data search endpoint.
const refPageSize = 1000

// assessmentDateColumns are the date-typed columns on assessment rows.
var assessmentDateColumns = []string{"assessDate", "modDate", "pDate"}

// Service exposes the market data endpoints on top of a configured client.
type Service struct {
	client *client.Client
}

// New creates a market data service.
func New(c *client.Client) *Service {
	return &Service{client: c}
}

// Paging controls page selection and auto-pagination, shared by all queries.
type Paging struct {
	// Page requests a particular page (default 1).
	Page int

	// PageSize overrides the endpoint's default page size.
	PageSize int

	// Paginate fetches all pages sequentially and concatenates them.
	Paginate bool
}

func (p Paging) apply(params url.Values, defaultSize int) {
	page := p.Page
	if page <= 0 {
		page = 1
	}
	size := p.PageSize
	if size <= 0 {
		size = defaultSize
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(size))
}

// AssessmentsBySymbolQuery filters assessments by symbol codes and bates.
type AssessmentsBySymbolQuery struct {
	// Symbol filters by symbol code(s). See Symbols to search for codes.
	Symbol []string

	// Bate filters by bate code(s), e.g. "c" for close.
	Bate []string

	// FilterExp is a handcrafted filter expression ANDed with the built
	// clauses.
	FilterExp string

	// AssessDate filters historical queries by assessment date bounds.
	// Ignored by the current-assessment endpoint.
	AssessDate filter.Range

	// ModifiedDate filters historical queries by modification date bounds.
	// Ignored by the current-assessment endpoint.
	ModifiedDate filter.Range

	Paging
}

func (q AssessmentsBySymbolQuery) filterExp(withDates bool) string {
	clauses := []string{
		filter.Expr("symbol", q.Symbol),
		filter.Expr("bate", q.Bate),
	}
	if withDates {
		clauses = filter.DateRange("assessDate", q.AssessDate, clauses)
		clauses = filter.DateRange("modDate", q.ModifiedDate, clauses)
	}
	return filter.Combine(filter.Join(clauses...), q.FilterExp)
}

// AssessmentsBySymbolCurrent fetches the latest assessment per symbol and
// bate, including the market-data-delta columns.
func (s *Service) AssessmentsBySymbolCurrent(ctx context.Context, q AssessmentsBySymbolQuery) (*frame.Frame, error) {
	params := url.Values{}
	params.Set("filter", q.filterExp(false))
	params.Set("field", mddFields)
	q.Paging.apply(params, defaultPageSize)

	return s.client.GetData(ctx, client.Request{
		Path:     basePath + "/current/symbol",
		Params:   params,
		Paginate: q.Paginate,
		PageFn:   pagination.TotalPages,
		FrameFn:  assessmentsFrame,
	})
}

// AssessmentsBySymbolHistorical fetches historical assessments per symbol
// and bate, optionally bounded by assessment and modification dates.
func (s *Service) AssessmentsBySymbolHistorical(ctx context.Context, q AssessmentsBySymbolQuery) (*frame.Frame, error) {
	params := url.Values{}
	params.Set("filter", q.filterExp(true))
	q.Paging.apply(params, defaultPageSize)

	return s.client.GetData(ctx, client.Request{
		Path:     basePath + "/history/symbol",
		Params:   params,
		Paginate: q.Paginate,
		PageFn:   pagination.TotalPages,
		FrameFn:  assessmentsFrame,
	})
}

// AssessmentsByMDCQuery filters assessments by Market Data Category.
type AssessmentsByMDCQuery struct {
	// MDC is the Market Data Category (REQUIRED). See MDCs for the list.
	MDC string

	// Bate filters by bate code(s).
	Bate []string

	// FilterExp is a handcrafted filter expression ANDed with the built
	// clauses.
	FilterExp string

	// AssessDate filters historical queries by assessment date bounds.
	// Ignored by the current-assessment endpoint.
	AssessDate filter.Range

	// ModifiedDate filters historical queries by modification date bounds.
	// Ignored by the current-assessment endpoint.
	ModifiedDate filter.Range

	Paging
}

func (q AssessmentsByMDCQuery) filterExp(withDates bool) string {
	clauses := []string{
		filter.Expr("MDC", q.MDC),
		filter.Expr("bate", q.Bate),
	}
	if withDates {
		clauses = filter.DateRange("assessDate", q.AssessDate, clauses)
		clauses = filter.DateRange("modDate", q.ModifiedDate, clauses)
	}
	return filter.Combine(filter.Join(clauses...), q.FilterExp)
}

// AssessmentsByMDCCurrent fetches the latest assessments for every symbol
// in a Market Data Category.
func (s *Service) AssessmentsByMDCCurrent(ctx context.Context, q AssessmentsByMDCQuery) (*frame.Frame, error) {
	params := url.Values{}
	params.Set("filter", q.filterExp(false))
	params.Set("field", mddFields)
	q.Paging.apply(params, defaultPageSize)

	return s.client.GetData(ctx, client.Request{
		Path:     basePath + "/current/mdc",
		Params:   params,
		Paginate: q.Paginate,
		PageFn:   pagination.TotalPages,
		FrameFn:  assessmentsFrame,
	})
}

// AssessmentsByMDCHistorical fetches historical assessments for every
// symbol in a Market Data Category.
func (s *Service) AssessmentsByMDCHistorical(ctx context.Context, q AssessmentsByMDCQuery) (*frame.Frame, error) {
	params := url.Values{}
	params.Set("filter", q.filterExp(true))
	q.Paging.apply(params, defaultPageSize)

	return s.client.GetData(ctx, client.Request{
		Path:     basePath + "/history/mdc",
		Params:   params,
		Paginate: q.Paginate,
		PageFn:   pagination.TotalPages,
		FrameFn:  assessmentsFrame,
	})
}

// SymbolsQuery filters the symbol reference-data search.
type SymbolsQuery struct {
	// Q is a free-text search across fields.
	Q string

	Commodity           []string
	ContractType        []ContractType
	Currency            []string
	UOM                 []string
	Symbol              []string
	DeliveryRegionBasis []string
	CurveCode           []string
	MDC                 []string
	AssessmentFrequency []AssessmentFrequency

	// FilterExp is a handcrafted filter expression ANDed with the built
	// clauses.
	FilterExp string

	Paging
}

// Symbols searches symbol reference data. The symbol and description
// columns lead the result columns.
func (s *Service) Symbols(ctx context.Context, q SymbolsQuery) (*frame.Frame, error) {
	built := filter.Join(
		filter.Expr("commodity", q.Commodity),
		filter.Expr("contract_type", asStrings(q.ContractType)),
		filter.Expr("currency", q.Currency),
		filter.Expr("uom", q.UOM),
		filter.Expr("delivery_region_basis", q.DeliveryRegionBasis),
		filter.Expr("curve_code", q.CurveCode),
		filter.Expr("symbol", q.Symbol),
		filter.Expr("mdc", q.MDC),
		filter.Expr("assessment_frequency", asStrings(q.AssessmentFrequency)),
	)

	params := url.Values{}
	if q.Q != "" {
		params.Set("q", q.Q)
	}
	params.Set("filter", filter.Combine(built, q.FilterExp))
	q.Paging.apply(params, refPageSize)

	return s.client.GetData(ctx, client.Request{
		Path:     refPath,
		Params:   params,
		Paginate: q.Paginate,
		PageFn:   pagination.TotalPages,
		FrameFn: func(env *pagination.Envelope) (*frame.Frame, error) {
			return frame.FromResults(env.Rows(),
				frame.WithLeadColumns("symbol", "description")), nil
		},
	})
}

// MDCs fetches the list of Market Data Categories. With subscribedOnly the
// list is limited to categories the account has access to.
func (s *Service) MDCs(ctx context.Context, subscribedOnly bool) (*frame.Frame, error) {
	params := url.Values{}
	// false is a real value here, so the parameter is always sent.
	params.Set("subscribed_only", strconv.FormatBool(subscribedOnly))

	return s.client.GetData(ctx, client.Request{
		Path:   mdcPath,
		Params: params,
		PageFn: pagination.None,
	})
}

// assessmentsFrame flattens the nested per-symbol envelope into one row per
// assessment. Each result carries a symbol and a data array; change-delta
// objects are merged into the row with their prefix stripped.
func assessmentsFrame(env *pagination.Envelope) (*frame.Frame, error) {
	var rows []map[string]any
	for _, result := range env.Rows() {
		symbol := result["symbol"]
		data, ok := result["data"].([]any)
		if !ok {
			continue
		}
		for _, item := range data {
			rec, ok := item.(map[string]any)
			if !ok {
				continue
			}
			row := make(map[string]any, len(rec)+1)
			for k, v := range frame.Flatten(rec) {
				row[stripChangePrefix(k)] = v
			}
			row["symbol"] = symbol
			rows = append(rows, row)
		}
	}
	return frame.FromResults(rows,
		frame.WithDateColumns(assessmentDateColumns...),
		frame.WithLeadColumns("symbol")), nil
}

func stripChangePrefix(key string) string {
	return strings.ReplaceAll(key, "change.", "")
}

func asStrings[T ~string](values []T) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

var (
	_ filter.Value = ContractType("")
	_ filter.Value = AssessmentFrequency("")
)
