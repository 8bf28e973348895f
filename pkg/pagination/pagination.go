// Package pagination decodes the paging metadata of API response envelopes
// and drives the sequential page loop.
//
// The API reports paging three ways: a totalPages field in the metadata
// object, a count/pageSize pair to divide, or an @odata.count on the OData
// endpoints where the page offset is carried in a $skip parameter. Page
// requests are issued one at a time in page order; the SDK never fans out
// page fetches in parallel.
package pagination

import (
	"net/url"
	"strconv"
)

// Metadata mirrors the `metadata` object of the response envelope.
// Reference-data endpoints use snake_case for the page count.
type Metadata struct {
	Count         int `json:"count"`
	PageSize      int `json:"pageSize"`
	TotalPages    int `json:"totalPages"`
	AltTotalPages int `json:"total_pages"`
	Page          int `json:"page"`
}

// Pages returns the reported page count regardless of the field spelling.
func (m Metadata) Pages() int {
	if m.TotalPages > 0 {
		return m.TotalPages
	}
	return m.AltTotalPages
}

// Envelope is the JSON body shared by the data endpoints. OData endpoints
// carry rows under `value` with an `@odata.count` instead of metadata.
type Envelope struct {
	Results    []map[string]any `json:"results"`
	Value      []map[string]any `json:"value"`
	Metadata   Metadata         `json:"metadata"`
	ODataCount int              `json:"@odata.count"`
}

// Rows returns the result rows wherever the envelope carries them.
func (e *Envelope) Rows() []map[string]any {
	if e.Results != nil {
		return e.Results
	}
	return e.Value
}

// Paginator describes whether and how to fetch further pages.
type Paginator struct {
	// HasMore is true when pages beyond the first exist.
	HasMore bool

	// Key is the query parameter advancing the page ("page" or "$skip").
	Key string

	// TotalPages bounds the sequential page loop.
	TotalPages int

	// pageSize is needed to compute $skip offsets on OData endpoints.
	pageSize int
	odata    bool
}

// Apply sets the paging parameter for the given 1-based page number.
func (p Paginator) Apply(params url.Values, page int) {
	if p.odata {
		params.Set(p.Key, strconv.Itoa((page-1)*p.pageSize))
		return
	}
	params.Set(p.Key, strconv.Itoa(page))
}

// Func derives a Paginator from the first page's envelope and the request
// parameters it was fetched with.
type Func func(env *Envelope, params url.Values) Paginator

// TotalPages reads metadata.totalPages (or metadata.total_pages). This is
// the strategy used by almost every endpoint.
func TotalPages(env *Envelope, params url.Values) Paginator {
	tp := env.Metadata.Pages()
	if tp <= 1 {
		return Paginator{HasMore: false, Key: "page", TotalPages: 1}
	}
	return Paginator{HasMore: true, Key: "page", TotalPages: tp}
}

// CountPageSize divides metadata.count by metadata.pageSize, rounding up.
// Used by endpoints that report a row count instead of a page count.
func CountPageSize(env *Envelope, params url.Values) Paginator {
	if env.Metadata.PageSize <= 0 {
		return Paginator{HasMore: false, Key: "page", TotalPages: 0}
	}
	tp := ceilDiv(env.Metadata.Count, env.Metadata.PageSize)
	if tp <= 1 {
		return Paginator{HasMore: false, Key: "page", TotalPages: tp}
	}
	return Paginator{HasMore: true, Key: "page", TotalPages: tp}
}

// ODataCount divides @odata.count by the pageSize request parameter and
// advances with a $skip row offset.
func ODataCount(env *Envelope, params url.Values) Paginator {
	pageSize, err := strconv.Atoi(params.Get("pageSize"))
	if err != nil || pageSize <= 0 {
		return Paginator{HasMore: false, Key: "$skip", TotalPages: 0}
	}
	tp := ceilDiv(env.ODataCount, pageSize)
	if tp <= 1 {
		return Paginator{HasMore: false, Key: "$skip", TotalPages: tp}
	}
	return Paginator{HasMore: true, Key: "$skip", TotalPages: tp, pageSize: pageSize, odata: true}
}

// None disables pagination for endpoints without paging metadata.
func None(env *Envelope, params url.Values) Paginator {
	return Paginator{HasMore: false, Key: "page", TotalPages: 1}
}

func ceilDiv(count, pageSize int) int {
	tp := count / pageSize
	if count%pageSize > 0 {
		tp++
	}
	return tp
}
