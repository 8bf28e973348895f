package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spgci/spgci-go/pkg/frame"
	"github.com/spgci/spgci-go/pkg/pagination"
)

var pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "spgci_pages_fetched_total",
	Help: "Total pages fetched, including auto-paginated ones",
})

// autoPaginateWarning is the page count above which auto-pagination logs a
// warning before issuing the page loop.
const autoPaginateWarning = 10

// FrameFunc converts a decoded envelope into a frame. Dataset services
// supply one when rows need flattening or custom date columns.
type FrameFunc func(env *pagination.Envelope) (*frame.Frame, error)

// Request describes a tabular data fetch.
type Request struct {
	// Path is the API path relative to the base URL.
	Path string

	// Params are the query parameters, including filter/page/pageSize.
	Params url.Values

	// Paginate fetches all pages sequentially and concatenates them.
	// When false and more pages exist, only page 1 is returned and a
	// warning is logged.
	Paginate bool

	// PageFn derives the paginator from the first page
	// (default pagination.TotalPages).
	PageFn pagination.Func

	// FrameFn converts an envelope to a frame (default frame.FromResults
	// with the default date columns).
	FrameFn FrameFunc
}

// GetData fetches a path and converts the response envelope into a frame,
// following page-count metadata when Paginate is set.
func (c *Client) GetData(ctx context.Context, req Request) (*frame.Frame, error) {
	params := cloneValues(req.Params)

	pageFn := req.PageFn
	if pageFn == nil {
		pageFn = pagination.TotalPages
	}
	frameFn := req.FrameFn
	if frameFn == nil {
		frameFn = func(env *pagination.Envelope) (*frame.Frame, error) {
			return frame.FromResults(env.Rows()), nil
		}
	}

	env, err := c.getEnvelope(ctx, req.Path, params)
	if err != nil {
		return nil, err
	}
	pagesFetchedTotal.Inc()

	f, err := frameFn(env)
	if err != nil {
		return nil, fmt.Errorf("convert results: %w", err)
	}

	pg := pageFn(env, params)
	if !pg.HasMore {
		return f, nil
	}

	if !req.Paginate {
		c.logger.Warn().
			Str("endpoint", req.Path).
			Int("total_pages", pg.TotalPages).
			Msg("Fetched page 1 of more; set Paginate to fetch all pages")
		return f, nil
	}

	if pg.TotalPages > autoPaginateWarning {
		c.logger.Warn().
			Str("endpoint", req.Path).
			Int("total_pages", pg.TotalPages).
			Msg("Auto-pagination will fetch many pages")
	}

	for page := 2; page <= pg.TotalPages; page++ {
		pg.Apply(params, page)

		env, err := c.getEnvelope(ctx, req.Path, params)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d of %d: %w", page, pg.TotalPages, err)
		}
		pagesFetchedTotal.Inc()

		next, err := frameFn(env)
		if err != nil {
			return nil, fmt.Errorf("convert page %d: %w", page, err)
		}
		f.Concat(next)

		c.logger.Debug().
			Str("endpoint", req.Path).
			Int("page", page).
			Int("total_pages", pg.TotalPages).
			Msg("Fetched page")
	}

	return f, nil
}

// getEnvelope performs a GET and decodes the JSON envelope.
func (c *Client) getEnvelope(ctx context.Context, path string, params url.Values) (*pagination.Envelope, error) {
	resp, err := c.Get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var env pagination.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	return &env, nil
}

func cloneValues(params url.Values) url.Values {
	out := url.Values{}
	for k, vs := range params {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
