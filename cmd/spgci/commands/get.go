package commands

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/spgci/spgci-go/pkg/client"
	"github.com/spgci/spgci-go/pkg/frame"
)

// Get command flags
var (
	filterExp string
	page      int
	pageSize  int
	paginate  bool
	output    string
	rawParams []string
)

var getCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Fetch an API path and print the results as a table",
	Long: `Fetch an API path and print the result rows.

The path is relative to the API root, for example:
  spgci get market-data/v3/value/current/symbol --filter 'symbol: "PCAAS00"'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cfg, err := newClient()
		if err != nil {
			return err
		}

		params := url.Values{}
		if filterExp != "" {
			params.Set("filter", filterExp)
		}
		params.Set("page", strconv.Itoa(page))
		size := pageSize
		if size <= 0 {
			size = cfg.PageSize
		}
		params.Set("pageSize", strconv.Itoa(size))
		for _, p := range rawParams {
			k, v, ok := splitParam(p)
			if !ok {
				return fmt.Errorf("invalid --param %q, want key=value", p)
			}
			params.Set(k, v)
		}

		f, err := c.GetData(cmd.Context(), client.Request{
			Path:     args[0],
			Params:   params,
			Paginate: paginate,
		})
		if err != nil {
			return err
		}

		return writeFrame(cmd, f)
	},
}

func init() {
	getCmd.Flags().StringVar(&filterExp, "filter", "", "filter expression, e.g. 'symbol in (\"PCAAS00\",\"PCAAT00\")'")
	getCmd.Flags().IntVar(&page, "page", 1, "page to fetch")
	getCmd.Flags().IntVar(&pageSize, "page-size", 0, "rows per page (default from config)")
	getCmd.Flags().BoolVar(&paginate, "paginate", false, "fetch all pages and concatenate them")
	getCmd.Flags().StringVarP(&output, "output", "o", "csv", "output format (csv, json)")
	getCmd.Flags().StringArrayVar(&rawParams, "param", nil, "extra query parameter as key=value, repeatable")

	rootCmd.AddCommand(getCmd)
}

func writeFrame(cmd *cobra.Command, f *frame.Frame) error {
	switch output {
	case "csv":
		return f.WriteCSV(cmd.OutOrStdout())
	case "json":
		return f.WriteJSON(cmd.OutOrStdout())
	default:
		return fmt.Errorf("unknown output format %q (want csv or json)", output)
	}
}

func splitParam(p string) (key, value string, ok bool) {
	for i := 0; i < len(p); i++ {
		if p[i] == '=' {
			if i == 0 {
				return "", "", false
			}
			return p[:i], p[i+1:], true
		}
	}
	return "", "", false
}
