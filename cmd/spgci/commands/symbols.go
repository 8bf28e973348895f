package commands

import (
	"github.com/spf13/cobra"

	"github.com/spgci/spgci-go/pkg/marketdata"
)

// Symbols command flags
var (
	symbolsQuery     string
	symbolsCommodity []string
	symbolsCurrency  []string
	symbolsMDC       []string
	symbolsPaginate  bool
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "Search symbol reference data",
	Long: `Search the market data symbol directory.

Examples:
  spgci symbols -q Brent
  spgci symbols --currency USD --currency EUR --mdc ET`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient()
		if err != nil {
			return err
		}

		f, err := marketdata.New(c).Symbols(cmd.Context(), marketdata.SymbolsQuery{
			Q:         symbolsQuery,
			Commodity: symbolsCommodity,
			Currency:  symbolsCurrency,
			MDC:       symbolsMDC,
			Paging:    marketdata.Paging{Paginate: symbolsPaginate},
		})
		if err != nil {
			return err
		}

		return writeFrame(cmd, f)
	},
}

func init() {
	symbolsCmd.Flags().StringVarP(&symbolsQuery, "query", "q", "", "free text search across fields")
	symbolsCmd.Flags().StringArrayVar(&symbolsCommodity, "commodity", nil, "filter by commodity, repeatable")
	symbolsCmd.Flags().StringArrayVar(&symbolsCurrency, "currency", nil, "filter by currency, repeatable")
	symbolsCmd.Flags().StringArrayVar(&symbolsMDC, "mdc", nil, "filter by Market Data Category, repeatable")
	symbolsCmd.Flags().BoolVar(&symbolsPaginate, "paginate", false, "fetch all pages")

	rootCmd.AddCommand(symbolsCmd)
}
