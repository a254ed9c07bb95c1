package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sqlLimit int

// sqlCmd prints the most recent metric rows, newest date first and tickers
// ascending within a date. It is the quick freshness check after a run.
var sqlCmd = &cobra.Command{
	Use:   "sql",
	Short: "Print the most recent daily_metrics rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, c, err := setup()
		if err != nil {
			return err
		}
		defer c.Close()

		rows, err := c.Query.RecentMetrics(cmd.Context(), sqlLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "date\tticker\treturn_1d\tma_7\tma_30\tvol_7\tvol_30\trsi")
		for _, m := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				m.Date.Format("2006-01-02"), m.Ticker,
				cell(m.Return1D, 6), cell(m.MA7, 2), cell(m.MA30, 2),
				cell(m.Vol7, 6), cell(m.Vol30, 6), cell(m.RSI, 2))
		}
		return w.Flush()
	},
}

// cell renders one metric value, leaving undefined values blank the way the
// CSV export does.
func cell(v float64, prec int) string {
	if math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf("%.*f", prec, v)
}

func init() {
	sqlCmd.Flags().IntVar(&sqlLimit, "limit", 10, "number of rows to print")
}
