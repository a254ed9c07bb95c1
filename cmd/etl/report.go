package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// reportCmd renders the comparison charts and, when SMTP is configured,
// mails the summary, without re-running the pipeline.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate charts and mail the summary from stored metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, c, err := setup()
		if err != nil {
			return err
		}
		defer c.Close()

		rep, err := c.Report.Generate(cmd.Context())
		if err != nil {
			return err
		}
		for _, p := range rep.ChartPaths {
			fmt.Println(p)
		}
		if rep.Mailed {
			fmt.Println("report mailed")
		}
		return nil
	},
}
