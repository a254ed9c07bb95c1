package main

import (
	"github.com/spf13/cobra"
)

// onceCmd runs a single pipeline pass and propagates its result as the
// process exit status, so callers and CI can tell success from failure.
var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run one pipeline pass and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, c, err := setup()
		if err != nil {
			return err
		}
		defer c.Close()

		return c.Pipeline.Run(cmd.Context())
	},
}
