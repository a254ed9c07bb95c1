// Command etl runs the daily stock metrics pipeline, either as a one-shot
// pass or as a long-lived scheduled service.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
