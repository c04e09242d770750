// Command odfuzz runs the evolutionary OData fuzzer against a live service,
// or renders a previously collected corpus to CSV.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "odfuzz",
	Short: "odfuzz - evolutionary fuzzer for OData services",
	Long: `odfuzz discovers crashing and slow OData queries by evolving a
population of $filter queries against a live service, scoring each
response, and breeding the fittest queries into new generations.`,
	Version: version,
}

func init() {
	rootCmd.AddCommand(fuzzCmd)
	rootCmd.AddCommand(reportCmd)
}
