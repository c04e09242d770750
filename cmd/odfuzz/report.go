package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/odfuzz/odfuzz/internal/corpus"
)

var (
	reportSnapshotPath string
	reportOutputPath   string
	reportFilterMode   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a corpus snapshot to CSV",
	Long: `report loads a corpus snapshot written by a prior 'odfuzz fuzz'
run and drains it into one of the two CSV shapes: the full per-query
report (default), or the per-filter-part report (--filter).

Examples:
  odfuzz report --snapshot odfuzz.snapshot --output report.csv
  odfuzz report --snapshot odfuzz.snapshot --filter --output filters.csv
`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportSnapshotPath, "snapshot", "s", "odfuzz.snapshot", "Path to a corpus snapshot written by 'odfuzz fuzz'")
	reportCmd.Flags().StringVarP(&reportOutputPath, "output", "o", "", "Output CSV path (defaults to stdout)")
	reportCmd.Flags().BoolVarP(&reportFilterMode, "filter", "f", false, "Render the per-filter-part shape instead of the per-query shape")
}

func runReport(cmd *cobra.Command, args []string) error {
	in, err := os.Open(reportSnapshotPath)
	if err != nil {
		return fmt.Errorf("report: opening snapshot %s: %w", reportSnapshotPath, err)
	}
	defer in.Close()

	store, err := corpus.Load(in)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	out := cmd.OutOrStdout()
	if reportOutputPath != "" {
		f, err := os.Create(reportOutputPath)
		if err != nil {
			return fmt.Errorf("report: creating %s: %w", reportOutputPath, err)
		}
		defer f.Close()
		out = f
	}

	if reportFilterMode {
		return store.ExportFilterCSV(out)
	}
	return store.ExportCSV(out)
}
