package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/homesweep/internal/engine"
	"github.com/fenilsonani/homesweep/internal/reporter"
	"github.com/fenilsonani/homesweep/internal/scanner"
	"github.com/fenilsonani/homesweep/internal/ui"
	"github.com/fenilsonani/homesweep/pkg/utils"
)

var (
	scanCategories []string
	scanExclude    []string
	scanMinSize    string
	scanMinAge     int
	scanFormat     string
	scanOutput     string
	scanFresh      bool
	scanNoTUI      bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Report reclaimable files without changing anything",
	Long: `Scans the selected categories and prints a report. Categories must be named
explicitly; "all" selects every category.

Examples:
  homesweep scan --categories user-caches,dev
  homesweep scan --categories all --exclude downloads --min-size 50MB
  homesweep scan --categories all --format json --output report.json`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSliceVarP(&scanCategories, "categories", "c", nil, "categories to scan (comma separated, or all)")
	scanCmd.Flags().StringSliceVarP(&scanExclude, "exclude", "x", nil, "categories to leave out")
	scanCmd.Flags().StringVar(&scanMinSize, "min-size", "", "only report items at least this large (default from config)")
	scanCmd.Flags().IntVar(&scanMinAge, "min-age", -1, "only report items untouched for this many days (default from config)")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "summary", "output format (summary, table, tree, json, yaml)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "write the report to a file instead of stdout")
	scanCmd.Flags().BoolVar(&scanFresh, "fresh", false, "ignore cached results")
	scanCmd.Flags().BoolVar(&scanNoTUI, "no-tui", false, "never show the interactive progress view")
	_ = scanCmd.MarkFlagRequired("categories")
}

func runScan(cmd *cobra.Command, args []string) error {
	format, err := reporter.ParseFormat(scanFormat)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	filters, err := scanFilters(a.engine.DefaultFilters(), scanMinSize, scanMinAge)
	if err != nil {
		return err
	}
	req := engine.ScanRequest{
		Include: scanCategories,
		Exclude: scanExclude,
		Filters: filters,
		Fresh:   scanFresh,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var res *engine.ScanResult
	if !scanNoTUI && isTerminal(os.Stdout) && isTerminal(os.Stdin) {
		res, err = ui.RunScan(ctx, a.engine, req, scanCategories)
	} else {
		res, err = a.engine.Scan(ctx, req)
	}
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("scan cancelled")
		}
		return err
	}

	if scanOutput != "" {
		if err := reporter.SaveToFile(res.Report, scanOutput, format); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Report saved to: %s\n", scanOutput)
		return nil
	}

	var stats *scanner.Stats
	if !res.Cached {
		stats = &res.Stats
	}
	return reporter.New(os.Stdout, format).Report(res.Report, stats)
}

// scanFilters applies flag overrides to the configured filters. An empty
// size or a negative age keeps the configured value.
func scanFilters(defaults scanner.Filters, minSize string, minAge int) (scanner.Filters, error) {
	f := defaults
	if minSize != "" {
		n, err := utils.ParseSize(minSize)
		if err != nil {
			return f, fmt.Errorf("--min-size: %w", err)
		}
		f.MinSizeBytes = n
	}
	if minAge >= 0 {
		f.MinAgeDays = minAge
	}
	return f, nil
}
