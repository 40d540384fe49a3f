package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/homesweep/internal/cleaner"
	"github.com/fenilsonani/homesweep/internal/reporter"
	"github.com/fenilsonani/homesweep/internal/ui"
)

// maxPlanSize bounds plans read from a file or stdin
const maxPlanSize = 10 << 20

var (
	applyMode   string
	applyDryRun bool
	applyYes    bool
	applyFormat string
)

var applyCmd = &cobra.Command{
	Use:   "apply [plan-file]",
	Short: "Trash or delete the paths listed in a plan",
	Long: `Applies a plan: either a JSON document {"items":[{"path":...}],"applyMode":"trash"}
or plain text with one absolute path per line. The plan is read from stdin
when no file is given or the file is "-".

Every path is checked again before it is touched; anything outside the home
directory, deny-listed or unreadable is reported and skipped.

Examples:
  homesweep apply plan.json --dry-run
  homesweep scan -c dev -f json | jq '{items: .items}' | homesweep apply --yes
  homesweep apply paths.txt --mode delete`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVarP(&applyMode, "mode", "m", "", "trash or delete (default: the plan's applyMode, then trash)")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "report what would happen without changing anything")
	applyCmd.Flags().BoolVarP(&applyYes, "yes", "y", false, "skip the confirmation prompt")
	applyCmd.Flags().StringVarP(&applyFormat, "format", "f", "summary", "output format (summary, table, json, yaml)")
}

func runApply(cmd *cobra.Command, args []string) error {
	mode, err := cleaner.ParseMode(applyMode)
	if err != nil {
		return err
	}
	format, err := reporter.ParseFormat(applyFormat)
	if err != nil {
		return err
	}

	data, err := readPlan(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	plan, err := cleaner.ParsePlan(data, "")
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	opts := cleaner.Options{DryRun: applyDryRun, Mode: mode}
	interactive := isTerminal(os.Stdout) && isTerminal(os.Stdin)

	if !applyDryRun && !applyYes {
		// stdin carrying the plan cannot also answer the prompt
		if !interactive || len(args) == 0 || args[0] == "-" {
			return errors.New("refusing to apply without confirmation; pass --yes or run with --dry-run first")
		}

		preview, err := a.engine.Apply(plan, cleaner.Options{DryRun: true, Mode: mode})
		if err != nil {
			return err
		}
		if preview.Summary.Count == 0 {
			fmt.Println("Nothing in the plan can be applied.")
			return reporter.New(os.Stdout, format).Apply(preview)
		}
		ok, err := ui.Confirm(preview, preview.Summary.Mode)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled, nothing was changed.")
			return nil
		}
	}

	var live *ui.LiveProgress
	if interactive && !applyDryRun {
		if pr := a.engine.Progress(); pr != nil {
			updates := pr.Subscribe()
			done := make(chan struct{})
			live = ui.NewLiveProgress(os.Stdout, a.engine.Home())
			go live.Follow(updates, done)
			defer func() {
				close(done)
				pr.Unsubscribe(updates)
			}()
		}
	}

	res, err := a.engine.Apply(plan, opts)
	if live != nil {
		live.Finish()
	}
	if err != nil {
		return err
	}
	return reporter.New(os.Stdout, format).Apply(res)
}

// readPlan reads the plan from the named file, or from stdin for none or "-"
func readPlan(args []string, stdin io.Reader) ([]byte, error) {
	r := stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open plan: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, maxPlanSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	if len(data) > maxPlanSize {
		return nil, fmt.Errorf("plan larger than %d bytes", maxPlanSize)
	}
	return data, nil
}
