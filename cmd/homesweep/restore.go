package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	uiutils "github.com/fenilsonani/homesweep/internal/ui/utils"
	"github.com/fenilsonani/homesweep/pkg/utils"
)

var restoreCmd = &cobra.Command{
	Use:   "restore [id]",
	Short: "List trashed items or move one back",
	Long: `Without an id, lists what homesweep has moved to the trash directory.
With an id, moves that item back to its original path. Restoring fails when
the original path is occupied again or no longer allowed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			rec, err := a.engine.Restore(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Restored %s\n", rec.OriginalPath)
			return nil
		}

		recs, err := a.engine.Trashed()
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Printf("Nothing in %s\n", a.engine.TrashDir())
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTRASHED\tSIZE\tORIGINAL PATH")
		for _, r := range recs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				r.ID, r.Time.Local().Format("2006-01-02 15:04"),
				utils.FormatBytes(r.Bytes), uiutils.ShortenHome(r.OriginalPath, a.engine.Home()))
		}
		return w.Flush()
	},
}
