package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/homesweep/pkg/utils"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show home, trash and disk space information",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		st := a.engine.Status(cmd.Context())
		if statusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}

		fmt.Printf("Home:       %s (%s)\n", st.Home, st.Platform)
		fmt.Printf("Trash:      %s, %d items\n", st.TrashDir, st.TrashedItems)
		fmt.Printf("Categories: %s\n", strings.Join(st.Categories, ", "))
		fmt.Printf("Cache:      %d reports, ttl %s\n", st.CacheEntries, st.CacheTTL)
		if st.Disk != nil {
			fmt.Printf("Disk:       %s free of %s (%.1f%% used)\n",
				utils.FormatBytes(int64(st.Disk.Free)), utils.FormatBytes(int64(st.Disk.Total)), st.Disk.UsedPercent)
		} else {
			fmt.Printf("Disk:       unavailable (%s)\n", st.DiskError)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print as JSON")
}
