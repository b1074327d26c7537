package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/doctrackhq/doctrack/internal/reconcile"
	"github.com/doctrackhq/doctrack/internal/status"
	"github.com/doctrackhq/doctrack/internal/ui"
)

var statusPIC string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-item upload status for the active year",
	Long: `Run a routine verification pass and print each checklist item's
status: uploaded (with file name and size) or missing. Filter to one
responsible party with --pic.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if _, err := a.verifier.VerifyYear(context.Background(), a.items, reconcile.VerifyOptions{}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: verification interrupted: %v\n", err)
			os.Exit(1)
		}

		items := a.items
		if statusPIC != "" {
			filtered := items[:0:0]
			for _, it := range items {
				if it.PIC == statusPIC {
					filtered = append(filtered, it)
				}
			}
			items = filtered
		}
		sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

		fmt.Printf("\n%s Checklist %d (%d items)\n\n", ui.RenderAccent("📋"), a.year, len(items))

		uploaded := 0
		for _, it := range items {
			rec := a.cache.Get(it.ID)
			switch rec.State {
			case status.StatePresent:
				uploaded++
				fmt.Printf("  %s %4d  %-12s %s %s\n", ui.RenderPass("✓"), it.ID, it.PIC,
					it.Description, ui.RenderMuted(fmt.Sprintf("(%s, %d bytes)", rec.Info.FileName, rec.Info.Size)))
			default:
				fmt.Printf("  %s %4d  %-12s %s\n", ui.RenderFail("✗"), it.ID, it.PIC, it.Description)
			}
		}

		fmt.Printf("\n%d of %d uploaded\n", uploaded, len(items))
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusPIC, "pic", "", "only show items for this responsible party")
	rootCmd.AddCommand(statusCmd)
}
