package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/doctrackhq/doctrack/internal/status"
	"github.com/doctrackhq/doctrack/internal/ui"
)

var rescanCmd = &cobra.Command{
	Use:   "rescan <item-id>",
	Short: "Re-verify a single checklist item",
	Long: `Verify exactly one checklist item against the remote store,
without re-scanning the whole year. Useful right after an upload.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		itemID, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid item id %q\n", args[0])
			os.Exit(1)
		}

		a, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		item, err := a.findItem(itemID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		rec, err := a.verifier.RescanItem(context.Background(), item)
		if err != nil {
			fmt.Printf("%s Item %d: check failed, treated as missing (%v)\n", ui.RenderWarn("⚠"), itemID, err)
			return
		}

		if rec.State == status.StatePresent {
			fmt.Printf("%s Item %d: uploaded (%s, %d bytes)\n", ui.RenderPass("✓"), itemID,
				rec.Info.FileName, rec.Info.Size)
		} else {
			fmt.Printf("%s Item %d: missing\n", ui.RenderFail("✗"), itemID)
		}
	},
}

func init() {
	rootCmd.AddCommand(rescanCmd)
}
