package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/doctrackhq/doctrack/internal/reconcile"
	"github.com/doctrackhq/doctrack/internal/ui"
)

var verifyDeep bool

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the active year's checklist against the remote store",
	Long: `Verify every checklist item for the active fiscal year.

Items are grouped by responsible party (PIC) and checked in batches of
at most verify.batch_size ids per request. Results are cached and
summarized. Use --deep for the slower filesystem-level verification
instead of the store's index (manual refresh).`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Verifying %d items for %d...\n", ui.RenderAccent("→"), len(a.items), a.year)
		start := time.Now()

		summary, err := a.verifier.VerifyYear(context.Background(), a.items, reconcile.VerifyOptions{
			Authoritative: verifyDeep,
			Progress: func(p reconcile.Progress) {
				fmt.Printf("   Batch %d/%d\n", p.Current, p.Total)
			},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: verification interrupted: %v\n", err)
			os.Exit(1)
		}

		elapsed := time.Since(start)
		fmt.Printf("%s Verification complete in %v\n", ui.RenderPass("✓"), elapsed.Round(time.Millisecond))
		fmt.Printf("   Uploaded: %d\n", summary.Present)
		fmt.Printf("   Missing: %d\n", summary.Absent)
		if summary.FailedBatches > 0 {
			fmt.Printf("   %s %d batch(es) failed; their items are shown as missing\n",
				ui.RenderWarn("⚠"), summary.FailedBatches)
		}
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyDeep, "deep", false, "verify against the store's filesystem (slower, authoritative)")
	rootCmd.AddCommand(verifyCmd)
}
