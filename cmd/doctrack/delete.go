package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/doctrackhq/doctrack/internal/ui"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <item-id> <file-id>",
	Short: "Delete a checklist item's file from the remote store",
	Long: `Delete a file by its storage-assigned file id and mark the checklist
item as missing immediately. The local status is updated optimistically;
no re-verification is triggered, so the change is visible at once.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		itemID, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid item id %q\n", args[0])
			os.Exit(1)
		}
		fileID := args[1]

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

		if err := a.mutator.DeleteFile(context.Background(), item, fileID); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Deleted file %s; item %d is now marked missing\n", ui.RenderPass("✓"), fileID, itemID)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
