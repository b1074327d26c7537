package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/doctrackhq/doctrack/internal/ui"
)

var downloadDir string

var downloadCmd = &cobra.Command{
	Use:   "download <item-id>",
	Short: "Download a checklist item's file",
	Args:  cobra.ExactArgs(1),
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

		body, name, err := a.mutator.DownloadFile(context.Background(), item)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer body.Close()

		dest := filepath.Join(downloadDir, name)
		f, err := os.Create(dest)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", dest, err)
			os.Exit(1)
		}
		defer f.Close()

		n, err := io.Copy(f, body)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", dest, err)
			os.Exit(1)
		}

		fmt.Printf("%s Downloaded %s (%d bytes)\n", ui.RenderPass("✓"), dest, n)
	},
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadDir, "output", "o", ".", "directory to write the file into")
	rootCmd.AddCommand(downloadCmd)
}
