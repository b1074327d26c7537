package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/doctrackhq/doctrack/internal/config"
	"github.com/doctrackhq/doctrack/internal/journal"
	"github.com/doctrackhq/doctrack/internal/ui"
)

var journalSince string

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recorded change events",
	Long: `List change events recorded by the watch daemon's journal.

--since accepts RFC3339 timestamps or natural language, e.g.
"2 days ago", "last monday", "yesterday at 9am".`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		since, err := parseSince(journalSince)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		jnl, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening journal: %v\n", err)
			os.Exit(1)
		}
		defer jnl.Close()
		if err := jnl.InitSchema(); err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing journal: %v\n", err)
			os.Exit(1)
		}

		entries, err := jnl.Since(since)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading journal: %v\n", err)
			os.Exit(1)
		}

		if len(entries) == 0 {
			fmt.Printf("No events since %s\n", since.Format(time.RFC3339))
			return
		}

		fmt.Printf("\n%s %d event(s) since %s\n\n", ui.RenderAccent("📒"), len(entries), since.Format(time.RFC3339))
		for _, e := range entries {
			line := fmt.Sprintf("  %s  %-20s item=%d year=%d", e.RecordedAt.Local().Format("2006-01-02 15:04:05"),
				e.Topic, e.ItemID, e.Year)
			if e.FileName != "" {
				line += " file=" + e.FileName
			}
			if e.SkipRefresh {
				line += " " + ui.RenderMuted("(skip-refresh)")
			}
			fmt.Println(line)
		}
		fmt.Println()
	},
}

// parseSince accepts an RFC3339 timestamp or natural-language time.
// An empty value means the last 24 hours.
func parseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Now().Add(-24 * time.Hour), nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(s, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse --since %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("could not understand --since %q", s)
	}
	return r.Time, nil
}

func init() {
	journalCmd.Flags().StringVar(&journalSince, "since", "", "show events since this time (RFC3339 or natural language)")
	rootCmd.AddCommand(journalCmd)
}
