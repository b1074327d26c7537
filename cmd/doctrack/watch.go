package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doctrackhq/doctrack/internal/checklist"
	"github.com/doctrackhq/doctrack/internal/dashboard"
	"github.com/doctrackhq/doctrack/internal/journal"
	"github.com/doctrackhq/doctrack/internal/reconcile"
	"github.com/doctrackhq/doctrack/internal/staging"
	"github.com/doctrackhq/doctrack/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the reconciliation daemon (foreground)",
	Long: `Run the full engine in foreground mode:

  1. Periodic routine verification of the active year's checklist
  2. Staging-directory watcher that uploads dropped files
  3. WebSocket dashboard bridging change events to live viewers
  4. Change-event journal for auditing

Press Ctrl+C to stop.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Journal: record every change event.
		jnl, err := journal.Open(a.cfg.Journal.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening journal: %v\n", err)
			os.Exit(1)
		}
		defer jnl.Close()
		if err := jnl.InitSchema(); err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing journal: %v\n", err)
			os.Exit(1)
		}
		unsubJournal := jnl.Attach(a.bus, log.New(log.Writer(), "[journal] ", log.LstdFlags))
		defer unsubJournal()

		// Dashboard: broadcast change events to connected viewers.
		server := dashboard.NewServer(&dashboard.Config{
			Port:   a.cfg.Dashboard.Port,
			Logger: log.New(log.Writer(), "[dashboard] ", log.LstdFlags),
		})
		if err := server.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting dashboard: %v\n", err)
			os.Exit(1)
		}
		bridge := dashboard.NewBridge(server, a.cache, log.New(log.Writer(), "[dashboard] ", log.LstdFlags))
		unsubBridge := bridge.Attach(a.bus)
		defer unsubBridge()

		// Staging uploader: pick up locally dropped files.
		uploader, err := staging.NewUploader(a.cfg.Staging.Dir, a.items, a.mutator, &staging.Config{
			DebounceInterval: a.cfg.Staging.Debounce,
			Logger:           log.New(log.Writer(), "[staging] ", log.LstdFlags),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating staging uploader: %v\n", err)
			os.Exit(1)
		}

		// Poller: routine re-verification rounds.
		poller := reconcile.NewPoller(a.verifier,
			func() ([]checklist.Item, error) {
				return checklist.LoadYear(a.cfg.Checklist.Dir, a.year)
			},
			&reconcile.PollerConfig{
				Interval: a.cfg.Verify.PollInterval,
				Progress: bridge.OnVerifyProgress,
				Logger:   log.New(log.Writer(), "[poll] ", log.LstdFlags),
			})

		fmt.Printf("%s Watching year %d\n", ui.RenderAccent("🚀"), a.year)
		fmt.Printf("   Remote: %s\n", a.cfg.Remote.BaseURL)
		fmt.Printf("   Staging: %s\n", a.cfg.Staging.Dir)
		fmt.Printf("   Dashboard: ws://%s/ws\n", server.GetAddr())
		fmt.Printf("   Journal: %s\n", jnl.Path())
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				fmt.Fprintf(os.Stderr, "Poller stopped with error: %v\n", err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := uploader.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				fmt.Fprintf(os.Stderr, "Staging uploader stopped with error: %v\n", err)
			}
		}()

		<-ctx.Done()
		wg.Wait()

		if err := server.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error stopping dashboard: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
