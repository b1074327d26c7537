// Command doctrack is the document-compliance tracking CLI.
//
// It drives the status-reconciliation engine: batched verification of
// checklist items against the remote file store, single-item rescans,
// optimistic uploads and deletes, and the watch daemon that bridges
// change events to live dashboard viewers.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/doctrackhq/doctrack/internal/bus"
	"github.com/doctrackhq/doctrack/internal/checklist"
	"github.com/doctrackhq/doctrack/internal/config"
	"github.com/doctrackhq/doctrack/internal/filestore"
	"github.com/doctrackhq/doctrack/internal/reconcile"
	"github.com/doctrackhq/doctrack/internal/status"
)

var (
	configFile string
	logFile    string
	activeYear int
)

var rootCmd = &cobra.Command{
	Use:   "doctrack",
	Short: "Document-compliance tracking for per-year checklists",
	Long: `doctrack tracks which required documents have been uploaded to the
remote file store for each fiscal year's compliance checklist.

Status is determined by grouped verification requests (one batch per
responsible party), cached locally, and kept consistent across views
through change events.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logFile != "" {
			log.SetOutput(&lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
			})
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default doctrack.yaml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to a rotating file instead of stderr")
	rootCmd.PersistentFlags().IntVar(&activeYear, "year", time.Now().Year(), "active fiscal year")
}

// app wires the engine for one CLI invocation.
type app struct {
	cfg      *config.Config
	year     int
	items    []checklist.Item
	cache    *status.Cache
	client   *filestore.HTTPClient
	verifier *reconcile.Verifier
	mutator  *reconcile.Mutator
	bus      *bus.Bus
}

// newApp loads configuration and the active year's checklist and builds
// the engine around a fresh cache.
func newApp() (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	items, err := checklist.LoadYear(cfg.Checklist.Dir, activeYear)
	if err != nil {
		return nil, fmt.Errorf("failed to load checklist for %d: %w", activeYear, err)
	}

	cache := status.NewCache(activeYear)
	client := filestore.NewHTTPClient(cfg.Remote.BaseURL, cfg.Remote.Timeout)

	logWriter := log.Writer()
	verifier := reconcile.NewVerifier(cache, client, &reconcile.Config{
		BatchSize:     cfg.Verify.BatchSize,
		BatchDelay:    cfg.Verify.BatchDelay,
		FallbackGroup: cfg.Verify.FallbackGroup,
		Logger:        log.New(logWriter, "[verify] ", log.LstdFlags),
	})

	changeBus := bus.New()
	mutator := reconcile.NewMutator(verifier, changeBus)

	return &app{
		cfg:      cfg,
		year:     activeYear,
		items:    items,
		cache:    cache,
		client:   client,
		verifier: verifier,
		mutator:  mutator,
		bus:      changeBus,
	}, nil
}

// findItem looks up a checklist item by id in the active year.
func (a *app) findItem(itemID int) (checklist.Item, error) {
	for _, it := range a.items {
		if it.ID == itemID {
			return it, nil
		}
	}
	return checklist.Item{}, fmt.Errorf("checklist item %d not found in year %d", itemID, a.year)
}
