package reconcile

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/doctrackhq/doctrack/internal/checklist"
)

// ItemsFunc supplies the checklist for the active fiscal year on each
// polling round, so assignment changes between rounds are picked up.
type ItemsFunc func() ([]checklist.Item, error)

// PollerConfig holds poller configuration.
type PollerConfig struct {
	// Interval between routine verification rounds.
	Interval time.Duration

	// Progress, if non-nil, receives batch progress from each round.
	Progress ProgressFunc

	// Logger for poller activity.
	Logger *log.Logger
}

// DefaultPollerConfig returns sensible defaults.
func DefaultPollerConfig() *PollerConfig {
	return &PollerConfig{
		Interval: 5 * time.Minute,
		Logger:   log.New(os.Stderr, "[poll] ", log.LstdFlags),
	}
}

// Poller periodically re-runs routine (fast-mode) verification so the
// cache converges after out-of-band changes in the remote store. It is
// timer-driven only: change events never schedule a round, which keeps
// the no-reverify-after-delete rule intact and bounds request volume.
type Poller struct {
	verifier *Verifier
	items    ItemsFunc
	config   *PollerConfig
}

// NewPoller creates a Poller. A nil config uses DefaultPollerConfig.
func NewPoller(verifier *Verifier, items ItemsFunc, config *PollerConfig) *Poller {
	if config == nil {
		config = DefaultPollerConfig()
	}
	if config.Interval <= 0 {
		config.Interval = 5 * time.Minute
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[poll] ", log.LstdFlags)
	}
	return &Poller{
		verifier: verifier,
		items:    items,
		config:   config,
	}
}

// Run performs an immediate verification round and then one per
// interval, blocking until ctx is cancelled. Rounds run sequentially;
// a slow round delays the next rather than overlapping it.
func (p *Poller) Run(ctx context.Context) error {
	p.config.Logger.Printf("Starting poller (interval %v)", p.config.Interval)

	p.round(ctx)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.config.Logger.Println("Poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.round(ctx)
		}
	}
}

// round runs one routine verification pass.
func (p *Poller) round(ctx context.Context) {
	items, err := p.items()
	if err != nil {
		p.config.Logger.Printf("Warning: failed to load checklist: %v", err)
		return
	}

	if _, err := p.verifier.VerifyYear(ctx, items, VerifyOptions{Progress: p.config.Progress}); err != nil && !errors.Is(err, context.Canceled) {
		p.config.Logger.Printf("Warning: verification round ended early: %v", err)
	}
}
