package journal

import (
	"log"

	"github.com/doctrackhq/doctrack/internal/bus"
)

// Attach subscribes the journal to every bus topic so all change events
// are recorded. Append failures are logged and dropped; the journal is
// an audit aid and must never block or fail the publishing view. The
// returned function unsubscribes.
func (j *Journal) Attach(b *bus.Bus, logger *log.Logger) func() {
	return b.SubscribeAll(func(ev bus.Event) {
		if err := j.Append(ev); err != nil && logger != nil {
			logger.Printf("Warning: failed to journal %s event: %v", ev.Kind, err)
		}
	})
}
