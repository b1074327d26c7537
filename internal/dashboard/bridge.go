package dashboard

import (
	"encoding/json"
	"log"
	"time"

	"github.com/doctrackhq/doctrack/internal/bus"
	"github.com/doctrackhq/doctrack/internal/reconcile"
	"github.com/doctrackhq/doctrack/internal/status"
)

// Bridge subscribes to the change bus and forwards events to connected
// WebSocket clients as dashboard messages. It reads the status cache to
// enrich events with the item's current uploaded state and cache-wide
// counters; it never triggers verification itself, so a delete event
// fans out to viewers without causing any backend refetch.
type Bridge struct {
	server *Server
	cache  *status.Cache
	logger *log.Logger
}

// NewBridge creates a Bridge for the given server and cache.
func NewBridge(server *Server, cache *status.Cache, logger *log.Logger) *Bridge {
	if logger == nil {
		logger = log.Default()
	}
	return &Bridge{
		server: server,
		cache:  cache,
		logger: logger,
	}
}

// Attach subscribes the bridge to every bus topic. The returned function
// unsubscribes.
func (br *Bridge) Attach(b *bus.Bus) func() {
	return b.SubscribeAll(br.onEvent)
}

// onEvent formats one change event as dashboard messages.
func (br *Bridge) onEvent(ev bus.Event) {
	switch ev.Kind {
	case bus.TopicAssignmentsChanged:
		br.broadcast(MessageTypeAssignments, StatusChangedData{
			ItemID: ev.ItemID,
			Year:   ev.Year,
			Event:  string(ev.Kind),
		})
		return

	default:
		br.broadcast(MessageTypeStatusChanged, StatusChangedData{
			ItemID:      ev.ItemID,
			Year:        ev.Year,
			Event:       string(ev.Kind),
			FileName:    ev.FileName,
			Uploaded:    br.cache.IsUploaded(ev.ItemID),
			SkipRefresh: ev.SkipRefresh,
		})
	}

	br.broadcastSummary()
}

// OnVerifyProgress is a reconcile.ProgressFunc that forwards batch
// progress to viewers. Wire it into VerifyOptions.Progress.
func (br *Bridge) OnVerifyProgress(p reconcile.Progress) {
	br.broadcast(MessageTypeVerifyProgress, VerifyProgressData{
		Current: p.Current,
		Total:   p.Total,
	})
	if p.Current == p.Total {
		br.broadcastSummary()
	}
}

// broadcastSummary pushes current cache counters to all clients.
func (br *Bridge) broadcastSummary() {
	present, absent := br.cache.Counts()
	br.broadcast(MessageTypeSummary, SummaryData{
		Year:     br.cache.Year(),
		Present:  present,
		Absent:   absent,
		Checking: br.cache.CheckingCount(),
	})
}

// broadcast marshals data and sends it as a dashboard message.
func (br *Bridge) broadcast(msgType MessageType, data interface{}) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		br.logger.Printf("Failed to marshal %s data: %v", msgType, err)
		return
	}

	br.server.Broadcast(Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}
