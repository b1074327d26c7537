// Package bus provides the in-process change-notification channel.
//
// Independently mounted views do not share a store; they coordinate by
// publishing and subscribing to named topics on a process-wide Bus.
// Delivery is synchronous fan-out to the handlers subscribed at publish
// time, with no queuing and no guarantee beyond that. Handlers are
// expected to be idempotent and cheap: re-read the status cache or
// trigger a scoped single-item rescan, never a full-year re-verification.
package bus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Topic is a named change-notification channel.
type Topic string

const (
	// TopicUploadCompleted fires after a file upload finished and the
	// item has been rescanned.
	TopicUploadCompleted Topic = "upload-completed"

	// TopicDeleteCompleted fires after a remote delete succeeded and the
	// item was optimistically marked absent. Subscribers must not react
	// by refetching from the backend; the cache mutation is the truth.
	TopicDeleteCompleted Topic = "delete-completed"

	// TopicFilesChanged is the generic uploaded-files-changed signal.
	TopicFilesChanged Topic = "files-changed"

	// TopicDocumentsChanged is the generic documents-updated signal.
	// Events published here with SkipRefresh set must not trigger a
	// backend refetch.
	TopicDocumentsChanged Topic = "documents-changed"

	// TopicAssignmentsChanged fires when PIC assignments change.
	TopicAssignmentsChanged Topic = "assignments-changed"
)

// Topics lists every topic, for subscribers that record all traffic.
func Topics() []Topic {
	return []Topic{
		TopicUploadCompleted,
		TopicDeleteCompleted,
		TopicFilesChanged,
		TopicDocumentsChanged,
		TopicAssignmentsChanged,
	}
}

// Event is the payload delivered to subscribers.
type Event struct {
	// Kind is the topic the event was published on.
	Kind Topic

	// ItemID is the affected checklist item, or 0 when not applicable.
	ItemID int

	// Year is the fiscal year the event applies to.
	Year int

	// FileName is the affected file's name, when known.
	FileName string

	// SkipRefresh tells subscribers to skip any backend refetch they
	// would normally perform. Set on the documents-changed event that
	// follows an optimistic delete, where a refetch would race against
	// the backend's not-yet-committed delete.
	SkipRefresh bool

	// Timestamp is when the event was published.
	Timestamp time.Time

	// Seq is a process-wide monotonic sequence number.
	Seq uint64
}

// Handler receives published events. Handlers run synchronously on the
// publisher's goroutine and must not block.
type Handler func(Event)

// Bus is a process-wide named-topic publish/subscribe facility.
// Safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic]map[uint64]Handler
	nextID uint64
	seq    atomic.Uint64
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		subs: make(map[Topic]map[uint64]Handler),
	}
}

// Subscribe registers a handler for a topic and returns its unsubscribe
// function. Views must unsubscribe on teardown to avoid leaks; the
// returned function is safe to call more than once.
func (b *Bus) Subscribe(topic Topic, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]Handler)
	}
	b.nextID++
	id := b.nextID
	b.subs[topic][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// SubscribeAll registers a handler on every topic and returns a single
// unsubscribe function covering all of them.
func (b *Bus) SubscribeAll(h Handler) func() {
	unsubs := make([]func(), 0, len(Topics()))
	for _, topic := range Topics() {
		unsubs = append(unsubs, b.Subscribe(topic, h))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Publish delivers the event synchronously to every handler currently
// subscribed to the topic. The event's Kind, Timestamp, and Seq fields
// are filled in if unset.
func (b *Bus) Publish(topic Topic, ev Event) {
	ev.Kind = topic
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	ev.Seq = b.seq.Add(1)

	// Copy handlers under the read lock, invoke outside it, so a handler
	// may subscribe or unsubscribe without deadlocking.
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// SubscriberCount returns the number of handlers subscribed to a topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
