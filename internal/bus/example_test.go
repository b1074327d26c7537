package bus_test

import (
	"fmt"

	"github.com/doctrackhq/doctrack/internal/bus"
)

// Example_basicUsage demonstrates subscribing to a topic and receiving
// a published event synchronously.
func Example_basicUsage() {
	b := bus.New()

	// A view subscribes and keeps the unsubscribe function for teardown
	unsub := b.Subscribe(bus.TopicUploadCompleted, func(ev bus.Event) {
		fmt.Printf("%s: item %d (%s)\n", ev.Kind, ev.ItemID, ev.FileName)
	})
	defer unsub()

	b.Publish(bus.TopicUploadCompleted, bus.Event{
		ItemID:   42,
		Year:     2024,
		FileName: "audit-report.pdf",
	})

	// Output:
	// upload-completed: item 42 (audit-report.pdf)
}

// Example_skipRefresh demonstrates the refresh suppression flag that
// follows an optimistic delete.
func Example_skipRefresh() {
	b := bus.New()

	unsub := b.Subscribe(bus.TopicDocumentsChanged, func(ev bus.Event) {
		if ev.SkipRefresh {
			fmt.Printf("item %d changed; skipping backend refetch\n", ev.ItemID)
			return
		}
		fmt.Printf("item %d changed; refreshing\n", ev.ItemID)
	})
	defer unsub()

	b.Publish(bus.TopicDocumentsChanged, bus.Event{ItemID: 7, Year: 2024})
	b.Publish(bus.TopicDocumentsChanged, bus.Event{ItemID: 7, Year: 2024, SkipRefresh: true})

	// Output:
	// item 7 changed; refreshing
	// item 7 changed; skipping backend refetch
}

// Example_subscribeAll demonstrates a single handler observing every
// topic, the way the journal and dashboard bridge attach.
func Example_subscribeAll() {
	b := bus.New()

	unsub := b.SubscribeAll(func(ev bus.Event) {
		fmt.Println(ev.Kind)
	})
	defer unsub()

	b.Publish(bus.TopicUploadCompleted, bus.Event{ItemID: 1})
	b.Publish(bus.TopicDeleteCompleted, bus.Event{ItemID: 1})
	b.Publish(bus.TopicAssignmentsChanged, bus.Event{})

	// Output:
	// upload-completed
	// delete-completed
	// assignments-changed
}
