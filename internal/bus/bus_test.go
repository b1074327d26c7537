package bus

import (
	"sync"
	"testing"
)

// TestPublishSubscribe verifies basic synchronous delivery.
func TestPublishSubscribe(t *testing.T) {
	b := New()

	var got []Event
	unsub := b.Subscribe(TopicFilesChanged, func(ev Event) {
		got = append(got, ev)
	})
	defer unsub()

	b.Publish(TopicFilesChanged, Event{ItemID: 42, Year: 2024})

	if len(got) != 1 {
		t.Fatalf("handler called %d times, want 1", len(got))
	}
	ev := got[0]
	if ev.Kind != TopicFilesChanged {
		t.Errorf("Kind = %q, want %q", ev.Kind, TopicFilesChanged)
	}
	if ev.ItemID != 42 || ev.Year != 2024 {
		t.Errorf("payload = %+v, want item 42 year 2024", ev)
	}
	if ev.Timestamp.IsZero() {
		t.Error("Timestamp was not filled in")
	}
	if ev.Seq == 0 {
		t.Error("Seq was not assigned")
	}
}

// TestTopicIsolation verifies handlers only see their own topic.
func TestTopicIsolation(t *testing.T) {
	b := New()

	var uploads, deletes int
	defer b.Subscribe(TopicUploadCompleted, func(Event) { uploads++ })()
	defer b.Subscribe(TopicDeleteCompleted, func(Event) { deletes++ })()

	b.Publish(TopicUploadCompleted, Event{ItemID: 1})
	b.Publish(TopicUploadCompleted, Event{ItemID: 2})
	b.Publish(TopicDeleteCompleted, Event{ItemID: 3})

	if uploads != 2 {
		t.Errorf("upload handler called %d times, want 2", uploads)
	}
	if deletes != 1 {
		t.Errorf("delete handler called %d times, want 1", deletes)
	}
}

// TestUnsubscribe verifies delivery stops after unsubscribing and that
// unsubscribing twice is safe.
func TestUnsubscribe(t *testing.T) {
	b := New()

	calls := 0
	unsub := b.Subscribe(TopicFilesChanged, func(Event) { calls++ })

	b.Publish(TopicFilesChanged, Event{})
	unsub()
	b.Publish(TopicFilesChanged, Event{})
	unsub() // second call is a no-op
	b.Publish(TopicFilesChanged, Event{})

	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
	if n := b.SubscriberCount(TopicFilesChanged); n != 0 {
		t.Errorf("SubscriberCount() = %d after unsubscribe, want 0", n)
	}
}

// TestMultipleSubscribers verifies fan-out to all current subscribers.
func TestMultipleSubscribers(t *testing.T) {
	b := New()

	var mu sync.Mutex
	seen := make(map[int]int)
	for i := 0; i < 3; i++ {
		i := i
		defer b.Subscribe(TopicDocumentsChanged, func(Event) {
			mu.Lock()
			seen[i]++
			mu.Unlock()
		})()
	}

	b.Publish(TopicDocumentsChanged, Event{SkipRefresh: true})

	for i := 0; i < 3; i++ {
		if seen[i] != 1 {
			t.Errorf("subscriber %d called %d times, want 1", i, seen[i])
		}
	}
}

// TestSubscribeAll verifies a single handler receives every topic.
func TestSubscribeAll(t *testing.T) {
	b := New()

	var kinds []Topic
	unsub := b.SubscribeAll(func(ev Event) { kinds = append(kinds, ev.Kind) })
	defer unsub()

	for _, topic := range Topics() {
		b.Publish(topic, Event{})
	}

	if len(kinds) != len(Topics()) {
		t.Fatalf("handler saw %d events, want %d", len(kinds), len(Topics()))
	}
	for i, topic := range Topics() {
		if kinds[i] != topic {
			t.Errorf("event %d kind = %q, want %q", i, kinds[i], topic)
		}
	}

	unsub()
	b.Publish(TopicFilesChanged, Event{})
	if len(kinds) != len(Topics()) {
		t.Error("SubscribeAll handler still receiving after unsubscribe")
	}
}

// TestHandlerMayUnsubscribeDuringPublish verifies a handler can call its
// own unsubscribe function without deadlocking.
func TestHandlerMayUnsubscribeDuringPublish(t *testing.T) {
	b := New()

	calls := 0
	var unsub func()
	unsub = b.Subscribe(TopicFilesChanged, func(Event) {
		calls++
		unsub()
	})

	b.Publish(TopicFilesChanged, Event{})
	b.Publish(TopicFilesChanged, Event{})

	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
}

// TestSequenceIsMonotonic verifies event sequence numbers increase.
func TestSequenceIsMonotonic(t *testing.T) {
	b := New()

	var seqs []uint64
	defer b.Subscribe(TopicFilesChanged, func(ev Event) { seqs = append(seqs, ev.Seq) })()

	for i := 0; i < 5; i++ {
		b.Publish(TopicFilesChanged, Event{})
	}

	for i := 1; i < len(seqs); i++ {
		if seqs[i] <= seqs[i-1] {
			t.Fatalf("sequence not monotonic: %v", seqs)
		}
	}
}

// TestConcurrentPublish exercises the bus under concurrent publishers
// and subscribers; run with -race.
func TestConcurrentPublish(t *testing.T) {
	b := New()

	var mu sync.Mutex
	total := 0
	defer b.Subscribe(TopicFilesChanged, func(Event) {
		mu.Lock()
		total++
		mu.Unlock()
	})()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Publish(TopicFilesChanged, Event{ItemID: j})
			}
		}()
	}
	wg.Wait()

	if total != 200 {
		t.Errorf("handler called %d times, want 200", total)
	}
}
