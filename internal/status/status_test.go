package status

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestBrokerSnapshotFollowsPublish(t *testing.T) {
	b := NewBroker(zap.NewNop())

	if got := b.Snapshot(); got.Kind != KindIdle {
		t.Fatalf("initial snapshot kind = %q, want %q", got.Kind, KindIdle)
	}

	b.PublishProgress(KindRunning, "starting", 0)
	b.Publish(KindInfo, "step one")
	b.PublishProgress(KindSuccess, "posted", 33.3333)

	snap := b.Snapshot()
	if snap.Kind != KindSuccess || snap.Message != "posted" {
		t.Errorf("snapshot = %+v, want last published event", snap)
	}
	if snap.Progress != 33.33 {
		t.Errorf("progress = %v, want 33.33", snap.Progress)
	}
}

func TestBrokerStickyProgress(t *testing.T) {
	b := NewBroker(zap.NewNop())

	b.PublishProgress(KindRunning, "a third done", 33.33)
	b.Publish(KindError, "element not found")
	b.Publish(KindWarning, "recovering")

	if got := b.Snapshot().Progress; got != 33.33 {
		t.Errorf("progress after publishes without progress = %v, want 33.33", got)
	}

	b.PublishProgress(KindRunning, "two thirds done", 66.67)
	if got := b.Snapshot().Progress; got != 66.67 {
		t.Errorf("progress = %v, want 66.67", got)
	}
}

func TestBrokerSubscriberOrder(t *testing.T) {
	b := NewBroker(zap.NewNop())
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	messages := []string{"one", "two", "three", "four"}
	for _, m := range messages {
		b.Publish(KindInfo, m)
	}

	for i, want := range messages {
		ev, ok := sub.Receive(time.Second)
		if !ok {
			t.Fatalf("event %d never arrived", i)
		}
		if ev.Message != want {
			t.Errorf("event %d message = %q, want %q", i, ev.Message, want)
		}
	}
}

func TestBrokerForwardOnlySubscription(t *testing.T) {
	b := NewBroker(zap.NewNop())
	b.Publish(KindInfo, "before subscribe")

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	if _, ok := sub.Receive(20 * time.Millisecond); ok {
		t.Fatal("subscriber received an event published before Subscribe")
	}

	b.Publish(KindInfo, "after subscribe")
	ev, ok := sub.Receive(time.Second)
	if !ok || ev.Message != "after subscribe" {
		t.Fatalf("got %+v ok=%v, want the post-subscribe event", ev, ok)
	}
}

func TestBrokerIndependentSubscribers(t *testing.T) {
	b := NewBroker(zap.NewNop())
	a := b.Subscribe()
	c := b.Subscribe()
	defer b.Unsubscribe(a)
	defer b.Unsubscribe(c)

	b.Publish(KindInfo, "fan out")

	for name, sub := range map[string]*Subscription{"a": a, "c": c} {
		ev, ok := sub.Receive(time.Second)
		if !ok || ev.Message != "fan out" {
			t.Errorf("subscriber %s: got %+v ok=%v", name, ev, ok)
		}
	}
}

func TestBrokerSlowSubscriberDrops(t *testing.T) {
	b := NewBroker(zap.NewNop())
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	// Never drain: overflow the buffer and make sure the publisher
	// does not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+10; i++ {
			b.Publish(KindInfo, "flood")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	if got := sub.Dropped(); got != 10 {
		t.Errorf("Dropped() = %d, want 10", got)
	}
}

func TestBrokerHeartbeatCarriesSnapshot(t *testing.T) {
	b := NewBroker(zap.NewNop())
	b.PublishProgress(KindStopped, "stopped early", 42)

	before := b.Snapshot().Timestamp
	time.Sleep(5 * time.Millisecond)
	hb := b.Heartbeat()

	if hb.Kind != KindStopped || hb.Message != "stopped early" || hb.Progress != 42 {
		t.Errorf("heartbeat = %+v, want snapshot fields", hb)
	}
	if !hb.Timestamp.After(before) {
		t.Error("heartbeat timestamp not refreshed")
	}
}
