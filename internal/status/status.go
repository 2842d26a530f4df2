package status

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Event kinds
const (
	KindIdle     = "idle"
	KindInfo     = "info"
	KindRunning  = "running"
	KindSuccess  = "success"
	KindWarning  = "warning"
	KindError    = "error"
	KindStopped  = "stopped"
	KindComplete = "complete"
)

// IdleTimeout is how long a stream consumer waits for an event before
// considering a heartbeat.
const IdleTimeout = time.Second

// Buffer per subscriber. A consumer that falls this far behind starts
// losing events rather than stalling the publisher.
const subscriberBuffer = 256

// Event is one timestamped status update. The most recent event doubles
// as the durable snapshot.
type Event struct {
	Kind      string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Progress  float64   `json:"progress"`
}

// Subscription is one observer's forward-only view of the stream.
type Subscription struct {
	ch      chan Event
	dropped atomic.Uint64
}

func (s *Subscription) Events() <-chan Event { return s.ch }

// Receive blocks until an event arrives or the timeout elapses.
func (s *Subscription) Receive(timeout time.Duration) (Event, bool) {
	select {
	case ev := <-s.ch:
		return ev, true
	case <-time.After(timeout):
		return Event{}, false
	}
}

// Dropped reports how many events this subscriber lost to a full buffer.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Broker is the single-writer/many-reader status channel. Publishes
// update the snapshot and fan out to subscribers atomically, so every
// observer sees events in publish order and the snapshot always
// reflects the latest publish.
type Broker struct {
	mu       sync.Mutex
	snapshot Event
	subs     map[*Subscription]struct{}
	log      *zap.Logger
}

func NewBroker(log *zap.Logger) *Broker {
	return &Broker{
		snapshot: Event{
			Kind:      KindIdle,
			Message:   "Automation idle.",
			Timestamp: time.Now().UTC(),
		},
		subs: make(map[*Subscription]struct{}),
		log:  log,
	}
}

// Publish appends an event inheriting the last published progress.
func (b *Broker) Publish(kind, message string) {
	b.publish(kind, message, nil)
}

// PublishProgress appends an event carrying an explicit progress value.
func (b *Broker) PublishProgress(kind, message string, progress float64) {
	b.publish(kind, message, &progress)
}

func (b *Broker) publish(kind, message string, progress *float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ev := Event{
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if progress != nil {
		ev.Progress = math.Round(*progress*100) / 100
	} else {
		// Progress is sticky: omitted values carry the last one forward.
		ev.Progress = b.snapshot.Progress
	}
	b.snapshot = ev

	for s := range b.subs {
		select {
		case s.ch <- ev:
		default:
			s.dropped.Add(1)
		}
	}
}

// Snapshot returns the most recently published event.
func (b *Broker) Snapshot() Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot
}

// Heartbeat synthesizes a liveness event from the snapshot with a fresh
// timestamp. It is not published: heartbeats exist per observer, only
// when that observer's stream has gone quiet.
func (b *Broker) Heartbeat() Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ev := b.snapshot
	ev.Timestamp = time.Now().UTC()
	return ev
}

func (b *Broker) Subscribe() *Subscription {
	s := &Subscription{ch: make(chan Event, subscriberBuffer)}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

func (b *Broker) Unsubscribe(s *Subscription) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
	if n := s.Dropped(); n > 0 && b.log != nil {
		b.log.Warn("status subscriber dropped events", zap.Uint64("dropped", n))
	}
}

// SubscriberCount reports the number of live subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
