package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DevSkits916/campaign-autopilot/internal/automation"
	"github.com/DevSkits916/campaign-autopilot/internal/content"
	"github.com/DevSkits916/campaign-autopilot/internal/status"
)

type providerFunc func(ctx context.Context) (*content.Pool, error)

func (f providerFunc) Load(ctx context.Context) (*content.Pool, error) { return f(ctx) }

// fakeEngine scripts per-call outcomes for each workflow step and
// counts everything the worker does to it.
type fakeEngine struct {
	mu         sync.Mutex
	initErr    error
	onLogin    func(call int) error
	onNavigate func(call int) error
	onSubmit   func(call int) error

	// When set, Submit announces the title it was given and then
	// blocks until the test releases it.
	submitting chan string
	release    chan struct{}

	presence    int
	logins      int
	lastCreds   automation.Credentials
	navigations []string
	submissions []string
	recoveries  int
	captures    []string
	shutdowns   int
}

func (e *fakeEngine) Initialize() error { return e.initErr }

func (e *fakeEngine) SimulatePresence() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.presence++
}

func (e *fakeEngine) Login(creds automation.Credentials) error {
	e.mu.Lock()
	e.logins++
	e.lastCreds = creds
	n := e.logins
	f := e.onLogin
	e.mu.Unlock()
	if f != nil {
		return f(n)
	}
	return nil
}

func (e *fakeEngine) NavigateTo(targetGroup string) error {
	e.mu.Lock()
	e.navigations = append(e.navigations, targetGroup)
	n := len(e.navigations)
	f := e.onNavigate
	e.mu.Unlock()
	if f != nil {
		return f(n)
	}
	return nil
}

func (e *fakeEngine) Submit(title, body string) error {
	if e.submitting != nil {
		e.submitting <- title
	}
	if e.release != nil {
		<-e.release
	}
	e.mu.Lock()
	e.submissions = append(e.submissions, title)
	n := len(e.submissions)
	f := e.onSubmit
	e.mu.Unlock()
	if f != nil {
		return f(n)
	}
	return nil
}

func (e *fakeEngine) Recover() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recoveries++
}

func (e *fakeEngine) CaptureDebugArtifacts(reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.captures = append(e.captures, reason)
}

func (e *fakeEngine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shutdowns++
}

func (e *fakeEngine) Jitter() time.Duration { return time.Millisecond }

func (e *fakeEngine) recoveryCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recoveries
}

func (e *fakeEngine) shutdownCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdowns
}

func (e *fakeEngine) captureReasons() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.captures...)
}

func (e *fakeEngine) submittedTitles() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.submissions...)
}

var testCreds = automation.Credentials{Username: "operator", Password: "hunter2"}

func newTestWorker(items []content.Item, eng *fakeEngine) (*Worker, *status.Broker) {
	broker := status.NewBroker(zap.NewNop())
	provider := providerFunc(func(context.Context) (*content.Pool, error) {
		return content.NewPool(items), nil
	})
	factory := func(automation.Config) Engine { return eng }
	w := NewWorker(provider, factory, broker, testCreds, automation.Config{}, zap.NewNop())
	return w, broker
}

func drainEvents(sub *status.Subscription) []status.Event {
	var out []status.Event
	for {
		select {
		case ev := <-sub.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventMessages(events []status.Event) []string {
	msgs := make([]string, 0, len(events))
	for _, ev := range events {
		msgs = append(msgs, ev.Message)
	}
	return msgs
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not finish in time")
	}
}

func TestWorkerRunCompletesAllContent(t *testing.T) {
	items := []content.Item{
		{ID: "1", Title: "First", Body: "a", TargetGroup: "alpha"},
		{ID: "2", Title: "Second", Body: "b", TargetGroup: "alpha"},
		{ID: "3", Title: "Third", Body: "c", TargetGroup: "beta"},
	}
	eng := &fakeEngine{}
	w, broker := newTestWorker(items, eng)
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	w.Run(context.Background())

	require.Equal(t, StateCompleted, w.State())
	require.Equal(t, 1, eng.shutdownCount())
	require.Equal(t, testCreds, eng.lastCreds)
	require.ElementsMatch(t, []string{"First", "Second", "Third"}, eng.submittedTitles())

	tally := w.Snapshot()
	require.Equal(t, 3, tally.Total)
	require.Equal(t, 3, tally.Consumed)
	require.Equal(t, 0, tally.Errors)
	require.Equal(t, map[string]int{"alpha": 2, "beta": 1}, tally.Submitted)
	require.False(t, tally.FinishedAt.IsZero())
	require.False(t, tally.FinishedAt.Before(tally.StartedAt))

	snap := broker.Snapshot()
	require.Equal(t, status.KindComplete, snap.Kind)
	require.Equal(t, "Automation completed all content", snap.Message)
	require.Equal(t, 100.0, snap.Progress)

	events := drainEvents(sub)
	msgs := eventMessages(events)
	require.Contains(t, msgs, "Loading content variations")
	require.Contains(t, msgs, "Setting up browser")
	require.Contains(t, msgs, "Starting posting workflow")

	var progressed []float64
	for _, ev := range events {
		if strings.HasPrefix(ev.Message, "Posted variation '") {
			progressed = append(progressed, ev.Progress)
		}
	}
	require.Len(t, progressed, 3)
	require.InDelta(t, 33.33, progressed[0], 0.01)
	require.InDelta(t, 66.67, progressed[1], 0.01)
	require.Equal(t, 100.0, progressed[2])
}

func TestWorkerContentFailureEndsFailed(t *testing.T) {
	loadErr := fmt.Errorf("%w: body", content.ErrMalformedSource)
	broker := status.NewBroker(zap.NewNop())
	provider := providerFunc(func(context.Context) (*content.Pool, error) {
		return nil, loadErr
	})
	factoryCalled := false
	factory := func(automation.Config) Engine {
		factoryCalled = true
		return &fakeEngine{}
	}
	w := NewWorker(provider, factory, broker, testCreds, automation.Config{}, zap.NewNop())

	w.Run(context.Background())

	require.Equal(t, StateFailed, w.State())
	require.False(t, factoryCalled, "browser must not launch when content fails to load")

	snap := broker.Snapshot()
	require.Equal(t, status.KindError, snap.Kind)
	require.Equal(t, loadErr.Error(), snap.Message)
	require.False(t, w.Snapshot().FinishedAt.IsZero())
}

func TestWorkerInitializeFailureEndsFailed(t *testing.T) {
	eng := &fakeEngine{initErr: &automation.Error{
		Kind: automation.KindSessionInit,
		Op:   "launch browser",
		Err:  errors.New("no chrome binary"),
	}}
	w, broker := newTestWorker([]content.Item{{ID: "1", Title: "Only"}}, eng)

	w.Run(context.Background())

	require.Equal(t, StateFailed, w.State())
	require.Equal(t, 1, eng.shutdownCount())
	require.Empty(t, eng.submittedTitles())

	snap := broker.Snapshot()
	require.Equal(t, status.KindError, snap.Kind)
	require.Equal(t, "launch browser: no chrome binary", snap.Message)
}

func TestWorkerRetriesFailingItemUntilStopped(t *testing.T) {
	eng := &fakeEngine{onLogin: func(int) error {
		return &automation.Error{
			Kind: automation.KindElementNotFound,
			Op:   "locate",
			Err:  errors.New("username field"),
		}
	}}
	w, broker := newTestWorker([]content.Item{{ID: "1", Title: "Stubborn", TargetGroup: "alpha"}}, eng)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return eng.recoveryCount() >= 3
	}, 5*time.Second, 5*time.Millisecond, "worker should keep retrying the failing item")

	cancel()
	waitDone(t, done)

	require.Equal(t, StateStopped, w.State())
	require.Equal(t, 1, eng.shutdownCount())
	require.Empty(t, eng.captureReasons(), "workflow errors never trigger debug capture")

	tally := w.Snapshot()
	require.Equal(t, 0, tally.Consumed, "failed item must stay in the pool")
	require.GreaterOrEqual(t, tally.Errors, 3)

	snap := broker.Snapshot()
	require.Equal(t, status.KindStopped, snap.Kind)
	require.Equal(t, "Automation stopped by user", snap.Message)
	require.Equal(t, 0.0, snap.Progress, "stop message inherits the last reported progress")
}

func TestWorkerUnexpectedErrorCapturesDebugArtifacts(t *testing.T) {
	eng := &fakeEngine{onSubmit: func(call int) error {
		if call == 1 {
			return errors.New("renderer crashed")
		}
		return nil
	}}
	w, broker := newTestWorker([]content.Item{{ID: "1", Title: "Flaky", TargetGroup: "alpha"}}, eng)
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	w.Run(context.Background())

	require.Equal(t, StateCompleted, w.State())
	require.Equal(t, []string{"renderer crashed"}, eng.captureReasons())
	require.Equal(t, 1, eng.recoveryCount())

	tally := w.Snapshot()
	require.Equal(t, 1, tally.Errors)
	require.Equal(t, 1, tally.Consumed)

	msgs := eventMessages(drainEvents(sub))
	require.Contains(t, msgs, "Unexpected error: renderer crashed")
}

func TestWorkerWorkflowErrorRecoversWithoutCapture(t *testing.T) {
	eng := &fakeEngine{onNavigate: func(call int) error {
		if call == 1 {
			return &automation.Error{
				Kind: automation.KindNavigation,
				Op:   "navigate to groups",
				Err:  errors.New("link missing"),
			}
		}
		return nil
	}}
	w, broker := newTestWorker([]content.Item{{ID: "1", Title: "Only", TargetGroup: "alpha"}}, eng)
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	w.Run(context.Background())

	require.Equal(t, StateCompleted, w.State())
	require.Empty(t, eng.captureReasons())
	require.Equal(t, 1, eng.recoveryCount())

	msgs := eventMessages(drainEvents(sub))
	require.Contains(t, msgs, "Automation error: navigate to groups: link missing")
}

func TestWorkerStopFinishesInFlightItem(t *testing.T) {
	eng := &fakeEngine{
		submitting: make(chan string),
		release:    make(chan struct{}),
	}
	items := []content.Item{
		{ID: "1", Title: "First", TargetGroup: "alpha"},
		{ID: "2", Title: "Second", TargetGroup: "alpha"},
	}
	w, broker := newTestWorker(items, eng)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	// Cancel while the first submission is underway, then let it finish.
	<-eng.submitting
	cancel()
	eng.release <- struct{}{}
	waitDone(t, done)

	require.Equal(t, StateStopped, w.State())
	require.Len(t, eng.submittedTitles(), 1, "in-flight item completes, next never starts")
	require.Equal(t, 1, w.Snapshot().Consumed)

	snap := broker.Snapshot()
	require.Equal(t, status.KindStopped, snap.Kind)
	require.Equal(t, 50.0, snap.Progress, "stop message keeps the progress of the finished half")
}
