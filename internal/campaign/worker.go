package campaign

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DevSkits916/campaign-autopilot/internal/automation"
	"github.com/DevSkits916/campaign-autopilot/internal/content"
	"github.com/DevSkits916/campaign-autopilot/internal/metrics"
	"github.com/DevSkits916/campaign-autopilot/internal/status"
)

// Engine is the browser session surface the worker drives. Implemented
// by automation.Session; tests substitute fakes.
type Engine interface {
	Initialize() error
	SimulatePresence()
	Login(creds automation.Credentials) error
	NavigateTo(targetGroup string) error
	Submit(title, body string) error
	Recover()
	CaptureDebugArtifacts(reason string)
	Shutdown()
	Jitter() time.Duration
}

// EngineFactory builds one engine per run from the run's configuration.
type EngineFactory func(cfg automation.Config) Engine

// Tally summarizes one finished run for reporting.
type Tally struct {
	RunID      uuid.UUID      `json:"run_id"`
	State      string         `json:"state"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Submitted  map[string]int `json:"submitted_by_group"`
	Errors     int            `json:"errors"`
	Consumed   int            `json:"consumed"`
	Total      int            `json:"total"`
}

// Worker runs one campaign: it loads the pool, initializes a browser
// session, and drives every content item through the workflow until
// exhaustion or cancellation. One Worker never runs twice.
type Worker struct {
	runID     uuid.UUID
	provider  content.Provider
	newEngine EngineFactory
	broker    *status.Broker
	creds     automation.Credentials
	cfg       automation.Config
	log       *zap.Logger

	mu       sync.Mutex
	state    string
	tally    Tally
	failures map[string]int
}

func NewWorker(provider content.Provider, factory EngineFactory, broker *status.Broker,
	creds automation.Credentials, cfg automation.Config, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	runID := uuid.New()
	return &Worker{
		runID:     runID,
		provider:  provider,
		newEngine: factory,
		broker:    broker,
		creds:     creds,
		cfg:       cfg,
		log:       log.With(zap.String("run_id", runID.String())),
		state:     StateIdle,
		tally: Tally{
			RunID:     runID,
			State:     StateIdle,
			Submitted: make(map[string]int),
		},
		failures: make(map[string]int),
	}
}

func (w *Worker) RunID() uuid.UUID { return w.runID }

func (w *Worker) State() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Snapshot returns a copy of the run tally so far.
func (w *Worker) Snapshot() Tally {
	w.mu.Lock()
	defer w.mu.Unlock()
	t := w.tally
	t.Submitted = make(map[string]int, len(w.tally.Submitted))
	for g, n := range w.tally.Submitted {
		t.Submitted[g] = n
	}
	return t
}

func (w *Worker) setState(to string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !IsValidTransition(w.state, to) {
		w.log.Warn("invalid worker transition",
			zap.String("from", w.state),
			zap.String("to", to))
	}
	w.state = to
	w.tally.State = to
	if IsTerminal(to) {
		w.tally.FinishedAt = time.Now().UTC()
	}
}

// Run executes the campaign until the pool is exhausted or ctx is
// cancelled. Cancellation is cooperative: it is checked only between
// iterations, never mid browser step. The engine is shut down exactly
// once on every exit path.
func (w *Worker) Run(ctx context.Context) {
	w.mu.Lock()
	w.tally.StartedAt = time.Now().UTC()
	w.mu.Unlock()
	metrics.CampaignsStarted.Inc()

	var engine Engine
	defer func() {
		if engine != nil {
			engine.Shutdown()
		}
		final := w.State()
		metrics.CampaignsFinished.WithLabelValues(final).Inc()
		w.log.Info("worker finished", zap.String("state", final))
	}()

	w.setState(StateLoading)
	w.broker.PublishProgress(status.KindInfo, "Loading content variations", 0)
	metrics.Progress.Set(0)

	pool, err := w.provider.Load(ctx)
	if err != nil {
		w.fail(err)
		return
	}
	w.mu.Lock()
	w.tally.Total = pool.Total()
	w.mu.Unlock()

	w.setState(StateInitializing)
	engine = w.newEngine(w.cfg)
	w.broker.Publish(status.KindInfo, "Setting up browser")
	if err := engine.Initialize(); err != nil {
		w.fail(err)
		return
	}

	w.setState(StateRunning)
	total := pool.RemainingCount()
	processed := 0
	w.broker.PublishProgress(status.KindRunning, "Starting posting workflow", 0)

	for ctx.Err() == nil && pool.HasRemaining() {
		item, err := pool.Next()
		if err != nil {
			break
		}

		if err := w.runItem(engine, item); err != nil {
			w.handleItemError(engine, item, err)
		} else {
			pool.MarkConsumed(item)
			processed++
			progress := 100.0
			if total > 0 {
				progress = float64(processed) / float64(total) * 100
			}
			w.recordSuccess(item, pool.ConsumedCount())
			metrics.ItemsSubmitted.Inc()
			metrics.Progress.Set(progress)
			w.broker.PublishProgress(status.KindRunning,
				fmt.Sprintf("Posted variation '%s'", item.Title), progress)
		}

		// Randomized pause between iterations regardless of outcome.
		time.Sleep(engine.Jitter())
	}

	if ctx.Err() != nil {
		w.broker.Publish(status.KindStopped, "Automation stopped by user")
		w.setState(StateStopped)
		return
	}
	w.broker.PublishProgress(status.KindComplete, "Automation completed all content", 100)
	metrics.Progress.Set(100)
	w.setState(StateCompleted)
}

// runItem drives one content item through the full workflow sequence.
func (w *Worker) runItem(engine Engine, item content.Item) error {
	_ = w.observeStep("presence", func() error {
		engine.SimulatePresence()
		return nil
	})
	if err := w.observeStep("login", func() error {
		return engine.Login(w.creds)
	}); err != nil {
		return err
	}
	if err := w.observeStep("navigate", func() error {
		return engine.NavigateTo(item.TargetGroup)
	}); err != nil {
		return err
	}
	return w.observeStep("submit", func() error {
		return engine.Submit(item.Title, item.Body)
	})
}

func (w *Worker) observeStep(name string, f func() error) error {
	start := time.Now()
	err := f()
	metrics.StepDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return err
}

// handleItemError applies the per-iteration failure policy: workflow
// errors recover and continue; anything unexpected additionally
// captures debug artifacts first. The item is not marked consumed, so
// it stays eligible for a later draw.
func (w *Worker) handleItemError(engine Engine, item content.Item, err error) {
	w.mu.Lock()
	w.tally.Errors++
	w.failures[item.ID]++
	attempts := w.failures[item.ID]
	w.mu.Unlock()

	metrics.ItemErrors.WithLabelValues(errorKindLabel(err)).Inc()
	w.log.Warn("item workflow failed",
		zap.String("item", item.ID),
		zap.Int("attempts", attempts),
		zap.Error(err))

	if automation.IsWorkflowError(err) {
		w.broker.Publish(status.KindError, fmt.Sprintf("Automation error: %v", err))
	} else {
		w.broker.Publish(status.KindError, fmt.Sprintf("Unexpected error: %v", err))
		engine.CaptureDebugArtifacts(err.Error())
	}
	engine.Recover()
}

func (w *Worker) recordSuccess(item content.Item, consumed int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tally.Submitted[item.TargetGroup]++
	w.tally.Consumed = consumed
	delete(w.failures, item.ID)
}

// fail publishes the originating error verbatim as the terminal status
// message and moves the worker to Failed.
func (w *Worker) fail(err error) {
	w.log.Error("campaign failed", zap.Error(err))
	w.broker.Publish(status.KindError, err.Error())
	w.setState(StateFailed)
}

func errorKindLabel(err error) string {
	if kind := automation.KindOf(err); kind != "" {
		return kind
	}
	return "unexpected"
}
