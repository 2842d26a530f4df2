package campaign

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DevSkits916/campaign-autopilot/internal/automation"
	"github.com/DevSkits916/campaign-autopilot/internal/content"
	"github.com/DevSkits916/campaign-autopilot/internal/events"
	"github.com/DevSkits916/campaign-autopilot/internal/status"
)

// ErrConflict rejects a start request while a worker is active.
var ErrConflict = errors.New("a campaign is already running")

// RunRecorder persists terminal run tallies. Optional; satisfied by
// repositories.RunRepo.
type RunRecorder interface {
	Save(ctx context.Context, t Tally) error
}

// Description is the control-plane view of the controller.
type Description struct {
	Active bool   `json:"active"`
	RunID  string `json:"run_id,omitempty"`
	State  string `json:"state"`
}

// Controller enforces at most one active worker process-wide. Stop is
// cooperative; the cancellation signal is cleared automatically once
// the worker reaches a terminal state, so a later start always
// succeeds.
type Controller struct {
	provider  content.Provider
	factory   EngineFactory
	broker    *status.Broker
	publisher events.Publisher // optional terminal-event mirror
	recorder  RunRecorder      // optional run-history store
	log       *zap.Logger

	mu     sync.Mutex
	active bool
	worker *Worker
	cancel context.CancelFunc
	done   chan struct{}
}

func NewController(provider content.Provider, factory EngineFactory, broker *status.Broker,
	publisher events.Publisher, recorder RunRecorder, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		provider:  provider,
		factory:   factory,
		broker:    broker,
		publisher: publisher,
		recorder:  recorder,
		log:       log,
	}
}

// Start launches a worker for the given credentials and configuration.
// Returns ErrConflict while a worker is active; there is no queueing
// and no replacement.
func (c *Controller) Start(creds automation.Credentials, cfg automation.Config) (uuid.UUID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		return uuid.Nil, ErrConflict
	}

	w := NewWorker(c.provider, c.factory, c.broker, creds, cfg, c.log)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.worker = w
	c.cancel = cancel
	c.done = done
	c.active = true

	go func() {
		defer close(done)
		w.Run(ctx)
		c.finish(w)
	}()

	c.log.Info("campaign started",
		zap.String("run_id", w.RunID().String()),
		zap.String("platform", cfg.Platform))
	c.broker.PublishProgress(status.KindRunning, "Automation campaign started", 0)
	return w.RunID(), nil
}

func (c *Controller) finish(w *Worker) {
	c.mu.Lock()
	c.active = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	tally := w.Snapshot()
	if c.recorder != nil {
		if err := c.recorder.Save(context.Background(), tally); err != nil {
			c.log.Warn("run history save failed", zap.Error(err))
		}
	}

	if c.publisher != nil {
		err := c.publisher.Publish(context.Background(), events.StreamStatus, events.Event{
			Type: events.TypeCampaignFinished,
			Payload: map[string]any{
				"run_id":   tally.RunID.String(),
				"state":    tally.State,
				"consumed": tally.Consumed,
				"total":    tally.Total,
				"errors":   tally.Errors,
			},
		})
		if err != nil {
			c.log.Warn("terminal event publish failed", zap.Error(err))
		}
	}
}

// RequestStop signals cancellation to the active worker and reports
// whether one was signalled. Stopping an idle controller is a no-op.
func (c *Controller) RequestStop() bool {
	c.mu.Lock()
	active := c.active
	cancel := c.cancel
	c.mu.Unlock()

	if !active || cancel == nil {
		return false
	}
	cancel()
	c.broker.Publish(status.KindWarning, "Emergency stop requested")
	return true
}

func (c *Controller) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Describe reports the current or most recent run.
func (c *Controller) Describe() Description {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := Description{Active: c.active, State: StateIdle}
	if c.worker != nil {
		d.RunID = c.worker.RunID().String()
		d.State = c.worker.State()
	}
	return d
}

// Tally returns the live or most recently finished run summary.
func (c *Controller) Tally() (Tally, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.worker == nil {
		return Tally{}, false
	}
	return c.worker.Snapshot(), true
}

// Wait blocks until the active run reaches a terminal state.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
