package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/DevSkits916/campaign-autopilot/internal/status"
)

// Mirror forwards every status event to an external publisher so
// companion processes can follow a run without holding an HTTP
// connection. Mirroring is fire-and-forget: a broken publisher only
// produces warnings, never backpressure on the worker.
type Mirror struct {
	broker *status.Broker
	pub    Publisher
	runID  func() string
	log    *zap.Logger
}

func NewMirror(broker *status.Broker, pub Publisher, runID func() string, log *zap.Logger) *Mirror {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mirror{broker: broker, pub: pub, runID: runID, log: log}
}

// Run subscribes to the broker and forwards until ctx is done.
func (m *Mirror) Run(ctx context.Context) {
	sub := m.broker.Subscribe()
	defer m.broker.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-sub.Events():
			payload := map[string]any{
				"status":    ev.Kind,
				"message":   ev.Message,
				"timestamp": ev.Timestamp,
				"progress":  ev.Progress,
			}
			if m.runID != nil {
				if id := m.runID(); id != "" {
					payload["run_id"] = id
				}
			}
			err := m.pub.Publish(ctx, StreamStatus, Event{
				Type:    TypeCampaignStatus,
				Payload: payload,
			})
			if err != nil && ctx.Err() == nil {
				m.log.Warn("status mirror publish failed", zap.Error(err))
			}
		}
	}
}
