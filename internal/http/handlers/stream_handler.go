package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/DevSkits916/campaign-autopilot/internal/campaign"
	"github.com/DevSkits916/campaign-autopilot/internal/metrics"
	"github.com/DevSkits916/campaign-autopilot/internal/status"
)

// StreamHandler serves the status feed as server-sent events. Each
// event is one JSON status object on a "data:" line. While a worker
// is active the feed carries its events; while idle the handler emits
// a heartbeat snapshot once per idle timeout so clients can tell the
// connection is alive.
type StreamHandler struct {
	broker     *status.Broker
	controller *campaign.Controller
	log        *zap.Logger
}

func NewStreamHandler(broker *status.Broker, controller *campaign.Controller, log *zap.Logger) *StreamHandler {
	return &StreamHandler{broker: broker, controller: controller, log: log}
}

func (h *StreamHandler) Stream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// The fiber context is recycled once this handler returns, so the
	// stream writer must not touch c. Capture what it needs up front.
	broker := h.broker
	controller := h.controller
	log := h.log

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		sub := broker.Subscribe()
		defer broker.Unsubscribe(sub)

		metrics.StatusObservers.Inc()
		defer metrics.StatusObservers.Dec()

		if err := writeSSE(w, broker.Snapshot()); err != nil {
			return
		}

		for {
			ev, ok := sub.Receive(status.IdleTimeout)
			if !ok {
				// Quiet interval. An active worker will speak again on
				// its own; only an idle engine needs a heartbeat.
				if controller.IsActive() {
					continue
				}
				ev = broker.Heartbeat()
			}
			if err := writeSSE(w, ev); err != nil {
				if dropped := sub.Dropped(); dropped > 0 {
					log.Debug("status stream closed with dropped events", zap.Uint64("dropped", dropped))
				}
				return
			}
		}
	}))

	return nil
}

func writeSSE(w *bufio.Writer, ev status.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}
