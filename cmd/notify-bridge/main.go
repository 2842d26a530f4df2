package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/DevSkits916/campaign-autopilot/internal/config"
	"github.com/DevSkits916/campaign-autopilot/internal/db"
	"github.com/DevSkits916/campaign-autopilot/internal/events"
)

// Notify bridge: optional small service that subscribes to Redis
// status events and forwards run-finished notifications to a webhook
// (chat hook, pager, whatever accepts JSON over POST).

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	if cfg.RedisURL == "" {
		log.Fatal("REDIS_URL is required for the notify bridge")
	}
	if cfg.NotifyWebhookURL == "" {
		log.Fatal("NOTIFY_WEBHOOK_URL is required for the notify bridge")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	subscriber := events.NewRedisSubscriber(rdb, log)

	log.Info("notify-bridge started")

	// Only terminal run events are worth a webhook call; the status
	// stream also carries per-step chatter.
	err = subscriber.Subscribe(ctx, events.StreamStatus, func(event events.Event) {
		if event.Type != events.TypeCampaignFinished {
			return
		}
		log.Info("forwarding run notification", zap.Any("run_id", event.Payload["run_id"]))
		forwardToWebhook(cfg.NotifyWebhookURL, event, log)
	})
	if err != nil {
		log.Fatal("failed to subscribe to status stream", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down notify-bridge")
	cancel()
}

func forwardToWebhook(url string, event events.Event, log *zap.Logger) {
	body, _ := json.Marshal(event)

	resp, err := http.Post(url, "application/json", strings.NewReader(string(body)))
	if err != nil {
		log.Warn("failed to forward notification", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn("webhook returned non-200", zap.Int("status", resp.StatusCode))
	}
}
