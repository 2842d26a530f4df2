package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DevSkits916/campaign-autopilot/internal/automation"
	"github.com/DevSkits916/campaign-autopilot/internal/campaign"
	"github.com/DevSkits916/campaign-autopilot/internal/config"
	"github.com/DevSkits916/campaign-autopilot/internal/content"
	"github.com/DevSkits916/campaign-autopilot/internal/db"
	"github.com/DevSkits916/campaign-autopilot/internal/report"
	"github.com/DevSkits916/campaign-autopilot/internal/status"
)

// Runner executes a single campaign run without the API server:
// load content, run the browser workflow to a terminal state, print
// the tally and exit. Exit code 0 means the run completed all
// content. Set REPORT_FILE to also write the HTML chart report.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	if cfg.PlatformUsername == "" || cfg.PlatformPassword == "" {
		log.Fatal("PLATFORM_USERNAME and PLATFORM_PASSWORD are required for unattended runs")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var provider content.Provider
	if cfg.UsesPostgresContent() {
		pool, err := db.NewPostgresPool(ctx, cfg.ContentSource, log)
		if err != nil {
			log.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()
		provider = content.NewPostgresProvider(pool)
	} else {
		provider = content.NewCSVProvider(cfg.ContentSource)
	}

	broker := status.NewBroker(log)

	profiles := map[string]automation.Profile{}
	if cfg.SelectorProfiles != "" {
		loaded, err := automation.LoadProfiles(cfg.SelectorProfiles)
		if err != nil {
			log.Fatal("failed to load selector profiles", zap.Error(err))
		}
		profiles = loaded
	}

	var limiter *rate.Limiter
	if cfg.ActionsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.ActionsPerMinute)/60.0), 1)
	}

	factory := func(autoCfg automation.Config) campaign.Engine {
		return automation.NewSession(autoCfg, automation.Options{
			Notify:     broker.Publish,
			Log:        log.Named("session"),
			Limiter:    limiter,
			Profile:    automation.ProfileFor(autoCfg.Platform, profiles),
			DebugDir:   cfg.DebugDir,
			BrowserBin: cfg.BrowserBin,
		})
	}

	controller := campaign.NewController(provider, factory, broker, nil, nil, log)

	// Echo the status feed to the process log.
	go func() {
		sub := broker.Subscribe()
		defer broker.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-sub.Events():
				log.Info("status",
					zap.String("kind", ev.Kind),
					zap.String("message", ev.Message),
					zap.Float64("progress", ev.Progress))
			}
		}
	}()

	creds := automation.Credentials{
		Username: cfg.PlatformUsername,
		Password: cfg.PlatformPassword,
	}

	runID, err := controller.Start(creds, automation.ParseConfig(cfg.AutomationDefaults()))
	if err != nil {
		log.Fatal("failed to start campaign", zap.Error(err))
	}
	log.Info("campaign run started", zap.String("run_id", runID.String()))

	// First signal stops the run gracefully, a second aborts.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("stop requested, finishing current item")
		controller.RequestStop()
		<-sigCh
		log.Fatal("aborted")
	}()

	if err := controller.Wait(ctx); err != nil {
		log.Fatal("wait failed", zap.Error(err))
	}

	tally, ok := controller.Tally()
	if !ok {
		log.Fatal("run produced no tally")
	}

	log.Info("campaign run finished",
		zap.String("state", tally.State),
		zap.Int("consumed", tally.Consumed),
		zap.Int("total", tally.Total),
		zap.Int("errors", tally.Errors))

	if path := os.Getenv("REPORT_FILE"); path != "" {
		writeReport(path, tally, log)
	}

	if tally.State != campaign.StateCompleted {
		os.Exit(1)
	}
}

func writeReport(path string, tally campaign.Tally, log *zap.Logger) {
	f, err := os.Create(path)
	if err != nil {
		log.Error("failed to create report file", zap.Error(err))
		return
	}
	defer f.Close()

	if err := report.Render(f, tally); err != nil {
		log.Error("failed to render report", zap.Error(err))
		return
	}
	log.Info("report written", zap.String("path", path))
}
