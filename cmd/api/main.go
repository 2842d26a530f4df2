package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DevSkits916/campaign-autopilot/internal/automation"
	"github.com/DevSkits916/campaign-autopilot/internal/campaign"
	"github.com/DevSkits916/campaign-autopilot/internal/config"
	"github.com/DevSkits916/campaign-autopilot/internal/content"
	"github.com/DevSkits916/campaign-autopilot/internal/db"
	"github.com/DevSkits916/campaign-autopilot/internal/events"
	apphttp "github.com/DevSkits916/campaign-autopilot/internal/http"
	"github.com/DevSkits916/campaign-autopilot/internal/http/handlers"
	"github.com/DevSkits916/campaign-autopilot/internal/probe"
	"github.com/DevSkits916/campaign-autopilot/internal/repositories"
	"github.com/DevSkits916/campaign-autopilot/internal/status"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Content source: a postgres DSN or a CSV file path.
	var (
		provider content.Provider
		pool     *pgxpool.Pool
		runRepo  *repositories.RunRepo
	)
	if cfg.UsesPostgresContent() {
		var err error
		pool, err = db.NewPostgresPool(ctx, cfg.ContentSource, log)
		if err != nil {
			log.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()

		if err := db.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}

		provider = content.NewPostgresProvider(pool)
		runRepo = repositories.NewRunRepo(pool)
	} else {
		provider = content.NewCSVProvider(cfg.ContentSource)
	}

	// Redis (optional): rate limiting and the remote status mirror.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = db.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	broker := status.NewBroker(log)

	// Selector profiles
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

	// One browser session per run, wired to the status broker.
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

	// Events
	var publisher events.Publisher
	if rdb != nil {
		publisher = events.NewRedisPublisher(rdb, log)
	}

	// A nil *RunRepo must stay a nil interface, not a typed nil.
	var recorder campaign.RunRecorder
	if runRepo != nil {
		recorder = runRepo
	}

	controller := campaign.NewController(provider, factory, broker, publisher, recorder, log)

	if publisher != nil {
		mirror := events.NewMirror(broker, publisher, func() string {
			return controller.Describe().RunID
		}, log)
		go mirror.Run(ctx)
	}

	// Handlers
	prober := probe.NewProber(cfg.ProbeTimeoutMS, cfg.ProbeMaxRetries, log)
	authHandler := handlers.NewAuthHandler(cfg, log)
	campaignHandler := handlers.NewCampaignHandler(controller, broker, runRepo, cfg, log)
	streamHandler := handlers.NewStreamHandler(broker, controller, log)
	probeHandler := handlers.NewProbeHandler(prober, profiles, cfg, log)
	reportHandler := handlers.NewReportHandler(controller, log)
	wsHub := handlers.NewWSHub(cfg, broker, controller, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, campaignHandler, streamHandler, probeHandler, reportHandler, wsHub)

	// Graceful shutdown: stop the active run before closing the server.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		if controller.RequestStop() {
			waitCtx, waitCancel := context.WithTimeout(context.Background(), 30*time.Second)
			_ = controller.Wait(waitCtx)
			waitCancel()
		}
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
