package http

import (
	_ "embed"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/DevSkits916/campaign-autopilot/internal/config"
	"github.com/DevSkits916/campaign-autopilot/internal/http/handlers"
	"github.com/DevSkits916/campaign-autopilot/internal/middleware"
	"github.com/DevSkits916/campaign-autopilot/internal/rbac"
)

//go:embed web/index.html
var dashboardHTML []byte

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	campaignHandler *handlers.CampaignHandler,
	streamHandler *handlers.StreamHandler,
	probeHandler *handlers.ProbeHandler,
	reportHandler *handlers.ReportHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Operator dashboard
	app.Get("/", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(dashboardHTML)
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Prometheus scrape endpoint
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/login", authHandler.Login)

	// Rate-limited endpoints
	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// Campaign control
	protected.Post("/campaign/start", middleware.RequirePermission(rbac.PermStartCampaign), campaignHandler.StartCampaign)
	protected.Post("/campaign/stop", middleware.RequirePermission(rbac.PermStopCampaign), campaignHandler.StopCampaign)

	// Campaign observation
	protected.Get("/campaign", middleware.RequirePermission(rbac.PermViewStatus), campaignHandler.DescribeCampaign)
	protected.Get("/campaign/status", middleware.RequirePermission(rbac.PermViewStatus), campaignHandler.GetStatus)
	protected.Get("/campaign/summary", middleware.RequirePermission(rbac.PermViewStatus), campaignHandler.GetSummary)
	protected.Get("/campaign/stream", middleware.RequirePermission(rbac.PermViewStatus), streamHandler.Stream)

	// Reports and run history
	protected.Get("/campaign/report", middleware.RequirePermission(rbac.PermViewReport), reportHandler.GetReport)
	protected.Get("/runs", middleware.RequirePermission(rbac.PermViewReport), campaignHandler.ListRuns)
	protected.Get("/runs/:id", middleware.RequirePermission(rbac.PermViewReport), campaignHandler.GetRun)

	// Selector probe
	protected.Get("/campaign/probe", middleware.RequirePermission(rbac.PermRunProbe), probeHandler.RunProbe)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
