package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/DevSkits916/campaign-autopilot/internal/automation"
	"github.com/DevSkits916/campaign-autopilot/internal/campaign"
	"github.com/DevSkits916/campaign-autopilot/internal/config"
	"github.com/DevSkits916/campaign-autopilot/internal/http/dto"
	"github.com/DevSkits916/campaign-autopilot/internal/middleware"
	"github.com/DevSkits916/campaign-autopilot/internal/repositories"
	"github.com/DevSkits916/campaign-autopilot/internal/status"
)

// CampaignHandler exposes the campaign control plane: start, stop,
// status and run history.
type CampaignHandler struct {
	controller *campaign.Controller
	broker     *status.Broker
	runRepo    *repositories.RunRepo // nil when content comes from CSV
	cfg        *config.Config
	log        *zap.Logger
}

func NewCampaignHandler(controller *campaign.Controller, broker *status.Broker, runRepo *repositories.RunRepo, cfg *config.Config, log *zap.Logger) *CampaignHandler {
	return &CampaignHandler{
		controller: controller,
		broker:     broker,
		runRepo:    runRepo,
		cfg:        cfg,
		log:        log,
	}
}

// StartCampaign launches a campaign run. Platform credentials are
// required; the optional configuration object overlays the server
// defaults. A run already in flight yields 409.
func (h *CampaignHandler) StartCampaign(c *fiber.Ctx) error {
	var req dto.StartCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	if req.Credentials.Username == "" || req.Credentials.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "credentials username and password are required"})
	}

	raw := h.cfg.AutomationDefaults()
	for k, v := range req.Configuration {
		raw[k] = v
	}

	creds := automation.Credentials{
		Username: req.Credentials.Username,
		Password: req.Credentials.Password,
	}

	runID, err := h.controller.Start(creds, automation.ParseConfig(raw))
	if err != nil {
		if errors.Is(err, campaign.ErrConflict) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		h.log.Error("campaign start failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	h.log.Info("campaign started",
		zap.String("run_id", runID.String()),
		zap.String("username", middleware.GetUsername(c)))

	return c.Status(fiber.StatusAccepted).JSON(dto.SuccessResponse{
		OK:   true,
		Data: dto.StartCampaignResponse{RunID: runID.String()},
	})
}

// StopCampaign requests a graceful stop of the active run. Stopping
// when nothing is running is a no-op and still returns 200.
func (h *CampaignHandler) StopCampaign(c *fiber.Ctx) error {
	stopped := h.controller.RequestStop()
	if stopped {
		h.log.Info("campaign stop requested", zap.String("username", middleware.GetUsername(c)))
	}
	return c.JSON(dto.SuccessResponse{
		OK:   true,
		Data: dto.StopCampaignResponse{Stopped: stopped},
	})
}

// GetStatus returns the latest status snapshot plus the controller
// view. A snapshot is always present, even before the first run.
func (h *CampaignHandler) GetStatus(c *fiber.Ctx) error {
	snap := h.broker.Snapshot()
	desc := h.controller.Describe()
	return c.JSON(fiber.Map{
		"status":    snap.Kind,
		"message":   snap.Message,
		"timestamp": snap.Timestamp,
		"progress":  snap.Progress,
		"active":    desc.Active,
		"run_id":    desc.RunID,
	})
}

// DescribeCampaign reports the controller view: whether a worker is
// active, its lifecycle state and the current run ID.
func (h *CampaignHandler) DescribeCampaign(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: h.controller.Describe()})
}

// GetSummary returns the tally of the most recent run, 404 before
// any run has started.
func (h *CampaignHandler) GetSummary(c *fiber.Ctx) error {
	tally, ok := h.controller.Tally()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "no campaign run yet"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: tally})
}

// ListRuns returns persisted run summaries, newest first. Run history
// is only recorded when content comes from postgres.
func (h *CampaignHandler) ListRuns(c *fiber.Ctx) error {
	if h.runRepo == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: "run history requires a postgres content source"})
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := h.runRepo.ListRecent(c.Context(), limit)
	if err != nil {
		h.log.Error("list runs failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: runs})
}

// GetRun returns one persisted run summary by ID.
func (h *CampaignHandler) GetRun(c *fiber.Ctx) error {
	if h.runRepo == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: "run history requires a postgres content source"})
	}

	tally, err := h.runRepo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "run not found"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: tally})
}
