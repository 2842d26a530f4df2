package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/DevSkits916/campaign-autopilot/internal/automation"
	"github.com/DevSkits916/campaign-autopilot/internal/config"
	"github.com/DevSkits916/campaign-autopilot/internal/http/dto"
	"github.com/DevSkits916/campaign-autopilot/internal/probe"
)

// ProbeHandler runs selector probes against a target page without
// launching a browser. Useful for checking whether a platform markup
// change broke the configured selector chains.
type ProbeHandler struct {
	prober   *probe.Prober
	profiles map[string]automation.Profile
	cfg      *config.Config
	log      *zap.Logger
}

func NewProbeHandler(prober *probe.Prober, profiles map[string]automation.Profile, cfg *config.Config, log *zap.Logger) *ProbeHandler {
	return &ProbeHandler{prober: prober, profiles: profiles, cfg: cfg, log: log}
}

// RunProbe fetches the page and reports which workflow steps resolve.
// URL and platform default to the configured targets.
func (h *ProbeHandler) RunProbe(c *fiber.Ctx) error {
	url := c.Query("url")
	if url == "" {
		url = h.cfg.BaseURL
	}
	platform := c.Query("platform")
	if platform == "" {
		platform = h.cfg.Platform
	}

	profile := automation.ProfileFor(platform, h.profiles)

	report, err := h.prober.Check(c.Context(), url, platform, profile)
	if err != nil {
		h.log.Warn("probe failed", zap.String("url", url), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: report})
}
