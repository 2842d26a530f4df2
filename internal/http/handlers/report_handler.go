package handlers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/DevSkits916/campaign-autopilot/internal/campaign"
	"github.com/DevSkits916/campaign-autopilot/internal/http/dto"
	"github.com/DevSkits916/campaign-autopilot/internal/report"
)

// ReportHandler renders the chart report for the most recent run.
type ReportHandler struct {
	controller *campaign.Controller
	log        *zap.Logger
}

func NewReportHandler(controller *campaign.Controller, log *zap.Logger) *ReportHandler {
	return &ReportHandler{controller: controller, log: log}
}

// GetReport renders an HTML page of charts for the latest run tally.
func (h *ReportHandler) GetReport(c *fiber.Ctx) error {
	tally, ok := h.controller.Tally()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "no campaign run yet"})
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, tally); err != nil {
		h.log.Error("report render failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}
