package handlers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/DevSkits916/campaign-autopilot/internal/auth"
	"github.com/DevSkits916/campaign-autopilot/internal/config"
	"github.com/DevSkits916/campaign-autopilot/internal/http/dto"
	"github.com/DevSkits916/campaign-autopilot/internal/rbac"
)

type AuthHandler struct {
	cfg *config.Config
	log *zap.Logger
}

func NewAuthHandler(cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, log: log}
}

// Login exchanges a dashboard account password for a bearer token.
// Accounts are fixed: "operator" controls campaigns, "viewer" only
// watches them.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "username and password are required"})
	}

	var expected, role string
	switch req.Username {
	case rbac.RoleOperator:
		expected, role = h.cfg.OperatorPassword, rbac.RoleOperator
	case rbac.RoleViewer:
		expected, role = h.cfg.ViewerPassword, rbac.RoleViewer
	}

	// An account with no configured password cannot be logged into;
	// that also covers unknown usernames.
	if expected == "" || subtle.ConstantTimeCompare([]byte(req.Password), []byte(expected)) != 1 {
		h.log.Debug("login rejected", zap.String("username", req.Username))
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid credentials"})
	}

	token, err := auth.GenerateJWT(h.cfg.JWTSecret, req.Username, role, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("failed to generate jwt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}

	return c.JSON(dto.AuthResponse{Token: token, Role: role})
}
