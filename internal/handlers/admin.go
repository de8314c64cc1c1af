package handlers

import (
	"errors"

	"tradex/internal/services/override"
	"tradex/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	overrideService override.Service
}

func NewAdminHandler(overrideService override.Service) *AdminHandler {
	return &AdminHandler{overrideService: overrideService}
}

func (h *AdminHandler) SetOverride(c *fiber.Ctx) error {
	positionID, err := c.ParamsInt("positionID")
	if err != nil || positionID <= 0 {
		return response.BadRequest(c, "invalid position id")
	}

	var input struct {
		TargetPct float64 `json:"target_pct"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request format")
	}

	position, err := h.overrideService.SetOverride(c.Context(), uint(positionID), input.TargetPct)
	if err != nil {
		return overrideError(c, err)
	}
	return response.Success(c, "override set", fiber.Map{
		"position": position,
	})
}

func (h *AdminHandler) NudgePnl(c *fiber.Ctx) error {
	positionID, err := c.ParamsInt("positionID")
	if err != nil || positionID <= 0 {
		return response.BadRequest(c, "invalid position id")
	}

	var input struct {
		DeltaPct float64 `json:"delta_pct"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request format")
	}
	if input.DeltaPct == 0 {
		return response.BadRequest(c, "delta_pct is required")
	}

	position, err := h.overrideService.NudgePnl(c.Context(), uint(positionID), input.DeltaPct)
	if err != nil {
		return overrideError(c, err)
	}
	return response.Success(c, "pnl adjusted", fiber.Map{
		"position": position,
	})
}

func (h *AdminHandler) ClosePosition(c *fiber.Ctx) error {
	positionID, err := c.ParamsInt("positionID")
	if err != nil || positionID <= 0 {
		return response.BadRequest(c, "invalid position id")
	}

	executed, err := h.overrideService.ClosePosition(c.Context(), uint(positionID))
	if err != nil {
		return overrideError(c, err)
	}
	return response.Success(c, "position closed", fiber.Map{
		"trade": executed,
	})
}

func overrideError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, override.ErrPositionNotFound),
		errors.Is(err, override.ErrWalletNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, override.ErrNotOverridden):
		return response.UnprocessableEntity(c, err.Error())
	default:
		return response.ServerError(c, "override operation failed")
	}
}
