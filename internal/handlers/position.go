package handlers

import (
	"tradex/internal/services/trade"
	"tradex/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type PositionHandler struct {
	tradeService trade.Service
}

func NewPositionHandler(tradeService trade.Service) *PositionHandler {
	return &PositionHandler{tradeService: tradeService}
}

func (h *PositionHandler) GetPositions(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userID")
	if err != nil || userID <= 0 {
		return response.BadRequest(c, "invalid user id")
	}

	positions, err := h.tradeService.ListPositions(c.Context(), uint(userID))
	if err != nil {
		return response.ServerError(c, "failed to list positions")
	}
	return response.Success(c, "positions", fiber.Map{
		"positions": positions,
	})
}
