package handlers

import (
	"errors"

	"tradex/internal/services/trade"
	"tradex/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	tradeService trade.Service
}

func NewWalletHandler(tradeService trade.Service) *WalletHandler {
	return &WalletHandler{tradeService: tradeService}
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userID")
	if err != nil || userID <= 0 {
		return response.BadRequest(c, "invalid user id")
	}

	wallet, err := h.tradeService.GetWallet(c.Context(), uint(userID))
	if err != nil {
		if errors.Is(err, trade.ErrWalletNotFound) {
			return response.NotFound(c, "wallet not found")
		}
		return response.ServerError(c, "failed to get wallet")
	}
	return response.Success(c, "wallet", fiber.Map{
		"wallet": wallet,
	})
}

func (h *WalletHandler) CreateWallet(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userID")
	if err != nil || userID <= 0 {
		return response.BadRequest(c, "invalid user id")
	}

	wallet, err := h.tradeService.CreateWallet(c.Context(), uint(userID))
	if err != nil {
		return response.ServerError(c, "failed to create wallet")
	}
	return response.Success(c, "wallet created", fiber.Map{
		"wallet": wallet,
	})
}
