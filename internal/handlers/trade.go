package handlers

import (
	"context"
	"errors"

	"tradex/internal/models"
	"tradex/internal/services/trade"
	"tradex/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type TradeHandler struct {
	tradeService trade.Service
}

func NewTradeHandler(tradeService trade.Service) *TradeHandler {
	return &TradeHandler{tradeService: tradeService}
}

type orderRequest struct {
	UserID       uint     `json:"user_id"`
	Symbol       string   `json:"symbol"`
	PositionType string   `json:"position_type"`
	Quantity     *float64 `json:"quantity"`
	Amount       *float64 `json:"amount"`
}

// size maps the request's mutually exclusive quantity/amount fields onto an
// OrderSize.
func (r orderRequest) size() (trade.OrderSize, error) {
	switch {
	case r.Quantity != nil && r.Amount != nil:
		return trade.OrderSize{}, errors.New("specify either quantity or amount, not both")
	case r.Quantity != nil:
		return trade.ByQuantity(*r.Quantity), nil
	case r.Amount != nil:
		return trade.BySpend(*r.Amount), nil
	default:
		return trade.OrderSize{}, errors.New("quantity or amount is required")
	}
}

type executeFunc func(ctx context.Context, userID uint, symbol, positionType string, size trade.OrderSize) (*models.Trade, error)

func (h *TradeHandler) Buy(c *fiber.Ctx) error {
	return h.execute(c, h.tradeService.ExecuteBuy, "buy executed")
}

func (h *TradeHandler) Sell(c *fiber.Ctx) error {
	return h.execute(c, h.tradeService.ExecuteSell, "sell executed")
}

func (h *TradeHandler) execute(c *fiber.Ctx, exec executeFunc, message string) error {
	var input orderRequest
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request format")
	}
	if input.UserID == 0 {
		return response.BadRequest(c, "user_id is required")
	}

	size, err := input.size()
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	executed, err := exec(c.Context(), input.UserID, input.Symbol, input.PositionType, size)
	if err != nil {
		return tradeError(c, err)
	}

	return response.Success(c, message, fiber.Map{
		"trade": executed,
	})
}

func (h *TradeHandler) GetTrades(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userID")
	if err != nil || userID <= 0 {
		return response.BadRequest(c, "invalid user id")
	}
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	trades, err := h.tradeService.ListTrades(c.Context(), uint(userID), limit, offset)
	if err != nil {
		return response.ServerError(c, "failed to list trades")
	}
	return response.Success(c, "trades", fiber.Map{
		"trades": trades,
	})
}

// tradeError maps the executor's typed rejections onto HTTP statuses so the
// UI can message the precise reason.
func tradeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, trade.ErrInvalidOrder),
		errors.Is(err, trade.ErrBelowMinimum):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, trade.ErrInsufficientFunds),
		errors.Is(err, trade.ErrInsufficientHoldings):
		return response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, trade.ErrPositionNotFound),
		errors.Is(err, trade.ErrWalletNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, trade.ErrPriceUnavailable):
		return response.Error(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		return response.ServerError(c, "trade failed")
	}
}
