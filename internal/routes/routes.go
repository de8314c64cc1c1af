// Package routes defines the API routing configuration: the trade and
// ledger read endpoints exposed to the dashboard, and the admin group for
// the override operations.
package routes

import (
	"tradex/internal/handlers"
	"tradex/internal/services/override"
	"tradex/internal/services/trade"

	"github.com/gofiber/fiber/v2"
)

// Services carries the constructed ledger services into the router.
type Services struct {
	Trade    trade.Service
	Override override.Service
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, svcs Services) {
	tradeHandler := handlers.NewTradeHandler(svcs.Trade)
	walletHandler := handlers.NewWalletHandler(svcs.Trade)
	positionHandler := handlers.NewPositionHandler(svcs.Trade)
	adminHandler := handlers.NewAdminHandler(svcs.Override)

	app.Get("/health", handlers.HealthCheck)

	api := app.Group("/api")

	api.Post("/trades/buy", tradeHandler.Buy)
	api.Post("/trades/sell", tradeHandler.Sell)

	users := api.Group("/users/:userID")
	users.Get("/wallet", walletHandler.GetWallet)
	users.Post("/wallet", walletHandler.CreateWallet)
	users.Get("/positions", positionHandler.GetPositions)
	users.Get("/trades", tradeHandler.GetTrades)

	admin := api.Group("/admin")
	admin.Post("/positions/:positionID/override", adminHandler.SetOverride)
	admin.Post("/positions/:positionID/nudge", adminHandler.NudgePnl)
	admin.Post("/positions/:positionID/close", adminHandler.ClosePosition)
}
