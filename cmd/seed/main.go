// Seed tool for local development: creates a funded wallet and publishes
// demo quotes so the dashboard has something to trade against.
package main

import (
	"context"
	"log"
	"time"

	"tradex/internal/config"
	"tradex/internal/models"
	"tradex/internal/repositories"
	"tradex/internal/services/pricefeed"
)

func main() {
	config.LoadEnv()

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("failed to init database: %v", err)
	}
	if err := repositories.InitRedis(); err != nil {
		log.Fatalf("failed to init redis: %v", err)
	}

	userID := uint(config.GetIntEnv("SEED_USER_ID", 1))
	balance := config.GetFloatEnv("SEED_BALANCE", 10000)

	repo := repositories.NewLedgerRepository(repositories.DB)
	if _, err := repo.GetWalletByUserID(userID); err == nil {
		log.Printf("wallet for user %d already exists", userID)
	} else {
		wallet := &models.Wallet{UserID: userID, Balance: balance}
		if err := repo.CreateWallet(wallet); err != nil {
			log.Fatalf("failed to create wallet: %v", err)
		}
		log.Printf("created wallet for user %d with balance %.2f", userID, balance)
	}

	feed := pricefeed.NewRedisFeed(repositories.RedisClient, 0)
	now := time.Now()
	quotes := []pricefeed.Quote{
		{Symbol: "BTC", Price: 9000000, DisplayPrice: 9000000, Timestamp: now},
		{Symbol: "ETH", Price: 480000, DisplayPrice: 480000, Timestamp: now},
		{Symbol: "SOL", Price: 21000, DisplayPrice: 21000, Timestamp: now},
	}
	for _, quote := range quotes {
		if err := feed.PublishQuote(context.Background(), quote); err != nil {
			log.Fatalf("failed to publish quote for %s: %v", quote.Symbol, err)
		}
	}
	log.Printf("published %d demo quotes", len(quotes))
}
