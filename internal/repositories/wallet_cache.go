package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tradex/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	walletCachePrefix = "wallet:user:"
	walletCacheTTL    = 5 * time.Minute
)

// WalletCache fronts wallet reads with redis. Every committed wallet
// mutation must invalidate the entry.
type WalletCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewWalletCache(client *redis.Client) *WalletCache {
	return &WalletCache{client: client, ttl: walletCacheTTL}
}

func walletCacheKey(userID uint) string {
	return fmt.Sprintf("%s%d", walletCachePrefix, userID)
}

// Get returns the cached wallet or a redis.Nil-wrapped error on a miss.
func (c *WalletCache) Get(ctx context.Context, userID uint) (*models.Wallet, error) {
	data, err := c.client.Get(ctx, walletCacheKey(userID)).Bytes()
	if err != nil {
		return nil, err
	}

	var wallet models.Wallet
	if err := json.Unmarshal(data, &wallet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached wallet: %w", err)
	}
	return &wallet, nil
}

func (c *WalletCache) Set(ctx context.Context, wallet *models.Wallet) error {
	data, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %w", err)
	}
	return c.client.Set(ctx, walletCacheKey(wallet.UserID), data, c.ttl).Err()
}

func (c *WalletCache) Invalidate(ctx context.Context, userID uint) error {
	return c.client.Del(ctx, walletCacheKey(userID)).Err()
}
