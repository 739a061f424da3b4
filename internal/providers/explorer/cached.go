package explorer

import (
	"context"
	"fmt"
	"time"

	"github.com/swagly/proof-validator/internal/cache"
	"github.com/swagly/proof-validator/internal/domain"
)

// DefaultCacheTTL is how long confirmed chain data is kept
const DefaultCacheTTL = 24 * time.Hour

// CachedClient memoizes confirmed transactions and receipts.
// Errors (not found, pending, provider failures) are never cached.
type CachedClient struct {
	next    Client
	cache   cache.Cache
	chainID int64
	ttl     time.Duration
}

// NewCachedClient wraps next with a cache keyed by chain id and transaction hash
func NewCachedClient(next Client, c cache.Cache, chainID int64, ttl time.Duration) Client {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedClient{
		next:    next,
		cache:   c,
		chainID: chainID,
		ttl:     ttl,
	}
}

func (c *CachedClient) GetTransaction(ctx context.Context, hash string) (*domain.ChainTransaction, error) {
	return cache.UseCache(ctx, c.cache, c.key("tx", hash), c.ttl,
		func() (*domain.ChainTransaction, error) {
			return c.next.GetTransaction(ctx, hash)
		},
		func(tx *domain.ChainTransaction) bool {
			return tx != nil && tx.Confirmed()
		},
	)
}

func (c *CachedClient) GetTransactionReceipt(ctx context.Context, hash string) (*domain.TransactionReceipt, error) {
	return cache.UseCache(ctx, c.cache, c.key("receipt", hash), c.ttl,
		func() (*domain.TransactionReceipt, error) {
			return c.next.GetTransactionReceipt(ctx, hash)
		},
		func(r *domain.TransactionReceipt) bool {
			return r != nil && r.BlockNumber > 0
		},
	)
}

func (c *CachedClient) key(kind, hash string) string {
	return fmt.Sprintf("explorer:%d:%s:%s", c.chainID, kind, hash)
}
