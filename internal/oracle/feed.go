package oracle

import (
	"sync"
	"time"
)

// PriceFeed is the adapter contract over an external price source. Price is
// the raw signed value reported by the source, scaled by 10^decimals.
// Freshness of updatedAtNano is not validated by this core.
type PriceFeed interface {
	LatestPrice() (price int64, decimals uint8, updatedAtNano int64, err error)
}

// StaticFeed is a PriceFeed backed by an in-process value. The sim binary and
// tests mutate it to model price movement.
type StaticFeed struct {
	mu       sync.RWMutex
	price    int64
	decimals uint8
	updated  int64
}

func NewStaticFeed(price int64, decimals uint8) *StaticFeed {
	return &StaticFeed{
		price:    price,
		decimals: decimals,
		updated:  time.Now().UTC().UnixNano(),
	}
}

func (f *StaticFeed) LatestPrice() (int64, uint8, int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.price, f.decimals, f.updated, nil
}

// SetPrice replaces the reported price and bumps the update timestamp.
func (f *StaticFeed) SetPrice(price int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.price = price
	f.updated = time.Now().UTC().UnixNano()
}
