package cache

import (
	"context"
	"sync"
	"time"

	"github.com/smartshop/agent/internal/domain"
)

// forecastEntry is a single cached price-trend forecast with expiration
type forecastEntry struct {
	Trend      string
	Expiration time.Time
}

// ForecastCache is a thread-safe in-memory TTL cache for price-trend
// forecasts, keyed by product id. It keeps re-opened comparisons from
// re-billing the agent backend for the same product.
type ForecastCache struct {
	data  map[string]forecastEntry
	mutex sync.RWMutex
	stop  chan struct{}
	once  sync.Once
}

// NewForecastCache creates a new in-memory forecast cache
func NewForecastCache() *ForecastCache {
	c := &ForecastCache{
		data: make(map[string]forecastEntry),
		stop: make(chan struct{}),
	}

	// Cleanup goroutine removes expired entries every 10 minutes
	go c.cleanupExpired()

	return c
}

// Get retrieves a cached forecast for a product id
func (c *ForecastCache) Get(ctx context.Context, productID string) (string, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.data[productID]
	if !exists {
		return "", domain.ErrCacheMiss
	}

	if time.Now().After(entry.Expiration) {
		return "", domain.ErrCacheMiss
	}

	return entry.Trend, nil
}

// Set stores a forecast with TTL
func (c *ForecastCache) Set(ctx context.Context, productID, trend string, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[productID] = forecastEntry{
		Trend:      trend,
		Expiration: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a forecast from the cache
func (c *ForecastCache) Delete(ctx context.Context, productID string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, productID)
	return nil
}

// Size returns the current number of entries (for debugging/monitoring)
func (c *ForecastCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Close stops the cleanup goroutine
func (c *ForecastCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

// cleanupExpired removes expired entries from the cache periodically
func (c *ForecastCache) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mutex.Lock()
			now := time.Now()
			for key, entry := range c.data {
				if now.After(entry.Expiration) {
					delete(c.data, key)
				}
			}
			c.mutex.Unlock()
		}
	}
}
