package usecase

import (
	"context"
	"log"
	"time"

	"github.com/smartshop/agent/internal/domain"
)

// ForecastFallback is shown for a product whose forecast call failed.
// Failures are isolated per product, never aggregated.
const ForecastFallback = "No data"

const defaultForecastTTL = 15 * time.Minute

// ForecastService produces price-trend forecasts for a comparison set by
// fanning out one gateway call per product and reassembling the outcomes by
// product id.
type ForecastService struct {
	gateway domain.AgentGateway
	cache   domain.ForecastCache
	ttl     time.Duration
}

// NewForecastService creates a forecast service with dependencies
func NewForecastService(gateway domain.AgentGateway, cache domain.ForecastCache, ttl time.Duration) *ForecastService {
	if ttl <= 0 {
		ttl = defaultForecastTTL
	}
	return &ForecastService{
		gateway: gateway,
		cache:   cache,
		ttl:     ttl,
	}
}

// forecastOutcome is one keyed fan-out result
type forecastOutcome struct {
	productID string
	trend     string
	err       error
}

// ForecastAll fetches a forecast for every product in parallel and returns
// an id-keyed map assembled only after every call settles. A failed call
// yields the literal fallback for that product; arrival order is irrelevant
// but each id maps only to its own outcome. Duplicated ids are fetched once.
func (s *ForecastService) ForecastAll(ctx context.Context, products []domain.Product) map[string]string {
	forecasts := make(map[string]string, len(products))

	pending := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if _, done := forecasts[p.ID]; done {
			continue
		}
		if s.cache != nil {
			if trend, err := s.cache.Get(ctx, p.ID); err == nil {
				forecasts[p.ID] = trend
				continue
			}
		}
		forecasts[p.ID] = "" // reserve the slot so duplicates are skipped
		pending = append(pending, p)
	}

	if len(pending) == 0 {
		return forecasts
	}

	outcomes := make(chan forecastOutcome, len(pending))
	for _, p := range pending {
		go func(p domain.Product) {
			trend, err := s.gateway.PredictPriceTrend(ctx, p)
			outcomes <- forecastOutcome{productID: p.ID, trend: trend, err: err}
		}(p)
	}

	// Join point: the map is completed here and only then exposed to the caller
	for i := 0; i < len(pending); i++ {
		outcome := <-outcomes
		if outcome.err != nil {
			log.Printf("[FORECAST] Forecast failed for %s: %v", outcome.productID, outcome.err)
			forecasts[outcome.productID] = ForecastFallback
			continue
		}
		forecasts[outcome.productID] = outcome.trend
		if s.cache != nil {
			if err := s.cache.Set(ctx, outcome.productID, outcome.trend, s.ttl); err != nil {
				log.Printf("[FORECAST] Failed to cache forecast for %s: %v", outcome.productID, err)
			}
		}
	}

	return forecasts
}
