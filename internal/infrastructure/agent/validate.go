package agent

import (
	"fmt"

	"github.com/smartshop/agent/internal/domain"
)

// validateSearchResult checks the shape of a decoded search response before
// it is handed to the session layer. The backend is a generative model, so a
// 2xx body is not trusted until ids are present and unique and numeric fields
// are in range.
func validateSearchResult(result *domain.SearchResult) error {
	seen := make(map[string]bool, len(result.Products))

	for i, p := range result.Products {
		if p.ID == "" {
			return fmt.Errorf("%w: product %d has no id", domain.ErrMalformedResponse, i)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate product id %q", domain.ErrMalformedResponse, p.ID)
		}
		seen[p.ID] = true

		if p.Name == "" {
			return fmt.Errorf("%w: product %q has no name", domain.ErrMalformedResponse, p.ID)
		}
		if p.Price < 0 {
			return fmt.Errorf("%w: product %q has negative price", domain.ErrMalformedResponse, p.ID)
		}
		if p.Rating < 0 || p.Rating > 5 {
			return fmt.Errorf("%w: product %q rating out of range", domain.ErrMalformedResponse, p.ID)
		}
		if p.ReviewsCount < 0 {
			return fmt.Errorf("%w: product %q has negative review count", domain.ErrMalformedResponse, p.ID)
		}
	}

	switch result.Intent.Urgency {
	case "", domain.UrgencyLow, domain.UrgencyMedium, domain.UrgencyHigh:
	default:
		return fmt.Errorf("%w: unknown urgency %q", domain.ErrMalformedResponse, result.Intent.Urgency)
	}

	if max := result.Intent.BudgetRange.Max; max != nil && *max < result.Intent.BudgetRange.Min {
		return fmt.Errorf("%w: budget range max below min", domain.ErrMalformedResponse)
	}

	return nil
}
