package usecase

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/smartshop/agent/internal/domain"
)

// DefaultMaxCompare bounds the comparison selection set
const DefaultMaxCompare = 4

// Session owns all client-visible shopping state for one browser client:
// the current search result, the bounded comparison selection, and the
// saved/alert sets that outlive individual searches. Pure state-transition
// logic; the only I/O is the gateway search call.
type Session struct {
	mu         sync.Mutex
	gateway    domain.AgentGateway
	maxCompare int

	searchSeq uint64
	loading   bool
	result    *domain.SearchResult
	lastError string

	selection []domain.Product    // insertion order, bounded by maxCompare
	saved     []domain.Product    // unbounded, survives searches
	alerts    map[string]struct{} // pure id set, survives searches
}

// NewSession creates a session bound to one agent gateway
func NewSession(gateway domain.AgentGateway, maxCompare int) *Session {
	if maxCompare < 2 {
		maxCompare = DefaultMaxCompare
	}
	return &Session{
		gateway:    gateway,
		maxCompare: maxCompare,
		alerts:     make(map[string]struct{}),
	}
}

// SubmitSearch validates and dispatches a search. An empty query (after
// trimming) is rejected before any network call. The previous selection is
// cleared up front; on success the result is replaced wholesale, on failure
// the error message is stored and a prior result stays visible.
//
// Rapid successive submissions are not deduplicated. A per-session sequence
// number makes the last *submitted* search authoritative: a response arriving
// for a superseded submission is dropped instead of overwriting newer state.
func (s *Session) SubmitSearch(ctx context.Context, query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return domain.ErrEmptyQuery
	}

	s.mu.Lock()
	s.searchSeq++
	seq := s.searchSeq
	s.loading = true
	s.lastError = ""
	s.selection = nil
	s.mu.Unlock()

	result, err := s.gateway.Search(ctx, trimmed)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.searchSeq {
		// A newer submission superseded this one while it was in flight
		log.Printf("[SESSION] Dropping stale search response (seq %d, current %d)", seq, s.searchSeq)
		return nil
	}

	s.loading = false
	if err != nil {
		s.lastError = err.Error()
		return err
	}

	s.result = result
	return nil
}

// ToggleSelection toggles a product in the comparison set. A member is
// removed unconditionally. A non-member is appended in insertion order while
// the set is below capacity; at capacity the call is a silent no-op. The id
// must belong to the current search result.
func (s *Session) ToggleSelection(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.selection {
		if p.ID == productID {
			s.selection = append(s.selection[:i], s.selection[i+1:]...)
			return nil
		}
	}

	if len(s.selection) >= s.maxCompare {
		return nil
	}

	product, ok := s.findInResult(productID)
	if !ok {
		return domain.ErrUnknownProduct
	}
	s.selection = append(s.selection, product)
	return nil
}

// ToggleSaved toggles a product in the saved set. Unbounded; survives
// searches, so the full product payload is kept rather than an id into a
// result that may be gone.
func (s *Session) ToggleSaved(product domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.saved {
		if p.ID == product.ID {
			s.saved = append(s.saved[:i], s.saved[i+1:]...)
			return
		}
	}
	s.saved = append(s.saved, product)
}

// ToggleAlert toggles a price alert for a product id. Unbounded id set.
func (s *Session) ToggleAlert(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.alerts[productID]; ok {
		delete(s.alerts, productID)
		return
	}
	s.alerts[productID] = struct{}{}
}

// ClearSelection empties the comparison set unconditionally
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = nil
}

// Selection returns the current comparison set in insertion order
func (s *Session) Selection() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Product(nil), s.selection...)
}

// findInResult resolves a product id against the current search result.
// Caller must hold the mutex.
func (s *Session) findInResult(productID string) (domain.Product, bool) {
	if s.result == nil {
		return domain.Product{}, false
	}
	for _, p := range s.result.Products {
		if p.ID == productID {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Snapshot is an immutable view of session state for the delivery layer
type Snapshot struct {
	Loading   bool                 `json:"loading"`
	Result    *domain.SearchResult `json:"result,omitempty"`
	Error     string               `json:"error,omitempty"`
	Selection []domain.Product     `json:"selection"`
	Saved     []domain.Product     `json:"saved"`
	Alerts    []string             `json:"alerts"`
}

// Snapshot returns a copy of the current session state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	alerts := make([]string, 0, len(s.alerts))
	for id := range s.alerts {
		alerts = append(alerts, id)
	}

	return Snapshot{
		Loading:   s.loading,
		Result:    s.result,
		Error:     s.lastError,
		Selection: append([]domain.Product{}, s.selection...),
		Saved:     append([]domain.Product{}, s.saved...),
		Alerts:    alerts,
	}
}
