package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/smartshop/agent/internal/domain"
)

// MockAgentGateway is a mock implementation of domain.AgentGateway
type MockAgentGateway struct {
	mu sync.Mutex

	searchResult *domain.SearchResult
	searchErr    error
	searchFn     func(query string) (*domain.SearchResult, error)
	searchCalls  int

	trendFn    func(product domain.Product) (string, error)
	trendCalls int

	tryOnFn    func(image []byte, product domain.Product) (string, error)
	tryOnCalls int
}

func (m *MockAgentGateway) Search(ctx context.Context, query string) (*domain.SearchResult, error) {
	m.mu.Lock()
	m.searchCalls++
	fn := m.searchFn
	result, err := m.searchResult, m.searchErr
	m.mu.Unlock()

	if fn != nil {
		return fn(query)
	}
	return result, err
}

func (m *MockAgentGateway) PredictPriceTrend(ctx context.Context, product domain.Product) (string, error) {
	m.mu.Lock()
	m.trendCalls++
	fn := m.trendFn
	m.mu.Unlock()

	if fn != nil {
		return fn(product)
	}
	return "Steady", nil
}

func (m *MockAgentGateway) VisualizeTryOn(ctx context.Context, image []byte, product domain.Product) (string, error) {
	m.mu.Lock()
	m.tryOnCalls++
	fn := m.tryOnFn
	m.mu.Unlock()

	if fn != nil {
		return fn(image, product)
	}
	return "Looks great on you.", nil
}

func (m *MockAgentGateway) SearchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchCalls
}

func (m *MockAgentGateway) TrendCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trendCalls
}

// MockFrameStream is a mock implementation of domain.FrameStream that tracks
// its release the way a real media stream would
type MockFrameStream struct {
	mu     sync.Mutex
	frame  []byte
	closed bool
	tracks int
}

func NewMockFrameStream() *MockFrameStream {
	return &MockFrameStream{tracks: 1}
}

func (s *MockFrameStream) Push(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStreamClosed
	}
	s.frame = append([]byte(nil), frame...)
	return nil
}

func (s *MockFrameStream) Frame() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, domain.ErrStreamClosed
	}
	if s.frame == nil {
		return nil, domain.ErrNoFrame
	}
	return append([]byte(nil), s.frame...), nil
}

func (s *MockFrameStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.tracks = 0
	return nil
}

func (s *MockFrameStream) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *MockFrameStream) TrackCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracks
}

// MockCameraSource is a mock implementation of domain.CameraSource
type MockCameraSource struct {
	mu      sync.Mutex
	openErr error
	streams []*MockFrameStream
}

func (c *MockCameraSource) Open(ctx context.Context) (domain.FrameStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return nil, c.openErr
	}
	stream := NewMockFrameStream()
	c.streams = append(c.streams, stream)
	return stream, nil
}

func (c *MockCameraSource) LastStream() *MockFrameStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.streams) == 0 {
		return nil
	}
	return c.streams[len(c.streams)-1]
}

// exclusiveCameraSource hands out at most one active stream, like a real
// camera device
type exclusiveCameraSource struct {
	mu     sync.Mutex
	stream *MockFrameStream
}

func (c *exclusiveCameraSource) Open(ctx context.Context) (domain.FrameStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil && c.stream.Active() {
		return nil, domain.ErrStreamBusy
	}
	c.stream = NewMockFrameStream()
	return c.stream, nil
}

// gatedCameraSource blocks the first acquisition until released, delegating
// to the wrapped source afterwards
type gatedCameraSource struct {
	inner    domain.CameraSource
	entered  chan struct{}
	release  chan struct{}
	gateOnce sync.Once
}

func (g *gatedCameraSource) Open(ctx context.Context) (domain.FrameStream, error) {
	gated := false
	g.gateOnce.Do(func() { gated = true })
	if gated {
		close(g.entered)
		<-g.release
	}
	return g.inner.Open(ctx)
}

// MockForecastCache is a mock implementation of domain.ForecastCache
type MockForecastCache struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMockForecastCache() *MockForecastCache {
	return &MockForecastCache{data: make(map[string]string)}
}

func (c *MockForecastCache) Get(ctx context.Context, productID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if trend, ok := c.data[productID]; ok {
		return trend, nil
	}
	return "", domain.ErrCacheMiss
}

func (c *MockForecastCache) Set(ctx context.Context, productID, trend string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[productID] = trend
	return nil
}

func (c *MockForecastCache) Delete(ctx context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, productID)
	return nil
}
