package domain

import (
	"context"
	"time"
)

// AgentGateway defines the interface for the three round trips against the
// generative-AI shopping backend. All failures surface as a single error whose
// message preserves the timeout / connectivity / application distinction.
type AgentGateway interface {
	Search(ctx context.Context, query string) (*SearchResult, error)
	PredictPriceTrend(ctx context.Context, product Product) (string, error)
	VisualizeTryOn(ctx context.Context, imageJPEG []byte, product Product) (string, error)
}

// ForecastCache defines the interface for memoizing price-trend forecasts
type ForecastCache interface {
	Get(ctx context.Context, productID string) (string, error)
	Set(ctx context.Context, productID, trend string, ttl time.Duration) error
	Delete(ctx context.Context, productID string) error
}

// CameraSource hands out the exclusive camera frame stream for a try-on
// session. At most one stream is open at a time.
type CameraSource interface {
	Open(ctx context.Context) (FrameStream, error)
}

// FrameStream is the owned camera resource of a try-on session. Frames arrive
// via Push at native resolution; Close stops all tracks and is the one
// mandatory side effect on every exit path of the session.
type FrameStream interface {
	Push(frameJPEG []byte) error
	Frame() ([]byte, error)
	Close() error
	Active() bool
}
