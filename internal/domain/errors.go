package domain

import "errors"

var (
	// ErrEmptyQuery is returned when a search query is empty after trimming
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrSearchTimeout is returned when the search deadline elapses before the agent responds
	ErrSearchTimeout = errors.New("search timed out waiting for the agent backend")

	// ErrAgentUnreachable is returned when the agent backend host cannot be reached
	ErrAgentUnreachable = errors.New("agent backend unreachable")

	// ErrAgentRejected is returned when the agent backend answers with a non-2xx status
	ErrAgentRejected = errors.New("agent backend rejected the request")

	// ErrMalformedResponse is returned when a success response fails shape validation
	ErrMalformedResponse = errors.New("agent backend returned a malformed response")

	// ErrUnknownProduct is returned when an operation names a product id
	// that is not part of the current search result
	ErrUnknownProduct = errors.New("product not in current search result")

	// ErrCameraUnavailable is returned when camera acquisition is denied or fails
	ErrCameraUnavailable = errors.New("camera unavailable")

	// ErrNoActiveTryOn is returned when a try-on operation arrives with no open session
	ErrNoActiveTryOn = errors.New("no active try-on session")

	// ErrInvalidTryOnState is returned when a try-on transition is not legal from the current state
	ErrInvalidTryOnState = errors.New("operation not allowed in current try-on state")

	// ErrStreamBusy is returned when a camera stream is requested while another is still open
	ErrStreamBusy = errors.New("camera stream already in use")

	// ErrStreamClosed is returned when a released camera stream is used
	ErrStreamClosed = errors.New("camera stream closed")

	// ErrNoFrame is returned when a capture is attempted before any frame arrived
	ErrNoFrame = errors.New("no camera frame available")

	// ErrSessionNotFound is returned when a session id does not resolve
	ErrSessionNotFound = errors.New("session not found")

	// ErrCacheMiss is returned when a forecast is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
