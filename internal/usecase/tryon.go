package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/smartshop/agent/internal/domain"
)

// TryOnState is the lifecycle state of a virtual try-on session
type TryOnState string

const (
	TryOnIdle             TryOnState = "idle"
	TryOnRequestingCamera TryOnState = "requesting_camera"
	TryOnLive             TryOnState = "live"
	TryOnCapturing        TryOnState = "capturing"
	TryOnAnalyzed         TryOnState = "analyzed"
	TryOnClosed           TryOnState = "closed"
)

// TryOnFallbackAnalysis is stored when the gateway call fails; the session
// still reaches the analyzed state so a result pane is always shown.
const TryOnFallbackAnalysis = "Failed to process preview."

// CameraErrorMessage is stored when camera acquisition fails
const CameraErrorMessage = "Could not access camera for AR preview."

// tryOnSession is the ephemeral state of one active try-on
type tryOnSession struct {
	id       string
	product  domain.Product
	state    TryOnState
	stream   domain.FrameStream
	capture  []byte
	analysis string
	errMsg   string
}

// TryOnService drives the try-on state machine:
//
//	Idle -> RequestingCamera -> Live -> Capturing -> Analyzed
//	Analyzed -> Live (retake)
//	any state -> Closed
//
// At most one session is active at a time; starting a new one closes the
// previous one first, releasing its camera stream. Closing always stops the
// stream's tracks - that release is the one mandatory side effect of every
// exit path.
type TryOnService struct {
	mu      sync.Mutex
	openMu  sync.Mutex // serializes camera acquisition across starts
	gateway domain.AgentGateway
	camera  domain.CameraSource
	active  *tryOnSession
}

// NewTryOnService creates a try-on service with dependencies
func NewTryOnService(gateway domain.AgentGateway, camera domain.CameraSource) *TryOnService {
	return &TryOnService{
		gateway: gateway,
		camera:  camera,
	}
}

// Start opens a try-on session for a product. Any session already open is
// closed (and its stream released) first. Camera acquisition failure moves
// the new session straight to closed with an error message; it never goes
// live, but stays visible in the snapshot until the next start so the client
// can render the message.
func (s *TryOnService) Start(ctx context.Context, product domain.Product) (string, error) {
	s.mu.Lock()
	if s.active != nil {
		log.Printf("[TRYON] Closing session %s before starting a new one", s.active.id)
		s.closeLocked(s.active)
	}

	sess := &tryOnSession{
		id:      uuid.NewString(),
		product: product,
		state:   TryOnRequestingCamera,
	}
	s.active = sess
	s.mu.Unlock()

	// Camera acquisition is a suspension point; do not hold the state lock.
	// openMu serializes acquisition so a superseded start cannot hold the
	// exclusive stream while its successor tries to open it.
	s.openMu.Lock()
	defer s.openMu.Unlock()

	s.mu.Lock()
	if s.active != sess || sess.state == TryOnClosed {
		s.mu.Unlock()
		return "", domain.ErrInvalidTryOnState
	}
	s.mu.Unlock()

	stream, err := s.camera.Open(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != sess || sess.state == TryOnClosed {
		// Session was closed or replaced while the camera was being acquired
		if stream != nil {
			stream.Close()
		}
		return "", domain.ErrInvalidTryOnState
	}

	if err != nil {
		log.Printf("[TRYON] Camera acquisition failed: %v", err)
		sess.state = TryOnClosed
		sess.errMsg = CameraErrorMessage
		return "", fmt.Errorf("%w: %v", domain.ErrCameraUnavailable, err)
	}

	sess.stream = stream
	sess.state = TryOnLive
	log.Printf("[TRYON] Session %s live for product %q", sess.id, product.Name)
	return sess.id, nil
}

// PushFrame feeds the latest camera frame into the active session's stream
func (s *TryOnService) PushFrame(frameJPEG []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.active
	if sess == nil {
		return domain.ErrNoActiveTryOn
	}
	if sess.state != TryOnLive && sess.state != TryOnCapturing {
		return domain.ErrInvalidTryOnState
	}
	return sess.stream.Push(frameJPEG)
}

// Capture extracts the latest still frame and sends it to the agent for
// analysis. Gateway failure is swallowed into a literal fallback string; the
// session reaches the analyzed state either way. A result arriving after the
// session was closed or replaced is dropped.
func (s *TryOnService) Capture(ctx context.Context) error {
	s.mu.Lock()
	sess := s.active
	if sess == nil {
		s.mu.Unlock()
		return domain.ErrNoActiveTryOn
	}
	if sess.state != TryOnLive {
		s.mu.Unlock()
		return domain.ErrInvalidTryOnState
	}

	frame, err := sess.stream.Frame()
	if err != nil {
		s.mu.Unlock()
		return err
	}

	sess.state = TryOnCapturing
	sess.capture = frame
	product := sess.product
	s.mu.Unlock()

	analysis, err := s.gateway.VisualizeTryOn(ctx, frame, product)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != sess || sess.state == TryOnClosed {
		log.Printf("[TRYON] Dropping analysis for closed session %s", sess.id)
		return nil
	}

	if err != nil {
		log.Printf("[TRYON] Analysis failed for session %s: %v", sess.id, err)
		analysis = TryOnFallbackAnalysis
	}

	sess.analysis = analysis
	sess.state = TryOnAnalyzed
	return nil
}

// Retake discards the analysis and returns to the live preview. The camera
// stream is still attached; no re-acquisition happens.
func (s *TryOnService) Retake() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.active
	if sess == nil {
		return domain.ErrNoActiveTryOn
	}
	if sess.state != TryOnAnalyzed {
		return domain.ErrInvalidTryOnState
	}

	sess.analysis = ""
	sess.capture = nil
	sess.state = TryOnLive
	return nil
}

// Close ends the active session from any state, stopping all camera tracks.
// Idempotent: closing with no active session is a no-op.
func (s *TryOnService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return nil
	}
	s.closeLocked(s.active)
	s.active = nil
	return nil
}

// closeLocked releases a session's stream and marks it closed. Caller must
// hold the mutex.
func (s *TryOnService) closeLocked(sess *tryOnSession) {
	if sess.stream != nil {
		if err := sess.stream.Close(); err != nil {
			log.Printf("[TRYON] Failed to close stream for session %s: %v", sess.id, err)
		}
	}
	sess.state = TryOnClosed
	sess.capture = nil
	log.Printf("[TRYON] Session %s closed", sess.id)
}

// TryOnSnapshot is an immutable view of the try-on state for the delivery layer
type TryOnSnapshot struct {
	Active   bool           `json:"active"`
	ID       string         `json:"id,omitempty"`
	State    TryOnState     `json:"state"`
	Product  domain.Product `json:"product,omitempty"`
	Analysis string         `json:"analysis,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Snapshot returns the current try-on state
func (s *TryOnService) Snapshot() TryOnSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return TryOnSnapshot{State: TryOnIdle}
	}

	return TryOnSnapshot{
		Active:   s.active.state != TryOnClosed,
		ID:       s.active.id,
		State:    s.active.state,
		Product:  s.active.product,
		Analysis: s.active.analysis,
		Error:    s.active.errMsg,
	}
}
