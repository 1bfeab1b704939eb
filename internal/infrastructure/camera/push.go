package camera

import (
	"context"
	"log"
	"sync"

	"github.com/smartshop/agent/internal/domain"
)

// PushSource hands out the camera frame stream for try-on sessions. The
// physical device lives in the browser; the client pushes JPEG frames into
// the open stream over HTTP. The stream is an exclusive resource: at most one
// may be open at a time, and a new one cannot be acquired until the previous
// one is closed.
type PushSource struct {
	mutex  sync.Mutex
	stream *PushStream
}

// NewPushSource creates a new push-based camera source
func NewPushSource() *PushSource {
	return &PushSource{}
}

// Open acquires the camera stream. Fails with ErrStreamBusy while another
// stream is still active.
func (s *PushSource) Open(ctx context.Context) (domain.FrameStream, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.stream != nil && s.stream.Active() {
		return nil, domain.ErrStreamBusy
	}

	log.Printf("[CAMERA] Stream opened")
	s.stream = newPushStream()
	return s.stream, nil
}

// PushStream buffers the most recent frame pushed by the client. Close stops
// the single video track and releases the buffer; a closed stream rejects
// every further use.
type PushStream struct {
	mutex  sync.Mutex
	frame  []byte
	tracks int
	closed bool
}

func newPushStream() *PushStream {
	return &PushStream{tracks: 1}
}

// Push stores a frame as the latest capture candidate. The frame is copied;
// callers may reuse their buffer.
func (st *PushStream) Push(frameJPEG []byte) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if st.closed {
		return domain.ErrStreamClosed
	}
	if len(frameJPEG) == 0 {
		return domain.ErrNoFrame
	}

	buf := make([]byte, len(frameJPEG))
	copy(buf, frameJPEG)
	st.frame = buf
	return nil
}

// Frame returns a copy of the latest pushed frame at its native resolution
func (st *PushStream) Frame() ([]byte, error) {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if st.closed {
		return nil, domain.ErrStreamClosed
	}
	if st.frame == nil {
		return nil, domain.ErrNoFrame
	}

	buf := make([]byte, len(st.frame))
	copy(buf, st.frame)
	return buf, nil
}

// Close stops all tracks and drops the frame buffer. Idempotent.
func (st *PushStream) Close() error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if st.closed {
		return nil
	}

	st.closed = true
	st.tracks = 0
	st.frame = nil
	log.Printf("[CAMERA] Stream closed, tracks stopped")
	return nil
}

// Active reports whether the stream still holds a live track
func (st *PushStream) Active() bool {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	return !st.closed
}

// TrackCount returns the number of live tracks. Zero after Close.
func (st *PushStream) TrackCount() int {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	return st.tracks
}
