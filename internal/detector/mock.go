package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector returns canned hands and remembers what it was shown, so
// tests can check the tracker's colour conversion and sizing without a model.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	err    error
	calls  int
	last   seenFrame
	closed bool
}

type seenFrame struct {
	rows, cols int
	pixel      []uint8
}

// NewMockDetector returns a detector that finds no hands.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets what Detect returns from now on.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError makes Detect fail with err. A nil err restores normal results.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect records the frame it received and returns the pre-configured
// hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if frame != nil && !frame.Empty() {
		m.last = seenFrame{
			rows:  frame.Rows(),
			cols:  frame.Cols(),
			pixel: append([]uint8(nil), frame.GetVecbAt(0, 0)...),
		}
	}

	switch {
	case m.err != nil:
		return nil, m.err
	case m.hands == nil:
		return nil, nil
	}
	return append([]HandLandmarks(nil), m.hands...), nil
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastFrameSize returns the size of the last non-empty frame seen by Detect.
func (m *MockDetector) LastFrameSize() (rows, cols int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last.rows, m.last.cols
}

// FirstPixel returns the channels of pixel (0,0) of that frame.
func (m *MockDetector) FirstPixel() []uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint8(nil), m.last.pixel...)
}

func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
