package capture

import (
	"errors"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNoMoreFrames is returned by MockCamera once a non-looping playback is
// exhausted.
var ErrNoMoreFrames = errors.New("no more frames")

// MockCamera plays back pre-recorded frames. Every read returns a clone, so
// callers may draw on and close what they get.
type MockCamera struct {
	mu     sync.Mutex
	frames []*gocv.Mat
	loop   bool
	next   int
	reads  int
	open   bool
	fps    int
	size   image.Point
}

// NewMockCamera plays frames in order, starting over at the end when loop
// is set.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
		fps:    DefaultFPS,
		size:   image.Pt(DefaultWidth, DefaultHeight),
	}
}

// Open rewinds playback.
func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.next = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, ErrCameraNotOpen
	}

	if c.next == len(c.frames) && c.loop {
		c.next = 0
	}
	if c.next >= len(c.frames) {
		return nil, ErrNoMoreFrames
	}

	frame := c.frames[c.next].Clone()
	c.next++
	c.reads++
	return &frame, nil
}

// SetFPS ignores non-positive rates.
func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

// SetResolution only records the request; frames are played back as given.
func (c *MockCamera) SetResolution(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.size = image.Pt(width, height)
}

// Resolution returns the last requested resolution.
func (c *MockCamera) Resolution() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size.X, c.size.Y
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Reads returns how many frames have been handed out.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}
