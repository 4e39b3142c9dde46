// Package capture provides the frame sources: camera devices through GoCV
// (OpenCV), pre-recorded playback and a synthetic placeholder.
package capture

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ayusman/mudra/internal/log"
	"gocv.io/x/gocv"
)

// Settings requested from a device unless configured otherwise.
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")

	// ErrReadFailed is returned when the device yields no frame.
	ErrReadFailed = errors.New("failed to read frame from camera")
)

// Backend is the capture API hint handed to OpenCV.
type Backend gocv.VideoCaptureAPI

// Known capture backends.
const (
	BackendAny          = Backend(gocv.VideoCaptureAny)
	BackendDShow        = Backend(gocv.VideoCaptureDshow)
	BackendV4L2         = Backend(gocv.VideoCaptureV4L2)
	BackendMSMF         = Backend(gocv.VideoCaptureMSMF)
	BackendAVFoundation = Backend(gocv.VideoCaptureAVFoundation)
)

var backendNames = map[string]Backend{
	"":             BackendAny,
	"any":          BackendAny,
	"dshow":        BackendDShow,
	"v4l2":         BackendV4L2,
	"msmf":         BackendMSMF,
	"avfoundation": BackendAVFoundation,
}

// ParseBackend maps a config name to a Backend.
func ParseBackend(name string) (Backend, error) {
	b, ok := backendNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return BackendAny, fmt.Errorf("unknown capture backend %q", name)
	}
	return b, nil
}

// Camera defines the interface for frame sources. Frames are BGR and the
// caller owns (and must close) every Mat returned by ReadFrame.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	SetResolution(width, height int)
	IsOpen() bool
}

// cameraImpl reads from a capture device through OpenCV. Resolution and
// frame rate are requests; the driver may settle on something else.
type cameraImpl struct {
	deviceID int
	backend  Backend

	mu      sync.Mutex
	width   int
	height  int
	fps     int
	capture *gocv.VideoCapture
	running bool
}

// NewCamera creates a Camera for the given device index and backend hint,
// requesting DefaultWidth x DefaultHeight at DefaultFPS.
func NewCamera(deviceID int, backend Backend) Camera {
	return &cameraImpl{
		deviceID: deviceID,
		backend:  backend,
		width:    DefaultWidth,
		height:   DefaultHeight,
		fps:      DefaultFPS,
	}
}

// SetResolution changes the resolution requested on the next Open.
// Non-positive values are ignored.
func (c *cameraImpl) SetResolution(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.width = width
	c.height = height
}

// Open opens the device and applies the requested settings.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCaptureWithAPI(c.deviceID, gocv.VideoCaptureAPI(c.backend))
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.deviceID, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open camera %d: device not available", c.deviceID)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))
	log.Info("camera %d opened: %.0fx%.0f at %.0f fps (asked for %dx%d at %d)",
		c.deviceID,
		capture.Get(gocv.VideoCaptureFrameWidth),
		capture.Get(gocv.VideoCaptureFrameHeight),
		capture.Get(gocv.VideoCaptureFPS),
		c.width, c.height, c.fps)

	c.capture = capture
	c.running = true
	return nil
}

// Close releases the device. Closing a closed camera is a no-op.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.running = false
	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}

func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("camera %d: %w", c.deviceID, ErrReadFailed)
	}

	return &mat, nil
}

// SetFPS changes the requested frame rate, on the open device too.
// Non-positive values are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the requested frame rate.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
