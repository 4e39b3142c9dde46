// Package app drives the per-frame display loop: capture, hand tracking,
// frame rate overlay, display and publication of the results.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracker"
	"gocv.io/x/gocv"
)

// FPS overlay placement and style.
const (
	fpsScale     = 3
	fpsThickness = 3
)

var (
	fpsOrigin = image.Pt(10, 70)
	fpsColor  = color.RGBA{R: 255, G: 0, B: 255, A: 0}
)

// ErrFrameUnavailable is returned when the frame source yields no frame.
var ErrFrameUnavailable = errors.New("frame unavailable")

// Config holds configuration options for the display loop.
type Config struct {
	// DrawHands draws landmarks and connections for every detected hand.
	DrawHands bool
	// DrawPositions draws position markers for the hand at HandIndex.
	DrawPositions bool
	HandIndex     int
	ShowFPS       bool

	// CameraName labels recorded sessions.
	CameraName string

	// Optional sinks.
	Hub      *server.Hub
	Store    *store.Store
	OnResult func(*Result)
}

// HandResult is one tracked hand of a frame.
type HandResult struct {
	Index      int
	Handedness string
	Fingers    gesture.Fingers
	Landmarks  []tracker.Landmark
}

// Result is the outcome of one Step.
type Result struct {
	Seq        int64
	CapturedAt time.Time
	Width      int
	Height     int
	FPS        float64
	HasFPS     bool
	Hands      []HandResult
	// Quit is set when the display asked to stop.
	Quit bool
}

// App is the display loop.
type App struct {
	config   Config
	camera   capture.Camera
	tracker  *tracker.Tracker
	display  Display
	meter    *FPSMeter
	now      func() time.Time
	overlays atomic.Bool

	mu      sync.Mutex
	seq     int64
	session *store.Session
}

// New creates an App reading from camera and tracking with t. display may be
// nil for headless operation.
func New(config Config, camera capture.Camera, t *tracker.Tracker, display Display) *App {
	a := &App{
		config:  config,
		camera:  camera,
		tracker: t,
		display: display,
		meter:   NewFPSMeter(),
		now:     time.Now,
	}
	a.overlays.Store(true)
	return a
}

// SetDrawing turns all landmark overlays on or off. Safe for concurrent use.
func (a *App) SetDrawing(enabled bool) {
	a.overlays.Store(enabled)
}

// Drawing reports whether landmark overlays are on.
func (a *App) Drawing() bool {
	return a.overlays.Load()
}

// Tracker returns the hand tracker.
func (a *App) Tracker() *tracker.Tracker {
	return a.tracker
}

// Step runs one iteration of the loop. A frame acquisition failure is
// returned as ErrFrameUnavailable and nothing is processed. Detection
// failures are logged and the frame is treated as having no hands.
func (a *App) Step() (*Result, error) {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFrameUnavailable, err)
	}
	defer frame.Close()

	a.mu.Lock()
	a.seq++
	res := &Result{
		Seq:        a.seq,
		CapturedAt: a.now(),
		Width:      frame.Cols(),
		Height:     frame.Rows(),
	}
	a.mu.Unlock()

	overlays := a.overlays.Load()
	start := time.Now()
	if _, err := a.tracker.DetectHands(frame, overlays && a.config.DrawHands); err != nil {
		metrics.DetectionErrorsTotal.Inc()
		log.Warn("hand detection failed: %v", err)
	}
	metrics.DetectionDuration.Observe(time.Since(start).Seconds())

	for i := 0; i < a.tracker.NumHands(); i++ {
		draw := overlays && a.config.DrawPositions && i == a.config.HandIndex
		positions, err := a.tracker.LandmarkPositions(frame, i, draw)
		if err != nil {
			return nil, err
		}

		hand := HandResult{Index: i, Landmarks: positions}
		hand.Handedness, _ = a.tracker.Handedness(i)
		if hand.Fingers, err = gesture.FingersUp(positions); err != nil {
			log.Debug("hand %d: %v", i, err)
		}
		res.Hands = append(res.Hands, hand)
		metrics.HandsByLabelTotal.WithLabelValues(hand.Handedness).Inc()
	}
	metrics.FramesProcessedTotal.Inc()
	metrics.HandsDetected.Set(float64(len(res.Hands)))

	res.FPS, res.HasFPS = a.meter.Tick()
	if res.HasFPS {
		metrics.FramesPerSecond.Set(res.FPS)
		if a.config.ShowFPS {
			drawFPS(frame, res.FPS)
		}
	}

	if a.display != nil {
		res.Quit = a.display.Show(frame)
	}

	a.publish(frame, res)
	a.record(res)

	if a.config.OnResult != nil {
		a.config.OnResult(res)
	}

	return res, nil
}

// Run calls Step until ctx is cancelled, the display asks to quit or a
// frame cannot be acquired. Only the last case is reported as an error.
func (a *App) Run(ctx context.Context) error {
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := a.camera.Close(); err != nil {
			log.Error("closing camera: %v", err)
		}
	}()
	defer a.finishSession()

	a.meter.Reset()
	log.Info("display loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info("display loop stopped")
			return nil
		default:
		}

		res, err := a.Step()
		if err != nil {
			return err
		}
		if res.Quit {
			log.Info("quit requested from display")
			return nil
		}
	}
}

// Close releases the tracker and the display. The detector is owned by the
// caller.
func (a *App) Close() error {
	var errs []error
	if a.display != nil {
		errs = append(errs, a.display.Close())
	}
	errs = append(errs, a.tracker.Close())
	return errors.Join(errs...)
}

func drawFPS(frame *gocv.Mat, fps float64) {
	gocv.PutText(frame, strconv.Itoa(int(fps)), fpsOrigin, gocv.FontHersheyPlain, fpsScale, fpsColor, fpsThickness)
}

func (a *App) publish(frame *gocv.Mat, res *Result) {
	if a.config.Hub == nil {
		return
	}

	var jpeg []byte
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		log.Warn("encoding preview frame: %v", err)
	} else {
		jpeg = append([]byte(nil), buf.GetBytes()...)
		buf.Close()
	}

	if err := a.config.Hub.Publish(toUpdate(res), jpeg); err != nil {
		log.Warn("publishing update: %v", err)
	}
}

func (a *App) record(res *Result) {
	if a.config.Store == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		sess, err := a.config.Store.Sessions().Create(a.config.CameraName, res.Width, res.Height)
		if err != nil {
			log.Error("starting session: %v", err)
			return
		}
		log.Info("recording session %s", sess.ID)
		a.session = sess
	}

	if err := a.config.Store.Sessions().AppendFrame(a.session.ID, toFrameRecord(res)); err != nil {
		log.Error("recording frame %d: %v", res.Seq, err)
	}
}

func (a *App) finishSession() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		return
	}
	if err := a.config.Store.Sessions().Finish(a.session.ID); err != nil {
		log.Error("finishing session %s: %v", a.session.ID, err)
	}
	a.session = nil
}

// Session returns the session being recorded, if any.
func (a *App) Session() *store.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

func toUpdate(res *Result) server.Update {
	u := server.Update{
		Seq:       res.Seq,
		Timestamp: res.CapturedAt.UnixMilli(),
		FPS:       res.FPS,
		Width:     res.Width,
		Height:    res.Height,
		Hands:     make([]server.Hand, 0, len(res.Hands)),
	}
	for _, h := range res.Hands {
		u.Hands = append(u.Hands, server.Hand{
			Index:       h.Index,
			Handedness:  h.Handedness,
			Fingers:     h.Fingers[:],
			FingerCount: h.Fingers.Count(),
			Landmarks:   h.Landmarks,
		})
	}
	return u
}

func toFrameRecord(res *Result) *store.FrameRecord {
	f := &store.FrameRecord{
		Seq:        res.Seq,
		FPS:        res.FPS,
		CapturedAt: res.CapturedAt,
	}
	for _, h := range res.Hands {
		hr := store.HandRecord{
			Index:      h.Index,
			Handedness: h.Handedness,
			Landmarks:  make([]store.LandmarkRecord, 0, len(h.Landmarks)),
		}
		for _, lm := range h.Landmarks {
			hr.Landmarks = append(hr.Landmarks, store.LandmarkRecord{ID: lm.ID, X: lm.X, Y: lm.Y})
		}
		f.Hands = append(f.Hands, hr)
	}
	return f
}
