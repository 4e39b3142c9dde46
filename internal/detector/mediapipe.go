package detector

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/log"
	"gocv.io/x/gocv"
)

const (
	serviceScript = "mediapipe_service.py"
	idleTimeout   = 30 * time.Second
	headerSize    = 12
)

// MediaPipeDetector runs hand landmark detection in a Python MediaPipe
// process. The process is started on the first Detect, stopped after
// idleTimeout without frames and restarted on demand.
type MediaPipeDetector struct {
	config     Config
	scriptPath string

	mu   sync.Mutex
	proc *serviceProcess
	idle *time.Timer
}

// NewMediaPipeDetector validates config and locates the service script. No
// process is started yet.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	if config.MaxHands < 1 {
		return nil, fmt.Errorf("max hands must be at least 1, got %d", config.MaxHands)
	}

	scriptPath := config.ScriptPath
	if scriptPath == "" {
		scriptPath = findMediaPipeScript()
	}
	if scriptPath == "" {
		return nil, fmt.Errorf("%s not found", serviceScript)
	}

	return &MediaPipeDetector{config: config, scriptPath: scriptPath}, nil
}

// Detect sends an RGB frame to the service and returns the hands it found,
// in the model's order.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if frame == nil || frame.Empty() {
		return nil, errors.New("detect: empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.proc == nil {
		proc, err := startService(d.pythonPath(), d.serviceArgs())
		if err != nil {
			return nil, err
		}
		d.proc = proc
	}

	line, err := d.proc.roundTrip(frame.Rows(), frame.Cols(), frame.Channels(), frame.ToBytes())
	if err != nil {
		// A half written request or a missing reply leaves the pipe out of
		// step, so the next Detect gets a fresh process.
		d.stopLocked()
		return nil, err
	}
	d.touch()

	return parseResponse(line)
}

// Close stops the service process if it is running.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

func (d *MediaPipeDetector) stopLocked() error {
	if d.idle != nil {
		d.idle.Stop()
		d.idle = nil
	}
	if d.proc == nil {
		return nil
	}
	err := d.proc.stop()
	d.proc = nil
	return err
}

// touch pushes back the idle shutdown.
func (d *MediaPipeDetector) touch() {
	if d.idle != nil {
		d.idle.Stop()
	}
	d.idle = time.AfterFunc(idleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		log.Debug("stopping idle mediapipe service")
		if err := d.stopLocked(); err != nil {
			log.Warn("mediapipe service exited: %v", err)
		}
	})
}

func (d *MediaPipeDetector) pythonPath() string {
	if d.config.PythonPath != "" {
		return d.config.PythonPath
	}
	if p := findVenvPython(); p != "" {
		return p
	}
	return "python3"
}

// serviceArgs builds the command line passing the model options through.
func (d *MediaPipeDetector) serviceArgs() []string {
	args := []string{
		d.scriptPath,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	}
	if d.config.StaticImageMode {
		args = append(args, "--static-image-mode")
	}
	return args
}

// writeFrame writes one request: rows, cols and channels as big-endian
// uint32 followed by the raw pixel bytes.
func writeFrame(w io.Writer, rows, cols, channels int, pixels []byte) error {
	if want := rows * cols * channels; len(pixels) != want {
		return fmt.Errorf("write frame: have %d bytes, want %d", len(pixels), want)
	}

	header := make([]byte, headerSize)
	binary.BigEndian.PutUint32(header[0:4], uint32(rows))
	binary.BigEndian.PutUint32(header[4:8], uint32(cols))
	binary.BigEndian.PutUint32(header[8:12], uint32(channels))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(pixels); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

func parseResponse(line []byte) ([]HandLandmarks, error) {
	var reply struct {
		Hands []jsonHand `json:"hands"`
		Error string     `json:"error,omitempty"`
	}
	if err := json.Unmarshal(line, &reply); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("mediapipe service: %s", reply.Error)
	}

	hands := make([]HandLandmarks, 0, len(reply.Hands))
	for _, h := range reply.Hands {
		hands = append(hands, h.toHandLandmarks())
	}
	return hands, nil
}

// searchDirs are the places the service script and its virtualenv are looked
// for: the working directory and its parents, next to the binary, then
// ~/.mudra.
func searchDirs() []string {
	dirs := []string{".", "..", "../.."}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".mudra"))
	}
	return dirs
}

func findMediaPipeScript() string {
	return firstExisting(searchDirs(), filepath.Join("scripts", serviceScript))
}

func findVenvPython() string {
	return firstExisting(searchDirs(), filepath.Join("venv", "bin", "python"))
}

// firstExisting returns the absolute path of rel under the first dir that
// has it.
func firstExisting(dirs []string, rel string) string {
	for _, dir := range dirs {
		p := filepath.Join(dir, rel)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}

// jsonHand is one hand of a service reply.
type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (h jsonHand) toHandLandmarks() HandLandmarks {
	lm := HandLandmarks{Handedness: h.Handedness, Score: h.Score}
	// Extra points are dropped, missing ones stay at the origin.
	for i, p := range h.Points {
		if i == NumLandmarks {
			break
		}
		lm.Points[i] = Point3D(p)
	}
	return lm
}
