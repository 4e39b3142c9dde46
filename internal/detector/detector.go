package detector

import "gocv.io/x/gocv"

// Detector is the landmark model boundary. Implementations receive frames in
// RGB channel order.
type Detector interface {
	// Detect analyzes an RGB frame and returns the detected hands in model
	// order. Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds the landmark model options. They are fixed once the detector
// is constructed.
type Config struct {
	// StaticImageMode makes the model run full detection on every frame
	// instead of tracking hands across frames.
	StaticImageMode bool

	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// PythonPath and ScriptPath override interpreter and service discovery.
	PythonPath string
	ScriptPath string
}

// DefaultConfig returns a Config with the model's default values.
func DefaultConfig() Config {
	return Config{
		StaticImageMode: false,
		MaxHands:        2,
		MinConfidence:   0.7,
		MinTrackingConf: 0.7,
	}
}
