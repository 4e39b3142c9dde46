// Package tracker holds the hand tracker: a stateful adapter over the
// landmark model that caches the latest detection and converts it to pixel
// positions on request.
package tracker

import (
	"errors"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

var (
	// ErrInvalidHandIndex is returned when a hand index is outside the
	// hands of the current detection.
	ErrInvalidHandIndex = errors.New("invalid hand index")

	// ErrNoHands is returned by Handedness when nothing is detected.
	ErrNoHands = errors.New("no hands detected")

	// ErrEmptyFrame is returned when DetectHands is given a nil or empty frame.
	ErrEmptyFrame = errors.New("empty frame")
)

// Landmark is one landmark of a hand in pixel coordinates of the frame it
// was computed against.
type Landmark struct {
	ID int `json:"id"`
	X  int `json:"x"`
	Y  int `json:"y"`
}

// Tracker owns the most recent detection result. It is not safe for
// concurrent use; the display loop is its only caller.
type Tracker struct {
	detector detector.Detector
	style    Style

	hands    []detector.HandLandmarks
	detected bool
	rgb      gocv.Mat
}

// Option customises a Tracker.
type Option func(*Tracker)

// WithStyle replaces the default overlay style.
func WithStyle(s Style) Option {
	return func(t *Tracker) {
		t.style = s
	}
}

// New creates a Tracker backed by the given landmark model.
func New(d detector.Detector, opts ...Option) *Tracker {
	t := &Tracker{
		detector: d,
		style:    DefaultStyle(),
		rgb:      gocv.NewMat(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// DetectHands runs the landmark model on a BGR frame and replaces the cached
// result. With draw set, every hand's landmarks and skeleton are drawn onto
// frame in place. The frame is returned with unchanged dimensions.
func (t *Tracker) DetectHands(frame *gocv.Mat, draw bool) (*gocv.Mat, error) {
	t.hands = nil
	t.detected = false

	if frame == nil || frame.Empty() {
		return frame, ErrEmptyFrame
	}

	gocv.CvtColor(*frame, &t.rgb, gocv.ColorBGRToRGB)

	hands, err := t.detector.Detect(&t.rgb)
	if err != nil {
		return frame, xerror.Errorf("detect hands: %w", err)
	}

	t.hands = hands
	t.detected = true

	if draw {
		for i := range t.hands {
			drawHand(frame, &t.hands[i], t.style)
		}
	}

	return frame, nil
}

// LandmarkPositions converts the landmarks of the hand at handIndex to pixel
// coordinates of frame, truncating toward zero. frame must have the
// dimensions of the frame last passed to DetectHands. It returns an empty
// slice when nothing has been detected and ErrInvalidHandIndex when
// handIndex does not select a detected hand. With draw set, a filled marker
// is drawn at every position.
func (t *Tracker) LandmarkPositions(frame *gocv.Mat, handIndex int, draw bool) ([]Landmark, error) {
	positions := []Landmark{}
	if len(t.hands) == 0 {
		return positions, nil
	}
	if err := t.checkIndex(handIndex); err != nil {
		return positions, err
	}
	if frame == nil || frame.Empty() {
		return positions, ErrEmptyFrame
	}

	w, h := frame.Cols(), frame.Rows()
	hand := &t.hands[handIndex]
	for id, lm := range hand.Points {
		positions = append(positions, Landmark{
			ID: id,
			X:  int(lm.X * float64(w)),
			Y:  int(lm.Y * float64(h)),
		})
	}

	if draw {
		drawPositions(frame, positions, t.style)
	}

	return positions, nil
}

// Handedness returns the label the model assigned to the hand at handIndex.
func (t *Tracker) Handedness(handIndex int) (string, error) {
	if len(t.hands) == 0 {
		return "", ErrNoHands
	}
	if err := t.checkIndex(handIndex); err != nil {
		return "", err
	}
	return t.hands[handIndex].Handedness, nil
}

// LastHandedness returns the label of the last hand in the model's reported
// order, or false when no hands are detected.
func (t *Tracker) LastHandedness() (string, bool) {
	if len(t.hands) == 0 {
		return "", false
	}
	return t.hands[len(t.hands)-1].Handedness, true
}

// NumHands returns the number of hands in the current result.
func (t *Tracker) NumHands() int {
	return len(t.hands)
}

// Detected reports whether the last DetectHands call reached the model
// successfully.
func (t *Tracker) Detected() bool {
	return t.detected
}

// Hands returns a copy of the current result.
func (t *Tracker) Hands() []detector.HandLandmarks {
	out := make([]detector.HandLandmarks, len(t.hands))
	copy(out, t.hands)
	return out
}

// Close releases the scratch buffer.
func (t *Tracker) Close() error {
	return t.rgb.Close()
}

func (t *Tracker) checkIndex(handIndex int) error {
	if handIndex < 0 || handIndex >= len(t.hands) {
		return xerror.Errorf("hand %d of %d: %w", handIndex, len(t.hands), ErrInvalidHandIndex)
	}
	return nil
}
