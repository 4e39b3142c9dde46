// Package gesture derives simple hand poses from pixel landmark positions.
package gesture

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/tracker"
	"gocv.io/x/gocv"
)

// ErrIncompleteHand is returned when fewer than all landmarks of a hand are
// supplied.
var ErrIncompleteHand = errors.New("incomplete hand")

// Finger indices into Fingers.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
)

var fingerTips = [5]int{detector.ThumbTip, detector.IndexTip, detector.MiddleTip, detector.RingTip, detector.PinkyTip}

// Fingers records which fingers are extended, thumb first.
type Fingers [5]bool

// Count returns the number of extended fingers.
func (f Fingers) Count() int {
	n := 0
	for _, up := range f {
		if up {
			n++
		}
	}
	return n
}

// FingersUp classifies each finger as extended or folded from the positions
// returned by tracker.LandmarkPositions. A finger is extended when its tip is
// above its PIP joint in image space. The thumb is extended when its tip is
// further from the pinky knuckle than its IP joint, which holds for either
// hand and for a mirrored image.
func FingersUp(positions []tracker.Landmark) (Fingers, error) {
	var f Fingers
	if len(positions) < detector.NumLandmarks {
		return f, ErrIncompleteHand
	}

	pinkyBase := positions[detector.PinkyMCP]
	f[Thumb] = Distance(positions[detector.ThumbTip], pinkyBase) > Distance(positions[detector.ThumbIP], pinkyBase)

	for finger := Index; finger <= Pinky; finger++ {
		tip := fingerTips[finger]
		f[finger] = positions[tip].Y < positions[tip-2].Y
	}

	return f, nil
}

// Distance returns the pixel distance between two landmarks.
func Distance(a, b tracker.Landmark) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Midpoint returns the pixel midway between two landmarks.
func Midpoint(a, b tracker.Landmark) image.Point {
	return image.Pt((a.X+b.X)/2, (a.Y+b.Y)/2)
}

// DrawDistance draws the segment between two landmarks with markers at both
// ends and the midpoint, and returns the segment length.
func DrawDistance(frame *gocv.Mat, a, b tracker.Landmark) float64 {
	magenta := color.RGBA{R: 255, G: 0, B: 255, A: 0}
	pa, pb := image.Pt(a.X, a.Y), image.Pt(b.X, b.Y)

	gocv.Line(frame, pa, pb, magenta, 3)
	gocv.Circle(frame, pa, 10, magenta, -1)
	gocv.Circle(frame, pb, 10, magenta, -1)
	gocv.Circle(frame, Midpoint(a, b), 8, color.RGBA{R: 0, G: 0, B: 255, A: 0}, -1)

	return Distance(a, b)
}
