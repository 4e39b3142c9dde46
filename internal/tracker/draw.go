package tracker

import (
	"image"
	"image/color"

	"github.com/ayusman/mudra/internal/detector"
	"gocv.io/x/gocv"
)

// filled is the OpenCV thickness value for a filled shape.
const filled = -1

// Style controls how hands are drawn.
type Style struct {
	LandmarkColor   color.RGBA
	LandmarkRadius  int
	LandmarkThick   int
	ConnectionColor color.RGBA
	ConnectionThick int
	PositionColor   color.RGBA
	PositionRadius  int
}

// DefaultStyle mirrors the model's stock drawing: red points, light grey
// bones and large magenta position markers.
func DefaultStyle() Style {
	return Style{
		LandmarkColor:   color.RGBA{R: 255, G: 0, B: 0, A: 0},
		LandmarkRadius:  2,
		LandmarkThick:   2,
		ConnectionColor: color.RGBA{R: 224, G: 224, B: 224, A: 0},
		ConnectionThick: 2,
		PositionColor:   color.RGBA{R: 255, G: 0, B: 255, A: 0},
		PositionRadius:  10,
	}
}

func toPixel(p detector.Point3D, w, h int) image.Point {
	return image.Pt(int(p.X*float64(w)), int(p.Y*float64(h)))
}

// drawHand draws the skeleton first so the landmark points stay on top.
func drawHand(frame *gocv.Mat, hand *detector.HandLandmarks, s Style) {
	w, h := frame.Cols(), frame.Rows()

	for _, c := range detector.HandConnections {
		gocv.Line(frame,
			toPixel(hand.Points[c.From], w, h),
			toPixel(hand.Points[c.To], w, h),
			s.ConnectionColor, s.ConnectionThick)
	}

	for _, p := range hand.Points {
		gocv.Circle(frame, toPixel(p, w, h), s.LandmarkRadius, s.LandmarkColor, s.LandmarkThick)
	}
}

func drawPositions(frame *gocv.Mat, positions []Landmark, s Style) {
	for _, p := range positions {
		gocv.Circle(frame, image.Pt(p.X, p.Y), s.PositionRadius, s.PositionColor, filled)
	}
}
