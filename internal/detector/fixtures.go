package detector

// UniformLandmarks returns a hand whose every landmark sits at (x, y).
func UniformLandmarks(handedness string, x, y float64) HandLandmarks {
	hand := HandLandmarks{Handedness: handedness, Score: 0.9}
	for i := range hand.Points {
		hand.Points[i] = Point3D{X: x, Y: y}
	}
	return hand
}

// ThumbsUpLandmarks is a right hand with the thumb raised and the other
// four fingers curled back towards the palm.
func ThumbsUpLandmarks() HandLandmarks {
	return HandLandmarks{
		Handedness: Right,
		Score:      0.95,
		Points: [NumLandmarks]Point3D{
			{0.50, 0.80, 0},
			// thumb, pointing up the image
			{0.55, 0.75, 0}, {0.58, 0.65, 0}, {0.58, 0.50, 0}, {0.58, 0.35, 0},
			// index..pinky: tip folded back below the PIP joint
			{0.55, 0.70, -0.02}, {0.55, 0.68, -0.05}, {0.52, 0.70, -0.04}, {0.50, 0.72, -0.02},
			{0.50, 0.68, -0.02}, {0.50, 0.66, -0.05}, {0.47, 0.68, -0.04}, {0.45, 0.70, -0.02},
			{0.45, 0.70, -0.02}, {0.45, 0.68, -0.05}, {0.42, 0.70, -0.04}, {0.40, 0.72, -0.02},
			{0.40, 0.72, -0.02}, {0.40, 0.70, -0.05}, {0.37, 0.72, -0.04}, {0.35, 0.74, -0.02},
		},
	}
}

// OpenPalmLandmarks is a right hand with all five fingers spread.
func OpenPalmLandmarks() HandLandmarks {
	return HandLandmarks{
		Handedness: Right,
		Score:      0.95,
		Points: [NumLandmarks]Point3D{
			{0.50, 0.80, 0},
			// thumb, out to the side
			{0.55, 0.75, 0.02}, {0.62, 0.70, 0.03}, {0.68, 0.65, 0.03}, {0.73, 0.60, 0.03},
			// index..pinky, extended upward
			{0.55, 0.68, 0}, {0.57, 0.55, 0}, {0.58, 0.45, 0}, {0.58, 0.35, 0},
			{0.50, 0.66, 0}, {0.50, 0.52, 0}, {0.50, 0.40, 0}, {0.50, 0.28, 0},
			{0.45, 0.68, 0}, {0.43, 0.55, 0}, {0.42, 0.45, 0}, {0.42, 0.35, 0},
			{0.40, 0.70, 0}, {0.37, 0.60, 0}, {0.35, 0.50, 0}, {0.34, 0.42, 0},
		},
	}
}

// Mirrored returns h reflected about the vertical centre line with the
// opposite handedness label.
func Mirrored(h HandLandmarks) HandLandmarks {
	out := h
	for i, p := range h.Points {
		out.Points[i].X = 1 - p.X
	}
	switch h.Handedness {
	case Left:
		out.Handedness = Right
	case Right:
		out.Handedness = Left
	}
	return out
}
