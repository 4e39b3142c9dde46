package app

import "gocv.io/x/gocv"

// Quit keys checked by Window.
const (
	keyQuit   = 'q'
	keyEscape = 27
)

// Display shows annotated frames. Show reports whether the user asked to
// quit.
type Display interface {
	Show(frame *gocv.Mat) bool
	Close() error
}

// Window is a Display backed by an OpenCV HighGUI window.
type Window struct {
	window *gocv.Window
}

// NewWindow opens a window with the given title.
func NewWindow(title string) *Window {
	return &Window{window: gocv.NewWindow(title)}
}

// Show draws the frame and pumps window events for 1ms.
func (w *Window) Show(frame *gocv.Mat) bool {
	w.window.IMShow(*frame)
	key := w.window.WaitKey(1)
	return key == keyQuit || key == keyEscape
}

func (w *Window) Close() error {
	return w.window.Close()
}
