package capture

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/log"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const syntheticFontSize = 28.0

// SyntheticCamera renders a placeholder frame carrying a title and the
// current time. It stands in for a device on machines without a camera.
type SyntheticCamera struct {
	title   string
	width   int
	height  int
	fps     int
	now     func() time.Time
	mu      sync.Mutex
	running bool
	base    *image.RGBA
	face    font.Face
}

// NewSyntheticCamera creates a synthetic source at the default resolution.
func NewSyntheticCamera(title string) *SyntheticCamera {
	return &SyntheticCamera{
		title:  title,
		width:  DefaultWidth,
		height: DefaultHeight,
		fps:    DefaultFPS,
		now:    time.Now,
	}
}

func (c *SyntheticCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	ttf, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return err
	}
	c.face = truetype.NewFace(ttf, &truetype.Options{
		Size:    syntheticFontSize,
		Hinting: font.HintingFull,
	})
	c.base = gradient(c.width, c.height)
	c.running = true

	return nil
}

func (c *SyntheticCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.running = false
	c.base = nil
	if c.face != nil {
		err := c.face.Close()
		c.face = nil
		return err
	}
	return nil
}

// ReadFrame renders the next frame, paced to the configured FPS.
func (c *SyntheticCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}

	canvas := image.NewRGBA(c.base.Bounds())
	draw.Draw(canvas, canvas.Bounds(), c.base, image.Point{}, draw.Src)

	c.drawText(canvas, 10, c.height-60, c.title)
	c.drawText(canvas, 10, c.height-20, c.now().Format("2006-01-02 15:04:05.000"))

	mat, err := gocv.ImageToMatRGB(canvas)
	if err != nil {
		log.Error("unable to convert synthetic frame: %v", err)
		return nil, ErrReadFailed
	}

	time.Sleep(time.Second / time.Duration(c.fps))
	return &mat, nil
}

func (c *SyntheticCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *SyntheticCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

// SetResolution takes effect on the next Open.
func (c *SyntheticCamera) SetResolution(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width = width
	c.height = height
}

func (c *SyntheticCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *SyntheticCamera) drawText(canvas *image.RGBA, x, y int, text string) {
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.White,
		Face: c.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// gradient paints a dark diagonal wash so the placeholder is obviously not a
// dead feed.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(40 * x / w),
				G: uint8(20 + 40*y/h),
				B: uint8(60 + 60*(x+y)/(w+h)),
				A: 255,
			})
		}
	}
	return img
}
