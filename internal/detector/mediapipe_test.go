package detector

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"gocv.io/x/gocv"
)

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	pixels := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

	if err := writeFrame(&buf, 2, 2, 3, pixels); err != nil {
		t.Fatalf("writeFrame() error = %v", err)
	}

	out := buf.Bytes()
	if len(out) != headerSize+len(pixels) {
		t.Fatalf("expected %d bytes, got %d", headerSize+len(pixels), len(out))
	}
	if rows := binary.BigEndian.Uint32(out[0:4]); rows != 2 {
		t.Errorf("rows = %d, want 2", rows)
	}
	if cols := binary.BigEndian.Uint32(out[4:8]); cols != 2 {
		t.Errorf("cols = %d, want 2", cols)
	}
	if ch := binary.BigEndian.Uint32(out[8:12]); ch != 3 {
		t.Errorf("channels = %d, want 3", ch)
	}
	if !bytes.Equal(out[headerSize:], pixels) {
		t.Error("pixel payload was altered")
	}
}

func TestWriteFrame_SizeMismatch(t *testing.T) {
	var buf bytes.Buffer

	if err := writeFrame(&buf, 2, 2, 3, []byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short pixel buffer")
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be written on error, got %d bytes", buf.Len())
	}
}

func TestParseResponse(t *testing.T) {
	t.Run("hands keep model order and handedness", func(t *testing.T) {
		line := `{"hands":[` +
			`{"points":[{"x":0.1,"y":0.2,"z":0.0},{"x":0.3,"y":0.4,"z":-0.1}],"handedness":"Left","score":0.91},` +
			`{"points":[{"x":0.5,"y":0.5,"z":0.0}],"handedness":"Right","score":0.88}]}` + "\n"

		hands, err := parseResponse([]byte(line))
		if err != nil {
			t.Fatalf("parseResponse() error = %v", err)
		}
		if len(hands) != 2 {
			t.Fatalf("expected 2 hands, got %d", len(hands))
		}
		if hands[0].Handedness != Left || hands[1].Handedness != Right {
			t.Errorf("handedness = %s,%s want Left,Right", hands[0].Handedness, hands[1].Handedness)
		}
		if hands[0].Points[1].X != 0.3 || hands[0].Points[1].Y != 0.4 {
			t.Errorf("point 1 = %+v, want (0.3, 0.4)", hands[0].Points[1])
		}
		if hands[1].Score != 0.88 {
			t.Errorf("score = %f, want 0.88", hands[1].Score)
		}
	})

	t.Run("no hands", func(t *testing.T) {
		hands, err := parseResponse([]byte(`{"hands":[]}`))
		if err != nil {
			t.Fatalf("parseResponse() error = %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected no hands, got %d", len(hands))
		}
	})

	t.Run("service error", func(t *testing.T) {
		_, err := parseResponse([]byte(`{"hands":[],"error":"bad frame"}`))
		if err == nil || !strings.Contains(err.Error(), "bad frame") {
			t.Fatalf("expected service error, got %v", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		if _, err := parseResponse([]byte(`{"hands":`)); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestJSONHand_TruncatesExtraPoints(t *testing.T) {
	h := jsonHand{Handedness: Right}
	for i := 0; i < NumLandmarks+5; i++ {
		h.Points = append(h.Points, jsonPoint{X: float64(i)})
	}

	lm := h.toHandLandmarks()
	if lm.Points[NumLandmarks-1].X != float64(NumLandmarks-1) {
		t.Errorf("last point X = %f, want %d", lm.Points[NumLandmarks-1].X, NumLandmarks-1)
	}
}

func TestNewMediaPipeDetector(t *testing.T) {
	t.Run("explicit script path", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ScriptPath = "/opt/mudra/mediapipe_service.py"

		d, err := NewMediaPipeDetector(cfg)
		if err != nil {
			t.Fatalf("NewMediaPipeDetector() error = %v", err)
		}

		args := d.serviceArgs()
		want := []string{
			"/opt/mudra/mediapipe_service.py",
			"--max-hands", "2",
			"--detection-confidence", "0.7",
			"--tracking-confidence", "0.7",
		}
		if strings.Join(args, " ") != strings.Join(want, " ") {
			t.Errorf("args = %v, want %v", args, want)
		}
	})

	t.Run("static image mode flag", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ScriptPath = "svc.py"
		cfg.StaticImageMode = true
		cfg.MaxHands = 1

		d, err := NewMediaPipeDetector(cfg)
		if err != nil {
			t.Fatalf("NewMediaPipeDetector() error = %v", err)
		}

		args := d.serviceArgs()
		if args[len(args)-1] != "--static-image-mode" {
			t.Errorf("expected --static-image-mode as last arg, got %v", args)
		}
		if args[2] != "1" {
			t.Errorf("expected max hands 1, got %s", args[2])
		}
	})

	t.Run("rejects zero max hands", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ScriptPath = "svc.py"
		cfg.MaxHands = 0

		if _, err := NewMediaPipeDetector(cfg); err == nil {
			t.Fatal("expected error for MaxHands 0")
		}
	})

	t.Run("close before start is a no-op", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ScriptPath = "svc.py"

		d, err := NewMediaPipeDetector(cfg)
		if err != nil {
			t.Fatalf("NewMediaPipeDetector() error = %v", err)
		}
		if err := d.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	t.Run("detect rejects nil frame", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ScriptPath = "svc.py"

		d, _ := NewMediaPipeDetector(cfg)
		if _, err := d.Detect(nil); err == nil {
			t.Fatal("expected error for nil frame")
		}
	})
}

// oneShotService answers a single 2x2 RGB frame and exits, standing in for
// mediapipe_service.py.
const oneShotService = `head -c 24 > /dev/null
echo '{"hands":[{"points":[{"x":0.5,"y":0.5,"z":0}],"handedness":"Left","score":0.9}]}'
`

func TestMediaPipeDetector_RestartsAfterServiceFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that starts a subprocess")
	}
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	script := filepath.Join(t.TempDir(), "service.sh")
	if err := os.WriteFile(script, []byte(oneShotService), 0755); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.PythonPath = "/bin/sh"
	cfg.ScriptPath = script
	d, err := NewMediaPipeDetector(cfg)
	if err != nil {
		t.Fatalf("NewMediaPipeDetector() error = %v", err)
	}
	defer d.Close()

	frame := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3)
	defer frame.Close()

	hands, err := d.Detect(&frame)
	if err != nil {
		t.Fatalf("first Detect() error = %v", err)
	}
	if len(hands) != 1 || hands[0].Handedness != Left {
		t.Fatalf("first Detect() = %+v", hands)
	}

	// The service has exited, so this one fails and drops the process.
	if _, err := d.Detect(&frame); err == nil {
		t.Fatal("second Detect() should fail against an exited service")
	}

	if _, err := d.Detect(&frame); err != nil {
		t.Fatalf("Detect() after restart error = %v", err)
	}
}
