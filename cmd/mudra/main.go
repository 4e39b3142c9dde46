package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracker"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default $MUDRA_CONFIG or ~/.mudra/config.yaml)")
	cameraID := flag.Int("camera", -1, "camera device index, overrides the config file")
	headless := flag.Bool("headless", false, "run without a preview window")
	serve := flag.Bool("serve", false, "enable the live HTTP/WebSocket API")
	record := flag.Bool("record", false, "record sessions to SQLite")
	flag.Parse()

	cfg, path, err := config.Resolve(*configPath)
	if err != nil {
		log.Fatal("unable to load configuration: %v", err)
	}

	log.SetLevel(cfg.LogLevel)

	if path != "" {
		log.Info("loaded configuration from %s", path)
	}

	if *cameraID >= 0 {
		cfg.Camera.Device = *cameraID
	}
	cfg.Display.Headless = cfg.Display.Headless || *headless
	cfg.Server.Enabled = cfg.Server.Enabled || *serve
	cfg.Record.Enabled = cfg.Record.Enabled || *record

	if err := run(cfg); err != nil {
		log.Fatal("%v", err)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	camera, cameraName, err := newCamera(cfg.Camera)
	if err != nil {
		return err
	}

	det := newDetector(cfg.Detector)
	defer func() {
		if err := det.Close(); err != nil {
			log.Error("closing detector: %v", err)
		}
	}()

	var st *store.Store
	if cfg.Record.Enabled {
		st, err = openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	var hub *server.Hub
	if cfg.Server.Enabled {
		hub = server.NewHub()
		srv := server.New(server.Config{
			Addr:      cfg.Server.Addr,
			StaticDir: staticDir(cfg.Server.StaticDir),
			Hub:       hub,
			Store:     st,
		})
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				log.Error("live API stopped: %v", err)
			}
		}()
	}

	var tr *tray.Tray
	if cfg.Display.Tray {
		tr = tray.New()
	}

	appCfg := app.Config{
		DrawHands:     cfg.Display.DrawHands,
		DrawPositions: cfg.Display.DrawPositions,
		HandIndex:     cfg.Display.HandIndex,
		ShowFPS:       cfg.Display.ShowFPS,
		CameraName:    cameraName,
		Hub:           hub,
		Store:         st,
	}
	if tr != nil {
		appCfg.OnResult = func(res *app.Result) {
			label := ""
			if n := len(res.Hands); n > 0 {
				label = res.Hands[n-1].Handedness
			}
			tr.SetStatus(len(res.Hands), label, res.FPS)
		}
	}

	var display app.Display
	if !cfg.Display.Headless {
		display = app.NewWindow(cfg.Display.Window)
	}

	a := app.New(appCfg, camera, tracker.New(det), display)
	defer a.Close()

	if tr == nil {
		return a.Run(ctx)
	}

	// The tray owns the main thread; the loop runs beside it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	tr.OnToggle(a.SetDrawing)
	tr.OnQuit(cancel)

	errCh := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		errCh <- a.Run(ctx)
		tr.Quit()
	}()

	tr.Run()
	cancel()
	return <-errCh
}

func newCamera(cfg config.CameraConfig) (capture.Camera, string, error) {
	var cam capture.Camera
	name := fmt.Sprintf("camera %d", cfg.Device)

	if cfg.Synthetic {
		cam = capture.NewSyntheticCamera("mudra " + name + " (synthetic)")
		name += " (synthetic)"
	} else {
		backend, err := capture.ParseBackend(cfg.Backend)
		if err != nil {
			return nil, "", err
		}
		cam = capture.NewCamera(cfg.Device, backend)
	}

	cam.SetResolution(cfg.Width, cfg.Height)
	cam.SetFPS(cfg.FPS)
	return cam, name, nil
}

// newDetector prefers the MediaPipe service and falls back to a detector
// that never finds hands.
func newDetector(cfg config.DetectorConfig) detector.Detector {
	mp, err := detector.NewMediaPipeDetector(detector.Config{
		StaticImageMode: cfg.StaticImageMode,
		MaxHands:        cfg.MaxHands,
		MinConfidence:   cfg.DetectionConfidence,
		MinTrackingConf: cfg.TrackingConfidence,
		PythonPath:      cfg.Python,
		ScriptPath:      cfg.Script,
	})
	if err != nil {
		log.Warn("MediaPipe not available (%v), using mock detector", err)
		return detector.NewMockDetector()
	}

	log.Info("using MediaPipe hand detection")
	return mp
}

func openStore(cfg config.Config) (*store.Store, error) {
	dbPath, err := cfg.RecordPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(dbPath)
	if err != nil {
		return nil, err
	}
	log.Info("recording sessions to %s", dbPath)
	return st, nil
}

// staticDir returns the configured static directory, or the first web
// directory found next to the binary's working directory or under
// ~/.mudra/web.
func staticDir(configured string) string {
	if configured != "" {
		return configured
	}

	candidates := []string{"web", "../web", "../../web"}
	if dir, err := config.DataDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "web"))
	}

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
