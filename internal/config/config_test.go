package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/spf13/afero"
)

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	orig := fs
	mem := afero.NewMemMapFs()
	fs = mem
	t.Cleanup(func() { fs = orig })
	return mem
}

func useHome(t *testing.T, dir string) {
	t.Helper()
	orig := userHomeDir
	userHomeDir = func() (string, error) { return dir, nil }
	t.Cleanup(func() { userHomeDir = orig })
}

func TestDefaultMatchesModelDefaults(t *testing.T) {
	is := is.New(t)
	cfg := Default()

	is.Equal(cfg.Detector.StaticImageMode, false)
	is.Equal(cfg.Detector.MaxHands, 2)
	is.Equal(cfg.Detector.DetectionConfidence, 0.7)
	is.Equal(cfg.Detector.TrackingConfidence, 0.7)
	is.Equal(cfg.Camera.Device, 0)
	is.NoErr(cfg.Validate())
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	is := is.New(t)
	mem := useMemFs(t)

	body := `
camera:
  device: 2
  backend: v4l2
detector:
  max_hands: 1
display:
  headless: true
`
	is.NoErr(afero.WriteFile(mem, "/etc/mudra.yaml", []byte(body), 0644))

	cfg, err := Load("/etc/mudra.yaml")
	is.NoErr(err)
	is.Equal(cfg.Camera.Device, 2)
	is.Equal(cfg.Camera.Backend, "v4l2")
	is.Equal(cfg.Camera.Width, 640)
	is.Equal(cfg.Detector.MaxHands, 1)
	is.Equal(cfg.Detector.DetectionConfidence, 0.7)
	is.True(cfg.Display.Headless)
	is.True(cfg.Display.DrawHands)
}

func TestLoadRejectsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "zero max hands", body: "detector:\n  max_hands: 0\n"},
		{name: "detection confidence above one", body: "detector:\n  detection_confidence: 1.5\n"},
		{name: "negative tracking confidence", body: "detector:\n  tracking_confidence: -0.1\n"},
		{name: "negative hand index", body: "display:\n  hand_index: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			mem := useMemFs(t)
			is.NoErr(afero.WriteFile(mem, "/cfg.yaml", []byte(tt.body), 0644))

			_, err := Load("/cfg.yaml")
			is.True(err != nil)
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	is := is.New(t)
	mem := useMemFs(t)
	is.NoErr(afero.WriteFile(mem, "/bad.yaml", []byte("camera: [unterminated"), 0644))

	_, err := Load("/bad.yaml")
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "parsing configuration error"))
}

func TestLoadMissingFile(t *testing.T) {
	is := is.New(t)
	useMemFs(t)

	_, err := Load("/nope.yaml")
	is.True(err != nil)
}

func TestResolvePrecedence(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		is := is.New(t)
		mem := useMemFs(t)
		t.Setenv(envConfigPath, "/env.yaml")
		is.NoErr(afero.WriteFile(mem, "/explicit.yaml", []byte("camera:\n  device: 3\n"), 0644))
		is.NoErr(afero.WriteFile(mem, "/env.yaml", []byte("camera:\n  device: 4\n"), 0644))

		cfg, path, err := Resolve("/explicit.yaml")
		is.NoErr(err)
		is.Equal(path, "/explicit.yaml")
		is.Equal(cfg.Camera.Device, 3)
	})

	t.Run("environment variable", func(t *testing.T) {
		is := is.New(t)
		mem := useMemFs(t)
		t.Setenv(envConfigPath, "/env.yaml")
		is.NoErr(afero.WriteFile(mem, "/env.yaml", []byte("camera:\n  device: 4\n"), 0644))

		cfg, path, err := Resolve("")
		is.NoErr(err)
		is.Equal(path, "/env.yaml")
		is.Equal(cfg.Camera.Device, 4)
	})

	t.Run("home directory file", func(t *testing.T) {
		is := is.New(t)
		mem := useMemFs(t)
		t.Setenv(envConfigPath, "")
		useHome(t, "/home/user")
		p := filepath.Join("/home/user", appDirName, configFileName)
		is.NoErr(afero.WriteFile(mem, p, []byte("log_level: debug\n"), 0644))

		cfg, path, err := Resolve("")
		is.NoErr(err)
		is.Equal(path, p)
		is.Equal(cfg.LogLevel, "debug")
	})

	t.Run("defaults when nothing exists", func(t *testing.T) {
		is := is.New(t)
		useMemFs(t)
		t.Setenv(envConfigPath, "")
		useHome(t, "/home/nobody")

		cfg, path, err := Resolve("")
		is.NoErr(err)
		is.Equal(path, "")
		is.Equal(cfg, Default())
	})
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Run("over the config file", func(t *testing.T) {
		is := is.New(t)
		mem := useMemFs(t)
		t.Setenv("MUDRA_CAMERA_DEVICE", "2")
		t.Setenv("MUDRA_SERVER_ADDR", ":9090")
		is.NoErr(afero.WriteFile(mem, "/c.yaml", []byte("camera:\n  device: 5\nlog_level: info\n"), 0644))

		cfg, err := Load("/c.yaml")
		is.NoErr(err)
		is.Equal(cfg.Camera.Device, 2)
		is.Equal(cfg.Server.Addr, ":9090")
		is.Equal(cfg.LogLevel, "info")
	})

	t.Run("over the defaults", func(t *testing.T) {
		is := is.New(t)
		useMemFs(t)
		t.Setenv(envConfigPath, "")
		useHome(t, "/home/nobody")
		t.Setenv("MUDRA_LOG_LEVEL", "debug")
		t.Setenv("MUDRA_RECORD_ENABLED", "true")

		cfg, _, err := Resolve("")
		is.NoErr(err)
		is.Equal(cfg.LogLevel, "debug")
		is.True(cfg.Record.Enabled)
	})

	t.Run("invalid value", func(t *testing.T) {
		is := is.New(t)
		mem := useMemFs(t)
		t.Setenv("MUDRA_CAMERA_DEVICE", "front")
		is.NoErr(afero.WriteFile(mem, "/c.yaml", []byte("{}\n"), 0644))

		_, err := Load("/c.yaml")
		is.True(err != nil)
	})

	t.Run("still validated", func(t *testing.T) {
		is := is.New(t)
		mem := useMemFs(t)
		t.Setenv("MUDRA_CAMERA_DEVICE", "-3")
		is.NoErr(afero.WriteFile(mem, "/c.yaml", []byte("{}\n"), 0644))

		_, err := Load("/c.yaml")
		is.True(err != nil)
	})
}

func TestRecordPath(t *testing.T) {
	is := is.New(t)
	useHome(t, "/home/user")

	cfg := Default()
	p, err := cfg.RecordPath()
	is.NoErr(err)
	is.Equal(p, filepath.Join("/home/user", appDirName, "sessions.db"))

	cfg.Record.Path = "/tmp/custom.db"
	p, err = cfg.RecordPath()
	is.NoErr(err)
	is.Equal(p, "/tmp/custom.db")
}
