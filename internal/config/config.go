// Package config loads the mudra YAML configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/dealancer/validate.v2"
	"gopkg.in/yaml.v3"
)

const (
	appDirName     = ".mudra"
	configFileName = "config.yaml"
	envConfigPath  = "MUDRA_CONFIG"
	envPrefix      = "MUDRA_"
)

var fs = afero.NewOsFs()

// CameraConfig describes the frame source.
type CameraConfig struct {
	Device    int    `yaml:"device" env:"DEVICE" validate:"gte=0"`
	Backend   string `yaml:"backend" env:"BACKEND"` // any, dshow, v4l2, msmf, avfoundation
	Width     int    `yaml:"width" validate:"gte=1"`
	Height    int    `yaml:"height" validate:"gte=1"`
	FPS       int    `yaml:"fps" validate:"gte=1 & lte=120"`
	Synthetic bool   `yaml:"synthetic" env:"SYNTHETIC"` // placeholder frames instead of a device
}

// DetectorConfig holds the landmark model options.
type DetectorConfig struct {
	StaticImageMode     bool    `yaml:"static_image_mode"`
	MaxHands            int     `yaml:"max_hands" validate:"gte=1"`
	DetectionConfidence float64 `yaml:"detection_confidence" validate:"gte=0 & lte=1"`
	TrackingConfidence  float64 `yaml:"tracking_confidence" validate:"gte=0 & lte=1"`
	Python              string  `yaml:"python" env:"PYTHON"`
	Script              string  `yaml:"script" env:"SCRIPT"`
}

// DisplayConfig controls the display loop and its overlays.
type DisplayConfig struct {
	Window        string `yaml:"window"`
	Headless      bool   `yaml:"headless" env:"HEADLESS"`
	DrawHands     bool   `yaml:"draw_hands"`
	DrawPositions bool   `yaml:"draw_positions"`
	HandIndex     int    `yaml:"hand_index" validate:"gte=0"`
	ShowFPS       bool   `yaml:"show_fps"`
	Tray          bool   `yaml:"tray" env:"TRAY"`
}

// ServerConfig controls the live HTTP/WebSocket API.
type ServerConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Addr      string `yaml:"addr" env:"ADDR"`
	StaticDir string `yaml:"static_dir"`
}

// RecordConfig controls session recording to SQLite.
type RecordConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// Config aggregates all application configuration.
type Config struct {
	LogLevel string         `yaml:"log_level" env:"LOG_LEVEL"`
	Camera   CameraConfig   `yaml:"camera" envPrefix:"CAMERA_"`
	Detector DetectorConfig `yaml:"detector" envPrefix:"DETECTOR_"`
	Display  DisplayConfig  `yaml:"display" envPrefix:"DISPLAY_"`
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Record   RecordConfig   `yaml:"record" envPrefix:"RECORD_"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LogLevel: "warn",
		Camera: CameraConfig{
			Device:  0,
			Backend: "any",
			Width:   640,
			Height:  480,
			FPS:     30,
		},
		Detector: DetectorConfig{
			StaticImageMode:     false,
			MaxHands:            2,
			DetectionConfidence: 0.7,
			TrackingConfidence:  0.7,
		},
		Display: DisplayConfig{
			Window:        "Image",
			DrawHands:     true,
			DrawPositions: true,
			ShowFPS:       true,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads the YAML file at path on top of Default, applies MUDRA_*
// environment overrides and validates the result. Keys missing from the file
// keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to read config from %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parsing configuration error")
	}

	return finish(cfg)
}

// finish applies environment overrides such as MUDRA_CAMERA_DEVICE or
// MUDRA_SERVER_ADDR, then validates.
func finish(cfg Config) (Config, error) {
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, errors.Wrap(err, "unable to read environment overrides")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Resolve finds the configuration to use. An explicit path wins, then the
// MUDRA_CONFIG environment variable, then ~/.mudra/config.yaml. When none of
// those exist the defaults are returned along with an empty path.
func Resolve(explicit string) (Config, string, error) {
	if explicit != "" {
		cfg, err := Load(explicit)
		return cfg, explicit, err
	}

	if p := os.Getenv(envConfigPath); p != "" {
		cfg, err := Load(p)
		return cfg, p, err
	}

	home, err := userHomeDir()
	if err == nil {
		p := filepath.Join(home, appDirName, configFileName)
		if exists, _ := afero.Exists(fs, p); exists {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}

	cfg, err := finish(Default())
	return cfg, "", err
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if err := validate.Validate(&c); err != nil {
		return errors.Wrap(err, "unable to validate configuration")
	}
	return nil
}

// DataDir returns the directory mudra keeps its files in.
func DataDir() (string, error) {
	home, err := userHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "unable to resolve home directory")
	}
	return filepath.Join(home, appDirName), nil
}

// RecordPath returns the configured recording database path, defaulting to
// a file under DataDir.
func (c Config) RecordPath() (string, error) {
	if c.Record.Path != "" {
		return c.Record.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions.db"), nil
}

var userHomeDir = func() (string, error) {
	return os.UserHomeDir()
}
