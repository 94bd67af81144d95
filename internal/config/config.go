package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"uptech/internal/display"
	appLog "uptech/internal/log"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// LibraryConfig controls where libuptech.so comes from.
type LibraryConfig struct {
	// Path loads an installed module instead of the embedded one.
	Path string `yaml:"path" json:"path"`
	// TempDir is where the embedded module is extracted ("" = system temp).
	TempDir string `yaml:"temp_dir" json:"temp_dir"`
}

// DisplayConfig sets up the LCD at startup.
type DisplayConfig struct {
	// Direction is "horizontal" (128x64) or "vertical" (64x128).
	Direction string `yaml:"direction" json:"direction"`
	// Font is a font name such as "8x8" or "12x20".
	Font string `yaml:"font" json:"font"`
	// Splash draws a status screen after boot.
	Splash bool `yaml:"splash" json:"splash"`
}

// MPUConfig holds full-scale ranges applied after the DMP init.
// Zero keeps the module default (±8 g, ±2000 °/s).
type MPUConfig struct {
	AccelFSR int32  `yaml:"accel_fsr" json:"accel_fsr"`
	GyroFSR  uint32 `yaml:"gyro_fsr" json:"gyro_fsr"`
}

// IOConfig configures the digital header.
type IOConfig struct {
	// Modes, if set, is applied as a direction mask (bit i = channel i).
	Modes *uint8 `yaml:"modes,omitempty" json:"modes,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level daemon configuration.
type Config struct {
	// Listen is the HTTP listen address for the status API.
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Library LibraryConfig `yaml:"library" json:"library"`
	Display DisplayConfig `yaml:"display" json:"display"`
	MPU     MPUConfig     `yaml:"mpu" json:"mpu"`
	IO      IOConfig      `yaml:"io" json:"io"`

	// Sample is a cron spec (robfig/cron, "@every 10s" style descriptors
	// allowed) for periodic board sampling.
	Sample string `yaml:"sample" json:"sample"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen    = "127.0.0.1:8080"
	defaultLogLevel  = "info"
	defaultDirection = "horizontal"
	defaultFont      = "8x8"
	defaultSample    = "@every 10s"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   defaultListen,
		LogLevel: defaultLogLevel,
		Display: DisplayConfig{
			Direction: defaultDirection,
			Font:      defaultFont,
			Splash:    true,
		},
		Sample:    defaultSample,
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if _, err := display.ParseScreenDirection(c.Display.Direction); err != nil {
		if c.Display.Direction != "" {
			appLog.Warn("unknown display direction; using default", "direction", c.Display.Direction)
		}
		c.Display.Direction = defaultDirection
	}
	if _, err := display.ParseFontSize(c.Display.Font); err != nil {
		if c.Display.Font != "" {
			appLog.Warn("unknown display font; using default", "font", c.Display.Font)
		}
		c.Display.Font = defaultFont
	}
	if c.Sample == "" {
		c.Sample = defaultSample
	}
}

// Validate reports settings Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := cron.ParseStandard(c.Sample); err != nil {
		return fmt.Errorf("config: invalid sample schedule %q: %w", c.Sample, err)
	}
	return nil
}

// ScreenDirection returns the parsed display direction.
func (c *Config) ScreenDirection() display.ScreenDirection {
	d, err := display.ParseScreenDirection(c.Display.Direction)
	if err != nil {
		return display.Horizontal
	}
	return d
}

// FontSize returns the parsed display font.
func (c *Config) FontSize() display.FontSize {
	f, err := display.ParseFontSize(c.Display.Font)
	if err != nil {
		return display.Font8x8
	}
	return f
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults and validate
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".uptech-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
