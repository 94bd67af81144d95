package config

import (
	"os"
	"path/filepath"
	"testing"

	"uptech/internal/display"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "uptech.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Listen != defaultListen || cfg.Sample != defaultSample {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perms = %o, want 600", perm)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}
	if again.Display != cfg.Display {
		t.Errorf("reloaded display = %+v, want %+v", again.Display, cfg.Display)
	}
}

func TestLoadPartialFileNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uptech.yaml")
	yml := `
library:
  path: /opt/uptech/libuptech.so
display:
  direction: vertical
  font: 99x99
mpu:
  accel_fsr: 4
io:
  modes: 0x0f
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Library.Path != "/opt/uptech/libuptech.so" {
		t.Errorf("library path = %q", cfg.Library.Path)
	}
	if cfg.ScreenDirection() != display.Vertical {
		t.Errorf("direction = %s, want vertical", cfg.ScreenDirection())
	}
	if cfg.FontSize() != display.Font8x8 {
		t.Errorf("bad font must fall back to 8x8, got %s", cfg.FontSize())
	}
	if cfg.MPU.AccelFSR != 4 || cfg.MPU.GyroFSR != 0 {
		t.Errorf("mpu = %+v", cfg.MPU)
	}
	if cfg.IO.Modes == nil || *cfg.IO.Modes != 0x0f {
		t.Errorf("io modes = %v, want 0x0f", cfg.IO.Modes)
	}
	if cfg.Listen != defaultListen || cfg.LogLevel != defaultLogLevel || cfg.Sample != defaultSample {
		t.Errorf("defaults not filled: %+v", cfg)
	}
}

func TestLoadRejectsBadSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uptech.yaml")
	if err := os.WriteFile(path, []byte("sample: every now and then\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid sample schedule")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uptech.yaml")
	cfg := DefaultConfig()
	cfg.BasicAuth = &BasicAuthConfig{Username: "admin", Password: "secret"}
	cfg.MPU.GyroFSR = 500

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.BasicAuth == nil || *got.BasicAuth != *cfg.BasicAuth {
		t.Errorf("basic auth = %+v", got.BasicAuth)
	}
	if got.MPU.GyroFSR != 500 {
		t.Errorf("gyro fsr = %d, want 500", got.MPU.GyroFSR)
	}
}
