package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"uptech/internal/adcio"
	"uptech/internal/config"
	"uptech/internal/display"
	appLog "uptech/internal/log"
	"uptech/internal/mpu"
	"uptech/internal/native"
	"uptech/internal/sampler"
	"uptech/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values; they override the config file.
type flagConfig struct {
	configPath string
	listen     string
	logLevel   string
	once       bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI flags override config file values if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.logLevel != "" {
		conf.LogLevel = flags.logLevel
	}
	level, err := appLog.ParseLevel(conf.LogLevel)
	if err != nil {
		appLog.Warn("unknown log level; using info", "log_level", conf.LogLevel)
	}
	appLog.SetLevel(level)

	appLog.Info("uptechd starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"library_path", conf.Library.Path,
		"display_direction", conf.Display.Direction,
		"display_font", conf.Display.Font,
		"sample", conf.Sample,
		"once", flags.once,
	)

	if err := native.Configure(
		native.WithLibraryPath(conf.Library.Path),
		native.WithTempDir(conf.Library.TempDir),
	); err != nil {
		appLog.Error("failed to configure native library", err)
		os.Exit(1)
	}

	// Default() panics on bootstrap or symbol mismatch; there is no
	// degraded mode without the vendor module.
	io := adcio.Default()
	motion := mpu.Default()
	screen := display.Default()

	if io.Open() < 0 {
		os.Exit(1)
	}
	defer io.Close()

	if conf.IO.Modes != nil {
		io.ApplyModes(*conf.IO.Modes)
	}

	var motionSrc sampler.Motion
	if motion.Open() == 0 {
		applyFSR(motion, conf.MPU)
		motionSrc = motion
	} else {
		appLog.Warn("continuing without motion data")
	}

	screen.Init(conf.ScreenDirection()).SetFontSize(conf.FontSize())
	defer screen.Close()
	if conf.Display.Splash {
		drawSplash(screen, conf)
	}
	if err := screen.Err(); err != nil {
		appLog.Error("display setup reported a failure", err)
	}

	smp := sampler.New(io, motionSrc)

	if flags.once {
		snap := smp.Sample()
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			appLog.Error("failed to write snapshot", err)
			os.Exit(1)
		}
		return
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := smp.Start(ctx, conf.Sample); err != nil {
		appLog.Error("failed to start sampler", err)
		os.Exit(1)
	}

	srv := web.NewServer(conf, io, screen, smp)
	if err := srv.Run(ctx); err != nil {
		appLog.Error("HTTP server failed", err)
		cancel()
	}

	// Blank the panel and LEDs before the deferred closes run.
	smp.Do(func() {
		screen.FillScreen(display.Black).Refresh().SetAllLEDsOff()
	})
	appLog.Info("uptechd exiting")
}

func applyFSR(m *mpu.MPU, c config.MPUConfig) {
	if c.AccelFSR != 0 {
		if ret := m.SetAccelFSR(c.AccelFSR); ret != 0 {
			appLog.Warn("accel full-scale range rejected", "fsr", c.AccelFSR, "ret", ret)
		}
	}
	if c.GyroFSR != 0 {
		if ret := m.SetGyroFSR(c.GyroFSR); ret != 0 {
			appLog.Warn("gyro full-scale range rejected", "fsr", c.GyroFSR, "ret", ret)
		}
	}
	appLog.Info("MPU full-scale range", "accel_g", m.AccelFSR(), "gyro_dps", m.GyroFSR())
}

func drawSplash(s *display.Screen, conf *config.Config) {
	w, h := s.Size()
	s.SetForeColor(display.White).
		SetBackColor(display.Black).
		DrawRoundFrame(0, 0, w-1, h-1, 4, display.GBlue).
		PutLine(0, " uptechd "+version).
		PutLine(1, " "+conf.Listen).
		SetAllLEDsSame(display.DarkGreen).
		Refresh()
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/uptech/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Take one sample, print it as JSON and exit")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [OPTIONS]\n\nUptech board daemon.\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	return cfg
}
