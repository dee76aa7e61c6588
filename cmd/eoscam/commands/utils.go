package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/eoscam/eoscam/internal/config"
	"github.com/eoscam/eoscam/pkg/camera"
	"github.com/eoscam/eoscam/pkg/edsdk"
	"github.com/eoscam/eoscam/pkg/edsdk/fake"
	"github.com/eoscam/eoscam/pkg/errors"
	"github.com/sirupsen/logrus"
)

// fsmLogger returns the logger handed to the FSM manager. It writes to
// stderr at the same level as the slog handler.
func fsmLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	if LogLevel.Level() <= slog.LevelDebug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// ensureDirectories creates all necessary directories for the application
func ensureDirectories(sqlitePath, fsmDBPath, outputDir string) error {
	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
		return errors.Wrap(err, "failed to create database directory")
	}

	// FSM and output directories are only needed for copy
	if fsmDBPath != "" {
		if err := os.MkdirAll(fsmDBPath, 0755); err != nil {
			return errors.Wrap(err, "failed to create FSM directory")
		}
	}
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return errors.Wrap(err, "failed to create output directory")
		}
	}

	return nil
}

// openSDK returns the simulated SDK when a fixture is configured and the
// vendor library otherwise.
func openSDK(cfg *config.Config) (edsdk.SDK, error) {
	if cfg.Simulate != "" {
		slog.Info("edsdk_open", "backend", "simulated", "fixture", cfg.Simulate)
		sdk, err := fake.LoadFixture(cfg.Simulate)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load camera fixture")
		}
		return sdk, nil
	}
	return edsdk.Open()
}

// openConnection connects to the SDK and fails when no camera is attached.
func openConnection(cfg *config.Config) (*camera.Connection, error) {
	sdk, err := openSDK(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := camera.NewConnection(sdk)
	if err != nil {
		return nil, err
	}
	if conn.NumberOfCameras() < 1 {
		conn.Close()
		return nil, fmt.Errorf("no cameras found")
	}
	return conn, nil
}

// selectCamera opens camera n, checking it against the connected count.
func selectCamera(conn *camera.Connection, n int) (*camera.Camera, error) {
	if n < 0 || n >= conn.NumberOfCameras() {
		return nil, fmt.Errorf("camera number %d out of range (0..%d)", n, conn.NumberOfCameras()-1)
	}
	return conn.SelectCamera(n)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "config load failed")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config invalid")
	}
	return cfg, nil
}
