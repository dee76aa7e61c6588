package camera

import (
	"log/slog"

	"github.com/eoscam/eoscam/pkg/edsdk"
	"github.com/eoscam/eoscam/pkg/errors"
)

// ConnectionInfo is how a camera is attached to the host.
type ConnectionInfo struct {
	Port        string
	Description string
}

// Camera is an opened camera. Its session stays open until Close.
type Camera struct {
	sdk     edsdk.SDK
	ref     *ScopedHandle
	conn    ConnectionInfo
	session *Session
	closed  bool
}

// newCamera takes ownership of ref. On failure ref is released and no
// session is left open.
func newCamera(sdk edsdk.SDK, ref *ScopedHandle) (*Camera, error) {
	info, err := sdk.GetDeviceInfo(ref.Handle())
	if err != nil {
		ref.Close()
		slog.Error("device_info_failed", "error", err)
		return nil, sdkError("Failed to get device info", err, "Camera")
	}

	session, err := OpenSession(sdk, ref)
	if err != nil {
		ref.Close()
		return nil, err
	}

	return &Camera{
		sdk:     sdk,
		ref:     ref,
		conn:    ConnectionInfo{Port: info.PortName, Description: info.DeviceDescription},
		session: session,
	}, nil
}

// ConnectionInfo returns the port and description read when the camera
// was opened.
func (c *Camera) ConnectionInfo() ConnectionInfo { return c.conn }

// CameraInfo reads the camera properties. Every call queries the camera.
func (c *Camera) CameraInfo() (*CameraInfo, error) {
	return readCameraInfo(Properties{SDK: c.sdk}, c.ref.Handle())
}

// VolumeCount returns the number of volumes the camera reports now.
func (c *Camera) VolumeCount() (int, error) {
	n, err := c.sdk.GetChildCount(c.ref.Handle())
	if err != nil {
		slog.Error("volume_count_failed", "error", err)
		return 0, sdkError("Failed to get child count", err, "VolumeCount")
	}
	return n, nil
}

// SelectVolume opens volume n. The caller owns the result.
func (c *Camera) SelectVolume(n int) (*Volume, error) {
	count, err := c.VolumeCount()
	if err != nil {
		return nil, err
	}
	if n < 0 || n >= count {
		return nil, errors.OutOfRange("volume", n, count)
	}

	h, err := c.sdk.GetChildAtIndex(c.ref.Handle(), n)
	if err != nil {
		slog.Error("volume_select_failed", "index", n, "error", err)
		return nil, sdkError("Failed to select volume", err, "SelectVolume")
	}
	return newVolume(c.sdk, Adopt(c.sdk, h))
}

// SetUIStatus locks the camera's own controls when enabled is true and
// unlocks them otherwise.
func (c *Camera) SetUIStatus(enabled bool) error {
	cmd := edsdk.StatusUIUnlock
	if enabled {
		cmd = edsdk.StatusUILock
	}
	if err := c.sdk.SendStatusCommand(c.ref.Handle(), cmd, 0); err != nil {
		slog.Error("ui_status_failed", "enabled", enabled, "error", err)
		return sdkError("Failed to set ui status", err, "SetUIStatus")
	}
	slog.Info("ui_status_set", "port", c.conn.Port, "locked", enabled)
	return nil
}

// Close closes the session and releases the camera. Later calls do
// nothing.
func (c *Camera) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.session.Close()
	c.ref.Close()
	return err
}
