// Package camera wraps the vendor SDK handles in owned Go values: a
// Connection owns the SDK lifetime and the camera list, a Camera keeps its
// session open until closed, and Volumes and Directories browse and
// download the files on a card.
//
// Every value returned by this package owns SDK references and must be
// closed. Values are not safe for concurrent use.
package camera

import (
	"log/slog"

	"github.com/eoscam/eoscam/pkg/edsdk"
	"github.com/eoscam/eoscam/pkg/errors"
)

// Connection owns one Initialize/Terminate cycle of the SDK and the camera
// list. Only one Connection may be open per process.
type Connection struct {
	sdk     edsdk.SDK
	cameras *CameraList
	closed  bool
}

// NewConnection initializes the SDK and snapshots the connected cameras.
func NewConnection(sdk edsdk.SDK) (*Connection, error) {
	if err := sdk.Initialize(); err != nil {
		slog.Error("sdk_initialize_failed", "error", err)
		return nil, sdkError("Failed to initialise the EDS SDK", err, "NewConnection")
	}

	cameras, err := newCameraList(sdk)
	if err != nil {
		if terr := sdk.Terminate(); terr != nil {
			slog.Warn("sdk_terminate_failed", "error", terr)
		}
		return nil, err
	}

	slog.Debug("sdk_initialized", "cameras", cameras.Len())
	return &Connection{sdk: sdk, cameras: cameras}, nil
}

// NumberOfCameras returns the number of cameras found when the connection
// was opened.
func (c *Connection) NumberOfCameras() int {
	return c.cameras.Len()
}

// SelectCamera opens camera index. The caller owns the result.
func (c *Connection) SelectCamera(index int) (*Camera, error) {
	return c.cameras.At(index)
}

// DeselectCamera closes cam, which must be the camera selected last.
func (c *Connection) DeselectCamera(cam *Camera) error {
	return c.cameras.Deselect(cam)
}

// Close closes the current camera and the camera list, then terminates the
// SDK. It is safe to call more than once.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	err := c.cameras.Close()
	if terr := c.sdk.Terminate(); terr != nil {
		slog.Error("sdk_terminate_failed", "error", terr)
		if err == nil {
			err = sdkError("Failed to terminate the EDS SDK", terr, "Close")
		}
	}
	return err
}

// CameraList is the snapshot of connected cameras taken when the
// connection was opened.
type CameraList struct {
	sdk     edsdk.SDK
	list    *ScopedHandle
	count   int
	current *Camera
}

func newCameraList(sdk edsdk.SDK) (*CameraList, error) {
	h, err := sdk.GetCameraList()
	if err != nil {
		slog.Error("camera_list_failed", "error", err)
		return nil, sdkError("Failed to get camera list", err, "CameraList")
	}
	list := Adopt(sdk, h)

	count, err := sdk.GetChildCount(list.Handle())
	if err != nil {
		list.Close()
		slog.Error("camera_list_count_failed", "error", err)
		return nil, sdkError("Failed to get camera list count", err, "CameraList")
	}
	return &CameraList{sdk: sdk, list: list, count: count}, nil
}

// Len returns the number of cameras in the list.
func (l *CameraList) Len() int { return l.count }

// At opens camera index and tracks it as the current camera. Each call
// returns a new Camera, so selecting the same index twice while the first
// is still open fails with a busy device.
func (l *CameraList) At(index int) (*Camera, error) {
	if index < 0 || index >= l.count {
		slog.Error("camera_select_failed", "index", index, "count", l.count)
		return nil, errors.OutOfRange("camera", index, l.count)
	}

	h, err := l.sdk.GetChildAtIndex(l.list.Handle(), index)
	if err != nil {
		slog.Error("camera_select_failed", "index", index, "error", err)
		return nil, sdkError("Failed to select camera", err, "At")
	}

	cam, err := newCamera(l.sdk, Adopt(l.sdk, h))
	if err != nil {
		return nil, err
	}
	l.current = cam
	slog.Debug("camera_selected", "index", index, "port", cam.conn.Port)
	return cam, nil
}

// Deselect closes cam if it is the current camera.
func (l *CameraList) Deselect(cam *Camera) error {
	if cam == nil || cam != l.current {
		return errors.NewSDKError("Failed to deselect camera", uint32(edsdk.InvalidParameter), "Deselect")
	}
	l.current = nil
	return cam.Close()
}

// Close closes the current camera, if any, and releases the list.
func (l *CameraList) Close() error {
	var err error
	if l.current != nil {
		err = l.current.Close()
		l.current = nil
	}
	l.list.Close()
	return err
}
