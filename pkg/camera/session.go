package camera

import (
	"log/slog"

	"github.com/eoscam/eoscam/pkg/edsdk"
)

// Session keeps a camera session open until Close. A session over the null
// handle is a no-op.
type Session struct {
	sdk    edsdk.SDK
	camera edsdk.Handle
	open   bool
}

// OpenSession opens a session on camera. When the SDK refuses, the error
// is returned and no session exists to close.
func OpenSession(sdk edsdk.SDK, camera *ScopedHandle) (*Session, error) {
	s := &Session{sdk: sdk, camera: camera.Handle()}
	if s.camera.IsNull() {
		return s, nil
	}
	if err := sdk.OpenSession(s.camera); err != nil {
		slog.Error("session_open_failed", "camera", uintptr(s.camera), "error", err)
		return nil, sdkError("Failed to open session", err, "OpenSession")
	}
	s.open = true
	slog.Debug("session_opened", "camera", uintptr(s.camera))
	return s, nil
}

// IsOpen reports whether the session is open.
func (s *Session) IsOpen() bool { return s.open }

// Close closes the session once. It cannot be reopened.
func (s *Session) Close() error {
	if s == nil || !s.open {
		return nil
	}
	s.open = false
	if err := s.sdk.CloseSession(s.camera); err != nil {
		slog.Error("session_close_failed", "camera", uintptr(s.camera), "error", err)
		return sdkError("Failed to close session", err, "CloseSession")
	}
	slog.Debug("session_closed", "camera", uintptr(s.camera))
	return nil
}
