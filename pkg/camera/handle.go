package camera

import "github.com/eoscam/eoscam/pkg/edsdk"

// noCopy makes go vet's copylocks check flag ScopedHandle values that are
// copied instead of cloned.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// ScopedHandle owns one reference on an SDK handle and gives it back on
// Close. Use Clone to share the handle and Take to hand ownership on; a
// ScopedHandle must not be copied.
type ScopedHandle struct {
	_   noCopy
	sdk edsdk.SDK
	h   edsdk.Handle
}

// Retain acquires a new reference on h.
func Retain(sdk edsdk.SDK, h edsdk.Handle) *ScopedHandle {
	if !h.IsNull() {
		sdk.Retain(h)
	}
	return &ScopedHandle{sdk: sdk, h: h}
}

// Adopt takes ownership of a reference the SDK already handed to the
// caller, such as the handle returned by GetChildAtIndex.
func Adopt(sdk edsdk.SDK, h edsdk.Handle) *ScopedHandle {
	return &ScopedHandle{sdk: sdk, h: h}
}

// Handle returns the raw handle for passing to SDK calls.
func (s *ScopedHandle) Handle() edsdk.Handle { return s.h }

// IsNull reports whether s holds no handle.
func (s *ScopedHandle) IsNull() bool { return s.h.IsNull() }

// Clone returns a second owner of the same handle.
func (s *ScopedHandle) Clone() *ScopedHandle {
	return Retain(s.sdk, s.h)
}

// Take moves the reference into a new ScopedHandle and leaves s empty.
func (s *ScopedHandle) Take() *ScopedHandle {
	t := &ScopedHandle{sdk: s.sdk, h: s.h}
	s.h = 0
	return t
}

// Swap exchanges the handles owned by s and other.
func (s *ScopedHandle) Swap(other *ScopedHandle) {
	s.sdk, other.sdk = other.sdk, s.sdk
	s.h, other.h = other.h, s.h
}

// Close releases the reference. Later calls do nothing.
func (s *ScopedHandle) Close() {
	if s == nil || s.h.IsNull() {
		return
	}
	s.sdk.Release(s.h)
	s.h = 0
}
