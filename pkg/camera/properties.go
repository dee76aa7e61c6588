package camera

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/eoscam/eoscam/pkg/edsdk"
	"github.com/eoscam/eoscam/pkg/errors"
)

// stringBufferSize caps how much of a string property is copied.
const stringBufferSize = 2048

// Properties reads typed properties from camera and image handles. Every
// call queries the SDK; nothing is cached and no defaults are substituted.
type Properties struct {
	SDK edsdk.SDK
}

// sdkError converts an SDK failure into an SDKError carrying its code.
func sdkError(message string, err error, method string) error {
	code := edsdk.CodeOf(err)
	e := errors.NewSDKError(message, uint32(code), method)
	if code == edsdk.PropertiesUnavailable {
		e.WithCategory(errors.ErrPropertyUnavailable)
	}
	return e
}

// IsAvailable reports whether the property can be read. Unavailable and
// protected properties report false; any other failure is returned.
func (p Properties) IsAvailable(h edsdk.Handle, id edsdk.PropertyID) (bool, error) {
	_, _, err := p.SDK.GetPropertySize(h, id, 0)
	switch edsdk.CodeOf(err) {
	case edsdk.OK:
		return true, nil
	case edsdk.PropertiesUnavailable, edsdk.ProtectionViolation:
		return false, nil
	}
	return false, sdkError(fmt.Sprintf("Failed to read camera property metadata %d", id), err, "IsAvailable")
}

// EnsureType fails with ErrTypeMismatch when the declared type of the
// property is not want. It returns the declared size.
func (p Properties) EnsureType(want edsdk.DataType, id edsdk.PropertyID, h edsdk.Handle) (uint32, error) {
	got, size, err := p.SDK.GetPropertySize(h, id, 0)
	if err != nil {
		return 0, sdkError(fmt.Sprintf("Failed to read camera property metadata %d", id), err, "EnsureType")
	}
	if got != want {
		return 0, errors.NewSDKError(
			fmt.Sprintf("Invalid data type (%d) while reading camera property %d", uint32(got), id),
			uint32(edsdk.PropertiesMismatch), "EnsureType",
		).WithCategory(errors.ErrTypeMismatch)
	}
	return size, nil
}

func (p Properties) read(want edsdk.DataType, h edsdk.Handle, id edsdk.PropertyID, limit uint32, method string) ([]byte, error) {
	size, err := p.EnsureType(want, id, h)
	if err != nil {
		return nil, err
	}
	if limit > 0 && size > limit {
		size = limit
	}
	data, err := p.SDK.GetPropertyData(h, id, 0, size)
	if err != nil {
		return nil, sdkError(fmt.Sprintf("Failed to read camera property %d", id), err, method)
	}
	return data, nil
}

// String reads a NUL terminated string property.
func (p Properties) String(h edsdk.Handle, id edsdk.PropertyID) (string, error) {
	data, err := p.read(edsdk.DataTypeString, h, id, stringBufferSize, "String")
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data), nil
}

// Int32 reads a signed 32-bit property.
func (p Properties) Int32(h edsdk.Handle, id edsdk.PropertyID) (int32, error) {
	data, err := p.read(edsdk.DataTypeInt32, h, id, 4, "Int32")
	if err != nil {
		return 0, err
	}
	if len(data) < 4 {
		return 0, shortRead(id, len(data), "Int32")
	}
	return int32(binary.LittleEndian.Uint32(data)), nil
}

// Uint32 reads an unsigned 32-bit property.
func (p Properties) Uint32(h edsdk.Handle, id edsdk.PropertyID) (uint32, error) {
	data, err := p.read(edsdk.DataTypeUInt32, h, id, 4, "Uint32")
	if err != nil {
		return 0, err
	}
	if len(data) < 4 {
		return 0, shortRead(id, len(data), "Uint32")
	}
	return binary.LittleEndian.Uint32(data), nil
}

// Time reads a time property. The SDK stores wall clock fields without a
// zone; they are interpreted in the local zone.
func (p Properties) Time(h edsdk.Handle, id edsdk.PropertyID) (time.Time, error) {
	data, err := p.read(edsdk.DataTypeTime, h, id, edsdk.TimeSize, "Time")
	if err != nil {
		return time.Time{}, err
	}
	t, err := edsdk.DecodeTime(data, time.Local)
	if err != nil {
		return time.Time{}, shortRead(id, len(data), "Time")
	}
	return t, nil
}

func shortRead(id edsdk.PropertyID, n int, method string) error {
	return errors.NewSDKError(fmt.Sprintf("Short read of %d bytes for camera property %d", n, id),
		uint32(edsdk.InvalidLength), method)
}
