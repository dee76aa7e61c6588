//go:build !edsdk

package edsdk

import (
	"fmt"
	"runtime"
)

// Stub is the SDK used when the vendor library is not linked in. Every
// call fails; Retain and Release are no-ops.
type Stub struct{}

// Open returns the stub backend. Build with -tags edsdk to link the vendor
// library instead.
func Open() (SDK, error) {
	return &Stub{}, nil
}

func unsupported() error {
	return fmt.Errorf("edsdk not supported in this build (%s/%s, rebuild with -tags edsdk)", runtime.GOOS, runtime.GOARCH)
}

func (s *Stub) Initialize() error { return unsupported() }
func (s *Stub) Terminate() error  { return nil }

func (s *Stub) Retain(h Handle) uint32  { return 0 }
func (s *Stub) Release(h Handle) uint32 { return 0 }

func (s *Stub) GetCameraList() (Handle, error)      { return 0, unsupported() }
func (s *Stub) GetChildCount(h Handle) (int, error) { return 0, unsupported() }
func (s *Stub) GetChildAtIndex(h Handle, index int) (Handle, error) {
	return 0, unsupported()
}

func (s *Stub) GetPropertySize(h Handle, id PropertyID, param int32) (DataType, uint32, error) {
	return DataTypeUnknown, 0, unsupported()
}

func (s *Stub) GetPropertyData(h Handle, id PropertyID, param int32, size uint32) ([]byte, error) {
	return nil, unsupported()
}

func (s *Stub) OpenSession(camera Handle) error  { return unsupported() }
func (s *Stub) CloseSession(camera Handle) error { return unsupported() }

func (s *Stub) GetDeviceInfo(camera Handle) (DeviceInfo, error) {
	return DeviceInfo{}, unsupported()
}

func (s *Stub) GetVolumeInfo(volume Handle) (VolumeInfo, error) {
	return VolumeInfo{}, unsupported()
}

func (s *Stub) GetDirectoryItemInfo(item Handle) (DirectoryItemInfo, error) {
	return DirectoryItemInfo{}, unsupported()
}

func (s *Stub) CreateFileStream(path string, disposition FileCreateDisposition, access Access) (Handle, error) {
	return 0, unsupported()
}

func (s *Stub) CreateMemoryStream(size uint64) (Handle, error) { return 0, unsupported() }
func (s *Stub) CreateImageRef(stream Handle) (Handle, error)   { return 0, unsupported() }

func (s *Stub) Download(item Handle, size uint64, stream Handle) error { return unsupported() }
func (s *Stub) DownloadCancel(item Handle) error                       { return unsupported() }
func (s *Stub) DownloadComplete(item Handle) error                     { return unsupported() }
func (s *Stub) DownloadThumbnail(item Handle, stream Handle) error     { return unsupported() }

func (s *Stub) SendStatusCommand(camera Handle, command StatusCommand, param int32) error {
	return unsupported()
}
