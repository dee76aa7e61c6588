// Package edsdk is the boundary with the vendor camera SDK. It describes the
// C API this module consumes as a Go interface so that the camera layer can
// run against the real library (build tag edsdk) or a substitute such as
// the in-memory fake.
package edsdk

// SDK is the subset of the vendor C API used by the camera layer.
//
// Every handle returned by GetCameraList, GetChildAtIndex, CreateFileStream,
// CreateMemoryStream and CreateImageRef carries one reference owned by the
// caller, which must be given back with Release.
type SDK interface {
	// Initialize prepares the library for use; Terminate undoes it.
	Initialize() error
	Terminate() error

	// Retain and Release adjust the reference count of h and return the
	// new count.
	Retain(h Handle) uint32
	Release(h Handle) uint32

	GetCameraList() (Handle, error)
	GetChildCount(h Handle) (int, error)
	GetChildAtIndex(h Handle, index int) (Handle, error)

	// GetPropertySize returns the declared data type and size of a property.
	GetPropertySize(h Handle, id PropertyID, param int32) (DataType, uint32, error)
	// GetPropertyData copies at most size bytes of property data.
	GetPropertyData(h Handle, id PropertyID, param int32, size uint32) ([]byte, error)

	OpenSession(camera Handle) error
	CloseSession(camera Handle) error

	GetDeviceInfo(camera Handle) (DeviceInfo, error)
	GetVolumeInfo(volume Handle) (VolumeInfo, error)
	GetDirectoryItemInfo(item Handle) (DirectoryItemInfo, error)

	CreateFileStream(path string, disposition FileCreateDisposition, access Access) (Handle, error)
	CreateMemoryStream(size uint64) (Handle, error)
	CreateImageRef(stream Handle) (Handle, error)

	// Download transfers the next size bytes of item into stream.
	Download(item Handle, size uint64, stream Handle) error
	DownloadCancel(item Handle) error
	DownloadComplete(item Handle) error
	DownloadThumbnail(item Handle, stream Handle) error

	SendStatusCommand(camera Handle, command StatusCommand, param int32) error
}
