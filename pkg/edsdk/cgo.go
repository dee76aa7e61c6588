//go:build edsdk

package edsdk

/*
#cgo darwin CFLAGS: -D__MACOS__
#cgo darwin LDFLAGS: -framework EDSDK
#cgo linux LDFLAGS: -lEDSDK
#include <stdlib.h>
#include "EDSDK.h"
*/
import "C"

import (
	"log/slog"
	"unsafe"
)

// Library is the SDK backed by the vendor C library. Set CGO_CFLAGS to the
// EDSDK header directory and CGO_LDFLAGS to the framework/library path
// when building with -tags edsdk.
type Library struct{}

// Open returns the vendor library backend.
func Open() (SDK, error) {
	slog.Info("edsdk_open", "backend", "vendor")
	return &Library{}, nil
}

func ptr(h Handle) unsafe.Pointer {
	return unsafe.Pointer(uintptr(h))
}

func handleOf(p unsafe.Pointer) Handle {
	return Handle(uintptr(p))
}

func (l *Library) Initialize() error {
	return Err(uint32(C.EdsInitializeSDK()))
}

func (l *Library) Terminate() error {
	return Err(uint32(C.EdsTerminateSDK()))
}

func (l *Library) Retain(h Handle) uint32 {
	return uint32(C.EdsRetain(C.EdsBaseRef(ptr(h))))
}

func (l *Library) Release(h Handle) uint32 {
	return uint32(C.EdsRelease(C.EdsBaseRef(ptr(h))))
}

func (l *Library) GetCameraList() (Handle, error) {
	var list C.EdsCameraListRef
	if err := Err(uint32(C.EdsGetCameraList(&list))); err != nil {
		return 0, err
	}
	return handleOf(unsafe.Pointer(list)), nil
}

func (l *Library) GetChildCount(h Handle) (int, error) {
	var count C.EdsUInt32
	if err := Err(uint32(C.EdsGetChildCount(C.EdsBaseRef(ptr(h)), &count))); err != nil {
		return 0, err
	}
	return int(count), nil
}

func (l *Library) GetChildAtIndex(h Handle, index int) (Handle, error) {
	var child C.EdsBaseRef
	if err := Err(uint32(C.EdsGetChildAtIndex(C.EdsBaseRef(ptr(h)), C.EdsInt32(index), &child))); err != nil {
		return 0, err
	}
	return handleOf(unsafe.Pointer(child)), nil
}

func (l *Library) GetPropertySize(h Handle, id PropertyID, param int32) (DataType, uint32, error) {
	var dataType C.EdsDataType
	var size C.EdsUInt32
	status := C.EdsGetPropertySize(C.EdsBaseRef(ptr(h)), C.EdsPropertyID(id), C.EdsInt32(param), &dataType, &size)
	if err := Err(uint32(status)); err != nil {
		return DataTypeUnknown, 0, err
	}
	return DataType(dataType), uint32(size), nil
}

func (l *Library) GetPropertyData(h Handle, id PropertyID, param int32, size uint32) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	buf := C.malloc(C.size_t(size))
	defer C.free(buf)

	status := C.EdsGetPropertyData(C.EdsBaseRef(ptr(h)), C.EdsPropertyID(id), C.EdsInt32(param), C.EdsUInt32(size), buf)
	if err := Err(uint32(status)); err != nil {
		return nil, err
	}
	return C.GoBytes(buf, C.int(size)), nil
}

func (l *Library) OpenSession(camera Handle) error {
	return Err(uint32(C.EdsOpenSession(C.EdsCameraRef(ptr(camera)))))
}

func (l *Library) CloseSession(camera Handle) error {
	return Err(uint32(C.EdsCloseSession(C.EdsCameraRef(ptr(camera)))))
}

func (l *Library) GetDeviceInfo(camera Handle) (DeviceInfo, error) {
	var info C.EdsDeviceInfo
	if err := Err(uint32(C.EdsGetDeviceInfo(C.EdsCameraRef(ptr(camera)), &info))); err != nil {
		return DeviceInfo{}, err
	}
	return DeviceInfo{
		PortName:          C.GoString(&info.szPortName[0]),
		DeviceDescription: C.GoString(&info.szDeviceDescription[0]),
		DeviceSubType:     uint32(info.deviceSubType),
	}, nil
}

func (l *Library) GetVolumeInfo(volume Handle) (VolumeInfo, error) {
	var info C.EdsVolumeInfo
	if err := Err(uint32(C.EdsGetVolumeInfo(C.EdsVolumeRef(ptr(volume)), &info))); err != nil {
		return VolumeInfo{}, err
	}
	return VolumeInfo{
		StorageType:      StorageType(info.storageType),
		Access:           Access(info.access),
		MaxCapacity:      uint64(info.maxCapacity),
		FreeSpaceInBytes: uint64(info.freeSpaceInBytes),
		VolumeLabel:      C.GoString(&info.szVolumeLabel[0]),
	}, nil
}

func (l *Library) GetDirectoryItemInfo(item Handle) (DirectoryItemInfo, error) {
	var info C.EdsDirectoryItemInfo
	if err := Err(uint32(C.EdsGetDirectoryItemInfo(C.EdsDirectoryItemRef(ptr(item)), &info))); err != nil {
		return DirectoryItemInfo{}, err
	}
	return DirectoryItemInfo{
		Size:     uint64(info.size),
		IsFolder: info.isFolder != 0,
		GroupID:  uint32(info.groupID),
		Option:   uint32(info.option),
		FileName: C.GoString(&info.szFileName[0]),
		Format:   uint32(info.format),
		DateTime: uint32(info.dateTime),
	}, nil
}

func (l *Library) CreateFileStream(path string, disposition FileCreateDisposition, access Access) (Handle, error) {
	name := C.CString(path)
	defer C.free(unsafe.Pointer(name))

	var stream C.EdsStreamRef
	status := C.EdsCreateFileStream((*C.EdsChar)(name), C.EdsFileCreateDisposition(disposition), C.EdsAccess(access), &stream)
	if err := Err(uint32(status)); err != nil {
		return 0, err
	}
	return handleOf(unsafe.Pointer(stream)), nil
}

func (l *Library) CreateMemoryStream(size uint64) (Handle, error) {
	var stream C.EdsStreamRef
	if err := Err(uint32(C.EdsCreateMemoryStream(C.EdsUInt64(size), &stream))); err != nil {
		return 0, err
	}
	return handleOf(unsafe.Pointer(stream)), nil
}

func (l *Library) CreateImageRef(stream Handle) (Handle, error) {
	var image C.EdsImageRef
	if err := Err(uint32(C.EdsCreateImageRef(C.EdsStreamRef(ptr(stream)), &image))); err != nil {
		return 0, err
	}
	return handleOf(unsafe.Pointer(image)), nil
}

func (l *Library) Download(item Handle, size uint64, stream Handle) error {
	status := C.EdsDownload(C.EdsDirectoryItemRef(ptr(item)), C.EdsUInt64(size), C.EdsStreamRef(ptr(stream)))
	return Err(uint32(status))
}

func (l *Library) DownloadCancel(item Handle) error {
	return Err(uint32(C.EdsDownloadCancel(C.EdsDirectoryItemRef(ptr(item)))))
}

func (l *Library) DownloadComplete(item Handle) error {
	return Err(uint32(C.EdsDownloadComplete(C.EdsDirectoryItemRef(ptr(item)))))
}

func (l *Library) DownloadThumbnail(item Handle, stream Handle) error {
	status := C.EdsDownloadThumbnail(C.EdsDirectoryItemRef(ptr(item)), C.EdsStreamRef(ptr(stream)))
	return Err(uint32(status))
}

func (l *Library) SendStatusCommand(camera Handle, command StatusCommand, param int32) error {
	status := C.EdsSendStatusCommand(C.EdsCameraRef(ptr(camera)), C.EdsCameraStatusCommand(command), C.EdsInt32(param))
	return Err(uint32(status))
}
