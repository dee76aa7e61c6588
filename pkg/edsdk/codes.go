package edsdk

import (
	"errors"
	"fmt"
)

// Code is an SDK status code. Non-zero codes returned from SDK methods
// satisfy error.
type Code uint32

const (
	OK Code = 0x00000000

	// Miscellaneous
	Unimplemented        Code = 0x00000001
	InternalError        Code = 0x00000002
	MemAllocFailed       Code = 0x00000003
	OperationCancelled   Code = 0x00000005
	NotSupported         Code = 0x00000007
	ProtectionViolation  Code = 0x00000009
	SelectionUnavailable Code = 0x0000000B

	// File access
	FileIOError            Code = 0x00000020
	FileNotFound           Code = 0x00000022
	FileOpenError          Code = 0x00000023
	FileWriteError         Code = 0x00000028
	FilePermissionError    Code = 0x00000029
	FileDiskFullError      Code = 0x0000002A
	FileAlreadyExists      Code = 0x0000002B
	FileFormatUnrecognized Code = 0x0000002C

	// Directory
	DirNotFound      Code = 0x00000040
	DirEntryNotFound Code = 0x00000042

	// Property
	PropertiesUnavailable Code = 0x00000050
	PropertiesMismatch    Code = 0x00000051
	PropertiesNotLoaded   Code = 0x00000053

	// Function parameters
	InvalidParameter Code = 0x00000060
	InvalidHandle    Code = 0x00000061
	InvalidPointer   Code = 0x00000062
	InvalidIndex     Code = 0x00000063
	InvalidLength    Code = 0x00000064

	// Device
	DeviceNotFound      Code = 0x00000080
	DeviceBusy          Code = 0x00000081
	DeviceInvalid       Code = 0x00000082
	DeviceInternalError Code = 0x00000085
	DeviceNoDisk        Code = 0x00000087
	DeviceDiskError     Code = 0x00000088

	// Stream
	StreamIOError    Code = 0x000000A0
	StreamWriteError Code = 0x000000A6

	// Communication
	CommPortInUse    Code = 0x000000C0
	CommDisconnected Code = 0x000000C1

	// PTP
	SessionNotOpen     Code = 0x00002003
	IncompleteTransfer Code = 0x00002007
)

var codeNames = map[Code]string{
	OK:                     "ok",
	Unimplemented:          "unimplemented",
	InternalError:          "internal error",
	MemAllocFailed:         "memory allocation failed",
	OperationCancelled:     "operation cancelled",
	NotSupported:           "not supported",
	ProtectionViolation:    "protection violation",
	SelectionUnavailable:   "selection unavailable",
	FileIOError:            "file i/o error",
	FileNotFound:           "file not found",
	FileOpenError:          "file open error",
	FileWriteError:         "file write error",
	FilePermissionError:    "file permission error",
	FileDiskFullError:      "disk full",
	FileAlreadyExists:      "file already exists",
	FileFormatUnrecognized: "file format unrecognized",
	DirNotFound:            "directory not found",
	DirEntryNotFound:       "directory entry not found",
	PropertiesUnavailable:  "properties unavailable",
	PropertiesMismatch:     "properties mismatch",
	PropertiesNotLoaded:    "properties not loaded",
	InvalidParameter:       "invalid parameter",
	InvalidHandle:          "invalid handle",
	InvalidPointer:         "invalid pointer",
	InvalidIndex:           "invalid index",
	InvalidLength:          "invalid length",
	DeviceNotFound:         "device not found",
	DeviceBusy:             "device busy",
	DeviceInvalid:          "device invalid",
	DeviceInternalError:    "device internal error",
	DeviceNoDisk:           "no disk",
	DeviceDiskError:        "disk error",
	StreamIOError:          "stream i/o error",
	StreamWriteError:       "stream write error",
	CommPortInUse:          "port in use",
	CommDisconnected:       "disconnected",
	SessionNotOpen:         "session not open",
	IncompleteTransfer:     "incomplete transfer",
}

func (c Code) Error() string {
	if name, ok := codeNames[c]; ok {
		return fmt.Sprintf("edsdk: %s (0x%X)", name, uint32(c))
	}
	return fmt.Sprintf("edsdk: error 0x%X", uint32(c))
}

// CodeOf extracts the status code carried by err. nil maps to OK and any
// error that is not a Code maps to InternalError.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return InternalError
}

// Err converts a raw status into an error, nil for OK.
func Err(status uint32) error {
	if Code(status) == OK {
		return nil
	}
	return Code(status)
}
