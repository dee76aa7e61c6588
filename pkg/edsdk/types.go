package edsdk

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Handle identifies an SDK-managed object. The zero value is the null handle.
type Handle uintptr

// IsNull reports whether h is the null handle.
func (h Handle) IsNull() bool { return h == 0 }

// DataType is the declared type of a property.
type DataType uint32

const (
	DataTypeUnknown   DataType = 0
	DataTypeBool      DataType = 1
	DataTypeString    DataType = 2
	DataTypeInt8      DataType = 3
	DataTypeInt16     DataType = 4
	DataTypeUInt8     DataType = 6
	DataTypeUInt16    DataType = 7
	DataTypeInt32     DataType = 8
	DataTypeUInt32    DataType = 9
	DataTypeInt64     DataType = 10
	DataTypeUInt64    DataType = 11
	DataTypeFloat     DataType = 12
	DataTypeDouble    DataType = 13
	DataTypeByteBlock DataType = 14
	DataTypeRational  DataType = 20
	DataTypePoint     DataType = 21
	DataTypeRect      DataType = 22
	DataTypeTime      DataType = 23
)

var dataTypeNames = map[DataType]string{
	DataTypeUnknown:   "unknown",
	DataTypeBool:      "bool",
	DataTypeString:    "string",
	DataTypeInt8:      "int8",
	DataTypeInt16:     "int16",
	DataTypeUInt8:     "uint8",
	DataTypeUInt16:    "uint16",
	DataTypeInt32:     "int32",
	DataTypeUInt32:    "uint32",
	DataTypeInt64:     "int64",
	DataTypeUInt64:    "uint64",
	DataTypeFloat:     "float",
	DataTypeDouble:    "double",
	DataTypeByteBlock: "byte_block",
	DataTypeRational:  "rational",
	DataTypePoint:     "point",
	DataTypeRect:      "rect",
	DataTypeTime:      "time",
}

func (t DataType) String() string {
	if name, ok := dataTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("DataType(%d)", uint32(t))
}

// PropertyID identifies a property on a camera or image handle.
type PropertyID uint32

const (
	PropProductName     PropertyID = 0x00000002
	PropOwnerName       PropertyID = 0x00000004
	PropMakerName       PropertyID = 0x00000005
	PropDateTime        PropertyID = 0x00000006
	PropFirmwareVersion PropertyID = 0x00000007
	PropBatteryLevel    PropertyID = 0x00000008
	PropSaveTo          PropertyID = 0x0000000b
	PropCurrentStorage  PropertyID = 0x0000000c
	PropCurrentFolder   PropertyID = 0x0000000d
	PropBatteryQuality  PropertyID = 0x00000010
	PropBodyIDEx        PropertyID = 0x00000015
	PropLensName        PropertyID = 0x0000040d
	PropLensStatus      PropertyID = 0x00000416
	PropArtist          PropertyID = 0x00000418
	PropCopyright       PropertyID = 0x00000419
	PropAvailableShots  PropertyID = 0x0000050a
	PropUTCTime         PropertyID = 0x01000016
)

// StorageType is the medium reported for a volume.
type StorageType uint32

const (
	StorageTypeNone  StorageType = 0
	StorageTypeCF    StorageType = 1
	StorageTypeSD    StorageType = 2
	StorageTypeHD    StorageType = 4
	StorageTypeCFast StorageType = 5
)

// Access is a volume or stream access mode.
type Access uint32

const (
	AccessRead      Access = 0
	AccessWrite     Access = 1
	AccessReadWrite Access = 2
	AccessError     Access = 0xFFFFFFFF
)

// FileCreateDisposition controls how CreateFileStream treats existing files.
type FileCreateDisposition uint32

const (
	CreateNew        FileCreateDisposition = 0
	CreateAlways     FileCreateDisposition = 1
	OpenExisting     FileCreateDisposition = 2
	OpenAlways       FileCreateDisposition = 3
	TruncateExisting FileCreateDisposition = 4
)

// StatusCommand is sent with SendStatusCommand.
type StatusCommand uint32

const (
	StatusUILock   StatusCommand = 0
	StatusUIUnlock StatusCommand = 1
)

// MaxName is the size of the fixed name buffers in SDK structures.
const MaxName = 256

// DeviceInfo describes a connected camera.
type DeviceInfo struct {
	PortName          string
	DeviceDescription string
	DeviceSubType     uint32
}

// VolumeInfo describes a storage volume.
type VolumeInfo struct {
	StorageType      StorageType
	Access           Access
	MaxCapacity      uint64
	FreeSpaceInBytes uint64
	VolumeLabel      string
}

// DirectoryItemInfo describes a folder or file on a volume.
type DirectoryItemInfo struct {
	Size     uint64
	IsFolder bool
	GroupID  uint32
	Option   uint32
	FileName string
	Format   uint32
	DateTime uint32
}

// TimeSize is the encoded size of a DataTypeTime property.
const TimeSize = 28

// EncodeTime encodes t the way the SDK lays out its time structure: seven
// little endian uint32 values (year, month, day, hour, minute, second,
// milliseconds).
func EncodeTime(t time.Time) []byte {
	b := make([]byte, TimeSize)
	fields := []uint32{
		uint32(t.Year()), uint32(t.Month()), uint32(t.Day()),
		uint32(t.Hour()), uint32(t.Minute()), uint32(t.Second()),
		uint32(t.Nanosecond() / int(time.Millisecond)),
	}
	for i, f := range fields {
		binary.LittleEndian.PutUint32(b[i*4:], f)
	}
	return b
}

// DecodeTime is the inverse of EncodeTime. The result is in loc.
func DecodeTime(b []byte, loc *time.Location) (time.Time, error) {
	if len(b) < TimeSize {
		return time.Time{}, fmt.Errorf("time property too short: %d bytes", len(b))
	}
	f := func(i int) int { return int(binary.LittleEndian.Uint32(b[i*4:])) }
	return time.Date(f(0), time.Month(f(1)), f(2), f(3), f(4), f(5), f(6)*int(time.Millisecond), loc), nil
}
