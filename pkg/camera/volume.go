package camera

import (
	"log/slog"

	"github.com/eoscam/eoscam/pkg/edsdk"
	"github.com/eoscam/eoscam/pkg/errors"
)

// StorageType is the kind of medium behind a volume.
type StorageType int

const (
	StorageNone StorageType = iota
	StorageCompactFlash
	StorageSDCard
	StorageHD
	StorageCFast
)

func (s StorageType) String() string {
	switch s {
	case StorageCompactFlash:
		return "Compact Flash"
	case StorageSDCard:
		return "SD Card"
	case StorageHD:
		return "HD"
	case StorageCFast:
		return "CFast"
	}
	return "None"
}

func storageTypeOf(t edsdk.StorageType) StorageType {
	switch t {
	case edsdk.StorageTypeCF:
		return StorageCompactFlash
	case edsdk.StorageTypeSD:
		return StorageSDCard
	case edsdk.StorageTypeHD:
		return StorageHD
	case edsdk.StorageTypeCFast:
		return StorageCFast
	}
	return StorageNone
}

// AccessType is what the host may do with a volume.
type AccessType int

const (
	AccessUnknown AccessType = iota
	AccessRead
	AccessWrite
	AccessReadWrite
)

func (a AccessType) String() string {
	switch a {
	case AccessRead:
		return "Read"
	case AccessWrite:
		return "Write"
	case AccessReadWrite:
		return "Read/Write"
	}
	return "Unknown"
}

func accessTypeOf(a edsdk.Access) AccessType {
	switch a {
	case edsdk.AccessRead:
		return AccessRead
	case edsdk.AccessWrite:
		return AccessWrite
	case edsdk.AccessReadWrite:
		return AccessReadWrite
	}
	return AccessUnknown
}

// imageRoot is the top-level folder holding image folders.
const imageRoot = "DCIM"

// Volume is a storage volume of a camera.
type Volume struct {
	sdk         edsdk.SDK
	ref         *ScopedHandle
	count       int
	maxCapacity uint64
	freeSpace   uint64
	label       string
	storageType StorageType
	access      AccessType
}

func newVolume(sdk edsdk.SDK, ref *ScopedHandle) (*Volume, error) {
	count, err := sdk.GetChildCount(ref.Handle())
	if err != nil {
		ref.Close()
		slog.Error("volume_count_failed", "error", err)
		return nil, sdkError("Failed to get volume directory count", err, "Volume")
	}

	info, err := sdk.GetVolumeInfo(ref.Handle())
	if err != nil {
		ref.Close()
		slog.Error("volume_info_failed", "error", err)
		return nil, sdkError("Failed to get volume info", err, "Volume")
	}

	return &Volume{
		sdk:         sdk,
		ref:         ref,
		count:       count,
		maxCapacity: info.MaxCapacity,
		freeSpace:   info.FreeSpaceInBytes,
		label:       info.VolumeLabel,
		storageType: storageTypeOf(info.StorageType),
		access:      accessTypeOf(info.Access),
	}, nil
}

// MaxCapacity is the volume size in bytes.
func (v *Volume) MaxCapacity() uint64 { return v.maxCapacity }

// FreeSpace is the number of free bytes when the volume was opened.
func (v *Volume) FreeSpace() uint64 { return v.freeSpace }

// Label is the volume label, e.g. "CF".
func (v *Volume) Label() string { return v.label }

// StorageType is the kind of card behind the volume.
func (v *Volume) StorageType() StorageType { return v.storageType }

// Access reports whether the host may read or write the volume.
func (v *Volume) Access() AccessType { return v.access }

// DirectoryCount returns the number of root entries the volume reports now.
func (v *Volume) DirectoryCount() (int, error) {
	n, err := v.sdk.GetChildCount(v.ref.Handle())
	if err != nil {
		return 0, sdkError("Failed to get volume directory count", err, "DirectoryCount")
	}
	return n, nil
}

// SelectDirectory opens root entry n. n is checked against the count read
// when the volume was opened.
func (v *Volume) SelectDirectory(n int) (*Directory, error) {
	if n < 0 || n >= v.count {
		slog.Error("directory_select_failed", "index", n, "count", v.count)
		return nil, errors.OutOfRange("directory entry", n, v.count)
	}
	return childDirectory(v.sdk, v.ref, n, "SelectDirectory")
}

// FindDirectory returns the root folder called name, or nil.
func (v *Volume) FindDirectory(name string) (*Directory, error) {
	return findFolder(v.count, v.SelectDirectory, name)
}

// FindMatchingFiles returns the files in DCIM/folder whose names match m.
// The result is empty when either folder is missing. The caller owns and
// must close every returned Directory.
func (v *Volume) FindMatchingFiles(folder string, m Matcher) ([]*Directory, error) {
	dcim, err := v.FindDirectory(imageRoot)
	if err != nil || dcim == nil {
		return nil, err
	}
	defer dcim.Close()

	images, err := dcim.FindDirectory(folder)
	if err != nil || images == nil {
		return nil, err
	}
	defer images.Close()

	var files []*Directory
	for i := 0; i < images.count; i++ {
		f, err := images.Entry(i)
		if err != nil {
			closeAll(files)
			return nil, err
		}
		if f.IsFolder() || !m.MatchString(f.Name()) {
			f.Close()
			continue
		}
		files = append(files, f)
	}
	return files, nil
}

// Close releases the volume.
func (v *Volume) Close() {
	v.ref.Close()
}

func closeAll(dirs []*Directory) {
	for _, d := range dirs {
		d.Close()
	}
}
