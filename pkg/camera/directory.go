package camera

import (
	"context"
	"log/slog"
	"time"

	"github.com/eoscam/eoscam/pkg/edsdk"
	"github.com/eoscam/eoscam/pkg/errors"
)

// downloadChunk is the number of bytes requested per Download call.
const downloadChunk = 1 << 20

// Directory is a folder or file on a volume.
type Directory struct {
	sdk      edsdk.SDK
	ref      *ScopedHandle
	size     uint64
	format   uint32
	name     string
	isFolder bool
	groupID  uint32
	count    int
}

func newDirectory(sdk edsdk.SDK, ref *ScopedHandle) (*Directory, error) {
	info, err := sdk.GetDirectoryItemInfo(ref.Handle())
	if err != nil {
		ref.Close()
		slog.Error("directory_item_info_failed", "error", err)
		return nil, sdkError("Failed to get directory item info", err, "Directory")
	}

	d := &Directory{
		sdk:      sdk,
		ref:      ref,
		size:     info.Size,
		format:   info.Format,
		name:     info.FileName,
		isFolder: info.IsFolder,
		groupID:  info.GroupID,
	}
	if d.isFolder {
		if d.count, err = sdk.GetChildCount(ref.Handle()); err != nil {
			ref.Close()
			slog.Error("directory_count_failed", "name", d.name, "error", err)
			return nil, sdkError("Failed to get directory folder item count", err, "Directory")
		}
	}
	return d, nil
}

// childDirectory opens child n of parent.
func childDirectory(sdk edsdk.SDK, parent *ScopedHandle, n int, method string) (*Directory, error) {
	h, err := sdk.GetChildAtIndex(parent.Handle(), n)
	if err != nil {
		slog.Error("directory_entry_failed", "index", n, "error", err)
		return nil, sdkError("Failed to get directory entry", err, method)
	}
	return newDirectory(sdk, Adopt(sdk, h))
}

// findFolder scans count entries for the first folder called name and
// closes every other entry it opens.
func findFolder(count int, entry func(int) (*Directory, error), name string) (*Directory, error) {
	for i := 0; i < count; i++ {
		d, err := entry(i)
		if err != nil {
			return nil, err
		}
		if d.IsFolder() && d.Name() == name {
			return d, nil
		}
		d.Close()
	}
	return nil, nil
}

// Size is the file size in bytes. Folders report 0.
func (d *Directory) Size() uint64 { return d.size }

// Format is the SDK object format code of the file.
func (d *Directory) Format() uint32 { return d.format }

// Name is the entry name without any path.
func (d *Directory) Name() string { return d.name }

// IsFolder reports whether the entry is a folder.
func (d *Directory) IsFolder() bool { return d.isFolder }

// GroupID links files taken as one shot, such as a RAW and JPEG pair.
func (d *Directory) GroupID() uint32 { return d.groupID }

// DirectoryCount returns the number of entries read when the folder was
// opened.
func (d *Directory) DirectoryCount() (int, error) {
	if !d.isFolder {
		return 0, errors.Wrap(errors.ErrNotAFolder, d.name)
	}
	return d.count, nil
}

// Entry opens entry n of the folder.
func (d *Directory) Entry(n int) (*Directory, error) {
	if !d.isFolder {
		return nil, errors.Wrap(errors.ErrNotAFolder, d.name)
	}
	if n < 0 || n >= d.count {
		slog.Error("directory_entry_out_of_range", "name", d.name, "index", n, "count", d.count)
		return nil, errors.OutOfRange("directory entry", n, d.count)
	}
	return childDirectory(d.sdk, d.ref, n, "Entry")
}

// FindDirectory returns the sub-folder called name, or nil when there is
// none. Calling it on a file is an error.
func (d *Directory) FindDirectory(name string) (*Directory, error) {
	if !d.isFolder {
		return nil, errors.Wrap(errors.ErrNotAFolder, d.name)
	}
	return findFolder(d.count, d.Entry, name)
}

// Timestamp returns the capture time embedded in the file's thumbnail.
// Folders and files without one return the zero time.
func (d *Directory) Timestamp() (time.Time, error) {
	if d.isFolder {
		return time.Time{}, nil
	}
	return thumbnailTimestamp(d.sdk, d.ref.Handle())
}

// DateTime is Timestamp formatted with DateTimeLayout, or "" when there
// is no timestamp.
func (d *Directory) DateTime() (string, error) {
	t, err := d.Timestamp()
	if err != nil || t.IsZero() {
		return "", err
	}
	return t.Format(DateTimeLayout), nil
}

// DownloadTo copies the file to dest, replacing any existing file. If the
// transfer fails or ctx is cancelled the SDK is told to cancel the
// download; otherwise it is told the download completed.
func (d *Directory) DownloadTo(ctx context.Context, dest string) error {
	h, err := d.sdk.CreateFileStream(dest, edsdk.CreateAlways, edsdk.AccessReadWrite)
	if err != nil {
		slog.Error("download_stream_failed", "dest", dest, "error", err)
		return sdkError("Failed to create target file", err, "DownloadTo")
	}
	stream := Adopt(d.sdk, h)
	defer stream.Close()

	if err := d.transfer(ctx, stream.Handle()); err != nil {
		if cerr := d.sdk.DownloadCancel(d.ref.Handle()); cerr != nil {
			slog.Warn("download_cancel_failed", "name", d.name, "error", cerr)
		}
		slog.Error("download_failed", "name", d.name, "dest", dest, "error", err)
		return err
	}

	if err := d.sdk.DownloadComplete(d.ref.Handle()); err != nil {
		slog.Error("download_complete_failed", "name", d.name, "error", err)
		return sdkError("Failed to complete download", err, "DownloadTo")
	}
	slog.Debug("download_completed", "name", d.name, "dest", dest, "bytes", d.size)
	return nil
}

func (d *Directory) transfer(ctx context.Context, stream edsdk.Handle) error {
	// the SDK expects one Download call even for an empty file
	if d.size == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.sdk.Download(d.ref.Handle(), 0, stream); err != nil {
			return sdkError("Failed to download file", err, "DownloadTo")
		}
		return nil
	}

	for done := uint64(0); done < d.size; {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(d.size-done, downloadChunk)
		if err := d.sdk.Download(d.ref.Handle(), n, stream); err != nil {
			return sdkError("Failed to download file", err, "DownloadTo")
		}
		done += n
	}
	return ctx.Err()
}

// Close releases the entry.
func (d *Directory) Close() {
	d.ref.Close()
}
