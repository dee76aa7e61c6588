package camera

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/eoscam/eoscam/pkg/edsdk"
	"github.com/eoscam/eoscam/pkg/edsdk/fake"
	"github.com/eoscam/eoscam/pkg/errors"
)

func TestDirectory_Entries(t *testing.T) {
	r := newRig(t)
	images, done := openImages(t, r)

	if n, err := images.DirectoryCount(); err != nil || n != 5 {
		t.Fatalf("DirectoryCount = %d, %v; want 5", n, err)
	}
	if _, err := images.Entry(5); !errors.Is(err, errors.ErrOutOfRange) {
		t.Fatalf("Entry(5): err = %v, want out of range", err)
	}

	f, err := images.Entry(0)
	if err != nil {
		t.Fatalf("Entry(0): %v", err)
	}
	if f.Name() != "IMG_7321.JPG" || f.IsFolder() || f.Size() != 9 || f.Format() != 0x3801 || f.GroupID() != 7 {
		t.Errorf("entry 0 = %q folder=%v size=%d format=%x group=%d",
			f.Name(), f.IsFolder(), f.Size(), f.Format(), f.GroupID())
	}

	if _, err := f.DirectoryCount(); !errors.Is(err, errors.ErrNotAFolder) {
		t.Errorf("DirectoryCount on file: err = %v", err)
	}
	if _, err := f.Entry(0); !errors.Is(err, errors.ErrNotAFolder) {
		t.Errorf("Entry on file: err = %v", err)
	}
	if _, err := f.FindDirectory("x"); !errors.Is(err, errors.ErrNotAFolder) {
		t.Errorf("FindDirectory on file: err = %v", err)
	}
	f.Close()

	sub, err := images.FindDirectory("IMG_7329")
	if err != nil || sub == nil {
		t.Fatalf("FindDirectory(IMG_7329) = %v, %v", sub, err)
	}
	sub.Close()
	if sub, err := images.FindDirectory("IMG_7321.JPG"); err != nil || sub != nil {
		t.Fatalf("FindDirectory matched a file: %v, %v", sub, err)
	}

	done()
	r.assertReleased(t)
}

func TestDirectory_Timestamp(t *testing.T) {
	r := newRig(t)
	f, done := openFile(t, r, "IMG_7321.JPG")

	ts, err := f.Timestamp()
	if err != nil || !ts.Equal(shotTime) {
		t.Fatalf("Timestamp = %v, %v; want %v", ts, err, shotTime)
	}
	if s, err := f.DateTime(); err != nil || s != "31-Jan-2021 10:11:12" {
		t.Fatalf("DateTime = %q, %v", s, err)
	}

	done()
	r.assertReleased(t)
}

func TestDirectory_TimestampMissing(t *testing.T) {
	r := newRig(t)
	f, done := openFile(t, r, "big.mov")
	defer done()

	ts, err := f.Timestamp()
	if err != nil || !ts.IsZero() {
		t.Fatalf("Timestamp = %v, %v; want zero", ts, err)
	}
	if s, err := f.DateTime(); err != nil || s != "" {
		t.Fatalf("DateTime = %q, %v", s, err)
	}
}

func TestDirectory_TimestampFolder(t *testing.T) {
	r := newRig(t)
	images, done := openImages(t, r)
	defer done()

	ts, err := images.Timestamp()
	if err != nil || !ts.IsZero() {
		t.Fatalf("Timestamp = %v, %v; want zero", ts, err)
	}
}

func TestDirectory_DownloadTo(t *testing.T) {
	r := newRig(t)
	f, done := openFile(t, r, "IMG_7321.JPG")
	dest := filepath.Join(t.TempDir(), "IMG_7321.JPG")

	if err := f.DownloadTo(context.Background(), dest); err != nil {
		t.Fatalf("DownloadTo: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "jpeg data" {
		t.Fatalf("content = %q", data)
	}

	node := r.files["IMG_7321.JPG"]
	if node.Cancels() != 0 || node.Completes() != 1 {
		t.Fatalf("cancels=%d completes=%d, want 0/1", node.Cancels(), node.Completes())
	}

	done()
	r.assertReleased(t)
}

func TestDirectory_DownloadChunks(t *testing.T) {
	r := newRig(t)
	f, done := openFile(t, r, "big.mov")
	dest := filepath.Join(t.TempDir(), "big.mov")

	if err := f.DownloadTo(context.Background(), dest); err != nil {
		t.Fatalf("DownloadTo: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(data, make([]byte, 5<<19)) {
		t.Fatalf("content mismatch: %d bytes", len(data))
	}

	node := r.files["big.mov"]
	if node.Downloads() != 3 || node.Completes() != 1 {
		t.Fatalf("downloads=%d completes=%d, want 3/1", node.Downloads(), node.Completes())
	}

	done()
	r.assertReleased(t)
}

func TestDirectory_DownloadFails(t *testing.T) {
	r := newRig(t)
	node := r.files["IMG_7321.JPG"]
	node.FailDownloadAfter(4, edsdk.CommDisconnected)
	f, done := openFile(t, r, "IMG_7321.JPG")

	err := f.DownloadTo(context.Background(), filepath.Join(t.TempDir(), "out.jpg"))
	var sdkErr *errors.SDKError
	if !errors.As(err, &sdkErr) || sdkErr.Code != uint32(edsdk.CommDisconnected) {
		t.Fatalf("DownloadTo: err = %v, want disconnected", err)
	}
	if node.Cancels() != 1 || node.Completes() != 0 {
		t.Fatalf("cancels=%d completes=%d, want 1/0", node.Cancels(), node.Completes())
	}

	done()
	r.assertReleased(t)
}

func TestDirectory_DownloadCancelled(t *testing.T) {
	r := newRig(t)
	f, done := openFile(t, r, "IMG_7321.JPG")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := f.DownloadTo(ctx, filepath.Join(t.TempDir(), "out.jpg"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("DownloadTo: err = %v, want context.Canceled", err)
	}

	node := r.files["IMG_7321.JPG"]
	if node.Downloads() != 0 || node.Cancels() != 1 || node.Completes() != 0 {
		t.Fatalf("downloads=%d cancels=%d completes=%d", node.Downloads(), node.Cancels(), node.Completes())
	}

	done()
	r.assertReleased(t)
}

func TestDirectory_DownloadStreamFails(t *testing.T) {
	r := newRig(t)
	f, done := openFile(t, r, "IMG_7321.JPG")
	defer done()

	err := f.DownloadTo(context.Background(), filepath.Join(t.TempDir(), "missing", "out.jpg"))
	if !errors.IsSDKError(err) {
		t.Fatalf("DownloadTo: err = %v, want SDK error", err)
	}
	node := r.files["IMG_7321.JPG"]
	if node.Downloads() != 0 || node.Cancels() != 0 {
		t.Fatalf("downloads=%d cancels=%d", node.Downloads(), node.Cancels())
	}
}

func TestDirectory_DownloadEmptyFile(t *testing.T) {
	s := fake.New()
	cam := s.AddCamera("Port 0", "Test", fake.CameraSpec{ProductName: "Canon EOS R5"})
	vol := cam.AddVolume(edsdk.VolumeInfo{StorageType: edsdk.StorageTypeSD, VolumeLabel: "SD"})
	node := vol.AddFile(fake.FileSpec{Name: "EMPTY.JPG"})

	conn := openConnection(t, s)
	defer conn.Close()
	c, err := conn.SelectCamera(0)
	if err != nil {
		t.Fatalf("SelectCamera: %v", err)
	}
	defer c.Close()
	v, err := c.SelectVolume(0)
	if err != nil {
		t.Fatalf("SelectVolume: %v", err)
	}
	defer v.Close()
	f, err := v.SelectDirectory(0)
	if err != nil {
		t.Fatalf("SelectDirectory: %v", err)
	}
	defer f.Close()

	dest := filepath.Join(t.TempDir(), "EMPTY.JPG")
	if err := f.DownloadTo(context.Background(), dest); err != nil {
		t.Fatalf("DownloadTo: %v", err)
	}
	if info, err := os.Stat(dest); err != nil || info.Size() != 0 {
		t.Fatalf("Stat = %v, %v; want empty file", info, err)
	}
	if node.Downloads() != 1 || node.Completes() != 1 || node.Cancels() != 0 {
		t.Fatalf("downloads=%d completes=%d cancels=%d, want 1/1/0", node.Downloads(), node.Completes(), node.Cancels())
	}
}
