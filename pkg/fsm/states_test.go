package fsm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eoscam/eoscam/pkg/db"
	"github.com/eoscam/eoscam/pkg/metrics"
	"github.com/eoscam/eoscam/pkg/security"
	"github.com/eoscam/eoscam/pkg/storage"
)

type memFile struct {
	name      string
	data      []byte
	timestamp time.Time
	err       error
	downloads int
}

func (f *memFile) Name() string                  { return f.name }
func (f *memFile) Timestamp() (time.Time, error) { return f.timestamp, nil }

func (f *memFile) DownloadTo(ctx context.Context, dest string) error {
	f.downloads++
	if f.err != nil {
		os.WriteFile(dest, f.data[:len(f.data)/2], 0644)
		return f.err
	}
	return os.WriteFile(dest, f.data, 0644)
}

type memArchiver struct {
	uploads map[string]string
	err     error
}

func (a *memArchiver) Key(parts ...string) string {
	return storage.ObjectKey("archive", parts...)
}

func (a *memArchiver) Upload(ctx context.Context, key, localPath string) (*storage.UploadResult, error) {
	if a.err != nil {
		return nil, a.err
	}
	sum, err := hashFile(localPath)
	if err != nil {
		return nil, err
	}
	a.uploads[key] = localPath
	return &storage.UploadResult{Key: key, SHA256: sum}, nil
}

type testRig struct {
	machine  *Machine
	repo     *db.Repository
	sources  *Sources
	archiver *memArchiver
	out      string
}

func newTestRig(t *testing.T, dateFolders bool, maxTotal int64) *testRig {
	t.Helper()
	dir := t.TempDir()
	repo, err := db.NewRepository(filepath.Join(dir, "ledger.db"))
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	rig := &testRig{
		repo:     repo,
		sources:  NewSources(),
		archiver: &memArchiver{uploads: make(map[string]string)},
		out:      filepath.Join(dir, "out"),
	}
	rig.machine = NewMachine(repo, rig.archiver, security.NewValidator(0, maxTotal), rig.sources, rig.out, dateFolders, 3)
	return rig
}

func (r *testRig) add(f *memFile) *CopyRequest {
	key := db.SourceKey("body", "100CANON", f.name)
	r.sources.Add(key, f)
	return &CopyRequest{
		RunID:     "run-1",
		SourceKey: key,
		Camera:    "body",
		Folder:    "100CANON",
		FileName:  f.name,
		Size:      int64(len(f.data)),
	}
}

// run drives the steps in FSM order, stopping at the first error.
func (r *testRig) run(msg *CopyRequest) (*CopyResponse, error) {
	ctx := context.Background()
	resp := &CopyResponse{}
	if err := r.machine.checkLedger(msg, resp); err != nil {
		return resp, err
	}
	if err := r.machine.download(ctx, msg, resp); err != nil {
		return resp, err
	}
	if err := r.machine.archive(ctx, msg, resp); err != nil {
		return resp, err
	}
	r.machine.complete(msg, resp)
	return resp, nil
}

func sha(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestDateFolder(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2021, 1, 31, 10, 11, 12, 0, time.UTC), "2021_01_31"},
		{time.Date(2021, 2, 1, 5, 0, 0, 0, loc), "2021_01_31"},
		{time.Time{}, "1970_01_01"},
	}
	for _, tt := range tests {
		if got := DateFolder(tt.in); got != tt.want {
			t.Errorf("DateFolder(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCopy_DateFolder(t *testing.T) {
	rig := newTestRig(t, true, 0)
	shot := time.Date(2021, 1, 31, 10, 11, 12, 0, time.UTC)
	f := &memFile{name: "IMG_7321.JPG", data: []byte("jpeg data"), timestamp: shot}

	resp, err := rig.run(rig.add(f))
	if err != nil {
		t.Fatalf("copy failed: %v", err)
	}

	want := filepath.Join(rig.out, "2021_01_31", "IMG_7321.JPG")
	if resp.DestPath != want {
		t.Errorf("dest = %s, want %s", resp.DestPath, want)
	}
	data, err := os.ReadFile(want)
	if err != nil || string(data) != "jpeg data" {
		t.Fatalf("copied file = %q, %v", data, err)
	}
	info, _ := os.Stat(want)
	if !info.ModTime().Equal(shot) {
		t.Errorf("mtime = %v, want %v", info.ModTime(), shot)
	}

	if resp.Status != db.StatusArchived {
		t.Errorf("status = %s, want %s", resp.Status, db.StatusArchived)
	}
	if _, ok := rig.archiver.uploads["archive/2021_01_31/IMG_7321.JPG"]; !ok {
		t.Errorf("archive uploads = %v", rig.archiver.uploads)
	}

	d, _ := rig.repo.GetBySourceKey("body/100CANON/IMG_7321.JPG")
	if d == nil || d.Status != db.StatusArchived || d.SHA256 != sha(f.data) || d.TakenAt != "2021-01-31T10:11:12Z" {
		t.Errorf("ledger = %+v", d)
	}
	if _, ok := rig.sources.Get(d.SourceKey); ok {
		t.Error("source not removed on completion")
	}
}

func TestCopy_NoDateFolders(t *testing.T) {
	rig := newTestRig(t, false, 0)
	rig.machine.archiver = nil
	f := &memFile{name: "IMG_7322.CR2", data: []byte("raw")}

	resp, err := rig.run(rig.add(f))
	if err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if resp.DestPath != filepath.Join(rig.out, "IMG_7322.CR2") {
		t.Errorf("dest = %s", resp.DestPath)
	}
	if resp.Status != db.StatusCopied || resp.TakenAt != "" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestCopy_SkipsAlreadyCopied(t *testing.T) {
	rig := newTestRig(t, false, 0)
	collector := metrics.New()
	rig.machine.WithMetrics(collector)
	f := &memFile{name: "IMG_7321.JPG", data: []byte("jpeg data")}

	if _, err := rig.run(rig.add(f)); err != nil {
		t.Fatalf("first copy failed: %v", err)
	}

	resp, err := rig.run(rig.add(f))
	if err != nil {
		t.Fatalf("second copy failed: %v", err)
	}
	if !resp.Skipped || f.downloads != 1 {
		t.Errorf("skipped = %v, downloads = %d", resp.Skipped, f.downloads)
	}

	msg := rig.add(f)
	msg.Force = true
	resp, err = rig.run(msg)
	if err != nil {
		t.Fatalf("forced copy failed: %v", err)
	}
	if resp.Skipped || f.downloads != 2 {
		t.Errorf("forced: skipped = %v, downloads = %d", resp.Skipped, f.downloads)
	}

	path := filepath.Join(t.TempDir(), "copy.prom")
	if err := collector.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, _ := os.ReadFile(path)
	for _, want := range []string{`eoscam_files_total{result="copied"} 2`, `eoscam_files_total{result="skipped"} 1`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics missing %q:\n%s", want, data)
		}
	}
}

func TestCopy_DownloadFailure(t *testing.T) {
	rig := newTestRig(t, false, 0)
	f := &memFile{name: "IMG_7400.JPG", data: []byte("0123456789"), err: fmt.Errorf("device busy")}

	resp, err := rig.run(rig.add(f))
	if err == nil {
		t.Fatal("expected download error")
	}
	if _, serr := os.Stat(filepath.Join(rig.out, "IMG_7400.JPG")); !os.IsNotExist(serr) {
		t.Errorf("partial file left behind: %v", serr)
	}

	d, _ := rig.repo.GetBySourceKey("body/100CANON/IMG_7400.JPG")
	if d == nil || d.Status != db.StatusFailed || d.ErrorMessage == "" {
		t.Errorf("ledger = %+v", d)
	}
	if resp.Status != db.StatusFailed {
		t.Errorf("resp status = %s", resp.Status)
	}

	// A failed file is retried on the next run.
	f.err = nil
	if _, err := rig.run(rig.add(f)); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if f.downloads != 2 {
		t.Errorf("downloads = %d, want 2", f.downloads)
	}
}

func TestCopy_Validation(t *testing.T) {
	rig := newTestRig(t, false, 0)
	f := &memFile{name: "../escape.JPG", data: []byte("x")}

	if _, err := rig.run(rig.add(f)); err == nil {
		t.Fatal("expected file name validation error")
	}
	if f.downloads != 0 {
		t.Errorf("downloads = %d, want 0", f.downloads)
	}
}

func TestCopy_TotalSizeLimit(t *testing.T) {
	rig := newTestRig(t, false, 15)
	rig.machine.archiver = nil

	first := &memFile{name: "A.JPG", data: []byte("0123456789")}
	second := &memFile{name: "B.JPG", data: []byte("0123456789")}

	if _, err := rig.run(rig.add(first)); err != nil {
		t.Fatalf("first copy failed: %v", err)
	}
	if _, err := rig.run(rig.add(second)); err == nil {
		t.Fatal("expected total size error")
	}
	if second.downloads != 0 {
		t.Errorf("downloads = %d, want 0", second.downloads)
	}
}

func TestCopy_UnregisteredSource(t *testing.T) {
	rig := newTestRig(t, false, 0)
	msg := rig.add(&memFile{name: "A.JPG", data: []byte("x")})
	rig.sources.Remove(msg.SourceKey)

	if _, err := rig.run(msg); err == nil {
		t.Fatal("expected error for unregistered source")
	}
}

func TestCopy_ArchiveFailureIsRetryable(t *testing.T) {
	rig := newTestRig(t, false, 0)
	rig.archiver.err = fmt.Errorf("connection reset")
	f := &memFile{name: "A.JPG", data: []byte("x")}

	resp, err := rig.run(rig.add(f))
	if err == nil {
		t.Fatal("expected archive error")
	}
	if resp.Status != db.StatusCopied {
		t.Errorf("status = %s, want %s", resp.Status, db.StatusCopied)
	}
	d, _ := rig.repo.GetBySourceKey(db.SourceKey("body", "100CANON", "A.JPG"))
	if d.Status != db.StatusCopied {
		t.Errorf("ledger status = %s, want %s", d.Status, db.StatusCopied)
	}
	if !strings.Contains(d.ErrorMessage, "connection reset") {
		t.Errorf("ledger error = %q, want the upload error", d.ErrorMessage)
	}

	// a later successful upload clears the error
	rig.archiver.err = nil
	if err := rig.machine.archive(context.Background(), rig.add(f), resp); err != nil {
		t.Fatalf("archive retry failed: %v", err)
	}
	d, _ = rig.repo.GetBySourceKey(db.SourceKey("body", "100CANON", "A.JPG"))
	if d.Status != db.StatusArchived || d.ErrorMessage != "" {
		t.Errorf("ledger = %s %q, want archived with no error", d.Status, d.ErrorMessage)
	}
}
