package fsm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/eoscam/eoscam/pkg/db"
	"github.com/eoscam/eoscam/pkg/errors"
	"github.com/eoscam/eoscam/pkg/metrics"
	"github.com/eoscam/eoscam/pkg/security"
	"github.com/eoscam/eoscam/pkg/storage"
	"github.com/superfly/fsm"
)

// DateFolderLayout names the per day folders files are copied into.
const DateFolderLayout = "2006_01_02"

// File is a camera file that can be copied. *camera.Directory implements it.
type File interface {
	Name() string
	Timestamp() (time.Time, error)
	DownloadTo(ctx context.Context, dest string) error
}

// Archiver uploads copied files. *storage.Client implements it.
type Archiver interface {
	Key(parts ...string) string
	Upload(ctx context.Context, key, localPath string) (*storage.UploadResult, error)
}

// Machine holds dependencies for FSM transitions
type Machine struct {
	repo        *db.Repository
	archiver    Archiver
	validator   *security.Validator
	sources     *Sources
	outputDir   string
	dateFolders bool
	maxRetries  int
	metrics     *metrics.Collector
}

// NewMachine creates a new FSM machine with dependencies. archiver may be
// nil to skip the archive step.
func NewMachine(
	repo *db.Repository,
	archiver Archiver,
	validator *security.Validator,
	sources *Sources,
	outputDir string,
	dateFolders bool,
	maxRetries int,
) *Machine {
	return &Machine{
		repo:        repo,
		archiver:    archiver,
		validator:   validator,
		sources:     sources,
		outputDir:   outputDir,
		dateFolders: dateFolders,
		maxRetries:  maxRetries,
	}
}

// WithMetrics records copy results in c.
func (m *Machine) WithMetrics(c *metrics.Collector) *Machine {
	m.metrics = c
	return m
}

// DateFolder returns the folder name for a capture time, using the UTC
// date. Files without a timestamp land in the epoch folder.
func DateFolder(t time.Time) string {
	if t.IsZero() {
		t = time.Unix(0, 0)
	}
	return t.UTC().Format(DateFolderLayout)
}

// checkRetries aborts the run once the step has been retried maxRetries
// times. When markFailed is set the ledger row is marked failed too.
func (m *Machine) checkRetries(ctx context.Context, req *fsm.Request[CopyRequest, CopyResponse], markFailed bool) error {
	if retryCount := fsm.RetryFromContext(ctx); retryCount >= uint64(m.maxRetries) {
		slog.Error("max_retries_exceeded", "source_key", req.Msg.SourceKey, "max_retries", m.maxRetries)
		err := fmt.Errorf("max retries (%d) exceeded", m.maxRetries)
		if markFailed && req.W.Msg != nil {
			m.fail(req.W.Msg, err)
		}
		return fsm.Abort(err)
	}
	return nil
}

// fail records err against the ledger row of resp.
func (m *Machine) fail(resp *CopyResponse, err error) {
	resp.Status = db.StatusFailed
	resp.ErrorMessage = err.Error()
	m.metrics.Failed()
	if resp.DownloadID == 0 {
		return
	}
	if uerr := m.repo.UpdateStatus(resp.DownloadID, db.StatusFailed, err.Error()); uerr != nil {
		slog.Error("status_update_failed", "download_id", resp.DownloadID, "status", db.StatusFailed, "error", uerr)
	}
}

// handleCheckLedger looks the file up in the ledger (idempotency)
func (m *Machine) handleCheckLedger(ctx context.Context, req *fsm.Request[CopyRequest, CopyResponse]) (*fsm.Response[CopyResponse], error) {
	slog.Info("fsm_state_check_ledger", "source_key", req.Msg.SourceKey)

	if err := m.checkRetries(ctx, req, true); err != nil {
		return nil, err
	}

	resp := req.W.Msg
	if resp == nil {
		resp = &CopyResponse{}
	}

	if err := m.checkLedger(req.Msg, resp); err != nil {
		return nil, err
	}
	return fsm.NewResponse(resp), nil
}

func (m *Machine) checkLedger(msg *CopyRequest, resp *CopyResponse) error {
	d, err := m.repo.GetBySourceKey(msg.SourceKey)
	if err != nil {
		slog.Error("ledger_check_failed", "source_key", msg.SourceKey, "error", err)
		return fsm.Abort(errors.Wrap(err, "database error"))
	}

	if d == nil {
		d = &db.Download{
			SourceKey: msg.SourceKey,
			RunID:     msg.RunID,
			Camera:    msg.Camera,
			Folder:    msg.Folder,
			FileName:  msg.FileName,
			Size:      msg.Size,
			Status:    db.StatusPending,
		}
		if err := m.repo.Create(d); err != nil {
			slog.Error("create_download_failed", "source_key", msg.SourceKey, "error", err)
			return errors.Wrap(err, "failed to create download record")
		}
		resp.DownloadID = d.ID
		resp.Status = d.Status
		slog.Info("download_created", "source_key", msg.SourceKey, "download_id", d.ID)
		return nil
	}

	resp.DownloadID = d.ID
	if d.Done() && !msg.Force {
		resp.Skipped = true
		resp.Status = d.Status
		resp.DestPath = d.DestPath
		resp.TakenAt = d.TakenAt
		resp.SHA256 = d.SHA256
		resp.ArchiveKey = d.ArchiveKey
		m.metrics.Skipped()
		slog.Info("file_already_copied", "source_key", msg.SourceKey, "download_id", d.ID, "status", d.Status)
		return nil
	}

	slog.Info("download_found_continue_processing", "source_key", msg.SourceKey, "download_id", d.ID, "status", d.Status)
	d.RunID = msg.RunID
	d.Size = msg.Size
	d.Status = db.StatusPending
	d.ErrorMessage = ""
	if err := m.repo.Update(d); err != nil {
		return errors.Wrap(err, "failed to reset download record")
	}
	resp.Status = d.Status
	return nil
}

// handleDownload copies the file off the camera
func (m *Machine) handleDownload(ctx context.Context, req *fsm.Request[CopyRequest, CopyResponse]) (*fsm.Response[CopyResponse], error) {
	slog.Info("fsm_state_download", "source_key", req.Msg.SourceKey)

	if err := m.checkRetries(ctx, req, true); err != nil {
		return nil, err
	}

	resp := req.W.Msg
	if resp == nil {
		return nil, fsm.Abort(fmt.Errorf("response not initialized"))
	}

	if err := m.download(ctx, req.Msg, resp); err != nil {
		return nil, err
	}
	return fsm.NewResponse(resp), nil
}

func (m *Machine) download(ctx context.Context, msg *CopyRequest, resp *CopyResponse) error {
	if resp.Skipped {
		return nil
	}

	abort := func(event string, err error) error {
		slog.Error(event, "source_key", msg.SourceKey, "error", err)
		m.fail(resp, err)
		return fsm.Abort(err)
	}

	if err := m.validator.ValidateFileName(msg.FileName); err != nil {
		return abort("file_name_validation_failed", err)
	}
	if err := m.validator.ValidateFileSize(msg.Size); err != nil {
		return abort("file_size_validation_failed", err)
	}

	file, ok := m.sources.Get(msg.SourceKey)
	if !ok {
		return abort("source_not_registered", fmt.Errorf("no camera file registered for %s", msg.SourceKey))
	}

	timestamp, err := file.Timestamp()
	if err != nil {
		return abort("timestamp_read_failed", errors.Wrap(err, "failed to read timestamp"))
	}

	dir := m.outputDir
	if m.dateFolders {
		dir = filepath.Join(m.outputDir, DateFolder(timestamp))
	}
	dest := filepath.Join(dir, msg.FileName)
	if err := m.validator.ValidateDestination(m.outputDir, dest); err != nil {
		return abort("destination_validation_failed", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return abort("output_dir_creation_failed", errors.Wrap(err, "failed to create output dir"))
	}
	if err := m.validator.AddCopiedSize(msg.Size); err != nil {
		return abort("total_size_validation_failed", err)
	}

	// Camera transfers are never retried, so every failure from here on
	// aborts the run.
	if err := m.repo.UpdateStatus(resp.DownloadID, db.StatusDownloading, ""); err != nil {
		return abort("status_update_failed", errors.Wrap(err, "failed to update status"))
	}

	slog.Info("download_started", "source_key", msg.SourceKey, "dest", dest)
	started := time.Now()
	if err := file.DownloadTo(ctx, dest); err != nil {
		if rerr := os.Remove(dest); rerr != nil && !os.IsNotExist(rerr) {
			slog.Warn("partial_file_remove_failed", "dest", dest, "error", rerr)
		}
		return abort("download_failed", errors.Wrap(err, "failed to download "+msg.FileName))
	}

	if !timestamp.IsZero() {
		if err := os.Chtimes(dest, timestamp, timestamp); err != nil {
			slog.Warn("file_time_update_failed", "dest", dest, "error", err)
		}
		resp.TakenAt = timestamp.UTC().Format(time.RFC3339)
	}

	checksum, err := hashFile(dest)
	if err != nil {
		return abort("checksum_failed", err)
	}

	resp.DestPath = dest
	resp.SHA256 = checksum
	resp.Status = db.StatusCopied
	m.metrics.Copied(msg.Size, time.Since(started).Seconds())

	slog.Info("download_complete",
		"source_key", msg.SourceKey,
		"dest", dest,
		"size_mb", msg.Size/1024/1024,
		"sha256", checksum[:16]+"...",
	)

	if err := m.record(msg.SourceKey, resp); err != nil {
		return abort("ledger_update_failed", err)
	}
	return nil
}

// record writes resp back into the ledger row.
func (m *Machine) record(sourceKey string, resp *CopyResponse) error {
	d, err := m.repo.GetBySourceKey(sourceKey)
	if err != nil {
		return errors.Wrap(err, "failed to load download")
	}
	if d == nil {
		return fmt.Errorf("download not found in ledger: %s", sourceKey)
	}

	d.DestPath = resp.DestPath
	d.TakenAt = resp.TakenAt
	d.SHA256 = resp.SHA256
	d.ArchiveKey = resp.ArchiveKey
	d.Status = resp.Status
	d.ErrorMessage = ""
	if err := m.repo.Update(d); err != nil {
		slog.Error("download_update_failed", "download_id", d.ID, "error", err)
		return errors.Wrap(err, "failed to update download")
	}
	return nil
}

// handleArchive uploads the copied file when an archive is configured
func (m *Machine) handleArchive(ctx context.Context, req *fsm.Request[CopyRequest, CopyResponse]) (*fsm.Response[CopyResponse], error) {
	slog.Info("fsm_state_archive", "source_key", req.Msg.SourceKey)

	if err := m.checkRetries(ctx, req, false); err != nil {
		return nil, err
	}

	resp := req.W.Msg
	if resp == nil {
		return nil, fsm.Abort(fmt.Errorf("response not initialized"))
	}

	if err := m.archive(ctx, req.Msg, resp); err != nil {
		return nil, err
	}
	return fsm.NewResponse(resp), nil
}

func (m *Machine) archive(ctx context.Context, msg *CopyRequest, resp *CopyResponse) error {
	if resp.Skipped {
		return nil
	}
	if m.archiver == nil {
		slog.Debug("archive_skipped", "source_key", msg.SourceKey, "reason", "not_configured")
		return nil
	}

	rel, err := filepath.Rel(m.outputDir, resp.DestPath)
	if err != nil {
		return fsm.Abort(errors.Wrap(err, "failed to resolve archive path"))
	}
	key := m.archiver.Key(filepath.ToSlash(rel))

	result, err := m.archiver.Upload(ctx, key, resp.DestPath)
	if err != nil {
		// Retried by the FSM up to the retry limit. The row stays copied.
		slog.Error("archive_upload_failed", "source_key", msg.SourceKey, "s3_key", key, "error", err)
		err = errors.Wrap(err, "failed to archive file")
		if uerr := m.repo.UpdateStatus(resp.DownloadID, db.StatusCopied, err.Error()); uerr != nil {
			slog.Error("status_update_failed", "download_id", resp.DownloadID, "status", db.StatusCopied, "error", uerr)
		}
		return err
	}
	if result.SHA256 != resp.SHA256 {
		err := fmt.Errorf("archive checksum mismatch for %s: %s != %s", key, result.SHA256, resp.SHA256)
		slog.Error("archive_checksum_mismatch", "source_key", msg.SourceKey, "s3_key", key)
		m.fail(resp, err)
		return fsm.Abort(err)
	}

	resp.ArchiveKey = result.Key
	resp.Status = db.StatusArchived
	slog.Info("archive_complete", "source_key", msg.SourceKey, "s3_key", result.Key)

	return m.record(msg.SourceKey, resp)
}

// handleComplete marks FSM as complete
func (m *Machine) handleComplete(ctx context.Context, req *fsm.Request[CopyRequest, CopyResponse]) (*fsm.Response[CopyResponse], error) {
	slog.Info("fsm_state_complete", "source_key", req.Msg.SourceKey)

	if err := m.checkRetries(ctx, req, true); err != nil {
		return nil, err
	}

	resp := req.W.Msg
	if resp == nil {
		return nil, fsm.Abort(fmt.Errorf("response not initialized"))
	}

	m.complete(req.Msg, resp)
	return fsm.NewResponse(resp), nil
}

func (m *Machine) complete(msg *CopyRequest, resp *CopyResponse) {
	m.sources.Remove(msg.SourceKey)
	slog.Info("fsm_complete", "source_key", msg.SourceKey, "status", resp.Status, "skipped", resp.Skipped)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to open copied file")
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", errors.Wrap(err, "failed to hash copied file")
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
