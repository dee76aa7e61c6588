package db

import "path"

// Schema defines the SQLite schema of the download ledger. One row tracks
// one camera file, keyed by camera body, image folder and file name, so a
// later import can skip files already copied.
const Schema = `
CREATE TABLE IF NOT EXISTS downloads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_key TEXT NOT NULL UNIQUE,
    run_id TEXT NOT NULL,
    camera TEXT NOT NULL,
    folder TEXT NOT NULL,
    file_name TEXT NOT NULL,
    size INTEGER NOT NULL DEFAULT 0,
    taken_at TEXT,
    dest_path TEXT,
    sha256 TEXT,
    archive_key TEXT,
    status TEXT NOT NULL CHECK(status IN ('pending', 'downloading', 'copied', 'archived', 'failed')),
    error_message TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_downloads_run_id ON downloads(run_id);
CREATE INDEX IF NOT EXISTS idx_downloads_status ON downloads(status);
CREATE INDEX IF NOT EXISTS idx_downloads_created_at ON downloads(created_at);
`

// Status constants
const (
	StatusPending     = "pending"
	StatusDownloading = "downloading"
	StatusCopied      = "copied"
	StatusArchived    = "archived"
	StatusFailed      = "failed"
)

// Download is one ledger record.
type Download struct {
	ID           int64
	SourceKey    string
	RunID        string
	Camera       string
	Folder       string
	FileName     string
	Size         int64
	TakenAt      string
	DestPath     string
	SHA256       string
	ArchiveKey   string
	Status       string
	ErrorMessage string
	CreatedAt    string
	UpdatedAt    string
}

// Done reports whether the file was copied in an earlier run.
func (d *Download) Done() bool {
	return d.Status == StatusCopied || d.Status == StatusArchived
}

// SourceKey identifies a file on a camera.
func SourceKey(camera, folder, fileName string) string {
	return path.Join(camera, folder, fileName)
}
