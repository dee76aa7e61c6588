package fsm

// CopyRequest is the FSM input. It names one file on the camera; the live
// file handle is looked up from the machine's sources.
type CopyRequest struct {
	RunID     string
	SourceKey string
	Camera    string
	Folder    string
	FileName  string
	Size      int64
	Force     bool
}

// CopyResponse is the FSM output (accumulated across transitions)
type CopyResponse struct {
	// From CheckLedger
	DownloadID int64
	Skipped    bool

	// From Download
	DestPath string
	TakenAt  string
	SHA256   string

	// From Archive
	ArchiveKey string

	// From Complete/Failed
	Status       string
	ErrorMessage string
}

// State names
const (
	StateCheckLedger = "check_ledger"
	StateDownload    = "download"
	StateArchive     = "archive"
	StateComplete    = "complete"
	StateFailed      = "failed"
)
