package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/eoscam/eoscam/pkg/errors"
	_ "modernc.org/sqlite"
)

// Repository provides database operations for the download ledger
type Repository struct {
	db *sql.DB
}

// NewRepository opens (creating if needed) the ledger at dbPath
func NewRepository(dbPath string) (*Repository, error) {
	slog.Info("database_init", "db_path", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		slog.Error("database_open_failed", "db_path", dbPath, "error", err)
		return nil, errors.Wrap(err, "failed to open database")
	}

	slog.Info("database_create_schema", "db_path", dbPath)
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		slog.Error("database_schema_failed", "db_path", dbPath, "error", err)
		return nil, errors.Wrap(err, "failed to create schema")
	}

	slog.Info("database_ready", "db_path", dbPath)
	return &Repository{db: db}, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

const selectColumns = `
	SELECT id, source_key, run_id, camera, folder, file_name, size,
	       taken_at, dest_path, sha256, archive_key, status, error_message,
	       created_at, updated_at
	FROM downloads`

type scanner interface {
	Scan(dest ...any) error
}

func scanDownload(row scanner) (*Download, error) {
	var d Download
	var takenAt, destPath, sha, archiveKey, errorMessage sql.NullString

	err := row.Scan(
		&d.ID, &d.SourceKey, &d.RunID, &d.Camera, &d.Folder, &d.FileName, &d.Size,
		&takenAt, &destPath, &sha, &archiveKey, &d.Status, &errorMessage,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	d.TakenAt = takenAt.String
	d.DestPath = destPath.String
	d.SHA256 = sha.String
	d.ArchiveKey = archiveKey.String
	d.ErrorMessage = errorMessage.String
	return &d, nil
}

// Create inserts a new ledger record
func (r *Repository) Create(d *Download) error {
	slog.Info("database_create_download", "source_key", d.SourceKey, "status", d.Status)

	query := `
		INSERT INTO downloads (source_key, run_id, camera, folder, file_name, size,
		                       taken_at, dest_path, sha256, archive_key, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query,
		d.SourceKey, d.RunID, d.Camera, d.Folder, d.FileName, d.Size,
		d.TakenAt, d.DestPath, d.SHA256, d.ArchiveKey, d.Status, d.ErrorMessage)
	if err != nil {
		slog.Error("database_insert_failed", "source_key", d.SourceKey, "error", err)
		return errors.Wrap(err, "failed to insert download")
	}

	id, err := result.LastInsertId()
	if err != nil {
		slog.Error("database_last_insert_id_failed", "source_key", d.SourceKey, "error", err)
		return errors.Wrap(err, "failed to get last insert id")
	}
	d.ID = id

	slog.Info("database_download_created", "source_key", d.SourceKey, "download_id", d.ID, "status", d.Status)
	return nil
}

// GetBySourceKey retrieves a record by source key. It returns nil when
// the file has never been seen.
func (r *Repository) GetBySourceKey(sourceKey string) (*Download, error) {
	slog.Debug("database_query_download", "source_key", sourceKey)

	d, err := scanDownload(r.db.QueryRow(selectColumns+` WHERE source_key = ?`, sourceKey))
	if err == sql.ErrNoRows {
		slog.Debug("database_download_not_found", "source_key", sourceKey)
		return nil, nil
	}
	if err != nil {
		slog.Error("database_query_failed", "source_key", sourceKey, "error", err)
		return nil, errors.Wrap(err, "failed to query download")
	}

	slog.Debug("database_download_found", "source_key", sourceKey, "download_id", d.ID, "status", d.Status)
	return d, nil
}

// Update updates an existing record
func (r *Repository) Update(d *Download) error {
	slog.Info("database_update_download", "download_id", d.ID, "source_key", d.SourceKey, "status", d.Status)

	query := `
		UPDATE downloads
		SET run_id = ?, size = ?, taken_at = ?, dest_path = ?, sha256 = ?, archive_key = ?,
		    status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := r.db.Exec(query,
		d.RunID, d.Size, d.TakenAt, d.DestPath, d.SHA256, d.ArchiveKey,
		d.Status, d.ErrorMessage, d.ID)
	if err != nil {
		slog.Error("database_update_failed", "download_id", d.ID, "source_key", d.SourceKey, "error", err)
		return errors.Wrap(err, "failed to update download")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		slog.Error("database_rows_affected_failed", "download_id", d.ID, "error", err)
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		slog.Error("database_download_not_found_for_update", "download_id", d.ID)
		return fmt.Errorf("download not found: id=%d", d.ID)
	}

	slog.Info("database_download_updated", "download_id", d.ID, "source_key", d.SourceKey, "status", d.Status)
	return nil
}

// UpdateStatus updates only the status and error message
func (r *Repository) UpdateStatus(id int64, status, errorMessage string) error {
	slog.Info("database_update_status", "download_id", id, "status", status)

	query := `UPDATE downloads SET status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.Exec(query, status, errorMessage, id)
	if err != nil {
		slog.Error("database_status_update_failed", "download_id", id, "status", status, "error", err)
		return errors.Wrap(err, "failed to update status")
	}

	slog.Info("database_status_updated", "download_id", id, "status", status)
	return nil
}

func (r *Repository) query(ctx context.Context, event, query string, args ...any) ([]*Download, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("database_list_query_failed", "query", event, "error", err)
		return nil, errors.Wrap(err, "failed to list downloads")
	}
	defer rows.Close()

	var downloads []*Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			slog.Error("database_scan_row_failed", "error", err)
			return nil, errors.Wrap(err, "failed to scan row")
		}
		downloads = append(downloads, d)
	}

	if err := rows.Err(); err != nil {
		slog.Error("database_rows_error", "error", err)
		return nil, errors.Wrap(err, "rows error")
	}

	slog.Info("database_list_complete", "query", event, "download_count", len(downloads))
	return downloads, nil
}

// List retrieves all records, newest first
func (r *Repository) List(ctx context.Context) ([]*Download, error) {
	return r.query(ctx, "all", selectColumns+` ORDER BY created_at DESC, id DESC`)
}

// ListByRun retrieves the records touched by one copy run
func (r *Repository) ListByRun(ctx context.Context, runID string) ([]*Download, error) {
	return r.query(ctx, "run", selectColumns+` WHERE run_id = ? ORDER BY id`, runID)
}

// ListByStatus retrieves the records in status
func (r *Repository) ListByStatus(ctx context.Context, status string) ([]*Download, error) {
	return r.query(ctx, "status", selectColumns+` WHERE status = ? ORDER BY id`, status)
}

// Delete deletes a record by ID
func (r *Repository) Delete(id int64) error {
	slog.Info("database_delete_download", "download_id", id)

	_, err := r.db.Exec(`DELETE FROM downloads WHERE id = ?`, id)
	if err != nil {
		slog.Error("database_delete_failed", "download_id", id, "error", err)
		return errors.Wrap(err, "failed to delete download")
	}

	slog.Info("database_download_deleted", "download_id", id)
	return nil
}
