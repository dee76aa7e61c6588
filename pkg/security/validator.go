package security

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
)

// Validator guards files copied off a camera: names must stay inside the
// output directory and sizes must stay under the per file and per run limits.
type Validator struct {
	maxFileSize  int64
	maxTotalSize int64

	mu               sync.Mutex
	currentTotalSize int64
}

// NewValidator creates a new validator. A limit of zero disables that check.
func NewValidator(maxFileSize, maxTotalSize int64) *Validator {
	slog.Info("security_validator_init",
		"max_file_size_mb", maxFileSize/1024/1024,
		"max_total_size_mb", maxTotalSize/1024/1024)

	return &Validator{
		maxFileSize:  maxFileSize,
		maxTotalSize: maxTotalSize,
	}
}

// ValidateFileName checks a name reported by the camera. It must be a
// single path element.
func (v *Validator) ValidateFileName(name string) error {
	reason := ""
	switch {
	case name == "" || name == "." || name == "..":
		reason = "invalid_name"
	case filepath.IsAbs(name):
		reason = "absolute_path"
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		reason = "path_separator"
	}
	if reason != "" {
		slog.Error("security_file_name_validation_failed", "name", name, "reason", reason)
		return fmt.Errorf("security: invalid file name %q", name)
	}
	return nil
}

// ValidateDestination checks that dest resolves inside root.
func (v *Validator) ValidateDestination(root, dest string) error {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(dest))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		slog.Error("security_destination_validation_failed", "root", root, "dest", dest, "reason", "path_traversal")
		return fmt.Errorf("security: path traversal detected: %s escapes %s", dest, root)
	}
	return nil
}

// ValidateFileSize checks if a file exceeds max file size
func (v *Validator) ValidateFileSize(size int64) error {
	if v.maxFileSize > 0 && size > v.maxFileSize {
		slog.Error("security_file_size_exceeded",
			"file_size_mb", size/1024/1024,
			"max_file_size_mb", v.maxFileSize/1024/1024)
		return fmt.Errorf("security: file size %d exceeds max %d", size, v.maxFileSize)
	}
	return nil
}

// AddCopiedSize tracks the bytes copied in this run and checks against the
// limit. A rejected size is not counted.
func (v *Validator) AddCopiedSize(size int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.maxTotalSize > 0 && v.currentTotalSize+size > v.maxTotalSize {
		slog.Error("security_total_size_exceeded",
			"current_total_mb", v.currentTotalSize/1024/1024,
			"max_total_mb", v.maxTotalSize/1024/1024,
			"file_size_mb", size/1024/1024)
		return fmt.Errorf("security: total copied size %d exceeds max %d",
			v.currentTotalSize+size, v.maxTotalSize)
	}

	v.currentTotalSize += size
	return nil
}

// Reset resets the total size counter
func (v *Validator) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.currentTotalSize = 0
}

// GetCurrentTotalSize returns the bytes copied so far
func (v *Validator) GetCurrentTotalSize() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.currentTotalSize
}
