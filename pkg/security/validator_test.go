package security

import (
	"path/filepath"
	"testing"
)

func TestValidateFileName(t *testing.T) {
	v := NewValidator(1024, 1024)

	tests := []struct {
		name      string
		shouldErr bool
	}{
		{"IMG_7321.JPG", false},
		{"MVI_0001.MOV", false},
		{"", true},
		{".", true},
		{"..", true},
		{"../etc/passwd", true},
		{"/etc/passwd", true},
		{"dir/file.txt", true},
		{`dir\file.txt`, true},
	}

	for _, tt := range tests {
		err := v.ValidateFileName(tt.name)
		if tt.shouldErr && err == nil {
			t.Errorf("expected error for name: %q", tt.name)
		}
		if !tt.shouldErr && err != nil {
			t.Errorf("unexpected error for name %q: %v", tt.name, err)
		}
	}
}

func TestValidateDestination(t *testing.T) {
	v := NewValidator(0, 0)
	root := filepath.Join("out", "photos")

	tests := []struct {
		dest      string
		shouldErr bool
	}{
		{filepath.Join(root, "IMG_7321.JPG"), false},
		{filepath.Join(root, "2021_01_31", "IMG_7321.JPG"), false},
		{filepath.Join(root, "..", "IMG_7321.JPG"), true},
		{filepath.Join("out", "photos2", "x"), true},
		{filepath.Join(root, "..", "..", "etc", "passwd"), true},
	}

	for _, tt := range tests {
		err := v.ValidateDestination(root, tt.dest)
		if tt.shouldErr && err == nil {
			t.Errorf("expected error for dest: %s", tt.dest)
		}
		if !tt.shouldErr && err != nil {
			t.Errorf("unexpected error for dest %s: %v", tt.dest, err)
		}
	}
}

func TestValidateFileSize(t *testing.T) {
	v := NewValidator(100, 1000)

	if err := v.ValidateFileSize(50); err != nil {
		t.Errorf("expected no error for size 50, got: %v", err)
	}

	if err := v.ValidateFileSize(150); err == nil {
		t.Error("expected error for size 150 exceeding limit 100")
	}

	unlimited := NewValidator(0, 0)
	if err := unlimited.ValidateFileSize(1 << 40); err != nil {
		t.Errorf("unexpected error with no limit: %v", err)
	}
}

func TestAddCopiedSize(t *testing.T) {
	v := NewValidator(1000, 250)

	if err := v.AddCopiedSize(100); err != nil {
		t.Errorf("expected no error for first file, got: %v", err)
	}
	if err := v.AddCopiedSize(100); err != nil {
		t.Errorf("expected no error for second file, got: %v", err)
	}
	if err := v.AddCopiedSize(100); err == nil {
		t.Error("expected error when total exceeds 250")
	}
	if got := v.GetCurrentTotalSize(); got != 200 {
		t.Errorf("expected total 200 after rejection, got %d", got)
	}

	v.Reset()
	if got := v.GetCurrentTotalSize(); got != 0 {
		t.Errorf("expected total 0 after reset, got %d", got)
	}
}
