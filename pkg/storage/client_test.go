package storage

import (
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		prefix string
		parts  []string
		want   string
	}{
		{"", []string{"2021_01_31", "IMG_7321.JPG"}, "2021_01_31/IMG_7321.JPG"},
		{"photos", []string{"IMG_7321.JPG"}, "photos/IMG_7321.JPG"},
		{"/photos/", []string{"", "2021_01_31", "IMG_7321.JPG"}, "photos/2021_01_31/IMG_7321.JPG"},
	}

	for _, tt := range tests {
		if got := ObjectKey(tt.prefix, tt.parts...); got != tt.want {
			t.Errorf("ObjectKey(%q, %v) = %q, want %q", tt.prefix, tt.parts, got, tt.want)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	notFound := &smithy.GenericAPIError{Code: "NotFound", Message: "not found"}
	if !isNotFound(fmt.Errorf("head: %w", notFound)) {
		t.Error("wrapped NotFound not detected")
	}
	if isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}) {
		t.Error("AccessDenied reported as not found")
	}
	if isNotFound(fmt.Errorf("NotFound")) {
		t.Error("plain error reported as not found")
	}
}
