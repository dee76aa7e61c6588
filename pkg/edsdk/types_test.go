package edsdk

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestTimeRoundTrip(t *testing.T) {
	want := time.Date(2021, time.January, 31, 23, 59, 59, 250*int(time.Millisecond), time.UTC)

	b := EncodeTime(want)
	if len(b) != TimeSize {
		t.Fatalf("expected %d bytes, got %d", TimeSize, len(b))
	}

	got, err := DecodeTime(b, time.UTC)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDecodeTime_Short(t *testing.T) {
	if _, err := DecodeTime(make([]byte, 8), time.UTC); err == nil {
		t.Error("expected error for short buffer")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"code", PropertiesUnavailable, PropertiesUnavailable},
		{"wrapped", fmt.Errorf("read: %w", DeviceBusy), DeviceBusy},
		{"other", errors.New("boom"), InternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestErr(t *testing.T) {
	if err := Err(0); err != nil {
		t.Errorf("expected nil for OK, got %v", err)
	}
	if err := Err(0x51); err != PropertiesMismatch {
		t.Errorf("expected PropertiesMismatch, got %v", err)
	}
}

func TestCodeError(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{FileAlreadyExists, "edsdk: file already exists (0x2B)"},
		{FileFormatUnrecognized, "edsdk: file format unrecognized (0x2C)"},
		{Code(0xFFFF), "edsdk: error 0xFFFF"},
	}

	for _, tt := range tests {
		if got := tt.code.Error(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}
