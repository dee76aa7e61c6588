package camera

import (
	"testing"

	"github.com/eoscam/eoscam/pkg/edsdk"
	"github.com/eoscam/eoscam/pkg/errors"
)

func TestCameraInfo(t *testing.T) {
	r := newRig(t)
	conn := openConnection(t, r.sdk)
	defer conn.Close()

	tests := []struct {
		index int
		want  CameraInfo
	}{
		{0, CameraInfo{
			ProductName:     "Canon EOS 5D Mark IV",
			BodyID:          "012345678901",
			OwnerName:       "Studio",
			MakerName:       Unknown,
			DateTime:        "31-Jan-2021 23:59:58",
			FirmwareVersion: "1.2.3",
			BatteryLevel:    "AC power",
			BatteryQuality:  Unknown,
			SaveTo:          "Memory Card, Host Computer",
			CurrentStorage:  "CF",
			CurrentFolder:   "100CANON",
			LensAttached:    true,
			LensName:        "EF24-105mm f/4L IS USM",
			Artist:          "Artist",
			Copyright:       "Copyright",
			AvailableShots:  1234,
		}},
		{1, CameraInfo{
			ProductName:    "Canon EOS R5",
			MakerName:      "Canon Inc.",
			DateTime:       Unknown,
			BatteryLevel:   "85%",
			BatteryQuality: "2",
			SaveTo:         "Host Computer",
		}},
	}

	for _, tt := range tests {
		cam, err := conn.SelectCamera(tt.index)
		if err != nil {
			t.Fatalf("SelectCamera(%d): %v", tt.index, err)
		}
		info, err := cam.CameraInfo()
		if err != nil {
			t.Fatalf("camera %d: CameraInfo: %v", tt.index, err)
		}
		if *info != tt.want {
			t.Errorf("camera %d:\n got %+v\nwant %+v", tt.index, *info, tt.want)
		}
		cam.Close()
	}
}

func TestCameraInfo_RereadsEveryCall(t *testing.T) {
	r := newRig(t)
	conn := openConnection(t, r.sdk)
	defer conn.Close()

	cam, err := conn.SelectCamera(1)
	if err != nil {
		t.Fatalf("SelectCamera: %v", err)
	}
	defer cam.Close()

	before, err := cam.CameraInfo()
	if err != nil {
		t.Fatalf("CameraInfo: %v", err)
	}
	r.cams[1].SetInt32(edsdk.PropBatteryLevel, 40)
	after, err := cam.CameraInfo()
	if err != nil {
		t.Fatalf("CameraInfo: %v", err)
	}
	if before.BatteryLevel != "85%" || after.BatteryLevel != "40%" {
		t.Fatalf("battery before=%q after=%q", before.BatteryLevel, after.BatteryLevel)
	}
}

func TestCameraInfo_RequiredPropertyMissing(t *testing.T) {
	r := newRig(t)
	r.cams[1].RemoveProperty(edsdk.PropOwnerName)
	conn := openConnection(t, r.sdk)
	defer conn.Close()

	cam, err := conn.SelectCamera(1)
	if err != nil {
		t.Fatalf("SelectCamera: %v", err)
	}
	defer cam.Close()

	if _, err := cam.CameraInfo(); !errors.Is(err, errors.ErrPropertyUnavailable) {
		t.Fatalf("CameraInfo: err = %v, want unavailable", err)
	}
}

func TestFormatBatteryLevel(t *testing.T) {
	tests := map[uint32]string{
		0:          "0%",
		100:        "100%",
		0xffffffff: "AC power",
	}
	for level, want := range tests {
		if got := formatBatteryLevel(level); got != want {
			t.Errorf("formatBatteryLevel(%d) = %q, want %q", level, got, want)
		}
	}
}

func TestFormatSaveTo(t *testing.T) {
	tests := map[uint32]string{
		0: "",
		1: "Memory Card",
		2: "Host Computer",
		3: "Memory Card, Host Computer",
	}
	for code, want := range tests {
		if got := formatSaveTo(code); got != want {
			t.Errorf("formatSaveTo(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestCamera_Volumes(t *testing.T) {
	r := newRig(t)
	conn := openConnection(t, r.sdk)

	cam, err := conn.SelectCamera(0)
	if err != nil {
		t.Fatalf("SelectCamera: %v", err)
	}
	if n, err := cam.VolumeCount(); err != nil || n != 2 {
		t.Fatalf("VolumeCount = %d, %v; want 2", n, err)
	}
	if _, err := cam.SelectVolume(2); !errors.Is(err, errors.ErrOutOfRange) {
		t.Fatalf("SelectVolume(2): err = %v, want out of range", err)
	}
	vol, err := cam.SelectVolume(1)
	if err != nil {
		t.Fatalf("SelectVolume(1): %v", err)
	}
	if vol.Label() != "SD" {
		t.Fatalf("label = %q", vol.Label())
	}

	vol.Close()
	cam.Close()
	conn.Close()
	r.assertReleased(t)
}

func TestCamera_SetUIStatus(t *testing.T) {
	r := newRig(t)
	conn := openConnection(t, r.sdk)
	defer conn.Close()

	cam, err := conn.SelectCamera(0)
	if err != nil {
		t.Fatalf("SelectCamera: %v", err)
	}
	defer cam.Close()

	if err := cam.SetUIStatus(true); err != nil {
		t.Fatalf("SetUIStatus(true): %v", err)
	}
	if err := cam.SetUIStatus(false); err != nil {
		t.Fatalf("SetUIStatus(false): %v", err)
	}
	got := r.cams[0].StatusCommands()
	if len(got) != 2 || got[0] != edsdk.StatusUILock || got[1] != edsdk.StatusUIUnlock {
		t.Fatalf("status commands = %v", got)
	}

	r.sdk.FailOperation("SendStatusCommand", edsdk.DeviceBusy)
	if err := cam.SetUIStatus(true); !errors.IsSDKError(err) {
		t.Fatalf("SetUIStatus: err = %v, want SDK error", err)
	}
}
