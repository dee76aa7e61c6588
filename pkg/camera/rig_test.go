package camera

import (
	"testing"
	"time"

	"github.com/eoscam/eoscam/pkg/edsdk"
	"github.com/eoscam/eoscam/pkg/edsdk/fake"
)

var (
	cameraTime = time.Date(2021, 1, 31, 23, 59, 58, 0, time.Local)
	shotTime   = time.Date(2021, 1, 31, 10, 11, 12, 0, time.Local)
)

// rig is a fake with two cameras. Camera 0 has a CF card holding
// DCIM/100CANON and an SD card without DCIM; camera 1 has no volumes.
type rig struct {
	sdk   *fake.SDK
	cams  []*fake.Node
	files map[string]*fake.Node
	nodes []*fake.Node
}

func newRig(t *testing.T) *rig {
	t.Helper()

	s := fake.New()
	r := &rig{sdk: s, files: make(map[string]*fake.Node)}
	r.nodes = append(r.nodes, s.List())

	cam0 := s.AddCamera("Port 0", "Test", fake.CameraSpec{
		ProductName:     "Canon EOS 5D Mark IV",
		BodyID:          "012345678901",
		OwnerName:       "Studio",
		DateTime:        cameraTime,
		FirmwareVersion: "1.2.3",
		BatteryLevel:    -1,
		SaveTo:          3,
		CurrentStorage:  "CF",
		CurrentFolder:   "100CANON",
		LensStatus:      1,
		LensName:        "EF24-105mm f/4L IS USM",
		Artist:          "Artist",
		Copyright:       "Copyright",
		AvailableShots:  1234,
	})
	cam1 := s.AddCamera("Port 1", "Test Camera 1", fake.CameraSpec{
		ProductName:    "Canon EOS R5",
		MakerName:      "Canon Inc.",
		BatteryLevel:   85,
		BatteryQuality: 2,
		SaveTo:         2,
	})
	r.cams = []*fake.Node{cam0, cam1}
	r.nodes = append(r.nodes, cam0, cam1)

	cf := cam0.AddVolume(edsdk.VolumeInfo{
		StorageType:      edsdk.StorageTypeCF,
		Access:           edsdk.AccessReadWrite,
		MaxCapacity:      64 << 30,
		FreeSpaceInBytes: 32 << 30,
		VolumeLabel:      "CF",
	})
	dcim := cf.AddFolder("DCIM")
	canon := dcim.AddFolder("100CANON")
	r.addFile(canon, "IMG_7321.JPG", []byte("jpeg data"), shotTime)
	r.addFile(canon, "IMG_7322.CR2", []byte("raw data"), shotTime.Add(time.Hour))
	r.addFile(canon, "IMG_7400.JPG", []byte("other"), shotTime)
	r.addFile(canon, "big.mov", make([]byte, 5<<19), time.Time{})
	decoy := canon.AddFolder("IMG_7329")
	misc := dcim.AddFolder("EOSMISC")
	empty := cf.AddFolder("MISC")
	r.nodes = append(r.nodes, cf, dcim, canon, decoy, misc, empty)

	sd := cam0.AddVolume(edsdk.VolumeInfo{
		StorageType: edsdk.StorageTypeSD,
		Access:      edsdk.AccessRead,
		VolumeLabel: "SD",
	})
	r.nodes = append(r.nodes, sd, sd.AddFolder("MISC"))

	return r
}

func (r *rig) addFile(parent *fake.Node, name string, content []byte, ts time.Time) {
	n := parent.AddFile(fake.FileSpec{Name: name, Content: content, Format: 0x3801, GroupID: 7, Timestamp: ts})
	r.files[name] = n
	r.nodes = append(r.nodes, n)
}

// assertReleased checks that every reference taken during the test was
// given back.
func (r *rig) assertReleased(t *testing.T) {
	t.Helper()
	for _, n := range r.nodes {
		if got := n.RefCount(); got != 0 {
			t.Errorf("handle 0x%X: %d outstanding references", uintptr(n.Handle()), got)
		}
	}
	if n := r.sdk.OpenStreams(); n != 0 {
		t.Errorf("%d streams still open", n)
	}
	if v := r.sdk.Violations(); len(v) != 0 {
		t.Errorf("sdk violations: %v", v)
	}
}

func openConnection(t *testing.T, sdk edsdk.SDK) *Connection {
	t.Helper()
	conn, err := NewConnection(sdk)
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	return conn
}

// openVolume opens volume n of camera 0. Closing the returned func closes
// the volume, camera and connection.
func openVolume(t *testing.T, r *rig, n int) (*Volume, func()) {
	t.Helper()
	conn := openConnection(t, r.sdk)
	cam, err := conn.SelectCamera(0)
	if err != nil {
		t.Fatalf("SelectCamera: %v", err)
	}
	vol, err := cam.SelectVolume(n)
	if err != nil {
		t.Fatalf("SelectVolume: %v", err)
	}
	return vol, func() {
		vol.Close()
		cam.Close()
		conn.Close()
	}
}

// openImages opens DCIM/100CANON on the CF card.
func openImages(t *testing.T, r *rig) (*Directory, func()) {
	t.Helper()
	vol, closeVol := openVolume(t, r, 0)
	dcim, err := vol.FindDirectory("DCIM")
	if err != nil || dcim == nil {
		t.Fatalf("FindDirectory(DCIM) = %v, %v", dcim, err)
	}
	images, err := dcim.FindDirectory("100CANON")
	dcim.Close()
	if err != nil || images == nil {
		t.Fatalf("FindDirectory(100CANON) = %v, %v", images, err)
	}
	return images, func() {
		images.Close()
		closeVol()
	}
}

// openFile opens the named entry of DCIM/100CANON.
func openFile(t *testing.T, r *rig, name string) (*Directory, func()) {
	t.Helper()
	images, closeImages := openImages(t, r)
	for i := 0; i < images.count; i++ {
		f, err := images.Entry(i)
		if err != nil {
			t.Fatalf("Entry(%d): %v", i, err)
		}
		if f.Name() == name {
			return f, func() {
				f.Close()
				closeImages()
			}
		}
		f.Close()
	}
	t.Fatalf("%s not found", name)
	return nil, nil
}
