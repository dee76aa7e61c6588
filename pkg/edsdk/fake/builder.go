package fake

import (
	"encoding/binary"
	"time"

	"github.com/eoscam/eoscam/pkg/edsdk"
)

// Node is a builder handle on an object in the fake tree. It is also used
// by tests to inspect what the camera layer did to that object.
type Node struct {
	sdk *SDK
	obj *object
}

// Handle returns the SDK handle of the node.
func (n *Node) Handle() edsdk.Handle { return n.obj.handle }

// CameraSpec lists the properties a fake camera reports. MakerName,
// DateTime and BatteryQuality are optional: their zero value leaves the
// property unset, which the SDK reports as PropertiesUnavailable.
type CameraSpec struct {
	ProductName     string
	BodyID          string
	OwnerName       string
	MakerName       string
	DateTime        time.Time
	FirmwareVersion string
	BatteryLevel    int32
	BatteryQuality  uint32
	SaveTo          uint32
	CurrentStorage  string
	CurrentFolder   string
	LensStatus      uint32
	LensName        string
	Artist          string
	Copyright       string
	AvailableShots  uint32
}

// FileSpec describes a file on a fake volume.
type FileSpec struct {
	Name      string
	Content   []byte
	Format    uint32
	GroupID   uint32
	Timestamp time.Time
}

// AddCamera appends a camera to the camera list.
func (s *SDK) AddCamera(port, description string, spec CameraSpec) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.newObject(kindCamera, false)
	o.device = edsdk.DeviceInfo{PortName: port, DeviceDescription: description}
	s.list.children = append(s.list.children, o)

	for id, v := range map[edsdk.PropertyID]string{
		edsdk.PropProductName:     spec.ProductName,
		edsdk.PropBodyIDEx:        spec.BodyID,
		edsdk.PropOwnerName:       spec.OwnerName,
		edsdk.PropFirmwareVersion: spec.FirmwareVersion,
		edsdk.PropCurrentStorage:  spec.CurrentStorage,
		edsdk.PropCurrentFolder:   spec.CurrentFolder,
		edsdk.PropLensName:        spec.LensName,
		edsdk.PropArtist:          spec.Artist,
		edsdk.PropCopyright:       spec.Copyright,
	} {
		setString(o, id, v)
	}
	setInt32(o, edsdk.PropBatteryLevel, spec.BatteryLevel)
	setUint32(o, edsdk.PropSaveTo, spec.SaveTo)
	setUint32(o, edsdk.PropLensStatus, spec.LensStatus)
	setUint32(o, edsdk.PropAvailableShots, spec.AvailableShots)

	// optional
	if spec.MakerName != "" {
		setString(o, edsdk.PropMakerName, spec.MakerName)
	}
	if !spec.DateTime.IsZero() {
		setRaw(o, edsdk.PropDateTime, edsdk.DataTypeTime, edsdk.EncodeTime(spec.DateTime))
	}
	if spec.BatteryQuality != 0 {
		setUint32(o, edsdk.PropBatteryQuality, spec.BatteryQuality)
	}

	return &Node{sdk: s, obj: o}
}

// Camera returns the n-th camera added to the list.
func (s *SDK) Camera(n int) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Node{sdk: s, obj: s.list.children[n]}
}

// List returns the camera list node.
func (s *SDK) List() *Node {
	return &Node{sdk: s, obj: s.list}
}

// AddVolume appends a volume to a camera.
func (n *Node) AddVolume(info edsdk.VolumeInfo) *Node {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	o := n.sdk.newObject(kindVolume, false)
	o.volume = info
	n.obj.children = append(n.obj.children, o)
	return &Node{sdk: n.sdk, obj: o}
}

// AddFolder appends a folder to a volume or folder.
func (n *Node) AddFolder(name string) *Node {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	o := n.sdk.newObject(kindItem, false)
	o.item = edsdk.DirectoryItemInfo{FileName: name, IsFolder: true}
	n.obj.children = append(n.obj.children, o)
	return &Node{sdk: n.sdk, obj: o}
}

// AddFile appends a file to a volume or folder.
func (n *Node) AddFile(spec FileSpec) *Node {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	o := n.sdk.newObject(kindItem, false)
	o.item = edsdk.DirectoryItemInfo{
		Size:     uint64(len(spec.Content)),
		FileName: spec.Name,
		Format:   spec.Format,
		GroupID:  spec.GroupID,
		DateTime: uint32(spec.Timestamp.Unix()),
	}
	o.content = spec.Content
	o.timestamp = spec.Timestamp
	n.obj.children = append(n.obj.children, o)
	return &Node{sdk: n.sdk, obj: o}
}

// SetString sets a string property.
func (n *Node) SetString(id edsdk.PropertyID, v string) {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	setString(n.obj, id, v)
}

// SetInt32 sets an int32 property.
func (n *Node) SetInt32(id edsdk.PropertyID, v int32) {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	setInt32(n.obj, id, v)
}

// SetUint32 sets a uint32 property.
func (n *Node) SetUint32(id edsdk.PropertyID, v uint32) {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	setUint32(n.obj, id, v)
}

// SetTime sets a time property.
func (n *Node) SetTime(id edsdk.PropertyID, t time.Time) {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	setRaw(n.obj, id, edsdk.DataTypeTime, edsdk.EncodeTime(t))
}

// SetProperty sets a property with an arbitrary declared type and payload.
func (n *Node) SetProperty(id edsdk.PropertyID, t edsdk.DataType, data []byte) {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	setRaw(n.obj, id, t, data)
}

// RemoveProperty makes the property unavailable.
func (n *Node) RemoveProperty(id edsdk.PropertyID) {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	delete(n.obj.props, id)
}

// FailPropertySize makes the size query for id fail with code. The
// property is created as a uint32 if it does not exist.
func (n *Node) FailPropertySize(id edsdk.PropertyID, code edsdk.Code) {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	prop(n.obj, id).sizeErr = code
}

// FailPropertyData makes the data read for id fail with code.
func (n *Node) FailPropertyData(id edsdk.PropertyID, code edsdk.Code) {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	prop(n.obj, id).dataErr = code
}

// FailDownloadAfter makes a download of this file fail with code once more
// than after bytes have been transferred.
func (n *Node) FailDownloadAfter(after int64, code edsdk.Code) {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	n.obj.failAfter = after
	n.obj.failCode = code
}

// RefCount returns the outstanding reference count of the node.
func (n *Node) RefCount() int {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	return n.obj.refs
}

// ChildLookups returns how many GetChildAtIndex calls targeted the node.
func (n *Node) ChildLookups() int {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	return n.obj.childLookups
}

// Downloads returns how many Download calls targeted the node.
func (n *Node) Downloads() int {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	return n.obj.downloads
}

// Cancels returns how many DownloadCancel calls targeted the node.
func (n *Node) Cancels() int {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	return n.obj.cancels
}

// Completes returns how many DownloadComplete calls targeted the node.
func (n *Node) Completes() int {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	return n.obj.completes
}

// SessionOpen reports whether the camera has an open session.
func (n *Node) SessionOpen() bool {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	return n.obj.sessionOpen
}

// Sessions returns how many sessions were opened on the camera.
func (n *Node) Sessions() int {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	return n.obj.sessions
}

// StatusCommands returns the status commands sent to the camera.
func (n *Node) StatusCommands() []edsdk.StatusCommand {
	n.sdk.mu.Lock()
	defer n.sdk.mu.Unlock()
	return append([]edsdk.StatusCommand(nil), n.obj.statusCommands...)
}

// Initialized returns the number of successful Initialize calls.
func (s *SDK) Initialized() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Terminated returns the number of Terminate calls.
func (s *SDK) Terminated() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

// Violations returns the misuse the fake detected, such as releasing a
// handle below zero or using a handle without a reference.
func (s *SDK) Violations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.violations...)
}

// OpenStreams returns the number of streams and image refs still alive.
func (s *SDK) OpenStreams() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.objects {
		if o.transient {
			n++
		}
	}
	return n
}

func prop(o *object, id edsdk.PropertyID) *property {
	p, ok := o.props[id]
	if !ok {
		p = &property{dataType: edsdk.DataTypeUInt32, size: 4, data: make([]byte, 4)}
		o.props[id] = p
	}
	return p
}

func setRaw(o *object, id edsdk.PropertyID, t edsdk.DataType, data []byte) {
	o.props[id] = &property{dataType: t, size: uint32(len(data)), data: data}
}

func setString(o *object, id edsdk.PropertyID, v string) {
	setRaw(o, id, edsdk.DataTypeString, append([]byte(v), 0))
}

func setInt32(o *object, id edsdk.PropertyID, v int32) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	setRaw(o, id, edsdk.DataTypeInt32, b)
}

func setUint32(o *object, id edsdk.PropertyID, v uint32) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	setRaw(o, id, edsdk.DataTypeUInt32, b)
}
