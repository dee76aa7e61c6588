// Package fake provides an in-memory implementation of edsdk.SDK. It keeps
// one object tree (camera list, cameras, volumes, folders and files) and
// records reference counts, sessions and transfer calls so tests can check
// how the camera layer drove the SDK.
package fake

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/eoscam/eoscam/pkg/edsdk"
)

type kind int

const (
	kindList kind = iota
	kindCamera
	kindVolume
	kindItem
	kindFileStream
	kindMemoryStream
	kindImage
)

func (k kind) String() string {
	switch k {
	case kindList:
		return "list"
	case kindCamera:
		return "camera"
	case kindVolume:
		return "volume"
	case kindItem:
		return "item"
	case kindFileStream:
		return "file_stream"
	case kindMemoryStream:
		return "memory_stream"
	case kindImage:
		return "image"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type property struct {
	dataType edsdk.DataType
	size     uint32
	data     []byte
	sizeErr  edsdk.Code
	dataErr  edsdk.Code
}

type object struct {
	handle edsdk.Handle
	kind   kind
	refs   int

	// transient objects are created by the caller and destroyed when
	// released to zero; the tree itself is owned by the fake.
	transient bool

	props    map[edsdk.PropertyID]*property
	children []*object

	device edsdk.DeviceInfo
	volume edsdk.VolumeInfo
	item   edsdk.DirectoryItemInfo

	// files
	content   []byte
	timestamp time.Time
	offset    uint64
	failAfter int64
	failCode  edsdk.Code

	// streams
	file    *os.File
	path    string
	thumbOf *object

	childLookups   int
	downloads      int
	cancels        int
	completes      int
	sessionOpen    bool
	sessions       int
	statusCommands []edsdk.StatusCommand
}

// SDK is the in-memory SDK. It is safe for use from multiple goroutines.
type SDK struct {
	mu         sync.Mutex
	next       edsdk.Handle
	objects    map[edsdk.Handle]*object
	list       *object
	forced     map[string]edsdk.Code
	violations []string

	initialized int
	terminated  int
}

var _ edsdk.SDK = (*SDK)(nil)

// New returns an SDK with an empty camera list.
func New() *SDK {
	s := &SDK{
		next:    0x1000,
		objects: make(map[edsdk.Handle]*object),
		forced:  make(map[string]edsdk.Code),
	}
	s.list = s.newObject(kindList, false)
	return s
}

func (s *SDK) newObject(k kind, transient bool) *object {
	o := &object{
		handle:    s.next,
		kind:      k,
		transient: transient,
		props:     make(map[edsdk.PropertyID]*property),
		failAfter: -1,
	}
	if transient {
		o.refs = 1
	}
	s.next += 0x10
	s.objects[o.handle] = o
	return o
}

func (s *SDK) violate(format string, args ...any) {
	s.violations = append(s.violations, fmt.Sprintf(format, args...))
}

// lookup returns the live object for h. A handle with no outstanding
// reference is reported as a violation and treated as invalid.
func (s *SDK) lookup(op string, h edsdk.Handle, kinds ...kind) (*object, error) {
	o, ok := s.objects[h]
	if !ok {
		s.violate("%s: unknown handle 0x%X", op, uintptr(h))
		return nil, edsdk.InvalidHandle
	}
	if o.refs < 1 {
		s.violate("%s: handle 0x%X used without a reference", op, uintptr(h))
		return nil, edsdk.InvalidHandle
	}
	if len(kinds) == 0 {
		return o, nil
	}
	for _, k := range kinds {
		if o.kind == k {
			return o, nil
		}
	}
	return nil, edsdk.InvalidParameter
}

func (s *SDK) forcedErr(op string) error {
	if code, ok := s.forced[op]; ok {
		return code
	}
	return nil
}

// FailOperation makes every later call to the named SDK method (for
// example "OpenSession") fail with code until ClearFailures is called.
func (s *SDK) FailOperation(op string, code edsdk.Code) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced[op] = code
}

// ClearFailures removes every FailOperation override.
func (s *SDK) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced = make(map[string]edsdk.Code)
}

func (s *SDK) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.forcedErr("Initialize"); err != nil {
		return err
	}
	s.initialized++
	return nil
}

func (s *SDK) Terminate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminated++
	return s.forcedErr("Terminate")
}

func (s *SDK) Retain(h edsdk.Handle) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[h]
	if !ok {
		s.violate("Retain: unknown handle 0x%X", uintptr(h))
		return 0
	}
	o.refs++
	return uint32(o.refs)
}

func (s *SDK) Release(h edsdk.Handle) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[h]
	if !ok {
		s.violate("Release: unknown handle 0x%X", uintptr(h))
		return 0
	}
	if o.refs < 1 {
		s.violate("Release: handle 0x%X released below zero", uintptr(h))
		return 0
	}
	o.refs--
	if o.refs == 0 && o.transient {
		s.destroy(o)
	}
	return uint32(o.refs)
}

func (s *SDK) destroy(o *object) {
	if o.file != nil {
		if err := o.file.Close(); err != nil {
			s.violate("close stream %s: %v", o.path, err)
		}
		o.file = nil
	}
	delete(s.objects, o.handle)
}

func (s *SDK) GetCameraList() (edsdk.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.forcedErr("GetCameraList"); err != nil {
		return 0, err
	}
	s.list.refs++
	return s.list.handle, nil
}

func (s *SDK) GetChildCount(h edsdk.Handle) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.forcedErr("GetChildCount"); err != nil {
		return 0, err
	}
	o, err := s.lookup("GetChildCount", h, kindList, kindCamera, kindVolume, kindItem)
	if err != nil {
		return 0, err
	}
	if o.kind == kindItem && !o.item.IsFolder {
		return 0, edsdk.SelectionUnavailable
	}
	return len(o.children), nil
}

func (s *SDK) GetChildAtIndex(h edsdk.Handle, index int) (edsdk.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.forcedErr("GetChildAtIndex"); err != nil {
		return 0, err
	}
	o, err := s.lookup("GetChildAtIndex", h, kindList, kindCamera, kindVolume, kindItem)
	if err != nil {
		return 0, err
	}
	o.childLookups++
	if index < 0 || index >= len(o.children) {
		return 0, edsdk.SelectionUnavailable
	}
	child := o.children[index]
	child.refs++
	return child.handle, nil
}

func (s *SDK) GetPropertySize(h edsdk.Handle, id edsdk.PropertyID, param int32) (edsdk.DataType, uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.lookup("GetPropertySize", h, kindCamera, kindImage)
	if err != nil {
		return edsdk.DataTypeUnknown, 0, err
	}
	p, ok := o.props[id]
	if !ok {
		return edsdk.DataTypeUnknown, 0, edsdk.PropertiesUnavailable
	}
	if p.sizeErr != edsdk.OK {
		return edsdk.DataTypeUnknown, 0, p.sizeErr
	}
	return p.dataType, p.size, nil
}

func (s *SDK) GetPropertyData(h edsdk.Handle, id edsdk.PropertyID, param int32, size uint32) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.lookup("GetPropertyData", h, kindCamera, kindImage)
	if err != nil {
		return nil, err
	}
	p, ok := o.props[id]
	if !ok {
		return nil, edsdk.Unimplemented
	}
	if p.dataErr != edsdk.OK {
		return nil, p.dataErr
	}
	n := min(int(size), len(p.data))
	out := make([]byte, n)
	copy(out, p.data)
	return out, nil
}

func (s *SDK) OpenSession(camera edsdk.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.forcedErr("OpenSession"); err != nil {
		return err
	}
	o, err := s.lookup("OpenSession", camera, kindCamera)
	if err != nil {
		return err
	}
	if o.sessionOpen {
		return edsdk.DeviceBusy
	}
	o.sessionOpen = true
	o.sessions++
	o.refs++
	return nil
}

func (s *SDK) CloseSession(camera edsdk.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.forcedErr("CloseSession"); err != nil {
		return err
	}
	o, err := s.lookup("CloseSession", camera, kindCamera)
	if err != nil {
		return err
	}
	if !o.sessionOpen {
		s.violate("CloseSession: camera 0x%X has no open session", uintptr(camera))
		return edsdk.SessionNotOpen
	}
	o.sessionOpen = false
	o.refs--
	return nil
}

func (s *SDK) GetDeviceInfo(camera edsdk.Handle) (edsdk.DeviceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.forcedErr("GetDeviceInfo"); err != nil {
		return edsdk.DeviceInfo{}, err
	}
	o, err := s.lookup("GetDeviceInfo", camera, kindCamera)
	if err != nil {
		return edsdk.DeviceInfo{}, err
	}
	return o.device, nil
}

func (s *SDK) GetVolumeInfo(volume edsdk.Handle) (edsdk.VolumeInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.forcedErr("GetVolumeInfo"); err != nil {
		return edsdk.VolumeInfo{}, err
	}
	o, err := s.lookup("GetVolumeInfo", volume, kindVolume)
	if err != nil {
		return edsdk.VolumeInfo{}, err
	}
	return o.volume, nil
}

func (s *SDK) GetDirectoryItemInfo(item edsdk.Handle) (edsdk.DirectoryItemInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.forcedErr("GetDirectoryItemInfo"); err != nil {
		return edsdk.DirectoryItemInfo{}, err
	}
	o, err := s.lookup("GetDirectoryItemInfo", item, kindItem)
	if err != nil {
		return edsdk.DirectoryItemInfo{}, err
	}
	return o.item, nil
}

func (s *SDK) CreateFileStream(path string, disposition edsdk.FileCreateDisposition, access edsdk.Access) (edsdk.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.forcedErr("CreateFileStream"); err != nil {
		return 0, err
	}

	flags := os.O_WRONLY
	switch disposition {
	case edsdk.CreateNew:
		flags |= os.O_CREATE | os.O_EXCL
	case edsdk.CreateAlways:
		flags |= os.O_CREATE | os.O_TRUNC
	case edsdk.OpenAlways:
		flags |= os.O_CREATE
	case edsdk.TruncateExisting:
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		if os.IsExist(err) {
			return 0, edsdk.FileAlreadyExists
		}
		return 0, edsdk.FileOpenError
	}

	o := s.newObject(kindFileStream, true)
	o.file = f
	o.path = path
	return o.handle, nil
}

func (s *SDK) CreateMemoryStream(size uint64) (edsdk.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.forcedErr("CreateMemoryStream"); err != nil {
		return 0, err
	}
	return s.newObject(kindMemoryStream, true).handle, nil
}

func (s *SDK) CreateImageRef(stream edsdk.Handle) (edsdk.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.forcedErr("CreateImageRef"); err != nil {
		return 0, err
	}
	st, err := s.lookup("CreateImageRef", stream, kindMemoryStream)
	if err != nil {
		return 0, err
	}
	if st.thumbOf == nil {
		return 0, edsdk.FileFormatUnrecognized
	}
	img := s.newObject(kindImage, true)
	if ts := st.thumbOf.timestamp; !ts.IsZero() {
		img.props[edsdk.PropDateTime] = &property{
			dataType: edsdk.DataTypeTime,
			size:     edsdk.TimeSize,
			data:     edsdk.EncodeTime(ts),
		}
	}
	return img.handle, nil
}

func (s *SDK) Download(item edsdk.Handle, size uint64, stream edsdk.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.forcedErr("Download"); err != nil {
		return err
	}
	o, err := s.lookup("Download", item, kindItem)
	if err != nil {
		return err
	}
	st, err := s.lookup("Download", stream, kindFileStream)
	if err != nil {
		return err
	}
	if o.item.IsFolder {
		return edsdk.InvalidParameter
	}
	o.downloads++

	end := o.offset + size
	if end > uint64(len(o.content)) {
		return edsdk.InvalidLength
	}
	fail := o.failAfter >= 0 && end > uint64(o.failAfter)
	if fail {
		end = uint64(max(o.failAfter, int64(o.offset)))
	}
	if _, err := st.file.Write(o.content[o.offset:end]); err != nil {
		return edsdk.StreamWriteError
	}
	o.offset = end
	if fail {
		return o.failCode
	}
	return nil
}

func (s *SDK) DownloadCancel(item edsdk.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.lookup("DownloadCancel", item, kindItem)
	if err != nil {
		return err
	}
	o.cancels++
	o.offset = 0
	return s.forcedErr("DownloadCancel")
}

func (s *SDK) DownloadComplete(item edsdk.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.lookup("DownloadComplete", item, kindItem)
	if err != nil {
		return err
	}
	o.completes++
	o.offset = 0
	return s.forcedErr("DownloadComplete")
}

func (s *SDK) DownloadThumbnail(item edsdk.Handle, stream edsdk.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.forcedErr("DownloadThumbnail"); err != nil {
		return err
	}
	o, err := s.lookup("DownloadThumbnail", item, kindItem)
	if err != nil {
		return err
	}
	st, err := s.lookup("DownloadThumbnail", stream, kindMemoryStream)
	if err != nil {
		return err
	}
	if o.item.IsFolder {
		return edsdk.InvalidParameter
	}
	st.thumbOf = o
	return nil
}

func (s *SDK) SendStatusCommand(camera edsdk.Handle, command edsdk.StatusCommand, param int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.forcedErr("SendStatusCommand"); err != nil {
		return err
	}
	o, err := s.lookup("SendStatusCommand", camera, kindCamera)
	if err != nil {
		return err
	}
	if !o.sessionOpen {
		return edsdk.SessionNotOpen
	}
	o.statusCommands = append(o.statusCommands, command)
	return nil
}
