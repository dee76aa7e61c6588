package camera

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/eoscam/eoscam/pkg/edsdk"
)

// Unknown is shown for optional properties the camera does not expose.
const Unknown = "<Unknown>"

// DateTimeLayout formats camera and file dates.
const DateTimeLayout = "02-Jan-2006 15:04:05"

// acPower is the battery level reported when running from mains power.
const acPower = 0xffffffff

// CameraInfo is a snapshot of camera properties.
type CameraInfo struct {
	ProductName     string
	BodyID          string
	OwnerName       string
	MakerName       string
	DateTime        string
	FirmwareVersion string
	BatteryLevel    string
	BatteryQuality  string
	SaveTo          string
	CurrentStorage  string
	CurrentFolder   string
	LensAttached    bool
	LensName        string
	Artist          string
	Copyright       string
	AvailableShots  uint32
}

func formatBatteryLevel(level uint32) string {
	if level == acPower {
		return "AC power"
	}
	return strconv.FormatUint(uint64(level), 10) + "%"
}

func formatSaveTo(code uint32) string {
	var dest []string
	if code&1 != 0 {
		dest = append(dest, "Memory Card")
	}
	if code&2 != 0 {
		dest = append(dest, "Host Computer")
	}
	return strings.Join(dest, ", ")
}

// infoReader reads properties until the first failure and keeps it.
type infoReader struct {
	props Properties
	h     edsdk.Handle
	err   error
}

func (r *infoReader) available(id edsdk.PropertyID) bool {
	if r.err != nil {
		return false
	}
	ok, err := r.props.IsAvailable(r.h, id)
	r.err = err
	return ok
}

func (r *infoReader) str(id edsdk.PropertyID) string {
	if r.err != nil {
		return ""
	}
	v, err := r.props.String(r.h, id)
	r.err = err
	return v
}

func (r *infoReader) i32(id edsdk.PropertyID) int32 {
	if r.err != nil {
		return 0
	}
	v, err := r.props.Int32(r.h, id)
	r.err = err
	return v
}

func (r *infoReader) u32(id edsdk.PropertyID) uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.props.Uint32(r.h, id)
	r.err = err
	return v
}

func (r *infoReader) optionalStr(id edsdk.PropertyID) string {
	if !r.available(id) {
		return Unknown
	}
	return r.str(id)
}

func readCameraInfo(props Properties, h edsdk.Handle) (*CameraInfo, error) {
	r := &infoReader{props: props, h: h}
	info := &CameraInfo{
		ProductName: r.str(edsdk.PropProductName),
		BodyID:      r.str(edsdk.PropBodyIDEx),
		OwnerName:   r.str(edsdk.PropOwnerName),
		MakerName:   r.optionalStr(edsdk.PropMakerName),
	}

	if r.available(edsdk.PropUTCTime) {
		slog.Info("utc_time_unused", "camera", uintptr(h))
	}

	info.DateTime = Unknown
	if r.available(edsdk.PropDateTime) {
		t, err := props.Time(h, edsdk.PropDateTime)
		if err != nil {
			return nil, err
		}
		info.DateTime = t.Format(DateTimeLayout)
	}

	info.FirmwareVersion = r.str(edsdk.PropFirmwareVersion)
	info.BatteryLevel = formatBatteryLevel(uint32(r.i32(edsdk.PropBatteryLevel)))

	info.BatteryQuality = Unknown
	if r.available(edsdk.PropBatteryQuality) {
		info.BatteryQuality = strconv.FormatUint(uint64(r.u32(edsdk.PropBatteryQuality)), 10)
	}

	info.SaveTo = formatSaveTo(r.u32(edsdk.PropSaveTo))
	info.CurrentStorage = r.str(edsdk.PropCurrentStorage)
	info.CurrentFolder = r.str(edsdk.PropCurrentFolder)
	info.LensAttached = r.u32(edsdk.PropLensStatus) != 0
	info.LensName = r.str(edsdk.PropLensName)
	info.Artist = r.str(edsdk.PropArtist)
	info.Copyright = r.str(edsdk.PropCopyright)
	info.AvailableShots = r.u32(edsdk.PropAvailableShots)

	if r.err != nil {
		slog.Error("camera_info_failed", "camera", uintptr(h), "error", r.err)
		return nil, r.err
	}
	return info, nil
}
