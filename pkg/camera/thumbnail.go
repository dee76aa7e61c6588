package camera

import (
	"time"

	"github.com/eoscam/eoscam/pkg/edsdk"
)

// thumbnailTimestamp decodes the thumbnail of item and reads its DateTime
// property. A thumbnail without one yields the zero time.
func thumbnailTimestamp(sdk edsdk.SDK, item edsdk.Handle) (time.Time, error) {
	h, err := sdk.CreateMemoryStream(0)
	if err != nil {
		return time.Time{}, sdkError("Failed to create memory stream", err, "Timestamp")
	}
	stream := Adopt(sdk, h)
	defer stream.Close()

	if err := sdk.DownloadThumbnail(item, stream.Handle()); err != nil {
		return time.Time{}, sdkError("Failed to download thumbnail", err, "Timestamp")
	}

	h, err = sdk.CreateImageRef(stream.Handle())
	if err != nil {
		return time.Time{}, sdkError("Failed to create image ref", err, "Timestamp")
	}
	img := Adopt(sdk, h)
	defer img.Close()

	props := Properties{SDK: sdk}
	ok, err := props.IsAvailable(img.Handle(), edsdk.PropDateTime)
	if err != nil || !ok {
		return time.Time{}, err
	}
	return props.Time(img.Handle(), edsdk.PropDateTime)
}
