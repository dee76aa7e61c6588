package fake

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/eoscam/eoscam/pkg/edsdk"
)

// Fixture is the on-disk description of a simulated camera setup.
type Fixture struct {
	Cameras []FixtureCamera `mapstructure:"cameras"`
}

type FixtureCamera struct {
	Port        string          `mapstructure:"port"`
	Description string          `mapstructure:"description"`
	Info        FixtureInfo     `mapstructure:"info"`
	Volumes     []FixtureVolume `mapstructure:"volumes"`
}

type FixtureInfo struct {
	ProductName     string `mapstructure:"product-name"`
	BodyID          string `mapstructure:"body-id"`
	OwnerName       string `mapstructure:"owner-name"`
	MakerName       string `mapstructure:"maker-name"`
	DateTime        string `mapstructure:"date-time"`
	FirmwareVersion string `mapstructure:"firmware-version"`
	BatteryLevel    int32  `mapstructure:"battery-level"`
	BatteryQuality  uint32 `mapstructure:"battery-quality"`
	SaveTo          uint32 `mapstructure:"save-to"`
	CurrentStorage  string `mapstructure:"current-storage"`
	CurrentFolder   string `mapstructure:"current-folder"`
	LensStatus      uint32 `mapstructure:"lens-status"`
	LensName        string `mapstructure:"lens-name"`
	Artist          string `mapstructure:"artist"`
	Copyright       string `mapstructure:"copyright"`
	AvailableShots  uint32 `mapstructure:"available-shots"`
}

type FixtureVolume struct {
	Label       string         `mapstructure:"label"`
	StorageType uint32         `mapstructure:"storage-type"`
	Access      uint32         `mapstructure:"access"`
	MaxCapacity uint64         `mapstructure:"max-capacity"`
	FreeSpace   uint64         `mapstructure:"free-space"`
	Entries     []FixtureEntry `mapstructure:"entries"`
}

// FixtureEntry is a folder when Entries is non-empty or Folder is set,
// otherwise a file of Size bytes (or Content when given).
type FixtureEntry struct {
	Name      string         `mapstructure:"name"`
	Folder    bool           `mapstructure:"folder"`
	Size      int            `mapstructure:"size"`
	Content   string         `mapstructure:"content"`
	Format    uint32         `mapstructure:"format"`
	GroupID   uint32         `mapstructure:"group-id"`
	Timestamp string         `mapstructure:"timestamp"`
	Entries   []FixtureEntry `mapstructure:"entries"`
}

// LoadFixture reads a YAML or JSON fixture file and builds a fake SDK from it.
func LoadFixture(path string) (*SDK, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}

	var fx Fixture
	if err := v.Unmarshal(&fx); err != nil {
		return nil, fmt.Errorf("failed to decode fixture %s: %w", path, err)
	}
	return Build(fx)
}

// Build creates a fake SDK populated from fx.
func Build(fx Fixture) (*SDK, error) {
	s := New()
	for _, c := range fx.Cameras {
		dt, err := parseTime(c.Info.DateTime)
		if err != nil {
			return nil, fmt.Errorf("camera %s: %w", c.Port, err)
		}
		cam := s.AddCamera(c.Port, c.Description, CameraSpec{
			ProductName:     c.Info.ProductName,
			BodyID:          c.Info.BodyID,
			OwnerName:       c.Info.OwnerName,
			MakerName:       c.Info.MakerName,
			DateTime:        dt,
			FirmwareVersion: c.Info.FirmwareVersion,
			BatteryLevel:    c.Info.BatteryLevel,
			BatteryQuality:  c.Info.BatteryQuality,
			SaveTo:          c.Info.SaveTo,
			CurrentStorage:  c.Info.CurrentStorage,
			CurrentFolder:   c.Info.CurrentFolder,
			LensStatus:      c.Info.LensStatus,
			LensName:        c.Info.LensName,
			Artist:          c.Info.Artist,
			Copyright:       c.Info.Copyright,
			AvailableShots:  c.Info.AvailableShots,
		})
		for _, vol := range c.Volumes {
			node := cam.AddVolume(edsdk.VolumeInfo{
				StorageType:      edsdk.StorageType(vol.StorageType),
				Access:           edsdk.Access(vol.Access),
				MaxCapacity:      vol.MaxCapacity,
				FreeSpaceInBytes: vol.FreeSpace,
				VolumeLabel:      vol.Label,
			})
			if err := addEntries(node, vol.Entries); err != nil {
				return nil, fmt.Errorf("camera %s volume %s: %w", c.Port, vol.Label, err)
			}
		}
	}
	return s, nil
}

func addEntries(parent *Node, entries []FixtureEntry) error {
	for _, e := range entries {
		if e.Folder || len(e.Entries) > 0 {
			if err := addEntries(parent.AddFolder(e.Name), e.Entries); err != nil {
				return err
			}
			continue
		}

		ts, err := parseTime(e.Timestamp)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Name, err)
		}
		content := []byte(e.Content)
		if len(content) == 0 {
			content = pattern(e.Size)
		}
		parent.AddFile(FileSpec{
			Name:      e.Name,
			Content:   content,
			Format:    e.Format,
			GroupID:   e.GroupID,
			Timestamp: ts,
		})
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// pattern returns n bytes of deterministic filler.
func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}
