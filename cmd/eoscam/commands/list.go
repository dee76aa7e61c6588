package commands

import (
	"fmt"
	"io"

	"github.com/eoscam/eoscam/pkg/camera"
	"github.com/spf13/cobra"
)

const labelWidth = 20

var listCamera int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show details of the connected cameras",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVarP(&listCamera, "camera", "c", -1, "Camera number (0..n-1), all cameras when omitted")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	conn, err := openConnection(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	first, last := 0, conn.NumberOfCameras()-1
	if listCamera >= 0 {
		first, last = listCamera, listCamera
	}

	out := cmd.OutOrStdout()
	for n := first; n <= last; n++ {
		cam, err := selectCamera(conn, n)
		if err != nil {
			return err
		}
		if n > first {
			fmt.Fprintln(out)
		}
		err = printCameraDetails(out, cam)
		if derr := conn.DeselectCamera(cam); err == nil {
			err = derr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func printLabel(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "%-*s%v\n", labelWidth, label, value)
}

func printCameraDetails(w io.Writer, cam *camera.Camera) error {
	info, err := cam.CameraInfo()
	if err != nil {
		return err
	}

	conn := cam.ConnectionInfo()
	lens := "No Lens"
	if info.LensAttached {
		lens = "Lens Attached"
	}

	printLabel(w, "Port", conn.Port)
	printLabel(w, "Description", conn.Description)
	printLabel(w, "Product", info.ProductName)
	printLabel(w, "Body", info.BodyID)
	printLabel(w, "Owner Name", info.OwnerName)
	printLabel(w, "Maker", info.MakerName)
	printLabel(w, "Date/Time", info.DateTime)
	printLabel(w, "Firmware", info.FirmwareVersion)
	printLabel(w, "Battery Level", info.BatteryLevel)
	printLabel(w, "Battery Quality", info.BatteryQuality)
	printLabel(w, "Save to", info.SaveTo)
	printLabel(w, "Current Storage", info.CurrentStorage)
	printLabel(w, "Current Folder", info.CurrentFolder)
	printLabel(w, "Lens Status", lens)
	printLabel(w, "Lens Name", info.LensName)
	printLabel(w, "Artist", info.Artist)
	printLabel(w, "Copyright", info.Copyright)
	printLabel(w, "Available Shots", info.AvailableShots)
	return nil
}
