package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/eoscam/eoscam/pkg/camera"
	"github.com/spf13/cobra"
)

const emptyMarker = "--  Empty  --"

var (
	filesCamera int
	filesVolume int
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Show the volume and file tree of a camera",
	Args:  cobra.NoArgs,
	RunE:  runFiles,
}

func init() {
	rootCmd.AddCommand(filesCmd)
	filesCmd.Flags().IntVarP(&filesCamera, "camera", "c", 0, "Camera number (0..n-1)")
	filesCmd.Flags().IntVarP(&filesVolume, "volume", "V", 0, "Volume number")
}

func runFiles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	conn, err := openConnection(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	cam, err := selectCamera(conn, filesCamera)
	if err != nil {
		return err
	}

	vol, err := cam.SelectVolume(filesVolume)
	if err != nil {
		return err
	}
	defer vol.Close()

	return dumpVolume(cmd.OutOrStdout(), vol, filesVolume)
}

func dumpVolume(w io.Writer, vol *camera.Volume, n int) error {
	count, err := vol.DirectoryCount()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Selected volume number %d\n", n)
	printLabel(w, "Volume", vol.Label())
	printLabel(w, "Storage Type", vol.StorageType())
	printLabel(w, "Access", vol.Access())
	printLabel(w, "Max Capacity", humanize.IBytes(vol.MaxCapacity()))
	printLabel(w, "Free Space", humanize.IBytes(vol.FreeSpace()))
	printLabel(w, "Root Dir Entry", count)
	fmt.Fprintln(w)

	if count < 1 {
		fmt.Fprintln(w, emptyMarker)
		return nil
	}
	for i := 0; i < count; i++ {
		dir, err := vol.SelectDirectory(i)
		if err != nil {
			return err
		}
		err = dumpDirectory(w, dir, "")
		dir.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func dumpDirectory(w io.Writer, dir *camera.Directory, indent string) error {
	if !dir.IsFolder() {
		date, err := dir.DateTime()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s%-12s%8.2fMB %16s%10s%16d\n",
			indent, dir.Name(), float64(dir.Size())/(1024*1024), date,
			fmt.Sprintf("%#x", dir.Format()), dir.GroupID())
		return nil
	}

	fmt.Fprintf(w, "%s%s (folder)\n", indent, dir.Name())
	indent += "  "

	count, err := dir.DirectoryCount()
	if err != nil {
		return err
	}
	if count < 1 {
		fmt.Fprintf(w, "%s%s\n", indent, emptyMarker)
		return nil
	}
	for i := 0; i < count; i++ {
		entry, err := dir.Entry(i)
		if err != nil {
			return err
		}
		err = dumpDirectory(w, entry, indent)
		entry.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
