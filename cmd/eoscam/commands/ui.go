package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	uiCamera int
	uiLock   bool
	uiUnlock bool
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Lock or unlock the camera's own controls",
	Args:  cobra.NoArgs,
	RunE:  runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
	uiCmd.Flags().IntVarP(&uiCamera, "camera", "c", 0, "Camera number (0..n-1)")
	uiCmd.Flags().BoolVar(&uiLock, "lock", false, "Lock the camera UI")
	uiCmd.Flags().BoolVar(&uiUnlock, "unlock", false, "Unlock the camera UI")
	uiCmd.MarkFlagsMutuallyExclusive("lock", "unlock")
	uiCmd.MarkFlagsOneRequired("lock", "unlock")
}

func runUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	conn, err := openConnection(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	cam, err := selectCamera(conn, uiCamera)
	if err != nil {
		return err
	}
	if err := cam.SetUIStatus(uiLock); err != nil {
		return err
	}

	state := "unlocked"
	if uiLock {
		state = "locked"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Camera %d UI %s\n", uiCamera, state)
	return nil
}
