package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/eoscam/eoscam/pkg/db"
	"github.com/eoscam/eoscam/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	historyRun    string
	historyStatus string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List files recorded in the download ledger",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Only show files from this copy run")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "Only show files in this status")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := ensureDirectories(cfg.SQLitePath, "", ""); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.SQLitePath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	ctx := context.Background()
	var downloads []*db.Download
	switch {
	case historyRun != "":
		downloads, err = repo.ListByRun(ctx, historyRun)
	case historyStatus != "":
		downloads, err = repo.ListByStatus(ctx, historyStatus)
	default:
		downloads, err = repo.List(ctx)
	}
	if err != nil {
		return errors.Wrap(err, "list failed")
	}

	printHistory(cmd.OutOrStdout(), downloads)
	return nil
}

func printHistory(w io.Writer, downloads []*db.Download) {
	if len(downloads) == 0 {
		fmt.Fprintln(w, "No downloads found")
		return
	}

	fmt.Fprintf(w, "%-40s %-11s %-10s %-20s %s\n", "SOURCE", "STATUS", "SIZE", "TAKEN", "DESTINATION")
	fmt.Fprintln(w, "------------------------------------------------------------------------------------------------")

	for _, d := range downloads {
		dest := orDash(d.DestPath)
		if d.ArchiveKey != "" {
			dest += " (s3: " + d.ArchiveKey + ")"
		}
		if d.Status == db.StatusFailed && d.ErrorMessage != "" {
			dest = d.ErrorMessage
		}
		fmt.Fprintf(w, "%-40s %-11s %-10s %-20s %s\n",
			d.SourceKey, d.Status, humanize.Bytes(uint64(d.Size)), orDash(d.TakenAt), dest)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
