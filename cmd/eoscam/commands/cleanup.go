package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/eoscam/eoscam/pkg/db"
	"github.com/eoscam/eoscam/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	cleanupFailed   bool
	cleanupSource   string
	cleanupOrphaned bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Clean up download ledger entries",
	Long: `Clean up download ledger entries:
  --failed           Remove failed downloads and any partial files they left
  --source <key>     Forget one file so the next copy fetches it again
  --orphaned         Remove copied entries whose local file no longer exists`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().BoolVar(&cleanupFailed, "failed", false, "Clean failed downloads")
	cleanupCmd.Flags().StringVar(&cleanupSource, "source", "", "Clean one download by source key")
	cleanupCmd.Flags().BoolVar(&cleanupOrphaned, "orphaned", false, "Clean entries whose local file is gone")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.SQLitePath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	switch {
	case cleanupFailed:
		return cleanupFailedDownloads(ctx, out, repo)
	case cleanupSource != "":
		return cleanupSpecificSource(out, repo, cleanupSource)
	case cleanupOrphaned:
		return cleanupOrphanedEntries(ctx, out, repo)
	default:
		return fmt.Errorf("must specify --failed, --source, or --orphaned")
	}
}

func cleanupFailedDownloads(ctx context.Context, out io.Writer, repo *db.Repository) error {
	downloads, err := repo.ListByStatus(ctx, db.StatusFailed)
	if err != nil {
		return errors.Wrap(err, "list failed")
	}

	fmt.Fprintf(out, "Cleaning up %d failed downloads...\n", len(downloads))

	for _, d := range downloads {
		if err := removeDownload(repo, d, true); err != nil {
			fmt.Fprintf(out, "Failed to clean %s: %v\n", d.SourceKey, err)
		} else {
			fmt.Fprintf(out, "Cleaned: %s\n", d.SourceKey)
		}
	}
	return nil
}

func cleanupSpecificSource(out io.Writer, repo *db.Repository, sourceKey string) error {
	d, err := repo.GetBySourceKey(sourceKey)
	if err != nil {
		return errors.Wrap(err, "lookup failed")
	}
	if d == nil {
		return fmt.Errorf("download not found: %s", sourceKey)
	}

	// Copied files stay on disk; only the ledger forgets them.
	if err := removeDownload(repo, d, false); err != nil {
		return errors.Wrap(err, "cleanup failed")
	}

	fmt.Fprintf(out, "Cleaned: %s\n", sourceKey)
	return nil
}

func cleanupOrphanedEntries(ctx context.Context, out io.Writer, repo *db.Repository) error {
	fmt.Fprintln(out, "Scanning for orphaned entries...")

	downloads, err := repo.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list failed")
	}

	orphanCount := 0
	for _, d := range downloads {
		if !d.Done() || d.DestPath == "" {
			continue
		}
		if _, err := os.Stat(d.DestPath); !os.IsNotExist(err) {
			continue
		}
		if err := repo.Delete(d.ID); err != nil {
			fmt.Fprintf(out, "Failed to remove orphaned entry %s: %v\n", d.SourceKey, err)
			continue
		}
		fmt.Fprintf(out, "Removed orphaned entry: %s\n", d.SourceKey)
		orphanCount++
	}

	fmt.Fprintf(out, "Removed %d orphaned entries\n", orphanCount)
	return nil
}

// removeDownload deletes the ledger row of d, and its local file when
// removeFile is set.
func removeDownload(repo *db.Repository, d *db.Download, removeFile bool) error {
	if removeFile && d.DestPath != "" {
		if err := os.Remove(d.DestPath); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "failed to remove file")
		}
	}
	return repo.Delete(d.ID)
}
