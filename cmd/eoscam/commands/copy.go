package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/eoscam/eoscam/internal/config"
	"github.com/eoscam/eoscam/pkg/camera"
	"github.com/eoscam/eoscam/pkg/db"
	"github.com/eoscam/eoscam/pkg/errors"
	appfsm "github.com/eoscam/eoscam/pkg/fsm"
	"github.com/eoscam/eoscam/pkg/metrics"
	"github.com/eoscam/eoscam/pkg/security"
	"github.com/eoscam/eoscam/pkg/storage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/superfly/fsm"
)

// pause between files gives the camera time to settle
const copyPause = 100 * time.Millisecond

var (
	copyCamera        int
	copyVolume        int
	copyFolder        string
	copyNoDateFolders bool
	copyForce         bool
)

var copyCmd = &cobra.Command{
	Use:   "copy <file> [<file> ...]",
	Short: "Copy matching files off a camera",
	Long: `Copies files from a camera folder into the output directory.

<file> can be a standard file wildcard expression. e.g. 'IMG_732*' matches
every file starting with 'IMG_732' and 'IMG_732*.CR2' matches every file
starting with 'IMG_732' and ending with '.CR2'.

Files already recorded as copied in the download ledger are skipped unless
--force is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCopy,
}

func init() {
	rootCmd.AddCommand(copyCmd)
	copyCmd.Flags().IntVarP(&copyCamera, "camera", "c", 0, "Camera number (0..n-1)")
	copyCmd.Flags().IntVarP(&copyVolume, "volume", "V", 0, "Volume number")
	copyCmd.Flags().StringVarP(&copyFolder, "folder", "f", "", "Image folder below DCIM, defaults to the camera's current folder")
	copyCmd.Flags().BoolVar(&copyNoDateFolders, "no-date-folders", false, "Do not put copied files into date folders")
	copyCmd.Flags().BoolVar(&copyForce, "force", false, "Copy files even when the ledger says they were copied")
}

// copier runs one copy session: every matched file goes through the copy
// FSM, one at a time.
type copier struct {
	repo    *db.Repository
	manager *fsm.Manager
	start   fsm.Start[appfsm.CopyRequest, appfsm.CopyResponse]
	sources *appfsm.Sources
	runID   string
	camera  string
	folder  string
	force   bool
	pause   time.Duration
}

// newCopier starts an FSM manager on cfg.FSMDBPath and registers the copy
// machine with it. The caller must call shutdown.
func newCopier(ctx context.Context, cfg *config.Config, repo *db.Repository, archiver appfsm.Archiver, collector *metrics.Collector) (*copier, error) {
	manager, err := fsm.New(fsm.Config{
		Logger: fsmLogger(),
		DBPath: cfg.FSMDBPath,
	})
	if err != nil {
		return nil, errors.Wrap(err, "FSM manager failed")
	}

	validator := security.NewValidator(cfg.MaxFileSize, cfg.MaxTotalSize)
	sources := appfsm.NewSources()
	machine := appfsm.NewMachine(repo, archiver, validator, sources, cfg.OutputDir, !copyNoDateFolders, cfg.FSMMaxRetries).
		WithMetrics(collector)
	start, _, err := machine.Register(ctx, manager)
	if err != nil {
		manager.Shutdown(time.Second)
		return nil, errors.Wrap(err, "FSM register failed")
	}

	return &copier{
		repo:    repo,
		manager: manager,
		start:   start,
		sources: sources,
		runID:   uuid.NewString(),
		pause:   copyPause,
	}, nil
}

func (c *copier) shutdown() {
	c.manager.Shutdown(10 * time.Second)
}

func runCopy(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Validate patterns before touching the camera
	patterns := make([]camera.Matcher, 0, len(args))
	for _, arg := range args {
		m, err := camera.Wildcard(arg)
		if err != nil {
			return errors.Wrap(err, "invalid file pattern "+arg)
		}
		patterns = append(patterns, m)
	}

	if err := ensureDirectories(cfg.SQLitePath, cfg.FSMDBPath, cfg.OutputDir); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.SQLitePath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	archiver, err := newArchiver(ctx, cfg)
	if err != nil {
		return err
	}

	collector := metrics.New()
	defer func() {
		if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
			slog.Warn("metrics_skipped", "error", err)
		}
	}()

	c, err := newCopier(ctx, cfg, repo, archiver, collector)
	if err != nil {
		return err
	}
	defer c.shutdown()

	conn, err := openConnection(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	cam, err := selectCamera(conn, copyCamera)
	if err != nil {
		return err
	}
	info, err := cam.CameraInfo()
	if err != nil {
		return err
	}

	folder := copyFolder
	if folder == "" {
		folder = info.CurrentFolder
	}

	vol, err := cam.SelectVolume(copyVolume)
	if err != nil {
		return err
	}
	defer vol.Close()

	c.camera = info.BodyID
	c.folder = folder
	c.force = copyForce
	return c.run(ctx, cmd.OutOrStdout(), vol, patterns)
}

// run copies the files of c.folder matching any of patterns and prints
// the summary line.
func (c *copier) run(ctx context.Context, out io.Writer, vol *camera.Volume, patterns []camera.Matcher) error {
	slog.Info("copy_run_started", "run_id", c.runID, "camera", c.camera, "folder", c.folder, "patterns", len(patterns))

	copied := 0
	for _, m := range patterns {
		files, err := vol.FindMatchingFiles(c.folder, m)
		if err != nil {
			return err
		}
		n, err := c.copyAll(ctx, out, files)
		copied += n
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "%d file(s) copied\n", copied)
	slog.Info("copy_run_complete", "run_id", c.runID, "copied", copied)
	return nil
}

func newArchiver(ctx context.Context, cfg *config.Config) (appfsm.Archiver, error) {
	if !cfg.ArchiveEnabled() {
		return nil, nil
	}
	client, err := storage.NewClient(ctx, cfg.ArchiveBucket, cfg.ArchiveRegion, cfg.ArchivePrefix)
	if err != nil {
		return nil, errors.Wrap(err, "S3 client failed")
	}
	return client, nil
}

// copyAll copies files in order and closes every one of them. It stops at
// the first failure.
func (c *copier) copyAll(ctx context.Context, out io.Writer, files []*camera.Directory) (int, error) {
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	copied := 0
	for _, f := range files {
		ok, err := c.copyFile(ctx, out, f)
		if err != nil {
			return copied, err
		}
		if ok {
			copied++
			time.Sleep(c.pause)
		}
	}
	return copied, nil
}

// copyFile runs the copy FSM for f and reports whether it was copied.
func (c *copier) copyFile(ctx context.Context, out io.Writer, f *camera.Directory) (bool, error) {
	key := db.SourceKey(c.camera, c.folder, f.Name())
	c.sources.Add(key, f)
	defer c.sources.Remove(key)

	req := &appfsm.CopyRequest{
		RunID:     c.runID,
		SourceKey: key,
		Camera:    c.camera,
		Folder:    c.folder,
		FileName:  f.Name(),
		Size:      int64(f.Size()),
		Force:     c.force,
	}
	resp := &appfsm.CopyResponse{}

	version, err := c.start(ctx, c.runID+":"+key, fsm.NewRequest(req, resp))
	if err != nil {
		return false, errors.Wrap(err, "FSM start failed")
	}
	werr := c.manager.Wait(ctx, version)

	d, err := c.repo.GetBySourceKey(key)
	if err != nil {
		return false, err
	}
	// the file is on disk but the upload gave up
	if werr != nil && d != nil && d.Status == db.StatusCopied && d.RunID == c.runID {
		fmt.Fprintf(out, "Copying file %s to %s\n", f.Name(), d.DestPath)
		fmt.Fprintf(out, "Failed to archive file %s. Error %s\n", f.Name(), d.ErrorMessage)
		return true, errors.Wrap(werr, "failed to archive "+f.Name())
	}
	if werr != nil || d == nil || d.Status == db.StatusFailed {
		reason := werr
		if d != nil && d.ErrorMessage != "" {
			reason = fmt.Errorf("%s", d.ErrorMessage)
		}
		if reason == nil {
			reason = fmt.Errorf("copy did not complete")
		}
		fmt.Fprintf(out, "Failed to copy file %s. Error %v\n", f.Name(), reason)
		return false, errors.Wrap(reason, "failed to copy "+f.Name())
	}

	if d.RunID != c.runID {
		fmt.Fprintf(out, "Skipping file %s (already copied to %s)\n", f.Name(), d.DestPath)
		return false, nil
	}

	fmt.Fprintf(out, "Copying file %s to %s\n", f.Name(), d.DestPath)
	return true, nil
}
