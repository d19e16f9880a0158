package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"github.com/yaakapp/yaaksync/internal/config"
	"github.com/yaakapp/yaaksync/internal/models"
	"github.com/yaakapp/yaaksync/internal/store"
	"github.com/yaakapp/yaaksync/internal/sync"
	"github.com/yaakapp/yaaksync/internal/utils"
	"golang.org/x/sync/errgroup"
)

func newSyncCmd(c *cli) *cobra.Command {
	var (
		workspaceID string
		dir         string
		all         bool
		concurrency int
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation pass between the database and the sync directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (workspaceID != "") {
				return errors.New("pass exactly one of --workspace or --all")
			}
			if all && dir != "" {
				return errors.New("--dir cannot be combined with --all")
			}
			if concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1, got %d", concurrency)
			}

			cfg, st, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer c.close()

			engine := sync.NewEngine(st)
			out := cmd.OutOrStdout()

			if !all {
				syncDir, err := resolveSyncDir(st, workspaceID, dir)
				if err != nil {
					return err
				}
				report, err := runLocked(cmd.Context(), cfg, engine, workspaceID, syncDir)
				if report != nil {
					printReport(out, report, verbose)
				}
				return err
			}

			linked, err := st.ListLinkedWorkspaces()
			if err != nil {
				return err
			}
			if len(linked) == 0 {
				fmt.Fprintln(out, yellow("no linked workspaces"))
				return nil
			}

			reports := make([]*sync.SyncReport, len(linked))
			var g errgroup.Group
			g.SetLimit(concurrency)
			for i, meta := range linked {
				i, meta := i, meta
				g.Go(func() error {
					report, err := runLocked(cmd.Context(), cfg, engine, meta.WorkspaceID, meta.SettingSyncDir)
					reports[i] = report
					return err
				})
			}
			err = g.Wait()

			for _, report := range reports {
				if report != nil {
					printReport(out, report, verbose)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "workspace id to sync")
	cmd.Flags().StringVar(&dir, "dir", "", "sync directory (defaults to the workspace's linked directory)")
	cmd.Flags().BoolVar(&all, "all", false, "sync every linked workspace")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "maximum passes running at once with --all")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list every applied operation")
	return cmd
}

// resolveSyncDir picks --dir when given, otherwise the workspace's linked directory.
func resolveSyncDir(st *store.Store, workspaceID, dir string) (string, error) {
	if _, err := st.GetResource(models.KindWorkspace, workspaceID); err != nil {
		return "", fmt.Errorf("workspace %s: %w", workspaceID, err)
	}

	if dir == "" {
		meta, err := st.GetWorkspaceMeta(workspaceID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && meta.SettingSyncDir == "") {
			return "", fmt.Errorf("workspace %s is not linked to a directory, pass --dir or run link first", workspaceID)
		}
		if err != nil {
			return "", err
		}
		dir = meta.SettingSyncDir
	}

	return utils.ResolvePath(dir)
}

// runLocked runs a pass while holding a per-workspace file lock so separate
// processes never reconcile the same workspace at once.
func runLocked(ctx context.Context, cfg *config.Config, engine *sync.Engine, workspaceID, syncDir string) (*sync.SyncReport, error) {
	if err := utils.EnsureDir(cfg.LocksDir()); err != nil {
		return nil, fmt.Errorf("create locks dir: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.LocksDir(), workspaceID+".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock workspace %s: %w", workspaceID, err)
	}
	if !locked {
		return nil, fmt.Errorf("workspace %s: %w", workspaceID, sync.ErrSyncAlreadyRunning)
	}
	defer lock.Unlock()

	return engine.RunSyncPass(ctx, workspaceID, syncDir)
}

func printReport(w io.Writer, report *sync.SyncReport, verbose bool) {
	if !report.HasChanges() {
		fmt.Fprintf(w, "%s %s %s up to date\n", green("✓"), cyan(report.WorkspaceID), report.SyncDir)
		return
	}

	types := make([]string, 0, len(report.Counts))
	for opType, n := range report.Counts {
		types = append(types, fmt.Sprintf("%s=%d", opType, n))
	}
	sort.Strings(types)

	fmt.Fprintf(w, "%s %s %s %d ops (%s) in %s\n",
		green("✓"), cyan(report.WorkspaceID), report.SyncDir, len(report.Ops), strings.Join(types, " "), report.Duration.Round(time.Millisecond))

	if verbose {
		for _, op := range report.Ops {
			fmt.Fprintf(w, "  %-13s %-17s %s %s\n", op.Type, op.Kind, op.ModelID, op.RelPath)
		}
	}
}
