package sync

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/yaakapp/yaaksync/internal/models"
	"github.com/yaakapp/yaaksync/internal/store"
	"github.com/yaakapp/yaaksync/internal/utils"
)

const filePerm = 0o644

// applier executes ops for one workspace. Filesystem writes take effect
// immediately; database creates and updates are held in a batch until all ops
// are processed.
type applier struct {
	storage      Storage
	workspaceID  string
	syncDir      string
	batch        *store.Batch
	fingerprints *fingerprintQueue
	touched      mapset.Set[string]
	applied      []OpSummary
	skipped      int
}

func newApplier(storage Storage, workspaceID, syncDir string, fingerprints *fingerprintQueue) *applier {
	return &applier{
		storage:      storage,
		workspaceID:  workspaceID,
		syncDir:      syncDir,
		batch:        store.NewBatch(),
		fingerprints: fingerprints,
		touched:      mapset.NewThreadUnsafeSet[string](),
	}
}

// apply processes ops in order and stops at the first error. File writes made
// before the error stay on disk.
func (a *applier) apply(ctx context.Context, ops []SyncOp) error {
	for _, op := range ops {
		if op.WorkspaceID() != a.workspaceID {
			a.skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		relPath, err := a.applyOne(op)
		if err != nil {
			return err
		}
		a.touched.Add(op.WorkspaceID())
		a.applied = append(a.applied, summarize(op, relPath))
		slog.Debug("sync", "op", op.Type(), "kind", op.Kind(), "id", op.ModelID(), "path", relPath)
	}

	if a.batch.Len() > 0 {
		if _, err := a.storage.BatchUpsert(a.batch, store.UpdateSourceSync); err != nil {
			return storageError("batch upsert", err)
		}
	}

	return a.linkSyncDir()
}

func (a *applier) applyOne(op SyncOp) (string, error) {
	switch op := op.(type) {
	case FsCreate:
		relPath := CanonicalFilename(op.Resource.GetID())
		checksum, err := a.writeResource(relPath, op.Resource)
		if err != nil {
			return relPath, err
		}
		a.fingerprints.upsert(nil, op.Resource.GetID(), checksum, relPath)
		return relPath, nil

	case FsUpdate:
		relPath := op.State.RelPath
		checksum, err := a.writeResource(relPath, op.Resource)
		if err != nil {
			return relPath, err
		}
		a.fingerprints.upsert(op.State, op.Resource.GetID(), checksum, relPath)
		return relPath, nil

	case FsDelete:
		relPath := op.State.RelPath
		if op.Fs != nil {
			paths := append([]string{op.Fs.RelPath}, op.Fs.Duplicates...)
			if !slices.Contains(paths, relPath) {
				paths = append(paths, relPath)
			}
			for _, path := range paths {
				if err := a.removeFile(path); err != nil {
					return path, err
				}
			}
		}
		a.fingerprints.delete(op.State.ModelID)
		return relPath, nil

	case DbCreate:
		a.batch.Add(op.Fs.Resource)
		a.fingerprints.upsert(nil, op.Fs.Resource.GetID(), op.Fs.Checksum, op.Fs.RelPath)
		return op.Fs.RelPath, nil

	case DbUpdate:
		a.batch.Add(op.Fs.Resource)
		a.fingerprints.upsert(op.State, op.Fs.Resource.GetID(), op.Fs.Checksum, op.Fs.RelPath)
		return op.Fs.RelPath, nil

	case DbDelete:
		if err := a.storage.DeleteResource(op.Resource, store.UpdateSourceSync); err != nil {
			return op.State.RelPath, storageError(models.Describe(op.Resource), err)
		}
		a.fingerprints.delete(op.Resource.GetID())
		return op.State.RelPath, nil

	case IgnorePrivate:
		a.fingerprints.noop(op.Resource.GetID())
		return "", nil

	default:
		return "", errors.New("unhandled sync op " + string(op.Type()))
	}
}

// writeResource serializes r using the format implied by relPath and returns
// the checksum of the bytes written.
func (a *applier) writeResource(relPath string, r models.Resource) (string, error) {
	format, err := models.FormatForPath(relPath)
	if err != nil {
		return "", &SyncError{Kind: ErrUnsupportedFileFormat, Path: relPath, Err: err}
	}
	data, err := models.Marshal(r, format)
	if err != nil {
		return "", serializationError(relPath, models.Describe(r), err)
	}
	if err := utils.WriteFileAtomic(filepath.Join(a.syncDir, relPath), data, filePerm); err != nil {
		return "", fsError(relPath, err)
	}
	return utils.Sha1Hex(data), nil
}

func (a *applier) removeFile(relPath string) error {
	err := os.Remove(filepath.Join(a.syncDir, relPath))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fsError(relPath, err)
	}
	return nil
}

// linkSyncDir records syncDir as the linked directory of every touched
// workspace that still exists.
func (a *applier) linkSyncDir() error {
	for _, workspaceID := range a.touched.ToSlice() {
		if _, err := a.storage.GetResource(models.KindWorkspace, workspaceID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return storageError("workspace "+workspaceID, err)
		}
		changed, err := a.storage.SetWorkspaceSyncDir(workspaceID, a.syncDir)
		if err != nil {
			return storageError("workspace "+workspaceID, err)
		}
		if changed {
			slog.Info("sync linked directory", "workspace", workspaceID, "dir", a.syncDir)
		}
	}
	return nil
}
