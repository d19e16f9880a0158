// Package sync reconciles workspace resources stored in the database with
// their mirrored files in a sync directory.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/yaakapp/yaaksync/internal/models"
	"github.com/yaakapp/yaaksync/internal/store"
)

// Storage is the subset of the store the engine depends on.
type Storage interface {
	ListResources(workspaceID string) ([]models.Resource, error)
	GetResource(kind models.Kind, id string) (models.Resource, error)
	BatchUpsert(batch *store.Batch, source store.UpdateSource) ([]models.Resource, error)
	DeleteResource(r models.Resource, source store.UpdateSource) error
	ListSyncStates(workspaceID string, syncDir string) ([]*models.SyncState, error)
	ApplySyncStates(upserts []*models.SyncState, deletes []models.SyncStateKey) error
	SetWorkspaceSyncDir(workspaceID string, syncDir string) (bool, error)
}

// Engine runs reconciliation passes. Passes for the same workspace never
// overlap within one Engine; other workspaces proceed in parallel.
type Engine struct {
	storage Storage
	now     func() time.Time

	mu      sync.Mutex
	running map[string]struct{}
}

func NewEngine(storage Storage) *Engine {
	return &Engine{
		storage: storage,
		now:     time.Now,
		running: make(map[string]struct{}),
	}
}

// RunSyncPass derives both sides, diffs them against the fingerprints and
// applies the result for one workspace. Fingerprints are stamped with the
// instant the pass started reading, so edits made during the pass are seen
// as modifications by the next one.
func (e *Engine) RunSyncPass(ctx context.Context, workspaceID string, syncDir string) (*SyncReport, error) {
	if !e.tryLock(workspaceID) {
		return nil, ErrSyncAlreadyRunning
	}
	defer e.unlock(workspaceID)

	report, err := e.runSyncPass(ctx, workspaceID, filepath.Clean(syncDir))
	if err != nil {
		slog.Error("sync failed", "workspace", workspaceID, "dir", syncDir, "error", err)
		return report, fmt.Errorf("sync failed for workspace %s: %w", workspaceID, err)
	}
	return report, nil
}

func (e *Engine) runSyncPass(ctx context.Context, workspaceID string, syncDir string) (*SyncReport, error) {
	startedAt := e.now().UTC()
	report := newSyncReport(workspaceID, syncDir, startedAt)
	defer func() { report.Duration = time.Since(startedAt) }()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	resources, err := e.storage.ListResources(workspaceID)
	if err != nil {
		return report, storageError("workspace "+workspaceID, err)
	}
	states, err := e.storage.ListSyncStates(workspaceID, syncDir)
	if err != nil {
		return report, storageError("workspace "+workspaceID, err)
	}
	dbCandidates := DeriveDbCandidates(resources, states)

	fsCandidates, err := ScanDir(syncDir)
	if err != nil {
		return report, err
	}

	ops, err := ComputeOps(dbCandidates, fsCandidates)
	if err != nil {
		return report, err
	}
	slog.Debug("sync plan", "workspace", workspaceID, "db", len(dbCandidates), "fs", len(fsCandidates), "ops", len(ops))

	fingerprints := newFingerprintQueue(workspaceID, syncDir, startedAt)
	a := newApplier(e.storage, workspaceID, syncDir, fingerprints)
	applyErr := a.apply(ctx, ops)
	report.addApplied(a.applied, a.skipped)
	if applyErr != nil {
		return report, applyErr
	}

	written, deleted, err := fingerprints.flush(e.storage)
	if err != nil {
		return report, err
	}
	report.FingerprintsWritten = written
	report.FingerprintsDeleted = deleted

	if report.HasChanges() {
		slog.Info("sync", "workspace", workspaceID, "dir", syncDir, "counts", report.Counts, "took", time.Since(startedAt))
	}
	return report, nil
}

func (e *Engine) tryLock(workspaceID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.running[workspaceID]; ok {
		return false
	}
	e.running[workspaceID] = struct{}{}
	return true
}

func (e *Engine) unlock(workspaceID string) {
	e.mu.Lock()
	delete(e.running, workspaceID)
	e.mu.Unlock()
}
