package sync

import (
	"time"

	"github.com/yaakapp/yaaksync/internal/models"
)

type fingerprintAction int

const (
	fingerprintUpsert fingerprintAction = iota
	fingerprintDelete
	fingerprintNoop
)

type fingerprintEntry struct {
	action fingerprintAction
	state  *models.SyncState
	key    models.SyncStateKey
}

// fingerprintQueue collects bookkeeping produced while applying ops. Nothing
// reaches the store until flush.
type fingerprintQueue struct {
	workspaceID string
	syncDir     string
	flushedAt   time.Time
	entries     []fingerprintEntry
}

func newFingerprintQueue(workspaceID, syncDir string, flushedAt time.Time) *fingerprintQueue {
	return &fingerprintQueue{
		workspaceID: workspaceID,
		syncDir:     syncDir,
		flushedAt:   flushedAt,
	}
}

func (q *fingerprintQueue) upsert(existing *models.SyncState, modelID, checksum, relPath string) {
	state := &models.SyncState{
		WorkspaceID: q.workspaceID,
		ModelID:     modelID,
		Checksum:    checksum,
		RelPath:     relPath,
		SyncDir:     q.syncDir,
		FlushedAt:   q.flushedAt,
	}
	if existing != nil {
		state.ID = existing.ID
		state.CreatedAt = existing.CreatedAt
	}
	q.entries = append(q.entries, fingerprintEntry{action: fingerprintUpsert, state: state})
}

func (q *fingerprintQueue) delete(modelID string) {
	q.entries = append(q.entries, fingerprintEntry{
		action: fingerprintDelete,
		key:    models.SyncStateKey{WorkspaceID: q.workspaceID, ModelID: modelID},
	})
}

func (q *fingerprintQueue) noop(modelID string) {
	q.entries = append(q.entries, fingerprintEntry{
		action: fingerprintNoop,
		key:    models.SyncStateKey{WorkspaceID: q.workspaceID, ModelID: modelID},
	})
}

// flush writes every queued upsert and delete in one store transaction and
// returns how many of each were written.
func (q *fingerprintQueue) flush(storage Storage) (int, int, error) {
	var upserts []*models.SyncState
	var deletes []models.SyncStateKey
	for _, entry := range q.entries {
		switch entry.action {
		case fingerprintUpsert:
			upserts = append(upserts, entry.state)
		case fingerprintDelete:
			deletes = append(deletes, entry.key)
		}
	}

	if err := storage.ApplySyncStates(upserts, deletes); err != nil {
		return 0, 0, storageError("sync states", err)
	}
	return len(upserts), len(deletes), nil
}
