package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/yaakapp/yaaksync/internal/models"
)

const syncStateColumns = "id, workspace_id, model_id, checksum, rel_path, sync_dir, flushed_at, created_at, updated_at"

const upsertSyncStateQuery = `INSERT INTO sync_states (` + syncStateColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (workspace_id, model_id) DO UPDATE SET
	checksum = excluded.checksum,
	rel_path = excluded.rel_path,
	sync_dir = excluded.sync_dir,
	flushed_at = excluded.flushed_at,
	updated_at = excluded.updated_at`

// dbSyncState is used for scanning from the database where time is stored as TEXT.
type dbSyncState struct {
	ID          string `db:"id"`
	WorkspaceID string `db:"workspace_id"`
	ModelID     string `db:"model_id"`
	Checksum    string `db:"checksum"`
	RelPath     string `db:"rel_path"`
	SyncDir     string `db:"sync_dir"`
	FlushedAt   string `db:"flushed_at"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

func (row dbSyncState) toModel() (*models.SyncState, error) {
	flushedAt, err := parseTime(row.FlushedAt)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &models.SyncState{
		ID:          row.ID,
		WorkspaceID: row.WorkspaceID,
		ModelID:     row.ModelID,
		Checksum:    row.Checksum,
		RelPath:     row.RelPath,
		SyncDir:     row.SyncDir,
		FlushedAt:   flushedAt,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// ListSyncStates returns the fingerprints of a workspace for one sync directory.
func (s *Store) ListSyncStates(workspaceID string, syncDir string) ([]*models.SyncState, error) {
	var rows []dbSyncState
	query := s.db.Rebind("SELECT " + syncStateColumns + " FROM sync_states WHERE workspace_id = ? AND sync_dir = ? ORDER BY model_id")
	if err := s.db.Select(&rows, query, workspaceID, syncDir); err != nil {
		return nil, fmt.Errorf("list sync states for workspace %s: %w", workspaceID, err)
	}

	states := make([]*models.SyncState, 0, len(rows))
	for _, row := range rows {
		state, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("sync state %s: %w", row.ID, err)
		}
		states = append(states, state)
	}
	return states, nil
}

// GetSyncState returns ErrNotFound when the resource has no fingerprint.
func (s *Store) GetSyncState(workspaceID string, modelID string) (*models.SyncState, error) {
	var row dbSyncState
	query := s.db.Rebind("SELECT " + syncStateColumns + " FROM sync_states WHERE workspace_id = ? AND model_id = ?")
	if err := s.db.Get(&row, query, workspaceID, modelID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sync state %s/%s: %w", workspaceID, modelID, ErrNotFound)
		}
		return nil, fmt.Errorf("get sync state %s/%s: %w", workspaceID, modelID, err)
	}
	return row.toModel()
}

func (s *Store) UpsertSyncState(state *models.SyncState) error {
	return s.ApplySyncStates([]*models.SyncState{state}, nil)
}

func (s *Store) DeleteSyncState(key models.SyncStateKey) error {
	return s.ApplySyncStates(nil, []models.SyncStateKey{key})
}

// ApplySyncStates writes and removes fingerprints in a single transaction.
// An upsert keeps the row id and created_at of an existing fingerprint.
func (s *Store) ApplySyncStates(upserts []*models.SyncState, deletes []models.SyncStateKey) error {
	if len(upserts) == 0 && len(deletes) == 0 {
		return nil
	}

	now := s.now()
	return s.withTx(func(tx *sqlx.Tx) error {
		upsert := tx.Rebind(upsertSyncStateQuery)
		for _, state := range upserts {
			if state.ID == "" {
				state.ID = models.GenerateSyncStateID()
			}
			if state.CreatedAt.IsZero() {
				state.CreatedAt = now
			}
			state.UpdatedAt = now
			if state.FlushedAt.IsZero() {
				state.FlushedAt = now
			}
			_, err := tx.Exec(upsert,
				state.ID, state.WorkspaceID, state.ModelID, state.Checksum, state.RelPath, state.SyncDir,
				formatTime(state.FlushedAt), formatTime(state.CreatedAt), formatTime(state.UpdatedAt))
			if err != nil {
				return fmt.Errorf("upsert sync state %s: %w", state, err)
			}
		}

		del := tx.Rebind("DELETE FROM sync_states WHERE workspace_id = ? AND model_id = ?")
		for _, key := range deletes {
			if _, err := tx.Exec(del, key.WorkspaceID, key.ModelID); err != nil {
				return fmt.Errorf("delete sync state %s/%s: %w", key.WorkspaceID, key.ModelID, err)
			}
		}
		return nil
	})
}
