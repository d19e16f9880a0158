package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/yaakapp/yaaksync/internal/models"
)

type dbWorkspaceMeta struct {
	WorkspaceID    string `db:"workspace_id"`
	SettingSyncDir string `db:"setting_sync_dir"`
	UpdatedAt      string `db:"updated_at"`
}

// GetWorkspaceMeta returns ErrNotFound if the workspace was never linked.
func (s *Store) GetWorkspaceMeta(workspaceID string) (*models.WorkspaceMeta, error) {
	var row dbWorkspaceMeta
	query := s.db.Rebind("SELECT workspace_id, setting_sync_dir, updated_at FROM workspace_metas WHERE workspace_id = ?")
	if err := s.db.Get(&row, query, workspaceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("workspace meta %s: %w", workspaceID, ErrNotFound)
		}
		return nil, fmt.Errorf("get workspace meta %s: %w", workspaceID, err)
	}
	updatedAt, err := parseTime(row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &models.WorkspaceMeta{
		WorkspaceID:    row.WorkspaceID,
		SettingSyncDir: row.SettingSyncDir,
		UpdatedAt:      updatedAt,
	}, nil
}

// SetWorkspaceSyncDir links a workspace to a sync directory. It writes only
// when the stored value differs and reports whether it did. Relinking drops
// the fingerprints recorded for any other directory, since no pass will load
// them again.
func (s *Store) SetWorkspaceSyncDir(workspaceID string, syncDir string) (bool, error) {
	current, err := s.GetWorkspaceMeta(workspaceID)
	switch {
	case err == nil && current.SettingSyncDir == syncDir:
		return false, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return false, err
	}

	err = s.withTx(func(tx *sqlx.Tx) error {
		query := tx.Rebind(`INSERT INTO workspace_metas (workspace_id, setting_sync_dir, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT (workspace_id) DO UPDATE SET
				setting_sync_dir = excluded.setting_sync_dir,
				updated_at = excluded.updated_at`)
		if _, err := tx.Exec(query, workspaceID, syncDir, formatTime(s.now())); err != nil {
			return err
		}

		query = tx.Rebind("DELETE FROM sync_states WHERE workspace_id = ? AND sync_dir <> ?")
		res, err := tx.Exec(query, workspaceID, syncDir)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			slog.Debug("dropped fingerprints of previous sync dir", "workspace", workspaceID, "count", n)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("set sync dir for workspace %s: %w", workspaceID, err)
	}
	return true, nil
}

// ListLinkedWorkspaces returns every workspace meta with a sync directory.
func (s *Store) ListLinkedWorkspaces() ([]*models.WorkspaceMeta, error) {
	var rows []dbWorkspaceMeta
	if err := s.db.Select(&rows, "SELECT workspace_id, setting_sync_dir, updated_at FROM workspace_metas WHERE setting_sync_dir <> '' ORDER BY workspace_id"); err != nil {
		return nil, fmt.Errorf("list linked workspaces: %w", err)
	}
	metas := make([]*models.WorkspaceMeta, 0, len(rows))
	for _, row := range rows {
		updatedAt, err := parseTime(row.UpdatedAt)
		if err != nil {
			return nil, err
		}
		metas = append(metas, &models.WorkspaceMeta{
			WorkspaceID:    row.WorkspaceID,
			SettingSyncDir: row.SettingSyncDir,
			UpdatedAt:      updatedAt,
		})
	}
	return metas, nil
}
