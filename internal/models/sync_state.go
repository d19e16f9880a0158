package models

import (
	"fmt"
	"time"
)

// SyncState is the fingerprint of one resource in one sync directory: the
// checksum and path of the file last known to match the database, and the
// instant both sides were confirmed to agree.
type SyncState struct {
	ID          string
	WorkspaceID string
	ModelID     string
	Checksum    string
	RelPath     string
	SyncDir     string
	FlushedAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SyncStateKey identifies a fingerprint.
type SyncStateKey struct {
	WorkspaceID string
	ModelID     string
}

func (s *SyncState) Key() SyncStateKey {
	return SyncStateKey{WorkspaceID: s.WorkspaceID, ModelID: s.ModelID}
}

func (s *SyncState) String() string {
	return fmt.Sprintf("%s/%s@%s", s.WorkspaceID, s.ModelID, s.RelPath)
}

// WorkspaceMeta holds per-workspace settings that are local to this machine
// and never synced, such as the directory a workspace is linked to.
type WorkspaceMeta struct {
	WorkspaceID    string
	SettingSyncDir string
	UpdatedAt      time.Time
}
