package sync

import (
	"time"
)

// SyncReport describes what a pass did. It is informative only.
type SyncReport struct {
	WorkspaceID         string
	SyncDir             string
	StartedAt           time.Time
	Duration            time.Duration
	Ops                 []OpSummary
	Counts              map[OpType]int
	Skipped             int
	FingerprintsWritten int
	FingerprintsDeleted int
}

func newSyncReport(workspaceID, syncDir string, startedAt time.Time) *SyncReport {
	return &SyncReport{
		WorkspaceID: workspaceID,
		SyncDir:     syncDir,
		StartedAt:   startedAt,
		Counts:      make(map[OpType]int),
	}
}

func (r *SyncReport) addApplied(ops []OpSummary, skipped int) {
	for _, op := range ops {
		r.Ops = append(r.Ops, op)
		r.Counts[op.Type]++
	}
	r.Skipped += skipped
}

// HasChanges reports whether the pass applied any operation.
func (r *SyncReport) HasChanges() bool {
	return len(r.Ops) > 0
}
