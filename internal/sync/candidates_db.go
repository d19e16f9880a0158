package sync

import (
	"sort"

	"github.com/yaakapp/yaaksync/internal/models"
)

type DbCandidateStatus string

const (
	DbAdded      DbCandidateStatus = "Added"
	DbModified   DbCandidateStatus = "Modified"
	DbUnmodified DbCandidateStatus = "Unmodified"
	DbDeleted    DbCandidateStatus = "Deleted"
)

// DbCandidate is the database side's view of one resource relative to its
// fingerprint.
type DbCandidate struct {
	Status DbCandidateStatus
	// Resource is nil for a Deleted candidate whose resource is gone.
	Resource models.Resource
	// State is nil for an Added candidate.
	State *models.SyncState
}

func (c *DbCandidate) ModelID() string {
	if c.Resource != nil {
		return c.Resource.GetID()
	}
	return c.State.ModelID
}

// DeriveDbCandidates classifies live resources against their fingerprints.
// Private environments never become Added, and a private environment that was
// synced before is reported Deleted so it gets purged from disk.
func DeriveDbCandidates(resources []models.Resource, states []*models.SyncState) []*DbCandidate {
	stateByID := make(map[string]*models.SyncState, len(states))
	for _, state := range states {
		stateByID[state.ModelID] = state
	}

	seen := make(map[string]struct{}, len(resources))
	candidates := make([]*DbCandidate, 0, len(resources)+len(states))

	for _, r := range resources {
		id := r.GetID()
		seen[id] = struct{}{}
		state := stateByID[id]

		if models.IsPrivate(r) {
			if state != nil {
				candidates = append(candidates, &DbCandidate{Status: DbDeleted, Resource: r, State: state})
			}
			continue
		}

		switch {
		case state == nil:
			candidates = append(candidates, &DbCandidate{Status: DbAdded, Resource: r})
		case r.GetUpdatedAt().After(state.FlushedAt):
			candidates = append(candidates, &DbCandidate{Status: DbModified, Resource: r, State: state})
		default:
			candidates = append(candidates, &DbCandidate{Status: DbUnmodified, Resource: r, State: state})
		}
	}

	var dangling []*models.SyncState
	for _, state := range states {
		if _, ok := seen[state.ModelID]; !ok {
			dangling = append(dangling, state)
		}
	}
	sort.Slice(dangling, func(i, j int) bool { return dangling[i].ModelID < dangling[j].ModelID })
	for _, state := range dangling {
		candidates = append(candidates, &DbCandidate{Status: DbDeleted, State: state})
	}

	return candidates
}
