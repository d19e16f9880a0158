package sync

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// ComputeOps joins DB and FS candidates by resource id and decides one
// operation per id. Ids that are already in agreement produce nothing. The
// result is ordered by kind dependency rank, then id.
func ComputeOps(dbCandidates []*DbCandidate, fsCandidates []*FsCandidate) ([]SyncOp, error) {
	dbByID := make(map[string]*DbCandidate, len(dbCandidates))
	fsByID := make(map[string]*FsCandidate, len(fsCandidates))
	keys := mapset.NewThreadUnsafeSet[string]()

	for _, c := range dbCandidates {
		dbByID[c.ModelID()] = c
		keys.Add(c.ModelID())
	}
	for _, c := range fsCandidates {
		fsByID[c.Resource.GetID()] = c
		keys.Add(c.Resource.GetID())
	}

	ops := make([]SyncOp, 0, keys.Cardinality())
	for _, id := range keys.ToSlice() {
		op, err := decide(dbByID[id], fsByID[id])
		if err != nil {
			return nil, fmt.Errorf("compute op for %s: %w", id, err)
		}
		if op != nil {
			ops = append(ops, op)
		}
	}

	sortOps(ops)
	return ops, nil
}

func decide(db *DbCandidate, fs *FsCandidate) (SyncOp, error) {
	if db == nil {
		if fs == nil {
			return nil, nil
		}
		return DbCreate{Fs: fs}, nil
	}

	if fs == nil {
		switch db.Status {
		case DbUnmodified:
			return DbDelete{Resource: db.Resource, State: db.State}, nil
		case DbModified:
			return FsUpdate{Resource: db.Resource, State: db.State}, nil
		case DbAdded:
			return FsCreate{Resource: db.Resource}, nil
		case DbDeleted:
			return FsDelete{State: db.State, Resource: db.Resource}, nil
		default:
			return nil, fmt.Errorf("unknown db candidate status %q", db.Status)
		}
	}

	switch db.Status {
	case DbUnmodified:
		if fs.Checksum == db.State.Checksum {
			return nil, nil
		}
		return DbUpdate{Fs: fs, State: db.State}, nil
	case DbModified:
		if fs.Checksum == db.State.Checksum {
			return FsUpdate{Resource: db.Resource, State: db.State}, nil
		}
		// both sides changed, the newer embedded timestamp wins
		if fs.Resource.GetUpdatedAt().After(db.Resource.GetUpdatedAt()) {
			return DbUpdate{Fs: fs, State: db.State}, nil
		}
		return FsUpdate{Resource: db.Resource, State: db.State}, nil
	case DbAdded:
		return FsCreate{Resource: db.Resource}, nil
	case DbDeleted:
		return FsDelete{State: db.State, Fs: fs, Resource: db.Resource}, nil
	default:
		return nil, fmt.Errorf("unknown db candidate status %q", db.Status)
	}
}

func sortOps(ops []SyncOp) {
	sort.SliceStable(ops, func(i, j int) bool {
		ri, rj := ops[i].Kind().Rank(), ops[j].Kind().Rank()
		if ri != rj {
			return ri < rj
		}
		return ops[i].ModelID() < ops[j].ModelID()
	})
}

