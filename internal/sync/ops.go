package sync

import (
	"github.com/yaakapp/yaaksync/internal/models"
)

type OpType string

const (
	OpFsCreate      OpType = "FsCreate"
	OpFsUpdate      OpType = "FsUpdate"
	OpFsDelete      OpType = "FsDelete"
	OpDbCreate      OpType = "DbCreate"
	OpDbUpdate      OpType = "DbUpdate"
	OpDbDelete      OpType = "DbDelete"
	OpIgnorePrivate OpType = "IgnorePrivate"
)

// AllOpTypes lists every operation the applier understands.
var AllOpTypes = []OpType{
	OpFsCreate,
	OpFsUpdate,
	OpFsDelete,
	OpDbCreate,
	OpDbUpdate,
	OpDbDelete,
	OpIgnorePrivate,
}

// SyncOp is the sealed set of operations produced by ComputeOps. Each variant
// carries exactly what the applier needs.
type SyncOp interface {
	Type() OpType
	ModelID() string
	WorkspaceID() string
	// Kind is empty when only a fingerprint is known about the resource.
	Kind() models.Kind
	isSyncOp()
}

// FsCreate writes a resource that has never been synced to its canonical path.
type FsCreate struct {
	Resource models.Resource
}

// FsUpdate rewrites the file recorded in the fingerprint with the database value.
type FsUpdate struct {
	Resource models.Resource
	State    *models.SyncState
}

// FsDelete clears a fingerprint and removes the matched file, if any.
type FsDelete struct {
	State *models.SyncState
	// Fs is nil when no file matched.
	Fs *FsCandidate
	// Resource is set when a live resource fell out of sync scope.
	Resource models.Resource
}

// DbCreate inserts a resource found only on disk.
type DbCreate struct {
	Fs *FsCandidate
}

// DbUpdate overwrites the database resource with the file content.
type DbUpdate struct {
	Fs    *FsCandidate
	State *models.SyncState
}

// DbDelete removes a resource whose file disappeared.
type DbDelete struct {
	Resource models.Resource
	State    *models.SyncState
}

// IgnorePrivate is a bookkeeping no-op for a private resource. ComputeOps
// never produces it.
type IgnorePrivate struct {
	Resource models.Resource
	State    *models.SyncState
}

func (FsCreate) isSyncOp()      {}
func (FsUpdate) isSyncOp()      {}
func (FsDelete) isSyncOp()      {}
func (DbCreate) isSyncOp()      {}
func (DbUpdate) isSyncOp()      {}
func (DbDelete) isSyncOp()      {}
func (IgnorePrivate) isSyncOp() {}

func (FsCreate) Type() OpType      { return OpFsCreate }
func (FsUpdate) Type() OpType      { return OpFsUpdate }
func (FsDelete) Type() OpType      { return OpFsDelete }
func (DbCreate) Type() OpType      { return OpDbCreate }
func (DbUpdate) Type() OpType      { return OpDbUpdate }
func (DbDelete) Type() OpType      { return OpDbDelete }
func (IgnorePrivate) Type() OpType { return OpIgnorePrivate }

func (op FsCreate) ModelID() string      { return op.Resource.GetID() }
func (op FsUpdate) ModelID() string      { return op.Resource.GetID() }
func (op FsDelete) ModelID() string      { return op.State.ModelID }
func (op DbCreate) ModelID() string      { return op.Fs.Resource.GetID() }
func (op DbUpdate) ModelID() string      { return op.Fs.Resource.GetID() }
func (op DbDelete) ModelID() string      { return op.Resource.GetID() }
func (op IgnorePrivate) ModelID() string { return op.Resource.GetID() }

func (op FsCreate) WorkspaceID() string      { return op.Resource.GetWorkspaceID() }
func (op FsUpdate) WorkspaceID() string      { return op.Resource.GetWorkspaceID() }
func (op FsDelete) WorkspaceID() string      { return op.State.WorkspaceID }
func (op DbCreate) WorkspaceID() string      { return op.Fs.Resource.GetWorkspaceID() }
func (op DbUpdate) WorkspaceID() string      { return op.Fs.Resource.GetWorkspaceID() }
func (op DbDelete) WorkspaceID() string      { return op.Resource.GetWorkspaceID() }
func (op IgnorePrivate) WorkspaceID() string { return op.Resource.GetWorkspaceID() }

func (op FsCreate) Kind() models.Kind { return op.Resource.Kind() }
func (op FsUpdate) Kind() models.Kind { return op.Resource.Kind() }
func (op FsDelete) Kind() models.Kind {
	switch {
	case op.Resource != nil:
		return op.Resource.Kind()
	case op.Fs != nil:
		return op.Fs.Resource.Kind()
	default:
		return ""
	}
}
func (op DbCreate) Kind() models.Kind      { return op.Fs.Resource.Kind() }
func (op DbUpdate) Kind() models.Kind      { return op.Fs.Resource.Kind() }
func (op DbDelete) Kind() models.Kind      { return op.Resource.Kind() }
func (op IgnorePrivate) Kind() models.Kind { return op.Resource.Kind() }

// OpSummary is a flat description of an applied operation.
type OpSummary struct {
	Type    OpType
	Kind    models.Kind
	ModelID string
	RelPath string
}

func summarize(op SyncOp, relPath string) OpSummary {
	return OpSummary{
		Type:    op.Type(),
		Kind:    op.Kind(),
		ModelID: op.ModelID(),
		RelPath: relPath,
	}
}
