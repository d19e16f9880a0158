package sync

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFileFormat = errors.New("unsupported file format")
	ErrSerialization         = errors.New("serialization error")
	ErrStorage               = errors.New("storage error")
	ErrFilesystem            = errors.New("filesystem error")
	ErrSyncAlreadyRunning    = errors.New("sync already running")
)

// SyncError attaches an error kind and the file or resource involved to an
// underlying error. errors.Is matches both the kind and the wrapped error.
type SyncError struct {
	Kind     error
	Path     string
	Resource string
	Err      error
}

func (e *SyncError) Error() string {
	subject := e.Path
	if subject == "" {
		subject = e.Resource
	}
	switch {
	case subject != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %s", e.Kind, subject, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	case subject != "":
		return fmt.Sprintf("%s: %s", e.Kind, subject)
	default:
		return e.Kind.Error()
	}
}

func (e *SyncError) Is(target error) bool {
	return target == e.Kind
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func fsError(path string, err error) error {
	return &SyncError{Kind: ErrFilesystem, Path: path, Err: err}
}

func serializationError(path string, resource string, err error) error {
	return &SyncError{Kind: ErrSerialization, Path: path, Resource: resource, Err: err}
}

func storageError(resource string, err error) error {
	return &SyncError{Kind: ErrStorage, Resource: resource, Err: err}
}
