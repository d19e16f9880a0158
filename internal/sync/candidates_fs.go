package sync

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yaakapp/yaaksync/internal/models"
	"github.com/yaakapp/yaaksync/internal/utils"
)

// FsCandidate is one parsed resource file found directly in the sync directory.
type FsCandidate struct {
	Resource models.Resource
	RelPath  string
	Checksum string
	// Duplicates names other files in the directory carrying the same id.
	// They are not reconciled but are removed along with RelPath on FsDelete.
	Duplicates []string
}

// CanonicalFilename is the name given to files the engine creates.
func CanonicalFilename(id string) string {
	return "yaak." + id + ".yaml"
}

// ScanDir derives FS candidates from the top level of dir, creating dir if it
// does not exist yet. An unsupported extension or undecodable file fails the
// whole scan; a file that cannot be read is skipped.
func ScanDir(dir string) ([]*FsCandidate, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fsError(dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fsError(dir, err)
	}

	candidates := make([]*FsCandidate, 0, len(entries))
	byID := make(map[string]int, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if utils.IsHidden(name) || entry.IsDir() || !entry.Type().IsRegular() {
			continue
		}

		format, err := models.FormatForPath(name)
		if err != nil {
			return nil, &SyncError{Kind: ErrUnsupportedFileFormat, Path: name, Err: err}
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("sync scan skipping unreadable file", "path", name, "error", err)
			continue
		}

		r, err := models.Unmarshal(data, format)
		if err != nil {
			return nil, serializationError(name, "", err)
		}

		candidate := &FsCandidate{
			Resource: r,
			RelPath:  name,
			Checksum: utils.Sha1Hex(data),
		}

		if idx, ok := byID[r.GetID()]; ok {
			// the canonical file wins over any other file with the same id
			kept := candidates[idx]
			if name == CanonicalFilename(r.GetID()) {
				candidate.Duplicates = append(kept.Duplicates, kept.RelPath)
				candidates[idx] = candidate
				slog.Warn("sync scan duplicate id", "id", r.GetID(), "kept", name, "skipped", kept.RelPath)
			} else {
				kept.Duplicates = append(kept.Duplicates, name)
				slog.Warn("sync scan duplicate id", "id", r.GetID(), "kept", kept.RelPath, "skipped", name)
			}
			continue
		}

		byID[r.GetID()] = len(candidates)
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}
