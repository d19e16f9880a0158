package models

import (
	"strings"

	"github.com/google/uuid"
)

var idPrefixes = map[Kind]string{
	KindWorkspace:        "wk",
	KindEnvironment:      "ev",
	KindFolder:           "fl",
	KindHttpRequest:      "rq",
	KindGrpcRequest:      "gr",
	KindWebsocketRequest: "wr",
}

const syncStatePrefix = "ss"

// GenerateID returns a new random id such as "rq_3f2a...". Unknown kinds get
// no prefix.
func GenerateID(kind Kind) string {
	return withPrefix(idPrefixes[kind])
}

// GenerateSyncStateID returns a new id for a SyncState row.
func GenerateSyncStateID() string {
	return withPrefix(syncStatePrefix)
}

func withPrefix(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
