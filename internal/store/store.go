// Package store defines persistence operations required by services.
// The filesystem implementation lives under store/fsstore.
package store

import (
	"context"

	"github.com/zcf0508/mem-mcp/internal/model"
)

// Class selects hot (active) or archive (cold) storage for a user.
type Class int

const (
	Hot Class = iota
	Archive
)

func (c Class) String() string {
	if c == Archive {
		return "archive"
	}
	return "hot"
}

// Store persists records for users identified by opaque tokens. All paths
// are derived through the safety gate on every call; implementations return
// model.ErrInvalidIdentifier, model.ErrNotFound, or model.ErrStorageUnavailable
// as appropriate.
type Store interface {
	// List returns the sorted record filenames in the given class. A
	// missing directory yields an empty list, not an error.
	List(ctx context.Context, token string, class Class) ([]string, error)
	// Load reads one record, migrating a legacy file to the canonical
	// metadata form in place as a side effect.
	Load(ctx context.Context, token, filename string, class Class) (*model.Record, error)
	// Save writes a record in canonical form, creating directories on
	// demand. Existing files are overwritten.
	Save(ctx context.Context, token string, rec *model.Record, class Class) error
	// Delete permanently removes a record. No tombstone.
	Delete(ctx context.Context, token, filename string, class Class) error
	// MoveToArchive relocates a hot record to the archive directory under
	// the same filename, content untouched.
	MoveToArchive(ctx context.Context, token, filename string) error
}
