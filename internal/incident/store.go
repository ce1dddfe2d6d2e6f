package incident

import (
	"context"
	"errors"
)

// ErrVersionConflict is returned by Store.Put when the caller's record
// carries a stale version. The caller re-reads, re-merges, and retries.
var ErrVersionConflict = errors.New("incident: version conflict")

// Store is the persistence interface for incident records. Writers follow
// read-merge-write: Put performs a full replace guarded by Record.Version,
// so concurrent writers on the same id cannot silently drop each other's
// fields. List is unordered; callers sort.
type Store interface {
	Get(ctx context.Context, id string) (*Record, bool, error)
	Put(ctx context.Context, r *Record) error
	List(ctx context.Context) ([]*Record, error)
	Delete(ctx context.Context, id string) error
}
