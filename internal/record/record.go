// Package record provides access to the host application's attachment
// table.
//
// The host owns the records; driveoff only reads them and requests
// mutations through the Store interface. Both supported engines
// (Postgres and MySQL) implement Store in their own subpackage —
// callers never import a driver directly.
package record

import (
	"context"
	"time"
)

// Attachment represents one file logically attached to a host record.
type Attachment struct {
	// Name is the attachment's primary key in the host table.
	Name string

	// Doctype and Docname identify the owning record.
	Doctype string
	Docname string

	// FileName is the original filename as uploaded to the host.
	FileName string

	// FileURL is what the host serves for this attachment: a local
	// path before migration, a remote link or proxy path after.
	FileURL string

	// RemoteID is the object store's opaque handle. Empty means the
	// attachment has not been migrated; non-empty implies the local
	// payload no longer exists.
	RemoteID string

	// IsPrivate controls whether the file is served through the host's
	// authenticated endpoint or linked directly.
	IsPrivate bool

	// Size is the payload size in bytes.
	Size int64

	// ContentHash carries the host's content hash. After migration it
	// holds the remote id, matching the host's own convention.
	ContentHash string

	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Migrated reports whether the attachment already lives in the remote store.
func (a *Attachment) Migrated() bool {
	return a.RemoteID != ""
}

// Store is the contract for the host's attachment table.
type Store interface {
	// Ping verifies the record store is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()

	// Get returns the attachment with the given name.
	// Returns a not_found error when no such row exists.
	Get(ctx context.Context, name string) (*Attachment, error)

	// FindUnmigrated returns all attachments with no remote identifier,
	// oldest first.
	FindUnmigrated(ctx context.Context) ([]*Attachment, error)

	// Save persists the mutable fields of a (file_url, remote_id,
	// content_hash) back to the host table.
	Save(ctx context.Context, a *Attachment) error

	// Delete removes the attachment row.
	Delete(ctx context.Context, name string) error
}
