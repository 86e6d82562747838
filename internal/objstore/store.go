// Package objstore defines the unified interface for remote object
// storage backends.
//
// All providers (Google Drive, MinIO, …) implement the Store interface.
// Callers depend only on this package — never on a specific provider
// package.
//
// Usage:
//
//	ts, err := provider.TokenSource(ctx)
//	store, err := gdrive.New(ctx, ts)
//	if err != nil { ... }
//	defer store.Close()
//
//	id, err := store.Upload(ctx, r, size, "Customer_ABC_contract.pdf", "folder-id")
package objstore

import (
	"context"
	"io"

	"github.com/koustreak/driveoff/internal/config"
)

// Store is the single interface all object storage providers implement.
type Store interface {
	// Ping verifies the storage backend is reachable with the current
	// credentials.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// Upload streams r into the folder at folderPath under the given
	// name and returns the backend's opaque remote identifier. size may
	// be -1 when unknown. Missing folders are created lazily.
	Upload(ctx context.Context, r io.Reader, size int64, name, folderPath string) (string, error)

	// Delete removes the remote object.
	Delete(ctx context.Context, remoteID string) error

	// SetPermission applies the sharing mode to the remote object.
	// emails is only consulted for config.SharingSpecificPeople.
	SetPermission(ctx context.Context, remoteID string, mode config.SharingMode, emails []string) error

	// GetInfo returns metadata for the remote object without
	// downloading its content.
	GetInfo(ctx context.Context, remoteID string) (*FileInfo, error)

	// EnsureFolder resolves a slash-separated folder path to a backend
	// folder identifier, creating missing segments.
	EnsureFolder(ctx context.Context, path string) (string, error)

	// Download opens a streaming handle to the remote object's content.
	// The caller MUST call Object.Close() after reading.
	Download(ctx context.Context, remoteID string) (Object, error)
}
