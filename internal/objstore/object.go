package objstore

import (
	"io"
	"time"
)

// FileInfo describes a single remote object.
type FileInfo struct {
	// ID is the backend's opaque handle, used for later delete and
	// permission calls.
	ID string

	// Name is the remote object name.
	Name string

	// MimeType is the MIME type reported by the backend.
	MimeType string

	// Size is the byte size of the object. -1 if unknown.
	Size int64

	// ViewLink is a browser-facing link to the object, when the backend
	// provides one.
	ViewLink string

	// ContentLink is a direct-download link, when the backend provides one.
	ContentLink string

	// CreatedAt is when the object was created.
	// May be zero if the backend does not expose it.
	CreatedAt time.Time

	// ModifiedAt is when the object was last written.
	ModifiedAt time.Time
}

// Object is a streaming handle to an object's content.
// The caller MUST call Close() after reading to avoid resource leaks.
type Object interface {
	io.ReadCloser

	// Info returns the metadata for this object.
	Info() *FileInfo
}
