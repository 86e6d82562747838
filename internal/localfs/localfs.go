// Package localfs reads and removes attachment payloads from the host's
// site directory.
//
// The host lays files out the way the original framework does: public
// payloads live under {site}/public{file_url}, private ones under
// {site}{file_url}. Payload bytes only exist before migration — once an
// attachment has a remote identifier the orchestrator has removed the
// local copy.
package localfs

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/koustreak/driveoff/internal/errs"
	"github.com/koustreak/driveoff/internal/record"
)

// Payloads is the contract for local payload access.
type Payloads interface {
	// Open returns a reader over the attachment's bytes and their size.
	// The caller MUST close the reader.
	Open(a *record.Attachment) (io.ReadCloser, int64, error)

	// Remove deletes the local payload. Removing an already-absent
	// payload is not an error.
	Remove(a *record.Attachment) error

	// Exists reports whether the local payload is present on disk.
	Exists(a *record.Attachment) bool
}

// Dir is a Payloads implementation over a site directory.
type Dir struct {
	site string
}

// NewDir returns a Dir rooted at the given site path.
func NewDir(site string) *Dir {
	return &Dir{site: site}
}

// Path resolves the on-disk location of the attachment's payload.
func (d *Dir) Path(a *record.Attachment) string {
	rel := strings.TrimPrefix(a.FileURL, "/")
	if a.IsPrivate {
		return filepath.Join(d.site, filepath.FromSlash(rel))
	}
	return filepath.Join(d.site, "public", filepath.FromSlash(rel))
}

// Open implements Payloads.
func (d *Dir) Open(a *record.Attachment) (io.ReadCloser, int64, error) {
	path := d.Path(a)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, errs.Wrap(errs.ErrKindNotFound, "local payload missing: "+path, err)
		}
		return nil, 0, errs.Wrap(errs.ErrKindQueryFailed, "cannot stat local payload", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errs.Wrap(errs.ErrKindQueryFailed, "cannot open local payload", err)
	}
	return f, info.Size(), nil
}

// Remove implements Payloads.
func (d *Dir) Remove(a *record.Attachment) error {
	err := os.Remove(d.Path(a))
	if err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.ErrKindQueryFailed, "cannot remove local payload", err)
	}
	return nil
}

// Exists implements Payloads.
func (d *Dir) Exists(a *record.Attachment) bool {
	_, err := os.Stat(d.Path(a))
	return err == nil
}
