// Package naming computes the remote name and folder for an attachment.
//
// The policy is a pure function: identical inputs always produce the
// same Target, which is what makes re-migration idempotent and the
// policy trivially testable. The upload time is an explicit argument so
// date-based foldering stays deterministic.
package naming

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

// Policy is the slice of configuration the naming computation needs.
type Policy struct {
	// ParentFolderID is the remote folder everything lands under.
	// Empty means the provider root.
	ParentFolderID string

	// Prefix is prepended to every computed name.
	Prefix string

	// DateFolders appends a YYYY/MM/DD segment below the parent.
	DateFolders bool
}

// Target is the computed remote placement for one attachment.
type Target struct {
	// Name is the remote object name.
	Name string

	// FolderPath is the slash-separated folder path, starting at the
	// configured parent. Folders are created lazily by the store driver.
	FolderPath string
}

// Characters permitted in remote names. Everything else is stripped.
var unsafeChars = regexp.MustCompile(`[^0-9a-zA-Z._\-\s]`)

// Sanitize strips path-incompatible characters from a name component.
func Sanitize(s string) string {
	return strings.TrimSpace(unsafeChars.ReplaceAllString(s, ""))
}

// Compute maps an attachment's owning-record metadata and original
// filename to its remote placement under p. now is the upload time used
// for date foldering.
func Compute(doctype, docname, filename string, p Policy, now time.Time) Target {
	clean := Sanitize(filename)
	base := strings.TrimSuffix(clean, path.Ext(clean))
	ext := path.Ext(clean)

	var name string
	switch {
	case doctype != "" && docname != "":
		name = fmt.Sprintf("%s_%s_%s%s", Sanitize(doctype), Sanitize(docname), base, ext)
	case doctype != "":
		name = fmt.Sprintf("%s_%s%s", Sanitize(doctype), base, ext)
	default:
		name = clean
	}
	if p.Prefix != "" {
		name = p.Prefix + name
	}

	folder := p.ParentFolderID
	if p.DateFolders {
		segment := now.Format("2006/01/02")
		if folder == "" {
			// A leading slash marks the provider root, so drivers that
			// resolve the first segment as a folder id don't mistake
			// the year for one.
			folder = "/" + segment
		} else {
			folder = folder + "/" + segment
		}
	}

	return Target{Name: name, FolderPath: folder}
}
