// Package gdrive provides a Google Drive implementation of objstore.Store.
//
// Usage:
//
//	ts, err := provider.TokenSource(ctx)
//	store, err := gdrive.New(ctx, ts)
//	if err != nil { ... }
//	defer store.Close()
//
//	id, err := store.Upload(ctx, r, size, name, folderPath)
package gdrive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/koustreak/driveoff/internal/config"
	"github.com/koustreak/driveoff/internal/errs"
	"github.com/koustreak/driveoff/internal/objstore"
	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// infoFields is the field mask requested on every metadata call.
var infoFields = googleapi.Field("id, name, mimeType, size, webViewLink, webContentLink, createdTime, modifiedTime")

// Driver is a Google Drive implementation of objstore.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	svc *drive.Service

	// folder path -> resolved folder id, so date folders are looked up
	// once per driver lifetime.
	mu      sync.Mutex
	folders map[string]string
}

// New builds a Driver from an authenticated token source.
func New(ctx context.Context, ts oauth2.TokenSource) (*Driver, error) {
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindAuth, "failed to create drive service", err)
	}
	return &Driver{svc: svc, folders: make(map[string]string)}, nil
}

// --- objstore.Store implementation ---

// Ping verifies the Drive API is reachable by listing a single file.
func (d *Driver) Ping(ctx context.Context) error {
	_, err := d.svc.Files.List().PageSize(1).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close is a no-op for Drive — the service holds no persistent connections.
func (d *Driver) Close() error {
	return nil
}

// Upload streams r into the folder at folderPath as name and returns the
// created file's id. Missing folder segments are created lazily.
func (d *Driver) Upload(ctx context.Context, r io.Reader, size int64, name, folderPath string) (string, error) {
	folderID, err := d.EnsureFolder(ctx, folderPath)
	if err != nil {
		return "", err
	}

	meta := &drive.File{
		Name:    name,
		Parents: []string{folderID},
	}

	// size is advisory only: the Drive client chunks resumable uploads
	// itself, so the reader is all it needs.
	_ = size

	created, err := d.svc.Files.Create(meta).Media(r).Fields(infoFields).Context(ctx).Do()
	if err != nil {
		return "", mapError(err, fmt.Sprintf("failed to upload %q", name))
	}
	return created.Id, nil
}

// Delete removes the remote file.
func (d *Driver) Delete(ctx context.Context, remoteID string) error {
	if err := d.svc.Files.Delete(remoteID).Context(ctx).Do(); err != nil {
		return mapError(err, fmt.Sprintf("failed to delete file %s", remoteID))
	}
	return nil
}

// SetPermission applies the sharing mode to the remote file.
// SharingPrivate issues no API calls at all.
func (d *Driver) SetPermission(ctx context.Context, remoteID string, mode config.SharingMode, emails []string) error {
	switch mode {
	case config.SharingPrivate:
		return nil

	case config.SharingAnyoneView:
		return d.createPermission(ctx, remoteID, &drive.Permission{Type: "anyone", Role: "reader"})

	case config.SharingAnyoneEdit:
		return d.createPermission(ctx, remoteID, &drive.Permission{Type: "anyone", Role: "writer"})

	case config.SharingSpecificPeople:
		for _, email := range emails {
			email = strings.TrimSpace(email)
			if email == "" {
				continue
			}
			p := &drive.Permission{Type: "user", Role: "reader", EmailAddress: email}
			if err := d.createPermission(ctx, remoteID, p); err != nil {
				return err
			}
		}
		return nil

	default:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown sharing mode %v", mode))
	}
}

func (d *Driver) createPermission(ctx context.Context, remoteID string, p *drive.Permission) error {
	if _, err := d.svc.Permissions.Create(remoteID, p).Context(ctx).Do(); err != nil {
		return errs.Wrap(errs.ErrKindPermission, fmt.Sprintf("failed to grant %s/%s on %s", p.Type, p.Role, remoteID), err)
	}
	return nil
}

// GetInfo returns metadata for the remote file.
func (d *Driver) GetInfo(ctx context.Context, remoteID string) (*objstore.FileInfo, error) {
	f, err := d.svc.Files.Get(remoteID).Fields(infoFields).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to get file info for %s", remoteID))
	}
	return toFileInfo(f), nil
}

// EnsureFolder resolves a slash-separated path to a Drive folder id.
// The first segment is an existing folder id; later segments are folder
// names found or created beneath it. A leading slash roots the path:
// every segment is then a folder name under the Drive root. An empty
// path is the Drive root itself.
func (d *Driver) EnsureFolder(ctx context.Context, path string) (string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "root", nil
	}

	d.mu.Lock()
	if id, ok := d.folders[path]; ok {
		d.mu.Unlock()
		return id, nil
	}
	d.mu.Unlock()

	segments := strings.Split(trimmed, "/")
	parent := segments[0]
	names := segments[1:]
	if strings.HasPrefix(path, "/") {
		parent = "root"
		names = segments
	}

	for _, name := range names {
		id, err := d.findOrCreateFolder(ctx, parent, name)
		if err != nil {
			return "", err
		}
		parent = id
	}

	d.mu.Lock()
	d.folders[path] = parent
	d.mu.Unlock()
	return parent, nil
}

func (d *Driver) findOrCreateFolder(ctx context.Context, parent, name string) (string, error) {
	query := fmt.Sprintf(
		"name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
		escapeQuery(name), escapeQuery(parent), folderMimeType,
	)

	list, err := d.svc.Files.List().Q(query).PageSize(1).Fields("files(id)").Context(ctx).Do()
	if err != nil {
		return "", mapError(err, fmt.Sprintf("failed to look up folder %q", name))
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	created, err := d.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parent},
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", mapError(err, fmt.Sprintf("failed to create folder %q", name))
	}
	return created.Id, nil
}

// Download opens a streaming handle to the remote file's content.
func (d *Driver) Download(ctx context.Context, remoteID string) (objstore.Object, error) {
	info, err := d.GetInfo(ctx, remoteID)
	if err != nil {
		return nil, err
	}

	resp, err := d.svc.Files.Get(remoteID).Context(ctx).Download()
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to download file %s", remoteID))
	}

	return &object{ReadCloser: resp.Body, info: info}, nil
}

// --- internal types ---

// object wraps a Drive media response and exposes objstore.Object.
type object struct {
	io.ReadCloser
	info *objstore.FileInfo
}

func (o *object) Info() *objstore.FileInfo {
	return o.info
}

func toFileInfo(f *drive.File) *objstore.FileInfo {
	info := &objstore.FileInfo{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		Size:        f.Size,
		ViewLink:    f.WebViewLink,
		ContentLink: f.WebContentLink,
	}
	if t, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
		info.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		info.ModifiedAt = t
	}
	return info
}

// escapeQuery escapes single quotes for Drive query strings.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
