// Package minio provides a MinIO / S3 implementation of objstore.Store.
//
// Objects live in a single bucket; the slash-separated folder path maps
// onto the object key, which doubles as the remote identifier. Per-user
// sharing grants do not exist in the S3 access model, so the driver
// reports them as unsupported — orchestrators already treat permission
// failures as warnings.
package minio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/koustreak/driveoff/internal/config"
	"github.com/koustreak/driveoff/internal/errs"
	"github.com/koustreak/driveoff/internal/objstore"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Options holds the connection settings for the MinIO driver.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Driver is a MinIO implementation of objstore.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client *miniogo.Client
	bucket string
}

// New connects to MinIO using the provided Options and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, opts Options) (*Driver, error) {
	client, err := miniogo.New(opts.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create minio client", err)
	}

	d := &Driver{client: client, bucket: opts.Bucket}

	if err := d.Ping(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

// --- objstore.Store implementation ---

// Ping verifies the bucket exists and is reachable.
func (d *Driver) Ping(ctx context.Context) error {
	ok, err := d.client.BucketExists(ctx, d.bucket)
	if err != nil {
		return mapError(err, "ping failed")
	}
	if !ok {
		return errs.New(errs.ErrKindNotFound, fmt.Sprintf("bucket %q does not exist", d.bucket))
	}
	return nil
}

// Close is a no-op for MinIO — the SDK client holds no persistent connections.
func (d *Driver) Close() error {
	return nil
}

// Upload streams r to the key folderPath/name and returns the key as the
// remote identifier.
func (d *Driver) Upload(ctx context.Context, r io.Reader, size int64, name, folderPath string) (string, error) {
	key := objectKey(folderPath, name)

	_, err := d.client.PutObject(ctx, d.bucket, key, r, size, miniogo.PutObjectOptions{})
	if err != nil {
		return "", mapError(err, fmt.Sprintf("failed to upload %q", key))
	}
	return key, nil
}

// Delete removes the object at the given key.
func (d *Driver) Delete(ctx context.Context, remoteID string) error {
	err := d.client.RemoveObject(ctx, d.bucket, remoteID, miniogo.RemoveObjectOptions{})
	if err != nil {
		return mapError(err, fmt.Sprintf("failed to delete object %q", remoteID))
	}
	return nil
}

// SetPermission applies the sharing mode to the object's key prefix.
// Link-level grants become an anonymous-read bucket policy scoped to the
// key; per-user grants have no S3 equivalent and are reported as such.
func (d *Driver) SetPermission(ctx context.Context, remoteID string, mode config.SharingMode, emails []string) error {
	switch mode {
	case config.SharingPrivate:
		return nil

	case config.SharingAnyoneView, config.SharingAnyoneEdit:
		actions := []string{"s3:GetObject"}
		if mode == config.SharingAnyoneEdit {
			actions = append(actions, "s3:PutObject")
		}

		existing, err := d.client.GetBucketPolicy(ctx, d.bucket)
		if err != nil && !isNoSuchPolicy(err) {
			return errs.Wrap(errs.ErrKindPermission, "failed to read bucket policy", err)
		}

		policy, err := mergeAnonymousGrant(existing, d.bucket, remoteID, actions)
		if err != nil {
			return errs.Wrap(errs.ErrKindPermission, "failed to build bucket policy", err)
		}
		if err := d.client.SetBucketPolicy(ctx, d.bucket, policy); err != nil {
			return errs.Wrap(errs.ErrKindPermission, fmt.Sprintf("failed to set policy for %q", remoteID), err)
		}
		return nil

	case config.SharingSpecificPeople:
		return errs.New(errs.ErrKindPermission, "per-user grants are not supported by the s3 access model")

	default:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown sharing mode %v", mode))
	}
}

// GetInfo returns metadata for the object at the given key.
func (d *Driver) GetInfo(ctx context.Context, remoteID string) (*objstore.FileInfo, error) {
	stat, err := d.client.StatObject(ctx, d.bucket, remoteID, miniogo.StatObjectOptions{})
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to stat object %q", remoteID))
	}

	return &objstore.FileInfo{
		ID:         stat.Key,
		Name:       baseName(stat.Key),
		MimeType:   stat.ContentType,
		Size:       stat.Size,
		ModifiedAt: stat.LastModified,
	}, nil
}

// EnsureFolder is a normalization pass: S3 folders are virtual prefixes,
// so nothing needs creating.
func (d *Driver) EnsureFolder(ctx context.Context, path string) (string, error) {
	return strings.Trim(path, "/"), nil
}

// Download opens a streaming handle to the object at the given key.
// The caller MUST call Object.Close() after reading.
func (d *Driver) Download(ctx context.Context, remoteID string) (objstore.Object, error) {
	obj, err := d.client.GetObject(ctx, d.bucket, remoteID, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to get object %q", remoteID))
	}

	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, mapError(err, "failed to stat object after get")
	}

	return &object{
		ReadCloser: obj,
		info: &objstore.FileInfo{
			ID:         remoteID,
			Name:       baseName(remoteID),
			MimeType:   stat.ContentType,
			Size:       stat.Size,
			ModifiedAt: stat.LastModified,
		},
	}, nil
}

// --- internal types ---

// object wraps a MinIO GetObject response and exposes objstore.Object.
type object struct {
	io.ReadCloser
	info *objstore.FileInfo
}

func (o *object) Info() *objstore.FileInfo {
	return o.info
}

func objectKey(folderPath, name string) string {
	folderPath = strings.Trim(folderPath, "/")
	if folderPath == "" {
		return name
	}
	return folderPath + "/" + name
}

func baseName(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Effect    string          `json:"Effect"`
	Principal json.RawMessage `json:"Principal"`
	Action    []string        `json:"Action"`
	Resource  []string        `json:"Resource"`
}

var anyonePrincipal = json.RawMessage(`{"AWS":["*"]}`)

// mergeAnonymousGrant adds or updates the anonymous grant for one key
// in an existing bucket policy. SetBucketPolicy replaces the whole
// document, so grants made for earlier keys must be carried over.
func mergeAnonymousGrant(existing, bucket, key string, actions []string) (string, error) {
	doc := policyDocument{Version: "2012-10-17"}
	if strings.TrimSpace(existing) != "" {
		if err := json.Unmarshal([]byte(existing), &doc); err != nil {
			return "", err
		}
	}

	resource := fmt.Sprintf("arn:aws:s3:::%s/%s", bucket, key)

	updated := false
	for i, st := range doc.Statement {
		if len(st.Resource) == 1 && st.Resource[0] == resource {
			doc.Statement[i].Effect = "Allow"
			doc.Statement[i].Principal = anyonePrincipal
			doc.Statement[i].Action = actions
			updated = true
			break
		}
	}
	if !updated {
		doc.Statement = append(doc.Statement, policyStatement{
			Effect:    "Allow",
			Principal: anyonePrincipal,
			Action:    actions,
			Resource:  []string{resource},
		})
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func isNoSuchPolicy(err error) bool {
	var resp miniogo.ErrorResponse
	return errors.As(err, &resp) && resp.Code == "NoSuchBucketPolicy"
}
