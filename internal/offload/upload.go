package offload

import (
	"context"
	"time"

	"github.com/koustreak/driveoff/internal/config"
	"github.com/koustreak/driveoff/internal/naming"
	"github.com/koustreak/driveoff/internal/record"
)

// Status classifies the outcome of a single attachment event.
type Status int

const (
	// StatusUploaded means the payload now lives in the remote store.
	StatusUploaded Status = iota
	// StatusSkipped means the event did not apply; nothing changed.
	StatusSkipped
)

// SkipReason explains a StatusSkipped outcome.
type SkipReason int

const (
	SkipNone SkipReason = iota
	// SkipDisabled: uploads are turned off in configuration.
	SkipDisabled
	// SkipIgnoredDoctype: the owning record type is on the ignore list.
	SkipIgnoredDoctype
	// SkipAlreadyRemote: the attachment was migrated earlier. This is
	// the idempotence guard — re-entrant hook firing is a no-op.
	SkipAlreadyRemote
	// SkipMissingPayload: no local bytes exist to upload.
	SkipMissingPayload
)

func (r SkipReason) String() string {
	switch r {
	case SkipDisabled:
		return "disabled"
	case SkipIgnoredDoctype:
		return "ignored_doctype"
	case SkipAlreadyRemote:
		return "already_remote"
	case SkipMissingPayload:
		return "missing_payload"
	default:
		return "none"
	}
}

// Outcome reports what HandleCreated did with one attachment.
type Outcome struct {
	Status   Status
	Reason   SkipReason
	RemoteID string
	FileURL  string
}

// skip builds a skipped Outcome.
func skip(reason SkipReason) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

// HandleCreated is the hook-triggered workflow for one new or updated
// attachment. It decides whether to act, streams the payload to the
// remote store, applies the sharing policy, rewrites the record, and
// removes the local copy — in that order, so a failure at any step
// before the local delete leaves the payload and record untouched.
//
// A successful upload whose record update then fails can orphan a remote
// object; there is deliberately no automatic rollback, and callers treat
// the error as "retry later".
func (s *Service) HandleCreated(ctx context.Context, cfg config.Config, att *record.Attachment) (Outcome, error) {
	log := s.log.With().Str("attachment", att.Name).Str("doctype", att.Doctype).Logger()

	// Step 1: fail fast with a skip, never an error.
	if !cfg.Enabled {
		return skip(SkipDisabled), nil
	}
	if cfg.Ignored(att.Doctype) {
		log.Debug("doctype ignored, not uploading")
		return skip(SkipIgnoredDoctype), nil
	}
	if att.Migrated() || isRemoteURL(att.FileURL) {
		return skip(SkipAlreadyRemote), nil
	}
	if !s.payloads.Exists(att) {
		log.Warn("local payload missing, nothing to upload")
		return skip(SkipMissingPayload), nil
	}

	// Step 2: resolve the remote placement.
	target := naming.Compute(att.Doctype, att.Docname, att.FileName, naming.Policy{
		ParentFolderID: cfg.ParentFolderID,
		Prefix:         cfg.FolderPrefix,
		DateFolders:    cfg.DateFolders,
	}, time.Now())

	// Step 3: acquire credentials. On failure the attachment is left
	// exactly as it was, local payload included.
	store, err := s.connect.Connect(ctx, cfg)
	if err != nil {
		return Outcome{}, err
	}
	defer store.Close()

	// Step 4: stream the payload to the remote store.
	body, size, err := s.payloads.Open(att)
	if err != nil {
		return Outcome{}, err
	}

	remoteID, err := store.Upload(ctx, body, size, target.Name, target.FolderPath)
	body.Close()
	if err != nil {
		return Outcome{}, err
	}

	// Step 5: apply the sharing policy. A grant failure downgrades to a
	// warning — the object is uploaded, sharing just stays default.
	if err := store.SetPermission(ctx, remoteID, cfg.Sharing, cfg.SharedEmails); err != nil {
		log.WarnWith("sharing grant failed, object keeps default access", err, map[string]interface{}{
			"remote_id": remoteID,
			"mode":      cfg.Sharing.String(),
		})
	}

	// Step 6: rewrite the record. Private files route through the serve
	// endpoint; public files link straight to the remote object.
	fileURL := ServePath(att.Name)
	if !att.IsPrivate {
		if info, err := store.GetInfo(ctx, remoteID); err == nil && info.ViewLink != "" {
			fileURL = info.ViewLink
		}
	}

	prevRemoteID, prevHash, prevURL := att.RemoteID, att.ContentHash, att.FileURL

	att.RemoteID = remoteID
	att.ContentHash = remoteID
	att.FileURL = fileURL

	if err := s.records.Save(ctx, att); err != nil {
		// The remote object may now be orphaned; the local payload is
		// still intact and the in-memory record is restored, so the
		// caller can retry from the original state.
		att.RemoteID, att.ContentHash, att.FileURL = prevRemoteID, prevHash, prevURL
		return Outcome{}, err
	}

	// Step 7: only after the record holds the remote id may the local
	// copy go, keeping remote id and local payload mutually exclusive.
	if err := s.payloads.Remove(att); err != nil {
		log.WarnWith("uploaded but could not remove local payload", err, map[string]interface{}{
			"remote_id": remoteID,
		})
	}

	log.With().Str("remote_id", remoteID).Logger().Info("attachment uploaded")

	return Outcome{Status: StatusUploaded, RemoteID: remoteID, FileURL: fileURL}, nil
}
