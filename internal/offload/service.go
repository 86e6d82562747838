// Package offload implements the upload, migration, and deletion
// orchestration workflows.
//
// The orchestrators are glue with three collaborators: the naming policy
// decides where a payload goes, the object store moves the bytes, and
// the record store mutates the host's attachment table. Configuration is
// passed by value into every call so a run always sees one consistent
// policy.
package offload

import (
	"context"
	"strings"

	"github.com/koustreak/driveoff/internal/config"
	"github.com/koustreak/driveoff/internal/localfs"
	"github.com/koustreak/driveoff/internal/logger"
	"github.com/koustreak/driveoff/internal/objstore"
	"github.com/koustreak/driveoff/internal/record"
)

// Connector acquires credentials and builds an object store client for
// one operation. Credential failures surface here, before any remote or
// local state is touched.
type Connector interface {
	Connect(ctx context.Context, cfg config.Config) (objstore.Store, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, cfg config.Config) (objstore.Store, error)

func (f ConnectorFunc) Connect(ctx context.Context, cfg config.Config) (objstore.Store, error) {
	return f(ctx, cfg)
}

// Service hosts the orchestration workflows.
type Service struct {
	records  record.Store
	payloads localfs.Payloads
	connect  Connector
	log      *logger.Logger
}

// New builds a Service. A nil log discards all output.
func New(records record.Store, payloads localfs.Payloads, connect Connector, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		records:  records,
		payloads: payloads,
		connect:  connect,
		log:      log,
	}
}

// ConnectionStatus is the outcome of an interactive connection test.
type ConnectionStatus struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TestConnection connects to the object store and pings it. The outcome
// is always returned as a status, never as an error — interactive
// callers show the message either way.
func (s *Service) TestConnection(ctx context.Context, cfg config.Config) ConnectionStatus {
	store, err := s.connect.Connect(ctx, cfg)
	if err != nil {
		return ConnectionStatus{Success: false, Message: err.Error()}
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		return ConnectionStatus{Success: false, Message: err.Error()}
	}
	return ConnectionStatus{Success: true, Message: "connection successful"}
}

// GetFileInfo returns remote metadata for the given remote identifier.
func (s *Service) GetFileInfo(ctx context.Context, cfg config.Config, remoteID string) (*objstore.FileInfo, error) {
	store, err := s.connect.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return store.GetInfo(ctx, remoteID)
}

// Download opens the remote content of a migrated attachment, used to
// serve private files through the host.
func (s *Service) Download(ctx context.Context, cfg config.Config, remoteID string) (objstore.Object, error) {
	store, err := s.connect.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return store.Download(ctx, remoteID)
}

// ServePath is the host-relative URL private attachments are rewritten
// to after migration. Public attachments link straight to the remote
// object instead.
func ServePath(name string) string {
	return "/api/files/" + name + "/content"
}

// isRemoteURL reports whether a file URL already points at the remote
// store or at the serve endpoint, meaning the attachment must not be
// uploaded again.
func isRemoteURL(url string) bool {
	return strings.HasPrefix(url, "/api/files/") ||
		strings.Contains(url, "drive.google.com")
}
