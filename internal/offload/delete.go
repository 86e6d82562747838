package offload

import (
	"context"

	"github.com/koustreak/driveoff/internal/config"
	"github.com/koustreak/driveoff/internal/record"
)

// HandleDeleted is the hook-triggered workflow for a deleted attachment
// record. When the delete-from-remote flag is set and the attachment has
// a remote identifier, the remote object is deleted too.
//
// A remote delete failure is logged and swallowed: local consistency
// takes priority over a possibly orphaned remote object, so the host's
// record deletion always proceeds.
func (s *Service) HandleDeleted(ctx context.Context, cfg config.Config, att *record.Attachment) error {
	if !cfg.DeleteFromRemote || !att.Migrated() {
		return nil
	}

	log := s.log.With().Str("attachment", att.Name).Str("remote_id", att.RemoteID).Logger()

	store, err := s.connect.Connect(ctx, cfg)
	if err != nil {
		log.WarnWith("cannot connect to remote store, object left in place", err, nil)
		return nil
	}
	defer store.Close()

	if err := store.Delete(ctx, att.RemoteID); err != nil {
		log.WarnWith("remote delete failed, object left in place", err, nil)
		return nil
	}

	log.Info("remote object deleted")
	return nil
}
