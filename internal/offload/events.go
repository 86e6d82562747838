package offload

import (
	"context"
	"fmt"

	"github.com/koustreak/driveoff/internal/config"
	"github.com/koustreak/driveoff/internal/errs"
	"github.com/koustreak/driveoff/internal/record"
)

func errInvalidEvent(msg string) error {
	return errs.New(errs.ErrKindInvalidInput, msg)
}

// EventType identifies a host attachment lifecycle event.
type EventType string

const (
	EventAttachmentCreated EventType = "attachment_created"
	EventAttachmentDeleted EventType = "attachment_deleted"
)

// Event is one host lifecycle notification. For created events only the
// attachment name is needed — the record is resolved from the store so
// the payload stays tiny. Deleted events carry the full attachment
// because its row is already gone on the host side.
type Event struct {
	Type EventType `json:"type"`

	// Name identifies the attachment for created events.
	Name string `json:"name,omitempty"`

	// Attachment is the deleted record's last known state.
	Attachment *record.Attachment `json:"attachment,omitempty"`
}

// Dispatch routes one host event to the matching orchestrator. It is
// the seam that keeps the core independent of any particular host
// dispatch mechanism — hooks, webhooks, and queues all end up here.
func (s *Service) Dispatch(ctx context.Context, cfg config.Config, ev Event) (Outcome, error) {
	switch ev.Type {
	case EventAttachmentCreated:
		att, err := s.records.Get(ctx, ev.Name)
		if err != nil {
			return Outcome{}, err
		}
		return s.HandleCreated(ctx, cfg, att)

	case EventAttachmentDeleted:
		if ev.Attachment == nil {
			return Outcome{}, errInvalidEvent("deleted event carries no attachment")
		}
		return Outcome{Status: StatusSkipped}, s.HandleDeleted(ctx, cfg, ev.Attachment)

	default:
		return Outcome{}, errInvalidEvent(fmt.Sprintf("unknown event type %q", ev.Type))
	}
}
