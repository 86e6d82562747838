package offload

import (
	"context"

	"github.com/koustreak/driveoff/internal/config"
	"github.com/koustreak/driveoff/internal/errs"
)

// Failure records one attachment that could not be migrated.
type Failure struct {
	Attachment string `json:"attachment"`
	Error      string `json:"error"`
}

// MigrationResult summarises one bulk migration run. It is transient —
// built fresh per run and returned to the caller, never persisted.
type MigrationResult struct {
	Total    int       `json:"total"`
	Migrated int       `json:"migrated"`
	Skipped  int       `json:"skipped"`
	Errors   int       `json:"errors"`
	Failures []Failure `json:"failures,omitempty"`
}

// MigrateAll uploads every attachment that still lives locally.
//
// Each file is processed inside an isolated failure boundary: one bad
// file is recorded in the result and never aborts the run. Files are
// handled strictly sequentially with no transaction spanning the batch;
// every migration commits independently, and re-running is safe because
// HandleCreated skips already-migrated attachments.
//
// Cancellation is honoured between files, never mid-upload.
func (s *Service) MigrateAll(ctx context.Context, cfg config.Config) (*MigrationResult, error) {
	// Snapshot so a concurrent config edit cannot change naming or
	// sharing policy mid-run.
	cfg = cfg.Snapshot()

	pending, err := s.records.FindUnmigrated(ctx)
	if err != nil {
		return nil, err
	}

	result := &MigrationResult{Total: len(pending)}

	log := s.log.With().Int("total", result.Total).Logger()
	log.Info("migration started")

	for _, att := range pending {
		if err := ctx.Err(); err != nil {
			log.Warn("migration cancelled")
			return result, errs.Wrap(errs.ErrKindTimeout, "migration cancelled", err)
		}

		outcome, err := s.HandleCreated(ctx, cfg, att)
		switch {
		case err != nil:
			result.Errors++
			result.Failures = append(result.Failures, Failure{
				Attachment: att.Name,
				Error:      err.Error(),
			})
			s.log.ErrorWith("migration failed for attachment", err, map[string]interface{}{
				"attachment": att.Name,
			})
		case outcome.Status == StatusSkipped:
			result.Skipped++
		default:
			result.Migrated++
		}
	}

	log.With().
		Int("migrated", result.Migrated).
		Int("skipped", result.Skipped).
		Int("errors", result.Errors).
		Logger().
		Info("migration finished")

	return result, nil
}
