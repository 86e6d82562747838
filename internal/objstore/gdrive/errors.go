package gdrive

import (
	"context"
	"errors"
	"net/http"

	"github.com/koustreak/driveoff/internal/errs"
	"google.golang.org/api/googleapi"
)

// mapError translates a Drive API error into a *errs.Error.
// It mirrors the mapError pattern used in the minio and record drivers.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	// Context cancellation / deadline
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	// The Drive client exposes a typed error for HTTP-level failures
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		case http.StatusUnauthorized:
			return errs.Wrap(errs.ErrKindAuth, msg, err)
		case http.StatusForbidden:
			// 403 covers both access denial and quota exhaustion; the
			// reason distinguishes them.
			for _, e := range apiErr.Errors {
				if e.Reason == "rateLimitExceeded" || e.Reason == "userRateLimitExceeded" {
					return errs.Wrap(errs.ErrKindTimeout, msg, err)
				}
			}
			return errs.Wrap(errs.ErrKindPermission, msg, err)
		case http.StatusBadRequest:
			return errs.Wrap(errs.ErrKindInvalidInput, msg, err)
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return errs.Wrap(errs.ErrKindTimeout, msg, err)
		}
		return errs.Wrap(errs.ErrKindUpload, msg, err)
	}

	// Anything else — treat as a generic connection / I/O failure
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
