package gdrive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/koustreak/driveoff/internal/errs"
	"google.golang.org/api/googleapi"
)

func apiError(code int, reasons ...string) error {
	e := &googleapi.Error{Code: code}
	for _, r := range reasons {
		e.Errors = append(e.Errors, googleapi.ErrorItem{Reason: r})
	}
	return e
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"nil stays nil", nil, nil},
		{"deadline", context.DeadlineExceeded, errs.IsTimeout},
		{"cancelled", context.Canceled, errs.IsTimeout},
		{"404", apiError(http.StatusNotFound), errs.IsNotFound},
		{"401", apiError(http.StatusUnauthorized), errs.IsAuth},
		{"403 access", apiError(http.StatusForbidden, "insufficientPermissions"), errs.IsPermission},
		{"403 rate limit", apiError(http.StatusForbidden, "rateLimitExceeded"), errs.IsTimeout},
		{"400", apiError(http.StatusBadRequest), errs.IsInvalidInput},
		{"429", apiError(http.StatusTooManyRequests), errs.IsTimeout},
		{"500", apiError(http.StatusInternalServerError), errs.IsUpload},
		{"wrapped api error", fmt.Errorf("create: %w", apiError(http.StatusNotFound)), errs.IsNotFound},
		{"plain error", errors.New("dial tcp: refused"), errs.IsConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapError(tt.err, "op failed")
			if tt.err == nil {
				assert.Nil(t, mapped)
				return
			}
			assert.True(t, tt.pred(mapped))
			assert.True(t, errors.Is(mapped, tt.err), "cause must be preserved")
		})
	}
}

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, `O\'Brien`, escapeQuery("O'Brien"))
	assert.Equal(t, "plain", escapeQuery("plain"))
}
