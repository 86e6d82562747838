package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	plain := New(ErrKindNotFound, "attachment missing")
	assert.Equal(t, "[not_found] attachment missing", plain.Error())

	wrapped := Wrap(ErrKindUpload, "create call failed", errors.New("503"))
	assert.Equal(t, "[upload] create call failed: 503", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrKindConnectionFailed, "ping failed", cause)

	assert.True(t, errors.Is(err, cause))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		kind ErrKind
		pred func(error) bool
	}{
		{ErrKindAuth, IsAuth},
		{ErrKindUpload, IsUpload},
		{ErrKindPermission, IsPermission},
		{ErrKindDelete, IsDelete},
		{ErrKindNotFound, IsNotFound},
		{ErrKindConnectionFailed, IsConnectionFailed},
		{ErrKindTimeout, IsTimeout},
		{ErrKindQueryFailed, IsQueryFailed},
		{ErrKindInvalidInput, IsInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := New(tt.kind, "boom")
			assert.True(t, tt.pred(err))

			other := New(ErrKindUnknown, "boom")
			assert.False(t, tt.pred(other))
		})
	}
}

func TestPredicatesTraverseWrapping(t *testing.T) {
	inner := New(ErrKindAuth, "token refresh rejected")
	outer := fmt.Errorf("connecting store: %w", inner)

	assert.True(t, IsAuth(outer))
	assert.False(t, IsAuth(errors.New("plain")))
	assert.False(t, IsAuth(nil))
}

func TestKindString(t *testing.T) {
	require.Equal(t, "unknown", ErrKindUnknown.String())
	require.Equal(t, "unknown", ErrKind(99).String())
}
