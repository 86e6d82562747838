package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/driveoff/internal/errs"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"no rows", sql.ErrNoRows, errs.IsNotFound},
		{"deadline", context.DeadlineExceeded, errs.IsTimeout},
		{"invalid conn", mysql.ErrInvalidConn, errs.IsConnectionFailed},
		{"access denied", &mysql.MySQLError{Number: 1045}, errs.IsConnectionFailed},
		{"missing table", &mysql.MySQLError{Number: 1146}, errs.IsInvalidInput},
		{"deadlock", &mysql.MySQLError{Number: 1213}, errs.IsTimeout},
		{"duplicate key", &mysql.MySQLError{Number: 1062}, errs.IsQueryFailed},
		{"plain error", errors.New("boom"), errs.IsQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.pred(mapError(tt.err, "op failed")))
		})
	}

	assert.Nil(t, mapError(nil, "op failed"))
}

func TestWithFoundRows(t *testing.T) {
	dsn, err := withFoundRows("driveoff:pw@tcp(localhost:3306)/host?parseTime=true")
	require.NoError(t, err)

	assert.Contains(t, dsn, "clientFoundRows=true")
	assert.Contains(t, dsn, "parseTime=true")

	_, err = withFoundRows("invalid")
	assert.Error(t, err)
}
