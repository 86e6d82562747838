package localfs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/driveoff/internal/errs"
	"github.com/koustreak/driveoff/internal/record"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestPathLayout(t *testing.T) {
	d := NewDir("/srv/site")

	private := &record.Attachment{FileURL: "/private/files/a.pdf", IsPrivate: true}
	public := &record.Attachment{FileURL: "/files/b.pdf"}

	assert.Equal(t, filepath.Join("/srv/site", "private", "files", "a.pdf"), d.Path(private))
	assert.Equal(t, filepath.Join("/srv/site", "public", "files", "b.pdf"), d.Path(public))
}

func TestOpenReadsPayload(t *testing.T) {
	site := t.TempDir()
	d := NewDir(site)

	a := &record.Attachment{FileURL: "/private/files/a.pdf", IsPrivate: true}
	writeFile(t, d.Path(a), []byte("payload bytes"))

	r, size, err := d.Open(a)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, int64(len("payload bytes")), size)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "payload bytes", string(data))
}

func TestOpenMissingPayload(t *testing.T) {
	d := NewDir(t.TempDir())

	a := &record.Attachment{FileURL: "/files/ghost.pdf"}

	_, _, err := d.Open(a)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestRemove(t *testing.T) {
	site := t.TempDir()
	d := NewDir(site)

	a := &record.Attachment{FileURL: "/files/a.pdf"}
	writeFile(t, d.Path(a), []byte("payload"))

	require.True(t, d.Exists(a))
	require.NoError(t, d.Remove(a))
	assert.False(t, d.Exists(a))

	// Removing again is not an error.
	assert.NoError(t, d.Remove(a))
}
