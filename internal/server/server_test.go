package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/driveoff/internal/config"
	"github.com/koustreak/driveoff/internal/errs"
	"github.com/koustreak/driveoff/internal/logger"
	"github.com/koustreak/driveoff/internal/objstore"
	"github.com/koustreak/driveoff/internal/offload"
	"github.com/koustreak/driveoff/internal/record"
)

// --- fakes ---

type stubStore struct {
	objects map[string][]byte
	pingErr error
}

func (s *stubStore) Ping(ctx context.Context) error { return s.pingErr }
func (s *stubStore) Close() error                   { return nil }

func (s *stubStore) Upload(ctx context.Context, r io.Reader, size int64, name, folderPath string) (string, error) {
	data, _ := io.ReadAll(r)
	id := "remote-" + name
	s.objects[id] = data
	return id, nil
}

func (s *stubStore) Delete(ctx context.Context, remoteID string) error {
	delete(s.objects, remoteID)
	return nil
}

func (s *stubStore) SetPermission(ctx context.Context, remoteID string, mode config.SharingMode, emails []string) error {
	return nil
}

func (s *stubStore) GetInfo(ctx context.Context, remoteID string) (*objstore.FileInfo, error) {
	data, ok := s.objects[remoteID]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such object")
	}
	return &objstore.FileInfo{ID: remoteID, Name: "report.pdf", MimeType: "application/pdf", Size: int64(len(data))}, nil
}

func (s *stubStore) EnsureFolder(ctx context.Context, path string) (string, error) {
	return path, nil
}

func (s *stubStore) Download(ctx context.Context, remoteID string) (objstore.Object, error) {
	data, ok := s.objects[remoteID]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such object")
	}
	return &stubObject{
		ReadCloser: io.NopCloser(bytes.NewReader(data)),
		info:       &objstore.FileInfo{ID: remoteID, MimeType: "application/pdf", Size: int64(len(data))},
	}, nil
}

type stubObject struct {
	io.ReadCloser
	info *objstore.FileInfo
}

func (o *stubObject) Info() *objstore.FileInfo { return o.info }

type stubRecords struct {
	atts map[string]*record.Attachment
}

func (s *stubRecords) Ping(ctx context.Context) error { return nil }
func (s *stubRecords) Close()                         {}

func (s *stubRecords) Get(ctx context.Context, name string) (*record.Attachment, error) {
	a, ok := s.atts[name]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "attachment "+name+" does not exist")
	}
	return a, nil
}

func (s *stubRecords) FindUnmigrated(ctx context.Context) ([]*record.Attachment, error) {
	var result []*record.Attachment
	for _, a := range s.atts {
		if !a.Migrated() {
			result = append(result, a)
		}
	}
	return result, nil
}

func (s *stubRecords) Save(ctx context.Context, a *record.Attachment) error {
	s.atts[a.Name] = a
	return nil
}

func (s *stubRecords) Delete(ctx context.Context, name string) error {
	delete(s.atts, name)
	return nil
}

type stubPayloads struct {
	data map[string][]byte
}

func (s *stubPayloads) Open(a *record.Attachment) (io.ReadCloser, int64, error) {
	data, ok := s.data[a.Name]
	if !ok {
		return nil, 0, errs.New(errs.ErrKindNotFound, "local payload missing")
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (s *stubPayloads) Remove(a *record.Attachment) error {
	delete(s.data, a.Name)
	return nil
}

func (s *stubPayloads) Exists(a *record.Attachment) bool {
	_, ok := s.data[a.Name]
	return ok
}

// --- harness ---

type webFixture struct {
	router   http.Handler
	store    *stubStore
	records  *stubRecords
	payloads *stubPayloads
}

func newWebFixture(t *testing.T) *webFixture {
	t.Helper()

	store := &stubStore{objects: make(map[string][]byte)}
	records := &stubRecords{atts: make(map[string]*record.Attachment)}
	payloads := &stubPayloads{data: make(map[string][]byte)}

	cfg := config.Default()
	cfg.ParentFolderID = "parent"

	connect := offload.ConnectorFunc(func(ctx context.Context, c config.Config) (objstore.Store, error) {
		return store, nil
	})
	svc := offload.New(records, payloads, connect, logger.Nop())

	srv := New(cfg, svc, records, logger.Nop())

	return &webFixture{
		router:   srv.Router(),
		store:    store,
		records:  records,
		payloads: payloads,
	}
}

func (f *webFixture) do(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

// --- tests ---

func TestHealthAndPing(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "pong", body["message"])
}

func TestTestConnectionEndpoint(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(t, http.MethodGet, "/api/test-connection", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status offload.ConnectionStatus
	decode(t, rec, &status)
	assert.True(t, status.Success)

	f.store.pingErr = errs.New(errs.ErrKindConnectionFailed, "unreachable")
	rec = f.do(t, http.MethodGet, "/api/test-connection", "")
	require.Equal(t, http.StatusOK, rec.Code, "a failed probe is still a 200 with success=false")

	decode(t, rec, &status)
	assert.False(t, status.Success)
}

func TestMigrateEndpoint(t *testing.T) {
	f := newWebFixture(t)

	f.records.atts["a1"] = &record.Attachment{
		Name: "a1", Doctype: "Customer", Docname: "C-001",
		FileName: "a1.pdf", FileURL: "/files/a1.pdf", IsPrivate: true,
	}
	f.payloads.data["a1"] = []byte("payload")

	rec := f.do(t, http.MethodPost, "/api/migrate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result offload.MigrationResult
	decode(t, rec, &result)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Migrated)
	assert.Equal(t, 0, result.Errors)
}

func TestMigrateEndpointCancelled(t *testing.T) {
	f := newWebFixture(t)

	f.records.atts["a1"] = &record.Attachment{
		Name: "a1", Doctype: "Customer", Docname: "C-001",
		FileName: "a1.pdf", FileURL: "/files/a1.pdf", IsPrivate: true,
	}
	f.payloads.data["a1"] = []byte("payload")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/api/migrate", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestEventEndpoint(t *testing.T) {
	f := newWebFixture(t)

	f.records.atts["a1"] = &record.Attachment{
		Name: "a1", Doctype: "Customer", Docname: "C-001",
		FileName: "a1.pdf", FileURL: "/files/a1.pdf", IsPrivate: true,
	}
	f.payloads.data["a1"] = []byte("payload")

	rec := f.do(t, http.MethodPost, "/api/events", `{"type":"attachment_created","name":"a1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "uploaded", body["status"])
	assert.True(t, f.records.atts["a1"].Migrated())
}

func TestEventEndpointMalformedBody(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(t, http.MethodPost, "/api/events", `{"type":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventEndpointUnknownName(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(t, http.MethodPost, "/api/events", `{"type":"attachment_created","name":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFileInfoEndpoint(t *testing.T) {
	f := newWebFixture(t)

	f.records.atts["a1"] = &record.Attachment{
		Name: "a1", FileName: "report.pdf", RemoteID: "remote-x",
	}
	f.store.objects["remote-x"] = []byte("payload")

	rec := f.do(t, http.MethodGet, "/api/files/a1/info", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info objstore.FileInfo
	decode(t, rec, &info)
	assert.Equal(t, "remote-x", info.ID)
}

func TestFileInfoNotMigrated(t *testing.T) {
	f := newWebFixture(t)

	f.records.atts["a1"] = &record.Attachment{Name: "a1", FileName: "report.pdf"}

	rec := f.do(t, http.MethodGet, "/api/files/a1/info", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFileContentEndpoint(t *testing.T) {
	f := newWebFixture(t)

	f.records.atts["a1"] = &record.Attachment{
		Name: "a1", FileName: "report.pdf", RemoteID: "remote-x",
	}
	f.store.objects["remote-x"] = []byte("pdf bytes")

	rec := f.do(t, http.MethodGet, "/api/files/a1/content", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `"report.pdf"`)
	assert.Equal(t, "pdf bytes", rec.Body.String())
}

func TestFileContentUnknownAttachment(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(t, http.MethodGet, "/api/files/ghost/content", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDEcho(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
