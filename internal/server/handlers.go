package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/koustreak/driveoff/internal/errs"
	"github.com/koustreak/driveoff/internal/offload"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
}

func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	status := s.svc.TestConnection(r.Context(), s.cfg.Snapshot())
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.MigrateAll(r.Context(), s.cfg.Snapshot())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev offload.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		s.writeError(w, r, errs.Wrap(errs.ErrKindInvalidInput, "malformed event", err))
		return
	}

	outcome, err := s.svc.Dispatch(r.Context(), s.cfg.Snapshot(), ev)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": outcomeLabel(outcome),
		"reason": outcome.Reason.String(),
	})
}

func (s *Server) handleFileInfo(w http.ResponseWriter, r *http.Request) {
	att, err := s.records.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !att.Migrated() {
		s.writeError(w, r, errs.New(errs.ErrKindNotFound, "attachment is not in the remote store"))
		return
	}

	info, err := s.svc.GetFileInfo(r.Context(), s.cfg.Snapshot(), att.RemoteID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleFileContent(w http.ResponseWriter, r *http.Request) {
	att, err := s.records.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !att.Migrated() {
		s.writeError(w, r, errs.New(errs.ErrKindNotFound, "attachment is not in the remote store"))
		return
	}

	obj, err := s.svc.Download(r.Context(), s.cfg.Snapshot(), att.RemoteID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer obj.Close()

	info := obj.Info()
	if info.MimeType != "" {
		w.Header().Set("Content-Type", info.MimeType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.FileName))

	if _, err := io.Copy(w, obj); err != nil {
		// Headers are gone; all we can do is log the broken transfer.
		s.log.WarnWith("file download aborted", err, map[string]interface{}{
			"attachment": att.Name,
		})
	}
}

func outcomeLabel(o offload.Outcome) string {
	if o.Status == offload.StatusUploaded {
		return "uploaded"
	}
	return "skipped"
}

// writeJSON renders v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error kind to an HTTP status and renders it.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsNotFound(err):
		status = http.StatusNotFound
	case errs.IsInvalidInput(err):
		status = http.StatusBadRequest
	case errs.IsAuth(err):
		status = http.StatusBadGateway
	case errs.IsTimeout(err):
		status = http.StatusGatewayTimeout
	case errs.IsConnectionFailed(err):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.log.ErrorWith("request failed", err, map[string]interface{}{
			"path": r.URL.Path,
		})
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
