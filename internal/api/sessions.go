package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/stemsplit/internal/upload"
)

const maxOptionsBody = 4 * 1024

// Upload bodies get a deadline sized for the largest accepted file at
// minUploadRate instead of the server-wide read timeout.
const (
	minUploadRate   = 64 * 1024 // bytes per second
	uploadGraceTime = time.Minute
)

func uploadDeadline(now time.Time, maxBytes int64) time.Time {
	return now.Add(uploadGraceTime + time.Duration(maxBytes/minUploadRate)*time.Second)
}

type sessionResponse struct {
	ID    string       `json:"id"`
	State upload.State `json:"state"`
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*upload.Controller, bool) {
	c, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return c, true
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	c, err := s.registry.Create()
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", SessionsPath+"/"+c.ID())
	writeJSON(w, http.StatusCreated, sessionResponse{ID: c.ID(), State: c.State()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	c, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.State())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSelectFile streams the "file" part of a multipart body into the
// session's spool without buffering it in memory.
func (s *Server) handleSelectFile(w http.ResponseWriter, r *http.Request) {
	c, ok := s.session(w, r)
	if !ok {
		return
	}
	deadline := uploadDeadline(time.Now(), s.maxBytes())
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(deadline)
	_ = rc.SetWriteDeadline(deadline)
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes()+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		writeBadRequest(w, r, "INVALID_MULTIPART", "expected a multipart/form-data body")
		return
	}
	part, err := filePart(mr)
	if err != nil {
		if errors.Is(err, errNoFilePart) {
			writeError(w, r, upload.ErrNoFile)
			return
		}
		writeError(w, r, err)
		return
	}
	defer func() { _ = part.Close() }()

	// The part size is unknown until the spool has copied it.
	if _, err := c.SelectContent(part.FileName(), part.Header.Get("Content-Type"), -1, part); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.State())
}

var errNoFilePart = errors.New("no file part")

func filePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errNoFilePart
		}
		if err != nil {
			return nil, fmt.Errorf("read multipart: %w", err)
		}
		if part.FormName() == "file" && part.FileName() != "" {
			return part, nil
		}
		_ = part.Close()
	}
}

func (s *Server) handleRemoveFile(w http.ResponseWriter, r *http.Request) {
	c, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := c.RemoveFile(); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.State())
}

func (s *Server) handleSetOptions(w http.ResponseWriter, r *http.Request) {
	c, ok := s.session(w, r)
	if !ok {
		return
	}

	opts := upload.DefaultOptions()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOptionsBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		writeBadRequest(w, r, "INVALID_OPTIONS", "options must be a JSON object")
		return
	}
	if err := c.SetOptions(opts); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.State())
}

// handleSubmit starts the upload in the background. Progress is reported
// through the events stream.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	c, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := c.Start(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, c.State())
}
