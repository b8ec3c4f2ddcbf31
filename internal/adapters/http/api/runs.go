// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/examboard/internal/app"
	"github.com/okian/examboard/internal/domain/model"
	"github.com/okian/examboard/internal/domain/types"
)

const (
	filesField      = "files"
	multipartMemory = 8 << 20
	defaultRunsList = 20
)

// RunsHandler handles run submission and status requests.
type RunsHandler struct {
	deps           Dependencies
	maxUploadBytes int64
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps Dependencies, maxUploadBytes int64) *RunsHandler {
	return &RunsHandler{deps: deps, maxUploadBytes: maxUploadBytes}
}

// HandleSubmit handles POST /runs multipart uploads.
func (h *RunsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_run"

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", NewKind(op, ErrTooLarge))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, fmt.Errorf("%w: %w", ErrBadRequest, err)))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	overrides, err := parseOverrides(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}

	headers := r.MultipartForm.File[filesField]
	files := make([]model.File, 0, len(headers))
	for _, fh := range headers {
		if !service.Accepts(fh.Filename) {
			writeError(w, http.StatusBadRequest, "unsupported_file", Wrap(op, fmt.Errorf("%w: %s", service.ErrUnsupportedFile, fh.Filename)))
			return
		}
		f, err := readPart(fh)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
			return
		}
		files = append(files, f)
	}

	run, err := h.deps.Submit(r.Context(), files, overrides)
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/runs/"+run.ID)
	writeJSON(w, http.StatusAccepted, types.RunAccepted{ID: run.ID, Status: run.Status, Files: run.Files})
}

// HandleGet handles GET /runs/{id}.
func (h *RunsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	run, err := h.deps.Run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, Wrap("api.get_run", err))
		return
	}
	writeJSON(w, http.StatusOK, types.NewRunStatus(run))
}

// HandleList handles GET /runs?limit=N, newest first.
func (h *RunsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_runs"
	limit, err := parseLimit(r, defaultRunsList)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	runs, err := h.deps.Runs(r.Context(), limit)
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	out := make([]types.RunStatus, len(runs))
	for i, run := range runs {
		out[i] = types.RunStatus{Run: run}
	}
	writeJSON(w, http.StatusOK, out)
}

func readPart(fh *multipart.FileHeader) (model.File, error) {
	f, err := fh.Open()
	if err != nil {
		return model.File{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return model.File{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return model.File{Name: fh.Filename, Data: data}, nil
}

func parseOverrides(r *http.Request) (service.Overrides, error) {
	var o service.Overrides
	for field, dst := range map[string]*int{
		"min_exams":      &o.MinExams,
		"min_name_parts": &o.MinNameParts,
	} {
		raw := strings.TrimSpace(r.FormValue(field))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return service.Overrides{}, fmt.Errorf("%w: %s must be a positive integer", ErrBadRequest, field)
		}
		*dst = n
	}
	return o, nil
}

// parseLimit reads ?limit; absent means def, zero means no limit.
func parseLimit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, ErrBadRequest
	}
	return n, nil
}
