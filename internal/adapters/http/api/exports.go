// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/examboard/internal/adapters/workbook"
	"github.com/okian/examboard/internal/domain/export"
)

const (
	formatXLSX = "xlsx"
	formatJSON = "json"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportDependencies defines the interface for export operations.
type ExportDependencies interface {
	Export(ctx context.Context, id string, view export.View) (export.Table, error)
}

// ExportHandler serves export views as workbooks or JSON.
type ExportHandler struct {
	deps ExportDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleExport handles GET /runs/{id}/exports/{view}?format=xlsx|json.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"

	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatXLSX
	}
	if format != formatXLSX && format != formatJSON {
		writeError(w, http.StatusBadRequest, "bad_format", NewKind(op, fmt.Errorf("%w: %q", ErrUnknownForm, format)))
		return
	}

	view, err := export.ParseView(chi.URLParam(r, "view"))
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	table, err := h.deps.Export(r.Context(), chi.URLParam(r, "id"), view)
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}

	if format == formatJSON {
		writeJSON(w, http.StatusOK, table)
		return
	}

	var buf bytes.Buffer
	if err := workbook.WriteTable(&buf, table); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", table.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
