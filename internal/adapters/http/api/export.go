package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportDependencies defines the interface for workbook export.
type ExportDependencies interface {
	Export(ctx context.Context, w io.Writer) error
}

// ExportHandler serves the leaderboard workbook.
type ExportHandler struct {
	deps ExportDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleExport handles GET /export.xlsx. The workbook is built in memory so
// a failure can still be reported as JSON.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.deps.Export(r.Context(), &buf); err != nil {
		writeFailure(w, "api.export", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboards.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
