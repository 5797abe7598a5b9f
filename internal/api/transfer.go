package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/promptdesk/internal/snapshot"
)

const maxUploadBytes = 50 << 20 // 50 MB

// ImportDocument handles POST /api/documents/import (multipart/form-data, field "file").
//
//	@Summary		Import a snapshot file as a new document
//	@Tags			documents
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Snapshot file"
//	@Success		201		{object}	ImportResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/import [post]
func (h *Handler) ImportDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	sess, err := h.svc.Import(r.Context(), data)
	if err != nil {
		writeError(w, err, "import document")
		return
	}
	writeJSON(w, http.StatusCreated, ImportResponse{
		ID:   sess.ID(),
		Size: int64(len(data)),
		URL:  "/api/documents/" + sess.ID(),
	})
}

// ExportDocument handles GET /api/documents/{id}/export. The body is the
// encoded snapshot of the current state, saved or not.
func (h *Handler) ExportDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, err := h.svc.Export(r.Context(), id)
	if err != nil {
		writeError(w, err, "export document")
		return
	}
	codec := h.svc.Codec()
	contentType := "application/yaml"
	if codec.Ext() == ".cbor" {
		contentType = "application/cbor"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+snapshot.FileName(codec, id)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
