package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/promptdesk/internal/document"
	"github.com/starford/promptdesk/internal/editor"
	"github.com/starford/promptdesk/internal/index"
)

// Handler holds API route handlers.
type Handler struct {
	svc *editor.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *editor.Service) *Handler {
	return &Handler{svc: svc}
}

// session opens the document named by the {id} route parameter.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	sess, err := h.svc.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "open document")
		return nil, false
	}
	return sess, true
}

func writeDetail(w http.ResponseWriter, status int, sess *editor.Session) {
	d := sess.Detail()
	if d.Checksum != "" {
		w.Header().Set("ETag", `"`+d.Checksum+`"`)
	}
	writeJSON(w, status, d)
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List documents with optional pagination and tag filter
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	rows, total, err := h.svc.List(r.Context(), limit, offset, q.Get("tag"))
	if err != nil {
		writeError(w, err, "list documents")
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: rows, Total: total})
}

// CreateDocument handles POST /api/documents.
//
//	@Summary		Create a seeded document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDocumentRequest	false	"Document name"
//	@Success		201		{object}	DocumentDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "create document")
		return
	}
	sess, err := h.svc.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, err, "create document")
		return
	}
	writeDetail(w, http.StatusCreated, sess)
}

// GetDocument handles GET /api/documents/{id}.
//
//	@Summary		Get a document with its workspace state
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		string	true	"Document id"
//	@Success		200	{object}	DocumentDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeDetail(w, http.StatusOK, sess)
}

// DeleteDocument handles DELETE /api/documents/{id}.
//
//	@Summary		Delete a document
//	@Tags			documents
//	@Param			id	path	string	true	"Document id"
//	@Success		204	"Document deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveDocument handles POST /api/documents/{id}/save.
//
//	@Summary		Persist a document with optimistic concurrency
//	@Tags			documents
//	@Produce		json
//	@Param			id			path		string	true	"Document id"
//	@Param			If-Match	header		string	false	"Checksum of the stored snapshot"
//	@Success		200			{object}	DocumentDetail
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/save [post]
func (h *Handler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)
	sess, err := h.svc.Save(r.Context(), chi.URLParam(r, "id"), ifMatch)
	if err != nil {
		writeError(w, err, "save document")
		return
	}
	writeDetail(w, http.StatusOK, sess)
}

// SetShape handles PUT /api/documents/{id}/shape.
func (h *Handler) SetShape(w http.ResponseWriter, r *http.Request) {
	var req ShapeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "set shape")
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Do(func(d *document.Document) error {
		return d.SetShape(document.Shape(req.Shape))
	}); err != nil {
		writeError(w, err, "set shape")
		return
	}
	writeDetail(w, http.StatusOK, sess)
}

// SetName handles PUT /api/documents/{id}/name.
func (h *Handler) SetName(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "rename document")
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Rename(req.Name); err != nil {
		writeError(w, err, "rename document")
		return
	}
	writeDetail(w, http.StatusOK, sess)
}

// SetPreferences handles PUT /api/documents/{id}/preferences.
func (h *Handler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	var req PreferencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "set preferences")
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	p := sess.Meta().Preferences
	if req.SectionView != "" {
		p.SectionView = req.SectionView
	}
	if req.SectionFormat != "" {
		p.SectionFormat = req.SectionFormat
	}
	if req.FragmentView != "" {
		p.FragmentView = req.FragmentView
	}
	if err := sess.SetPreferences(p); err != nil {
		writeError(w, err, "set preferences")
		return
	}
	writeDetail(w, http.StatusOK, sess)
}

// SetPlainText handles PUT /api/documents/{id}/plain.
func (h *Handler) SetPlainText(w http.ResponseWriter, r *http.Request) {
	var req PlainTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "set plain text")
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Do(func(d *document.Document) error { return d.SetPlainText(*req.Text) }); err != nil {
		writeError(w, err, "set plain text")
		return
	}
	writeDetail(w, http.StatusOK, sess)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, err, "search")
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// VariableUsage handles GET /api/variables/{name}.
//
//	@Summary		Documents referencing a template variable
//	@Tags			search
//	@Produce		json
//	@Param			name	path		string	true	"Variable name"
//	@Success		200		{object}	VariableUsageResponse
//	@Security		BearerAuth
//	@Router			/variables/{name} [get]
func (h *Handler) VariableUsage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ids, err := h.svc.DocumentsUsing(r.Context(), name)
	if err != nil {
		writeError(w, err, "variable usage")
		return
	}
	writeJSON(w, http.StatusOK, VariableUsageResponse{Variable: name, Documents: ids})
}
