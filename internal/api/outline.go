package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/promptdesk/internal/document"
	"github.com/starford/promptdesk/internal/render"
)

// AddOutlineNode handles POST /api/documents/{id}/outline.
//
//	@Summary		Add a section under parent_id, or as a root
//	@Tags			outline
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Document id"
//	@Param			body	body		AddOutlineNodeRequest	false	"Parent"
//	@Success		201		{object}	document.OutlineNode
//	@Failure		422		{object}	errResponse
//	@Failure		423		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/outline [post]
func (h *Handler) AddOutlineNode(w http.ResponseWriter, r *http.Request) {
	var req AddOutlineNodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "add outline node")
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var node document.OutlineNode
	err := sess.Do(func(d *document.Document) error {
		var err error
		node, err = d.AddOutlineNode(req.ParentID)
		return err
	})
	if err != nil {
		writeError(w, err, "add outline node")
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

// UpdateOutlineNode handles PATCH /api/documents/{id}/outline/{nodeID}.
func (h *Handler) UpdateOutlineNode(w http.ResponseWriter, r *http.Request) {
	var req OutlinePatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "update outline node")
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var node document.OutlineNode
	err := sess.Do(func(d *document.Document) error {
		var err error
		node, err = d.UpdateOutlineNode(chi.URLParam(r, "nodeID"), document.OutlinePatch(req))
		return err
	})
	if err != nil {
		writeError(w, err, "update outline node")
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// RemoveOutlineNode handles DELETE /api/documents/{id}/outline/{nodeID}.
// Children of the removed section move up to its parent.
func (h *Handler) RemoveOutlineNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Do(func(d *document.Document) error {
		return d.RemoveOutlineNode(chi.URLParam(r, "nodeID"))
	}); err != nil {
		writeError(w, err, "remove outline node")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetOutline handles GET /api/documents/{id}/outline.
//
//	@Summary		Outline in traversal order with depths and rendered bodies
//	@Tags			outline
//	@Produce		json
//	@Param			id	path		string	true	"Document id"
//	@Success		200	{object}	OutlineResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/outline [get]
func (h *Handler) GetOutline(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	format := sess.Meta().Preferences.SectionFormat
	var entries []document.OutlineEntry
	sess.View(func(d *document.Document) { entries = d.OutlineOrder() })

	resp := OutlineResponse{Format: format, Entries: make([]OutlineEntry, 0, len(entries))}
	for _, e := range entries {
		rendered, err := render.Section(e.Node.Body, format)
		if err != nil {
			writeError(w, err, "render section")
			return
		}
		resp.Entries = append(resp.Entries, OutlineEntry{OutlineEntry: e, Rendered: rendered})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPreview handles GET /api/documents/{id}/preview.
func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var entries []document.OutlineEntry
	sess.View(func(d *document.Document) { entries = d.OutlineOrder() })

	html, err := render.PreviewHTML(entries)
	if err != nil {
		writeError(w, err, "render preview")
		return
	}
	writeJSON(w, http.StatusOK, PreviewResponse{Markdown: render.OutlineMarkdown(entries), HTML: html})
}
