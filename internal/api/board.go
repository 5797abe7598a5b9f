package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/promptdesk/internal/document"
	"github.com/starford/promptdesk/internal/render"
)

// AddFragment handles POST /api/documents/{id}/fragments.
func (h *Handler) AddFragment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var f document.Fragment
	err := sess.Do(func(d *document.Document) error {
		var err error
		f, err = d.AddFragment()
		return err
	})
	if err != nil {
		writeError(w, err, "add fragment")
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// UpdateFragment handles PATCH /api/documents/{id}/fragments/{fragmentID}.
func (h *Handler) UpdateFragment(w http.ResponseWriter, r *http.Request) {
	var req FragmentPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "update fragment")
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var f document.Fragment
	err := sess.Do(func(d *document.Document) error {
		var err error
		f, err = d.UpdateFragment(chi.URLParam(r, "fragmentID"), document.FragmentPatch(req))
		return err
	})
	if err != nil {
		writeError(w, err, "update fragment")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// RemoveFragment handles DELETE /api/documents/{id}/fragments/{fragmentID}.
func (h *Handler) RemoveFragment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Do(func(d *document.Document) error {
		return d.RemoveFragment(chi.URLParam(r, "fragmentID"))
	}); err != nil {
		writeError(w, err, "remove fragment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FragmentLayout handles GET /api/documents/{id}/fragments/layout.
//
//	@Summary		Fragments arranged for the document's fragment view
//	@Tags			fragments
//	@Produce		json
//	@Param			id		path		string	true	"Document id"
//	@Param			view	query		string	false	"Override view"	Enums(grid, list, snake)
//	@Success		200		{object}	LayoutResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/fragments/layout [get]
func (h *Handler) FragmentLayout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	view := r.URL.Query().Get("view")
	if view == "" {
		view = sess.Meta().Preferences.FragmentView
	}
	var items []document.Fragment
	sess.View(func(d *document.Document) { items = d.Fragments() })

	rows, err := render.FragmentRows(view, items)
	if err != nil {
		writeError(w, err, "fragment layout")
		return
	}
	writeJSON(w, http.StatusOK, LayoutResponse{View: view, Rows: rows})
}

// AddLane handles POST /api/documents/{id}/lanes.
func (h *Handler) AddLane(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var l document.Lane
	err := sess.Do(func(d *document.Document) error {
		var err error
		l, err = d.AddLane()
		return err
	})
	if err != nil {
		writeError(w, err, "add lane")
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// UpdateLane handles PATCH /api/documents/{id}/lanes/{laneID}.
func (h *Handler) UpdateLane(w http.ResponseWriter, r *http.Request) {
	var req LanePatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "update lane")
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var l document.Lane
	err := sess.Do(func(d *document.Document) error {
		var err error
		l, err = d.UpdateLane(chi.URLParam(r, "laneID"), document.LanePatch(req))
		return err
	})
	if err != nil {
		writeError(w, err, "update lane")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// RemoveLane handles DELETE /api/documents/{id}/lanes/{laneID}.
func (h *Handler) RemoveLane(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Do(func(d *document.Document) error {
		return d.RemoveLane(chi.URLParam(r, "laneID"))
	}); err != nil {
		writeError(w, err, "remove lane")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddLaneFragment handles POST /api/documents/{id}/lanes/{laneID}/fragments.
func (h *Handler) AddLaneFragment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var f document.Fragment
	err := sess.Do(func(d *document.Document) error {
		var err error
		f, err = d.AddFragmentToLane(chi.URLParam(r, "laneID"))
		return err
	})
	if err != nil {
		writeError(w, err, "add lane fragment")
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// UpdateLaneFragment handles PATCH /api/documents/{id}/lanes/{laneID}/fragments/{fragmentID}.
func (h *Handler) UpdateLaneFragment(w http.ResponseWriter, r *http.Request) {
	var req FragmentPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "update lane fragment")
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var f document.Fragment
	err := sess.Do(func(d *document.Document) error {
		var err error
		f, err = d.UpdateLaneFragment(chi.URLParam(r, "laneID"), chi.URLParam(r, "fragmentID"), document.FragmentPatch(req))
		return err
	})
	if err != nil {
		writeError(w, err, "update lane fragment")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// RemoveLaneFragment handles DELETE /api/documents/{id}/lanes/{laneID}/fragments/{fragmentID}.
// Removing a fragment the lane does not hold succeeds.
func (h *Handler) RemoveLaneFragment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Do(func(d *document.Document) error {
		return d.RemoveFragmentFromLane(chi.URLParam(r, "laneID"), chi.URLParam(r, "fragmentID"))
	}); err != nil {
		writeError(w, err, "remove lane fragment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
