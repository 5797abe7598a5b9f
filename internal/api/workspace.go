package api

import (
	"net/http"

	"github.com/starford/promptdesk/internal/document"
	"github.com/starford/promptdesk/internal/editor"
	"github.com/starford/promptdesk/internal/workspace"
)

func workspaceResponse(sess *editor.Session) WorkspaceResponse {
	var shape document.Shape
	sess.View(func(d *document.Document) { shape = d.Shape() })
	st := sess.Workspace().State()
	return WorkspaceResponse{
		State:     st,
		PanelItem: st.PanelItem(),
		NavItems:  workspace.NavItems(shape),
	}
}

// GetWorkspace handles GET /api/documents/{id}/workspace.
//
//	@Summary		Workspace state of a document
//	@Tags			workspace
//	@Produce		json
//	@Param			id	path		string	true	"Document id"
//	@Success		200	{object}	WorkspaceResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/workspace [get]
func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, workspaceResponse(sess))
}

// SetMode handles PUT /api/documents/{id}/mode.
func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "set mode")
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Workspace().SetMode(workspace.Mode(req.Mode)); err != nil {
		writeError(w, err, "set mode")
		return
	}
	writeJSON(w, http.StatusOK, workspaceResponse(sess))
}

// toggle returns a handler flipping one panel.
func (h *Handler) toggle(fn func(*workspace.Coordinator)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := h.session(w, r)
		if !ok {
			return
		}
		fn(sess.Workspace())
		writeJSON(w, http.StatusOK, workspaceResponse(sess))
	}
}

// ToggleNavRail handles POST /api/documents/{id}/workspace/nav-rail/toggle.
func (h *Handler) ToggleNavRail(w http.ResponseWriter, r *http.Request) {
	h.toggle((*workspace.Coordinator).ToggleNavRail)(w, r)
}

// ToggleContextPanel handles POST /api/documents/{id}/workspace/context-panel/toggle.
func (h *Handler) ToggleContextPanel(w http.ResponseWriter, r *http.Request) {
	h.toggle((*workspace.Coordinator).ToggleContextPanel)(w, r)
}

// ToggleInspector handles POST /api/documents/{id}/workspace/inspector/toggle.
func (h *Handler) ToggleInspector(w http.ResponseWriter, r *http.Request) {
	h.toggle((*workspace.Coordinator).ToggleInspector)(w, r)
}

// navRequest decodes a NavRequest and checks it against the rail of the
// document's current shape.
func (h *Handler) navRequest(w http.ResponseWriter, r *http.Request, op string) (*editor.Session, NavRequest, bool) {
	var req NavRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, op)
		return nil, req, false
	}
	sess, ok := h.session(w, r)
	if !ok {
		return nil, req, false
	}
	var shape document.Shape
	sess.View(func(d *document.Document) { shape = d.Shape() })
	if err := req.validateFor(shape); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return nil, req, false
	}
	return sess, req, true
}

// SelectNavItem handles PUT /api/documents/{id}/workspace/nav/active.
//
//	@Summary		Select or deselect a navigation item
//	@Tags			workspace
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Document id"
//	@Param			body	body		NavRequest	true	"Item; selecting the active item deselects it"
//	@Success		200		{object}	WorkspaceResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/workspace/nav/active [put]
func (h *Handler) SelectNavItem(w http.ResponseWriter, r *http.Request) {
	sess, req, ok := h.navRequest(w, r, "select nav item")
	if !ok {
		return
	}
	sess.Workspace().SelectNavItem(workspace.NavItem(req.Item))
	writeJSON(w, http.StatusOK, workspaceResponse(sess))
}

// HoverNavItem handles PUT /api/documents/{id}/workspace/nav/hover.
//
//	@Summary		Set or clear the hovered navigation item
//	@Description	An empty item clears the hover after the configured delay unless immediate is set.
//	@Tags			workspace
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Document id"
//	@Param			body	body		NavRequest	true	"Item and immediacy"
//	@Success		200		{object}	WorkspaceResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/workspace/nav/hover [put]
func (h *Handler) HoverNavItem(w http.ResponseWriter, r *http.Request) {
	sess, req, ok := h.navRequest(w, r, "hover nav item")
	if !ok {
		return
	}
	sess.Workspace().HoverNavItem(workspace.NavItem(req.Item), req.Immediate)
	writeJSON(w, http.StatusOK, workspaceResponse(sess))
}
