package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/promptdesk/internal/editor"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *editor.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Post("/documents/import", h.ImportDocument)

	r.Route("/documents/{id}", func(r chi.Router) {
		r.Get("/", h.GetDocument)
		r.Delete("/", h.DeleteDocument)
		r.Post("/save", h.SaveDocument)
		r.Get("/export", h.ExportDocument)

		r.Put("/shape", h.SetShape)
		r.Put("/mode", h.SetMode)
		r.Put("/name", h.SetName)
		r.Put("/preferences", h.SetPreferences)
		r.Put("/plain", h.SetPlainText)

		r.Get("/outline", h.GetOutline)
		r.Post("/outline", h.AddOutlineNode)
		r.Patch("/outline/{nodeID}", h.UpdateOutlineNode)
		r.Delete("/outline/{nodeID}", h.RemoveOutlineNode)
		r.Get("/preview", h.GetPreview)

		r.Post("/fragments", h.AddFragment)
		r.Get("/fragments/layout", h.FragmentLayout)
		r.Patch("/fragments/{fragmentID}", h.UpdateFragment)
		r.Delete("/fragments/{fragmentID}", h.RemoveFragment)

		r.Post("/lanes", h.AddLane)
		r.Patch("/lanes/{laneID}", h.UpdateLane)
		r.Delete("/lanes/{laneID}", h.RemoveLane)
		r.Post("/lanes/{laneID}/fragments", h.AddLaneFragment)
		r.Patch("/lanes/{laneID}/fragments/{fragmentID}", h.UpdateLaneFragment)
		r.Delete("/lanes/{laneID}/fragments/{fragmentID}", h.RemoveLaneFragment)

		r.Get("/workspace", h.GetWorkspace)
		r.Post("/workspace/nav-rail/toggle", h.ToggleNavRail)
		r.Post("/workspace/context-panel/toggle", h.ToggleContextPanel)
		r.Post("/workspace/inspector/toggle", h.ToggleInspector)
		r.Put("/workspace/nav/active", h.SelectNavItem)
		r.Put("/workspace/nav/hover", h.HoverNavItem)
	})

	r.Get("/search", h.Search)
	r.Get("/variables/{name}", h.VariableUsage)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
