package api

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/promptdesk/internal/document"
	"github.com/starford/promptdesk/internal/editor"
	"github.com/starford/promptdesk/internal/index"
	"github.com/starford/promptdesk/internal/workspace"
)

const maxNameLen = 200

var errEmptyPatch = errors.New("at least one field is required")

// CreateDocumentRequest is the request body for creating a document.
type CreateDocumentRequest struct {
	Name string `json:"name" example:"Support triage"`
}

// Validate validates the request.
func (r CreateDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(0, maxNameLen)),
	)
}

// ShapeRequest selects the presented representation.
type ShapeRequest struct {
	Shape string `json:"shape" example:"outline" validate:"required"`
}

// Validate validates the request.
func (r ShapeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Shape, validation.Required, validation.In(toAny(document.Shapes)...)),
	)
}

// ModeRequest switches the authoring mode.
type ModeRequest struct {
	Mode string `json:"mode" example:"viewing" validate:"required"`
}

// Validate validates the request.
func (r ModeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Mode, validation.Required, validation.In(toAny(workspace.Modes)...)),
	)
}

// NameRequest renames a document.
type NameRequest struct {
	Name string `json:"name" example:"Support triage v2" validate:"required"`
}

// Validate validates the request.
func (r NameRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, maxNameLen)),
	)
}

// PreferencesRequest updates view preferences; empty fields keep their value.
type PreferencesRequest struct {
	SectionView   string `json:"section_view" example:"padding"`
	SectionFormat string `json:"section_format" example:"markdown"`
	FragmentView  string `json:"fragment_view" example:"snake"`
}

// PlainTextRequest replaces the plain text.
type PlainTextRequest struct {
	Text *string `json:"text" example:"You are a helpful assistant." validate:"required"`
}

// Validate validates the request.
func (r PlainTextRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.NotNil),
	)
}

// AddOutlineNodeRequest adds a section; an empty parent_id adds a root.
type AddOutlineNodeRequest struct {
	ParentID string `json:"parent_id" example:""`
}

// OutlinePatchRequest edits a section.
type OutlinePatchRequest document.OutlinePatch

// Validate validates the request.
func (r OutlinePatchRequest) Validate() error {
	if r.Title == nil && r.Body == nil {
		return errEmptyPatch
	}
	return nil
}

// FragmentPatchRequest edits a fragment.
type FragmentPatchRequest document.FragmentPatch

// Validate validates the request.
func (r FragmentPatchRequest) Validate() error {
	if r.Name == nil && r.Body == nil {
		return errEmptyPatch
	}
	return nil
}

// LanePatchRequest renames a lane.
type LanePatchRequest document.LanePatch

// Validate validates the request.
func (r LanePatchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NotNil),
	)
}

// NavRequest selects or hovers a navigation item. An empty item means none.
type NavRequest struct {
	Item      string `json:"item" example:"templates"`
	Immediate bool   `json:"immediate"`
}

// validateFor checks the item against the vocabulary of shape.
func (r NavRequest) validateFor(shape document.Shape) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Item, validation.In(toAny(workspace.NavItems(shape))...).
			Error("is not on the navigation rail for the "+string(shape)+" shape")),
	)
}

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []index.DocumentRow `json:"documents" validate:"required"`
	Total     int                 `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// DocumentDetail is the full document response (aliased from the editor layer).
type DocumentDetail = editor.Detail

// OutlineEntry is one section in traversal order with its body rendered
// in the document's section format.
type OutlineEntry struct {
	document.OutlineEntry
	Rendered string `json:"rendered"`
}

// OutlineResponse lists the outline in traversal order.
type OutlineResponse struct {
	Format  string         `json:"format" example:"markdown"`
	Entries []OutlineEntry `json:"entries"`
}

// PreviewResponse carries the outline preview.
type PreviewResponse struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// LayoutResponse arranges fragments for the fragment view.
type LayoutResponse struct {
	View string                `json:"view" example:"snake"`
	Rows [][]document.Fragment `json:"rows"`
}

// WorkspaceResponse is the coordinator state plus derived fields.
type WorkspaceResponse struct {
	workspace.State
	PanelItem workspace.NavItem   `json:"panel_item"`
	NavItems  []workspace.NavItem `json:"nav_items"`
}

// VariableUsageResponse lists documents that reference a template variable.
type VariableUsageResponse struct {
	Variable  string   `json:"variable" example:"customer"`
	Documents []string `json:"documents"`
}

// ImportResponse is returned after a snapshot upload.
type ImportResponse struct {
	ID   string `json:"id" validate:"required"`
	Size int64  `json:"size" example:"12345" validate:"required"`
	URL  string `json:"url" example:"/api/documents/3f2a" validate:"required"`
}

// toAny converts a closed set of named strings into plain string elements
// for validation.In, which compares with ==.
func toAny[T ~string](items []T) []any {
	out := make([]any, len(items))
	for i, v := range items {
		out[i] = string(v)
	}
	return out
}
