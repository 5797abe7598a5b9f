package workspace

import (
	"slices"

	"github.com/starford/promptdesk/internal/document"
)

// NavItem identifies an entry of the navigation rail. The empty NavItem means none.
type NavItem string

// Navigation items across all document shapes.
const (
	NavNone      NavItem = ""
	NavFiles     NavItem = "files"
	NavTemplates NavItem = "templates"
	NavHistory   NavItem = "history"
	NavSettings  NavItem = "settings"
	NavHelp      NavItem = "help"
	NavSections  NavItem = "sections"
	NavPreview   NavItem = "preview"
	NavModules   NavItem = "modules"
	NavSchema    NavItem = "schema"
	NavLibrary   NavItem = "library"
	NavBlocks    NavItem = "blocks"
	NavWrappers  NavItem = "wrappers"
)

var vocabularies = map[document.Shape][]NavItem{
	document.ShapePlain:     {NavFiles, NavTemplates, NavHistory, NavSettings, NavHelp},
	document.ShapeOutline:   {NavSections, NavTemplates, NavPreview, NavSettings, NavHelp},
	document.ShapeFragments: {NavModules, NavTemplates, NavSchema, NavSettings, NavHelp},
	document.ShapeBoard:     {NavTemplates, NavLibrary, NavModules, NavBlocks, NavWrappers, NavHelp},
}

// NavItems returns the rail vocabulary for shape in display order.
func NavItems(shape document.Shape) []NavItem {
	return slices.Clone(vocabularies[shape])
}

// ValidNavItem reports whether item belongs to the vocabulary of shape. The
// empty item is always valid.
func ValidNavItem(shape document.Shape, item NavItem) bool {
	return item == NavNone || slices.Contains(vocabularies[shape], item)
}
