// Package models defines the document-level types shared by storage, index and API layers.
package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Status is the save state shown next to the document name.
type Status string

// Save states.
const (
	StatusSaved   Status = "saved"
	StatusSaving  Status = "saving"
	StatusUnsaved Status = "unsaved"
)

// Section view, section format and fragment view options.
const (
	SectionViewPadding   = "padding"
	SectionViewNoPadding = "no-padding"

	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatXML      = "xml"

	FragmentViewGrid  = "grid"
	FragmentViewList  = "list"
	FragmentViewSnake = "snake"
)

// Preferences are per-document presentation choices.
type Preferences struct {
	SectionView   string `json:"section_view" yaml:"section_view"`
	SectionFormat string `json:"section_format" yaml:"section_format"`
	FragmentView  string `json:"fragment_view" yaml:"fragment_view"`
}

// DefaultPreferences matches what a fresh document opens with.
func DefaultPreferences() Preferences {
	return Preferences{
		SectionView:   SectionViewPadding,
		SectionFormat: FormatMarkdown,
		FragmentView:  FragmentViewGrid,
	}
}

// Validate checks every option against its closed set.
func (p *Preferences) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.SectionView, validation.Required, validation.In(SectionViewPadding, SectionViewNoPadding)),
		validation.Field(&p.SectionFormat, validation.Required, validation.In(FormatMarkdown, FormatJSON, FormatYAML, FormatXML)),
		validation.Field(&p.FragmentView, validation.Required, validation.In(FragmentViewGrid, FragmentViewList, FragmentViewSnake)),
	)
}

// FileMetadata describes a stored snapshot file.
type FileMetadata struct {
	Name      string    `json:"name"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
