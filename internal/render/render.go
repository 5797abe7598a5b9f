// Package render produces the read-only views of a document: section bodies
// in the chosen display format and the outline preview.
package render

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"github.com/starford/promptdesk/internal/apperr"
	"github.com/starford/promptdesk/internal/document"
	"github.com/starford/promptdesk/internal/models"
)

// Section renders a section body in format. Empty bodies render empty.
func Section(body, format string) (string, error) {
	if body == "" {
		return "", nil
	}
	switch format {
	case "", models.FormatMarkdown:
		return body, nil
	case models.FormatJSON:
		out, err := json.MarshalIndent(map[string]string{"content": body}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("render: json: %w", err)
		}
		return string(out), nil
	case models.FormatYAML:
		out, err := yaml.Marshal(map[string]string{"content": body})
		if err != nil {
			return "", fmt.Errorf("render: yaml: %w", err)
		}
		return strings.TrimRight(string(out), "\n"), nil
	case models.FormatXML:
		var buf bytes.Buffer
		buf.WriteString("<content>\n  ")
		if err := xml.EscapeText(&buf, []byte(body)); err != nil {
			return "", fmt.Errorf("render: xml: %w", err)
		}
		buf.WriteString("\n</content>")
		return buf.String(), nil
	default:
		return "", fmt.Errorf("render: format %q: %w", format, apperr.ErrInvalid)
	}
}

// OutlineMarkdown writes the outline in traversal order, one heading per
// node with the level following its depth.
func OutlineMarkdown(entries []document.OutlineEntry) string {
	var b strings.Builder
	for _, e := range entries {
		level := min(e.Depth+1, 6)
		b.WriteString(strings.Repeat("#", level))
		b.WriteByte(' ')
		b.WriteString(e.Node.Title)
		b.WriteString("\n\n")
		if body := strings.TrimSpace(e.Node.Body); body != "" {
			b.WriteString(body)
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

// PreviewHTML converts the outline to HTML.
func PreviewHTML(entries []document.OutlineEntry) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(OutlineMarkdown(entries)), &buf); err != nil {
		return "", fmt.Errorf("render: preview: %w", err)
	}
	return buf.String(), nil
}

// FragmentRows arranges fragments for view: grid and snake use rows of
// document.SnakeWidth, list puts one fragment per row.
func FragmentRows(view string, items []document.Fragment) ([][]document.Fragment, error) {
	switch view {
	case "", models.FragmentViewGrid:
		return document.GridRows(items, document.SnakeWidth), nil
	case models.FragmentViewSnake:
		return document.SnakeRows(items, document.SnakeWidth), nil
	case models.FragmentViewList:
		return document.GridRows(items, 1), nil
	default:
		return nil, fmt.Errorf("render: fragment view %q: %w", view, apperr.ErrInvalid)
	}
}
