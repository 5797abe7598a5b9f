package document

import "strings"

// Stats summarises the presented shape for the status bar.
type Stats struct {
	Shape         Shape `json:"shape"`
	Words         int   `json:"words"`
	Sections      int   `json:"sections"`
	Fragments     int   `json:"fragments"`
	Lanes         int   `json:"lanes"`
	LaneFragments int   `json:"lane_fragments"`
}

// Stats counts words in the presented shape and items across all shapes.
func (d *Document) Stats() Stats {
	st := Stats{
		Shape:     d.shape,
		Sections:  len(d.outline),
		Fragments: len(d.fragments),
		Lanes:     len(d.lanes),
	}
	for _, l := range d.lanes {
		st.LaneFragments += len(l.Items)
	}

	switch d.shape {
	case ShapePlain:
		st.Words = words(d.plain)
	case ShapeOutline:
		for _, n := range d.outline {
			st.Words += words(n.Title) + words(n.Body)
		}
	case ShapeFragments:
		for _, f := range d.fragments {
			st.Words += words(f.Name) + words(f.Body)
		}
	case ShapeBoard:
		for _, l := range d.lanes {
			for _, f := range l.Items {
				st.Words += words(f.Name) + words(f.Body)
			}
		}
	}
	return st
}

func words(s string) int { return len(strings.Fields(s)) }

// Text joins every representation into one block, plain text first. The
// outline follows traversal order; lanes follow board order.
func (s Snapshot) Text() string {
	var parts []string
	add := func(v ...string) {
		for _, x := range v {
			if x = strings.TrimSpace(x); x != "" {
				parts = append(parts, x)
			}
		}
	}
	add(s.Plain)
	for _, e := range walkOutline(s.Outline) {
		add(e.Node.Title, e.Node.Body)
	}
	for _, f := range s.Fragments {
		add(f.Name, f.Body)
	}
	for _, l := range s.Lanes {
		add(l.Name)
		for _, f := range l.Items {
			add(f.Name, f.Body)
		}
	}
	return strings.Join(parts, "\n\n")
}
