package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Document is an immutable, line-indexed view of one résumé's text. It is
// owned by the pipeline for the duration of a single extraction run.
type Document struct {
	lines []string
}

// NewDocument builds a Document from raw lines. An empty or all-blank input
// is malformed and fails fast; nothing downstream handles a zero-line
// document.
func NewDocument(lines []string) (*Document, error) {
	if len(lines) == 0 {
		return nil, eris.New("model: empty document")
	}
	blank := true
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			blank = false
			break
		}
	}
	if blank {
		return nil, eris.New("model: document contains only blank lines")
	}
	copied := make([]string, len(lines))
	copy(copied, lines)
	return &Document{lines: copied}, nil
}

// Len returns the number of lines.
func (d *Document) Len() int { return len(d.lines) }

// Line returns the line at index i, or "" when i is out of range.
func (d *Document) Line(i int) string {
	if i < 0 || i >= len(d.lines) {
		return ""
	}
	return d.lines[i]
}

// Lines returns the backing slice. Callers must treat it as read-only.
func (d *Document) Lines() []string { return d.lines }

// Window clamps [anchor-radius, anchor+radius] to the document and returns
// the inclusive start and exclusive end of the window.
func (d *Document) Window(anchor, radius int) (start, end int) {
	start = anchor - radius
	if start < 0 {
		start = 0
	}
	end = anchor + radius + 1
	if end > len(d.lines) {
		end = len(d.lines)
	}
	return start, end
}

// EntityHint is an externally supplied NER annotation attached to a line.
// Hints are borrowed read-only from the upstream recognizer.
type EntityHint struct {
	Label      string  `json:"label"`
	Text       string  `json:"text"`
	Line       int     `json:"line_index"`
	Confidence float64 `json:"confidence,omitempty"`
}

// IsOrg reports whether the hint labels an organization span.
func (h EntityHint) IsOrg() bool {
	return strings.Contains(strings.ToUpper(h.Label), "ORG")
}

// LineRange is a half-open [Start, End) span of document lines.
type LineRange struct {
	Start int `json:"start_line"`
	End   int `json:"end_line"`
}

// Contains reports whether line falls inside the range.
func (r LineRange) Contains(line int) bool {
	return line >= r.Start && line < r.End
}

// SectionBounds maps a section name ("experience", "education", ...) to its
// line range, when the upstream segmenter provides one.
type SectionBounds map[string]LineRange
