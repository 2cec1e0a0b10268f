package validate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/talentsift/cvgate/internal/config"
	"github.com/talentsift/cvgate/internal/lexicon"
	"github.com/talentsift/cvgate/internal/model"
	"github.com/talentsift/cvgate/internal/textutil"
)

// BoundaryGuard suppresses candidate windows that cross into a different
// logical section: an education header inside the kill radius, a timeline or
// sidebar block, or a cross-column link.
type BoundaryGuard struct {
	gate config.GateConfig
	lex  *lexicon.Lexicon
}

// NewBoundaryGuard builds a guard bound to the configured kill radius and
// timeline thresholds.
func NewBoundaryGuard(gate config.GateConfig, lex *lexicon.Lexicon) *BoundaryGuard {
	return &BoundaryGuard{gate: gate, lex: lex}
}

// HeaderConflict reports whether an education header appears within the kill
// radius of the target line, with the header and its distance.
func (g *BoundaryGuard) HeaderConflict(doc *model.Document, anchor int) (bool, string, int) {
	start, end := doc.Window(anchor, g.gate.HeaderConflictKillRadius)
	for i := start; i < end; i++ {
		header, ok := g.lex.EducationHeaderIn(doc.Line(i))
		if !ok {
			continue
		}
		distance := i - anchor
		if distance < 0 {
			distance = -distance
		}
		zap.L().Debug("validate: header conflict",
			zap.Int("line", i),
			zap.String("header", header),
			zap.Int("distance", distance),
			zap.Int("anchor", anchor))
		return true, header, distance
	}
	return false, "", -1
}

// CanLink reports whether two lines are close enough to belong to the same
// record. Entities further apart than the cross-column limit sit in
// different layout columns and must not be linked.
func (g *BoundaryGuard) CanLink(lineA, lineB int) bool {
	distance := lineA - lineB
	if distance < 0 {
		distance = -distance
	}
	return distance <= g.gate.MaxCrossColumnDistance
}

// TimelineBlock reports whether [start, end) reads as a timeline or sidebar:
// the density of date and connector tokens over sliding windows exceeds the
// configured threshold.
func (g *BoundaryGuard) TimelineBlock(doc *model.Document, start, end int) (bool, float64) {
	if end > doc.Len() {
		end = doc.Len()
	}
	if start < 0 {
		start = 0
	}

	windowSize := g.gate.TimelineWindowSize
	timelineTokens, totalTokens := 0, 0

	// Blocks shorter than one window are never dense enough to matter.
	last := end - windowSize + 1
	if last < start {
		last = start
	}
	for winStart := start; winStart < last; winStart++ {
		winEnd := winStart + windowSize
		if winEnd > end {
			winEnd = end
		}
		for i := winStart; i < winEnd; i++ {
			tl, total := textutil.TimelineTokenCounts(doc.Line(i))
			timelineTokens += tl
			totalTokens += total
		}
	}

	if totalTokens == 0 {
		return false, 0
	}
	density := float64(timelineTokens) / float64(totalTokens)
	isTimeline := density > g.gate.TimelineDensityThreshold
	if isTimeline {
		zap.L().Debug("validate: timeline block",
			zap.Int("start", start),
			zap.Int("end", end),
			zap.Float64("density", density))
	}
	return isTimeline, density
}

// ShouldTerminate decides whether expanding a candidate window to the
// proposed line would cross a boundary. Any reason terminates; the window's
// candidates are discarded, not demoted.
func (g *BoundaryGuard) ShouldTerminate(doc *model.Document, winStart, winEnd, proposed int) (bool, []string) {
	var reasons []string

	if conflict, header, distance := g.HeaderConflict(doc, proposed); conflict {
		reasons = append(reasons, fmt.Sprintf("header_conflict_%s_distance_%d", header, distance))
	}

	lo, hi := winStart, winEnd
	if proposed < lo {
		lo = proposed
	}
	if proposed > hi {
		hi = proposed
	}
	if isTimeline, density := g.TimelineBlock(doc, lo, hi); isTimeline {
		reasons = append(reasons, fmt.Sprintf("timeline_block_density_%.3f", density))
	}

	center := (winStart + winEnd) / 2
	if !g.CanLink(center, proposed) {
		reasons = append(reasons, "cross_column_distance_exceeded")
	}

	if len(reasons) > 0 {
		zap.L().Info("validate: terminating window expansion",
			zap.Int("window_start", winStart),
			zap.Int("window_end", winEnd),
			zap.Int("proposed", proposed),
			zap.Strings("reasons", reasons))
		return true, reasons
	}
	return false, nil
}
