// Package generator produces unvalidated candidates from a line-indexed
// document. Strategies run independently and their outputs are concatenated;
// no gating happens here. A strategy that fails is treated as empty output
// with a recorded warning, never a pipeline error.
package generator

import (
	"go.uber.org/zap"

	"github.com/talentsift/cvgate/internal/config"
	"github.com/talentsift/cvgate/internal/lexicon"
	"github.com/talentsift/cvgate/internal/model"
	"github.com/talentsift/cvgate/internal/validate"
)

// Result carries the concatenated strategy outputs. Degraded is set when at
// least one strategy failed and its output was treated as empty. The education
// pass counts record how many items each scan of the education region kept.
type Result struct {
	Candidates     []model.Candidate
	Warnings       []string
	Degraded       bool
	EducationPass1 int
	EducationPass2 int
}

// Generator applies the pattern strategies over one document. The boundary
// guard limits how far a strategy may reach for context around an anchor.
type Generator struct {
	gate  config.GateConfig
	lex   *lexicon.Lexicon
	guard *validate.BoundaryGuard
}

// New builds a generator over the shared lexicon.
func New(gate config.GateConfig, lex *lexicon.Lexicon) *Generator {
	return &Generator{gate: gate, lex: lex, guard: validate.NewBoundaryGuard(gate, lex)}
}

type strategyFunc struct {
	name string
	run  func() ([]model.Candidate, error)
}

// Generate runs every strategy and concatenates the outputs.
func (g *Generator) Generate(doc *model.Document, bounds model.SectionBounds, hints []model.EntityHint) Result {
	var out Result
	strategies := []strategyFunc{
		{"inline_separator", func() ([]model.Candidate, error) { return g.inlineSeparator(doc) }},
		{"bulleted_action", func() ([]model.Candidate, error) { return g.bulletedAction(doc) }},
		{"date_anchored_fallback", func() ([]model.Candidate, error) { return g.dateAnchored(doc) }},
		{"section_block", func() ([]model.Candidate, error) {
			cands, pass1, pass2, err := g.educationSection(doc, bounds)
			out.EducationPass1, out.EducationPass2 = pass1, pass2
			return cands, err
		}},
		{"entity_hint", func() ([]model.Candidate, error) { return g.entityHints(doc, bounds, hints) }},
	}
	for _, s := range strategies {
		cands, err := s.run()
		if err != nil {
			out.Warnings = append(out.Warnings, s.name+": "+err.Error())
			out.Degraded = true
			zap.L().Warn("generator: strategy failed, output treated as empty",
				zap.String("strategy", s.name),
				zap.Error(err))
			continue
		}
		out.Candidates = append(out.Candidates, cands...)
	}

	zap.L().Debug("generator: candidates produced",
		zap.Int("count", len(out.Candidates)),
		zap.Bool("degraded", out.Degraded))
	return out
}

// DateAnchorCount returns the number of lines carrying a date token while
// not being contact or certification noise. The diversity gate sizes its
// merge budget from this count.
func (g *Generator) DateAnchorCount(doc *model.Document) int {
	count := 0
	for i := 0; i < doc.Len(); i++ {
		if g.isStopLine(doc.Line(i)) {
			continue
		}
		if hasDateToken(doc.Line(i)) {
			count++
		}
	}
	return count
}

// isStopLine reports whether a line must not seed candidates: contact noise
// or a certification statement. A bare vendor name ("chez Google") is not a
// certification; the canon match only counts when the line actually talks
// about certifying.
func (g *Generator) isStopLine(line string) bool {
	if line == "" {
		return false
	}
	if lexicon.IsContactLine(line) {
		return true
	}
	if lexicon.IsCertification(line) {
		lowered := toLowerFold(line)
		for _, trigger := range []string{"certification", "certificat", "certified", "certifie"} {
			if containsWordish(lowered, trigger) {
				return true
			}
		}
	}
	return false
}
