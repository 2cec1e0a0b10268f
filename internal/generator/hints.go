package generator

import (
	"strings"

	"github.com/talentsift/cvgate/internal/lexicon"
	"github.com/talentsift/cvgate/internal/model"
	"github.com/talentsift/cvgate/internal/textutil"
)

// entityHints seeds candidates from upstream NER output. An organization
// hint inside the education region becomes an education candidate when it
// reads as a school; elsewhere it becomes an experience candidate when a
// date token sits close enough to anchor it.
func (g *Generator) entityHints(doc *model.Document, bounds model.SectionBounds, hints []model.EntityHint) ([]model.Candidate, error) {
	if len(hints) == 0 {
		return nil, nil
	}
	eduRange, hasEduRange := bounds["education"]

	var out []model.Candidate
	for _, h := range hints {
		if !h.IsOrg() || h.Line < 0 || h.Line >= doc.Len() {
			continue
		}
		text := strings.TrimSpace(h.Text)
		if len(text) < 3 || !lexicon.IsValidOrgValue(text) {
			continue
		}

		// Hints arriving without a confidence read as the 0.5 midpoint.
		conf := h.Confidence
		if conf == 0 {
			conf = 0.5
		}

		isSchool, _ := g.lex.IsSchool(text)
		inEduRegion := hasEduRange && eduRange.Contains(h.Line)

		if isSchool && inEduRegion {
			cand := model.NewEducation(model.StrategyEntityHint, h.Line)
			cand.School = text
			cand.SetConfidence(conf)
			if r, ok := textutil.ExtractDateRange(doc.Line(h.Line)); ok {
				cand.StartDate, cand.EndDate = r.Start, r.End
			}
			out = append(out, cand)
			continue
		}
		if isSchool {
			// A school outside the education region is the sieve's problem,
			// not a generation seed.
			continue
		}

		anchor, ok := nearestDateLine(doc, h.Line, g.gate.MaxCrossColumnDistance)
		if !ok {
			continue
		}
		cand := model.NewExperience(model.StrategyEntityHint, h.Line)
		cand.Company = text
		cand.SetConfidence(conf)
		if r, rok := textutil.ExtractDateRange(doc.Line(anchor)); rok {
			cand.StartDate, cand.EndDate, cand.Current = r.Start, r.End, r.Current
		}
		// Borrow a role from the hint's own line when one is present.
		if g.lex.HasRoleIndicator(doc.Line(h.Line)) {
			if m := reTitleChezOrg.FindStringSubmatch(doc.Line(h.Line)); m != nil {
				cand.Title = strings.TrimSpace(stripLeadingDateTokens(m[reTitleChezOrg.SubexpIndex("title")]))
			}
		}
		out = append(out, cand)
	}
	return out, nil
}

// nearestDateLine finds the closest line within radius carrying a date token.
func nearestDateLine(doc *model.Document, anchor, radius int) (int, bool) {
	if textutil.HasDateToken(doc.Line(anchor)) {
		return anchor, true
	}
	for d := 1; d <= radius; d++ {
		if anchor-d >= 0 && textutil.HasDateToken(doc.Line(anchor-d)) {
			return anchor - d, true
		}
		if anchor+d < doc.Len() && textutil.HasDateToken(doc.Line(anchor+d)) {
			return anchor + d, true
		}
	}
	return 0, false
}
