package generator

import (
	"regexp"
	"strings"

	"github.com/talentsift/cvgate/internal/lexicon"
	"github.com/talentsift/cvgate/internal/model"
	"github.com/talentsift/cvgate/internal/textutil"
)

var reContextPair = regexp.MustCompile(`(.+?)\s+[@\-–—]\s+(.+)`)

// dateAnchored is the last-resort strategy: every line carrying a date token
// seeds a low-confidence candidate filled from the surrounding context. It
// recovers layouts the pattern strategies miss, at the cost of noise the
// downstream gates must absorb.
func (g *Generator) dateAnchored(doc *model.Document) ([]model.Candidate, error) {
	var out []model.Candidate

	for i := 0; i < doc.Len(); i++ {
		line := doc.Line(i)
		if g.isStopLine(line) || !textutil.HasDateToken(line) {
			continue
		}
		r, ok := textutil.ExtractDateRange(line)
		if !ok {
			continue
		}

		cand := model.NewExperience(model.StrategyDateAnchored, i)
		cand.StartDate, cand.EndDate, cand.Current = r.Start, r.End, r.Current
		cand.SetConfidence(0.5)

		g.fillFromContext(cand, doc, i)
		if cand.Title == "" && cand.Company == "" {
			continue
		}
		out = append(out, cand)
	}
	return out, nil
}

// fillFromContext scans the lines around a date anchor for a title/company
// pair, or failing that a lone role or organization mention.
func (g *Generator) fillFromContext(cand *model.ExperienceCandidate, doc *model.Document, anchor int) {
	start, end := doc.Window(anchor, 3)
	for j := start; j < end; j++ {
		// Context past the cross-column distance belongs to another column
		// or block and must not feed this anchor.
		if !g.guard.CanLink(anchor, j) {
			continue
		}
		ctx := strings.TrimSpace(doc.Line(j))
		if ctx == "" || g.isStopLine(ctx) {
			continue
		}
		ctx = stripLeadingDateTokens(ctx)
		if ctx == "" {
			continue
		}

		if m := reContextPair.FindStringSubmatch(ctx); m != nil {
			if fillPair(cand, m[1], m[2]) {
				return
			}
		}
		if m := reTitleChezOrg.FindStringSubmatch(ctx); m != nil {
			if fillPair(cand, m[reTitleChezOrg.SubexpIndex("title")], m[reTitleChezOrg.SubexpIndex("company")]) {
				return
			}
		}
		if cand.Title == "" && g.lex.HasRoleIndicator(ctx) && !textutil.HasDateToken(ctx) {
			cand.Title = ctx
			continue
		}
		if cand.Company == "" && cand.Title != "" && g.lex.IsOrgName(ctx) && lexicon.IsValidOrgValue(ctx) {
			cand.Company = ctx
		}
	}
}

// fillPair validates and assigns a title/company split, reporting success.
func fillPair(cand *model.ExperienceCandidate, title, company string) bool {
	title = strings.TrimSpace(title)
	company = strings.TrimSpace(company)
	if len(title) < 3 || len(company) < 3 {
		return false
	}
	if reBareDateToken.MatchString(title) || reBareDateToken.MatchString(company) {
		return false
	}
	if !lexicon.IsValidOrgValue(company) {
		return false
	}
	cand.Title, cand.Company = title, company
	return true
}
