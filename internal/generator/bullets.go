package generator

import (
	"regexp"
	"strings"

	"github.com/talentsift/cvgate/internal/model"
	"github.com/talentsift/cvgate/internal/textutil"
)

var reBulletPrefix = regexp.MustCompile(`^\s*[•\-–*▪◦·]\s+`)

// bulletedAction extracts experiences from runs of bulleted lines that carry
// action verbs. The anchor is the nearest preceding non-bullet line, which
// usually names the role; the bullets themselves become the description.
func (g *Generator) bulletedAction(doc *model.Document) ([]model.Candidate, error) {
	var out []model.Candidate

	i := 0
	for i < doc.Len() {
		line := doc.Line(i)
		if !reBulletPrefix.MatchString(line) {
			i++
			continue
		}

		// Collect the contiguous bullet block and count action verbs.
		blockStart := i
		var bullets []string
		actionHits := 0
		for i < doc.Len() && reBulletPrefix.MatchString(doc.Line(i)) {
			body := strings.TrimSpace(reBulletPrefix.ReplaceAllString(doc.Line(i), ""))
			if body != "" {
				bullets = append(bullets, body)
				if len(g.lex.ActionVerbsIn(body)) > 0 {
					actionHits++
				}
			}
			i++
		}
		if actionHits == 0 {
			continue
		}

		anchor, headline := precedingHeadline(doc, blockStart)
		if headline == "" || g.isStopLine(headline) {
			continue
		}

		cand := model.NewExperience(model.StrategyBulletedAction, anchor)
		for j := anchor; j < i; j++ {
			cand.Lines = append(cand.Lines, j)
		}
		cand.Description = strings.Join(bullets, " ")
		cand.HasBulletActions = true
		cand.SetConfidence(0.7)

		fillFromHeadline(cand, headline)
		g.attachContextDates(cand, doc, anchor)
		out = append(out, cand)
	}
	return out, nil
}

// precedingHeadline walks upward from a bullet block to the nearest non-empty
// non-bullet line.
func precedingHeadline(doc *model.Document, blockStart int) (int, string) {
	for j := blockStart - 1; j >= 0 && blockStart-j <= 3; j-- {
		line := strings.TrimSpace(doc.Line(j))
		if line == "" || reBulletPrefix.MatchString(doc.Line(j)) {
			continue
		}
		return j, line
	}
	return blockStart, ""
}

// fillFromHeadline splits a headline into title and company when a separator
// or connector is present, otherwise the whole line becomes the title.
func fillFromHeadline(cand *model.ExperienceCandidate, headline string) {
	working := headline
	if r, ok := textutil.ExtractDateRange(working); ok {
		cand.StartDate, cand.EndDate, cand.Current = r.Start, r.End, r.Current
	}
	working = stripLeadingDateTokens(working)

	if m := reTitleChezOrg.FindStringSubmatch(working); m != nil {
		cand.Title = strings.TrimSpace(m[reTitleChezOrg.SubexpIndex("title")])
		cand.Company = strings.TrimSpace(m[reTitleChezOrg.SubexpIndex("company")])
		return
	}
	if m := reTitleSepCompany.FindStringSubmatch(working); m != nil {
		title := strings.TrimSpace(m[reTitleSepCompany.SubexpIndex("title")])
		company := strings.TrimSpace(m[reTitleSepCompany.SubexpIndex("company")])
		if len(title) >= 3 && len(company) >= 3 {
			cand.Title, cand.Company = title, company
			return
		}
	}
	cand.Title = strings.TrimSpace(working)
}
