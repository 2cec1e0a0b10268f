package generator

import (
	"regexp"
	"strings"

	"github.com/talentsift/cvgate/internal/lexicon"
	"github.com/talentsift/cvgate/internal/model"
	"github.com/talentsift/cvgate/internal/textutil"
)

// Inline-separator recognizers, compiled once.
var (
	reDateRangePrefix = regexp.MustCompile(`(?i)^\s*(?P<start>(?:\d{1,2}[/.]\d{1,2}[/.]\d{2,4})|\d{4})\s*[-–—]\s*(?P<end>(?:\d{1,2}[/.]\d{1,2}[/.]\d{2,4})|\d{4}|(?:à|a)?\s*(?:ce\s*jour|aujourd'hui|présent|present|en\s*cours))`)
	reLeadingDateTok  = regexp.MustCompile(`(?i)^(?:(?:\d{1,2}[/.]\d{1,2}[/.]\d{2,4})|\d{4}|présent|present|en cours|en-cours|à ce jour|a ce jour|ce jour|aujourd'hui)\b`)
	reBareDateToken   = regexp.MustCompile(`(?i)^(?:\d{1,2}[/.]\d{1,2}[/.]\d{2,4}|\d{4})$`)

	reTitleSepCompany = regexp.MustCompile(`(?P<title>[^@|]{2,120})\s*[@\-–—|]\s*(?P<company>[^@|]{2,160})`)
	reTitleChezOrg    = regexp.MustCompile(`(?i)(?P<title>.+?)\s+(?:chez|at)\s+(?P<company>.+)`)
)

var currentStatusTokens = map[string]struct{}{
	"present": {}, "en cours": {}, "en-cours": {}, "ce jour": {},
	"a ce jour": {}, "aujourd hui": {},
}

func isCurrentToken(tok string) bool {
	_, ok := currentStatusTokens[textutil.NormalizeForMatching(tok)]
	return ok
}

func toLowerFold(s string) string { return textutil.NormalizeForMatching(s) }

func containsWordish(folded, word string) bool {
	return folded == word ||
		strings.HasPrefix(folded, word+" ") ||
		strings.HasSuffix(folded, " "+word) ||
		strings.Contains(folded, " "+word+" ")
}

func hasDateToken(line string) bool { return textutil.HasDateToken(line) }

// stripLeadingDateTokens removes date and current-status tokens from the
// start of a field value, returning the cleaned value.
func stripLeadingDateTokens(value string) string {
	working := strings.TrimSpace(value)
	for working != "" {
		loc := reLeadingDateTok.FindStringIndex(working)
		if loc == nil {
			break
		}
		working = strings.TrimLeft(working[loc[1]:], " -–—|•,;")
	}
	return working
}

// inlineSeparator extracts title/organization pairs joined by a separator
// ("Développeur - Capgemini", "Lead @ Acme") or a connector ("Développeur
// chez Capgemini"). A leading date range becomes the candidate's dates.
func (g *Generator) inlineSeparator(doc *model.Document) ([]model.Candidate, error) {
	var out []model.Candidate

	for i := 0; i < doc.Len(); i++ {
		raw := strings.TrimSpace(doc.Line(i))
		if raw == "" || g.isStopLine(raw) {
			continue
		}

		working := raw
		var prefix textutil.DateRange
		hasPrefix := false
		if m := reDateRangePrefix.FindStringSubmatch(working); m != nil {
			start := strings.TrimSpace(m[reDateRangePrefix.SubexpIndex("start")])
			end := strings.TrimSpace(m[reDateRangePrefix.SubexpIndex("end")])
			prefix = textutil.DateRange{Start: start, End: end}
			if isCurrentToken(end) {
				prefix.End = ""
				prefix.Current = true
			}
			hasPrefix = true
			working = strings.TrimLeft(working[len(m[0]):], " -–—|•")
		}
		if working == "" {
			continue
		}

		var cand *model.ExperienceCandidate
		if m := reTitleSepCompany.FindStringSubmatch(working); m != nil {
			cand = g.buildInline(m[reTitleSepCompany.SubexpIndex("title")],
				m[reTitleSepCompany.SubexpIndex("company")], i, 0.8)
		}
		if cand == nil {
			if m := reTitleChezOrg.FindStringSubmatch(working); m != nil {
				cand = g.buildInline(m[reTitleChezOrg.SubexpIndex("title")],
					m[reTitleChezOrg.SubexpIndex("company")], i, 0.8)
			}
		}
		// Reversed orientation ("Capgemini - Développeur") as a weaker read
		// when the forward one failed validation.
		if cand == nil {
			if m := reTitleSepCompany.FindStringSubmatch(working); m != nil {
				cand = g.buildInline(m[reTitleSepCompany.SubexpIndex("company")],
					m[reTitleSepCompany.SubexpIndex("title")], i, 0.75)
			}
		}
		if cand == nil {
			continue
		}

		if hasPrefix {
			cand.StartDate, cand.EndDate, cand.Current = prefix.Start, prefix.End, prefix.Current
		} else {
			g.attachContextDates(cand, doc, i)
		}
		out = append(out, cand)
	}
	return out, nil
}

// buildInline validates both halves of an inline match and assembles the
// candidate, or returns nil when the pair is unusable.
func (g *Generator) buildInline(title, company string, line int, confidence float64) *model.ExperienceCandidate {
	title = strings.Trim(stripLeadingDateTokens(title), " -–—|•")
	company = strings.Trim(stripLeadingDateTokens(company), " -–—|•")

	if len(title) < 3 || len(company) < 3 {
		return nil
	}
	if reBareDateToken.MatchString(title) || reBareDateToken.MatchString(company) {
		return nil
	}
	if lexicon.LooksLikeEmail(title) || lexicon.LooksLikeEmail(company) ||
		lexicon.LooksLikeURLOrDomain(title) || lexicon.LooksLikeURLOrDomain(company) ||
		lexicon.LooksLikeLanguageCertificate(title) || lexicon.LooksLikeLanguageCertificate(company) {
		return nil
	}
	if !lexicon.IsValidOrgValue(company) {
		return nil
	}

	cand := model.NewExperience(model.StrategyInlineSeparator, line)
	cand.Title = title
	cand.Company = company
	cand.SetConfidence(confidence)
	return cand
}

// attachContextDates pulls a date range from the candidate's line or, when
// absent, from the surrounding context.
func (g *Generator) attachContextDates(cand *model.ExperienceCandidate, doc *model.Document, anchor int) {
	if r, ok := textutil.ExtractDateRange(doc.Line(anchor)); ok {
		cand.StartDate, cand.EndDate, cand.Current = r.Start, r.End, r.Current
		return
	}
	start, end := doc.Window(anchor, 2)
	if anchor+3 < doc.Len() {
		end = anchor + 3
	}
	var ctx []string
	for i := start; i < end; i++ {
		ctx = append(ctx, doc.Line(i))
	}
	if r, ok := textutil.ExtractDateRange(strings.Join(ctx, " ")); ok {
		cand.StartDate, cand.EndDate, cand.Current = r.Start, r.End, r.Current
	}
}
