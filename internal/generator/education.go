package generator

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/talentsift/cvgate/internal/lexicon"
	"github.com/talentsift/cvgate/internal/model"
	"github.com/talentsift/cvgate/internal/textutil"
)

var (
	reDegreeInstitution = regexp.MustCompile(`^(?P<degree>[^-–—:]{3,100})\s*[-–—]\s*(?P<school>.{3,120})$`)
	reInstitutionDegree = regexp.MustCompile(`^(?P<school>[^:]{3,120})\s*:\s*(?P<degree>.{3,100})$`)

	// Lines that never describe a diploma, whatever else they match.
	eduGarbageTokens = []string{
		"telephone", "portable", "adresse", "permis", "vehicule",
		"disponible", "mobilite", "references sur demande",
	}
)

const (
	confDegreeInstitution = 0.7
	confHeuristicDegree   = 0.6
	confHeuristicSchool   = 0.4
	confFullLineDegree    = 0.25
	confSingleWordDegree  = 0.2
	minEduConfidence      = 0.25
)

// educationSection extracts education candidates from the education region of
// the document. Extraction is two-pass: the strict pass requires the minimum
// confidence, and when it keeps almost nothing relative to the region size a
// relaxed pass re-reads the region accepting weaker heuristic matches. The
// returned ints are the item counts each pass kept (second is zero when the
// relaxed pass did not run).
func (g *Generator) educationSection(doc *model.Document, bounds model.SectionBounds) ([]model.Candidate, int, int, error) {
	start, end := g.educationRegion(doc, bounds)
	if start >= end {
		return nil, 0, 0, nil
	}

	cands, scanned := g.scanEducation(doc, start, end, minEduConfidence)
	pass1, pass2 := len(cands), 0
	if scanned > 0 {
		keepRate := float64(pass1) / float64(scanned)
		if keepRate < g.gate.EduKeepRateSecondPass {
			zap.L().Debug("generator: education keep rate below relaxed-pass trigger",
				zap.Float64("keep_rate", keepRate))
			cands, _ = g.scanEducation(doc, start, end, confSingleWordDegree)
			pass2 = len(cands)
		}
	}

	// Volume cap keeps a pathological region from flooding the pipeline.
	regionLines := end - start
	limit := g.gate.EduItemsPer100Lines * (regionLines + 99) / 100
	if limit > 0 && len(cands) > limit {
		cands = cands[:limit]
	}

	out := make([]model.Candidate, 0, len(cands))
	for _, c := range cands {
		out = append(out, c)
	}
	return out, pass1, pass2, nil
}

// educationRegion resolves the line range to scan: the detected bounds when
// present, otherwise everything under the first education header.
func (g *Generator) educationRegion(doc *model.Document, bounds model.SectionBounds) (int, int) {
	if r, ok := bounds["education"]; ok {
		end := r.End
		if end > doc.Len() {
			end = doc.Len()
		}
		return r.Start, end
	}
	for i := 0; i < doc.Len(); i++ {
		if _, ok := g.lex.EducationHeaderIn(doc.Line(i)); ok {
			return i + 1, doc.Len()
		}
	}
	return 0, 0
}

// scanEducation reads one pass over the region, returning the accepted
// candidates and the number of non-blank lines examined.
func (g *Generator) scanEducation(doc *model.Document, start, end int, minConfidence float64) ([]*model.EducationCandidate, int) {
	var out []*model.EducationCandidate
	scanned := 0

	for i := start; i < end; i++ {
		line := strings.TrimSpace(doc.Line(i))
		if line == "" {
			continue
		}
		scanned++
		if g.isEduGarbage(line) {
			continue
		}

		cand := g.readEducationLine(line, i)
		if cand == nil || cand.Confidence < minConfidence {
			continue
		}
		if r, ok := textutil.ExtractDateRange(line); ok {
			cand.StartDate, cand.EndDate = r.Start, r.End
		}
		if y := textutil.YearOf(line); y > 0 {
			cand.GraduationYear = y
		} else if i+1 < end {
			// A date-only line right under the diploma carries its year.
			next := strings.TrimSpace(doc.Line(i + 1))
			if next != "" && stripLeadingDateTokens(next) == "" {
				cand.GraduationYear = textutil.YearOf(next)
			}
		}
		out = append(out, cand)
	}
	return out, scanned
}

// readEducationLine applies the per-line patterns in decreasing confidence
// order and returns the best read, or nil when the line carries nothing
// diploma-shaped.
func (g *Generator) readEducationLine(line string, lineNo int) *model.EducationCandidate {
	working := stripLeadingDateTokens(line)
	if working == "" {
		return nil
	}

	if m := reDegreeInstitution.FindStringSubmatch(working); m != nil {
		degree := strings.TrimSpace(m[reDegreeInstitution.SubexpIndex("degree")])
		school := strings.TrimSpace(m[reDegreeInstitution.SubexpIndex("school")])
		if lexicon.HasDegreeToken(degree) {
			cand := model.NewEducation(model.StrategySectionBlock, lineNo)
			cand.Degree, cand.School = degree, school
			cand.SetConfidence(confDegreeInstitution)
			return cand
		}
		// Heuristic halves: one side reads as a school even though the other
		// names no known diploma level.
		if isSchool, _ := g.lex.IsSchool(school); isSchool {
			cand := model.NewEducation(model.StrategySectionBlock, lineNo)
			cand.Degree, cand.School = degree, school
			cand.SetConfidence(confHeuristicDegree)
			return cand
		}
		if isSchool, _ := g.lex.IsSchool(degree); isSchool {
			cand := model.NewEducation(model.StrategySectionBlock, lineNo)
			cand.Degree, cand.School = school, degree
			cand.SetConfidence(confHeuristicSchool)
			return cand
		}
	}

	if m := reInstitutionDegree.FindStringSubmatch(working); m != nil {
		school := strings.TrimSpace(m[reInstitutionDegree.SubexpIndex("school")])
		degree := strings.TrimSpace(m[reInstitutionDegree.SubexpIndex("degree")])
		isSchool, _ := g.lex.IsSchool(school)
		if lexicon.HasDegreeToken(degree) || isSchool {
			cand := model.NewEducation(model.StrategySectionBlock, lineNo)
			cand.Degree, cand.School = degree, school
			cand.SetConfidence(confDegreeInstitution)
			return cand
		}
	}

	if lexicon.HasDegreeToken(working) {
		cand := model.NewEducation(model.StrategySectionBlock, lineNo)
		cand.Degree = working
		if len(strings.Fields(working)) == 1 {
			cand.SetConfidence(confSingleWordDegree)
		} else {
			cand.SetConfidence(confFullLineDegree)
		}
		return cand
	}

	if isSchool, _ := g.lex.IsSchool(working); isSchool {
		cand := model.NewEducation(model.StrategySectionBlock, lineNo)
		cand.School = working
		cand.SetConfidence(confHeuristicSchool)
		return cand
	}
	return nil
}

func (g *Generator) isEduGarbage(line string) bool {
	folded := textutil.NormalizeForMatching(line)
	for _, tok := range eduGarbageTokens {
		if strings.Contains(folded, tok) {
			return true
		}
	}
	return lexicon.IsContactLine(line)
}
