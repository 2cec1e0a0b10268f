package sieve

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/talentsift/cvgate/internal/config"
	"github.com/talentsift/cvgate/internal/lexicon"
	"github.com/talentsift/cvgate/internal/model"
)

// Inline organization recognizers for rebinding, compiled once.
var orgMentionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:chez|at)\s+([^,\n]{3,50})`),
	regexp.MustCompile(`(?i)([^,\n]{3,50})\s+(?:company|corp|inc|ltd|sarl|sas)\b`),
	regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s*[-–]\s*(?:company|corp)`),
}

// OrgMention is one organization occurrence found near a candidate.
type OrgMention struct {
	Name               string  `json:"org_name"`
	Line               int     `json:"line_index"`
	Distance           int     `json:"distance"`
	Source             string  `json:"source"`
	Confidence         float64 `json:"confidence"`
	IsSchool           bool    `json:"is_school"`
	EmploymentOverride bool    `json:"employment_override,omitempty"`
	EmploymentScore    float64 `json:"employment_score,omitempty"`
}

// RebindResult reports a rebinding attempt. Failure is a normal outcome, not
// an error; Reason carries why.
type RebindResult struct {
	Success         bool    `json:"success"`
	Reason          string  `json:"reason"`
	OriginalOrg     string  `json:"original_org"`
	NewOrg          string  `json:"new_org,omitempty"`
	Distance        int     `json:"distance,omitempty"`
	EmploymentScore float64 `json:"employment_score,omitempty"`
}

// DemoteResult reports the school-demotion decision for one candidate.
type DemoteResult struct {
	ShouldDemote    bool     `json:"should_demote"`
	Reason          string   `json:"reason"`
	IsSchool        bool     `json:"is_school"`
	Indicators      []string `json:"school_indicators,omitempty"`
	EmploymentScore float64  `json:"employment_score,omitempty"`
}

// Sieve is the organization reclassification stage: school detection,
// employment override, demotion and rebinding.
type Sieve struct {
	gate   config.GateConfig
	lex    *lexicon.Lexicon
	scorer *EmploymentScorer

	rebindAttempts  int
	rebindSuccesses int
}

// New builds a sieve bound to the configured rebind window and employment
// threshold.
func New(gate config.GateConfig, lex *lexicon.Lexicon) *Sieve {
	return &Sieve{gate: gate, lex: lex, scorer: NewEmploymentScorer(gate, lex)}
}

// Scorer exposes the employment scorer for stages that share it.
func (s *Sieve) Scorer() *EmploymentScorer { return s.scorer }

// RebindStats returns attempt/success counters for the metrics reporter.
func (s *Sieve) RebindStats() (attempts, successes int) {
	return s.rebindAttempts, s.rebindSuccesses
}

// FindNearestValidOrg searches the rebind window around the anchor for the
// closest organization mention that is not a school. A school-lexicon match
// survives only with employment-keyword support at its line (the employment
// override).
func (s *Sieve) FindNearestValidOrg(doc *model.Document, anchor int, hints []model.EntityHint) (OrgMention, bool) {
	maxDistance := s.gate.OrgRebindWindow
	start, end := doc.Window(anchor, maxDistance)

	var candidates []OrgMention
	for i := start; i < end; i++ {
		line := doc.Line(i)
		for _, re := range orgMentionPatterns {
			for _, m := range re.FindAllStringSubmatch(line, -1) {
				name := strings.TrimSpace(m[1])
				if len(name) < 3 || !lexicon.IsValidOrgValue(name) {
					continue
				}
				candidates = append(candidates, OrgMention{
					Name:       name,
					Line:       i,
					Distance:   abs(i - anchor),
					Source:     "pattern",
					Confidence: 0.5,
				})
			}
		}
	}

	for _, h := range hints {
		if !h.IsOrg() || h.Text == "" {
			continue
		}
		distance := abs(h.Line - anchor)
		if distance > maxDistance {
			continue
		}
		conf := h.Confidence
		if conf == 0 {
			conf = 0.5
		}
		candidates = append(candidates, OrgMention{
			Name:       strings.TrimSpace(h.Text),
			Line:       h.Line,
			Distance:   distance,
			Source:     "ner",
			Confidence: conf,
		})
	}

	var valid []OrgMention
	for _, cand := range candidates {
		isSchool, _ := s.lex.IsSchool(cand.Name)
		if !isSchool {
			valid = append(valid, cand)
			continue
		}
		// Employment override: strong work context keeps a school-named org
		// as an employer.
		score := s.scorer.Score(doc, cand.Line)
		if score.Score >= s.gate.EmploymentScoreThreshold {
			cand.IsSchool = true
			cand.EmploymentOverride = true
			cand.EmploymentScore = score.Score
			valid = append(valid, cand)
			zap.L().Info("sieve: employment override",
				zap.String("org", cand.Name),
				zap.Float64("employment_score", score.Score))
		}
	}

	if len(valid) == 0 {
		return OrgMention{}, false
	}
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Distance != valid[j].Distance {
			return valid[i].Distance < valid[j].Distance
		}
		return valid[i].Confidence > valid[j].Confidence
	})
	best := valid[0]
	zap.L().Debug("sieve: nearest valid org",
		zap.String("org", best.Name),
		zap.Int("distance", best.Distance),
		zap.String("source", best.Source))
	return best, true
}

// Rebind attaches the nearest valid organization to a candidate that lacks
// one. The attempt is recorded either way.
func (s *Sieve) Rebind(cand *model.ExperienceCandidate, doc *model.Document, hints []model.EntityHint) RebindResult {
	s.rebindAttempts++
	original := cand.Company

	mention, ok := s.FindNearestValidOrg(doc, cand.SourceLine, hints)
	if !ok {
		return RebindResult{Reason: "no_alternative_found", OriginalOrg: original}
	}

	score := s.scorer.Score(doc, mention.Line)
	if score.Score < s.gate.EmploymentScoreThreshold && mention.IsSchool {
		return RebindResult{
			Reason:          "failed_employment_validation",
			OriginalOrg:     original,
			NewOrg:          mention.Name,
			EmploymentScore: score.Score,
		}
	}

	cand.Company = mention.Name
	cand.AddFlag("org_rebound")
	s.rebindSuccesses++

	zap.L().Info("sieve: rebind success",
		zap.String("original", original),
		zap.String("new", mention.Name),
		zap.Int("distance", mention.Distance))

	return RebindResult{
		Success:         true,
		Reason:          "rebind_successful",
		OriginalOrg:     original,
		NewOrg:          mention.Name,
		Distance:        mention.Distance,
		EmploymentScore: score.Score,
	}
}

// ShouldDemoteForSchoolOrg decides whether a candidate carrying a
// school-lexicon organization belongs in education: the organization reads
// as a school and the employment context around the candidate is weak.
func (s *Sieve) ShouldDemoteForSchoolOrg(cand *model.ExperienceCandidate, doc *model.Document) DemoteResult {
	if cand.Company == "" {
		return DemoteResult{Reason: "no_company"}
	}

	isSchool, indicators := s.lex.IsSchool(cand.Company)
	if !isSchool {
		return DemoteResult{Reason: "not_school_org"}
	}

	score := s.scorer.Score(doc, cand.SourceLine)
	demote := score.Score < s.gate.EmploymentScoreThreshold

	reason := "school_org_high_employment_score"
	if demote {
		reason = "school_org_low_employment_score"
	}
	zap.L().Info("sieve: school demotion evaluated",
		zap.String("company", cand.Company),
		zap.Float64("employment_score", score.Score),
		zap.Bool("should_demote", demote))

	return DemoteResult{
		ShouldDemote:    demote,
		Reason:          reason,
		IsSchool:        true,
		Indicators:      indicators,
		EmploymentScore: score.Score,
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
