// Package rescue is the fallback extractor that runs when the primary
// pipeline yields zero or near-zero results. It re-scans the whole document
// for employment-pattern hits, builds sliding windows around them, and
// extracts with relaxed thresholds. Rescue output always re-enters the
// normal validation stages; nothing here bypasses the gates.
package rescue

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/talentsift/cvgate/internal/config"
	"github.com/talentsift/cvgate/internal/lexicon"
	"github.com/talentsift/cvgate/internal/model"
	"github.com/talentsift/cvgate/internal/textutil"
)

// Trigger identifies why rescue mode activated.
type Trigger string

// Rescue triggers, checked in order.
const (
	TriggerZeroExperiences     Trigger = "zero_experiences_after_phase1"
	TriggerHeaderGuardSuppress Trigger = "header_guard_suppressed"
	TriggerLowExtractionYield  Trigger = "low_extraction_yield"
)

// mergeSimilarityThreshold is the word-overlap ratio above which a rescue
// candidate is considered a duplicate of a phase-1 candidate.
const mergeSimilarityThreshold = 0.5

// maxSuppressedWindows is how many guard suppressions phase 1 may absorb
// before rescue activates.
const maxSuppressedWindows = 2

// minTotalSections is the extraction yield under which rescue activates.
const minTotalSections = 3

// employmentPatterns are the wide-net matchers rescue scans with. Broader
// than the lexicon's closed sets on purpose: rescue trades precision for
// recall and lets revalidation clean up.
var employmentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:développeur|developpeur|developer|ingénieur|ingenieur|engineer|consultant|analyste)\b`),
	regexp.MustCompile(`(?i)\b(?:manager|chef|lead|senior|junior|assistant|coordinator)\b`),
	regexp.MustCompile(`(?i)\b(?:stagiaire|intern|stage|alternance|apprentissage)\b`),
	regexp.MustCompile(`(?i)\b(?:CDI|CDD|freelance|contractuel|intérim|interim)\b`),
	regexp.MustCompile(`(?:chez|at|@)\s+[A-Z][a-zA-Z]+`),
	regexp.MustCompile(`\b[A-Z][a-zA-Z]*\s+(?:SA|SAS|SARL|Inc|Ltd|Corp)\b`),
	regexp.MustCompile(`(?i)\b(?:société|societe|entreprise|company|startup|cabinet)\b`),
	regexp.MustCompile(`(?i)\b(?:responsable|en charge|missions?|tâches|taches|projets?)\b`),
	regexp.MustCompile(`(?i)\b(?:développement|developpement|gestion|coordination|encadrement)\b`),
	regexp.MustCompile(`(?i)\d{4}\s*[-–—]\s*(?:\d{4}|présent|present).*(?:développement|developpement|projet|gestion)`),
	regexp.MustCompile(`(?i)(?:depuis|from|pendant)\s+\d+.*(?:mois|ans|years)`),
}

var (
	reStrongRoleHit = regexp.MustCompile(`(?i)développeur|developpeur|ingénieur|ingenieur|manager`)
	reDateContext   = regexp.MustCompile(`(?i)\d{4}|mois|ans|years|depuis|from|pendant`)
	reOrgContext    = regexp.MustCompile(`(?i)chez|at|@|\bSA\b|SARL|Inc|Ltd|société|societe|company`)
	reActivityCtx   = regexp.MustCompile(`(?i)missions?|tâches|taches|projets?|responsable|en charge|équipe|equipe|team`)

	rescueTitlePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:développeur|developpeur|developer|ingénieur|ingenieur|engineer|consultant|analyste)\s+\w+`),
		regexp.MustCompile(`(?i)\b(?:manager|chef|lead|senior|junior)\s+\w+`),
		regexp.MustCompile(`(?i)\b(?:stagiaire|intern)\s+\w+`),
		regexp.MustCompile(`\b[A-Z][a-zA-Z]+\s+(?i:développeur|developpeur|developer|ingénieur|ingenieur|engineer)`),
	}
	// Organization captures stop at the first non-capitalized word so the
	// match does not swallow the rest of the sentence.
	rescueOrgPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:chez|at|@)\s+([A-Z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*)*)`),
		regexp.MustCompile(`\b([A-Z][a-zA-Z\s]*(?:SA|SAS|SARL|Inc|Ltd|Corp))\b`),
		regexp.MustCompile(`(?i)(?:société|societe|entreprise|company)\s+([A-Z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*)*)`),
	}
)

// PatternHit is one employment-pattern match, one per line at most.
type PatternHit struct {
	Line    int
	Pattern string
}

// Result carries everything one rescue pass produced.
type Result struct {
	Trigger          Trigger
	PatternsFound    int
	WindowsProcessed int
	Candidates       []*model.ExperienceCandidate
	SuccessRate      float64
}

// Engine runs rescue passes. Stateless between documents.
type Engine struct {
	gate config.GateConfig
	lex  *lexicon.Lexicon
}

// New builds a rescue engine over the shared lexicon.
func New(gate config.GateConfig, lex *lexicon.Lexicon) *Engine {
	return &Engine{gate: gate, lex: lex}
}

// ShouldTrigger decides whether rescue mode activates, with the reason.
// Checked in order: no experiences at all, too many guard-suppressed
// windows, then overall extraction yield.
func (e *Engine) ShouldTrigger(experienceCount, suppressedWindows, totalSections int) (bool, Trigger) {
	if experienceCount == 0 {
		zap.L().Warn("rescue: triggering", zap.String("reason", string(TriggerZeroExperiences)))
		return true, TriggerZeroExperiences
	}
	if suppressedWindows > maxSuppressedWindows {
		zap.L().Warn("rescue: triggering",
			zap.String("reason", string(TriggerHeaderGuardSuppress)),
			zap.Int("suppressed_windows", suppressedWindows))
		return true, TriggerHeaderGuardSuppress
	}
	if totalSections < minTotalSections {
		zap.L().Warn("rescue: triggering",
			zap.String("reason", string(TriggerLowExtractionYield)),
			zap.Int("total_sections", totalSections))
		return true, TriggerLowExtractionYield
	}
	return false, ""
}

// Run executes a full rescue pass. A document with no employment-pattern
// hits is a normal empty result, not an error.
func (e *Engine) Run(doc *model.Document, trigger Trigger) Result {
	hits := e.findEmploymentPatterns(doc)
	windows := e.buildWindows(doc, hits)

	res := Result{
		Trigger:          trigger,
		PatternsFound:    len(hits),
		WindowsProcessed: len(windows),
	}
	for _, w := range windows {
		if cand := e.extractFromWindow(doc, w); cand != nil {
			res.Candidates = append(res.Candidates, cand)
		}
	}
	if len(windows) > 0 {
		res.SuccessRate = float64(len(res.Candidates)) / float64(len(windows))
	}

	zap.L().Info("rescue: pass complete",
		zap.String("trigger", string(trigger)),
		zap.Int("patterns_found", res.PatternsFound),
		zap.Int("windows_processed", res.WindowsProcessed),
		zap.Int("candidates", len(res.Candidates)),
		zap.Float64("success_rate", res.SuccessRate))
	return res
}

// Merge folds rescue candidates into the phase-1 set, dropping any rescue
// candidate whose text overlaps an existing one beyond the similarity
// threshold. Phase-1 candidates always win. Overlap is measured on the
// candidates' fields plus their source context, since rescue windows carry
// far more text than a phase-1 record.
func (e *Engine) Merge(doc *model.Document, phase1 []model.Candidate, rescued []*model.ExperienceCandidate) []model.Candidate {
	out := phase1
	added := 0
	for _, r := range rescued {
		dup := false
		for _, existing := range phase1 {
			if textutil.JaccardOverlap(candidateText(r), existingText(doc, existing)) > mergeSimilarityThreshold {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, r)
			added++
		}
	}
	zap.L().Info("rescue: merged with phase 1",
		zap.Int("rescued", len(rescued)),
		zap.Int("added", added))
	return out
}

func (e *Engine) findEmploymentPatterns(doc *model.Document) []PatternHit {
	var hits []PatternHit
	seen := make(map[int]bool)

	for i := 0; i < doc.Len(); i++ {
		line := strings.TrimSpace(doc.Line(i))
		if line == "" || seen[i] {
			continue
		}
		for _, re := range employmentPatterns {
			m := re.FindString(line)
			if m == "" {
				continue
			}
			hits = append(hits, PatternHit{Line: i, Pattern: m})
			seen[i] = true
			break
		}
	}
	return hits
}

// buildWindows turns pattern hits into sliding windows ranked by confidence.
func (e *Engine) buildWindows(doc *model.Document, hits []PatternHit) []model.RescueWindow {
	windows := make([]model.RescueWindow, 0, len(hits))
	for _, h := range hits {
		start, end := doc.Window(h.Line, e.gate.RescueWindowRadius)
		windows = append(windows, model.RescueWindow{
			StartLine:      start,
			EndLine:        end,
			CenterLine:     h.Line,
			TriggerPattern: h.Pattern,
			Confidence:     e.patternConfidence(h, doc),
		})
	}
	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].Confidence > windows[j].Confidence
	})
	return windows
}

// patternConfidence scores one hit: a base of 0.5 plus bonuses for strong
// role terms, date context, organization context, and activity context, and
// a malus for very short lines. Clamped to [0.2, 1.0].
func (e *Engine) patternConfidence(h PatternHit, doc *model.Document) float64 {
	conf := 0.5
	line := strings.ToLower(doc.Line(h.Line))

	if reStrongRoleHit.MatchString(h.Pattern) {
		conf += 0.2
	}
	if reDateContext.MatchString(line) {
		conf += 0.15
	}
	if reOrgContext.MatchString(line) {
		conf += 0.1
	}
	if reActivityCtx.MatchString(line) {
		conf += 0.1
	}
	if len(strings.TrimSpace(line)) < 20 {
		conf -= 0.1
	}

	if conf < 0.2 {
		conf = 0.2
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}

// extractFromWindow reads one window with relaxed patterns. A window with no
// title, organization, or dates carries no structured data and is skipped.
func (e *Engine) extractFromWindow(doc *model.Document, w model.RescueWindow) *model.ExperienceCandidate {
	lines := doc.Lines()[w.StartLine:w.EndLine]

	cand := model.NewExperience(model.StrategyRescueWindow, w.CenterLine)
	cand.Title = extractTitle(lines)
	cand.Company = extractOrganization(lines)
	if r, ok := extractDates(lines); ok {
		cand.StartDate, cand.EndDate, cand.Current = r.Start, r.End, r.Current
	}
	cand.Description = extractDescription(lines)
	cand.SetConfidence(w.Confidence)
	cand.AddFlag("rescue_extracted")

	if cand.Title == "" && cand.Company == "" && cand.StartDate == "" {
		return nil
	}
	return cand
}

func extractTitle(lines []string) string {
	for _, line := range lines {
		if len(strings.TrimSpace(line)) < 5 {
			continue
		}
		for _, re := range rescueTitlePatterns {
			if m := re.FindString(line); m != "" {
				return strings.TrimSpace(m)
			}
		}
	}
	return ""
}

func extractOrganization(lines []string) string {
	for _, line := range lines {
		for _, re := range rescueOrgPatterns {
			if m := re.FindStringSubmatch(line); m != nil {
				org := strings.TrimSpace(m[1])
				if len(org) >= 3 && lexicon.IsValidOrgValue(org) {
					return org
				}
			}
		}
	}
	return ""
}

func extractDates(lines []string) (textutil.DateRange, bool) {
	for _, line := range lines {
		if r, ok := textutil.ExtractDateRange(line); ok {
			return r, true
		}
	}
	return textutil.DateRange{}, false
}

// extractDescription keeps up to three substantial lines from the window.
func extractDescription(lines []string) string {
	var kept []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 10 {
			kept = append(kept, trimmed)
		}
		if len(kept) == 3 {
			break
		}
	}
	return strings.Join(kept, " ")
}

func candidateText(c *model.ExperienceCandidate) string {
	return strings.Join([]string{c.Title, c.Company, c.Description}, " ")
}

// existingText assembles a phase-1 candidate's comparable text: its fields
// plus two lines of source context on each side.
func existingText(doc *model.Document, c model.Candidate) string {
	parts := []string{c.Headline(), c.Org()}
	if exp, ok := c.(*model.ExperienceCandidate); ok {
		parts = append(parts, exp.Description)
	}
	start, end := doc.Window(c.Meta().SourceLine, 2)
	for i := start; i < end; i++ {
		parts = append(parts, doc.Line(i))
	}
	return strings.Join(parts, " ")
}
