// Package pipeline orchestrates one extraction run: candidate generation,
// validation, sieving, quality assessment, diversity enforcement,
// deduplication, and rescue. All per-run state is owned by the run; nothing
// is shared between documents, so one Pipeline serves concurrent runs.
package pipeline

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talentsift/cvgate/internal/config"
	"github.com/talentsift/cvgate/internal/dedup"
	"github.com/talentsift/cvgate/internal/diversity"
	"github.com/talentsift/cvgate/internal/generator"
	"github.com/talentsift/cvgate/internal/lexicon"
	"github.com/talentsift/cvgate/internal/metrics"
	"github.com/talentsift/cvgate/internal/model"
	"github.com/talentsift/cvgate/internal/quality"
	"github.com/talentsift/cvgate/internal/rescue"
	"github.com/talentsift/cvgate/internal/sieve"
	"github.com/talentsift/cvgate/internal/validate"
)

// Result is the outcome of one document run. A failed run reports its error
// here; Run never returns a Go error for per-document problems, so a batch
// survives its worst documents.
type Result struct {
	RunID       string
	DocumentID  string
	Success     bool
	Error       string
	Experiences []*model.ExperienceCandidate
	Education   []*model.EducationCandidate
	Snapshot    metrics.Snapshot
	StartedAt   time.Time
	FinishedAt  time.Time
}

// RunResult converts the outcome into the persistable summary.
func (r Result) RunResult() model.RunResult {
	return model.RunResult{
		Accepted:        r.Snapshot.Accepted,
		ExperienceCount: len(r.Experiences),
		EducationCount:  len(r.Education),
		DiversityScore:  r.Snapshot.PatternDiversity,
		RescueTriggered: r.Snapshot.RescueTriggered,
		Error:           r.Error,
	}
}

// Pipeline wires the gating stages together. The lexicon is compiled once
// and shared read-only by every stage.
type Pipeline struct {
	gate      config.GateConfig
	lex       *lexicon.Lexicon
	generator *generator.Generator
	validator *validate.TriSignalValidator
	guard     *validate.BoundaryGuard
	assessor  *quality.Assessor
	monitor   *diversity.Monitor
	rescuer   *rescue.Engine
}

// New builds a pipeline from the gate configuration.
func New(gate config.GateConfig) *Pipeline {
	lex := lexicon.New()
	return &Pipeline{
		gate:      gate,
		lex:       lex,
		generator: generator.New(gate, lex),
		validator: validate.NewTriSignalValidator(gate, lex),
		guard:     validate.NewBoundaryGuard(gate, lex),
		assessor:  quality.New(gate, lex),
		monitor:   diversity.New(gate),
		rescuer:   rescue.New(gate, lex),
	}
}

// runState is the per-document mutable state: the dedup key space, the
// per-run sieve (it carries rebind counters), and the suppression tallies.
type runState struct {
	doc      *model.Document
	bounds   model.SectionBounds
	hints    []model.EntityHint
	reporter *metrics.Reporter
	sieve    *sieve.Sieve
	keys     *dedup.KeySpace

	attempts   int
	suppressed int
	eduSeen    int
	eduKept    int
	eduPass1   int
	eduPass2   int
}

// Run executes the full gated extraction for one document.
func (p *Pipeline) Run(documentID string, lines []string, hints []model.EntityHint, bounds model.SectionBounds) Result {
	res := Result{
		RunID:      uuid.NewString(),
		DocumentID: documentID,
		StartedAt:  time.Now(),
	}

	doc, err := model.NewDocument(lines)
	if err != nil {
		res.Error = err.Error()
		res.FinishedAt = time.Now()
		zap.L().Error("pipeline: document rejected",
			zap.String("document_id", documentID),
			zap.Error(err))
		return res
	}

	st := &runState{
		doc:      doc,
		bounds:   bounds,
		hints:    hints,
		reporter: metrics.NewReporter(documentID),
		sieve:    sieve.New(p.gate, p.lex),
		keys:     dedup.NewKeySpace(),
	}

	// Phase 1: generate, then gate every candidate.
	gen := p.generator.Generate(doc, bounds, hints)
	st.eduPass1, st.eduPass2 = gen.EducationPass1, gen.EducationPass2
	for _, w := range gen.Warnings {
		st.reporter.RecordDegraded(w)
	}
	kept := p.gateCandidates(st, gen.Candidates, p.gate.TriSignalMinSignals, p.gate.TriSignalRequireDate)

	// Diversity enforcement, then dedup against the run's key space.
	kept = p.enforceDiversity(st, kept, doc)
	kept = dedup.Dedup(kept, st.keys)

	// Rescue when phase 1 came back empty or nearly so.
	expCount, eduCount := countKinds(kept)
	if ok, trigger := p.rescuer.ShouldTrigger(expCount, st.suppressed, expCount+eduCount); ok {
		kept = p.runRescue(st, kept, trigger)
	}

	res.Experiences, res.Education = splitByTarget(kept)
	p.finishMetrics(st, res.Experiences, res.Education)
	res.Snapshot = st.reporter.Snapshot()
	res.Success = true
	res.FinishedAt = time.Now()

	zap.L().Info("pipeline: run complete",
		zap.String("run_id", res.RunID),
		zap.String("document_id", documentID),
		zap.Int("experiences", len(res.Experiences)),
		zap.Int("education", len(res.Education)),
		zap.Bool("accepted", res.Snapshot.Accepted))
	return res
}

// gateCandidates runs boundary guard, tri-signal validation, organization
// sieve, and quality assessment over one batch. Education candidates skip
// the experience gates but must pass the minimum-content rule.
func (p *Pipeline) gateCandidates(st *runState, cands []model.Candidate, minSignals int, requireDate bool) []model.Candidate {
	var kept []model.Candidate
	for _, c := range cands {
		switch cand := c.(type) {
		case *model.ExperienceCandidate:
			if p.gateExperience(st, cand, minSignals, requireDate) {
				kept = append(kept, cand)
			}
		case *model.EducationCandidate:
			st.eduSeen++
			if ok, reason := p.assessor.AcceptEducation(cand); !ok {
				zap.L().Debug("pipeline: education candidate rejected",
					zap.Int("line", cand.SourceLine),
					zap.String("reason", reason))
				continue
			}
			st.eduKept++
			kept = append(kept, cand)
		}
	}
	return kept
}

func (p *Pipeline) gateExperience(st *runState, cand *model.ExperienceCandidate, minSignals int, requireDate bool) bool {
	st.reporter.RecordAttempt()
	st.attempts++

	// An experience anchored inside the education region crosses a section
	// boundary and is suppressed outright.
	if r, ok := st.bounds["education"]; ok && r.Contains(cand.SourceLine) {
		st.reporter.RecordBoundaryTermination()
		st.suppressed++
		return false
	}

	// Boundary guard: an education header anywhere inside the kill radius, a
	// timeline block over the validation window, or a cross-column link kills
	// the candidate outright.
	winStart, winEnd := st.doc.Window(cand.SourceLine, p.gate.TriSignalWindow)
	if terminate, reasons := p.guard.ShouldTerminate(st.doc, winStart, winEnd, cand.SourceLine); terminate {
		for _, reason := range reasons {
			switch {
			case strings.HasPrefix(reason, "header_conflict"):
				st.reporter.RecordHeaderConflict()
			case strings.HasPrefix(reason, "timeline_block"):
				st.reporter.RecordTimelineBlock()
			}
		}
		st.reporter.RecordBoundaryTermination()
		st.suppressed++
		return false
	}

	tri := p.validator.ValidateWith(st.doc, cand.SourceLine, st.hints,
		p.gate.TriSignalWindow, minSignals, requireDate)
	st.reporter.RecordTriSignal(tri.Passes)
	if !tri.Passes {
		return false
	}

	// Organization sieve: rebind a missing org, then check for a school
	// organization masquerading as an employer.
	if cand.Company == "" {
		rebind := st.sieve.Rebind(cand, st.doc, st.hints)
		st.reporter.RecordRebind(rebind.Success)
	}
	if demote := st.sieve.ShouldDemoteForSchoolOrg(cand, st.doc); demote.ShouldDemote {
		cand.Target = model.KindEducation
		cand.AddFlag("demoted_to_education")
		st.reporter.RecordDemotion(true, []string{demote.Reason})
		return p.demotedHasEducationContent(cand)
	}

	// Quality assessment and the demotion vote.
	assessment := p.assessor.AssessExperience(cand, st.doc)
	p.assessor.Apply(cand, assessment)
	if assessment.ShouldDemote {
		st.reporter.RecordDemotion(true, assessment.Reasons)
		return p.demotedHasEducationContent(cand)
	}
	if assessment.ConfidencePenalty > 0 {
		st.reporter.RecordDemotion(false, assessment.Reasons)
	}

	if !cand.Valid() {
		return false
	}
	if !p.assessor.MeetsDescriptionGate(cand) {
		cand.AddFlag("thin_description")
	}
	if cand.Confidence < p.gate.ExpGateMin {
		cand.AddFlag("uncertain")
	}
	return true
}

// demotedHasEducationContent applies the education minimum-content rule to a
// demoted experience: a demotion carrying no diploma-shaped content is
// dropped, not moved.
func (p *Pipeline) demotedHasEducationContent(cand *model.ExperienceCandidate) bool {
	probe := &model.EducationCandidate{Degree: cand.Title, School: cand.Company}
	ok, _ := p.assessor.AcceptEducation(probe)
	return ok
}

// enforceDiversity applies the pattern-diversity gate to the batch.
func (p *Pipeline) enforceDiversity(st *runState, kept []model.Candidate, doc *model.Document) []model.Candidate {
	snap := p.monitor.Snapshot(kept)
	anchorCount := p.generator.DateAnchorCount(doc)
	enforcement := p.monitor.Enforce(snap.Score, anchorCount)
	st.reporter.ObserveEnforcement(snap, enforcement)

	switch enforcement.Action {
	case model.ActionHardBlock:
		// Only candidates anchored to an explicit date survive a hard block.
		var surviving []model.Candidate
		for _, c := range kept {
			if start, _ := c.Dates(); start != "" {
				surviving = append(surviving, c)
			}
		}
		zap.L().Warn("pipeline: diversity hard block applied",
			zap.Int("before", len(kept)),
			zap.Int("after", len(surviving)))
		return surviving
	case model.ActionCapMerges:
		return capFallbackMerges(kept, enforcement.MaxMergesAllowed)
	default:
		return kept
	}
}

// capFallbackMerges keeps at most budget date-anchored fallback candidates,
// dropping the lowest-confidence ones beyond it. Other strategies are
// untouched.
func capFallbackMerges(kept []model.Candidate, budget int) []model.Candidate {
	var fallback []model.Candidate
	for _, c := range kept {
		if c.Meta().Strategy == model.StrategyDateAnchored {
			fallback = append(fallback, c)
		}
	}
	if len(fallback) <= budget {
		return kept
	}

	drop := make(map[model.Candidate]bool)
	for len(fallback) > budget {
		weakest := 0
		for i, c := range fallback {
			if c.Meta().Confidence < fallback[weakest].Meta().Confidence {
				weakest = i
			}
		}
		drop[fallback[weakest]] = true
		fallback = append(fallback[:weakest], fallback[weakest+1:]...)
	}

	out := make([]model.Candidate, 0, len(kept)-len(drop))
	for _, c := range kept {
		if !drop[c] {
			out = append(out, c)
		}
	}
	zap.L().Info("pipeline: fallback merges capped",
		zap.Int("budget", budget),
		zap.Int("dropped", len(drop)))
	return out
}

// runRescue executes the rescue pass and folds its survivors into the batch.
// Rescue candidates go through the same gates with the relaxed signal
// minimum, then only the NEW candidates are checked against the run's key
// space; phase-1 keys are already registered and must not evict their own
// candidates.
func (p *Pipeline) runRescue(st *runState, kept []model.Candidate, trigger rescue.Trigger) []model.Candidate {
	rr := p.rescuer.Run(st.doc, trigger)

	asCandidates := make([]model.Candidate, 0, len(rr.Candidates))
	for _, c := range rr.Candidates {
		asCandidates = append(asCandidates, c)
	}
	// Relaxed revalidation: one signal suffices and the date requirement is
	// lifted, since rescue exists for documents whose dates did not parse.
	gated := p.gateCandidates(st, asCandidates, p.gate.RescueRelaxedMinSignals, false)

	var survivors []*model.ExperienceCandidate
	for _, c := range gated {
		if exp, ok := c.(*model.ExperienceCandidate); ok {
			survivors = append(survivors, exp)
		}
	}

	merged := p.rescuer.Merge(st.doc, kept, survivors)
	fresh := dedup.Dedup(merged[len(kept):], st.keys)
	final := append(kept, fresh...)

	st.reporter.SetRescue(string(trigger), len(fresh))
	return final
}

// finishMetrics records the final counters once the batch is assembled.
// Boundary quality is the share of candidate windows that survived the
// guards.
func (p *Pipeline) finishMetrics(st *runState, exps []*model.ExperienceCandidate, edus []*model.EducationCandidate) {
	boundaryQuality := 1.0
	if st.attempts > 0 {
		boundaryQuality = 1 - float64(st.suppressed)/float64(st.attempts)
	}
	st.reporter.SetSectionMetrics(p.sectionCount(st.doc, st.bounds), len(st.bounds), boundaryQuality)

	keepRate := 0.0
	if st.eduSeen > 0 {
		keepRate = float64(st.eduKept) / float64(st.eduSeen)
	}
	st.reporter.SetEducationMetrics(st.eduPass1, st.eduPass2, len(edus), keepRate)
	st.reporter.SetExperienceFinal(len(exps))
}

// sectionCount estimates how many logical sections the document has: the
// provided bounds when present, otherwise one experience region plus any
// education headers found.
func (p *Pipeline) sectionCount(doc *model.Document, bounds model.SectionBounds) int {
	if len(bounds) > 0 {
		return len(bounds)
	}
	count := 1
	for i := 0; i < doc.Len(); i++ {
		if _, ok := p.lex.EducationHeaderIn(doc.Line(i)); ok {
			count++
		}
	}
	return count
}

func countKinds(cands []model.Candidate) (exp, edu int) {
	for _, c := range cands {
		if c.Meta().Target == model.KindExperience {
			exp++
		} else {
			edu++
		}
	}
	return exp, edu
}

// splitByTarget groups the final batch by resolved target section. Demoted
// experiences become education records here, at the very end, so every
// earlier stage handles the original struct.
func splitByTarget(cands []model.Candidate) ([]*model.ExperienceCandidate, []*model.EducationCandidate) {
	var exps []*model.ExperienceCandidate
	var edus []*model.EducationCandidate
	for _, c := range cands {
		switch cand := c.(type) {
		case *model.ExperienceCandidate:
			if cand.Target == model.KindEducation {
				edus = append(edus, demoteToEducation(cand))
			} else {
				exps = append(exps, cand)
			}
		case *model.EducationCandidate:
			edus = append(edus, cand)
		}
	}
	return exps, edus
}

// demoteToEducation converts a demoted experience into an education record,
// carrying over the shared fields.
func demoteToEducation(cand *model.ExperienceCandidate) *model.EducationCandidate {
	edu := &model.EducationCandidate{
		Base:      cand.Base,
		Degree:    cand.Title,
		School:    cand.Company,
		StartDate: cand.StartDate,
		EndDate:   cand.EndDate,
	}
	edu.Target = model.KindEducation
	return edu
}
