// Package metrics aggregates counters from every gating stage into a single
// per-document snapshot. The reporter is a pure observer: stages push
// counters in, and the snapshot decides overall acceptance from the four
// quality thresholds. It never mutates candidates.
package metrics

import (
	"encoding/json"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/talentsift/cvgate/internal/model"
)

// Acceptance thresholds. A document passes when at least 3 of the 4 checks
// hold.
const (
	ThresholdBoundaryQuality  = 0.70
	ThresholdAssocRate        = 0.70
	ThresholdExpCoverage      = 0.25
	ThresholdPatternDiversity = 0.30
)

// minCriteriaMet is the weighted-majority requirement over the 4 checks.
const minCriteriaMet = 3

// Reporter accumulates counters for one document run. Not safe for
// concurrent use; each run owns one.
type Reporter struct {
	docID   string
	started time.Time

	sectionsDetected int
	sectionsMapped   int
	boundaryQuality  float64

	attempts         int
	triSignalPasses  int
	triSignalFailed  int
	headerConflicts  int
	boundaryKills    int
	timelineBlocks   int
	rebindAttempts   int
	rebindSuccesses  int
	demotions        int
	demotedToEdu     int
	schoolOrgFlags   int
	suspectCompanies int

	diversity       float64
	diversityAlerts []string

	eduPass1    int
	eduPass2    int
	eduKeepRate float64
	eduFinal    int

	expFinal int

	rescueTriggered bool
	rescueTrigger   string
	rescueAdded     int

	degraded bool
	warnings []string
}

// NewReporter starts a metrics session for one document.
func NewReporter(docID string) *Reporter {
	return &Reporter{docID: docID, started: time.Now()}
}

// SetSectionMetrics records segmentation quality from the boundary stage.
func (r *Reporter) SetSectionMetrics(detected, mapped int, boundaryQuality float64) {
	r.sectionsDetected = detected
	r.sectionsMapped = mapped
	r.boundaryQuality = boundaryQuality
}

// RecordAttempt counts one generated candidate entering validation.
func (r *Reporter) RecordAttempt() { r.attempts++ }

// RecordTriSignal counts one validation outcome.
func (r *Reporter) RecordTriSignal(passed bool) {
	if passed {
		r.triSignalPasses++
	} else {
		r.triSignalFailed++
	}
}

// RecordHeaderConflict counts a kill-radius header hit.
func (r *Reporter) RecordHeaderConflict() { r.headerConflicts++ }

// RecordBoundaryTermination counts a window terminated by the guard.
func (r *Reporter) RecordBoundaryTermination() { r.boundaryKills++ }

// RecordTimelineBlock counts a dense-timeline exclusion.
func (r *Reporter) RecordTimelineBlock() { r.timelineBlocks++ }

// RecordRebind counts one organization rebind attempt.
func (r *Reporter) RecordRebind(success bool) {
	r.rebindAttempts++
	if success {
		r.rebindSuccesses++
	}
}

// RecordDemotion counts one quality-stage demotion with its reasons.
func (r *Reporter) RecordDemotion(toEducation bool, reasons []string) {
	r.demotions++
	if toEducation {
		r.demotedToEdu++
	}
	for _, reason := range reasons {
		switch reason {
		case "company_is_school":
			r.schoolOrgFlags++
		case "missing_or_suspect_company":
			r.suspectCompanies++
		}
	}
}

// SetDiversity records the diversity score and any enforcement message.
func (r *Reporter) SetDiversity(score float64, alert string) {
	r.diversity = score
	if alert != "" {
		r.diversityAlerts = append(r.diversityAlerts, alert)
	}
}

// SetEducationMetrics records the education extraction outcome.
func (r *Reporter) SetEducationMetrics(pass1, pass2, final int, keepRate float64) {
	r.eduPass1 = pass1
	r.eduPass2 = pass2
	r.eduFinal = final
	r.eduKeepRate = keepRate
}

// SetExperienceFinal records the accepted experience count.
func (r *Reporter) SetExperienceFinal(n int) { r.expFinal = n }

// SetRescue records the rescue outcome for the run.
func (r *Reporter) SetRescue(trigger string, added int) {
	r.rescueTriggered = true
	r.rescueTrigger = trigger
	r.rescueAdded = added
}

// RecordDegraded marks the run degraded with the stage warning.
func (r *Reporter) RecordDegraded(warning string) {
	r.degraded = true
	r.warnings = append(r.warnings, warning)
}

// Snapshot is the immutable per-document aggregate. Once built it is never
// modified; serialize it as-is.
type Snapshot struct {
	DocID           string  `json:"doc_id" yaml:"doc_id"`
	ProcessingTime  float64 `json:"processing_time_seconds" yaml:"processing_time_seconds"`

	SectionsDetected int     `json:"sections_detected" yaml:"sections_detected"`
	SectionsMapped   int     `json:"sections_mapped" yaml:"sections_mapped"`
	BoundaryQuality  float64 `json:"boundary_quality_score" yaml:"boundary_quality_score"`

	ExperiencesAttempted int     `json:"experiences_attempted" yaml:"experiences_attempted"`
	ExperiencesFinal     int     `json:"experiences_final" yaml:"experiences_final"`
	AssocRate            float64 `json:"assoc_rate" yaml:"assoc_rate"`
	ExpCoverage          float64 `json:"exp_coverage" yaml:"exp_coverage"`
	TriSignalPasses      int     `json:"tri_signal_passes" yaml:"tri_signal_passes"`
	TriSignalFailures    int     `json:"tri_signal_failures" yaml:"tri_signal_failures"`

	OrgRebindAttempts    int     `json:"org_rebind_attempts" yaml:"org_rebind_attempts"`
	OrgRebindSuccesses   int     `json:"org_rebind_successes" yaml:"org_rebind_successes"`
	OrgRebindSuccessRate float64 `json:"org_rebind_success_rate" yaml:"org_rebind_success_rate"`

	ExperiencesDemoted       int `json:"experiences_demoted" yaml:"experiences_demoted"`
	DemotedToEducation       int `json:"demoted_to_education" yaml:"demoted_to_education"`
	SchoolAsEmployerFlags    int `json:"school_as_employer_flags" yaml:"school_as_employer_flags"`
	SuspectCompanyFlags      int `json:"missing_or_suspect_company_flags" yaml:"missing_or_suspect_company_flags"`

	PatternDiversity       float64  `json:"pattern_diversity" yaml:"pattern_diversity"`
	PatternDiversityAlerts []string `json:"pattern_diversity_alerts,omitempty" yaml:"pattern_diversity_alerts,omitempty"`

	EducationItemsPass1 int     `json:"education_items_pass1" yaml:"education_items_pass1"`
	EducationItemsPass2 int     `json:"education_items_pass2" yaml:"education_items_pass2"`
	EducationKeepRate   float64 `json:"education_keep_rate" yaml:"education_keep_rate"`
	EducationItemsFinal int     `json:"education_items_final" yaml:"education_items_final"`

	HeaderConflictsDetected int `json:"header_conflicts_detected" yaml:"header_conflicts_detected"`
	BoundaryTerminations    int `json:"boundary_terminations" yaml:"boundary_terminations"`
	TimelineBlocksExcluded  int `json:"timeline_blocks_excluded" yaml:"timeline_blocks_excluded"`

	RescueTriggered bool   `json:"rescue_triggered" yaml:"rescue_triggered"`
	RescueTrigger   string `json:"rescue_trigger,omitempty" yaml:"rescue_trigger,omitempty"`
	RescueAdded     int    `json:"rescue_added" yaml:"rescue_added"`

	Degraded bool     `json:"degraded" yaml:"degraded"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	MeetsBoundaryQuality  bool `json:"meets_boundary_quality_threshold" yaml:"meets_boundary_quality_threshold"`
	MeetsAssocRate        bool `json:"meets_assoc_rate_threshold" yaml:"meets_assoc_rate_threshold"`
	MeetsExpCoverage      bool `json:"meets_exp_coverage_threshold" yaml:"meets_exp_coverage_threshold"`
	MeetsPatternDiversity bool `json:"meets_pattern_diversity_threshold" yaml:"meets_pattern_diversity_threshold"`

	CriteriaMet int  `json:"criteria_met" yaml:"criteria_met"`
	Accepted    bool `json:"accepted" yaml:"accepted"`
}

// Snapshot freezes the current counters into an immutable aggregate and
// computes the derived rates and acceptance decision.
func (r *Reporter) Snapshot() Snapshot {
	s := Snapshot{
		DocID:          r.docID,
		ProcessingTime: time.Since(r.started).Seconds(),

		SectionsDetected: r.sectionsDetected,
		SectionsMapped:   r.sectionsMapped,
		BoundaryQuality:  r.boundaryQuality,

		ExperiencesAttempted: r.attempts,
		ExperiencesFinal:     r.expFinal,
		TriSignalPasses:      r.triSignalPasses,
		TriSignalFailures:    r.triSignalFailed,

		OrgRebindAttempts:  r.rebindAttempts,
		OrgRebindSuccesses: r.rebindSuccesses,

		ExperiencesDemoted:    r.demotions,
		DemotedToEducation:    r.demotedToEdu,
		SchoolAsEmployerFlags: r.schoolOrgFlags,
		SuspectCompanyFlags:   r.suspectCompanies,

		PatternDiversity:       r.diversity,
		PatternDiversityAlerts: append([]string(nil), r.diversityAlerts...),

		EducationItemsPass1: r.eduPass1,
		EducationItemsPass2: r.eduPass2,
		EducationKeepRate:   r.eduKeepRate,
		EducationItemsFinal: r.eduFinal,

		HeaderConflictsDetected: r.headerConflicts,
		BoundaryTerminations:    r.boundaryKills,
		TimelineBlocksExcluded:  r.timelineBlocks,

		RescueTriggered: r.rescueTriggered,
		RescueTrigger:   r.rescueTrigger,
		RescueAdded:     r.rescueAdded,

		Degraded: r.degraded,
		Warnings: append([]string(nil), r.warnings...),
	}

	if r.attempts > 0 {
		s.AssocRate = float64(r.triSignalPasses) / float64(r.attempts)
	}
	if r.rebindAttempts > 0 {
		s.OrgRebindSuccessRate = float64(r.rebindSuccesses) / float64(r.rebindAttempts)
	}
	total := r.sectionsDetected
	if total < 1 {
		total = 1
	}
	s.ExpCoverage = float64(r.expFinal) / float64(total)

	s.MeetsBoundaryQuality = s.BoundaryQuality >= ThresholdBoundaryQuality
	s.MeetsAssocRate = s.AssocRate >= ThresholdAssocRate
	s.MeetsExpCoverage = s.ExpCoverage >= ThresholdExpCoverage
	s.MeetsPatternDiversity = s.PatternDiversity >= ThresholdPatternDiversity

	for _, met := range []bool{s.MeetsBoundaryQuality, s.MeetsAssocRate, s.MeetsExpCoverage, s.MeetsPatternDiversity} {
		if met {
			s.CriteriaMet++
		}
	}
	s.Accepted = s.CriteriaMet >= minCriteriaMet
	return s
}

// ObserveEnforcement feeds a diversity gate decision into the reporter.
func (r *Reporter) ObserveEnforcement(snapshot model.DiversitySnapshot, enforcement model.Enforcement) {
	r.SetDiversity(snapshot.Score, enforcement.Message)
}

// WriteYAML serializes the snapshot as YAML.
func (s Snapshot) WriteYAML(w io.Writer) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return eris.Wrap(err, "metrics: marshal yaml")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "metrics: write yaml")
	}
	return nil
}

// WriteJSON serializes the snapshot as indented JSON.
func (s Snapshot) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return eris.Wrap(err, "metrics: write json")
	}
	return nil
}
