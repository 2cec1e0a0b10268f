// Package quality scores extracted candidates and decides demotions. The
// demotion rule is deliberately conjunctive: a multi-criterion vote alone is
// not enough, the organization must also read as a school.
package quality

import (
	"strings"

	"go.uber.org/zap"

	"github.com/talentsift/cvgate/internal/config"
	"github.com/talentsift/cvgate/internal/lexicon"
	"github.com/talentsift/cvgate/internal/model"
)

// Per-criterion confidence penalties.
const (
	penaltySchoolCompany  = 0.25
	penaltyMissingCompany = 0.15
	penaltyMissingTitle   = 0.10
	penaltyNoEmployment   = 0.15
)

// employmentContextWindow is the radius scanned for employment keywords when
// assessing a single candidate.
const employmentContextWindow = 2

// Assessment is the outcome for one candidate.
type Assessment struct {
	ShouldDemote      bool       `json:"should_demote"`
	TargetSection     model.Kind `json:"target_section"`
	ConfidencePenalty float64    `json:"confidence_penalty"`
	Reasons           []string   `json:"reasons,omitempty"`
	QualityScore      float64    `json:"quality_score"`
	CriteriaMet       int        `json:"criteria_met"`
}

// Assessor evaluates candidate quality against the surrounding document.
type Assessor struct {
	gate config.GateConfig
	lex  *lexicon.Lexicon
}

// New builds an assessor over the shared lexicon.
func New(gate config.GateConfig, lex *lexicon.Lexicon) *Assessor {
	return &Assessor{gate: gate, lex: lex}
}

// AssessExperience computes the demotion vote and penalty for one experience
// candidate. Four criteria each cast one vote: missing or school-like
// organization, no employment keywords in context, missing title, and no
// bulleted action lines. Demotion needs at least three votes AND a
// school-like organization.
func (a *Assessor) AssessExperience(cand *model.ExperienceCandidate, doc *model.Document) Assessment {
	out := Assessment{TargetSection: model.KindExperience}

	company := strings.TrimSpace(cand.Company)
	title := strings.TrimSpace(cand.Title)

	companyIsSchool := false
	if company != "" {
		companyIsSchool, _ = a.lex.IsSchool(company)
	}
	if companyIsSchool {
		out.Reasons = append(out.Reasons, "company_is_school")
		out.ConfidencePenalty += penaltySchoolCompany
	}
	if company == "" || companyIsSchool {
		out.Reasons = append(out.Reasons, "missing_or_suspect_company")
		out.ConfidencePenalty += penaltyMissingCompany
	}
	if title == "" {
		out.Reasons = append(out.Reasons, "missing_title")
		out.ConfidencePenalty += penaltyMissingTitle
	}

	hasEmployment := a.hasEmploymentContext(doc, cand.SourceLine)
	if !hasEmployment {
		out.Reasons = append(out.Reasons, "no_employment_keywords")
		out.ConfidencePenalty += penaltyNoEmployment
	}

	criteria := []bool{
		company == "" || companyIsSchool,
		!hasEmployment,
		title == "",
		!cand.HasBulletActions,
	}
	for _, met := range criteria {
		if met {
			out.CriteriaMet++
		}
	}

	if out.CriteriaMet >= 3 && companyIsSchool {
		out.ShouldDemote = true
		out.TargetSection = model.KindEducation
		out.Reasons = append(out.Reasons, "demote_criteria_met_with_school_company")
		zap.L().Info("quality: demoting experience to education",
			zap.Strings("reasons", out.Reasons),
			zap.Int("criteria_met", out.CriteriaMet))
	}

	out.QualityScore = 1 - out.ConfidencePenalty
	if out.QualityScore < 0 {
		out.QualityScore = 0
	}
	return out
}

// Apply folds an assessment into the candidate: demotion retargets the
// section, otherwise the penalty is subtracted down to the configured floor.
func (a *Assessor) Apply(cand *model.ExperienceCandidate, assessment Assessment) {
	if assessment.ShouldDemote {
		cand.Target = model.KindEducation
		cand.AddFlag("demoted_to_education")
		return
	}
	if assessment.ConfidencePenalty > 0 {
		cand.Penalize(assessment.ConfidencePenalty, a.gate.ConfidenceFloor)
	}
}

// AcceptEducation enforces the minimum-content rule for education
// candidates: a degree, or a school-like organization. A bare employer name
// next to a date is noise, not a diploma.
func (a *Assessor) AcceptEducation(cand *model.EducationCandidate) (bool, string) {
	if strings.TrimSpace(cand.Degree) != "" {
		return true, ""
	}
	if school, _ := a.lex.IsSchool(cand.School); school {
		return true, ""
	}
	return false, "insufficient_education_content"
}

// MeetsDescriptionGate checks the minimum-description requirement. An
// internship with an explicit employer and dates passes regardless, because
// internships legitimately carry thin descriptions.
func (a *Assessor) MeetsDescriptionGate(cand *model.ExperienceCandidate) bool {
	tokens := len(strings.Fields(cand.Description))
	if tokens >= a.gate.MinDescTokens {
		return true
	}
	title := strings.ToLower(cand.Title)
	isInternship := strings.Contains(title, "stage") || strings.Contains(title, "intern")
	hasEmployerAndDates := cand.Company != "" && cand.StartDate != ""
	return isInternship && hasEmployerAndDates
}

func (a *Assessor) hasEmploymentContext(doc *model.Document, anchor int) bool {
	start, end := doc.Window(anchor, employmentContextWindow)
	for i := start; i < end; i++ {
		if len(a.lex.EmploymentKeywordsIn(doc.Line(i))) > 0 {
			return true
		}
	}
	return false
}
