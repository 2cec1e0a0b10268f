package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentsift/cvgate/internal/config"
	"github.com/talentsift/cvgate/internal/model"
)

func defaultGate() config.GateConfig {
	return config.GateConfig{
		TriSignalWindow:             3,
		TriSignalMinSignals:         2,
		TriSignalRequireDate:        true,
		HeaderConflictKillRadius:    8,
		MaxCrossColumnDistance:      2,
		TimelineDensityThreshold:    0.45,
		TimelineWindowSize:          4,
		ExpGateMin:                  0.55,
		MinDescTokens:               6,
		PatternDiversityHardBlock:   0.20,
		PatternDiversityMediumAlert: 0.30,
		MaxMergeMultiplier:          2,
		OrgRebindWindow:             4,
		EmploymentScoreThreshold:    0.5,
		EmploymentScoreWindow:       3,
		RescueWindowRadius:          6,
		RescueRelaxedMinSignals:     1,
		MaxExtractionPasses:         3,
		EduKeepRateSecondPass:       0.10,
		EduItemsPer100Lines:         20,
		ConfidenceFloor:             0.1,
	}
}

func TestRunInlineExperienceEndToEnd(t *testing.T) {
	p := New(defaultGate())

	res := p.Run("doc-capgemini", []string{
		"2021 - 2023",
		"Développeur chez Capgemini",
		"API REST, React",
	}, nil, nil)

	require.True(t, res.Success)
	require.Len(t, res.Experiences, 1, "duplicate candidates across strategies must collapse to one record")

	exp := res.Experiences[0]
	assert.Equal(t, "Capgemini", exp.Company)
	assert.Equal(t, "Développeur", exp.Title)
	assert.Equal(t, "2021", exp.StartDate)
	assert.Equal(t, "2023", exp.EndDate)
	assert.GreaterOrEqual(t, exp.Confidence, 0.55)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "doc-capgemini", res.DocumentID)
}

func TestRunBareOrgInEducationRegionYieldsNothing(t *testing.T) {
	p := New(defaultGate())
	bounds := model.SectionBounds{
		"education": model.LineRange{Start: 0, End: 2},
	}

	res := p.Run("doc-netflix", []string{
		"Janvier 2020",
		"Netflix Inc",
	}, nil, bounds)

	require.True(t, res.Success)
	assert.Empty(t, res.Education, "an employer name next to a date is not a diploma")
	assert.Empty(t, res.Experiences, "experience anchors inside the education region are suppressed")
	assert.True(t, res.Snapshot.RescueTriggered)
}

func TestRunDemotesSchoolEmployerToEducation(t *testing.T) {
	p := New(defaultGate())

	res := p.Run("doc-school", []string{
		"2015 - 2017",
		"Étudiant chez Université de Lyon",
	}, nil, nil)

	require.True(t, res.Success)
	assert.Empty(t, res.Experiences)
	require.Len(t, res.Education, 1)

	edu := res.Education[0]
	assert.Equal(t, "Université de Lyon", edu.School)
	assert.True(t, edu.HasFlag("demoted_to_education"))
	assert.Equal(t, model.KindEducation, edu.Target)
}

func TestRunRescueTriggersOnZeroExperiences(t *testing.T) {
	p := New(defaultGate())

	// No separators, no "chez" pairs, no date tokens: every phase-1 strategy
	// comes back empty and only the rescue scan can recover anything.
	res := p.Run("doc-unstructured", []string{
		"profil polyvalent orienté produit",
		"développeur senior au sein du cabinet",
		"encadrement des équipes et gestion des projets",
	}, nil, nil)

	require.True(t, res.Success)
	assert.True(t, res.Snapshot.RescueTriggered)
	require.NotEmpty(t, res.Experiences)
	assert.Equal(t, model.StrategyRescueWindow, res.Experiences[0].Strategy)
	assert.True(t, res.Experiences[0].HasFlag("rescue_extracted"))
}

func TestRunRejectsBlankDocument(t *testing.T) {
	p := New(defaultGate())

	res := p.Run("doc-blank", []string{"", "   ", ""}, nil, nil)

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.Experiences)
	assert.Empty(t, res.Education)
}

func TestRunConfidenceStaysInBounds(t *testing.T) {
	p := New(defaultGate())

	res := p.Run("doc-bounds", []string{
		"2020 - 2022",
		"Consultant chez Accenture",
		"FORMATION",
		"Master - Université de Lyon",
		"2018",
	}, nil, nil)

	require.True(t, res.Success)
	for _, exp := range res.Experiences {
		assert.GreaterOrEqual(t, exp.Confidence, 0.0)
		assert.LessOrEqual(t, exp.Confidence, 1.0)
	}
	for _, edu := range res.Education {
		assert.GreaterOrEqual(t, edu.Confidence, 0.0)
		assert.LessOrEqual(t, edu.Confidence, 1.0)
	}
}

func TestRunDiscardsExperienceNearEducationHeader(t *testing.T) {
	p := New(defaultGate())

	// The education header sits outside the tri-signal window but inside the
	// kill radius; the candidate is discarded, not kept.
	res := p.Run("doc-header-radius", []string{
		"2021 - 2023",
		"Développeur chez Capgemini",
		"API REST, React",
		"",
		"",
		"",
		"FORMATION",
	}, nil, nil)

	require.True(t, res.Success)
	assert.Empty(t, res.Experiences)
	assert.Positive(t, res.Snapshot.HeaderConflictsDetected)
	assert.Positive(t, res.Snapshot.BoundaryTerminations)
}

func TestRunReportsRelaxedEducationPassCounts(t *testing.T) {
	p := New(defaultGate())

	// The lone single-word diploma survives only the relaxed second pass over
	// the education region, and the snapshot says so. The experience block
	// sits beyond the kill radius of the education header.
	res := p.Run("doc-edu-relaxed", []string{
		"2021 - 2023",
		"Développeur chez Capgemini",
		"API REST, React",
		"", "", "", "", "", "", "", "",
		"FORMATION",
		"Master",
	}, nil, nil)

	require.True(t, res.Success)
	require.Len(t, res.Experiences, 1)
	require.Len(t, res.Education, 1)
	assert.Equal(t, "Master", res.Education[0].Degree)
	assert.Zero(t, res.Snapshot.EducationItemsPass1)
	assert.Equal(t, 1, res.Snapshot.EducationItemsPass2)
}

func TestCapFallbackMergesKeepsStrongest(t *testing.T) {
	var cands []model.Candidate
	confidences := []float64{0.5, 0.3, 0.4, 0.6}
	for i, conf := range confidences {
		c := model.NewExperience(model.StrategyDateAnchored, i)
		c.Title = "Role"
		c.SetConfidence(conf)
		cands = append(cands, c)
	}
	keeper := model.NewExperience(model.StrategyInlineSeparator, 10)
	keeper.Title = "Lead"
	cands = append(cands, keeper)

	out := capFallbackMerges(cands, 2)

	require.Len(t, out, 3)
	var kept []float64
	for _, c := range out {
		if c.Meta().Strategy == model.StrategyDateAnchored {
			kept = append(kept, c.Meta().Confidence)
		}
	}
	assert.ElementsMatch(t, []float64{0.5, 0.6}, kept)
	assert.Contains(t, out, model.Candidate(keeper), "non-fallback strategies are never capped")
}

func TestCapFallbackMergesUnderBudgetUntouched(t *testing.T) {
	c := model.NewExperience(model.StrategyDateAnchored, 0)
	c.Title = "Role"
	in := []model.Candidate{c}

	out := capFallbackMerges(in, 5)
	assert.Equal(t, in, out)
}

func TestRunResultSummary(t *testing.T) {
	p := New(defaultGate())

	res := p.Run("doc-summary", []string{
		"2021 - 2023",
		"Développeur chez Capgemini",
		"API REST, React",
	}, nil, nil)

	rr := res.RunResult()
	assert.Equal(t, len(res.Experiences), rr.ExperienceCount)
	assert.Equal(t, len(res.Education), rr.EducationCount)
	assert.Equal(t, res.Snapshot.Accepted, rr.Accepted)
	assert.Equal(t, res.Snapshot.RescueTriggered, rr.RescueTriggered)
	assert.Empty(t, rr.Error)
}
