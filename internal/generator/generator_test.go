package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentsift/cvgate/internal/config"
	"github.com/talentsift/cvgate/internal/lexicon"
	"github.com/talentsift/cvgate/internal/model"
)

func defaultGate() config.GateConfig {
	return config.GateConfig{
		MaxCrossColumnDistance: 2,
		EduKeepRateSecondPass:  0.10,
		EduItemsPer100Lines:    20,
	}
}

func newGen() *Generator {
	return New(defaultGate(), lexicon.New())
}

func mustDoc(t *testing.T, lines []string) *model.Document {
	t.Helper()
	doc, err := model.NewDocument(lines)
	require.NoError(t, err)
	return doc
}

func experienceBy(t *testing.T, cands []model.Candidate, strategy model.Strategy) *model.ExperienceCandidate {
	t.Helper()
	for _, c := range cands {
		exp, ok := c.(*model.ExperienceCandidate)
		if ok && exp.Strategy == strategy {
			return exp
		}
	}
	return nil
}

func TestInlineChezPattern(t *testing.T) {
	doc := mustDoc(t, []string{
		"2021 - 2023",
		"Développeur chez Capgemini",
		"API REST, React",
	})

	res := newGen().Generate(doc, nil, nil)
	require.False(t, res.Degraded)

	exp := experienceBy(t, res.Candidates, model.StrategyInlineSeparator)
	require.NotNil(t, exp)
	assert.Equal(t, "Développeur", exp.Title)
	assert.Equal(t, "Capgemini", exp.Company)
	assert.InDelta(t, 0.8, exp.Confidence, 0.001)
	assert.Equal(t, "2021", exp.StartDate)
	assert.Equal(t, "2023", exp.EndDate)
}

func TestInlineSeparatorWithDatePrefix(t *testing.T) {
	doc := mustDoc(t, []string{
		"2019 - présent | Lead Developer - Acme Corp",
	})

	cands, err := newGen().inlineSeparator(doc)
	require.NoError(t, err)
	require.Len(t, cands, 1)

	exp := cands[0].(*model.ExperienceCandidate)
	assert.Equal(t, "Lead Developer", exp.Title)
	assert.Equal(t, "Acme Corp", exp.Company)
	assert.Equal(t, "2019", exp.StartDate)
	assert.Empty(t, exp.EndDate)
	assert.True(t, exp.Current)
}

func TestInlineRejectsContactAndCertLines(t *testing.T) {
	doc := mustDoc(t, []string{
		"jean.dupont@gmail.com - 06 12 34 56 78",
		"Certification AWS - Solutions Architect",
	})

	cands, err := newGen().inlineSeparator(doc)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestBulletedActionBlock(t *testing.T) {
	doc := mustDoc(t, []string{
		"Développeur fullstack - Capgemini",
		"• Développé une API de facturation",
		"• Géré la migration vers le cloud",
	})

	cands, err := newGen().bulletedAction(doc)
	require.NoError(t, err)
	require.Len(t, cands, 1)

	exp := cands[0].(*model.ExperienceCandidate)
	assert.Equal(t, "Développeur fullstack", exp.Title)
	assert.Equal(t, "Capgemini", exp.Company)
	assert.True(t, exp.HasBulletActions)
	assert.InDelta(t, 0.7, exp.Confidence, 0.001)
	assert.Contains(t, exp.Description, "API de facturation")
}

func TestBulletedActionRequiresActionVerb(t *testing.T) {
	doc := mustDoc(t, []string{
		"Centres d'intérêt",
		"• lecture",
		"• randonnée",
	})

	cands, err := newGen().bulletedAction(doc)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestDateAnchoredFillsFromContext(t *testing.T) {
	doc := mustDoc(t, []string{
		"Ingénieur logiciel @ Thales Group",
		"2018 - 2020",
		"systèmes embarqués",
	})

	cands, err := newGen().dateAnchored(doc)
	require.NoError(t, err)
	require.Len(t, cands, 1)

	exp := cands[0].(*model.ExperienceCandidate)
	assert.Equal(t, "Ingénieur logiciel", exp.Title)
	assert.Equal(t, "Thales Group", exp.Company)
	assert.InDelta(t, 0.5, exp.Confidence, 0.001)
	assert.Equal(t, "2018", exp.StartDate)
}

func TestDateAnchoredIgnoresFarColumnContext(t *testing.T) {
	// The only title/company pair sits past the cross-column distance from
	// the date anchor, so the anchor stays empty and is dropped.
	doc := mustDoc(t, []string{
		"2018 - 2020",
		"",
		"",
		"Ingénieur logiciel @ Thales Group",
	})

	cands, err := newGen().dateAnchored(doc)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestDateAnchoredSkipsEmptyContext(t *testing.T) {
	doc := mustDoc(t, []string{
		"2015",
		"",
		"",
	})

	cands, err := newGen().dateAnchored(doc)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestEducationSectionPatterns(t *testing.T) {
	doc := mustDoc(t, []string{
		"FORMATION",
		"Master informatique - Université de Lyon",
		"2018",
	})

	cands, pass1, pass2, err := newGen().educationSection(doc, nil)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, 1, pass1)
	assert.Zero(t, pass2)

	edu := cands[0].(*model.EducationCandidate)
	assert.Equal(t, "Master informatique", edu.Degree)
	assert.Equal(t, "Université de Lyon", edu.School)
	assert.InDelta(t, 0.7, edu.Confidence, 0.001)
	assert.Equal(t, 2018, edu.GraduationYear)
}

func TestEducationRelaxedSecondPass(t *testing.T) {
	// The strict pass keeps nothing: the lone diploma token is a single word
	// below the strict confidence minimum. The relaxed pass recovers it.
	doc := mustDoc(t, []string{
		"FORMATION",
		"cursus suivi en alternance",
		"plusieurs projets réalisés en équipe",
		"notions solides en gestion de projet",
		"participation aux ateliers du campus",
		"expérience associative riche",
		"BTS",
	})

	cands, pass1, pass2, err := newGen().educationSection(doc, nil)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Zero(t, pass1)
	assert.Equal(t, 1, pass2)

	edu := cands[0].(*model.EducationCandidate)
	assert.Equal(t, "BTS", edu.Degree)
	assert.InDelta(t, 0.2, edu.Confidence, 0.001)
}

func TestEducationRegionFromBounds(t *testing.T) {
	doc := mustDoc(t, []string{
		"Licence mathématiques - Université de Paris",
		"Développeur - Acme",
	})
	bounds := model.SectionBounds{"education": {Start: 0, End: 1}}

	cands, _, _, err := newGen().educationSection(doc, bounds)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "Licence mathématiques", cands[0].(*model.EducationCandidate).Degree)
}

func TestEntityHintsSplitByRegion(t *testing.T) {
	doc := mustDoc(t, []string{
		"2020 - 2022",
		"mission de conseil",
		"FORMATION",
		"Université de Lyon",
	})
	bounds := model.SectionBounds{"education": {Start: 2, End: 4}}
	hints := []model.EntityHint{
		{Label: "ORG", Text: "Accenture", Line: 1, Confidence: 0.9},
		{Label: "ORG", Text: "Université de Lyon", Line: 3, Confidence: 0.85},
	}

	cands, err := newGen().entityHints(doc, bounds, hints)
	require.NoError(t, err)
	require.Len(t, cands, 2)

	exp, ok := cands[0].(*model.ExperienceCandidate)
	require.True(t, ok)
	assert.Equal(t, "Accenture", exp.Company)
	assert.Equal(t, "2020", exp.StartDate)

	edu, ok := cands[1].(*model.EducationCandidate)
	require.True(t, ok)
	assert.Equal(t, "Université de Lyon", edu.School)
}

func TestEntityHintWithoutConfidenceDefaultsToMidpoint(t *testing.T) {
	doc := mustDoc(t, []string{
		"2020 - 2022",
		"Accenture",
	})
	hints := []model.EntityHint{
		{Label: "ORG", Text: "Accenture", Line: 1},
	}

	cands, err := newGen().entityHints(doc, nil, hints)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.InDelta(t, 0.5, cands[0].Meta().Confidence, 0.001)
}

func TestEntityHintSchoolOutsideEducationIgnored(t *testing.T) {
	doc := mustDoc(t, []string{
		"2020 - 2022",
		"Université de Lyon",
	})
	hints := []model.EntityHint{
		{Label: "ORG", Text: "Université de Lyon", Line: 1, Confidence: 0.9},
	}

	cands, err := newGen().entityHints(doc, nil, hints)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestDateAnchorCountSkipsStopLines(t *testing.T) {
	doc := mustDoc(t, []string{
		"2021 - 2023",
		"Développeur chez Capgemini",
		"jean.dupont@gmail.com depuis 2020",
	})

	assert.Equal(t, 1, newGen().DateAnchorCount(doc))
}

func TestGenerateConcatenatesStrategies(t *testing.T) {
	doc := mustDoc(t, []string{
		"2021 - 2023",
		"Développeur chez Capgemini",
		"• Développé une API REST",
		"FORMATION",
		"Master informatique - Université de Lyon",
	})

	res := newGen().Generate(doc, nil, nil)
	assert.False(t, res.Degraded)
	assert.Empty(t, res.Warnings)

	var strategies []model.Strategy
	for _, c := range res.Candidates {
		strategies = append(strategies, c.Meta().Strategy)
	}
	assert.Contains(t, strategies, model.StrategyInlineSeparator)
	assert.Contains(t, strategies, model.StrategySectionBlock)
}
