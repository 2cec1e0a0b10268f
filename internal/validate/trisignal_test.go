package validate

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
		TriSignalWindow:          3,
		TriSignalMinSignals:      2,
		TriSignalRequireDate:     true,
		HeaderConflictKillRadius: 8,
		MaxCrossColumnDistance:   2,
		TimelineDensityThreshold: 0.45,
		TimelineWindowSize:       4,
		ExpGateMin:               0.55,
		MinDescTokens:            6,
		EmploymentScoreThreshold: 0.5,
		EmploymentScoreWindow:    3,
		OrgRebindWindow:          4,
		RescueWindowRadius:       6,
		RescueRelaxedMinSignals:  1,
		ConfidenceFloor:          0.1,
	}
}

func mustDoc(t *testing.T, lines []string) *model.Document {
	t.Helper()
	doc, err := model.NewDocument(lines)
	require.NoError(t, err)
	return doc
}

func TestTriSignalPasses(t *testing.T) {
	v := NewTriSignalValidator(defaultGate(), lexicon.New())
	doc := mustDoc(t, []string{
		"2021 - 2023",
		"Développeur chez Capgemini",
		"API REST, React",
	})

	res := v.Validate(doc, 1, nil)
	assert.True(t, res.DatePresent)
	assert.True(t, res.OrgPresent)
	assert.True(t, res.RolePresent)
	assert.Equal(t, 3, res.SignalCount)
	assert.True(t, res.Passes)
}

func TestTriSignalRequiresDate(t *testing.T) {
	v := NewTriSignalValidator(defaultGate(), lexicon.New())
	doc := mustDoc(t, []string{
		"Développeur chez Capgemini",
		"API REST, React",
	})

	res := v.Validate(doc, 0, nil)
	assert.False(t, res.DatePresent)
	// Role + org alone do not pass when a date is required.
	assert.Equal(t, 2, res.SignalCount)
	assert.False(t, res.Passes)
}

func TestTriSignalHintProvidesOrg(t *testing.T) {
	v := NewTriSignalValidator(defaultGate(), lexicon.New())
	doc := mustDoc(t, []string{
		"Janvier 2020",
		"Analyste de données",
		"Tableaux de bord",
	})

	res := v.Validate(doc, 1, nil)
	assert.False(t, res.OrgPresent)

	hints := []model.EntityHint{{Label: "ORG", Text: "Netflix", Line: 2}}
	res = v.Validate(doc, 1, hints)
	assert.True(t, res.OrgPresent)
	assert.True(t, res.Passes)
}

func TestTriSignalOutOfWindowSignalsIgnored(t *testing.T) {
	v := NewTriSignalValidator(defaultGate(), lexicon.New())
	lines := []string{
		"2019",
		"", "", "", "",
		"Analyste",
	}
	doc := mustDoc(t, lines)

	// Anchor 5 with window 3 covers lines 2..8: the date at line 0 is out.
	res := v.Validate(doc, 5, nil)
	assert.False(t, res.DatePresent)
	assert.False(t, res.Passes)
}

func TestTriSignalWindowMonotonicity(t *testing.T) {
	lex := lexicon.New()
	doc := mustDoc(t, []string{
		"Profil",
		"2018 - 2020",
		"",
		"",
		"Développeur",
		"",
		"",
		"chez Capgemini",
		"Projets divers",
	})

	gate := defaultGate()
	prevPassed := -1
	for window := 1; window <= 6; window++ {
		v := NewTriSignalValidator(gate, lex)
		passed := 0
		for anchor := 0; anchor < doc.Len(); anchor++ {
			if v.ValidateWith(doc, anchor, nil, window, gate.TriSignalMinSignals, gate.TriSignalRequireDate).Passes {
				passed++
			}
		}
		if prevPassed >= 0 {
			assert.GreaterOrEqual(t, passed, prevPassed, "window %d", window)
		}
		prevPassed = passed
	}
}

func TestTriSignalRelaxedMinimum(t *testing.T) {
	v := NewTriSignalValidator(defaultGate(), lexicon.New())
	doc := mustDoc(t, []string{
		"Mars 2021",
		"texte libre",
	})

	strict := v.ValidateWith(doc, 0, nil, 3, 2, true)
	assert.False(t, strict.Passes)

	relaxed := v.ValidateWith(doc, 0, nil, 3, 1, true)
	assert.True(t, relaxed.Passes)
}
