package metrics

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func healthyReporter() *Reporter {
	r := NewReporter("doc-1")
	r.SetSectionMetrics(4, 4, 0.85)
	for i := 0; i < 10; i++ {
		r.RecordAttempt()
	}
	for i := 0; i < 8; i++ {
		r.RecordTriSignal(true)
	}
	r.RecordTriSignal(false)
	r.RecordTriSignal(false)
	r.SetDiversity(0.62, "")
	r.SetExperienceFinal(3)
	r.SetEducationMetrics(2, 0, 2, 0.4)
	return r
}

func TestSnapshotDerivedRates(t *testing.T) {
	s := healthyReporter().Snapshot()

	assert.InDelta(t, 0.8, s.AssocRate, 0.001)
	assert.InDelta(t, 0.75, s.ExpCoverage, 0.001)
	assert.Equal(t, 10, s.ExperiencesAttempted)
	assert.Equal(t, 8, s.TriSignalPasses)
	assert.Equal(t, 2, s.TriSignalFailures)
}

func TestSnapshotAcceptsOnAllFour(t *testing.T) {
	s := healthyReporter().Snapshot()

	assert.True(t, s.MeetsBoundaryQuality)
	assert.True(t, s.MeetsAssocRate)
	assert.True(t, s.MeetsExpCoverage)
	assert.True(t, s.MeetsPatternDiversity)
	assert.Equal(t, 4, s.CriteriaMet)
	assert.True(t, s.Accepted)
}

func TestSnapshotAcceptsOnThreeOfFour(t *testing.T) {
	r := healthyReporter()
	r.SetDiversity(0.15, "diversity low")
	s := r.Snapshot()

	assert.False(t, s.MeetsPatternDiversity)
	assert.Equal(t, 3, s.CriteriaMet)
	assert.True(t, s.Accepted)
	assert.Contains(t, s.PatternDiversityAlerts, "diversity low")
}

func TestSnapshotRejectsOnTwoOfFour(t *testing.T) {
	r := healthyReporter()
	r.SetDiversity(0.15, "")
	r.SetSectionMetrics(4, 2, 0.5)
	s := r.Snapshot()

	assert.Equal(t, 2, s.CriteriaMet)
	assert.False(t, s.Accepted)
}

func TestSnapshotZeroAttempts(t *testing.T) {
	r := NewReporter("doc-empty")
	s := r.Snapshot()

	assert.Zero(t, s.AssocRate)
	assert.Zero(t, s.ExpCoverage)
	assert.False(t, s.Accepted)
}

func TestRebindSuccessRate(t *testing.T) {
	r := NewReporter("doc-2")
	r.RecordRebind(true)
	r.RecordRebind(true)
	r.RecordRebind(false)
	r.RecordRebind(false)
	s := r.Snapshot()

	assert.Equal(t, 4, s.OrgRebindAttempts)
	assert.Equal(t, 2, s.OrgRebindSuccesses)
	assert.InDelta(t, 0.5, s.OrgRebindSuccessRate, 0.001)
}

func TestDemotionReasonCounters(t *testing.T) {
	r := NewReporter("doc-3")
	r.RecordDemotion(true, []string{"company_is_school", "missing_or_suspect_company"})
	r.RecordDemotion(false, []string{"missing_or_suspect_company"})
	s := r.Snapshot()

	assert.Equal(t, 2, s.ExperiencesDemoted)
	assert.Equal(t, 1, s.DemotedToEducation)
	assert.Equal(t, 1, s.SchoolAsEmployerFlags)
	assert.Equal(t, 2, s.SuspectCompanyFlags)
}

func TestSnapshotImmutableAgainstLaterUpdates(t *testing.T) {
	r := healthyReporter()
	s := r.Snapshot()

	r.SetDiversity(0.01, "late alert")
	r.RecordDegraded("late warning")

	assert.InDelta(t, 0.62, s.PatternDiversity, 0.001)
	assert.Empty(t, s.PatternDiversityAlerts)
	assert.Empty(t, s.Warnings)
	assert.False(t, s.Degraded)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	s := healthyReporter().Snapshot()

	var buf bytes.Buffer
	require.NoError(t, s.WriteYAML(&buf))
	assert.True(t, strings.Contains(buf.String(), "doc_id: doc-1"))

	var decoded Snapshot
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, s.AssocRate, decoded.AssocRate)
	assert.Equal(t, s.Accepted, decoded.Accepted)
}

func TestWriteJSON(t *testing.T) {
	s := healthyReporter().Snapshot()

	var buf bytes.Buffer
	require.NoError(t, s.WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "doc-1", decoded["doc_id"])
	assert.Equal(t, true, decoded["accepted"])
}
