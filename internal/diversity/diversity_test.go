package diversity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talentsift/cvgate/internal/config"
	"github.com/talentsift/cvgate/internal/model"
)

func defaultGate() config.GateConfig {
	return config.GateConfig{
		PatternDiversityHardBlock:   0.20,
		PatternDiversityMediumAlert: 0.30,
		MaxMergeMultiplier:          2,
	}
}

func batch(counts map[model.Strategy]int) []model.Candidate {
	var out []model.Candidate
	for strategy, n := range counts {
		for i := 0; i < n; i++ {
			out = append(out, model.NewExperience(strategy, i))
		}
	}
	return out
}

func TestSnapshotSingleStrategyScoresZero(t *testing.T) {
	m := New(defaultGate())
	snap := m.Snapshot(batch(map[model.Strategy]int{
		model.StrategyDateAnchored: 12,
	}))

	assert.Equal(t, 12, snap.TotalCandidates)
	assert.Zero(t, snap.Score)
}

func TestSnapshotEmptyBatch(t *testing.T) {
	m := New(defaultGate())
	snap := m.Snapshot(nil)
	assert.Zero(t, snap.TotalCandidates)
	assert.Zero(t, snap.Score)
}

func TestSnapshotEvenSpreadScoresHigh(t *testing.T) {
	m := New(defaultGate())
	snap := m.Snapshot(batch(map[model.Strategy]int{
		model.StrategyInlineSeparator: 5,
		model.StrategyBulletedAction:  5,
		model.StrategyDateAnchored:    5,
		model.StrategySectionBlock:    5,
		model.StrategyEntityHint:      5,
	}))

	assert.InDelta(t, 1.0, snap.Score, 0.001)
}

func TestDominatedBatchTriggersCapMerges(t *testing.T) {
	// 18 of 20 candidates from the fallback strategy.
	m := New(defaultGate())
	snap := m.Snapshot(batch(map[model.Strategy]int{
		model.StrategyDateAnchored:    18,
		model.StrategyInlineSeparator: 2,
	}))

	assert.Less(t, snap.Score, 0.30)
	assert.InDelta(t, 0.202, snap.Score, 0.001)

	enforcement := m.Enforce(snap.Score, 7)
	assert.Equal(t, model.ActionCapMerges, enforcement.Action)
	assert.Equal(t, 14, enforcement.MaxMergesAllowed)
}

func TestEnforceOrdering(t *testing.T) {
	m := New(defaultGate())
	tests := []struct {
		name  string
		score float64
		want  model.EnforcementAction
	}{
		{"zero", 0.0, model.ActionHardBlock},
		{"just below hard block", 0.199, model.ActionHardBlock},
		{"at hard block", 0.20, model.ActionCapMerges},
		{"between thresholds", 0.25, model.ActionCapMerges},
		{"at medium alert", 0.30, model.ActionAllow},
		{"high", 0.85, model.ActionAllow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Enforce(tt.score, 3).Action)
		})
	}
}

func TestEnforceMessages(t *testing.T) {
	m := New(defaultGate())

	blocked := m.Enforce(0.05, 3)
	assert.Equal(t, model.ActionHardBlock, blocked.Action)
	assert.NotEmpty(t, blocked.Message)

	allowed := m.Enforce(0.9, 3)
	assert.Equal(t, model.ActionAllow, allowed.Action)
	assert.Equal(t, -1, allowed.MaxMergesAllowed)
}
