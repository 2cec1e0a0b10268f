// Package diversity measures how evenly the extraction strategies
// contributed to the current candidate set, and turns that measurement into
// an enforcement decision. A batch dominated by one strategy usually means
// the extractor pattern-matched noise rather than genuine structure.
package diversity

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/talentsift/cvgate/internal/config"
	"github.com/talentsift/cvgate/internal/model"
)

// Monitor computes diversity snapshots and enforcement decisions. Stateless;
// the snapshot is recomputed whenever the candidate set changes.
type Monitor struct {
	gate config.GateConfig
}

// New builds a monitor with the configured thresholds.
func New(gate config.GateConfig) *Monitor {
	return &Monitor{gate: gate}
}

// Snapshot computes strategy usage and the normalized Shannon entropy over
// the generation-strategy universe. An empty batch scores zero.
func (m *Monitor) Snapshot(candidates []model.Candidate) model.DiversitySnapshot {
	snap := model.DiversitySnapshot{
		StrategyUsage: make(map[model.Strategy]int),
	}
	for _, c := range candidates {
		snap.StrategyUsage[c.Meta().Strategy]++
		snap.TotalCandidates++
	}
	snap.Score = normalizedEntropy(snap.StrategyUsage, snap.TotalCandidates)
	return snap
}

// Enforce maps a diversity score to a gate action. Below the hard threshold
// only independently validated, date-anchored candidates survive; between
// the thresholds the low-confidence merge budget is capped at
// multiplier x anchorCount; above the medium threshold nothing happens.
func (m *Monitor) Enforce(score float64, anchorCount int) model.Enforcement {
	switch {
	case score < m.gate.PatternDiversityHardBlock:
		e := model.Enforcement{
			Action: model.ActionHardBlock,
			Message: fmt.Sprintf("diversity %.3f below hard block %.2f, keeping only date-anchored validated candidates",
				score, m.gate.PatternDiversityHardBlock),
		}
		zap.L().Warn("diversity: hard block", zap.Float64("score", score))
		return e
	case score < m.gate.PatternDiversityMediumAlert:
		budget := m.gate.MaxMergeMultiplier * anchorCount
		e := model.Enforcement{
			Action:           model.ActionCapMerges,
			MaxMergesAllowed: budget,
			Message: fmt.Sprintf("diversity %.3f below medium alert %.2f, capping merges at %d",
				score, m.gate.PatternDiversityMediumAlert, budget),
		}
		zap.L().Info("diversity: capping merges",
			zap.Float64("score", score),
			zap.Int("max_merges", budget))
		return e
	default:
		return model.Enforcement{Action: model.ActionAllow, MaxMergesAllowed: -1}
	}
}

// normalizedEntropy returns H(usage) / log2(|universe|) in [0, 1]. The
// denominator is the fixed generation-strategy universe, so a batch where one
// strategy produced everything scores 0 regardless of batch size.
func normalizedEntropy(usage map[model.Strategy]int, total int) float64 {
	if total == 0 || len(usage) <= 1 {
		return 0
	}
	entropy := 0.0
	for _, count := range usage {
		if count == 0 {
			continue
		}
		p := float64(count) / float64(total)
		entropy -= p * math.Log2(p)
	}
	max := math.Log2(float64(len(model.GenerationStrategies())))
	score := entropy / max
	if score > 1 {
		score = 1
	}
	return score
}
