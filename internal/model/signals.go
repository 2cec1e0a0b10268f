package model

// TriSignalResult is the per-candidate outcome of structural-signal
// validation. Ephemeral, recomputed per candidate, never persisted.
type TriSignalResult struct {
	DatePresent  bool `json:"date_present"`
	RolePresent  bool `json:"role_present"`
	OrgPresent   bool `json:"org_present"`
	SignalCount  int  `json:"signal_count"`
	Passes       bool `json:"passes"`
	WindowStart  int  `json:"window_start"`
	WindowEnd    int  `json:"window_end"`
}

// DiversitySnapshot aggregates strategy usage over the current candidate set.
// Score is the normalized Shannon entropy of the usage counts.
type DiversitySnapshot struct {
	StrategyUsage   map[Strategy]int `json:"strategy_usage_counts"`
	TotalCandidates int              `json:"total_candidates"`
	Score           float64          `json:"diversity_score"`
}

// EnforcementAction is the diversity gate's decision for the current batch.
type EnforcementAction string

// Diversity gate actions, from most permissive to most restrictive.
const (
	ActionAllow     EnforcementAction = "allow"
	ActionCapMerges EnforcementAction = "cap_merges"
	ActionHardBlock EnforcementAction = "hard_block"
)

// Enforcement carries the gate decision plus the merge budget when capped.
type Enforcement struct {
	Action           EnforcementAction `json:"action"`
	MaxMergesAllowed int               `json:"max_merges_allowed"`
	Message          string            `json:"message"`
}

// RescueWindow is a sliding window built around an employment-pattern hit
// during rescue mode. Discarded after the rescue pass completes.
type RescueWindow struct {
	StartLine      int     `json:"start_line"`
	EndLine        int     `json:"end_line"`
	CenterLine     int     `json:"center_line"`
	TriggerPattern string  `json:"trigger_pattern"`
	Confidence     float64 `json:"confidence"`
}
