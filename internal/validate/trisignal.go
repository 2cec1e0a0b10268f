// Package validate implements the structural gates a candidate must clear
// before the sieve and quality stages see it: tri-signal linkage and the
// boundary/header conflict guard.
package validate

import (
	"go.uber.org/zap"

	"github.com/talentsift/cvgate/internal/config"
	"github.com/talentsift/cvgate/internal/lexicon"
	"github.com/talentsift/cvgate/internal/model"
	"github.com/talentsift/cvgate/internal/textutil"
)

// TriSignalValidator scores a candidate's structural support: a date token,
// a role-like token, and an organization signal within a line window.
type TriSignalValidator struct {
	gate config.GateConfig
	lex  *lexicon.Lexicon
}

// NewTriSignalValidator builds a validator bound to the configured window
// and minimum signal count.
func NewTriSignalValidator(gate config.GateConfig, lex *lexicon.Lexicon) *TriSignalValidator {
	return &TriSignalValidator{gate: gate, lex: lex}
}

// Validate checks the configured window around the anchor line.
func (v *TriSignalValidator) Validate(doc *model.Document, anchor int, hints []model.EntityHint) model.TriSignalResult {
	return v.ValidateWith(doc, anchor, hints, v.gate.TriSignalWindow, v.gate.TriSignalMinSignals, v.gate.TriSignalRequireDate)
}

// ValidateWith runs the same scan with explicit parameters. Rescue mode uses
// it with a relaxed minimum signal count.
func (v *TriSignalValidator) ValidateWith(doc *model.Document, anchor int, hints []model.EntityHint,
	window, minSignals int, requireDate bool) model.TriSignalResult {

	start, end := doc.Window(anchor, window)
	result := model.TriSignalResult{WindowStart: start, WindowEnd: end}

	for i := start; i < end; i++ {
		line := doc.Line(i)
		if line == "" {
			continue
		}
		if !result.DatePresent && textutil.HasDateToken(line) {
			result.DatePresent = true
		}
		if !result.OrgPresent && v.lex.HasOrgIndicator(line) {
			result.OrgPresent = true
		}
		if !result.RolePresent && v.lex.HasRoleIndicator(line) {
			result.RolePresent = true
		}
	}

	// Entity hints count as organization signals when they land inside the
	// window.
	if !result.OrgPresent {
		for _, h := range hints {
			if h.Line >= start && h.Line < end && h.IsOrg() {
				result.OrgPresent = true
				break
			}
		}
	}

	if result.DatePresent {
		result.SignalCount++
	}
	if result.OrgPresent {
		result.SignalCount++
	}
	if result.RolePresent {
		result.SignalCount++
	}
	result.Passes = result.SignalCount >= minSignals && (!requireDate || result.DatePresent)

	zap.L().Debug("validate: tri-signal",
		zap.Int("anchor", anchor),
		zap.Int("signals", result.SignalCount),
		zap.Int("min_required", minSignals),
		zap.Bool("has_date", result.DatePresent),
		zap.Bool("passes", result.Passes))

	return result
}
