// Package sieve classifies organization strings as academic institutions vs.
// employers, scores the employment context around a candidate, and rebinds
// missing organizations from nearby entity hints.
package sieve

import (
	"strings"

	"go.uber.org/zap"

	"github.com/talentsift/cvgate/internal/config"
	"github.com/talentsift/cvgate/internal/lexicon"
	"github.com/talentsift/cvgate/internal/model"
	"github.com/talentsift/cvgate/internal/textutil"
)

// EmploymentScore is the weighted keyword/verb density around a line.
type EmploymentScore struct {
	Score       float64  `json:"score"`
	Keywords    []string `json:"matched_keywords,omitempty"`
	ActionVerbs []string `json:"matched_verbs,omitempty"`
	TotalWords  int      `json:"total_words"`
	WindowStart int      `json:"window_start"`
	WindowEnd   int      `json:"window_end"`
}

// EmploymentScorer measures how strongly the context around a line reads as
// paid work. Employment keywords weigh 0.3 each, action verbs 0.2, the sum
// normalized per hundred words and clamped to [0, 1].
type EmploymentScorer struct {
	gate config.GateConfig
	lex  *lexicon.Lexicon
}

// NewEmploymentScorer builds a scorer over the shared lexicon.
func NewEmploymentScorer(gate config.GateConfig, lex *lexicon.Lexicon) *EmploymentScorer {
	return &EmploymentScorer{gate: gate, lex: lex}
}

// Score scans the configured window around the anchor line.
func (s *EmploymentScorer) Score(doc *model.Document, anchor int) EmploymentScore {
	return s.ScoreWindow(doc, anchor, s.gate.EmploymentScoreWindow)
}

// ScoreWindow scans an explicit window radius.
func (s *EmploymentScorer) ScoreWindow(doc *model.Document, anchor, window int) EmploymentScore {
	start, end := doc.Window(anchor, window)
	result := EmploymentScore{WindowStart: start, WindowEnd: end}

	for i := start; i < end; i++ {
		line := doc.Line(i)
		result.TotalWords += len(strings.Fields(textutil.NormalizeForMatching(line)))
		result.Keywords = append(result.Keywords, s.lex.EmploymentKeywordsIn(line)...)
		result.ActionVerbs = append(result.ActionVerbs, s.lex.ActionVerbsIn(line)...)
	}

	totalWords := result.TotalWords
	if totalWords < 1 {
		totalWords = 1
	}
	raw := (float64(len(result.Keywords))*0.3 + float64(len(result.ActionVerbs))*0.2) / float64(totalWords) * 100
	if raw > 1 {
		raw = 1
	}
	result.Score = raw

	zap.L().Debug("sieve: employment score",
		zap.Int("anchor", anchor),
		zap.Float64("score", result.Score),
		zap.Int("keywords", len(result.Keywords)),
		zap.Int("verbs", len(result.ActionVerbs)),
		zap.Int("total_words", result.TotalWords))

	return result
}
