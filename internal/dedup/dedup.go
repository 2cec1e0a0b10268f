// Package dedup canonicalizes candidates and drops repeats. The key space is
// an explicit caller-owned object created per document run and threaded
// through every pass, so repeats are caught across passes without any
// process-wide state.
package dedup

import (
	"strings"

	"github.com/agext/levenshtein"
	"go.uber.org/zap"

	"github.com/talentsift/cvgate/internal/model"
	"github.com/talentsift/cvgate/internal/textutil"
)

// maxSchoolEditDistance is the levenshtein budget for treating two school
// names as the same institution.
const maxSchoolEditDistance = 2

// KeySpace holds the normalized keys seen so far in one document run. Not
// safe for concurrent use; each run owns exactly one.
type KeySpace struct {
	seen map[string]struct{}
}

// NewKeySpace creates an empty key space for one document run.
func NewKeySpace() *KeySpace {
	return &KeySpace{seen: make(map[string]struct{})}
}

// Has reports whether the key was already registered.
func (k *KeySpace) Has(key string) bool {
	_, ok := k.seen[key]
	return ok
}

// Add registers a key, reporting whether it was new.
func (k *KeySpace) Add(key string) bool {
	if k.Has(key) {
		return false
	}
	k.seen[key] = struct{}{}
	return true
}

// Len returns the number of registered keys.
func (k *KeySpace) Len() int { return len(k.seen) }

// KeyOf derives the normalized dedup key for a candidate. Keys are transient:
// always re-derived, never stored on the candidate.
func KeyOf(c model.Candidate) string {
	start, end := c.Dates()
	parts := []string{
		string(c.Kind()),
		textutil.NormalizeForMatching(c.Headline()),
		textutil.NormalizeForMatching(c.Org()),
		textutil.NormalizeForMatching(start),
		textutil.NormalizeForMatching(end),
	}
	return strings.Join(parts, "|")
}

// Dedup removes exact repeats against the key space, then merges
// near-duplicate education entries (same institution up to small typos,
// graduation years within one year). The input order of survivors is kept.
func Dedup(cands []model.Candidate, keys *KeySpace) []model.Candidate {
	kept := make([]model.Candidate, 0, len(cands))
	dropped := 0
	for _, c := range cands {
		if !keys.Add(KeyOf(c)) {
			dropped++
			continue
		}
		kept = append(kept, c)
	}

	kept, merged := mergeEducation(kept)
	if dropped > 0 || merged > 0 {
		zap.L().Debug("dedup: pass complete",
			zap.Int("dropped_exact", dropped),
			zap.Int("merged_education", merged),
			zap.Int("kept", len(kept)))
	}
	return kept
}

// mergeEducation folds near-duplicate education candidates into the more
// complete record, backfilling the fields the survivor is missing.
func mergeEducation(cands []model.Candidate) ([]model.Candidate, int) {
	merged := 0
	removed := make(map[int]bool)

	for i := 0; i < len(cands); i++ {
		a, ok := cands[i].(*model.EducationCandidate)
		if !ok || removed[i] {
			continue
		}
		for j := i + 1; j < len(cands); j++ {
			b, ok := cands[j].(*model.EducationCandidate)
			if !ok || removed[j] {
				continue
			}
			if !sameInstitution(a, b) || !closeYears(a, b) {
				continue
			}
			if completeness(b) > completeness(a) {
				backfill(b, a)
				removed[i] = true
				merged++
				break
			}
			backfill(a, b)
			removed[j] = true
			merged++
		}
	}

	if merged == 0 {
		return cands, 0
	}
	out := make([]model.Candidate, 0, len(cands)-merged)
	for i, c := range cands {
		if !removed[i] {
			out = append(out, c)
		}
	}
	return out, merged
}

func sameInstitution(a, b *model.EducationCandidate) bool {
	sa := textutil.NormalizeForMatching(a.School)
	sb := textutil.NormalizeForMatching(b.School)
	if sa == "" || sb == "" {
		// No institution on one side: fall back to comparing degrees.
		da := textutil.NormalizeForMatching(a.Degree)
		db := textutil.NormalizeForMatching(b.Degree)
		return da != "" && da == db
	}
	if sa == sb {
		return true
	}
	return levenshtein.Distance(sa, sb, nil) <= maxSchoolEditDistance
}

func closeYears(a, b *model.EducationCandidate) bool {
	if a.GraduationYear == 0 || b.GraduationYear == 0 {
		return true
	}
	diff := a.GraduationYear - b.GraduationYear
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}

func completeness(c *model.EducationCandidate) int {
	n := 0
	for _, f := range []string{c.Degree, c.School, c.StartDate, c.EndDate, c.Location} {
		if strings.TrimSpace(f) != "" {
			n++
		}
	}
	if c.GraduationYear != 0 {
		n++
	}
	return n
}

// backfill copies every field the survivor is missing from the record being
// folded in. Confidence keeps the higher of the two.
func backfill(dst, src *model.EducationCandidate) {
	if dst.Degree == "" {
		dst.Degree = src.Degree
	}
	if dst.School == "" {
		dst.School = src.School
	}
	if dst.StartDate == "" {
		dst.StartDate = src.StartDate
	}
	if dst.EndDate == "" {
		dst.EndDate = src.EndDate
	}
	if dst.GraduationYear == 0 {
		dst.GraduationYear = src.GraduationYear
	}
	if dst.Location == "" {
		dst.Location = src.Location
	}
	if src.Confidence > dst.Confidence {
		dst.SetConfidence(src.Confidence)
	}
	dst.AddFlag("merged_duplicate")
}
