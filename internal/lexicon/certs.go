package lexicon

import (
	"strings"

	"github.com/talentsift/cvgate/internal/textutil"
)

// certCanon lists the canonical certification names, folded form.
var certCanon = []string{
	"pix", "toeic", "toefl", "ielts", "cambridge", "voltaire", "mooc",
	"coursera", "openclassrooms", "aws certified", "aws", "azure", "gcp",
	"scrum", "pmi", "prince2", "itil", "cisco", "microsoft", "google",
	"oracle", "comptia", "ceh", "cissp", "pmp", "agile", "safe",
}

// certTypos maps common misspellings to their canonical form, applied before
// canon matching.
var certTypos = map[string]string{
	"tofl":     "toefl",
	"toelf":    "toefl",
	"tofel":    "toefl",
	"toeiff":   "toefl",
	"cambrige": "cambridge",
	"pix.":     "pix",
	"toeic.":   "toeic",
	"ielts.":   "ielts",
	"comptia.": "comptia",
}

// NormalizeCertification returns the canonical certification name contained
// in the text, after typo correction, or "" when none matches.
func NormalizeCertification(text string) string {
	if text == "" {
		return ""
	}
	folded := textutil.NormalizeForMatching(text)
	for typo, correct := range certTypos {
		folded = strings.ReplaceAll(folded, typo, correct)
	}
	for _, canon := range certCanon {
		if strings.Contains(folded, textutil.NormalizeForMatching(canon)) {
			return canon
		}
	}
	return ""
}

// IsCertification reports whether the text names a known certification.
// Certification lines are stop-tags for experience candidate generation.
func IsCertification(text string) bool {
	return NormalizeCertification(text) != ""
}
