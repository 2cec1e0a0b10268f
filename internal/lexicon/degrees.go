package lexicon

import (
	"regexp"

	"github.com/talentsift/cvgate/internal/textutil"
)

// degreePatterns recognize diploma levels, folded form. French-first with
// the common international equivalents.
var degreePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(licence|bachelor|bac\+3)\b`),
	regexp.MustCompile(`\b(master|maitrise|bac\+5|m[12])\b`),
	regexp.MustCompile(`\b(doctorat|phd|doctorate|bac\+8)\b`),
	regexp.MustCompile(`\b(dut|but|bts|iut)\b`),
	regexp.MustCompile(`\b(ingenieur|engineer|diplome d ingenieur)\b`),
	regexp.MustCompile(`\b(mba|executive)\b`),
	regexp.MustCompile(`\b(cap|bep|bac|baccalaureat)\b`),
}

// HasDegreeToken reports whether the text names a diploma level.
func HasDegreeToken(text string) bool {
	folded := textutil.NormalizeForMatching(text)
	if folded == "" {
		return false
	}
	for _, re := range degreePatterns {
		if re.MatchString(folded) {
			return true
		}
	}
	return false
}
