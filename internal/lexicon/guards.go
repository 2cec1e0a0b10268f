package lexicon

import (
	"regexp"
	"strings"
)

// Contamination guards. Contact lines (emails, phones, URLs) must never seed
// an experience candidate or be accepted as an organization value.

var (
	reEmail     = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	reYearRange = regexp.MustCompile(`^\d{4}\s*-\s*\d{4}$`)

	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+\d[\d\s()\-.]{7,19}`),
		regexp.MustCompile(`\b0\d[\d\s\-.]{8,15}\b`),
		regexp.MustCompile(`\(\d{2,4}\)[\s\-.]\d{2,4}[\s\-.]\d{2,4}`),
		regexp.MustCompile(`\b\d{3}[.\-]\d{3}[.\-]\d{4}\b`),
		regexp.MustCompile(`\b\d{2,3}[\s\-.]\d{2,3}[\s\-.]\d{2,3}[\s\-.]\d{2,3}\b`),
	}

	urlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://\S+`),
		regexp.MustCompile(`(?i)www\.\S+`),
		regexp.MustCompile(`(?i)\b[a-zA-Z0-9-]+\.[a-zA-Z]{2,}\b`),
	}

	reCompoundTLD = regexp.MustCompile(`\.[a-z]{2,4}\.[a-z]{2,4}$`)
	reSimpleTLD   = regexp.MustCompile(`\.([a-z]{2,4})$`)

	localPartPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[a-zA-Z]+\.[a-zA-Z]+$`),
		regexp.MustCompile(`^[a-zA-Z]+\d+$`),
		regexp.MustCompile(`^[a-zA-Z]+_[a-zA-Z]+$`),
		regexp.MustCompile(`^[a-zA-Z]+-[a-zA-Z]+$`),
	}

	reDigitsOnly = regexp.MustCompile(`^\d+$`)

	reCEFRLevel = regexp.MustCompile(`\b[abcABC][12]\b`)
)

var commonTLDs = map[string]struct{}{
	"com": {}, "org": {}, "net": {}, "edu": {}, "gov": {}, "mil": {}, "int": {},
	"co": {}, "uk": {}, "ca": {}, "au": {}, "de": {}, "fr": {}, "es": {},
	"it": {}, "nl": {}, "be": {}, "ch": {}, "at": {}, "se": {}, "no": {},
	"dk": {}, "fi": {}, "pl": {}, "ru": {}, "jp": {}, "cn": {}, "kr": {},
	"in": {}, "br": {}, "mx": {}, "ar": {}, "cl": {}, "pe": {},
	"info": {}, "biz": {}, "name": {}, "pro": {}, "tv": {}, "cc": {}, "ws": {}, "io": {},
}

var languageCertKeywords = []string{
	"niveau", "certificat", "certification", "score", "language", "langue",
	"toefl", "toeic", "ielts", "cambridge", "bulats", "first", "cpe", "cae",
	"delf", "dalf", "tcf", "tef", "dele", "siele", "goethe", "testdaf",
	"plida", "cils", "celi", "jlpt", "hsk", "topik", "torfl",
}

var languageLevelTokens = []string{"a1", "a2", "b1", "b2", "c1", "c2"}

// LooksLikeEmail reports whether text contains an email address.
func LooksLikeEmail(text string) bool {
	return reEmail.MatchString(text)
}

// LooksLikePhone reports whether text contains a phone number. Year ranges
// like "2020 - 2023" are not phones.
func LooksLikePhone(text string) bool {
	if reYearRange.MatchString(strings.TrimSpace(text)) {
		return false
	}
	for _, re := range phonePatterns {
		m := re.FindString(text)
		if m == "" {
			continue
		}
		// A match made only of 4-digit groups is a year range, not a phone.
		allYears := true
		for _, part := range regexp.MustCompile(`[\s\-.]+`).Split(m, -1) {
			part = strings.TrimSpace(part)
			if part == "" || !reDigitsOnly.MatchString(part) {
				continue
			}
			if len(part) != 4 {
				allYears = false
				break
			}
		}
		if allYears {
			continue
		}
		return true
	}
	return false
}

// LooksLikeURLOrDomain reports whether text contains a URL or a bare domain.
func LooksLikeURLOrDomain(text string) bool {
	for _, re := range urlPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// HasTLDSuffix reports whether a single token ends in a common top-level
// domain. Compound country endings (.co.uk) are full domains, also rejected
// by LooksLikeURLOrDomain, so they return false here.
func HasTLDSuffix(text string) bool {
	candidate := strings.ToLower(strings.TrimSpace(text))
	if candidate == "" || strings.Contains(candidate, " ") {
		return false
	}
	if reCompoundTLD.MatchString(candidate) {
		return false
	}
	m := reSimpleTLD.FindStringSubmatch(candidate)
	if m == nil {
		return false
	}
	_, ok := commonTLDs[m[1]]
	return ok
}

// LooksLikeEmailLocalPart reports whether text has the shape of an email
// local part that got separated from its domain (firstname.lastname, name123).
func LooksLikeEmailLocalPart(text string) bool {
	if len(text) < 3 {
		return false
	}
	for _, re := range localPartPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// LooksLikeLanguageCertificate detects language proficiency statements (CEFR
// levels, exam names). The b2b/b2c business shorthands are not CEFR levels.
func LooksLikeLanguageCertificate(text string) bool {
	if text == "" {
		return false
	}
	lowered := strings.ToLower(text)
	lowered = strings.ReplaceAll(lowered, "b2b", "")
	lowered = strings.ReplaceAll(lowered, "b2c", "")

	for _, kw := range languageCertKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	hasLevel := false
	for _, tok := range languageLevelTokens {
		if strings.Contains(lowered, tok) {
			hasLevel = true
			break
		}
	}
	if hasLevel {
		if strings.Contains(lowered, "niveau") {
			return true
		}
		for _, trigger := range []string{"obtention", "score", "certificat", "certificate"} {
			if strings.Contains(lowered, trigger) {
				return true
			}
		}
	}
	return reCEFRLevel.MatchString(strings.ReplaceAll(strings.ReplaceAll(text, "B2B", ""), "B2C", ""))
}

// IsContactLine reports whether a whole line is contact noise (email, phone,
// URL) that must not seed candidates.
func IsContactLine(line string) bool {
	return LooksLikeEmail(line) || LooksLikePhone(line) || LooksLikeURLOrDomain(line)
}

// IsValidOrgValue rejects contamination-shaped organization values.
func IsValidOrgValue(value string) bool {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) < 3 {
		return false
	}
	if LooksLikeEmail(trimmed) || strings.Contains(trimmed, "@") {
		return false
	}
	if LooksLikeURLOrDomain(trimmed) || HasTLDSuffix(trimmed) {
		return false
	}
	if !strings.Contains(trimmed, " ") && LooksLikeEmailLocalPart(trimmed) {
		return false
	}
	return true
}
