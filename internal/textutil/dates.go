package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

// Date token recognizers, compiled once. These back both the tri-signal
// date detection and the date-anchored generator, so both see the same
// notion of "a date".
var (
	reYear        = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	reMonthYear   = regexp.MustCompile(`\b\d{1,2}/\d{4}\b`)
	reFullDate    = regexp.MustCompile(`\b\d{1,2}/\d{2}/\d{4}\b`)
	reMonthNameEN = regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{4}\b`)
	reMonthNameFR = regexp.MustCompile(`(?i)\b(?:janvier|fevrier|février|mars|avril|mai|juin|juillet|aout|août|septembre|octobre|novembre|decembre|décembre)\s+\d{4}\b`)

	dateTokenPatterns = []*regexp.Regexp{
		reFullDate, reMonthYear, reMonthNameEN, reMonthNameFR, reYear,
	}
)

// Date-range recognizers, ordered from most to least specific. The first
// match wins.
var (
	reRangeYears   = regexp.MustCompile(`\b((?:19|20)\d{2})\s*[-–—]\s*((?:19|20)\d{2})\b`)
	reRangeOngoing = regexp.MustCompile(`(?i)\b((?:19|20)\d{2})\s*[-–—]\s*(present|current|aujourd hui|aujourd'hui|actuel(?:lement)?)\b`)
	reRangeMonths  = regexp.MustCompile(`\b(\d{1,2}/\d{4})\s*[-–—]\s*(\d{1,2}/\d{4})\b`)
	reSince        = regexp.MustCompile(`(?i)\b(?:depuis|since)\s+((?:19|20)\d{2})\b`)
)

// Timeline connector tokens. Counted alongside date tokens when measuring
// timeline density.
var timelineConnectors = map[string]struct{}{
	"to": {}, "from": {}, "until": {}, "depuis": {},
	"→": {}, "▶": {}, "►": {}, "-": {}, "–": {}, "—": {},
}

// HasDateToken reports whether the line contains any recognizable date token.
func HasDateToken(line string) bool {
	for _, re := range dateTokenPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// FindDateTokens returns every date token in the line, most specific
// patterns first, without de-duplicating overlaps.
func FindDateTokens(line string) []string {
	var out []string
	for _, re := range dateTokenPatterns {
		out = append(out, re.FindAllString(line, -1)...)
	}
	return out
}

// DateRange is the result of range extraction from a line of text.
type DateRange struct {
	Start   string
	End     string
	Current bool
}

// ExtractDateRange pulls the most specific date range out of the text.
// Returns ok=false when no date of any kind is present.
func ExtractDateRange(text string) (DateRange, bool) {
	if m := reRangeYears.FindStringSubmatch(text); m != nil {
		return DateRange{Start: m[1], End: m[2]}, true
	}
	if m := reRangeOngoing.FindStringSubmatch(text); m != nil {
		return DateRange{Start: m[1], Current: true}, true
	}
	if m := reRangeMonths.FindStringSubmatch(text); m != nil {
		return DateRange{Start: m[1], End: m[2]}, true
	}
	if m := reSince.FindStringSubmatch(text); m != nil {
		return DateRange{Start: m[1], Current: true}, true
	}
	if m := reYear.FindString(text); m != "" {
		return DateRange{Start: m}, true
	}
	return DateRange{}, false
}

// YearOf extracts the first plausible year from a date string, or 0.
func YearOf(date string) int {
	m := reYear.FindString(date)
	if m == "" {
		return 0
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return y
}

// TimelineTokenCounts returns (timelineTokens, totalTokens) for one line.
// Timeline tokens are date tokens plus range connectors and arrow glyphs.
func TimelineTokenCounts(line string) (timeline, total int) {
	tokens := strings.Fields(line)
	total = len(tokens)
	for _, tok := range tokens {
		if reYear.MatchString(tok) || reMonthYear.MatchString(tok) {
			timeline++
			continue
		}
		if _, ok := timelineConnectors[strings.ToLower(tok)]; ok {
			timeline++
		}
	}
	timeline += len(reRangeYears.FindAllString(line, -1))
	timeline += len(reRangeMonths.FindAllString(line, -1))
	return timeline, total
}
