// Package lexicon holds the closed keyword sets and compiled patterns the
// gating stages match against. A Lexicon is built once per engine and shared
// read-only by every stage; nothing here mutates after New.
package lexicon

import (
	"regexp"
	"strings"

	"github.com/talentsift/cvgate/internal/textutil"
)

// schoolTokens marks academic institutions. French-first, with the usual
// grande-école acronyms.
var schoolTokens = []string{
	"école", "ecole", "lycée", "lycee", "université", "universite",
	"faculté", "iut", "bts", "epsaa", "insa", "ensta", "ens",
	"polytech", "isfac", "isep", "isima", "utc", "utbm", "utcl",
	"grande école", "grande ecole", "supelec", "ensam", "epitech",
	"supinfo", "efrei", "esme", "esiee", "epita", "iseg", "sorbonne",
}

// employmentKeywords permit an experience reading of the surrounding context.
var employmentKeywords = []string{
	"stage", "stagiaire", "alternance", "apprentissage", "apprenti",
	"cdd", "cdi", "freelance", "indépendant", "mission", "intérim",
	"consultant", "temps plein", "temps partiel", "contrat", "emploi",
	"poste", "salarié", "travail", "job",
	"développeur", "developpeur", "équipe", "equipe",
}

// actionVerbs are the French action verbs that mark legitimate experience
// bullet lines, in both accented and folded spellings.
var actionVerbs = []string{
	"développé", "developpe", "conçu", "concu", "implémenté", "implemente",
	"géré", "gere", "piloté", "pilote", "assuré", "assure", "réalisé", "realise",
	"analysé", "analyse", "optimisé", "optimise", "maintenu", "industrialisé",
	"industrialise", "documenté", "documente", "créé", "cree", "animé", "anime",
	"coordonné", "coordonne", "supervisé", "supervise", "encadré", "encadre",
	"formé", "forme", "participé", "participe", "collaboré", "collabore",
	"amélioré", "ameliore", "rédigé", "redige", "présenté", "presente",
	"négocié", "negocie", "déployé", "deploye", "testé", "teste",
}

var orgPrefixes = []string{
	"université", "université de", "école", "école de", "institut", "centre",
	"laboratoire", "hôpital", "chu", "mairie", "ville de", "région",
	"groupe", "société", "compagnie", "entreprise", "cabinet", "bureau",
	"studio", "agence", "conseil", "consulting",
}

var legalSuffixes = []string{
	"sarl", "sas", "sasu", "sa", "s.a.", "eurl", "sci", "snc",
	"ltd", "inc", "corp", "llc", "gmbh", "ag", "bv", "ab",
	"co", "company", "corporation", "limited", "incorporated",
}

// educationHeaders are the section headers that trigger the kill-radius
// guard. Matched uppercased, substring.
var educationHeaders = []string{
	"FORMATION", "ÉDUCATION", "EDUCATION", "DIPLÔMES", "DIPLOMES",
	"ÉTUDES", "ETUDES", "ACADEMIC", "ACADEMICS", "SCHOOLING",
	"DEGREE", "DEGREES", "QUALIFICATION", "QUALIFICATIONS",
}

// roleIndicators are the closed role-noun set used by the tri-signal role
// detection. Matched on the folded form.
var roleIndicators = []string{
	"developer", "engineer", "manager", "analyst", "consultant",
	"developpeur", "ingenieur", "responsable", "chef", "directeur",
}

// orgIndicators are the inline organization signals for tri-signal scanning.
var orgIndicators = []string{
	"chez", "at", "company", "corp", "inc", "ltd", "sarl", "sas",
}

// Lexicon exposes every compiled matcher category. Zero-value is unusable;
// always construct with New.
type Lexicon struct {
	schoolTokens       []string
	schoolPatterns     []*regexp.Regexp
	employmentKeywords []string
	actionVerbs        []string
	roleIndicators     []string
	orgIndicators      []string
	orgPrefixes        []string
	legalSuffixes      []string
	educationHeaders   []string
}

// New compiles every lexicon category. Called once at engine construction.
func New() *Lexicon {
	// Folding collapses accented/unaccented spelling pairs to one entry.
	fold := func(in []string) []string {
		seen := make(map[string]struct{}, len(in))
		out := make([]string, 0, len(in))
		for _, s := range in {
			folded := textutil.NormalizeForMatching(s)
			if _, dup := seen[folded]; dup {
				continue
			}
			seen[folded] = struct{}{}
			out = append(out, folded)
		}
		return out
	}

	return &Lexicon{
		schoolTokens: fold(schoolTokens),
		schoolPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:university|universite)\b`),
			regexp.MustCompile(`\b(?:college)\b`),
			regexp.MustCompile(`\b(?:school|ecole)\b`),
			regexp.MustCompile(`\b(?:institute|institut)\b`),
			regexp.MustCompile(`\b(?:academy|academie)\b`),
			regexp.MustCompile(`\b(?:faculty|faculte)\b`),
		},
		employmentKeywords: fold(employmentKeywords),
		actionVerbs:        fold(actionVerbs),
		roleIndicators:     fold(roleIndicators),
		orgIndicators:      fold(orgIndicators),
		orgPrefixes:        fold(orgPrefixes),
		legalSuffixes:      legalSuffixes,
		educationHeaders:   educationHeaders,
	}
}

// IsSchool reports whether the organization name reads as an academic
// institution, with the matched indicators for logging.
func (l *Lexicon) IsSchool(orgName string) (bool, []string) {
	if orgName == "" {
		return false, nil
	}
	folded := textutil.NormalizeForMatching(orgName)
	var indicators []string
	for _, tok := range l.schoolTokens {
		if strings.Contains(folded, tok) {
			indicators = append(indicators, "token:"+tok)
		}
	}
	for _, re := range l.schoolPatterns {
		for _, m := range re.FindAllString(folded, -1) {
			indicators = append(indicators, "pattern:"+m)
		}
	}
	return len(indicators) > 0, indicators
}

// SchoolConfidence returns how confidently the name reads as a school, in
// [0, 1]. More independent indicators raise it.
func (l *Lexicon) SchoolConfidence(orgName string) float64 {
	isSchool, indicators := l.IsSchool(orgName)
	if !isSchool {
		return 0
	}
	conf := 0.7 + float64(len(indicators))*0.1
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}

// EmploymentKeywordsIn returns the employment keywords present in the folded
// line, in lexicon order.
func (l *Lexicon) EmploymentKeywordsIn(line string) []string {
	folded := textutil.NormalizeForMatching(line)
	if folded == "" {
		return nil
	}
	var found []string
	for _, kw := range l.employmentKeywords {
		if strings.Contains(folded, kw) {
			found = append(found, kw)
		}
	}
	return found
}

// ActionVerbsIn returns the action verbs present in the folded line.
func (l *Lexicon) ActionVerbsIn(line string) []string {
	folded := textutil.NormalizeForMatching(line)
	if folded == "" {
		return nil
	}
	var found []string
	for _, v := range l.actionVerbs {
		if strings.HasPrefix(folded, v+" ") || folded == v || strings.Contains(folded, " "+v+" ") || strings.HasSuffix(folded, " "+v) {
			found = append(found, v)
		}
	}
	return found
}

// HasRoleIndicator reports whether the line names a role from the closed set.
func (l *Lexicon) HasRoleIndicator(line string) bool {
	folded := textutil.NormalizeForMatching(line)
	for _, r := range l.roleIndicators {
		if strings.Contains(folded, r) {
			return true
		}
	}
	return false
}

// HasOrgIndicator reports whether the line carries an inline organization
// signal (connector word or legal form).
func (l *Lexicon) HasOrgIndicator(line string) bool {
	folded := textutil.NormalizeForMatching(line)
	for _, ind := range l.orgIndicators {
		if strings.Contains(folded, ind) {
			return true
		}
	}
	return false
}

// IsOrgName reports whether text reads as an organization name: an org
// prefix, a legal suffix, a title-case run, or an org keyword.
func (l *Lexicon) IsOrgName(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 3 {
		return false
	}
	folded := textutil.NormalizeForMatching(trimmed)

	for _, prefix := range l.orgPrefixes {
		if folded == prefix || strings.HasPrefix(folded, prefix+" ") {
			return true
		}
	}
	lowered := strings.ToLower(trimmed)
	for _, suffix := range l.legalSuffixes {
		if lowered == suffix ||
			strings.HasSuffix(lowered, " "+suffix) ||
			strings.HasSuffix(lowered, "."+suffix) ||
			strings.HasSuffix(lowered, ","+suffix) {
			return true
		}
	}

	ratio, words := textutil.TitleCaseRatio(trimmed)
	if words >= 2 && ratio >= 0.6 && float64(words)*ratio >= 2 {
		return true
	}

	for _, kw := range []string{"universite", "ecole", "groupe", "societe", "entreprise", "cabinet",
		"compagnie", "institut", "centre", "laboratoire", "studio", "agence"} {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// EducationHeaderIn returns the education header contained in the line, if
// any. Matching is uppercase substring, as headers appear in resumes.
func (l *Lexicon) EducationHeaderIn(line string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(line))
	if upper == "" {
		return "", false
	}
	for _, h := range l.educationHeaders {
		if strings.Contains(upper, h) {
			return h, true
		}
	}
	return "", false
}
