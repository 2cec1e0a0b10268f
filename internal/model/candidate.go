package model

// Kind identifies the output section a candidate belongs to.
type Kind string

// Candidate kinds. A candidate resolves to exactly one of these.
const (
	KindExperience Kind = "experience"
	KindEducation  Kind = "education"
)

// Strategy tags the generator pattern that produced a candidate.
type Strategy string

// Extraction strategies. Diversity scoring counts usage per strategy.
const (
	StrategyInlineSeparator Strategy = "inline_separator"
	StrategyBulletedAction  Strategy = "bulleted_action"
	StrategyDateAnchored    Strategy = "date_anchored_fallback"
	StrategySectionBlock    Strategy = "section_block"
	StrategyEntityHint      Strategy = "entity_hint"
	StrategyRescueWindow    Strategy = "rescue_sliding_window"
)

// AllStrategies returns every strategy the generator can emit.
func AllStrategies() []Strategy {
	return []Strategy{
		StrategyInlineSeparator,
		StrategyBulletedAction,
		StrategyDateAnchored,
		StrategySectionBlock,
		StrategyEntityHint,
		StrategyRescueWindow,
	}
}

// GenerationStrategies returns the strategies of the primary generation
// phase. Rescue is excluded: it runs after the diversity gate and must not
// widen the entropy denominator.
func GenerationStrategies() []Strategy {
	return []Strategy{
		StrategyInlineSeparator,
		StrategyBulletedAction,
		StrategyDateAnchored,
		StrategySectionBlock,
		StrategyEntityHint,
	}
}

// Base holds the fields shared by every candidate kind. The gating engine
// only ever touches candidates through these fields plus the Candidate
// accessors, so each stage handles both kinds exhaustively.
type Base struct {
	SourceLine int      `json:"source_line_index"`
	Lines      []int    `json:"lines,omitempty"`
	Strategy   Strategy `json:"extraction_strategy"`
	Confidence float64  `json:"confidence"`
	Flags      []string `json:"validation_flags,omitempty"`
	Target     Kind     `json:"target_section"`
}

// AddFlag appends a validation flag tag, ignoring duplicates.
func (b *Base) AddFlag(flag string) {
	for _, f := range b.Flags {
		if f == flag {
			return
		}
	}
	b.Flags = append(b.Flags, flag)
}

// HasFlag reports whether a validation flag is set.
func (b *Base) HasFlag(flag string) bool {
	for _, f := range b.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// SetConfidence assigns confidence, clamped to [0, 1].
func (b *Base) SetConfidence(c float64) {
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	b.Confidence = c
}

// Penalize subtracts a penalty from confidence without going below floor.
func (b *Base) Penalize(penalty, floor float64) {
	c := b.Confidence - penalty
	if c < floor {
		c = floor
	}
	b.SetConfidence(c)
}

// Candidate is the common view the gating stages need over both kinds.
type Candidate interface {
	Kind() Kind
	Meta() *Base
	// Headline returns the title (experience) or degree (education).
	Headline() string
	// Org returns the company (experience) or school (education).
	Org() string
	Dates() (start, end string)
	// Valid reports whether the candidate carries any identifying content.
	// A candidate with neither headline nor organization must never reach
	// output.
	Valid() bool
}

// ExperienceCandidate is a work-experience record before gating.
type ExperienceCandidate struct {
	Base
	Title            string `json:"title"`
	Company          string `json:"company"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	Current          bool   `json:"current,omitempty"`
	Description      string `json:"description,omitempty"`
	HasBulletActions bool   `json:"has_bullet_actions,omitempty"`
}

// NewExperience creates an experience candidate targeting the experience
// section by default.
func NewExperience(strategy Strategy, sourceLine int) *ExperienceCandidate {
	return &ExperienceCandidate{
		Base: Base{
			SourceLine: sourceLine,
			Strategy:   strategy,
			Confidence: 0.5,
			Target:     KindExperience,
		},
	}
}

func (c *ExperienceCandidate) Kind() Kind                   { return KindExperience }
func (c *ExperienceCandidate) Meta() *Base                  { return &c.Base }
func (c *ExperienceCandidate) Headline() string             { return c.Title }
func (c *ExperienceCandidate) Org() string                  { return c.Company }
func (c *ExperienceCandidate) Dates() (start, end string)   { return c.StartDate, c.EndDate }
func (c *ExperienceCandidate) Valid() bool                  { return c.Title != "" || c.Company != "" }

// EducationCandidate is a degree/school record before gating.
type EducationCandidate struct {
	Base
	Degree         string `json:"degree"`
	School         string `json:"school"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	GraduationYear int    `json:"graduation_year,omitempty"`
	Location       string `json:"location,omitempty"`
}

// NewEducation creates an education candidate targeting the education
// section by default.
func NewEducation(strategy Strategy, sourceLine int) *EducationCandidate {
	return &EducationCandidate{
		Base: Base{
			SourceLine: sourceLine,
			Strategy:   strategy,
			Confidence: 0.5,
			Target:     KindEducation,
		},
	}
}

func (c *EducationCandidate) Kind() Kind                 { return KindEducation }
func (c *EducationCandidate) Meta() *Base                { return &c.Base }
func (c *EducationCandidate) Headline() string           { return c.Degree }
func (c *EducationCandidate) Org() string                { return c.School }
func (c *EducationCandidate) Dates() (start, end string) { return c.StartDate, c.EndDate }
func (c *EducationCandidate) Valid() bool                { return c.Degree != "" || c.School != "" }
