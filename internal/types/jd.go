package types

// Position weights for keywords by the JD section they first appear in.
const (
	WeightTitle            = 1.0
	WeightRequirements     = 0.8
	WeightResponsibilities = 0.6
	WeightAbout            = 0.3
)

// Requirement is a single requirement extracted from a job description.
type Requirement struct {
	Text       string `json:"text"`
	IsRequired bool   `json:"is_required"`
}

// KeywordEntry is a single keyword from the JD, weighted by position and
// frequency. WeightedScore = Frequency * PositionWeight.
type KeywordEntry struct {
	Keyword        string  `json:"keyword"`
	Frequency      int     `json:"frequency"`
	PositionWeight float64 `json:"position_weight"`
	WeightedScore  float64 `json:"weighted_score"`
}

// RoleSignals are high-level signals about the role shape.
type RoleSignals struct {
	IsStartup  bool   `json:"is_startup"`
	IsICFocus  bool   `json:"is_ic_focused"`
	IsResearch bool   `json:"is_research"`
	Seniority  string `json:"seniority"`
}

// ParsedJD is the full structured output of JD parsing. Parsing is
// deterministic: the same jd_text always yields the same ParsedJD.
type ParsedJD struct {
	Title            string         `json:"title"`
	HardRequirements []Requirement  `json:"hard_requirements"`
	SoftSignals      []string       `json:"soft_signals"`
	RoleSignals      RoleSignals    `json:"role_signals"`
	KeywordInventory []KeywordEntry `json:"keyword_inventory"`
	DetectedTone     string         `json:"detected_tone"`
}

// TotalKeywordWeight sums the weighted scores across the keyword inventory.
func (p *ParsedJD) TotalKeywordWeight() float64 {
	var total float64
	for _, k := range p.KeywordInventory {
		total += k.WeightedScore
	}
	return total
}
