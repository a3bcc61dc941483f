package types

// FitMatch is a single matched dimension between accepted bullets and a
// JD keyword or requirement.
type FitMatch struct {
	Keyword       string  `json:"keyword"`
	Evidence      string  `json:"evidence"`
	WeightedScore float64 `json:"weighted_score"`
	Strength      float64 `json:"strength"`
}

// Gap is a JD keyword not covered by any accepted bullet.
type Gap struct {
	Keyword       string  `json:"keyword"`
	WeightedScore float64 `json:"weighted_score"`
}

// FitReport is the aggregate measure of how well the accepted bullet set
// covers the parsed job description.
type FitReport struct {
	OverallScore   float64    `json:"overall_score"`
	StrongMatches  []FitMatch `json:"strong_matches"`
	PartialMatches []FitMatch `json:"partial_matches"`
	Gaps           []Gap      `json:"gaps"`
	Recommendation string     `json:"recommendation"`
}
