package v1alpha1

// JobDescriptor is the slice of the parent job the generator needs.
type JobDescriptor struct {
	Trade   string  `json:"trade"`
	JobType string  `json:"jobType"`
	Size    JobSize `json:"size"`
	Notes   string  `json:"notes,omitempty"`
}

// Template is the baseline scope and pricing for a (trade, jobType) pair.
type Template struct {
	Trade            string        `json:"trade"`
	JobType          string        `json:"jobType"`
	ScopeItems       []string      `json:"scopeItems"`
	BasePrice        PriceRange    `json:"basePrice"`
	BaselineDuration DurationRange `json:"baselineDuration"`
	Warranty         string        `json:"warranty,omitempty"`
	Exclusions       string        `json:"exclusions,omitempty"`
}

// UserFactors are the requester's pricing multipliers.
type UserFactors struct {
	PriceMultiplier  float64            `json:"priceMultiplier"`
	TradeMultipliers map[string]float64 `json:"tradeMultipliers,omitempty"`
}

// PhotoDescriptor points at a supporting photo and any prior analysis of it.
// Findings are optional enrichment; generation never waits on them.
type PhotoDescriptor struct {
	URL      string   `json:"url"`
	Kind     string   `json:"kind,omitempty"`
	Findings []string `json:"findings,omitempty"`
}
