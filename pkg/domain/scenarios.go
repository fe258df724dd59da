package domain

// Scenarios holds the operator-configured phrase lists used for sentiment
// assessment. Critical concerns always dominate: any critical phrase in a
// text forces a negative classification regardless of positive matches.
type Scenarios struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
	Critical []string `yaml:"critical"`
}

// Indicators lists which configured scenario phrases fired during scoring,
// kept for auditability
type Indicators struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
	Critical []string `json:"critical"`
}

// Empty reports whether no phrase fired at all
func (i Indicators) Empty() bool {
	return len(i.Positive) == 0 && len(i.Negative) == 0 && len(i.Critical) == 0
}

// Flatten returns all fired phrases tagged with their scenario kind
func (i Indicators) Flatten() []string {
	out := make([]string, 0, len(i.Positive)+len(i.Negative)+len(i.Critical))
	for _, p := range i.Critical {
		out = append(out, "critical:"+p)
	}
	for _, p := range i.Negative {
		out = append(out, "negative:"+p)
	}
	for _, p := range i.Positive {
		out = append(out, "positive:"+p)
	}
	return out
}
