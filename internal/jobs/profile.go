package jobs

// Profile is the candidate side of matching. A nil *Profile means the
// candidate has no profile and ranking falls back to recency only.
type Profile struct {
	Skills         []string     `json:"skills" mapstructure:"skills"`
	Location       string       `json:"location,omitempty" mapstructure:"location"`
	ExpectedSalary string       `json:"expectedSalary,omitempty" mapstructure:"expectedSalary"`
	Headline       string       `json:"headline,omitempty" mapstructure:"headline"`
	Experience     []Experience `json:"experience" mapstructure:"experience"`
	Languages      []string     `json:"languages" mapstructure:"languages"`
}

type Experience struct {
	Title       string `json:"title" mapstructure:"title"`
	Company     string `json:"company" mapstructure:"company"`
	Duration    string `json:"duration" mapstructure:"duration"`
	Description string `json:"description" mapstructure:"description"`
}
