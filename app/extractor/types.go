package extractor

// Opening is one structured job posting extracted from a video.
type Opening struct {
	Company        string   `json:"company"`
	Role           string   `json:"role"`
	EmploymentType string   `json:"employmentType"`
	WorkMode       string   `json:"workMode"`
	Duration       *string  `json:"duration"`
	Location       string   `json:"location"`
	RequiredSkills []string `json:"requiredSkills"`
	ApplyLink      string   `json:"applyLink"`
	Summary        string   `json:"summary"`
}

// Result is the extractor's judgment for one video.
type Result struct {
	IsJobVideo bool      `json:"isJobVideo"`
	Openings   []Opening `json:"openings"`
}
