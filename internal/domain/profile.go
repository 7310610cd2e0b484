package domain

// UnknownValue is the default for string fields the enricher could not fill.
const UnknownValue = "Unknown"

// CandidateProfile holds the structured attributes extracted from a resume.
// Every field has a defined default so a failed enrichment never breaks
// downstream consumers.
type CandidateProfile struct {
	Name            string   `json:"candidate_name"`
	Contact         string   `json:"contact_info"`
	Skills          []string `json:"key_skills"`
	ExperienceYears int      `json:"experience_years"`
	Education       string   `json:"education"`
	Certifications  []string `json:"certifications"`
	RecentTitles    []string `json:"job_titles"`
	Industries      []string `json:"industries"`

	// FailureReason is set when enrichment fell back to defaults.
	FailureReason string `json:"-"`
}

// DefaultProfile returns the all-defaults profile used when enrichment fails
// or is disabled.
func DefaultProfile() CandidateProfile {
	return CandidateProfile{
		Name:           UnknownValue,
		Education:      UnknownValue,
		Skills:         []string{},
		Certifications: []string{},
		RecentTitles:   []string{},
		Industries:     []string{},
	}
}

// Normalize fills zero values with defaults so a partially parsed profile is
// still complete.
func (p *CandidateProfile) Normalize() {
	if p.Name == "" {
		p.Name = UnknownValue
	}
	if p.Education == "" {
		p.Education = UnknownValue
	}
	if p.ExperienceYears < 0 {
		p.ExperienceYears = 0
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Certifications == nil {
		p.Certifications = []string{}
	}
	if p.RecentTitles == nil {
		p.RecentTitles = []string{}
	}
	if p.Industries == nil {
		p.Industries = []string{}
	}
}

// Enriched reports whether any non-default attribute was extracted.
func (p CandidateProfile) Enriched() bool {
	return p.Name != UnknownValue || len(p.Skills) > 0 || p.ExperienceYears > 0 ||
		p.Education != UnknownValue || len(p.Certifications) > 0 ||
		len(p.RecentTitles) > 0 || len(p.Industries) > 0
}
