// Package ats computes a deterministic compatibility score between a parsed
// resume and a parsed job posting. All inputs are treated as optional and
// partial; missing or malformed fields degrade sub-scores instead of failing.
package ats

// ResumeData is the raw LLM-extracted resume record. Fields may be absent,
// null, or of an unexpected type.
type ResumeData map[string]any

// JobPostingData is the raw LLM-extracted job posting record.
type JobPostingData map[string]any

// Result is the outcome of a single scoring run. It is immutable once built.
type Result struct {
	ATSScore             int             `json:"ats_score"`
	ScoreBreakdown       Breakdown       `json:"score_breakdown"`
	RequiredSkillsMatch  RequiredMatch   `json:"required_skills_match"`
	PreferredSkillsMatch PreferredMatch  `json:"preferred_skills_match"`
	MissingSkills        MissingSkills   `json:"missing_skills"`
	ResumeSkills         []string        `json:"resume_skills"`
	JobRequirements      JobRequirements `json:"job_requirements"`
}

// Breakdown holds the five weighted sub-scores, each a 0-100 integer.
type Breakdown struct {
	KeywordsMatch       KeywordsScore   `json:"keywords_match"`
	SkillsAlignment     PercentScore    `json:"skills_alignment"`
	ExperienceRelevance ExperienceScore `json:"experience_relevance"`
	FormatStructure     PercentScore    `json:"format_structure"`
	EducationMatch      PercentScore    `json:"education_match"`
}

// KeywordsScore reports keyword coverage over the job's full keyword universe.
type KeywordsScore struct {
	Percentage    int `json:"percentage"`
	Matched       int `json:"matched"`
	TotalKeywords int `json:"total_keywords"`
}

// PercentScore is a bare percentage sub-score.
type PercentScore struct {
	Percentage int `json:"percentage"`
}

// ExperienceScore reports the experience sub-score with the years it compared.
// Nil years mean the value could not be determined from the input.
type ExperienceScore struct {
	Percentage  int      `json:"percentage"`
	ResumeYears *float64 `json:"resume_years"`
	TargetYears *float64 `json:"target_years"`
}

// RequiredMatch reports required-skill coverage, kept for older consumers.
type RequiredMatch struct {
	Matched         []string `json:"matched"`
	TotalRequired   int      `json:"total_required"`
	MatchPercentage int      `json:"match_percentage"`
}

// PreferredMatch reports preferred-skill coverage, kept for older consumers.
type PreferredMatch struct {
	Matched         []string `json:"matched"`
	TotalPreferred  int      `json:"total_preferred"`
	MatchPercentage int      `json:"match_percentage"`
}

// MissingSkills lists job skills absent from the resume skill set.
type MissingSkills struct {
	Required  []string `json:"required"`
	Preferred []string `json:"preferred"`
}

// JobRequirements echoes the normalized job skill sets used for matching.
type JobRequirements struct {
	RequiredSkills  []string `json:"required_skills"`
	PreferredSkills []string `json:"preferred_skills"`
}
