package llm

import (
	_ "embed"
	"strings"
)

var (
	//go:embed prompts/resume_extract.txt
	resumeExtractTemplate string
	//go:embed prompts/job_posting_extract.txt
	jobPostingExtractTemplate string
	//go:embed prompts/cover_letter.txt
	coverLetterTemplate string
)

// DefaultResumeFields are the resume fields extraction asks the model for.
var DefaultResumeFields = []string{
	"full_name",
	"email",
	"phone",
	"years_of_experience",
	"current_title",
	"skills",
	"education",
	"certifications",
	"notable_projects",
}

// DefaultJobPostingFields are the job posting fields extraction asks the model for.
var DefaultJobPostingFields = []string{
	"job_title",
	"company",
	"location",
	"required_skills",
	"preferred_skills",
	"technologies",
	"soft_skills",
	"experience_level",
	"education",
	"responsibilities",
}

// ResumeExtractionPrompt renders the resume extraction instructions.
func ResumeExtractionPrompt() string {
	return renderFields(resumeExtractTemplate, DefaultResumeFields)
}

// JobPostingExtractionPrompt renders the job posting extraction instructions.
func JobPostingExtractionPrompt() string {
	return renderFields(jobPostingExtractTemplate, DefaultJobPostingFields)
}

// CoverLetterPrompt renders the cover letter instructions for the given tone
// and length. Empty values fall back to "professional" and "medium".
func CoverLetterPrompt(tone, length string) string {
	if strings.TrimSpace(tone) == "" {
		tone = "professional"
	}
	if strings.TrimSpace(length) == "" {
		length = "medium"
	}
	replacer := strings.NewReplacer(
		"{{TONE}}", tone,
		"{{LENGTH}}", length,
	)
	return replacer.Replace(coverLetterTemplate)
}

func renderFields(template string, fields []string) string {
	return strings.ReplaceAll(template, "{{FIELDS}}", strings.Join(fields, ", "))
}
