package ats

import (
	"math"
	"sort"
)

// Overall score weights; they sum to 1.0.
const (
	weightKeywords   = 0.25
	weightSkills     = 0.35
	weightExperience = 0.20
	weightFormat     = 0.10
	weightEducation  = 0.10
)

// Skills-alignment weights between required and preferred skills.
const (
	weightRequiredSkills  = 0.7
	weightPreferredSkills = 0.3
)

const (
	// yearGapPenalty is subtracted per year of distance between resume
	// years and the job's target years.
	yearGapPenalty = 10.0
	// experienceFloor is the lowest experience score a known gap can reach.
	experienceFloor = 40.0
	// neutralScore applies when experience or education data is unknown:
	// unknown data is not penalized, but not rewarded either.
	neutralScore = 70.0

	educationExactScore    = 100.0
	educationOneBelowScore = 60.0
	educationTwoBelowScore = 40.0

	formatChecks     = 6
	minSkillListSize = 5
)

// Score computes the ATS compatibility result for a resume and a job posting.
// It never fails: absent or malformed fields fall back to empty sets, neutral
// scores, or unknown sentinels. Inputs are read-only.
func Score(resume ResumeData, job JobPostingData) Result {
	resumeSkills := SkillSet(resume["skills"])
	requiredSkills := SkillSet(job["required_skills"])
	preferredSkills := SkillSet(job["preferred_skills"])

	requiredMatched, requiredMissing := splitMatches(requiredSkills, resumeSkills)
	preferredMatched, preferredMissing := splitMatches(preferredSkills, resumeSkills)

	requiredPct := matchPercentage(len(requiredMatched), len(requiredSkills))
	preferredPct := matchPercentage(len(preferredMatched), len(preferredSkills))
	skillsScore := combineSkillScores(requiredPct, preferredPct, len(requiredSkills), len(preferredSkills))

	keywordsMatched, keywordsTotal := keywordCoverage(job, resumeSkills)
	keywordsScore := matchPercentage(keywordsMatched, keywordsTotal)

	resumeYears := ParseYears(resume["years_of_experience"])
	targetYears := TargetExperienceYears(stringField(job, "experience_level"))
	experienceScore := scoreExperience(resumeYears, targetYears)

	formatScore := scoreFormat(resume, len(resumeSkills), resumeYears)
	educationScore := scoreEducation(
		EducationRank(stringField(resume, "education")),
		EducationRank(stringField(job, "education")),
	)

	overall := keywordsScore*weightKeywords +
		skillsScore*weightSkills +
		experienceScore*weightExperience +
		formatScore*weightFormat +
		educationScore*weightEducation

	return Result{
		ATSScore: roundPct(overall),
		ScoreBreakdown: Breakdown{
			KeywordsMatch: KeywordsScore{
				Percentage:    roundPct(keywordsScore),
				Matched:       keywordsMatched,
				TotalKeywords: keywordsTotal,
			},
			SkillsAlignment: PercentScore{Percentage: roundPct(skillsScore)},
			ExperienceRelevance: ExperienceScore{
				Percentage:  roundPct(experienceScore),
				ResumeYears: resumeYears,
				TargetYears: targetYears,
			},
			FormatStructure: PercentScore{Percentage: roundPct(formatScore)},
			EducationMatch:  PercentScore{Percentage: roundPct(educationScore)},
		},
		RequiredSkillsMatch: RequiredMatch{
			Matched:         requiredMatched,
			TotalRequired:   len(requiredSkills),
			MatchPercentage: roundPct(requiredPct),
		},
		PreferredSkillsMatch: PreferredMatch{
			Matched:         preferredMatched,
			TotalPreferred:  len(preferredSkills),
			MatchPercentage: roundPct(preferredPct),
		},
		MissingSkills: MissingSkills{
			Required:  requiredMissing,
			Preferred: preferredMissing,
		},
		ResumeSkills: sortedKeys(resumeSkills),
		JobRequirements: JobRequirements{
			RequiredSkills:  sortedKeys(requiredSkills),
			PreferredSkills: sortedKeys(preferredSkills),
		},
	}
}

// combineSkillScores blends required and preferred match percentages.
// When one category is absent from the posting its weight shifts to the
// other, so a perfect match against the only listed category scores 100.
// Both absent scores 0.
func combineSkillScores(requiredPct, preferredPct float64, requiredCount, preferredCount int) float64 {
	switch {
	case requiredCount == 0 && preferredCount == 0:
		return 0
	case preferredCount == 0:
		return requiredPct
	case requiredCount == 0:
		return preferredPct
	default:
		return requiredPct*weightRequiredSkills + preferredPct*weightPreferredSkills
	}
}

// keywordCoverage counts resume hits across the union of every keyword
// category the job posting carries.
func keywordCoverage(job JobPostingData, resumeSkills map[string]struct{}) (matched, total int) {
	universe := make(map[string]struct{})
	for _, key := range []string{"required_skills", "preferred_skills", "technologies", "soft_skills"} {
		for kw := range SkillSet(job[key]) {
			universe[kw] = struct{}{}
		}
	}
	for kw := range universe {
		if _, ok := resumeSkills[kw]; ok {
			matched++
		}
	}
	return matched, len(universe)
}

func scoreExperience(resumeYears, targetYears *float64) float64 {
	if resumeYears == nil || targetYears == nil {
		return neutralScore
	}
	gap := math.Abs(*resumeYears - *targetYears)
	return clamp(100-yearGapPenalty*gap, experienceFloor, 100)
}

func scoreFormat(resume ResumeData, skillCount int, resumeYears *float64) float64 {
	checks := []bool{
		stringField(resume, "full_name") != "",
		stringField(resume, "email") != "",
		stringField(resume, "current_title") != "",
		skillCount >= minSkillListSize,
		stringField(resume, "education") != "",
		resumeYears != nil,
	}
	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}
	return float64(passed) / formatChecks * 100
}

func scoreEducation(resumeRank, jobRank int) float64 {
	if resumeRank == EducationUnknown || jobRank == EducationUnknown {
		return neutralScore
	}
	switch {
	case resumeRank >= jobRank:
		return educationExactScore
	case jobRank-resumeRank == 1:
		return educationOneBelowScore
	default:
		return educationTwoBelowScore
	}
}

func splitMatches(jobSkills, resumeSkills map[string]struct{}) (matched, missing []string) {
	matched = make([]string, 0, len(jobSkills))
	missing = make([]string, 0, len(jobSkills))
	for skill := range jobSkills {
		if _, ok := resumeSkills[skill]; ok {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}
	sort.Strings(matched)
	sort.Strings(missing)
	return matched, missing
}

func matchPercentage(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total) * 100
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundPct(v float64) int {
	return int(math.Round(v))
}
