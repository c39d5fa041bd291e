package ats

import (
	"regexp"
	"strconv"
	"strings"
)

// Education ranks, highest match wins.
const (
	EducationUnknown   = 0
	EducationBachelor  = 1
	EducationMaster    = 2
	EducationDoctorate = 3
)

var (
	decimalPattern    = regexp.MustCompile(`\d+(?:\.\d+)?`)
	plusYearsPattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*\+?\s*year`)
	doctoratePatterns = []string{"phd", "doctorate"}
	masterPatterns    = []string{"master", "ms", "msc", "ma", "mba"}
	bachelorPatterns  = []string{"bachelor", "bs", "ba", "bsc"}
)

// SkillSet lower-cases a list of skill strings into a set. Absent or
// non-list input yields an empty set. Whitespace and punctuation are kept,
// so matching is case-insensitive but otherwise literal.
func SkillSet(raw any) map[string]struct{} {
	set := make(map[string]struct{})
	for _, item := range stringList(raw) {
		set[strings.ToLower(item)] = struct{}{}
	}
	return set
}

// ParseYears extracts a numeric years-of-experience value. Numbers pass
// through unchanged; strings yield their first decimal number ("5+ years"
// gives 5). Nil means unknown, which is distinct from zero.
func ParseYears(raw any) *float64 {
	switch v := raw.(type) {
	case float64:
		return &v
	case float32:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case string:
		if match := decimalPattern.FindString(v); match != "" {
			return parseFloat(match)
		}
	}
	return nil
}

// EducationRank maps a free-text education string to an ordinal rank.
// The highest-ranked pattern wins: doctorate before master before bachelor.
func EducationRank(raw string) int {
	text := strings.ToLower(raw)
	if containsAny(text, doctoratePatterns) {
		return EducationDoctorate
	}
	if containsAny(text, masterPatterns) {
		return EducationMaster
	}
	if containsAny(text, bachelorPatterns) {
		return EducationBachelor
	}
	return EducationUnknown
}

// TargetExperienceYears infers the expected years of experience from a job's
// free-text experience level. Nil means no heuristic applied.
func TargetExperienceYears(raw string) *float64 {
	text := strings.ToLower(raw)
	switch {
	case containsAny(text, []string{"entry", "junior", "intern"}):
		return floatPtr(1.5)
	case containsAny(text, []string{"mid", "intermediate"}):
		return floatPtr(3.5)
	case containsAny(text, []string{"senior", "sr."}):
		return floatPtr(6)
	case containsAny(text, []string{"lead", "principal", "staff"}):
		return floatPtr(8)
	}
	if m := plusYearsPattern.FindStringSubmatch(text); m != nil {
		return parseFloat(m[1])
	}
	return nil
}

func stringList(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func stringField(record map[string]any, key string) string {
	if record == nil {
		return ""
	}
	if s, ok := record[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func containsAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func parseFloat(s string) *float64 {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &val
}

func floatPtr(v float64) *float64 {
	return &v
}
