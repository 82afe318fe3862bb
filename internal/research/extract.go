package research

import (
	"regexp"
	"strings"

	"github.com/skillprobe/skillprobe/internal/assessment"
)

// companyNamePatterns match the usual ways postings introduce the employer.
// The capture group is a run of capitalized words.
var companyNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^(?:About|ABOUT)\s+([A-Z][\w&.-]*(?:\s+[A-Z][\w&.-]*){0,3})`),
	regexp.MustCompile(`(?m)^([A-Z][\w&.-]*(?:\s+[A-Z][\w&.-]*){0,3})\s+is\s+(?:hiring|looking|seeking|building|on a mission)`),
	regexp.MustCompile(`(?:^|\s)(?:at|At)\s+([A-Z][\w&.-]*(?:\s+[A-Z][\w&.-]*){0,3})`),
	regexp.MustCompile(`(?:^|\s)(?:join|Join)\s+([A-Z][\w&.-]*(?:\s+[A-Z][\w&.-]*){0,3})`),
}

// trailingNoise are capitalized words that commonly follow a company name in
// running text and get swept into the capture.
var trailingNoise = map[string]bool{
	"We":   true,
	"Our":  true,
	"You":  true,
	"Your": true,
	"The":  true,
	"As":   true,
	"In":   true,
	"To":   true,
	"Us":   true,
	"Team": true,
}

// ExtractCompanyName pulls an employer name out of free job posting text.
// Returns an empty string when no pattern matches.
func ExtractCompanyName(jobText string) string {
	for _, pattern := range companyNamePatterns {
		match := pattern.FindStringSubmatch(jobText)
		if match == nil {
			continue
		}

		words := strings.Fields(match[1])
		for len(words) > 0 && trailingNoise[words[len(words)-1]] {
			words = words[:len(words)-1]
		}
		name := strings.Trim(strings.Join(words, " "), ".,-")
		if len(name) >= 2 && len(name) <= 60 {
			return name
		}
	}
	return ""
}

// roleTitlePatterns match the usual ways postings announce the position.
var roleTitlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^(?:job title|position|role)\s*[:\-]\s*(.{2,80})$`),
	regexp.MustCompile(`(?i)(?:hiring|looking for|seeking)\s+an?\s+(.{2,80}?)(?:\s+to\b|\s+who\b|[.,\n])`),
	regexp.MustCompile(`(?i)\bas\s+(?:an?|our)\s+(.{2,80}?)(?:\s+you\b|[.,\n])`),
}

func extractRoleTitle(jobText string) string {
	for _, pattern := range roleTitlePatterns {
		match := pattern.FindStringSubmatch(jobText)
		if match == nil {
			continue
		}
		title := strings.TrimSpace(strings.Trim(match[1], ".,:;-"))
		if len(title) >= 2 && len(title) <= 80 {
			return title
		}
	}

	// The first short line is often just the title.
	for _, line := range strings.Split(jobText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) <= 60 && !strings.ContainsAny(line, ".!?") {
			return line
		}
		break
	}

	return ""
}

// categoryKeywords map posting vocabulary to a role category. Checked in
// order; first hit wins.
var categoryKeywords = []struct {
	category assessment.RoleCategory
	words    []string
}{
	{assessment.CategoryCustomerSuccess, []string{"customer success", "customer support", "support engineer", "account health", "onboarding specialist"}},
	{assessment.CategorySales, []string{"account executive", "sales", "quota", "pipeline", "business development", "prospecting"}},
	{assessment.CategoryProduct, []string{"product manager", "product owner", "roadmap", "product discovery"}},
	{assessment.CategoryMarketing, []string{"marketing", "content", "brand", "seo", "demand generation", "campaigns"}},
	{assessment.CategoryEngineering, []string{"engineer", "developer", "software", "backend", "frontend", "devops", "infrastructure"}},
	{assessment.CategoryPeople, []string{"recruiter", "talent", "people operations", "human resources", "hr business partner"}},
	{assessment.CategoryFinance, []string{"finance", "accounting", "controller", "fp&a", "treasury"}},
	{assessment.CategoryOperations, []string{"operations", "logistics", "supply chain", "bizops", "chief of staff"}},
}

func inferCategory(title, jobText string) assessment.RoleCategory {
	haystack := strings.ToLower(title + "\n" + jobText)
	for _, entry := range categoryKeywords {
		for _, word := range entry.words {
			if strings.Contains(haystack, word) {
				return entry.category
			}
		}
	}
	return assessment.CategoryGeneral
}

// extractRoleLocally derives a role profile from the posting text alone,
// used when the employer came from the known table and no extraction call
// is made.
func extractRoleLocally(jobText string) (assessment.RoleProfile, []string) {
	title := extractRoleTitle(jobText)

	role := assessment.RoleProfile{
		Title:     title,
		Category:  inferCategory(title, jobText),
		Seniority: assessment.ParseSeniority(title),
	}

	defaulted := fillRoleDefaults(&role)
	return role, defaulted
}
