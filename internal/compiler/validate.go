package compiler

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/skillprobe/skillprobe/internal/assessment"
)

const (
	minQuestions      = 5
	minSituationRunes = 50
	minPromptRunes    = 20
	minDistinctSkills = 3
)

// bannedPhrases mark scenarios that were not grounded in the researched
// company: generators fall back to them when they ignore the profiles.
var bannedPhrases = []string{"a company", "a customer", "someone"}

// Validate flags quality problems in a compiled assessment. Advisory only:
// callers log the issues and keep the assessment, because a flagged
// assessment is still more useful than none.
func Validate(a *assessment.Assessment) (bool, []string) {
	var issues []string

	if len(a.Questions) < minQuestions {
		issues = append(issues, fmt.Sprintf("assessment has %d questions, want at least %d", len(a.Questions), minQuestions))
	}

	for _, q := range a.Questions {
		if utf8.RuneCountInString(q.Context.Situation) < minSituationRunes {
			issues = append(issues, fmt.Sprintf("question %s: situation text is under %d characters", q.ID, minSituationRunes))
		}
		if len(q.Context.Constraints) == 0 {
			issues = append(issues, fmt.Sprintf("question %s: no constraints", q.ID))
		}
		if utf8.RuneCountInString(q.Prompt) < minPromptRunes {
			issues = append(issues, fmt.Sprintf("question %s: prompt is under %d characters", q.ID, minPromptRunes))
		}
		for _, phrase := range bannedPhrases {
			if questionContains(q, phrase) {
				issues = append(issues, fmt.Sprintf("question %s: generic placeholder %q", q.ID, phrase))
			}
		}
		if len(q.Rubric.Dimensions) == 0 {
			issues = append(issues, fmt.Sprintf("question %s: no rubric dimensions", q.ID))
		}
	}

	if distinct := len(assessment.UnionSkills(a.Questions)); distinct < minDistinctSkills {
		issues = append(issues, fmt.Sprintf("assessment covers %d distinct skills, want at least %d", distinct, minDistinctSkills))
	}

	return len(issues) == 0, issues
}

// questionContains checks the candidate-visible text of one question for a
// phrase, case-insensitively.
func questionContains(q assessment.Question, phrase string) bool {
	texts := []string{q.Context.Role, q.Context.Situation, q.Context.Stakes, q.Prompt}
	texts = append(texts, q.Context.Constraints...)
	for _, text := range texts {
		if strings.Contains(strings.ToLower(text), phrase) {
			return true
		}
	}
	return false
}
