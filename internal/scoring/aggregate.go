package scoring

import (
	"math"
	"sort"

	"github.com/skillprobe/skillprobe/internal/assessment"
)

// Tier thresholds on the 0-100 scale. Fixed constants: they are deliberately
// coarser than the continuous score so that scoring noise near a boundary
// does not flip the tier between runs on functionally identical answers.
const (
	tierExceptionalMin = 90
	tierStrongMin      = 75
	tierQualifiedMin   = 60
	tierDevelopingMin  = 45
)

const skillListLimit = 3

// OverallScore maps the mean per-question score (1-5) linearly onto 0-100:
// all 1s yield 0, all 5s yield 100.
func OverallScore(scores []assessment.QuestionScore) int {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s.Overall
	}
	mean := sum / float64(len(scores))
	return int(math.Round((mean - 1) * 25))
}

// TierFor buckets a 0-100 score into its performance tier.
func TierFor(score int) assessment.Tier {
	switch {
	case score >= tierExceptionalMin:
		return assessment.TierExceptional
	case score >= tierStrongMin:
		return assessment.TierStrong
	case score >= tierQualifiedMin:
		return assessment.TierQualified
	case score >= tierDevelopingMin:
		return assessment.TierDeveloping
	default:
		return assessment.TierNotReady
	}
}

// AnalyzeSkills averages each skill tag's question scores and returns the
// top skills (descending) and bottom skills (ascending). A skill tested by
// a single question is still reported; there is no minimum sample size.
func AnalyzeSkills(asmt *assessment.Assessment, scores []assessment.QuestionScore) (strongest, weakest []assessment.SkillReading) {
	type tally struct {
		sum   float64
		count int
	}

	byID := make(map[string]assessment.QuestionScore, len(scores))
	for _, s := range scores {
		byID[s.QuestionID] = s
	}

	tallies := make(map[string]*tally)
	order := make([]string, 0)
	for _, q := range asmt.Questions {
		score, ok := byID[q.ID]
		if !ok {
			continue
		}
		for _, skill := range q.Skills {
			if _, seen := tallies[skill]; !seen {
				tallies[skill] = &tally{}
				order = append(order, skill)
			}
			tallies[skill].sum += score.Overall
			tallies[skill].count++
		}
	}

	readings := make([]assessment.SkillReading, 0, len(order))
	for _, skill := range order {
		t := tallies[skill]
		readings = append(readings, assessment.SkillReading{
			Skill:     skill,
			Average:   t.sum / float64(t.count),
			Questions: t.count,
		})
	}

	sort.SliceStable(readings, func(i, j int) bool {
		if readings[i].Average != readings[j].Average {
			return readings[i].Average > readings[j].Average
		}
		return readings[i].Skill < readings[j].Skill
	})

	top := len(readings)
	if top > skillListLimit {
		top = skillListLimit
	}
	strongest = append(strongest, readings[:top]...)

	bottom := len(readings)
	if bottom > skillListLimit {
		bottom = skillListLimit
	}
	weakest = append(weakest, readings[len(readings)-bottom:]...)
	// Weakest are reported worst first.
	for i, j := 0, len(weakest)-1; i < j; i, j = i+1, j-1 {
		weakest[i], weakest[j] = weakest[j], weakest[i]
	}

	return strongest, weakest
}
