package compiler

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/skillprobe/skillprobe/internal/assessment"
	"github.com/skillprobe/skillprobe/internal/planner"
	"github.com/skillprobe/skillprobe/internal/promptkit"
)

// generated is the usable portion of one generation reply.
type generated struct {
	Title       string
	Description string
	Questions   []assessment.Question
}

const defaultDimensionWeight = 0.2

// defaultRubric is substituted when a generated question carries no scoring
// dimensions at all.
func defaultRubric() []assessment.ScoringDimension {
	return []assessment.ScoringDimension{
		{Name: assessment.DimensionRelevance, Weight: 0.25},
		{Name: assessment.DimensionJudgment, Weight: 0.25},
		{Name: assessment.DimensionCommunication, Weight: 0.2},
		{Name: assessment.DimensionExecution, Weight: 0.2},
		{Name: assessment.DimensionCompanyFit, Weight: 0.1},
	}
}

// parseGenerated extracts the first JSON structure from the reply and
// normalizes every question into the strict shape, substituting a default
// for each missing sub-field. planned supplies the per-index archetype
// fallback.
func parseGenerated(raw string, planned []assessment.Archetype, role assessment.RoleProfile) (*generated, error) {
	cleaned := promptkit.ExtractJSON(raw)
	if !gjson.Valid(cleaned) {
		return nil, fmt.Errorf("reply contains no valid JSON")
	}

	root := gjson.Parse(cleaned)
	items := root.Get("questions")
	if !items.IsArray() {
		// Some models reply with the bare question array.
		if root.IsArray() {
			items = root
		} else {
			return nil, fmt.Errorf("reply contains no questions array")
		}
	}

	rawQuestions := items.Array()
	if len(rawQuestions) == 0 {
		return nil, fmt.Errorf("reply contains an empty questions array")
	}

	questions := make([]assessment.Question, 0, len(rawQuestions))
	for i, item := range rawQuestions {
		questions = append(questions, normalizeQuestion(i, item, planned, role))
	}

	return &generated{
		Title:       strings.TrimSpace(root.Get("title").String()),
		Description: strings.TrimSpace(root.Get("description").String()),
		Questions:   questions,
	}, nil
}

func normalizeQuestion(index int, item gjson.Result, planned []assessment.Archetype, role assessment.RoleProfile) assessment.Question {
	q := assessment.Question{
		ID:           strings.TrimSpace(item.Get("id").String()),
		Prompt:       strings.TrimSpace(item.Get("prompt").String()),
		AnswerFormat: strings.TrimSpace(item.Get("answer_format").String()),
		Rationale:    strings.TrimSpace(item.Get("rationale").String()),
		Skills:       stringList(item.Get("skills")),
	}

	if q.ID == "" {
		q.ID = fmt.Sprintf("q%d", index+1)
	}

	if archetype, ok := assessment.ParseArchetype(item.Get("archetype").String()); ok {
		q.Archetype = archetype
	} else {
		q.Archetype = plannedArchetype(planned, index)
	}

	q.Context = assessment.QuestionContext{
		Role:        strings.TrimSpace(item.Get("context.role").String()),
		Situation:   strings.TrimSpace(item.Get("context.situation").String()),
		Constraints: stringList(item.Get("context.constraints")),
		Stakes:      strings.TrimSpace(item.Get("context.stakes").String()),
	}
	if q.Context.Role == "" {
		q.Context.Role = role.Title
	}

	if q.AnswerFormat == "" {
		q.AnswerFormat = "written response"
	}

	q.TimeGuidanceMin = int(item.Get("time_guidance_minutes").Int())
	if q.TimeGuidanceMin <= 0 {
		q.TimeGuidanceMin = planner.Minutes(q.Archetype)
	}

	q.Rubric = assessment.Rubric{
		Dimensions: dimensionList(item.Get("rubric.dimensions")),
		RedFlags:   stringList(item.Get("rubric.red_flags")),
		Bonuses:    stringList(item.Get("rubric.bonuses")),
	}
	if len(q.Rubric.Dimensions) == 0 {
		q.Rubric.Dimensions = defaultRubric()
	}

	return q
}

func plannedArchetype(planned []assessment.Archetype, index int) assessment.Archetype {
	if len(planned) == 0 {
		return assessment.ArchetypeAnalysisCase
	}
	if index >= len(planned) {
		return planned[len(planned)-1]
	}
	return planned[index]
}

// stringList collects non-empty strings from a JSON array. A bare scalar
// counts as a one-element list, which keeps replies that collapse a list
// into a single string usable.
func stringList(items gjson.Result) []string {
	if !items.Exists() {
		return nil
	}
	var out []string
	items.ForEach(func(_, value gjson.Result) bool {
		s := strings.TrimSpace(value.String())
		if s != "" {
			out = append(out, s)
		}
		return true
	})
	return out
}

func dimensionList(items gjson.Result) []assessment.ScoringDimension {
	var out []assessment.ScoringDimension
	items.ForEach(func(_, value gjson.Result) bool {
		name := strings.TrimSpace(value.Get("name").String())
		if name == "" {
			return true
		}
		weight := value.Get("weight").Float()
		if weight <= 0 || weight > 1 {
			weight = defaultDimensionWeight
		}
		out = append(out, assessment.ScoringDimension{Name: name, Weight: weight})
		return true
	})
	return out
}
