package scoring

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/skillprobe/skillprobe/internal/assessment"
	"github.com/skillprobe/skillprobe/internal/promptkit"
)

const (
	defaultDimensionWeight = 0.2
	defaultDimensionScore  = 3
	neutralOverall         = 3
)

type rawDimension struct {
	Name     string   `mapstructure:"name"`
	Score    float64  `mapstructure:"score"`
	Weight   float64  `mapstructure:"weight"`
	Feedback string   `mapstructure:"feedback"`
	Evidence []string `mapstructure:"evidence"`
}

type rawQuestionScore struct {
	Dimensions   []rawDimension `mapstructure:"dimensions"`
	Overall      float64        `mapstructure:"overall_score"`
	Strengths    []string       `mapstructure:"strengths"`
	Improvements []string       `mapstructure:"improvements"`
	RedFlags     []string       `mapstructure:"red_flags"`
	Bonuses      []string       `mapstructure:"bonuses"`
	Feedback     string         `mapstructure:"feedback"`
}

// parseQuestionScore decodes one scoring reply leniently and normalizes it:
// a missing dimension weight becomes 0.2, a missing score becomes 3, and
// scores are clamped to [1,5]. When the reply omits the overall score it is
// computed as the weight-normalized mean of the dimensions, or 3 when the
// weights sum to zero.
func parseQuestionScore(questionID, raw string) (*assessment.QuestionScore, error) {
	cleaned := promptkit.ExtractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse scoring reply: %w", err)
	}

	var doc rawQuestionScore
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build scoring decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode scoring reply: %w", err)
	}

	if len(doc.Dimensions) == 0 && doc.Overall == 0 {
		return nil, fmt.Errorf("scoring reply carries no scores")
	}

	score := &assessment.QuestionScore{
		QuestionID:   questionID,
		Strengths:    cleanList(doc.Strengths),
		Improvements: cleanList(doc.Improvements),
		RedFlags:     cleanList(doc.RedFlags),
		Bonuses:      cleanList(doc.Bonuses),
		Feedback:     strings.TrimSpace(doc.Feedback),
	}

	for _, d := range doc.Dimensions {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}

		weight := d.Weight
		if weight <= 0 {
			weight = defaultDimensionWeight
		} else if weight > 1 {
			weight = 1
		}

		value := d.Score
		if value == 0 {
			value = defaultDimensionScore
		}
		value = clampScore(value)

		score.Dimensions = append(score.Dimensions, assessment.DimensionScore{
			Name:     name,
			Score:    value,
			Weight:   weight,
			Weighted: value * weight,
			Feedback: strings.TrimSpace(d.Feedback),
			Evidence: cleanList(d.Evidence),
		})
	}

	if doc.Overall > 0 {
		score.Overall = clampScore(doc.Overall)
	} else {
		score.Overall = overallFromDimensions(score.Dimensions)
	}

	return score, nil
}

// overallFromDimensions is the weight-normalized mean of dimension scores.
func overallFromDimensions(dims []assessment.DimensionScore) float64 {
	weightTotal := 0.0
	weightedTotal := 0.0
	for _, d := range dims {
		weightTotal += d.Weight
		weightedTotal += d.Weighted
	}
	if weightTotal == 0 {
		return neutralOverall
	}
	return weightedTotal / weightTotal
}

func clampScore(v float64) float64 {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

func cleanList(items []string) []string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		cleaned = append(cleaned, item)
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}
