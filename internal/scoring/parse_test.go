package scoring

import (
	"testing"
)

func TestParseQuestionScoreNormalizesDimensions(t *testing.T) {
	raw := `{"dimensions": [
		{"name": "relevance", "score": 7, "weight": 0.5},
		{"name": "judgment", "weight": 0.5},
		{"name": "communication", "score": 4},
		{"name": "", "score": 2, "weight": 0.3}
	]}`

	score, err := parseQuestionScore("q1", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if score.QuestionID != "q1" {
		t.Fatalf("unexpected question id: %s", score.QuestionID)
	}

	dims := score.Dimensions
	if len(dims) != 3 {
		t.Fatalf("expected the nameless dimension to be dropped, got %d dimensions", len(dims))
	}

	if dims[0].Score != 5 {
		t.Fatalf("expected out-of-range score to clamp to 5, got %v", dims[0].Score)
	}

	if dims[1].Score != defaultDimensionScore {
		t.Fatalf("expected missing score to default to %d, got %v", defaultDimensionScore, dims[1].Score)
	}

	if dims[2].Weight != defaultDimensionWeight {
		t.Fatalf("expected missing weight to default to %v, got %v", defaultDimensionWeight, dims[2].Weight)
	}

	if dims[0].Weighted != dims[0].Score*dims[0].Weight {
		t.Fatalf("expected weighted contribution %v, got %v", dims[0].Score*dims[0].Weight, dims[0].Weighted)
	}
}

func TestParseQuestionScoreComputesWeightedOverall(t *testing.T) {
	raw := `{"dimensions": [
		{"name": "relevance", "score": 5, "weight": 0.75},
		{"name": "judgment", "score": 1, "weight": 0.25}
	]}`

	score, err := parseQuestionScore("q1", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// (5*0.75 + 1*0.25) / 1.0 = 4.0
	if score.Overall != 4 {
		t.Fatalf("expected computed overall 4, got %v", score.Overall)
	}
}

func TestParseQuestionScoreDefaultsOverallWithoutWeights(t *testing.T) {
	// Every dimension entry is nameless, so nothing usable remains and the
	// neutral overall applies.
	raw := `{"dimensions": [{"score": 4}, {"score": 2}]}`

	score, err := parseQuestionScore("q1", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(score.Dimensions) != 0 {
		t.Fatalf("expected no usable dimensions, got %v", score.Dimensions)
	}

	if score.Overall != neutralOverall {
		t.Fatalf("expected neutral overall %d, got %v", neutralOverall, score.Overall)
	}
}

func TestParseQuestionScoreRespectsProvidedOverall(t *testing.T) {
	raw := `{"overall_score": "4.5", "dimensions": [
		{"name": "relevance", "score": "2", "weight": "0.5"}
	], "strengths": ["direct answer", " "], "red_flags": ["missed the deadline question"]}`

	score, err := parseQuestionScore("q1", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if score.Overall != 4.5 {
		t.Fatalf("expected provided overall to win, got %v", score.Overall)
	}

	if score.Dimensions[0].Score != 2 || score.Dimensions[0].Weight != 0.5 {
		t.Fatalf("expected string numbers to decode, got %+v", score.Dimensions[0])
	}

	if len(score.Strengths) != 1 || score.Strengths[0] != "direct answer" {
		t.Fatalf("expected blank strengths to be dropped, got %v", score.Strengths)
	}

	if len(score.RedFlags) != 1 {
		t.Fatalf("unexpected red flags: %v", score.RedFlags)
	}
}

func TestParseQuestionScoreClampsProvidedOverall(t *testing.T) {
	score, err := parseQuestionScore("q1", `{"overall_score": 11}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if score.Overall != 5 {
		t.Fatalf("expected provided overall to clamp to 5, got %v", score.Overall)
	}
}

func TestParseQuestionScoreRejectsEmptyReplies(t *testing.T) {
	if _, err := parseQuestionScore("q1", "The answer was adequate."); err == nil {
		t.Fatal("expected an error for a prose reply")
	}

	if _, err := parseQuestionScore("q1", `{}`); err == nil {
		t.Fatal("expected an error for a reply with no scores")
	}

	if _, err := parseQuestionScore("q1", `{"feedback": "fine"}`); err == nil {
		t.Fatal("expected an error for a reply with feedback but no scores")
	}
}

func TestParseQuestionScoreHandlesCodeBlock(t *testing.T) {
	raw := "```json\n{\"overall_score\": 3.5}\n```"

	score, err := parseQuestionScore("q1", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if score.Overall != 3.5 {
		t.Fatalf("expected overall 3.5, got %v", score.Overall)
	}
}
