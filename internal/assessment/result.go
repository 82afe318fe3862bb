package assessment

import "time"

// Tier is the qualitative band an overall score falls into.
type Tier string

const (
	TierExceptional Tier = "exceptional"
	TierStrong      Tier = "strong"
	TierQualified   Tier = "qualified"
	TierDeveloping  Tier = "developing"
	TierNotReady    Tier = "not_ready"
)

// Response is one candidate answer to one question.
type Response struct {
	QuestionID  string    `json:"question_id"`
	Text        string    `json:"text"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	SubmittedAt time.Time `json:"submitted_at,omitempty"`
}

// ElapsedSeconds returns how long the candidate spent on the response, or 0
// when timestamps are missing or inverted.
func (r Response) ElapsedSeconds() int {
	if r.StartedAt.IsZero() || r.SubmittedAt.IsZero() {
		return 0
	}
	d := r.SubmittedAt.Sub(r.StartedAt)
	if d < 0 {
		return 0
	}
	return int(d.Seconds())
}

// DimensionScore is the judged 1-5 score on one rubric dimension.
type DimensionScore struct {
	Name     string   `json:"name"`
	Score    float64  `json:"score"`
	Weight   float64  `json:"weight"`
	Weighted float64  `json:"weighted_score"`
	Feedback string   `json:"feedback,omitempty"`
	Evidence []string `json:"evidence,omitempty"`
}

// QuestionScore is the full judgement of one response.
type QuestionScore struct {
	QuestionID   string           `json:"question_id"`
	Dimensions   []DimensionScore `json:"dimensions"`
	Overall      float64          `json:"overall"`
	Strengths    []string         `json:"strengths,omitempty"`
	Improvements []string         `json:"improvements,omitempty"`
	RedFlags     []string         `json:"red_flags,omitempty"`
	Bonuses      []string         `json:"bonuses,omitempty"`
	Feedback     string           `json:"feedback,omitempty"`
	Skipped      bool             `json:"skipped,omitempty"`
}

// SkillReading is the averaged evidence for one skill across the questions
// that exercised it.
type SkillReading struct {
	Skill     string  `json:"skill"`
	Average   float64 `json:"average"`
	Questions int     `json:"questions"`
}

// Result is the aggregated outcome of scoring one submission.
type Result struct {
	ID               string          `json:"id"`
	AssessmentID     string          `json:"assessment_id"`
	CandidateName    string          `json:"candidate_name,omitempty"`
	Responses        []Response      `json:"responses"`
	Questions        []QuestionScore `json:"questions"`
	OverallScore     int             `json:"overall_score"`
	Tier             Tier            `json:"tier"`
	Summary          string          `json:"summary"`
	Strengths        []string        `json:"strengths"`
	GrowthAreas      []string        `json:"growth_areas"`
	StrongestSkills  []SkillReading  `json:"strongest_skills"`
	WeakestSkills    []SkillReading  `json:"weakest_skills"`
	TotalTimeSeconds int             `json:"total_time_seconds"`
	ScoredAt         time.Time       `json:"scored_at"`
}
