package scoring

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/skillprobe/skillprobe/internal/assessment"
)

type stubGenerator struct {
	mu      sync.Mutex
	respond func(prompt string) (string, error)
	calls   int
	prompts []string
}

func (s *stubGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.prompts = append(s.prompts, prompt)
	respond := s.respond
	s.mu.Unlock()

	if respond == nil {
		return "", errors.New("no response scripted")
	}
	return respond(prompt)
}

const fourAcrossBoard = `{
	"dimensions": [
		{"name": "relevance", "score": 4, "weight": 0.2},
		{"name": "judgment", "score": 4, "weight": 0.2},
		{"name": "communication", "score": 4, "weight": 0.2},
		{"name": "execution", "score": 4, "weight": 0.2},
		{"name": "company_fit", "score": 4, "weight": 0.2}
	],
	"strengths": ["clear plan"],
	"feedback": "Solid answer."
}`

const narrativeReply = `{
	"summary": "Consistent, well-structured performance across every scenario.",
	"strengths": ["structured communication"],
	"growth_areas": ["deeper discovery"]
}`

func isSummaryPrompt(prompt string) bool {
	return strings.Contains(prompt, "employer-facing summary")
}

func equalRubric() []assessment.ScoringDimension {
	return []assessment.ScoringDimension{
		{Name: assessment.DimensionRelevance, Weight: 0.2},
		{Name: assessment.DimensionJudgment, Weight: 0.2},
		{Name: assessment.DimensionCommunication, Weight: 0.2},
		{Name: assessment.DimensionExecution, Weight: 0.2},
		{Name: assessment.DimensionCompanyFit, Weight: 0.2},
	}
}

func testAssessment(n int) *assessment.Assessment {
	questions := make([]assessment.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, assessment.Question{
			ID:        fmt.Sprintf("q%d", i+1),
			Archetype: assessment.ArchetypeStakeholderConflict,
			Context: assessment.QuestionContext{
				Role:      "Account Executive at Acme",
				Situation: "Initech's renewal is at risk after a rocky migration and the champion went quiet.",
				Stakes:    "Losing the account costs 8% of quarterly recurring revenue.",
			},
			Prompt:          "Write the email that re-opens the conversation.",
			AnswerFormat:    "email",
			TimeGuidanceMin: 10,
			Rubric:          assessment.Rubric{Dimensions: equalRubric()},
			Skills:          []string{fmt.Sprintf("skill-%d", i%4), "negotiation"},
		})
	}

	return &assessment.Assessment{
		ID:    "asmt-1",
		Title: "Acme Sales Assessment",
		Company: assessment.CompanyProfile{
			Name:     "Acme",
			Industry: "software",
		},
		Role: assessment.RoleProfile{
			Title:    "Account Executive",
			Category: assessment.CategorySales,
		},
		Questions:     questions,
		SkillsCovered: assessment.UnionSkills(questions),
	}
}

func testResponses(asmt *assessment.Assessment, n int) []assessment.Response {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	responses := make([]assessment.Response, 0, n)
	for i := 0; i < n && i < len(asmt.Questions); i++ {
		responses = append(responses, assessment.Response{
			QuestionID:  asmt.Questions[i].ID,
			Text:        "I would call the champion first, then send a short email owning the migration issues.",
			StartedAt:   start,
			SubmittedAt: start.Add(90 * time.Second),
		})
	}
	return responses
}

func TestScoreAllComputesOverallAndTier(t *testing.T) {
	stub := &stubGenerator{respond: func(prompt string) (string, error) {
		if isSummaryPrompt(prompt) {
			return narrativeReply, nil
		}
		return fourAcrossBoard, nil
	}}
	scorer := NewScorer(stub, zap.NewNop(), Options{})

	asmt := testAssessment(8)
	result := scorer.ScoreAll(context.Background(), asmt, "Jordan Reyes", testResponses(asmt, 8))

	if len(result.Questions) != 8 {
		t.Fatalf("expected 8 question scores, got %d", len(result.Questions))
	}

	for i, score := range result.Questions {
		if score.QuestionID != asmt.Questions[i].ID {
			t.Fatalf("score %d is for question %s, want %s", i, score.QuestionID, asmt.Questions[i].ID)
		}
		if score.Overall != 4 {
			t.Fatalf("question %s: expected overall 4, got %v", score.QuestionID, score.Overall)
		}
	}

	if result.OverallScore != 75 {
		t.Fatalf("expected overall score 75, got %d", result.OverallScore)
	}

	if result.Tier != assessment.TierStrong {
		t.Fatalf("expected tier strong, got %s", result.Tier)
	}

	if result.Summary != "Consistent, well-structured performance across every scenario." {
		t.Fatalf("unexpected summary: %s", result.Summary)
	}

	if len(result.Strengths) != 1 || result.Strengths[0] != "structured communication" {
		t.Fatalf("unexpected strengths: %v", result.Strengths)
	}

	if result.CandidateName != "Jordan Reyes" {
		t.Fatalf("unexpected candidate name: %s", result.CandidateName)
	}

	if result.TotalTimeSeconds != 8*90 {
		t.Fatalf("expected total time %d, got %d", 8*90, result.TotalTimeSeconds)
	}

	if stub.calls != 9 {
		t.Fatalf("expected 8 scoring calls plus 1 narrative call, got %d", stub.calls)
	}

	if result.ID == "" || result.AssessmentID != asmt.ID {
		t.Fatalf("unexpected result identifiers: id=%q assessment=%q", result.ID, result.AssessmentID)
	}
}

func TestScoreAllFallsBackForMissingResponses(t *testing.T) {
	stub := &stubGenerator{respond: func(prompt string) (string, error) {
		if isSummaryPrompt(prompt) {
			return narrativeReply, nil
		}
		return fourAcrossBoard, nil
	}}
	scorer := NewScorer(stub, zap.NewNop(), Options{})

	asmt := testAssessment(8)
	result := scorer.ScoreAll(context.Background(), asmt, "", testResponses(asmt, 5))

	if len(result.Questions) != 8 {
		t.Fatalf("expected 8 question scores, got %d", len(result.Questions))
	}

	for i := 0; i < 5; i++ {
		if result.Questions[i].Overall != 4 {
			t.Fatalf("answered question %d: expected overall 4, got %v", i, result.Questions[i].Overall)
		}
	}

	for i := 5; i < 8; i++ {
		score := result.Questions[i]
		if score.Overall != 1 {
			t.Fatalf("unanswered question %s: expected overall 1, got %v", score.QuestionID, score.Overall)
		}
		if !score.Skipped {
			t.Fatalf("unanswered question %s: expected skipped", score.QuestionID)
		}
		if len(score.RedFlags) != 1 || score.RedFlags[0] != redFlagNotCompleted {
			t.Fatalf("unanswered question %s: expected red flag %q, got %v", score.QuestionID, redFlagNotCompleted, score.RedFlags)
		}
		if len(score.Dimensions) != 0 {
			t.Fatalf("unanswered question %s: expected no dimension scores, got %v", score.QuestionID, score.Dimensions)
		}
		if len(score.Strengths) != 0 {
			t.Fatalf("unanswered question %s: expected no strengths, got %v", score.QuestionID, score.Strengths)
		}
	}

	// Mean is (5*4 + 3*1)/8 = 2.875, which maps to 47 and tier developing.
	if result.OverallScore != 47 {
		t.Fatalf("expected overall score 47, got %d", result.OverallScore)
	}
	if result.Tier != assessment.TierDeveloping {
		t.Fatalf("expected tier developing, got %s", result.Tier)
	}

	if stub.calls != 6 {
		t.Fatalf("expected 5 scoring calls plus 1 narrative call, got %d", stub.calls)
	}
}

func TestScoreAllPreservesOrderUnderConcurrency(t *testing.T) {
	questionID := regexp.MustCompile(`"id":\s*"(q\d+)"`)

	var inflight, maxInflight atomic.Int32
	stub := &stubGenerator{}
	stub.respond = func(prompt string) (string, error) {
		if isSummaryPrompt(prompt) {
			return narrativeReply, nil
		}

		cur := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			seen := maxInflight.Load()
			if cur <= seen || maxInflight.CompareAndSwap(seen, cur) {
				break
			}
		}

		time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)

		match := questionID.FindStringSubmatch(prompt)
		if match == nil {
			return "", errors.New("prompt carries no question id")
		}
		return fmt.Sprintf(`{"overall_score": 3, "feedback": "scored %s"}`, match[1]), nil
	}

	scorer := NewScorer(stub, zap.NewNop(), Options{})

	asmt := testAssessment(10)
	result := scorer.ScoreAll(context.Background(), asmt, "", testResponses(asmt, 10))

	if len(result.Questions) != 10 {
		t.Fatalf("expected 10 question scores, got %d", len(result.Questions))
	}

	for i, score := range result.Questions {
		wantID := asmt.Questions[i].ID
		if score.QuestionID != wantID {
			t.Fatalf("position %d holds %s, want %s", i, score.QuestionID, wantID)
		}
		if want := "scored " + wantID; score.Feedback != want {
			t.Fatalf("position %d holds feedback %q, want %q", i, score.Feedback, want)
		}
	}

	if got := maxInflight.Load(); got > 4 {
		t.Fatalf("expected at most 4 concurrent scoring calls, saw %d", got)
	}
}

func TestScoreAllAbsorbsScoringFailures(t *testing.T) {
	stub := &stubGenerator{respond: func(prompt string) (string, error) {
		switch {
		case isSummaryPrompt(prompt):
			return narrativeReply, nil
		case strings.Contains(prompt, `"id": "q2"`):
			return "", errors.New("rate limited")
		case strings.Contains(prompt, `"id": "q3"`):
			return "The answer was fine I guess.", nil
		default:
			return fourAcrossBoard, nil
		}
	}}
	scorer := NewScorer(stub, zap.NewNop(), Options{})

	asmt := testAssessment(3)
	result := scorer.ScoreAll(context.Background(), asmt, "", testResponses(asmt, 3))

	if result.Questions[0].Overall != 4 {
		t.Fatalf("expected q1 to score normally, got %v", result.Questions[0].Overall)
	}

	for _, i := range []int{1, 2} {
		score := result.Questions[i]
		if score.Overall != 1 {
			t.Fatalf("%s: expected fallback overall 1, got %v", score.QuestionID, score.Overall)
		}
		if score.Skipped {
			t.Fatalf("%s: answered question must not be marked skipped", score.QuestionID)
		}
		if len(score.Improvements) != 1 || score.Improvements[0] != improvementUnscoreable {
			t.Fatalf("%s: expected improvement %q, got %v", score.QuestionID, improvementUnscoreable, score.Improvements)
		}
		if len(score.RedFlags) != 1 || score.RedFlags[0] != redFlagNotCompleted {
			t.Fatalf("%s: expected red flag %q, got %v", score.QuestionID, redFlagNotCompleted, score.RedFlags)
		}
	}
}

func TestScoreAllSummaryFallback(t *testing.T) {
	stub := &stubGenerator{respond: func(prompt string) (string, error) {
		if isSummaryPrompt(prompt) {
			return "", errors.New("capability unavailable")
		}
		return fourAcrossBoard, nil
	}}
	scorer := NewScorer(stub, zap.NewNop(), Options{})

	asmt := testAssessment(5)
	result := scorer.ScoreAll(context.Background(), asmt, "", testResponses(asmt, 5))

	if result.Tier != assessment.TierStrong {
		t.Fatalf("expected tier strong, got %s", result.Tier)
	}

	if result.Summary != tierSummaries[assessment.TierStrong] {
		t.Fatalf("expected the fixed tier sentence, got %q", result.Summary)
	}

	if len(result.Strengths) != 0 || len(result.GrowthAreas) != 0 {
		t.Fatalf("expected empty narrative lists, got %v / %v", result.Strengths, result.GrowthAreas)
	}
}

type cachingStub struct {
	stubGenerator
	cacheName   string
	ensureErr   error
	ensureCalls int
	payload     string
	cachedCalls int
}

func (c *cachingStub) EnsureContextCache(_ context.Context, _, _, payload string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureCalls++
	c.payload = payload
	if c.ensureErr != nil {
		return "", c.ensureErr
	}
	return c.cacheName, nil
}

func (c *cachingStub) GenerateTextWithCache(_ context.Context, prompt, _ string) (string, error) {
	c.mu.Lock()
	c.cachedCalls++
	c.prompts = append(c.prompts, prompt)
	respond := c.respond
	c.mu.Unlock()

	if respond == nil {
		return "", errors.New("no response scripted")
	}
	return respond(prompt)
}

func TestScoreAllUsesContextCache(t *testing.T) {
	stub := &cachingStub{cacheName: "caches/acme"}
	stub.respond = func(prompt string) (string, error) {
		if isSummaryPrompt(prompt) {
			return narrativeReply, nil
		}
		return fourAcrossBoard, nil
	}
	scorer := NewScorer(stub, zap.NewNop(), Options{CacheContext: true})

	asmt := testAssessment(3)
	scorer.ScoreAll(context.Background(), asmt, "", testResponses(asmt, 3))

	if stub.ensureCalls != 1 {
		t.Fatalf("expected one cache upload per run, got %d", stub.ensureCalls)
	}

	if !strings.Contains(stub.payload, `"name": "Acme"`) {
		t.Fatalf("expected cache payload to carry the company profile, got: %s", stub.payload)
	}

	if stub.cachedCalls != 4 {
		t.Fatalf("expected 3 scoring calls plus 1 narrative call through the cache, got %d", stub.cachedCalls)
	}

	if stub.calls != 0 {
		t.Fatalf("expected no uncached calls, got %d", stub.calls)
	}

	for _, prompt := range stub.prompts {
		if strings.Contains(prompt, `"name": "Acme"`) {
			t.Fatalf("expected cached prompts to skip the inline context, got: %s", prompt)
		}
	}
}

func TestScoreAllFallsBackWhenCacheUnavailable(t *testing.T) {
	stub := &cachingStub{ensureErr: errors.New("cache quota exceeded")}
	stub.respond = func(prompt string) (string, error) {
		if isSummaryPrompt(prompt) {
			return narrativeReply, nil
		}
		return fourAcrossBoard, nil
	}
	scorer := NewScorer(stub, zap.NewNop(), Options{CacheContext: true})

	asmt := testAssessment(2)
	result := scorer.ScoreAll(context.Background(), asmt, "", testResponses(asmt, 2))

	if stub.cachedCalls != 0 {
		t.Fatalf("expected no cached calls after cache failure, got %d", stub.cachedCalls)
	}

	if stub.calls != 3 {
		t.Fatalf("expected 2 scoring calls plus 1 narrative call inline, got %d", stub.calls)
	}

	if result.OverallScore != 75 {
		t.Fatalf("expected scoring to proceed inline, got score %d", result.OverallScore)
	}
}

func TestScoreAllPromptContents(t *testing.T) {
	stub := &stubGenerator{respond: func(prompt string) (string, error) {
		if isSummaryPrompt(prompt) {
			return narrativeReply, nil
		}
		return fourAcrossBoard, nil
	}}
	scorer := NewScorer(stub, zap.NewNop(), Options{Concurrency: 1})

	asmt := testAssessment(1)
	responses := testResponses(asmt, 1)
	scorer.ScoreAll(context.Background(), asmt, "", responses)

	if len(stub.prompts) != 2 {
		t.Fatalf("expected 2 prompts, got %d", len(stub.prompts))
	}

	scorePrompt := stub.prompts[0]
	if !strings.Contains(scorePrompt, responses[0].Text) {
		t.Fatalf("expected scoring prompt to carry the answer, got: %s", scorePrompt)
	}
	if !strings.Contains(scorePrompt, `"name": "Acme"`) {
		t.Fatalf("expected scoring prompt to carry the company context, got: %s", scorePrompt)
	}
	if !strings.Contains(scorePrompt, "spent 90 seconds") {
		t.Fatalf("expected scoring prompt to carry elapsed time, got: %s", scorePrompt)
	}
	if strings.Contains(scorePrompt, "{{") {
		t.Fatalf("expected every placeholder to be substituted, got: %s", scorePrompt)
	}

	summaryPrompt := stub.prompts[1]
	if !strings.Contains(summaryPrompt, "75/100 (strong)") {
		t.Fatalf("expected summary prompt to carry the aggregate, got: %s", summaryPrompt)
	}
	if !strings.Contains(summaryPrompt, "q1") {
		t.Fatalf("expected summary prompt to carry the digest, got: %s", summaryPrompt)
	}
}
