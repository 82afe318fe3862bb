// Package scoring judges candidate responses against each question's rubric
// and folds the per-question results into one overall assessment result.
package scoring

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	_ "embed"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillprobe/skillprobe/internal/assessment"
	"github.com/skillprobe/skillprobe/internal/logger"
	"github.com/skillprobe/skillprobe/internal/promptkit"
)

// Scoring fallback texts. The aggregate depends on these: an unanswered or
// unscoreable question always counts as the lowest score, never as a gap.
const (
	redFlagNotCompleted    = "Question not completed"
	improvementUnscoreable = "Unable to score response"
)

const (
	defaultConcurrency  = 4
	defaultMaxLogLength = 200

	// Model replies are expected to keep rubric weights summing to 1.0;
	// drift beyond this is logged.
	weightSumTolerance = 0.01
)

type contentGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// cacheCapableGenerator is implemented by providers that can hold the shared
// scenario context server-side between scoring calls.
type cacheCapableGenerator interface {
	EnsureContextCache(ctx context.Context, key, displayName, payload string) (string, error)
	GenerateTextWithCache(ctx context.Context, prompt, cacheName string) (string, error)
}

//go:embed prompt.md
var scorePromptTemplate string

// Options tune a Scorer. Zero values select the defaults.
type Options struct {
	MaxLogLength int
	Concurrency  int
	CacheContext bool
}

type Scorer struct {
	generator    contentGenerator
	logger       *zap.Logger
	maxLogLen    int
	limit        int
	cacheContext bool
}

func NewScorer(generator contentGenerator, logger *zap.Logger, opts Options) *Scorer {
	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	return &Scorer{
		generator:    generator,
		logger:       logger,
		maxLogLen:    maxLogLen,
		limit:        limit,
		cacheContext: opts.CacheContext,
	}
}

// ScoreAll scores every question of the assessment against the candidate's
// responses and assembles the final result. It never fails terminally: a
// question whose scoring call fails gets the deterministic fallback score,
// and a failed narrative call degrades to a fixed per-tier sentence, so a
// submitted assessment always produces a complete result.
func (s *Scorer) ScoreAll(ctx context.Context, asmt *assessment.Assessment, candidate string, responses []assessment.Response) *assessment.Result {
	byID := make(map[string]assessment.Response, len(responses))
	for _, r := range responses {
		byID[r.QuestionID] = r
	}

	cacheName := s.ensureCache(ctx, asmt)

	scores := make([]assessment.QuestionScore, len(asmt.Questions))
	sem := make(chan struct{}, s.limit)
	var wg sync.WaitGroup

	for i := range asmt.Questions {
		q := &asmt.Questions[i]
		resp, answered := byID[q.ID]
		if !answered {
			scores[i] = missingResponseScore(q.ID)
			continue
		}

		wg.Add(1)
		go func(i int, q *assessment.Question, resp assessment.Response) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			scores[i] = s.scoreQuestion(ctx, asmt, q, resp, cacheName)
		}(i, q, resp)
	}
	wg.Wait()

	overall := OverallScore(scores)
	tier := TierFor(overall)
	strongest, weakest := AnalyzeSkills(asmt, scores)
	story := s.summarize(ctx, asmt, scores, overall, tier, cacheName)

	totalSeconds := 0
	for _, r := range responses {
		totalSeconds += r.ElapsedSeconds()
	}

	return &assessment.Result{
		ID:               uuid.NewString(),
		AssessmentID:     asmt.ID,
		CandidateName:    candidate,
		Responses:        responses,
		Questions:        scores,
		OverallScore:     overall,
		Tier:             tier,
		Summary:          story.Summary,
		Strengths:        story.Strengths,
		GrowthAreas:      story.GrowthAreas,
		StrongestSkills:  strongest,
		WeakestSkills:    weakest,
		TotalTimeSeconds: totalSeconds,
		ScoredAt:         time.Now().UTC(),
	}
}

// scoreQuestion judges one answered question. Failures are absorbed into
// the fallback score so one bad call never ruins the run.
func (s *Scorer) scoreQuestion(ctx context.Context, asmt *assessment.Assessment, q *assessment.Question, resp assessment.Response, cacheName string) assessment.QuestionScore {
	prompt := s.buildScorePrompt(asmt, q, resp, cacheName == "")

	s.logger.Debug("scoring request",
		zap.String("question_id", q.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generate(ctx, prompt, cacheName)
	if err != nil {
		s.logger.Warn("scoring call failed, using fallback score",
			zap.String("question_id", q.ID),
			zap.Error(err),
		)
		return unscorableResponseScore(q.ID)
	}

	score, err := parseQuestionScore(q.ID, raw)
	if err != nil {
		s.logger.Warn("scoring reply unusable, using fallback score",
			zap.String("question_id", q.ID),
			zap.Error(err),
		)
		return unscorableResponseScore(q.ID)
	}

	if sum := weightSum(score.Dimensions); len(score.Dimensions) > 0 && math.Abs(sum-1) > weightSumTolerance {
		s.logger.Warn("rubric weights off balance",
			zap.String("question_id", q.ID),
			zap.Float64("weight_sum", sum),
		)
	}

	return *score
}

func (s *Scorer) generate(ctx context.Context, prompt, cacheName string) (string, error) {
	if cacheName != "" {
		if cg, ok := s.generator.(cacheCapableGenerator); ok {
			return cg.GenerateTextWithCache(ctx, prompt, cacheName)
		}
	}
	return s.generator.GenerateText(ctx, prompt)
}

// ensureCache uploads the shared scenario context to the provider once per
// run when enabled and supported. Returns "" when per-call prompts must
// carry the context inline.
func (s *Scorer) ensureCache(ctx context.Context, asmt *assessment.Assessment) string {
	if !s.cacheContext {
		return ""
	}
	cg, ok := s.generator.(cacheCapableGenerator)
	if !ok {
		return ""
	}

	name, err := cg.EnsureContextCache(ctx, asmt.ID, "assessment-"+asmt.ID, sharedContext(asmt))
	if err != nil {
		s.logger.Warn("context cache unavailable, sending context inline", zap.Error(err))
		return ""
	}

	s.logger.Debug("scoring context cached", zap.String("cache_name", name))
	return name
}

func (s *Scorer) buildScorePrompt(asmt *assessment.Assessment, q *assessment.Question, resp assessment.Response, inlineContext bool) string {
	sharedBlock := ""
	if inlineContext {
		sharedBlock = sharedContext(asmt)
	}

	return promptkit.Render(scorePromptTemplate, map[string]string{
		"SHARED_CONTEXT":  sharedBlock,
		"QUESTION_JSON":   promptkit.JSONBlock(q),
		"RESPONSE_TEXT":   resp.Text,
		"ELAPSED_SECONDS": strconv.Itoa(resp.ElapsedSeconds()),
		"TIME_GUIDANCE":   strconv.Itoa(q.TimeGuidanceMin),
	})
}

// sharedContext is the scenario background every scoring call needs: who the
// employer is and what role the candidate applied for.
func sharedContext(asmt *assessment.Assessment) string {
	return "Company profile:\n" + promptkit.JSONBlock(asmt.Company) +
		"\n\nRole profile:\n" + promptkit.JSONBlock(asmt.Role)
}

// missingResponseScore is the deterministic record for a question the
// candidate never answered.
func missingResponseScore(questionID string) assessment.QuestionScore {
	return assessment.QuestionScore{
		QuestionID: questionID,
		Overall:    1,
		RedFlags:   []string{redFlagNotCompleted},
		Skipped:    true,
	}
}

// unscorableResponseScore is the deterministic record for an answered
// question whose scoring call failed or returned nothing usable.
func unscorableResponseScore(questionID string) assessment.QuestionScore {
	return assessment.QuestionScore{
		QuestionID:   questionID,
		Overall:      1,
		Improvements: []string{improvementUnscoreable},
		RedFlags:     []string{redFlagNotCompleted},
	}
}

func weightSum(dims []assessment.DimensionScore) float64 {
	sum := 0.0
	for _, d := range dims {
		sum += d.Weight
	}
	return sum
}
