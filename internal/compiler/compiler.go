// Package compiler turns researched company and role profiles into a
// complete scenario assessment through a single generation call.
package compiler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillprobe/skillprobe/internal/assessment"
	"github.com/skillprobe/skillprobe/internal/logger"
	"github.com/skillprobe/skillprobe/internal/planner"
	"github.com/skillprobe/skillprobe/internal/promptkit"
)

// ErrCodeGenerationFailed marks replies with no usable assessment structure.
const ErrCodeGenerationFailed = "GENERATION_FAILED"

// Error describes why compilation failed. Compilation errors are terminal:
// there is no assessment to show without a valid question set.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

type contentGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

const (
	defaultQuestionCount = 8
	defaultDifficulty    = "standard"
	defaultMaxLogLength  = 200
)

// Request carries everything one compilation needs besides the generator.
type Request struct {
	Company       assessment.CompanyProfile
	Role          assessment.RoleProfile
	QuestionCount int
	Difficulty    string
	FocusAreas    []string
	MixOverrides  map[assessment.Archetype]float64
}

//go:embed prompt.md
var promptTemplate string

type Compiler struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewCompiler(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Compiler {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Compiler{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Compile plans the question mix, runs exactly one generation call, and
// normalizes the reply into an Assessment. Quality issues found by Validate
// are logged, never fatal: whenever the reply contained a usable structure
// the caller gets an assessment back.
func (c *Compiler) Compile(ctx context.Context, req Request) (*assessment.Assessment, error) {
	count := req.QuestionCount
	if count <= 0 {
		count = defaultQuestionCount
	}

	mix := planner.PlanMix(req.Role.Category, count, req.MixOverrides)
	minutes := planner.EstimateMinutes(mix)

	prompt := c.buildPrompt(req, mix, count)

	c.logger.Debug("assessment generation request",
		zap.String("company", req.Company.Name),
		zap.String("role", req.Role.Title),
		zap.Int("question_count", count),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, c.maxLogLen)),
	)

	raw, err := c.generator.GenerateText(ctx, prompt)
	if err != nil {
		return nil, &Error{Code: ErrCodeGenerationFailed, Message: "assessment generation call failed", Err: err}
	}

	c.logger.Debug("assessment generation response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, c.maxLogLen)),
	)

	parsed, err := parseGenerated(raw, expandMix(mix), req.Role)
	if err != nil {
		return nil, &Error{Code: ErrCodeGenerationFailed, Message: "no parseable assessment structure returned", Err: err}
	}

	if len(parsed.Questions) != count {
		c.logger.Warn("generated question count differs from plan",
			zap.Int("planned", count),
			zap.Int("generated", len(parsed.Questions)),
		)
	}

	asmt := &assessment.Assessment{
		ID:               uuid.NewString(),
		Title:            parsed.Title,
		Description:      parsed.Description,
		Company:          req.Company,
		Role:             req.Role,
		Questions:        parsed.Questions,
		EstimatedMinutes: minutes,
		SkillsCovered:    assessment.UnionSkills(parsed.Questions),
		CreatedAt:        time.Now().UTC(),
	}

	if asmt.Title == "" {
		asmt.Title = fmt.Sprintf("%s: %s Skills Assessment", req.Company.Name, req.Role.Title)
	}
	if asmt.Description == "" {
		asmt.Description = fmt.Sprintf("Scenario-based skills assessment for the %s role at %s.", req.Role.Title, req.Company.Name)
	}

	if ok, issues := Validate(asmt); !ok {
		c.logger.Warn("assessment quality issues",
			zap.String(logger.FieldAssessment, asmt.ID),
			zap.Strings("issues", issues),
		)
	}

	return asmt, nil
}

func (c *Compiler) buildPrompt(req Request, mix map[assessment.Archetype]int, count int) string {
	difficulty := strings.TrimSpace(req.Difficulty)
	if difficulty == "" {
		difficulty = defaultDifficulty
	}

	return promptkit.Render(promptTemplate, map[string]string{
		"QUESTION_COUNT":  strconv.Itoa(count),
		"DIFFICULTY":      difficulty,
		"COMPANY_JSON":    promptkit.JSONBlock(req.Company),
		"ROLE_JSON":       promptkit.JSONBlock(req.Role),
		"MIX":             mixLines(mix),
		"FOCUS_AREAS":     focusAreaLines(req.FocusAreas),
		"SENIORITY":       string(req.Role.Seniority),
		"STAKES_GUIDANCE": stakesGuidance(req.Role.Seniority),
	})
}

func mixLines(mix map[assessment.Archetype]int) string {
	var b strings.Builder
	for _, a := range assessment.Archetypes() {
		if mix[a] == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s: %d (about %d minutes each)", a, mix[a], planner.Minutes(a))
	}
	return b.String()
}

func focusAreaLines(areas []string) string {
	cleaned := make([]string, 0, len(areas))
	for _, area := range areas {
		area = strings.TrimSpace(area)
		if area != "" {
			cleaned = append(cleaned, area)
		}
	}
	if len(cleaned) == 0 {
		return ""
	}
	return promptkit.BulletList(cleaned)
}

// stakesGuidance scales scenario stakes with the role's seniority band.
func stakesGuidance(s assessment.Seniority) string {
	switch s {
	case assessment.SeniorityExecutive:
		return "company-level outcomes: revenue targets, market position, board visibility"
	case assessment.SeniorityDirector:
		return "department-level outcomes: quarterly targets, budgets, cross-team commitments"
	case assessment.SeniorityManager:
		return "team-level outcomes: team quota, key account health, delivery commitments"
	default:
		return "deal- and customer-level outcomes: a single account, deadline, or deliverable"
	}
}

// expandMix flattens the mix into an ordered archetype sequence, used as the
// per-index fallback when a generated question omits its archetype.
func expandMix(mix map[assessment.Archetype]int) []assessment.Archetype {
	sequence := make([]assessment.Archetype, 0)
	for _, a := range assessment.Archetypes() {
		for i := 0; i < mix[a]; i++ {
			sequence = append(sequence, a)
		}
	}
	return sequence
}
