// Package research turns a free-form job posting into the typed company and
// role profiles the rest of the pipeline consumes.
package research

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/skillprobe/skillprobe/internal/assessment"
	"github.com/skillprobe/skillprobe/internal/logger"
	"github.com/skillprobe/skillprobe/internal/promptkit"
)

// Error codes for context gathering failures.
const (
	ErrCodeEmptyJobText     = "EMPTY_JOB_TEXT"
	ErrCodeExtractionFailed = "EXTRACTION_FAILED"
)

// Error describes why context gathering failed.
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

// Findings bundles the two profiles an assessment is compiled from.
// Defaulted lists the profile fields that had to be filled with generic
// values because the source material did not cover them.
type Findings struct {
	Company   assessment.CompanyProfile
	Role      assessment.RoleProfile
	Defaulted []string
	FromCache bool
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

type Gatherer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewGatherer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Gatherer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Gatherer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// GatherContext resolves the employer and the role described by a job
// posting. Well-known employers are answered from a static table without an
// external call; everything else goes through one extraction request.
func (g *Gatherer) GatherContext(ctx context.Context, jobText, companyHint string) (*Findings, error) {
	jobText = strings.TrimSpace(jobText)
	if jobText == "" {
		return nil, &Error{Code: ErrCodeEmptyJobText, Message: "job posting text is required"}
	}

	name := strings.TrimSpace(companyHint)
	if name == "" {
		name = ExtractCompanyName(jobText)
	}

	if profile, ok := KnownEmployer(name); ok {
		g.logger.Debug("known employer table hit", zap.String("company", profile.Name))

		role, defaulted := extractRoleLocally(jobText)
		return &Findings{
			Company:   profile,
			Role:      role,
			Defaulted: defaulted,
			FromCache: true,
		}, nil
	}

	prompt := g.buildPrompt(jobText, name)

	g.logger.Debug("research extraction request",
		zap.String("company_hint", name),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, g.maxLogLen)),
	)

	raw, err := g.generator.GenerateText(ctx, prompt)
	if err != nil {
		return nil, &Error{Code: ErrCodeExtractionFailed, Message: "research capability call failed", Err: err}
	}

	g.logger.Debug("research extraction response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, g.maxLogLen)),
	)

	findings, err := parseFindings(raw, name)
	if err != nil {
		return nil, &Error{Code: ErrCodeExtractionFailed, Message: "no parseable research structure returned", Err: err}
	}

	if len(findings.Defaulted) > 0 {
		g.logger.Debug("research fields defaulted", zap.Strings("fields", findings.Defaulted))
	}

	return findings, nil
}

func (g *Gatherer) buildPrompt(jobText, companyName string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job posting:\n{{JOB_TEXT}}\n\nJSON Response:"
	}
	return promptkit.Render(template, map[string]string{
		"JOB_TEXT":     jobText,
		"COMPANY_NAME": companyName,
	})
}
