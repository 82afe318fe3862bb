package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/skillprobe/skillprobe/internal/assessment"
	"github.com/skillprobe/skillprobe/internal/logger"
	"github.com/skillprobe/skillprobe/internal/promptkit"
)

//go:embed summary_prompt.md
var summaryPromptTemplate string

// narrative is the employer-facing prose of a result.
type narrative struct {
	Summary     string
	Strengths   []string
	GrowthAreas []string
}

// tierSummaries are the deterministic fallback sentences used when the
// narrative call fails. Keyed by tier so a degraded result still reads
// consistently with its score.
var tierSummaries = map[assessment.Tier]string{
	assessment.TierExceptional: "The candidate performed exceptionally across the assessment and looks ready to excel in this role.",
	assessment.TierStrong:      "The candidate performed strongly across the assessment and looks well prepared for this role.",
	assessment.TierQualified:   "The candidate met the bar on most of the assessment and looks qualified for this role.",
	assessment.TierDeveloping:  "The candidate shows promise but has meaningful gaps to close before taking on this role.",
	assessment.TierNotReady:    "The candidate's performance suggests they are not yet ready for the demands of this role.",
}

// summarize makes the one extra narrative call for a scoring run. Any
// failure degrades to the fixed per-tier sentence with empty lists rather
// than blocking or fabricating content.
func (s *Scorer) summarize(ctx context.Context, asmt *assessment.Assessment, scores []assessment.QuestionScore, overall int, tier assessment.Tier, cacheName string) narrative {
	prompt := buildSummaryPrompt(asmt, scores, overall, tier, cacheName == "")

	s.logger.Debug("narrative request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generate(ctx, prompt, cacheName)
	if err != nil {
		s.logger.Warn("narrative call failed, using tier fallback", zap.Error(err))
		return fallbackNarrative(tier)
	}

	parsed, err := parseNarrative(raw)
	if err != nil {
		s.logger.Warn("narrative reply unusable, using tier fallback", zap.Error(err))
		return fallbackNarrative(tier)
	}

	return parsed
}

func fallbackNarrative(tier assessment.Tier) narrative {
	return narrative{Summary: tierSummaries[tier]}
}

type rawNarrative struct {
	Summary     string   `mapstructure:"summary"`
	Strengths   []string `mapstructure:"strengths"`
	GrowthAreas []string `mapstructure:"growth_areas"`
}

func parseNarrative(raw string) (narrative, error) {
	cleaned := promptkit.ExtractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return narrative{}, fmt.Errorf("parse narrative reply: %w", err)
	}

	var doc rawNarrative
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return narrative{}, fmt.Errorf("build narrative decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return narrative{}, fmt.Errorf("decode narrative reply: %w", err)
	}

	summary := strings.TrimSpace(doc.Summary)
	if summary == "" {
		return narrative{}, fmt.Errorf("narrative reply carries no summary")
	}

	return narrative{
		Summary:     summary,
		Strengths:   cleanList(doc.Strengths),
		GrowthAreas: cleanList(doc.GrowthAreas),
	}, nil
}

func buildSummaryPrompt(asmt *assessment.Assessment, scores []assessment.QuestionScore, overall int, tier assessment.Tier, inlineContext bool) string {
	sharedBlock := ""
	if inlineContext {
		sharedBlock = sharedContext(asmt)
	}

	return promptkit.Render(summaryPromptTemplate, map[string]string{
		"SHARED_CONTEXT": sharedBlock,
		"ROLE_TITLE":     asmt.Role.Title,
		"OVERALL_SCORE":  strconv.Itoa(overall),
		"TIER":           string(tier),
		"SCORE_DIGEST":   scoreDigest(asmt, scores),
	})
}

// scoreDigest condenses the per-question outcomes into the few lines the
// narrative call actually needs.
func scoreDigest(asmt *assessment.Assessment, scores []assessment.QuestionScore) string {
	var b strings.Builder
	for i, score := range scores {
		if i > 0 {
			b.WriteByte('\n')
		}

		label := score.QuestionID
		if q := asmt.QuestionByID(score.QuestionID); q != nil && len(q.Skills) > 0 {
			label += " (" + strings.Join(q.Skills, ", ") + ")"
		}

		fmt.Fprintf(&b, "- %s: %.1f/5", label, score.Overall)
		if score.Skipped {
			b.WriteString(" [not completed]")
		}
		if len(score.Strengths) > 0 {
			fmt.Fprintf(&b, "; strengths: %s", strings.Join(score.Strengths, "; "))
		}
		if len(score.Improvements) > 0 {
			fmt.Fprintf(&b, "; improvements: %s", strings.Join(score.Improvements, "; "))
		}
		if len(score.RedFlags) > 0 {
			fmt.Fprintf(&b, "; red flags: %s", strings.Join(score.RedFlags, "; "))
		}
	}
	return b.String()
}
