package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured log field keys shared by the pipeline stages.
const (
	// FieldProvider is the log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the log field key for the AI model identifier.
	FieldModel = "ai_model"
	// FieldAssessment is the log field key for the assessment id.
	FieldAssessment = "assessment_id"
)

// WithProvider tags the logger with the AI provider and model so every
// pipeline log line states which backend produced it. Empty values are
// dropped to keep entries compact; a nil logger falls back to a no-op
// logger to avoid panics.
func WithProvider(log *zap.Logger, provider, model string) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}

	fields := make([]zap.Field, 0, 2)
	if provider = strings.TrimSpace(provider); provider != "" {
		fields = append(fields, zap.String(FieldProvider, provider))
	}
	if model = strings.TrimSpace(model); model != "" {
		fields = append(fields, zap.String(FieldModel, model))
	}

	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}
