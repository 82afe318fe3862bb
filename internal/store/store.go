// Package store persists assessments, candidate answer sets, scoring runs
// and per-call model usage in Postgres through gorm. The pipeline only needs
// get-by-id and insert/update, so that is all the store exposes.
package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/skillprobe/skillprobe/internal/ai"
)

type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to Postgres and migrates the schema.
func Open(dsn string, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&AssessmentRecord{}, &ResponseRecord{}, &ResultRecord{}, &UsageRecord{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// SaveAssessment inserts or updates one assessment record.
func (s *Store) SaveAssessment(rec *AssessmentRecord) error {
	if err := s.db.Save(rec).Error; err != nil {
		return fmt.Errorf("save assessment %s: %w", rec.ID, err)
	}
	return nil
}

// AssessmentByID loads one assessment record.
func (s *Store) AssessmentByID(id string) (*AssessmentRecord, error) {
	var rec AssessmentRecord
	if err := s.db.First(&rec, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("load assessment %s: %w", id, err)
	}
	return &rec, nil
}

// SaveResponse inserts or updates one answer-set record.
func (s *Store) SaveResponse(rec *ResponseRecord) error {
	if err := s.db.Save(rec).Error; err != nil {
		return fmt.Errorf("save response %s: %w", rec.ID, err)
	}
	return nil
}

// ResponseByID loads one answer-set record.
func (s *Store) ResponseByID(id string) (*ResponseRecord, error) {
	var rec ResponseRecord
	if err := s.db.First(&rec, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("load response %s: %w", id, err)
	}
	return &rec, nil
}

// SaveResult inserts or updates one scoring-run record.
func (s *Store) SaveResult(rec *ResultRecord) error {
	if err := s.db.Save(rec).Error; err != nil {
		return fmt.Errorf("save result %s: %w", rec.ID, err)
	}
	return nil
}

// ResultByID loads one scoring-run record.
func (s *Store) ResultByID(id string) (*ResultRecord, error) {
	var rec ResultRecord
	if err := s.db.First(&rec, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("load result %s: %w", id, err)
	}
	return &rec, nil
}

// MarkStaleResultsFailed flips results stuck in processing longer than
// maxAge to failed, so candidates are not left polling a run whose worker
// died. Returns the number of runs reaped.
func (s *Store) MarkStaleResultsFailed(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)

	res := s.db.Model(&ResultRecord{}).
		Where("status = ? AND updated_at < ?", ResultStatusProcessing, cutoff).
		Update("status", ResultStatusFailed)
	if res.Error != nil {
		return 0, fmt.Errorf("reap stale results: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// RecordUsage writes one usage entry for a pipeline step. Usage accounting
// must never break the pipeline, so failures are logged and swallowed.
func (s *Store) RecordUsage(step, model string, usage ai.Usage) {
	if usage.Calls == 0 {
		return
	}

	rec := &UsageRecord{
		ID:               uuid.NewString(),
		Step:             step,
		Model:            model,
		Calls:            usage.Calls,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		CostUSD:          CostUSD(model, usage.PromptTokens, usage.CompletionTokens),
	}

	if err := s.db.Create(rec).Error; err != nil {
		s.logger.Warn("recording model usage failed",
			zap.String("step", step),
			zap.Error(err),
		)
	}
}
