package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skillprobe/skillprobe/internal/assessment"
)

// Response lifecycle statuses.
const (
	ResponseStatusDraft     = "draft"
	ResponseStatusSubmitted = "submitted"
)

// Result lifecycle statuses. A result stays queued until a worker picks it
// up, and a worker that dies mid-run leaves it in processing until the
// reaper marks it failed.
const (
	ResultStatusQueued     = "queued"
	ResultStatusProcessing = "processing"
	ResultStatusCompleted  = "completed"
	ResultStatusFailed     = "failed"
)

// AssessmentRecord is one compiled assessment. The full document lives in
// the payload column; the remaining columns exist for listing and lookups.
type AssessmentRecord struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	CompanyName   string `gorm:"type:varchar(255)"`
	RoleTitle     string `gorm:"type:varchar(255)"`
	QuestionCount int
	Payload       string `gorm:"type:jsonb"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewAssessmentRecord wraps a compiled assessment for persistence.
func NewAssessmentRecord(a *assessment.Assessment) (*AssessmentRecord, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal assessment payload: %w", err)
	}

	return &AssessmentRecord{
		ID:            a.ID,
		CompanyName:   a.Company.Name,
		RoleTitle:     a.Role.Title,
		QuestionCount: len(a.Questions),
		Payload:       string(payload),
	}, nil
}

// Assessment unpacks the stored assessment document.
func (r *AssessmentRecord) Assessment() (*assessment.Assessment, error) {
	var a assessment.Assessment
	if err := json.Unmarshal([]byte(r.Payload), &a); err != nil {
		return nil, fmt.Errorf("unmarshal assessment payload: %w", err)
	}
	return &a, nil
}

// ResponseRecord is one candidate's answer set for one assessment.
type ResponseRecord struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	AssessmentID  string `gorm:"type:uuid;index"`
	CandidateName string `gorm:"type:varchar(255)"`
	Status        string `gorm:"type:varchar(32)"`
	Payload       string `gorm:"type:jsonb"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewResponseRecord wraps a submitted answer set for persistence.
func NewResponseRecord(assessmentID, candidate string, responses []assessment.Response) (*ResponseRecord, error) {
	payload, err := json.Marshal(responses)
	if err != nil {
		return nil, fmt.Errorf("marshal response payload: %w", err)
	}

	return &ResponseRecord{
		ID:            uuid.NewString(),
		AssessmentID:  assessmentID,
		CandidateName: candidate,
		Status:        ResponseStatusSubmitted,
		Payload:       string(payload),
	}, nil
}

// Responses unpacks the stored answer set.
func (r *ResponseRecord) Responses() ([]assessment.Response, error) {
	var responses []assessment.Response
	if err := json.Unmarshal([]byte(r.Payload), &responses); err != nil {
		return nil, fmt.Errorf("unmarshal response payload: %w", err)
	}
	return responses, nil
}

// ResultRecord tracks one scoring run from queued to completed. The scored
// document lands in the payload column once scoring finishes; the share
// token lets a candidate hand the result to an employer without exposing
// the record id.
type ResultRecord struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	AssessmentID string `gorm:"type:uuid;index"`
	ResponseID   string `gorm:"type:uuid;index"`
	Status       string `gorm:"type:varchar(32);index"`
	ShareToken   string `gorm:"type:varchar(64);uniqueIndex"`
	OverallScore int
	Tier         string `gorm:"type:varchar(32)"`
	Payload      string `gorm:"type:jsonb"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewQueuedResult creates the placeholder record an async scoring run starts
// from.
func NewQueuedResult(assessmentID, responseID string) *ResultRecord {
	return &ResultRecord{
		ID:           uuid.NewString(),
		AssessmentID: assessmentID,
		ResponseID:   responseID,
		Status:       ResultStatusQueued,
		ShareToken:   uuid.NewString(),
	}
}

// Complete fills the record with a finished scoring result.
func (r *ResultRecord) Complete(result *assessment.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result payload: %w", err)
	}

	r.Status = ResultStatusCompleted
	r.OverallScore = result.OverallScore
	r.Tier = string(result.Tier)
	r.Payload = string(payload)
	return nil
}

// Result unpacks the stored scoring result. Only valid for completed records.
func (r *ResultRecord) Result() (*assessment.Result, error) {
	if r.Status != ResultStatusCompleted {
		return nil, fmt.Errorf("result %s is %s, not completed", r.ID, r.Status)
	}

	var result assessment.Result
	if err := json.Unmarshal([]byte(r.Payload), &result); err != nil {
		return nil, fmt.Errorf("unmarshal result payload: %w", err)
	}
	return &result, nil
}

// UsageRecord is one model call's token consumption and computed cost,
// keyed by the pipeline step that made the call.
type UsageRecord struct {
	ID               string `gorm:"type:uuid;primaryKey"`
	Step             string `gorm:"type:varchar(32);index"`
	Model            string `gorm:"type:varchar(128)"`
	Calls            int
	PromptTokens     int
	CompletionTokens int
	CostUSD          float64
	CreatedAt        time.Time
}
