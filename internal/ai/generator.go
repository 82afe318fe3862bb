package ai

import "context"

// Generator is the text-generation capability the pipeline stages depend on.
// Provider subpackages implement it; stages declare their own narrower
// interfaces so tests can stub them.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Model() string
	Usage() Usage
}

// Usage is a cumulative tally of model token consumption. Providers keep a
// running total; callers snapshot it between pipeline stages.
type Usage struct {
	Calls            int `json:"calls"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Add folds one call's counts into the tally.
func (u Usage) Add(other Usage) Usage {
	u.Calls += other.Calls
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	return u
}

// Delta returns the usage accumulated since an earlier snapshot.
func (u Usage) Delta(since Usage) Usage {
	return Usage{
		Calls:            u.Calls - since.Calls,
		PromptTokens:     u.PromptTokens - since.PromptTokens,
		CompletionTokens: u.CompletionTokens - since.CompletionTokens,
	}
}

// TotalTokens returns prompt plus completion tokens.
func (u Usage) TotalTokens() int {
	return u.PromptTokens + u.CompletionTokens
}
