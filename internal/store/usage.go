package store

import "strings"

// Pipeline steps usage entries are keyed by.
const (
	StepResearch   = "research"
	StepGeneration = "generation"
	StepScoring    = "scoring"
)

// USD per million tokens. Prices are list prices as of mid-2025; an unknown
// model records zero cost rather than guessing.
type modelPrice struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

var modelPrices = map[string]modelPrice{
	"gemini-2.5-pro":   {InputPerMillion: 1.25, OutputPerMillion: 10.00},
	"gemini-2.5-flash": {InputPerMillion: 0.30, OutputPerMillion: 2.50},
	"gpt-4o":           {InputPerMillion: 2.50, OutputPerMillion: 10.00},
	"gpt-4o-mini":      {InputPerMillion: 0.15, OutputPerMillion: 0.60},
	"gpt-4.1":          {InputPerMillion: 2.00, OutputPerMillion: 8.00},
	"gpt-4.1-mini":     {InputPerMillion: 0.40, OutputPerMillion: 1.60},
}

// CostUSD computes the dollar cost of one usage entry from the static price
// table.
func CostUSD(model string, promptTokens, completionTokens int) float64 {
	price, ok := modelPrices[strings.ToLower(strings.TrimSpace(model))]
	if !ok {
		return 0
	}

	const million = 1_000_000
	return float64(promptTokens)/million*price.InputPerMillion +
		float64(completionTokens)/million*price.OutputPerMillion
}
