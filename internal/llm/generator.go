package llm

import "context"

// Generator sends a GenerationRequest to the provider, directly or through
// the relay, and returns the decoded response.
type Generator interface {
	Generate(ctx context.Context, req *GenerationRequest) (*Response, error)
}

// Usage contains token usage and cost information.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}
