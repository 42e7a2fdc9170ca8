package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Gemini pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.30 // $0.30 per 1M input tokens (text/image/video)
	geminiOutputPricePerMillion = 2.50 // $2.50 per 1M output tokens (including thinking)
)

// GeminiClient calls the Gemini API directly with the official SDK,
// bypassing the relay. Useful when the API key is available locally.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a new direct Gemini client. An empty model
// selects DefaultModel.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Generate implements Generator.
func (g *GeminiClient) Generate(ctx context.Context, req *GenerationRequest) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: req.SystemInstruction,
	}
	if req.UseSearch {
		config.Tools = []*genai.Tool{SearchTool()}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, req.Contents, config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		var apiErrPtr *genai.APIError
		if errors.As(err, &apiErrPtr) {
			return nil, &ProviderError{StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message}
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	resp := fromGenai(result)
	usage := resp.Usage()
	log.Info().
		Str("model", g.model).
		Int("imageCount", req.ImageCount()).
		Bool("search", req.UseSearch).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("gemini llm call")

	return resp, nil
}

// fromGenai copies the fields the pipeline consumes out of the SDK response.
// Part positions are preserved so parts[0] still means the first part.
func fromGenai(result *genai.GenerateContentResponse) *Response {
	resp := &Response{}
	if result == nil {
		return resp
	}
	resp.ModelVersion = result.ModelVersion

	for _, c := range result.Candidates {
		if c == nil {
			continue
		}
		cand := Candidate{FinishReason: string(c.FinishReason)}
		if c.Content != nil {
			content := &CandidateContent{Role: c.Content.Role}
			for _, p := range c.Content.Parts {
				var part ResponsePart
				if p != nil {
					part.Text = p.Text
				}
				content.Parts = append(content.Parts, part)
			}
			cand.Content = content
		}
		resp.Candidates = append(resp.Candidates, cand)
	}

	if result.UsageMetadata != nil {
		resp.UsageMetadata = &UsageMetadata{
			PromptTokenCount:     result.UsageMetadata.PromptTokenCount,
			CandidatesTokenCount: result.UsageMetadata.CandidatesTokenCount,
			TotalTokenCount:      result.UsageMetadata.TotalTokenCount,
		}
	}
	return resp
}

func calculateGeminiCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}
