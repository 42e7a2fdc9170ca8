package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Response is the subset of the provider's generateContent response that
// the listing pipeline reads: candidates[0].content.parts[0].text plus
// usage metadata for logging. Unknown fields are ignored.
type Response struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

type Candidate struct {
	Content      *CandidateContent `json:"content,omitempty"`
	FinishReason string            `json:"finishReason,omitempty"`
}

type CandidateContent struct {
	Parts []ResponsePart `json:"parts"`
	Role  string         `json:"role,omitempty"`
}

type ResponsePart struct {
	Text string `json:"text,omitempty"`
}

type UsageMetadata struct {
	PromptTokenCount     int32 `json:"promptTokenCount"`
	CandidatesTokenCount int32 `json:"candidatesTokenCount"`
	TotalTokenCount      int32 `json:"totalTokenCount"`
}

// NewTextResponse builds a response with a single candidate holding text.
func NewTextResponse(text string) *Response {
	return &Response{
		Candidates: []Candidate{{
			Content: &CandidateContent{
				Parts: []ResponsePart{{Text: text}},
				Role:  "model",
			},
		}},
	}
}

// FirstText returns the text of the first part of the first candidate.
// A response without that shape yields ErrShapeMismatch.
func (r *Response) FirstText() (string, error) {
	if r == nil || len(r.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrShapeMismatch)
	}
	content := r.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", fmt.Errorf("%w: first candidate has no parts (finish reason %q)", ErrShapeMismatch, r.Candidates[0].FinishReason)
	}
	if content.Parts[0].Text == "" {
		return "", fmt.Errorf("%w: first part has no text", ErrShapeMismatch)
	}
	return content.Parts[0].Text, nil
}

// Usage converts usage metadata into token counts and an estimated cost.
func (r *Response) Usage() Usage {
	if r == nil || r.UsageMetadata == nil {
		return Usage{}
	}
	u := Usage{
		InputTokens:  int64(r.UsageMetadata.PromptTokenCount),
		OutputTokens: int64(r.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int64(r.UsageMetadata.TotalTokenCount),
	}
	u.CostUSD = calculateGeminiCost(u.InputTokens, u.OutputTokens, geminiInputPricePerMillion, geminiOutputPricePerMillion)
	return u
}

// ErrorMessage extracts a human-readable message from an error body. Both
// the relay's normalized {"error": "..."} and the provider's
// {"error": {"message": "..."}} shapes are understood. Returns "" when no
// message can be found.
func ErrorMessage(body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return ""
	}

	var msg string
	if err := json.Unmarshal(envelope.Error, &msg); err == nil {
		return strings.TrimSpace(msg)
	}

	var detailed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &detailed); err == nil {
		return strings.TrimSpace(detailed.Message)
	}
	return ""
}

func newProviderError(status int, body []byte) *ProviderError {
	msg := ErrorMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &ProviderError{StatusCode: status, Message: msg}
}
