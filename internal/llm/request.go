package llm

import (
	"errors"

	"google.golang.org/genai"
)

// GeneratePath is the relay endpoint that accepts GenerationRequests.
const GeneratePath = "/api/generate"

// ErrEmptyRequest is returned when a request carries no content parts.
var ErrEmptyRequest = errors.New("generation request has no content parts")

// GenerationRequest is the body sent to the relay. Contents and
// SystemInstruction use the provider's own content schema so the relay can
// forward them without translation.
type GenerationRequest struct {
	Contents          []*genai.Content `json:"contents"`
	SystemInstruction *genai.Content   `json:"systemInstruction,omitempty"`
	UseSearch         bool             `json:"useSearch,omitempty"`
}

// NewUserRequest builds a single-turn request from the given parts.
func NewUserRequest(parts ...*genai.Part) *GenerationRequest {
	return &GenerationRequest{
		Contents: []*genai.Content{
			genai.NewContentFromParts(parts, genai.RoleUser),
		},
	}
}

// WithSystemInstruction sets a text-only system instruction.
func (r *GenerationRequest) WithSystemInstruction(text string) *GenerationRequest {
	r.SystemInstruction = &genai.Content{
		Parts: []*genai.Part{genai.NewPartFromText(text)},
	}
	return r
}

// WithSearch asks the relay to enable the provider's search tool.
func (r *GenerationRequest) WithSearch() *GenerationRequest {
	r.UseSearch = true
	return r
}

// PartCount returns the number of content parts across all contents.
func (r *GenerationRequest) PartCount() int {
	n := 0
	for _, c := range r.Contents {
		if c != nil {
			n += len(c.Parts)
		}
	}
	return n
}

// ImageCount returns the number of inline binary parts.
func (r *GenerationRequest) ImageCount() int {
	n := 0
	for _, c := range r.Contents {
		if c == nil {
			continue
		}
		for _, p := range c.Parts {
			if p != nil && p.InlineData != nil {
				n++
			}
		}
	}
	return n
}

// Validate checks that the request has at least one content part.
func (r *GenerationRequest) Validate() error {
	if r == nil || r.PartCount() == 0 {
		return ErrEmptyRequest
	}
	return nil
}

// SearchTool is the tool declaration that enables provider-side search.
func SearchTool() *genai.Tool {
	return &genai.Tool{GoogleSearch: &genai.GoogleSearch{}}
}
