package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// DefaultRelayTimeout bounds a single relay call. Search-augmented calls can
// take a while on the provider side.
const DefaultRelayTimeout = 2 * time.Minute

// RelayClient talks to the relay's POST /api/generate endpoint.
type RelayClient struct {
	http *resty.Client
}

// NewRelayClient creates a client for the relay at baseURL
// (e.g. "http://localhost:8080").
func NewRelayClient(baseURL string) *RelayClient {
	return &RelayClient{
		http: resty.New().
			SetDebug(false).
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(DefaultRelayTimeout).
			SetHeader("Content-Type", "application/json"),
	}
}

// Generate implements Generator.
func (c *RelayClient) Generate(ctx context.Context, req *GenerationRequest) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post(GeneratePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if res.IsError() {
		perr := newProviderError(res.StatusCode(), res.Body())
		log.Warn().
			Int("status", perr.StatusCode).
			Str("message", perr.Message).
			Msg("relay returned error")
		return nil, perr
	}

	var resp Response
	if err := json.Unmarshal(res.Body(), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	usage := resp.Usage()
	log.Info().
		Str("model", resp.ModelVersion).
		Int("imageCount", req.ImageCount()).
		Bool("search", req.UseSearch).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("relay llm call")

	return &resp, nil
}
