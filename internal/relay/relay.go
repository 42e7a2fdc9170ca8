package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/raine/myyntiapuri/internal/llm"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// DefaultBaseURL is the Gemini API host.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// Config configures the relay. APIKey may be empty, in which case every
// generate call fails with a configuration error.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Relay forwards generation requests to the provider, attaching the
// server-held API key. It keeps no state between requests.
type Relay struct {
	apiKey   string
	model    string
	endpoint string
	http     *resty.Client
}

// GenerateBody is the request accepted on POST /api/generate. Contents and
// SystemInstruction are kept as raw JSON and forwarded untouched.
type GenerateBody struct {
	Contents          json.RawMessage `json:"contents"`
	SystemInstruction json.RawMessage `json:"systemInstruction,omitempty"`
	UseSearch         bool            `json:"useSearch,omitempty"`
}

// providerPayload is the generateContent body sent upstream.
type providerPayload struct {
	Contents          json.RawMessage `json:"contents"`
	SystemInstruction json.RawMessage `json:"systemInstruction,omitempty"`
	Tools             []*genai.Tool   `json:"tools,omitempty"`
}

// New creates a relay from cfg, filling in the default model and base URL.
func New(cfg Config) *Relay {
	model := cfg.Model
	if model == "" {
		model = llm.DefaultModel
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Relay{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: fmt.Sprintf("%s/v1beta/models/%s:generateContent", baseURL, model),
		http: resty.New().
			SetDebug(false).
			SetHeader("Content-Type", "application/json"),
	}
}

// Generate handles /api/generate.
func (r *Relay) Generate(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, ErrorResponse{Error: MsgMethodNotAllowed})
		return
	}

	if r.apiKey == "" {
		log.Error().Msg("generate called but GEMINI_API_KEY is not configured")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: MsgMissingAPIKey})
		return
	}

	var body GenerateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		log.Warn().Err(err).Msg("invalid generate request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: MsgInvalidBody})
		return
	}
	if !isJSONArray(body.Contents) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: MsgInvalidBody})
		return
	}

	payload := providerPayload{
		Contents:          body.Contents,
		SystemInstruction: body.SystemInstruction,
	}
	if body.UseSearch {
		payload.Tools = []*genai.Tool{llm.SearchTool()}
	}

	res, err := r.http.R().
		SetContext(c.Request.Context()).
		SetQueryParam("key", r.apiKey).
		SetBody(payload).
		Post(r.endpoint)
	if err != nil {
		log.Error().Err(redact(err)).Str("model", r.model).Msg("provider request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: MsgConnectionFailed})
		return
	}

	status := res.StatusCode()
	data := res.Body()

	if status < 200 || status > 299 {
		msg := llm.ErrorMessage(data)
		if msg == "" {
			msg = MsgProviderError
		}
		log.Warn().Int("status", status).Str("model", r.model).Str("message", msg).Msg("provider returned error")
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}

	if !json.Valid(data) {
		log.Error().Int("status", status).Str("model", r.model).Msg("provider returned invalid json")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: MsgConnectionFailed})
		return
	}

	log.Info().
		Str("model", r.model).
		Bool("search", body.UseSearch).
		Int("bytes", len(data)).
		Msg("relayed generate response")

	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// Health reports that the relay is up. It does not check the provider.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// redact strips the request URL (which carries the key) from transport errors.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 2 && trimmed[0] == '['
}
