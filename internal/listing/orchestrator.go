package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/raine/myyntiapuri/internal/llm"
	"github.com/raine/myyntiapuri/internal/storage"
	"github.com/rs/zerolog/log"
)

var (
	ErrBusy        = errors.New("a generation is already in progress")
	ErrNoImages    = errors.New("at least one image is required")
	ErrNoCondition = errors.New("a condition must be selected")
)

// GenerationError is returned for any failed generation. Message is the
// localized text to show the user; Err is the underlying cause.
type GenerationError struct {
	Step    string
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Step, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Request is the input of one generation.
type Request struct {
	Assets         []ImageAsset
	Condition      Condition
	Details        string
	ClosingMessage string
	Language       Language
	// Transcript, when set, receives the prompts and replies.
	Transcript *Transcript
}

// ParsedListing is the result of the listing request.
type ParsedListing struct {
	// Info is the brand, size, material and measurements segment.
	Info  string
	Title string
	// Body is the description as returned by the model.
	Body string
	// Description is Body followed by the closing message.
	Description string
}

// MarketInsights is the result of the search augmented request.
type MarketInsights struct {
	Price   string
	Styling string
	Selling string
}

// StylingTipLines returns up to three non-empty styling tip lines.
func (m MarketInsights) StylingTipLines() []string {
	var lines []string
	for _, line := range strings.Split(m.Styling, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == 3 {
			break
		}
	}
	return lines
}

// Result is a finished generation.
type Result struct {
	Listing  ParsedListing
	Insights MarketInsights
	Entry    storage.HistoryEntry
}

// HistoryRecorder receives an entry for each successful generation.
type HistoryRecorder interface {
	Record(entry storage.HistoryEntry)
}

// Orchestrator runs the two-step generation pipeline. Only one generation
// can be in flight at a time.
type Orchestrator struct {
	generator llm.Generator
	history   HistoryRecorder
	now       func() time.Time

	inFlight atomic.Bool

	mu       sync.Mutex
	status   string
	last     *Result
	observer func(status string)
}

// NewOrchestrator creates an orchestrator. history may be nil.
func NewOrchestrator(generator llm.Generator, history HistoryRecorder) *Orchestrator {
	return &Orchestrator{
		generator: generator,
		history:   history,
		now:       time.Now,
	}
}

// OnStatus registers fn to be called on every status change, including
// the final clear to "".
func (o *Orchestrator) OnStatus(fn func(status string)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observer = fn
}

// Status returns the current progress text, or "" when idle.
func (o *Orchestrator) Status() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Busy reports whether a generation is in flight.
func (o *Orchestrator) Busy() bool {
	return o.inFlight.Load()
}

// Last returns the most recent successful result, or nil.
func (o *Orchestrator) Last() *Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

func (o *Orchestrator) setStatus(status string) {
	o.mu.Lock()
	o.status = status
	observer := o.observer
	o.mu.Unlock()

	if observer != nil {
		observer(status)
	}
}

// Generate runs the listing request, then the market insights request for
// the resulting title, and records the listing in history. Validation
// errors and ErrBusy are returned before any request is made. Any request
// failure is returned as a *GenerationError and leaves Last unchanged.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Result, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer o.inFlight.Store(false)

	if len(req.Assets) == 0 {
		return nil, ErrNoImages
	}
	if !req.Condition.Valid() {
		return nil, ErrNoCondition
	}
	lang := req.Language
	if lang == "" {
		lang = LanguageFinnish
	}
	tr := req.Transcript
	tr.User("condition=%s images=%d details=%q", req.Condition.Key(), len(req.Assets), req.Details)

	defer o.setStatus("")

	o.setStatus(lang.StatusAnalyzing())
	tr.State("listing request")
	text, err := o.call(ctx, BuildListingRequest(req.Assets, req.Condition, req.Details, lang))
	if err != nil {
		tr.Error("listing request: %v", err)
		return nil, o.fail("listing", lang, err)
	}
	tr.LLM("%s", text)
	listing := parseListing(text, req.ClosingMessage, lang)

	o.setStatus(lang.StatusFinalizing())
	tr.State("insights request for %q", listing.Title)
	text, err = o.call(ctx, BuildInsightsRequest(listing.Title, lang))
	if err != nil {
		tr.Error("insights request: %v", err)
		return nil, o.fail("insights", lang, err)
	}
	tr.LLM("%s", text)
	insights := parseInsights(text)

	now := o.now()
	result := &Result{
		Listing:  listing,
		Insights: insights,
		Entry: storage.HistoryEntry{
			ID:    now.UnixMilli(),
			Title: listing.Title,
			Date:  lang.FormatDate(now),
		},
	}

	o.mu.Lock()
	o.last = result
	o.mu.Unlock()

	if o.history != nil {
		o.history.Record(result.Entry)
	}
	tr.State("done, history id %d", result.Entry.ID)

	log.Info().
		Str("title", listing.Title).
		Int("imageCount", len(req.Assets)).
		Str("condition", req.Condition.Key()).
		Msg("listing generated")

	return result, nil
}

func (o *Orchestrator) call(ctx context.Context, req *llm.GenerationRequest) (string, error) {
	resp, err := o.generator.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.FirstText()
}

func (o *Orchestrator) fail(step string, lang Language, err error) error {
	log.Error().Err(err).Str("step", step).Msg("generation failed")
	return &GenerationError{Step: step, Message: lang.GenerationFailedMessage(), Err: err}
}

func parseListing(text, closing string, lang Language) ParsedListing {
	fields, err := ListingFormat.Parse(text)
	var missing *MissingFieldsError
	if errors.As(err, &missing) {
		log.Warn().Strs("missing", missing.Missing).Msg("listing reply is missing segments")
	}

	listing := ParsedListing{
		Info:  fields[0],
		Title: fields[1],
		Body:  fields[2],
	}
	if listing.Title == "" {
		listing.Title = lang.TitlePlaceholder()
	}

	listing.Description = listing.Body
	if closing = strings.TrimSpace(closing); closing != "" {
		listing.Description = listing.Body + "\n\n" + closing
	}
	return listing
}

func parseInsights(text string) MarketInsights {
	fields, err := InsightsFormat.Parse(text)
	var missing *MissingFieldsError
	if errors.As(err, &missing) {
		log.Warn().Strs("missing", missing.Missing).Msg("insights reply is missing segments")
	}
	return MarketInsights{
		Price:   fields[0],
		Styling: fields[1],
		Selling: fields[2],
	}
}
