package listing

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Transcript is a per-draft plain text log of what was sent to and received
// from the model. A nil *Transcript discards everything.
type Transcript struct {
	path string
}

// NewTranscript creates dir if needed and truncates the draft's log file.
func NewTranscript(dir, draftID string) (*Transcript, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create transcript dir: %w", err)
	}

	t := &Transcript{path: filepath.Join(dir, fmt.Sprintf("listing_%s.log", draftID))}
	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to start transcript: %w", err)
	}
	defer f.Close()

	header := fmt.Sprintf("=== Listing Log ===\nDraft: %s\nStarted: %s\n\n",
		draftID, time.Now().Format("2006-01-02 15:04:05"))
	if _, err := f.WriteString(header); err != nil {
		return nil, fmt.Errorf("failed to start transcript: %w", err)
	}
	return t, nil
}

// Path returns the log file location.
func (t *Transcript) Path() string {
	if t == nil {
		return ""
	}
	return t.path
}

func (t *Transcript) append(prefix, msg string) {
	if t == nil {
		return
	}
	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Error().Err(err).Str("path", t.path).Msg("failed to write transcript")
		return
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s %s\n", time.Now().Format("15:04:05"), prefix, msg)
	f.WriteString(line)
}

// User logs user input.
func (t *Transcript) User(format string, args ...any) {
	t.append("USER ", fmt.Sprintf(format, args...))
}

// LLM logs a model reply.
func (t *Transcript) LLM(format string, args ...any) {
	t.append("LLM  ", fmt.Sprintf(format, args...))
}

// State logs pipeline progress.
func (t *Transcript) State(format string, args ...any) {
	t.append("STATE", fmt.Sprintf(format, args...))
}

// Error logs a failure.
func (t *Transcript) Error(format string, args ...any) {
	t.append("ERROR", fmt.Sprintf(format, args...))
}
