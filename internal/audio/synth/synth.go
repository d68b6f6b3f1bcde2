package synth

import (
	"context"
	"errors"
	"fmt"
)

// Synthesizer converts text to encoded audio via an external service. A call
// is a single attempt: no internal retry and no caching. Retry policy belongs
// to the narration queue.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// ErrMissingCredentials means a required API credential or base URL is absent
// from configuration. Fatal, not retryable.
var ErrMissingCredentials = errors.New("synth: missing credentials")

// SynthesisError is a failed synthesis attempt: a non-success response from
// the speech service.
type SynthesisError struct {
	Status  int
	Message string
}

func (e *SynthesisError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("synth: service returned status %d", e.Status)
	}
	return fmt.Sprintf("synth: service returned status %d: %s", e.Status, e.Message)
}

// Backend identifies a synthesizer implementation.
type Backend string

const (
	BackendElevenLabs Backend = "elevenlabs"
	BackendGoogleTTS  Backend = "googletts"
	BackendMock       Backend = "mock"
)

// Config selects and configures a synthesizer backend.
type Config struct {
	Backend      Backend
	APIKey       string
	BaseURL      string
	ModelID      string
	LanguageCode string
}

// New creates a synthesizer for the configured backend.
func New(ctx context.Context, cfg Config) (Synthesizer, error) {
	switch cfg.Backend {
	case BackendElevenLabs:
		return NewElevenLabs(cfg.APIKey, cfg.BaseURL, cfg.ModelID)
	case BackendGoogleTTS:
		return NewGoogleTTS(ctx, cfg.LanguageCode)
	case BackendMock:
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("synth: unsupported backend %q", cfg.Backend)
	}
}
