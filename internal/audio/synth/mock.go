package synth

import (
	"context"
	"fmt"
)

// Mock is a deterministic synthesizer for tests and offline runs. Output
// length is proportional to the input text.
type Mock struct{}

// NewMock returns a mock synthesizer.
func NewMock() *Mock {
	return &Mock{}
}

// Synthesize returns deterministic silence-like bytes.
func (m *Mock) Synthesize(_ context.Context, text, voiceID string) ([]byte, error) {
	if voiceID == "" {
		return nil, fmt.Errorf("synth: voice id is required")
	}
	if text == "" {
		return nil, fmt.Errorf("synth: text is required")
	}
	return make([]byte, len(text)*320), nil
}
