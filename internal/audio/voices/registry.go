package voices

import (
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// NarratorKey is the reserved assignment key that always resolves to the
// configured narrator voice.
const NarratorKey = "narrator"

// ErrNarratorNotConfigured is returned when no narrator voice id is available
// from configuration.
var ErrNarratorNotConfigured = errors.New("voices: narrator voice id not configured")

// Registry maps normalized character names to voice identifiers. It is a
// long-lived service object constructed once per application and passed to
// consumers; it performs no network calls.
type Registry struct {
	mu         sync.RWMutex
	narratorID string
	voiceMap   map[string]string
	log        *logrus.Entry
}

// NewRegistry creates a registry seeded with the narrator voice. Fails when
// the narrator id is empty, so a broken configuration surfaces at startup
// rather than deep inside a narration request.
func NewRegistry(narratorVoiceID string) (*Registry, error) {
	if strings.TrimSpace(narratorVoiceID) == "" {
		return nil, ErrNarratorNotConfigured
	}

	r := &Registry{
		narratorID: narratorVoiceID,
		voiceMap:   map[string]string{NarratorKey: narratorVoiceID},
		log:        logrus.WithField("component", "voices"),
	}
	return r, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Configure replaces the active assignment mapping. Keys are normalized
// (lowercased, trimmed) before storing; later duplicates overwrite earlier
// ones. The reserved narrator entry is always re-injected from configuration,
// overwriting any caller-supplied value.
func (r *Registry) Configure(assignments map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := make(map[string]string, len(assignments)+1)
	for name, voiceID := range assignments {
		m[normalize(name)] = voiceID
	}
	m[NarratorKey] = r.narratorID

	r.voiceMap = m
	r.log.WithField("voices", len(m)).Debug("voice assignments configured")
}

// Resolve looks up the voice for a character name, case- and
// whitespace-insensitively. An unknown character is not an error; the second
// return value is false and callers are expected to fall back to the
// narrator's voice.
func (r *Registry) Resolve(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.voiceMap[normalize(name)]
	return id, ok
}

// NarratorVoiceID returns the configured narrator voice id.
func (r *Registry) NarratorVoiceID() string {
	return r.narratorID
}

// Voices returns a copy of the active assignment mapping.
func (r *Registry) Voices() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.voiceMap))
	for k, v := range r.voiceMap {
		out[k] = v
	}
	return out
}
