package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// maxErrorBodyBytes caps how much of a failed response is carried into the
// error message.
const maxErrorBodyBytes = 2048

// ElevenLabs synthesizes speech through the ElevenLabs HTTP API.
type ElevenLabs struct {
	apiKey  string
	baseURL string
	modelID string
	client  *http.Client
	log     *logrus.Entry
}

type elevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// NewElevenLabs validates credentials up front so a broken configuration
// fails loudly at startup instead of on the first narration line.
func NewElevenLabs(apiKey, baseURL, modelID string) (*ElevenLabs, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: ElevenLabs API key", ErrMissingCredentials)
	}
	if baseURL == "" {
		return nil, fmt.Errorf("%w: ElevenLabs base URL", ErrMissingCredentials)
	}
	if modelID == "" {
		modelID = "eleven_flash_v2_5"
	}

	return &ElevenLabs{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		modelID: modelID,
		client:  &http.Client{},
		log:     logrus.WithField("component", "synth.elevenlabs"),
	}, nil
}

// Synthesize performs one text-to-speech call and returns the MP3 bytes.
func (e *ElevenLabs) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if voiceID == "" {
		return nil, fmt.Errorf("synth: voice id is required")
	}
	if text == "" {
		return nil, fmt.Errorf("synth: text is required")
	}

	body, err := json.Marshal(elevenLabsRequest{
		Text:    text,
		ModelID: e.modelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0.25,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("synth: encode request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", e.baseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("synth: build request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.apiKey)

	e.log.WithFields(logrus.Fields{
		"voice_id":    voiceID,
		"text_length": len(text),
	}).Debug("synthesizing speech")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synth: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &SynthesisError{
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(msg)),
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("synth: read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, &SynthesisError{Status: resp.StatusCode, Message: "empty audio response"}
	}
	return audio, nil
}
