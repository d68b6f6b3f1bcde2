package synth

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"github.com/sirupsen/logrus"
	texttospeechpb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"
)

// GoogleTTS synthesizes speech through Google Cloud Text-to-Speech. The voice
// identifier is the cloud voice name, e.g. "en-US-Chirp3-HD-Charon".
type GoogleTTS struct {
	client       *texttospeech.Client
	languageCode string
	log          *logrus.Entry
}

// NewGoogleTTS creates the cloud client. Credentials come from the standard
// GOOGLE_APPLICATION_CREDENTIALS environment.
func NewGoogleTTS(ctx context.Context, languageCode string) (*GoogleTTS, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: google text-to-speech client: %v", ErrMissingCredentials, err)
	}
	if languageCode == "" {
		languageCode = "en-US"
	}

	return &GoogleTTS{
		client:       client,
		languageCode: languageCode,
		log:          logrus.WithField("component", "synth.googletts"),
	}, nil
}

// Synthesize performs one synthesis call and returns the MP3 bytes.
func (g *GoogleTTS) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if voiceID == "" {
		return nil, fmt.Errorf("synth: voice id is required")
	}
	if text == "" {
		return nil, fmt.Errorf("synth: text is required")
	}

	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: g.languageCode,
			Name:         voiceID,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	}

	g.log.WithFields(logrus.Fields{
		"voice_id":    voiceID,
		"text_length": len(text),
	}).Debug("synthesizing speech")

	resp, err := g.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("synth: google synthesis failed: %w", err)
	}
	return resp.AudioContent, nil
}

// Close releases the underlying gRPC connection.
func (g *GoogleTTS) Close() error {
	return g.client.Close()
}

// ListVoices returns the names of the voices available for the configured
// language.
func (g *GoogleTTS) ListVoices(ctx context.Context) ([]string, error) {
	resp, err := g.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{
		LanguageCode: g.languageCode,
	})
	if err != nil {
		return nil, err
	}
	voices := make([]string, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		voices = append(voices, v.Name)
	}
	return voices, nil
}
