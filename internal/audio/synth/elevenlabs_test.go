package synth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewElevenLabsRequiresCredentials(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		baseURL string
	}{
		{name: "missing key", apiKey: "", baseURL: "https://api.example.com"},
		{name: "missing base url", apiKey: "key", baseURL: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewElevenLabs(tt.apiKey, tt.baseURL, ""); !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("NewElevenLabs = %v, want ErrMissingCredentials", err)
			}
		})
	}
}

func TestSynthesizeSuccess(t *testing.T) {
	audio := []byte("fake-mp3-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got, want := r.URL.Path, "/text-to-speech/voice-123"; got != want {
			t.Errorf("path = %s, want %s", got, want)
		}
		if got := r.Header.Get("xi-api-key"); got != "secret" {
			t.Errorf("xi-api-key = %q, want secret", got)
		}
		if got := r.Header.Get("Accept"); got != "audio/mpeg" {
			t.Errorf("Accept = %q, want audio/mpeg", got)
		}
		w.Write(audio)
	}))
	defer srv.Close()

	e, err := NewElevenLabs("secret", srv.URL, "")
	if err != nil {
		t.Fatalf("NewElevenLabs: %v", err)
	}

	got, err := e.Synthesize(context.Background(), "hello there", "voice-123")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(got) != string(audio) {
		t.Errorf("audio = %q, want %q", got, audio)
	}
}

func TestSynthesizeServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	e, err := NewElevenLabs("secret", srv.URL, "")
	if err != nil {
		t.Fatalf("NewElevenLabs: %v", err)
	}

	_, err = e.Synthesize(context.Background(), "hello", "voice-123")
	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("Synthesize error = %v, want *SynthesisError", err)
	}
	if synthErr.Status != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", synthErr.Status, http.StatusTooManyRequests)
	}
	if synthErr.Message != "rate limited" {
		t.Errorf("message = %q, want %q", synthErr.Message, "rate limited")
	}
}

func TestSynthesizeValidatesInput(t *testing.T) {
	e, err := NewElevenLabs("secret", "https://api.example.com", "")
	if err != nil {
		t.Fatalf("NewElevenLabs: %v", err)
	}

	if _, err := e.Synthesize(context.Background(), "", "voice"); err == nil {
		t.Error("empty text accepted")
	}
	if _, err := e.Synthesize(context.Background(), "text", ""); err == nil {
		t.Error("empty voice id accepted")
	}
}

func TestFactoryUnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), Config{Backend: "festival"}); err == nil {
		t.Error("unknown backend accepted")
	}
}

func TestFactoryMock(t *testing.T) {
	s, err := New(context.Background(), Config{Backend: BackendMock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	audio, err := s.Synthesize(context.Background(), "hi", "any-voice")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(audio) == 0 {
		t.Error("mock returned no audio")
	}
}
