package teller

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"taleweaver/internal/audio/queue"
	"taleweaver/internal/audio/voices"
	"taleweaver/internal/domain/story"
)

// stubSynth encodes each request as "text|voiceID" so the narrator stub can
// observe exactly what would have been spoken.
type stubSynth struct {
	mu    sync.Mutex
	calls []string
	fail  func(text string) error
}

func (s *stubSynth) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, text+"|"+voiceID)
	if s.fail != nil {
		if err := s.fail(text); err != nil {
			return nil, err
		}
	}
	return []byte(text + "|" + voiceID), nil
}

type stubNarrator struct {
	mu     sync.Mutex
	played []string
}

func (n *stubNarrator) Play(ctx context.Context, data []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.played = append(n.played, string(data))
	return nil
}

func (n *stubNarrator) snapshot() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.played...)
}

type stubGen struct {
	opening   *story.Scene
	next      *story.Scene
	nextCalls int
	gotSize   int
}

func (g *stubGen) OpeningScene(ctx context.Context, params story.Params) (*story.Scene, error) {
	return g.opening, nil
}

func (g *stubGen) NextScene(ctx context.Context, params story.Params, history []story.PlayedScene, decision story.Decision) (*story.Scene, error) {
	g.nextCalls++
	g.gotSize = len(history)
	return g.next, nil
}

func fastOptions() queue.Options {
	return queue.Options{
		MaxRetries:        1,
		RetryDelay:        5 * time.Millisecond,
		BackoffMultiplier: 1,
		PacingDelay:       time.Millisecond,
	}
}

func newTestTeller(t *testing.T, s *stubSynth, g Generator) (*Teller, *stubNarrator) {
	t.Helper()
	reg, err := voices.NewRegistry("narrator-voice")
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	n := &stubNarrator{}
	return New(reg, s, n, g, nil, fastOptions()), n
}

func TestSpeakFallsBackToNarratorVoice(t *testing.T) {
	s := &stubSynth{}
	tl, n := newTestTeller(t, s, nil)

	item := queue.Item{Character: "Stranger", Text: "Who are you?"}
	if err := tl.speak(context.Background(), item); err != nil {
		t.Fatalf("speak: %v", err)
	}
	played := n.snapshot()
	if len(played) != 1 || played[0] != "Who are you?|narrator-voice" {
		t.Errorf("played = %v, want the narrator voice fallback", played)
	}
}

func TestSpeakUsesConfiguredVoice(t *testing.T) {
	s := &stubSynth{}
	tl, n := newTestTeller(t, s, nil)
	tl.ConfigureVoices(map[string]string{"Mira": "mira-voice"})

	if err := tl.speak(context.Background(), queue.Item{Character: "mira", Text: "Hello"}); err != nil {
		t.Fatalf("speak: %v", err)
	}
	if played := n.snapshot(); played[0] != "Hello|mira-voice" {
		t.Errorf("played = %v, want mira-voice", played)
	}
}

func TestNarrateScenePlaysInReadingOrder(t *testing.T) {
	s := &stubSynth{}
	tl, n := newTestTeller(t, s, nil)
	tl.ConfigureVoices(map[string]string{"Mira": "v1", "Bram": "v2"})

	scene := &story.Scene{
		Segments: []story.Segment{
			{
				Narration: "The gate swings open.",
				Dialogue: []story.DialogueLine{
					{Character: "Mira", Text: "After you."},
					{Character: "Bram", Text: "Together, then."},
				},
			},
			{Narration: "They step inside."},
		},
	}

	if err := tl.NarrateScene(context.Background(), scene); err != nil {
		t.Fatalf("NarrateScene: %v", err)
	}

	want := []string{
		"The gate swings open.|narrator-voice",
		"After you.|v1",
		"Together, then.|v2",
		"They step inside.|narrator-voice",
	}
	got := n.snapshot()
	if len(got) != len(want) {
		t.Fatalf("played %d lines, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNarrateSceneSkipsFailingLine(t *testing.T) {
	s := &stubSynth{fail: func(text string) error {
		if text == "cursed" {
			return context.DeadlineExceeded
		}
		return nil
	}}
	tl, n := newTestTeller(t, s, nil)

	scene := &story.Scene{
		Segments: []story.Segment{
			{Narration: "All is well."},
			{Narration: "cursed"},
			{Narration: "The story goes on."},
		},
	}

	err := tl.NarrateScene(context.Background(), scene)
	if err == nil {
		t.Fatal("NarrateScene succeeded despite a failing line")
	}

	played := n.snapshot()
	if len(played) != 2 {
		t.Fatalf("played %d lines, want 2: %v", len(played), played)
	}
	if played[1] != "The story goes on.|narrator-voice" {
		t.Errorf("narration did not continue past the failed line: %v", played)
	}
}

func TestRunSessionWalksOneDecision(t *testing.T) {
	g := &stubGen{
		opening: &story.Scene{
			Segments:  []story.Segment{{Narration: "It begins."}},
			Decisions: []story.Decision{{Text: "Open the door", Consequences: "Who knows"}},
		},
		next: &story.Scene{
			Segments: []story.Segment{{Narration: "It ends."}},
		},
	}
	tl, n := newTestTeller(t, &stubSynth{}, g)
	tl.in = strings.NewReader("1\n")

	params := story.Params{CharacterName: "Mira", Genre: "Mystery"}
	if err := tl.RunSession(context.Background(), params); err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	if g.nextCalls != 1 {
		t.Errorf("NextScene called %d times, want 1", g.nextCalls)
	}
	if g.gotSize != 1 {
		t.Errorf("history had %d scenes, want 1", g.gotSize)
	}
	played := n.snapshot()
	if len(played) != 2 {
		t.Errorf("played %d lines across the session, want 2: %v", len(played), played)
	}
}

func TestRunSessionQuit(t *testing.T) {
	g := &stubGen{
		opening: &story.Scene{
			Segments:  []story.Segment{{Narration: "It begins."}},
			Decisions: []story.Decision{{Text: "Open the door"}},
		},
	}
	tl, _ := newTestTeller(t, &stubSynth{}, g)
	tl.in = strings.NewReader("q\n")

	if err := tl.RunSession(context.Background(), story.Params{Genre: "Horror"}); err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	if g.nextCalls != 0 {
		t.Errorf("NextScene called %d times after quit, want 0", g.nextCalls)
	}
}
