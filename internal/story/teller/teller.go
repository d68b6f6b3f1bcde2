package teller

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"taleweaver/internal/audio/music"
	"taleweaver/internal/audio/queue"
	"taleweaver/internal/audio/synth"
	"taleweaver/internal/audio/voices"
	"taleweaver/internal/cli/scheme/colours"
	"taleweaver/internal/domain/story"
)

// Narrator plays one synthesized clip to completion. *player.Player satisfies
// this; tests substitute a recorder.
type Narrator interface {
	Play(ctx context.Context, data []byte) error
}

// Generator produces story scenes.
type Generator interface {
	OpeningScene(ctx context.Context, params story.Params) (*story.Scene, error)
	NextScene(ctx context.Context, params story.Params, history []story.PlayedScene, decision story.Decision) (*story.Scene, error)
}

// Teller runs an interactive story session: it generates scenes, narrates
// them line by line through the narration queue, and walks the player's
// decisions. One Teller owns one narration queue.
type Teller struct {
	registry *voices.Registry
	synth    synth.Synthesizer
	narrator Narrator
	gen      Generator
	queue    *queue.Queue
	music    *music.Channel
	in       io.Reader
	log      *logrus.Entry
}

// New wires a teller together. music may be nil when background music is
// disabled.
func New(registry *voices.Registry, s synth.Synthesizer, narrator Narrator, gen Generator, bg *music.Channel, opts queue.Options) *Teller {
	t := &Teller{
		registry: registry,
		synth:    s,
		narrator: narrator,
		gen:      gen,
		music:    bg,
		in:       os.Stdin,
		log:      logrus.WithField("component", "teller"),
	}
	t.queue = queue.New(t.speak, opts)
	return t
}

// speak is the narration queue's processor: one synthesis, one playback, no
// internal retries.
func (t *Teller) speak(ctx context.Context, item queue.Item) error {
	voiceID, ok := t.registry.Resolve(item.Character)
	if !ok {
		t.log.WithField("character", item.Character).Warn("no voice mapped, using narrator voice")
		voiceID = t.registry.NarratorVoiceID()
	}

	data, err := t.synth.Synthesize(ctx, item.Text, voiceID)
	if err != nil {
		return fmt.Errorf("synthesize %q line: %w", item.Character, err)
	}
	return t.narrator.Play(ctx, data)
}

// ConfigureVoices replaces the character-to-voice mapping for the session.
func (t *Teller) ConfigureVoices(mapping map[string]string) {
	t.registry.Configure(mapping)
}

// NarrateScene enqueues every line of the scene in reading order, narration
// before dialogue within each segment, and blocks until all lines have
// settled. Lines that exhaust their retries are skipped; their errors are
// joined into the return value while the rest of the scene still plays.
func (t *Teller) NarrateScene(ctx context.Context, scene *story.Scene) error {
	type pending struct {
		character string
		ch        <-chan error
	}
	var results []pending

	for _, seg := range scene.Segments {
		if seg.Narration != "" {
			ch, err := t.queue.Enqueue(voices.NarratorKey, seg.Narration)
			if err != nil {
				return err
			}
			results = append(results, pending{voices.NarratorKey, ch})
		}
		for _, line := range seg.Dialogue {
			ch, err := t.queue.Enqueue(line.Character, line.Text)
			if err != nil {
				return err
			}
			results = append(results, pending{line.Character, ch})
		}
	}

	var failures []error
	for _, p := range results {
		select {
		case err := <-p.ch:
			if err != nil {
				failures = append(failures, fmt.Errorf("%s: %w", p.character, err))
			}
		case <-ctx.Done():
			t.queue.Clear()
			return ctx.Err()
		}
	}
	return errors.Join(failures...)
}

// StopNarration abandons everything queued and in flight.
func (t *Teller) StopNarration() {
	t.queue.Clear()
}

// Queue exposes the narration queue for status displays.
func (t *Teller) Queue() *queue.Queue {
	return t.queue
}

// RunSession drives a full interactive story: opening scene, then a
// narrate-choose-continue loop until the player quits or generation fails.
func (t *Teller) RunSession(ctx context.Context, params story.Params) error {
	if t.music != nil {
		if err := t.music.Play(); err != nil {
			t.log.WithError(err).Warn("background music unavailable")
		}
		defer t.music.Pause()
	}
	defer t.StopNarration()

	fmt.Println()
	colours.Title.Printf("📖 A %s story for %s begins...\n", params.Genre, params.CharacterName)
	fmt.Println()

	scene, err := t.gen.OpeningScene(ctx, params)
	if err != nil {
		return fmt.Errorf("opening scene: %w", err)
	}

	var history []story.PlayedScene
	reader := bufio.NewReader(t.in)

	for {
		t.displayScene(scene)
		if err := t.NarrateScene(ctx, scene); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			colours.Warning.Println("⚠️  Some lines could not be narrated.")
			t.log.WithError(err).Warn("scene narration incomplete")
		}

		if len(scene.Decisions) == 0 {
			colours.Success.Println("✨ The story has reached its end. ✨")
			return nil
		}

		decision, quit, err := t.promptDecision(reader, scene.Decisions)
		if err != nil {
			return err
		}
		if quit {
			colours.Warning.Println("👋 The story pauses here. Until next time!")
			return nil
		}

		history = append(history, story.PlayedScene{Scene: *scene, Decision: decision})

		colours.Info.Println("✍️  Writing the next scene...")
		next, err := t.gen.NextScene(ctx, params, history, decision)
		if err != nil {
			return fmt.Errorf("next scene: %w", err)
		}
		scene = next
	}
}

func (t *Teller) displayScene(scene *story.Scene) {
	fmt.Println()
	for _, seg := range scene.Segments {
		if seg.Narration != "" {
			colours.Narration.Println(seg.Narration)
		}
		for _, line := range seg.Dialogue {
			colours.Character.Printf("%s: ", line.Character)
			fmt.Printf("%q\n", line.Text)
		}
		fmt.Println()
	}
}

// promptDecision lists the choices and reads one. Invalid input re-prompts;
// 'q' ends the session.
func (t *Teller) promptDecision(reader *bufio.Reader, decisions []story.Decision) (story.Decision, bool, error) {
	colours.Prompt.Println("🌟 What happens next?")
	for i, d := range decisions {
		fmt.Printf("  %d. %s\n", i+1, d.Text)
		if d.Consequences != "" {
			colours.Info.Printf("     💡 %s\n", d.Consequences)
		}
	}

	for {
		colours.Prompt.Print("Choose (or 'q' to quit): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return story.Decision{}, true, nil
			}
			return story.Decision{}, false, fmt.Errorf("read decision: %w", err)
		}
		input = strings.TrimSpace(strings.ToLower(input))

		if input == "q" || input == "quit" {
			return story.Decision{}, true, nil
		}
		choice, err := strconv.Atoi(input)
		if err != nil || choice < 1 || choice > len(decisions) {
			colours.Error.Println("❌ Invalid selection! Please try again.")
			continue
		}
		return decisions[choice-1], false, nil
	}
}
