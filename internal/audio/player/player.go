package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/sirupsen/logrus"
)

// ErrDestroyed means the player was closed; it cannot be reused.
var ErrDestroyed = errors.New("player: destroyed")

// PlaybackError wraps a decode or output failure during playback.
type PlaybackError struct {
	Err error
}

func (e *PlaybackError) Error() string { return fmt.Sprintf("player: playback failed: %v", e.Err) }
func (e *PlaybackError) Unwrap() error { return e.Err }

// Player is the single narration output. It owns at most one decoded stream
// at a time; starting a new sound stops and releases the previous one, and
// every stream is closed exactly once.
type Player struct {
	out *Output
	log *logrus.Entry

	mu        sync.Mutex
	volume    float64
	stream    beep.StreamSeekCloser
	vol       *effects.Volume
	ctrl      *beep.Ctrl
	playing   bool
	destroyed bool
}

// NewPlayer creates a narration player on the shared output. The initial
// volume is clamped to [0, 1].
func NewPlayer(out *Output, volume float64) *Player {
	return &Player{
		out:    out,
		volume: clampVolume(volume),
		log:    logrus.WithField("component", "player"),
	}
}

// Play decodes the MP3 bytes and plays them to natural end, blocking the
// caller. Any sound still playing is stopped first. Returns nil when playback
// finishes or is superseded/stopped, a PlaybackError on decode or output
// failure, and the context error on cancellation.
func (p *Player) Play(ctx context.Context, data []byte) error {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return ErrDestroyed
	}
	if !p.out.Unlocked() {
		p.mu.Unlock()
		return ErrOutputLocked
	}
	p.stopLocked()

	stream, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		p.mu.Unlock()
		return &PlaybackError{Err: fmt.Errorf("decode mp3: %w", err)}
	}

	var s beep.Streamer = stream
	if format.SampleRate != p.out.SampleRate() {
		s = beep.Resample(4, format.SampleRate, p.out.SampleRate(), stream)
	}
	vol := &effects.Volume{Streamer: s, Base: 2, Volume: volumeGain(p.volume), Silent: p.volume == 0}
	ctrl := &beep.Ctrl{Streamer: vol}
	done := make(chan struct{})

	p.stream = stream
	p.vol = vol
	p.ctrl = ctrl
	p.playing = true
	p.mu.Unlock()

	speaker.Play(beep.Seq(ctrl, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.stream != stream {
			// Superseded or stopped; the stream was already released.
			return nil
		}
		streamErr := stream.Err()
		p.releaseLocked()
		if streamErr != nil {
			return &PlaybackError{Err: streamErr}
		}
		return nil
	case <-ctx.Done():
		p.mu.Lock()
		if p.stream == stream {
			p.stopLocked()
		}
		p.mu.Unlock()
		return ctx.Err()
	}
}

// Stop halts the current sound. Idempotent no-op when nothing is playing.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return ErrDestroyed
	}
	p.stopLocked()
	return nil
}

// SetVolume clamps to [0, 1] and applies to in-flight and future playback.
// Safe to call while nothing is loaded.
func (p *Player) SetVolume(v float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return ErrDestroyed
	}

	p.volume = clampVolume(v)
	if p.vol != nil {
		speaker.Lock()
		p.vol.Volume = volumeGain(p.volume)
		p.vol.Silent = p.volume == 0
		speaker.Unlock()
	}
	return nil
}

// Volume reads back the applied volume.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Close stops playback and releases the player. Every later call fails with
// ErrDestroyed.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return ErrDestroyed
	}
	p.stopLocked()
	p.destroyed = true
	p.log.Debug("player destroyed")
	return nil
}

// stopLocked detaches the current sound from the mixer and releases its
// stream. The nil-streamer ctrl drains from the mixer and fires the
// completion callback, which wakes any blocked Play.
func (p *Player) stopLocked() {
	if !p.playing {
		return
	}
	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Streamer = nil
		speaker.Unlock()
	}
	p.releaseLocked()
}

// releaseLocked closes the decoded stream exactly once and clears playback
// state.
func (p *Player) releaseLocked() {
	if p.stream != nil {
		if err := p.stream.Close(); err != nil {
			p.log.WithError(err).Warn("failed to close audio stream")
		}
		p.stream = nil
	}
	p.vol = nil
	p.ctrl = nil
	p.playing = false
}

func clampVolume(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// volumeGain maps a linear [0, 1] volume to a base-2 gain exponent.
func volumeGain(v float64) float64 {
	if v <= 0 {
		return 0 // silent flag handles muting
	}
	return math.Log2(v)
}
