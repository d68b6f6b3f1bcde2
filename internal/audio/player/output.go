package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/sirupsen/logrus"
)

// outputSampleRate is the fixed rate the speaker is initialized with; all
// playback is resampled to it so narration, music and previews can share the
// one device.
const outputSampleRate = beep.SampleRate(44100)

// ErrOutputLocked means the shared audio output has not been unlocked yet.
// Playback attempts before the first Unlock fail with this error instead of
// crashing; callers treat it as "not yet".
var ErrOutputLocked = errors.New("player: audio output not unlocked")

// Output is the process-wide audio device gate. The speaker is initialized
// exactly once, on the first Unlock — the explicit equivalent of the
// "resume on first user interaction" requirement some hosts impose.
type Output struct {
	mu       sync.Mutex
	unlocked bool
	ready    chan struct{}
	log      *logrus.Entry
}

// NewOutput creates a locked output.
func NewOutput() *Output {
	return &Output{
		ready: make(chan struct{}),
		log:   logrus.WithField("component", "player.output"),
	}
}

// Unlock initializes the speaker. Idempotent; later calls are no-ops.
func (o *Output) Unlock() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.unlocked {
		return nil
	}
	if err := speaker.Init(outputSampleRate, outputSampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("player: init speaker: %w", err)
	}
	o.unlocked = true
	close(o.ready)
	o.log.Debug("audio output unlocked")
	return nil
}

// Unlocked reports whether the device is ready for playback.
func (o *Output) Unlocked() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.unlocked
}

// AwaitUnlock blocks until the output is unlocked or the context ends.
func (o *Output) AwaitUnlock(ctx context.Context) error {
	select {
	case <-o.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SampleRate returns the device sample rate.
func (o *Output) SampleRate() beep.SampleRate {
	return outputSampleRate
}
