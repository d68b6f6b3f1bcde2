package music

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/sirupsen/logrus"

	"taleweaver/internal/audio/player"
)

// ErrClosed means the channel was torn down and cannot be reused.
var ErrClosed = errors.New("music: channel closed")

// selfHealInterval is how often the watchdog re-asserts wanted playback that
// has unexpectedly stopped.
const selfHealInterval = time.Second

// Channel is the looping background-music channel. It owns its own decode
// pipeline, independent of the narration player, and never synchronizes with
// narration playback. A watchdog restarts the loop when it dies while
// playback is still wanted.
type Channel struct {
	out      *player.Output
	path     string
	analyzer *Analyzer
	log      *logrus.Entry

	mu        sync.Mutex
	volume    float64
	muted     bool
	want      bool
	suspended bool
	active    bool
	session   uint64
	stream    beep.StreamSeekCloser
	ctrl      *beep.Ctrl
	vol       *effects.Volume
	closed    bool

	ended chan uint64
	done  chan struct{}
}

// NewChannel creates the background channel for the given MP3 file. Nothing
// is opened until the first Play.
func NewChannel(out *player.Output, path string, volume float64, fftSize int) *Channel {
	c := &Channel{
		out:      out,
		path:     path,
		analyzer: NewAnalyzer(fftSize),
		volume:   clamp(volume),
		log:      logrus.WithField("component", "music"),
		ended:    make(chan uint64, 4),
		done:     make(chan struct{}),
	}
	go c.monitor()
	go c.watchdog()
	return c
}

// Play starts (or resumes) the loop. Idempotent. Requires the shared output
// to be unlocked; before that it fails with player.ErrOutputLocked, which
// callers treat as "not yet" rather than a crash.
func (c *Channel) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !c.out.Unlocked() {
		return player.ErrOutputLocked
	}

	c.want = true
	c.suspended = false
	if c.active {
		c.setPausedLocked(false)
		return nil
	}
	return c.startLocked()
}

// Pause halts the loop without releasing it. Idempotent.
func (c *Channel) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.want = false
	if c.active {
		c.setPausedLocked(true)
	}
}

// Suspend pauses output while remembering whether playback was wanted, the
// equivalent of the host backgrounding the application.
func (c *Channel) Suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.suspended = true
	if c.active {
		c.setPausedLocked(true)
	}
}

// Resume re-asserts the pre-suspension state explicitly instead of trusting
// the device to have kept playing.
func (c *Channel) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.suspended = false
	if !c.want || c.closed {
		return
	}
	if c.active {
		c.setPausedLocked(false)
		return
	}
	if c.out.Unlocked() {
		if err := c.startLocked(); err != nil {
			c.log.WithError(err).Warn("failed to resume background music")
		}
	}
}

// SetVolume clamps to [0, 1] and applies immediately.
func (c *Channel) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.volume = clamp(v)
	c.applyVolumeLocked()
}

// Volume reads back the applied volume.
func (c *Channel) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// ToggleMute flips the mute flag without touching the volume level.
func (c *Channel) ToggleMute() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.muted = !c.muted
	c.applyVolumeLocked()
}

// Muted reports the mute flag.
func (c *Channel) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// Playing reports whether the loop is currently audible.
func (c *Channel) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active && c.want && !c.suspended
}

// Analyzer returns the frequency analysis handle for visualization.
func (c *Channel) Analyzer() *Analyzer {
	return c.analyzer
}

// Close tears the channel down. It cannot be reused afterwards.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.want = false
	c.releaseLocked()
	c.closed = true
	close(c.done)
	return nil
}

// startLocked opens and decodes the configured file and attaches the loop to
// the mixer.
func (c *Channel) startLocked() error {
	f, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("music: open %s: %w", c.path, err)
	}
	stream, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("music: decode %s: %w", c.path, err)
	}

	var s beep.Streamer = beep.Loop(-1, stream)
	if format.SampleRate != c.out.SampleRate() {
		s = beep.Resample(4, format.SampleRate, c.out.SampleRate(), s)
	}
	s = c.analyzer.Tap(s)

	vol := &effects.Volume{Streamer: s, Base: 2, Volume: gain(c.volume), Silent: c.muted || c.volume == 0}
	ctrl := &beep.Ctrl{Streamer: vol}

	c.session++
	session := c.session
	c.stream = stream
	c.ctrl = ctrl
	c.vol = vol
	c.active = true

	// The callback runs inside the mixer; it must not take c.mu. It hands
	// the session to the monitor goroutine instead.
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		select {
		case c.ended <- session:
		default:
		}
	})))

	c.log.WithField("file", c.path).Debug("background music started")
	return nil
}

// monitor releases the pipeline when a loop session ends on its own (a loop
// only ends through a decode/stream failure or teardown). The watchdog takes
// care of restarting.
func (c *Channel) monitor() {
	for {
		select {
		case session := <-c.ended:
			c.mu.Lock()
			if session == c.session && c.active {
				if err := c.stream.Err(); err != nil {
					c.log.WithError(err).Warn("background music stopped unexpectedly")
				}
				c.releaseLocked()
			}
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

// watchdog re-asserts wanted playback once per second. This self-heals loops
// that died mid-session instead of giving up silently.
func (c *Channel) watchdog() {
	ticker := time.NewTicker(selfHealInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			if c.want && !c.suspended && !c.active && !c.closed && c.out.Unlocked() {
				if err := c.startLocked(); err != nil {
					c.log.WithError(err).Warn("failed to restart background music")
				}
			}
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

func (c *Channel) setPausedLocked(paused bool) {
	if c.ctrl == nil {
		return
	}
	speaker.Lock()
	c.ctrl.Paused = paused
	speaker.Unlock()
}

func (c *Channel) applyVolumeLocked() {
	if c.vol == nil {
		return
	}
	speaker.Lock()
	c.vol.Volume = gain(c.volume)
	c.vol.Silent = c.muted || c.volume == 0
	speaker.Unlock()
}

// releaseLocked detaches the loop from the mixer and closes the decoded
// stream exactly once.
func (c *Channel) releaseLocked() {
	if c.ctrl != nil {
		speaker.Lock()
		c.ctrl.Streamer = nil
		speaker.Unlock()
	}
	if c.stream != nil {
		if err := c.stream.Close(); err != nil {
			c.log.WithError(err).Warn("failed to close music stream")
		}
		c.stream = nil
	}
	c.ctrl = nil
	c.vol = nil
	c.active = false
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func gain(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Log2(v)
}
