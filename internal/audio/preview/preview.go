package preview

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"taleweaver/internal/audio/player"
)

// defaultCacheSize bounds the decoded-clip cache when no size is configured.
const defaultCacheSize = 32

type decodeFunc func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

// Player auditions pre-recorded voice clips during voice selection. Decoded
// clips are cached in an LRU keyed by voice id, so repeat previews skip the
// disk read; the cache is bounded to keep memory growth in check. At most one
// preview plays at a time.
type Player struct {
	out    *player.Output
	dir    string
	cache  *lru.Cache[string, *beep.Buffer]
	decode decodeFunc
	log    *logrus.Entry

	mu   sync.Mutex
	ctrl *beep.Ctrl
}

// New creates a preview player over the static clip directory.
func New(out *player.Output, dir string, cacheSize int) (*Player, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, *beep.Buffer](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("preview: create cache: %w", err)
	}

	return &Player{
		out:    out,
		dir:    dir,
		cache:  cache,
		decode: mp3.Decode,
		log:    logrus.WithField("component", "preview"),
	}, nil
}

// PlayPreview plays the sample clip for a voice, stopping any preview that is
// still running, and blocks until the clip finishes. Fetch or decode failures
// surface directly; there is no retry.
func (p *Player) PlayPreview(ctx context.Context, voiceName, voiceID, role string) error {
	if voiceID == "" {
		return fmt.Errorf("preview: voice id is required")
	}
	if !p.out.Unlocked() {
		return player.ErrOutputLocked
	}

	buf, err := p.clipFor(voiceName, voiceID)
	if err != nil {
		return err
	}

	p.log.WithFields(logrus.Fields{
		"voice": voiceName,
		"role":  role,
	}).Debug("playing voice preview")

	p.Stop()

	var s beep.Streamer = buf.Streamer(0, buf.Len())
	if buf.Format().SampleRate != p.out.SampleRate() {
		s = beep.Resample(4, buf.Format().SampleRate, p.out.SampleRate(), s)
	}
	ctrl := &beep.Ctrl{Streamer: s}
	done := make(chan struct{})

	p.mu.Lock()
	p.ctrl = ctrl
	p.mu.Unlock()

	speaker.Play(beep.Seq(ctrl, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		p.mu.Lock()
		if p.ctrl == ctrl {
			p.ctrl = nil
		}
		p.mu.Unlock()
		return nil
	case <-ctx.Done():
		p.Stop()
		return ctx.Err()
	}
}

// clipFor returns the decoded clip for a voice, loading and caching it on
// first use. Cache writes are idempotent: the same voice id always decodes to
// the same clip, so a racing double-load is harmless.
func (p *Player) clipFor(voiceName, voiceID string) (*beep.Buffer, error) {
	if buf, ok := p.cache.Get(voiceID); ok {
		return buf, nil
	}

	path := filepath.Join(p.dir, fmt.Sprintf("%s_%s.mp3", voiceName, voiceID))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("preview: open clip %s: %w", path, err)
	}
	stream, format, err := p.decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("preview: decode clip %s: %w", path, err)
	}

	buf := beep.NewBuffer(format)
	buf.Append(stream)
	if err := stream.Close(); err != nil {
		p.log.WithError(err).Warn("failed to close preview stream")
	}

	p.cache.Add(voiceID, buf)
	p.log.WithField("voice", voiceName).Debug("cached voice preview clip")
	return buf, nil
}

// Stop halts the current preview. Idempotent; safe when nothing is playing.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Streamer = nil
	speaker.Unlock()
	p.ctrl = nil
}

// ClearCache drops every cached clip.
func (p *Player) ClearCache() {
	p.cache.Purge()
}

// CacheLen reports how many clips are cached.
func (p *Player) CacheLen() int {
	return p.cache.Len()
}
