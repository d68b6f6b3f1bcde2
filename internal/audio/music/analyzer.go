package music

import (
	"math/cmplx"
	"sync"

	"github.com/faiface/beep"
	"github.com/mjibson/go-dsp/fft"
)

// Analyzer taps an audio stream and exposes frequency-domain data for
// visualization. It is pull-based: samples are captured as they flow through
// the tap, and the spectrum is only computed when a consumer asks for it, so
// consumer read frequency never affects playback.
type Analyzer struct {
	mu     sync.Mutex
	window []float64
	pos    int
}

// NewAnalyzer creates an analyzer over a window of fftSize mono samples.
func NewAnalyzer(fftSize int) *Analyzer {
	if fftSize <= 0 {
		fftSize = 256
	}
	return &Analyzer{window: make([]float64, fftSize)}
}

// Tap wraps s so its samples flow through the analyzer unchanged.
func (a *Analyzer) Tap(s beep.Streamer) beep.Streamer {
	return &tapStreamer{a: a, s: s}
}

type tapStreamer struct {
	a *Analyzer
	s beep.Streamer
}

func (t *tapStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	t.a.push(samples[:n])
	return n, ok
}

func (t *tapStreamer) Err() error { return t.s.Err() }

func (a *Analyzer) push(samples [][2]float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range samples {
		a.window[a.pos] = (s[0] + s[1]) / 2
		a.pos = (a.pos + 1) % len(a.window)
	}
}

// Frequencies computes the magnitude spectrum of the most recent window.
// The result has BinCount entries, ordered from low to high frequency.
func (a *Analyzer) Frequencies() []float64 {
	a.mu.Lock()
	w := make([]float64, len(a.window))
	// Unwrap the ring so the oldest sample comes first.
	n := copy(w, a.window[a.pos:])
	copy(w[n:], a.window[:a.pos])
	a.mu.Unlock()

	spectrum := fft.FFTReal(w)
	mags := make([]float64, len(w)/2)
	for i := range mags {
		mags[i] = cmplx.Abs(spectrum[i]) / float64(len(w))
	}
	return mags
}

// BinCount is the number of frequency bins Frequencies returns.
func (a *Analyzer) BinCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.window) / 2
}
