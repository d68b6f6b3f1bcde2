package music

import (
	"math"
	"testing"

	"github.com/faiface/beep"
)

// toneStreamer produces a sine tone at a fixed number of samples per cycle.
type toneStreamer struct {
	samplesPerCycle int
	pos             int
}

func (t *toneStreamer) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		v := math.Sin(2 * math.Pi * float64(t.pos) / float64(t.samplesPerCycle))
		samples[i][0] = v
		samples[i][1] = v
		t.pos++
	}
	return len(samples), true
}

func (t *toneStreamer) Err() error { return nil }

func drain(s beep.Streamer, n int) {
	buf := make([][2]float64, 512)
	for n > 0 {
		chunk := buf
		if n < len(buf) {
			chunk = buf[:n]
		}
		got, _ := s.Stream(chunk)
		n -= got
	}
}

func TestAnalyzerBinCount(t *testing.T) {
	a := NewAnalyzer(256)
	if got := a.BinCount(); got != 128 {
		t.Errorf("BinCount() = %d, want 128", got)
	}
	if got := len(a.Frequencies()); got != 128 {
		t.Errorf("len(Frequencies()) = %d, want 128", got)
	}
}

func TestAnalyzerDefaultsWindowSize(t *testing.T) {
	if got := NewAnalyzer(0).BinCount(); got != 128 {
		t.Errorf("BinCount() = %d, want 128", got)
	}
}

func TestTapPassesSamplesThrough(t *testing.T) {
	a := NewAnalyzer(64)
	tone := &toneStreamer{samplesPerCycle: 16}
	tap := a.Tap(tone)

	buf := make([][2]float64, 32)
	n, ok := tap.Stream(buf)
	if n != 32 || !ok {
		t.Fatalf("Stream = (%d, %v), want (32, true)", n, ok)
	}
	for i, s := range buf {
		want := math.Sin(2 * math.Pi * float64(i) / 16)
		if math.Abs(s[0]-want) > 1e-9 {
			t.Fatalf("sample %d = %v, tap altered the audio (want %v)", i, s[0], want)
		}
	}
}

func TestFrequenciesPeakAtToneBin(t *testing.T) {
	const fftSize = 256
	a := NewAnalyzer(fftSize)
	// 16 samples per cycle across a 256-sample window puts the tone in bin 16.
	drain(a.Tap(&toneStreamer{samplesPerCycle: 16}), fftSize)

	mags := a.Frequencies()
	peak := 0
	for i, m := range mags {
		if m > mags[peak] {
			peak = i
		}
	}
	if peak != 16 {
		t.Errorf("spectrum peak at bin %d, want 16", peak)
	}
}

func TestFrequenciesOfSilence(t *testing.T) {
	a := NewAnalyzer(128)
	for _, m := range a.Frequencies() {
		if m != 0 {
			t.Fatalf("silent window produced non-zero magnitude %v", m)
		}
	}
}
