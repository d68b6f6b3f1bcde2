package player

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPlayRequiresUnlockedOutput(t *testing.T) {
	p := NewPlayer(NewOutput(), 0.7)

	err := p.Play(context.Background(), []byte("not-audio"))
	if !errors.Is(err, ErrOutputLocked) {
		t.Fatalf("Play on locked output = %v, want ErrOutputLocked", err)
	}
}

func TestSetVolumeClamps(t *testing.T) {
	tests := []struct {
		name string
		set  float64
		want float64
	}{
		{name: "below range", set: -0.5, want: 0},
		{name: "above range", set: 2, want: 1},
		{name: "in range", set: 0.4, want: 0.4},
		{name: "lower bound", set: 0, want: 0},
		{name: "upper bound", set: 1, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlayer(NewOutput(), 0.7)
			if err := p.SetVolume(tt.set); err != nil {
				t.Fatalf("SetVolume(%v): %v", tt.set, err)
			}
			if got := p.Volume(); got != tt.want {
				t.Errorf("Volume() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInitialVolumeClamped(t *testing.T) {
	if got := NewPlayer(NewOutput(), 3).Volume(); got != 1 {
		t.Errorf("Volume() = %v, want 1", got)
	}
	if got := NewPlayer(NewOutput(), -1).Volume(); got != 0 {
		t.Errorf("Volume() = %v, want 0", got)
	}
}

func TestStopIsIdempotentWhenNothingPlays(t *testing.T) {
	p := NewPlayer(NewOutput(), 0.7)
	for i := 0; i < 3; i++ {
		if err := p.Stop(); err != nil {
			t.Fatalf("Stop() call %d: %v", i+1, err)
		}
	}
}

func TestDestroyedPlayerRejectsEverything(t *testing.T) {
	p := NewPlayer(NewOutput(), 0.7)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := p.Play(context.Background(), nil); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Play after Close = %v, want ErrDestroyed", err)
	}
	if err := p.Stop(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Stop after Close = %v, want ErrDestroyed", err)
	}
	if err := p.SetVolume(0.5); !errors.Is(err, ErrDestroyed) {
		t.Errorf("SetVolume after Close = %v, want ErrDestroyed", err)
	}
	if err := p.Close(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("second Close = %v, want ErrDestroyed", err)
	}
}

func TestAwaitUnlockHonorsContext(t *testing.T) {
	o := NewOutput()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := o.AwaitUnlock(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("AwaitUnlock on locked output = %v, want deadline exceeded", err)
	}
	if o.Unlocked() {
		t.Error("output reported unlocked without Unlock")
	}
}

func TestVolumeGain(t *testing.T) {
	if got := volumeGain(1); got != 0 {
		t.Errorf("volumeGain(1) = %v, want 0", got)
	}
	if got := volumeGain(0.5); got != -1 {
		t.Errorf("volumeGain(0.5) = %v, want -1", got)
	}
}
