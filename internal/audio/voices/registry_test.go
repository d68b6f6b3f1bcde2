package voices

import (
	"errors"
	"testing"
)

func TestNewRegistryRequiresNarratorVoice(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{name: "empty", id: ""},
		{name: "whitespace only", id: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(tt.id); !errors.Is(err, ErrNarratorNotConfigured) {
				t.Fatalf("NewRegistry(%q) error = %v, want ErrNarratorNotConfigured", tt.id, err)
			}
		})
	}
}

func TestResolveNormalizesNames(t *testing.T) {
	r, err := NewRegistry("narrator-voice")
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	r.Configure(map[string]string{"narrator": "should-be-overwritten", "  Hero ": "hero-voice"})

	for _, name := range []string{"Narrator", " narrator ", "NARRATOR"} {
		id, ok := r.Resolve(name)
		if !ok {
			t.Fatalf("Resolve(%q) not found", name)
		}
		if id != "narrator-voice" {
			t.Errorf("Resolve(%q) = %q, want narrator-voice", name, id)
		}
	}

	if id, ok := r.Resolve("hero"); !ok || id != "hero-voice" {
		t.Errorf("Resolve(hero) = %q, %v; want hero-voice, true", id, ok)
	}
}

func TestResolveUnknownCharacter(t *testing.T) {
	r, err := NewRegistry("narrator-voice")
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if id, ok := r.Resolve("stranger"); ok {
		t.Errorf("Resolve(stranger) = %q, want not found", id)
	}
}

func TestConfigureReplacesMapping(t *testing.T) {
	r, err := NewRegistry("narrator-voice")
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	r.Configure(map[string]string{"Hero": "v1"})
	r.Configure(map[string]string{"Villain": "v2"})

	if _, ok := r.Resolve("hero"); ok {
		t.Error("hero survived a Configure that replaced the mapping")
	}
	if id, ok := r.Resolve("villain"); !ok || id != "v2" {
		t.Errorf("Resolve(villain) = %q, %v; want v2, true", id, ok)
	}
	if id, ok := r.Resolve("narrator"); !ok || id != "narrator-voice" {
		t.Errorf("narrator entry missing after Configure: %q, %v", id, ok)
	}
}

func TestVoicesReturnsCopy(t *testing.T) {
	r, err := NewRegistry("narrator-voice")
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	r.Configure(map[string]string{"hero": "v1"})

	m := r.Voices()
	m["hero"] = "tampered"

	if id, _ := r.Resolve("hero"); id != "v1" {
		t.Errorf("registry mutated through Voices() copy: %q", id)
	}
}
