package gen

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"taleweaver/internal/domain/story"
)

// codeFence matches a markdown code block, optionally tagged json. Models
// wrap their output in one often enough that we strip it before parsing.
var codeFence = regexp.MustCompile("(?s)```(?:json)?\n?(.*?)\n?```")

func cleanContent(content string) string {
	if m := codeFence.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(content)
}

// ParseScene turns a model response into a scene. The response must be a JSON
// object with at least one segment; anything else fails with
// ErrMalformedResponse so callers can report it uniformly.
func ParseScene(content string) (*story.Scene, error) {
	cleaned := cleanContent(content)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty content", ErrMalformedResponse)
	}

	var scene story.Scene
	if err := json.Unmarshal([]byte(cleaned), &scene); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(scene.Segments) == 0 {
		return nil, fmt.Errorf("%w: no segments", ErrMalformedResponse)
	}

	for i := range scene.Segments {
		seg := &scene.Segments[i]
		seg.Narration = strings.TrimSpace(seg.Narration)
		for j := range seg.Dialogue {
			seg.Dialogue[j].Character = strings.TrimSpace(seg.Dialogue[j].Character)
			seg.Dialogue[j].Text = strings.TrimSpace(seg.Dialogue[j].Text)
		}
	}
	return &scene, nil
}
