package gen

import (
	"fmt"
	"math/rand"
	"strings"

	"taleweaver/internal/domain/story"
)

// scenePattern shapes how a continuation scene alternates between narration
// and dialogue, so consecutive scenes do not all read the same.
type scenePattern struct {
	name string
	flow []string
}

var scenePatterns = []scenePattern{
	{
		name: "Narrative Focus",
		flow: []string{
			"Narration (3-4 sentences)",
			"1 line(s) of dialogue",
			"Narration (2-3 sentences)",
			"1 line(s) of dialogue",
			"Narration (2-3 sentences)",
		},
	},
	{
		name: "Dialogue Heavy",
		flow: []string{
			"Narration (2-3 sentences)",
			"2 line(s) of dialogue",
			"Narration (1-2 sentences)",
			"2 line(s) of dialogue",
			"Narration (2-3 sentences)",
		},
	},
	{
		name: "Balanced",
		flow: []string{
			"Narration (2-3 sentences)",
			"1 line(s) of dialogue",
			"Narration (2-3 sentences)",
			"1 line(s) of dialogue",
			"Narration (2-3 sentences)",
			"1 line(s) of dialogue",
		},
	},
}

const continuationSystemPrompt = `You are a creative storyteller who crafts engaging narratives with branching paths. You maintain consistency with previous events and character development.`

func systemPrompt(genre string) string {
	return fmt.Sprintf(`You are a creative storyteller specializing in %s stories.
Create engaging, immersive narratives with a mix of narration and character dialogue.
Focus on showing rather than telling, and create vivid scenes that bring the story to life.

Follow these narration guidelines:
  - Set the scene and atmosphere
  - Describe character reactions and emotions
  - Show environmental changes and impacts
  - Build tension and pacing

IMPORTANT: Follow the exact pattern structure provided in each prompt.
When introducing new characters, mark them with [INTRODUCTION] in their first dialogue.`, genre)
}

func openingPrompt(p story.Params) string {
	return fmt.Sprintf(`Create a short opening scene for a %s story with these details:

Main Character:
- Name: %s
- Age: %s
- Background: %s

Story Premise: %s

AGE-APPROPRIATE CONTENT RULES:
1. If age < 13: Keep content child-friendly, no violence or complex themes
2. If age 13-17: Mild content, avoid explicit themes
3. If age >= 18: Standard content appropriate for adults

CRITICAL FORMATTING RULES:
1. Response MUST be ONLY valid JSON
2. NO markdown code blocks
3. NO extra text before or after JSON
4. Keep narration segments 2-3 sentences
5. Keep dialogue natural and concise
6. Use simple vocabulary for text-to-speech
7. ALWAYS provide 2-4 distinct decisions

Format the response as a JSON object with this structure:
%s

RESPONSE REQUIREMENTS:
1. MUST be pure JSON - no other text
2. Include narration between dialogue to enhance immersion
3. Introduce maximum 2 characters initially
4. Use "Narrator" for narrator text
5. Mark new characters with [INTRODUCTION]
6. Adapt content to character's age
7. Ensure story tone matches genre`,
		p.Genre, p.CharacterName, p.CharacterAge, p.CharacterBackground, p.Premise, responseStructure)
}

func continuationPrompt(p story.Params, history []story.PlayedScene, decision story.Decision) string {
	pattern := scenePatterns[rand.Intn(len(scenePatterns))]

	var flow strings.Builder
	for i, step := range pattern.flow {
		fmt.Fprintf(&flow, "%d. %s\n", i+1, step)
	}

	return fmt.Sprintf(`Continue the %s story based on the complete history:

Character:
- Name: %s
- Age: %s
- Background: %s

Original Premise: %s

Story History:
%s
Decision Made: %s
Expected Consequences: %s

SCENE PATTERN: %q
Follow this exact structure:
%s
CRITICAL FORMATTING RULES:
1. Response MUST be ONLY valid JSON
2. NO markdown code blocks
3. NO extra text before or after JSON
4. Keep dialogue natural and concise
5. End with 2-4 meaningful choices that affect the story

Format the response as a JSON object with this structure:
%s

RESPONSE REQUIREMENTS:
1. MUST be pure JSON - no other text
2. The scene must follow naturally from all previous events
3. Dialogue should reflect the characters' knowledge of past events
4. Adapt content to character's age
5. Each decision MUST have different consequences and impacts`,
		p.Genre, p.CharacterName, p.CharacterAge, p.CharacterBackground, p.Premise,
		renderHistory(history), decision.Text, decision.Consequences,
		pattern.name, flow.String(), responseStructure)
}

// renderHistory flattens played scenes into the prompt's narrative log.
func renderHistory(history []story.PlayedScene) string {
	var b strings.Builder
	for i, played := range history {
		fmt.Fprintf(&b, "Scene %d:\n", i+1)
		for _, seg := range played.Scene.Segments {
			if seg.Narration != "" {
				fmt.Fprintf(&b, "Narration: %s\n", seg.Narration)
			}
			for _, line := range seg.Dialogue {
				fmt.Fprintf(&b, "%s: %q\n", line.Character, line.Text)
			}
		}
		fmt.Fprintf(&b, "Decision Made: %s\n", played.Decision.Text)
		fmt.Fprintf(&b, "Consequences: %s\n\n", played.Decision.Consequences)
	}
	return b.String()
}

const responseStructure = `{
  "segments": [
    {
      "narration": "Descriptive text (2-3 sentences)",
      "dialogue": [
        {
          "character": "Character Name",
          "gender": "male" or "female",
          "text": "Spoken text"
        }
      ]
    }
  ],
  "decisions": [
    {
      "text": "Description of the choice",
      "consequences": "Brief hint about potential impact"
    }
  ]
}`
