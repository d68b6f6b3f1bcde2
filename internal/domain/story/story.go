package story

// DialogueLine is one spoken line attributed to a character.
type DialogueLine struct {
	Character string `json:"character"`
	Gender    string `json:"gender,omitempty"`
	Text      string `json:"text"`
}

// Segment bundles one narration passage with zero or more dialogue lines.
type Segment struct {
	Narration string         `json:"narration"`
	Dialogue  []DialogueLine `json:"dialogue"`
}

// Decision is one player choice offered at the end of a scene.
type Decision struct {
	Text         string `json:"text"`
	Consequences string `json:"consequences"`
}

// Character describes a character introduced by the generation service.
type Character struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
}

// Scene is one generation-service response: the segments to narrate and the
// decisions offered afterwards.
type Scene struct {
	Segments   []Segment   `json:"segments"`
	Decisions  []Decision  `json:"decisions,omitempty"`
	Characters []Character `json:"characters,omitempty"`
}

// Params carries the player-chosen setup for a story session.
type Params struct {
	CharacterName       string
	CharacterAge        string
	CharacterBackground string
	Genre               string
	Premise             string
}

// PlayedScene is a settled scene kept in the session history, together with
// the decision the player took.
type PlayedScene struct {
	Scene    Scene
	Decision Decision
}
