package model

import "time"

// Interaction is a single record in the working set.
//
// Dimensions are free-form key/value pairs ("intent": "how_to",
// "locale": "en-US"). Keys are not schema-bound: two interactions may
// carry entirely different dimension sets, and most analysis treats an
// absent key as a value of its own. Tags are flat labels with no value.
type Interaction struct {
	ID         string            `json:"id"`
	Input      Input             `json:"input"`
	Dimensions map[string]string `json:"dimensions,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	CreatedAt  time.Time         `json:"created_at,omitzero"`
	UpdatedAt  time.Time         `json:"updated_at,omitzero"`
}

// Input holds the interaction's raw input payload.
type Input struct {
	Text string `json:"text"`
}

// Dimension returns the value for key, or ok=false if the key is absent.
// An empty-string value is a real value, distinct from an absent key.
func (in Interaction) Dimension(key string) (string, bool) {
	v, ok := in.Dimensions[key]
	return v, ok
}

// Label records a review verdict for one interaction.
//
// At most one label exists per interaction; later writes replace
// earlier ones.
type Label struct {
	InteractionID string    `json:"interaction_id"`
	Verdict       string    `json:"verdict"`
	Notes         string    `json:"notes,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitzero"`
}
