package insight

// Insight is the structured analysis the first model stage must return.
// The schema is embedded in the prompt and the reply is parsed strictly;
// anything that fails to parse falls back to a templated message.
type Insight struct {
	Summary      string   `json:"summary"`
	Observations []string `json:"observations"`
	Suggestion   string   `json:"suggestion"`
	Tone         string   `json:"tone"`
}
