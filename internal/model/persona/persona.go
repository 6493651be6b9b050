package persona

// Persona captures the assistant identity shown by every surface.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	OpeningLine string `json:"openingLine"`
	Placeholder string `json:"placeholder"`
	EmptyTitle  string `json:"emptyTitle"`
	EmptyHint   string `json:"emptyHint"`
}

// Default returns the MaxAI persona.
func Default() Persona {
	return Persona{
		ID:          "maxai",
		Name:        "MaxAI",
		Title:       "Advanced reasoning assistant",
		OpeningLine: "Hi there! I'm **MaxAI**, your advanced reasoning assistant. What complex problem can I help you solve today?",
		Placeholder: "Ask MaxAI to solve a complex problem...",
		EmptyTitle:  "How can I help you today?",
		EmptyHint:   "Ask anything, from simple questions to complex programming problems.",
	}
}
