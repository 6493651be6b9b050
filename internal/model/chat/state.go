package chat

// State is a point-in-time copy of everything a surface needs to draw the conversation.
type State struct {
	Messages []Message `json:"messages"`
	Busy     bool      `json:"busy"`
	Draft    string    `json:"draft,omitempty"`
}
