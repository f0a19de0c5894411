package llm

// ChatRequest represents a chat completion request handed to a Provider.
type ChatRequest struct {
	Model    string    `json:"model"`    // Model name (e.g., "gemini-2.5-flash")
	Messages []Message `json:"messages"` // Conversation history, system turn first

	// Generation options
	Options *Options `json:"options,omitempty"`
}
